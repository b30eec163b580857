package repository

import "gorm.io/gorm"

// Repositories are the order-side repositories bound to one transaction.
type Repositories struct {
	Orders     OrderRepository
	OrderItems OrderItemRepository
	Tracking   TrackingRepository
	Audit      AuditRepository
}

// Transactor runs fn with repositories that share a single transaction. The
// transaction commits when fn returns nil and rolls back otherwise.
type Transactor interface {
	InTransaction(fn func(repos Repositories) error) error
}

type transactor struct {
	db *gorm.DB
}

func NewTransactor(db *gorm.DB) Transactor {
	return &transactor{db: db}
}

func (t *transactor) InTransaction(fn func(repos Repositories) error) error {
	return t.db.Transaction(func(tx *gorm.DB) error {
		return fn(Repositories{
			Orders:     NewOrderRepository(tx),
			OrderItems: NewOrderItemRepository(tx),
			Tracking:   NewTrackingRepository(tx),
			Audit:      NewAuditRepository(tx),
		})
	})
}
