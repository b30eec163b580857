package repository

import (
	"leasing_market/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type TrackingRepository interface {
	GetByOrderID(orderID uuid.UUID) (*models.OrderTracking, error)
	Save(tracking *models.OrderTracking, log *models.OrderLog) error
}

type trackingRepository struct {
	db *gorm.DB
}

func NewTrackingRepository(db *gorm.DB) TrackingRepository {
	return &trackingRepository{db: db}
}

func (r *trackingRepository) GetByOrderID(orderID uuid.UUID) (*models.OrderTracking, error) {
	var tracking models.OrderTracking
	err := r.db.Where("order_id = ?", orderID).First(&tracking).Error
	if err != nil {
		return nil, err
	}
	return &tracking, nil
}

// Save upserts the tracking row and, when log is not nil, records it.
func (r *trackingRepository) Save(tracking *models.OrderTracking, log *models.OrderLog) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(tracking).Error; err != nil {
			return err
		}
		if log == nil {
			return nil
		}
		return tx.Create(log).Error
	})
}
