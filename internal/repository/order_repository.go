package repository

import (
	"leasing_market/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// orderItemBatchSize keeps each insert well under the bind parameter limit
// of postgres and sqlite.
const orderItemBatchSize = 500

type OrderRepository interface {
	PlaceOrder(order *models.Order, tracking *models.OrderTracking, log *models.OrderLog, cartID uuid.UUID) error
	GetByID(id uuid.UUID) (*models.Order, error)
	GetByOrganizationID(organizationID string) ([]models.Order, error)
	GetAll(status string) ([]models.Order, error)
	Update(order *models.Order) error
}

type orderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &orderRepository{db: db}
}

// PlaceOrder writes the order, its items, the tracking row and the creation
// log, then empties the cart. Nothing is kept if any step fails.
func (r *orderRepository) PlaceOrder(order *models.Order, tracking *models.OrderTracking, log *models.OrderLog, cartID uuid.UUID) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		items := order.Items
		if err := tx.Omit("Items").Create(order).Error; err != nil {
			return err
		}
		for i := range items {
			items[i].OrderID = order.ID
		}
		if len(items) > 0 {
			if err := tx.CreateInBatches(&items, orderItemBatchSize).Error; err != nil {
				return err
			}
		}
		order.Items = items

		tracking.OrderID = order.ID
		if err := tx.Create(tracking).Error; err != nil {
			return err
		}

		log.OrderID = order.ID
		if err := tx.Create(log).Error; err != nil {
			return err
		}

		return tx.Where("cart_id = ?", cartID).Delete(&models.CartItem{}).Error
	})
}

func (r *orderRepository) GetByID(id uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.Preload("Items").Where("id = ?", id).First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *orderRepository) GetByOrganizationID(organizationID string) ([]models.Order, error) {
	var orders []models.Order
	err := r.db.Where("organization_id = ?", organizationID).Order("created_at DESC").Find(&orders).Error
	return orders, err
}

func (r *orderRepository) GetAll(status string) ([]models.Order, error) {
	var orders []models.Order
	query := r.db.Order("created_at DESC")
	if status != "" {
		query = query.Where("status = ?", status)
	}
	err := query.Find(&orders).Error
	return orders, err
}

// Update saves the order columns. Items are written separately.
func (r *orderRepository) Update(order *models.Order) error {
	return r.db.Omit("Items").Save(order).Error
}
