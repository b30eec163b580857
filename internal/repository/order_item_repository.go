package repository

import (
	"leasing_market/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// OrderItemRepository reads item snapshots. Items are inserted by PlaceOrder;
// only their monthly price and coefficient change afterwards.
type OrderItemRepository interface {
	GetByOrderID(orderID uuid.UUID) ([]models.OrderItem, error)
	UpdateProductPrice(orderID, productID uuid.UUID, calculatedPriceHT, coefficient decimal.Decimal) error
}

type orderItemRepository struct {
	db *gorm.DB
}

func NewOrderItemRepository(db *gorm.DB) OrderItemRepository {
	return &orderItemRepository{db: db}
}

func (r *orderItemRepository) GetByOrderID(orderID uuid.UUID) ([]models.OrderItem, error) {
	var orderItems []models.OrderItem
	err := r.db.Where("order_id = ?", orderID).Order("created_at ASC").Find(&orderItems).Error
	if err != nil {
		return nil, err
	}
	return orderItems, nil
}

// UpdateProductPrice reprices every unit of one product in an order.
func (r *orderItemRepository) UpdateProductPrice(orderID, productID uuid.UUID, calculatedPriceHT, coefficient decimal.Decimal) error {
	return r.db.Model(&models.OrderItem{}).
		Where("order_id = ? AND product_id = ?", orderID, productID).
		Updates(map[string]interface{}{
			"calculated_price_ht": calculatedPriceHT,
			"coefficient_used":    coefficient,
		}).Error
}
