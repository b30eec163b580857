package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// OrderItem is the price snapshot of one leased unit, taken at checkout.
type OrderItem struct {
	ID                uuid.UUID       `json:"id" gorm:"type:uuid;primaryKey"`
	OrderID           uuid.UUID       `json:"order_id" gorm:"type:uuid;not null;index"`
	ProductID         uuid.UUID       `json:"product_id" gorm:"type:uuid;not null"`
	Quantity          int             `json:"quantity" gorm:"not null;default:1"`
	PurchasePriceHT   decimal.Decimal `json:"purchase_price_ht" gorm:"type:numeric(12,2);not null"`
	MarginPercent     decimal.Decimal `json:"margin_percent" gorm:"type:numeric(6,2);not null"`
	CalculatedPriceHT decimal.Decimal `json:"calculated_price_ht" gorm:"type:numeric(14,4);not null"` // monthly, per unit
	CoefficientUsed   decimal.Decimal `json:"coefficient_used" gorm:"type:numeric(8,6);not null"`
	CreatedAt         time.Time       `json:"created_at"`
}

func (i *OrderItem) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}
