package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Order struct {
	ID                    uuid.UUID       `json:"id" gorm:"type:uuid;primaryKey"`
	OrganizationID        string          `json:"organization_id" gorm:"not null;index"`
	UserID                string          `json:"user_id" gorm:"not null"`
	Status                string          `json:"status" gorm:"default:'pending'"`
	LeasingDurationMonths int             `json:"leasing_duration_months" gorm:"not null"`
	LeaserID              *uuid.UUID      `json:"leaser_id" gorm:"type:uuid"`
	TotalAmountHT         decimal.Decimal `json:"total_amount_ht" gorm:"type:numeric(14,4);not null"`
	DeliveryName          string          `json:"delivery_name"`
	DeliveryAddress       string          `json:"delivery_address"`
	DeliveryCity          string          `json:"delivery_city"`
	DeliveryPostalCode    string          `json:"delivery_postal_code"`
	DeliveryCountry       string          `json:"delivery_country"`
	DeliveryContactName   string          `json:"delivery_contact_name"`
	DeliveryContactPhone  string          `json:"delivery_contact_phone"`
	DeliveryInstructions  string          `json:"delivery_instructions"`
	Items                 []OrderItem     `json:"items,omitempty" gorm:"foreignKey:OrderID"`
	CreatedAt             time.Time       `json:"created_at"`
	UpdatedAt             time.Time       `json:"updated_at"`
	DeletedAt             gorm.DeletedAt  `json:"deleted_at" gorm:"index"`
}

func (o *Order) BeforeCreate(tx *gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}

type OrderStatus string

const (
	OrderDraft            OrderStatus = "draft"
	OrderPending          OrderStatus = "pending"
	OrderSentToLeaser     OrderStatus = "sent_to_leaser"
	OrderLeaserAccepted   OrderStatus = "leaser_accepted"
	OrderContractUploaded OrderStatus = "contract_uploaded"
	OrderProcessing       OrderStatus = "processing"
	OrderShipped          OrderStatus = "shipped"
	OrderDelivered        OrderStatus = "delivered"
	OrderCompleted        OrderStatus = "completed"
	OrderCancelled        OrderStatus = "cancelled"
)

// orderProgression lists the statuses an order moves through, in order.
// Cancelled sits outside it.
var orderProgression = []OrderStatus{
	OrderDraft,
	OrderPending,
	OrderSentToLeaser,
	OrderLeaserAccepted,
	OrderContractUploaded,
	OrderProcessing,
	OrderShipped,
	OrderDelivered,
	OrderCompleted,
}

func (s OrderStatus) rank() int {
	for i, st := range orderProgression {
		if st == s {
			return i
		}
	}
	return -1
}

func (s OrderStatus) Valid() bool {
	return s == OrderCancelled || s.rank() >= 0
}

// AtLeast reports whether s is at or past other in the progression.
func (s OrderStatus) AtLeast(other OrderStatus) bool {
	return s.rank() >= 0 && s.rank() >= other.rank()
}

// OrderPriceOverride is an append-only manual correction of an order summary
// figure. The most recent row per field is the one in force.
type OrderPriceOverride struct {
	ID        uint            `json:"id" gorm:"primaryKey"`
	OrderID   uuid.UUID       `json:"order_id" gorm:"type:uuid;not null;index"`
	Field     string          `json:"field" gorm:"not null"` // purchase_price_ht, ca_marlon_ht, monthly_ttc
	Value     decimal.Decimal `json:"value" gorm:"type:numeric(14,4);not null"`
	Reason    string          `json:"reason" gorm:"type:text;not null"`
	Author    string          `json:"author" gorm:"not null"`
	CreatedAt time.Time       `json:"created_at"`
}

type OverrideField string

const (
	OverridePurchasePriceHT OverrideField = "purchase_price_ht"
	OverrideCAMarlonHT      OverrideField = "ca_marlon_ht"
	OverrideMonthlyTTC      OverrideField = "monthly_ttc"
)
