package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Cart struct {
	ID        uuid.UUID  `json:"id" gorm:"type:uuid;primaryKey"`
	UserID    string     `json:"user_id" gorm:"not null;index"`
	Items     []CartItem `json:"items" gorm:"foreignKey:CartID"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

func (c *Cart) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

type CartItem struct {
	ID             uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	CartID         uuid.UUID `json:"cart_id" gorm:"type:uuid;not null;index"`
	ProductID      uuid.UUID `json:"product_id" gorm:"type:uuid;not null"`
	Product        *Product  `json:"product,omitempty" gorm:"foreignKey:ProductID"`
	Quantity       int       `json:"quantity" gorm:"not null;default:1"`
	DurationMonths int       `json:"duration_months" gorm:"not null;default:36"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func (i *CartItem) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}
