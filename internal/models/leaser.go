package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Leaser struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	Name      string    `json:"name" gorm:"unique;not null"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (l *Leaser) BeforeCreate(tx *gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}

type LeasingDuration struct {
	ID     uint `json:"id" gorm:"primaryKey"`
	Months int  `json:"months" gorm:"uniqueIndex;not null"`
}

// LeaserCoefficient is one bracket of a rate table. A nil LeaserID applies to
// any leaser, a nil DurationMonths to any duration, a nil MaxAmount has no
// upper bound. Coefficient is stored in hundredths (3.2 = 0.032).
type LeaserCoefficient struct {
	ID             uuid.UUID           `json:"id" gorm:"type:uuid;primaryKey"`
	LeaserID       *uuid.UUID          `json:"leaser_id" gorm:"type:uuid;index"`
	DurationMonths *int                `json:"duration_months"`
	MinAmount      decimal.Decimal     `json:"min_amount" gorm:"type:numeric(12,2);not null"`
	MaxAmount      decimal.NullDecimal `json:"max_amount" gorm:"type:numeric(12,2)"`
	Coefficient    decimal.Decimal     `json:"coefficient" gorm:"type:numeric(8,4);not null"`
	CreatedAt      time.Time           `json:"created_at"`
	UpdatedAt      time.Time           `json:"updated_at"`
}

func (c *LeaserCoefficient) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}
