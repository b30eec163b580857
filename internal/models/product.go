package models

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Product struct {
	ID                  uuid.UUID           `json:"id" gorm:"type:uuid;primaryKey"`
	Name                string              `json:"name" gorm:"not null"`
	Slug                string              `json:"slug" gorm:"uniqueIndex;not null"`
	Reference           string              `json:"reference"`
	ProductType         string              `json:"product_type" gorm:"not null;default:'medical'"` // medical, it, furniture
	PurchasePriceHT     decimal.NullDecimal `json:"purchase_price_ht" gorm:"type:numeric(12,2)"`
	MarlonMarginPercent decimal.NullDecimal `json:"marlon_margin_percent" gorm:"type:numeric(6,2)"`
	DefaultLeaserID     *uuid.UUID          `json:"default_leaser_id" gorm:"type:uuid"`
	ParentProductID     *uuid.UUID          `json:"parent_product_id" gorm:"type:uuid;index"`
	VariantData         map[string]string   `json:"variant_data,omitempty" gorm:"serializer:json;type:text"`
	Images              []ProductImage      `json:"images,omitempty" gorm:"foreignKey:ProductID"`
	CreatedAt           time.Time           `json:"created_at"`
	UpdatedAt           time.Time           `json:"updated_at"`
}

func (p *Product) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// MainImage returns the image with the lowest order index, or "".
func (p *Product) MainImage() string {
	if len(p.Images) == 0 {
		return ""
	}
	images := make([]ProductImage, len(p.Images))
	copy(images, p.Images)
	sort.SliceStable(images, func(i, j int) bool {
		return images[i].OrderIndex < images[j].OrderIndex
	})
	return images[0].ImageURL
}

// HasPricing reports whether both purchase price and margin are set.
func (p *Product) HasPricing() bool {
	return p.PurchasePriceHT.Valid && p.MarlonMarginPercent.Valid
}

// EffectiveLeaserID returns the product's leaser, falling back to the parent's.
func (p *Product) EffectiveLeaserID(parent *Product) *uuid.UUID {
	if p.DefaultLeaserID != nil {
		return p.DefaultLeaserID
	}
	if parent != nil {
		return parent.DefaultLeaserID
	}
	return nil
}

type ProductImage struct {
	ID         uint      `json:"id" gorm:"primaryKey"`
	ProductID  uuid.UUID `json:"product_id" gorm:"type:uuid;not null;index"`
	ImageURL   string    `json:"image_url" gorm:"not null"`
	OrderIndex int       `json:"order_index" gorm:"default:0"`
}

type ProductType string

const (
	Medical   ProductType = "medical"
	IT        ProductType = "it"
	Furniture ProductType = "furniture"
)
