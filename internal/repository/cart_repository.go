package repository

import (
	"errors"
	"leasing_market/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CartRepository interface {
	GetByUserID(userID string) (*models.Cart, error)
	GetOrCreate(userID string) (*models.Cart, error)
	AddItem(item *models.CartItem) error
	GetItem(userID string, itemID uuid.UUID) (*models.CartItem, error)
	UpdateItem(item *models.CartItem) error
	DeleteItem(itemID uuid.UUID) error
}

type cartRepository struct {
	db *gorm.DB
}

func NewCartRepository(db *gorm.DB) CartRepository {
	return &cartRepository{db: db}
}

// GetByUserID loads the most recent cart of a user with its items and products.
func (r *cartRepository) GetByUserID(userID string) (*models.Cart, error) {
	var cart models.Cart
	err := r.db.
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") }).
		Preload("Items.Product").
		Preload("Items.Product.Images", orderedImages).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		First(&cart).Error
	if err != nil {
		return nil, err
	}
	return &cart, nil
}

func (r *cartRepository) GetOrCreate(userID string) (*models.Cart, error) {
	var cart models.Cart
	err := r.db.Where("user_id = ?", userID).Order("created_at DESC").First(&cart).Error
	if err == nil {
		return &cart, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	cart = models.Cart{UserID: userID}
	if err := r.db.Create(&cart).Error; err != nil {
		return nil, err
	}
	return &cart, nil
}

func (r *cartRepository) AddItem(item *models.CartItem) error {
	return r.db.Create(item).Error
}

// GetItem returns the item only if it sits in a cart owned by userID.
func (r *cartRepository) GetItem(userID string, itemID uuid.UUID) (*models.CartItem, error) {
	var item models.CartItem
	err := r.db.
		Joins("JOIN carts ON carts.id = cart_items.cart_id").
		Where("cart_items.id = ? AND carts.user_id = ?", itemID, userID).
		First(&item).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *cartRepository) UpdateItem(item *models.CartItem) error {
	return r.db.Model(item).Updates(map[string]interface{}{
		"quantity":        item.Quantity,
		"duration_months": item.DurationMonths,
	}).Error
}

func (r *cartRepository) DeleteItem(itemID uuid.UUID) error {
	return r.db.Where("id = ?", itemID).Delete(&models.CartItem{}).Error
}
