package repository

import (
	"leasing_market/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ProductRepository interface {
	Create(product *models.Product) error
	GetByID(id uuid.UUID) (*models.Product, error)
	GetByIDs(ids []uuid.UUID) ([]models.Product, error)
	GetChildren(parentID uuid.UUID) ([]models.Product, error)
	GetChildrenOf(parentIDs []uuid.UUID) ([]models.Product, error)
	GetRoots(productType string) ([]models.Product, error)
}

type productRepository struct {
	db *gorm.DB
}

func NewProductRepository(db *gorm.DB) ProductRepository {
	return &productRepository{db: db}
}

func orderedImages(db *gorm.DB) *gorm.DB {
	return db.Order("order_index ASC")
}

func (r *productRepository) Create(product *models.Product) error {
	return r.db.Create(product).Error
}

func (r *productRepository) GetByID(id uuid.UUID) (*models.Product, error) {
	var product models.Product
	err := r.db.Preload("Images", orderedImages).Where("id = ?", id).First(&product).Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *productRepository) GetByIDs(ids []uuid.UUID) ([]models.Product, error) {
	var products []models.Product
	if len(ids) == 0 {
		return products, nil
	}
	err := r.db.Preload("Images", orderedImages).Where("id IN ?", ids).Find(&products).Error
	return products, err
}

func (r *productRepository) GetChildren(parentID uuid.UUID) ([]models.Product, error) {
	var products []models.Product
	err := r.db.Preload("Images", orderedImages).
		Where("parent_product_id = ?", parentID).
		Order("name ASC").
		Find(&products).Error
	return products, err
}

// GetChildrenOf loads the variants of several parents in one query.
func (r *productRepository) GetChildrenOf(parentIDs []uuid.UUID) ([]models.Product, error) {
	var products []models.Product
	if len(parentIDs) == 0 {
		return products, nil
	}
	err := r.db.Preload("Images", orderedImages).
		Where("parent_product_id IN ?", parentIDs).
		Order("name ASC").
		Find(&products).Error
	return products, err
}

// GetRoots lists products without a parent, optionally filtered by type.
func (r *productRepository) GetRoots(productType string) ([]models.Product, error) {
	var products []models.Product
	query := r.db.Preload("Images", orderedImages).Where("parent_product_id IS NULL")
	if productType != "" {
		query = query.Where("product_type = ?", productType)
	}
	err := query.Order("name ASC").Find(&products).Error
	return products, err
}
