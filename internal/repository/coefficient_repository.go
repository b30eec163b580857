package repository

import (
	"leasing_market/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CoefficientRepository interface {
	GetAll() ([]models.LeaserCoefficient, error)
	GetByLeaserID(leaserID uuid.UUID) ([]models.LeaserCoefficient, error)
	ReplaceForLeaser(leaserID uuid.UUID, rows []models.LeaserCoefficient) error
	CreateBatch(rows []models.LeaserCoefficient) error
	Count() (int64, error)
}

type coefficientRepository struct {
	db *gorm.DB
}

func NewCoefficientRepository(db *gorm.DB) CoefficientRepository {
	return &coefficientRepository{db: db}
}

func (r *coefficientRepository) GetAll() ([]models.LeaserCoefficient, error) {
	var rows []models.LeaserCoefficient
	err := r.db.Order("coefficient ASC").Find(&rows).Error
	return rows, err
}

func (r *coefficientRepository) GetByLeaserID(leaserID uuid.UUID) ([]models.LeaserCoefficient, error) {
	var rows []models.LeaserCoefficient
	err := r.db.Where("leaser_id = ?", leaserID).
		Order("duration_months ASC").
		Order("min_amount ASC").
		Find(&rows).Error
	return rows, err
}

// ReplaceForLeaser swaps the whole rate table of a leaser in one transaction.
func (r *coefficientRepository) ReplaceForLeaser(leaserID uuid.UUID, rows []models.LeaserCoefficient) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("leaser_id = ?", leaserID).Delete(&models.LeaserCoefficient{}).Error; err != nil {
			return err
		}
		if len(rows) == 0 {
			return nil
		}
		for i := range rows {
			id := leaserID
			rows[i].LeaserID = &id
		}
		return tx.Create(&rows).Error
	})
}

func (r *coefficientRepository) CreateBatch(rows []models.LeaserCoefficient) error {
	if len(rows) == 0 {
		return nil
	}
	return r.db.Create(&rows).Error
}

func (r *coefficientRepository) Count() (int64, error) {
	var n int64
	err := r.db.Model(&models.LeaserCoefficient{}).Count(&n).Error
	return n, err
}
