package repository

import (
	"leasing_market/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type LeaserRepository interface {
	Create(leaser *models.Leaser) error
	GetByID(id uuid.UUID) (*models.Leaser, error)
	GetAll() ([]models.Leaser, error)
	GetDurations() ([]models.LeasingDuration, error)
	EnsureDurations(months []int) error
}

type leaserRepository struct {
	db *gorm.DB
}

func NewLeaserRepository(db *gorm.DB) LeaserRepository {
	return &leaserRepository{db: db}
}

func (r *leaserRepository) Create(leaser *models.Leaser) error {
	return r.db.Create(leaser).Error
}

func (r *leaserRepository) GetByID(id uuid.UUID) (*models.Leaser, error) {
	var leaser models.Leaser
	err := r.db.Where("id = ?", id).First(&leaser).Error
	if err != nil {
		return nil, err
	}
	return &leaser, nil
}

func (r *leaserRepository) GetAll() ([]models.Leaser, error) {
	var leasers []models.Leaser
	err := r.db.Order("name ASC").Find(&leasers).Error
	return leasers, err
}

func (r *leaserRepository) GetDurations() ([]models.LeasingDuration, error) {
	var durations []models.LeasingDuration
	err := r.db.Order("months ASC").Find(&durations).Error
	return durations, err
}

// EnsureDurations inserts the missing durations and leaves existing ones alone.
func (r *leaserRepository) EnsureDurations(months []int) error {
	if len(months) == 0 {
		return nil
	}
	rows := make([]models.LeasingDuration, 0, len(months))
	for _, m := range months {
		rows = append(rows, models.LeasingDuration{Months: m})
	}
	return r.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&rows).Error
}
