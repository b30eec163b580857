package repository

import (
	"leasing_market/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AuditRepository stores order logs and manual price overrides.
type AuditRepository interface {
	CreateLog(log *models.OrderLog) error
	GetLogs(orderID uuid.UUID) ([]models.OrderLog, error)
	CreateOverrides(overrides []models.OrderPriceOverride, log *models.OrderLog) error
	GetOverrides(orderID uuid.UUID) ([]models.OrderPriceOverride, error)
	LatestOverrides(orderID uuid.UUID) (map[models.OverrideField]models.OrderPriceOverride, error)
}

type auditRepository struct {
	db *gorm.DB
}

func NewAuditRepository(db *gorm.DB) AuditRepository {
	return &auditRepository{db: db}
}

func (r *auditRepository) CreateLog(log *models.OrderLog) error {
	return r.db.Create(log).Error
}

func (r *auditRepository) GetLogs(orderID uuid.UUID) ([]models.OrderLog, error) {
	var logs []models.OrderLog
	err := r.db.Where("order_id = ?", orderID).Order("created_at DESC").Order("id DESC").Find(&logs).Error
	return logs, err
}

// CreateOverrides appends the overrides and their log entry atomically.
func (r *auditRepository) CreateOverrides(overrides []models.OrderPriceOverride, log *models.OrderLog) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if len(overrides) > 0 {
			if err := tx.Create(&overrides).Error; err != nil {
				return err
			}
		}
		return tx.Create(log).Error
	})
}

func (r *auditRepository) GetOverrides(orderID uuid.UUID) ([]models.OrderPriceOverride, error) {
	var overrides []models.OrderPriceOverride
	err := r.db.Where("order_id = ?", orderID).Order("id ASC").Find(&overrides).Error
	return overrides, err
}

// LatestOverrides returns the override in force for each field.
func (r *auditRepository) LatestOverrides(orderID uuid.UUID) (map[models.OverrideField]models.OrderPriceOverride, error) {
	overrides, err := r.GetOverrides(orderID)
	if err != nil {
		return nil, err
	}
	latest := make(map[models.OverrideField]models.OrderPriceOverride, len(overrides))
	for _, o := range overrides {
		latest[models.OverrideField(o.Field)] = o
	}
	return latest, nil
}
