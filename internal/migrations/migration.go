package migrations

import (
	"context"
	"embed"
	"fmt"

	"leasing_market/internal/models"
	"leasing_market/internal/pricing"
	"leasing_market/internal/repository"

	"github.com/pressly/goose/v3"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

//go:embed sql/*.sql
var embedMigrations embed.FS

// RunMigrations applies the embedded SQL migrations, then creates default data.
func RunMigrations(ctx context.Context, db *gorm.DB, logger *zap.Logger) error {
	const operation = "migrations.RunMigrations"

	logger.Info("Running database migrations...")

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("%s: failed to get sql handle: %w", operation, err)
	}

	goose.SetBaseFS(embedMigrations)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("%s: failed to set dialect: %w", operation, err)
	}
	if err := goose.UpContext(ctx, sqlDB, "sql"); err != nil {
		return fmt.Errorf("%s: failed to run migrations: %w", operation, err)
	}

	if err := CreateDefaultData(db, logger); err != nil {
		logger.Warn("Failed to create default data", zap.Error(err))
	}

	logger.Info("Database migrations completed successfully")
	return nil
}

// RollbackMigration reverts the most recent migration.
func RollbackMigration(ctx context.Context, db *gorm.DB, logger *zap.Logger) error {
	const operation = "migrations.RollbackMigration"

	logger.Info("Rolling back last migration...")

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("%s: failed to get sql handle: %w", operation, err)
	}

	goose.SetBaseFS(embedMigrations)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("%s: failed to set dialect: %w", operation, err)
	}
	if err := goose.DownContext(ctx, sqlDB, "sql"); err != nil {
		return fmt.Errorf("%s: failed to rollback migration: %w", operation, err)
	}

	logger.Info("Migration rollback completed")
	return nil
}

// CreateDefaultData seeds the leasing durations and, when no coefficient
// exists yet, one generic open bracket per duration.
func CreateDefaultData(db *gorm.DB, logger *zap.Logger) error {
	logger.Info("Creating default data...")

	leaserRepo := repository.NewLeaserRepository(db)
	coefficientRepo := repository.NewCoefficientRepository(db)

	if err := leaserRepo.EnsureDurations(pricing.FallbackDurations()); err != nil {
		return fmt.Errorf("failed to seed leasing durations: %w", err)
	}

	count, err := coefficientRepo.Count()
	if err != nil {
		return fmt.Errorf("failed to count coefficients: %w", err)
	}
	if count > 0 {
		logger.Info("Coefficient table already populated", zap.Int64("rows", count))
		return nil
	}

	fallback := pricing.FallbackRows()
	rows := make([]models.LeaserCoefficient, 0, len(fallback))
	for _, r := range fallback {
		rows = append(rows, models.LeaserCoefficient{
			DurationMonths: r.DurationMonths,
			MinAmount:      r.MinAmount,
			MaxAmount:      r.MaxAmount,
			Coefficient:    r.Coefficient,
		})
	}
	if err := coefficientRepo.CreateBatch(rows); err != nil {
		return fmt.Errorf("failed to seed generic coefficients: %w", err)
	}

	logger.Info("Default data created", zap.Int("generic_coefficients", len(rows)))
	return nil
}
