package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"leasing_market/internal/export"
	"leasing_market/internal/models"
	"leasing_market/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// CoefficientInput is one bracket submitted from the back-office.
type CoefficientInput struct {
	DurationMonths *int                `json:"duration_months"`
	MinAmount      decimal.Decimal     `json:"min_amount"`
	MaxAmount      decimal.NullDecimal `json:"max_amount"`
	Coefficient    decimal.Decimal     `json:"coefficient"`
}

type LeaserService interface {
	ListLeasers() ([]models.Leaser, error)
	CreateLeaser(name string) (*models.Leaser, error)
	GetCoefficients(leaserID uuid.UUID) ([]models.LeaserCoefficient, error)
	ReplaceCoefficients(ctx context.Context, leaserID uuid.UUID, inputs []CoefficientInput) ([]models.LeaserCoefficient, error)
	ExportCoefficients(leaserID uuid.UUID) (string, []byte, error)
}

type leaserService struct {
	leaserRepo      repository.LeaserRepository
	coefficientRepo repository.CoefficientRepository
	pricing         PricingService
	logger          *zap.Logger
}

func NewLeaserService(leaserRepo repository.LeaserRepository, coefficientRepo repository.CoefficientRepository, pricing PricingService, logger *zap.Logger) LeaserService {
	return &leaserService{leaserRepo: leaserRepo, coefficientRepo: coefficientRepo, pricing: pricing, logger: logger}
}

func (s *leaserService) ListLeasers() ([]models.Leaser, error) {
	return s.leaserRepo.GetAll()
}

func (s *leaserService) CreateLeaser(name string) (*models.Leaser, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, invalid("name is required")
	}
	leaser := &models.Leaser{Name: name}
	if err := s.leaserRepo.Create(leaser); err != nil {
		return nil, err
	}
	return leaser, nil
}

func (s *leaserService) GetCoefficients(leaserID uuid.UUID) ([]models.LeaserCoefficient, error) {
	if _, err := s.leaserRepo.GetByID(leaserID); err != nil {
		return nil, notFound("leaser", err)
	}
	return s.coefficientRepo.GetByLeaserID(leaserID)
}

// ReplaceCoefficients validates and stores a leaser's whole rate table, then
// drops the cached table so the next quote sees it.
func (s *leaserService) ReplaceCoefficients(ctx context.Context, leaserID uuid.UUID, inputs []CoefficientInput) ([]models.LeaserCoefficient, error) {
	if _, err := s.leaserRepo.GetByID(leaserID); err != nil {
		return nil, notFound("leaser", err)
	}

	rows := make([]models.LeaserCoefficient, 0, len(inputs))
	for i, in := range inputs {
		row := models.LeaserCoefficient{
			DurationMonths: in.DurationMonths,
			MinAmount:      in.MinAmount,
			MaxAmount:      in.MaxAmount,
			Coefficient:    in.Coefficient,
		}
		if err := validateCoefficient(row); err != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}
		if !row.Coefficient.IsPositive() {
			return nil, invalid("row %d: coefficient must be positive", i+1)
		}
		if in.DurationMonths != nil {
			if err := s.pricing.ValidateDuration(*in.DurationMonths); err != nil {
				return nil, fmt.Errorf("row %d: %w", i+1, err)
			}
		}
		rows = append(rows, row)
	}

	if err := s.coefficientRepo.ReplaceForLeaser(leaserID, rows); err != nil {
		return nil, err
	}
	s.pricing.InvalidateTable(ctx)
	s.logger.Info("coefficient table replaced",
		zap.String("leaser_id", leaserID.String()),
		zap.Int("rows", len(rows)))
	return s.coefficientRepo.GetByLeaserID(leaserID)
}

// ExportCoefficients returns a file name and the xlsx content of a leaser's table.
func (s *leaserService) ExportCoefficients(leaserID uuid.UUID) (string, []byte, error) {
	leaser, err := s.leaserRepo.GetByID(leaserID)
	if err != nil {
		return "", nil, notFound("leaser", err)
	}
	rows, err := s.coefficientRepo.GetByLeaserID(leaserID)
	if err != nil {
		return "", nil, err
	}

	sheet := export.CoefficientSheet{
		LeaserName:  leaser.Name,
		GeneratedAt: time.Now().Format("2006-01-02"),
		Rows:        make([]export.CoefficientRow, 0, len(rows)),
	}
	for _, r := range rows {
		sheet.Rows = append(sheet.Rows, export.CoefficientRow{
			DurationMonths: r.DurationMonths,
			MinAmount:      r.MinAmount,
			MaxAmount:      r.MaxAmount,
			Coefficient:    r.Coefficient,
		})
	}
	content, err := export.GenerateCoefficientExcel(sheet)
	if err != nil {
		return "", nil, err
	}
	filename := "coefficients-" + strings.ToLower(strings.ReplaceAll(leaser.Name, " ", "-")) + ".xlsx"
	return filename, content, nil
}
