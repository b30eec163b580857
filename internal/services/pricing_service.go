package services

import (
	"context"
	"errors"
	"sort"
	"time"

	"leasing_market/internal/models"
	"leasing_market/internal/pricing"
	"leasing_market/internal/redis"
	"leasing_market/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// TableCache keeps the raw coefficient rows between requests, keyed by a
// version that InvalidateCoefficientTable advances.
type TableCache interface {
	CoefficientTableVersion(ctx context.Context) (int64, error)
	GetCoefficientTable(ctx context.Context, version int64) ([]models.LeaserCoefficient, error)
	SetCoefficientTable(ctx context.Context, version int64, rows []models.LeaserCoefficient, ttl time.Duration) error
	InvalidateCoefficientTable(ctx context.Context) error
}

// PriceQuote is the rent of one unit of a product for a duration.
type PriceQuote struct {
	MonthlyPrice    decimal.Decimal `json:"monthlyPrice"`
	MonthlyPriceTTC decimal.Decimal `json:"monthlyPriceTTC"`
	TotalPrice      decimal.Decimal `json:"totalPrice"`
	Coefficient     decimal.Decimal `json:"coefficient"`
	SellingPrice    decimal.Decimal `json:"sellingPrice"`
	Source          pricing.Source  `json:"source"`
	Match           pricing.Match   `json:"match"`
}

type PreviewInput struct {
	PurchasePriceHT decimal.Decimal `json:"purchase_price_ht"`
	MarginPercent   decimal.Decimal `json:"marlon_margin_percent"`
	LeaserID        uuid.UUID       `json:"leaser_id"`
	DurationMonths  int             `json:"duration_months"`
}

type CatalogEntry struct {
	ID             uuid.UUID               `json:"id"`
	Name           string                  `json:"name"`
	Slug           string                  `json:"slug"`
	Reference      string                  `json:"reference,omitempty"`
	ProductType    string                  `json:"product_type"`
	Image          string                  `json:"image,omitempty"`
	VariantCount   int                     `json:"variant_count"`
	Representative *pricing.Representative `json:"representative"`
}

type DurationPrice struct {
	Months  int             `json:"months"`
	Monthly decimal.Decimal `json:"monthly"`
	Total   decimal.Decimal `json:"total"`
}

type PricingService interface {
	Table(ctx context.Context) (pricing.Table, error)
	InvalidateTable(ctx context.Context)
	Durations() ([]int, error)
	ValidateDuration(months int) error
	ProductPrice(ctx context.Context, productID uuid.UUID, durationMonths int) (*PriceQuote, error)
	PricesByDuration(ctx context.Context, productID uuid.UUID) ([]DurationPrice, error)
	Preview(ctx context.Context, input PreviewInput) (*PriceQuote, error)
	Catalog(ctx context.Context, productType string, durationMonths int) ([]CatalogEntry, error)
	Variants(ctx context.Context, productID uuid.UUID, durationMonths int) ([]pricing.Representative, error)
}

type pricingService struct {
	productRepo     repository.ProductRepository
	leaserRepo      repository.LeaserRepository
	coefficientRepo repository.CoefficientRepository
	cache           TableCache
	cacheTTL        time.Duration
	logger          *zap.Logger
}

// NewPricingService wires the pricing reads. cache may be nil.
func NewPricingService(
	productRepo repository.ProductRepository,
	leaserRepo repository.LeaserRepository,
	coefficientRepo repository.CoefficientRepository,
	cache TableCache,
	cacheTTL time.Duration,
	logger *zap.Logger,
) PricingService {
	return &pricingService{
		productRepo:     productRepo,
		leaserRepo:      leaserRepo,
		coefficientRepo: coefficientRepo,
		cache:           cache,
		cacheTTL:        cacheTTL,
		logger:          logger,
	}
}

// Table returns the validated coefficient table, from cache when possible.
// The cache version is read before the database so that a concurrent
// invalidation makes this reader's write unreachable.
func (s *pricingService) Table(ctx context.Context) (pricing.Table, error) {
	cached := s.cache != nil
	var version int64
	if cached {
		var err error
		version, err = s.cache.CoefficientTableVersion(ctx)
		if err != nil {
			s.logger.Warn("coefficient cache version read failed", zap.Error(err))
			cached = false
		}
	}
	if cached {
		rows, err := s.cache.GetCoefficientTable(ctx, version)
		if err == nil {
			return ToTable(rows, s.logger), nil
		}
		if !errors.Is(err, redis.ErrCacheMiss) {
			s.logger.Warn("coefficient cache read failed", zap.Error(err))
		}
	}

	rows, err := s.coefficientRepo.GetAll()
	if err != nil {
		return pricing.Table{}, notFound("coefficients", err)
	}

	if cached {
		if err := s.cache.SetCoefficientTable(ctx, version, rows, s.cacheTTL); err != nil {
			s.logger.Warn("coefficient cache write failed", zap.Error(err))
		}
	}
	return ToTable(rows, s.logger), nil
}

func (s *pricingService) InvalidateTable(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateCoefficientTable(ctx); err != nil {
		s.logger.Warn("coefficient cache invalidation failed", zap.Error(err))
	}
}

// ToTable converts stored rows into a lookup table, dropping rows whose
// bracket is inverted or whose coefficient is negative.
func ToTable(rows []models.LeaserCoefficient, logger *zap.Logger) pricing.Table {
	valid := make([]pricing.CoefficientRow, 0, len(rows))
	for _, r := range rows {
		if err := validateCoefficient(r); err != nil {
			logger.Warn("skipping coefficient row", zap.String("id", r.ID.String()), zap.Error(err))
			continue
		}
		valid = append(valid, pricing.CoefficientRow{
			LeaserID:       r.LeaserID,
			DurationMonths: r.DurationMonths,
			MinAmount:      r.MinAmount,
			MaxAmount:      r.MaxAmount,
			Coefficient:    r.Coefficient,
		})
	}
	return pricing.NewTable(valid)
}

func validateCoefficient(r models.LeaserCoefficient) error {
	if r.Coefficient.IsNegative() {
		return invalid("negative coefficient %s", r.Coefficient)
	}
	if r.MinAmount.IsNegative() {
		return invalid("negative min_amount %s", r.MinAmount)
	}
	if r.MaxAmount.Valid && r.MinAmount.GreaterThan(r.MaxAmount.Decimal) {
		return invalid("min_amount %s above max_amount %s", r.MinAmount, r.MaxAmount.Decimal)
	}
	if r.DurationMonths != nil && *r.DurationMonths <= 0 {
		return invalid("duration %d", *r.DurationMonths)
	}
	return nil
}

// Durations lists the offered durations, ascending.
func (s *pricingService) Durations() ([]int, error) {
	rows, err := s.leaserRepo.GetDurations()
	if err != nil {
		return nil, notFound("durations", err)
	}
	if len(rows) == 0 {
		return pricing.FallbackDurations(), nil
	}
	out := make([]int, 0, len(rows))
	for _, d := range rows {
		out = append(out, d.Months)
	}
	sort.Ints(out)
	return out, nil
}

func (s *pricingService) ValidateDuration(months int) error {
	durations, err := s.Durations()
	if err != nil {
		return err
	}
	for _, d := range durations {
		if d == months {
			return nil
		}
	}
	return invalid("unsupported duration %d", months)
}

func (s *pricingService) quote(table pricing.Table, purchase, margin decimal.Decimal, leaserID *uuid.UUID, months int) *PriceQuote {
	selling := pricing.SellingPrice(purchase, margin)
	coef, match := table.ForDuration(months).Lookup(selling, leaserID)
	if match != pricing.MatchBracket {
		s.logger.Debug("coefficient lookup degraded",
			zap.String("match", string(match)),
			zap.String("selling_price", selling.String()),
			zap.Int("duration", months))
	}
	comp := pricing.ComputePrice(purchase, margin, coef, 1)
	return &PriceQuote{
		MonthlyPrice:    comp.MonthlyHT,
		MonthlyPriceTTC: comp.MonthlyTTC,
		TotalPrice:      comp.MonthlyHT.Mul(decimal.NewFromInt(int64(months))),
		Coefficient:     coef,
		SellingPrice:    comp.SellingPriceHT,
		Source:          pricing.SourceServer,
		Match:           match,
	}
}

// loadPriced fetches a product with its parent and checks it can be priced.
func (s *pricingService) loadPriced(productID uuid.UUID) (*models.Product, *uuid.UUID, error) {
	product, err := s.productRepo.GetByID(productID)
	if err != nil {
		return nil, nil, notFound("product", err)
	}
	var parent *models.Product
	if product.ParentProductID != nil {
		parent, err = s.productRepo.GetByID(*product.ParentProductID)
		if err != nil {
			return nil, nil, notFound("parent product", err)
		}
	}
	leaserID := product.EffectiveLeaserID(parent)
	if leaserID == nil {
		return nil, nil, ErrNoLeaser
	}
	if !product.HasPricing() {
		return nil, nil, ErrMissingPricing
	}
	return product, leaserID, nil
}

func (s *pricingService) ProductPrice(ctx context.Context, productID uuid.UUID, durationMonths int) (*PriceQuote, error) {
	if err := s.ValidateDuration(durationMonths); err != nil {
		return nil, err
	}
	product, leaserID, err := s.loadPriced(productID)
	if err != nil {
		return nil, err
	}
	table, err := s.Table(ctx)
	if err != nil {
		return nil, err
	}
	return s.quote(table, product.PurchasePriceHT.Decimal, product.MarlonMarginPercent.Decimal, leaserID, durationMonths), nil
}

// PricesByDuration quotes a product for every offered duration.
func (s *pricingService) PricesByDuration(ctx context.Context, productID uuid.UUID) ([]DurationPrice, error) {
	product, leaserID, err := s.loadPriced(productID)
	if err != nil {
		return nil, err
	}
	durations, err := s.Durations()
	if err != nil {
		return nil, err
	}
	table, err := s.Table(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]DurationPrice, 0, len(durations))
	for _, months := range durations {
		q := s.quote(table, product.PurchasePriceHT.Decimal, product.MarlonMarginPercent.Decimal, leaserID, months)
		out = append(out, DurationPrice{Months: months, Monthly: q.MonthlyPrice, Total: q.TotalPrice})
	}
	return out, nil
}

// Preview prices unsaved product form values.
func (s *pricingService) Preview(ctx context.Context, input PreviewInput) (*PriceQuote, error) {
	if !input.PurchasePriceHT.IsPositive() {
		return nil, invalid("purchase_price_ht must be positive")
	}
	if input.MarginPercent.IsNegative() {
		return nil, invalid("marlon_margin_percent must not be negative")
	}
	if input.LeaserID == uuid.Nil {
		return nil, invalid("leaser_id is required")
	}
	if err := s.ValidateDuration(input.DurationMonths); err != nil {
		return nil, err
	}
	if _, err := s.leaserRepo.GetByID(input.LeaserID); err != nil {
		return nil, notFound("leaser", err)
	}
	table, err := s.Table(ctx)
	if err != nil {
		return nil, err
	}
	leaserID := input.LeaserID
	return s.quote(table, input.PurchasePriceHT, input.MarginPercent, &leaserID, input.DurationMonths), nil
}

func candidateFrom(p models.Product) pricing.Candidate {
	return pricing.Candidate{
		ID:              p.ID,
		Slug:            p.Slug,
		Image:           p.MainImage(),
		VariantData:     p.VariantData,
		PurchasePriceHT: p.PurchasePriceHT,
		MarginPercent:   p.MarlonMarginPercent,
		LeaserID:        p.DefaultLeaserID,
	}
}

// Catalog lists root products with their cheapest priced variant.
func (s *pricingService) Catalog(ctx context.Context, productType string, durationMonths int) ([]CatalogEntry, error) {
	if productType != "" {
		switch models.ProductType(productType) {
		case models.Medical, models.IT, models.Furniture:
		default:
			return nil, invalid("unknown product type %q", productType)
		}
	}
	if err := s.ValidateDuration(durationMonths); err != nil {
		return nil, err
	}

	roots, err := s.productRepo.GetRoots(productType)
	if err != nil {
		return nil, notFound("products", err)
	}
	ids := make([]uuid.UUID, 0, len(roots))
	for _, p := range roots {
		ids = append(ids, p.ID)
	}
	children, err := s.productRepo.GetChildrenOf(ids)
	if err != nil {
		return nil, notFound("variants", err)
	}
	byParent := make(map[uuid.UUID][]pricing.Candidate, len(roots))
	for _, c := range children {
		byParent[*c.ParentProductID] = append(byParent[*c.ParentProductID], candidateFrom(c))
	}

	table, err := s.Table(ctx)
	if err != nil {
		return nil, err
	}
	table = table.ForDuration(durationMonths)

	entries := make([]CatalogEntry, 0, len(roots))
	for _, p := range roots {
		entry := CatalogEntry{
			ID:           p.ID,
			Name:         p.Name,
			Slug:         p.Slug,
			Reference:    p.Reference,
			ProductType:  p.ProductType,
			Image:        p.MainImage(),
			VariantCount: len(byParent[p.ID]),
		}
		if rep, ok := pricing.ResolveCheapest(candidateFrom(p), byParent[p.ID], table); ok {
			entry.Representative = &rep
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// Variants prices the children of a product, cheapest first.
func (s *pricingService) Variants(ctx context.Context, productID uuid.UUID, durationMonths int) ([]pricing.Representative, error) {
	if err := s.ValidateDuration(durationMonths); err != nil {
		return nil, err
	}
	product, err := s.productRepo.GetByID(productID)
	if err != nil {
		return nil, notFound("product", err)
	}
	children, err := s.productRepo.GetChildren(product.ID)
	if err != nil {
		return nil, notFound("variants", err)
	}
	table, err := s.Table(ctx)
	if err != nil {
		return nil, err
	}

	candidates := make([]pricing.Candidate, 0, len(children))
	for _, c := range children {
		candidates = append(candidates, candidateFrom(c))
	}
	priced := pricing.PriceCandidates(candidates, product.DefaultLeaserID, table.ForDuration(durationMonths))
	sort.SliceStable(priced, func(i, j int) bool {
		return priced[i].Price.LessThan(priced[j].Price)
	})
	return priced, nil
}
