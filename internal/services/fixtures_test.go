package services

import (
	"strings"
	"testing"

	"leasing_market/internal/models"
	"leasing_market/internal/pricing"
	"leasing_market/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := gorm.Open(sqlite.Open("file:"+name+"?mode=memory&cache=shared"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open db: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	if err := db.AutoMigrate(models.All()...); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	return db
}

type fixture struct {
	db       *gorm.DB
	products repository.ProductRepository
	pricing  PricingService
	cart     CartService
	orders   OrderService
	leasers  LeaserService
	leaser   *models.Leaser
}

// newFixture seeds the standard durations, one leaser priced for 36 months
// (3.5 up to 2000, 3.2 up to 10000, 3.0 above) and a generic 4.0 row that
// applies to any leaser and duration.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := setupTestDB(t)
	logger := zap.NewNop()

	productRepo := repository.NewProductRepository(db)
	leaserRepo := repository.NewLeaserRepository(db)
	coefficientRepo := repository.NewCoefficientRepository(db)
	cartRepo := repository.NewCartRepository(db)

	if err := leaserRepo.EnsureDurations(pricing.FallbackDurations()); err != nil {
		t.Fatalf("failed to seed durations: %v", err)
	}
	leaser := &models.Leaser{Name: "Grenke"}
	if err := leaserRepo.Create(leaser); err != nil {
		t.Fatalf("failed to create leaser: %v", err)
	}
	months := 36
	rows := []models.LeaserCoefficient{
		{DurationMonths: &months, MinAmount: d("0"), MaxAmount: decimal.NewNullDecimal(d("2000")), Coefficient: d("3.5")},
		{DurationMonths: &months, MinAmount: d("2000.01"), MaxAmount: decimal.NewNullDecimal(d("10000")), Coefficient: d("3.2")},
		{DurationMonths: &months, MinAmount: d("10000.01"), Coefficient: d("3")},
	}
	if err := coefficientRepo.ReplaceForLeaser(leaser.ID, rows); err != nil {
		t.Fatalf("failed to seed coefficients: %v", err)
	}
	if err := coefficientRepo.CreateBatch([]models.LeaserCoefficient{{MinAmount: d("0"), Coefficient: d("4")}}); err != nil {
		t.Fatalf("failed to seed generic coefficient: %v", err)
	}

	pricingService := NewPricingService(productRepo, leaserRepo, coefficientRepo, nil, 0, logger)
	return &fixture{
		db:       db,
		products: productRepo,
		pricing:  pricingService,
		cart:     NewCartService(cartRepo, productRepo, pricingService),
		orders: NewOrderService(
			repository.NewOrderRepository(db),
			repository.NewOrderItemRepository(db),
			cartRepo,
			productRepo,
			leaserRepo,
			repository.NewTrackingRepository(db),
			repository.NewAuditRepository(db),
			repository.NewTransactor(db),
			pricingService,
			logger,
		),
		leasers: NewLeaserService(leaserRepo, coefficientRepo, pricingService, logger),
		leaser:  leaser,
	}
}

type productDef struct {
	slug     string
	kind     models.ProductType
	purchase string // "" leaves the price unset
	margin   string
	leaser   *uuid.UUID
	parent   *uuid.UUID
	variant  map[string]string
}

func (f *fixture) product(t *testing.T, def productDef) *models.Product {
	t.Helper()
	p := &models.Product{
		Name:            def.slug,
		Slug:            def.slug,
		ProductType:     string(models.Medical),
		DefaultLeaserID: def.leaser,
		ParentProductID: def.parent,
		VariantData:     def.variant,
	}
	if def.kind != "" {
		p.ProductType = string(def.kind)
	}
	if def.purchase != "" {
		p.PurchasePriceHT = decimal.NewNullDecimal(d(def.purchase))
	}
	if def.margin != "" {
		p.MarlonMarginPercent = decimal.NewNullDecimal(d(def.margin))
	}
	if err := f.products.Create(p); err != nil {
		t.Fatalf("failed to create product %s: %v", def.slug, err)
	}
	return p
}

func assertDecimal(t *testing.T, name string, got decimal.Decimal, want string) {
	t.Helper()
	if !got.Equal(d(want)) {
		t.Errorf("%s = %s, want %s", name, got, want)
	}
}
