package main

import (
	"context"
	"flag"
	"fmt"
	"log"

	"leasing_market/internal/config"
	"leasing_market/internal/database"
	"leasing_market/internal/logger"
	"leasing_market/internal/migrations"
	"leasing_market/internal/models"
	"leasing_market/internal/repository"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func nullDec(s string) decimal.NullDecimal {
	return decimal.NewNullDecimal(dec(s))
}

func main() {
	down := flag.Bool("down", false, "roll back the most recent migration and exit")
	flag.Parse()

	fmt.Println("Initializing database...")

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration:", err)
	}
	zapLogger, err := logger.New(cfg.AppEnv)
	if err != nil {
		log.Fatal("Failed to build logger:", err)
	}
	defer zapLogger.Sync()

	ctx := context.Background()
	db, err := database.Initialize(ctx, cfg.DatabaseURL, cfg.DBConnectTimeout, zapLogger)
	if err != nil {
		zapLogger.Fatal("Failed to connect to database", zap.Error(err))
	}

	if *down {
		fmt.Println("Rolling back last migration...")
		if err := migrations.RollbackMigration(ctx, db, zapLogger); err != nil {
			zapLogger.Fatal("Failed to roll back migration", zap.Error(err))
		}
		return
	}

	fmt.Println("Running migrations...")
	if err := migrations.RunMigrations(ctx, db, zapLogger); err != nil {
		zapLogger.Fatal("Failed to migrate database", zap.Error(err))
	}

	leaserRepo := repository.NewLeaserRepository(db)
	coefficientRepo := repository.NewCoefficientRepository(db)
	productRepo := repository.NewProductRepository(db)

	leasers, err := leaserRepo.GetAll()
	if err != nil {
		zapLogger.Fatal("Failed to list leasers", zap.Error(err))
	}
	if len(leasers) > 0 {
		fmt.Println("Demo data already present")
		return
	}

	// Create demo leaser
	fmt.Println("Creating demo leaser...")
	leaser := &models.Leaser{Name: "Demo Leasing"}
	if err := leaserRepo.Create(leaser); err != nil {
		zapLogger.Fatal("Failed to create leaser", zap.Error(err))
	}

	var rows []models.LeaserCoefficient
	for _, months := range []int{24, 36, 48, 60} {
		m := months
		brackets := []struct {
			min, max, coef string
		}{
			{"0", "500", "4.80"},
			{"500.01", "2000", "3.40"},
			{"2000.01", "5000", "3.20"},
			{"5000.01", "", "3.00"},
		}
		for _, b := range brackets {
			row := models.LeaserCoefficient{
				DurationMonths: &m,
				MinAmount:      dec(b.min),
				Coefficient:    dec(b.coef).Mul(decimal.NewFromInt(36)).Div(decimal.NewFromInt(int64(m))).Round(4),
			}
			if b.max != "" {
				row.MaxAmount = nullDec(b.max)
			}
			rows = append(rows, row)
		}
	}
	if err := coefficientRepo.ReplaceForLeaser(leaser.ID, rows); err != nil {
		zapLogger.Fatal("Failed to create coefficients", zap.Error(err))
	}

	// Create demo products
	fmt.Println("Creating demo products...")
	echograph := &models.Product{
		Name:                "Échographe portable",
		Slug:                "echographe-portable",
		Reference:           "ECH-100",
		ProductType:         string(models.Medical),
		PurchasePriceHT:     nullDec("4200"),
		MarlonMarginPercent: nullDec("18"),
		DefaultLeaserID:     &leaser.ID,
		Images:              []models.ProductImage{{ImageURL: "/images/echographe.jpg"}},
	}
	laptop := &models.Product{
		Name:            "Ordinateur portable",
		Slug:            "ordinateur-portable",
		ProductType:     string(models.IT),
		DefaultLeaserID: &leaser.ID,
	}
	for _, p := range []*models.Product{echograph, laptop} {
		if err := productRepo.Create(p); err != nil {
			zapLogger.Fatal("Failed to create product", zap.String("slug", p.Slug), zap.Error(err))
		}
	}

	variants := []struct {
		slug, memory, purchase string
	}{
		{"ordinateur-portable-16go", "16 Go", "1100"},
		{"ordinateur-portable-32go", "32 Go", "1450"},
	}
	for _, v := range variants {
		variant := &models.Product{
			Name:                laptop.Name + " " + v.memory,
			Slug:                v.slug,
			ProductType:         laptop.ProductType,
			PurchasePriceHT:     nullDec(v.purchase),
			MarlonMarginPercent: nullDec("15"),
			ParentProductID:     &laptop.ID,
			VariantData:         map[string]string{"memory": v.memory},
		}
		if err := productRepo.Create(variant); err != nil {
			zapLogger.Fatal("Failed to create variant", zap.String("slug", v.slug), zap.Error(err))
		}
	}

	fmt.Println("Database initialization completed successfully!")
}
