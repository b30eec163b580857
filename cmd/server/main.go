package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"leasing_market/internal/config"
	"leasing_market/internal/database"
	"leasing_market/internal/handlers"
	"leasing_market/internal/logger"
	"leasing_market/internal/migrations"
	"leasing_market/internal/redis"
	"leasing_market/internal/repository"
	"leasing_market/internal/services"
	"leasing_market/pkg/adresse"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration:", err)
	}

	zapLogger, err := logger.New(cfg.AppEnv)
	if err != nil {
		log.Fatal("Failed to build logger:", err)
	}
	defer zapLogger.Sync()

	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize database
	db, err := database.Initialize(ctx, cfg.DatabaseURL, cfg.DBConnectTimeout, zapLogger)
	if err != nil {
		zapLogger.Fatal("Failed to connect to database", zap.Error(err))
	}

	if err := migrations.RunMigrations(ctx, db, zapLogger); err != nil {
		zapLogger.Fatal("Failed to migrate database", zap.Error(err))
	}

	// Redis is optional: without it the coefficient table is read from the database on every request
	var tableCache services.TableCache
	var pinger handlers.Pinger
	if cfg.RedisURL != "" {
		redisClient, err := redis.Initialize(cfg.RedisURL)
		if err != nil {
			zapLogger.Warn("Redis unavailable, coefficient cache disabled", zap.Error(err))
		} else {
			defer redisClient.Close()
			tableCache = redisClient
			pinger = redisClient
		}
	}

	// Initialize repositories
	productRepo := repository.NewProductRepository(db)
	leaserRepo := repository.NewLeaserRepository(db)
	coefficientRepo := repository.NewCoefficientRepository(db)
	cartRepo := repository.NewCartRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	orderItemRepo := repository.NewOrderItemRepository(db)
	trackingRepo := repository.NewTrackingRepository(db)
	auditRepo := repository.NewAuditRepository(db)

	// Initialize services
	pricingService := services.NewPricingService(productRepo, leaserRepo, coefficientRepo, tableCache, cfg.CacheTTL, zapLogger)
	cartService := services.NewCartService(cartRepo, productRepo, pricingService)
	orderService := services.NewOrderService(orderRepo, orderItemRepo, cartRepo, productRepo, leaserRepo, trackingRepo, auditRepo, repository.NewTransactor(db), pricingService, zapLogger)
	leaserService := services.NewLeaserService(leaserRepo, coefficientRepo, pricingService, zapLogger)
	addressService, err := services.NewAddressService(adresse.NewClient(cfg.AddressAPIURL, cfg.HTTPTimeout), zapLogger)
	if err != nil {
		zapLogger.Fatal("Failed to build address service", zap.Error(err))
	}

	router := handlers.NewRouter(handlers.Services{
		Pricing: pricingService,
		Cart:    cartService,
		Orders:  orderService,
		Leasers: leaserService,
		Address: addressService,
	}, handlers.NewAPIHandler(db, pinger), cfg.AdminKeyHash, zapLogger)

	server := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		zapLogger.Info("Server starting", zap.String("port", cfg.ServerPort), zap.String("env", cfg.AppEnv))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLogger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	zapLogger.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		zapLogger.Error("Graceful shutdown failed", zap.Error(err))
	}
}
