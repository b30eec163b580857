package handlers

import (
	"leasing_market/internal/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Services struct {
	Pricing services.PricingService
	Cart    services.CartService
	Orders  services.OrderService
	Leasers services.LeaserService
	Address services.AddressService
}

// NewRouter registers every route on a fresh gin engine.
func NewRouter(svc Services, apiHandler *APIHandler, adminKeyHash string, logger *zap.Logger) *gin.Engine {
	catalogHandler := NewCatalogHandler(svc.Pricing)
	cartHandler := NewCartHandler(svc.Cart)
	orderHandler := NewOrderHandler(svc.Orders)
	adminHandler := NewAdminHandler(svc.Leasers, svc.Pricing)
	addressHandler := NewAddressHandler(svc.Address)

	router := gin.New()
	router.Use(gin.Recovery(), RequestLogger(logger))

	router.GET("/health", apiHandler.Health)

	api := router.Group("/api")
	{
		api.GET("/catalog", catalogHandler.GetCatalog)
		api.GET("/durations", catalogHandler.GetDurations)
		api.GET("/products/:id/price", catalogHandler.GetProductPrice)
		api.GET("/products/:id/variants", catalogHandler.GetVariants)
		api.GET("/address/search", addressHandler.Search)

		customer := api.Group("", RequireUser())
		customer.GET("/cart", cartHandler.GetCart)
		customer.POST("/cart", cartHandler.AddItem)
		customer.PATCH("/cart/:itemId", cartHandler.UpdateItem)
		customer.DELETE("/cart/:itemId", cartHandler.RemoveItem)
		customer.GET("/orders", orderHandler.ListMyOrders)
		customer.POST("/orders", orderHandler.Checkout)
	}

	admin := router.Group("/api/admin", AdminGuard(adminKeyHash))
	{
		admin.GET("/leasers", adminHandler.ListLeasers)
		admin.POST("/leasers", adminHandler.CreateLeaser)
		admin.GET("/leasers/:id/coefficients", adminHandler.GetCoefficients)
		admin.PUT("/leasers/:id/coefficients", adminHandler.ReplaceCoefficients)
		admin.GET("/leasers/:id/coefficients/export", adminHandler.ExportCoefficients)

		admin.POST("/products/calculate-price", adminHandler.CalculatePrice)
		admin.GET("/products/:id/prices", adminHandler.GetProductPrices)

		admin.GET("/orders", orderHandler.ListOrders)
		admin.GET("/orders/:id", orderHandler.GetOrder)
		admin.PUT("/orders/:id", orderHandler.UpdateOrder)
		admin.PATCH("/orders/:id/prices", orderHandler.OverridePrices)
		admin.GET("/orders/:id/tracking", orderHandler.GetTracking)
		admin.PUT("/orders/:id/tracking", orderHandler.UpdateTracking)
		admin.GET("/orders/:id/logs", orderHandler.GetLogs)
	}

	return router
}
