package handlers

import (
	"net/http"

	"leasing_market/internal/services"

	"github.com/gin-gonic/gin"
)

type CatalogHandler struct {
	pricingService services.PricingService
}

func NewCatalogHandler(pricingService services.PricingService) *CatalogHandler {
	return &CatalogHandler{pricingService: pricingService}
}

// GET /api/products/:id/price?duration=N
func (h *CatalogHandler) GetProductPrice(c *gin.Context) {
	productID, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	months, ok := durationQuery(c)
	if !ok {
		return
	}

	quote, err := h.pricingService.ProductPrice(c.Request.Context(), productID, months)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "price": quote})
}

// GET /api/products/:id/variants?duration=N
func (h *CatalogHandler) GetVariants(c *gin.Context) {
	productID, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	months, ok := durationQuery(c)
	if !ok {
		return
	}

	variants, err := h.pricingService.Variants(c.Request.Context(), productID, months)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"variants": variants})
}

// GET /api/catalog?type=&duration=N
func (h *CatalogHandler) GetCatalog(c *gin.Context) {
	months, ok := durationQuery(c)
	if !ok {
		return
	}

	entries, err := h.pricingService.Catalog(c.Request.Context(), c.Query("type"), months)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"products": entries, "duration_months": months})
}

// GET /api/durations
func (h *CatalogHandler) GetDurations(c *gin.Context) {
	durations, err := h.pricingService.Durations()
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"durations": durations})
}
