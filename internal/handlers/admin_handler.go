package handlers

import (
	"net/http"

	"leasing_market/internal/services"

	"github.com/gin-gonic/gin"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type AdminHandler struct {
	leaserService  services.LeaserService
	pricingService services.PricingService
}

func NewAdminHandler(leaserService services.LeaserService, pricingService services.PricingService) *AdminHandler {
	return &AdminHandler{leaserService: leaserService, pricingService: pricingService}
}

func (h *AdminHandler) ListLeasers(c *gin.Context) {
	leasers, err := h.leaserService.ListLeasers()
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"leasers": leasers})
}

func (h *AdminHandler) CreateLeaser(c *gin.Context) {
	var req struct {
		Name string `json:"name" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	leaser, err := h.leaserService.CreateLeaser(req.Name)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"leaser": leaser})
}

func (h *AdminHandler) GetCoefficients(c *gin.Context) {
	leaserID, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	rows, err := h.leaserService.GetCoefficients(leaserID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"coefficients": rows})
}

// PUT /api/admin/leasers/:id/coefficients replaces the whole table.
func (h *AdminHandler) ReplaceCoefficients(c *gin.Context) {
	leaserID, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req struct {
		Coefficients []services.CoefficientInput `json:"coefficients"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	rows, err := h.leaserService.ReplaceCoefficients(c.Request.Context(), leaserID, req.Coefficients)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "coefficients": rows})
}

func (h *AdminHandler) ExportCoefficients(c *gin.Context) {
	leaserID, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	filename, content, err := h.leaserService.ExportCoefficients(leaserID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, xlsxContentType, content)
}

// POST /api/admin/products/calculate-price
func (h *AdminHandler) CalculatePrice(c *gin.Context) {
	var req services.PreviewInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	quote, err := h.pricingService.Preview(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": quote})
}

// GET /api/admin/products/:id/prices
func (h *AdminHandler) GetProductPrices(c *gin.Context) {
	productID, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	prices, err := h.pricingService.PricesByDuration(c.Request.Context(), productID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": prices})
}
