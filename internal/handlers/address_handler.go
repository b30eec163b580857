package handlers

import (
	"net/http"

	"leasing_market/internal/services"

	"github.com/gin-gonic/gin"
)

type AddressHandler struct {
	addressService services.AddressService
}

func NewAddressHandler(addressService services.AddressService) *AddressHandler {
	return &AddressHandler{addressService: addressService}
}

// GET /api/address/search?q=
func (h *AddressHandler) Search(c *gin.Context) {
	suggestions, err := h.addressService.Search(c.Request.Context(), c.Query("q"))
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "Address service unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"suggestions": suggestions})
}
