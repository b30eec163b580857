package priceclient

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Quote mirrors the price object of GET /api/products/{id}/price.
type Quote struct {
	MonthlyPrice    decimal.Decimal `json:"monthlyPrice"`
	MonthlyPriceTTC decimal.Decimal `json:"monthlyPriceTTC"`
	TotalPrice      decimal.Decimal `json:"totalPrice"`
	Coefficient     decimal.Decimal `json:"coefficient"`
	SellingPrice    decimal.Decimal `json:"sellingPrice"`
	Source          string          `json:"source"`
}

type priceResponse struct {
	Success bool   `json:"success"`
	Price   *Quote `json:"price"`
	Error   string `json:"error"`
}

type Client struct {
	BaseURL    string
	HTTPClient *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{Timeout: timeout},
	}
}

// ProductPrice asks the server for the unit monthly rent of a product.
func (c *Client) ProductPrice(ctx context.Context, productID uuid.UUID, durationMonths int) (*Quote, error) {
	endpoint := fmt.Sprintf("%s/api/products/%s/price?duration=%d", c.BaseURL, productID, durationMonths)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var response priceResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, fmt.Errorf("failed to parse response (status %d): %w", resp.StatusCode, err)
	}
	if resp.StatusCode != http.StatusOK || !response.Success || response.Price == nil {
		return nil, fmt.Errorf("price request failed with status %d: %s", resp.StatusCode, response.Error)
	}
	return response.Price, nil
}
