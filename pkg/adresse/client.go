package adresse

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// DefaultLimit is the number of suggestions asked for per search.
const DefaultLimit = 6

type Client struct {
	BaseURL    string
	HTTPClient *http.Client
}

// Suggestion is one address returned by the national address base.
type Suggestion struct {
	Label       string `json:"label"`
	HouseNumber string `json:"housenumber,omitempty"`
	Street      string `json:"street,omitempty"`
	Name        string `json:"name,omitempty"`
	Postcode    string `json:"postcode,omitempty"`
	City        string `json:"city,omitempty"`
	Context     string `json:"context,omitempty"`
}

// Line returns the street line: number and street when a number is known,
// otherwise the street, the place name or the full label.
func (s Suggestion) Line() string {
	street := s.Street
	if street == "" {
		street = s.Name
	}
	if s.HouseNumber != "" {
		return strings.TrimSpace(s.HouseNumber + " " + street)
	}
	if street != "" {
		return street
	}
	return s.Label
}

type searchResponse struct {
	Features []struct {
		Properties Suggestion `json:"properties"`
	} `json:"features"`
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Search runs an autocomplete query against /search/.
func (c *Client) Search(ctx context.Context, query string, limit int) ([]Suggestion, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("limit", strconv.Itoa(limit))
	params.Set("autocomplete", "1")
	endpoint := fmt.Sprintf("%s/search/?%s", c.BaseURL, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("address API returned status %d", resp.StatusCode)
	}

	var response searchResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	suggestions := make([]Suggestion, 0, len(response.Features))
	for _, f := range response.Features {
		suggestions = append(suggestions, f.Properties)
	}
	return suggestions, nil
}
