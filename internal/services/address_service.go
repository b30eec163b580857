package services

import (
	"context"
	"strings"

	"leasing_market/pkg/adresse"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"
)

const (
	addressCacheSize = 100
	minAddressQuery  = 3
)

// AddressSearcher is the upstream autocomplete API.
type AddressSearcher interface {
	Search(ctx context.Context, query string, limit int) ([]adresse.Suggestion, error)
}

type AddressService interface {
	Search(ctx context.Context, query string) ([]adresse.Suggestion, error)
}

type addressService struct {
	client AddressSearcher
	cache  *lru.Cache[string, []adresse.Suggestion]
	logger *zap.Logger
}

func NewAddressService(client AddressSearcher, logger *zap.Logger) (AddressService, error) {
	cache, err := lru.New[string, []adresse.Suggestion](addressCacheSize)
	if err != nil {
		return nil, err
	}
	return &addressService{client: client, cache: cache, logger: logger}, nil
}

// Search returns suggestions for queries of three characters or more. Results
// are cached per lower-cased, trimmed query; failures are not cached.
func (s *addressService) Search(ctx context.Context, query string) ([]adresse.Suggestion, error) {
	query = strings.TrimSpace(query)
	if len([]rune(query)) < minAddressQuery {
		return []adresse.Suggestion{}, nil
	}
	key := strings.ToLower(query)
	if cached, ok := s.cache.Get(key); ok {
		return cached, nil
	}

	suggestions, err := s.client.Search(ctx, query, adresse.DefaultLimit)
	if err != nil {
		s.logger.Warn("address search failed", zap.String("query", query), zap.Error(err))
		return nil, err
	}
	s.cache.Add(key, suggestions)
	return suggestions, nil
}
