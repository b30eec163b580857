package priceclient

import (
	"context"
	"sync"

	"leasing_market/internal/pricing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const maxConcurrentRequests = 8

// PriceFetcher is satisfied by *Client.
type PriceFetcher interface {
	ProductPrice(ctx context.Context, productID uuid.UUID, durationMonths int) (*Quote, error)
}

// Item is one cart line to price.
type Item struct {
	ID              string          `json:"id"`
	ProductID       uuid.UUID       `json:"product_id"`
	Quantity        int             `json:"quantity"`
	PurchasePriceHT decimal.Decimal `json:"purchase_price_ht"`
	MarginPercent   decimal.Decimal `json:"marlon_margin_percent"`
}

type ItemPrice struct {
	ItemID    string          `json:"item_id"`
	UnitHT    decimal.Decimal `json:"unit_monthly_ht"`
	MonthlyHT decimal.Decimal `json:"monthly_ht"`
	Source    pricing.Source  `json:"source"`
}

type Snapshot struct {
	Generation      uint64          `json:"generation"`
	DurationMonths  int             `json:"duration_months"`
	Items           []ItemPrice     `json:"items"`
	TotalMonthlyHT  decimal.Decimal `json:"total_monthly_ht"`
	TotalMonthlyTTC decimal.Decimal `json:"total_monthly_ttc"`
}

// Recomputer reprices a cart when its leasing duration changes. A local
// estimate from the fallback table is published at once, then each line is
// replaced by the server's answer when it arrives. Answers that belong to an
// older generation are dropped.
type Recomputer struct {
	fetcher PriceFetcher
	logger  *zap.Logger

	mu         sync.Mutex
	generation uint64
	duration   int
	order      []string
	prices     map[string]ItemPrice
}

func NewRecomputer(fetcher PriceFetcher, logger *zap.Logger) *Recomputer {
	return &Recomputer{
		fetcher: fetcher,
		logger:  logger,
		prices:  make(map[string]ItemPrice),
	}
}

func estimate(item Item, durationMonths int) ItemPrice {
	selling := pricing.SellingPrice(item.PurchasePriceHT, item.MarginPercent)
	unit := selling.Mul(pricing.FallbackCoefficient(durationMonths))
	return ItemPrice{
		ItemID:    item.ID,
		UnitHT:    unit,
		MonthlyHT: unit.Mul(decimal.NewFromInt(int64(item.Quantity))),
		Source:    pricing.SourceFallback,
	}
}

// Recompute reprices items for durationMonths and returns once every server
// request has finished or failed. Failures keep the fallback estimate.
func (r *Recomputer) Recompute(ctx context.Context, items []Item, durationMonths int) uint64 {
	r.mu.Lock()
	r.generation++
	gen := r.generation
	r.duration = durationMonths
	r.order = make([]string, 0, len(items))
	r.prices = make(map[string]ItemPrice, len(items))
	for _, item := range items {
		r.order = append(r.order, item.ID)
		r.prices[item.ID] = estimate(item, durationMonths)
	}
	r.mu.Unlock()

	var g errgroup.Group
	g.SetLimit(maxConcurrentRequests)
	for _, item := range items {
		item := item
		g.Go(func() error {
			quote, err := r.fetcher.ProductPrice(ctx, item.ProductID, durationMonths)
			if err != nil {
				r.logger.Debug("server price unavailable, keeping estimate",
					zap.String("item_id", item.ID),
					zap.Error(err))
				return nil
			}
			r.apply(gen, item, quote)
			return nil
		})
	}
	// Workers never return an error; a failed fetch keeps its estimate.
	g.Wait()
	return gen
}

func (r *Recomputer) apply(gen uint64, item Item, quote *Quote) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if gen != r.generation {
		return
	}
	if _, ok := r.prices[item.ID]; !ok {
		return
	}
	r.prices[item.ID] = ItemPrice{
		ItemID:    item.ID,
		UnitHT:    quote.MonthlyPrice,
		MonthlyHT: quote.MonthlyPrice.Mul(decimal.NewFromInt(int64(item.Quantity))),
		Source:    pricing.SourceServer,
	}
}

// Snapshot returns the current prices in cart order with their totals.
func (r *Recomputer) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	snap := Snapshot{
		Generation:     r.generation,
		DurationMonths: r.duration,
		Items:          make([]ItemPrice, 0, len(r.order)),
		TotalMonthlyHT: decimal.Zero,
	}
	for _, id := range r.order {
		p := r.prices[id]
		snap.Items = append(snap.Items, p)
		snap.TotalMonthlyHT = snap.TotalMonthlyHT.Add(p.MonthlyHT)
	}
	snap.TotalMonthlyTTC = pricing.TTC(snap.TotalMonthlyHT)
	return snap
}

// Rounded returns a copy with every amount rounded to cents for display.
func (s Snapshot) Rounded() Snapshot {
	out := s
	out.Items = make([]ItemPrice, len(s.Items))
	for i, p := range s.Items {
		p.UnitHT = pricing.Round2(p.UnitHT)
		p.MonthlyHT = pricing.Round2(p.MonthlyHT)
		out.Items[i] = p
	}
	out.TotalMonthlyHT = pricing.Round2(s.TotalMonthlyHT)
	out.TotalMonthlyTTC = pricing.Round2(s.TotalMonthlyTTC)
	return out
}
