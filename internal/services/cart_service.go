package services

import (
	"context"
	"errors"

	"leasing_market/internal/models"
	"leasing_market/internal/pricing"
	"leasing_market/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const DefaultDurationMonths = 36

type CartLine struct {
	models.CartItem
	Priced        bool            `json:"priced"`
	Coefficient   decimal.Decimal `json:"coefficient"`
	UnitMonthlyHT decimal.Decimal `json:"unit_monthly_ht"`
	MonthlyHT     decimal.Decimal `json:"monthly_ht"`
	MonthlyTTC    decimal.Decimal `json:"monthly_ttc"`
}

type CartView struct {
	CartID          *uuid.UUID      `json:"cart_id"`
	Items           []CartLine      `json:"items"`
	TotalMonthlyHT  decimal.Decimal `json:"total_monthly_ht"`
	TotalMonthlyTTC decimal.Decimal `json:"total_monthly_ttc"`
}

type CartService interface {
	GetCart(ctx context.Context, userID string) (*CartView, error)
	AddItem(userID string, productID uuid.UUID, quantity, durationMonths int) (*models.CartItem, error)
	UpdateItem(userID string, itemID uuid.UUID, quantity, durationMonths *int) (*models.CartItem, error)
	RemoveItem(userID string, itemID uuid.UUID) error
}

type cartService struct {
	cartRepo    repository.CartRepository
	productRepo repository.ProductRepository
	pricing     PricingService
}

func NewCartService(cartRepo repository.CartRepository, productRepo repository.ProductRepository, pricing PricingService) CartService {
	return &cartService{cartRepo: cartRepo, productRepo: productRepo, pricing: pricing}
}

// parentsOf loads the parents of the given products, keyed by id.
func parentsOf(productRepo repository.ProductRepository, products []*models.Product) (map[uuid.UUID]*models.Product, error) {
	var ids []uuid.UUID
	for _, p := range products {
		if p != nil && p.ParentProductID != nil && p.DefaultLeaserID == nil {
			ids = append(ids, *p.ParentProductID)
		}
	}
	parents, err := productRepo.GetByIDs(ids)
	if err != nil {
		return nil, err
	}
	out := make(map[uuid.UUID]*models.Product, len(parents))
	for i := range parents {
		out[parents[i].ID] = &parents[i]
	}
	return out, nil
}

func effectiveLeaser(p *models.Product, parents map[uuid.UUID]*models.Product) *uuid.UUID {
	var parent *models.Product
	if p.ParentProductID != nil {
		parent = parents[*p.ParentProductID]
	}
	return p.EffectiveLeaserID(parent)
}

// GetCart prices every line of the cart at its own duration. Lines whose
// product has no pricing input are listed but left out of the totals.
func (s *cartService) GetCart(ctx context.Context, userID string) (*CartView, error) {
	view := &CartView{Items: []CartLine{}, TotalMonthlyHT: decimal.Zero, TotalMonthlyTTC: decimal.Zero}

	cart, err := s.cartRepo.GetByUserID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return view, nil
		}
		return nil, notFound("cart", err)
	}
	view.CartID = &cart.ID
	if len(cart.Items) == 0 {
		return view, nil
	}

	products := make([]*models.Product, 0, len(cart.Items))
	for _, item := range cart.Items {
		products = append(products, item.Product)
	}
	parents, err := parentsOf(s.productRepo, products)
	if err != nil {
		return nil, notFound("parent products", err)
	}
	table, err := s.pricing.Table(ctx)
	if err != nil {
		return nil, err
	}

	for _, item := range cart.Items {
		line := CartLine{CartItem: item}
		p := item.Product
		if p != nil && p.HasPricing() {
			selling := pricing.SellingPrice(p.PurchasePriceHT.Decimal, p.MarlonMarginPercent.Decimal)
			coef := table.ForDuration(item.DurationMonths).FindCoefficient(selling, effectiveLeaser(p, parents))
			comp := pricing.ComputePrice(p.PurchasePriceHT.Decimal, p.MarlonMarginPercent.Decimal, coef, item.Quantity)
			line.Priced = true
			line.Coefficient = coef
			line.UnitMonthlyHT = selling.Mul(coef)
			line.MonthlyHT = comp.MonthlyHT
			line.MonthlyTTC = comp.MonthlyTTC
			view.TotalMonthlyHT = view.TotalMonthlyHT.Add(comp.MonthlyHT)
		}
		view.Items = append(view.Items, line)
	}
	view.TotalMonthlyTTC = pricing.TTC(view.TotalMonthlyHT)
	return view, nil
}

// MaxQuantity is the largest number of units a single cart line may hold.
const MaxQuantity = 1000

func checkQuantity(quantity int) error {
	if quantity <= 0 {
		return invalid("quantity must be positive")
	}
	if quantity > MaxQuantity {
		return invalid("quantity must not exceed %d", MaxQuantity)
	}
	return nil
}

func (s *cartService) AddItem(userID string, productID uuid.UUID, quantity, durationMonths int) (*models.CartItem, error) {
	if userID == "" {
		return nil, invalid("user id is required")
	}
	if quantity == 0 {
		quantity = 1
	}
	if err := checkQuantity(quantity); err != nil {
		return nil, err
	}
	if durationMonths == 0 {
		durationMonths = DefaultDurationMonths
	}
	if err := s.pricing.ValidateDuration(durationMonths); err != nil {
		return nil, err
	}
	if _, err := s.productRepo.GetByID(productID); err != nil {
		return nil, notFound("product", err)
	}

	cart, err := s.cartRepo.GetOrCreate(userID)
	if err != nil {
		return nil, notFound("cart", err)
	}
	item := &models.CartItem{
		CartID:         cart.ID,
		ProductID:      productID,
		Quantity:       quantity,
		DurationMonths: durationMonths,
	}
	if err := s.cartRepo.AddItem(item); err != nil {
		return nil, err
	}
	return item, nil
}

func (s *cartService) UpdateItem(userID string, itemID uuid.UUID, quantity, durationMonths *int) (*models.CartItem, error) {
	item, err := s.cartRepo.GetItem(userID, itemID)
	if err != nil {
		return nil, notFound("cart item", err)
	}
	if quantity != nil {
		if err := checkQuantity(*quantity); err != nil {
			return nil, err
		}
		item.Quantity = *quantity
	}
	if durationMonths != nil {
		if err := s.pricing.ValidateDuration(*durationMonths); err != nil {
			return nil, err
		}
		item.DurationMonths = *durationMonths
	}
	if err := s.cartRepo.UpdateItem(item); err != nil {
		return nil, err
	}
	return item, nil
}

func (s *cartService) RemoveItem(userID string, itemID uuid.UUID) error {
	item, err := s.cartRepo.GetItem(userID, itemID)
	if err != nil {
		return notFound("cart item", err)
	}
	return s.cartRepo.DeleteItem(item.ID)
}
