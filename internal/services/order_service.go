package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"leasing_market/internal/models"
	"leasing_market/internal/pricing"
	"leasing_market/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type DeliveryAddress struct {
	Name         string `json:"name"`
	Address      string `json:"address"`
	City         string `json:"city"`
	PostalCode   string `json:"postal_code"`
	Country      string `json:"country"`
	ContactName  string `json:"contact_name"`
	ContactPhone string `json:"contact_phone"`
	Instructions string `json:"instructions"`
}

type DocumentURLs struct {
	IdentityCardFrontURL string `json:"identity_card_front_url"`
	IdentityCardBackURL  string `json:"identity_card_back_url"`
	TaxLiasseURL         string `json:"tax_liasse_url"`
	BusinessPlanURL      string `json:"business_plan_url"`
}

type CheckoutRequest struct {
	UserID         string
	OrganizationID string
	DurationMonths int
	Delivery       *DeliveryAddress
	Documents      *DocumentURLs
}

type OrderSummary struct {
	PurchasePriceHT pricing.Price `json:"purchase_price_ht"`
	CAMarlonHT      pricing.Price `json:"ca_marlon_ht"`
	MonthlyTTC      pricing.Price `json:"monthly_ttc"`
}

type OrderDetail struct {
	Order    *models.Order `json:"order"`
	Summary  OrderSummary  `json:"summary"`
	Tracking *TrackingView `json:"tracking,omitempty"`
}

type TrackingView struct {
	*models.OrderTracking
	Stages []models.StageProgress `json:"stages"`
}

// OverrideRequest sets one or more summary figures by hand.
type OverrideRequest struct {
	PurchasePriceHT *decimal.Decimal `json:"purchase_price_ht"`
	CAMarlonHT      *decimal.Decimal `json:"ca_marlon_ht"`
	MonthlyTTC      *decimal.Decimal `json:"monthly_ttc"`
	Reason          string           `json:"reason"`
	Author          string           `json:"-"`
}

// TrackingUpdate carries the fields to change; nil means unchanged.
type TrackingUpdate struct {
	FinancingStatus      *string `json:"financing_status"`
	IdentityCardFrontURL *string `json:"identity_card_front_url"`
	IdentityCardBackURL  *string `json:"identity_card_back_url"`
	TaxLiasseURL         *string `json:"tax_liasse_url"`
	BusinessPlanURL      *string `json:"business_plan_url"`
	DocusignLink         *string `json:"docusign_link"`
	SignedContractURL    *string `json:"signed_contract_url"`
	ContractNumber       *string `json:"contract_number"`
	DeliveryStatus       *string `json:"delivery_status"`
	ContractStatus       *string `json:"contract_status"`
	ContractEndDate      *string `json:"contract_end_date"` // YYYY-MM-DD or RFC 3339, "" clears
}

// OrderUpdate carries the back-office changes to an order; nil means
// unchanged. An empty LeaserID detaches the order from its leaser.
type OrderUpdate struct {
	Status         *string `json:"status"`
	LeaserID       *string `json:"leaser_id"`
	DurationMonths *int    `json:"leasing_duration_months"`
}

type OrderService interface {
	Checkout(ctx context.Context, req CheckoutRequest) (*models.Order, error)
	GetOrder(id uuid.UUID) (*OrderDetail, error)
	UpdateOrder(ctx context.Context, id uuid.UUID, update OrderUpdate, author string) (*OrderDetail, error)
	ListOrders(status string) ([]models.Order, error)
	ListOrganizationOrders(organizationID string) ([]models.Order, error)
	Summary(order *models.Order) (OrderSummary, error)
	OverridePrices(orderID uuid.UUID, req OverrideRequest) (*OrderSummary, error)
	GetTracking(orderID uuid.UUID) (*TrackingView, error)
	UpdateTracking(orderID uuid.UUID, update TrackingUpdate, author string) (*TrackingView, error)
	GetLogs(orderID uuid.UUID) ([]models.OrderLog, error)
}

type orderService struct {
	orderRepo     repository.OrderRepository
	orderItemRepo repository.OrderItemRepository
	cartRepo      repository.CartRepository
	productRepo   repository.ProductRepository
	leaserRepo    repository.LeaserRepository
	trackingRepo  repository.TrackingRepository
	auditRepo     repository.AuditRepository
	transactor    repository.Transactor
	pricing       PricingService
	logger        *zap.Logger
}

func NewOrderService(
	orderRepo repository.OrderRepository,
	orderItemRepo repository.OrderItemRepository,
	cartRepo repository.CartRepository,
	productRepo repository.ProductRepository,
	leaserRepo repository.LeaserRepository,
	trackingRepo repository.TrackingRepository,
	auditRepo repository.AuditRepository,
	transactor repository.Transactor,
	pricing PricingService,
	logger *zap.Logger,
) OrderService {
	return &orderService{
		orderRepo:     orderRepo,
		orderItemRepo: orderItemRepo,
		cartRepo:      cartRepo,
		productRepo:   productRepo,
		leaserRepo:    leaserRepo,
		trackingRepo:  trackingRepo,
		auditRepo:     auditRepo,
		transactor:    transactor,
		pricing:       pricing,
		logger:        logger,
	}
}

// Checkout turns the user's cart into an order. Prices are recomputed from
// the catalog: one coefficient, chosen on the cart's total selling price,
// applies to every line, and one order item is written per leased unit.
func (s *orderService) Checkout(ctx context.Context, req CheckoutRequest) (*models.Order, error) {
	if req.UserID == "" || req.OrganizationID == "" {
		return nil, invalid("user and organization are required")
	}
	if req.DurationMonths == 0 {
		req.DurationMonths = DefaultDurationMonths
	}
	if err := s.pricing.ValidateDuration(req.DurationMonths); err != nil {
		return nil, err
	}

	cart, err := s.cartRepo.GetByUserID(req.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEmptyCart
		}
		return nil, notFound("cart", err)
	}
	if len(cart.Items) == 0 {
		return nil, ErrEmptyCart
	}

	products := make([]*models.Product, 0, len(cart.Items))
	for _, item := range cart.Items {
		if item.Product == nil {
			return nil, fmt.Errorf("cart item %s: product: %w", item.ID, ErrNotFound)
		}
		if !item.Product.HasPricing() {
			return nil, fmt.Errorf("product %s: %w", item.Product.Slug, ErrMissingPricing)
		}
		products = append(products, item.Product)
	}
	parents, err := parentsOf(s.productRepo, products)
	if err != nil {
		return nil, notFound("parent products", err)
	}
	leaserID := effectiveLeaser(products[0], parents)
	if leaserID == nil {
		return nil, ErrNoLeaser
	}

	total := decimal.Zero
	for _, item := range cart.Items {
		p := item.Product
		selling := pricing.SellingPrice(p.PurchasePriceHT.Decimal, p.MarlonMarginPercent.Decimal)
		total = total.Add(selling.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}

	table, err := s.pricing.Table(ctx)
	if err != nil {
		return nil, err
	}
	coef, match := table.ForDuration(req.DurationMonths).Lookup(total, leaserID)
	if match != pricing.MatchBracket {
		s.logger.Info("checkout coefficient outside brackets",
			zap.String("match", string(match)),
			zap.String("total", total.String()),
			zap.String("leaser_id", leaserID.String()))
	}

	months := decimal.NewFromInt(int64(req.DurationMonths))
	order := &models.Order{
		OrganizationID:        req.OrganizationID,
		UserID:                req.UserID,
		Status:                string(models.OrderPending),
		LeasingDurationMonths: req.DurationMonths,
		LeaserID:              leaserID,
		TotalAmountHT:         decimal.Zero,
	}
	for _, item := range cart.Items {
		p := item.Product
		unit := pricing.ComputePrice(p.PurchasePriceHT.Decimal, p.MarlonMarginPercent.Decimal, coef, 1)
		for i := 0; i < item.Quantity; i++ {
			order.Items = append(order.Items, models.OrderItem{
				ProductID:         p.ID,
				Quantity:          1,
				PurchasePriceHT:   p.PurchasePriceHT.Decimal,
				MarginPercent:     p.MarlonMarginPercent.Decimal,
				CalculatedPriceHT: unit.MonthlyHT,
				CoefficientUsed:   coef,
			})
			order.TotalAmountHT = order.TotalAmountHT.Add(unit.MonthlyHT.Mul(months))
		}
	}
	if d := req.Delivery; d != nil {
		order.DeliveryName = d.Name
		order.DeliveryAddress = d.Address
		order.DeliveryCity = d.City
		order.DeliveryPostalCode = d.PostalCode
		order.DeliveryCountry = d.Country
		if order.DeliveryCountry == "" {
			order.DeliveryCountry = "France"
		}
		order.DeliveryContactName = d.ContactName
		order.DeliveryContactPhone = d.ContactPhone
		order.DeliveryInstructions = d.Instructions
	}

	tracking := &models.OrderTracking{
		FinancingStatus: "pending",
		DeliveryStatus:  "pending",
		ContractStatus:  "pending",
	}
	if docs := req.Documents; docs != nil {
		tracking.IdentityCardFrontURL = docs.IdentityCardFrontURL
		tracking.IdentityCardBackURL = docs.IdentityCardBackURL
		tracking.TaxLiasseURL = docs.TaxLiasseURL
		tracking.BusinessPlanURL = docs.BusinessPlanURL
	}

	log := &models.OrderLog{
		ActionType:  models.LogCreated,
		Description: fmt.Sprintf("Order created with %d item(s) over %d months", len(order.Items), req.DurationMonths),
		Metadata: map[string]interface{}{
			"total_amount_ht":   order.TotalAmountHT.String(),
			"coefficient":       coef.String(),
			"coefficient_match": string(match),
			"leaser_id":         leaserID.String(),
		},
		UserID: req.UserID,
	}

	if err := s.orderRepo.PlaceOrder(order, tracking, log, cart.ID); err != nil {
		return nil, fmt.Errorf("failed to place order: %w", err)
	}
	s.logger.Info("order placed",
		zap.String("order_id", order.ID.String()),
		zap.String("organization_id", order.OrganizationID),
		zap.Int("items", len(order.Items)))
	return order, nil
}

func (s *orderService) GetOrder(id uuid.UUID) (*OrderDetail, error) {
	order, err := s.orderRepo.GetByID(id)
	if err != nil {
		return nil, notFound("order", err)
	}
	summary, err := s.Summary(order)
	if err != nil {
		return nil, err
	}
	detail := &OrderDetail{Order: order, Summary: summary}

	tracking, err := s.trackingRepo.GetByOrderID(id)
	switch {
	case err == nil:
		detail.Tracking = &TrackingView{OrderTracking: tracking, Stages: tracking.Stages()}
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, notFound("tracking", err)
	}
	return detail, nil
}

// UpdateOrder applies a back-office change of status, leaser or duration.
// A status change moves the tracking statuses along with it. A new leaser or
// duration reprices every item with one coefficient chosen on the order's
// total selling price; without a leaser the stored monthly prices are kept.
// Everything is written in one transaction, with a log per change.
func (s *orderService) UpdateOrder(ctx context.Context, id uuid.UUID, update OrderUpdate, author string) (*OrderDetail, error) {
	order, err := s.orderRepo.GetByID(id)
	if err != nil {
		return nil, notFound("order", err)
	}
	previous := *order

	if update.Status != nil {
		status := models.OrderStatus(*update.Status)
		if !status.Valid() {
			return nil, invalid("unknown order status %q", *update.Status)
		}
		order.Status = string(status)
	}
	if update.LeaserID != nil {
		order.LeaserID = nil
		if *update.LeaserID != "" {
			leaserID, err := uuid.Parse(*update.LeaserID)
			if err != nil {
				return nil, invalid("invalid leaser_id %q", *update.LeaserID)
			}
			if _, err := s.leaserRepo.GetByID(leaserID); err != nil {
				return nil, notFound("leaser", err)
			}
			order.LeaserID = &leaserID
		}
	}
	if update.DurationMonths != nil {
		if err := s.pricing.ValidateDuration(*update.DurationMonths); err != nil {
			return nil, err
		}
		order.LeasingDurationMonths = *update.DurationMonths
	}

	var logs []models.OrderLog
	newLog := func(action, description string, metadata map[string]interface{}) {
		logs = append(logs, models.OrderLog{
			OrderID:     id,
			ActionType:  action,
			Description: description,
			Metadata:    metadata,
			UserID:      author,
		})
	}

	prices, repriceLog, err := s.reprice(ctx, order, update.LeaserID != nil || update.DurationMonths != nil)
	if err != nil {
		return nil, err
	}

	var tracking *models.OrderTracking
	if order.Status != previous.Status {
		tracking, err = s.trackingRepo.GetByOrderID(id)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			tracking = &models.OrderTracking{OrderID: id, FinancingStatus: "pending", DeliveryStatus: "pending", ContractStatus: "pending"}
		} else if err != nil {
			return nil, notFound("tracking", err)
		}
		synced := tracking.SyncWithOrderStatus(models.OrderStatus(order.Status))
		if len(synced) == 0 {
			tracking = nil
		}
		newLog(models.LogStatusChanged,
			fmt.Sprintf("Status changed from %s to %s", previous.Status, order.Status),
			map[string]interface{}{"from": previous.Status, "to": order.Status, "tracking": synced})
	}
	if !sameLeaser(previous.LeaserID, order.LeaserID) {
		newLog(models.LogUpdated, "Leaser changed",
			map[string]interface{}{"from": leaserString(previous.LeaserID), "to": leaserString(order.LeaserID)})
	}
	if order.LeasingDurationMonths != previous.LeasingDurationMonths {
		newLog(models.LogUpdated,
			fmt.Sprintf("Duration changed from %d to %d months", previous.LeasingDurationMonths, order.LeasingDurationMonths),
			map[string]interface{}{"from": previous.LeasingDurationMonths, "to": order.LeasingDurationMonths})
	}
	if repriceLog != nil {
		logs = append(logs, *repriceLog)
		logs[len(logs)-1].UserID = author
	}
	if len(logs) == 0 {
		newLog(models.LogUpdated, "Order updated", nil)
	}

	err = s.transactor.InTransaction(func(repos repository.Repositories) error {
		if err := repos.Orders.Update(order); err != nil {
			return err
		}
		for productID, price := range prices {
			if err := repos.OrderItems.UpdateProductPrice(id, productID, price.monthlyHT, price.coefficient); err != nil {
				return err
			}
		}
		if tracking != nil {
			if err := repos.Tracking.Save(tracking, nil); err != nil {
				return err
			}
		}
		for i := range logs {
			if err := repos.Audit.CreateLog(&logs[i]); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update order: %w", err)
	}

	s.logger.Info("order updated",
		zap.String("order_id", id.String()),
		zap.String("status", order.Status),
		zap.Int("duration_months", order.LeasingDurationMonths),
		zap.Int("repriced_products", len(prices)),
		zap.String("author", author))
	return s.GetOrder(id)
}

type itemPrice struct {
	monthlyHT   decimal.Decimal
	coefficient decimal.Decimal
}

// reprice recomputes item prices and the order total in place. Units of one
// product share the snapshot taken at checkout, so prices are keyed by
// product. Without a leaser only the total follows the duration.
func (s *orderService) reprice(ctx context.Context, order *models.Order, requested bool) (map[uuid.UUID]itemPrice, *models.OrderLog, error) {
	if !requested || len(order.Items) == 0 {
		return nil, nil, nil
	}
	months := decimal.NewFromInt(int64(order.LeasingDurationMonths))
	if order.LeaserID == nil {
		order.TotalAmountHT = decimal.Zero
		for _, item := range order.Items {
			order.TotalAmountHT = order.TotalAmountHT.Add(item.CalculatedPriceHT.Mul(decimal.NewFromInt(int64(item.Quantity))).Mul(months))
		}
		return nil, nil, nil
	}

	selling := decimal.Zero
	for _, item := range order.Items {
		unit := pricing.SellingPrice(item.PurchasePriceHT, item.MarginPercent)
		selling = selling.Add(unit.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	table, err := s.pricing.Table(ctx)
	if err != nil {
		return nil, nil, err
	}
	coef, match := table.ForDuration(order.LeasingDurationMonths).Lookup(selling, order.LeaserID)

	prices := make(map[uuid.UUID]itemPrice)
	order.TotalAmountHT = decimal.Zero
	for i := range order.Items {
		item := &order.Items[i]
		price, ok := prices[item.ProductID]
		if !ok {
			comp := pricing.ComputePrice(item.PurchasePriceHT, item.MarginPercent, coef, 1)
			price = itemPrice{monthlyHT: comp.MonthlyHT, coefficient: coef}
			prices[item.ProductID] = price
		}
		item.CalculatedPriceHT = price.monthlyHT
		item.CoefficientUsed = coef
		order.TotalAmountHT = order.TotalAmountHT.Add(price.monthlyHT.Mul(decimal.NewFromInt(int64(item.Quantity))).Mul(months))
	}

	log := &models.OrderLog{
		OrderID:     order.ID,
		ActionType:  models.LogUpdated,
		Description: "Prices recalculated",
		Metadata: map[string]interface{}{
			"coefficient":       coef.String(),
			"coefficient_match": string(match),
			"total_amount_ht":   order.TotalAmountHT.String(),
		},
	}
	return prices, log, nil
}

func sameLeaser(a, b *uuid.UUID) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func leaserString(id *uuid.UUID) string {
	if id == nil {
		return ""
	}
	return id.String()
}

func (s *orderService) ListOrders(status string) ([]models.Order, error) {
	return s.orderRepo.GetAll(status)
}

func (s *orderService) ListOrganizationOrders(organizationID string) ([]models.Order, error) {
	if organizationID == "" {
		return nil, invalid("organization is required")
	}
	return s.orderRepo.GetByOrganizationID(organizationID)
}

// computedSummary derives the back-office figures from the item snapshots.
func computedSummary(order *models.Order, items []models.OrderItem) (purchase, caMarlon, monthlyTTC decimal.Decimal) {
	purchase = decimal.Zero
	caMarlon = decimal.Zero
	for _, item := range items {
		qty := decimal.NewFromInt(int64(item.Quantity))
		purchase = purchase.Add(item.PurchasePriceHT.Mul(qty))
		caMarlon = caMarlon.Add(item.PurchasePriceHT.Mul(item.MarginPercent).Div(decimal.NewFromInt(100)).Mul(qty))
	}
	monthlyTTC = decimal.Zero
	if order.LeasingDurationMonths > 0 {
		monthlyTTC = pricing.TTC(order.TotalAmountHT.Div(decimal.NewFromInt(int64(order.LeasingDurationMonths))))
	}
	return purchase, caMarlon, monthlyTTC
}

func manualOverride(latest map[models.OverrideField]models.OrderPriceOverride, field models.OverrideField) *pricing.ManualOverride {
	o, ok := latest[field]
	if !ok {
		return nil
	}
	return &pricing.ManualOverride{Value: o.Value, Reason: o.Reason, Author: o.Author, At: o.CreatedAt}
}

// Summary resolves each figure to its manual override when one exists.
func (s *orderService) Summary(order *models.Order) (OrderSummary, error) {
	items := order.Items
	if items == nil {
		var err error
		items, err = s.orderItemRepo.GetByOrderID(order.ID)
		if err != nil {
			return OrderSummary{}, notFound("order items", err)
		}
	}
	latest, err := s.auditRepo.LatestOverrides(order.ID)
	if err != nil {
		return OrderSummary{}, notFound("overrides", err)
	}

	purchase, caMarlon, monthlyTTC := computedSummary(order, items)
	return OrderSummary{
		PurchasePriceHT: pricing.Resolve(purchase, manualOverride(latest, models.OverridePurchasePriceHT)),
		CAMarlonHT:      pricing.Resolve(caMarlon, manualOverride(latest, models.OverrideCAMarlonHT)),
		MonthlyTTC:      pricing.Resolve(monthlyTTC, manualOverride(latest, models.OverrideMonthlyTTC)),
	}, nil
}

func (s *orderService) OverridePrices(orderID uuid.UUID, req OverrideRequest) (*OrderSummary, error) {
	req.Reason = strings.TrimSpace(req.Reason)
	if req.Reason == "" {
		return nil, invalid("a reason is required")
	}
	if req.Author == "" {
		return nil, invalid("an author is required")
	}

	fields := []struct {
		field models.OverrideField
		value *decimal.Decimal
	}{
		{models.OverridePurchasePriceHT, req.PurchasePriceHT},
		{models.OverrideCAMarlonHT, req.CAMarlonHT},
		{models.OverrideMonthlyTTC, req.MonthlyTTC},
	}

	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, notFound("order", err)
	}
	before, err := s.Summary(order)
	if err != nil {
		return nil, err
	}
	previous := map[models.OverrideField]pricing.Price{
		models.OverridePurchasePriceHT: before.PurchasePriceHT,
		models.OverrideCAMarlonHT:      before.CAMarlonHT,
		models.OverrideMonthlyTTC:      before.MonthlyTTC,
	}

	var overrides []models.OrderPriceOverride
	changes := make(map[string]interface{})
	for _, f := range fields {
		if f.value == nil {
			continue
		}
		if f.value.IsNegative() {
			return nil, invalid("%s must not be negative", f.field)
		}
		overrides = append(overrides, models.OrderPriceOverride{
			OrderID: orderID,
			Field:   string(f.field),
			Value:   *f.value,
			Reason:  req.Reason,
			Author:  req.Author,
		})
		changes[string(f.field)] = map[string]string{
			"old": previous[f.field].Amount().String(),
			"new": f.value.String(),
		}
	}
	if len(overrides) == 0 {
		return nil, invalid("no price to override")
	}

	log := &models.OrderLog{
		OrderID:     orderID,
		ActionType:  models.LogUpdated,
		Description: "Prices overridden: " + req.Reason,
		Metadata:    map[string]interface{}{"price_overrides": changes},
		UserID:      req.Author,
	}
	if err := s.auditRepo.CreateOverrides(overrides, log); err != nil {
		return nil, fmt.Errorf("failed to save overrides: %w", err)
	}

	summary, err := s.Summary(order)
	if err != nil {
		return nil, err
	}
	return &summary, nil
}

func (s *orderService) GetTracking(orderID uuid.UUID) (*TrackingView, error) {
	tracking, err := s.trackingRepo.GetByOrderID(orderID)
	if err != nil {
		return nil, notFound("tracking", err)
	}
	return &TrackingView{OrderTracking: tracking, Stages: tracking.Stages()}, nil
}

func oneOf(value string, allowed []string) bool {
	for _, a := range allowed {
		if value == a {
			return true
		}
	}
	return false
}

func parseDate(value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	if t, err := time.Parse("2006-01-02", value); err == nil {
		return &t, nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return nil, invalid("contract_end_date %q is not a date", value)
	}
	return &t, nil
}

// UpdateTracking applies the given fields. Any stage may be edited at any
// time; only enumerated statuses are checked.
func (s *orderService) UpdateTracking(orderID uuid.UUID, update TrackingUpdate, author string) (*TrackingView, error) {
	if update.FinancingStatus != nil && !oneOf(*update.FinancingStatus, models.FinancingStatuses) {
		return nil, invalid("financing_status %q", *update.FinancingStatus)
	}
	if update.DeliveryStatus != nil && !oneOf(*update.DeliveryStatus, models.DeliveryStatuses) {
		return nil, invalid("delivery_status %q", *update.DeliveryStatus)
	}
	if update.ContractStatus != nil && !oneOf(*update.ContractStatus, models.ContractStatuses) {
		return nil, invalid("contract_status %q", *update.ContractStatus)
	}
	var endDate *time.Time
	if update.ContractEndDate != nil {
		var err error
		if endDate, err = parseDate(*update.ContractEndDate); err != nil {
			return nil, err
		}
	}

	if _, err := s.orderRepo.GetByID(orderID); err != nil {
		return nil, notFound("order", err)
	}
	tracking, err := s.trackingRepo.GetByOrderID(orderID)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("tracking", err)
		}
		tracking = &models.OrderTracking{
			OrderID:         orderID,
			FinancingStatus: "pending",
			DeliveryStatus:  "pending",
			ContractStatus:  "pending",
		}
	}

	var changed []string
	set := func(name string, dst *string, src *string) {
		if src != nil && *dst != *src {
			*dst = *src
			changed = append(changed, name)
		}
	}
	set("financing_status", &tracking.FinancingStatus, update.FinancingStatus)
	set("identity_card_front_url", &tracking.IdentityCardFrontURL, update.IdentityCardFrontURL)
	set("identity_card_back_url", &tracking.IdentityCardBackURL, update.IdentityCardBackURL)
	set("tax_liasse_url", &tracking.TaxLiasseURL, update.TaxLiasseURL)
	set("business_plan_url", &tracking.BusinessPlanURL, update.BusinessPlanURL)
	set("docusign_link", &tracking.DocusignLink, update.DocusignLink)
	set("signed_contract_url", &tracking.SignedContractURL, update.SignedContractURL)
	set("contract_number", &tracking.ContractNumber, update.ContractNumber)
	set("delivery_status", &tracking.DeliveryStatus, update.DeliveryStatus)
	set("contract_status", &tracking.ContractStatus, update.ContractStatus)
	if update.ContractEndDate != nil && !sameDate(tracking.ContractEndDate, endDate) {
		tracking.ContractEndDate = endDate
		changed = append(changed, "contract_end_date")
	}

	var log *models.OrderLog
	if len(changed) > 0 {
		log = &models.OrderLog{
			OrderID:     orderID,
			ActionType:  models.LogTrackingUpdated,
			Description: "Tracking updated: " + strings.Join(changed, ", "),
			Metadata:    map[string]interface{}{"fields": changed},
			UserID:      author,
		}
	}
	if err := s.trackingRepo.Save(tracking, log); err != nil {
		return nil, fmt.Errorf("failed to save tracking: %w", err)
	}
	return &TrackingView{OrderTracking: tracking, Stages: tracking.Stages()}, nil
}

func sameDate(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(*b)
}

func (s *orderService) GetLogs(orderID uuid.UUID) ([]models.OrderLog, error) {
	if _, err := s.orderRepo.GetByID(orderID); err != nil {
		return nil, notFound("order", err)
	}
	return s.auditRepo.GetLogs(orderID)
}
