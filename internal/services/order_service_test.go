package services

import (
	"context"
	"errors"
	"testing"

	"leasing_market/internal/models"
	"leasing_market/internal/pricing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// placeOrder fills user-1's cart with two ECGs (selling 1200 each) and one
// bed (selling 5000). The 7400 total falls in the 3.2 bracket.
func placeOrder(t *testing.T, f *fixture) *models.Order {
	t.Helper()
	ecg := f.product(t, productDef{slug: "ecg", purchase: "1000", margin: "20", leaser: &f.leaser.ID})
	bed := f.product(t, productDef{slug: "bed", purchase: "4000", margin: "25", leaser: &f.leaser.ID})
	if _, err := f.cart.AddItem("user-1", ecg.ID, 2, 36); err != nil {
		t.Fatalf("AddItem(ecg) error = %v", err)
	}
	if _, err := f.cart.AddItem("user-1", bed.ID, 1, 36); err != nil {
		t.Fatalf("AddItem(bed) error = %v", err)
	}

	order, err := f.orders.Checkout(context.Background(), CheckoutRequest{
		UserID:         "user-1",
		OrganizationID: "org-1",
		DurationMonths: 36,
		Delivery:       &DeliveryAddress{Name: "Cabinet Martin", Address: "1 rue de la Paix", City: "Paris", PostalCode: "75002"},
		Documents:      &DocumentURLs{IdentityCardFrontURL: "https://files/id-front.png"},
	})
	if err != nil {
		t.Fatalf("Checkout() error = %v", err)
	}
	return order
}

func TestOrderService_Checkout(t *testing.T) {
	f := newFixture(t)
	order := placeOrder(t, f)

	if len(order.Items) != 3 {
		t.Fatalf("got %d order items, want one per unit (3)", len(order.Items))
	}
	for _, item := range order.Items {
		if item.Quantity != 1 {
			t.Errorf("item quantity = %d, want 1", item.Quantity)
		}
		assertDecimal(t, "CoefficientUsed", item.CoefficientUsed, "0.032")
	}
	assertDecimal(t, "ecg CalculatedPriceHT", order.Items[0].CalculatedPriceHT, "38.4")
	assertDecimal(t, "bed CalculatedPriceHT", order.Items[2].CalculatedPriceHT, "160")
	// (38.4 * 2 + 160) * 36
	assertDecimal(t, "TotalAmountHT", order.TotalAmountHT, "8524.8")
	if order.LeaserID == nil || *order.LeaserID != f.leaser.ID {
		t.Errorf("LeaserID = %v, want %s", order.LeaserID, f.leaser.ID)
	}
	if order.DeliveryCountry != "France" {
		t.Errorf("DeliveryCountry = %q, want France", order.DeliveryCountry)
	}

	view, err := f.cart.GetCart(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("GetCart() error = %v", err)
	}
	if len(view.Items) != 0 {
		t.Errorf("cart not emptied, %d items left", len(view.Items))
	}

	tracking, err := f.orders.GetTracking(order.ID)
	if err != nil {
		t.Fatalf("GetTracking() error = %v", err)
	}
	if tracking.FinancingStatus != "pending" || tracking.IdentityCardFrontURL != "https://files/id-front.png" {
		t.Errorf("tracking = %+v", tracking.OrderTracking)
	}

	logs, err := f.orders.GetLogs(order.ID)
	if err != nil {
		t.Fatalf("GetLogs() error = %v", err)
	}
	if len(logs) != 1 || logs[0].ActionType != models.LogCreated {
		t.Errorf("logs = %+v, want one creation entry", logs)
	}
}

// Four full lines give more order item rows than one INSERT can bind.
func TestOrderService_CheckoutLargeOrder(t *testing.T) {
	f := newFixture(t)
	ecg := f.product(t, productDef{slug: "ecg", purchase: "1000", margin: "20", leaser: &f.leaser.ID})
	for i := 0; i < 4; i++ {
		if _, err := f.cart.AddItem("user-1", ecg.ID, MaxQuantity, 36); err != nil {
			t.Fatalf("AddItem() error = %v", err)
		}
	}

	order, err := f.orders.Checkout(context.Background(), CheckoutRequest{UserID: "user-1", OrganizationID: "org-1"})
	if err != nil {
		t.Fatalf("Checkout() error = %v", err)
	}
	if len(order.Items) != 4*MaxQuantity {
		t.Errorf("got %d order items, want %d", len(order.Items), 4*MaxQuantity)
	}

	var stored int64
	if err := f.db.Model(&models.OrderItem{}).Where("order_id = ?", order.ID).Count(&stored).Error; err != nil {
		t.Fatalf("count order items: %v", err)
	}
	if stored != 4*MaxQuantity {
		t.Errorf("stored %d order items, want %d", stored, 4*MaxQuantity)
	}
	// 4,800,000 selling total is in the 3.0 bracket: 1200 * 0.03 = 36 a month.
	assertDecimal(t, "CalculatedPriceHT", order.Items[0].CalculatedPriceHT, "36")
	assertDecimal(t, "TotalAmountHT", order.TotalAmountHT, "5184000")
}

func TestOrderService_CheckoutErrors(t *testing.T) {
	f := newFixture(t)
	unpriced := f.product(t, productDef{slug: "unpriced", leaser: &f.leaser.ID})
	orphan := f.product(t, productDef{slug: "orphan", purchase: "100", margin: "10"})
	if _, err := f.cart.AddItem("user-unpriced", unpriced.ID, 1, 36); err != nil {
		t.Fatalf("AddItem() error = %v", err)
	}
	if _, err := f.cart.AddItem("user-orphan", orphan.ID, 1, 36); err != nil {
		t.Fatalf("AddItem() error = %v", err)
	}

	tests := []struct {
		name string
		req  CheckoutRequest
		want error
	}{
		{"no organization", CheckoutRequest{UserID: "user-1"}, ErrInvalidInput},
		{"no cart", CheckoutRequest{UserID: "user-1", OrganizationID: "org-1"}, ErrEmptyCart},
		{"bad duration", CheckoutRequest{UserID: "user-unpriced", OrganizationID: "org-1", DurationMonths: 5}, ErrInvalidInput},
		{"unpriced product", CheckoutRequest{UserID: "user-unpriced", OrganizationID: "org-1"}, ErrMissingPricing},
		{"no leaser", CheckoutRequest{UserID: "user-orphan", OrganizationID: "org-1"}, ErrNoLeaser},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.orders.Checkout(context.Background(), tt.req)
			if !errors.Is(err, tt.want) {
				t.Errorf("error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestOrderService_GetOrderSummary(t *testing.T) {
	f := newFixture(t)
	order := placeOrder(t, f)

	detail, err := f.orders.GetOrder(order.ID)
	if err != nil {
		t.Fatalf("GetOrder() error = %v", err)
	}
	if detail.Tracking == nil || len(detail.Tracking.Stages) != 7 {
		t.Fatalf("expected tracking with 7 stages, got %+v", detail.Tracking)
	}

	summary := detail.Summary
	for _, p := range []pricing.Price{summary.PurchasePriceHT, summary.CAMarlonHT, summary.MonthlyTTC} {
		if pricing.IsOverride(p) {
			t.Errorf("unexpected override %+v", p)
		}
	}
	assertDecimal(t, "PurchasePriceHT", summary.PurchasePriceHT.Amount(), "6000")
	assertDecimal(t, "CAMarlonHT", summary.CAMarlonHT.Amount(), "1400")
	assertDecimal(t, "MonthlyTTC", summary.MonthlyTTC.Amount(), "284.16")

	if _, err := f.orders.GetOrder(uuid.New()); !errors.Is(err, ErrNotFound) {
		t.Errorf("unknown order error = %v, want ErrNotFound", err)
	}
}

func TestOrderService_OverridePrices(t *testing.T) {
	f := newFixture(t)
	order := placeOrder(t, f)

	value := d("300")
	summary, err := f.orders.OverridePrices(order.ID, OverrideRequest{MonthlyTTC: &value, Reason: "negotiated", Author: "alice"})
	if err != nil {
		t.Fatalf("OverridePrices() error = %v", err)
	}
	override, ok := summary.MonthlyTTC.(pricing.ManualOverride)
	if !ok {
		t.Fatalf("MonthlyTTC = %T, want ManualOverride", summary.MonthlyTTC)
	}
	assertDecimal(t, "override", override.Value, "300")
	if override.Reason != "negotiated" || override.Author != "alice" {
		t.Errorf("override = %+v", override)
	}
	if pricing.IsOverride(summary.PurchasePriceHT) {
		t.Error("PurchasePriceHT should stay computed")
	}

	again := d("310")
	summary, err = f.orders.OverridePrices(order.ID, OverrideRequest{MonthlyTTC: &again, Reason: "second round", Author: "bob"})
	if err != nil {
		t.Fatalf("second OverridePrices() error = %v", err)
	}
	assertDecimal(t, "latest override", summary.MonthlyTTC.Amount(), "310")

	logs, err := f.orders.GetLogs(order.ID)
	if err != nil {
		t.Fatalf("GetLogs() error = %v", err)
	}
	if len(logs) != 3 {
		t.Fatalf("got %d logs, want 3", len(logs))
	}
	latest := logs[0]
	if latest.ActionType != models.LogUpdated || latest.UserID != "bob" {
		t.Errorf("latest log = %+v", latest)
	}
	changes, _ := latest.Metadata["price_overrides"].(map[string]interface{})
	change, _ := changes["monthly_ttc"].(map[string]interface{})
	if change["old"] != "300" || change["new"] != "310" {
		t.Errorf("log metadata = %v", latest.Metadata)
	}
}

func TestOrderService_OverridePricesValidation(t *testing.T) {
	f := newFixture(t)
	order := placeOrder(t, f)
	negative := d("-1")
	positive := d("10")

	tests := []struct {
		name    string
		orderID uuid.UUID
		req     OverrideRequest
		want    error
	}{
		{"missing reason", order.ID, OverrideRequest{MonthlyTTC: &positive, Reason: "  ", Author: "alice"}, ErrInvalidInput},
		{"missing author", order.ID, OverrideRequest{MonthlyTTC: &positive, Reason: "x"}, ErrInvalidInput},
		{"negative value", order.ID, OverrideRequest{CAMarlonHT: &negative, Reason: "x", Author: "alice"}, ErrInvalidInput},
		{"nothing to override", order.ID, OverrideRequest{Reason: "x", Author: "alice"}, ErrInvalidInput},
		{"unknown order", uuid.New(), OverrideRequest{MonthlyTTC: &positive, Reason: "x", Author: "alice"}, ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.orders.OverridePrices(tt.orderID, tt.req)
			if !errors.Is(err, tt.want) {
				t.Errorf("error = %v, want %v", err, tt.want)
			}
		})
	}

	var count int64
	f.db.Model(&models.OrderPriceOverride{}).Count(&count)
	if count != 0 {
		t.Errorf("rejected overrides were stored: %d rows", count)
	}
}

func strPtr(s string) *string { return &s }

func intPtr(n int) *int { return &n }

func TestOrderService_UpdateOrder(t *testing.T) {
	f := newFixture(t)
	order := placeOrder(t, f)

	// The leaser has no 48-month rows, so the generic 4.0 row applies:
	// ECG 1200 * 0.04 = 48, bed 5000 * 0.04 = 200.
	detail, err := f.orders.UpdateOrder(context.Background(), order.ID, OrderUpdate{
		Status:         strPtr(string(models.OrderSentToLeaser)),
		DurationMonths: intPtr(48),
	}, "alice")
	if err != nil {
		t.Fatalf("UpdateOrder() error = %v", err)
	}
	if detail.Order.Status != string(models.OrderSentToLeaser) || detail.Order.LeasingDurationMonths != 48 {
		t.Errorf("order = %s over %d months", detail.Order.Status, detail.Order.LeasingDurationMonths)
	}
	// (48 * 2 + 200) * 48
	assertDecimal(t, "TotalAmountHT", detail.Order.TotalAmountHT, "14208")
	for _, item := range detail.Order.Items {
		assertDecimal(t, "CoefficientUsed", item.CoefficientUsed, "0.04")
	}
	if detail.Tracking == nil || detail.Tracking.FinancingStatus != "validated" {
		t.Errorf("tracking not synced with status: %+v", detail.Tracking)
	}

	logs, err := f.orders.GetLogs(order.ID)
	if err != nil {
		t.Fatalf("GetLogs() error = %v", err)
	}
	// created, status_changed, duration and reprice
	if len(logs) != 4 {
		t.Fatalf("got %d logs, want 4", len(logs))
	}
	var statusLogs int
	for _, l := range logs {
		if l.ActionType == models.LogStatusChanged {
			statusLogs++
			if l.UserID != "alice" || l.Metadata["to"] != string(models.OrderSentToLeaser) {
				t.Errorf("status log = %+v", l)
			}
		}
	}
	if statusLogs != 1 {
		t.Errorf("got %d status_changed logs, want 1", statusLogs)
	}
}

func TestOrderService_UpdateOrderClearsLeaser(t *testing.T) {
	f := newFixture(t)
	order := placeOrder(t, f)

	detail, err := f.orders.UpdateOrder(context.Background(), order.ID, OrderUpdate{LeaserID: strPtr("")}, "alice")
	if err != nil {
		t.Fatalf("UpdateOrder() error = %v", err)
	}
	if detail.Order.LeaserID != nil {
		t.Errorf("LeaserID = %v, want cleared", detail.Order.LeaserID)
	}
	// Without a leaser the checkout prices stay.
	assertDecimal(t, "TotalAmountHT", detail.Order.TotalAmountHT, "8524.8")
	assertDecimal(t, "CoefficientUsed", detail.Order.Items[0].CoefficientUsed, "0.032")
}

func TestOrderService_UpdateOrderWithoutChanges(t *testing.T) {
	f := newFixture(t)
	order := placeOrder(t, f)

	if _, err := f.orders.UpdateOrder(context.Background(), order.ID, OrderUpdate{}, "alice"); err != nil {
		t.Fatalf("UpdateOrder() error = %v", err)
	}
	logs, err := f.orders.GetLogs(order.ID)
	if err != nil {
		t.Fatalf("GetLogs() error = %v", err)
	}
	if len(logs) != 2 || logs[0].ActionType != models.LogUpdated {
		t.Errorf("logs = %+v, want a plain update entry on top of creation", logs)
	}
}

func TestOrderService_UpdateOrderValidation(t *testing.T) {
	f := newFixture(t)
	order := placeOrder(t, f)

	tests := []struct {
		name   string
		id     uuid.UUID
		update OrderUpdate
		want   error
	}{
		{"unknown order", uuid.New(), OrderUpdate{}, ErrNotFound},
		{"unknown status", order.ID, OrderUpdate{Status: strPtr("archived")}, ErrInvalidInput},
		{"malformed leaser", order.ID, OrderUpdate{LeaserID: strPtr("grenke")}, ErrInvalidInput},
		{"unknown leaser", order.ID, OrderUpdate{LeaserID: strPtr(uuid.NewString())}, ErrNotFound},
		{"unsupported duration", order.ID, OrderUpdate{DurationMonths: intPtr(13)}, ErrInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.orders.UpdateOrder(context.Background(), tt.id, tt.update, "alice")
			if !errors.Is(err, tt.want) {
				t.Errorf("error = %v, want %v", err, tt.want)
			}
		})
	}

	logs, err := f.orders.GetLogs(order.ID)
	if err != nil {
		t.Fatalf("GetLogs() error = %v", err)
	}
	if len(logs) != 1 {
		t.Errorf("rejected updates wrote %d extra logs", len(logs)-1)
	}
}

func TestOrderService_UpdateTracking(t *testing.T) {
	f := newFixture(t)
	order := placeOrder(t, f)

	view, err := f.orders.UpdateTracking(order.ID, TrackingUpdate{
		FinancingStatus: strPtr("validated"),
		ContractNumber:  strPtr("CT-2024-001"),
		ContractEndDate: strPtr("2029-10-01"),
	}, "alice")
	if err != nil {
		t.Fatalf("UpdateTracking() error = %v", err)
	}
	if view.FinancingStatus != "validated" || view.ContractNumber != "CT-2024-001" {
		t.Errorf("tracking = %+v", view.OrderTracking)
	}
	if view.ContractEndDate == nil || view.ContractEndDate.Year() != 2029 {
		t.Errorf("ContractEndDate = %v", view.ContractEndDate)
	}
	stages := make(map[models.TrackingStage]models.StageProgress)
	for _, s := range view.Stages {
		stages[s.Stage] = s
	}
	if !stages[models.StageFinancing].Completed {
		t.Error("financing stage should be completed")
	}
	if !stages[models.StageEnd].Completed {
		t.Error("end stage should be completed")
	}

	// Same values again: nothing changes, nothing is logged.
	if _, err := f.orders.UpdateTracking(order.ID, TrackingUpdate{FinancingStatus: strPtr("validated")}, "alice"); err != nil {
		t.Fatalf("UpdateTracking() error = %v", err)
	}
	logs, err := f.orders.GetLogs(order.ID)
	if err != nil {
		t.Fatalf("GetLogs() error = %v", err)
	}
	if len(logs) != 2 || logs[0].ActionType != models.LogTrackingUpdated {
		t.Errorf("logs = %+v, want creation and one tracking update", logs)
	}

	invalidUpdates := []TrackingUpdate{
		{FinancingStatus: strPtr("approved")},
		{DeliveryStatus: strPtr("lost")},
		{ContractStatus: strPtr("done")},
		{ContractEndDate: strPtr("next year")},
	}
	for _, u := range invalidUpdates {
		if _, err := f.orders.UpdateTracking(order.ID, u, "alice"); !errors.Is(err, ErrInvalidInput) {
			t.Errorf("UpdateTracking(%+v) error = %v, want ErrInvalidInput", u, err)
		}
	}
}

func TestOrderService_ListOrders(t *testing.T) {
	f := newFixture(t)
	placeOrder(t, f)

	tests := []struct {
		name  string
		list  func() ([]models.Order, error)
		count int
	}{
		{"all", func() ([]models.Order, error) { return f.orders.ListOrders("") }, 1},
		{"pending", func() ([]models.Order, error) { return f.orders.ListOrders("pending") }, 1},
		{"completed", func() ([]models.Order, error) { return f.orders.ListOrders("completed") }, 0},
		{"organization", func() ([]models.Order, error) { return f.orders.ListOrganizationOrders("org-1") }, 1},
		{"other organization", func() ([]models.Order, error) { return f.orders.ListOrganizationOrders("org-2") }, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			orders, err := tt.list()
			if err != nil {
				t.Fatalf("error = %v", err)
			}
			if len(orders) != tt.count {
				t.Errorf("got %d orders, want %d", len(orders), tt.count)
			}
		})
	}
}

func TestComputedSummary_ZeroDuration(t *testing.T) {
	order := &models.Order{TotalAmountHT: d("100")}
	_, _, monthly := computedSummary(order, nil)
	if !monthly.Equal(decimal.Zero) {
		t.Errorf("monthly = %s, want 0", monthly)
	}
}
