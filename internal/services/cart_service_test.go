package services

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
)

func TestCartService_EmptyCart(t *testing.T) {
	f := newFixture(t)

	view, err := f.cart.GetCart(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("GetCart() error = %v", err)
	}
	if view.CartID != nil || len(view.Items) != 0 {
		t.Errorf("expected empty cart, got %+v", view)
	}
	assertDecimal(t, "TotalMonthlyHT", view.TotalMonthlyHT, "0")
}

func TestCartService_AddAndPrice(t *testing.T) {
	f := newFixture(t)
	ecg := f.product(t, productDef{slug: "ecg", purchase: "1000", margin: "20", leaser: &f.leaser.ID})
	bed := f.product(t, productDef{slug: "bed", purchase: "1000", margin: "20", leaser: &f.leaser.ID})
	draft := f.product(t, productDef{slug: "draft", leaser: &f.leaser.ID})

	if _, err := f.cart.AddItem("user-1", ecg.ID, 2, 0); err != nil {
		t.Fatalf("AddItem(ecg) error = %v", err)
	}
	if _, err := f.cart.AddItem("user-1", bed.ID, 1, 24); err != nil {
		t.Fatalf("AddItem(bed) error = %v", err)
	}
	if _, err := f.cart.AddItem("user-1", draft.ID, 1, 36); err != nil {
		t.Fatalf("AddItem(draft) error = %v", err)
	}

	view, err := f.cart.GetCart(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("GetCart() error = %v", err)
	}
	if len(view.Items) != 3 {
		t.Fatalf("got %d lines, want 3", len(view.Items))
	}

	first := view.Items[0]
	if first.DurationMonths != DefaultDurationMonths {
		t.Errorf("default duration = %d, want %d", first.DurationMonths, DefaultDurationMonths)
	}
	assertDecimal(t, "ecg UnitMonthlyHT", first.UnitMonthlyHT, "42")
	assertDecimal(t, "ecg MonthlyHT", first.MonthlyHT, "84")

	// 24 months only matches the generic 4.0 row.
	assertDecimal(t, "bed MonthlyHT", view.Items[1].MonthlyHT, "48")

	if view.Items[2].Priced {
		t.Error("product without pricing must not be priced")
	}
	assertDecimal(t, "TotalMonthlyHT", view.TotalMonthlyHT, "132")
	assertDecimal(t, "TotalMonthlyTTC", view.TotalMonthlyTTC, "158.4")
}

func TestCartService_AddItemValidation(t *testing.T) {
	f := newFixture(t)
	ecg := f.product(t, productDef{slug: "ecg", purchase: "1000", margin: "20", leaser: &f.leaser.ID})

	tests := []struct {
		name      string
		user      string
		product   uuid.UUID
		quantity  int
		duration  int
		wantError error
	}{
		{"missing user", "", ecg.ID, 1, 36, ErrInvalidInput},
		{"negative quantity", "user-1", ecg.ID, -1, 36, ErrInvalidInput},
		{"quantity above maximum", "user-1", ecg.ID, MaxQuantity + 1, 36, ErrInvalidInput},
		{"unsupported duration", "user-1", ecg.ID, 1, 13, ErrInvalidInput},
		{"unknown product", "user-1", uuid.New(), 1, 36, ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.cart.AddItem(tt.user, tt.product, tt.quantity, tt.duration)
			if !errors.Is(err, tt.wantError) {
				t.Errorf("error = %v, want %v", err, tt.wantError)
			}
		})
	}
}

func TestCartService_MaxQuantity(t *testing.T) {
	f := newFixture(t)
	ecg := f.product(t, productDef{slug: "ecg", purchase: "1000", margin: "20", leaser: &f.leaser.ID})

	item, err := f.cart.AddItem("user-1", ecg.ID, MaxQuantity, 36)
	if err != nil {
		t.Fatalf("AddItem(MaxQuantity) error = %v", err)
	}
	if item.Quantity != MaxQuantity {
		t.Errorf("Quantity = %d, want %d", item.Quantity, MaxQuantity)
	}
}

func TestCartService_UpdateAndRemove(t *testing.T) {
	f := newFixture(t)
	ecg := f.product(t, productDef{slug: "ecg", purchase: "1000", margin: "20", leaser: &f.leaser.ID})

	item, err := f.cart.AddItem("user-1", ecg.ID, 1, 36)
	if err != nil {
		t.Fatalf("AddItem() error = %v", err)
	}

	qty, months := 3, 48
	updated, err := f.cart.UpdateItem("user-1", item.ID, &qty, &months)
	if err != nil {
		t.Fatalf("UpdateItem() error = %v", err)
	}
	if updated.Quantity != 3 || updated.DurationMonths != 48 {
		t.Errorf("UpdateItem() = %+v", updated)
	}

	zero := 0
	if _, err := f.cart.UpdateItem("user-1", item.ID, &zero, nil); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("zero quantity error = %v, want ErrInvalidInput", err)
	}
	tooMany := MaxQuantity + 1
	if _, err := f.cart.UpdateItem("user-1", item.ID, &tooMany, nil); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("quantity above maximum error = %v, want ErrInvalidInput", err)
	}

	// Another user cannot touch the item.
	if err := f.cart.RemoveItem("user-2", item.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("foreign remove error = %v, want ErrNotFound", err)
	}

	if err := f.cart.RemoveItem("user-1", item.ID); err != nil {
		t.Fatalf("RemoveItem() error = %v", err)
	}
	view, err := f.cart.GetCart(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("GetCart() error = %v", err)
	}
	if len(view.Items) != 0 {
		t.Errorf("cart still has %d items", len(view.Items))
	}
}
