package services

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

func TestLeaserService_CreateLeaser(t *testing.T) {
	f := newFixture(t)

	leaser, err := f.leasers.CreateLeaser("  BNP Leasing ")
	if err != nil {
		t.Fatalf("CreateLeaser() error = %v", err)
	}
	if leaser.Name != "BNP Leasing" {
		t.Errorf("Name = %q, want trimmed", leaser.Name)
	}
	if _, err := f.leasers.CreateLeaser(" "); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("blank name error = %v, want ErrInvalidInput", err)
	}

	leasers, err := f.leasers.ListLeasers()
	if err != nil {
		t.Fatalf("ListLeasers() error = %v", err)
	}
	if len(leasers) != 2 {
		t.Errorf("got %d leasers, want 2", len(leasers))
	}
}

func TestLeaserService_ReplaceCoefficients(t *testing.T) {
	f := newFixture(t)
	p := f.product(t, productDef{slug: "ecg", purchase: "1000", margin: "20", leaser: &f.leaser.ID})
	months := 36

	rows, err := f.leasers.ReplaceCoefficients(context.Background(), f.leaser.ID, []CoefficientInput{
		{DurationMonths: &months, MinAmount: d("0"), Coefficient: d("2.9")},
	})
	if err != nil {
		t.Fatalf("ReplaceCoefficients() error = %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("got %d rows, want 1", len(rows))
	}

	quote, err := f.pricing.ProductPrice(context.Background(), p.ID, 36)
	if err != nil {
		t.Fatalf("ProductPrice() error = %v", err)
	}
	assertDecimal(t, "Coefficient", quote.Coefficient, "0.029")
}

func TestLeaserService_ReplaceCoefficientsValidation(t *testing.T) {
	f := newFixture(t)
	months := 36
	bad := 37

	tests := []struct {
		name   string
		leaser uuid.UUID
		rows   []CoefficientInput
		want   error
	}{
		{"unknown leaser", uuid.New(), nil, ErrNotFound},
		{"zero coefficient", f.leaser.ID, []CoefficientInput{{MinAmount: d("0"), Coefficient: d("0")}}, ErrInvalidInput},
		{"inverted bracket", f.leaser.ID, []CoefficientInput{{MinAmount: d("500"), MaxAmount: decimal.NewNullDecimal(d("100")), Coefficient: d("3")}}, ErrInvalidInput},
		{"unsupported duration", f.leaser.ID, []CoefficientInput{
			{DurationMonths: &months, MinAmount: d("0"), Coefficient: d("3")},
			{DurationMonths: &bad, MinAmount: d("0"), Coefficient: d("3")},
		}, ErrInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.leasers.ReplaceCoefficients(context.Background(), tt.leaser, tt.rows)
			if !errors.Is(err, tt.want) {
				t.Errorf("error = %v, want %v", err, tt.want)
			}
		})
	}

	// Rejected tables leave the stored one untouched.
	rows, err := f.leasers.GetCoefficients(f.leaser.ID)
	if err != nil {
		t.Fatalf("GetCoefficients() error = %v", err)
	}
	if len(rows) != 3 {
		t.Errorf("got %d rows, want the 3 seeded rows", len(rows))
	}
}

func TestLeaserService_ReplaceCoefficientsRowNumber(t *testing.T) {
	f := newFixture(t)

	_, err := f.leasers.ReplaceCoefficients(context.Background(), f.leaser.ID, []CoefficientInput{
		{MinAmount: d("0"), Coefficient: d("3")},
		{MinAmount: d("0"), Coefficient: d("-3")},
	})
	if err == nil || !strings.HasPrefix(err.Error(), "row 2:") {
		t.Errorf("error = %v, want it to name row 2", err)
	}
}

func TestLeaserService_ExportCoefficients(t *testing.T) {
	f := newFixture(t)

	filename, content, err := f.leasers.ExportCoefficients(f.leaser.ID)
	if err != nil {
		t.Fatalf("ExportCoefficients() error = %v", err)
	}
	if filename != "coefficients-grenke.xlsx" {
		t.Errorf("filename = %q", filename)
	}

	file, err := excelize.OpenReader(bytes.NewReader(content))
	if err != nil {
		t.Fatalf("failed to open export: %v", err)
	}
	defer file.Close()

	rows, err := file.GetRows(file.GetSheetName(0))
	if err != nil {
		t.Fatalf("GetRows() error = %v", err)
	}
	// title, blank, header, then one line per bracket
	if len(rows) != 6 {
		t.Errorf("got %d sheet rows, want 6", len(rows))
	}

	if _, _, err := f.leasers.ExportCoefficients(uuid.New()); !errors.Is(err, ErrNotFound) {
		t.Errorf("unknown leaser error = %v, want ErrNotFound", err)
	}
}
