package heuristic

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fhuonder/belegscan/internal/application/port"
	"github.com/fhuonder/belegscan/internal/domain/entity"
)

func TestExtractDateFromFilename(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		expected *time.Time
	}{
		{"iso with dashes", "invoice_2024-03-15.pdf", datePtr(2024, 3, 15)},
		{"iso with underscores", "scan_2024_03_15.png", datePtr(2024, 3, 15)},
		{"european with dots", "rechnung_15.03.2024.pdf", datePtr(2024, 3, 15)},
		{"european with dashes", "beleg_15-03-2024.jpg", datePtr(2024, 3, 15)},
		{"compact", "stmt_20240315.pdf", datePtr(2024, 3, 15)},
		{"iso wins over compact", "2024-03-15_20191231.pdf", datePtr(2024, 3, 15)},
		{"implausible month rejected", "doc_2024-13-15.pdf", nil},
		{"implausible compact rejected", "doc_99999999.pdf", nil},
		{"no date", "receipt.pdf", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractDateFromFilename(tt.filename)
			if tt.expected == nil {
				assert.Nil(t, got)
			} else {
				require.NotNil(t, got)
				assert.Equal(t, *tt.expected, *got)
			}
		})
	}
}

func TestExtractAmountFromFilename(t *testing.T) {
	tests := []struct {
		name       string
		filename   string
		wantAmount *float64
		wantCur    string
	}{
		{"code before number", "uber_CHF45.90.pdf", amt(45.90), "CHF"},
		{"code after number", "dinner_32.50EUR.jpg", amt(32.50), "EUR"},
		{"euro symbol", "hotel_€120.00.pdf", amt(120.00), "EUR"},
		{"dollar symbol", "aws_$13.37.pdf", amt(13.37), "USD"},
		{"comma decimal", "coop_CHF12,45.png", amt(12.45), "CHF"},
		{"bare decimal defaults to CHF", "lunch_18.50.jpg", amt(18.50), "CHF"},
		{"date not misread as amount", "rechnung_15.03.2024.pdf", nil, ""},
		{"zero rejected", "test_CHF0.00.pdf", nil, ""},
		{"huge amount rejected", "test_CHF9999999.pdf", nil, ""},
		{"no amount", "statement.pdf", nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotAmount, gotCur := ExtractAmountFromFilename(tt.filename)
			if tt.wantAmount == nil {
				assert.Nil(t, gotAmount)
				assert.Nil(t, gotCur)
			} else {
				require.NotNil(t, gotAmount)
				require.NotNil(t, gotCur)
				assert.Equal(t, *tt.wantAmount, *gotAmount)
				assert.Equal(t, tt.wantCur, *gotCur)
			}
		})
	}
}

func TestExtractVendorFromFilename(t *testing.T) {
	match := ExtractVendorFromFilename("Invoice_UBER_ride.pdf")
	require.NotNil(t, match)
	assert.Equal(t, "Uber", match.Issuer)
	assert.Equal(t, entity.DocumentTypeReceipt, match.Type)
	assert.Equal(t, entity.CategoryTravel, match.Category)

	assert.Nil(t, ExtractVendorFromFilename("some_random_scan.pdf"))
}

func TestExtractDocumentNumberFromFilename(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		expected *string
	}{
		{"inv prefix", "INV-12345_march.pdf", strP("INV-12345")},
		{"inv with underscore normalized", "inv_98765.pdf", strP("INV-98765")},
		{"hash number", "receipt_#445566.jpg", strP("445566")},
		{"digit run", "scan_20240001.pdf", strP("20240001")},
		{"inv wins over digit run", "INV-123456_from_789012.pdf", strP("INV-123456")},
		{"nothing", "receipt.jpg", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractDocumentNumberFromFilename(tt.filename)
			if tt.expected == nil {
				assert.Nil(t, got)
			} else {
				require.NotNil(t, got)
				assert.Equal(t, *tt.expected, *got)
			}
		})
	}
}

func TestHeuristicsAreDeterministic(t *testing.T) {
	name := "invoice_UBER_2024-03-15_CHF45.90.pdf"
	for i := 0; i < 3; i++ {
		assert.Equal(t, ExtractDateFromFilename(name), ExtractDateFromFilename(name))
		a1, c1 := ExtractAmountFromFilename(name)
		a2, c2 := ExtractAmountFromFilename(name)
		assert.Equal(t, *a1, *a2)
		assert.Equal(t, *c1, *c2)
		assert.Equal(t, ExtractVendorFromFilename(name), ExtractVendorFromFilename(name))
		assert.Equal(t, ExtractDocumentNumberFromFilename(name), ExtractDocumentNumberFromFilename(name))
	}
}

func TestFallbackUberScenario(t *testing.T) {
	f := NewFallback(zap.NewNop())

	result, err := f.Extract(context.Background(), port.ExtractionRequest{
		FileName: "invoice_UBER_2024-03-15_CHF45.90.pdf",
		FileType: "application/pdf",
	})
	require.NoError(t, err)

	// The vendor table maps uber to a receipt, which takes precedence over
	// the "invoice" keyword in the filename.
	assert.Equal(t, entity.DocumentTypeReceipt, result.DocumentType)
	assert.Equal(t, "Uber", *result.Data.Issuer)
	assert.Equal(t, entity.CategoryTravel, *result.Data.ExpenseCategory)
	assert.Equal(t, time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC), *result.Data.DocumentDate)
	assert.Equal(t, 45.90, *result.Data.TotalAmount)
	assert.Equal(t, "CHF", *result.Data.OriginalCurrency)
}

func TestFallbackVATEstimate(t *testing.T) {
	f := NewFallback(zap.NewNop())

	result, err := f.Extract(context.Background(), port.ExtractionRequest{
		FileName: "lunch_CHF100.00.jpg",
		FileType: "image/jpeg",
	})
	require.NoError(t, err)

	require.NotNil(t, result.Data.VATAmount)
	require.NotNil(t, result.Data.NetAmount)
	assert.Equal(t, 7.70, *result.Data.VATAmount, "VAT estimated at 7.7%%")
	assert.Equal(t, 92.30, *result.Data.NetAmount)
}

func TestFallbackNoVATWithoutTotal(t *testing.T) {
	f := NewFallback(zap.NewNop())

	result, err := f.Extract(context.Background(), port.ExtractionRequest{
		FileName: "mystery_scan.pdf",
		FileType: "application/pdf",
	})
	require.NoError(t, err)

	assert.Nil(t, result.Data.TotalAmount)
	assert.Nil(t, result.Data.VATAmount)
	assert.Nil(t, result.Data.NetAmount)
}

func TestFallbackDateDefaultsToToday(t *testing.T) {
	fixed := time.Date(2024, 6, 1, 9, 30, 0, 0, time.UTC)
	f := NewFallback(zap.NewNop(), WithClock(func() time.Time { return fixed }))

	result, err := f.Extract(context.Background(), port.ExtractionRequest{
		FileName: "undated_scan.jpg",
		FileType: "image/jpeg",
	})
	require.NoError(t, err)

	require.NotNil(t, result.Data.DocumentDate)
	assert.Equal(t, time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC), *result.Data.DocumentDate)
}

func TestFallbackCustomVendorRuleWins(t *testing.T) {
	f := NewFallback(zap.NewNop(), WithVendorRules([]VendorRule{
		{Substring: "acme", Issuer: "ACME Treuhand", Type: entity.DocumentTypeInvoice, Category: entity.CategoryProfessionalServices},
	}))

	result, err := f.Extract(context.Background(), port.ExtractionRequest{
		FileName: "acme_2024-01-10.pdf",
		FileType: "application/pdf",
	})
	require.NoError(t, err)

	assert.Equal(t, entity.DocumentTypeInvoice, result.DocumentType)
	assert.Equal(t, "ACME Treuhand", *result.Data.Issuer)
	assert.Equal(t, entity.CategoryProfessionalServices, *result.Data.ExpenseCategory)
}

func TestFallbackKeywordHintsWithoutVendor(t *testing.T) {
	f := NewFallback(zap.NewNop())

	result, err := f.Extract(context.Background(), port.ExtractionRequest{
		FileName: "restaurant_bill_2024-02-01.pdf",
		FileType: "application/pdf",
	})
	require.NoError(t, err)

	assert.Equal(t, entity.DocumentTypeInvoice, result.DocumentType)
	assert.Equal(t, entity.CategoryMeals, *result.Data.ExpenseCategory)
	assert.Nil(t, result.Data.Issuer, "no issuer without a vendor match")
}

func datePtr(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func amt(v float64) *float64 { return &v }

func strP(s string) *string { return &s }
