package extraction

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fhuonder/belegscan/internal/application/port"
	"github.com/fhuonder/belegscan/internal/domain/entity"
)

// wireResponse mirrors the fixed JSON schema of the analysis backend.
// All extractedData fields are nullable on the wire.
type wireResponse struct {
	DocumentType  string        `json:"documentType"`
	ExtractedData wireExtracted `json:"extractedData"`
}

type wireExtracted struct {
	DocumentDate     *string  `json:"documentDate"`
	Issuer           *string  `json:"issuer"`
	DocumentNumber   *string  `json:"documentNumber"`
	TotalAmount      *float64 `json:"totalAmount"`
	OriginalCurrency *string  `json:"originalCurrency"`
	VATAmount        *float64 `json:"vatAmount"`
	NetAmount        *float64 `json:"netAmount"`
	ExpenseCategory  *string  `json:"expenseCategory"`
}

// parseResponse validates the raw model output against the schema and maps
// it into a typed result. The raw untyped payload never travels further into
// the pipeline: anything non-JSON or schema-violating is reported as
// ErrMalformedResponse, and individually unparsable optional fields are
// dropped to null rather than passed through.
func parseResponse(content string) (*port.ExtractionResult, error) {
	var wire wireResponse
	if err := json.Unmarshal([]byte(content), &wire); err != nil {
		return nil, errors.Join(ErrMalformedResponse, fmt.Errorf("invalid JSON: %w", err))
	}

	docType := entity.DocumentType(strings.ToLower(strings.TrimSpace(wire.DocumentType)))
	if !docType.IsValid() {
		return nil, errors.Join(ErrMalformedResponse,
			fmt.Errorf("unexpected document type %q", wire.DocumentType))
	}

	data := entity.ExtractedData{
		Issuer:         cleanString(wire.ExtractedData.Issuer),
		DocumentNumber: cleanString(wire.ExtractedData.DocumentNumber),
		TotalAmount:    wire.ExtractedData.TotalAmount,
		VATAmount:      wire.ExtractedData.VATAmount,
		NetAmount:      wire.ExtractedData.NetAmount,
	}

	if raw := cleanString(wire.ExtractedData.DocumentDate); raw != nil {
		if parsed, err := time.Parse("2006-01-02", *raw); err == nil {
			data.DocumentDate = &parsed
		}
	}

	if raw := cleanString(wire.ExtractedData.OriginalCurrency); raw != nil {
		code := strings.ToUpper(*raw)
		if len(code) == 3 {
			data.OriginalCurrency = &code
		}
	}

	if raw := cleanString(wire.ExtractedData.ExpenseCategory); raw != nil {
		category := entity.ExpenseCategory(strings.ToLower(*raw))
		if category.IsValid() {
			data.ExpenseCategory = &category
		}
	}

	return &port.ExtractionResult{
		DocumentType: docType,
		Data:         data,
	}, nil
}

// cleanString trims the value and collapses empty strings to nil, so "" is
// never mistaken for a determined field.
func cleanString(s *string) *string {
	if s == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*s)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
