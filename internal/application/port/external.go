package port

import (
	"context"

	"github.com/fhuonder/belegscan/internal/domain/entity"
)

// ExtractionRequest carries one uploaded document to an extraction backend.
// FileName is context only and never authoritative for extracted fields.
type ExtractionRequest struct {
	FileData []byte
	FileName string
	FileType string
}

// ExtractionResult is the validated outcome of a document analysis call.
type ExtractionResult struct {
	DocumentType entity.DocumentType
	Data         entity.ExtractedData
}

// DocumentExtractor sends a document to a multimodal analysis backend and
// returns structured fields. Failures are reported as the typed errors
// defined in internal/extraction.
type DocumentExtractor interface {
	Extract(ctx context.Context, req ExtractionRequest) (*ExtractionResult, error)
}

// OCRResult is the outcome of an OCR enhancement pass.
type OCRResult struct {
	Text       string
	Confidence float64
}

// OCREnhancer runs a document through a secondary OCR service to obtain
// higher-fidelity text. The enhancement is purely additive: callers must
// proceed without it when the call fails or confidence is too low.
type OCREnhancer interface {
	EnhanceText(ctx context.Context, fileData []byte, fileType string) (*OCRResult, error)
}

// RateProvider fetches a fresh rate table from an external source.
// The returned map is keyed by upper-case 3-letter currency code and holds
// units of that currency per 1 CHF.
type RateProvider interface {
	FetchRates(ctx context.Context) (map[string]float64, error)
}
