// Package heuristic derives a best-effort document record purely from a
// filename. It is the extraction path of last resort, used only when no
// remote analysis backend is configured at all.
package heuristic

import (
	"context"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/fhuonder/belegscan/internal/application/port"
	"github.com/fhuonder/belegscan/internal/domain/entity"
)

// swissVATRate is used to estimate the VAT portion of a derived total.
const swissVATRate = 0.077

// maxPlausibleAmount rejects obviously bogus numbers scraped from filenames.
const maxPlausibleAmount = 1_000_000

var (
	isoDateRe      = regexp.MustCompile(`(\d{4})[-_](\d{2})[-_](\d{2})`)
	europeanDateRe = regexp.MustCompile(`(\d{2})[.\-](\d{2})[.\-](\d{4})`)
	compactDateRe  = regexp.MustCompile(`(\d{8})`)

	currencyToken = `(CHF|EUR|USD|GBP|Fr\.?|€|\$|£)`
	numberToken   = `(\d{1,7}(?:[.,]\d{1,2})?)`

	currencyFirstRe = regexp.MustCompile(`(?i)` + currencyToken + `\s*[_-]?\s*` + numberToken)
	currencyAfterRe = regexp.MustCompile(`(?i)` + numberToken + `\s*[_-]?\s*` + currencyToken)
	plainAmountRe   = regexp.MustCompile(`(\d{1,7}[.,]\d{2})`)

	invNumberRe   = regexp.MustCompile(`(?i)\b(INV[-_]?\d{3,})`)
	hashNumberRe  = regexp.MustCompile(`#(\d{3,})`)
	digitRunRe    = regexp.MustCompile(`(\d{6,})`)
	currencyCodes = map[string]string{
		"CHF": "CHF", "FR": "CHF", "FR.": "CHF",
		"EUR": "EUR", "€": "EUR",
		"USD": "USD", "$": "USD",
		"GBP": "GBP", "£": "GBP",
	}
)

// ExtractDateFromFilename matches common date encodings in priority order:
// ISO (YYYY-MM-DD / YYYY_MM_DD), European (DD.MM.YYYY / DD-MM-YYYY), then
// compact (YYYYMMDD). It is a pure function; nil means no plausible date.
func ExtractDateFromFilename(name string) *time.Time {
	if m := isoDateRe.FindStringSubmatch(name); m != nil {
		if d := buildDate(m[1], m[2], m[3]); d != nil {
			return d
		}
	}
	if m := europeanDateRe.FindStringSubmatch(name); m != nil {
		if d := buildDate(m[3], m[2], m[1]); d != nil {
			return d
		}
	}
	if m := compactDateRe.FindStringSubmatch(name); m != nil {
		if d := buildDate(m[1][:4], m[1][4:6], m[1][6:8]); d != nil {
			return d
		}
	}
	return nil
}

// buildDate validates plausibility bounds before accepting a candidate.
func buildDate(year, month, day string) *time.Time {
	y, _ := strconv.Atoi(year)
	m, _ := strconv.Atoi(month)
	d, _ := strconv.Atoi(day)
	if y < 1990 || y > 2099 || m < 1 || m > 12 || d < 1 || d > 31 {
		return nil
	}
	t := time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
	if t.Year() != y || int(t.Month()) != m || t.Day() != d {
		return nil
	}
	return &t
}

// ExtractAmountFromFilename scans for currency-adjacent numeric patterns in
// priority order: code/symbol before the number, code/symbol after it, then
// a bare decimal number defaulting to CHF. Date substrings are stripped
// first so "15.03.2024" is never misread as 15.03. Implausible amounts
// (<= 0 or >= 1,000,000) are rejected. Pure function.
func ExtractAmountFromFilename(name string) (*float64, *string) {
	name = isoDateRe.ReplaceAllString(name, " ")
	name = europeanDateRe.ReplaceAllString(name, " ")
	name = compactDateRe.ReplaceAllString(name, " ")
	if m := currencyFirstRe.FindStringSubmatch(name); m != nil {
		if amount := parseAmount(m[2]); amount != nil {
			code := normalizeCurrency(m[1])
			return amount, &code
		}
	}
	if m := currencyAfterRe.FindStringSubmatch(name); m != nil {
		if amount := parseAmount(m[1]); amount != nil {
			code := normalizeCurrency(m[2])
			return amount, &code
		}
	}
	if m := plainAmountRe.FindStringSubmatch(name); m != nil {
		if amount := parseAmount(m[1]); amount != nil {
			code := "CHF"
			return amount, &code
		}
	}
	return nil, nil
}

func parseAmount(raw string) *float64 {
	v, err := strconv.ParseFloat(strings.ReplaceAll(raw, ",", "."), 64)
	if err != nil || v <= 0 || v >= maxPlausibleAmount {
		return nil
	}
	return &v
}

func normalizeCurrency(token string) string {
	if code, ok := currencyCodes[strings.ToUpper(strings.TrimSpace(token))]; ok {
		return code
	}
	return "CHF"
}

// VendorMatch is the result of a known-vendor lookup.
type VendorMatch struct {
	Issuer   string
	Type     entity.DocumentType
	Category entity.ExpenseCategory
}

// ExtractVendorFromFilename looks the filename up against the built-in
// vendor table, case-insensitively, anywhere in the string. Pure function;
// nil means no known vendor matched.
func ExtractVendorFromFilename(name string) *VendorMatch {
	return matchVendor(vendorRules, name)
}

func matchVendor(rules []VendorRule, name string) *VendorMatch {
	lower := strings.ToLower(name)
	for _, rule := range rules {
		if strings.Contains(lower, rule.Substring) {
			return &VendorMatch{
				Issuer:   rule.Issuer,
				Type:     rule.Type,
				Category: rule.Category,
			}
		}
	}
	return nil
}

// ExtractDocumentNumberFromFilename matches INV-style references, then
// #-prefixed numbers, then any standalone run of six or more digits, in that
// priority order. Pure function.
func ExtractDocumentNumberFromFilename(name string) *string {
	if m := invNumberRe.FindStringSubmatch(name); m != nil {
		number := strings.ToUpper(strings.ReplaceAll(m[1], "_", "-"))
		return &number
	}
	if m := hashNumberRe.FindStringSubmatch(name); m != nil {
		return &m[1]
	}
	if m := digitRunRe.FindStringSubmatch(name); m != nil {
		return &m[1]
	}
	return nil
}

// Fallback implements port.DocumentExtractor from filename heuristics alone.
// It always succeeds: worst case every field is null and the document stays
// unknown, with the date defaulting to today.
type Fallback struct {
	now     func() time.Time
	vendors []VendorRule
	logger  *zap.Logger
}

// Option configures a Fallback.
type Option func(*Fallback)

// WithClock overrides the time source used for the default document date.
func WithClock(now func() time.Time) Option {
	return func(f *Fallback) {
		f.now = now
	}
}

// WithVendorRules prepends deployment-specific vendor rules to the built-in
// table. Extra rules win on overlap since matching is first-hit.
func WithVendorRules(extra []VendorRule) Option {
	return func(f *Fallback) {
		f.vendors = append(append([]VendorRule{}, extra...), vendorRules...)
	}
}

// NewFallback creates the filename-heuristic extractor.
func NewFallback(logger *zap.Logger, opts ...Option) *Fallback {
	f := &Fallback{
		now:     time.Now,
		vendors: vendorRules,
		logger:  logger,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Extract derives a complete, well-typed result from the filename. The
// error return is always nil; it exists to satisfy port.DocumentExtractor.
func (f *Fallback) Extract(_ context.Context, req port.ExtractionRequest) (*port.ExtractionResult, error) {
	name := req.FileName
	f.logger.Info("Extracting document fields from filename heuristics",
		zap.String("file_name", name))

	data := entity.ExtractedData{}
	docType := entity.DocumentTypeUnknown

	if date := ExtractDateFromFilename(name); date != nil {
		data.DocumentDate = date
	} else {
		today := f.now().Truncate(24 * time.Hour)
		data.DocumentDate = &today
	}

	amount, currency := ExtractAmountFromFilename(name)
	data.TotalAmount = amount
	data.OriginalCurrency = currency
	if amount != nil {
		vat := roundTwo(*amount * swissVATRate)
		net := roundTwo(*amount - vat)
		data.VATAmount = &vat
		data.NetAmount = &net
	}

	data.DocumentNumber = ExtractDocumentNumberFromFilename(name)

	// A vendor match wins over keyword hints: the table carries the more
	// specific knowledge about how that vendor's documents look.
	if vendor := matchVendor(f.vendors, name); vendor != nil {
		data.Issuer = &vendor.Issuer
		docType = vendor.Type
		category := vendor.Category
		data.ExpenseCategory = &category
	} else {
		lower := strings.ToLower(name)
		for _, kw := range typeKeywords {
			if strings.Contains(lower, kw.Keyword) {
				docType = kw.Type
				break
			}
		}
		for _, kw := range categoryKeywords {
			if strings.Contains(lower, kw.Keyword) {
				category := kw.Category
				data.ExpenseCategory = &category
				break
			}
		}
	}

	return &port.ExtractionResult{
		DocumentType: docType,
		Data:         data,
	}, nil
}

func roundTwo(v float64) float64 {
	out, _ := decimal.NewFromFloat(v).Round(2).Float64()
	return out
}

var _ port.DocumentExtractor = (*Fallback)(nil)
