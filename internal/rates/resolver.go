// Package rates normalizes monetary amounts into CHF, the single reporting
// currency of the system.
package rates

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/fhuonder/belegscan/internal/application/port"
)

// DefaultTTL is the freshness window of a fetched rate table.
const DefaultTTL = time.Hour

// Resolver caches a currency rate table and converts amounts to CHF.
// Lookups never surface a hard failure: a failed refresh falls back to the
// static table and an unknown currency converts 1:1. A financial amount
// either converts to a number or to an explicit nil, never to an error that
// would abort a batch.
type Resolver struct {
	provider port.RateProvider
	ttl      time.Duration
	now      func() time.Time
	logger   *zap.Logger

	mu        sync.Mutex
	cached    map[string]float64
	fetchedAt time.Time
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithClock overrides the resolver's time source, used by tests to control
// cache expiry.
func WithClock(now func() time.Time) Option {
	return func(r *Resolver) {
		r.now = now
	}
}

// WithTTL overrides the cache freshness window.
func WithTTL(ttl time.Duration) Option {
	return func(r *Resolver) {
		r.ttl = ttl
	}
}

// NewResolver creates a resolver backed by the given provider.
func NewResolver(provider port.RateProvider, logger *zap.Logger, opts ...Option) *Resolver {
	r := &Resolver{
		provider: provider,
		ttl:      DefaultTTL,
		now:      time.Now,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Rates returns the current rate table. A cached table is reused within the
// freshness window; otherwise a live refresh is attempted and, on any
// failure, the static fallback table is returned instead. The caller never
// observes an error.
func (r *Resolver) Rates(ctx context.Context) map[string]float64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.cached != nil && r.now().Sub(r.fetchedAt) < r.ttl {
		return r.cached
	}

	fetched, err := r.provider.FetchRates(ctx)
	if err != nil {
		r.logger.Warn("Rate refresh failed, using static fallback table", zap.Error(err))
		r.cached = FallbackRates()
	} else {
		fetched["CHF"] = 1.0
		r.cached = fetched
		r.logger.Info("Rate table refreshed", zap.Int("currencies", len(fetched)))
	}
	r.fetchedAt = r.now()

	return r.cached
}

// ConvertToCHF converts an amount in the given currency to CHF, rounded to
// two decimal places. It returns nil iff amount or currency is nil. A
// currency unknown to both the live and fallback tables converts 1:1 and
// the original amount is returned unchanged.
func (r *Resolver) ConvertToCHF(ctx context.Context, amount *float64, currency *string) *float64 {
	if amount == nil || currency == nil {
		return nil
	}

	code := strings.ToUpper(strings.TrimSpace(*currency))
	if code == "CHF" {
		v := round2(*amount)
		return &v
	}

	rate, ok := r.lookupRate(ctx, code)
	if !ok {
		r.logger.Warn("Unknown currency, converting 1:1",
			zap.String("currency", code),
			zap.Float64("amount", *amount))
		v := *amount
		return &v
	}

	v, _ := decimal.NewFromFloat(*amount).
		Div(decimal.NewFromFloat(rate)).
		Round(2).
		Float64()
	return &v
}

// ConvertCurrency converts an amount between two arbitrary currencies,
// composing via CHF as the intermediate. It returns nil under the same
// absence conditions as ConvertToCHF.
func (r *Resolver) ConvertCurrency(ctx context.Context, amount *float64, from, to *string) *float64 {
	if amount == nil || from == nil || to == nil {
		return nil
	}

	inCHF := r.ConvertToCHF(ctx, amount, from)
	if inCHF == nil {
		return nil
	}

	code := strings.ToUpper(strings.TrimSpace(*to))
	if code == "CHF" {
		return inCHF
	}

	rate, ok := r.lookupRate(ctx, code)
	if !ok {
		r.logger.Warn("Unknown target currency, converting 1:1", zap.String("currency", code))
		return inCHF
	}

	v, _ := decimal.NewFromFloat(*inCHF).
		Mul(decimal.NewFromFloat(rate)).
		Round(2).
		Float64()
	return &v
}

// lookupRate consults the current table first and the static fallback second.
func (r *Resolver) lookupRate(ctx context.Context, code string) (float64, bool) {
	if rate, ok := r.Rates(ctx)[code]; ok && rate > 0 {
		return rate, true
	}
	if rate, ok := fallbackRates[code]; ok && rate > 0 {
		return rate, true
	}
	return 0, false
}

// round2 rounds to two decimal places, half away from zero.
func round2(v float64) float64 {
	out, _ := decimal.NewFromFloat(v).Round(2).Float64()
	return out
}
