package rates

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

// DefaultProviderTimeout bounds a live rate fetch so a slow provider cannot
// stall the sequential processing queue.
const DefaultProviderTimeout = 10 * time.Second

// HTTPProvider fetches a CHF-based rate table from a public exchange-rate
// endpoint. The endpoint is expected to answer a GET with a JSON body of the
// form {"base":"CHF","rates":{"EUR":1.06,...}} where each rate is units of
// the currency per 1 CHF.
type HTTPProvider struct {
	endpoint string
	client   *http.Client
	logger   *zap.Logger
}

// NewHTTPProvider creates a provider against the given base endpoint.
func NewHTTPProvider(endpoint string, timeout time.Duration, logger *zap.Logger) *HTTPProvider {
	if timeout <= 0 {
		timeout = DefaultProviderTimeout
	}
	return &HTTPProvider{
		endpoint: strings.TrimRight(endpoint, "/"),
		client:   &http.Client{Timeout: timeout},
		logger:   logger,
	}
}

type rateResponse struct {
	Base  string             `json:"base"`
	Rates map[string]float64 `json:"rates"`
}

// FetchRates performs the live rate lookup with CHF as the base currency.
func (p *HTTPProvider) FetchRates(ctx context.Context) (map[string]float64, error) {
	reqURL := fmt.Sprintf("%s/latest?base=%s", p.endpoint, url.QueryEscape("CHF"))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build rate request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("rate request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("rate provider returned status %d", resp.StatusCode)
	}

	var body rateResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("failed to decode rate response: %w", err)
	}
	if len(body.Rates) == 0 {
		return nil, fmt.Errorf("rate provider returned empty table")
	}

	rates := make(map[string]float64, len(body.Rates)+1)
	for code, rate := range body.Rates {
		if rate > 0 {
			rates[strings.ToUpper(code)] = rate
		}
	}
	rates["CHF"] = 1.0

	p.logger.Debug("Fetched live rate table", zap.Int("currencies", len(rates)))
	return rates, nil
}
