// Package mirror replicates document records to a remote HTTP store. The
// mirror is strictly best-effort: the caller treats it as a shadow of local
// persistence and never blocks on its availability.
package mirror

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/fhuonder/belegscan/internal/application/port"
	"github.com/fhuonder/belegscan/internal/domain/entity"
)

// DefaultTimeout bounds one mirror request.
const DefaultTimeout = 10 * time.Second

// Client implements port.MirrorStore against a JSON-over-HTTP document API.
type Client struct {
	endpoint string
	apiKey   string
	client   *http.Client
	logger   *zap.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(m *Client) {
		m.client = c
	}
}

// NewClient creates a mirror client for the given endpoint. apiKey may be
// empty for unauthenticated endpoints.
func NewClient(endpoint, apiKey string, logger *zap.Logger, opts ...Option) *Client {
	c := &Client{
		endpoint: endpoint,
		apiKey:   apiKey,
		client:   &http.Client{Timeout: DefaultTimeout},
		logger:   logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Save replicates one record. The remote keys records by ID, so replays and
// out-of-order retries converge on the latest write.
func (c *Client) Save(ctx context.Context, rec *entity.DocumentRecord) error {
	body, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to encode document %s: %w", rec.ID, err)
	}
	return c.do(ctx, http.MethodPut, "/documents/"+rec.ID, body)
}

// Delete removes one record from the remote store.
func (c *Client) Delete(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/documents/"+id, nil)
}

// DeleteAll clears the remote store.
func (c *Client) DeleteAll(ctx context.Context) error {
	return c.do(ctx, http.MethodDelete, "/documents", nil)
}

func (c *Client) do(ctx context.Context, method, path string, body []byte) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.endpoint+path, reader)
	if err != nil {
		return fmt.Errorf("failed to build mirror request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("mirror request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		// Drain a little of the body for the log line; mirrors tend to put
		// the useful part of an error first.
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return fmt.Errorf("mirror returned status %d: %s", resp.StatusCode, string(snippet))
	}
	return nil
}

var _ port.MirrorStore = (*Client)(nil)
