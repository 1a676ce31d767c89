// Package ocr is the optional OCR pre-processing collaborator of the
// extraction gateway.
package ocr

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/fhuonder/belegscan/internal/application/port"
)

// Client calls an OCR enhancement service to obtain higher-fidelity text for
// a scanned document. Results are advisory: the extraction gateway discards
// them on failure or low confidence.
type Client struct {
	endpoint string
	apiKey   string
	language string
	client   *http.Client
	logger   *zap.Logger
}

// NewClient creates an OCR client against the given endpoint.
func NewClient(endpoint, apiKey, language string, timeout time.Duration, logger *zap.Logger) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if language == "" {
		language = "de"
	}
	return &Client{
		endpoint: strings.TrimRight(endpoint, "/"),
		apiKey:   apiKey,
		language: language,
		client:   &http.Client{Timeout: timeout},
		logger:   logger,
	}
}

type ocrOptions struct {
	Enhance       bool   `json:"enhance"`
	OCR           bool   `json:"ocr"`
	ExtractTables bool   `json:"extract_tables"`
	ExtractText   bool   `json:"extract_text"`
	Language      string `json:"language"`
}

type ocrRequest struct {
	Image   string     `json:"image,omitempty"`
	PDF     string     `json:"pdf,omitempty"`
	Options ocrOptions `json:"options"`
}

// ocrResponse tolerates the service's alternate field names for the
// recognized text. adapt() resolves them in a fixed priority order.
type ocrResponse struct {
	Text          string  `json:"text"`
	ExtractedText string  `json:"extracted_text"`
	OCRText       string  `json:"ocr_text"`
	Confidence    float64 `json:"confidence"`
}

// adapt picks the recognized text with priority text > extracted_text >
// ocr_text, first non-empty wins.
func (r *ocrResponse) adapt() *port.OCRResult {
	text := r.Text
	if text == "" {
		text = r.ExtractedText
	}
	if text == "" {
		text = r.OCRText
	}
	return &port.OCRResult{
		Text:       text,
		Confidence: r.Confidence,
	}
}

// EnhanceText submits the document for OCR and returns the recognized text
// with its confidence score.
func (c *Client) EnhanceText(ctx context.Context, fileData []byte, fileType string) (*port.OCRResult, error) {
	payload := ocrRequest{
		Options: ocrOptions{
			Enhance:     true,
			OCR:         true,
			ExtractText: true,
			Language:    c.language,
		},
	}

	dataURI := fmt.Sprintf("data:%s;base64,%s", fileType, base64.StdEncoding.EncodeToString(fileData))
	if strings.EqualFold(fileType, "application/pdf") {
		payload.PDF = dataURI
	} else {
		payload.Image = dataURI
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode OCR request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build OCR request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("OCR request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("OCR service returned status %d", resp.StatusCode)
	}

	var parsed ocrResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("failed to decode OCR response: %w", err)
	}

	result := parsed.adapt()
	c.logger.Debug("OCR enhancement completed",
		zap.Int("text_length", len(result.Text)),
		zap.Float64("confidence", result.Confidence))
	return result, nil
}

var _ port.OCREnhancer = (*Client)(nil)
