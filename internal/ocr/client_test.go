package ocr

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestAdaptFieldPriority(t *testing.T) {
	tests := []struct {
		name     string
		resp     ocrResponse
		expected string
	}{
		{
			name:     "text wins over alternates",
			resp:     ocrResponse{Text: "primary", ExtractedText: "secondary", OCRText: "tertiary"},
			expected: "primary",
		},
		{
			name:     "extracted_text wins over ocr_text",
			resp:     ocrResponse{ExtractedText: "secondary", OCRText: "tertiary"},
			expected: "secondary",
		},
		{
			name:     "ocr_text as last resort",
			resp:     ocrResponse{OCRText: "tertiary"},
			expected: "tertiary",
		},
		{
			name:     "all empty",
			resp:     ocrResponse{},
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.resp.adapt().Text)
		})
	}
}

func TestEnhanceTextSendsImagePayload(t *testing.T) {
	var received ocrRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"extracted_text": "CHF 45.90 Restaurant Rössli",
			"confidence":     0.91,
		})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "key", "de", time.Second, zap.NewNop())
	result, err := client.EnhanceText(context.Background(), []byte("fake-image"), "image/png")
	require.NoError(t, err)

	assert.NotEmpty(t, received.Image)
	assert.Empty(t, received.PDF)
	assert.True(t, received.Options.OCR)
	assert.Equal(t, "de", received.Options.Language)
	assert.Equal(t, "CHF 45.90 Restaurant Rössli", result.Text)
	assert.Equal(t, 0.91, result.Confidence)
}

func TestEnhanceTextSendsPDFPayload(t *testing.T) {
	var received ocrRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"text": "hello", "confidence": 0.8})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "", "en", time.Second, zap.NewNop())
	_, err := client.EnhanceText(context.Background(), []byte("%PDF-1.4"), "application/pdf")
	require.NoError(t, err)

	assert.NotEmpty(t, received.PDF)
	assert.Empty(t, received.Image)
}

func TestEnhanceTextServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "", "", time.Second, zap.NewNop())
	_, err := client.EnhanceText(context.Background(), []byte("x"), "image/png")
	assert.Error(t, err)
}
