package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9090
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, "data/belegscan.db", cfg.Database.Path)
	assert.Equal(t, "gpt-4o", cfg.OpenAI.Model)
	assert.Equal(t, 60*time.Second, cfg.OpenAI.Timeout)
	assert.Equal(t, time.Hour, cfg.Rates.TTL)
	assert.Equal(t, 0.5, cfg.OCR.MinConfidence)
	assert.False(t, cfg.Mirror.Enabled)
	assert.Equal(t, "info", cfg.Logger.Level)
}

func TestLoadVendorRules(t *testing.T) {
	path := writeConfig(t, `
vendors:
  - substring: "acme"
    issuer: "ACME Treuhand"
    type: "invoice"
    category: "professional services"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	require.Len(t, cfg.Vendors, 1)
	assert.Equal(t, "acme", cfg.Vendors[0].Substring)
	assert.Equal(t, "ACME Treuhand", cfg.Vendors[0].Issuer)
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"bad port", "server:\n  port: -1\n"},
		{"ocr without endpoint", "ocr:\n  enabled: true\n"},
		{"mirror without endpoint", "mirror:\n  enabled: true\n"},
		{"confidence out of range", "ocr:\n  min_confidence: 1.5\n"},
		{"vendor without issuer", "vendors:\n  - substring: \"acme\"\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			assert.Error(t, err)
		})
	}
}

func TestLoadMissingFileFails(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
