package mirror

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

	"github.com/fhuonder/belegscan/internal/domain/entity"
)

func TestSaveSendsRecordAsJSON(t *testing.T) {
	var gotMethod, gotPath, gotAuth string
	var gotBody map[string]interface{}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "secret", zap.NewNop())
	rec := entity.NewDocumentRecord("doc-1", "scan.pdf", "application/pdf",
		time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC))

	require.NoError(t, c.Save(context.Background(), rec))

	assert.Equal(t, http.MethodPut, gotMethod)
	assert.Equal(t, "/documents/doc-1", gotPath)
	assert.Equal(t, "Bearer secret", gotAuth)
	assert.Equal(t, "doc-1", gotBody["id"])
	assert.Equal(t, "scan.pdf", gotBody["file_name"])
	assert.Equal(t, "processing", gotBody["status"])
}

func TestDeletePaths(t *testing.T) {
	var paths []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodDelete, r.Method)
		paths = append(paths, r.URL.Path)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "", zap.NewNop())
	require.NoError(t, c.Delete(context.Background(), "doc-1"))
	require.NoError(t, c.DeleteAll(context.Background()))

	assert.Equal(t, []string{"/documents/doc-1", "/documents"}, paths)
}

func TestServerErrorSurfaces(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "row level security violation", http.StatusForbidden)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "", zap.NewNop())
	err := c.Delete(context.Background(), "doc-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "403")
	assert.Contains(t, err.Error(), "row level security")
}

func TestNoAuthHeaderWithoutKey(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "", zap.NewNop())
	require.NoError(t, c.DeleteAll(context.Background()))
}
