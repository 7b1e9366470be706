package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testOpenAPI = `openapi: 3.0.3
info:
  title: checkAuto Admin API
  version: 1.0.0
paths:
  /api/auth/profile/:
    get:
      summary: Current user profile
`

func TestOpenAPIHandler(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "openapi.yaml")
	require.NoError(t, os.WriteFile(path, []byte(testOpenAPI), 0o600))

	h, err := NewOpenAPIHandler(path)
	require.NoError(t, err)

	router := mux.NewRouter()
	h.RegisterRoutes(router)

	t.Run("yaml", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/openapi.yaml", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "application/x-yaml", w.Header().Get("Content-Type"))
		assert.Equal(t, testOpenAPI, w.Body.String())
	})

	t.Run("json", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/openapi.json", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		var doc map[string]any
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &doc))
		assert.Equal(t, "3.0.3", doc["openapi"])
		info, ok := doc["info"].(map[string]any)
		require.True(t, ok)
		assert.Equal(t, "checkAuto Admin API", info["title"])
	})
}

func TestNewOpenAPIHandler_Errors(t *testing.T) {
	t.Parallel()

	_, err := NewOpenAPIHandler(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "failed to read")

	_, err = newOpenAPIHandler([]byte("openapi: [unterminated"))
	assert.ErrorContains(t, err, "failed to parse")

	_, err = newOpenAPIHandler([]byte(""))
	assert.ErrorContains(t, err, "empty")
}

func TestOpenAPIDocumentParses(t *testing.T) {
	t.Parallel()

	_, err := NewOpenAPIHandler(filepath.Join("..", "..", "api", "openapi", "openapi.yaml"))
	assert.NoError(t, err)
}
