package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"nutrimind/internal/api"
	"nutrimind/internal/config"
	"nutrimind/internal/favorites"
	"nutrimind/internal/metrics"
	"nutrimind/internal/platform/backend"
	"nutrimind/internal/platform/unsplash"
)

// newBackendStub serves the recommendation backend endpoints the service calls.
func newBackendStub(t *testing.T) (*httptest.Server, *[]map[string]interface{}) {
	var received []map[string]interface{}
	mux := http.NewServeMux()
	mux.HandleFunc("/api/meal-plan", func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		var m map[string]interface{}
		_ = json.Unmarshal(body, &m)
		received = append(received, m)
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"plan": [{"day": 1, "meals": [
			{"meal_type": "breakfast", "recipe": {"id": "b1", "name": "Oats", "description": "d", "ingredients": ["oats"],
				"instructions": ["soak"], "nutrition": {"calories": 350, "protein": 12, "carbohydrates": 55, "fat": 8}}},
			{"meal_type": "dinner", "recipe": {"id": "d1", "name": "Curry", "description": "d", "ingredients": ["lentils"],
				"instructions": ["simmer"], "nutrition": {"calories": 600, "protein": 25, "carbohydrates": 70, "fat": 20}}}
		]}]}`)
	})
	mux.HandleFunc("/api/recipes/search", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		fmt.Fprint(w, `{"detail": "AI service unavailable"}`)
	})
	mux.HandleFunc("/api/health", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"status": "healthy", "version": "1.0.0"}`)
	})
	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)
	return ts, &received
}

func setupTestServer(t *testing.T, backendURL string) (*gin.Engine, *favorites.MemoryBackend) {
	gin.SetMode(gin.TestMode)
	logger := zap.NewNop()

	client := backend.NewClient(backendURL, logger)
	storage := favorites.NewMemoryBackend()
	store := favorites.NewStore(storage, logger)
	photos := unsplash.NewClient("", "", 50*time.Millisecond, logger)
	collector := metrics.NewCollector()

	handler := api.NewHandler(client, client, store, photos, collector, logger)
	return setupRouter(handler, collector, []string{"http://localhost:5173"}), storage
}

func TestMealPlanEndToEnd(t *testing.T) {
	ts, received := newBackendStub(t)
	router, _ := setupTestServer(t, ts.URL)

	req := httptest.NewRequest(http.MethodPost, "/api/meal-plan",
		strings.NewReader(`{"dietType": "mediterranean", "calories": "2000", "meals": "3", "restrictions": "Shellfish"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Recipes []map[string]interface{} `json:"recipes"`
		Count   int                      `json:"count"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.Count)
	assert.Equal(t, "Oats", resp.Recipes[0]["name"])
	assert.Equal(t, 55.0, resp.Recipes[0]["carbs"])
	assert.Equal(t, "Curry", resp.Recipes[1]["name"])

	require.Len(t, *received, 1)
	sent := (*received)[0]
	assert.Equal(t, []interface{}{}, sent["dietary_restrictions"])
	assert.Equal(t, []interface{}{"shellfish"}, sent["allergies"])
	assert.Equal(t, 2000.0, sent["calorie_target"])
	assert.NotContains(t, sent, "preferences")
}

func TestSearchBackendErrorEndToEnd(t *testing.T) {
	ts, _ := newBackendStub(t)
	router, _ := setupTestServer(t, ts.URL)

	req := httptest.NewRequest(http.MethodPost, "/api/recipes/search", strings.NewReader(`{"ingredients": "rice"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.NotContains(t, w.Body.String(), "AI service unavailable")
}

func TestFavoritesEndToEnd(t *testing.T) {
	ts, _ := newBackendStub(t)
	router, storage := setupTestServer(t, ts.URL)

	req := httptest.NewRequest(http.MethodPost, "/api/favorites/toggle", strings.NewReader(`{"id": "b1", "name": "Oats", "description": "d"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(api.ProfileHeader, "alice")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	data, err := storage.Load(context.Background(), favorites.StorageKey+":alice")
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id": "b1", "name": "Oats", "description": "d"}]`, string(data))
}

func TestPhotoFallbackEndToEnd(t *testing.T) {
	ts, _ := newBackendStub(t)
	router, _ := setupTestServer(t, ts.URL)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/photos/background/favorites", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var photo unsplash.Photo
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &photo))
	assert.True(t, photo.Fallback)
	assert.True(t, strings.HasPrefix(photo.URL, "https://source.unsplash.com/1600x900/?gourmet%2Ccomfort+food%2Ccolorful+food&sig="))
}

func TestHealthAndMetrics(t *testing.T) {
	ts, _ := newBackendStub(t)
	router, _ := setupTestServer(t, ts.URL)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"healthy"`)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `nutrimind_http_requests_total{method="GET",path="/api/health",status_code="200"} 1`)
}

func TestCORSPreflight(t *testing.T) {
	ts, _ := newBackendStub(t)
	router, _ := setupTestServer(t, ts.URL)

	req := httptest.NewRequest(http.MethodOptions, "/api/meal-plan", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", "POST")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://localhost:5173", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestNewFavoritesBackend(t *testing.T) {
	b, closeFn, err := newFavoritesBackend(context.Background(), config.FavoritesConfig{Driver: config.DriverFile, Dir: t.TempDir()})
	require.NoError(t, err)
	defer closeFn()
	assert.IsType(t, &favorites.FileBackend{}, b)

	b, _, err = newFavoritesBackend(context.Background(), config.FavoritesConfig{Driver: config.DriverMemory})
	require.NoError(t, err)
	assert.IsType(t, &favorites.MemoryBackend{}, b)

	_, _, err = newFavoritesBackend(context.Background(), config.FavoritesConfig{Driver: "mongo"})
	assert.Error(t, err)
}
