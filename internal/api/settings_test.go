package api

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/taskdesk/taskdesk/internal/models"
)

type fakeSettings struct {
	current models.AppSettings
	gets    int
}

func (f *fakeSettings) Get(context.Context) (*models.AppSettings, error) {
	f.gets++
	s := f.current
	return &s, nil
}

func (f *fakeSettings) Update(_ context.Context, s models.AppSettings) (*models.AppSettings, error) {
	f.current = s
	return &s, nil
}

func newSettingsRouter(store *fakeSettings) *gin.Engine {
	gin.SetMode(gin.TestMode)
	handler := NewSettingsHandler(store, zap.NewNop())
	router := gin.New()
	router.GET("/v1/settings", handler.Get)
	router.PUT("/v1/settings", handler.Update)
	return router
}

func TestSettingsGetIsCachedAfterFirstLoad(t *testing.T) {
	store := &fakeSettings{current: models.AppSettings{AppName: "TaskDesk", PrimaryColor: "#2563eb"}}
	router := newSettingsRouter(store)

	for i := 0; i < 3; i++ {
		w := doJSON(t, router, http.MethodGet, "/v1/settings", nil)
		require.Equal(t, http.StatusOK, w.Code)
	}
	assert.Equal(t, 1, store.gets)
}

func TestSettingsUpdateRefreshesCache(t *testing.T) {
	store := &fakeSettings{current: models.AppSettings{AppName: "TaskDesk", PrimaryColor: "#2563eb"}}
	router := newSettingsRouter(store)

	// Warm the cache.
	doJSON(t, router, http.MethodGet, "/v1/settings", nil)

	w := doJSON(t, router, http.MethodPut, "/v1/settings", map[string]any{
		"app_name":      "Acme Tasks",
		"primary_color": "#ff0000",
	})
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, router, http.MethodGet, "/v1/settings", nil)
	var got models.AppSettings
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, "Acme Tasks", got.AppName)
	assert.Equal(t, "#ff0000", got.PrimaryColor)
	assert.Equal(t, 1, store.gets, "update must refresh the cache, not invalidate it")
}

func TestSettingsUpdateValidatesColor(t *testing.T) {
	store := &fakeSettings{}
	router := newSettingsRouter(store)

	w := doJSON(t, router, http.MethodPut, "/v1/settings", map[string]any{
		"app_name":      "Acme Tasks",
		"primary_color": "not-a-color",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
