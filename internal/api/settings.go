package api

import (
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/taskdesk/taskdesk/internal/models"
	"github.com/taskdesk/taskdesk/internal/repository"
	"go.uber.org/zap"
)

// SettingsHandler serves the singleton app settings: name, theme color,
// logo. Reads are open to any authenticated user (every screen needs
// them at boot) and come from an in-process cache after the first load;
// writes are route-gated to Administrators and refresh the cache.
type SettingsHandler struct {
	settings repository.SettingsRepository
	logger   *zap.Logger

	mu     sync.RWMutex
	cached *models.AppSettings
}

func NewSettingsHandler(settings repository.SettingsRepository, logger *zap.Logger) *SettingsHandler {
	return &SettingsHandler{settings: settings, logger: logger}
}

// Get handles GET /v1/settings.
func (h *SettingsHandler) Get(c *gin.Context) {
	h.mu.RLock()
	cached := h.cached
	h.mu.RUnlock()
	if cached != nil {
		c.JSON(http.StatusOK, cached)
		return
	}

	settings, err := h.settings.Get(c.Request.Context())
	if err != nil {
		fail(c, h.logger, "load settings", err)
		return
	}

	h.mu.Lock()
	h.cached = settings
	h.mu.Unlock()
	c.JSON(http.StatusOK, settings)
}

type updateSettingsRequest struct {
	AppName      string  `json:"app_name" binding:"required,min=1,max=80"`
	PrimaryColor string  `json:"primary_color" binding:"required,hexcolor"`
	LogoURL      *string `json:"logo_url" binding:"omitempty,url"`
}

// Update handles PUT /v1/settings.
func (h *SettingsHandler) Update(c *gin.Context) {
	var req updateSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	settings, err := h.settings.Update(c.Request.Context(), models.AppSettings{
		AppName:      req.AppName,
		PrimaryColor: req.PrimaryColor,
		LogoURL:      req.LogoURL,
	})
	if err != nil {
		fail(c, h.logger, "save settings", err)
		return
	}

	h.mu.Lock()
	h.cached = settings
	h.mu.Unlock()
	c.JSON(http.StatusOK, settings)
}
