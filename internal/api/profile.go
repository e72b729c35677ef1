package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/taskdesk/taskdesk/internal/middleware"
	"github.com/taskdesk/taskdesk/internal/models"
	"github.com/taskdesk/taskdesk/internal/repository"
	"github.com/taskdesk/taskdesk/internal/storage"
	"go.uber.org/zap"
)

type ProfileHandler struct {
	profiles repository.ProfileRepository
	history  repository.HistoryRepository
	files    *storage.FileStore
	logger   *zap.Logger
}

func NewProfileHandler(
	profiles repository.ProfileRepository,
	history repository.HistoryRepository,
	files *storage.FileStore,
	logger *zap.Logger,
) *ProfileHandler {
	return &ProfileHandler{
		profiles: profiles,
		history:  history,
		files:    files,
		logger:   logger,
	}
}

// List handles GET /v1/profiles; pickers and the admin panel.
func (h *ProfileHandler) List(c *gin.Context) {
	profiles, err := h.profiles.List(c.Request.Context())
	if err != nil {
		fail(c, h.logger, "list profiles", err)
		return
	}
	c.JSON(http.StatusOK, profiles)
}

// Search handles GET /v1/profiles/search?q=ann&limit=5; the debounced
// name search behind the contact and member pickers. The searcher is
// excluded from their own results.
func (h *ProfileHandler) Search(c *gin.Context) {
	q := c.Query("q")
	if q == "" {
		c.JSON(http.StatusOK, []models.Profile{})
		return
	}

	limit := 5
	if l := c.Query("limit"); l != "" {
		n, err := strconv.Atoi(l)
		if err != nil || n < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid 'limit' parameter"})
			return
		}
		if n > 25 {
			n = 25
		}
		limit = n
	}

	results, err := h.profiles.SearchByName(c.Request.Context(), q, middleware.GetUserID(c), limit)
	if err != nil {
		fail(c, h.logger, "search profiles", err)
		return
	}
	c.JSON(http.StatusOK, results)
}

type updateProfileRequest struct {
	FullName *string `json:"full_name" binding:"omitempty,min=1"`
}

// UpdateSelf handles PATCH /v1/profiles/me.
func (h *ProfileHandler) UpdateSelf(c *gin.Context) {
	var req updateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	profile, err := h.profiles.Update(c.Request.Context(), middleware.GetUserID(c), repository.ProfilePatch{
		FullName: req.FullName,
	})
	if err != nil {
		fail(c, h.logger, "update profile", err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

// UploadAvatar handles POST /v1/profiles/me/avatar (multipart "file").
// The 2MB cap is checked before anything is written.
func (h *ProfileHandler) UploadAvatar(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file required"})
		return
	}

	f, err := fileHeader.Open()
	if err != nil {
		fail(c, h.logger, "open upload", err)
		return
	}
	defer f.Close()

	userID := middleware.GetUserID(c)
	current, err := h.profiles.GetByID(c.Request.Context(), userID)
	if err != nil {
		fail(c, h.logger, "load profile", err)
		return
	}

	url, err := h.files.Save("avatars", fileHeader.Filename, fileHeader.Size, f)
	if err != nil {
		fail(c, h.logger, "store avatar", err)
		return
	}

	profile, err := h.profiles.Update(c.Request.Context(), userID, repository.ProfilePatch{
		AvatarURL: &url,
	})
	if err != nil {
		// The blob is orphaned if the row update fails; remove it so the
		// bucket doesn't accumulate strays.
		_ = h.files.Remove(url)
		fail(c, h.logger, "save avatar url", err)
		return
	}

	// The replaced blob is unreachable once the row points elsewhere.
	if current != nil && current.AvatarURL != nil {
		if err := h.files.Remove(*current.AvatarURL); err != nil {
			h.logger.Warn("remove avatar file", zap.Error(err))
		}
	}

	c.JSON(http.StatusOK, profile)
}

// DeleteAvatar handles DELETE /v1/profiles/me/avatar.
func (h *ProfileHandler) DeleteAvatar(c *gin.Context) {
	userID := middleware.GetUserID(c)

	current, err := h.profiles.GetByID(c.Request.Context(), userID)
	if err != nil {
		fail(c, h.logger, "load profile", err)
		return
	}

	profile, err := h.profiles.Update(c.Request.Context(), userID, repository.ProfilePatch{
		ClearAvatar: true,
	})
	if err != nil {
		fail(c, h.logger, "clear avatar", err)
		return
	}

	if current != nil && current.AvatarURL != nil {
		if err := h.files.Remove(*current.AvatarURL); err != nil {
			h.logger.Warn("remove avatar file", zap.Error(err))
		}
	}

	c.JSON(http.StatusOK, profile)
}

type setRoleRequest struct {
	Role models.Role `json:"role" binding:"required"`
}

// SetRole handles PATCH /v1/admin/profiles/:id/role; Administrator only
// (route-gated).
func (h *ProfileHandler) SetRole(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid profile ID"})
		return
	}

	var req setRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !req.Role.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown role"})
		return
	}

	if err := h.profiles.SetRole(c.Request.Context(), id, req.Role); err != nil {
		fail(c, h.logger, "set role", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// History handles GET /v1/profiles/me/history?limit=10.
func (h *ProfileHandler) History(c *gin.Context) {
	limit := 10
	if l := c.Query("limit"); l != "" {
		n, err := strconv.Atoi(l)
		if err != nil || n < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid 'limit' parameter"})
			return
		}
		limit = n
	}

	entries, err := h.history.ListByUser(c.Request.Context(), middleware.GetUserID(c), limit)
	if err != nil {
		fail(c, h.logger, "list history", err)
		return
	}
	c.JSON(http.StatusOK, entries)
}
