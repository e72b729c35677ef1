package api

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/taskdesk/taskdesk/internal/middleware"
	"github.com/taskdesk/taskdesk/internal/models"
	"github.com/taskdesk/taskdesk/internal/storage"
)

type fakeHistory struct{}

func (fakeHistory) Record(_ context.Context, _ *uuid.UUID, _ uuid.UUID, _ string) error {
	return nil
}

func (fakeHistory) ListByUser(_ context.Context, _ uuid.UUID, _ int) ([]models.TaskHistory, error) {
	return nil, nil
}

func newProfileRouter(t *testing.T, profiles *fakeProfiles, callerID uuid.UUID) (*gin.Engine, *storage.FileStore) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	files, err := storage.NewFileStore(t.TempDir(), "http://localhost:8080")
	require.NoError(t, err)
	handler := NewProfileHandler(profiles, fakeHistory{}, files, zap.NewNop())
	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Set(middleware.ContextKeyUserID, callerID)
		c.Set(middleware.ContextKeyRole, models.RoleWorker)
	})
	router.POST("/v1/profiles/me/avatar", handler.UploadAvatar)
	router.DELETE("/v1/profiles/me/avatar", handler.DeleteAvatar)
	return router, files
}

func uploadAvatar(t *testing.T, router *gin.Engine, filename string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write([]byte("not really a png"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/profiles/me/avatar", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	router.ServeHTTP(w, req)
	return w
}

func avatarDiskPath(t *testing.T, files *storage.FileStore, publicURL string) string {
	t.Helper()
	i := strings.Index(publicURL, "/files/")
	require.NotEqual(t, -1, i)
	return filepath.Join(files.BaseDir(), publicURL[i+len("/files/"):])
}

func TestUploadAvatarReplacesPreviousFile(t *testing.T) {
	profiles := newFakeProfiles()
	caller := &models.Profile{ID: uuid.New(), Email: "eva@example.com", FullName: "Eva Kern", Role: models.RoleWorker}
	profiles.add(caller)
	router, files := newProfileRouter(t, profiles, caller.ID)

	w := uploadAvatar(t, router, "first.png")
	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, caller.AvatarURL)
	firstPath := avatarDiskPath(t, files, *caller.AvatarURL)
	_, err := os.Stat(firstPath)
	require.NoError(t, err)

	w = uploadAvatar(t, router, "second.png")
	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, caller.AvatarURL)
	secondPath := avatarDiskPath(t, files, *caller.AvatarURL)
	assert.NotEqual(t, firstPath, secondPath)

	_, err = os.Stat(secondPath)
	assert.NoError(t, err, "current avatar should be on disk")
	_, err = os.Stat(firstPath)
	assert.True(t, os.IsNotExist(err), "replaced avatar should be gone")
}

func TestDeleteAvatarRemovesFileAndClearsURL(t *testing.T) {
	profiles := newFakeProfiles()
	caller := &models.Profile{ID: uuid.New(), Email: "eva@example.com", FullName: "Eva Kern", Role: models.RoleWorker}
	profiles.add(caller)
	router, files := newProfileRouter(t, profiles, caller.ID)

	w := uploadAvatar(t, router, "face.png")
	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, caller.AvatarURL)
	path := avatarDiskPath(t, files, *caller.AvatarURL)

	w = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodDelete, "/v1/profiles/me/avatar", nil)
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	assert.Nil(t, caller.AvatarURL)
	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}
