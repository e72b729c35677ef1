package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/taskdesk/taskdesk/internal/apperr"
	"github.com/taskdesk/taskdesk/internal/auth"
	"github.com/taskdesk/taskdesk/internal/models"
	"github.com/taskdesk/taskdesk/internal/repository"
)

// fakeProfiles is an in-memory ProfileRepository for handler tests.
type fakeProfiles struct {
	byEmail map[string]*models.Profile
	byID    map[uuid.UUID]*models.Profile
}

func newFakeProfiles() *fakeProfiles {
	return &fakeProfiles{
		byEmail: make(map[string]*models.Profile),
		byID:    make(map[uuid.UUID]*models.Profile),
	}
}

func (f *fakeProfiles) add(p *models.Profile) {
	f.byEmail[strings.ToLower(p.Email)] = p
	f.byID[p.ID] = p
}

func (f *fakeProfiles) Create(_ context.Context, email, fullName, passwordHash string, role models.Role) (*models.Profile, error) {
	p := &models.Profile{
		ID:           uuid.New(),
		Email:        strings.ToLower(email),
		FullName:     fullName,
		PasswordHash: passwordHash,
		Role:         role,
		CreatedAt:    time.Now(),
	}
	f.add(p)
	return p, nil
}

func (f *fakeProfiles) GetByID(_ context.Context, id uuid.UUID) (*models.Profile, error) {
	return f.byID[id], nil
}

func (f *fakeProfiles) GetByEmail(_ context.Context, email string) (*models.Profile, error) {
	return f.byEmail[strings.ToLower(email)], nil
}

func (f *fakeProfiles) List(_ context.Context) ([]models.Profile, error) {
	out := make([]models.Profile, 0, len(f.byID))
	for _, p := range f.byID {
		out = append(out, *p)
	}
	return out, nil
}

func (f *fakeProfiles) SearchByName(_ context.Context, query string, excludeID uuid.UUID, limit int) ([]models.Profile, error) {
	out := []models.Profile{}
	for _, p := range f.byID {
		if p.ID == excludeID {
			continue
		}
		if strings.Contains(strings.ToLower(p.FullName), strings.ToLower(query)) {
			out = append(out, *p)
		}
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (f *fakeProfiles) Update(_ context.Context, id uuid.UUID, patch repository.ProfilePatch) (*models.Profile, error) {
	p := f.byID[id]
	if p == nil {
		return nil, nil
	}
	if patch.FullName != nil {
		p.FullName = *patch.FullName
	}
	if patch.ClearAvatar {
		p.AvatarURL = nil
	} else if patch.AvatarURL != nil {
		p.AvatarURL = patch.AvatarURL
	}
	return p, nil
}

func (f *fakeProfiles) SetRole(_ context.Context, id uuid.UUID, role models.Role) error {
	p := f.byID[id]
	if p == nil {
		return apperr.New(apperr.KindNotFound, "profile not found")
	}
	p.Role = role
	return nil
}

const testJWTSecret = "handler-test-secret"

func newAuthRouter(profiles repository.ProfileRepository) *gin.Engine {
	gin.SetMode(gin.TestMode)
	handler := NewAuthHandler(profiles, testJWTSecret, zap.NewNop())
	router := gin.New()
	router.POST("/v1/auth/signup", handler.Signup)
	router.POST("/v1/auth/login", handler.Login)
	return router
}

func postJSON(t *testing.T, router *gin.Engine, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	buf, err := json.Marshal(body)
	require.NoError(t, err)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(buf))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)
	return w
}

func TestSignupCreatesWorkerWithoutToken(t *testing.T) {
	profiles := newFakeProfiles()
	router := newAuthRouter(profiles)

	w := postJSON(t, router, "/v1/auth/signup", map[string]string{
		"email":     "new@example.com",
		"password":  "longenough",
		"full_name": "New Person",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "worker", resp["role"])
	assert.NotContains(t, resp, "token")
	assert.NotContains(t, resp, "password_hash")

	stored, _ := profiles.GetByEmail(context.Background(), "new@example.com")
	require.NotNil(t, stored)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("longenough")))
}

func TestSignupRejectsDuplicateEmail(t *testing.T) {
	profiles := newFakeProfiles()
	profiles.add(&models.Profile{ID: uuid.New(), Email: "taken@example.com"})
	router := newAuthRouter(profiles)

	w := postJSON(t, router, "/v1/auth/signup", map[string]string{
		"email":     "taken@example.com",
		"password":  "longenough",
		"full_name": "Someone Else",
	})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestSignupValidatesInput(t *testing.T) {
	router := newAuthRouter(newFakeProfiles())

	w := postJSON(t, router, "/v1/auth/signup", map[string]string{
		"email":     "not-an-email",
		"password":  "longenough",
		"full_name": "X",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = postJSON(t, router, "/v1/auth/signup", map[string]string{
		"email":     "short@example.com",
		"password":  "short",
		"full_name": "X",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLoginIssuesUsableToken(t *testing.T) {
	profiles := newFakeProfiles()
	hash, err := bcrypt.GenerateFromPassword([]byte("longenough"), bcrypt.MinCost)
	require.NoError(t, err)
	profiles.add(&models.Profile{
		ID:           uuid.New(),
		Email:        "ada@example.com",
		PasswordHash: string(hash),
		Role:         models.RoleManager,
	})
	router := newAuthRouter(profiles)

	w := postJSON(t, router, "/v1/auth/login", map[string]string{
		"email":    "ada@example.com",
		"password": "longenough",
	})
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Token   string         `json:"token"`
		Profile models.Profile `json:"profile"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Token)
	assert.Equal(t, models.RoleManager, resp.Profile.Role)

	claims, err := auth.ParseToken(resp.Token, testJWTSecret)
	require.NoError(t, err)
	assert.Equal(t, resp.Profile.ID, claims.UserID)
	assert.Equal(t, models.RoleManager, claims.Role)
}

func TestLoginDoesNotRevealWhichPartFailed(t *testing.T) {
	profiles := newFakeProfiles()
	hash, _ := bcrypt.GenerateFromPassword([]byte("rightpassword"), bcrypt.MinCost)
	profiles.add(&models.Profile{ID: uuid.New(), Email: "ada@example.com", PasswordHash: string(hash)})
	router := newAuthRouter(profiles)

	wrongPassword := postJSON(t, router, "/v1/auth/login", map[string]string{
		"email":    "ada@example.com",
		"password": "wrongpassword",
	})
	unknownEmail := postJSON(t, router, "/v1/auth/login", map[string]string{
		"email":    "ghost@example.com",
		"password": "whatever",
	})

	assert.Equal(t, http.StatusUnauthorized, wrongPassword.Code)
	assert.Equal(t, http.StatusUnauthorized, unknownEmail.Code)
	assert.JSONEq(t, wrongPassword.Body.String(), unknownEmail.Body.String())
}
