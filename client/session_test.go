package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/taskdesk/taskdesk/internal/models"
)

type memoryTokens struct {
	token string
}

func (m *memoryTokens) Load() string      { return m.token }
func (m *memoryTokens) Save(token string) { m.token = token }
func (m *memoryTokens) Clear()            { m.token = "" }

func newSessionServer(t *testing.T, profile models.Profile) *API {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/auth/login", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Email    string `json:"email"`
			Password string `json:"password"`
		}
		json.NewDecoder(r.Body).Decode(&body)
		if body.Password != "correct horse" {
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(map[string]string{"error": "invalid email or password"})
			return
		}
		json.NewEncoder(w).Encode(loginResponse{Token: "issued-token", Profile: profile})
	})
	mux.HandleFunc("/v1/auth/signup", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(profile)
	})
	mux.HandleFunc("/v1/auth/session", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer issued-token" {
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(map[string]string{"error": "invalid token"})
			return
		}
		json.NewEncoder(w).Encode(profile)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return NewAPI(srv.URL)
}

func TestLoadSessionWithoutTokenResolvesSignedOut(t *testing.T) {
	api := newSessionServer(t, models.Profile{})
	store := NewStore(api, &memoryTokens{}, zap.NewNop())

	assert.True(t, store.Current().Loading)
	store.LoadSession(context.Background())

	session := store.Current()
	assert.False(t, session.Loading)
	assert.False(t, session.Authenticated())
}

func TestLoadSessionRejectedTokenClearsStore(t *testing.T) {
	api := newSessionServer(t, models.Profile{})
	tokens := &memoryTokens{token: "stale-token"}
	store := NewStore(api, tokens, zap.NewNop())

	store.LoadSession(context.Background())

	session := store.Current()
	assert.False(t, session.Loading)
	assert.False(t, session.Authenticated())
	assert.Empty(t, tokens.Load())
	assert.Empty(t, api.Token())
}

func TestLoadSessionRestoresProfile(t *testing.T) {
	profile := models.Profile{ID: uuid.New(), Email: "ada@example.com", Role: models.RoleManager}
	api := newSessionServer(t, profile)
	store := NewStore(api, &memoryTokens{token: "issued-token"}, zap.NewNop())

	store.LoadSession(context.Background())

	session := store.Current()
	require.True(t, session.Authenticated())
	assert.Equal(t, profile.ID, session.Profile.ID)
	assert.Equal(t, models.RoleManager, session.Profile.Role)
}

func TestSignInNotifiesSubscribers(t *testing.T) {
	profile := models.Profile{ID: uuid.New(), Email: "ada@example.com", Role: models.RoleWorker}
	api := newSessionServer(t, profile)
	tokens := &memoryTokens{}
	store := NewStore(api, tokens, zap.NewNop())

	var states []Session
	unsubscribe := store.Subscribe(func(s Session) { states = append(states, s) })
	defer unsubscribe()

	require.NoError(t, store.SignIn(context.Background(), "ada@example.com", "correct horse"))

	// The immediate snapshot plus the sign-in notification.
	require.Len(t, states, 2)
	assert.True(t, states[0].Loading)
	assert.True(t, states[1].Authenticated())
	assert.Equal(t, "issued-token", tokens.Load())
}

func TestSignInFailureLeavesStoreUntouched(t *testing.T) {
	api := newSessionServer(t, models.Profile{})
	tokens := &memoryTokens{}
	store := NewStore(api, tokens, zap.NewNop())
	store.LoadSession(context.Background())

	err := store.SignIn(context.Background(), "ada@example.com", "wrong")
	require.Error(t, err)
	assert.True(t, IsStatus(err, http.StatusUnauthorized))
	assert.False(t, store.Current().Authenticated())
	assert.Empty(t, tokens.Load())
}

func TestSignUpDoesNotAuthenticate(t *testing.T) {
	profile := models.Profile{ID: uuid.New(), Email: "new@example.com", Role: models.RoleWorker}
	api := newSessionServer(t, profile)
	store := NewStore(api, &memoryTokens{}, zap.NewNop())
	store.LoadSession(context.Background())

	created, err := store.SignUp(context.Background(), "new@example.com", "longenough", "New User")
	require.NoError(t, err)
	assert.Equal(t, profile.ID, created.ID)
	assert.False(t, store.Current().Authenticated())
	assert.Empty(t, store.api.Token())
}

func TestSignOutClearsEverything(t *testing.T) {
	profile := models.Profile{ID: uuid.New(), Role: models.RoleWorker}
	api := newSessionServer(t, profile)
	tokens := &memoryTokens{}
	store := NewStore(api, tokens, zap.NewNop())
	require.NoError(t, store.SignIn(context.Background(), "a@b.c", "correct horse"))

	store.SignOut()

	assert.False(t, store.Current().Authenticated())
	assert.Empty(t, tokens.Load())
	assert.Empty(t, api.Token())
}
