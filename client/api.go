// Package client holds the state layer a frontend builds on: an HTTP
// API client, the session store, the access gate, debounced search,
// the optimistic message thread, unread counters and the refetch
// coordinator that keeps cached views consistent with realtime change
// notifications.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/taskdesk/taskdesk/internal/models"
)

// APIError carries the status and message the server answered with.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api: %d %s", e.Status, e.Message)
}

// IsStatus reports whether err is an APIError with the given status.
func IsStatus(err error, status int) bool {
	apiErr, ok := err.(*APIError)
	return ok && apiErr.Status == status
}

// API is the typed HTTP client for the server's /v1 surface.
type API struct {
	BaseURL string
	HTTP    *http.Client

	token string
}

func NewAPI(baseURL string) *API {
	return &API{
		BaseURL: baseURL,
		HTTP:    &http.Client{Timeout: 15 * time.Second},
	}
}

// SetToken installs the bearer token used on subsequent requests.
// An empty token clears it.
func (a *API) SetToken(token string) { a.token = token }

func (a *API) Token() string { return a.token }

func (a *API) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, a.BaseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if a.token != "" {
		req.Header.Set("Authorization", "Bearer "+a.token)
	}

	resp, err := a.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var payload struct {
			Error string `json:"error"`
		}
		raw, _ := io.ReadAll(resp.Body)
		if json.Unmarshal(raw, &payload) != nil || payload.Error == "" {
			payload.Error = http.StatusText(resp.StatusCode)
		}
		return &APIError{Status: resp.StatusCode, Message: payload.Error}
	}

	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

type loginResponse struct {
	Token   string         `json:"token"`
	Profile models.Profile `json:"profile"`
}

func (a *API) Login(ctx context.Context, email, password string) (string, *models.Profile, error) {
	var resp loginResponse
	err := a.do(ctx, http.MethodPost, "/v1/auth/login", map[string]string{
		"email":    email,
		"password": password,
	}, &resp)
	if err != nil {
		return "", nil, err
	}
	return resp.Token, &resp.Profile, nil
}

func (a *API) Signup(ctx context.Context, email, password, fullName string) (*models.Profile, error) {
	var profile models.Profile
	err := a.do(ctx, http.MethodPost, "/v1/auth/signup", map[string]string{
		"email":     email,
		"password":  password,
		"full_name": fullName,
	}, &profile)
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

func (a *API) Session(ctx context.Context) (*models.Profile, error) {
	var profile models.Profile
	if err := a.do(ctx, http.MethodGet, "/v1/auth/session", nil, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

func (a *API) UpdateProfile(ctx context.Context, fullName string) (*models.Profile, error) {
	var profile models.Profile
	err := a.do(ctx, http.MethodPatch, "/v1/profiles/me", map[string]string{
		"full_name": fullName,
	}, &profile)
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

func (a *API) SearchProfiles(ctx context.Context, query string, limit int) ([]models.Profile, error) {
	q := url.Values{}
	q.Set("q", query)
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	var profiles []models.Profile
	if err := a.do(ctx, http.MethodGet, "/v1/profiles/search?"+q.Encode(), nil, &profiles); err != nil {
		return nil, err
	}
	return profiles, nil
}

func (a *API) ListTasks(ctx context.Context, query url.Values) ([]models.Task, error) {
	path := "/v1/tasks"
	if len(query) > 0 {
		path += "?" + query.Encode()
	}
	var tasks []models.Task
	if err := a.do(ctx, http.MethodGet, path, nil, &tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

func (a *API) ListTeams(ctx context.Context) ([]models.Team, error) {
	var teams []models.Team
	if err := a.do(ctx, http.MethodGet, "/v1/teams", nil, &teams); err != nil {
		return nil, err
	}
	return teams, nil
}

func (a *API) Contacts(ctx context.Context) ([]models.Contact, error) {
	var contacts []models.Contact
	if err := a.do(ctx, http.MethodGet, "/v1/contacts", nil, &contacts); err != nil {
		return nil, err
	}
	return contacts, nil
}

func (a *API) Conversation(ctx context.Context, userID uuid.UUID) ([]models.Message, error) {
	var msgs []models.Message
	if err := a.do(ctx, http.MethodGet, "/v1/conversations/"+userID.String(), nil, &msgs); err != nil {
		return nil, err
	}
	return msgs, nil
}

func (a *API) SendMessage(ctx context.Context, receiverID uuid.UUID, content string) (*models.Message, error) {
	var msg models.Message
	err := a.do(ctx, http.MethodPost, "/v1/messages", map[string]any{
		"receiver_id": receiverID,
		"content":     content,
	}, &msg)
	if err != nil {
		return nil, err
	}
	return &msg, nil
}

func (a *API) MarkConversationRead(ctx context.Context, userID uuid.UUID) error {
	return a.do(ctx, http.MethodPost, "/v1/conversations/"+userID.String()+"/read", nil, nil)
}

func (a *API) Settings(ctx context.Context) (*models.AppSettings, error) {
	var settings models.AppSettings
	if err := a.do(ctx, http.MethodGet, "/v1/settings", nil, &settings); err != nil {
		return nil, err
	}
	return &settings, nil
}
