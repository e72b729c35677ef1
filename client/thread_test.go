package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/taskdesk/taskdesk/internal/models"
)

func newThreadServer(t *testing.T, handler http.HandlerFunc) *API {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	api := NewAPI(srv.URL)
	api.SetToken("test-token")
	return api
}

func TestThreadSendConfirmsInPlace(t *testing.T) {
	self := uuid.New()
	partner := uuid.New()

	api := newThreadServer(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/v1/messages", r.URL.Path)

		var body struct {
			ReceiverID uuid.UUID `json:"receiver_id"`
			Content    string    `json:"content"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))

		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(models.Message{
			ID:         42,
			SenderID:   self,
			ReceiverID: body.ReceiverID,
			Content:    body.Content,
			CreatedAt:  time.Now(),
		})
	})

	thread := NewThread(api, zap.NewNop(), self, partner)
	require.NoError(t, thread.Send(context.Background(), "hello"))

	entries := thread.Entries()
	require.Len(t, entries, 1)
	assert.False(t, entries[0].Pending)
	assert.Equal(t, int64(42), entries[0].Message.ID)
	assert.Equal(t, "hello", entries[0].Message.Content)
}

func TestThreadSendFailureRemovesPlaceholder(t *testing.T) {
	self := uuid.New()
	partner := uuid.New()

	api := newThreadServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{"error": "message content is required"})
	})

	thread := NewThread(api, zap.NewNop(), self, partner)
	err := thread.Send(context.Background(), "")

	require.Error(t, err)
	assert.True(t, IsStatus(err, http.StatusBadRequest))
	assert.Empty(t, thread.Entries())
}

func TestThreadMultipleInFlightSends(t *testing.T) {
	self := uuid.New()
	partner := uuid.New()

	release := make(chan struct{})
	var nextID atomic.Int64

	api := newThreadServer(t, func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Content string `json:"content"`
		}
		json.NewDecoder(r.Body).Decode(&body)
		<-release
		json.NewEncoder(w).Encode(models.Message{
			ID:         nextID.Add(1),
			SenderID:   self,
			ReceiverID: partner,
			Content:    body.Content,
		})
	})

	thread := NewThread(api, zap.NewNop(), self, partner)

	var wg sync.WaitGroup
	for _, content := range []string{"one", "two"} {
		wg.Add(1)
		go func(content string) {
			defer wg.Done()
			assert.NoError(t, thread.Send(context.Background(), content))
		}(content)
	}

	// Both placeholders should be visible while the sends are held.
	require.Eventually(t, func() bool {
		entries := thread.Entries()
		pending := 0
		for _, e := range entries {
			if e.Pending {
				pending++
			}
		}
		return pending == 2
	}, time.Second, 5*time.Millisecond)

	close(release)
	wg.Wait()

	entries := thread.Entries()
	require.Len(t, entries, 2)
	seen := map[int64]bool{}
	for _, e := range entries {
		assert.False(t, e.Pending)
		seen[e.Message.ID] = true
	}
	assert.Len(t, seen, 2)
}

func TestThreadObserveFiltersAndDeduplicates(t *testing.T) {
	self := uuid.New()
	partner := uuid.New()
	stranger := uuid.New()

	thread := NewThread(nil, zap.NewNop(), self, partner)

	incoming := models.Message{ID: 7, SenderID: partner, ReceiverID: self, Content: "hi"}
	thread.Observe(incoming)
	thread.Observe(incoming)
	// Someone else's conversation does not leak in.
	thread.Observe(models.Message{ID: 8, SenderID: stranger, ReceiverID: self})
	thread.Observe(models.Message{ID: 9, SenderID: partner, ReceiverID: stranger})

	entries := thread.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, int64(7), entries[0].Message.ID)
}
