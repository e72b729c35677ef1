package client

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/taskdesk/taskdesk/internal/models"
)

// Entry is one row of a conversation view. Pending entries are
// optimistic placeholders keyed by LocalID until the server confirms.
type Entry struct {
	LocalID uuid.UUID
	Message models.Message
	Pending bool
}

// Thread is the optimistic state of one conversation. Sends append a
// placeholder immediately; the confirmed record replaces it in place,
// and a failed send removes it without touching anything else.
// Multiple sends may be in flight at once.
type Thread struct {
	api       *API
	logger    *zap.Logger
	selfID    uuid.UUID
	partnerID uuid.UUID

	mu      sync.Mutex
	entries []Entry
}

func NewThread(api *API, logger *zap.Logger, selfID, partnerID uuid.UUID) *Thread {
	return &Thread{api: api, logger: logger, selfID: selfID, partnerID: partnerID}
}

// Load replaces the thread with the server's conversation history.
// Pending entries survive the reload so in-flight sends stay visible.
func (t *Thread) Load(ctx context.Context) error {
	msgs, err := t.api.Conversation(ctx, t.partnerID)
	if err != nil {
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	var pending []Entry
	for _, e := range t.entries {
		if e.Pending {
			pending = append(pending, e)
		}
	}
	t.entries = make([]Entry, 0, len(msgs)+len(pending))
	for _, m := range msgs {
		t.entries = append(t.entries, Entry{LocalID: uuid.New(), Message: m})
	}
	t.entries = append(t.entries, pending...)
	return nil
}

// Entries returns a snapshot of the thread in display order.
func (t *Thread) Entries() []Entry {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Entry, len(t.entries))
	copy(out, t.entries)
	return out
}

// Send appends an optimistic entry and confirms it against the server.
// On failure the placeholder is removed and the error returned; prior
// entries are untouched and nothing retries.
func (t *Thread) Send(ctx context.Context, content string) error {
	localID := uuid.New()
	placeholder := Entry{
		LocalID: localID,
		Message: models.Message{
			SenderID:   t.selfID,
			ReceiverID: t.partnerID,
			Content:    content,
			CreatedAt:  time.Now(),
		},
		Pending: true,
	}

	t.mu.Lock()
	t.entries = append(t.entries, placeholder)
	t.mu.Unlock()

	msg, err := t.api.SendMessage(ctx, t.partnerID, content)
	if err != nil {
		t.remove(localID)
		t.logger.Warn("message send failed",
			zap.String("receiver_id", t.partnerID.String()),
			zap.Error(err))
		return err
	}

	t.confirm(localID, *msg)
	return nil
}

// Observe folds a realtime insert from the partner into the thread.
// The caller's own confirmed sends are already present, so those are
// ignored.
func (t *Thread) Observe(msg models.Message) {
	if msg.SenderID != t.partnerID || msg.ReceiverID != t.selfID {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, e := range t.entries {
		if !e.Pending && e.Message.ID == msg.ID {
			return
		}
	}
	t.entries = append(t.entries, Entry{LocalID: uuid.New(), Message: msg})
}

func (t *Thread) confirm(localID uuid.UUID, msg models.Message) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i := range t.entries {
		if t.entries[i].LocalID == localID {
			t.entries[i].Message = msg
			t.entries[i].Pending = false
			return
		}
	}
}

func (t *Thread) remove(localID uuid.UUID) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i := range t.entries {
		if t.entries[i].LocalID == localID {
			t.entries = append(t.entries[:i], t.entries[i+1:]...)
			return
		}
	}
}
