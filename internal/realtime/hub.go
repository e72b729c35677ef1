package realtime

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Hub fans Redis change events out to connected WebSocket sessions.
// Each session holds a per-table subscription set; events reach only
// sessions subscribed to that table (and, when the event is scoped,
// only the named participants).
type Hub struct {
	logger *zap.Logger

	mu      sync.RWMutex
	clients map[*Client]struct{}
}

func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		logger:  logger,
		clients: make(map[*Client]struct{}),
	}
}

// Run consumes the Redis change channel until ctx is cancelled. Runs in
// its own goroutine, one per server instance.
func (h *Hub) Run(ctx context.Context, rdb *redis.Client) {
	sub := rdb.Subscribe(ctx, changeChannel)
	defer sub.Close()

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var event Event
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				h.logger.Warn("bad change event payload", zap.Error(err))
				continue
			}
			h.Dispatch(event)
		}
	}
}

// Dispatch delivers an event to every eligible session. Exported so
// tests (and single-instance deployments without Redis) can feed events
// directly.
func (h *Hub) Dispatch(event Event) {
	payload, err := json.Marshal(event)
	if err != nil {
		h.logger.Error("marshal event for dispatch", zap.Error(err))
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.clients {
		if !c.subscribed(event.Table) {
			continue
		}
		if !event.deliverableTo(c.userID) {
			continue
		}
		select {
		case c.send <- payload:
		default:
			// Slow consumer: drop the event rather than block the hub.
			// The client's next refetch catches it up anyway.
			h.logger.Warn("dropping event for slow client",
				zap.String("user_id", c.userID.String()),
				zap.String("table", event.Table),
			)
		}
	}
}

func (h *Hub) register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c] = struct{}{}
}

// unregister releases the session's subscription slot. Safe to call
// twice; the send channel is closed exactly once.
func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
}

// ClientCount reports connected sessions, for the health endpoint.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// NewClient creates a session for a user. The caller owns the conn and
// must run ReadLoop/WriteLoop (the API layer does).
func (h *Hub) NewClient(userID uuid.UUID, conn wsConn) *Client {
	c := &Client{
		hub:    h,
		userID: userID,
		conn:   conn,
		send:   make(chan []byte, 64),
		subs:   make(map[string]struct{}),
	}
	h.register(c)
	return c
}
