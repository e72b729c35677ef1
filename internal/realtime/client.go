package realtime

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

// wsConn is the slice of *websocket.Conn the session uses; an interface
// so hub tests can run without real sockets.
type wsConn interface {
	ReadMessage() (int, []byte, error)
	WriteMessage(messageType int, data []byte) error
	SetReadDeadline(t time.Time) error
	SetWriteDeadline(t time.Time) error
	SetPongHandler(h func(string) error)
	Close() error
}

// Client is one WebSocket session. Subscriptions are acquired by
// subscribe frames and released wholesale when the socket closes, so a
// gone client stops consuming a slot immediately.
type Client struct {
	hub    *Hub
	userID uuid.UUID
	conn   wsConn
	send   chan []byte

	mu   sync.RWMutex
	subs map[string]struct{}
}

// frame is what the client sends: subscribe/unsubscribe per table.
type frame struct {
	Op    string `json:"op"`
	Table string `json:"table"`
}

func (c *Client) subscribed(table string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.subs[table]
	return ok
}

func (c *Client) handleFrame(f frame, logger *zap.Logger) {
	if !ValidTable(f.Table) {
		logger.Debug("subscribe to unknown table", zap.String("table", f.Table))
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	switch f.Op {
	case "subscribe":
		c.subs[f.Table] = struct{}{}
	case "unsubscribe":
		delete(c.subs, f.Table)
	}
}

// ReadLoop consumes subscribe/unsubscribe frames until the socket dies,
// then tears the session down.
func (c *Client) ReadLoop(logger *zap.Logger) {
	defer func() {
		c.hub.unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Debug("websocket read error", zap.Error(err))
			}
			return
		}
		var f frame
		if err := json.Unmarshal(data, &f); err != nil {
			logger.Debug("bad websocket frame", zap.Error(err))
			continue
		}
		c.handleFrame(f, logger)
	}
}

// WriteLoop pushes queued events and keepalive pings to the socket.
func (c *Client) WriteLoop() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case payload, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
