package realtime

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// changeChannel is the Redis pub/sub channel carrying change events
// between server instances.
const changeChannel = "taskdesk:changes"

// Publisher pushes change events into Redis after successful mutations.
// Publishing is best-effort: a failed publish is logged, never surfaced
// to the request that caused it; the write already committed.
type Publisher struct {
	rdb    *redis.Client
	logger *zap.Logger
}

func NewPublisher(rdb *redis.Client, logger *zap.Logger) *Publisher {
	return &Publisher{rdb: rdb, logger: logger}
}

func (p *Publisher) Publish(ctx context.Context, event Event) {
	payload, err := json.Marshal(event)
	if err != nil {
		p.logger.Error("marshal change event", zap.Error(err))
		return
	}
	if err := p.rdb.Publish(ctx, changeChannel, payload).Err(); err != nil {
		p.logger.Error("publish change event",
			zap.String("table", event.Table),
			zap.Error(err),
		)
	}
}
