package api

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/taskdesk/taskdesk/internal/apperr"
	"github.com/taskdesk/taskdesk/internal/realtime"
	"go.uber.org/zap"
)

// ChangePublisher is what mutation handlers need from the realtime
// layer. Satisfied by *realtime.Publisher.
type ChangePublisher interface {
	Publish(ctx context.Context, event realtime.Event)
}

// fail logs the diagnostic cause and answers with the taxonomy's status
// and user-facing message. Raw backend errors stop here; the response
// body only ever carries the sanitized message.
func fail(c *gin.Context, logger *zap.Logger, op string, err error) {
	logger.Error(op, zap.Error(err))
	c.JSON(apperr.Status(err), gin.H{"error": apperr.MessageOf(err)})
}
