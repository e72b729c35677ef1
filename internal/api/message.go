package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/taskdesk/taskdesk/internal/middleware"
	"github.com/taskdesk/taskdesk/internal/realtime"
	"github.com/taskdesk/taskdesk/internal/repository"
	"go.uber.org/zap"
)

type MessageHandler struct {
	messages repository.MessageRepository
	changes  ChangePublisher
	logger   *zap.Logger
}

func NewMessageHandler(messages repository.MessageRepository, changes ChangePublisher, logger *zap.Logger) *MessageHandler {
	return &MessageHandler{messages: messages, changes: changes, logger: logger}
}

// publish scopes every message event to the two participants; a
// conversation's change feed is never visible to a third account.
func (h *MessageHandler) publish(c *gin.Context, action string, id int64, senderID, receiverID uuid.UUID) {
	sender := senderID
	h.changes.Publish(c.Request.Context(), realtime.Event{
		Table:        realtime.TableMessages,
		Action:       action,
		RowID:        strconv.FormatInt(id, 10),
		ActorID:      middleware.GetUserID(c),
		Participants: []uuid.UUID{senderID, receiverID},
		SenderID:     &sender,
	})
}

// Contacts handles GET /v1/contacts.
func (h *MessageHandler) Contacts(c *gin.Context) {
	contacts, err := h.messages.Contacts(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		fail(c, h.logger, "list contacts", err)
		return
	}
	c.JSON(http.StatusOK, contacts)
}

// Conversation handles GET /v1/conversations/:userID; both directions,
// oldest first. The caller is always one side of the OR predicate, so
// someone else's conversation cannot be fetched by guessing IDs.
func (h *MessageHandler) Conversation(c *gin.Context) {
	otherID, err := uuid.Parse(c.Param("userID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user ID"})
		return
	}

	messages, err := h.messages.Conversation(c.Request.Context(), middleware.GetUserID(c), otherID)
	if err != nil {
		fail(c, h.logger, "list conversation", err)
		return
	}
	c.JSON(http.StatusOK, messages)
}

type sendMessageRequest struct {
	ReceiverID uuid.UUID `json:"receiver_id" binding:"required"`
	Content    string    `json:"content" binding:"required,min=1,max=4000"`
}

// Send handles POST /v1/messages.
func (h *MessageHandler) Send(c *gin.Context) {
	var req sendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	senderID := middleware.GetUserID(c)
	if req.ReceiverID == senderID {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot message yourself"})
		return
	}

	msg, err := h.messages.Create(c.Request.Context(), senderID, req.ReceiverID, req.Content)
	if err != nil {
		fail(c, h.logger, "send message", err)
		return
	}

	h.publish(c, realtime.ActionInsert, msg.ID, msg.SenderID, msg.ReceiverID)
	c.JSON(http.StatusCreated, msg)
}

type editMessageRequest struct {
	Content string `json:"content" binding:"required,min=1,max=4000"`
}

// Edit handles PATCH /v1/messages/:id. Sender-scoped in the store.
func (h *MessageHandler) Edit(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid message ID"})
		return
	}

	var req editMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	msg, err := h.messages.UpdateContent(c.Request.Context(), id, middleware.GetUserID(c), req.Content)
	if err != nil {
		fail(c, h.logger, "edit message", err)
		return
	}

	h.publish(c, realtime.ActionUpdate, msg.ID, msg.SenderID, msg.ReceiverID)
	c.JSON(http.StatusOK, msg)
}

// Delete handles DELETE /v1/messages/:id. Sender-scoped in the store.
func (h *MessageHandler) Delete(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid message ID"})
		return
	}

	senderID := middleware.GetUserID(c)
	receiverID, err := h.messages.Delete(c.Request.Context(), id, senderID)
	if err != nil {
		fail(c, h.logger, "delete message", err)
		return
	}

	h.publish(c, realtime.ActionDelete, id, senderID, receiverID)
	c.Status(http.StatusNoContent)
}

// MarkRead handles POST /v1/conversations/:userID/read; the receiver
// viewing a conversation. Only the caller's own incoming rows flip.
func (h *MessageHandler) MarkRead(c *gin.Context) {
	otherID, err := uuid.Parse(c.Param("userID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user ID"})
		return
	}

	flipped, err := h.messages.MarkConversationRead(c.Request.Context(), middleware.GetUserID(c), otherID)
	if err != nil {
		fail(c, h.logger, "mark conversation read", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"marked_read": flipped})
}

// UnreadCount handles GET /v1/unread; the sidebar badge total.
func (h *MessageHandler) UnreadCount(c *gin.Context) {
	n, err := h.messages.UnreadTotal(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		fail(c, h.logger, "count unread", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"unread": n})
}
