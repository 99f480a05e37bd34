package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"messaging-service/internal/conversations"
	"messaging-service/internal/repositories"
)

// ConversationHandler serves inbox-style summaries.
type ConversationHandler struct {
	aggregator *conversations.Aggregator
	messages   repositories.MessageRepository
}

// NewConversationHandler builds a ConversationHandler.
func NewConversationHandler(aggregator *conversations.Aggregator, messages repositories.MessageRepository) *ConversationHandler {
	return &ConversationHandler{aggregator: aggregator, messages: messages}
}

// ListConversations returns the caller's recent conversations with last
// message, unread count, counterpart profile and live presence.
func (h *ConversationHandler) ListConversations(c *gin.Context) {
	userID := c.GetInt("userID")
	limit := intQuery(c, "limit", 20)

	summaries, err := h.aggregator.RecentConversations(c.Request.Context(), userID, limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"conversations": summaries})
}

// UnreadCount returns the total number of unread messages addressed to
// the caller across all sessions, for badge rendering.
func (h *ConversationHandler) UnreadCount(c *gin.Context) {
	userID := c.GetInt("userID")

	count, err := h.messages.CountUnread(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"unread": count})
}
