package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"messaging-service/internal/errs"
	grpcclient "messaging-service/internal/grpc"
	"messaging-service/internal/keys"
	"messaging-service/internal/models"
	"messaging-service/internal/repositories"
)

// RealtimeNotifier is the slice of the websocket gateway the HTTP surface
// needs: push a fresh envelope and fan out read receipts.
type RealtimeNotifier interface {
	DeliverNewMessage(ctx context.Context, env models.MessageEnvelope) bool
	NotifyRead(ctx context.Context, sessionID string, readerID int)
}

// MessageHandler manages the encrypted-message endpoints. Bodies arrive
// pre-encrypted; the server never sees plaintext.
type MessageHandler struct {
	messages repositories.MessageRepository
	users    grpcclient.UserDirectory
	keys     *keys.Service
	realtime RealtimeNotifier
}

// NewMessageHandler builds a MessageHandler.
func NewMessageHandler(messages repositories.MessageRepository, users grpcclient.UserDirectory, keyService *keys.Service, realtime RealtimeNotifier) *MessageHandler {
	return &MessageHandler{
		messages: messages,
		users:    users,
		keys:     keyService,
		realtime: realtime,
	}
}

// StartSession resolves the canonical session id for the caller and a
// counterpart, after verifying the two are friends.
func (h *MessageHandler) StartSession(c *gin.Context) {
	var req struct {
		CounterpartID int `json:"counterpart_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, errs.InvalidArg(err.Error()))
		return
	}

	userID := c.GetInt("userID")
	if userID == req.CounterpartID {
		respondError(c, errs.ErrSelfMessage)
		return
	}

	friends, err := h.users.AreFriends(c.Request.Context(), userID, req.CounterpartID)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "failed to validate friendship"})
		return
	}
	if !friends {
		respondError(c, errs.Forbidden("users are not friends"))
		return
	}

	c.JSON(http.StatusOK, gin.H{"session_id": models.SessionIDFor(userID, req.CounterpartID)})
}

// PostMessage appends a pre-encrypted envelope and pushes it to the
// receiver's live connection when one exists.
func (h *MessageHandler) PostMessage(c *gin.Context) {
	var req struct {
		ReceiverID         int     `json:"receiver_id" binding:"required"`
		EncryptedContent   string  `json:"encrypted_content" binding:"required"`
		IV                 string  `json:"iv" binding:"required"`
		AuthTag            string  `json:"auth_tag" binding:"required"`
		SenderWrappedKey   string  `json:"sender_wrapped_key" binding:"required"`
		ReceiverWrappedKey string  `json:"receiver_wrapped_key" binding:"required"`
		ContentHash        string  `json:"content_hash" binding:"required"`
		MessageType        string  `json:"message_type"`
		FileMetadata       *string `json:"file_metadata"`
		ReplyTo            *string `json:"reply_to"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, errs.InvalidArg(err.Error()))
		return
	}

	userID := c.GetInt("userID")
	msgType := models.MessageType(req.MessageType)
	if msgType == "" {
		msgType = models.TypeText
	}
	if msgType != models.TypeText && msgType != models.TypeFile {
		respondError(c, errs.InvalidArg("unsupported message type"))
		return
	}

	env := models.MessageEnvelope{
		SenderID:           userID,
		ReceiverID:         req.ReceiverID,
		EncryptedContent:   req.EncryptedContent,
		IV:                 req.IV,
		AuthTag:            req.AuthTag,
		SenderWrappedKey:   req.SenderWrappedKey,
		ReceiverWrappedKey: req.ReceiverWrappedKey,
		ContentHash:        req.ContentHash,
		MessageType:        msgType,
		FileMetadata:       req.FileMetadata,
		ReplyTo:            req.ReplyTo,
	}

	stored, err := h.messages.Append(c.Request.Context(), env)
	if err != nil {
		respondError(c, err)
		return
	}

	if h.realtime != nil && h.realtime.DeliverNewMessage(c.Request.Context(), stored) {
		stored.Status = models.StatusDelivered
	}

	c.JSON(http.StatusCreated, stored)
}

// ListSessionMessages pages through a conversation, newest first.
func (h *MessageHandler) ListSessionMessages(c *gin.Context) {
	sessionID := c.Param("session_id")
	userID := c.GetInt("userID")
	if !models.SessionMember(sessionID, userID) {
		respondError(c, errs.Forbidden("not a session participant"))
		return
	}

	limit := intQuery(c, "limit", 50)
	offset := intQuery(c, "offset", 0)

	msgs, err := h.messages.ListConversation(c.Request.Context(), sessionID, limit, offset)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"messages": msgs})
}

// MarkSessionRead marks every unread message addressed to the caller in
// the session as read. Re-reads are no-ops and emit no receipt.
func (h *MessageHandler) MarkSessionRead(c *gin.Context) {
	sessionID := c.Param("session_id")
	userID := c.GetInt("userID")
	if !models.SessionMember(sessionID, userID) {
		respondError(c, errs.Forbidden("not a session participant"))
		return
	}

	changed, err := h.messages.MarkRead(c.Request.Context(), sessionID, userID)
	if err != nil {
		respondError(c, err)
		return
	}

	if changed > 0 && h.realtime != nil {
		h.realtime.NotifyRead(c.Request.Context(), sessionID, userID)
	}

	c.JSON(http.StatusOK, gin.H{"updated": changed})
}

// GetMaterial returns the decryption material an envelope participant
// needs client-side: their wrapped content key plus their sealed private
// key. The counterpart's wrapped key is never exposed.
func (h *MessageHandler) GetMaterial(c *gin.Context) {
	messageID := c.Param("message_id")
	userID := c.GetInt("userID")

	env, err := h.messages.GetEnvelope(c.Request.Context(), messageID)
	if err != nil {
		respondError(c, err)
		return
	}
	if !env.Participant(userID) {
		respondError(c, errs.ErrNotParticipant)
		return
	}

	role := "receiver"
	wrappedKey := env.ReceiverWrappedKey
	if env.SenderID == userID {
		role = "sender"
		wrappedKey = env.SenderWrappedKey
	}

	version := intQuery(c, "key_version", 0)
	pair, err := h.keys.GetDecryptionKey(c.Request.Context(), userID, version)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message_id":            env.ID,
		"role":                  role,
		"encrypted_content":     env.EncryptedContent,
		"iv":                    env.IV,
		"auth_tag":              env.AuthTag,
		"wrapped_key":           wrappedKey,
		"content_hash":          env.ContentHash,
		"message_type":          env.MessageType,
		"file_metadata":         env.FileMetadata,
		"encrypted_private_key": pair.EncryptedPrivateKey,
		"key_version":           pair.Version,
	})
}

// DeleteMessage tombstones an envelope for both participants.
func (h *MessageHandler) DeleteMessage(c *gin.Context) {
	messageID := c.Param("message_id")
	userID := c.GetInt("userID")

	if err := h.messages.SoftDelete(c.Request.Context(), messageID, userID); err != nil {
		respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func intQuery(c *gin.Context, name string, fallback int) int {
	raw := c.Query(name)
	if raw == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return parsed
}
