package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"messaging-service/internal/errs"
	"messaging-service/internal/keys"
	"messaging-service/internal/mocks"
	"messaging-service/internal/models"
)

type notifierMock struct {
	mock.Mock
}

func (m *notifierMock) DeliverNewMessage(ctx context.Context, env models.MessageEnvelope) bool {
	args := m.Called(ctx, env)
	return args.Bool(0)
}

func (m *notifierMock) NotifyRead(ctx context.Context, sessionID string, readerID int) {
	m.Called(ctx, sessionID, readerID)
}

func setupMessageRouter(handler *MessageHandler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("userID", 1)
		c.Next()
	})
	r.POST("/sessions/start", handler.StartSession)
	r.GET("/sessions/:session_id/messages", handler.ListSessionMessages)
	r.POST("/sessions/:session_id/read", handler.MarkSessionRead)
	r.POST("/messages", handler.PostMessage)
	r.GET("/messages/:message_id/material", handler.GetMaterial)
	r.DELETE("/messages/:message_id", handler.DeleteMessage)
	return r
}

func postJSON(t *testing.T, router *gin.Engine, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func validPostBody() map[string]any {
	return map[string]any{
		"receiver_id":          2,
		"encrypted_content":    "Y2lwaGVy",
		"iv":                   "aXY=",
		"auth_tag":             "dGFn",
		"sender_wrapped_key":   "c2VuZGVy",
		"receiver_wrapped_key": "cmVjZWl2ZXI=",
		"content_hash":         "deadbeef",
	}
}

func TestStartSessionReturnsCanonicalID(t *testing.T) {
	users := new(mocks.UserDirectoryMock)
	handler := NewMessageHandler(nil, users, nil, nil)
	router := setupMessageRouter(handler)

	users.On("AreFriends", mock.Anything, 1, 2).Return(true, nil).Once()

	rec := postJSON(t, router, "/sessions/start", map[string]any{"counterpart_id": 2})

	require.Equal(t, http.StatusOK, rec.Code)
	var resp map[string]string
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "1:2", resp["session_id"])
	users.AssertExpectations(t)
}

func TestStartSessionRejectsNonFriends(t *testing.T) {
	users := new(mocks.UserDirectoryMock)
	handler := NewMessageHandler(nil, users, nil, nil)
	router := setupMessageRouter(handler)

	users.On("AreFriends", mock.Anything, 1, 2).Return(false, nil).Once()

	rec := postJSON(t, router, "/sessions/start", map[string]any{"counterpart_id": 2})
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestStartSessionRejectsSelf(t *testing.T) {
	handler := NewMessageHandler(nil, nil, nil, nil)
	router := setupMessageRouter(handler)

	rec := postJSON(t, router, "/sessions/start", map[string]any{"counterpart_id": 1})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPostMessageDeliversToOnlineReceiver(t *testing.T) {
	messages := new(mocks.MessageRepositoryMock)
	notifier := new(notifierMock)
	handler := NewMessageHandler(messages, nil, nil, notifier)
	router := setupMessageRouter(handler)

	stored := models.MessageEnvelope{
		ID: "m-1", SenderID: 1, ReceiverID: 2, SessionID: "1:2",
		Status: models.StatusSent,
	}
	messages.On("Append", mock.Anything, mock.MatchedBy(func(env models.MessageEnvelope) bool {
		return env.SenderID == 1 && env.ReceiverID == 2 && env.MessageType == models.TypeText
	})).Return(stored, nil).Once()
	notifier.On("DeliverNewMessage", mock.Anything, stored).Return(true).Once()

	rec := postJSON(t, router, "/messages", validPostBody())

	require.Equal(t, http.StatusCreated, rec.Code)
	var resp models.MessageEnvelope
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, models.StatusDelivered, resp.Status)
	messages.AssertExpectations(t)
	notifier.AssertExpectations(t)
}

func TestPostMessageOfflineReceiverStaysSent(t *testing.T) {
	messages := new(mocks.MessageRepositoryMock)
	notifier := new(notifierMock)
	handler := NewMessageHandler(messages, nil, nil, notifier)
	router := setupMessageRouter(handler)

	stored := models.MessageEnvelope{ID: "m-1", SenderID: 1, ReceiverID: 2, Status: models.StatusSent}
	messages.On("Append", mock.Anything, mock.Anything).Return(stored, nil).Once()
	notifier.On("DeliverNewMessage", mock.Anything, stored).Return(false).Once()

	rec := postJSON(t, router, "/messages", validPostBody())

	require.Equal(t, http.StatusCreated, rec.Code)
	var resp models.MessageEnvelope
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, models.StatusSent, resp.Status)
}

func TestPostMessageRejectsSelf(t *testing.T) {
	messages := new(mocks.MessageRepositoryMock)
	handler := NewMessageHandler(messages, nil, nil, nil)
	router := setupMessageRouter(handler)

	messages.On("Append", mock.Anything, mock.Anything).Return(nil, errs.ErrSelfMessage).Once()

	body := validPostBody()
	body["receiver_id"] = 1
	rec := postJSON(t, router, "/messages", body)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPostMessageRejectsMissingCryptoFields(t *testing.T) {
	handler := NewMessageHandler(nil, nil, nil, nil)
	router := setupMessageRouter(handler)

	body := validPostBody()
	delete(body, "auth_tag")
	rec := postJSON(t, router, "/messages", body)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListSessionMessagesRequiresMembership(t *testing.T) {
	handler := NewMessageHandler(nil, nil, nil, nil)
	router := setupMessageRouter(handler)

	req := httptest.NewRequest(http.MethodGet, "/sessions/2:3/messages", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestListSessionMessagesSuccess(t *testing.T) {
	messages := new(mocks.MessageRepositoryMock)
	handler := NewMessageHandler(messages, nil, nil, nil)
	router := setupMessageRouter(handler)

	messages.On("ListConversation", mock.Anything, "1:2", 10, 0).
		Return([]models.MessageEnvelope{{ID: "m-1", SessionID: "1:2"}}, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/sessions/1:2/messages?limit=10", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	messages.AssertExpectations(t)
}

func TestMarkSessionReadEmitsReceiptOnce(t *testing.T) {
	messages := new(mocks.MessageRepositoryMock)
	notifier := new(notifierMock)
	handler := NewMessageHandler(messages, nil, nil, notifier)
	router := setupMessageRouter(handler)

	messages.On("MarkRead", mock.Anything, "1:2", 1).Return(3, nil).Once()
	notifier.On("NotifyRead", mock.Anything, "1:2", 1).Return().Once()

	rec := postJSON(t, router, "/sessions/1:2/read", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	notifier.AssertExpectations(t)
}

func TestMarkSessionReadIdempotent(t *testing.T) {
	messages := new(mocks.MessageRepositoryMock)
	notifier := new(notifierMock)
	handler := NewMessageHandler(messages, nil, nil, notifier)
	router := setupMessageRouter(handler)

	messages.On("MarkRead", mock.Anything, "1:2", 1).Return(0, nil).Once()

	rec := postJSON(t, router, "/sessions/1:2/read", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	notifier.AssertNotCalled(t, "NotifyRead", mock.Anything, mock.Anything, mock.Anything)
}

func TestGetMaterialReturnsViewerWrappedKey(t *testing.T) {
	messages := new(mocks.MessageRepositoryMock)
	keyRepo := new(mocks.KeyRepositoryMock)
	handler := NewMessageHandler(messages, nil, keys.NewService(keyRepo, "secret"), nil)
	router := setupMessageRouter(handler)

	messages.On("GetEnvelope", mock.Anything, "m-1").Return(models.MessageEnvelope{
		ID: "m-1", SenderID: 1, ReceiverID: 2,
		SenderWrappedKey: "for-sender", ReceiverWrappedKey: "for-receiver",
	}, nil).Once()
	keyRepo.On("Current", mock.Anything, 1).Return(models.UserKeyPair{
		UserID: 1, EncryptedPrivateKey: "sealed", Version: 1,
	}, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/messages/m-1/material", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "sender", resp["role"])
	assert.Equal(t, "for-sender", resp["wrapped_key"])
	assert.Equal(t, "sealed", resp["encrypted_private_key"])
}

func TestGetMaterialRejectsNonParticipant(t *testing.T) {
	messages := new(mocks.MessageRepositoryMock)
	handler := NewMessageHandler(messages, nil, nil, nil)
	router := setupMessageRouter(handler)

	messages.On("GetEnvelope", mock.Anything, "m-1").Return(models.MessageEnvelope{
		ID: "m-1", SenderID: 5, ReceiverID: 6,
	}, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/messages/m-1/material", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestDeleteMessage(t *testing.T) {
	messages := new(mocks.MessageRepositoryMock)
	handler := NewMessageHandler(messages, nil, nil, nil)
	router := setupMessageRouter(handler)

	messages.On("SoftDelete", mock.Anything, "m-1", 1).Return(nil).Once()

	req := httptest.NewRequest(http.MethodDelete, "/messages/m-1", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	messages.AssertExpectations(t)
}

func TestDeleteMessageNotFound(t *testing.T) {
	messages := new(mocks.MessageRepositoryMock)
	handler := NewMessageHandler(messages, nil, nil, nil)
	router := setupMessageRouter(handler)

	messages.On("SoftDelete", mock.Anything, "m-1", 1).Return(errs.ErrMessageNotFound).Once()

	req := httptest.NewRequest(http.MethodDelete, "/messages/m-1", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
