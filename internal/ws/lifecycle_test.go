package ws

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"messaging-service/internal/mocks"
	"messaging-service/internal/models"
	"messaging-service/internal/presence"
)

// lifecycleEnv runs the gateway behind a real HTTP upgrade so tests cover
// the full connect, dispatch, and teardown sequence.
type lifecycleEnv struct {
	gateway  *Gateway
	hub      *Hub
	registry *presence.MemoryRegistry
	messages *mocks.MessageRepositoryMock
	users    *mocks.UserDirectoryMock
	server   *httptest.Server
}

func newLifecycleEnv(t *testing.T) *lifecycleEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	auth := new(mocks.TokenVerifierMock)
	auth.On("ValidateToken", mock.Anything, "token-1").Return(1, nil)

	users := new(mocks.UserDirectoryMock)
	users.On("FriendIDs", mock.Anything, mock.Anything).Return([]int{}, nil).Maybe()
	users.On("UpdateLastSeen", mock.Anything, mock.Anything, mock.Anything).Return(nil).Maybe()

	env := &lifecycleEnv{
		hub:      NewHub(),
		registry: presence.NewMemoryRegistry(),
		messages: new(mocks.MessageRepositoryMock),
		users:    users,
	}
	env.gateway = NewGateway(env.hub, env.hub, env.registry, env.messages, users, auth, testRealtimeConfig())

	router := gin.New()
	router.GET("/ws", env.gateway.Handle)
	env.server = httptest.NewServer(router)
	t.Cleanup(env.server.Close)
	return env
}

func (e *lifecycleEnv) dial(t *testing.T, token string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(e.server.URL, "http") + "/ws?token=" + token
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	if resp != nil {
		resp.Body.Close()
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func (e *lifecycleEnv) waitForConn(t *testing.T, userID int, not string) string {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		entry, ok, err := e.registry.Lookup(context.Background(), userID)
		require.NoError(t, err)
		if ok && entry.ConnectionID != not {
			return entry.ConnectionID
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("presence entry did not appear")
	return ""
}

func readFrame(t *testing.T, conn *websocket.Conn) frame {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	var f frame
	require.NoError(t, json.Unmarshal(data, &f))
	return f
}

func writeEvent(t *testing.T, conn *websocket.Conn, ev Event) {
	t.Helper()
	payload, err := EncodeFrame(ev)
	require.NoError(t, err)
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, payload))
}

// A frame sent well after the handshake must reach the store on a live
// context. The request context dies when Handle returns, so dispatching
// on it would fail every store call with context.Canceled.
func TestSendMessageAfterHandshakeReachesStore(t *testing.T) {
	env := newLifecycleEnv(t)

	stored := models.MessageEnvelope{ID: "m-1", SenderID: 1, ReceiverID: 2, SessionID: "1:2", Status: models.StatusSent}
	ctxErr := make(chan error, 1)
	env.messages.On("Append", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			ctxErr <- args.Get(0).(context.Context).Err()
		}).
		Return(stored, nil).Once()

	conn := env.dial(t, "token-1")
	env.waitForConn(t, 1, "")

	// Long enough for net/http to cancel the request context.
	time.Sleep(150 * time.Millisecond)

	writeEvent(t, conn, &SendMessage{
		ReceiverID:         2,
		EncryptedContent:   "Y2lwaGVy",
		IV:                 "aXY=",
		AuthTag:            "dGFn",
		SenderWrappedKey:   "c2VuZGVy",
		ReceiverWrappedKey: "cmVjZWl2ZXI=",
		ContentHash:        "deadbeef",
	})

	f := readFrame(t, conn)
	assert.Equal(t, KindMessageSent, f.Type)

	select {
	case err := <-ctxErr:
		assert.NoError(t, err, "store call ran on a dead context")
	case <-time.After(2 * time.Second):
		t.Fatal("append was never called")
	}
}

// A second login supersedes the first. The closed socket can still be a
// member of its user room until its read loop tears down, and a publish
// in that window must neither panic nor go to the old connection.
func TestSupersededConnectionSurvivesRoomPublish(t *testing.T) {
	env := newLifecycleEnv(t)

	first := env.dial(t, "token-1")
	firstConn := env.waitForConn(t, 1, "")

	second := env.dial(t, "token-1")
	env.waitForConn(t, 1, firstConn)

	env.hub.Publish(userRoom(1), &Notification{Title: "hello", Body: "still here"})

	f := readFrame(t, second)
	assert.Equal(t, KindNotification, f.Type)

	// The superseded socket was told to go away.
	require.NoError(t, first.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err := first.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure), "expected a normal close, got %v", err)
}

// Publishing to a room that still holds a closed client must be a no-op
// for that client, not a panic.
func TestPublishAfterCloseIsNoOp(t *testing.T) {
	hub := NewHub()
	client := testClient("conn-a", 1)
	hub.Register(client)
	hub.Join(userRoom(1), client)

	client.Close("superseded by a newer session")
	hub.Publish(userRoom(1), &Notification{Title: "hello"})

	_, open := <-client.send
	assert.False(t, open, "send channel should be closed with nothing queued")
}
