package ws

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"messaging-service/internal/config"
	"messaging-service/internal/mocks"
	"messaging-service/internal/models"
)

func testRealtimeConfig() config.Realtime {
	return config.Realtime{PongWait: time.Minute, PingPeriod: 54 * time.Second, SendBuffer: 8}
}

func receivedKinds(t *testing.T, c *Client) []Kind {
	t.Helper()
	var kinds []Kind
	for {
		select {
		case payload := <-c.send:
			var f struct {
				Type Kind `json:"type"`
			}
			require.NoError(t, json.Unmarshal(payload, &f))
			kinds = append(kinds, f.Type)
		default:
			return kinds
		}
	}
}

func TestDeliverNewMessagePushesToOnlineReceiver(t *testing.T) {
	hub := NewHub()
	registry := new(mocks.RegistryMock)
	messages := new(mocks.MessageRepositoryMock)
	g := NewGateway(hub, hub, registry, messages, nil, nil, testRealtimeConfig())

	receiver := testClient("conn-b", 2)
	hub.Register(receiver)
	hub.Join(userRoom(2), receiver)

	env := models.MessageEnvelope{ID: "m-1", SenderID: 1, ReceiverID: 2, SessionID: "1:2"}
	registry.On("IsOnline", mock.Anything, 2).Return(true, nil).Once()
	messages.On("MarkDelivered", mock.Anything, "m-1").Return(nil).Once()

	delivered := g.DeliverNewMessage(context.Background(), env)

	assert.True(t, delivered)
	var f struct {
		Type    Kind `json:"type"`
		Payload struct {
			Envelope models.MessageEnvelope `json:"envelope"`
		} `json:"payload"`
	}
	require.NoError(t, json.Unmarshal(<-receiver.send, &f))
	assert.Equal(t, KindNewMessage, f.Type)
	assert.Equal(t, models.StatusDelivered, f.Payload.Envelope.Status)
	messages.AssertExpectations(t)
}

func TestDeliverNewMessageOfflineReceiverIsNotDelivered(t *testing.T) {
	hub := NewHub()
	registry := new(mocks.RegistryMock)
	messages := new(mocks.MessageRepositoryMock)
	g := NewGateway(hub, hub, registry, messages, nil, nil, testRealtimeConfig())

	registry.On("IsOnline", mock.Anything, 2).Return(false, nil).Once()

	delivered := g.DeliverNewMessage(context.Background(), models.MessageEnvelope{ID: "m-1", ReceiverID: 2})

	assert.False(t, delivered)
	messages.AssertNotCalled(t, "MarkDelivered", mock.Anything, mock.Anything)
}

func TestHandleSendAcksSenderAndPushesReceiver(t *testing.T) {
	hub := NewHub()
	registry := new(mocks.RegistryMock)
	messages := new(mocks.MessageRepositoryMock)
	g := NewGateway(hub, hub, registry, messages, nil, nil, testRealtimeConfig())

	sender := testClient("conn-a", 1)
	receiver := testClient("conn-b", 2)
	hub.Register(sender)
	hub.Register(receiver)
	hub.Join(userRoom(1), sender)
	hub.Join(userRoom(2), receiver)

	stored := models.MessageEnvelope{ID: "m-1", SenderID: 1, ReceiverID: 2, SessionID: "1:2", Status: models.StatusSent}
	messages.On("Append", mock.Anything, mock.MatchedBy(func(env models.MessageEnvelope) bool {
		return env.SenderID == 1 && env.ReceiverID == 2 && env.EncryptedContent == "Y2lwaGVy"
	})).Return(stored, nil).Once()
	registry.On("IsOnline", mock.Anything, 2).Return(true, nil).Once()
	messages.On("MarkDelivered", mock.Anything, "m-1").Return(nil).Once()

	g.handleSend(context.Background(), sender, &SendMessage{
		ReceiverID:         2,
		EncryptedContent:   "Y2lwaGVy",
		IV:                 "aXY=",
		AuthTag:            "dGFn",
		SenderWrappedKey:   "c2VuZGVy",
		ReceiverWrappedKey: "cmVjZWl2ZXI=",
		ContentHash:        "deadbeef",
	})

	assert.Equal(t, []Kind{KindMessageSent}, receivedKinds(t, sender))
	assert.Equal(t, []Kind{KindNewMessage}, receivedKinds(t, receiver))
	messages.AssertExpectations(t)
}

func TestHandleSendAppendFailureAnswersSender(t *testing.T) {
	hub := NewHub()
	messages := new(mocks.MessageRepositoryMock)
	g := NewGateway(hub, hub, new(mocks.RegistryMock), messages, nil, nil, testRealtimeConfig())

	sender := testClient("conn-a", 1)
	hub.Register(sender)

	messages.On("Append", mock.Anything, mock.Anything).
		Return(nil, assert.AnError).Once()

	g.handleSend(context.Background(), sender, &SendMessage{ReceiverID: 1})

	assert.Equal(t, []Kind{KindError}, receivedKinds(t, sender))
}

func TestHandleMarkReadRejectsNonMember(t *testing.T) {
	hub := NewHub()
	messages := new(mocks.MessageRepositoryMock)
	g := NewGateway(hub, hub, new(mocks.RegistryMock), messages, nil, nil, testRealtimeConfig())

	client := testClient("conn-a", 9)
	hub.Register(client)

	g.handleMarkRead(context.Background(), client, "1:2")

	assert.Equal(t, []Kind{KindError}, receivedKinds(t, client))
	messages.AssertNotCalled(t, "MarkRead", mock.Anything, mock.Anything, mock.Anything)
}

func TestHandleMarkReadNotifiesCounterpartOnce(t *testing.T) {
	hub := NewHub()
	registry := new(mocks.RegistryMock)
	messages := new(mocks.MessageRepositoryMock)
	g := NewGateway(hub, hub, registry, messages, nil, nil, testRealtimeConfig())

	reader := testClient("conn-b", 2)
	counterpart := testClient("conn-a", 1)
	hub.Register(reader)
	hub.Register(counterpart)
	hub.Join(userRoom(1), counterpart)

	messages.On("MarkRead", mock.Anything, "1:2", 2).Return(3, nil).Once()
	registry.On("IsOnline", mock.Anything, 1).Return(true, nil).Once()

	g.handleMarkRead(context.Background(), reader, "1:2")

	assert.Equal(t, []Kind{KindMessageRead}, receivedKinds(t, counterpart))
}

func TestHandleMarkReadIdempotentEmitsNoReceipt(t *testing.T) {
	hub := NewHub()
	registry := new(mocks.RegistryMock)
	messages := new(mocks.MessageRepositoryMock)
	g := NewGateway(hub, hub, registry, messages, nil, nil, testRealtimeConfig())

	reader := testClient("conn-b", 2)
	hub.Register(reader)

	messages.On("MarkRead", mock.Anything, "1:2", 2).Return(0, nil).Once()

	g.handleMarkRead(context.Background(), reader, "1:2")

	registry.AssertNotCalled(t, "IsOnline", mock.Anything, mock.Anything)
}

func TestRelayCallToOfflinePeer(t *testing.T) {
	hub := NewHub()
	registry := new(mocks.RegistryMock)
	g := NewGateway(hub, hub, registry, new(mocks.MessageRepositoryMock), nil, nil, testRealtimeConfig())

	caller := testClient("conn-a", 1)
	hub.Register(caller)

	registry.On("IsOnline", mock.Anything, 2).Return(false, nil).Once()

	g.relayCall(context.Background(), caller, 2, &IncomingCall{CallerID: 1, CallID: "c-1"})

	assert.Equal(t, []Kind{KindError}, receivedKinds(t, caller))
}

func TestFanOutPresenceSkipsOfflineFriends(t *testing.T) {
	hub := NewHub()
	registry := new(mocks.RegistryMock)
	users := new(mocks.UserDirectoryMock)
	g := NewGateway(hub, hub, registry, new(mocks.MessageRepositoryMock), users, nil, testRealtimeConfig())

	onlineFriend := testClient("conn-b", 2)
	hub.Register(onlineFriend)
	hub.Join(userRoom(2), onlineFriend)

	users.On("FriendIDs", mock.Anything, 1).Return([]int{2, 3}, nil).Once()
	registry.On("IsOnline", mock.Anything, 2).Return(true, nil).Once()
	registry.On("IsOnline", mock.Anything, 3).Return(false, nil).Once()

	g.fanOutPresence(context.Background(), 1, true)

	assert.Equal(t, []Kind{KindFriendStatus}, receivedKinds(t, onlineFriend))
}
