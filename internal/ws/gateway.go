package ws

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel"

	"messaging-service/internal/config"
	"messaging-service/internal/errs"
	grpcclient "messaging-service/internal/grpc"
	"messaging-service/internal/models"
	"messaging-service/internal/observability"
	"messaging-service/internal/presence"
	"messaging-service/internal/repositories"
)

// Gateway owns the realtime channel: it authenticates connections, joins
// the per-user room, keeps presence current, and routes the typed event
// set. Delivery is push-if-online; an offline receiver is not an error,
// catch-up happens through conversation reads.
type Gateway struct {
	hub      *Hub
	broker   Broker
	registry presence.Registry
	messages repositories.MessageRepository
	users    grpcclient.UserDirectory
	auth     grpcclient.TokenVerifier
	cfg      config.Realtime
}

// NewGateway constructs the gateway.
func NewGateway(hub *Hub, broker Broker, registry presence.Registry, messages repositories.MessageRepository, users grpcclient.UserDirectory, auth grpcclient.TokenVerifier, cfg config.Realtime) *Gateway {
	return &Gateway{
		hub:      hub,
		broker:   broker,
		registry: registry,
		messages: messages,
		users:    users,
		auth:     auth,
		cfg:      cfg,
	}
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Handle upgrades the connection after the credential check and runs the
// connection lifecycle.
func (g *Gateway) Handle(c *gin.Context) {
	ctx, span := otel.Tracer("messaging-service/ws").Start(c.Request.Context(), "ws.handshake")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	token := c.GetHeader("Authorization")
	if token == "" {
		token = c.Query("token")
		if token != "" {
			token = "Bearer " + token
		}
	}

	userID, err := g.validateToken(c.Request.Context(), token)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token", "code": errs.CodeUnauthenticated})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}

	client := NewClient(newConnID(), userID, conn, g.cfg.SendBuffer, g.cfg.PingPeriod)
	client.DeviceID = observability.DeviceIDFromRequest(c.Request)
	client.IP = observability.IPFromRequest(c.Request)
	client.RequestID = observability.RequestIDFromRequest(c.Request)
	client.TraceID = span.SpanContext().TraceID().String()

	g.hub.Register(client)
	g.broker.Join(userRoom(userID), client)

	cameOnline, replaced, err := g.registry.Connect(ctx, userID, client.ID)
	if err != nil {
		log.Printf("presence connect: %v", err)
	}
	if replaced != "" {
		// Last session wins: the superseded socket is closed explicitly
		// rather than left to linger.
		if old, ok := g.hub.ClientByConn(replaced); ok {
			old.Close("superseded by a newer session")
		}
	}

	go client.WritePump()

	observability.IncWSActive("dm")
	observability.IncWSEvent("dm", "ws_connect")
	g.publishLifecycleEvent(ctx, client, "ws_connect", "")

	if cameOnline {
		observability.UserOnline()
		go g.fanOutPresence(context.Background(), userID, true)
	}

	// net/http cancels the request context once Handle returns, even for
	// a hijacked connection. The read loop outlives the request, so it
	// runs on a detached context that keeps the trace values.
	go g.readLoop(context.WithoutCancel(ctx), client)
}

func (g *Gateway) validateToken(ctx context.Context, header string) (int, error) {
	parts := strings.Split(header, " ")
	if len(parts) == 2 {
		return g.auth.ValidateToken(ctx, parts[1])
	}
	return 0, fmt.Errorf("invalid token")
}

// readLoop consumes frames until the connection dies, then tears down
// rooms and presence before any dependent fan-out can observe the
// disconnect. Missed heartbeats surface as read deadline errors and take
// the same path as an explicit close.
func (g *Gateway) readLoop(ctx context.Context, client *Client) {
	var closeReason string
	defer func() {
		g.broker.LeaveAll(client)
		g.hub.Unregister(client)
		client.Close(closeReason)

		userID, wentOffline, err := g.registry.Disconnect(context.Background(), client.ID)
		if err != nil {
			log.Printf("presence disconnect: %v", err)
		}

		observability.DecWSActive("dm")
		observability.IncWSEvent("dm", "ws_disconnect")
		g.publishLifecycleEvent(ctx, client, "ws_disconnect", closeReason)

		if wentOffline {
			observability.UserOffline()
			if err := g.users.UpdateLastSeen(context.Background(), userID, time.Now().UTC()); err != nil {
				log.Printf("update last seen: %v", err)
			}
			g.fanOutPresence(context.Background(), userID, false)
		}
	}()

	_ = client.conn.SetReadDeadline(time.Now().Add(g.cfg.PongWait))
	client.conn.SetPongHandler(func(string) error {
		_ = client.conn.SetReadDeadline(time.Now().Add(g.cfg.PongWait))
		return g.registry.Touch(context.Background(), client.ID)
	})

	for {
		_, data, err := client.conn.ReadMessage()
		if err != nil {
			closeReason = err.Error()
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				observability.IncWSEvent("dm", "ws_error")
				g.publishLifecycleEvent(ctx, client, "ws_error", closeReason)
			}
			return
		}

		ev, err := DecodeFrame(data)
		if err != nil {
			client.Send(&ErrorEvent{Code: string(errs.CodeOf(err)), Message: err.Error()})
			continue
		}
		g.dispatch(ctx, client, ev)
	}
}

func (g *Gateway) dispatch(ctx context.Context, client *Client, ev Event) {
	observability.IncWSEvent("dm", string(ev.EventKind()))

	switch ev := ev.(type) {
	case *JoinChat:
		if !sessionMember(ev.SessionID, client.UserID) {
			client.Send(&ErrorEvent{Code: string(errs.CodePermissionDenied), Message: "not a session participant"})
			return
		}
		g.broker.Join(sessionRoom(ev.SessionID), client)

	case *LeaveChat:
		g.broker.Leave(sessionRoom(ev.SessionID), client)

	case *SendMessage:
		g.handleSend(ctx, client, ev)

	case *MarkRead:
		g.handleMarkRead(ctx, client, ev.SessionID)

	case *TypingStart:
		g.relayTyping(ctx, client, ev.SessionID, true)

	case *TypingStop:
		g.relayTyping(ctx, client, ev.SessionID, false)

	case *CallInitiate:
		g.relayCall(ctx, client, ev.CalleeID, &IncomingCall{CallerID: client.UserID, CallID: ev.CallID, Offer: ev.Offer})

	case *CallAccept:
		g.relayCall(ctx, client, ev.CallerID, &CallAccepted{CalleeID: client.UserID, CallID: ev.CallID, Answer: ev.Answer})

	case *CallReject:
		g.relayCall(ctx, client, ev.CallerID, &CallRejected{CalleeID: client.UserID, CallID: ev.CallID, Reason: ev.Reason})

	case *CallEnd:
		g.relayCall(ctx, client, ev.PeerID, &CallEnded{PeerID: client.UserID, CallID: ev.CallID})

	case *SubscribeNotifications:
		g.broker.Join(notifRoom(client.UserID), client)

	case *UnsubscribeNotifications:
		g.broker.Leave(notifRoom(client.UserID), client)

	default:
		client.Send(&ErrorEvent{Code: string(errs.CodeInvalidArgument), Message: "event kind not accepted from clients"})
	}
}

func (g *Gateway) handleSend(ctx context.Context, client *Client, ev *SendMessage) {
	env := models.MessageEnvelope{
		SenderID:           client.UserID,
		ReceiverID:         ev.ReceiverID,
		EncryptedContent:   ev.EncryptedContent,
		IV:                 ev.IV,
		AuthTag:            ev.AuthTag,
		SenderWrappedKey:   ev.SenderWrappedKey,
		ReceiverWrappedKey: ev.ReceiverWrappedKey,
		ContentHash:        ev.ContentHash,
		MessageType:        models.MessageType(ev.MessageType),
		FileMetadata:       ev.FileMetadata,
		ReplyTo:            ev.ReplyTo,
	}

	stored, err := g.messages.Append(ctx, env)
	if err != nil {
		client.Send(&ErrorEvent{Code: string(errs.CodeOf(err)), Message: err.Error()})
		return
	}

	client.Send(&MessageSent{MessageID: stored.ID, SessionID: stored.SessionID, SentAt: stored.SentAt})
	g.DeliverNewMessage(ctx, stored)
}

// DeliverNewMessage pushes the envelope to the receiver when online and
// advances its status to delivered. An offline receiver gets nothing on
// the realtime path; the store is the durable copy.
func (g *Gateway) DeliverNewMessage(ctx context.Context, env models.MessageEnvelope) bool {
	online, err := g.registry.IsOnline(ctx, env.ReceiverID)
	if err != nil {
		log.Printf("presence lookup: %v", err)
		return false
	}
	if !online {
		return false
	}
	// The pushed copy carries the status the store is about to record.
	env.Status = models.StatusDelivered
	g.broker.Publish(userRoom(env.ReceiverID), &NewMessage{Envelope: env})
	if err := g.messages.MarkDelivered(ctx, env.ID); err != nil {
		log.Printf("mark delivered: %v", err)
	}
	return true
}

// NotifyRead pushes a read receipt to the counterpart when online.
func (g *Gateway) NotifyRead(ctx context.Context, sessionID string, readerID int) {
	counterpart := sessionCounterpart(sessionID, readerID)
	if counterpart == 0 {
		return
	}
	online, err := g.registry.IsOnline(ctx, counterpart)
	if err != nil || !online {
		return
	}
	g.broker.Publish(userRoom(counterpart), &MessageRead{SessionID: sessionID, ReaderID: readerID})
}

func (g *Gateway) handleMarkRead(ctx context.Context, client *Client, sessionID string) {
	if !sessionMember(sessionID, client.UserID) {
		client.Send(&ErrorEvent{Code: string(errs.CodePermissionDenied), Message: "not a session participant"})
		return
	}
	changed, err := g.messages.MarkRead(ctx, sessionID, client.UserID)
	if err != nil {
		client.Send(&ErrorEvent{Code: string(errs.CodeOf(err)), Message: "could not mark session read"})
		return
	}
	if changed > 0 {
		g.NotifyRead(ctx, sessionID, client.UserID)
	}
}

// relayTyping forwards a typing indicator to the counterpart. Ephemeral:
// nothing is persisted and an offline counterpart simply misses it.
func (g *Gateway) relayTyping(ctx context.Context, client *Client, sessionID string, started bool) {
	counterpart := sessionCounterpart(sessionID, client.UserID)
	if counterpart == 0 {
		return
	}
	online, err := g.registry.IsOnline(ctx, counterpart)
	if err != nil || !online {
		return
	}
	if started {
		g.broker.Publish(userRoom(counterpart), &UserTyping{SessionID: sessionID, UserID: client.UserID})
		return
	}
	g.broker.Publish(userRoom(counterpart), &UserStoppedTyping{SessionID: sessionID, UserID: client.UserID})
}

// relayCall is a stateless signaling relay: no call record is kept. A
// peer that is offline answers the caller with an error event instead of
// leaving the call hanging.
func (g *Gateway) relayCall(ctx context.Context, client *Client, peerID int, signal Event) {
	online, err := g.registry.IsOnline(ctx, peerID)
	if err != nil || !online {
		client.Send(&ErrorEvent{Code: string(errs.CodeNotFound), Message: "peer is not connected"})
		return
	}
	g.broker.Publish(userRoom(peerID), signal)
}

// fanOutPresence tells the user's online friends about the transition.
func (g *Gateway) fanOutPresence(ctx context.Context, userID int, online bool) {
	friends, err := g.users.FriendIDs(ctx, userID)
	if err != nil {
		log.Printf("friend lookup for presence fan-out: %v", err)
		return
	}

	var change FriendStatusChange
	change.UserID = userID
	change.Online = online
	if !online {
		now := time.Now().UTC()
		change.LastSeenAt = &now
	}

	for _, friendID := range friends {
		friendOnline, err := g.registry.IsOnline(ctx, friendID)
		if err != nil || !friendOnline {
			continue
		}
		g.broker.Publish(userRoom(friendID), &change)
	}
}

func (g *Gateway) publishLifecycleEvent(ctx context.Context, client *Client, event, reason string) {
	payload := map[string]interface{}{
		"ws": map[string]interface{}{
			"kind":        "dm",
			"event":       event,
			"conn_id":     client.ID,
			"duration_ms": time.Since(client.ConnectedAt).Milliseconds(),
			"reason":      reason,
		},
		"identity": map[string]interface{}{
			"user_id":   client.UserID,
			"device_id": client.DeviceID,
			"ip":        client.IP,
		},
	}

	headers := observability.BuildHeaders(client.RequestID, client.TraceID)
	_ = observability.PublishEvent(ctx, "ws_events.dm", observability.EventEnvelope{
		EventType: "ws_events",
		EventName: event,
		Payload:   payload,
	}, headers)
}
