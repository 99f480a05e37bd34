package ws

import (
	"encoding/json"
	"time"

	"messaging-service/internal/errs"
	"messaging-service/internal/models"
)

// Kind tags every frame crossing the realtime channel. The set is closed:
// DecodeFrame rejects anything not registered below, so the protocol
// cannot drift one ad hoc string at a time.
type Kind string

// Client -> server.
const (
	KindJoinChat          Kind = "join_chat"
	KindLeaveChat         Kind = "leave_chat"
	KindSendMessage       Kind = "send_message"
	KindMarkRead          Kind = "mark_read"
	KindTypingStart       Kind = "typing_start"
	KindTypingStop        Kind = "typing_stop"
	KindCallInitiate      Kind = "call_initiate"
	KindCallAccept        Kind = "call_accept"
	KindCallReject        Kind = "call_reject"
	KindCallEnd           Kind = "call_end"
	KindSubscribeNotifs   Kind = "subscribe_notifications"
	KindUnsubscribeNotifs Kind = "unsubscribe_notifications"
)

// Server -> client.
const (
	KindMessageSent       Kind = "message_sent"
	KindNewMessage        Kind = "new_message"
	KindMessageRead       Kind = "message_read"
	KindUserTyping        Kind = "user_typing"
	KindUserStoppedTyping Kind = "user_stopped_typing"
	KindIncomingCall      Kind = "incoming_call"
	KindCallAccepted      Kind = "call_accepted"
	KindCallRejected      Kind = "call_rejected"
	KindCallEnded         Kind = "call_ended"
	KindFriendStatus      Kind = "friend_status_change"
	KindNotification      Kind = "notification"
	KindError             Kind = "error"
)

// Event is one member of the closed union.
type Event interface {
	EventKind() Kind
}

type JoinChat struct {
	SessionID string `json:"session_id"`
}

type LeaveChat struct {
	SessionID string `json:"session_id"`
}

// SendMessage carries already-encrypted fields; the gateway never sees
// plaintext.
type SendMessage struct {
	ReceiverID         int     `json:"receiver_id"`
	EncryptedContent   string  `json:"encrypted_content"`
	IV                 string  `json:"iv"`
	AuthTag            string  `json:"auth_tag"`
	SenderWrappedKey   string  `json:"sender_wrapped_key"`
	ReceiverWrappedKey string  `json:"receiver_wrapped_key"`
	ContentHash        string  `json:"content_hash"`
	MessageType        string  `json:"message_type,omitempty"`
	FileMetadata       *string `json:"file_metadata,omitempty"`
	ReplyTo            *string `json:"reply_to,omitempty"`
}

type MarkRead struct {
	SessionID string `json:"session_id"`
}

type TypingStart struct {
	SessionID string `json:"session_id"`
}

type TypingStop struct {
	SessionID string `json:"session_id"`
}

type CallInitiate struct {
	CalleeID int    `json:"callee_id"`
	CallID   string `json:"call_id"`
	Offer    string `json:"offer,omitempty"`
}

type CallAccept struct {
	CallerID int    `json:"caller_id"`
	CallID   string `json:"call_id"`
	Answer   string `json:"answer,omitempty"`
}

type CallReject struct {
	CallerID int    `json:"caller_id"`
	CallID   string `json:"call_id"`
	Reason   string `json:"reason,omitempty"`
}

type CallEnd struct {
	PeerID int    `json:"peer_id"`
	CallID string `json:"call_id"`
}

type SubscribeNotifications struct{}

type UnsubscribeNotifications struct{}

type MessageSent struct {
	MessageID string    `json:"message_id"`
	SessionID string    `json:"session_id"`
	SentAt    time.Time `json:"sent_at"`
}

type NewMessage struct {
	Envelope models.MessageEnvelope `json:"envelope"`
}

type MessageRead struct {
	SessionID string `json:"session_id"`
	ReaderID  int    `json:"reader_id"`
}

type UserTyping struct {
	SessionID string `json:"session_id"`
	UserID    int    `json:"user_id"`
}

type UserStoppedTyping struct {
	SessionID string `json:"session_id"`
	UserID    int    `json:"user_id"`
}

type IncomingCall struct {
	CallerID int    `json:"caller_id"`
	CallID   string `json:"call_id"`
	Offer    string `json:"offer,omitempty"`
}

type CallAccepted struct {
	CalleeID int    `json:"callee_id"`
	CallID   string `json:"call_id"`
	Answer   string `json:"answer,omitempty"`
}

type CallRejected struct {
	CalleeID int    `json:"callee_id"`
	CallID   string `json:"call_id"`
	Reason   string `json:"reason,omitempty"`
}

type CallEnded struct {
	PeerID int    `json:"peer_id"`
	CallID string `json:"call_id"`
}

type FriendStatusChange struct {
	UserID     int        `json:"user_id"`
	Online     bool       `json:"online"`
	LastSeenAt *time.Time `json:"last_seen_at,omitempty"`
}

type Notification struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

type ErrorEvent struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (JoinChat) EventKind() Kind                 { return KindJoinChat }
func (LeaveChat) EventKind() Kind                { return KindLeaveChat }
func (SendMessage) EventKind() Kind              { return KindSendMessage }
func (MarkRead) EventKind() Kind                 { return KindMarkRead }
func (TypingStart) EventKind() Kind              { return KindTypingStart }
func (TypingStop) EventKind() Kind               { return KindTypingStop }
func (CallInitiate) EventKind() Kind             { return KindCallInitiate }
func (CallAccept) EventKind() Kind               { return KindCallAccept }
func (CallReject) EventKind() Kind               { return KindCallReject }
func (CallEnd) EventKind() Kind                  { return KindCallEnd }
func (SubscribeNotifications) EventKind() Kind   { return KindSubscribeNotifs }
func (UnsubscribeNotifications) EventKind() Kind { return KindUnsubscribeNotifs }
func (MessageSent) EventKind() Kind              { return KindMessageSent }
func (NewMessage) EventKind() Kind               { return KindNewMessage }
func (MessageRead) EventKind() Kind              { return KindMessageRead }
func (UserTyping) EventKind() Kind               { return KindUserTyping }
func (UserStoppedTyping) EventKind() Kind        { return KindUserStoppedTyping }
func (IncomingCall) EventKind() Kind             { return KindIncomingCall }
func (CallAccepted) EventKind() Kind             { return KindCallAccepted }
func (CallRejected) EventKind() Kind             { return KindCallRejected }
func (CallEnded) EventKind() Kind                { return KindCallEnded }
func (FriendStatusChange) EventKind() Kind       { return KindFriendStatus }
func (Notification) EventKind() Kind             { return KindNotification }
func (ErrorEvent) EventKind() Kind               { return KindError }

type frame struct {
	Type    Kind            `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

var decoders = map[Kind]func() Event{
	KindJoinChat:          func() Event { return &JoinChat{} },
	KindLeaveChat:         func() Event { return &LeaveChat{} },
	KindSendMessage:       func() Event { return &SendMessage{} },
	KindMarkRead:          func() Event { return &MarkRead{} },
	KindTypingStart:       func() Event { return &TypingStart{} },
	KindTypingStop:        func() Event { return &TypingStop{} },
	KindCallInitiate:      func() Event { return &CallInitiate{} },
	KindCallAccept:        func() Event { return &CallAccept{} },
	KindCallReject:        func() Event { return &CallReject{} },
	KindCallEnd:           func() Event { return &CallEnd{} },
	KindSubscribeNotifs:   func() Event { return &SubscribeNotifications{} },
	KindUnsubscribeNotifs: func() Event { return &UnsubscribeNotifications{} },
	KindMessageSent:       func() Event { return &MessageSent{} },
	KindNewMessage:        func() Event { return &NewMessage{} },
	KindMessageRead:       func() Event { return &MessageRead{} },
	KindUserTyping:        func() Event { return &UserTyping{} },
	KindUserStoppedTyping: func() Event { return &UserStoppedTyping{} },
	KindIncomingCall:      func() Event { return &IncomingCall{} },
	KindCallAccepted:      func() Event { return &CallAccepted{} },
	KindCallRejected:      func() Event { return &CallRejected{} },
	KindCallEnded:         func() Event { return &CallEnded{} },
	KindFriendStatus:      func() Event { return &FriendStatusChange{} },
	KindNotification:      func() Event { return &Notification{} },
	KindError:             func() Event { return &ErrorEvent{} },
}

// EncodeFrame serializes an event for the wire.
func EncodeFrame(ev Event) ([]byte, error) {
	payload, err := json.Marshal(ev)
	if err != nil {
		return nil, err
	}
	return json.Marshal(frame{Type: ev.EventKind(), Payload: payload})
}

// DecodeFrame parses a wire frame into its typed event. Unknown kinds are
// rejected rather than passed through.
func DecodeFrame(data []byte) (Event, error) {
	var f frame
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, errs.Wrap(errs.CodeInvalidArgument, "malformed frame", err)
	}
	build, ok := decoders[f.Type]
	if !ok {
		return nil, errs.InvalidArg("unknown event kind: " + string(f.Type))
	}
	ev := build()
	if len(f.Payload) > 0 {
		if err := json.Unmarshal(f.Payload, ev); err != nil {
			return nil, errs.Wrap(errs.CodeInvalidArgument, "malformed payload", err)
		}
	}
	return ev, nil
}
