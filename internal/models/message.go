package models

import (
	"fmt"
	"time"

	"messaging-service/internal/errs"
)

// MessageStatus is the delivery state of an envelope. Transitions are
// forward-only: sent -> delivered -> read.
type MessageStatus string

const (
	StatusSent      MessageStatus = "sent"
	StatusDelivered MessageStatus = "delivered"
	StatusRead      MessageStatus = "read"
)

// MessageType distinguishes plain text from attachment-carrying messages.
type MessageType string

const (
	TypeText MessageType = "text"
	TypeFile MessageType = "file"
)

// MessageEnvelope is one persisted encrypted message. The server stores
// and routes ciphertext only; content is sealed with a one-time AES-GCM
// key wrapped separately for sender and receiver, so either party can
// later decrypt their own history client-side. Compromise of a long-term
// private key exposes all history wrapped for it: there is no ratchet.
type MessageEnvelope struct {
	ID                 string        `db:"id" json:"id"`
	SenderID           int           `db:"sender_id" json:"sender_id"`
	ReceiverID         int           `db:"receiver_id" json:"receiver_id"`
	SessionID          string        `db:"session_id" json:"session_id"`
	EncryptedContent   string        `db:"encrypted_content" json:"encrypted_content"`
	IV                 string        `db:"iv" json:"iv"`
	AuthTag            string        `db:"auth_tag" json:"auth_tag"`
	SenderWrappedKey   string        `db:"sender_wrapped_key" json:"sender_wrapped_key"`
	ReceiverWrappedKey string        `db:"receiver_wrapped_key" json:"receiver_wrapped_key"`
	ContentHash        string        `db:"content_hash" json:"content_hash"`
	MessageType        MessageType   `db:"message_type" json:"message_type"`
	FileMetadata       *string       `db:"file_metadata" json:"file_metadata,omitempty"`
	Status             MessageStatus `db:"status" json:"status"`
	SentAt             time.Time     `db:"sent_at" json:"sent_at"`
	ReadAt             *time.Time    `db:"read_at" json:"read_at,omitempty"`
	IsDeleted          bool          `db:"is_deleted" json:"is_deleted"`
	DeletedAt          *time.Time    `db:"deleted_at" json:"deleted_at,omitempty"`
	ReplyTo            *string       `db:"reply_to" json:"reply_to,omitempty"`
}

// Validate enforces the append-time invariants: no self-messaging and no
// envelope without its full set of crypto fields.
func (e *MessageEnvelope) Validate() error {
	if e.SenderID == e.ReceiverID {
		return errs.ErrSelfMessage
	}
	if e.EncryptedContent == "" || e.IV == "" || e.AuthTag == "" ||
		e.SenderWrappedKey == "" || e.ReceiverWrappedKey == "" || e.ContentHash == "" {
		return errs.ErrMissingCrypto
	}
	return nil
}

// SessionIDFor returns the canonical conversation identifier for a pair of
// users. It is order-independent: A->B and B->A land in one session.
func SessionIDFor(a, b int) string {
	if a > b {
		a, b = b, a
	}
	return fmt.Sprintf("%d:%d", a, b)
}

// ParseSessionID splits a canonical "lo:hi" session identifier back into
// its two participant ids.
func ParseSessionID(sessionID string) (int, int, error) {
	var lo, hi int
	if _, err := fmt.Sscanf(sessionID, "%d:%d", &lo, &hi); err != nil || lo >= hi || lo <= 0 {
		return 0, 0, errs.InvalidArg("malformed session id")
	}
	return lo, hi, nil
}

// SessionMember reports whether the user participates in the session.
func SessionMember(sessionID string, userID int) bool {
	lo, hi, err := ParseSessionID(sessionID)
	if err != nil {
		return false
	}
	return userID == lo || userID == hi
}

// Counterpart returns the other participant from the viewer's side.
func (e *MessageEnvelope) Counterpart(viewerID int) int {
	if e.SenderID == viewerID {
		return e.ReceiverID
	}
	return e.SenderID
}

// Participant reports whether the user is sender or receiver.
func (e *MessageEnvelope) Participant(userID int) bool {
	return e.SenderID == userID || e.ReceiverID == userID
}
