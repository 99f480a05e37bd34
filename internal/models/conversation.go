package models

// ConversationSummary is a derived, per-viewer view of one session. It is
// recomputed from envelopes at query time and never stored.
type ConversationSummary struct {
	SessionID           string           `json:"session_id"`
	CounterpartID       int              `json:"counterpart_id"`
	CounterpartUsername string           `json:"counterpart_username,omitempty"`
	LastMessage         *MessageEnvelope `json:"last_message"`
	UnreadCount         int              `json:"unread_count"`
	CounterpartOnline   bool             `json:"counterpart_online"`
}
