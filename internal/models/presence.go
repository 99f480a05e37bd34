package models

import "time"

// PresenceEntry is the ephemeral record of a live realtime connection.
// It is never persisted; a restart rebuilds presence empty.
type PresenceEntry struct {
	UserID       int       `json:"user_id"`
	ConnectionID string    `json:"connection_id"`
	LastSeenAt   time.Time `json:"last_seen_at"`
}
