// Package presence tracks which users currently hold a live realtime
// connection. State is ephemeral: a process restart starts everyone
// offline. One connection per user is the policy: a second login replaces
// the first (last session wins), it does not coexist with it.
package presence

import (
	"context"
	"sync"
	"time"

	"messaging-service/internal/models"
)

// Registry is the authoritative online/offline state. Implementations
// must serialize mutations per user so reconnect races cannot lose
// updates.
type Registry interface {
	// Connect registers the connection. cameOnline is true when the user
	// had no active connection; replaced names a superseded connection id.
	Connect(ctx context.Context, userID int, connID string) (cameOnline bool, replaced string, err error)
	// Disconnect removes the connection. wentOffline is true only when the
	// departing connection was still the user's current one, so a
	// replaced-then-closed socket never emits a second offline transition.
	Disconnect(ctx context.Context, connID string) (userID int, wentOffline bool, err error)
	// Touch extends the connection's heartbeat lease.
	Touch(ctx context.Context, connID string) error
	IsOnline(ctx context.Context, userID int) (bool, error)
	Lookup(ctx context.Context, userID int) (models.PresenceEntry, bool, error)
}

// MemoryRegistry is the single-process implementation: two maps under one
// mutex, which serializes all transitions.
type MemoryRegistry struct {
	mu     sync.RWMutex
	byUser map[int]models.PresenceEntry
	byConn map[string]int
}

// NewMemoryRegistry creates an empty registry.
func NewMemoryRegistry() *MemoryRegistry {
	return &MemoryRegistry{
		byUser: make(map[int]models.PresenceEntry),
		byConn: make(map[string]int),
	}
}

func (r *MemoryRegistry) Connect(_ context.Context, userID int, connID string) (bool, string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	prev, had := r.byUser[userID]
	if had {
		delete(r.byConn, prev.ConnectionID)
	}
	r.byUser[userID] = models.PresenceEntry{
		UserID:       userID,
		ConnectionID: connID,
		LastSeenAt:   time.Now().UTC(),
	}
	r.byConn[connID] = userID

	if had {
		return false, prev.ConnectionID, nil
	}
	return true, "", nil
}

func (r *MemoryRegistry) Disconnect(_ context.Context, connID string) (int, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	userID, ok := r.byConn[connID]
	if !ok {
		return 0, false, nil
	}
	delete(r.byConn, connID)

	entry, ok := r.byUser[userID]
	if ok && entry.ConnectionID == connID {
		delete(r.byUser, userID)
		return userID, true, nil
	}
	return userID, false, nil
}

func (r *MemoryRegistry) Touch(_ context.Context, connID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	userID, ok := r.byConn[connID]
	if !ok {
		return nil
	}
	entry := r.byUser[userID]
	entry.LastSeenAt = time.Now().UTC()
	r.byUser[userID] = entry
	return nil
}

func (r *MemoryRegistry) IsOnline(_ context.Context, userID int) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.byUser[userID]
	return ok, nil
}

func (r *MemoryRegistry) Lookup(_ context.Context, userID int) (models.PresenceEntry, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.byUser[userID]
	return entry, ok, nil
}
