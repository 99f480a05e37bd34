package ws

import (
	"sync"
)

// Broker maps rooms to connection handles. The in-process Hub is the
// default backing; a distributed deployment swaps in the Redis broker
// behind the same interface.
type Broker interface {
	Join(room string, c *Client)
	Leave(room string, c *Client)
	LeaveAll(c *Client)
	Publish(room string, ev Event)
}

// Hub is the in-process Broker: rooms hold local clients, publish fans an
// encoded frame out to each member's send queue.
type Hub struct {
	mu      sync.RWMutex
	rooms   map[string]map[*Client]bool
	byRooms map[*Client]map[string]bool
	byConn  map[string]*Client
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{
		rooms:   make(map[string]map[*Client]bool),
		byRooms: make(map[*Client]map[string]bool),
		byConn:  make(map[string]*Client),
	}
}

// Register makes the client addressable by connection id. Called once per
// connection before any Join.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.byConn[c.ID] = c
}

// Unregister forgets the client entirely. Must run before dependent
// components observe the disconnect.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.byConn, c.ID)
	for room := range h.byRooms[c] {
		h.dropLocked(room, c)
	}
	delete(h.byRooms, c)
}

// ClientByConn resolves a connection id to its local client, if any.
func (h *Hub) ClientByConn(connID string) (*Client, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	c, ok := h.byConn[connID]
	return c, ok
}

// Join adds the client to a room.
func (h *Hub) Join(room string, c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.rooms[room]; !ok {
		h.rooms[room] = make(map[*Client]bool)
	}
	h.rooms[room][c] = true
	if _, ok := h.byRooms[c]; !ok {
		h.byRooms[c] = make(map[string]bool)
	}
	h.byRooms[c][room] = true
}

// Leave removes the client from a room.
func (h *Hub) Leave(room string, c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.dropLocked(room, c)
	if rooms, ok := h.byRooms[c]; ok {
		delete(rooms, room)
	}
}

// LeaveAll removes the client from every room it joined.
func (h *Hub) LeaveAll(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for room := range h.byRooms[c] {
		h.dropLocked(room, c)
	}
	delete(h.byRooms, c)
}

func (h *Hub) dropLocked(room string, c *Client) {
	if members, ok := h.rooms[room]; ok {
		delete(members, c)
		if len(members) == 0 {
			delete(h.rooms, room)
		}
	}
}

// Publish enqueues the event for every room member. Delivery is
// best-effort: a member with a full queue misses the event and catches up
// from the store.
func (h *Hub) Publish(room string, ev Event) {
	h.mu.RLock()
	members := make([]*Client, 0, len(h.rooms[room]))
	for c := range h.rooms[room] {
		members = append(members, c)
	}
	h.mu.RUnlock()

	for _, c := range members {
		c.Send(ev)
	}
}

var _ Broker = (*Hub)(nil)
