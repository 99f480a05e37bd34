package ws

import (
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"messaging-service/internal/observability"
)

const writeWait = 10 * time.Second

// Client is one live realtime connection. All writes go through the send
// channel and a single write pump, so events enqueued for this connection
// leave in enqueue order.
type Client struct {
	ID          string
	UserID      int
	DeviceID    string
	IP          string
	RequestID   string
	TraceID     string
	ConnectedAt time.Time

	conn       *websocket.Conn
	send       chan []byte
	mu         sync.Mutex
	closed     bool
	closeOnce  sync.Once
	pingPeriod time.Duration
}

// NewClient wraps a websocket connection.
func NewClient(id string, userID int, conn *websocket.Conn, sendBuffer int, pingPeriod time.Duration) *Client {
	return &Client{
		ID:          id,
		UserID:      userID,
		ConnectedAt: time.Now(),
		conn:        conn,
		send:        make(chan []byte, sendBuffer),
		pingPeriod:  pingPeriod,
	}
}

// Send encodes the event and enqueues it. A full buffer drops the event:
// the realtime path is best-effort, durability lives in the store. Send
// after Close is a no-op; a closed client can still be a room member
// until its read loop finishes tearing down.
func (c *Client) Send(ev Event) {
	payload, err := EncodeFrame(ev)
	if err != nil {
		log.Printf("encode frame: %v", err)
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	select {
	case c.send <- payload:
	default:
		observability.IncWSEvent("dm", "send_buffer_full")
	}
}

// Close shuts the connection down once; the write pump exits when the
// send channel drains its close signal.
func (c *Client) Close(reason string) {
	c.closeOnce.Do(func() {
		if c.conn != nil {
			deadline := time.Now().Add(writeWait)
			_ = c.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, reason), deadline)
		}
		c.mu.Lock()
		c.closed = true
		close(c.send)
		c.mu.Unlock()
	})
}

// WritePump drains the send channel onto the socket and keeps the peer
// alive with pings. One pump per connection.
func (c *Client) WritePump() {
	ticker := time.NewTicker(c.pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case payload, ok := <-c.send:
			if !ok {
				return
			}
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				log.Printf("websocket write error: %v", err)
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
