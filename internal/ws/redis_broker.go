package ws

import (
	"context"
	"encoding/json"
	"log"

	"github.com/redis/go-redis/v9"
)

const redisChannel = "ws:rooms"

// RedisBroker extends the local hub across processes: Publish goes through
// a Redis channel, every process's Run loop delivers to its own local
// members. Join/Leave stay local; membership is per-process.
type RedisBroker struct {
	local  *Hub
	client *redis.Client
}

// NewRedisBroker wraps a local hub with Redis fan-out.
func NewRedisBroker(local *Hub, client *redis.Client) *RedisBroker {
	return &RedisBroker{local: local, client: client}
}

type redisFrame struct {
	Room  string          `json:"room"`
	Frame json.RawMessage `json:"frame"`
}

func (b *RedisBroker) Join(room string, c *Client)  { b.local.Join(room, c) }
func (b *RedisBroker) Leave(room string, c *Client) { b.local.Leave(room, c) }
func (b *RedisBroker) LeaveAll(c *Client)           { b.local.LeaveAll(c) }

// Publish sends the frame through Redis; local delivery happens when this
// process's subscriber receives it back.
func (b *RedisBroker) Publish(room string, ev Event) {
	payload, err := EncodeFrame(ev)
	if err != nil {
		log.Printf("encode frame: %v", err)
		return
	}
	body, err := json.Marshal(redisFrame{Room: room, Frame: payload})
	if err != nil {
		log.Printf("marshal redis frame: %v", err)
		return
	}
	if err := b.client.Publish(context.Background(), redisChannel, body).Err(); err != nil {
		log.Printf("redis publish: %v", err)
	}
}

// Run consumes the Redis channel until ctx ends, delivering frames to
// local room members.
func (b *RedisBroker) Run(ctx context.Context) {
	sub := b.client.Subscribe(ctx, redisChannel)
	defer sub.Close()

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-sub.Channel():
			if !ok {
				return
			}
			var rf redisFrame
			if err := json.Unmarshal([]byte(msg.Payload), &rf); err != nil {
				log.Printf("malformed redis frame: %v", err)
				continue
			}
			ev, err := DecodeFrame(rf.Frame)
			if err != nil {
				log.Printf("decode redis frame: %v", err)
				continue
			}
			b.local.Publish(rf.Room, ev)
		}
	}
}

var _ Broker = (*RedisBroker)(nil)
