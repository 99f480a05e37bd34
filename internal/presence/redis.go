package presence

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"messaging-service/internal/models"
)

// RedisRegistry backs presence with Redis so multiple gateway processes
// can share one view. Entries carry a TTL refreshed by Touch, so a
// process that dies without cleanup cannot leak "online" forever.
type RedisRegistry struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisRegistry constructs a Redis-backed registry. ttl should exceed
// the heartbeat window.
func NewRedisRegistry(client *redis.Client, ttl time.Duration) *RedisRegistry {
	return &RedisRegistry{client: client, ttl: ttl}
}

func userKey(userID int) string    { return fmt.Sprintf("presence:user:%d", userID) }
func connKey(connID string) string { return "presence:conn:" + connID }

// disconnectScript deletes the user mapping only when the departing
// connection still owns it, atomically, so a replaced socket closing late
// cannot knock the replacement offline.
var disconnectScript = redis.NewScript(`
local user = redis.call("GET", KEYS[1])
if not user then return {"", 0} end
redis.call("DEL", KEYS[1])
local current = redis.call("HGET", "presence:user:" .. user, "conn")
if current == ARGV[1] then
    redis.call("DEL", "presence:user:" .. user)
    return {user, 1}
end
return {user, 0}
`)

func (r *RedisRegistry) Connect(ctx context.Context, userID int, connID string) (bool, string, error) {
	prev, err := r.client.HGet(ctx, userKey(userID), "conn").Result()
	if err != nil && err != redis.Nil {
		return false, "", err
	}
	now := time.Now().UTC()

	pipe := r.client.TxPipeline()
	if prev != "" {
		pipe.Del(ctx, connKey(prev))
	}
	pipe.HSet(ctx, userKey(userID), "conn", connID, "last_seen", now.Unix())
	pipe.Expire(ctx, userKey(userID), r.ttl)
	pipe.Set(ctx, connKey(connID), strconv.Itoa(userID), r.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, "", err
	}
	return prev == "", prev, nil
}

func (r *RedisRegistry) Disconnect(ctx context.Context, connID string) (int, bool, error) {
	res, err := disconnectScript.Run(ctx, r.client, []string{connKey(connID)}, connID).Slice()
	if err != nil {
		return 0, false, err
	}
	userStr, _ := res[0].(string)
	if userStr == "" {
		return 0, false, nil
	}
	userID, err := strconv.Atoi(userStr)
	if err != nil {
		return 0, false, err
	}
	wentOffline, _ := res[1].(int64)
	return userID, wentOffline == 1, nil
}

func (r *RedisRegistry) Touch(ctx context.Context, connID string) error {
	userStr, err := r.client.Get(ctx, connKey(connID)).Result()
	if err == redis.Nil {
		return nil
	}
	if err != nil {
		return err
	}
	pipe := r.client.TxPipeline()
	pipe.Expire(ctx, connKey(connID), r.ttl)
	pipe.HSet(ctx, "presence:user:"+userStr, "last_seen", time.Now().UTC().Unix())
	pipe.Expire(ctx, "presence:user:"+userStr, r.ttl)
	_, err = pipe.Exec(ctx)
	return err
}

func (r *RedisRegistry) IsOnline(ctx context.Context, userID int) (bool, error) {
	n, err := r.client.Exists(ctx, userKey(userID)).Result()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (r *RedisRegistry) Lookup(ctx context.Context, userID int) (models.PresenceEntry, bool, error) {
	fields, err := r.client.HGetAll(ctx, userKey(userID)).Result()
	if err != nil {
		return models.PresenceEntry{}, false, err
	}
	if len(fields) == 0 {
		return models.PresenceEntry{}, false, nil
	}
	entry := models.PresenceEntry{UserID: userID, ConnectionID: fields["conn"]}
	if unix, err := strconv.ParseInt(fields["last_seen"], 10, 64); err == nil {
		entry.LastSeenAt = time.Unix(unix, 0).UTC()
	}
	return entry, true, nil
}

var _ Registry = (*MemoryRegistry)(nil)
var _ Registry = (*RedisRegistry)(nil)
