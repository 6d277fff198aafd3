package keeper

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Lock is a lease that lets one keeper replica act per tick.
type Lock interface {
	Acquire(ctx context.Context, ttl time.Duration) (bool, error)
	Release(ctx context.Context) error
}

// LocalLock is used when a single keeper runs; it always grants the lease.
type LocalLock struct{}

func (LocalLock) Acquire(context.Context, time.Duration) (bool, error) { return true, nil }
func (LocalLock) Release(context.Context) error                        { return nil }

// releaseScript deletes the key only while it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLock is a SET NX PX lease shared by every keeper replica.
type RedisLock struct {
	client redis.Cmdable
	key    string
	token  string
}

// NewRedisLock creates a lease on key. Each lock instance has its own token.
func NewRedisLock(client redis.Cmdable, key string) *RedisLock {
	return &RedisLock{client: client, key: key, token: uuid.NewString()}
}

func (l *RedisLock) Acquire(ctx context.Context, ttl time.Duration) (bool, error) {
	return l.client.SetNX(ctx, l.key, l.token, ttl).Result()
}

func (l *RedisLock) Release(ctx context.Context) error {
	return releaseScript.Run(ctx, l.client, []string{l.key}, l.token).Err()
}
