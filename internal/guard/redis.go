package guard

import (
	"context"
	"fmt"
	"time"

	"movie-rental-backend/internal/logger"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// releaseScript deletes the key only while it still holds the caller's token,
// so a holder that outlived the TTL cannot drop a newer claim.
var releaseScript = redis.NewScript(`
if redis.call('GET', KEYS[1]) == ARGV[1] then
	return redis.call('DEL', KEYS[1])
end
return 0
`)

// RedisGuard shares claims across server replicas. The TTL bounds how long a
// crashed holder can block the pair.
type RedisGuard struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisGuard(client *redis.Client, ttl time.Duration) *RedisGuard {
	return &RedisGuard{client: client, ttl: ttl}
}

func (g *RedisGuard) Acquire(ctx context.Context, key string) (string, bool, error) {
	token := uuid.NewString()
	logger.ExternalServiceCall("redis", "SETNX", "key", key)
	ok, err := g.client.SetNX(ctx, key, token, g.ttl).Result()
	logger.ExternalServiceResult("redis", "SETNX", err, "key", key, "acquired", ok)
	if err != nil {
		return "", false, fmt.Errorf("acquire return guard: %w", err)
	}
	if !ok {
		return "", false, nil
	}
	return token, true, nil
}

func (g *RedisGuard) Release(ctx context.Context, key, token string) error {
	deleted, err := releaseScript.Run(ctx, g.client, []string{key}, token).Int()
	if err != nil {
		return fmt.Errorf("release return guard: %w", err)
	}
	if deleted == 0 {
		logger.Warn("Return guard no longer held by this claim", "key", key)
	}
	return nil
}
