package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	diagramKeyPrefix = "schema:diagram:"
	diagramTTL       = 24 * time.Hour
	migrationLockKey = "schema:migrate:lock"
)

// Deletes the lock only if it still carries our token.
var releaseLockScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

type RedisRepository struct {
	rdb *redis.Client
}

func NewRedisRepository(rdb *redis.Client) *RedisRepository {
	return &RedisRepository{rdb: rdb}
}

// GetDiagram returns the cached ER diagram for a catalog fingerprint.
func (r *RedisRepository) GetDiagram(ctx context.Context, fingerprint string) (string, bool, error) {
	val, err := r.rdb.Get(ctx, diagramKeyPrefix+fingerprint).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return val, true, nil
}

func (r *RedisRepository) SetDiagram(ctx context.Context, fingerprint, diagram string) error {
	return r.rdb.Set(ctx, diagramKeyPrefix+fingerprint, diagram, diagramTTL).Err()
}

// AcquireMigrationLock takes the cluster-wide migration lock. ok is false
// when another process holds it.
func (r *RedisRepository) AcquireMigrationLock(ctx context.Context, ttl time.Duration) (string, bool, error) {
	token := uuid.NewString()
	ok, err := r.rdb.SetNX(ctx, migrationLockKey, token, ttl).Result()
	if err != nil {
		return "", false, err
	}
	return token, ok, nil
}

func (r *RedisRepository) ReleaseMigrationLock(ctx context.Context, token string) error {
	return releaseLockScript.Run(ctx, r.rdb, []string{migrationLockKey}, token).Err()
}
