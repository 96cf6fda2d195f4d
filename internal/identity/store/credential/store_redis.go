package credential

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"identitykit/internal/identity/models"
	"identitykit/pkg/platform/sentinel"
)

// keyPrefix namespaces credential rows in a shared redis database.
const keyPrefix = "identity:credential:"

// RedisStore persists tokens in redis. Suitable for server-side hosts that
// embed the SDK and keep sessions out of process memory.
type RedisStore struct {
	client redis.Cmdable
}

func NewRedis(client redis.Cmdable) *RedisStore {
	return &RedisStore{client: client}
}

func redisKey(identity models.ServiceIdentity) string {
	return keyPrefix + identity.Key()
}

func (s *RedisStore) Save(ctx context.Context, identity models.ServiceIdentity, token string) error {
	if err := s.client.Set(ctx, redisKey(identity), token, 0).Err(); err != nil {
		return fmt.Errorf("save credential: %w", err)
	}
	return nil
}

func (s *RedisStore) Load(ctx context.Context, identity models.ServiceIdentity) (string, error) {
	token, err := s.client.Get(ctx, redisKey(identity)).Result()
	if errors.Is(err, redis.Nil) {
		return "", sentinel.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("load credential: %w", err)
	}
	return token, nil
}

func (s *RedisStore) Erase(ctx context.Context, identity models.ServiceIdentity) error {
	if err := s.client.Del(ctx, redisKey(identity)).Err(); err != nil {
		return fmt.Errorf("erase credential: %w", err)
	}
	return nil
}
