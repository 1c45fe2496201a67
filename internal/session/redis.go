package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	apierrors "github.com/diogo/pagechat/internal/errors"
)

// KeyPrefix namespaces session keys in redis
const KeyPrefix = "pagechat:session:"

// RedisStore keeps sessions in redis; expiry is delegated to key TTLs
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
	now    func() time.Time
}

var _ Store = (*RedisStore)(nil)

// NewRedisStore wraps an existing client
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl, now: time.Now}
}

func key(id string) string {
	return KeyPrefix + id
}

func (s *RedisStore) Get(ctx context.Context, id string) (*Data, error) {
	if !ValidID(id) {
		return nil, apierrors.ErrNoSession
	}

	val, err := s.client.Get(ctx, key(id)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, apierrors.ErrNoSession
		}
		return nil, fmt.Errorf("redis get failure: %w", err)
	}

	var data Data
	if err := json.Unmarshal([]byte(val), &data); err != nil {
		return nil, fmt.Errorf("failed to parse session: %w", err)
	}
	return &data, nil
}

func (s *RedisStore) Save(ctx context.Context, id string, data *Data) error {
	if !ValidID(id) {
		return fmt.Errorf("invalid session id: %q", id)
	}

	data.UpdatedAt = s.now()
	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	if err := s.client.Set(ctx, key(id), string(raw), s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failure: %w", err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, id string) error {
	if !ValidID(id) {
		return nil
	}
	if err := s.client.Del(ctx, key(id)).Err(); err != nil {
		return fmt.Errorf("redis del failure: %w", err)
	}
	return nil
}

// Close closes the underlying client
func (s *RedisStore) Close() error {
	return s.client.Close()
}
