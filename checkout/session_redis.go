package checkout

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const sessionKeyPrefix = "checkout:session:"

// RedisSessionStore keeps the in-flight reference alive across the gateway
// redirect. One checkout attempt owns its key; writes are last-write-wins.
type RedisSessionStore struct {
	Client *redis.Client
}

func NewRedisSessionStore(client *redis.Client) *RedisSessionStore {
	return &RedisSessionStore{Client: client}
}

func (s *RedisSessionStore) Put(ctx context.Context, referenceID string, state State, ttl time.Duration) error {
	return s.Client.Set(ctx, sessionKeyPrefix+referenceID, string(state), ttl).Err()
}

func (s *RedisSessionStore) Get(ctx context.Context, referenceID string) (State, bool, error) {
	val, err := s.Client.Get(ctx, sessionKeyPrefix+referenceID).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		return "", false, err
	}
	return State(val), true, nil
}

func (s *RedisSessionStore) Delete(ctx context.Context, referenceID string) error {
	return s.Client.Del(ctx, sessionKeyPrefix+referenceID).Err()
}
