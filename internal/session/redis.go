package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"shop-assistant/internal/domain"
)

const (
	defaultKeyPrefix = "shopbot:session:"
	defaultTTL       = time.Hour
)

// redisAPI is the subset of *redis.Client used by RedisStore.
type redisAPI interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
}

// RedisStore keeps sessions in Redis as JSON so every instance sees the same
// state. Each write refreshes the TTL.
type RedisStore struct {
	api    redisAPI
	prefix string
	ttl    time.Duration
}

// RedisConfig holds Redis connection settings.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// NewRedisClient dials Redis and verifies the connection.
func NewRedisClient(ctx context.Context, cfg RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("session: redis ping: %w", err)
	}
	return client, nil
}

func NewRedisStore(api redisAPI, prefix string, ttl time.Duration) (*RedisStore, error) {
	if api == nil {
		return nil, errors.New("session: redis api must not be nil")
	}
	if strings.TrimSpace(prefix) == "" {
		prefix = defaultKeyPrefix
	}
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &RedisStore{api: api, prefix: prefix, ttl: ttl}, nil
}

func (s *RedisStore) key(userID string) string {
	return s.prefix + userID
}

// Get returns the user's session, or the zero state when none is stored.
func (s *RedisStore) Get(ctx context.Context, userID string) (domain.SessionState, error) {
	if strings.TrimSpace(userID) == "" {
		return domain.SessionState{}, errEmptyUserID
	}
	raw, err := s.api.Get(ctx, s.key(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.SessionState{}, nil
	}
	if err != nil {
		return domain.SessionState{}, fmt.Errorf("session: redis get: %w", err)
	}
	var state domain.SessionState
	if err := json.Unmarshal(raw, &state); err != nil {
		return domain.SessionState{}, fmt.Errorf("session: decode state: %w", err)
	}
	return state, nil
}

func (s *RedisStore) Put(ctx context.Context, userID string, state domain.SessionState) error {
	if strings.TrimSpace(userID) == "" {
		return errEmptyUserID
	}
	raw, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("session: encode state: %w", err)
	}
	if err := s.api.Set(ctx, s.key(userID), raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("session: redis set: %w", err)
	}
	return nil
}
