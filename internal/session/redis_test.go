package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"shop-assistant/internal/domain"
)

type fakeRedis struct {
	data    map[string]string
	getErr  error
	setErr  error
	lastTTL time.Duration
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{data: make(map[string]string)}
}

func (f *fakeRedis) Get(_ context.Context, key string) *redis.StringCmd {
	if f.getErr != nil {
		return redis.NewStringResult("", f.getErr)
	}
	v, ok := f.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (f *fakeRedis) Set(_ context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	if f.setErr != nil {
		return redis.NewStatusResult("", f.setErr)
	}
	f.data[key] = string(value.([]byte))
	f.lastTTL = expiration
	return redis.NewStatusResult("OK", nil)
}

func TestNewRedisStore_Validates(t *testing.T) {
	_, err := NewRedisStore(nil, "", 0)
	require.Error(t, err)

	s, err := NewRedisStore(newFakeRedis(), "", 0)
	require.NoError(t, err)
	require.Equal(t, defaultKeyPrefix, s.prefix)
	require.Equal(t, defaultTTL, s.ttl)
}

func TestRedisStore_MissReturnsZeroState(t *testing.T) {
	s, err := NewRedisStore(newFakeRedis(), "t:", time.Minute)
	require.NoError(t, err)

	state, err := s.Get(context.Background(), "U1")
	require.NoError(t, err)
	require.Equal(t, domain.SessionState{}, state)
}

func TestRedisStore_RoundTripUsesPrefixAndTTL(t *testing.T) {
	api := newFakeRedis()
	s, err := NewRedisStore(api, "t:", 30*time.Minute)
	require.NoError(t, err)
	ctx := context.Background()

	in := domain.SessionState{LowerFilterActive: true}.WithTerm("battery").WithCeiling(500)
	require.NoError(t, s.Put(ctx, "U1", in))
	require.Contains(t, api.data, "t:U1")
	require.Equal(t, 30*time.Minute, api.lastTTL)

	out, err := s.Get(ctx, "U1")
	require.NoError(t, err)
	require.Equal(t, in, out)
}

func TestRedisStore_Errors(t *testing.T) {
	api := newFakeRedis()
	s, err := NewRedisStore(api, "t:", time.Minute)
	require.NoError(t, err)
	ctx := context.Background()

	api.getErr = errors.New("connection refused")
	_, err = s.Get(ctx, "U1")
	require.ErrorContains(t, err, "redis get")

	api.getErr = nil
	api.data["t:U1"] = "{broken"
	_, err = s.Get(ctx, "U1")
	require.ErrorContains(t, err, "decode state")

	api.setErr = errors.New("READONLY")
	err = s.Put(ctx, "U1", domain.SessionState{})
	require.ErrorContains(t, err, "redis set")

	_, err = s.Get(ctx, "")
	require.Error(t, err)
}
