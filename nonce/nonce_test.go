package nonce

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewState(t *testing.T) {
	a, err := NewState()
	require.NoError(t, err)
	b, err := NewState()
	require.NoError(t, err)

	assert.Len(t, a, stateBytes*2)
	assert.NotEqual(t, a, b)
}

// storeContract runs the behaviour every Store must provide.
func storeContract(t *testing.T, s Store) {
	ctx := context.Background()

	t.Run("issue then consume once", func(t *testing.T) {
		state, err := s.Issue(ctx, "acme.myshopify.com")
		require.NoError(t, err)

		shop, err := s.Consume(ctx, state)
		require.NoError(t, err)
		assert.Equal(t, "acme.myshopify.com", shop)

		_, err = s.Consume(ctx, state)
		assert.ErrorIs(t, err, ErrStateNotFound)
	})

	t.Run("unknown state", func(t *testing.T) {
		_, err := s.Consume(ctx, "nope")
		assert.ErrorIs(t, err, ErrStateNotFound)
	})

	t.Run("empty state", func(t *testing.T) {
		_, err := s.Consume(ctx, "")
		assert.ErrorIs(t, err, ErrStateNotFound)
	})

	t.Run("fresh state per issue", func(t *testing.T) {
		a, err := s.Issue(ctx, "acme.myshopify.com")
		require.NoError(t, err)
		b, err := s.Issue(ctx, "acme.myshopify.com")
		require.NoError(t, err)
		assert.NotEqual(t, a, b)
	})
}

func TestMemoryStore(t *testing.T) {
	storeContract(t, NewMemoryStore(time.Minute))
}

func TestMemoryStoreExpiry(t *testing.T) {
	s := NewMemoryStore(time.Minute)
	now := time.Date(2024, 12, 26, 10, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	state, err := s.Issue(context.Background(), "acme.myshopify.com")
	require.NoError(t, err)

	now = now.Add(2 * time.Minute)
	_, err = s.Consume(context.Background(), state)
	assert.ErrorIs(t, err, ErrStateNotFound)
	assert.Equal(t, 0, s.Len())
}

func TestMemoryStoreSweepsExpired(t *testing.T) {
	s := NewMemoryStore(time.Minute)
	now := time.Date(2024, 12, 26, 10, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	_, err := s.Issue(context.Background(), "a.myshopify.com")
	require.NoError(t, err)
	now = now.Add(2 * time.Minute)
	_, err = s.Issue(context.Background(), "b.myshopify.com")
	require.NoError(t, err)

	assert.Equal(t, 1, s.Len())
}

func newMiniredisStore(t *testing.T, ttl time.Duration) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	s := NewRedisStoreWithClient(client, ttl)
	t.Cleanup(func() { _ = s.Close() })
	return s, mr
}

func TestRedisStore(t *testing.T) {
	s, _ := newMiniredisStore(t, time.Minute)
	storeContract(t, s)
}

func TestRedisStoreTTL(t *testing.T) {
	s, mr := newMiniredisStore(t, time.Minute)

	state, err := s.Issue(context.Background(), "acme.myshopify.com")
	require.NoError(t, err)

	key := defaultKeyPrefix + state
	assert.True(t, mr.Exists(key))
	assert.Equal(t, time.Minute, mr.TTL(key))

	mr.FastForward(2 * time.Minute)
	_, err = s.Consume(context.Background(), state)
	assert.ErrorIs(t, err, ErrStateNotFound)
}

func TestRedisStoreUnavailable(t *testing.T) {
	s, mr := newMiniredisStore(t, time.Minute)
	mr.Close()

	_, err := s.Issue(context.Background(), "acme.myshopify.com")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrStateNotFound)
}

func TestNewRedisStore(t *testing.T) {
	mr := miniredis.RunT(t)

	s, err := NewRedisStore(context.Background(), "redis://"+mr.Addr(), time.Minute)
	require.NoError(t, err)
	defer s.Close()

	_, err = NewRedisStore(context.Background(), "::bad::", time.Minute)
	assert.Error(t, err)
}
