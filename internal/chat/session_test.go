package chat

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisStore(t *testing.T, ttl time.Duration) (*RedisSessionStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisSessionStore(client, ttl), mr
}

func TestRedisSessionRoundTrip(t *testing.T) {
	store, _ := newRedisStore(t, time.Hour)
	ctx := context.Background()

	now := time.Now().UTC().Truncate(time.Second)
	sess := &Session{ID: "s1", LeadID: "s1", State: StateAskedTimeline, CreatedAt: now, UpdatedAt: now}
	require.NoError(t, store.Save(ctx, sess))

	got, err := store.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, StateAskedTimeline, got.State)
	assert.Equal(t, "s1", got.LeadID)
}

func TestRedisSessionNotFound(t *testing.T) {
	store, _ := newRedisStore(t, time.Hour)

	_, err := store.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestRedisSessionExpires(t *testing.T) {
	store, mr := newRedisStore(t, time.Minute)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, &Session{ID: "s1", State: StateStart}))

	mr.FastForward(2 * time.Minute)

	_, err := store.Get(ctx, "s1")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestRedisSessionSaveRefreshesTTL(t *testing.T) {
	store, mr := newRedisStore(t, time.Minute)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, &Session{ID: "s1", State: StateStart}))
	mr.FastForward(45 * time.Second)
	require.NoError(t, store.Save(ctx, &Session{ID: "s1", State: StateAskedMainGoal}))
	mr.FastForward(45 * time.Second)

	got, err := store.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, StateAskedMainGoal, got.State)
}

func TestRedisSessionDelete(t *testing.T) {
	store, _ := newRedisStore(t, time.Hour)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, &Session{ID: "s1", State: StateStart}))
	require.NoError(t, store.Delete(ctx, "s1"))

	_, err := store.Get(ctx, "s1")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestMemorySessionStore(t *testing.T) {
	store := NewMemorySessionStore(time.Hour)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, &Session{ID: "s1", State: StateNurture}))

	got, err := store.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, StateNurture, got.State)

	_, err = store.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrSessionNotFound)

	require.NoError(t, store.Delete(ctx, "s1"))
	_, err = store.Get(ctx, "s1")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestMemorySessionStoreExpiry(t *testing.T) {
	store := NewMemorySessionStore(time.Minute)
	ctx := context.Background()

	base := time.Now().UTC()
	store.now = func() time.Time { return base }
	require.NoError(t, store.Save(ctx, &Session{ID: "s1", State: StateStart}))

	store.now = func() time.Time { return base.Add(2 * time.Minute) }
	_, err := store.Get(ctx, "s1")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}
