package session

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreSaveGetDelete(t *testing.T) {
	store := NewMemoryStore(time.Hour, 0)
	defer store.Close()
	ctx := context.Background()

	_, err := store.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	st := New("s1", "key")
	st.SetResult("http://r")
	require.NoError(t, store.Save(ctx, st))

	got, err := store.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "http://r", got.EditedImage)

	got.SetResult("http://changed")
	again, err := store.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "http://r", again.EditedImage, "stored state must not alias returned copies")

	require.NoError(t, store.Delete(ctx, "s1"))
	_, err = store.Get(ctx, "s1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStoreExpiry(t *testing.T) {
	store := NewMemoryStore(time.Minute, 0)
	defer store.Close()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, New("s1", "")))
	now = now.Add(2 * time.Minute)
	_, err := store.Get(ctx, "s1")
	assert.ErrorIs(t, err, ErrNotFound)

	assert.Equal(t, 1, store.deleteExpired())
	assert.Zero(t, store.Len())
}

func TestMemoryStoreJanitorStops(t *testing.T) {
	store := NewMemoryStore(time.Minute, time.Millisecond)
	require.NoError(t, store.Close())
	require.NoError(t, store.Close())
}

func TestRedisStore(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := NewRedisStoreWithClient(client, 10*time.Minute, zerolog.Nop())
	defer store.Close()
	ctx := context.Background()

	_, err := store.Get(ctx, "nope")
	assert.ErrorIs(t, err, ErrNotFound)

	st := New("s1", "key")
	st.SetPending([]string{"http://p"}, "generate", "cat")
	require.NoError(t, store.Save(ctx, st))
	assert.True(t, mr.Exists(redisKeyPrefix+"s1"))

	got, err := store.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, []string{"http://p"}, got.PendingURLs)

	mr.FastForward(11 * time.Minute)
	_, err = store.Get(ctx, "s1")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, store.Save(ctx, st))
	require.NoError(t, store.Delete(ctx, "s1"))
	assert.False(t, mr.Exists(redisKeyPrefix+"s1"))
}

func TestRedisStoreDropsCorruptPayload(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := NewRedisStoreWithClient(client, time.Minute, zerolog.Nop())
	defer store.Close()

	require.NoError(t, mr.Set(redisKeyPrefix+"bad", "{not json"))
	_, err := store.Get(context.Background(), "bad")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestNewRedisStoreRejectsBadURL(t *testing.T) {
	_, err := NewRedisStore(context.Background(), "://nope", time.Minute, zerolog.Nop())
	assert.Error(t, err)
}
