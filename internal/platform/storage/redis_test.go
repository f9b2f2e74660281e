package storage

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run failed: %v", err)
	}

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestRedis_SetGetRemove(t *testing.T) {
	mr, client := newTestRedis(t)
	defer mr.Close()
	kv := NewRedis(client, "aurahr:", 0)
	ctx := context.Background()

	require.NoError(t, kv.Set(ctx, "client:1:user", []byte(`{"id":"1"}`)))
	assert.True(t, mr.Exists("aurahr:client:1:user"))

	got, err := kv.Get(ctx, "client:1:user")
	require.NoError(t, err)
	assert.Equal(t, `{"id":"1"}`, string(got))

	require.NoError(t, kv.Remove(ctx, "client:1:user"))
	_, err = kv.Get(ctx, "client:1:user")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRedis_RemoveMissingKey(t *testing.T) {
	mr, client := newTestRedis(t)
	defer mr.Close()
	kv := NewRedis(client, "aurahr:", 0)

	assert.NoError(t, kv.Remove(context.Background(), "nope"))
}

func TestRedis_TTLExpiresEntries(t *testing.T) {
	mr, client := newTestRedis(t)
	defer mr.Close()
	kv := NewRedis(client, "", time.Minute)
	ctx := context.Background()

	require.NoError(t, kv.Set(ctx, "user", []byte("v")))
	mr.FastForward(2 * time.Minute)

	_, err := kv.Get(ctx, "user")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRedis_BackendDown(t *testing.T) {
	mr, client := newTestRedis(t)
	kv := NewRedis(client, "", 0)
	mr.Close()

	_, err := kv.Get(context.Background(), "user")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
	assert.Error(t, kv.Ping(context.Background()))
}
