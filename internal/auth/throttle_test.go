package auth

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestThrottle(t *testing.T, max int) (*LoginThrottle, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewLoginThrottle(client, max, 15*time.Minute), mr
}

func TestLoginThrottle_BlocksAfterMaxFailures(t *testing.T) {
	ctx := context.Background()
	throttle, _ := newTestThrottle(t, 3)

	for i := 0; i < 3; i++ {
		require.NoError(t, throttle.Check(ctx, "jane@example.com"))
		require.NoError(t, throttle.RecordFailure(ctx, "jane@example.com"))
	}

	assert.ErrorIs(t, throttle.Check(ctx, "jane@example.com"), ErrTooManyAttempts)
	assert.ErrorIs(t, throttle.Check(ctx, "  JANE@example.com "), ErrTooManyAttempts, "key is normalized")
	assert.NoError(t, throttle.Check(ctx, "john@example.com"))
}

func TestLoginThrottle_WindowExpires(t *testing.T) {
	ctx := context.Background()
	throttle, mr := newTestThrottle(t, 1)

	require.NoError(t, throttle.RecordFailure(ctx, "jane@example.com"))
	assert.ErrorIs(t, throttle.Check(ctx, "jane@example.com"), ErrTooManyAttempts)

	mr.FastForward(16 * time.Minute)
	assert.NoError(t, throttle.Check(ctx, "jane@example.com"))
}

func TestLoginThrottle_WindowStartsAtFirstFailure(t *testing.T) {
	ctx := context.Background()
	throttle, mr := newTestThrottle(t, 5)

	require.NoError(t, throttle.RecordFailure(ctx, "jane@example.com"))
	mr.FastForward(10 * time.Minute)
	require.NoError(t, throttle.RecordFailure(ctx, "jane@example.com"))

	ttl := mr.TTL(throttleKey("jane@example.com"))
	assert.Equal(t, 5*time.Minute, ttl)
}

func TestLoginThrottle_Reset(t *testing.T) {
	ctx := context.Background()
	throttle, _ := newTestThrottle(t, 1)

	require.NoError(t, throttle.RecordFailure(ctx, "jane@example.com"))
	require.NoError(t, throttle.Reset(ctx, "jane@example.com"))
	assert.NoError(t, throttle.Check(ctx, "jane@example.com"))
}

func TestLoginThrottle_Disabled(t *testing.T) {
	ctx := context.Background()

	var nilThrottle *LoginThrottle
	assert.NoError(t, nilThrottle.Check(ctx, "jane@example.com"))
	assert.NoError(t, nilThrottle.RecordFailure(ctx, "jane@example.com"))

	noClient := NewLoginThrottle(nil, 5, time.Minute)
	assert.NoError(t, noClient.RecordFailure(ctx, "jane@example.com"))
	assert.NoError(t, noClient.Check(ctx, "jane@example.com"))
}

func TestLoginThrottle_RedisUnavailable(t *testing.T) {
	ctx := context.Background()
	throttle, mr := newTestThrottle(t, 3)
	mr.Close()

	assert.Error(t, throttle.Check(ctx, "jane@example.com"))
	assert.Error(t, throttle.RecordFailure(ctx, "jane@example.com"))
}
