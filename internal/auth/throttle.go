package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrTooManyAttempts is returned when an identity exhausted its failed logins.
var ErrTooManyAttempts = errors.New("too many failed login attempts")

const throttleKeyPrefix = "login_failures:"

// LoginThrottle counts failed logins per email in Redis within a fixed window.
// A nil client or a non-positive limit disables it.
type LoginThrottle struct {
	client      *redis.Client
	maxAttempts int
	window      time.Duration
}

// NewLoginThrottle builds a throttle.
func NewLoginThrottle(client *redis.Client, maxAttempts int, window time.Duration) *LoginThrottle {
	if window <= 0 {
		window = 15 * time.Minute
	}
	return &LoginThrottle{client: client, maxAttempts: maxAttempts, window: window}
}

func (t *LoginThrottle) enabled() bool {
	return t != nil && t.client != nil && t.maxAttempts > 0
}

// Check returns ErrTooManyAttempts when email has no attempts left.
func (t *LoginThrottle) Check(ctx context.Context, email string) error {
	if !t.enabled() {
		return nil
	}
	count, err := t.client.Get(ctx, throttleKey(email)).Int()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	if err != nil {
		return err
	}
	if count >= t.maxAttempts {
		return ErrTooManyAttempts
	}
	return nil
}

// RecordFailure counts a failed login. The window starts at the first failure.
func (t *LoginThrottle) RecordFailure(ctx context.Context, email string) error {
	if !t.enabled() {
		return nil
	}
	key := throttleKey(email)
	count, err := t.client.Incr(ctx, key).Result()
	if err != nil {
		return err
	}
	if count == 1 {
		return t.client.Expire(ctx, key, t.window).Err()
	}
	return nil
}

// Reset forgets failures after a successful login.
func (t *LoginThrottle) Reset(ctx context.Context, email string) error {
	if !t.enabled() {
		return nil
	}
	return t.client.Del(ctx, throttleKey(email)).Err()
}

func throttleKey(email string) string {
	return throttleKeyPrefix + strings.ToLower(strings.TrimSpace(email))
}
