package alerts

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cooldown rate-limits notifications per sender using a Redis key with a
// TTL. It gates dispatch only; alert persistence never consults it.
type Cooldown struct {
	client *redis.Client
	window time.Duration
}

// NewCooldown wraps a Redis client with the given suppression window.
func NewCooldown(client *redis.Client, window time.Duration) *Cooldown {
	if window <= 0 {
		window = time.Hour
	}
	return &Cooldown{client: client, window: window}
}

// Allow reports whether a notification for this sender may go out now. The
// first call inside a window claims it; later calls are suppressed until the
// key expires. Redis errors propagate so the caller can decide to fail open.
func (c *Cooldown) Allow(ctx context.Context, senderProfile, senderName string) (bool, error) {
	key := c.key(senderProfile, senderName)
	ok, err := c.client.SetNX(ctx, key, time.Now().UTC().Format(time.RFC3339), c.window).Result()
	if err != nil {
		return false, fmt.Errorf("cooldown check failed: %w", err)
	}
	return ok, nil
}

// key prefers the profile URL as the sender identity, falling back to the
// display name.
func (c *Cooldown) key(senderProfile, senderName string) string {
	id := senderProfile
	if id == "" {
		id = senderName
	}
	return "honeyshield:notify:" + id
}
