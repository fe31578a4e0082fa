package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

const pageVersionKey = "events:pages:ver"

// EventPages caches serialized event listing pages in Redis. Entries
// are keyed by a filter fingerprint plus a namespace version; bumping
// the version on any event or order mutation invalidates every cached
// page at once without scanning keys.
type EventPages struct {
	client *redis.Client
	ttl    time.Duration
}

// NewEventPages builds the cache. A zero TTL disables expiry tuning
// but entries are still dropped on invalidation.
func NewEventPages(client *redis.Client, ttl time.Duration) *EventPages {
	return &EventPages{client: client, ttl: ttl}
}

// GetPage loads a cached page into dest. A miss is not an error.
func (c *EventPages) GetPage(ctx context.Context, fingerprint string, dest any) (bool, error) {
	key, err := c.pageKey(ctx, fingerprint)
	if err != nil {
		return false, err
	}
	val, err := c.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal([]byte(val), dest); err != nil {
		return false, err
	}
	return true, nil
}

// SetPage stores a page under the current namespace version.
func (c *EventPages) SetPage(ctx context.Context, fingerprint string, value any) error {
	key, err := c.pageKey(ctx, fingerprint)
	if err != nil {
		return err
	}
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key, data, c.ttl).Err()
}

// InvalidateAll bumps the namespace version, orphaning every cached
// page. Orphans expire via their TTL.
func (c *EventPages) InvalidateAll(ctx context.Context) error {
	return c.client.Incr(ctx, pageVersionKey).Err()
}

func (c *EventPages) pageKey(ctx context.Context, fingerprint string) (string, error) {
	ver, err := c.client.Get(ctx, pageVersionKey).Result()
	if err == redis.Nil {
		ver = "0"
	} else if err != nil {
		return "", err
	}
	return "events:pages:" + ver + ":" + fingerprint, nil
}
