package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/event-platform/internal/events"
)

// CacheInvalidator drops cached event pages whenever a mutation could
// change listing contents or registered counts.
type CacheInvalidator struct {
	cache  EventPageCache
	logger *zap.Logger
}

// NewCacheInvalidator creates the invalidator.
func NewCacheInvalidator(cache EventPageCache, logger *zap.Logger) *CacheInvalidator {
	return &CacheInvalidator{cache: cache, logger: logger}
}

// RegisterHandlers subscribes to every mutation that can invalidate a
// cached page.
func (c *CacheInvalidator) RegisterHandlers(dispatcher events.Dispatcher) {
	if dispatcher == nil || c.cache == nil {
		return
	}
	for _, eventType := range []events.EventType{
		events.EventOrderCreated,
		events.EventOrderCancelled,
		events.EventEventCreated,
		events.EventEventUpdated,
		events.EventEventDeleted,
	} {
		dispatcher.Subscribe(eventType, c.handle)
	}
}

func (c *CacheInvalidator) handle(ctx context.Context, event events.Event) error {
	if err := c.cache.InvalidateAll(ctx); err != nil {
		c.logger.Warn("event page cache invalidation failed",
			zap.String("event_type", string(event.Type)),
			zap.Error(err))
		return err
	}
	return nil
}
