package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"storefront-backend/internal/domains/checkout/model"
	"storefront-backend/pkg/cache"
)

type redisIntentStore struct {
	cache cache.Cache
}

// NewRedisIntentStore creates the Redis-backed intent store
func NewRedisIntentStore(cache cache.Cache) IntentStore {
	return &redisIntentStore{cache: cache}
}

func (s *redisIntentStore) Save(ctx context.Context, intent *model.CheckoutIntent, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = model.DefaultIntentTTL
	}

	key := fmt.Sprintf(model.CacheKeyIntent, intent.ID)
	if err := s.cache.Set(ctx, key, intent, ttl); err != nil {
		return fmt.Errorf("failed to save checkout intent: %w", err)
	}

	return nil
}

func (s *redisIntentStore) Fetch(ctx context.Context, intentID uuid.UUID, sessionID string) (*model.CheckoutIntent, error) {
	key := fmt.Sprintf(model.CacheKeyIntent, intentID)

	var intent model.CheckoutIntent
	found, err := s.cache.Get(ctx, key, &intent)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch checkout intent: %w", err)
	}
	if !found {
		return nil, model.ErrIntentNotFound
	}

	// Foreign intents answer not-found, not forbidden, so callers
	// cannot probe which intent ids exist
	if !intent.OwnedBy(sessionID) {
		return nil, model.ErrIntentNotFound
	}

	// Redis TTL normally handles expiry; the timestamp check covers
	// the window where the key still lingers
	if intent.IsExpired(time.Now()) {
		return nil, model.ErrIntentNotFound
	}

	consumed, err := s.cache.Exists(ctx, fmt.Sprintf(model.CacheKeyIntentConsumed, intentID))
	if err != nil {
		return nil, fmt.Errorf("failed to check intent consumption: %w", err)
	}
	if consumed {
		return nil, model.ErrIntentConsumed
	}

	return &intent, nil
}

// Consume sets the consumed marker with SETNX so exactly one caller
// observes the transition. The intent body is left for the TTL to
// collect; the hot path never deletes.
func (s *redisIntentStore) Consume(ctx context.Context, intentID uuid.UUID) (bool, error) {
	key := fmt.Sprintf(model.CacheKeyIntentConsumed, intentID)

	first, err := s.cache.SetNX(ctx, key, 1, model.DefaultIntentTTL)
	if err != nil {
		return false, fmt.Errorf("failed to consume checkout intent: %w", err)
	}

	return first, nil
}
