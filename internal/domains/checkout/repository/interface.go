package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"storefront-backend/internal/domains/checkout/model"
)

// IntentStore defines access to staged checkout intents. Intents are
// Redis-resident only; nothing here touches Postgres.
type IntentStore interface {
	// Save stores the intent under its id with the given TTL
	// (DefaultIntentTTL when ttl <= 0)
	Save(ctx context.Context, intent *model.CheckoutIntent, ttl time.Duration) error

	// Fetch returns the intent when it exists, is owned by the session,
	// is not expired and is not consumed. Missing, foreign and expired
	// intents all surface as ErrIntentNotFound; consumed ones as
	// ErrIntentConsumed so intake can answer with a conflict.
	Fetch(ctx context.Context, intentID uuid.UUID, sessionID string) (*model.CheckoutIntent, error)

	// Consume marks the intent consumed. First caller wins and gets
	// true; every later caller gets false with no error. The store
	// never errors on double consumption, callers decide what a lost
	// race means.
	Consume(ctx context.Context, intentID uuid.UUID) (bool, error)
}
