package model

import "time"

// Intent business constraints
const (
	// DefaultIntentTTL is how long a staged checkout stays redeemable
	DefaultIntentTTL = time.Hour

	// MaxItemsPerIntent caps the number of distinct lines in one checkout
	MaxItemsPerIntent = 50

	// MaxQuantityPerItem is the maximum quantity allowed for a single line
	MaxQuantityPerItem = 100
)

// Cache keys
const (
	// CacheKeyIntent format: "checkout:intent:{intentID}"
	CacheKeyIntent = "checkout:intent:%s"

	// CacheKeyIntentConsumed format: "checkout:intent:consumed:{intentID}"
	// SETNX marker; its creator is the single consumer of the intent
	CacheKeyIntentConsumed = "checkout:intent:consumed:%s"
)
