package domain

import "context"

// KVStore is the generic key-value contract backing the day-scoped
// replacement cache. Implementations must return ErrCacheMiss for absent
// keys. Keys lists every stored key beginning with prefix.
type KVStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Keys(ctx context.Context, prefix string) ([]string, error)
}

// EstimateClient is the remote nutrient estimation contract. Quantity is the
// canonical string representation of the quantity signal (a bare number or a
// descriptive phrase like "2 броя").
type EstimateClient interface {
	Estimate(ctx context.Context, food, quantity string) (MacroProfile, error)
}
