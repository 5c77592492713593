package domain

import "errors"

var (
	// ErrNoMatch is returned when the fuzzy matcher finds no candidate within
	// the edit distance threshold
	ErrNoMatch = errors.New("no product match within distance threshold")

	// ErrQuantityUnresolved is returned when no gram amount is derivable locally
	ErrQuantityUnresolved = errors.New("quantity could not be resolved to grams")

	// ErrEstimateFailure is returned when the remote estimation call fails
	// (network, timeout, non-success status, or malformed payload)
	ErrEstimateFailure = errors.New("remote estimate request failed")

	// ErrCacheMiss is returned when a key is not found in a store
	ErrCacheMiss = errors.New("cache miss")

	// ErrCacheCorrupt is returned when persisted cache data cannot be decoded
	ErrCacheCorrupt = errors.New("corrupt cache payload")

	// ErrInvalidRequest is returned when request parameters are invalid
	ErrInvalidRequest = errors.New("invalid request parameters")
)
