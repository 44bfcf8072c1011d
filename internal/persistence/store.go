// Package persistence defines the durable storage contract used by the planner.
//
// The planner keeps very little durable state (the serialized selection), so
// storage is modelled as a string-keyed value store. Implementations live in
// the memory, sqlite and postgres subpackages.
package persistence

import "context"

// KeyValueStore persists string values under string keys.
type KeyValueStore interface {
	// Get returns the value stored under key or ErrNotFound.
	Get(ctx context.Context, key string) (string, error)
	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key, value string) error
}

// Deleter is implemented by stores that can drop a key.
type Deleter interface {
	Delete(ctx context.Context, key string) error
}
