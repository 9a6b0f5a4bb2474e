// Package cache provides the key/value stores used to remember resolved
// serving URLs.
package cache

import (
	"context"
	"time"
)

// Cache is a string key/value store. A zero ttl stores the value without expiry.
// Writes are last-writer-wins.
type Cache interface {
	// Get returns the value for key and whether it was present.
	Get(ctx context.Context, key string) (string, bool, error)
	// Set stores value under key.
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
}
