// Package cache provides byte caches for rewrite tables and image probes.
//
// Three implementations share the [Cache] interface:
//
//   - [NullCache] stores nothing
//   - [FileCache] stores JSON entries with an expiry on disk
//   - [RedisCache] stores entries in Redis with native TTLs
//
// Keys are produced by a [Keyer] so every consumer hashes its inputs the
// same way, and so deployments sharing one backend can be separated with
// [NewScopedKeyer].
package cache

import (
	"context"
	"time"
)

// Cache stores opaque byte values with an optional time-to-live.
type Cache interface {
	// Get returns the value for key. ok is false on a miss or an expired entry.
	Get(ctx context.Context, key string) (data []byte, ok bool, err error)

	// Set stores data under key. A zero ttl never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// NullCache misses on every Get and drops every Set. It backs the "none"
// cache backend.
type NullCache struct{}

// NewNullCache returns a cache that stores nothing.
func NewNullCache() Cache { return NullCache{} }

func (NullCache) Get(context.Context, string) ([]byte, bool, error)        { return nil, false, nil }
func (NullCache) Set(context.Context, string, []byte, time.Duration) error { return nil }
func (NullCache) Delete(context.Context, string) error                     { return nil }
func (NullCache) Close() error                                             { return nil }

var _ Cache = NullCache{}
