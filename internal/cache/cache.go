// internal/cache/cache.go
//
// Byte-oriented key-value cache used for resolved publications.
//
// Context
// -------
// The publication accessor stores the JSON form of PublishedSiteData
// under a key that always embeds the slug or hostname it was resolved
// from.  Three implementations satisfy Cache:
//
//   - Local  - in-process L1 on ristretto with per-entry TTL.
//   - Redis  - optional shared L2 (Valkey / Redis) across replicas.
//   - Tiered - L1 in front of L2, backfilling L1 on an L2 hit.
//
// Notes
// -----
// • Values are opaque bytes; encoding belongs to the caller.
// • A miss is (nil, false, nil).  Errors are reserved for transport faults.
package cache

import (
	"context"
	"time"
)

// Cache is the storage contract shared by every level.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}
