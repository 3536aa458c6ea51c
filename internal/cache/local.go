package cache

import (
	"context"
	"time"

	"github.com/dgraph-io/ristretto/v2"
)

// Local is the in-process L1 cache.
type Local struct {
	c *ristretto.Cache[string, []byte]
}

// NewLocal creates a ristretto-backed cache bounded by maxCostBytes of
// stored values.
func NewLocal(maxCostBytes int64) (*Local, error) {
	c, err := ristretto.NewCache(&ristretto.Config[string, []byte]{
		NumCounters: maxCostBytes / 100 * 10, // ~10x expected items
		MaxCost:     maxCostBytes,
		BufferItems: 64,
	})
	if err != nil {
		return nil, err
	}
	return &Local{c: c}, nil
}

// Get retrieves a value.
func (l *Local) Get(_ context.Context, key string) ([]byte, bool, error) {
	v, ok := l.c.Get(key)
	if !ok {
		return nil, false, nil
	}
	return v, true, nil
}

// Set stores value for ttl.  Wait flushes ristretto's write buffer so the
// entry is visible to the next Get on any goroutine.
func (l *Local) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	l.c.SetWithTTL(key, value, int64(len(value)), ttl)
	l.c.Wait()
	return nil
}

// Delete removes key.
func (l *Local) Delete(_ context.Context, key string) error {
	l.c.Del(key)
	return nil
}

// Close releases ristretto's goroutines.
func (l *Local) Close() { l.c.Close() }
