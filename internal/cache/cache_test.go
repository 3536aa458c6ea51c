package cache

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

// mapCache is a trivial Cache for exercising Tiered.
type mapCache struct {
	mu   sync.Mutex
	m    map[string][]byte
	fail bool
}

func newMapCache() *mapCache { return &mapCache{m: map[string][]byte{}} }

var errDown = errors.New("down")

func (c *mapCache) Get(_ context.Context, k string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fail {
		return nil, false, errDown
	}
	v, ok := c.m[k]
	return v, ok, nil
}

func (c *mapCache) Set(_ context.Context, k string, v []byte, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fail {
		return errDown
	}
	c.m[k] = v
	return nil
}

func (c *mapCache) Delete(_ context.Context, k string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.m, k)
	return nil
}

// runCompliance exercises the contract every level must honour.
func runCompliance(t *testing.T, c Cache) {
	t.Helper()
	ctx := context.Background()

	t.Run("SetAndGet", func(t *testing.T) {
		if err := c.Set(ctx, "k1", []byte("v1"), time.Minute); err != nil {
			t.Fatal(err)
		}
		v, ok, err := c.Get(ctx, "k1")
		if err != nil || !ok || string(v) != "v1" {
			t.Fatalf("Get = %q, %v, %v", v, ok, err)
		}
	})

	t.Run("GetMiss", func(t *testing.T) {
		_, ok, err := c.Get(ctx, "never")
		if err != nil || ok {
			t.Fatalf("miss = %v, %v", ok, err)
		}
	})

	t.Run("Overwrite", func(t *testing.T) {
		_ = c.Set(ctx, "ow", []byte("a"), time.Minute)
		_ = c.Set(ctx, "ow", []byte("b"), time.Minute)
		v, ok, _ := c.Get(ctx, "ow")
		if !ok || string(v) != "b" {
			t.Fatalf("overwrite = %q, %v", v, ok)
		}
	})

	t.Run("Delete", func(t *testing.T) {
		_ = c.Set(ctx, "del", []byte("x"), time.Minute)
		if err := c.Delete(ctx, "del"); err != nil {
			t.Fatal(err)
		}
		if _, ok, _ := c.Get(ctx, "del"); ok {
			t.Fatal("expected miss after Delete")
		}
		if err := c.Delete(ctx, "never-existed"); err != nil {
			t.Fatalf("Delete of absent key: %v", err)
		}
	})
}

func TestLocal(t *testing.T) {
	l, err := NewLocal(1 << 20)
	if err != nil {
		t.Fatalf("NewLocal: %v", err)
	}
	defer l.Close()
	runCompliance(t, l)
}

func TestLocal_TTLExpiry(t *testing.T) {
	l, err := NewLocal(1 << 20)
	if err != nil {
		t.Fatalf("NewLocal: %v", err)
	}
	defer l.Close()

	ctx := context.Background()
	_ = l.Set(ctx, "short", []byte("v"), 50*time.Millisecond)
	time.Sleep(200 * time.Millisecond)
	if _, ok, _ := l.Get(ctx, "short"); ok {
		t.Fatal("entry should have expired")
	}
}

func TestTiered(t *testing.T) {
	runCompliance(t, NewTiered(newMapCache(), newMapCache(), time.Minute))
}

func TestTiered_BackfillsL1(t *testing.T) {
	ctx := context.Background()
	l1, l2 := newMapCache(), newMapCache()
	_ = l2.Set(ctx, "k", []byte("from-l2"), time.Minute)

	tc := NewTiered(l1, l2, time.Minute)
	v, ok, err := tc.Get(ctx, "k")
	if err != nil || !ok || string(v) != "from-l2" {
		t.Fatalf("Get = %q, %v, %v", v, ok, err)
	}
	if v, ok, _ := l1.Get(ctx, "k"); !ok || string(v) != "from-l2" {
		t.Fatal("L1 was not backfilled")
	}
}

func TestTiered_L2FailureIsMiss(t *testing.T) {
	ctx := context.Background()
	l2 := newMapCache()
	l2.fail = true

	tc := NewTiered(newMapCache(), l2, time.Minute)
	if _, ok, err := tc.Get(ctx, "k"); ok || err != nil {
		t.Fatalf("Get = %v, %v; want clean miss", ok, err)
	}
	if err := tc.Set(ctx, "k", []byte("v"), time.Minute); err != nil {
		t.Fatalf("Set must tolerate L2 failure: %v", err)
	}
	if v, ok, _ := tc.Get(ctx, "k"); !ok || string(v) != "v" {
		t.Fatal("L1 should still serve the value")
	}
}
