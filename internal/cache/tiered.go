package cache

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Tiered checks L1, then L2, backfilling L1 on an L2 hit.  An L2 failure
// degrades to a miss: the shared tier is an optimisation, never a reason
// to fail a request.
type Tiered struct {
	l1       Cache
	l2       Cache
	l1Expire time.Duration
}

// NewTiered combines two levels.  l1Expire bounds how long a backfilled
// entry lives in L1.
func NewTiered(l1, l2 Cache, l1Expire time.Duration) *Tiered {
	return &Tiered{l1: l1, l2: l2, l1Expire: l1Expire}
}

// Get reads through both levels.
func (t *Tiered) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if v, ok, err := t.l1.Get(ctx, key); err == nil && ok {
		return v, true, nil
	}

	v, ok, err := t.l2.Get(ctx, key)
	if err != nil {
		zap.L().Warn("l2 cache get failed", zap.String("key", key), zap.Error(err))
		return nil, false, nil
	}
	if !ok {
		return nil, false, nil
	}
	_ = t.l1.Set(ctx, key, v, t.l1Expire)
	return v, true, nil
}

// Set writes L1 then L2.
func (t *Tiered) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := t.l1.Set(ctx, key, value, ttl); err != nil {
		return err
	}
	if err := t.l2.Set(ctx, key, value, ttl); err != nil {
		zap.L().Warn("l2 cache set failed", zap.String("key", key), zap.Error(err))
	}
	return nil
}

// Delete removes key from both levels.  Both deletes are attempted.
func (t *Tiered) Delete(ctx context.Context, key string) error {
	err1 := t.l1.Delete(ctx, key)
	err2 := t.l2.Delete(ctx, key)
	if err1 != nil {
		return err1
	}
	return err2
}
