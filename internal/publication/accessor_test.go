package publication

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/yanizio/siteforge/internal/cache"
	"github.com/yanizio/siteforge/internal/site"
)

type statusErr int

func (e statusErr) Error() string   { return "upstream failed" }
func (e statusErr) StatusCode() int { return int(e) }

// fakeBackend serves fixed data and counts calls.
type fakeBackend struct {
	domains  map[string]string
	slugs    map[string]string
	data     map[string]*site.PublishedSiteData
	err      error
	gate     chan struct{}
	resolves atomic.Int32
	fetches  atomic.Int32
}

func (f *fakeBackend) SiteIDByDomain(ctx context.Context, host string) (string, error) {
	f.resolves.Add(1)
	if f.gate != nil {
		select {
		case <-f.gate:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if f.err != nil {
		return "", f.err
	}
	id, ok := f.domains[host]
	if !ok {
		return "", site.ErrNotFound
	}
	return id, nil
}

func (f *fakeBackend) SiteIDBySlug(_ context.Context, slug string) (string, error) {
	f.resolves.Add(1)
	if f.err != nil {
		return "", f.err
	}
	id, ok := f.slugs[slug]
	if !ok {
		return "", site.ErrNotFound
	}
	return id, nil
}

func (f *fakeBackend) CurrentSnapshot(_ context.Context, id string) (*site.PublishedSiteData, error) {
	f.fetches.Add(1)
	d, ok := f.data[id]
	if !ok {
		return nil, site.ErrNotFound
	}
	return d, nil
}

func newBackend() *fakeBackend {
	return &fakeBackend{
		domains: map[string]string{"custom.example": "site-42"},
		slugs:   map[string]string{"bistro": "site-42", "empty": "site-7"},
		data: map[string]*site.PublishedSiteData{
			"site-42": {
				Site:     site.Site{Name: "Bistro", Settings: json.RawMessage(`{"language":"fr"}`)},
				Snapshot: site.Snapshot{Pages: []site.Page{{ID: "p1", Slug: "pricing"}}},
				Version:  2,
			},
		},
	}
}

func newAccessor(t *testing.T, b Backend) *Accessor {
	t.Helper()
	l, err := cache.NewLocal(1 << 20)
	if err != nil {
		t.Fatalf("NewLocal: %v", err)
	}
	t.Cleanup(l.Close)
	return New(b, l, time.Minute)
}

func TestByDomain_ResolvesAndCaches(t *testing.T) {
	b := newBackend()
	a := newAccessor(t, b)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		d, err := a.ByDomain(ctx, "Custom.Example.")
		if err != nil {
			t.Fatalf("ByDomain: %v", err)
		}
		if d.Site.Name != "Bistro" || d.Version != 2 {
			t.Fatalf("unexpected data: %+v", d)
		}
	}
	if got := b.resolves.Load(); got != 1 {
		t.Fatalf("resolves = %d, want 1 (cached)", got)
	}
	if got := b.fetches.Load(); got != 1 {
		t.Fatalf("fetches = %d, want 1 (cached)", got)
	}
}

func TestCacheKeyIsPerParameter(t *testing.T) {
	b := newBackend()
	a := newAccessor(t, b)
	ctx := context.Background()

	if _, err := a.BySlug(ctx, "bistro"); err != nil {
		t.Fatalf("BySlug: %v", err)
	}
	if _, err := a.BySlug(ctx, "nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("other slug must not hit the bistro entry: %v", err)
	}
	if CacheKey(RefSlug, "x") == CacheKey(RefDomain, "x") {
		t.Fatal("slug and domain keys must differ")
	}
}

// A simulated 500 is a service error; a simulated 404 is not.
func TestErrorKindDifferentiation(t *testing.T) {
	ctx := context.Background()

	b := newBackend()
	b.err = statusErr(500)
	d, err := newAccessor(t, b).ByDomain(ctx, "custom.example")
	if d != nil || !IsServiceError(err) {
		t.Fatalf("500: data=%v err=%v; want nil data and service error", d, err)
	}
	var se *ServiceError
	if !errors.As(err, &se) || se.Status != 500 || se.Op != "resolve_domain" {
		t.Fatalf("500: unexpected error shape %#v", err)
	}

	d, err = newAccessor(t, newBackend()).ByDomain(ctx, "unknown.example")
	if d != nil || IsServiceError(err) || !errors.Is(err, ErrNotFound) {
		t.Fatalf("404: data=%v err=%v; want nil data and not-found", d, err)
	}
}

func TestPublishedSiteWithoutSnapshotIsNotFound(t *testing.T) {
	_, err := newAccessor(t, newBackend()).BySlug(context.Background(), "empty")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestFailuresAreNotCached(t *testing.T) {
	b := newBackend()
	b.err = statusErr(503)
	a := newAccessor(t, b)
	ctx := context.Background()

	if _, err := a.BySlug(ctx, "bistro"); !IsServiceError(err) {
		t.Fatalf("first call: %v", err)
	}
	b.err = nil
	if _, err := a.BySlug(ctx, "bistro"); err != nil {
		t.Fatalf("recovered backend should serve: %v", err)
	}
}

func TestRawErrorsDoNotLeak(t *testing.T) {
	b := newBackend()
	b.err = errors.New("dial tcp 10.0.0.5:5432: password=hunter2 rejected")
	_, err := newAccessor(t, b).BySlug(context.Background(), "bistro")
	if !IsServiceError(err) {
		t.Fatalf("err = %v, want service error", err)
	}
	if msg := err.Error(); msg != "publication resolve_slug: service error" {
		t.Fatalf("error text leaks cause: %q", msg)
	}
}

func TestInvalidate(t *testing.T) {
	b := newBackend()
	a := newAccessor(t, b)
	ctx := context.Background()

	_, _ = a.ByDomain(ctx, "custom.example")
	if err := a.Invalidate(ctx, RefDomain, "CUSTOM.example"); err != nil {
		t.Fatalf("Invalidate: %v", err)
	}
	_, _ = a.ByDomain(ctx, "custom.example")
	if got := b.fetches.Load(); got != 2 {
		t.Fatalf("fetches = %d, want 2 after invalidation", got)
	}
}

func TestConcurrentMissesShareOneFetch(t *testing.T) {
	b := newBackend()
	b.gate = make(chan struct{})
	a := newAccessor(t, b)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := a.ByDomain(ctx, "custom.example"); err != nil {
				t.Errorf("ByDomain: %v", err)
			}
		}()
	}
	time.Sleep(50 * time.Millisecond)
	close(b.gate)
	wg.Wait()

	if got := b.resolves.Load(); got != 1 {
		t.Fatalf("resolves = %d, want 1", got)
	}
}

func TestCancelledRequestIsServiceError(t *testing.T) {
	b := newBackend()
	b.gate = make(chan struct{})
	defer close(b.gate)
	a := newAccessor(t, b)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := a.ByDomain(ctx, "custom.example")
	if !IsServiceError(err) || !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want service error wrapping context.Canceled", err)
	}
}

// waitFor polls cond until it holds or a second passes.
func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not reached")
		}
		time.Sleep(time.Millisecond)
	}
}

// A visitor disconnecting must not fail other requests waiting on the
// same key.
func TestCancelledCallerDoesNotFailWaiters(t *testing.T) {
	b := newBackend()
	b.gate = make(chan struct{})
	a := newAccessor(t, b)

	first, cancel := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := a.ByDomain(first, "custom.example")
		firstErr <- err
	}()
	waitFor(t, func() bool { return b.resolves.Load() == 1 })

	type result struct {
		d   *site.PublishedSiteData
		err error
	}
	second := make(chan result, 1)
	go func() {
		d, err := a.ByDomain(context.Background(), "custom.example")
		second <- result{d, err}
	}()
	time.Sleep(20 * time.Millisecond)

	cancel()
	if err := <-firstErr; !errors.Is(err, context.Canceled) {
		t.Fatalf("cancelled caller: err = %v, want context.Canceled", err)
	}

	close(b.gate)
	res := <-second
	if res.err != nil {
		t.Fatalf("waiting caller: %v", res.err)
	}
	if res.d.Site.Name != "Bistro" {
		t.Fatalf("waiting caller got %+v", res.d)
	}
	if got := b.resolves.Load(); got != 1 {
		t.Fatalf("resolves = %d, want 1 (shared fetch)", got)
	}
}

// An eviction that lands while a fetch is in flight must not be undone
// by that fetch storing the older snapshot.
func TestInvalidateDuringFetchWins(t *testing.T) {
	b := newBackend()
	b.gate = make(chan struct{})
	a := newAccessor(t, b)
	ctx := context.Background()

	done := make(chan error, 1)
	go func() {
		_, err := a.ByDomain(ctx, "custom.example")
		done <- err
	}()
	waitFor(t, func() bool { return b.resolves.Load() == 1 })

	if err := a.Invalidate(ctx, RefDomain, "custom.example"); err != nil {
		t.Fatalf("Invalidate: %v", err)
	}
	close(b.gate)
	if err := <-done; err != nil {
		t.Fatalf("in-flight ByDomain: %v", err)
	}

	if _, err := a.ByDomain(ctx, "custom.example"); err != nil {
		t.Fatalf("ByDomain: %v", err)
	}
	if got := b.fetches.Load(); got != 2 {
		t.Fatalf("fetches = %d, want 2 (stale store discarded)", got)
	}
}
