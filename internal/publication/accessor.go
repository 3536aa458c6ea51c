// internal/publication/accessor.go
//
// Publication Store Accessor.
//
// Context
// -------
// Every public request resolves a site identifier (by slug or by custom
// domain) and then fetches that site's current publish.  The Accessor
// wraps a Backend (SQL repository or REST client) and adds:
//
//   - error classification  - absent content is ErrNotFound, everything
//     else becomes *ServiceError so callers never render a 404 for an
//     outage;
//   - a keyed response cache - the JSON form of PublishedSiteData under
//     a key that embeds the slug or hostname, for a short fixed TTL;
//   - singleflight           - concurrent misses for the same key share
//     one backend round-trip.  The shared call is detached from any one
//     caller's cancellation and bounded by FetchTimeout instead.
//
// Workflow
// --------
//  1. Cache hit → decode a private copy and return.
//  2. Miss → resolve identifier (1st backend call), fetch snapshot (2nd),
//     store, return.  Failures are never cached.
//
// Notes
// -----
// • The accessor holds no per-request state; the cache is the only shared
//   mutable structure.
// • Logs carry the error kind and upstream status only.
// • Invalidate bumps a per-key generation.  A fetch that started before the
//   bump removes its own store again, so an eviction always wins.
package publication

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/yanizio/siteforge/internal/cache"
	"github.com/yanizio/siteforge/internal/metrics"
	"github.com/yanizio/siteforge/internal/site"
)

// DefaultTTL bounds how stale a published page may be.
const DefaultTTL = 60 * time.Second

// FetchTimeout bounds one shared backend round-trip.
const FetchTimeout = 10 * time.Second

const tracerName = "github.com/yanizio/siteforge/internal/publication"

// Ref names the kind of identifier a request arrived with.
type Ref string

const (
	RefDomain Ref = "domain"
	RefSlug   Ref = "slug"
)

// Valid reports whether r is a known reference kind.
func (r Ref) Valid() bool { return r == RefDomain || r == RefSlug }

// Backend is the query contract of the managed data store.  Absent rows
// must be reported as site.ErrNotFound; any other error is a service fault.
type Backend interface {
	SiteIDByDomain(ctx context.Context, host string) (string, error)
	SiteIDBySlug(ctx context.Context, slug string) (string, error)
	CurrentSnapshot(ctx context.Context, siteID string) (*site.PublishedSiteData, error)
}

// Accessor resolves and caches published sites.
type Accessor struct {
	backend Backend
	cache   cache.Cache
	ttl     time.Duration
	sfg     singleflight.Group

	mu  sync.Mutex
	gen map[string]uint64
}

// New builds an Accessor.  A ttl ≤ 0 selects DefaultTTL.
func New(b Backend, c cache.Cache, ttl time.Duration) *Accessor {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Accessor{backend: b, cache: c, ttl: ttl, gen: make(map[string]uint64)}
}

// CacheKey is the cache key for one slug or hostname.
func CacheKey(ref Ref, key string) string {
	return "pub:v1:" + string(ref) + ":" + key
}

// NormalizeHost lower-cases a hostname and drops a trailing dot.
func NormalizeHost(h string) string {
	return strings.TrimSuffix(strings.ToLower(h), ".")
}

//
// Uncached operations
//

// ResolveByDomain returns the site bound to an active custom domain.
func (a *Accessor) ResolveByDomain(ctx context.Context, host string) (string, error) {
	id, err := a.backend.SiteIDByDomain(ctx, NormalizeHost(host))
	return id, classify("resolve_domain", err)
}

// ResolveBySlug returns the id of a published site.
func (a *Accessor) ResolveBySlug(ctx context.Context, slug string) (string, error) {
	id, err := a.backend.SiteIDBySlug(ctx, slug)
	return id, classify("resolve_slug", err)
}

// FetchCurrentSnapshot loads site metadata plus the current publish.
func (a *Accessor) FetchCurrentSnapshot(ctx context.Context, siteID string) (*site.PublishedSiteData, error) {
	d, err := a.backend.CurrentSnapshot(ctx, siteID)
	if err != nil {
		return nil, classify("fetch_snapshot", err)
	}
	return d, nil
}

//
// Cached entry points
//

// ByDomain resolves a custom domain to its current published data.
func (a *Accessor) ByDomain(ctx context.Context, host string) (*site.PublishedSiteData, error) {
	host = NormalizeHost(host)
	return a.load(ctx, RefDomain, host, a.ResolveByDomain)
}

// BySlug resolves a site slug to its current published data.
func (a *Accessor) BySlug(ctx context.Context, slug string) (*site.PublishedSiteData, error) {
	return a.load(ctx, RefSlug, slug, a.ResolveBySlug)
}

// Invalidate evicts the cached entry for one slug or hostname.
func (a *Accessor) Invalidate(ctx context.Context, ref Ref, key string) error {
	if ref == RefDomain {
		key = NormalizeHost(key)
	}
	ck := CacheKey(ref, key)
	a.mu.Lock()
	a.gen[ck]++
	a.mu.Unlock()
	a.sfg.Forget(ck)
	return a.cache.Delete(ctx, ck)
}

func (a *Accessor) generation(ck string) uint64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.gen[ck]
}

type resolveFunc func(context.Context, string) (string, error)

func (a *Accessor) load(ctx context.Context, ref Ref, key string, resolve resolveFunc) (*site.PublishedSiteData, error) {
	ck := CacheKey(ref, key)

	if d, ok := a.cached(ctx, ck); ok {
		metrics.PublicationCacheTotal.WithLabelValues("hit").Inc()
		return d, nil
	}
	metrics.PublicationCacheTotal.WithLabelValues("miss").Inc()

	ch := a.sfg.DoChan(ck, func() (any, error) {
		fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), FetchTimeout)
		defer cancel()
		return a.fetch(fctx, ref, key, ck, resolve)
	})

	select {
	case <-ctx.Done():
		return nil, &ServiceError{Op: "fetch_snapshot", Err: ctx.Err()}
	case res := <-ch:
		if res.Err != nil {
			a.logFailure(ref, key, res.Err)
			return nil, res.Err
		}
		return res.Val.(*site.PublishedSiteData), nil
	}
}

func (a *Accessor) fetch(ctx context.Context, ref Ref, key, ck string, resolve resolveFunc) (*site.PublishedSiteData, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "publication.fetch")
	defer span.End()
	span.SetAttributes(attribute.String("publication.ref", string(ref)))

	gen := a.generation(ck)

	start := time.Now()
	defer func() { metrics.PublicationFetchSeconds.Observe(time.Since(start).Seconds()) }()

	id, err := resolve(ctx, key)
	if err != nil {
		span.SetStatus(codes.Error, ErrorKind(err))
		return nil, err
	}
	d, err := a.FetchCurrentSnapshot(ctx, id)
	if err != nil {
		span.SetStatus(codes.Error, ErrorKind(err))
		return nil, err
	}

	if verr := d.Snapshot.Validate(); verr != nil {
		zap.L().Warn("snapshot integrity",
			zap.String("site_id", id),
			zap.Int("version", d.Version),
			zap.String("problem", verr.Error()))
	}

	a.store(ctx, ck, gen, d)
	return d, nil
}

// cached decodes a private copy so callers never share mutable state.
func (a *Accessor) cached(ctx context.Context, ck string) (*site.PublishedSiteData, bool) {
	raw, ok, err := a.cache.Get(ctx, ck)
	if err != nil || !ok {
		return nil, false
	}
	var d site.PublishedSiteData
	if err := json.Unmarshal(raw, &d); err != nil {
		_ = a.cache.Delete(ctx, ck)
		return nil, false
	}
	return &d, true
}

// store caches d unless ck was invalidated since gen was read.  The
// generation is checked again after Set: an Invalidate racing with the
// write either sees the entry and deletes it, or is seen here.
func (a *Accessor) store(ctx context.Context, ck string, gen uint64, d *site.PublishedSiteData) {
	raw, err := json.Marshal(d)
	if err != nil {
		return
	}
	if a.generation(ck) != gen {
		return
	}
	if err := a.cache.Set(ctx, ck, raw, a.ttl); err != nil {
		zap.L().Warn("publication cache set failed", zap.String("key", ck))
		return
	}
	if a.generation(ck) != gen {
		_ = a.cache.Delete(ctx, ck)
	}
}

func (a *Accessor) logFailure(ref Ref, key string, err error) {
	kind := ErrorKind(err)
	metrics.PublicationErrorsTotal.WithLabelValues(kind).Inc()
	if kind == "not_found" {
		zap.L().Debug("publication not found", zap.String("ref", string(ref)), zap.String("key", key))
		return
	}
	status := 0
	if se, ok := err.(*ServiceError); ok {
		status = se.Status
	}
	zap.L().Warn("publication lookup failed",
		zap.String("ref", string(ref)),
		zap.String("key", key),
		zap.String("kind", kind),
		zap.Int("status", status))
}
