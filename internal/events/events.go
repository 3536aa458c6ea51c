// internal/events/events.go
//
// Publish-event cache invalidation.
//
// Context
// -------
// The editor publishes on NATS (`nats.subject`, default "sites.published")
// after flipping a site's `is_current` row:
//
//	{"site_id": "…", "slug": "acme", "domains": ["acme.com", "www.acme.com"]}
//
// Each replica evicts the slug key and every domain key so the next
// request reads the new snapshot instead of waiting out the TTL.
//
// Notes
// -----
// • Plain subscription, no queue group.  Every replica holds its own L1
//   and must see every event.
// • Eviction failures are logged and otherwise ignored; the TTL still
//   bounds staleness.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/yanizio/siteforge/internal/metrics"
	"github.com/yanizio/siteforge/internal/publication"
)

// DefaultSubject is used when config leaves nats.subject empty.
const DefaultSubject = "sites.published"

// Published is the wire form of a publish event.
type Published struct {
	SiteID  string   `json:"site_id"`
	Slug    string   `json:"slug"`
	Domains []string `json:"domains"`
}

// Invalidator evicts one cached publication.
type Invalidator interface {
	Invalidate(ctx context.Context, ref publication.Ref, key string) error
}

// Subscriber owns the NATS connection.
type Subscriber struct {
	nc  *nats.Conn
	sub *nats.Subscription
	inv Invalidator
}

// Subscribe connects to url and starts evicting on subject.  The
// subscription ends when ctx is cancelled or Close is called.
func Subscribe(ctx context.Context, url, subject string, inv Invalidator) (*Subscriber, error) {
	if subject == "" {
		subject = DefaultSubject
	}
	nc, err := nats.Connect(url,
		nats.Name("siteforge-web"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				zap.L().Warn("nats disconnected", zap.Error(err))
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			zap.L().Info("nats reconnected", zap.String("url", c.ConnectedUrl()))
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	s := &Subscriber{nc: nc, inv: inv}
	s.sub, err = nc.Subscribe(subject, func(m *nats.Msg) {
		if err := s.handle(context.Background(), m.Data); err != nil {
			zap.L().Warn("publish event rejected", zap.String("subject", m.Subject), zap.Error(err))
		}
	})
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("nats subscribe %s: %w", subject, err)
	}

	zap.L().Info("listening for publish events", zap.String("subject", subject))
	go func() {
		<-ctx.Done()
		s.Close()
	}()
	return s, nil
}

// Close drains the subscription and closes the connection.  Safe to call
// more than once.
func (s *Subscriber) Close() {
	if s.nc == nil || s.nc.IsClosed() {
		return
	}
	if err := s.nc.Drain(); err != nil {
		s.nc.Close()
	}
}

var errEmptyEvent = errors.New("event names neither slug nor domains")

func (s *Subscriber) handle(ctx context.Context, data []byte) error {
	var ev Published
	if err := json.Unmarshal(data, &ev); err != nil {
		return fmt.Errorf("decode event: %w", err)
	}
	if ev.Slug == "" && len(ev.Domains) == 0 {
		return errEmptyEvent
	}

	evict := func(ref publication.Ref, key string) {
		if key == "" {
			return
		}
		if err := s.inv.Invalidate(ctx, ref, key); err != nil {
			zap.L().Warn("cache eviction failed", zap.String("ref", string(ref)), zap.Error(err))
			return
		}
		metrics.CacheInvalidationsTotal.WithLabelValues("event").Inc()
	}

	evict(publication.RefSlug, ev.Slug)
	for _, d := range ev.Domains {
		evict(publication.RefDomain, d)
	}
	zap.L().Debug("publish event applied",
		zap.String("site_id", ev.SiteID),
		zap.Int("domains", len(ev.Domains)))
	return nil
}
