package events

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/yanizio/siteforge/internal/cache"
	"github.com/yanizio/siteforge/internal/publication"
)

type recorder struct {
	keys []string
	fail bool
}

func (r *recorder) Invalidate(_ context.Context, ref publication.Ref, key string) error {
	if r.fail {
		return errors.New("cache down")
	}
	r.keys = append(r.keys, publication.CacheKey(ref, key))
	return nil
}

func TestHandle_EvictsSlugAndDomains(t *testing.T) {
	rec := &recorder{}
	s := &Subscriber{inv: rec}

	err := s.handle(context.Background(), []byte(`{"site_id":"s1","slug":"acme","domains":["acme.com","www.acme.com"]}`))
	if err != nil {
		t.Fatalf("handle: %v", err)
	}
	want := []string{"pub:v1:slug:acme", "pub:v1:domain:acme.com", "pub:v1:domain:www.acme.com"}
	if len(rec.keys) != len(want) {
		t.Fatalf("keys = %v, want %v", rec.keys, want)
	}
	for i := range want {
		if rec.keys[i] != want[i] {
			t.Errorf("keys[%d] = %q, want %q", i, rec.keys[i], want[i])
		}
	}
}

func TestHandle_Rejects(t *testing.T) {
	s := &Subscriber{inv: &recorder{}}
	for _, body := range []string{`not json`, `{"site_id":"s1"}`, `{"slug":"","domains":[]}`} {
		if err := s.handle(context.Background(), []byte(body)); err == nil {
			t.Errorf("handle(%s) = nil, want error", body)
		}
	}
}

func TestHandle_EvictionFailureIsNotFatal(t *testing.T) {
	s := &Subscriber{inv: &recorder{fail: true}}
	if err := s.handle(context.Background(), []byte(`{"slug":"acme"}`)); err != nil {
		t.Fatalf("handle: %v", err)
	}
}

// The accessor is the production Invalidator; a cached entry must be gone
// after the event.
func TestHandle_ThroughAccessor(t *testing.T) {
	l1, err := cache.NewLocal(1 << 20)
	if err != nil {
		t.Fatal(err)
	}
	defer l1.Close()
	ctx := context.Background()

	key := publication.CacheKey(publication.RefDomain, "acme.com")
	if err := l1.Set(ctx, key, []byte(`{}`), time.Minute); err != nil {
		t.Fatal(err)
	}
	if _, ok, _ := l1.Get(ctx, key); !ok {
		t.Skip("ristretto dropped the seed entry")
	}

	s := &Subscriber{inv: publication.New(nil, l1, time.Minute)}
	if err := s.handle(ctx, []byte(`{"domains":["ACME.com."]}`)); err != nil {
		t.Fatal(err)
	}
	if _, ok, _ := l1.Get(ctx, key); ok {
		t.Fatal("domain entry survived the publish event")
	}
}

func TestCloseWithoutConnection(t *testing.T) {
	(&Subscriber{}).Close()
}
