package vault

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
)

func TestParseRef(t *testing.T) {
	cases := []struct {
		in        string
		path, key string
		ok        bool
	}{
		{"vault:secret/siteforge#api_key", "secret/siteforge", "api_key", true},
		{"vault:kv/a/b#k", "kv/a/b", "k", true},
		{"vault:secret/siteforge", "", "", false},
		{"vault:#k", "", "", false},
		{"vault:secret#", "", "", false},
		{"plain", "", "", false},
	}
	for _, tc := range cases {
		p, k, err := ParseRef(tc.in)
		if (err == nil) != tc.ok || p != tc.path || k != tc.key {
			t.Errorf("ParseRef(%q) = %q, %q, %v", tc.in, p, k, err)
		}
	}
}

func TestSplitMount(t *testing.T) {
	m, r := splitMount("secret/siteforge/prod")
	if m != "secret" || r != "siteforge/prod" {
		t.Fatalf("got %q %q", m, r)
	}
	if m, r := splitMount("kv"); m != "kv" || r != "" {
		t.Fatalf("bare mount: got %q %q", m, r)
	}
}

// fakeVault serves one KV-v2 secret and counts reads.
func fakeVault(t *testing.T, reads *atomic.Int32) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/secret/data/siteforge" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		reads.Add(1)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":{"data":{"rest_api_key":"s3cr3t","dsn":"postgres://u:p@db/sites","port":5432},` +
			`"metadata":{"created_time":"2025-01-01T00:00:00Z","deletion_time":"","destroyed":false,"version":1}}}`))
	}))
}

func TestResolveCachesSecret(t *testing.T) {
	var reads atomic.Int32
	srv := fakeVault(t, &reads)
	defer srv.Close()

	t.Setenv("VAULT_ADDR", srv.URL)
	t.Setenv("VAULT_TOKEN", "test-token")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	c, err := New(ctx)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	for i := 0; i < 3; i++ {
		v, err := c.Resolve(ctx, "vault:secret/siteforge#rest_api_key")
		if err != nil {
			t.Fatalf("Resolve: %v", err)
		}
		if v != "s3cr3t" {
			t.Fatalf("value = %q", v)
		}
	}
	if dsn, err := c.Resolve(ctx, "vault:secret/siteforge#dsn"); err != nil || dsn != "postgres://u:p@db/sites" {
		t.Fatalf("sibling key = %q, %v", dsn, err)
	}
	if reads.Load() != 1 {
		t.Fatalf("vault reads = %d, want 1", reads.Load())
	}

	if _, err := c.Resolve(ctx, "vault:secret/siteforge#missing"); err == nil {
		t.Fatal("expected error for missing key")
	}
	if _, err := c.Resolve(ctx, "vault:secret/siteforge#port"); err == nil {
		t.Fatal("expected error for non-string value")
	}
}
