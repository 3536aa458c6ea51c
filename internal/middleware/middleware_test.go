package middleware

import (
	"crypto/tls"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
})

func TestForceHTTPSRedirects(t *testing.T) {
	h := ForceHTTPS(true)(okHandler)

	req := httptest.NewRequest(http.MethodGet, "http://custom.example/menu?x=1", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusPermanentRedirect {
		t.Fatalf("status = %d, want 308", rr.Code)
	}
	if loc := rr.Header().Get("Location"); loc != "https://custom.example/menu?x=1" {
		t.Fatalf("Location = %q", loc)
	}
}

func TestForceHTTPSPassThrough(t *testing.T) {
	cases := []*http.Request{
		httptest.NewRequest(http.MethodGet, "http://localhost:8080/", nil),
		httptest.NewRequest(http.MethodGet, "http://127.0.0.1/", nil),
		func() *http.Request {
			r := httptest.NewRequest(http.MethodGet, "http://custom.example/", nil)
			r.Header.Set("X-Forwarded-Proto", "https")
			return r
		}(),
		func() *http.Request {
			r := httptest.NewRequest(http.MethodGet, "https://custom.example/", nil)
			r.TLS = &tls.ConnectionState{}
			return r
		}(),
		func() *http.Request {
			r := httptest.NewRequest(http.MethodGet, "/menu", nil)
			r.Host = ""
			return r
		}(),
	}
	h := ForceHTTPS(true)(okHandler)
	for _, req := range cases {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		if rr.Code != http.StatusOK {
			t.Errorf("%s: status = %d, want 200", req.Host, rr.Code)
		}
	}

	rr := httptest.NewRecorder()
	ForceHTTPS(false)(okHandler).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "http://custom.example/", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("disabled wrapper redirected: %d", rr.Code)
	}
}

func TestSecurityHeaders(t *testing.T) {
	isApp := func(h string) bool { return h == "app.example.com" }
	h := Security(isApp)(okHandler)

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "http://app.example.com/", nil))
	for _, name := range []string{
		"Content-Security-Policy", "X-Frame-Options", "X-Content-Type-Options",
		"Referrer-Policy", "Permissions-Policy",
	} {
		if rr.Header().Get(name) == "" {
			t.Errorf("missing %s", name)
		}
	}
	if csp := rr.Header().Get("Content-Security-Policy"); !strings.Contains(csp, "style-src 'self' 'unsafe-inline'") {
		t.Errorf("CSP = %q", csp)
	}
	if rr.Header().Get("Strict-Transport-Security") != "" {
		t.Error("HSTS sent over plain HTTP")
	}
}

func TestSecurityHSTSByHost(t *testing.T) {
	isApp := func(h string) bool { return h == "app.example.com" }
	h := Security(isApp)(okHandler)

	cases := []struct {
		host string
		want string
	}{
		{"app.example.com", hstsApp},
		{"shop.tenant.com", hstsTenant},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Host = tc.host
		req.Header.Set("X-Forwarded-Proto", "https")
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		if got := rr.Header().Get("Strict-Transport-Security"); got != tc.want {
			t.Errorf("%s: HSTS = %q, want %q", tc.host, got, tc.want)
		}
	}
}

func TestRequestID(t *testing.T) {
	var seen string
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	if len(seen) != 36 || rr.Header().Get(RequestIDHeader) != seen {
		t.Fatalf("generated id = %q, header = %q", seen, rr.Header().Get(RequestIDHeader))
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "edge-123")
	h.ServeHTTP(httptest.NewRecorder(), req)
	if seen != "edge-123" {
		t.Fatalf("inbound id not kept: %q", seen)
	}

	req.Header.Set(RequestIDHeader, "bad id <script>")
	h.ServeHTTP(httptest.NewRecorder(), req)
	if seen == "bad id <script>" {
		t.Fatal("malformed inbound id accepted")
	}
}

func TestAccessLog(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	restore := zap.ReplaceGlobals(zap.New(core))
	defer restore()

	h := RequestID(AccessLog(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte("nope"))
	})))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/s/x?token=secret", nil))

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("entries = %d", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["status"] != int64(404) || fields["bytes"] != int64(4) || fields["path"] != "/s/x" {
		t.Fatalf("fields = %v", fields)
	}
	for _, v := range fields {
		if s, ok := v.(string); ok && strings.Contains(s, "secret") {
			t.Fatal("query string leaked into log")
		}
	}
}

func TestAccessLogTraceID(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	restore := zap.ReplaceGlobals(zap.New(core))
	defer restore()

	tid, _ := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	sid, _ := trace.SpanIDFromHex("00f067aa0ba902b7")
	sc := trace.NewSpanContext(trace.SpanContextConfig{TraceID: tid, SpanID: sid, TraceFlags: trace.FlagsSampled})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(trace.ContextWithSpanContext(req.Context(), sc))
	AccessLog(okHandler).ServeHTTP(httptest.NewRecorder(), req)

	if got := logs.All()[0].ContextMap()["trace_id"]; got != tid.String() {
		t.Fatalf("trace_id = %v, want %s", got, tid)
	}
}
