// internal/routing/classifier.go
//
// Host classification and custom-domain rewrite.
//
// Context
// -------
// One binary serves both the builder application and every tenant's custom
// domain.  The Classifier looks only at the Host header and a static
// allow-list injected at start-up:
//
//   - exact app hostnames  (e.g. "app.example.com", "localhost")
//   - root domains         (any host equal to, or ending in ".{root}")
//
// A matching host is an app host and passes through untouched.  Every
// other host, including ones we have never heard of, is treated as a
// custom domain and its path is rewritten to /sites/{host}/{path}.
//
// Workflow
// --------
//  1. main.go builds a Classifier from config.
//  2. Middleware runs first in the chain, before any site lookup.
//  3. On rewrite the request is marked so /sites/... is only reachable
//     through this middleware, never directly from the outside.
//
// Notes
// -----
// • Classify is pure.  No I/O, no clock, no shared mutable state.
// • Scheme, method, and query string are never changed.
package routing

import (
	"context"
	"net"
	"net/http"
	"strings"

	"go.uber.org/zap"
)

// SitesPrefix is the internal route namespace for custom-domain requests.
const SitesPrefix = "/sites"

// Decision is the outcome of Classify.
type Decision int

const (
	PassThrough Decision = iota // builder application host
	Rewrite                     // tenant custom domain
)

func (d Decision) String() string {
	if d == PassThrough {
		return "pass_through"
	}
	return "rewrite"
}

// Classifier holds the immutable allow-list.  Safe for concurrent use.
type Classifier struct {
	hosts map[string]struct{}
	roots []string
}

// NewClassifier copies and normalises the allow-list.
func NewClassifier(appHosts, rootDomains []string) *Classifier {
	c := &Classifier{hosts: make(map[string]struct{}, len(appHosts))}
	for _, h := range appHosts {
		if h = HostOnly(h); h != "" {
			c.hosts[h] = struct{}{}
		}
	}
	for _, r := range rootDomains {
		if r = strings.TrimPrefix(HostOnly(r), "."); r != "" {
			c.roots = append(c.roots, r)
		}
	}
	return c
}

// Classify decides how a request for host is routed.  Every input,
// including the empty string, yields exactly one Decision.
func (c *Classifier) Classify(host string) Decision {
	h := HostOnly(host)
	if _, ok := c.hosts[h]; ok {
		return PassThrough
	}
	for _, r := range c.roots {
		if h == r || strings.HasSuffix(h, "."+r) {
			return PassThrough
		}
	}
	return Rewrite
}

// HostOnly strips an optional port (IPv6 aware), lower-cases the name,
// and drops a trailing dot.
func HostOnly(host string) string {
	host = strings.TrimSpace(host)
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	} else if strings.HasPrefix(host, "[") && strings.HasSuffix(host, "]") {
		host = host[1 : len(host)-1]
	}
	return strings.TrimSuffix(strings.ToLower(host), ".")
}

// SitePath builds the internal route for a custom-domain request.
func SitePath(host, path string) string {
	return BuildPath(strings.TrimPrefix(SitesPrefix, "/")+"/"+host, path)
}

//
// Middleware
//

type ctxKey struct{}

// Rewritten reports whether r was routed through the custom-domain rewrite.
func Rewritten(ctx context.Context) bool {
	v, _ := ctx.Value(ctxKey{}).(bool)
	return v
}

// Middleware rewrites custom-domain requests to SitePath.  A request
// without a Host header has no site to rewrite to and is rejected with 400.
func (c *Classifier) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if c.Classify(r.Host) == PassThrough {
			next.ServeHTTP(w, r)
			return
		}

		host := HostOnly(r.Host)
		if host == "" {
			zap.L().Debug("request without host", zap.String("path", r.URL.Path))
			http.Error(w, "missing Host header", http.StatusBadRequest)
			return
		}
		original := r.URL.Path
		target := SitePath(host, original)

		r2 := r.WithContext(context.WithValue(r.Context(), ctxKey{}, true))
		u := *r.URL
		u.Path = target
		u.RawPath = ""
		r2.URL = &u
		r2.RequestURI = u.RequestURI()

		zap.L().Debug("custom domain rewrite",
			zap.String("host", host),
			zap.String("from", original),
			zap.String("to", target))

		next.ServeHTTP(w, r2)
	})
}
