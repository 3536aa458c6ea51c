// internal/middleware/security.go
//
// Security-header middleware.
//
// Context
// -------
// The same process answers for the platform's own hosts and for every
// tenant's custom domain, so one HSTS policy does not fit all:
//
//	app host        max-age=63072000; includeSubDomains; preload
//	custom domain   max-age=31536000
//
// A tenant owns its apex and sibling subdomains, and pinning them to HTTPS
// (or submitting them for preload) is the tenant's decision, not ours.
// HSTS is only sent on secure requests; browsers ignore it over HTTP.
//
// Notes
// -----
// • Headers are set before next.ServeHTTP.  Anything added after the
//   handler writes its status line never reaches the client.
// • Published pages carry a theme <style> block and images hosted
//   anywhere, hence 'unsafe-inline' for style-src and https: for img-src.
//   Scripts stay self-only; JSON-LD blocks are data and are not executed.

package middleware

import "net/http"

const (
	hstsApp    = "max-age=63072000; includeSubDomains; preload"
	hstsTenant = "max-age=31536000"
)

var baseHeaders = [][2]string{
	{"Content-Security-Policy", "default-src 'self'; img-src 'self' data: https:; " +
		"style-src 'self' 'unsafe-inline'; object-src 'none'; " +
		"base-uri 'self'; frame-ancestors 'none'"},
	{"X-Frame-Options", "DENY"},
	{"X-Content-Type-Options", "nosniff"},
	{"Referrer-Policy", "strict-origin-when-cross-origin"},
	{"Permissions-Policy", "geolocation=(), microphone=(), camera=()"},
}

// Security returns the header middleware.  isAppHost reports whether a
// Host header belongs to the platform; the classifier's PassThrough
// decision is the usual source.
func Security(isAppHost func(host string) bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			for _, kv := range baseHeaders {
				h.Set(kv[0], kv[1])
			}
			if isSecure(r) {
				if isAppHost(r.Host) {
					h.Set("Strict-Transport-Security", hstsApp)
				} else {
					h.Set("Strict-Transport-Security", hstsTenant)
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}
