// internal/requestinfo/middleware.go
//
// Enrich attaches a *RequestInfo to every request.
//
// It runs right after the request-ID middleware so the access log can
// report the crawler flag and visitor country.  The browser's primary
// language also selects the copy of a 404 page when no site (and so no
// site language) is known.
//
// Notes
// -----
// • Crawlers are counted in crawler_requests_total.  They are the readers
//   of page titles, descriptions, and Open Graph images.
// • Client IP: the left-most public address in X-Forwarded-For wins.
//   Private and loopback hops added by internal proxies are skipped.
package requestinfo

import (
	"context"
	"net"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/yanizio/siteforge/internal/metrics"
)

// Enrich parses User-Agent, Accept-Language, and client IP once per request.
func Enrich(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		info := &RequestInfo{
			UA:        parseUA(r.UserAgent(), r.Header.Get("Accept-Language")),
			Geo:       lookupGeo(clientIP(r)),
			Timestamp: time.Now().UTC(),
		}
		if info.UA.IsBot {
			metrics.CrawlerRequestsTotal.Inc()
			zap.L().Debug("crawler request",
				zap.String("host", r.Host),
				zap.String("path", r.URL.Path),
				zap.String("agent", info.UA.Browser))
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, info)))
	})
}

func clientIP(r *http.Request) net.IP {
	var fallback net.IP
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		for _, part := range strings.Split(xff, ",") {
			ip := net.ParseIP(strings.TrimSpace(part))
			if ip == nil {
				continue
			}
			if isPublic(ip) {
				return ip
			}
			if fallback == nil {
				fallback = ip
			}
		}
	}
	if ip := net.ParseIP(strings.TrimSpace(r.Header.Get("X-Real-Ip"))); ip != nil {
		return ip
	}
	if fallback != nil {
		return fallback
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return net.ParseIP(host)
	}
	return nil
}

func isPublic(ip net.IP) bool {
	return !ip.IsPrivate() && !ip.IsLoopback() && !ip.IsLinkLocalUnicast() && !ip.IsUnspecified()
}
