package web

import (
	"bytes"
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/yanizio/siteforge/internal/metrics"
	"github.com/yanizio/siteforge/internal/middleware"
	"github.com/yanizio/siteforge/internal/publication"
	"github.com/yanizio/siteforge/internal/requestinfo"
	"github.com/yanizio/siteforge/internal/routing"
	"github.com/yanizio/siteforge/internal/site"
	"github.com/yanizio/siteforge/internal/view"
)

// RetryAfter is sent with every 503 page, in seconds.
const RetryAfter = "30"

type handlers struct {
	sites Sites
	view  *view.Renderer
	ready func(context.Context) error
}

//
// App-host endpoints
//

func (h *handlers) landing(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("SiteForge is running.  Published sites live at /s/{slug} or on their own domain.\n"))
}

func (h *handlers) healthz(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok\n"))
}

func (h *handlers) readyz(w http.ResponseWriter, r *http.Request) {
	if h.ready != nil {
		if err := h.ready(r.Context()); err != nil {
			zap.L().Warn("readiness check failed", zap.Error(err))
			http.Error(w, "not ready", http.StatusServiceUnavailable)
			return
		}
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ready\n"))
}

//
// Published sites
//

func (h *handlers) bySlug(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	h.serveSite(w, r, "slug", "/s/"+slug, func(ctx context.Context) (*site.PublishedSiteData, error) {
		return h.sites.BySlug(ctx, slug)
	})
}

func (h *handlers) byDomain(w http.ResponseWriter, r *http.Request) {
	if !routing.Rewritten(r.Context()) {
		h.notFound(w, r)
		return
	}
	host := chi.URLParam(r, "host")
	h.serveSite(w, r, "domain", "/", func(ctx context.Context) (*site.PublishedSiteData, error) {
		return h.sites.ByDomain(ctx, host)
	})
}

type loadFunc func(context.Context) (*site.PublishedSiteData, error)

// serveSite runs resolve → page → render for one request.  homeURL is the
// site root as the visitor sees it.
func (h *handlers) serveSite(w http.ResponseWriter, r *http.Request, route, homeURL string, load loadFunc) {
	d, err := load(r.Context())
	if err != nil {
		if errors.Is(err, publication.ErrNotFound) {
			metrics.SiteRequestsTotal.WithLabelValues(route, "not_found").Inc()
			h.writeNotFound(w, r, visitorLang(r), "")
			return
		}
		metrics.SiteRequestsTotal.WithLabelValues(route, "unavailable").Inc()
		h.writeUnavailable(w, r, visitorLang(r))
		return
	}

	lang := d.Theme().Language
	subPath := site.JoinSegments(routing.SplitSubPath(chi.URLParam(r, "*")))
	page, err := d.Snapshot.ResolvePage(subPath)
	if err != nil {
		metrics.SiteRequestsTotal.WithLabelValues(route, "not_found").Inc()
		h.writeNotFound(w, r, lang, homeURL)
		return
	}

	var buf bytes.Buffer
	if err := h.view.Write(&buf, h.view.Render(d, page)); err != nil {
		zap.L().Error("layout render failed",
			zap.String("route", route),
			zap.String("page_id", page.ID),
			zap.String("request_id", middleware.GetRequestID(r.Context())),
			zap.Error(err))
		metrics.SiteRequestsTotal.WithLabelValues(route, "unavailable").Inc()
		h.writeUnavailable(w, r, lang)
		return
	}

	metrics.SiteRequestsTotal.WithLabelValues(route, "ok").Inc()
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "public, max-age=60")
	_, _ = buf.WriteTo(w)
}

//
// Status pages
//

func (h *handlers) notFound(w http.ResponseWriter, r *http.Request) {
	h.writeNotFound(w, r, visitorLang(r), "")
}

func (h *handlers) writeNotFound(w http.ResponseWriter, r *http.Request, lang, homeURL string) {
	h.writeStatus(w, r, http.StatusNotFound, func(buf *bytes.Buffer) error {
		return h.view.NotFound(buf, lang, homeURL)
	})
}

func (h *handlers) writeUnavailable(w http.ResponseWriter, r *http.Request, lang string) {
	w.Header().Set("Retry-After", RetryAfter)
	h.writeStatus(w, r, http.StatusServiceUnavailable, func(buf *bytes.Buffer) error {
		return h.view.Unavailable(buf, lang)
	})
}

func (h *handlers) writeStatus(w http.ResponseWriter, r *http.Request, code int, render func(*bytes.Buffer) error) {
	w.Header().Set("Cache-Control", "no-store")
	var buf bytes.Buffer
	if err := render(&buf); err != nil {
		zap.L().Error("status page render failed",
			zap.Int("status", code),
			zap.String("request_id", middleware.GetRequestID(r.Context())),
			zap.Error(err))
		http.Error(w, http.StatusText(code), code)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(code)
	_, _ = buf.WriteTo(w)
}

// visitorLang is the browser's primary language, used before a site (and
// its configured language) is known.
func visitorLang(r *http.Request) string {
	if info := requestinfo.FromContext(r.Context()); info != nil {
		return info.UA.PrimaryLang
	}
	return ""
}
