// internal/web/router.go
//
// HTTP surface.
//
// Context
// -------
// One listener serves both the app host and every tenant custom domain.
// The Domain Classifier runs ahead of the router: custom-domain requests
// arrive here already rewritten to /sites/{host}/…, app-host requests
// arrive untouched.
//
//	App host                         Custom domain
//	────────                         ─────────────
//	GET /            landing         GET /…   → /sites/{host}/…
//	GET /healthz     liveness
//	GET /readyz      readiness
//	GET /metrics     Prometheus
//	GET /s/{slug}/…  slug site
//	POST /api/domains, DELETE /api/cache/{kind}/{key}  (admin)
//
// Middleware order (outer → inner)
// --------------------------------
//
//	otelhttp → Recoverer → RequestID → requestinfo.Enrich → AccessLog →
//	Security → ForceHTTPS → Classifier → GetHead → routes
//
// Notes
// -----
// • /sites/{host}/… answers 404 unless the classifier produced it, so an
//   app-host visitor cannot render an arbitrary tenant by typing the path.
package web

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/yanizio/siteforge/internal/admin"
	"github.com/yanizio/siteforge/internal/middleware"
	"github.com/yanizio/siteforge/internal/requestinfo"
	"github.com/yanizio/siteforge/internal/routing"
	"github.com/yanizio/siteforge/internal/site"
	"github.com/yanizio/siteforge/internal/view"
)

// Sites is the read side of the publication accessor.
type Sites interface {
	BySlug(ctx context.Context, slug string) (*site.PublishedSiteData, error)
	ByDomain(ctx context.Context, host string) (*site.PublishedSiteData, error)
}

// Options wires the router.  Admin and Ready are optional.
type Options struct {
	Sites      Sites
	Renderer   *view.Renderer
	Classifier *routing.Classifier
	Admin      *admin.Handler
	ForceHTTPS bool
	Ready      func(context.Context) error
}

// NewRouter returns the fully wrapped root handler.
func NewRouter(o Options) http.Handler {
	h := &handlers{sites: o.Sites, view: o.Renderer, ready: o.Ready}

	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(requestinfo.Enrich)
	r.Use(middleware.AccessLog)
	r.Use(middleware.Security(func(host string) bool {
		return o.Classifier.Classify(host) == routing.PassThrough
	}))
	r.Use(middleware.ForceHTTPS(o.ForceHTTPS))
	r.Use(o.Classifier.Middleware)
	r.Use(chimw.GetHead)

	r.Get("/", h.landing)
	r.Get("/healthz", h.healthz)
	r.Get("/readyz", h.readyz)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Get("/s/{slug}", h.bySlug)
	r.Get("/s/{slug}/*", h.bySlug)

	r.Get(routing.SitesPrefix+"/{host}", h.byDomain)
	r.Get(routing.SitesPrefix+"/{host}/*", h.byDomain)

	if o.Admin != nil {
		o.Admin.Routes(r)
	}

	r.NotFound(h.notFound)

	return otelhttp.NewHandler(r, "siteforge",
		otelhttp.WithFilter(func(r *http.Request) bool {
			return r.URL.Path != "/healthz" && r.URL.Path != "/metrics"
		}))
}
