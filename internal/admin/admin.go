// internal/admin/admin.go
//
// Operator API on the app host.
//
// Context
// -------
// Two endpoints, both behind a bearer token whose bcrypt hash lives in
// config (`admin.token_hash`):
//
//	POST   /api/domains              {"domain": "shop.example.com"}
//	DELETE /api/cache/{kind}/{key}   kind = slug | domain
//
// The first registers a custom domain with the hosting provider and
// returns the DNS records still needed for verification.  The second
// evicts one cached publication so an operator can force a refresh.
//
// Workflow
// --------
//  1. No token hash configured → 500.  Wrong or missing token → 401 with
//     no detail.
//  2. Body or path validation → 400 `{error, field, message}`.
//  3. Provider not configured → 500.  Provider non-2xx → same status.
//
// Notes
// -----
// • The admin surface is never mounted on tenant hosts; the classifier
//   rewrites those before the router sees them.
package admin

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/yanizio/siteforge/internal/metrics"
	"github.com/yanizio/siteforge/internal/provider"
	"github.com/yanizio/siteforge/internal/publication"
	"github.com/yanizio/siteforge/internal/site"
)

// DomainAdder is the hosting-provider contract.
type DomainAdder interface {
	AddDomain(ctx context.Context, domain string) (*provider.DomainResult, error)
}

// Invalidator evicts one cached publication.
type Invalidator interface {
	Invalidate(ctx context.Context, ref publication.Ref, key string) error
}

// Handler serves the admin endpoints.  A nil DomainAdder means the
// provider is not configured.
type Handler struct {
	tokenHash []byte
	provider  DomainAdder
	inv       Invalidator
	validate  *validator.Validate
}

// New builds a Handler.
func New(tokenHash string, p DomainAdder, inv Invalidator) *Handler {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("custom_domain", func(fl validator.FieldLevel) bool {
		return site.ValidHostname(fl.Field().String())
	})
	return &Handler{tokenHash: []byte(tokenHash), provider: p, inv: inv, validate: v}
}

// Routes mounts the endpoints on r.
func (h *Handler) Routes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.requireToken)
		r.Post("/api/domains", h.addDomain)
		r.Delete("/api/cache/{kind}/{key}", h.invalidate)
	})
}

//
// Auth
//

func (h *Handler) requireToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if len(h.tokenHash) == 0 {
			zap.L().Error("admin token hash not configured")
			writeJSON(w, http.StatusInternalServerError, errorBody{Error: "server_misconfigured"})
			return
		}
		tok, ok := bearer(r.Header.Get("Authorization"))
		if !ok || bcrypt.CompareHashAndPassword(h.tokenHash, []byte(tok)) != nil {
			writeJSON(w, http.StatusUnauthorized, errorBody{Error: "unauthorized"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func bearer(v string) (string, bool) {
	const prefix = "bearer "
	if len(v) <= len(prefix) || !strings.EqualFold(v[:len(prefix)], prefix) {
		return "", false
	}
	return strings.TrimSpace(v[len(prefix):]), true
}

//
// POST /api/domains
//

type addDomainRequest struct {
	Domain string `json:"domain" validate:"required,max=253,custom_domain"`
}

type addDomainResponse struct {
	Success      bool                    `json:"success"`
	Domain       string                  `json:"domain"`
	Verified     bool                    `json:"verified"`
	Verification []provider.Verification `json:"verification"`
}

func (h *Handler) addDomain(w http.ResponseWriter, r *http.Request) {
	var req addDomainRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 4<<10))
	if err := dec.Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "validation", Message: "request body must be a JSON object"})
		return
	}
	req.Domain = publication.NormalizeHost(strings.TrimSpace(req.Domain))

	if err := h.validate.Struct(req); err != nil {
		writeJSON(w, http.StatusBadRequest, fieldError(err))
		return
	}

	if h.provider == nil {
		zap.L().Error("hosting provider not configured")
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "provider_not_configured"})
		return
	}

	res, err := h.provider.AddDomain(r.Context(), req.Domain)
	if err != nil {
		status := http.StatusBadGateway
		var se *provider.StatusError
		if errors.As(err, &se) {
			status = se.StatusCode()
		}
		zap.L().Warn("provider add domain failed", zap.String("domain", req.Domain), zap.Int("status", status))
		writeJSON(w, status, errorBody{Error: "provider", Message: "hosting provider rejected the request"})
		return
	}

	zap.L().Info("custom domain registered", zap.String("domain", req.Domain), zap.Bool("verified", res.Verified))
	writeJSON(w, http.StatusOK, addDomainResponse{
		Success:      true,
		Domain:       req.Domain,
		Verified:     res.Verified,
		Verification: res.Verification,
	})
}

//
// DELETE /api/cache/{kind}/{key}
//

func (h *Handler) invalidate(w http.ResponseWriter, r *http.Request) {
	ref := publication.Ref(chi.URLParam(r, "kind"))
	key := chi.URLParam(r, "key")
	if !ref.Valid() {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "validation", Field: "kind", Message: "kind must be slug or domain"})
		return
	}
	if key == "" {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "validation", Field: "key", Message: "key is required"})
		return
	}
	if err := h.inv.Invalidate(r.Context(), ref, key); err != nil {
		zap.L().Warn("cache invalidation failed", zap.String("ref", string(ref)), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "cache"})
		return
	}
	metrics.CacheInvalidationsTotal.WithLabelValues("admin").Inc()
	w.WriteHeader(http.StatusNoContent)
}
