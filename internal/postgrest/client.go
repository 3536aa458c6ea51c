// internal/postgrest/client.go
//
// REST backend for a managed Postgres (PostgREST / Supabase-style API).
//
// Context
// -------
// Hosted deployments keep sites, domains, and publishes in a managed
// backend that exposes tables over HTTP.  Client implements the same
// query contract as site.Repository:
//
//	GET /rest/v1/domains?domain=eq.{h}&status=eq.active&select=site_id&limit=1
//	GET /rest/v1/sites?slug=eq.{s}&status=eq.published&select=id&limit=1
//	GET /rest/v1/publishes?site_id=eq.{id}&is_current=eq.true
//	    &select=snapshot,version,published_at,sites(name,settings)
//	    &order=version.desc&limit=1
//
// The snapshot query embeds the parent site row so the fetch stays one
// round-trip.
//
// Error mapping
// -------------
//   - 200 with an empty array, or 404      → site.ErrNotFound
//   - any other non-2xx                    → *StatusError (status kept)
//   - transport failure or undecodable body → wrapped error
//
// Response bodies are never copied into errors.
package postgrest

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/yanizio/siteforge/internal/site"
)

// maxBody caps how much of a response we are willing to decode.
const maxBody = 16 << 20

// StatusError is a non-2xx, non-404 response.
type StatusError struct {
	Code int
	Path string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("postgrest %s: status %d", e.Path, e.Code)
}

// StatusCode exposes the upstream status to the publication accessor.
func (e *StatusError) StatusCode() int { return e.Code }

// Options configures a Client.
type Options struct {
	BaseURL  string        // e.g. https://xyz.supabase.co
	APIKey   string        // service or anon key, sent as apikey + bearer
	Timeout  time.Duration // 0 leaves the request context in charge
	RetryMax int           // retries on connection errors and 5xx
}

// Client talks to the REST endpoint.  Safe for concurrent use.
type Client struct {
	base   *url.URL
	apiKey string
	http   *retryablehttp.Client
}

// New validates opts and builds a Client.
func New(opts Options) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(opts.BaseURL, "/"))
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("postgrest: invalid base url %q", opts.BaseURL)
	}

	rc := retryablehttp.NewClient()
	rc.Logger = nil
	rc.RetryMax = opts.RetryMax
	rc.RetryWaitMin = 50 * time.Millisecond
	rc.RetryWaitMax = 500 * time.Millisecond
	rc.ErrorHandler = retryablehttp.PassthroughErrorHandler
	rc.HTTPClient.Timeout = opts.Timeout
	rc.HTTPClient.Transport = otelhttp.NewTransport(rc.HTTPClient.Transport)

	return &Client{base: base, apiKey: opts.APIKey, http: rc}, nil
}

// SiteIDByDomain implements publication.Backend.
func (c *Client) SiteIDByDomain(ctx context.Context, host string) (string, error) {
	q := url.Values{}
	q.Set("domain", "eq."+host)
	q.Set("status", "eq."+string(site.DomainActive))
	q.Set("select", "site_id")
	q.Set("limit", "1")

	var rows []struct {
		SiteID string `json:"site_id"`
	}
	if err := c.get(ctx, "domains", q, &rows); err != nil {
		return "", err
	}
	if len(rows) == 0 {
		return "", site.ErrNotFound
	}
	return rows[0].SiteID, nil
}

// SiteIDBySlug implements publication.Backend.
func (c *Client) SiteIDBySlug(ctx context.Context, slug string) (string, error) {
	q := url.Values{}
	q.Set("slug", "eq."+slug)
	q.Set("status", "eq.published")
	q.Set("select", "id")
	q.Set("limit", "1")

	var rows []struct {
		ID string `json:"id"`
	}
	if err := c.get(ctx, "sites", q, &rows); err != nil {
		return "", err
	}
	if len(rows) == 0 {
		return "", site.ErrNotFound
	}
	return rows[0].ID, nil
}

type publishRow struct {
	Snapshot    json.RawMessage `json:"snapshot"`
	Version     int             `json:"version"`
	PublishedAt time.Time       `json:"published_at"`
	Sites       *site.Site      `json:"sites"`
}

// CurrentSnapshot implements publication.Backend.
func (c *Client) CurrentSnapshot(ctx context.Context, siteID string) (*site.PublishedSiteData, error) {
	q := url.Values{}
	q.Set("site_id", "eq."+siteID)
	q.Set("is_current", "eq.true")
	q.Set("select", "snapshot,version,published_at,sites(name,settings)")
	q.Set("order", "version.desc")
	q.Set("limit", "1")

	var rows []publishRow
	if err := c.get(ctx, "publishes", q, &rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 || rows[0].Sites == nil {
		return nil, site.ErrNotFound
	}

	row := rows[0]
	out := &site.PublishedSiteData{
		Site:        *row.Sites,
		Version:     row.Version,
		PublishedAt: row.PublishedAt.UTC(),
	}
	if string(out.Site.Settings) == "null" {
		out.Site.Settings = nil
	}
	if err := json.Unmarshal(row.Snapshot, &out.Snapshot); err != nil {
		return nil, fmt.Errorf("postgrest publishes: snapshot decode: %w", err)
	}
	return out, nil
}

// get performs one GET and decodes a JSON array into dst.
func (c *Client) get(ctx context.Context, table string, q url.Values, dst any) error {
	u := *c.base
	u.Path = u.Path + "/rest/v1/" + table
	u.RawQuery = q.Encode()

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return fmt.Errorf("postgrest %s: build request: %w", table, err)
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("apikey", c.apiKey)
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("postgrest %s: %w", table, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		_, _ = io.Copy(io.Discard, resp.Body)
		return site.ErrNotFound
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		_, _ = io.Copy(io.Discard, resp.Body)
		return &StatusError{Code: resp.StatusCode, Path: table}
	}

	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBody)).Decode(dst); err != nil {
		return fmt.Errorf("postgrest %s: decode: %w", table, err)
	}
	return nil
}
