// internal/provider/provider.go
//
// Hosting-provider client for custom domains.
//
// Context
// -------
// A custom domain only serves traffic once the hosting platform that
// terminates TLS knows about it.  AddDomain registers a hostname with the
// configured project and returns the DNS records the tenant must create.
//
//	POST {api_url}/v10/projects/{project_id}/domains?teamId={team_id}
//	Authorization: Bearer {token}
//	{"name": "shop.example.com"}
//
// Notes
// -----
//   • Non-2xx responses become *StatusError so the admin API can pass the
//     provider's status through.  Response bodies are not copied into
//     errors or logs.
//   • Retries cover connection errors and 5xx only (retryablehttp default
//     policy).
package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// ErrNotConfigured means the API URL, token, or project ID is missing.
var ErrNotConfigured = errors.New("provider: not configured")

// StatusError is a non-2xx provider response.
type StatusError struct{ Code int }

func (e *StatusError) Error() string   { return fmt.Sprintf("provider: status %d", e.Code) }
func (e *StatusError) StatusCode() int { return e.Code }

// Options configures a Client.
type Options struct {
	APIURL    string
	Token     string
	ProjectID string
	TeamID    string
	Timeout   time.Duration
	RetryMax  int
}

// Verification is one DNS record the tenant must publish.
type Verification struct {
	Type   string `json:"type"`
	Domain string `json:"domain"`
	Value  string `json:"value"`
	Reason string `json:"reason,omitempty"`
}

// DomainResult is the provider's view of a newly added domain.
type DomainResult struct {
	Name         string         `json:"name"`
	Verified     bool           `json:"verified"`
	Verification []Verification `json:"verification"`
}

// Client talks to the provider API.  Safe for concurrent use.
type Client struct {
	opts Options
	http *retryablehttp.Client
}

// New returns ErrNotConfigured when required options are missing.
func New(opts Options) (*Client, error) {
	if opts.APIURL == "" || opts.Token == "" || opts.ProjectID == "" {
		return nil, ErrNotConfigured
	}
	if _, err := url.Parse(opts.APIURL); err != nil {
		return nil, fmt.Errorf("provider: api url: %w", err)
	}

	rc := retryablehttp.NewClient()
	rc.Logger = nil
	rc.RetryMax = opts.RetryMax
	rc.ErrorHandler = retryablehttp.PassthroughErrorHandler
	rc.HTTPClient.Timeout = opts.Timeout
	rc.HTTPClient.Transport = otelhttp.NewTransport(rc.HTTPClient.Transport)

	opts.APIURL = strings.TrimRight(opts.APIURL, "/")
	return &Client{opts: opts, http: rc}, nil
}

// AddDomain attaches domain to the configured project.
func (c *Client) AddDomain(ctx context.Context, domain string) (*DomainResult, error) {
	u := c.opts.APIURL + "/v10/projects/" + url.PathEscape(c.opts.ProjectID) + "/domains"
	if c.opts.TeamID != "" {
		u += "?teamId=" + url.QueryEscape(c.opts.TeamID)
	}

	body, err := json.Marshal(map[string]string{"name": domain})
	if err != nil {
		return nil, err
	}
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("provider: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.opts.Token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("provider: add domain: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, &StatusError{Code: resp.StatusCode}
	}

	var out DomainResult
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&out); err != nil {
		return nil, fmt.Errorf("provider: decode: %w", err)
	}
	if out.Name == "" {
		out.Name = domain
	}
	return &out, nil
}
