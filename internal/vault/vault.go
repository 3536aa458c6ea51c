// internal/vault/vault.go
//
// Secret references for configuration.
//
// Context
// -------
// Credentials (database DSN, REST API key, provider token, Redis password,
// admin token hash) never sit in conf/global.yaml in clear text.  Instead
// a value names a KV-v2 secret and one of its keys:
//
//	database:
//	  dsn: "vault:secret/siteforge#dsn"
//	backend:
//	  rest:
//	    api_key: "vault:secret/siteforge#rest_api_key"
//
// Workflow
// --------
//  1. cmd/* calls New only when config.NeedsSecrets reports a reference.
//  2. The config loader calls Resolve for every `vault:` string.
//  3. Each secret path is read once; sibling keys are served from the
//     cached payload for DefaultTTL.  Concurrent reads of one path share a
//     single request.
//
// Notes
// -----
// • VAULT_ADDR and VAULT_TOKEN (or ~/.vault-token) configure the client.
// • A background loop keeps a renewable token alive until ctx ends.
package vault

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	vault "github.com/hashicorp/vault/api"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// RefPrefix marks a config value that must be fetched from Vault.
const RefPrefix = "vault:"

// DefaultTTL is how long one secret payload is reused.
const DefaultTTL = 5 * time.Minute

// Client resolves references.  Safe for concurrent use.
type Client struct {
	api *vault.Client
	ttl time.Duration

	mu      sync.Mutex
	secrets map[string]payload
	sfg     singleflight.Group
}

type payload struct {
	data map[string]any
	exp  time.Time
}

// New reads VAULT_* from the environment and starts token renewal, which
// stops when ctx is cancelled.
func New(ctx context.Context) (*Client, error) {
	cfg := vault.DefaultConfig()
	if err := cfg.ReadEnvironment(); err != nil {
		return nil, fmt.Errorf("vault env cfg: %w", err)
	}
	api, err := vault.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("vault api: %w", err)
	}
	if tok := os.Getenv("VAULT_TOKEN"); tok != "" {
		api.SetToken(tok)
	}

	c := &Client{api: api, ttl: DefaultTTL, secrets: make(map[string]payload)}
	go c.keepTokenAlive(ctx)
	return c, nil
}

// IsRef reports whether v is a Vault reference.
func IsRef(v string) bool { return strings.HasPrefix(v, RefPrefix) }

// ParseRef splits "vault:<path>#<key>" into path and key.
func ParseRef(ref string) (path, key string, err error) {
	if !IsRef(ref) {
		return "", "", fmt.Errorf("vault: %q is not a vault reference", ref)
	}
	body := strings.TrimPrefix(ref, RefPrefix)
	i := strings.LastIndexByte(body, '#')
	if i <= 0 || i == len(body)-1 {
		return "", "", fmt.Errorf("vault: reference must look like vault:<path>#<key>")
	}
	return body[:i], body[i+1:], nil
}

// Resolve returns the string stored under ref.
func (c *Client) Resolve(ctx context.Context, ref string) (string, error) {
	path, key, err := ParseRef(ref)
	if err != nil {
		return "", err
	}
	data, err := c.secret(ctx, path)
	if err != nil {
		return "", err
	}
	raw, ok := data[key]
	if !ok {
		return "", fmt.Errorf("vault: key %q not found in %s", key, path)
	}
	s, ok := raw.(string)
	if !ok {
		return "", fmt.Errorf("vault: %s#%s is not a string", path, key)
	}
	return s, nil
}

// secret returns the KV-v2 payload at path, reading Vault at most once per
// TTL window.
func (c *Client) secret(ctx context.Context, path string) (map[string]any, error) {
	c.mu.Lock()
	p, ok := c.secrets[path]
	c.mu.Unlock()
	if ok && time.Now().Before(p.exp) {
		return p.data, nil
	}

	v, err, _ := c.sfg.Do(path, func() (any, error) {
		mount, rel := splitMount(path)
		sec, err := c.api.KVv2(mount).Get(ctx, rel)
		if err != nil {
			return nil, fmt.Errorf("vault get %s: %w", path, err)
		}
		c.mu.Lock()
		c.secrets[path] = payload{data: sec.Data, exp: time.Now().Add(c.ttl)}
		c.mu.Unlock()
		return sec.Data, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(map[string]any), nil
}

func splitMount(p string) (mount, rel string) {
	mount, rel, _ = strings.Cut(p, "/")
	return mount, rel
}

//
// Token renewal
//

func (c *Client) keepTokenAlive(ctx context.Context) {
	for ctx.Err() == nil {
		sleep(ctx, c.watchToken(ctx))
	}
}

// watchToken renews the current token until the watcher gives up and
// returns how long to wait before trying again.
func (c *Client) watchToken(ctx context.Context) time.Duration {
	sec, err := c.api.Auth().Token().RenewSelfWithContext(ctx, 0)
	switch {
	case err != nil:
		zap.L().Debug("vault token renew-self failed", zap.Error(err))
		return 30 * time.Second
	case sec == nil || sec.Auth == nil || !sec.Auth.Renewable:
		zap.L().Debug("vault token is not renewable")
		return time.Hour
	}

	w, err := c.api.NewLifetimeWatcher(&vault.LifetimeWatcherInput{Secret: sec})
	if err != nil {
		zap.L().Warn("vault lifetime watcher init failed", zap.Error(err))
		return 30 * time.Second
	}
	go w.Start()
	defer w.Stop()

	for {
		select {
		case <-ctx.Done():
			return 0
		case err := <-w.DoneCh():
			if err != nil {
				zap.L().Warn("vault token renewal stopped", zap.Error(err))
			}
			return 15 * time.Second
		case ev := <-w.RenewCh():
			if ev != nil && ev.Secret != nil && ev.Secret.Auth != nil {
				zap.L().Debug("vault token renewed", zap.Int("ttl_seconds", ev.Secret.Auth.LeaseDuration))
			}
		}
	}
}

func sleep(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
