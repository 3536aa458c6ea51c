// internal/config/model.go
//
// Typed configuration model.
//
// Context
// -------
// These structs define the shape of the configuration tree that
// `internal/config/loader.go` builds from three overlay layers:
//
//   • optional `.env`                         – dotenv values,
//   • `conf/global.yaml`                      – primary static file,
//   • `SITES_`-prefixed environment overrides – highest precedence.
//
// Any value whose string begins with the prefix `vault:` is resolved
// through the Vault client *before* unmarshalling, so the model never
// stores Vault URIs, only plain strings.
//
// Validation happens immediately after unmarshal; the app fails fast if
// required fields are missing.
//
// Notes
// -----
//   • Struct tags use `koanf:"…"`, not `yaml:"…"`.  Koanf ignores `yaml`
//     tags unless configured otherwise.
//   • The `Paths` block is filled at runtime; YAML must not try to set it.
//   • Oxford commas, two spaces after periods.  No em-dash.

package config

import "time"

//
// HTTP section
//

// HTTP holds web-server tunables and the application-host allow-list used
// by the domain classifier.
type HTTP struct {
	ListenAddr  string   `koanf:"listen_addr"  validate:"required,hostname_port"`
	ForceHTTPS  bool     `koanf:"force_https"`
	AppHosts    []string `koanf:"app_hosts"    validate:"required,min=1,dive,apphost"`
	RootDomains []string `koanf:"root_domains" validate:"dive,hostname_rfc1123"`
	PublicURL   string   `koanf:"public_url"   validate:"omitempty,url"`
}

//
// Backend section
//

// Backend selects where published sites are read from.
type Backend struct {
	Kind string `koanf:"kind" validate:"required,oneof=sql rest"`
	REST REST   `koanf:"rest"`
}

// REST configures the PostgREST-style managed backend.  Required when
// Kind is "rest" (checked in validator.go).
type REST struct {
	URL      string        `koanf:"url"       validate:"omitempty,url"`
	APIKey   string        `koanf:"api_key"`
	Timeout  time.Duration `koanf:"timeout"`
	RetryMax int           `koanf:"retry_max" validate:"gte=0,lte=10"`
}

//
// Database section
//

// Database holds the SQL connection.  The DSN may be a Vault reference so
// credentials stay out of flat files and git history.  Required when
// Backend.Kind is "sql" and always used by cmd/migrate.
type Database struct {
	Driver  string `koanf:"driver"   validate:"omitempty,oneof=mysql pgx"`
	DSN     string `koanf:"dsn"`
	MaxOpen int    `koanf:"max_open" validate:"gte=0"`
	MaxIdle int    `koanf:"max_idle" validate:"gte=0"`
}

//
// Cache section
//

// Cache tunes the publication response cache.  Redis is optional; with an
// empty address only the in-process tier is used.
type Cache struct {
	TTL       time.Duration `koanf:"ttl"`
	L1MaxCost int64         `koanf:"l1_max_cost" validate:"gte=0"`
	Redis     Redis         `koanf:"redis"`
}

// Redis is the shared L2 tier.
type Redis struct {
	Addr     string `koanf:"addr"     validate:"omitempty,hostname_port"`
	Password string `koanf:"password"`
	DB       int    `koanf:"db"       validate:"gte=0"`
}

//
// Admin, provider, and events
//

// Admin protects the operator API.  TokenHash is a bcrypt hash of the
// bearer token; an empty hash disables the admin routes with 500.
type Admin struct {
	TokenHash string `koanf:"token_hash"`
}

// Provider is the hosting platform that attaches custom domains.
type Provider struct {
	APIURL    string        `koanf:"api_url"    validate:"omitempty,url"`
	Token     string        `koanf:"token"`
	ProjectID string        `koanf:"project_id"`
	TeamID    string        `koanf:"team_id"`
	Timeout   time.Duration `koanf:"timeout"`
}

// NATS carries publish events used for cache invalidation.  Empty URL
// disables the subscriber.
type NATS struct {
	URL     string `koanf:"url"`
	Subject string `koanf:"subject"`
}

//
// Ambient sections
//

// Log controls the zap logger.
type Log struct {
	Level string `koanf:"level" validate:"omitempty,oneof=debug info warn error"`
	Dir   string `koanf:"dir"`
	Tee   bool   `koanf:"tee"`
}

// GeoIP points at an optional MaxMind database.
type GeoIP struct {
	DBPath string `koanf:"db_path"`
}

// Theme selects the renderer theme and an optional override root.
type Theme struct {
	Name string `koanf:"name"`
	Dir  string `koanf:"dir"`
}

//
// Paths section (runtime only)
//

// Paths is resolved at runtime, never set in YAML or env.  The loader
// discovers `Root` (repo root or SITES_ROOT override) so later code can
// build absolute file paths.
type Paths struct {
	Root string
}

//
// Root aggregate
//

// Config is the immutable aggregate returned by Load() and cached in an
// atomic.Pointer for lock-free reads throughout the app lifetime.
type Config struct {
	HTTP     HTTP     `koanf:"http"`
	Backend  Backend  `koanf:"backend"`
	Database Database `koanf:"database"`
	Cache    Cache    `koanf:"cache"`
	Admin    Admin    `koanf:"admin"`
	Provider Provider `koanf:"provider"`
	NATS     NATS     `koanf:"nats"`
	Log      Log      `koanf:"log"`
	GeoIP    GeoIP    `koanf:"geoip"`
	Theme    Theme    `koanf:"theme"`
	Paths    Paths    `koanf:"-"` // not loaded from config files
}
