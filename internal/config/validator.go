// internal/config/validator.go
//
// Thin wrapper around go-playground/validator.
//
// Context
// -------
// `internal/config/loader.go` calls `validateStruct` immediately after it
// unmarshals the merged Koanf tree into a `Config` instance.  Any tag
// mismatch or validation error aborts startup, ensuring the binary never
// runs with partial, malformed, or missing configuration.
//
// Custom rules
// ------------
//   • apphost     – an allow-list entry: a hostname, "localhost", or an IP.
//   • struct rule – backend.kind=sql needs database.driver and
//                   database.dsn; backend.kind=rest needs backend.rest.url.
//
// Notes
// -----
//   • Oxford commas, two spaces after periods.
//   • Section dividers use the simple comment style requested.

package config

import (
	"net"

	"github.com/go-playground/validator/v10"

	"github.com/yanizio/siteforge/internal/routing"
	"github.com/yanizio/siteforge/internal/site"
)

//
// validator instance (package-level singleton)
//

var v = newValidator()

func newValidator() *validator.Validate {
	val := validator.New()
	_ = val.RegisterValidation("apphost", func(fl validator.FieldLevel) bool {
		h := routing.HostOnly(fl.Field().String())
		return h == "localhost" || net.ParseIP(h) != nil || site.ValidHostname(h)
	})
	val.RegisterStructValidation(backendRules, Config{})
	return val
}

func backendRules(sl validator.StructLevel) {
	c := sl.Current().Interface().(Config)
	switch c.Backend.Kind {
	case "sql":
		if c.Database.Driver == "" {
			sl.ReportError(c.Database.Driver, "Database.Driver", "Driver", "required_for_sql", "")
		}
		if c.Database.DSN == "" {
			sl.ReportError(c.Database.DSN, "Database.DSN", "DSN", "required_for_sql", "")
		}
	case "rest":
		if c.Backend.REST.URL == "" {
			sl.ReportError(c.Backend.REST.URL, "Backend.REST.URL", "URL", "required_for_rest", "")
		}
	}
}

//
// public API
//

// validateStruct returns the validation errors, or nil on success.
func validateStruct(c *Config) error {
	return v.Struct(c)
}
