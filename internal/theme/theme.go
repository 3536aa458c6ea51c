// Package theme holds the parsed template set used to render published
// sites.  A Theme combines:
//
//   - Name      – the theme name (for example, “default”).
//   - Renderer  – parsed templates ready for execution.
//
// The default theme ships embedded in the binary.  Operators may drop
// overrides under <dir>/<name>/templates; those are parsed after the
// defaults so a {{ define }} with the same name wins.
package theme

import (
	"embed"
	"html/template"
)

//go:embed templates
var defaultFS embed.FS

// DefaultName is the theme every site uses unless configured otherwise.
const DefaultName = "default"

// Theme is returned by the Manager once all templates are parsed.
type Theme struct {
	Name     string
	Renderer *template.Template
}

// New wraps a parsed template set.
func New(name string, tpl *template.Template) *Theme {
	return &Theme{Name: name, Renderer: tpl}
}

// Has reports whether the set defines a template called name.
func (t *Theme) Has(name string) bool {
	return t.Renderer.Lookup(name) != nil
}
