//
//  internal/theme/helper.go
//
//  Template functions.  Theme values come from tenant-controlled settings,
//  so anything that lands inside a <style> block is checked against a
//  narrow grammar first and dropped when it does not match.
//

package theme

import (
	"html/template"
	"regexp"
	"strings"

	"github.com/yanizio/siteforge/internal/site"
)

var (
	hexColor  = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3,4}|[0-9a-fA-F]{6}|[0-9a-fA-F]{8})$`)
	namedish  = regexp.MustCompile(`^[a-zA-Z]{3,20}$`)
	fontStack = regexp.MustCompile(`^[a-zA-Z0-9 ,'"\-]{1,120}$`)
)

// FuncMap returns the global template function map.
func FuncMap() template.FuncMap {
	return template.FuncMap{
		"dict":     dict,
		"cssVars":  CSSVars,
		"cssColor": CSSColor,
		"initial":  initial,
	}
}

// CSSColor returns c when it is a hex or named colour, else "".
func CSSColor(c string) string {
	c = strings.TrimSpace(c)
	if hexColor.MatchString(c) || namedish.MatchString(c) {
		return c
	}
	return ""
}

// CSSFont returns f when it looks like a font-family list, else "".
func CSSFont(f string) string {
	f = strings.TrimSpace(f)
	if fontStack.MatchString(f) {
		return f
	}
	return ""
}

// CSSVars renders the :root custom properties for th.  Unsafe values are
// omitted so the stylesheet defaults apply.
func CSSVars(th site.Theme) template.CSS {
	var sb strings.Builder
	sb.WriteString(":root{")
	if c := CSSColor(th.PrimaryColor); c != "" {
		sb.WriteString("--color-primary:" + c + ";")
	}
	if c := CSSColor(th.SecondaryColor); c != "" {
		sb.WriteString("--color-secondary:" + c + ";")
	}
	if f := CSSFont(th.FontFamily); f != "" {
		sb.WriteString("--font-family:" + f + ";")
	}
	sb.WriteString("}")
	return template.CSS(sb.String())
}

// dict builds a map in templates: {{ dict "k" 1 "k2" "v" }}.
func dict(kv ...any) map[string]any {
	m := make(map[string]any, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		key, _ := kv[i].(string)
		m[key] = kv[i+1]
	}
	return m
}

// initial returns the first letter of s, upper-cased, for avatar fallbacks.
func initial(s string) string {
	for _, r := range s {
		return strings.ToUpper(string(r))
	}
	return ""
}
