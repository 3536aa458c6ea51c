// internal/head/builder.go
//
// Builder collects the crawler-facing tags of one rendered page: the
// <title>, <meta> name/property pairs, and JSON-LD blocks.  The layout
// template decides where each group is emitted.
//
// Notes
// -----
// • Every value is escaped on the way in.  Callers never pass raw HTML,
//   so tenant-controlled titles and descriptions cannot break out of the
//   <head>.
// • One Builder per render; it is not shared between goroutines.
// • A repeated key is ignored, so the first writer of "description" wins.
package head

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"html/template"
	"strings"
)

// Builder accumulates head tags for a single page.
type Builder struct {
	title  string
	metas  []string
	jsonLD []string
	seen   map[string]struct{}
}

// New returns an empty Builder.
func New() *Builder {
	return &Builder{seen: make(map[string]struct{})}
}

// SetTitle sets the page <title>.
func (b *Builder) SetTitle(t string) { b.title = t }

// Title returns the <title> element, or "" when no title was set.
func (b *Builder) Title() template.HTML {
	if b.title == "" {
		return ""
	}
	return template.HTML("<title>" + template.HTMLEscapeString(b.title) + "</title>")
}

// MetaName adds <meta name=".." content="..">.  Empty content is skipped.
func (b *Builder) MetaName(name, content string) {
	b.meta("name", name, content)
}

// MetaProperty adds an Open Graph <meta property=".." content="..">.
func (b *Builder) MetaProperty(prop, content string) {
	b.meta("property", prop, content)
}

func (b *Builder) meta(attr, key, content string) {
	if content == "" || !b.first(attr+":"+key) {
		return
	}
	b.metas = append(b.metas, `<meta `+attr+`="`+template.HTMLEscapeString(key)+
		`" content="`+template.HTMLEscapeString(content)+`">`)
}

// JSONLD adds v as a structured-data block.  encoding/json escapes <, >,
// and & so the payload cannot close its <script> element.
func (b *Builder) JSONLD(v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if b.first("jsonld:" + digest(raw)) {
		b.jsonLD = append(b.jsonLD, string(raw))
	}
	return nil
}

func (b *Builder) first(key string) bool {
	if _, dup := b.seen[key]; dup {
		return false
	}
	b.seen[key] = struct{}{}
	return true
}

func digest(p []byte) string {
	sum := sha1.Sum(p)
	return hex.EncodeToString(sum[:8])
}

//
// Template accessors
//

// Metas returns every <meta> tag in insertion order.
func (b *Builder) Metas() template.HTML { return template.HTML(strings.Join(b.metas, "\n")) }

// JSON returns the JSON-LD blocks wrapped in <script> elements.
func (b *Builder) JSON() template.HTML {
	var sb strings.Builder
	for _, js := range b.jsonLD {
		sb.WriteString(`<script type="application/ld+json">`)
		sb.WriteString(js)
		sb.WriteString(`</script>`)
	}
	return template.HTML(sb.String())
}
