// internal/view/render.go
//
// Site renderer: ordered sections in, one HTML document out.
//
// Public helpers
// --------------
//   - Render         – build an Output for one resolved page.
//   - Write          – stream an Output through the layout template.
//   - BuildMetadata  – title, description, and social image for a page.
//   - NotFound / Unavailable – localized status pages.
//
// Rendering rules
// ---------------
//   1. Sections are copied, then sorted once by sort_order (stable, so
//      ties keep snapshot order).  Nothing is filtered or deduplicated.
//   2. Each section is decoded into its typed content and executed into
//      its own buffer.  Any failure (unknown type, malformed content, or a
//      template error) leaves an empty placeholder in that slot only.
//   3. The renderer never mutates the snapshot.  Cached data may be shared
//      between concurrent requests.
//
// Style
// -----
// • Oxford commas, two spaces after periods.

package view

import (
	"bytes"
	"html/template"
	"io"
	"sort"

	"go.uber.org/zap"

	"github.com/yanizio/siteforge/internal/head"
	"github.com/yanizio/siteforge/internal/metrics"
	"github.com/yanizio/siteforge/internal/section"
	"github.com/yanizio/siteforge/internal/site"
	"github.com/yanizio/siteforge/internal/theme"
)

// FallbackTitle is used when neither page nor site supplies a title.
const FallbackTitle = "Website"

// FallbackDescription is used when nothing more specific is available.
const FallbackDescription = "A website built and published with SiteForge."

// Slot is one rendered section position.  Empty slots keep their place in
// the document so section order stays observable.
type Slot struct {
	ID    string
	Type  string
	Empty bool
	HTML  template.HTML
}

// Output is everything the layout template needs.
type Output struct {
	Lang     string
	Dir      string
	SiteName string
	PageID   string
	Theme    site.Theme
	Meta     head.Metadata
	Head     *head.Builder
	Slots    []Slot
}

// Renderer executes one parsed Theme.  Safe for concurrent use.
type Renderer struct {
	theme *theme.Theme
}

// New returns a Renderer bound to th.
func New(th *theme.Theme) *Renderer {
	return &Renderer{theme: th}
}

// Render builds the Output for page.  It never fails because of section
// content; only a broken layout surfaces later in Write.
func (r *Renderer) Render(d *site.PublishedSiteData, page *site.Page) *Output {
	th := d.Theme()
	meta := BuildMetadata(d, page)

	hb := head.New()
	meta.Apply(hb)

	out := &Output{
		Lang:     th.Language,
		Dir:      th.Direction,
		SiteName: d.Site.Name,
		PageID:   page.ID,
		Theme:    th,
		Meta:     meta,
		Head:     hb,
	}

	for _, s := range Ordered(page.Sections) {
		out.Slots = append(out.Slots, r.slot(s))
	}
	return out
}

// Ordered returns a copy of secs sorted ascending by SortOrder.  Equal
// keys keep their original relative order.
func Ordered(secs []site.Section) []site.Section {
	out := make([]site.Section, len(secs))
	copy(out, secs)
	sort.SliceStable(out, func(i, j int) bool { return out[i].SortOrder < out[j].SortOrder })
	return out
}

func (r *Renderer) slot(s site.Section) Slot {
	b, err := section.Decode(s)
	if err != nil {
		metrics.SectionPlaceholdersTotal.WithLabelValues(section.Reason(err)).Inc()
		zap.L().Debug("section placeholder",
			zap.String("section_id", s.ID),
			zap.String("type", s.Type),
			zap.String("reason", section.Reason(err)))
		return r.placeholder(s)
	}

	name := "section/" + string(b.Type)
	if !r.theme.Has(name) {
		metrics.SectionPlaceholdersTotal.WithLabelValues("template").Inc()
		zap.L().Warn("section template missing", zap.String("type", s.Type))
		return r.placeholder(s)
	}

	var buf bytes.Buffer
	if err := r.theme.Renderer.ExecuteTemplate(&buf, name, b); err != nil {
		metrics.SectionPlaceholdersTotal.WithLabelValues("template").Inc()
		zap.L().Warn("section template failed",
			zap.String("section_id", s.ID),
			zap.String("type", s.Type),
			zap.Error(err))
		return r.placeholder(s)
	}
	return Slot{ID: s.ID, Type: s.Type, HTML: template.HTML(buf.String())}
}

func (r *Renderer) placeholder(s site.Section) Slot {
	var buf bytes.Buffer
	if err := r.theme.Renderer.ExecuteTemplate(&buf, "placeholder", s); err != nil {
		buf.Reset()
	}
	return Slot{ID: s.ID, Type: s.Type, Empty: true, HTML: template.HTML(buf.String())}
}

// Write executes the layout for out.
func (r *Renderer) Write(w io.Writer, out *Output) error {
	return r.theme.Renderer.ExecuteTemplate(w, "layout", out)
}

// BuildMetadata picks each field from an explicit, most-specific-first
// list of sources; the first non-empty source wins.
//
//	title:       page SEO title → page title → site name → FallbackTitle
//	description: page SEO description → page title → site description
//	             → site name → FallbackDescription
//	image:       page SEO image → site image → first hero image → none
func BuildMetadata(d *site.PublishedSiteData, page *site.Page) head.Metadata {
	th := d.Theme()
	var p site.Page
	if page != nil {
		p = *page
	}
	return head.Metadata{
		Title: head.First(
			p.SEO.Title,
			p.Title,
			d.Site.Name,
			FallbackTitle,
		),
		Description: head.First(
			p.SEO.Description,
			p.Title,
			th.Description,
			d.Site.Name,
			FallbackDescription,
		),
		OpenGraphImage: head.First(
			p.SEO.OGImage,
			th.OGImage,
			heroImage(p.Sections),
		),
	}
}

// heroImage returns the image of the first valid hero in display order.
func heroImage(secs []site.Section) string {
	for _, s := range Ordered(secs) {
		if s.Type != string(section.Hero) {
			continue
		}
		b, err := section.Decode(s)
		if err != nil {
			continue
		}
		if h, ok := b.Content.(section.HeroContent); ok && h.Image != "" {
			return h.Image
		}
	}
	return ""
}
