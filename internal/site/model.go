// internal/site/model.go
//
// Published-site data model.
//
// Context
// -------
// A visitor never sees live editor state.  Every public request is served
// from the one `publishes` row flagged `is_current`, whose `snapshot`
// column holds the full page tree captured at publish time.  The structs
// below mirror the JSON wire contract shared by the SQL repository, the
// REST backend, the response cache, and the renderer:
//
//	{
//	  "site":        { "name": "...", "settings": { ... } },
//	  "snapshot":    { "pages": [ ... ], "settings": { ... } },
//	  "version":     3,
//	  "publishedAt": "2025-06-05T10:00:00Z"
//	}
//
// Notes
// -----
//   - Free-form bags (`settings`, section `content`) stay json.RawMessage
//     so a cache round-trip is byte-for-byte lossless.
//   - Pages and Sections are value data once published.  Nothing in this
//     repository mutates them.
//   - Oxford commas, two spaces after periods.
package site

import (
	"encoding/json"
	"time"
)

// PublishedSiteData is everything the renderer needs for one site.
type PublishedSiteData struct {
	Site        Site      `json:"site"`
	Snapshot    Snapshot  `json:"snapshot"`
	Version     int       `json:"version"`
	PublishedAt time.Time `json:"publishedAt"`
}

// Site carries the site-level metadata that lives outside the snapshot.
type Site struct {
	Name     string          `json:"name"`
	Settings json.RawMessage `json:"settings,omitempty"`
}

// Snapshot is the immutable page tree captured by one publish.
type Snapshot struct {
	Pages    []Page          `json:"pages"`
	Settings json.RawMessage `json:"settings,omitempty"`
}

// Page is one routable page inside a snapshot.
type Page struct {
	ID         string    `json:"id"`
	Slug       string    `json:"slug"`
	Title      string    `json:"title"`
	IsHomepage bool      `json:"is_homepage"`
	SEO        SEO       `json:"seo"`
	Sections   []Section `json:"sections"`
}

// SEO holds optional per-page overrides for crawler-facing metadata.
type SEO struct {
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	OGImage     string `json:"og_image,omitempty"`
}

// Section is a typed content block.  Content is decoded lazily by the
// section package so one bad payload cannot fail the whole page.
type Section struct {
	ID        string          `json:"id"`
	Type      string          `json:"type"`
	Variant   string          `json:"variant"`
	Content   json.RawMessage `json:"content"`
	Settings  json.RawMessage `json:"settings,omitempty"`
	SortOrder int             `json:"sort_order"`
}

//
// Theme settings
//

// Theme is the typed view over the free-form settings bags.
type Theme struct {
	PrimaryColor   string `json:"primaryColor"`
	SecondaryColor string `json:"secondaryColor"`
	FontFamily     string `json:"fontFamily"`
	Direction      string `json:"direction"`
	Language       string `json:"language"`
	Description    string `json:"description"`
	OGImage        string `json:"ogImage"`
}

// Theme merges site settings with snapshot settings.  Keys present in the
// snapshot win because they were captured with the published content.
// Malformed bags are ignored rather than failing the render.
func (d *PublishedSiteData) Theme() Theme {
	th := Theme{Direction: "ltr", Language: "en"}
	for _, raw := range []json.RawMessage{d.Site.Settings, d.Snapshot.Settings} {
		if len(raw) == 0 {
			continue
		}
		var layer Theme
		if err := json.Unmarshal(raw, &layer); err != nil {
			continue
		}
		th.merge(layer)
	}
	if th.Direction != "rtl" {
		th.Direction = "ltr"
	}
	return th
}

func (t *Theme) merge(o Theme) {
	set := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	set(&t.PrimaryColor, o.PrimaryColor)
	set(&t.SecondaryColor, o.SecondaryColor)
	set(&t.FontFamily, o.FontFamily)
	set(&t.Direction, o.Direction)
	set(&t.Language, o.Language)
	set(&t.Description, o.Description)
	set(&t.OGImage, o.OGImage)
}
