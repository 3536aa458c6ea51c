package head

// Metadata is the crawler-facing summary of one page.
type Metadata struct {
	Title          string
	Description    string
	OpenGraphImage string
}

// First returns the first non-empty candidate, or "" when all are empty.
// Callers list sources from most to least specific.
func First(candidates ...string) string {
	for _, c := range candidates {
		if c != "" {
			return c
		}
	}
	return ""
}

// webPage is the schema.org shape emitted for every page.
type webPage struct {
	Context     string `json:"@context"`
	Type        string `json:"@type"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Image       string `json:"image,omitempty"`
}

// Apply pushes m into b as <title>, description, Open Graph tags, and a
// schema.org WebPage block.
func (m Metadata) Apply(b *Builder) {
	b.SetTitle(m.Title)
	b.MetaName("description", m.Description)
	b.MetaProperty("og:title", m.Title)
	b.MetaProperty("og:description", m.Description)
	b.MetaProperty("og:image", m.OpenGraphImage)
	b.MetaProperty("og:type", "website")
	if m.OpenGraphImage != "" {
		b.MetaName("twitter:card", "summary_large_image")
	} else {
		b.MetaName("twitter:card", "summary")
	}
	_ = b.JSONLD(webPage{
		Context:     "https://schema.org",
		Type:        "WebPage",
		Name:        m.Title,
		Description: m.Description,
		Image:       m.OpenGraphImage,
	})
}
