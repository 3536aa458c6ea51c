package section

// variants maps each type to its accepted variants.  The first entry is
// the default used when a section names a variant we do not know.
var variants = map[Type][]string{
	Hero:         {"centered", "split", "image-background"},
	Features:     {"grid", "list", "alternating"},
	Gallery:      {"grid", "masonry", "carousel"},
	Testimonials: {"cards", "carousel", "single"},
	CTA:          {"banner", "centered", "split"},
	Contact:      {"simple", "split", "card"},
	About:        {"text", "image-left", "image-right"},
	Footer:       {"simple", "columns", "minimal"},
	Pricing:      {"cards", "table"},
	Team:         {"grid", "list"},
	FAQ:          {"accordion", "list"},
	Stats:        {"row", "grid"},
}

// NormalizeVariant returns v when t knows it, else t's default variant.
func NormalizeVariant(t Type, v string) string {
	vs := variants[t]
	if len(vs) == 0 {
		return ""
	}
	for _, known := range vs {
		if known == v {
			return v
		}
	}
	return vs[0]
}
