// internal/section/types.go
//
// Typed content schemas, one per section type.
//
// Context
// -------
// A published section carries a `type` tag and a free-form JSON `content`
// payload.  Each type below owns its content shape.  Decode (decode.go)
// switches on the tag, unmarshals into the matching struct, and runs the
// struct's `validate` tags, so a template only ever sees a well-formed
// value of the type it expects.
//
// Notes
// -----
//   • Optional strings stay empty rather than nil pointers; templates test
//     with {{ if }}.
//   • URLs are not rewritten here.  html/template sanitises them at render.
package section

// Type is the closed vocabulary of section kinds.
type Type string

const (
	Hero         Type = "hero"
	Features     Type = "features"
	Gallery      Type = "gallery"
	Testimonials Type = "testimonials"
	CTA          Type = "cta"
	Contact      Type = "contact"
	About        Type = "about"
	Footer       Type = "footer"
	Pricing      Type = "pricing"
	Team         Type = "team"
	FAQ          Type = "faq"
	Stats        Type = "stats"
)

// Types lists every known section type in a fixed order.
var Types = []Type{
	Hero, Features, Gallery, Testimonials, CTA, Contact,
	About, Footer, Pricing, Team, FAQ, Stats,
}

// Known reports whether name is one of Types.
func Known(name string) bool {
	for _, t := range Types {
		if string(t) == name {
			return true
		}
	}
	return false
}

// Content is implemented by every typed payload.
type Content interface {
	SectionType() Type
}

// Link is a labelled URL.
type Link struct {
	Label string `json:"label" validate:"required"`
	URL   string `json:"url"   validate:"required"`
}

// Image is one picture with optional caption.
type Image struct {
	URL     string `json:"url"     validate:"required"`
	Alt     string `json:"alt"`
	Caption string `json:"caption"`
}

type HeroContent struct {
	Heading    string `json:"heading"    validate:"required"`
	Subheading string `json:"subheading"`
	Image      string `json:"image"`
	CTAText    string `json:"cta_text"   validate:"required_with=CTAURL"`
	CTAURL     string `json:"cta_url"`
}

type Feature struct {
	Title       string `json:"title"       validate:"required"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
}

type FeaturesContent struct {
	Heading string    `json:"heading"`
	Items   []Feature `json:"items" validate:"min=1,dive"`
}

type GalleryContent struct {
	Heading string  `json:"heading"`
	Images  []Image `json:"images" validate:"min=1,dive"`
}

type Testimonial struct {
	Quote  string `json:"quote"  validate:"required"`
	Author string `json:"author"`
	Role   string `json:"role"`
	Avatar string `json:"avatar"`
}

type TestimonialsContent struct {
	Heading string        `json:"heading"`
	Items   []Testimonial `json:"items" validate:"min=1,dive"`
}

type CTAContent struct {
	Heading    string `json:"heading"     validate:"required"`
	Text       string `json:"text"`
	ButtonText string `json:"button_text" validate:"required"`
	ButtonURL  string `json:"button_url"  validate:"required"`
}

// ContactContent needs at least one way to reach the owner.
type ContactContent struct {
	Heading string `json:"heading"`
	Email   string `json:"email"   validate:"omitempty,email"`
	Phone   string `json:"phone"   validate:"required_without_all=Email Address"`
	Address string `json:"address"`
	MapURL  string `json:"map_url"`
}

type AboutContent struct {
	Heading string `json:"heading"`
	Body    string `json:"body"  validate:"required"`
	Image   string `json:"image"`
}

type FooterContent struct {
	Text   string `json:"text"`
	Links  []Link `json:"links"  validate:"dive"`
	Social []Link `json:"social" validate:"dive"`
}

type Plan struct {
	Name        string   `json:"name"     validate:"required"`
	Price       string   `json:"price"`
	Period      string   `json:"period"`
	Features    []string `json:"features"`
	CTAText     string   `json:"cta_text"`
	CTAURL      string   `json:"cta_url"`
	Highlighted bool     `json:"highlighted"`
}

type PricingContent struct {
	Heading string `json:"heading"`
	Plans   []Plan `json:"plans" validate:"min=1,dive"`
}

type Member struct {
	Name  string `json:"name"  validate:"required"`
	Role  string `json:"role"`
	Photo string `json:"photo"`
	Bio   string `json:"bio"`
}

type TeamContent struct {
	Heading string   `json:"heading"`
	Members []Member `json:"members" validate:"min=1,dive"`
}

type Question struct {
	Question string `json:"question" validate:"required"`
	Answer   string `json:"answer"   validate:"required"`
}

type FAQContent struct {
	Heading string     `json:"heading"`
	Items   []Question `json:"items" validate:"min=1,dive"`
}

type Stat struct {
	Value string `json:"value" validate:"required"`
	Label string `json:"label" validate:"required"`
}

type StatsContent struct {
	Heading string `json:"heading"`
	Items   []Stat `json:"items" validate:"min=1,dive"`
}

func (HeroContent) SectionType() Type         { return Hero }
func (FeaturesContent) SectionType() Type     { return Features }
func (GalleryContent) SectionType() Type      { return Gallery }
func (TestimonialsContent) SectionType() Type { return Testimonials }
func (CTAContent) SectionType() Type          { return CTA }
func (ContactContent) SectionType() Type      { return Contact }
func (AboutContent) SectionType() Type        { return About }
func (FooterContent) SectionType() Type       { return Footer }
func (PricingContent) SectionType() Type      { return Pricing }
func (TeamContent) SectionType() Type         { return Team }
func (FAQContent) SectionType() Type          { return FAQ }
func (StatsContent) SectionType() Type        { return Stats }
