// internal/section/decode.go
//
// Tag dispatch from site.Section to a typed Block.
//
// Workflow
// --------
//  1. Switch on the type tag.  Unknown tags return ErrUnknownType.
//  2. Strict-ish JSON decode into the type's content struct.
//  3. Struct validation (go-playground/validator) of required fields.
//  4. Variant normalisation against the type's known variants.
//
// Any failure yields an error; the renderer turns that into an empty
// placeholder slot for just this section.
package section

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/yanizio/siteforge/internal/site"
)

var (
	ErrUnknownType = errors.New("section: unknown type")
	ErrMalformed   = errors.New("section: malformed content")
)

var validate = validator.New()

// Block is a decoded, render-ready section.
type Block struct {
	ID       string
	Type     Type
	Variant  string
	Content  Content
	Settings Settings
}

// Settings is the typed view over a section's settings bag.  Unknown keys
// are ignored and a malformed bag falls back to the zero value.
type Settings struct {
	Background string `json:"background"`
	TextColor  string `json:"text_color"`
	Anchor     string `json:"anchor"`
}

// Decode converts a raw section into a Block.
func Decode(s site.Section) (Block, error) {
	var c Content
	switch Type(s.Type) {
	case Hero:
		c = decodeInto[HeroContent](s.Content)
	case Features:
		c = decodeInto[FeaturesContent](s.Content)
	case Gallery:
		c = decodeInto[GalleryContent](s.Content)
	case Testimonials:
		c = decodeInto[TestimonialsContent](s.Content)
	case CTA:
		c = decodeInto[CTAContent](s.Content)
	case Contact:
		c = decodeInto[ContactContent](s.Content)
	case About:
		c = decodeInto[AboutContent](s.Content)
	case Footer:
		c = decodeInto[FooterContent](s.Content)
	case Pricing:
		c = decodeInto[PricingContent](s.Content)
	case Team:
		c = decodeInto[TeamContent](s.Content)
	case FAQ:
		c = decodeInto[FAQContent](s.Content)
	case Stats:
		c = decodeInto[StatsContent](s.Content)
	default:
		return Block{}, fmt.Errorf("%w %q", ErrUnknownType, s.Type)
	}
	if c == nil {
		return Block{}, fmt.Errorf("%w: %s %s", ErrMalformed, s.Type, s.ID)
	}

	t := Type(s.Type)
	return Block{
		ID:       s.ID,
		Type:     t,
		Variant:  NormalizeVariant(t, s.Variant),
		Content:  c,
		Settings: decodeSettings(s.Settings),
	}, nil
}

// decodeInto returns nil when raw is absent, not a JSON object, or fails
// validation.
func decodeInto[T Content](raw json.RawMessage) Content {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '{' {
		return nil
	}
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil
	}
	if err := validate.Struct(v); err != nil {
		return nil
	}
	return v
}

func decodeSettings(raw json.RawMessage) Settings {
	var s Settings
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &s); err != nil {
			return Settings{}
		}
	}
	return s
}

// Reason labels a Decode error for metrics: "unknown_type" or "malformed".
func Reason(err error) string {
	if errors.Is(err, ErrUnknownType) {
		return "unknown_type"
	}
	return "malformed"
}
