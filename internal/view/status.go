package view

import (
	"io"
	"strings"
)

// Strings is the copy shown on status pages.
type Strings struct {
	NotFoundTitle    string
	NotFoundBody     string
	UnavailableTitle string
	UnavailableBody  string
	BackHome         string
}

var catalog = map[string]Strings{
	"en": {
		NotFoundTitle:    "Page not found",
		NotFoundBody:     "The page you are looking for does not exist or has been moved.",
		UnavailableTitle: "Temporarily unavailable",
		UnavailableBody:  "This site cannot be shown right now.  Please try again in a moment.",
		BackHome:         "Back to home",
	},
	"es": {
		NotFoundTitle:    "Página no encontrada",
		NotFoundBody:     "La página que buscas no existe o ha sido movida.",
		UnavailableTitle: "No disponible temporalmente",
		UnavailableBody:  "Este sitio no se puede mostrar ahora.  Inténtalo de nuevo en un momento.",
		BackHome:         "Volver al inicio",
	},
	"fr": {
		NotFoundTitle:    "Page introuvable",
		NotFoundBody:     "La page que vous recherchez n'existe pas ou a été déplacée.",
		UnavailableTitle: "Temporairement indisponible",
		UnavailableBody:  "Ce site ne peut pas être affiché pour le moment.  Réessayez dans un instant.",
		BackHome:         "Retour à l'accueil",
	},
	"de": {
		NotFoundTitle:    "Seite nicht gefunden",
		NotFoundBody:     "Die gesuchte Seite existiert nicht oder wurde verschoben.",
		UnavailableTitle: "Vorübergehend nicht verfügbar",
		UnavailableBody:  "Diese Website kann gerade nicht angezeigt werden.  Bitte versuchen Sie es gleich noch einmal.",
		BackHome:         "Zur Startseite",
	},
	"ar": {
		NotFoundTitle:    "الصفحة غير موجودة",
		NotFoundBody:     "الصفحة التي تبحث عنها غير موجودة أو تم نقلها.",
		UnavailableTitle: "غير متاح مؤقتًا",
		UnavailableBody:  "لا يمكن عرض هذا الموقع الآن. يرجى المحاولة مرة أخرى بعد قليل.",
		BackHome:         "العودة إلى الصفحة الرئيسية",
	},
}

// rtl lists languages written right-to-left.
var rtl = map[string]bool{"ar": true}

// Localize returns the status copy for lang ("pt-BR" matches "pt"),
// falling back to English.
func Localize(lang string) (Strings, string) {
	base := strings.ToLower(lang)
	if i := strings.IndexAny(base, "-_"); i > 0 {
		base = base[:i]
	}
	if s, ok := catalog[base]; ok {
		return s, base
	}
	return catalog["en"], "en"
}

type statusPage struct {
	Lang    string
	Dir     string
	Strings Strings
	HomeURL string
}

func newStatusPage(lang, homeURL string) statusPage {
	s, base := Localize(lang)
	dir := "ltr"
	if rtl[base] {
		dir = "rtl"
	}
	return statusPage{Lang: base, Dir: dir, Strings: s, HomeURL: homeURL}
}

// NotFound writes the localized 404 body.  homeURL may be empty.
func (r *Renderer) NotFound(w io.Writer, lang, homeURL string) error {
	return r.theme.Renderer.ExecuteTemplate(w, "notfound", newStatusPage(lang, homeURL))
}

// Unavailable writes the localized 503 body.
func (r *Renderer) Unavailable(w io.Writer, lang string) error {
	return r.theme.Renderer.ExecuteTemplate(w, "unavailable", newStatusPage(lang, ""))
}
