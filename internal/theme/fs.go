package theme

import (
	"io/fs"
	"path"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/yanizio/siteforge/internal/section"
)

// layoutGlobs is the fixed theme layout: page-level templates at the top,
// one file per section type below sections/.
var layoutGlobs = []string{
	"templates/*.html",
	"templates/sections/*.html",
}

// templateFiles lists the theme's .html files in lexical order.  A theme
// without a templates directory yields no files and no error.  Section
// files named after no known section type are still parsed but logged,
// since nothing will ever execute them.
func templateFiles(fsys fs.FS) ([]string, error) {
	var files []string
	for _, g := range layoutGlobs {
		m, err := fs.Glob(fsys, g)
		if err != nil {
			return nil, err
		}
		files = append(files, m...)
	}
	sort.Strings(files)

	for _, f := range files {
		if path.Dir(f) != "templates/sections" {
			continue
		}
		name := strings.TrimSuffix(path.Base(f), ".html")
		if !section.Known(name) {
			zap.L().Warn("theme section file matches no section type", zap.String("file", f))
		}
	}
	return files, nil
}
