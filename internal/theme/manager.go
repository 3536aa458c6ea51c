package theme

import (
	"fmt"
	"html/template"
	"os"
	"path/filepath"

	"go.uber.org/zap"
)

// Manager discovers and loads themes.
type Manager struct {
	BaseDir string // override root, e.g. "themes"; empty disables overrides
}

// Load parses the embedded defaults, then any overrides for name.
// Template precedence (high → low):
//  1. <BaseDir>/<name>/templates/{,sections/}*.html (overrides)
//  2. embedded templates/{,sections/}*.html          (defaults)
func (m *Manager) Load(name string) (*Theme, error) {
	if name == "" {
		name = DefaultName
	}
	tpl := template.New("").Funcs(FuncMap())

	files, err := templateFiles(defaultFS)
	if err != nil {
		return nil, fmt.Errorf("theme defaults: %w", err)
	}
	if _, err := tpl.ParseFS(defaultFS, files...); err != nil {
		return nil, fmt.Errorf("parse theme defaults: %w", err)
	}

	if m.BaseDir != "" {
		root := filepath.Join(m.BaseDir, name)
		if info, err := os.Stat(root); err == nil && info.IsDir() {
			fsys := os.DirFS(root)
			over, err := templateFiles(fsys)
			if err != nil {
				return nil, fmt.Errorf("theme %s overrides: %w", name, err)
			}
			if len(over) > 0 {
				if _, err := tpl.ParseFS(fsys, over...); err != nil {
					return nil, fmt.Errorf("parse theme %s overrides: %w", name, err)
				}
			}
			zap.L().Info("theme overrides loaded",
				zap.String("theme", name), zap.Int("files", len(over)))
		} else if name != DefaultName {
			return nil, fmt.Errorf("theme %s not found at %s", name, root)
		}
	}

	for _, must := range []string{"layout", "notfound", "unavailable", "placeholder"} {
		if tpl.Lookup(must) == nil {
			return nil, fmt.Errorf("theme %s: missing template %q", name, must)
		}
	}
	return New(name, tpl), nil
}
