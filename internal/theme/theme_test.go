package theme

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/yanizio/siteforge/internal/section"
	"github.com/yanizio/siteforge/internal/site"
)

func TestLoadDefaultsDefinesEverySection(t *testing.T) {
	th, err := (&Manager{}).Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	for _, typ := range section.Types {
		if !th.Has("section/" + string(typ)) {
			t.Errorf("missing template for %s", typ)
		}
	}
}

func TestLoadOverrideWins(t *testing.T) {
	dir := t.TempDir()
	tplDir := filepath.Join(dir, "ocean", "templates")
	if err := os.MkdirAll(tplDir, 0o755); err != nil {
		t.Fatal(err)
	}
	override := `{{ define "placeholder" }}<div class="ocean-empty"></div>{{ end }}`
	if err := os.WriteFile(filepath.Join(tplDir, "empty.html"), []byte(override), 0o644); err != nil {
		t.Fatal(err)
	}

	th, err := (&Manager{BaseDir: dir}).Load("ocean")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	var buf bytes.Buffer
	if err := th.Renderer.ExecuteTemplate(&buf, "placeholder", site.Section{ID: "x"}); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "ocean-empty") {
		t.Fatalf("override not applied: %s", buf.String())
	}
}

func TestLoadUnknownThemeFails(t *testing.T) {
	if _, err := (&Manager{BaseDir: t.TempDir()}).Load("missing"); err == nil {
		t.Fatal("expected error for unknown theme")
	}
}

func TestCSSVarsDropsUnsafeValues(t *testing.T) {
	got := string(CSSVars(site.Theme{
		PrimaryColor:   "#ff6600",
		SecondaryColor: "red;}</style><script>",
		FontFamily:     `"Open Sans", sans-serif`,
	}))
	if !strings.Contains(got, "--color-primary:#ff6600;") {
		t.Fatalf("primary missing: %s", got)
	}
	if strings.Contains(got, "script") || strings.Contains(got, "--color-secondary") {
		t.Fatalf("unsafe value leaked: %s", got)
	}
	if !strings.Contains(got, `--font-family:"Open Sans", sans-serif;`) {
		t.Fatalf("font missing: %s", got)
	}
}

func TestTemplateFilesSorted(t *testing.T) {
	files, err := templateFiles(defaultFS)
	if err != nil {
		t.Fatal(err)
	}
	for i := 1; i < len(files); i++ {
		if files[i-1] > files[i] {
			t.Fatalf("not sorted: %v", files)
		}
	}
	if len(files) != len(section.Types)+2 {
		t.Fatalf("expected layout, status, and one file per section, got %v", files)
	}
}

func TestTemplateFilesEmptyTheme(t *testing.T) {
	files, err := templateFiles(fstest.MapFS{"README.md": {Data: []byte("x")}})
	if err != nil || len(files) != 0 {
		t.Fatalf("files = %v, err = %v", files, err)
	}
}
