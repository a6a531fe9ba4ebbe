package page

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/starford/pagetree/internal/apperr"
	"github.com/starford/pagetree/internal/storage"
	"github.com/starford/pagetree/internal/testutil"
)

// countingStore wraps a Provider and counts directory scans and reads.
type countingStore struct {
	storage.Provider

	mu    sync.Mutex
	lists map[string]int
	reads map[string]int
}

func newCountingStore(p storage.Provider) *countingStore {
	return &countingStore{Provider: p, lists: map[string]int{}, reads: map[string]int{}}
}

func (c *countingStore) ListEntries(dir string) ([]storage.Entry, error) {
	c.mu.Lock()
	c.lists[dir]++
	c.mu.Unlock()
	return c.Provider.ListEntries(dir)
}

func (c *countingStore) ReadText(path string) (string, error) {
	c.mu.Lock()
	c.reads[path]++
	c.mu.Unlock()
	return c.Provider.ReadText(path)
}

func (c *countingStore) listCount(dir string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lists[dir]
}

func (c *countingStore) readCount(path string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.reads[path]
}

func testLoader(t *testing.T, files map[string]string) (*Loader, string) {
	t.Helper()
	root, store := testutil.Site(t, files)
	return NewLoader(store), root
}

func TestLoadFromPath_NotAPageFallsBack(t *testing.T) {
	l, _ := testLoader(t, map[string]string{
		"plain/readme.md": "# not a page",
	})
	for _, dir := range []string{"plain", "missing", "plain/readme.md"} {
		p, err := l.LoadFromPath(context.Background(), dir, nil)
		if err != nil {
			t.Fatalf("LoadFromPath(%q): %v", dir, err)
		}
		if p.IsPage() || p.SourcePath() != NoSourcePath {
			t.Errorf("%q: source = %q, want fallback", dir, p.SourcePath())
		}
		if want := storage.URLFromPath(dir); p.URL() != want {
			t.Errorf("%q: url = %q, want %q", dir, p.URL(), want)
		}
		if p.Title() != "" || len(p.Properties().SubPageOrder) != 0 {
			t.Errorf("%q: properties = %+v, want defaults", dir, p.Properties())
		}
		if p.Layout().Template != BuiltinTemplate {
			t.Errorf("%q: layout = %+v, want default layout", dir, p.Layout())
		}
		if len(p.Extra()) != 0 {
			t.Errorf("%q: extra = %v, want empty", dir, p.Extra())
		}
		subs, err := p.SubPages(context.Background())
		if err != nil || len(subs) != 0 {
			t.Errorf("%q: sub pages = %v, %v", dir, subs, err)
		}
		files, err := p.ContentFiles(context.Background())
		if err != nil || len(files) != 0 {
			t.Errorf("%q: content files = %v, %v", dir, files, err)
		}
	}
}

func TestLoadFromPath_AllDocuments(t *testing.T) {
	l, _ := testLoader(t, map[string]string{
		"docs/_page.yaml":   "title: Docs\nredirectUrl: /elsewhere/\nsubPageOrder: [b, ...]\ncontentOrder: [intro.md]\nunknown: ignored\n",
		"docs/_layout.yaml": "stylesheets: [site.css]\nhideSubPageNav: true\n",
		"docs/_extra.yaml":  "author: Ada\nweight: 2\n",
	})
	p, err := l.LoadFromPath(context.Background(), "docs", nil)
	if err != nil {
		t.Fatalf("LoadFromPath: %v", err)
	}
	if !p.IsPage() || p.SourcePath() != "docs" {
		t.Errorf("source = %q, want %q", p.SourcePath(), "docs")
	}
	if p.URL() != "/docs/" {
		t.Errorf("url = %q, want %q", p.URL(), "/docs/")
	}
	props := p.Properties()
	if props.Title != "Docs" || props.RedirectURL != "/elsewhere/" {
		t.Errorf("properties = %+v", props)
	}
	if len(props.SubPageOrder) != 2 || props.ContentOrder[0] != "intro.md" {
		t.Errorf("orders = %v %v", props.SubPageOrder, props.ContentOrder)
	}

	layout := p.Layout()
	if layout.Template != BuiltinTemplate {
		t.Errorf("template = %q, want default kept", layout.Template)
	}
	if len(layout.Stylesheets) != 1 || !layout.HideSubPageNav {
		t.Errorf("layout = %+v", layout)
	}

	if s, err := p.Extra().String("author"); err != nil || s != "Ada" {
		t.Errorf("extra author = %q, %v", s, err)
	}
	if n, err := p.Extra().Int("weight"); err != nil || n != 2 {
		t.Errorf("extra weight = %d, %v", n, err)
	}
}

func TestLoadFromPath_EmptyPropertiesAreDefaults(t *testing.T) {
	l, _ := testLoader(t, map[string]string{
		"_page.yaml":   "",
		"a/_page.yaml": "~\n",
	})
	for _, dir := range []string{".", "a"} {
		p, err := l.LoadFromPath(context.Background(), dir, nil)
		if err != nil {
			t.Fatalf("LoadFromPath(%q): %v", dir, err)
		}
		if !p.IsPage() {
			t.Errorf("%q should be a page", dir)
		}
		if p.Title() != "" || p.Properties().RedirectURL != "" {
			t.Errorf("%q: properties = %+v", dir, p.Properties())
		}
		if p.Layout().Template != BuiltinTemplate || p.Extra() == nil {
			t.Errorf("%q: layout/extra not defaulted", dir)
		}
	}
}

func TestLoadFromPath_RootURL(t *testing.T) {
	l, _ := testLoader(t, map[string]string{"_page.yaml": "title: Home"})
	for _, dir := range []string{".", "", "/"} {
		p, err := l.LoadFromPath(context.Background(), dir, nil)
		if err != nil {
			t.Fatalf("LoadFromPath(%q): %v", dir, err)
		}
		if p.URL() != "/" || p.SourcePath() != "." || p.Title() != "Home" {
			t.Errorf("%q: url = %q source = %q title = %q", dir, p.URL(), p.SourcePath(), p.Title())
		}
	}
}

func TestLoadFromPath_MalformedDocuments(t *testing.T) {
	cases := map[string]map[string]string{
		"properties": {"p/_page.yaml": "title: [unclosed\n"},
		"layout":     {"p/_page.yaml": "title: ok", "p/_layout.yaml": "stylesheets: [a\n"},
		"extra":      {"p/_page.yaml": "title: ok", "p/_extra.yaml": "- not\n- a map\n"},
	}
	for name, files := range cases {
		t.Run(name, func(t *testing.T) {
			l, _ := testLoader(t, files)
			p, err := l.LoadFromPath(context.Background(), "p", nil)
			if !errors.Is(err, apperr.ErrParse) {
				t.Fatalf("err = %v, want ErrParse", err)
			}
			if p != nil {
				t.Error("expected no descriptor on failure")
			}
		})
	}
}

func TestLoadFromPath_CancelledContext(t *testing.T) {
	l, _ := testLoader(t, map[string]string{"_page.yaml": "title: Home"})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := l.LoadFromPath(ctx, ".", nil); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestLoadFromURL(t *testing.T) {
	l, _ := testLoader(t, map[string]string{"guide/setup/_page.yaml": "title: Setup"})
	p, err := l.LoadFromURL(context.Background(), "/guide/setup/", nil)
	if err != nil {
		t.Fatalf("LoadFromURL: %v", err)
	}
	if p.SourcePath() != "guide/setup" || p.Title() != "Setup" {
		t.Errorf("page = %s (source %q)", p, p.SourcePath())
	}
}

func TestResolvedURL_RedirectPrecedence(t *testing.T) {
	l, _ := testLoader(t, map[string]string{
		"a/_page.yaml": "redirectUrl: /x/",
		"b/_page.yaml": "redirectUrl: ''",
	})
	a, _ := l.LoadFromPath(context.Background(), "a", nil)
	if a.ResolvedURL() != "/x/" {
		t.Errorf("resolved = %q, want %q", a.ResolvedURL(), "/x/")
	}
	if a.URL() != "/a/" {
		t.Errorf("canonical = %q, want %q", a.URL(), "/a/")
	}
	b, _ := l.LoadFromPath(context.Background(), "b", nil)
	if b.ResolvedURL() != "/b/" {
		t.Errorf("resolved = %q, want %q", b.ResolvedURL(), "/b/")
	}
}

func TestWithSettings_CustomConventions(t *testing.T) {
	_, store := testutil.Site(t, map[string]string{
		"_index.yml":   "title: Home\nsubPageOrder: [z, '*']\n",
		"z/_index.yml": "title: Z",
		"y/_index.yml": "title: Y",
		"x/_index.yml": "title: X",
		"~draft.md":    "hidden",
		"post.md":      "shown",
	})
	l := NewLoader(store, WithSettings(Settings{
		PropertiesFile: "_index.yml",
		EllipsisToken:  "*",
		IgnorePrefix:   "~",
	}))
	if l.Settings().LayoutFile != "_layout.yaml" || l.Settings().LoadConcurrency != 1 {
		t.Errorf("settings = %+v, want defaults for empty fields", l.Settings())
	}
	root, err := l.LoadFromPath(context.Background(), ".", nil)
	if err != nil {
		t.Fatalf("LoadFromPath: %v", err)
	}
	subs, err := root.SubPages(context.Background())
	if err != nil {
		t.Fatalf("SubPages: %v", err)
	}
	assertTitles(t, subs, "Z", "X", "Y")

	files, err := root.ContentFiles(context.Background())
	if err != nil {
		t.Fatalf("ContentFiles: %v", err)
	}
	assertPaths(t, files, "_index.yml", "post.md")
}
