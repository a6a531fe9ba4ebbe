package render

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/starford/pagetree/internal/apperr"
	"github.com/starford/pagetree/internal/metrics"
	"github.com/starford/pagetree/internal/page"
	"github.com/starford/pagetree/internal/storage"
	"github.com/starford/pagetree/internal/testutil"
)

func loadPage(t *testing.T, files map[string]string, dir string) (*page.Page, *storage.FS) {
	t.Helper()
	_, fs := testutil.Site(t, files)
	p, err := page.NewLoader(fs).NewScope().Page(context.Background(), dir)
	if err != nil {
		t.Fatalf("Page: %v", err)
	}
	return p, fs
}

func TestRender_KindsInOrder(t *testing.T) {
	p, fs := loadPage(t, map[string]string{
		"_page.yaml":   "title: Home\ncontentOrder: [intro.md, _hero.gohtml]",
		"_hero.gohtml": "<h2>{{ .Title }}</h2>",
		"intro.md":     "# Hello World",
		"snippet.html": "<p>raw</p>",
		"zz.markdown":  "*tail*",
		"_draft.md":    "never",
	}, ".")

	var buf bytes.Buffer
	if err := NewDispatcher(fs).Render(context.Background(), &buf, p); err != nil {
		t.Fatalf("Render: %v", err)
	}
	want := `<h1 id="hello-world">Hello World</h1>` + "\n" +
		"<h2>Home</h2>" +
		"<p>raw</p>" +
		"<p><em>tail</em></p>\n"
	if got := buf.String(); got != want {
		t.Errorf("output = %q, want %q", got, want)
	}
}

func TestRender_RawHTMLInMarkdown(t *testing.T) {
	p, fs := loadPage(t, map[string]string{
		"_page.yaml": "",
		"a.md":       "<div class=\"note\">kept</div>\n",
	}, ".")
	var buf bytes.Buffer
	if err := NewDispatcher(fs).Render(context.Background(), &buf, p); err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !strings.Contains(buf.String(), `<div class="note">kept</div>`) {
		t.Errorf("output = %q", buf.String())
	}
}

func TestRender_CustomExtensions(t *testing.T) {
	p, fs := loadPage(t, map[string]string{
		"_page.yaml": "",
		"a.md":       "# not converted",
		"b.txt":      "**converted**",
		"c.tmpl":     "{{ .URL }}",
	}, ".")
	d := NewDispatcher(fs, WithMarkdownExtensions(".txt"), WithPartialExtensions(".tmpl"))
	var buf bytes.Buffer
	if err := d.Render(context.Background(), &buf, p); err != nil {
		t.Fatalf("Render: %v", err)
	}
	want := "# not converted<p><strong>converted</strong></p>\n/"
	if buf.String() != want {
		t.Errorf("output = %q, want %q", buf.String(), want)
	}
}

func TestRender_FallbackWritesNothing(t *testing.T) {
	p, fs := loadPage(t, map[string]string{"plain/a.md": "text"}, "plain")
	var buf bytes.Buffer
	if err := NewDispatcher(fs).Render(context.Background(), &buf, p); err != nil {
		t.Fatalf("Render: %v", err)
	}
	if buf.Len() != 0 {
		t.Errorf("output = %q, want empty", buf.String())
	}
}

type failingConverter struct{ err error }

func (f failingConverter) Convert([]byte, io.Writer) error { return f.err }

func TestRender_AbortsOnFirstError(t *testing.T) {
	p, fs := loadPage(t, map[string]string{
		"_page.yaml": "",
		"a.txt":      "first",
		"b.md":       "boom",
		"c.txt":      "never",
	}, ".")
	boom := errors.New("boom")
	var buf bytes.Buffer
	err := NewDispatcher(fs, WithConverter(failingConverter{boom})).Render(context.Background(), &buf, p)
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want boom", err)
	}
	if buf.String() != "first" {
		t.Errorf("output = %q, want %q", buf.String(), "first")
	}
}

func TestRender_PartialError(t *testing.T) {
	p, fs := loadPage(t, map[string]string{
		"_page.yaml": "",
		"a.gohtml":   "{{ .Missing }}",
	}, ".")
	var buf bytes.Buffer
	if err := NewDispatcher(fs).Render(context.Background(), &buf, p); err == nil {
		t.Fatal("expected template execution error")
	}
}

func TestRender_CancelledContext(t *testing.T) {
	p, fs := loadPage(t, map[string]string{"_page.yaml": "", "a.txt": "x"}, ".")
	if _, err := p.ContentFiles(context.Background()); err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	var buf bytes.Buffer
	if err := NewDispatcher(fs).Render(ctx, &buf, p); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestTemplates_ReloadOnChange(t *testing.T) {
	root, fs := testutil.Site(t, map[string]string{"t.gohtml": "one"})
	tpl := NewTemplates(fs)
	first, err := tpl.Load("t.gohtml")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	again, _ := tpl.Load("t.gohtml")
	if first != again {
		t.Error("unchanged template should come from cache")
	}
	testutil.WriteFiles(t, root, map[string]string{"t.gohtml": "two"})
	changed, _ := tpl.Load("t.gohtml")
	var buf bytes.Buffer
	if err := changed.Execute(&buf, nil); err != nil || buf.String() != "two" {
		t.Errorf("reloaded = %q, %v", buf.String(), err)
	}

	if _, err := tpl.Load("missing.gohtml"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

type durationRecorder struct {
	metrics.NoopRecorder
	n int
}

func (r *durationRecorder) ObserveRenderDuration(time.Duration) { r.n++ }

func TestRenderPage_BuiltinLayout(t *testing.T) {
	p, fs := loadPage(t, map[string]string{
		"_page.yaml":   "title: Home\nsubPageOrder: [b]",
		"_layout.yaml": "stylesheets: [/site.css]\nscripts: [/app.js]",
		"index.md":     "body",
		"a/_page.yaml": "title: Alpha",
		"b/_page.yaml": "redirectUrl: https://example.com/b",
	}, ".")
	rec := &durationRecorder{}
	var buf bytes.Buffer
	if err := NewDispatcher(fs, WithRecorder(rec)).RenderPage(context.Background(), &buf, p); err != nil {
		t.Fatalf("RenderPage: %v", err)
	}
	out := buf.String()
	for _, want := range []string{
		"<title>Home</title>",
		`<link rel="stylesheet" href="/site.css">`,
		`<script src="/app.js"></script>`,
		"<p>body</p>",
		`<li><a href="https://example.com/b">b</a></li>`,
		`<li><a href="/a/">Alpha</a></li>`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Index(out, "example.com/b") > strings.Index(out, "/a/") {
		t.Error("navigation not in sub-page order")
	}
	if rec.n != 1 {
		t.Errorf("render observations = %d, want 1", rec.n)
	}
}

func TestRenderPage_HideSubPageNav(t *testing.T) {
	p, fs := loadPage(t, map[string]string{
		"_page.yaml":   "title: Home",
		"_layout.yaml": "hideSubPageNav: true",
		"a/_page.yaml": "title: Alpha",
	}, ".")
	var buf bytes.Buffer
	if err := NewDispatcher(fs).RenderPage(context.Background(), &buf, p); err != nil {
		t.Fatalf("RenderPage: %v", err)
	}
	if strings.Contains(buf.String(), "<nav") {
		t.Errorf("navigation rendered despite hideSubPageNav:\n%s", buf.String())
	}
}

func TestRenderPage_CustomLayout(t *testing.T) {
	files := map[string]string{
		"_shared.gohtml":    "[{{ .Title }}|{{ .Content }}|{{ len .Nav }}]",
		"docs/_page.yaml":   "title: Docs",
		"docs/_layout.yaml": "template: /_shared.gohtml",
		"docs/a.md":         "hi",
		"blog/_page.yaml":   "title: Blog",
		"blog/_layout.yaml": "template: _own.gohtml",
		"blog/_own.gohtml":  "own:{{ .Page.URL }}",
	}
	_, fs := testutil.Site(t, files)
	scope := page.NewLoader(fs).NewScope()
	d := NewDispatcher(fs)

	docs, _ := scope.Page(context.Background(), "docs")
	var buf bytes.Buffer
	if err := d.RenderPage(context.Background(), &buf, docs); err != nil {
		t.Fatalf("RenderPage(docs): %v", err)
	}
	if want := "[Docs|<p>hi</p>\n|0]"; buf.String() != want {
		t.Errorf("docs = %q, want %q", buf.String(), want)
	}

	blog, _ := scope.Page(context.Background(), "blog")
	buf.Reset()
	if err := d.RenderPage(context.Background(), &buf, blog); err != nil {
		t.Fatalf("RenderPage(blog): %v", err)
	}
	if want := "own:/blog/"; buf.String() != want {
		t.Errorf("blog = %q, want %q", buf.String(), want)
	}
}

func TestRenderPage_MissingLayoutLeavesWriterEmpty(t *testing.T) {
	p, fs := loadPage(t, map[string]string{
		"_page.yaml":   "title: Home",
		"_layout.yaml": "template: _nope.gohtml",
		"a.md":         "x",
	}, ".")
	var buf bytes.Buffer
	if err := NewDispatcher(fs).RenderPage(context.Background(), &buf, p); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
	if buf.Len() != 0 {
		t.Errorf("output = %q, want empty", buf.String())
	}
}
