package page

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/starford/pagetree/internal/document"
	"github.com/starford/pagetree/internal/metrics"
	"github.com/starford/pagetree/internal/storage"
)

// Settings holds the directory conventions of a site.
type Settings struct {
	PropertiesFile  string
	LayoutFile      string
	ExtraFile       string
	EllipsisToken   string
	IgnorePrefix    string
	LoadConcurrency int
}

// DefaultSettings returns the conventions used when none are configured.
func DefaultSettings() Settings {
	return Settings{
		PropertiesFile:  "_page.yaml",
		LayoutFile:      "_layout.yaml",
		ExtraFile:       "_extra.yaml",
		EllipsisToken:   "...",
		IgnorePrefix:    "_",
		LoadConcurrency: 4,
	}
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithSettings overrides the directory conventions. Empty fields keep their defaults.
func WithSettings(s Settings) LoaderOption {
	return func(l *Loader) {
		d := DefaultSettings()
		if s.PropertiesFile == "" {
			s.PropertiesFile = d.PropertiesFile
		}
		if s.LayoutFile == "" {
			s.LayoutFile = d.LayoutFile
		}
		if s.ExtraFile == "" {
			s.ExtraFile = d.ExtraFile
		}
		if s.EllipsisToken == "" {
			s.EllipsisToken = d.EllipsisToken
		}
		if s.IgnorePrefix == "" {
			s.IgnorePrefix = d.IgnorePrefix
		}
		if s.LoadConcurrency < 1 {
			s.LoadConcurrency = 1
		}
		l.settings = s
	}
}

// WithRecorder sets the metrics recorder.
func WithRecorder(r metrics.Recorder) LoaderOption {
	return func(l *Loader) {
		if r != nil {
			l.recorder = r
		}
	}
}

// Loader builds page descriptors from a storage.Provider.
type Loader struct {
	store    storage.Provider
	settings Settings
	recorder metrics.Recorder
}

// NewLoader creates a Loader reading from store.
func NewLoader(store storage.Provider, opts ...LoaderOption) *Loader {
	l := &Loader{
		store:    store,
		settings: DefaultSettings(),
		recorder: metrics.NoopRecorder{},
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Settings returns the conventions the loader applies.
func (l *Loader) Settings() Settings { return l.settings }

// Store returns the underlying file primitives.
func (l *Loader) Store() storage.Provider { return l.store }

// IsPage reports whether dir directly contains the properties document.
func (l *Loader) IsPage(dir string) bool {
	return l.store.Exists(storage.Join(cleanPath(dir), l.settings.PropertiesFile))
}

// LoadFromURL maps url to a directory path and loads it.
func (l *Loader) LoadFromURL(ctx context.Context, url string, scope *Scope) (*Page, error) {
	return l.LoadFromPath(ctx, storage.PathFromURL(url), scope)
}

// LoadFromPath loads the page rooted at dir. A directory that is not a page
// yields a fallback descriptor with default configuration and no error.
// Malformed documents and read failures are returned as errors.
func (l *Loader) LoadFromPath(ctx context.Context, dir string, scope *Scope) (*Page, error) {
	dir = cleanPath(dir)
	if !l.IsPage(dir) {
		l.recorder.IncPageLoad(metrics.LoadFallback)
		return l.fallback(dir, scope), nil
	}
	p, err := l.load(ctx, dir, scope)
	if err != nil {
		l.recorder.IncPageLoad(metrics.LoadError)
		return nil, err
	}
	l.recorder.IncPageLoad(metrics.LoadPage)
	return p, nil
}

func (l *Loader) load(ctx context.Context, dir string, scope *Scope) (*Page, error) {
	var props Properties
	if err := l.readDoc(ctx, storage.Join(dir, l.settings.PropertiesFile), &props); err != nil {
		return nil, err
	}

	layout := DefaultLayout()
	if layoutPath := storage.Join(dir, l.settings.LayoutFile); l.store.Exists(layoutPath) {
		if err := l.readDoc(ctx, layoutPath, &layout); err != nil {
			return nil, err
		}
	}

	extra := document.Extra{}
	if extraPath := storage.Join(dir, l.settings.ExtraFile); l.store.Exists(extraPath) {
		text, err := l.readText(ctx, extraPath)
		if err != nil {
			return nil, err
		}
		if extra, err = document.DecodeExtra(extraPath, text); err != nil {
			return nil, fmt.Errorf("page: load %s: %w", dir, err)
		}
	}

	return &Page{
		url:    storage.URLFromPath(dir),
		source: dir,
		props:  props,
		layout: layout,
		extra:  extra,
		loader: l,
		scope:  scope,
	}, nil
}

func (l *Loader) fallback(dir string, scope *Scope) *Page {
	return &Page{
		url:    storage.URLFromPath(dir),
		source: NoSourcePath,
		layout: DefaultLayout(),
		extra:  document.Extra{},
		loader: l,
		scope:  scope,
	}
}

func (l *Loader) readDoc(ctx context.Context, file string, out any) error {
	text, err := l.readText(ctx, file)
	if err != nil {
		return err
	}
	if err := document.DecodeInto(file, text, out); err != nil {
		return fmt.Errorf("page: load %s: %w", path.Dir(file), err)
	}
	return nil
}

func (l *Loader) readText(ctx context.Context, file string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	text, err := l.store.ReadText(file)
	if err != nil {
		return "", fmt.Errorf("page: load %s: %w", path.Dir(file), err)
	}
	return text, nil
}

// cleanPath normalises a relative directory path; the root is ".".
func cleanPath(dir string) string {
	dir = strings.TrimPrefix(path.Clean("/"+dir), "/")
	if dir == "" {
		return storage.RootPath
	}
	return dir
}
