package internal

import (
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/pagetree/internal/index"
	"github.com/starford/pagetree/internal/page"
)

var extensionRe = regexp.MustCompile(`^\.[A-Za-z0-9._-]+$`)

// Config represents the application configuration.
type Config struct {
	App    ApplicationConfig `yaml:"app"`
	Site   SiteConfig        `yaml:"site"`
	Render RenderConfig      `yaml:"render"`
	Index  IndexConfig       `yaml:"index"`
	Watch  WatchConfig       `yaml:"watch"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.Site.Validate(); err != nil {
		return err
	}
	if err := c.Render.Validate(); err != nil {
		return err
	}
	if err := c.Index.Validate(); err != nil {
		return err
	}
	if err := c.Watch.Validate(); err != nil {
		return err
	}
	if c.Watch.Enabled && !c.Index.Enabled {
		return errors.New("watch: requires index.enabled")
	}
	return nil
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
	HTTP     HTTPConfig `yaml:"http"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	return c.HTTP.Validate()
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Port int `yaml:"port"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// SiteConfig locates the site and names its directory conventions.
type SiteConfig struct {
	Root            string `yaml:"root"`
	PropertiesFile  string `yaml:"properties_file"`
	LayoutFile      string `yaml:"layout_file"`
	ExtraFile       string `yaml:"extra_file"`
	IgnorePrefix    string `yaml:"ignore_prefix"`
	EllipsisToken   string `yaml:"ellipsis_token"`
	LoadConcurrency int    `yaml:"load_concurrency"`
}

// Validate validates the site configuration. Marker files must carry the
// ignore prefix so they are never rendered as content.
func (c *SiteConfig) Validate() error {
	marker := validation.By(func(v any) error {
		name, _ := v.(string)
		if strings.Contains(name, "/") {
			return errors.New("must be a file name")
		}
		if c.IgnorePrefix != "" && !strings.HasPrefix(name, c.IgnorePrefix) {
			return fmt.Errorf("must start with the ignore prefix %q", c.IgnorePrefix)
		}
		return nil
	})
	return validation.ValidateStruct(c,
		validation.Field(&c.Root, validation.Required),
		validation.Field(&c.IgnorePrefix, validation.Required),
		validation.Field(&c.PropertiesFile, validation.Required, marker),
		validation.Field(&c.LayoutFile, validation.Required, marker),
		validation.Field(&c.ExtraFile, validation.Required, marker),
		validation.Field(&c.EllipsisToken, validation.Required),
		validation.Field(&c.LoadConcurrency, validation.Required, validation.Min(1), validation.Max(64)),
	)
}

// Settings converts the configuration to loader settings.
func (c *SiteConfig) Settings() page.Settings {
	return page.Settings{
		PropertiesFile:  c.PropertiesFile,
		LayoutFile:      c.LayoutFile,
		ExtraFile:       c.ExtraFile,
		EllipsisToken:   c.EllipsisToken,
		IgnorePrefix:    c.IgnorePrefix,
		LoadConcurrency: c.LoadConcurrency,
	}
}

// RenderConfig maps content file suffixes to render kinds.
type RenderConfig struct {
	MarkdownExtensions []string `yaml:"markdown_extensions"`
	PartialExtensions  []string `yaml:"partial_extensions"`
	StripFrontMatter   bool     `yaml:"strip_front_matter"`
}

// Validate validates the render configuration.
func (c *RenderConfig) Validate() error {
	ext := validation.Each(validation.Match(extensionRe).Error("must look like .ext"))
	return validation.ValidateStruct(c,
		validation.Field(&c.MarkdownExtensions, ext),
		validation.Field(&c.PartialExtensions, ext),
	)
}

// IndexConfig holds the SQLite page index configuration.
type IndexConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// Validate validates the index configuration.
func (c *IndexConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.When(c.Enabled, validation.Required)),
	)
}

// WatchConfig controls re-indexing on file changes.
type WatchConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Debounce time.Duration `yaml:"debounce"`
}

// Validate validates the watch configuration.
func (c *WatchConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Debounce, validation.Min(time.Duration(0)), validation.Max(time.Minute)),
	)
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	settings := page.DefaultSettings()
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Port: 8080,
			},
		},
		Site: SiteConfig{
			Root:            "./site",
			PropertiesFile:  settings.PropertiesFile,
			LayoutFile:      settings.LayoutFile,
			ExtraFile:       settings.ExtraFile,
			IgnorePrefix:    settings.IgnorePrefix,
			EllipsisToken:   settings.EllipsisToken,
			LoadConcurrency: settings.LoadConcurrency,
		},
		Render: RenderConfig{
			MarkdownExtensions: []string{".md", ".markdown"},
			PartialExtensions:  []string{".gohtml"},
		},
		Index: IndexConfig{
			Enabled: true,
			Path:    "./pagetree.db",
		},
		Watch: WatchConfig{
			Enabled:  true,
			Debounce: index.DefaultDebounce,
		},
	}
}
