package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	serrors "git.home.luguber.info/inful/sitegen/internal/errors"
)

// RootSectionName names the section built from the content root itself.
// URL overrides keyed by this name apply to top-level pages.
const RootSectionName = "_top"

// Config represents the site configuration
type Config struct {
	Site       SiteConfig        `yaml:"site" toml:"site"`
	Content    ContentConfig     `yaml:"content" toml:"content"`
	URL        map[string]string `yaml:"url,omitempty" toml:"url"`               // section name -> URL template
	URLFormat  map[string]string `yaml:"url_format,omitempty" toml:"url_format"` // legacy alias of URL
	Categories Categories        `yaml:"categories,omitempty" toml:"-"`
	Build      BuildConfig       `yaml:"build" toml:"build"`
	Logging    LoggingConfig     `yaml:"logging" toml:"logging"`
	Metrics    MetricsConfig     `yaml:"metrics,omitempty" toml:"metrics"`

	// baseDir anchors relative paths; it is the directory holding the config file.
	baseDir string
}

// SiteConfig carries values exposed to templates as `settings.Site`.
type SiteConfig struct {
	BaseURL     string `yaml:"base_url" toml:"base_url"`
	Title       string `yaml:"title" toml:"title"`
	Author      string `yaml:"author,omitempty" toml:"author"`
	Email       string `yaml:"email,omitempty" toml:"email"`
	Description string `yaml:"description,omitempty" toml:"description"`
}

// ContentConfig locates the input and output trees.
type ContentConfig struct {
	Root        string   `yaml:"root" toml:"root"`
	Destination string   `yaml:"destination" toml:"destination"`
	Templates   string   `yaml:"templates" toml:"templates"`
	Static      string   `yaml:"static,omitempty" toml:"static"`
	IndexName   string   `yaml:"index_name,omitempty" toml:"index_name"`
	Extensions  []string `yaml:"extensions,omitempty" toml:"extensions"`
}

// BuildConfig toggles optional build behavior.
type BuildConfig struct {
	GitLastmod bool `yaml:"git_lastmod,omitempty" toml:"git_lastmod"`
	Report     bool `yaml:"report,omitempty" toml:"report"`
}

// MetricsConfig configures Prometheus textfile export.
type MetricsConfig struct {
	Textfile string `yaml:"textfile,omitempty" toml:"textfile"`
}

// Load loads configuration from the specified file. Files ending in .toml are
// decoded as TOML, everything else as YAML.
func Load(configPath string) (*Config, error) {
	loadEnvFiles()

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, serrors.ConfigNotFound(configPath)
	}

	// #nosec G304 -- configPath is supplied by the operator.
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, serrors.ConfigDecodeFailed(configPath, err)
	}

	var cfg *Config
	if strings.EqualFold(filepath.Ext(configPath), ".toml") {
		cfg, err = ParseTOML(data)
	} else {
		cfg, err = ParseYAML(data)
	}
	if err != nil {
		return nil, serrors.ConfigDecodeFailed(configPath, err)
	}

	cfg.baseDir = filepath.Dir(configPath)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ParseYAML decodes YAML configuration bytes, expanding environment variables
// and applying defaults. Validation is left to the caller.
func ParseYAML(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.applyDefaults()
	return &cfg, nil
}

// ParseTOML decodes TOML configuration bytes. Category order follows key order in
// the [categories] table.
func ParseTOML(data []byte) (*Config, error) {
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	md, err := toml.Decode(expanded, &cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	var raw struct {
		Categories map[string]string `toml:"categories"`
	}
	if _, err := toml.NewDecoder(bytes.NewReader([]byte(expanded))).Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to unmarshal categories: %w", err)
	}
	for _, key := range md.Keys() {
		if len(key) == 2 && key[0] == "categories" {
			cfg.Categories = append(cfg.Categories, CategoryDef{Group: key[1], Name: raw.Categories[key[1]]})
		}
	}

	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Site.Title == "" {
		c.Site.Title = "Untitled Site"
	}
	if c.Content.Root == "" {
		c.Content.Root = "content"
	}
	if c.Content.Destination == "" {
		c.Content.Destination = "site"
	}
	if c.Content.Templates == "" {
		c.Content.Templates = "templates"
	}
	if c.Content.IndexName == "" {
		c.Content.IndexName = "_index"
	}
	if len(c.Content.Extensions) == 0 {
		c.Content.Extensions = []string{".md", ".markdown"}
	}
	for i, ext := range c.Content.Extensions {
		if ext != "" && !strings.HasPrefix(ext, ".") {
			c.Content.Extensions[i] = "." + ext
		}
	}
	if len(c.URLFormat) > 0 {
		if c.URL == nil {
			c.URL = make(map[string]string, len(c.URLFormat))
		}
		for name, tmpl := range c.URLFormat {
			if _, ok := c.URL[name]; !ok {
				c.URL[name] = tmpl
			}
		}
	}
	c.Logging.Level = string(NormalizeLogLevel(c.Logging.Level))
	c.Logging.Format = string(NormalizeLogFormat(c.Logging.Format))
}

// Validate checks invariants the build relies on.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Content.Root) == "" {
		return serrors.ConfigInvalid("content.root", "content root is required")
	}
	if strings.TrimSpace(c.Content.Destination) == "" {
		return serrors.ConfigInvalid("content.destination", "destination is required")
	}
	if filepath.Clean(c.ContentRoot()) == filepath.Clean(c.Destination()) {
		return serrors.ConfigInvalid("content.destination", "destination must differ from content root")
	}
	if filepath.Ext(c.Content.IndexName) != "" || strings.ContainsRune(c.Content.IndexName, '/') {
		return serrors.ConfigInvalid("content.index_name", "index name must be a bare file stem")
	}
	for _, ext := range c.Content.Extensions {
		if ext == "" || ext == "." {
			return serrors.ConfigInvalid("content.extensions", "empty extension")
		}
	}
	for name, tmpl := range c.URL {
		if strings.TrimSpace(tmpl) == "" {
			return serrors.ConfigInvalid("url."+name, "url template is empty")
		}
	}
	return c.Categories.validate()
}

// URLOverride returns the URL template configured for a section name.
func (c *Config) URLOverride(section string) (string, bool) {
	tmpl, ok := c.URL[section]
	return tmpl, ok
}

// ContentRoot returns the content root resolved against the config file location.
func (c *Config) ContentRoot() string { return c.resolve(c.Content.Root) }

// Destination returns the output directory resolved against the config file location.
func (c *Config) Destination() string { return c.resolve(c.Content.Destination) }

// TemplateDir returns the template directory resolved against the config file location.
func (c *Config) TemplateDir() string { return c.resolve(c.Content.Templates) }

// StaticDir returns the static asset directory, or "" when none is configured.
func (c *Config) StaticDir() string {
	if c.Content.Static == "" {
		return ""
	}
	return c.resolve(c.Content.Static)
}

// SetBaseDir anchors relative paths at dir. Load sets it to the config file directory.
func (c *Config) SetBaseDir(dir string) { c.baseDir = dir }

func (c *Config) resolve(p string) string {
	if p == "" || filepath.IsAbs(p) || c.baseDir == "" {
		return p
	}
	return filepath.Join(c.baseDir, p)
}
