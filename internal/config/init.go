package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Example returns the configuration written by `sitegen init`.
func Example() *Config {
	return &Config{
		Site: SiteConfig{
			BaseURL:     "https://www.example.org",
			Title:       "Example Site",
			Author:      "Site Author",
			Description: "A site built from a content directory",
		},
		Content: ContentConfig{
			Root:        "content",
			Destination: "site",
			Templates:   "templates",
			Static:      "static",
		},
		URL: map[string]string{
			"blog": "blog/{{ .page.Date.Format \"2006/01\" }}/{{ slug .page }}",
		},
		Categories: Categories{
			{Group: "tags", Name: "tag"},
		},
		Logging: LoggingConfig{Level: string(LogLevelInfo), Format: string(LogFormatText)},
	}
}

// Init creates a new configuration file with example content
func Init(configPath string, force bool) error {
	if _, err := os.Stat(configPath); err == nil && !force {
		return fmt.Errorf("configuration file already exists: %s (use --force to overwrite)", configPath)
	}

	data, err := yaml.Marshal(Example())
	if err != nil {
		return fmt.Errorf("failed to marshal example config: %w", err)
	}

	if dir := filepath.Dir(configPath); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}

	header := "# sitegen configuration\n# url: per-section URL templates (Go text/template, `page` bound to the page)\n# categories: metadata key -> display name, rendered in declaration order\n\n"
	// #nosec G306 -- configuration is not secret
	if err := os.WriteFile(configPath, append([]byte(header), data...), 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
