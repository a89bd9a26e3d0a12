// Package config — .resxsync.yaml configuration file support.
//
// Settings are layered: built-in defaults, then .resxsync.yaml in the
// resource directory, then RESXSYNC_* environment variables. Command-line
// flags are applied on top by the caller.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/minios-linux/resxsync/langmeta"
)

// FileName is the default config file name.
const FileName = ".resxsync.yaml"

// EnvPrefix prefixes every environment override, e.g. RESXSYNC_DIR.
const EnvPrefix = "RESXSYNC_"

// Output formats.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// ---------------------------------------------------------------------------
// Schema
// ---------------------------------------------------------------------------

// Config is the resolved resxsync configuration.
type Config struct {
	// Dir is the directory holding the .resx files (default ".").
	Dir string `yaml:"dir,omitempty" env:"DIR"`
	// Prefix is the resource base name (default "Strings").
	Prefix string `yaml:"prefix,omitempty" env:"PREFIX"`
	// BaseLang is the source language code (default "en").
	BaseLang string `yaml:"base_lang,omitempty" env:"BASE_LANG"`
	// Languages restricts --all to these codes; empty means auto-detect.
	Languages []string `yaml:"languages,omitempty" env:"LANGUAGES" envSeparator:","`
	// Format is the console output format: text or json.
	Format string `yaml:"format,omitempty" env:"FORMAT"`
	// Strict fails the run when a missing key has no <data> block.
	Strict bool `yaml:"strict,omitempty" env:"STRICT"`
	// Lock enables resxsync.lock stale-entry tracking.
	Lock bool `yaml:"lock,omitempty" env:"LOCK"`
	// Jobs bounds how many languages are compared at once with --all.
	Jobs int `yaml:"jobs,omitempty" env:"JOBS"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Dir:      ".",
		Prefix:   DefaultPrefix,
		BaseLang: DefaultBaseLanguage,
		Format:   FormatText,
		Jobs:     4,
	}
}

// ---------------------------------------------------------------------------
// Loading
// ---------------------------------------------------------------------------

// Load builds the configuration from defaults, the YAML file at path and the
// environment. A missing file is not an error unless required is set.
// A relative dir in the file is taken relative to the file's directory.
func Load(path string, required bool) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parsing %s: %w", path, err)
			}
			if !filepath.IsAbs(cfg.Dir) {
				cfg.Dir = filepath.Join(filepath.Dir(path), cfg.Dir)
			}
		case os.IsNotExist(err) && !required:
		default:
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}
	}

	if err := env.ParseWithOptions(cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return nil, fmt.Errorf("reading environment: %w", err)
	}

	return cfg, nil
}

// Validate checks the configuration and fills empty fields with defaults.
func (c *Config) Validate() error {
	def := Default()
	if c.Dir == "" {
		c.Dir = def.Dir
	}
	if c.Prefix == "" {
		c.Prefix = def.Prefix
	}
	if c.BaseLang == "" {
		c.BaseLang = def.BaseLang
	}
	if c.Format == "" {
		c.Format = def.Format
	}
	if c.Jobs <= 0 {
		c.Jobs = def.Jobs
	}

	if !langmeta.Valid(c.BaseLang) {
		return fmt.Errorf("base_lang %q is not a valid language code", c.BaseLang)
	}
	for _, lang := range c.Languages {
		if !langmeta.Valid(lang) {
			return fmt.Errorf("languages: %q is not a valid language code", lang)
		}
	}
	switch c.Format {
	case FormatText, FormatJSON:
	default:
		return fmt.Errorf("format %q is unknown (valid: text, json)", c.Format)
	}
	return nil
}

// Paths resolves the files for comparing lang against the base language.
func (c *Config) Paths(lang string) Paths {
	return Resolve(c.Dir, c.Prefix, c.BaseLang, lang)
}

// TargetLanguages returns the configured languages, or the languages
// detected in Dir when none are configured.
func (c *Config) TargetLanguages() ([]string, error) {
	if len(c.Languages) > 0 {
		var langs []string
		for _, l := range c.Languages {
			if l != c.BaseLang {
				langs = append(langs, l)
			}
		}
		return langs, nil
	}
	return DetectLanguages(c.Dir, c.Prefix, c.BaseLang)
}
