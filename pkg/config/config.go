// Package config loads birdtracker.yaml, applies environment overrides and
// validates the result.
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// FileName is the optional project configuration file at the root.
const FileName = "birdtracker.yaml"

// Environment variables that override file values.
const (
	EnvPort     = "BIRDTRACKER_PORT"
	EnvLogLevel = "BIRDTRACKER_LOG_LEVEL"
	EnvBuildDir = "BIRDTRACKER_BUILD_DIR"
)

// Paths locates every file the pipeline reads or writes. Relative paths are
// resolved against the project root.
type Paths struct {
	Raw       string `yaml:"raw"`
	Full      string `yaml:"full"`
	Thumb     string `yaml:"thumb"`
	Catalog   string `yaml:"catalog"`
	Version   string `yaml:"version"`
	Changelog string `yaml:"changelog"`
	Build     string `yaml:"build"`
	Tracker   string `yaml:"tracker"`
}

type Images struct {
	ThumbSize int `yaml:"thumb_size"`
	Quality   int `yaml:"quality"`
}

type Version struct {
	Bump string `yaml:"bump"`
}

type Server struct {
	Port int `yaml:"port"`
}

type Watch struct {
	Debounce time.Duration `yaml:"debounce"`
}

type Log struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Config is the full project configuration.
type Config struct {
	Paths   Paths   `yaml:"paths"`
	Images  Images  `yaml:"images"`
	Version Version `yaml:"version"`
	Server  Server  `yaml:"server"`
	Watch   Watch   `yaml:"watch"`
	Log     Log     `yaml:"log"`
}

// Default returns the built-in layout and settings.
func Default() Config {
	return Config{
		Paths: Paths{
			Raw:       "raw_png",
			Full:      filepath.Join("public", "full"),
			Thumb:     filepath.Join("public", "thumb"),
			Catalog:   filepath.Join("public", "birds.json"),
			Version:   filepath.Join("src", "version.json"),
			Changelog: "CHANGELOG.md",
			Build:     "build",
			Tracker:   filepath.Join("public", "birds.txt"),
		},
		Images:  Images{ThumbSize: 400, Quality: 90},
		Version: Version{Bump: "always"},
		Server:  Server{Port: 3000},
		Watch:   Watch{Debounce: 500 * time.Millisecond},
		Log:     Log{Level: "info", Format: "text"},
	}
}

// Load reads <root>/birdtracker.yaml over the defaults, applies environment
// overrides, validates and resolves paths against root. A missing file is
// not an error.
func Load(root string) (Config, error) {
	cfg := Default()

	path := filepath.Join(root, FileName)
	f, err := os.Open(path)
	switch {
	case err == nil:
		defer f.Close()
		if err := Decode(f, &cfg); err != nil {
			return Config{}, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	case errors.Is(err, fs.ErrNotExist):
	default:
		return Config{}, fmt.Errorf("failed to open %s: %w", path, err)
	}

	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg.Resolve(root), nil
}

// Decode reads YAML into cfg. Keys absent from the document keep their
// current values; unknown keys are rejected.
func Decode(r io.Reader, cfg *Config) error {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// LoadDotEnv loads <root>/.env into the process environment without
// overriding variables that are already set.
func LoadDotEnv(root string) error {
	path := filepath.Join(root, ".env")
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return godotenv.Load(path)
}

// ApplyEnv overrides fields from the environment.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup(EnvPort); ok && v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvPort, err)
		}
		c.Server.Port = port
	}
	if v, ok := lookup(EnvLogLevel); ok && v != "" {
		c.Log.Level = v
	}
	if v, ok := lookup(EnvBuildDir); ok && v != "" {
		c.Paths.Build = v
	}
	return nil
}

// Validate checks value ranges.
func (c Config) Validate() error {
	var errs []error
	if c.Images.ThumbSize <= 0 {
		errs = append(errs, fmt.Errorf("images.thumb_size must be positive, got %d", c.Images.ThumbSize))
	}
	if c.Images.Quality < 1 || c.Images.Quality > 100 {
		errs = append(errs, fmt.Errorf("images.quality must be within 1..100, got %d", c.Images.Quality))
	}
	switch c.Version.Bump {
	case "always", "on-change":
	default:
		errs = append(errs, fmt.Errorf("version.bump must be \"always\" or \"on-change\", got %q", c.Version.Bump))
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port must be within 1..65535, got %d", c.Server.Port))
	}
	if c.Watch.Debounce < 0 {
		errs = append(errs, fmt.Errorf("watch.debounce must not be negative"))
	}
	if _, err := ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, err)
	}
	switch c.Log.Format {
	case "", "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format must be \"text\" or \"json\", got %q", c.Log.Format))
	}
	return errors.Join(errs...)
}

// Resolve returns a copy with every relative path joined to root.
func (c Config) Resolve(root string) Config {
	abs := func(p string) string {
		if p == "" || filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(root, p)
	}
	c.Paths = Paths{
		Raw:       abs(c.Paths.Raw),
		Full:      abs(c.Paths.Full),
		Thumb:     abs(c.Paths.Thumb),
		Catalog:   abs(c.Paths.Catalog),
		Version:   abs(c.Paths.Version),
		Changelog: abs(c.Paths.Changelog),
		Build:     abs(c.Paths.Build),
		Tracker:   abs(c.Paths.Tracker),
	}
	return c
}

// ParseLevel maps a level name to slog.Level.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("unknown log level %q", s)
}
