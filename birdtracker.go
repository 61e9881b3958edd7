package birdtracker

import (
	"log/slog"
	"time"

	"github.com/birdtracker/birdtracker/internal/platform"
	"github.com/birdtracker/birdtracker/pkg/config"
	"github.com/birdtracker/birdtracker/pkg/core"
)

// --- Types ---

// Project is a wired birdtracker working tree.
type Project = platform.Project

// BuildResult is the summary of a build run.
type BuildResult = core.BuildResult

// CheckResult is the read-only integrity snapshot.
type CheckResult = core.CheckResult

// ShipResult describes a build followed by a commit.
type ShipResult = platform.ShipResult

// WatchHook receives the result of every rebuild triggered by Watch.
type WatchHook = platform.WatchHook

// Config is the project configuration loaded from birdtracker.yaml.
type Config = config.Config

// --- Configuration ---

// Option defines a functional option for configuring a Project.
type Option = platform.Option

// WithLogger sets the logger shared by every component.
func WithLogger(logger *slog.Logger) Option {
	return platform.WithLogger(logger)
}

// WithClock overrides the time source used for drawn dates and the version timestamp.
func WithClock(now func() time.Time) Option {
	return platform.WithClock(now)
}

// WithConfig skips birdtracker.yaml and uses cfg.
func WithConfig(cfg Config) Option {
	return platform.WithConfig(cfg)
}

// WithImageProcessor injects a custom image processor.
func WithImageProcessor(p core.ImageProcessor) Option {
	return platform.WithImageProcessor(p)
}

// WithLockTimeout sets how long mutating operations wait for the project lock.
func WithLockTimeout(d time.Duration) Option {
	return platform.WithLockTimeout(d)
}

// --- Factory ---

// New opens the project rooted at root.
func New(root string, opts ...Option) (*Project, error) {
	return platform.New(root, opts...)
}

// FindRoot looks upwards from startDir for birdtracker.yaml, public/birds.json or .git.
func FindRoot(startDir string) (string, error) {
	return platform.FindRoot(startDir)
}

// DefaultConfig returns the built-in layout.
func DefaultConfig() Config {
	return config.Default()
}

// --- Errors ---

var (
	ErrLocked       = platform.ErrLocked
	ErrRootNotFound = platform.ErrRootNotFound
)
