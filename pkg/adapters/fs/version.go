package fs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/birdtracker/birdtracker/pkg/core"
)

// BumpStrategy decides when Bump increments the patch number.
type BumpStrategy string

const (
	// BumpAlways increments the patch on every build run.
	BumpAlways BumpStrategy = "always"
	// BumpOnChange increments the patch only when the drawn count changes.
	BumpOnChange BumpStrategy = "on-change"
)

// ParseBumpStrategy validates a strategy name. Empty means BumpAlways.
func ParseBumpStrategy(s string) (BumpStrategy, error) {
	switch BumpStrategy(s) {
	case "", BumpAlways:
		return BumpAlways, nil
	case BumpOnChange:
		return BumpOnChange, nil
	}
	return "", fmt.Errorf("unknown bump strategy %q (want %q or %q)", s, BumpAlways, BumpOnChange)
}

// VersionStore implements core.VersionStore backed by a JSON file.
type VersionStore struct {
	Path     string
	Strategy BumpStrategy

	logger *slog.Logger
	now    func() time.Time
	mu     sync.Mutex
}

// VersionOption configures a VersionStore.
type VersionOption func(*VersionStore)

// WithBumpStrategy sets the bump strategy.
func WithBumpStrategy(strategy BumpStrategy) VersionOption {
	return func(s *VersionStore) {
		if strategy != "" {
			s.Strategy = strategy
		}
	}
}

// WithVersionClock overrides the time source for the updated timestamp.
func WithVersionClock(now func() time.Time) VersionOption {
	return func(s *VersionStore) {
		if now != nil {
			s.now = now
		}
	}
}

// WithVersionLogger sets the logger.
func WithVersionLogger(logger *slog.Logger) VersionOption {
	return func(s *VersionStore) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewVersionStore creates a store for the version file at path.
func NewVersionStore(path string, opts ...VersionOption) *VersionStore {
	s := &VersionStore{
		Path:     path,
		Strategy: BumpAlways,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load returns the stored version, creating and persisting the default
// record when the file does not exist.
func (s *VersionStore) Load(ctx context.Context) (core.Version, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(ctx)
}

func (s *VersionStore) load(ctx context.Context) (core.Version, error) {
	v, found, err := s.read(ctx)
	if err != nil || found {
		return v, err
	}
	v = core.DefaultVersion(s.now())
	if err := s.write(v); err != nil {
		return core.Version{}, err
	}
	s.logger.Info("created initial version file", "path", s.Path, "version", v.String())
	return v, nil
}

// Peek returns the stored version without creating the file. A missing file
// yields the default record.
func (s *VersionStore) Peek(ctx context.Context) (core.Version, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, found, err := s.read(ctx)
	if err != nil {
		return core.Version{}, err
	}
	if !found {
		return core.DefaultVersion(s.now()), nil
	}
	return v, nil
}

// Bump increments the patch number, records newCount and refreshes the
// timestamp. With BumpOnChange an unchanged count only refreshes the timestamp.
func (s *VersionStore) Bump(ctx context.Context, newCount int) (core.Version, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, err := s.load(ctx)
	if err != nil {
		return core.Version{}, err
	}

	if s.Strategy == BumpOnChange && v.Count == newCount {
		v.Updated = s.now().UTC()
		if err := s.write(v); err != nil {
			return core.Version{}, err
		}
		s.logger.Debug("version unchanged", "version", v.String())
		return v, nil
	}

	v.Patch++
	v.Count = newCount
	v.Updated = s.now().UTC()
	if err := s.write(v); err != nil {
		return core.Version{}, err
	}
	s.logger.Info("bumped version", "version", v.String())
	return v, nil
}

func (s *VersionStore) read(ctx context.Context) (core.Version, bool, error) {
	if err := ctx.Err(); err != nil {
		return core.Version{}, false, err
	}
	data, err := os.ReadFile(s.Path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return core.Version{}, false, nil
		}
		return core.Version{}, false, core.ConfigurationError("load version", s.Path, err)
	}
	var v core.Version
	if err := json.Unmarshal(data, &v); err != nil {
		return core.Version{}, false, core.ConfigurationError("parse version", s.Path, err)
	}
	return v, true, nil
}

func (s *VersionStore) write(v core.Version) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode version: %w", err)
	}
	data = append(data, '\n')
	if err := os.MkdirAll(filepath.Dir(s.Path), 0755); err != nil {
		return fmt.Errorf("failed to create version directory: %w", err)
	}
	return WriteFileAtomic(s.Path, data, 0644)
}

var _ core.VersionStore = (*VersionStore)(nil)
