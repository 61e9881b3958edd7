package fs

import (
	"bytes"
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

// CatalogStore implements core.CatalogStore backed by a JSON file.
type CatalogStore struct {
	Path   string
	logger *slog.Logger

	mu         sync.Mutex
	loads      int
	saves      int
	lastSaved  *time.Time
	lastMarked string
}

// NewCatalogStore creates a store for the catalog file at path.
func NewCatalogStore(path string, logger *slog.Logger) *CatalogStore {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &CatalogStore{Path: path, logger: logger}
}

// Load reads and validates the catalog. A missing or malformed file is a
// configuration error.
func (s *CatalogStore) Load(ctx context.Context) (core.Catalog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(ctx)
}

func (s *CatalogStore) load(ctx context.Context) (core.Catalog, error) {
	if err := ctx.Err(); err != nil {
		return core.Catalog{}, err
	}

	data, err := os.ReadFile(s.Path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return core.Catalog{}, core.ConfigurationError("load catalog", s.Path, core.ErrCatalogMissing)
		}
		return core.Catalog{}, core.ConfigurationError("load catalog", s.Path, err)
	}

	var catalog core.Catalog
	if err := json.Unmarshal(data, &catalog); err != nil {
		return core.Catalog{}, core.ConfigurationError("parse catalog", s.Path, err)
	}
	if err := catalog.Validate(); err != nil {
		return core.Catalog{}, core.ConfigurationError("validate catalog", s.Path, err)
	}

	s.loads++
	return catalog, nil
}

// Save writes the catalog as 2-space indented JSON with a trailing newline.
func (s *CatalogStore) Save(ctx context.Context, catalog core.Catalog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save(ctx, catalog)
}

func (s *CatalogStore) save(ctx context.Context, catalog core.Catalog) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := EncodeCatalog(catalog)
	if err != nil {
		return fmt.Errorf("failed to encode catalog: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.Path), 0755); err != nil {
		return fmt.Errorf("failed to create catalog directory: %w", err)
	}
	if err := WriteFileAtomic(s.Path, data, 0644); err != nil {
		return err
	}

	now := time.Now()
	s.lastSaved = &now
	s.saves++
	return nil
}

// MarkDrawn sets the drawn date of id and persists the catalog. It returns
// the bird name and true only when the date was newly set. An already
// drawn bird keeps its stored date.
func (s *CatalogStore) MarkDrawn(ctx context.Context, id, date string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	catalog, err := s.load(ctx)
	if err != nil {
		return "", false, err
	}

	bird := catalog.Find(id)
	if bird == nil {
		s.logger.Warn("bird id not found in catalog", "id", id, "path", s.Path)
		return "", false, nil
	}
	if bird.IsDrawn() {
		return "", false, nil
	}

	bird.Drawn = date
	if err := s.save(ctx, catalog); err != nil {
		return "", false, err
	}

	s.lastMarked = id
	s.logger.Debug("catalog updated", "id", id, "name", bird.Name)
	return bird.Name, true, nil
}

// DrawnIDs loads the catalog and returns its drawn ids.
func (s *CatalogStore) DrawnIDs(ctx context.Context) (core.IDSet, error) {
	catalog, err := s.Load(ctx)
	if err != nil {
		return nil, err
	}
	return catalog.DrawnIDs(), nil
}

// EncodeCatalog renders the catalog in its on-disk form.
func EncodeCatalog(catalog core.Catalog) ([]byte, error) {
	compact, err := catalog.MarshalJSON()
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, compact, "", "  "); err != nil {
		return nil, err
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

var _ core.CatalogStore = (*CatalogStore)(nil)
