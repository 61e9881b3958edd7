package core

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Stores bundles the collaborators the Service orchestrates.
type Stores struct {
	Catalog   CatalogStore
	Versions  VersionStore
	Inventory Inventory
	Images    ImageProcessor
	Changelog Changelog
}

func (s Stores) validate() error {
	switch {
	case s.Catalog == nil:
		return errors.New("catalog store is required")
	case s.Versions == nil:
		return errors.New("version store is required")
	case s.Inventory == nil:
		return errors.New("inventory is required")
	case s.Images == nil:
		return errors.New("image processor is required")
	case s.Changelog == nil:
		return errors.New("changelog is required")
	}
	return nil
}

// Service runs the build pipeline and the integrity check.
type Service struct {
	stores Stores
	logger *slog.Logger
	now    func() time.Time

	mu      sync.RWMutex
	lastRun *runSummary
	runs    int
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithServiceLogger sets the logger used for progress and warnings.
func WithServiceLogger(logger *slog.Logger) ServiceOption {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithClock overrides the time source (used for drawn dates and durations).
func WithClock(now func() time.Time) ServiceOption {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// NewService creates a new Service.
func NewService(stores Stores, opts ...ServiceOption) (*Service, error) {
	if err := stores.validate(); err != nil {
		return nil, err
	}
	s := &Service{
		stores: stores,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Build runs the pipeline: discover raw images missing from the catalog,
// process them one at a time, repair derived assets of drawn birds, bump the
// version and re-check integrity. A failing image is recorded in Skipped and
// does not stop the batch; catalog and version persistence failures do.
func (s *Service) Build(ctx context.Context) (*BuildResult, error) {
	start := s.now()
	today := start.UTC().Format(DateLayout)
	result := &BuildResult{
		RunID:          uuid.NewString(),
		Processed:      []ProcessResult{},
		Skipped:        []Skipped{},
		Unlisted:       []string{},
		Repaired:       []Repair{},
		RepairFailures: []Repair{},
	}
	log := s.logger.With("run_id", result.RunID)

	catalog, err := s.stores.Catalog.Load(ctx)
	if err != nil {
		return nil, err
	}
	drawn := catalog.DrawnIDs()
	initialDrawn := drawn.Len()

	assets, err := s.stores.Inventory.Assets(ctx)
	if err != nil {
		return nil, err
	}

	pending := assets.Raw.Minus(drawn)
	log.Info("build started", "drawn", initialDrawn, "raw", assets.Raw.Len(), "new", len(pending))

	for _, id := range pending {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		if catalog.Find(id) == nil {
			log.Warn("raw image has no catalog entry", "id", id)
			result.Unlisted = append(result.Unlisted, id)
			continue
		}

		filename := assets.RawFilename(id)
		processed, err := s.stores.Images.ProcessNewImage(ctx, filename)
		if err != nil {
			log.Error("failed to process image", "file", filename, "error", err)
			result.Skipped = append(result.Skipped, Skipped{Filename: filename, Reason: err.Error()})
			continue
		}

		name, marked, err := s.stores.Catalog.MarkDrawn(ctx, id, today)
		if err != nil {
			return nil, err
		}
		if !marked {
			result.Unlisted = append(result.Unlisted, id)
			continue
		}

		if err := s.stores.Changelog.Append(ctx, id, name, today); err != nil {
			return nil, err
		}

		drawn.Add(id)
		processed.Name = name
		result.Processed = append(result.Processed, processed)
		log.Info("added illustration", "id", id, "name", name)
	}

	if err := s.repair(ctx, log, drawn, result); err != nil {
		return nil, err
	}

	version, err := s.stores.Versions.Bump(ctx, initialDrawn+len(result.Processed))
	if err != nil {
		return nil, err
	}
	result.Version = version

	final, err := s.stores.Inventory.Assets(ctx)
	if err != nil {
		return nil, err
	}
	result.Integrity = CheckIntegrity(drawn, final)
	result.Counts = CountsOf(drawn, final)
	result.Duration = s.now().Sub(start)

	if result.Integrity.Passed() {
		log.Info("build finished", "version", version.String(), "processed", len(result.Processed))
	} else {
		log.Warn("build finished with integrity issues",
			"version", version.String(),
			"processed", len(result.Processed),
			"issues", result.Integrity.IssueCount(),
		)
	}

	s.record(result)
	return result, nil
}

// repair regenerates derived assets for drawn birds. A missing full image is
// rebuilt from the raw file; a missing thumbnail alone is rebuilt from the full image.
func (s *Service) repair(ctx context.Context, log *slog.Logger, drawn IDSet, result *BuildResult) error {
	assets, err := s.stores.Inventory.Assets(ctx)
	if err != nil {
		return err
	}

	rebuilt := NewIDSet()
	for _, id := range drawn.Minus(assets.Full) {
		if err := ctx.Err(); err != nil {
			return err
		}
		if !assets.Raw.Has(id) {
			continue
		}
		if _, err := s.stores.Images.ProcessNewImage(ctx, assets.RawFilename(id)); err != nil {
			log.Error("failed to rebuild full image", "id", id, "error", err)
			result.RepairFailures = append(result.RepairFailures, Repair{ID: id, Asset: "full", Reason: err.Error()})
			continue
		}
		rebuilt.Add(id)
		result.Repaired = append(result.Repaired, Repair{ID: id, Asset: "full"})
	}

	for _, id := range drawn.Minus(assets.Thumb) {
		if err := ctx.Err(); err != nil {
			return err
		}
		if rebuilt.Has(id) || !assets.Full.Has(id) {
			continue
		}
		if err := s.stores.Images.CreateThumbnail(ctx, id); err != nil {
			log.Error("failed to rebuild thumbnail", "id", id, "error", err)
			result.RepairFailures = append(result.RepairFailures, Repair{ID: id, Asset: "thumb", Reason: err.Error()})
			continue
		}
		result.Repaired = append(result.Repaired, Repair{ID: id, Asset: "thumb"})
	}

	return nil
}

// Check reports the integrity of the catalog against the assets on disk
// without modifying anything.
func (s *Service) Check(ctx context.Context) (*CheckResult, error) {
	catalog, err := s.stores.Catalog.Load(ctx)
	if err != nil {
		return nil, err
	}
	version, err := s.stores.Versions.Peek(ctx)
	if err != nil {
		return nil, err
	}
	assets, err := s.stores.Inventory.Assets(ctx)
	if err != nil {
		return nil, err
	}

	drawn := catalog.DrawnIDs()
	return &CheckResult{
		Version:   version,
		Counts:    CountsOf(drawn, assets),
		Integrity: CheckIntegrity(drawn, assets),
	}, nil
}
