package platform

import (
	"io"
	"log/slog"
	"time"

	"github.com/birdtracker/birdtracker/pkg/adapters/fs"
	"github.com/birdtracker/birdtracker/pkg/config"
	"github.com/birdtracker/birdtracker/pkg/core"
	"github.com/birdtracker/birdtracker/pkg/imaging"
)

// Project is a fully wired birdtracker working tree.
type Project struct {
	Root    string
	Config  config.Config
	Service *core.Service

	Catalog   *fs.CatalogStore
	Versions  *fs.VersionStore
	Inventory *fs.Inventory
	Changelog *fs.Changelog
	Images    core.ImageProcessor

	logger      *slog.Logger
	now         func() time.Time
	lockTimeout time.Duration
}

// New wires the stores and the service for the project at root.
//
//	p, err := platform.New(".", platform.WithLogger(logger))
func New(root string, opts ...Option) (*Project, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}

	logger := o.logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	var cfg config.Config
	if o.config != nil {
		if err := o.config.Validate(); err != nil {
			return nil, err
		}
		cfg = o.config.Resolve(root)
	} else {
		loaded, err := config.Load(root)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	strategy, err := fs.ParseBumpStrategy(cfg.Version.Bump)
	if err != nil {
		return nil, err
	}

	p := &Project{
		Root:        root,
		Config:      cfg,
		Catalog:     fs.NewCatalogStore(cfg.Paths.Catalog, logger),
		Versions:    fs.NewVersionStore(cfg.Paths.Version, fs.WithBumpStrategy(strategy), fs.WithVersionClock(o.now), fs.WithVersionLogger(logger)),
		Inventory:   fs.NewInventory(cfg.Paths.Raw, cfg.Paths.Full, cfg.Paths.Thumb),
		Changelog:   fs.NewChangelog(cfg.Paths.Changelog),
		Images:      o.images,
		logger:      logger,
		now:         o.now,
		lockTimeout: o.lockTimeout,
	}
	if p.Images == nil {
		p.Images = imaging.NewProcessor(imaging.Config{
			RawDir:    cfg.Paths.Raw,
			FullDir:   cfg.Paths.Full,
			ThumbDir:  cfg.Paths.Thumb,
			ThumbSize: cfg.Images.ThumbSize,
			Quality:   cfg.Images.Quality,
		}, logger)
	}

	p.Service, err = core.NewService(core.Stores{
		Catalog:   p.Catalog,
		Versions:  p.Versions,
		Inventory: p.Inventory,
		Images:    p.Images,
		Changelog: p.Changelog,
	}, core.WithServiceLogger(logger), core.WithClock(o.now))
	if err != nil {
		return nil, err
	}

	return p, nil
}
