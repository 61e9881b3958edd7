package core

import "context"

// CatalogStore persists the bird catalog. Adhering to this interface keeps the
// orchestrator independent of the JSON file layout and lets tests use fakes.
type CatalogStore interface {
	// Load reads and validates the catalog. A missing catalog is a configuration error.
	Load(ctx context.Context) (Catalog, error)

	// MarkDrawn sets the drawn date of id if it is unset and persists the catalog.
	// It returns the display name and true only when the entry was changed.
	// Already drawn and unknown ids return false without error.
	MarkDrawn(ctx context.Context, id, date string) (string, bool, error)
}

// VersionStore persists the build counter.
type VersionStore interface {
	// Load returns the stored record, creating the default on first run.
	Load(ctx context.Context) (Version, error)

	// Peek returns the stored record, or the default without persisting it.
	Peek(ctx context.Context) (Version, error)

	// Bump advances the record for a finished build and persists it.
	Bump(ctx context.Context, newCount int) (Version, error)
}

// Inventory lists the assets currently on disk.
type Inventory interface {
	Assets(ctx context.Context) (AssetSet, error)
}

// ImageProcessor derives the full and thumbnail images for a raw file.
type ImageProcessor interface {
	// ProcessNewImage writes both derived images for rawFilename.
	ProcessNewImage(ctx context.Context, rawFilename string) (ProcessResult, error)

	// CreateThumbnail regenerates the thumbnail for id from its full image.
	CreateThumbnail(ctx context.Context, id string) error
}

// Changelog records newly illustrated birds.
type Changelog interface {
	Append(ctx context.Context, id, name, date string) error
}
