// Package imaging turns raw PNG illustrations into squared WebP assets.
package imaging

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/png"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
	"golang.org/x/sync/errgroup"

	fsadapter "github.com/birdtracker/birdtracker/pkg/adapters/fs"
	"github.com/birdtracker/birdtracker/pkg/core"
)

// Defaults used when Config leaves a field zero.
const (
	DefaultThumbSize = 400
	DefaultQuality   = 90
	ext              = ".webp"
)

// Config holds the directories and encoding parameters.
type Config struct {
	RawDir    string
	FullDir   string
	ThumbDir  string
	ThumbSize int
	Quality   int
}

// Processor implements core.ImageProcessor.
type Processor struct {
	cfg    Config
	logger *slog.Logger
}

// NewProcessor creates a processor. Zero sizes fall back to the defaults.
func NewProcessor(cfg Config, logger *slog.Logger) *Processor {
	if cfg.ThumbSize <= 0 {
		cfg.ThumbSize = DefaultThumbSize
	}
	if cfg.Quality <= 0 || cfg.Quality > 100 {
		cfg.Quality = DefaultQuality
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Processor{cfg: cfg, logger: logger}
}

// ProcessNewImage squares the raw image and writes the full and thumbnail
// WebP files. Both encodes run concurrently and are awaited together.
func (p *Processor) ProcessNewImage(ctx context.Context, rawFilename string) (core.ProcessResult, error) {
	if err := ctx.Err(); err != nil {
		return core.ProcessResult{}, err
	}

	src := filepath.Join(p.cfg.RawDir, rawFilename)
	base := strings.TrimSuffix(rawFilename, filepath.Ext(rawFilename))
	result := core.ProcessResult{
		Filename:  rawFilename,
		BaseName:  base,
		FullPath:  filepath.Join(p.cfg.FullDir, base+ext),
		ThumbPath: filepath.Join(p.cfg.ThumbDir, base+ext),
	}

	if _, _, err := dimensions(src); err != nil {
		return core.ProcessResult{}, err
	}

	img, err := imaging.Open(src)
	if err != nil {
		return core.ProcessResult{}, core.SourceImageError("decode", src, err)
	}
	squared := Square(img)

	if err := p.ensureDirs(); err != nil {
		return core.ProcessResult{}, err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return p.encode(gctx, squared, result.FullPath)
	})
	g.Go(func() error {
		thumb := imaging.Resize(squared, p.cfg.ThumbSize, p.cfg.ThumbSize, imaging.Lanczos)
		return p.encode(gctx, thumb, result.ThumbPath)
	})
	if err := g.Wait(); err != nil {
		return core.ProcessResult{}, err
	}

	p.logger.Debug("processed image", "file", rawFilename, "full", result.FullPath, "thumb", result.ThumbPath)
	return result, nil
}

// CreateThumbnail rebuilds the thumbnail for id from its full WebP image.
func (p *Processor) CreateThumbnail(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	fullPath := filepath.Join(p.cfg.FullDir, id+ext)
	f, err := os.Open(fullPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return &core.Error{Kind: core.KindNotFound, Op: "open full image", Path: fullPath, Err: err}
		}
		return fmt.Errorf("failed to open %s: %w", fullPath, err)
	}
	defer f.Close()

	full, err := webp.Decode(f)
	if err != nil {
		return core.SourceImageError("decode", fullPath, err)
	}

	if err := os.MkdirAll(p.cfg.ThumbDir, 0755); err != nil {
		return fmt.Errorf("failed to create thumbnail directory: %w", err)
	}
	thumb := imaging.Resize(full, p.cfg.ThumbSize, p.cfg.ThumbSize, imaging.Lanczos)
	return p.encode(ctx, thumb, filepath.Join(p.cfg.ThumbDir, id+ext))
}

// ComponentType implements introspection.Component.
func (p *Processor) ComponentType() string {
	return "imaging"
}

func (p *Processor) ensureDirs() error {
	for _, dir := range []string{p.cfg.FullDir, p.cfg.ThumbDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}
	return nil
}

func (p *Processor) encode(ctx context.Context, img image.Image, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := webp.Encode(&buf, img, &webp.Options{Quality: float32(p.cfg.Quality)}); err != nil {
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}
	return fsadapter.WriteFileAtomic(path, buf.Bytes(), 0644)
}

// dimensions reads the image header only.
func dimensions(path string) (int, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, 0, core.SourceImageError("open", path, err)
	}
	defer f.Close()

	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return 0, 0, core.SourceImageError("read dimensions", path, fmt.Errorf("%w: %v", core.ErrNoDimensions, err))
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return 0, 0, core.SourceImageError("read dimensions", path, core.ErrNoDimensions)
	}
	return cfg.Width, cfg.Height, nil
}

// Padding returns the borders that center a w×h image in a square of side
// max(w, h). Odd remainders go to the bottom and right.
func Padding(w, h int) (top, right, bottom, left int) {
	side := max(w, h)
	left = (side - w) / 2
	top = (side - h) / 2
	right = side - w - left
	bottom = side - h - top
	return top, right, bottom, left
}

// Square pads img with opaque white to a centered square.
func Square(img image.Image) *image.NRGBA {
	size := img.Bounds().Size()
	top, _, _, left := Padding(size.X, size.Y)
	side := max(size.X, size.Y)

	canvas := imaging.New(side, side, color.White)
	return imaging.Paste(canvas, img, image.Pt(left, top))
}

var _ core.ImageProcessor = (*Processor)(nil)
