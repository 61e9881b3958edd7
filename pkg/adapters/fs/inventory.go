package fs

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/birdtracker/birdtracker/pkg/core"
)

// Default glob patterns for each asset directory.
const (
	RawPattern  = "*.png"
	WebPPattern = "*.webp"
)

// ListFiles returns the names of regular files in dir matching the glob
// pattern, sorted ascending. Matching ignores case. A missing directory
// yields an empty list.
func ListFiles(dir, pattern string) ([]string, error) {
	if !doublestar.ValidatePattern(pattern) {
		return nil, fmt.Errorf("invalid pattern %q: %w", pattern, doublestar.ErrBadPattern)
	}
	lowered := strings.ToLower(pattern)

	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to list %s: %w", dir, err)
	}

	files := []string{}
	for _, entry := range entries {
		if !entry.Type().IsRegular() || isTempFile(entry.Name()) {
			continue
		}
		ok, err := doublestar.Match(lowered, strings.ToLower(entry.Name()))
		if err != nil {
			return nil, err
		}
		if ok {
			files = append(files, entry.Name())
		}
	}
	sort.Strings(files)
	return files, nil
}

// IDs lists dir like ListFiles and strips the extension from each name.
// The returned map goes from id to the raw filename it came from.
func IDs(dir, pattern string) (core.IDSet, map[string]string, error) {
	files, err := ListFiles(dir, pattern)
	if err != nil {
		return nil, nil, err
	}
	ids := core.NewIDSet()
	names := make(map[string]string, len(files))
	for _, name := range files {
		id := strings.TrimSuffix(name, filepath.Ext(name))
		ids.Add(id)
		names[id] = name
	}
	return ids, names, nil
}

// Inventory implements core.Inventory over the three asset directories.
type Inventory struct {
	RawDir     string
	FullDir    string
	ThumbDir   string
	RawPattern string
}

// NewInventory creates an inventory with the default raw pattern.
func NewInventory(rawDir, fullDir, thumbDir string) *Inventory {
	return &Inventory{
		RawDir:     rawDir,
		FullDir:    fullDir,
		ThumbDir:   thumbDir,
		RawPattern: RawPattern,
	}
}

// Assets lists the three directories. Nothing is cached between calls.
func (i *Inventory) Assets(ctx context.Context) (core.AssetSet, error) {
	if err := ctx.Err(); err != nil {
		return core.AssetSet{}, err
	}

	pattern := i.RawPattern
	if pattern == "" {
		pattern = RawPattern
	}

	raw, rawFiles, err := IDs(i.RawDir, pattern)
	if err != nil {
		return core.AssetSet{}, err
	}
	full, _, err := IDs(i.FullDir, WebPPattern)
	if err != nil {
		return core.AssetSet{}, err
	}
	thumb, _, err := IDs(i.ThumbDir, WebPPattern)
	if err != nil {
		return core.AssetSet{}, err
	}

	return core.AssetSet{Raw: raw, Full: full, Thumb: thumb, RawFiles: rawFiles}, nil
}

var _ core.Inventory = (*Inventory)(nil)
