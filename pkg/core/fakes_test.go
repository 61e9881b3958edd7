package core_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/birdtracker/birdtracker/pkg/core"
)

// memCatalog implements core.CatalogStore in memory.
type memCatalog struct {
	mu      sync.Mutex
	catalog core.Catalog
	saves   int
	missing bool
}

func newMemCatalog(categories ...core.Category) *memCatalog {
	return &memCatalog{catalog: core.Catalog{Categories: categories}}
}

func (m *memCatalog) Load(ctx context.Context) (core.Catalog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.missing {
		return core.Catalog{}, core.ConfigurationError("load catalog", "birds.json", core.ErrCatalogMissing)
	}
	return cloneCatalog(m.catalog), nil
}

func (m *memCatalog) save(c core.Catalog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.catalog = cloneCatalog(c)
	m.saves++
	return nil
}

func (m *memCatalog) MarkDrawn(ctx context.Context, id, date string) (string, bool, error) {
	c, err := m.Load(ctx)
	if err != nil {
		return "", false, err
	}
	b := c.Find(id)
	if b == nil || b.IsDrawn() {
		return "", false, nil
	}
	b.Drawn = date
	return b.Name, true, m.save(c)
}

func (m *memCatalog) drawnDate(id string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if b := m.catalog.Find(id); b != nil {
		return b.Drawn
	}
	return ""
}

func cloneCatalog(c core.Catalog) core.Catalog {
	out := core.Catalog{Categories: make([]core.Category, len(c.Categories))}
	for i, cat := range c.Categories {
		out.Categories[i] = core.Category{Name: cat.Name, Birds: append([]core.Bird(nil), cat.Birds...)}
	}
	return out
}

// memVersions implements core.VersionStore in memory.
type memVersions struct {
	version core.Version
	bumps   int
}

func (m *memVersions) Load(ctx context.Context) (core.Version, error) { return m.version, nil }
func (m *memVersions) Peek(ctx context.Context) (core.Version, error) { return m.version, nil }

func (m *memVersions) Bump(ctx context.Context, newCount int) (core.Version, error) {
	m.version.Patch++
	m.version.Count = newCount
	m.version.Updated = time.Now()
	m.bumps++
	return m.version, nil
}

// memDisk holds the asset sets and doubles as inventory and image processor.
type memDisk struct {
	mu    sync.Mutex
	raw   core.IDSet
	full  core.IDSet
	thumb core.IDSet
	fail  map[string]bool
	calls []string
}

func newMemDisk(raw ...string) *memDisk {
	return &memDisk{
		raw:   core.NewIDSet(raw...),
		full:  core.NewIDSet(),
		thumb: core.NewIDSet(),
		fail:  map[string]bool{},
	}
}

func (d *memDisk) Assets(ctx context.Context) (core.AssetSet, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	files := make(map[string]string, len(d.raw))
	for id := range d.raw {
		files[id] = id + ".png"
	}
	return core.AssetSet{
		Raw:      core.NewIDSet(d.raw.Sorted()...),
		Full:     core.NewIDSet(d.full.Sorted()...),
		Thumb:    core.NewIDSet(d.thumb.Sorted()...),
		RawFiles: files,
	}, nil
}

func (d *memDisk) ProcessNewImage(ctx context.Context, filename string) (core.ProcessResult, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	id := strings.TrimSuffix(filename, ".png")
	d.calls = append(d.calls, "process:"+id)
	if d.fail[id] {
		return core.ProcessResult{}, core.SourceImageError("read", filename, core.ErrNoDimensions)
	}
	d.full.Add(id)
	d.thumb.Add(id)
	return core.ProcessResult{Filename: filename, BaseName: id}, nil
}

func (d *memDisk) CreateThumbnail(ctx context.Context, id string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls = append(d.calls, "thumb:"+id)
	if !d.full.Has(id) {
		return errors.New("no full image")
	}
	d.thumb.Add(id)
	return nil
}

// memChangelog implements core.Changelog in memory.
type memChangelog struct {
	lines []string
}

func (m *memChangelog) Append(ctx context.Context, id, name, date string) error {
	m.lines = append(m.lines, fmt.Sprintf("- **Bird %s**: Added %s illustration (%s)", id, name, date))
	return nil
}
