package core_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/birdtracker/birdtracker/pkg/core"
)

type fixture struct {
	catalog   *memCatalog
	versions  *memVersions
	disk      *memDisk
	changelog *memChangelog
	service   *core.Service
}

var fixedNow = time.Date(2024, 5, 17, 10, 30, 0, 0, time.UTC)

func newFixture(t *testing.T, catalog *memCatalog, disk *memDisk) *fixture {
	t.Helper()
	f := &fixture{
		catalog:   catalog,
		versions:  &memVersions{version: core.DefaultVersion(fixedNow)},
		disk:      disk,
		changelog: &memChangelog{},
	}
	svc, err := core.NewService(core.Stores{
		Catalog:   f.catalog,
		Versions:  f.versions,
		Inventory: f.disk,
		Images:    f.disk,
		Changelog: f.changelog,
	}, core.WithClock(func() time.Time { return fixedNow }))
	require.NoError(t, err)
	f.service = svc
	return f
}

func raptors(drawn map[string]string) *memCatalog {
	birds := []core.Bird{
		{ID: "A", Name: "Peregrine Falcon", Sci: "Falco peregrinus"},
		{ID: "B", Name: "Common Kestrel", Sci: "Falco tinnunculus"},
		{ID: "C", Name: "Merlin", Sci: "Falco columbarius"},
	}
	for i := range birds {
		birds[i].Drawn = drawn[birds[i].ID]
	}
	return newMemCatalog(core.Category{Name: "Falcons", Birds: birds})
}

func TestNewService_RequiresStores(t *testing.T) {
	_, err := core.NewService(core.Stores{})
	assert.Error(t, err)
}

func TestBuild_DiscoversOnlyUndrawnImages(t *testing.T) {
	disk := newMemDisk("A", "B", "C")
	disk.full.Add("A")
	disk.thumb.Add("A")
	f := newFixture(t, raptors(map[string]string{"A": "2024-01-01"}), disk)

	result, err := f.service.Build(context.Background())
	require.NoError(t, err)

	var ids []string
	for _, p := range result.Processed {
		ids = append(ids, p.BaseName)
	}
	assert.Equal(t, []string{"B", "C"}, ids)
	assert.Equal(t, []string{"process:B", "process:C"}, disk.calls)
	assert.Equal(t, "Common Kestrel", result.Processed[0].Name)
	assert.Equal(t, "2024-05-17", f.catalog.drawnDate("B"))
	assert.Equal(t, "2024-01-01", f.catalog.drawnDate("A"))
	assert.Len(t, f.changelog.lines, 2)
	assert.Equal(t, "- **Bird B**: Added Common Kestrel illustration (2024-05-17)", f.changelog.lines[0])
	assert.Equal(t, 3, result.Version.Count)
	assert.True(t, result.Integrity.Passed())
	assert.False(t, result.Failed())
}

func TestBuild_IsIdempotent(t *testing.T) {
	f := newFixture(t, raptors(nil), newMemDisk("A", "B"))
	ctx := context.Background()

	first, err := f.service.Build(ctx)
	require.NoError(t, err)
	assert.Len(t, first.Processed, 2)

	second, err := f.service.Build(ctx)
	require.NoError(t, err)
	assert.Empty(t, second.Processed)
	assert.Equal(t, first.Version.Count, second.Version.Count)
	assert.Equal(t, 2, second.Counts.Drawn)
	assert.Len(t, f.changelog.lines, 2)
	assert.Equal(t, "2024-05-17", f.catalog.drawnDate("A"))
}

func TestBuild_IsolatesFailingImage(t *testing.T) {
	disk := newMemDisk("A", "B", "C")
	disk.fail["B"] = true
	f := newFixture(t, raptors(nil), disk)

	result, err := f.service.Build(context.Background())
	require.NoError(t, err)

	require.Len(t, result.Skipped, 1)
	assert.Equal(t, "B.png", result.Skipped[0].Filename)
	assert.Contains(t, result.Skipped[0].Reason, "dimensions")
	assert.Equal(t, "2024-05-17", f.catalog.drawnDate("A"))
	assert.Equal(t, "2024-05-17", f.catalog.drawnDate("C"))
	assert.Empty(t, f.catalog.drawnDate("B"))
	assert.Equal(t, 2, result.Version.Count)
	assert.Equal(t, []string{"B"}, result.Integrity.MissingInCatalog)
	assert.True(t, result.Failed())
}

func TestBuild_UnlistedImageIsReported(t *testing.T) {
	disk := newMemDisk("A", "Z")
	f := newFixture(t, raptors(nil), disk)
	ctx := context.Background()

	result, err := f.service.Build(ctx)
	require.NoError(t, err)

	assert.Equal(t, []string{"Z"}, result.Unlisted)
	assert.Len(t, result.Processed, 1)
	assert.Equal(t, []string{"process:A"}, disk.calls)
	assert.Equal(t, []string{"Z"}, result.Integrity.MissingInCatalog)
	assert.Empty(t, result.Integrity.OrphanedFull)
	assert.Empty(t, result.Integrity.OrphanedThumb)
	assert.True(t, result.Failed())

	again, err := f.service.Build(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Z"}, again.Unlisted)
	assert.Equal(t, []string{"process:A"}, disk.calls)
}

func TestBuild_RepairsDerivedAssets(t *testing.T) {
	disk := newMemDisk("A", "B")
	disk.full.Add("B")
	f := newFixture(t, raptors(map[string]string{"A": "2024-01-01", "B": "2024-01-02"}), disk)

	result, err := f.service.Build(context.Background())
	require.NoError(t, err)

	assert.Empty(t, result.Processed)
	assert.Equal(t, []core.Repair{{ID: "A", Asset: "full"}, {ID: "B", Asset: "thumb"}}, result.Repaired)
	assert.Equal(t, []string{"process:A", "thumb:B"}, disk.calls)
	assert.True(t, result.Integrity.Passed())
}

func TestBuild_RepairWithoutRawIsReported(t *testing.T) {
	f := newFixture(t, raptors(map[string]string{"C": "2024-01-03"}), newMemDisk())

	result, err := f.service.Build(context.Background())
	require.NoError(t, err)

	assert.Empty(t, result.Repaired)
	assert.Equal(t, []string{"C"}, result.Integrity.MissingRaw)
	assert.Equal(t, []string{"C"}, result.Integrity.MissingFull)
	assert.Equal(t, []string{"C"}, result.Integrity.MissingThumb)
	assert.Equal(t, "2024-01-03", f.catalog.drawnDate("C"))
}

func TestBuild_MissingCatalogIsFatal(t *testing.T) {
	catalog := newMemCatalog()
	catalog.missing = true
	f := newFixture(t, catalog, newMemDisk("A"))

	_, err := f.service.Build(context.Background())
	require.Error(t, err)
	assert.True(t, core.IsKind(err, core.KindConfiguration))
	assert.ErrorIs(t, err, core.ErrCatalogMissing)
	assert.Equal(t, 0, f.versions.bumps)
}

func TestBuild_BumpsOncePerRun(t *testing.T) {
	f := newFixture(t, raptors(nil), newMemDisk("A"))

	_, err := f.service.Build(context.Background())
	require.NoError(t, err)
	_, err = f.service.Build(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, f.versions.bumps)
	assert.Equal(t, 2, f.versions.version.Patch)
}

func TestBuild_StopsOnCancel(t *testing.T) {
	f := newFixture(t, raptors(nil), newMemDisk("A", "B"))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.service.Build(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, f.disk.calls)
}

func TestCheck_IsReadOnly(t *testing.T) {
	disk := newMemDisk("A", "B")
	disk.full.Add("A")
	f := newFixture(t, raptors(map[string]string{"A": "2024-01-01"}), disk)

	result, err := f.service.Check(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"B"}, result.Integrity.MissingInCatalog)
	assert.Equal(t, []string{"A"}, result.Integrity.MissingThumb)
	assert.Equal(t, core.Counts{Drawn: 1, Raw: 2, Full: 1, Thumb: 0}, result.Counts)
	assert.False(t, result.Synchronized())
	assert.Empty(t, disk.calls)
	assert.Equal(t, 0, f.catalog.saves)
	assert.Equal(t, 0, f.versions.bumps)
}

func TestService_State(t *testing.T) {
	f := newFixture(t, raptors(nil), newMemDisk("A"))

	state := f.service.State().(core.ServiceState)
	assert.Equal(t, 0, state.Runs)
	assert.Nil(t, state.LastRun)

	result, err := f.service.Build(context.Background())
	require.NoError(t, err)

	state = f.service.State().(core.ServiceState)
	assert.Equal(t, 1, state.Runs)
	require.NotNil(t, state.LastRun)
	assert.Equal(t, result.RunID, state.LastRun.RunID)
	assert.Equal(t, 1, state.LastRun.Processed)
	assert.Equal(t, "service", f.service.ComponentType())
}
