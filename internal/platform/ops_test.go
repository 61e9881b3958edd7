package platform_test

import (
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofrs/flock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/birdtracker/birdtracker/internal/platform"
	"github.com/birdtracker/birdtracker/pkg/config"
	"github.com/birdtracker/birdtracker/pkg/core"
	"github.com/birdtracker/birdtracker/pkg/git"
)

const catalogJSON = `{
  "Owls": [
    {"id": "001", "name": "Barn Owl", "sci": "Tyto alba"},
    {"id": "002", "name": "Snowy Owl", "sci": "Bubo scandiacus"}
  ],
  "Falcons": [
    {"id": "003", "name": "Merlin", "sci": "Falco columbarius"}
  ]
}
`

var testNow = time.Date(2024, 5, 17, 9, 0, 0, 0, time.UTC)

func writePNG(t *testing.T, path string, w, h int) {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.NRGBA{R: 120, G: 80, B: 40, A: 255})
		}
	}
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
}

func setupProject(t *testing.T, opts ...platform.Option) *platform.Project {
	t.Helper()
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "public"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "public", "birds.json"), []byte(catalogJSON), 0644))
	writePNG(t, filepath.Join(root, "raw_png", "001.png"), 40, 20)
	writePNG(t, filepath.Join(root, "raw_png", "002.png"), 20, 40)

	cfg := config.Default()
	cfg.Images.ThumbSize = 16
	base := []platform.Option{
		platform.WithConfig(cfg),
		platform.WithClock(func() time.Time { return testNow }),
	}
	p, err := platform.New(root, append(base, opts...)...)
	require.NoError(t, err)
	return p
}

func TestProject_BuildAndCheck(t *testing.T) {
	ctx := context.Background()
	p := setupProject(t)

	result, err := p.Build(ctx)
	require.NoError(t, err)

	require.Len(t, result.Processed, 2)
	assert.Equal(t, "Barn Owl", result.Processed[0].Name)
	assert.Equal(t, "0.7.1+2", result.Version.String())
	assert.True(t, result.Integrity.Passed())
	assert.False(t, result.Failed())
	assert.FileExists(t, filepath.Join(p.Root, "public", "full", "001.webp"))
	assert.FileExists(t, filepath.Join(p.Root, "public", "thumb", "002.webp"))

	changelog, err := os.ReadFile(filepath.Join(p.Root, "CHANGELOG.md"))
	require.NoError(t, err)
	assert.Contains(t, string(changelog), "- **Bird 001**: Added Barn Owl illustration (2024-05-17)\n")

	check, err := p.Check(ctx)
	require.NoError(t, err)
	assert.True(t, check.Synchronized())
	assert.Equal(t, core.Counts{Drawn: 2, Raw: 2, Full: 2, Thumb: 2}, check.Counts)

	again, err := p.Build(ctx)
	require.NoError(t, err)
	assert.Empty(t, again.Processed)
	assert.Equal(t, "0.7.2+2", again.Version.String())
}

func TestProject_BuildSkipsCorruptImage(t *testing.T) {
	ctx := context.Background()
	p := setupProject(t)
	require.NoError(t, os.WriteFile(filepath.Join(p.Root, "raw_png", "003.png"), []byte("garbage"), 0644))

	result, err := p.Build(ctx)
	require.NoError(t, err)

	assert.Len(t, result.Processed, 2)
	require.Len(t, result.Skipped, 1)
	assert.Equal(t, "003.png", result.Skipped[0].Filename)
	assert.Equal(t, []string{"003"}, result.Integrity.MissingInCatalog)
	assert.True(t, result.Failed())

	catalog, err := p.Catalog.Load(ctx)
	require.NoError(t, err)
	assert.False(t, catalog.Find("003").IsDrawn())
}

func TestProject_BuildRepairsThumbnail(t *testing.T) {
	ctx := context.Background()
	p := setupProject(t)

	_, err := p.Build(ctx)
	require.NoError(t, err)
	require.NoError(t, os.Remove(filepath.Join(p.Root, "public", "thumb", "001.webp")))

	result, err := p.Build(ctx)
	require.NoError(t, err)
	assert.Equal(t, []core.Repair{{ID: "001", Asset: "thumb"}}, result.Repaired)
	assert.FileExists(t, filepath.Join(p.Root, "public", "thumb", "001.webp"))
	assert.True(t, result.Integrity.Passed())
}

func TestProject_CheckDoesNotWrite(t *testing.T) {
	p := setupProject(t)

	result, err := p.Check(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"001", "002"}, result.Integrity.MissingInCatalog)
	assert.Equal(t, "0.7.0+0", result.Version.String())
	assert.NoFileExists(t, filepath.Join(p.Root, "src", "version.json"))
	assert.NoDirExists(t, filepath.Join(p.Root, "public", "full"))
}

func TestProject_BuildRespectsLock(t *testing.T) {
	p := setupProject(t, platform.WithLockTimeout(0))

	held := flock.New(filepath.Join(p.Root, platform.LockFileName))
	ok, err := held.TryLock()
	require.NoError(t, err)
	require.True(t, ok)

	_, err = p.Build(context.Background())
	assert.ErrorIs(t, err, platform.ErrLocked)

	require.NoError(t, held.Unlock())
	_, err = p.Build(context.Background())
	assert.NoError(t, err)
}

func TestProject_MissingCatalog(t *testing.T) {
	p, err := platform.New(t.TempDir(), platform.WithConfig(config.Default()))
	require.NoError(t, err)

	_, err = p.Build(context.Background())
	require.Error(t, err)
	assert.True(t, core.IsKind(err, core.KindConfiguration))
}

func TestProject_Ship(t *testing.T) {
	if !git.IsInstalled() {
		t.Skip("git not installed")
	}
	ctx := context.Background()
	p := setupProject(t)

	client := git.NewClient(p.Root, nil)
	require.NoError(t, client.Init(ctx))
	_, err := client.Run(ctx, "config", "user.email", "tracker@example.com")
	require.NoError(t, err)
	_, err = client.Run(ctx, "config", "user.name", "Tracker")
	require.NoError(t, err)

	result, err := p.Ship(ctx)
	require.NoError(t, err)
	assert.True(t, result.Committed)
	assert.True(t, strings.HasPrefix(result.Message, "feat(birds): add Barn Owl, Snowy Owl"))

	subject, err := client.Run(ctx, "log", "-1", "--format=%s")
	require.NoError(t, err)
	assert.Equal(t, "feat(birds): add Barn Owl, Snowy Owl", subject)

	files, err := client.Run(ctx, "show", "--name-only", "--format=", "HEAD")
	require.NoError(t, err)
	assert.Contains(t, files, "public/birds.json")
	assert.Contains(t, files, "public/full/001.webp")
	assert.Contains(t, files, "src/version.json")
	assert.NotContains(t, files, "raw_png/001.png")
}

func TestProject_ShipRequiresRepo(t *testing.T) {
	if !git.IsInstalled() {
		t.Skip("git not installed")
	}
	p := setupProject(t)
	client := git.NewClient(p.Root, nil)
	if client.IsRepo(context.Background()) {
		t.Skip("temp dir is inside a git work tree")
	}

	_, err := p.Ship(context.Background())
	assert.ErrorIs(t, err, git.ErrNotRepo)
}

func TestProject_Watch(t *testing.T) {
	p := setupProject(t)
	p.Config.Watch.Debounce = 50 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var (
		mu      sync.Mutex
		results []*core.BuildResult
	)
	hook := func(r *core.BuildResult, err error) {
		if err != nil {
			return
		}
		mu.Lock()
		results = append(results, r)
		mu.Unlock()
	}
	count := func() int {
		mu.Lock()
		defer mu.Unlock()
		return len(results)
	}

	done := make(chan error, 1)
	go func() { done <- p.Watch(ctx, hook) }()

	require.Eventually(t, func() bool { return count() == 1 }, 5*time.Second, 10*time.Millisecond)
	time.Sleep(300 * time.Millisecond)
	writePNG(t, filepath.Join(p.Root, "raw_png", "003.png"), 30, 30)

	require.Eventually(t, func() bool { return count() >= 2 }, 5*time.Second, 20*time.Millisecond)
	mu.Lock()
	last := results[len(results)-1]
	mu.Unlock()
	assert.Equal(t, 3, last.Counts.Drawn)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not stop")
	}
}

func TestProject_State(t *testing.T) {
	p := setupProject(t)
	_, err := p.Build(context.Background())
	require.NoError(t, err)

	state := p.State()
	assert.Equal(t, p.Root, state.Root)
	svc, ok := state.Service.(core.ServiceState)
	require.True(t, ok)
	assert.Equal(t, 1, svc.Runs)
	assert.Equal(t, []string{"catalog", "version", "inventory", "imaging", "changelog"}, svc.Stores)
}
