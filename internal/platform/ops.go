package platform

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/aretw0/lifecycle/pkg/core/supervisor"
	"github.com/aretw0/lifecycle/pkg/core/worker"

	"github.com/birdtracker/birdtracker/pkg/adapters/fs"
	"github.com/birdtracker/birdtracker/pkg/core"
	"github.com/birdtracker/birdtracker/pkg/git"
)

// Build runs the pipeline while holding the project lock.
func (p *Project) Build(ctx context.Context) (*core.BuildResult, error) {
	unlock, err := acquireLock(ctx, p.Root, p.lockTimeout)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := unlock(); err != nil {
			p.logger.Warn("failed to release lock", "error", err)
		}
	}()

	return p.Service.Build(ctx)
}

// Check reports catalog/asset integrity. It takes no lock and writes nothing.
func (p *Project) Check(ctx context.Context) (*core.CheckResult, error) {
	return p.Service.Check(ctx)
}

// ShipResult describes a ship run.
type ShipResult struct {
	Build     *core.BuildResult `json:"build"`
	Committed bool              `json:"committed"`
	Message   string            `json:"message,omitempty"`
}

// Ship builds and commits the catalog, version, changelog and derived
// assets. Nothing is committed when the build produced no changes.
func (p *Project) Ship(ctx context.Context) (*ShipResult, error) {
	if !git.IsInstalled() {
		return nil, errors.New("git is not installed")
	}
	client := git.NewClient(p.Root, p.logger)
	if !client.IsRepo(ctx) {
		return nil, fmt.Errorf("%s: %w", p.Root, git.ErrNotRepo)
	}

	unlock, err := acquireLock(ctx, p.Root, p.lockTimeout)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := unlock(); err != nil {
			p.logger.Warn("failed to release lock", "error", err)
		}
	}()

	result, err := p.Service.Build(ctx)
	if err != nil {
		return nil, err
	}
	ship := &ShipResult{Build: result}

	if err := client.Add(ctx, p.shipPaths()...); err != nil {
		return nil, err
	}
	staged, err := client.HasStagedChanges(ctx)
	if err != nil {
		return nil, err
	}
	if !staged {
		p.logger.Info("nothing to ship")
		return ship, nil
	}

	ship.Message = git.ShipMessage(result.Processed, result.Version)
	if err := client.Commit(ctx, ship.Message); err != nil {
		return nil, err
	}
	ship.Committed = true
	p.logger.Info("shipped", "version", result.Version.String(), "added", len(result.Processed))
	return ship, nil
}

// shipPaths lists the existing outputs relative to the root.
func (p *Project) shipPaths() []string {
	candidates := []string{
		p.Config.Paths.Catalog,
		p.Config.Paths.Version,
		p.Config.Paths.Changelog,
		p.Config.Paths.Full,
		p.Config.Paths.Thumb,
	}
	paths := make([]string, 0, len(candidates))
	for _, c := range candidates {
		if _, err := os.Stat(c); err != nil {
			continue
		}
		if rel, err := filepath.Rel(p.Root, c); err == nil {
			c = rel
		}
		paths = append(paths, c)
	}
	return paths
}

// WatchHook receives every build result produced by Watch.
type WatchHook func(*core.BuildResult, error)

// Watch runs one build, then rebuilds whenever raw images change until ctx
// ends. The watcher runs under a supervisor that restarts it on failure.
func (p *Project) Watch(ctx context.Context, hook WatchHook) error {
	rebuild := func(ctx context.Context) error {
		result, err := p.Build(ctx)
		if hook != nil {
			hook(result, err)
		}
		return err
	}

	if err := rebuild(ctx); err != nil && core.IsKind(err, core.KindConfiguration) {
		return err
	}

	if err := os.MkdirAll(p.Config.Paths.Raw, 0755); err != nil {
		return fmt.Errorf("failed to create raw directory: %w", err)
	}

	spec := supervisor.Spec{
		Name: "raw-watcher",
		Type: string(worker.TypeGoroutine),
		Factory: func() (worker.Worker, error) {
			return fs.NewWatchWorker(p.Config.Paths.Raw, rebuild,
				fs.WithDebounce(p.Config.Watch.Debounce),
				fs.WithWatchLogger(p.logger),
			), nil
		},
		Backoff: supervisor.Backoff{
			InitialInterval: 100 * time.Millisecond,
			MaxInterval:     5 * time.Second,
			Multiplier:      2,
			ResetDuration:   time.Minute,
			MaxRestarts:     5,
			MaxDuration:     10 * time.Minute,
		},
		RestartPolicy: supervisor.RestartOnFailure,
	}

	sup := supervisor.New("watch", supervisor.StrategyOneForOne, spec)
	if err := sup.Start(ctx); err != nil {
		return fmt.Errorf("failed to start watcher: %w", err)
	}

	<-ctx.Done()

	stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return sup.Stop(stopCtx)
}

// ProjectState is the snapshot printed by the state command.
type ProjectState struct {
	Root    string `json:"root"`
	Service any    `json:"service"`
	Catalog any    `json:"catalog"`
	Version any    `json:"version"`
}

// State collects the introspection state of the project components.
func (p *Project) State() ProjectState {
	return ProjectState{
		Root:    p.Root,
		Service: p.Service.State(),
		Catalog: p.Catalog.State(),
		Version: p.Versions.State(),
	}
}
