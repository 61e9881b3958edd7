package fs

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/birdtracker/birdtracker/pkg/core"
)

// ChangelogHeader is written when the changelog file does not exist yet.
const ChangelogHeader = "# Changelog\n\n"

// Changelog implements core.Changelog as an append-only markdown file.
type Changelog struct {
	Path string
	mu   sync.Mutex
}

// NewChangelog creates a changelog writer for path.
func NewChangelog(path string) *Changelog {
	return &Changelog{Path: path}
}

// Entry formats one changelog line.
func Entry(id, name, date string) string {
	return fmt.Sprintf("- **Bird %s**: Added %s illustration (%s)\n", id, name, date)
}

// Append adds a line for a newly drawn bird.
func (c *Changelog) Append(ctx context.Context, id, name, date string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	line := Entry(id, name, date)
	if _, err := os.Stat(c.Path); errors.Is(err, fs.ErrNotExist) {
		if err := os.MkdirAll(filepath.Dir(c.Path), 0755); err != nil {
			return fmt.Errorf("failed to create changelog directory: %w", err)
		}
		line = ChangelogHeader + line
	}

	f, err := os.OpenFile(c.Path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open changelog: %w", err)
	}
	defer f.Close()

	if _, err := f.WriteString(line); err != nil {
		return fmt.Errorf("failed to append changelog: %w", err)
	}
	return nil
}

var _ core.Changelog = (*Changelog)(nil)
