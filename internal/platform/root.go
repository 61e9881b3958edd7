package platform

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/birdtracker/birdtracker/pkg/config"
)

// ErrRootNotFound is returned when no project marker exists above the start directory.
var ErrRootNotFound = errors.New("project root not found")

// rootMarkers identify a project root, checked in order at each level.
var rootMarkers = []string{
	config.FileName,
	filepath.Join("public", "birds.json"),
	".git",
}

// FindRoot walks upwards from startDir looking for a project marker:
// birdtracker.yaml, public/birds.json or a .git directory.
func FindRoot(startDir string) (string, error) {
	abs, err := filepath.Abs(startDir)
	if err != nil {
		return "", err
	}

	dir := abs
	for {
		for _, marker := range rootMarkers {
			if hasFile(dir, marker) {
				return dir, nil
			}
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return "", ErrRootNotFound
}

func hasFile(dir, name string) bool {
	_, err := os.Stat(filepath.Join(dir, name))
	return err == nil
}
