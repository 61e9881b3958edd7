package fs

import (
	"time"

	"github.com/aretw0/introspection"
)

// CatalogState exposes internal state for observability.
type CatalogState struct {
	Path       string     `json:"path"`
	Loads      int        `json:"loads"`
	Saves      int        `json:"saves"`
	LastSaved  *time.Time `json:"last_saved,omitempty"`
	LastMarked string     `json:"last_marked,omitempty"`
}

// State implements introspection.Introspectable.
func (s *CatalogStore) State() any {
	s.mu.Lock()
	defer s.mu.Unlock()

	var saved *time.Time
	if s.lastSaved != nil {
		t := *s.lastSaved
		saved = &t
	}
	return CatalogState{
		Path:       s.Path,
		Loads:      s.loads,
		Saves:      s.saves,
		LastSaved:  saved,
		LastMarked: s.lastMarked,
	}
}

// ComponentType implements introspection.Component.
func (s *CatalogStore) ComponentType() string {
	return "catalog"
}

// VersionState exposes internal state for observability.
type VersionState struct {
	Path     string       `json:"path"`
	Strategy BumpStrategy `json:"strategy"`
}

// State implements introspection.Introspectable.
func (s *VersionStore) State() any {
	return VersionState{Path: s.Path, Strategy: s.Strategy}
}

// ComponentType implements introspection.Component.
func (s *VersionStore) ComponentType() string { return "version" }

// ComponentType implements introspection.Component.
func (i *Inventory) ComponentType() string { return "inventory" }

// ComponentType implements introspection.Component.
func (c *Changelog) ComponentType() string { return "changelog" }

var (
	_ introspection.Introspectable = (*CatalogStore)(nil)
	_ introspection.Component      = (*CatalogStore)(nil)
	_ introspection.Introspectable = (*VersionStore)(nil)
	_ introspection.Component      = (*VersionStore)(nil)
	_ introspection.Component      = (*Inventory)(nil)
	_ introspection.Component      = (*Changelog)(nil)
	_ introspection.Component      = (*WatchWorker)(nil)
)
