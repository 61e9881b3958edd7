package core

import (
	"time"

	"github.com/aretw0/introspection"
)

type runSummary struct {
	RunID     string    `json:"run_id"`
	At        time.Time `json:"at"`
	Version   string    `json:"version"`
	Processed int       `json:"processed"`
	Skipped   int       `json:"skipped"`
	Passed    bool      `json:"passed"`
}

// ServiceState exposes internal state for observability.
type ServiceState struct {
	Runs    int         `json:"runs"`
	LastRun *runSummary `json:"last_run,omitempty"`
	Stores  []string    `json:"stores"`
}

func (s *Service) record(result *BuildResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs++
	s.lastRun = &runSummary{
		RunID:     result.RunID,
		At:        s.now(),
		Version:   result.Version.String(),
		Processed: len(result.Processed),
		Skipped:   len(result.Skipped),
		Passed:    result.Integrity.Passed(),
	}
}

// State implements introspection.Introspectable.
func (s *Service) State() any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var last *runSummary
	if s.lastRun != nil {
		cp := *s.lastRun
		last = &cp
	}

	return ServiceState{
		Runs:    s.runs,
		LastRun: last,
		Stores: []string{
			componentType(s.stores.Catalog),
			componentType(s.stores.Versions),
			componentType(s.stores.Inventory),
			componentType(s.stores.Images),
			componentType(s.stores.Changelog),
		},
	}
}

// ComponentType implements introspection.Component.
func (s *Service) ComponentType() string {
	return "service"
}

func componentType(v any) string {
	if comp, ok := v.(introspection.Component); ok {
		return comp.ComponentType()
	}
	return "unknown"
}

var _ introspection.Introspectable = (*Service)(nil)
var _ introspection.Component = (*Service)(nil)
