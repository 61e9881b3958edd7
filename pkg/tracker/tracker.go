// Package tracker parses the plain-text sighting list (birds.txt).
//
// The format is a sequence of family headers, each followed by numbered
// species lines:
//
//	Falcons
//	1	Peregrine Falcon,2023-06-01
//	2	Merlin
//
// A species line carries an optional sighting date after a comma.
package tracker

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var speciesLine = regexp.MustCompile(`^(\d+)\s+([^,]+)(?:,(\d{4}-\d{2}-\d{2}))?`)

// Species is one numbered entry under a family.
type Species struct {
	Index       int    `json:"index"`
	Name        string `json:"name"`
	Spotted     bool   `json:"spotted"`
	SpottedDate string `json:"spottedDate,omitempty"`
}

// Family groups species under a header line.
type Family struct {
	Family  string    `json:"family"`
	Species []Species `json:"species"`
}

// Parse reads the tracker text. Species lines that appear before any
// header are dropped. A non-species line starts a new family only when
// there is none yet or the current one already has species; otherwise it
// is skipped as malformed.
func Parse(text string) []Family {
	families := []Family{}
	current := -1

	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}

		if m := speciesLine.FindStringSubmatch(trimmed); m != nil {
			if current < 0 {
				continue
			}
			index, err := strconv.Atoi(m[1])
			if err != nil {
				continue
			}
			families[current].Species = append(families[current].Species, Species{
				Index:       index,
				Name:        strings.TrimSpace(m[2]),
				Spotted:     m[3] != "",
				SpottedDate: m[3],
			})
			continue
		}

		if current < 0 || len(families[current].Species) > 0 {
			families = append(families, Family{Family: trimmed, Species: []Species{}})
			current = len(families) - 1
		}
	}
	return families
}

// Total counts every species across families.
func Total(families []Family) int {
	n := 0
	for _, f := range families {
		n += len(f.Species)
	}
	return n
}

// Spotted counts species with a sighting date.
func Spotted(families []Family) int {
	n := 0
	for _, f := range families {
		for _, s := range f.Species {
			if s.Spotted {
				n++
			}
		}
	}
	return n
}

// Title renders the page heading, e.g. "Bird Tracker 3/10".
func Title(spotted, total int) string {
	return fmt.Sprintf("Bird Tracker %d/%d", spotted, total)
}
