package core

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
)

// DateLayout is the calendar date format used for drawn dates and changelog lines.
const DateLayout = "2006-01-02"

// Bird is a single catalog entry. Drawn is empty until an illustration
// has been processed for it.
type Bird struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Sci   string `json:"sci"`
	Drawn string `json:"drawn,omitempty"`
}

// IsDrawn reports whether the bird has a recorded illustration date.
func (b Bird) IsDrawn() bool {
	return b.Drawn != ""
}

// Category groups birds under a display heading.
type Category struct {
	Name  string
	Birds []Bird
}

// Catalog is the ordered mapping of category name to birds.
// The JSON form is an object whose key order is preserved on load and save.
type Catalog struct {
	Categories []Category
}

// UnmarshalJSON decodes the catalog object keeping category order.
// Unknown bird fields are rejected.
func (c *Catalog) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return errors.New("catalog must be a JSON object of categories")
	}

	var categories []Category
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		name, ok := tok.(string)
		if !ok {
			return fmt.Errorf("unexpected token %v", tok)
		}

		var birds []Bird
		if err := dec.Decode(&birds); err != nil {
			return fmt.Errorf("category %q: %w", name, err)
		}
		categories = append(categories, Category{Name: name, Birds: birds})
	}

	if _, err := dec.Token(); err != nil {
		return err
	}

	c.Categories = categories
	return nil
}

// MarshalJSON encodes the catalog as an object in category order.
func (c Catalog) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, cat := range c.Categories {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := encodeCompact(cat.Name)
		if err != nil {
			return nil, err
		}
		birds := cat.Birds
		if birds == nil {
			birds = []Bird{}
		}
		val, err := encodeCompact(birds)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// encodeCompact marshals v without HTML escaping so names like "Shrikes & Vireos"
// survive a round trip byte-for-byte.
func encodeCompact(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// Validate checks the structure of the catalog:
// non-empty ids and names, ids unique across all categories, and
// well-formed drawn dates.
func (c Catalog) Validate() error {
	seenCategory := make(map[string]bool, len(c.Categories))
	seenID := make(map[string]string)

	for _, cat := range c.Categories {
		if strings.TrimSpace(cat.Name) == "" {
			return errors.New("category name cannot be empty")
		}
		if seenCategory[cat.Name] {
			return fmt.Errorf("duplicate category %q", cat.Name)
		}
		seenCategory[cat.Name] = true

		for i, b := range cat.Birds {
			if strings.TrimSpace(b.ID) == "" {
				return fmt.Errorf("category %q: bird #%d has no id", cat.Name, i)
			}
			if strings.TrimSpace(b.Name) == "" {
				return fmt.Errorf("category %q: bird %s has no name", cat.Name, b.ID)
			}
			if prev, ok := seenID[b.ID]; ok {
				return fmt.Errorf("bird id %s appears in both %q and %q", b.ID, prev, cat.Name)
			}
			seenID[b.ID] = cat.Name

			if b.Drawn != "" {
				if _, err := time.Parse(DateLayout, b.Drawn); err != nil {
					return fmt.Errorf("bird %s: drawn date %q is not YYYY-MM-DD", b.ID, b.Drawn)
				}
			}
		}
	}
	return nil
}

// Find returns a pointer to the bird with the given id, or nil.
// The pointer aliases the catalog so callers can mutate the entry in place.
func (c *Catalog) Find(id string) *Bird {
	for ci := range c.Categories {
		birds := c.Categories[ci].Birds
		for bi := range birds {
			if birds[bi].ID == id {
				return &birds[bi]
			}
		}
	}
	return nil
}

// DrawnIDs returns the ids of every bird with a drawn date.
func (c Catalog) DrawnIDs() IDSet {
	ids := NewIDSet()
	for _, cat := range c.Categories {
		for _, b := range cat.Birds {
			if b.IsDrawn() {
				ids.Add(b.ID)
			}
		}
	}
	return ids
}

// Len returns the number of birds across all categories.
func (c Catalog) Len() int {
	n := 0
	for _, cat := range c.Categories {
		n += len(cat.Birds)
	}
	return n
}

// Version is the build counter persisted next to the front-end sources.
type Version struct {
	Major   int       `json:"major"`
	Minor   int       `json:"minor"`
	Patch   int       `json:"patch"`
	Count   int       `json:"count"`
	Updated time.Time `json:"updated"`
}

// DefaultVersion is the record created on first run.
func DefaultVersion(now time.Time) Version {
	return Version{Major: 0, Minor: 7, Patch: 0, Count: 0, Updated: now.UTC()}
}

// String renders the version as major.minor.patch+count.
func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d+%d", v.Major, v.Minor, v.Patch, v.Count)
}

// IDSet is an unordered set of bird ids.
type IDSet map[string]struct{}

// NewIDSet builds a set from the given ids.
func NewIDSet(ids ...string) IDSet {
	s := make(IDSet, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

func (s IDSet) Add(id string) { s[id] = struct{}{} }

func (s IDSet) Has(id string) bool {
	_, ok := s[id]
	return ok
}

func (s IDSet) Len() int { return len(s) }

// Sorted returns the members in ascending order.
func (s IDSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for id := range s {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Minus returns the sorted members of s that are not in other.
func (s IDSet) Minus(other IDSet) []string {
	out := []string{}
	for id := range s {
		if !other.Has(id) {
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return out
}

// AssetSet holds the ids found on disk for each asset kind. It is derived
// from directory listings on every run and never cached.
type AssetSet struct {
	Raw   IDSet
	Full  IDSet
	Thumb IDSet

	// RawFiles maps an id to the raw filename it was derived from.
	RawFiles map[string]string
}

// RawFilename returns the raw image filename for id.
func (a AssetSet) RawFilename(id string) string {
	if name, ok := a.RawFiles[id]; ok {
		return name
	}
	return id + ".png"
}

// ProcessResult describes the derived assets written for one raw image.
type ProcessResult struct {
	Filename  string `json:"filename"`
	BaseName  string `json:"base_name"`
	Name      string `json:"name,omitempty"`
	FullPath  string `json:"full_path,omitempty"`
	ThumbPath string `json:"thumb_path,omitempty"`
}

// Skipped records a raw image that could not be processed.
type Skipped struct {
	Filename string `json:"filename"`
	Reason   string `json:"reason"`
}

// Repair records a derived asset regenerated for an already drawn bird.
type Repair struct {
	ID     string `json:"id"`
	Asset  string `json:"asset"`
	Reason string `json:"reason,omitempty"`
}

// Counts summarizes the sizes of the catalog and the asset directories.
type Counts struct {
	Drawn int `json:"drawn"`
	Raw   int `json:"raw"`
	Full  int `json:"full"`
	Thumb int `json:"thumb"`
}

// CountsOf derives counts from a drawn set and the assets on disk.
func CountsOf(drawn IDSet, assets AssetSet) Counts {
	return Counts{
		Drawn: drawn.Len(),
		Raw:   assets.Raw.Len(),
		Full:  assets.Full.Len(),
		Thumb: assets.Thumb.Len(),
	}
}

// Balanced reports whether every directory holds exactly one asset per drawn bird.
func (c Counts) Balanced() bool {
	return c.Drawn == c.Raw && c.Drawn == c.Full && c.Drawn == c.Thumb
}

// BuildResult is the summary returned by a build run.
type BuildResult struct {
	RunID          string          `json:"run_id"`
	Version        Version         `json:"version"`
	Processed      []ProcessResult `json:"processed"`
	Skipped        []Skipped       `json:"skipped"`
	Unlisted       []string        `json:"unlisted"`
	Repaired       []Repair        `json:"repaired"`
	RepairFailures []Repair        `json:"repair_failures"`
	Counts         Counts          `json:"counts"`
	Integrity      IntegrityReport `json:"integrity"`
	Duration       time.Duration   `json:"duration"`
}

// Failed reports whether the caller should exit with a non-zero status.
func (r *BuildResult) Failed() bool {
	return len(r.Skipped) > 0 || len(r.RepairFailures) > 0 || !r.Integrity.Passed()
}

// CheckResult is the read-only integrity snapshot returned by Check.
type CheckResult struct {
	Version   Version         `json:"version"`
	Counts    Counts          `json:"counts"`
	Integrity IntegrityReport `json:"integrity"`
}

// Synchronized reports whether the check found no issues and balanced counts.
func (r *CheckResult) Synchronized() bool {
	return r.Integrity.Passed() && r.Counts.Balanced()
}
