package core

// IntegrityReport is the six-way diff between drawn catalog entries and the
// assets on disk. Every list is sorted.
type IntegrityReport struct {
	MissingInCatalog []string `json:"missing_in_catalog"` // raw images with no drawn entry
	MissingRaw       []string `json:"missing_raw"`        // drawn entries with no raw image
	MissingFull      []string `json:"missing_full"`
	MissingThumb     []string `json:"missing_thumb"`
	OrphanedFull     []string `json:"orphaned_full"` // full images with no drawn entry
	OrphanedThumb    []string `json:"orphaned_thumb"`
}

// CheckIntegrity computes the report. It is a pure function of its inputs.
func CheckIntegrity(drawn IDSet, assets AssetSet) IntegrityReport {
	return IntegrityReport{
		MissingInCatalog: assets.Raw.Minus(drawn),
		MissingRaw:       drawn.Minus(assets.Raw),
		MissingFull:      drawn.Minus(assets.Full),
		MissingThumb:     drawn.Minus(assets.Thumb),
		OrphanedFull:     assets.Full.Minus(drawn),
		OrphanedThumb:    assets.Thumb.Minus(drawn),
	}
}

// IssueCount is the total number of entries across all six lists.
func (r IntegrityReport) IssueCount() int {
	n := 0
	for _, s := range r.Sections() {
		n += len(s.IDs)
	}
	return n
}

// Passed reports whether all six lists are empty.
func (r IntegrityReport) Passed() bool {
	return r.IssueCount() == 0
}

// Section is one labeled list of the report, used for rendering.
type Section struct {
	Label string
	IDs   []string
}

// Sections returns the lists in display order.
func (r IntegrityReport) Sections() []Section {
	return []Section{
		{Label: "Missing in catalog", IDs: r.MissingInCatalog},
		{Label: "Missing raw PNGs", IDs: r.MissingRaw},
		{Label: "Missing full WebPs", IDs: r.MissingFull},
		{Label: "Missing thumbnails", IDs: r.MissingThumb},
		{Label: "Orphaned full WebPs", IDs: r.OrphanedFull},
		{Label: "Orphaned thumbnails", IDs: r.OrphanedThumb},
	}
}
