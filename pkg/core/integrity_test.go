package core_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/birdtracker/birdtracker/pkg/core"
)

func TestCheckIntegrity(t *testing.T) {
	t.Run("set algebra", func(t *testing.T) {
		drawn := core.NewIDSet("A", "B")
		assets := core.AssetSet{
			Raw:   core.NewIDSet("A", "B"),
			Full:  core.NewIDSet("A"),
			Thumb: core.NewIDSet("A", "B", "C"),
		}

		report := core.CheckIntegrity(drawn, assets)

		assert.Equal(t, []string{"B"}, report.MissingFull)
		assert.Equal(t, []string{"C"}, report.OrphanedThumb)
		assert.Empty(t, report.MissingInCatalog)
		assert.Empty(t, report.MissingRaw)
		assert.Empty(t, report.MissingThumb)
		assert.Empty(t, report.OrphanedFull)
		assert.Equal(t, 2, report.IssueCount())
		assert.False(t, report.Passed())
	})

	t.Run("lists are sorted", func(t *testing.T) {
		assets := core.AssetSet{
			Raw:   core.NewIDSet("042", "007", "100"),
			Full:  core.NewIDSet(),
			Thumb: core.NewIDSet(),
		}

		report := core.CheckIntegrity(core.NewIDSet(), assets)

		assert.Equal(t, []string{"007", "042", "100"}, report.MissingInCatalog)
	})

	t.Run("empty inputs pass", func(t *testing.T) {
		report := core.CheckIntegrity(core.NewIDSet(), core.AssetSet{})

		assert.True(t, report.Passed())
		assert.NotNil(t, report.MissingRaw)
	})

	t.Run("sections follow display order", func(t *testing.T) {
		report := core.CheckIntegrity(core.NewIDSet("X"), core.AssetSet{})

		sections := report.Sections()
		assert.Len(t, sections, 6)
		assert.Equal(t, "Missing in catalog", sections[0].Label)
		assert.Equal(t, []string{"X"}, sections[1].IDs)
		assert.Equal(t, 3, report.IssueCount())
	})
}

func TestIntegrityError(t *testing.T) {
	report := core.CheckIntegrity(core.NewIDSet("X"), core.AssetSet{})

	err := core.IntegrityError(report)

	assert.True(t, core.IsKind(err, core.KindIntegrity))
	assert.ErrorIs(t, err, core.ErrIntegrity)
	assert.Contains(t, err.Error(), "3 issue(s)")
}
