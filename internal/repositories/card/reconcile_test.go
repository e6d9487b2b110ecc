package card

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Ramsey-B/fern/pkg/models"
)

func TestReconcileSeries(t *testing.T) {
	id := func(v int64) *int64 { return &v }
	idx := func(v int) *int { return &v }

	t.Run("should insert series without an id", func(t *testing.T) {
		plan := ReconcileSeries(nil, []models.SeriesDefinition{
			{Name: "first"},
			{Name: "second"},
		})

		assert.Len(t, plan.Insert, 2)
		assert.Empty(t, plan.Update)
		assert.Empty(t, plan.DeleteIDs)
	})

	t.Run("should treat an unknown id as a new series", func(t *testing.T) {
		current := []models.Series{{SeriesID: 1}}
		plan := ReconcileSeries(current, []models.SeriesDefinition{
			{SeriesID: id(99), Name: "stray"},
			{SeriesID: id(1), Name: "kept"},
		})

		assert.Len(t, plan.Insert, 1)
		assert.Nil(t, plan.Insert[0].SeriesID)
		assert.Equal(t, "stray", plan.Insert[0].Name)
		assert.Len(t, plan.Update, 1)
		assert.Equal(t, int64(1), *plan.Update[0].SeriesID)
		assert.Empty(t, plan.DeleteIDs)
	})

	t.Run("should delete current series that were not resubmitted", func(t *testing.T) {
		current := []models.Series{{SeriesID: 1}, {SeriesID: 2}, {SeriesID: 3}}
		plan := ReconcileSeries(current, []models.SeriesDefinition{
			{SeriesID: id(2), Name: "survivor"},
		})

		assert.Empty(t, plan.Insert)
		assert.Len(t, plan.Update, 1)
		assert.Equal(t, []int64{1, 3}, plan.DeleteIDs)
	})

	t.Run("should default a missing index to the submitted position", func(t *testing.T) {
		current := []models.Series{{SeriesID: 5}}
		plan := ReconcileSeries(current, []models.SeriesDefinition{
			{Name: "a"},
			{SeriesID: id(5), Name: "b"},
			{Name: "c", Index: idx(7)},
		})

		assert.Equal(t, 0, *plan.Insert[0].Index)
		assert.Equal(t, 1, *plan.Update[0].Index)
		assert.Equal(t, 7, *plan.Insert[1].Index)
	})

	t.Run("should produce an empty plan for identical input", func(t *testing.T) {
		plan := ReconcileSeries(nil, nil)

		assert.Empty(t, plan.Insert)
		assert.Empty(t, plan.Update)
		assert.Empty(t, plan.DeleteIDs)
	})
}
