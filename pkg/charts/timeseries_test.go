package charts

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Ramsey-B/fern/pkg/models"
)

func TestMergeSeries(t *testing.T) {
	t.Run("should zip series buckets into one row per timestamp", func(t *testing.T) {
		series := []models.SeriesDefinition{{Name: "signups"}, {Name: "purchases"}}
		results := [][]DataPoint{
			{{Timestamp: 100, Count: 4}, {Timestamp: 200, Count: 2}, {Timestamp: 300, Count: 0}},
			{{Timestamp: 100, Count: 1}, {Timestamp: 200, Count: 3}, {Timestamp: 300, Count: 5}},
		}

		rows := mergeSeries(series, results)

		assert.Len(t, rows, 3)
		assert.Equal(t, map[string]any{"timestamp": int64(100), "signups": float64(4), "purchases": float64(1)}, rows[0])
		assert.Equal(t, map[string]any{"timestamp": int64(200), "signups": float64(2), "purchases": float64(3)}, rows[1])
		assert.Equal(t, map[string]any{"timestamp": int64(300), "signups": float64(0), "purchases": float64(5)}, rows[2])
	})

	t.Run("should key unnamed series by their position", func(t *testing.T) {
		series := []models.SeriesDefinition{{}, {}}
		results := [][]DataPoint{
			{{Timestamp: 100, Count: 4}},
			{{Timestamp: 100, Count: 1}},
		}

		rows := mergeSeries(series, results)

		assert.Equal(t, map[string]any{"timestamp": int64(100), "1": float64(4), "2": float64(1)}, rows[0])
	})

	t.Run("should tolerate a shorter trailing series", func(t *testing.T) {
		series := []models.SeriesDefinition{{Name: "a"}, {Name: "b"}}
		results := [][]DataPoint{
			{{Timestamp: 100, Count: 1}, {Timestamp: 200, Count: 2}},
			{{Timestamp: 100, Count: 9}},
		}

		rows := mergeSeries(series, results)

		assert.Len(t, rows, 2)
		assert.NotContains(t, rows[1], "b")
		assert.Equal(t, float64(2), rows[1]["a"])
	})

	t.Run("should return an empty slice for no series", func(t *testing.T) {
		rows := mergeSeries(nil, nil)

		assert.NotNil(t, rows)
		assert.Empty(t, rows)
	})
}
