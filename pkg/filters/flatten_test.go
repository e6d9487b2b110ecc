package filters

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFlatten(t *testing.T) {
	t.Run("should move legacy events behind the existing filters", func(t *testing.T) {
		f := Filter{
			Filters: []Entry{{Type: "userBrowser", Value: []string{"Chrome"}}},
			Events: []Entry{
				{Type: "click", Value: []string{"buy"}},
				{Type: "location", Value: []string{"/checkout"}},
			},
		}

		flat := Flatten(f)

		assert.Len(t, flat.Filters, 3)
		assert.Equal(t, "userBrowser", flat.Filters[0].Type)
		assert.False(t, flat.Filters[0].IsEvent)
		assert.Equal(t, "click", flat.Filters[1].Type)
		assert.True(t, flat.Filters[1].IsEvent)
		assert.Equal(t, "location", flat.Filters[2].Type)
		assert.True(t, flat.Filters[2].IsEvent)
		assert.Empty(t, flat.Events)
		assert.Equal(t, EventsOrderThen, flat.EventsOrder)
	})

	t.Run("should not change an already flat filter", func(t *testing.T) {
		f := Filter{
			Filters:     []Entry{{Type: "click", IsEvent: true, Value: []string{"buy"}}},
			EventsOrder: "and",
		}

		flat := Flatten(f)

		assert.Equal(t, f, flat)
	})

	t.Run("should keep an explicit events order", func(t *testing.T) {
		f := Filter{
			Events:      []Entry{{Type: "click"}},
			EventsOrder: "or",
		}

		flat := Flatten(f)

		assert.Equal(t, "or", flat.EventsOrder)
	})

	t.Run("should be idempotent", func(t *testing.T) {
		f := Filter{
			Events: []Entry{{Type: "click", Value: []string{"buy"}}},
		}

		once := Flatten(f)
		twice := Flatten(once)

		assert.Equal(t, once, twice)
	})

	t.Run("should not mutate the input filter", func(t *testing.T) {
		f := Filter{
			Events: []Entry{{Type: "click"}},
		}

		_ = Flatten(f)

		assert.Len(t, f.Events, 1)
		assert.False(t, f.Events[0].IsEvent)
	})
}

func TestFlattenAll(t *testing.T) {
	t.Run("should flatten every filter in place", func(t *testing.T) {
		fs := []Filter{
			{Events: []Entry{{Type: "click"}}},
			{Filters: []Entry{{Type: "input", IsEvent: true}}},
		}

		FlattenAll(fs)

		assert.True(t, fs[0].IsFlat())
		assert.True(t, fs[1].IsFlat())
		assert.True(t, fs[0].Filters[0].IsEvent)
	})
}
