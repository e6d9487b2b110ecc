package cache

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Ramsey-B/fern/pkg/models"
)

func TestChartCacheKey(t *testing.T) {
	c := NewChartCache(nil, 0)

	t.Run("should be stable for identical requests", func(t *testing.T) {
		req := models.CardChartRequest{StartTimestamp: 1000, EndTimestamp: 2000, Density: 7}

		assert.Equal(t, c.Key(42, 9, req), c.Key(42, 9, req))
	})

	t.Run("should differ per range", func(t *testing.T) {
		a := c.Key(42, 9, models.CardChartRequest{StartTimestamp: 1000, EndTimestamp: 2000})
		b := c.Key(42, 9, models.CardChartRequest{StartTimestamp: 1000, EndTimestamp: 3000})

		assert.NotEqual(t, a, b)
	})

	t.Run("should scope keys to the card", func(t *testing.T) {
		key := c.Key(42, 9, models.CardChartRequest{})

		assert.True(t, strings.HasPrefix(key, "chart:42:9:"))
	})
}

func TestChartCacheWithoutBackend(t *testing.T) {
	t.Run("should treat a missing client as a miss", func(t *testing.T) {
		c := NewChartCache(nil, 0)

		_, ok := c.Get(context.Background(), "chart:1:1:abc")

		assert.False(t, ok)
	})

	t.Run("should swallow writes without a client", func(t *testing.T) {
		c := NewChartCache(nil, 0)

		assert.NotPanics(t, func() {
			c.Set(context.Background(), "chart:1:1:abc", map[string]any{"x": 1})
			c.Invalidate(context.Background(), 1, 1)
		})
	})
}
