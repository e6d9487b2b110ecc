package kafka

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseNavigationMessage(t *testing.T) {
	t.Run("should decode a navigation batch", func(t *testing.T) {
		msg := &IncomingMessage{
			Value: []byte(`{
				"projectId": 42,
				"sessionId": 7,
				"steps": [
					{"fromName": "/home", "fromKind": "location", "toName": "/checkout", "toKind": "location", "timestamp": 1726000000000, "count": 2}
				]
			}`),
		}

		nav, err := msg.ParseNavigationMessage()

		require.NoError(t, err)
		assert.Equal(t, int64(42), nav.ProjectID)
		require.Len(t, nav.Steps, 1)
		assert.Equal(t, "/checkout", nav.Steps[0].ToName)
		assert.Equal(t, int64(2), nav.Steps[0].Count)
	})

	t.Run("should reject malformed payloads", func(t *testing.T) {
		msg := &IncomingMessage{Value: []byte(`{"projectId":`)}

		_, err := msg.ParseNavigationMessage()

		assert.Error(t, err)
	})
}

func TestTraceParent(t *testing.T) {
	t.Run("should read the propagated trace header", func(t *testing.T) {
		msg := &IncomingMessage{Headers: map[string]string{"traceparent": "00-abc-def-01"}}

		assert.Equal(t, "00-abc-def-01", msg.TraceParent())
	})

	t.Run("should return empty without headers", func(t *testing.T) {
		msg := &IncomingMessage{}

		assert.Empty(t, msg.TraceParent())
	})
}
