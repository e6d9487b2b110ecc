package kafka

import (
	"encoding/json"
	"time"
)

// IncomingMessage wraps a raw Kafka message with parsed headers
type IncomingMessage struct {
	Key       string
	Value     []byte
	Headers   map[string]string
	Partition int
	Offset    int64
	Timestamp time.Time
	Topic     string
}

// NavigationMessage is one batch of session navigation transitions published
// by the capture pipeline.
type NavigationMessage struct {
	ProjectID int64            `json:"projectId"`
	SessionID int64            `json:"sessionId"`
	Steps     []NavigationStep `json:"steps"`
}

// NavigationStep is one transition of a navigation batch
type NavigationStep struct {
	FromName  string `json:"fromName"`
	FromKind  string `json:"fromKind"`
	ToName    string `json:"toName"`
	ToKind    string `json:"toKind"`
	Timestamp int64  `json:"timestamp"`
	Count     int64  `json:"count,omitempty"`
}

// ParseNavigationMessage decodes the message value as a navigation batch.
func (m *IncomingMessage) ParseNavigationMessage() (*NavigationMessage, error) {
	var nav NavigationMessage
	if err := json.Unmarshal(m.Value, &nav); err != nil {
		return nil, err
	}
	return &nav, nil
}

// TraceParent returns the trace context propagated by the producer, if any.
func (m *IncomingMessage) TraceParent() string {
	return m.Headers["traceparent"]
}
