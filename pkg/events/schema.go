package events

import "time"

// SchemaVersion is the current event schema version
const SchemaVersion = "1.0"

// EventType defines the type of event
type EventType string

const (
	EventTypeCardCreated EventType = "card.created"
	EventTypeCardUpdated EventType = "card.updated"
	EventTypeCardDeleted EventType = "card.deleted"
)

// CardEvent is published on every card lifecycle change so downstream
// consumers (dashboards, search indexes) can react without polling.
type CardEvent struct {
	EventType     EventType `json:"event_type"`
	SchemaVersion string    `json:"schema_version"`
	ProjectID     int64     `json:"project_id"`
	MetricID      int64     `json:"metric_id"`
	UserID        int64     `json:"user_id"`
	MetricType    string    `json:"metric_type,omitempty"`
	Name          string    `json:"name,omitempty"`
	IsPublic      bool      `json:"is_public,omitempty"`
	Timestamp     time.Time `json:"timestamp"`
}
