package models

// EventType is the source kind of a session interaction event
type EventType string

const (
	EventTypeClick       EventType = "CLICK"
	EventTypeInput       EventType = "INPUT"
	EventTypeLocation    EventType = "LOCATION"
	EventTypeCustom      EventType = "CUSTOM"
	EventTypeRequest     EventType = "REQUEST"
	EventTypeGraphQL     EventType = "GRAPHQL"
	EventTypeStateAction EventType = "STATE_ACTION"
	EventTypeTag         EventType = "TAG"
	EventTypeError       EventType = "ERROR"

	// mobile variants
	EventTypeClickMobile   EventType = "CLICK_MOBILE"
	EventTypeInputMobile   EventType = "INPUT_MOBILE"
	EventTypeViewMobile    EventType = "VIEW_MOBILE"
	EventTypeSwipeMobile   EventType = "SWIPE_MOBILE"
	EventTypeCustomMobile  EventType = "CUSTOM_MOBILE"
	EventTypeRequestMobile EventType = "REQUEST_MOBILE"
	EventTypeCrashMobile   EventType = "ERROR_MOBILE"

	// EventTypeClickRage tags a synthetic row that replaces a collapsed run of
	// rapid repeated clicks
	EventTypeClickRage EventType = "CLICKRAGE"
)

// SessionEvent is one interaction row from a session, already tagged with its
// source kind. Events from distinct sources can share a timestamp, so the
// merged ordering is (Timestamp, MessageID).
type SessionEvent struct {
	MessageID int64   `json:"messageId" db:"message_id"`
	SessionID int64   `json:"sessionId" db:"session_id"`
	Timestamp int64   `json:"timestamp" db:"timestamp"`
	Type      string  `json:"type" db:"type"`
	Label     *string `json:"label,omitempty" db:"label"`
	Value     *string `json:"value,omitempty" db:"value"`
	URL       *string `json:"url,omitempty" db:"url"`

	// Count is only set on CLICKRAGE rows: the number of collapsed clicks
	Count int `json:"count,omitempty" db:"-"`
}

// ClickRageIssue is a detected rapid-repeated-click anomaly for one session
type ClickRageIssue struct {
	IssueID   string         `json:"issueId" db:"issue_id"`
	SessionID int64          `json:"sessionId" db:"session_id"`
	Timestamp int64          `json:"timestamp" db:"timestamp"`
	Payload   map[string]any `json:"payload,omitempty" db:"-"`
}

// MergeCount returns how many rows the issue collapses, defaulting to 3 when
// the detector did not record a count.
func (c ClickRageIssue) MergeCount() int {
	if c.Payload == nil {
		return 3
	}
	v, ok := c.Payload["Count"]
	if !ok {
		return 3
	}
	switch n := v.(type) {
	case float64:
		return int(n)
	case int:
		return n
	default:
		return 3
	}
}
