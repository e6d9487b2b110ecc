// Package filters defines the saved session-search filter payload carried by
// card series. The payload is opaque to the card store and handed unmodified
// to the query executors; only the legacy-shape migration inspects it.
package filters

// Operator is the comparison operator of a filter entry
type Operator string

const (
	OperatorIs          Operator = "is"
	OperatorIsNot       Operator = "isNot"
	OperatorIsAny       Operator = "isAny"
	OperatorContains    Operator = "contains"
	OperatorNotContains Operator = "notContains"
	OperatorStartsWith  Operator = "startsWith"
	OperatorEndsWith    Operator = "endsWith"
)

// EventsOrderThen is the default ordering semantics for event entries
const EventsOrderThen = "then"

// Entry is a single search criterion. Event criteria carry IsEvent=true in the
// flat shape; the legacy nested shape kept them in a separate Events list.
type Entry struct {
	Type           string    `json:"type"`
	IsEvent        bool      `json:"isEvent"`
	Value          []string  `json:"value"`
	Operator       Operator  `json:"operator"`
	Source         *string   `json:"source,omitempty"`
	SourceOperator *Operator `json:"sourceOperator,omitempty"`
	Filters        []Entry   `json:"filters,omitempty"`
}

// Filter is a saved session search. Events is only populated by legacy rows
// that predate the flat shape; Flatten folds it into Filters.
type Filter struct {
	StartTimestamp int64   `json:"startTimestamp"`
	EndTimestamp   int64   `json:"endTimestamp"`
	Density        int     `json:"density,omitempty"`
	Filters        []Entry `json:"filters"`
	Events         []Entry `json:"events,omitempty"`
	EventsOrder    string  `json:"eventsOrder,omitempty"`
	GroupByUser    bool    `json:"groupByUser,omitempty"`
	Sort           string  `json:"sort,omitempty"`
	Order          string  `json:"order,omitempty"`
	Page           int     `json:"page,omitempty"`
	Limit          int     `json:"limit,omitempty"`
}

// IsFlat reports whether the filter is already in the current shape.
func (f Filter) IsFlat() bool {
	return len(f.Events) == 0
}
