package models

import "github.com/Ramsey-B/fern/pkg/filters"

// CardChartRequest overrides the time range and paging of a saved card when
// rendering it. The card's own series and attributes stay authoritative.
type CardChartRequest struct {
	StartTimestamp int64 `json:"startTimestamp"`
	EndTimestamp   int64 `json:"endTimestamp"`
	Density        int   `json:"density"`
	Page           int   `json:"page"`
	Limit          int   `json:"limit"`
}

// CardSessionsRequest drills a card down to the sessions behind it. For
// unsaved cards the caller submits the series directly; the extra Filters are
// folded into every series before searching.
type CardSessionsRequest struct {
	StartTimestamp int64              `json:"startTimestamp"`
	EndTimestamp   int64              `json:"endTimestamp"`
	Density        int                `json:"density"`
	Page           int                `json:"page"`
	Limit          int                `json:"limit"`
	Series         []SeriesDefinition `json:"series"`
	Filters        []filters.Entry    `json:"filters,omitempty"`
}
