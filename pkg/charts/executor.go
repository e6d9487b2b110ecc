// Package charts renders saved card definitions into chart, table and list
// payloads. The actual data queries are delegated to the executor interfaces
// below; this package owns only the routing and result composition.
package charts

import (
	"context"
	"encoding/json"

	"github.com/Ramsey-B/fern/pkg/filters"
	"github.com/Ramsey-B/fern/pkg/models"
)

// SessionList is a page of sessions from the session search executor
type SessionList struct {
	Total    int64             `json:"total"`
	Sessions []json.RawMessage `json:"sessions"`
}

// ErrorList is a page of errors from the error search executor
type ErrorList struct {
	Total  int64             `json:"total"`
	Errors []json.RawMessage `json:"errors"`
}

// DataPoint is one time bucket of a series query
type DataPoint struct {
	Timestamp int64   `json:"timestamp"`
	Count     float64 `json:"count"`
}

// FunnelResult is the evaluated funnel for one filter
type FunnelResult struct {
	Stages               []json.RawMessage `json:"stages"`
	TotalDropDueToIssues int64             `json:"totalDropDueToIssues"`
}

// FunnelIssues partitions on-the-fly funnel issues by significance
type FunnelIssues struct {
	Significant   []map[string]any `json:"significant"`
	Insignificant []map[string]any `json:"insignificant"`
}

// HeatMapSession is the session a heat map is rendered over, plus the
// executor's opaque payload.
type HeatMapSession struct {
	SessionID int64           `json:"sessionId"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

// PathNode is one page/event node of a path analysis graph
type PathNode struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Type  string `json:"type"`
	Count int64  `json:"count"`
}

// PathLink is one traversal edge of a path analysis graph
type PathLink struct {
	Source int64 `json:"source"`
	Target int64 `json:"target"`
	Count  int64 `json:"count"`
}

// PathGraph is the rendered path analysis result
type PathGraph struct {
	Nodes []PathNode `json:"nodes"`
	Links []PathLink `json:"links"`
}

// SeriesSessions is one series' session drill-down result
type SeriesSessions struct {
	SeriesID   *int64 `json:"seriesId"`
	SeriesName string `json:"seriesName"`
	SessionList
}

// IssueSessions is the funnel-issue drill-down result
type IssueSessions struct {
	SeriesID   *int64         `json:"seriesId"`
	SeriesName string         `json:"seriesName"`
	Sessions   *SessionList   `json:"sessions"`
	Issue      map[string]any `json:"issue"`
}

// SessionSearcher executes session searches against the event store
type SessionSearcher interface {
	SearchSessions(ctx context.Context, filter filters.Filter, project models.ProjectContext, userID int64) (*SessionList, error)
	SearchIssueSessions(ctx context.Context, filter filters.Filter, project models.ProjectContext, userID int64, issue map[string]any) (*SessionList, error)
}

// ErrorSearcher executes error searches against the event store
type ErrorSearcher interface {
	SearchErrors(ctx context.Context, filter filters.Filter, project models.ProjectContext, userID int64) (*ErrorList, error)
}

// SeriesQuerier buckets one series filter over time. All series of a card are
// queried with the same density and range, so bucket counts line up.
type SeriesQuerier interface {
	SearchSeries(ctx context.Context, filter filters.Filter, projectID int64, density int, metricType models.MetricType, metricOf models.MetricOfTable, metricValue []string) ([]DataPoint, error)
}

// TableQuerier renders a grouped series table (browsers, devices, urls, ...)
type TableQuerier interface {
	SearchTable(ctx context.Context, filter filters.Filter, projectID int64, density int, metricOf models.MetricOfTable, metricValue []string, metricFormat string) (json.RawMessage, error)
}

// FunnelEvaluator evaluates funnels and their on-the-fly issues
type FunnelEvaluator interface {
	Evaluate(ctx context.Context, project models.ProjectContext, filter filters.Filter, metricFormat string) (*FunnelResult, error)
	IssuesOnTheFly(ctx context.Context, projectID int64, filter filters.Filter) (*FunnelIssues, error)
}

// HeatMapSearcher picks and loads heat-map sessions
type HeatMapSearcher interface {
	SearchShortSession(ctx context.Context, projectID, userID int64, filter filters.Filter, includeRecordings bool) (*HeatMapSession, error)
	GetSelectedSession(ctx context.Context, projectID, sessionID int64) (json.RawMessage, error)
}

// PathAnalysisExecutor builds the navigation path graph for a card
type PathAnalysisExecutor interface {
	PathAnalysis(ctx context.Context, projectID int64, def *models.CardDefinition) (*PathGraph, error)
}

// IssueLookup resolves a single issue by id
type IssueLookup interface {
	GetIssue(ctx context.Context, projectID int64, issueID string) (map[string]any, error)
}
