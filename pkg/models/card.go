package models

import (
	"time"

	"github.com/Ramsey-B/fern/pkg/database"
	"github.com/Ramsey-B/fern/pkg/filters"
)

// MetricType is the chart kind of a card
type MetricType string

const (
	MetricTypeTimeseries   MetricType = "timeseries"
	MetricTypeTable        MetricType = "table"
	MetricTypeHeatMap      MetricType = "heatMap"
	MetricTypeFunnel       MetricType = "funnel"
	MetricTypePathAnalysis MetricType = "pathAnalysis"
)

// MetricOfTable selects which entity a TABLE card tabulates
type MetricOfTable string

const (
	MetricOfSessions    MetricOfTable = "sessions"
	MetricOfErrors      MetricOfTable = "errors"
	MetricOfUserID      MetricOfTable = "userId"
	MetricOfIssues      MetricOfTable = "issues"
	MetricOfUserBrowser MetricOfTable = "userBrowser"
	MetricOfUserDevice  MetricOfTable = "userDevice"
	MetricOfUserCountry MetricOfTable = "userCountry"
	MetricOfVisitedURL  MetricOfTable = "location"
	MetricOfReferrer    MetricOfTable = "referrer"
	MetricOfFetch       MetricOfTable = "fetch"
)

// StartTypeStart is the default traversal direction for path analysis cards
const StartTypeStart = "start"

// ProjectContext identifies the project a request acts on
type ProjectContext struct {
	ProjectID int64  `json:"projectId"`
	Name      string `json:"name"`
	Platform  string `json:"platform,omitempty"`
}

// SessionPin is the persisted data payload of a heat-map card: the session the
// heat map is rendered over.
type SessionPin struct {
	SessionID int64 `json:"sessionId"`
}

// DashboardRef is a dashboard a card is placed on (read-time join)
type DashboardRef struct {
	DashboardID int64  `json:"dashboardId"`
	Name        string `json:"name"`
	IsPublic    bool   `json:"isPublic"`
}

// PathEventFilter is a path-analysis start point or exclusion
type PathEventFilter struct {
	Type     string   `json:"type"`
	Operator string   `json:"operator,omitempty"`
	Value    []string `json:"value"`
}

// Card is the persisted metrics row. Series, Dashboards and the owner identity
// are populated by read-time joins, not stored on the row itself.
type Card struct {
	MetricID      int64                            `json:"metricId" db:"metric_id"`
	ProjectID     int64                            `json:"projectId" db:"project_id"`
	UserID        int64                            `json:"userId" db:"user_id"`
	Name          string                           `json:"name" db:"name"`
	IsPublic      bool                             `json:"isPublic" db:"is_public"`
	ViewType      string                           `json:"viewType" db:"view_type"`
	MetricType    MetricType                       `json:"metricType" db:"metric_type"`
	MetricOf      MetricOfTable                    `json:"metricOf" db:"metric_of"`
	MetricValue   database.JSONB[[]string]         `json:"metricValue" db:"metric_value"`
	MetricFormat  string                           `json:"metricFormat" db:"metric_format"`
	DefaultConfig database.JSONB[map[string]any]   `json:"config" db:"default_config"`
	Thumbnail     *string                          `json:"thumbnail,omitempty" db:"thumbnail"`
	Data          database.JSONB[*SessionPin]      `json:"data,omitempty" db:"data"`
	CardInfo      database.JSONB[map[string]any]   `json:"-" db:"card_info"`
	Series        database.JSONB[[]Series]         `json:"series" db:"series"`
	Dashboards    database.JSONB[[]DashboardRef]   `json:"dashboards" db:"dashboards"`
	OwnerEmail    *string                          `json:"ownerEmail,omitempty" db:"owner_email"`
	OwnerName     *string                          `json:"ownerName,omitempty" db:"owner_name"`
	CreatedAt     time.Time                        `json:"-" db:"created_at"`
	EditedAt      time.Time                        `json:"-" db:"edited_at"`
	DeletedAt     *time.Time                       `json:"-" db:"deleted_at"`
}

// Series is one persisted series of a card, ordered by Index
type Series struct {
	SeriesID  int64          `json:"seriesId" db:"series_id"`
	MetricID  int64          `json:"metricId" db:"metric_id"`
	Index     int            `json:"index" db:"index"`
	Name      string         `json:"name" db:"name"`
	Filter    filters.Filter `json:"filter" db:"filter"`
	DeletedAt *time.Time     `json:"-" db:"deleted_at"`
}

// SeriesDefinition is a caller-submitted series. A nil SeriesID, or one that
// does not belong to the card, marks the series as new. A nil Index defaults
// to the series' position in the submitted list.
type SeriesDefinition struct {
	SeriesID *int64         `json:"seriesId,omitempty"`
	Name     string         `json:"name"`
	Index    *int           `json:"index,omitempty"`
	Filter   filters.Filter `json:"filter"`
}

// CardDefinition is the full caller-submitted card payload, used for create,
// update and unsaved ("try") renders.
type CardDefinition struct {
	Name           string             `json:"name" validate:"required"`
	IsPublic       bool               `json:"isPublic"`
	ViewType       string             `json:"viewType"`
	MetricType     MetricType         `json:"metricType" validate:"required"`
	MetricOf       MetricOfTable      `json:"metricOf"`
	MetricValue    []string           `json:"metricValue"`
	MetricFormat   string             `json:"metricFormat"`
	DefaultConfig  map[string]any     `json:"config"`
	Thumbnail      *string            `json:"thumbnail,omitempty"`
	Series         []SeriesDefinition `json:"series"`
	StartTimestamp int64              `json:"startTimestamp"`
	EndTimestamp   int64              `json:"endTimestamp"`
	Density        int                `json:"density"`
	Page           int                `json:"page"`
	Limit          int                `json:"limit"`

	// heat map: explicit session to pin
	SessionID *int64 `json:"sessionId,omitempty"`

	// global card_info attributes
	CompareTo  []string `json:"compareTo,omitempty"`
	Rows       int      `json:"rows,omitempty"`
	HideExcess bool     `json:"hideExcess,omitempty"`

	// path analysis card_info attributes
	Excludes   []PathEventFilter `json:"excludes,omitempty"`
	StartPoint []PathEventFilter `json:"startPoint,omitempty"`
	StartType  string            `json:"startType,omitempty"`
}

// CardView is the API shape of a card: Unix-millisecond timestamps and the
// card_info side-channel decoded into flat attributes.
type CardView struct {
	MetricID     int64          `json:"metricId"`
	ProjectID    int64          `json:"projectId"`
	UserID       int64          `json:"userId"`
	Name         string         `json:"name"`
	IsPublic     bool           `json:"isPublic"`
	ViewType     string         `json:"viewType"`
	MetricType   MetricType     `json:"metricType"`
	MetricOf     MetricOfTable  `json:"metricOf"`
	MetricValue  []string       `json:"metricValue"`
	MetricFormat string         `json:"metricFormat"`
	Config       map[string]any `json:"config"`
	Thumbnail    *string        `json:"thumbnail,omitempty"`
	Series       []Series       `json:"series"`
	Dashboards   []DashboardRef `json:"dashboards"`
	OwnerEmail   *string        `json:"ownerEmail,omitempty"`
	CreatedAt    int64          `json:"createdAt"`
	EditedAt     int64          `json:"editedAt"`

	CompareTo []string `json:"compareTo"`

	// populated for path analysis cards only
	Excludes   []PathEventFilter `json:"excludes,omitempty"`
	StartPoint []PathEventFilter `json:"startPoint,omitempty"`
	StartType  string            `json:"startType,omitempty"`
	HideExcess *bool             `json:"hideExcess,omitempty"`

	// populated when the caller asked for the raw data payload
	Data *SessionPin `json:"data,omitempty"`
}

// Definition rebuilds a CardDefinition from a persisted view, used when
// rendering a saved card with overridden range and density.
func (v *CardView) Definition() CardDefinition {
	def := CardDefinition{
		Name:          v.Name,
		IsPublic:      v.IsPublic,
		ViewType:      v.ViewType,
		MetricType:    v.MetricType,
		MetricOf:      v.MetricOf,
		MetricValue:   v.MetricValue,
		MetricFormat:  v.MetricFormat,
		DefaultConfig: v.Config,
		Thumbnail:     v.Thumbnail,
		CompareTo:     v.CompareTo,
		Excludes:      v.Excludes,
		StartPoint:    v.StartPoint,
		StartType:     v.StartType,
	}
	if v.HideExcess != nil {
		def.HideExcess = *v.HideExcess
	}
	for _, s := range v.Series {
		sid := s.SeriesID
		idx := s.Index
		def.Series = append(def.Series, SeriesDefinition{
			SeriesID: &sid,
			Name:     s.Name,
			Index:    &idx,
			Filter:   s.Filter,
		})
	}
	return def
}

// CardSearchRequest filters and pages the card listing
type CardSearchRequest struct {
	Page       int            `json:"page"`
	Limit      int            `json:"limit"`
	Query      string         `json:"query,omitempty"`
	MetricType *MetricType    `json:"type,omitempty"`
	MineOnly   bool           `json:"mineOnly"`
	SharedOnly bool           `json:"sharedOnly"`
	SortField  string         `json:"sortField,omitempty"`
	SortOrder  string         `json:"sortOrder,omitempty"`
}

// CardSearchResult is one page plus the cross-page total, computed in the same
// query pass as the page itself.
type CardSearchResult struct {
	Total int64      `json:"total"`
	List  []CardView `json:"list"`
}
