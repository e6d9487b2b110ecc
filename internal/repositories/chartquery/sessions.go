package chartquery

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/huandu/go-sqlbuilder"

	"github.com/Ramsey-B/fern/pkg/charts"
	"github.com/Ramsey-B/fern/pkg/filters"
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/tracing"
)

const (
	defaultSessionLimit = 10
	maxSessionLimit     = 200
)

var sessionSortFields = map[string]string{
	"startTs":     "s.start_ts",
	"duration":    "s.duration",
	"eventsCount": "s.events_count",
}

type sessionRow struct {
	Session json.RawMessage `db:"session"`
	Total   int64           `db:"total"`
}

// SearchSessions pages the sessions matching a filter, with the cross-page
// total riding along on every row.
func (r *Repository) SearchSessions(ctx context.Context, f filters.Filter, project models.ProjectContext, userID int64) (*charts.SessionList, error) {
	ctx, span := tracing.StartSpan(ctx, "chartquery.Repository.SearchSessions")
	defer span.End()

	sb := r.sessionSearchBuilder(f, project.ProjectID)
	return r.runSessionSearch(ctx, sb)
}

// SearchIssueSessions narrows a session search to the sessions affected by one
// issue. Without a resolvable issue it degrades to the plain search.
func (r *Repository) SearchIssueSessions(ctx context.Context, f filters.Filter, project models.ProjectContext, userID int64, issue map[string]any) (*charts.SessionList, error) {
	ctx, span := tracing.StartSpan(ctx, "chartquery.Repository.SearchIssueSessions")
	defer span.End()

	sb := r.sessionSearchBuilder(f, project.ProjectID)
	if issue != nil {
		if issueID, ok := issue["issueId"].(string); ok && issueID != "" {
			sb.Where("EXISTS (SELECT 1 FROM events_common.issues ei WHERE ei.session_id = s.session_id AND ei.issue_id = " + sb.Var(issueID) + ")")
		}
	}
	return r.runSessionSearch(ctx, sb)
}

func (r *Repository) sessionSearchBuilder(f filters.Filter, projectID int64) *sqlbuilder.SelectBuilder {
	page := f.Page
	if page < 1 {
		page = 1
	}
	limit := f.Limit
	if limit < 1 {
		limit = defaultSessionLimit
	}
	if limit > maxSessionLimit {
		limit = maxSessionLimit
	}

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select("row_to_json(s.*) AS session", "count(1) OVER () AS total")
	sb.From("public.sessions s")
	sb.Where(sb.Equal("s.project_id", projectID))
	applyFilter(sb, f)

	orderBy, ok := sessionSortFields[f.Sort]
	if !ok {
		orderBy = "s.start_ts"
	}
	if f.Order == "asc" {
		sb.OrderBy(orderBy + " ASC")
	} else {
		sb.OrderBy(orderBy + " DESC")
	}
	sb.Limit(limit)
	sb.Offset((page - 1) * limit)
	return sb
}

func (r *Repository) runSessionSearch(ctx context.Context, sb *sqlbuilder.SelectBuilder) (*charts.SessionList, error) {
	query, args := sb.Build()

	var rows []sessionRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("failed to search sessions")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to search sessions")
	}

	list := &charts.SessionList{Total: 0, Sessions: []json.RawMessage{}}
	for _, row := range rows {
		list.Total = row.Total
		list.Sessions = append(list.Sessions, row.Session)
	}
	return list, nil
}
