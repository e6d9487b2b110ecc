package chartquery

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/huandu/go-sqlbuilder"

	"github.com/Ramsey-B/fern/pkg/filters"
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/tracing"
)

const defaultTableRows = 10

// tableSessionColumns are the table kinds grouped on a session column.
var tableSessionColumns = map[models.MetricOfTable]string{
	models.MetricOfUserID:      "s.user_id",
	models.MetricOfUserBrowser: "s.user_browser",
	models.MetricOfUserDevice:  "s.user_device",
	models.MetricOfUserCountry: "s.user_country",
	models.MetricOfReferrer:    "s.referrer",
}

// tableEventSources are the table kinds grouped on an event table column.
var tableEventSources = map[models.MetricOfTable]eventSource{
	models.MetricOfVisitedURL: {"events.pages", "path"},
	models.MetricOfFetch:      {"events.requests", "url"},
}

type tableValue struct {
	Name     string `db:"name" json:"name"`
	Sessions int64  `db:"session_count" json:"sessionCount"`
	Total    int64  `db:"total" json:"-"`
}

type tableResult struct {
	Total  int64        `json:"total"`
	Values []tableValue `json:"values"`
}

// SearchTable renders one grouped series table: the top values of the
// tabulated entity with their session counts.
func (r *Repository) SearchTable(ctx context.Context, f filters.Filter, projectID int64, density int, metricOf models.MetricOfTable, metricValue []string, metricFormat string) (json.RawMessage, error) {
	ctx, span := tracing.StartSpan(ctx, "chartquery.Repository.SearchTable")
	defer span.End()

	limit := f.Limit
	if limit < 1 {
		limit = defaultTableRows
	}

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	switch {
	case tableSessionColumns[metricOf] != "":
		column := tableSessionColumns[metricOf]
		sb.Select(column+" AS name", "count(1) AS session_count", "count(1) OVER () AS total")
		sb.From("public.sessions s")
		sb.Where(sb.IsNotNull(column))
		sb.GroupBy(column)
	case tableEventSources[metricOf].table != "":
		src := tableEventSources[metricOf]
		sb.Select("e."+src.column+" AS name", "count(DISTINCT s.session_id) AS session_count", "count(1) OVER () AS total")
		sb.From("public.sessions s")
		sb.Join(src.table+" e", "e.session_id = s.session_id")
		sb.GroupBy("e." + src.column)
	case metricOf == models.MetricOfIssues:
		sb.Select("i.type AS name", "count(DISTINCT s.session_id) AS session_count", "count(1) OVER () AS total")
		sb.From("public.sessions s")
		sb.Join("events_common.issues ei", "ei.session_id = s.session_id")
		sb.Join("public.issues i", "i.issue_id = ei.issue_id")
		sb.GroupBy("i.type")
	default:
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, fmt.Sprintf("unsupported table metric: %s", metricOf))
	}

	sb.Where(sb.Equal("s.project_id", projectID))
	applyFilter(sb, f)
	sb.OrderBy("session_count DESC")
	sb.Limit(limit)

	query, args := sb.Build()
	var values []tableValue
	if err := r.db.SelectContext(ctx, &values, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("failed to query table")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to query table")
	}

	result := tableResult{Total: 0, Values: values}
	if result.Values == nil {
		result.Values = []tableValue{}
	}
	if len(values) > 0 {
		result.Total = values[0].Total
	}
	return json.Marshal(result)
}
