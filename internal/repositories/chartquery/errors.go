package chartquery

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"

	"github.com/Ramsey-B/fern/pkg/charts"
	"github.com/Ramsey-B/fern/pkg/filters"
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/tracing"
)

// Errors are grouped per error id with their occurrence stats folded in; the
// session range bounds which occurrences count.
const searchErrorsQuery = `
	SELECT row_to_json(t) AS error, count(1) OVER () AS total
	FROM (
		SELECT e.error_id, e.name, e.message, e.source,
		       count(DISTINCT ee.session_id) AS sessions,
		       count(1) AS occurrences,
		       max(ee.timestamp) AS last_occurrence,
		       min(ee.timestamp) AS first_occurrence
		FROM public.errors e
		JOIN events.errors ee ON ee.error_id = e.error_id
		JOIN public.sessions s ON s.session_id = ee.session_id
		WHERE e.project_id = $1
		  AND s.start_ts >= $2
		  AND s.start_ts <= $3
		GROUP BY e.error_id, e.name, e.message, e.source
		ORDER BY occurrences DESC
	) t
	LIMIT $4 OFFSET $5`

type errorRow struct {
	Error json.RawMessage `db:"error"`
	Total int64           `db:"total"`
}

// SearchErrors pages the errors whose occurrences fall in the filter's range,
// heaviest first.
func (r *Repository) SearchErrors(ctx context.Context, f filters.Filter, project models.ProjectContext, userID int64) (*charts.ErrorList, error) {
	ctx, span := tracing.StartSpan(ctx, "chartquery.Repository.SearchErrors")
	defer span.End()

	page := f.Page
	if page < 1 {
		page = 1
	}
	limit := f.Limit
	if limit < 1 {
		limit = defaultSessionLimit
	}

	var rows []errorRow
	err := r.db.SelectContext(ctx, &rows, searchErrorsQuery,
		project.ProjectID, f.StartTimestamp, f.EndTimestamp, limit, (page-1)*limit)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("failed to search errors")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to search errors")
	}

	list := &charts.ErrorList{Total: 0, Errors: []json.RawMessage{}}
	for _, row := range rows {
		list.Total = row.Total
		list.Errors = append(list.Errors, row.Error)
	}
	return list, nil
}
