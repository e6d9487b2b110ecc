package charts

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"

	"github.com/Ramsey-B/fern/pkg/filters"
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/tracing"
)

// getTableChart dispatches a second time on the tabulated entity: sessions and
// errors render full search pages, everything else renders grouped series
// tables.
func (r *Renderer) getTableChart(ctx context.Context, project models.ProjectContext, def *models.CardDefinition, userID int64) (any, error) {
	ctx, span := tracing.StartSpan(ctx, "charts.Renderer.getTableChart")
	defer span.End()

	switch def.MetricOf {
	case models.MetricOfSessions:
		return r.getTableOfSessions(ctx, project, def, userID)
	case models.MetricOfErrors:
		return r.getTableOfErrors(ctx, project, def, userID)
	case models.MetricOfUserID, models.MetricOfIssues, models.MetricOfUserBrowser,
		models.MetricOfUserDevice, models.MetricOfUserCountry, models.MetricOfVisitedURL,
		models.MetricOfReferrer, models.MetricOfFetch:
		return r.getTableOfSeries(ctx, project, def)
	default:
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, fmt.Sprintf("unsupported metric of: %s", def.MetricOf))
	}
}

func (r *Renderer) getTableOfSessions(ctx context.Context, project models.ProjectContext, def *models.CardDefinition, userID int64) (*SessionList, error) {
	if len(def.Series) == 0 {
		return &SessionList{Total: 0, Sessions: []json.RawMessage{}}, nil
	}

	f := r.rangedFilter(def, def.Series[0].Filter)
	return r.sessions.SearchSessions(ctx, f, project, userID)
}

func (r *Renderer) getTableOfErrors(ctx context.Context, project models.ProjectContext, def *models.CardDefinition, userID int64) (*ErrorList, error) {
	if len(def.Series) == 0 {
		return &ErrorList{Total: 0, Errors: []json.RawMessage{}}, nil
	}

	f := r.rangedFilter(def, def.Series[0].Filter)
	return r.errors.SearchErrors(ctx, f, project, userID)
}

func (r *Renderer) getTableOfSeries(ctx context.Context, project models.ProjectContext, def *models.CardDefinition) ([]json.RawMessage, error) {
	tables := make([]json.RawMessage, 0, len(def.Series))
	for _, s := range def.Series {
		f := r.rangedFilter(def, s.Filter)
		table, err := r.tables.SearchTable(ctx, f, project.ProjectID, def.Density, def.MetricOf, def.MetricValue, def.MetricFormat)
		if err != nil {
			return nil, err
		}
		tables = append(tables, table)
	}
	return tables, nil
}

// rangedFilter flattens a series filter and stamps the card's range and paging
// onto it.
func (r *Renderer) rangedFilter(def *models.CardDefinition, f filters.Filter) filters.Filter {
	flat := filters.Flatten(f)
	flat.StartTimestamp = def.StartTimestamp
	flat.EndTimestamp = def.EndTimestamp
	flat.Page = def.Page
	flat.Limit = def.Limit
	return flat
}
