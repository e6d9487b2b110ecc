package charts

import (
	"context"

	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/tracing"
)

// getHeatMapChart picks the session the heat map renders over. A card without
// series renders nothing.
func (r *Renderer) getHeatMapChart(ctx context.Context, project models.ProjectContext, def *models.CardDefinition, userID int64) (any, error) {
	ctx, span := tracing.StartSpan(ctx, "charts.Renderer.getHeatMapChart")
	defer span.End()

	session, err := r.searchHeatMapSession(ctx, project, def, userID, true)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, nil
	}
	return session, nil
}

// ProbeSession runs the heat-map session search without recordings, used at
// card creation to pin the session the card will render over.
func (r *Renderer) ProbeSession(ctx context.Context, project models.ProjectContext, def *models.CardDefinition, userID int64) (*HeatMapSession, error) {
	ctx, span := tracing.StartSpan(ctx, "charts.Renderer.ProbeSession")
	defer span.End()

	return r.searchHeatMapSession(ctx, project, def, userID, false)
}

func (r *Renderer) searchHeatMapSession(ctx context.Context, project models.ProjectContext, def *models.CardDefinition, userID int64, includeRecordings bool) (*HeatMapSession, error) {
	if len(def.Series) == 0 {
		return nil, nil
	}

	// the session search has no separate events concept, so event entries are
	// folded into the plain filter list before searching
	f := r.rangedFilter(def, def.Series[0].Filter)

	return r.heatmaps.SearchShortSession(ctx, project.ProjectID, userID, f, includeRecordings)
}
