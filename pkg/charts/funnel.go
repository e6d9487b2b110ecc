package charts

import (
	"context"
	"encoding/json"

	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/tracing"
)

// getFunnelChart evaluates the card's first series as a funnel. A card without
// series renders an empty funnel rather than an error, so dashboards stay
// renderable while a card is being built.
func (r *Renderer) getFunnelChart(ctx context.Context, project models.ProjectContext, def *models.CardDefinition, userID int64) (any, error) {
	ctx, span := tracing.StartSpan(ctx, "charts.Renderer.getFunnelChart")
	defer span.End()

	if len(def.Series) == 0 {
		return &FunnelResult{Stages: []json.RawMessage{}, TotalDropDueToIssues: 0}, nil
	}

	f := r.rangedFilter(def, def.Series[0].Filter)
	return r.funnels.Evaluate(ctx, project, f, def.MetricFormat)
}
