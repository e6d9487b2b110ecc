package charts

import (
	"context"

	"github.com/Ramsey-B/fern/pkg/filters"
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/tracing"
)

// getPathAnalysisChart builds the navigation graph for a card. Cards saved
// before path analysis got its own filter shape may carry an ordinary session
// filter on their series; those are replaced with an empty path filter over
// the card's range, as is a missing series.
func (r *Renderer) getPathAnalysisChart(ctx context.Context, project models.ProjectContext, def *models.CardDefinition, userID int64) (any, error) {
	ctx, span := tracing.StartSpan(ctx, "charts.Renderer.getPathAnalysisChart")
	defer span.End()

	prepared := *def
	if len(def.Series) == 0 {
		prepared.Series = []models.SeriesDefinition{{Filter: defaultPathFilter(def.StartTimestamp, def.EndTimestamp)}}
	} else if !isPathShaped(def.Series[0].Filter) {
		prepared.Series = append([]models.SeriesDefinition{}, def.Series...)
		prepared.Series[0].Filter = defaultPathFilter(def.StartTimestamp, def.EndTimestamp)
	}

	return r.paths.PathAnalysis(ctx, project.ProjectID, &prepared)
}

// isPathShaped reports whether a series filter was written for path analysis.
// Ordinary session filters carry an events order and event entries; path
// filters never do.
func isPathShaped(f filters.Filter) bool {
	if len(f.Events) > 0 || f.EventsOrder != "" {
		return false
	}
	for _, entry := range f.Filters {
		if entry.IsEvent {
			return false
		}
	}
	return true
}

func defaultPathFilter(startTimestamp, endTimestamp int64) filters.Filter {
	return filters.Filter{
		StartTimestamp: startTimestamp,
		EndTimestamp:   endTimestamp,
		Filters:        []filters.Entry{},
	}
}
