package charts

import (
	"context"
	"strconv"

	"github.com/Ramsey-B/fern/pkg/filters"
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/tracing"
)

// getTimeseriesChart queries every series over the same range and density and
// merges them bucket-by-bucket into rows keyed by timestamp plus series name.
// Unnamed series fall back to their 1-based position.
func (r *Renderer) getTimeseriesChart(ctx context.Context, project models.ProjectContext, def *models.CardDefinition, userID int64) (any, error) {
	ctx, span := tracing.StartSpan(ctx, "charts.Renderer.getTimeseriesChart")
	defer span.End()

	results := make([][]DataPoint, 0, len(def.Series))
	for _, s := range def.Series {
		f := filters.Flatten(s.Filter)
		f.StartTimestamp = def.StartTimestamp
		f.EndTimestamp = def.EndTimestamp

		points, err := r.series.SearchSeries(ctx, f, project.ProjectID, def.Density, def.MetricType, def.MetricOf, def.MetricValue)
		if err != nil {
			return nil, err
		}
		results = append(results, points)
	}

	return mergeSeries(def.Series, results), nil
}

// mergeSeries zips per-series buckets into one row per timestamp. All series
// are queried with identical range and density, so the bucket lists line up
// index-for-index.
func mergeSeries(series []models.SeriesDefinition, results [][]DataPoint) []map[string]any {
	rows := []map[string]any{}
	if len(results) == 0 {
		return rows
	}

	for i := range results[0] {
		row := map[string]any{"timestamp": results[0][i].Timestamp}
		for j, points := range results {
			if i >= len(points) {
				continue
			}
			key := series[j].Name
			if key == "" {
				key = strconv.Itoa(j + 1)
			}
			row[key] = points[i].Count
		}
		rows = append(rows, row)
	}
	return rows
}
