package chartquery

import (
	"context"
	"fmt"
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/huandu/go-sqlbuilder"

	"github.com/Ramsey-B/fern/pkg/charts"
	"github.com/Ramsey-B/fern/pkg/filters"
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/tracing"
)

const defaultDensity = 7

type bucketRow struct {
	Bucket int     `db:"bucket"`
	Count  float64 `db:"count"`
}

// SearchSeries buckets the sessions matching a filter into density equal time
// slices over the filter's range. Empty buckets come back zeroed, so every
// series of a card has the same bucket count.
func (r *Repository) SearchSeries(ctx context.Context, f filters.Filter, projectID int64, density int, metricType models.MetricType, metricOf models.MetricOfTable, metricValue []string) ([]charts.DataPoint, error) {
	ctx, span := tracing.StartSpan(ctx, "chartquery.Repository.SearchSeries")
	defer span.End()

	if density <= 0 {
		density = defaultDensity
	}
	if f.EndTimestamp <= f.StartTimestamp {
		return []charts.DataPoint{}, nil
	}

	countExpr := "count(1)"
	if f.GroupByUser {
		countExpr = "count(DISTINCT s.user_id)"
	}

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(
		fmt.Sprintf("width_bucket(s.start_ts, %d, %d, %d) AS bucket", f.StartTimestamp, f.EndTimestamp, density),
		countExpr+" AS count",
	)
	sb.From("public.sessions s")
	sb.Where(sb.Equal("s.project_id", projectID))
	applyFilter(sb, f)
	sb.GroupBy("bucket")

	query, args := sb.Build()
	var rows []bucketRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("failed to query series buckets")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to query series")
	}

	counts := make(map[int]float64, len(rows))
	for _, row := range rows {
		counts[row.Bucket] = row.Count
	}

	step := (f.EndTimestamp - f.StartTimestamp) / int64(density)
	points := make([]charts.DataPoint, density)
	for i := 0; i < density; i++ {
		points[i] = charts.DataPoint{
			Timestamp: f.StartTimestamp + int64(i)*step,
			Count:     counts[i+1], // width_bucket is 1-based
		}
	}
	// the range end lands in bucket density+1; fold it into the last slice
	points[density-1].Count += counts[density+1]
	return points, nil
}
