package card

import (
	"context"
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/huandu/go-sqlbuilder"

	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/tracing"
)

const (
	defaultSearchLimit = 9
	maxSearchLimit     = 100
)

// sortFields whitelists the caller-facing sort keys against the columns they
// order by.
var sortFields = map[string]string{
	"name":      "m.name",
	"createdAt": "m.created_at",
	"editedAt":  "m.edited_at",
}

type searchRow struct {
	models.Card
	Total int64 `db:"total"`
}

// Search pages the cards visible to the user. The cross-page total rides along
// on every row via a window aggregate, so one query serves both the page and
// the count.
func (r *Repository) Search(ctx context.Context, projectID, userID int64, req models.CardSearchRequest) (*models.CardSearchResult, error) {
	ctx, span := tracing.StartSpan(ctx, "card.Repository.Search")
	defer span.End()

	log := r.logger.WithContext(ctx).WithFields(map[string]any{
		"method":     "Search",
		"project_id": projectID,
		"user_id":    userID,
	})

	if req.Page < 1 {
		req.Page = 1
	}
	if req.Limit < 1 {
		req.Limit = defaultSearchLimit
	}
	if req.Limit > maxSearchLimit {
		req.Limit = maxSearchLimit
	}

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(
		"m.metric_id", "m.project_id", "m.user_id", "m.name", "m.is_public", "m.view_type",
		"m.metric_type", "m.metric_of", "m.metric_value", "m.metric_format",
		"m.default_config", "m.thumbnail", "m.card_info", "m.created_at", "m.edited_at",
		"u.email AS owner_email", "u.name AS owner_name",
		"COALESCE(s.series, '[]') AS series",
		"COALESCE(d.dashboards, '[]') AS dashboards",
		"count(1) OVER () AS total",
	)
	sb.From("public.metrics m")
	sb.JoinWithOption(sqlbuilder.LeftJoin, "public.users u", "u.user_id = m.user_id")
	sb.JoinWithOption(sqlbuilder.LeftJoin, `LATERAL (
		SELECT jsonb_agg(jsonb_build_object(
		           'seriesId', ms.series_id,
		           'metricId', ms.metric_id,
		           'index', ms.index,
		           'name', ms.name,
		           'filter', ms.filter
		       ) ORDER BY ms.index) AS series
		FROM public.metric_series ms
		WHERE ms.metric_id = m.metric_id
		  AND ms.deleted_at IS NULL
	) s`, "TRUE")
	sb.JoinWithOption(sqlbuilder.LeftJoin, `LATERAL (
		SELECT jsonb_agg(jsonb_build_object(
		           'dashboardId', dw.dashboard_id,
		           'name', db.name,
		           'isPublic', db.is_public
		       )) AS dashboards
		FROM public.dashboard_widgets dw
		JOIN public.dashboards db ON db.dashboard_id = dw.dashboard_id
		  AND db.deleted_at IS NULL
		WHERE dw.metric_id = m.metric_id
	) d`, "TRUE")

	conditions := []string{
		sb.Equal("m.project_id", projectID),
		sb.IsNull("m.deleted_at"),
	}
	switch {
	case req.MineOnly:
		conditions = append(conditions, sb.Equal("m.user_id", userID))
	case req.SharedOnly:
		conditions = append(conditions, sb.Equal("m.is_public", true))
	default:
		conditions = append(conditions, sb.Or(sb.Equal("m.user_id", userID), sb.Equal("m.is_public", true)))
	}
	if req.Query != "" {
		pattern := "%" + req.Query + "%"
		conditions = append(conditions, sb.Or(sb.ILike("m.name", pattern), sb.ILike("u.email", pattern)))
	}
	if req.MetricType != nil {
		conditions = append(conditions, sb.Equal("m.metric_type", *req.MetricType))
	}
	sb.Where(conditions...)

	orderBy, ok := sortFields[req.SortField]
	if !ok {
		orderBy = "m.created_at"
	}
	if req.SortOrder == "asc" {
		sb.OrderBy(orderBy + " ASC")
	} else {
		sb.OrderBy(orderBy + " DESC")
	}

	sb.Limit(req.Limit)
	sb.Offset((req.Page - 1) * req.Limit)

	query, args := sb.Build()
	var rows []searchRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		log.WithError(err).Error("failed to search cards")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to search cards")
	}

	result := &models.CardSearchResult{Total: 0, List: []models.CardView{}}
	for _, row := range rows {
		result.Total = row.Total
		result.List = append(result.List, *toView(&row.Card, GetOptions{}))
	}
	return result, nil
}
