package card

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"

	"github.com/Ramsey-B/fern/pkg/cardinfo"
	"github.com/Ramsey-B/fern/pkg/filters"
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/tracing"
)

// GetOptions tunes what a card read projects into the view.
type GetOptions struct {
	// IncludeData exposes the raw data payload (the heat-map session pin)
	IncludeData bool
	// FlattenFilters migrates legacy nested series filters into the flat shape
	FlattenFilters bool
}

// The series and dashboard joins run per matched row, so they sit behind
// LATERAL subqueries instead of fanning out the main query.
const getCardQuery = `
	SELECT m.metric_id, m.project_id, m.user_id, m.name, m.is_public, m.view_type,
	       m.metric_type, m.metric_of, m.metric_value, m.metric_format,
	       m.default_config, m.thumbnail, m.data, m.card_info,
	       m.created_at, m.edited_at,
	       u.email AS owner_email, u.name AS owner_name,
	       COALESCE(s.series, '[]') AS series,
	       COALESCE(d.dashboards, '[]') AS dashboards
	FROM public.metrics m
	LEFT JOIN public.users u ON u.user_id = m.user_id
	LEFT JOIN LATERAL (
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
	) s ON TRUE
	LEFT JOIN LATERAL (
		SELECT jsonb_agg(jsonb_build_object(
		           'dashboardId', dw.dashboard_id,
		           'name', db.name,
		           'isPublic', db.is_public
		       )) AS dashboards
		FROM public.dashboard_widgets dw
		JOIN public.dashboards db ON db.dashboard_id = dw.dashboard_id
		  AND db.deleted_at IS NULL
		WHERE dw.metric_id = m.metric_id
	) d ON TRUE
	WHERE m.metric_id = $1
	  AND m.project_id = $2
	  AND m.deleted_at IS NULL
	  AND (m.user_id = $3 OR m.is_public)`

// Get loads a card visible to the user: their own or any public card of the
// project.
func (r *Repository) Get(ctx context.Context, projectID, metricID, userID int64, opts GetOptions) (*models.CardView, error) {
	ctx, span := tracing.StartSpan(ctx, "card.Repository.Get")
	defer span.End()

	var row models.Card
	if err := r.db.GetContext(ctx, &row, getCardQuery, metricID, projectID, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, httperror.NewHTTPError(http.StatusNotFound, fmt.Sprintf("card %d not found", metricID))
		}
		r.logger.WithContext(ctx).WithError(err).WithField("metric_id", metricID).Error("failed to get card")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get card")
	}

	return toView(&row, opts), nil
}

// toView projects a persisted row into the API shape: millisecond timestamps,
// defaulted collections and the card_info envelope decoded into flat
// attributes.
func toView(c *models.Card, opts GetOptions) *models.CardView {
	view := &models.CardView{
		MetricID:     c.MetricID,
		ProjectID:    c.ProjectID,
		UserID:       c.UserID,
		Name:         c.Name,
		IsPublic:     c.IsPublic,
		ViewType:     c.ViewType,
		MetricType:   c.MetricType,
		MetricOf:     c.MetricOf,
		MetricValue:  []string{},
		MetricFormat: c.MetricFormat,
		Config:       map[string]any{},
		Thumbnail:    c.Thumbnail,
		Series:       []models.Series{},
		Dashboards:   []models.DashboardRef{},
		OwnerEmail:   c.OwnerEmail,
		CreatedAt:    c.CreatedAt.UnixMilli(),
		EditedAt:     c.EditedAt.UnixMilli(),
	}

	if c.MetricValue.Valid && c.MetricValue.Data != nil {
		view.MetricValue = c.MetricValue.Data
	}
	if c.DefaultConfig.Valid && c.DefaultConfig.Data != nil {
		view.Config = c.DefaultConfig.Data
	}
	if c.Series.Valid && c.Series.Data != nil {
		view.Series = c.Series.Data
	}
	if c.Dashboards.Valid && c.Dashboards.Data != nil {
		view.Dashboards = c.Dashboards.Data
	}

	if opts.FlattenFilters {
		for i := range view.Series {
			view.Series[i].Filter = filters.Flatten(view.Series[i].Filter)
		}
	}

	cardinfo.Decode(view, c.CardInfo.Data, c.CardInfo.Valid)

	if opts.IncludeData && c.Data.Valid {
		view.Data = c.Data.Data
	}

	return view
}
