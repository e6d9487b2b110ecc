package chartquery

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/huandu/go-sqlbuilder"

	"github.com/Ramsey-B/fern/pkg/charts"
	"github.com/Ramsey-B/fern/pkg/filters"
	"github.com/Ramsey-B/fern/pkg/tracing"
)

const clicksPayloadQuery = `
	SELECT COALESCE(jsonb_agg(jsonb_build_object(
	           'messageId', c.message_id,
	           'timestamp', c.timestamp,
	           'label', c.label,
	           'selector', c.selector,
	           'url', c.url
	       ) ORDER BY c.timestamp), '[]')
	FROM events.clicks c
	WHERE c.session_id = $1`

const selectedSessionQuery = `
	SELECT jsonb_build_object(
	           'session', row_to_json(s.*),
	           'clicks', COALESCE(c.clicks, '[]')
	       )
	FROM public.sessions s
	LEFT JOIN LATERAL (
		SELECT jsonb_agg(jsonb_build_object(
		           'messageId', cl.message_id,
		           'timestamp', cl.timestamp,
		           'label', cl.label,
		           'selector', cl.selector,
		           'url', cl.url
		       ) ORDER BY cl.timestamp) AS clicks
		FROM events.clicks cl
		WHERE cl.session_id = s.session_id
	) c ON TRUE
	WHERE s.session_id = $1
	  AND s.project_id = $2`

// SearchShortSession picks the click-heaviest session matching the filter to
// render a heat map over. No match is not an error; the card simply renders
// empty.
func (r *Repository) SearchShortSession(ctx context.Context, projectID, userID int64, f filters.Filter, includeRecordings bool) (*charts.HeatMapSession, error) {
	ctx, span := tracing.StartSpan(ctx, "chartquery.Repository.SearchShortSession")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select("s.session_id")
	sb.From("public.sessions s")
	sb.Where(
		sb.Equal("s.project_id", projectID),
		sb.IsNotNull("s.duration"),
	)
	if includeRecordings {
		sb.Where(sb.Equal("s.has_recording", true))
	}
	applyFilter(sb, f)
	sb.OrderBy("(SELECT count(1) FROM events.clicks c WHERE c.session_id = s.session_id) DESC")
	sb.Limit(1)

	query, args := sb.Build()
	var sessionID int64
	if err := r.db.GetContext(ctx, &sessionID, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		r.logger.WithContext(ctx).WithError(err).Error("failed to pick heat map session")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to pick heat map session")
	}

	var payload json.RawMessage
	if err := r.db.GetContext(ctx, &payload, clicksPayloadQuery, sessionID); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("failed to load heat map clicks")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to load heat map clicks")
	}

	return &charts.HeatMapSession{SessionID: sessionID, Payload: payload}, nil
}

// GetSelectedSession loads the pinned session of a heat-map card with its
// click payload.
func (r *Repository) GetSelectedSession(ctx context.Context, projectID, sessionID int64) (json.RawMessage, error) {
	ctx, span := tracing.StartSpan(ctx, "chartquery.Repository.GetSelectedSession")
	defer span.End()

	var payload json.RawMessage
	if err := r.db.GetContext(ctx, &payload, selectedSessionQuery, sessionID, projectID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, httperror.NewHTTPError(http.StatusNotFound, "session not found")
		}
		r.logger.WithContext(ctx).WithError(err).Error("failed to load selected session")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to load session")
	}
	return payload, nil
}
