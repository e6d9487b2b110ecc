// Package sessionevent reads the per-source interaction events of a session
// and merges them into a single annotated timeline.
package sessionevent

import (
	"context"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/fern/pkg/database"
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/tracing"
)

// Repository handles session event reads
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new session event repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// Every source stores its own table with its own payload columns; each query
// projects them onto the shared event shape.
const (
	clicksQuery = `
		SELECT message_id, session_id, timestamp, label, url
		FROM events.clicks
		WHERE session_id = $1
		ORDER BY timestamp, message_id`

	inputsQuery = `
		SELECT message_id, session_id, timestamp, label
		FROM events.inputs
		WHERE session_id = $1
		ORDER BY timestamp, message_id`

	pagesQuery = `
		SELECT message_id, session_id, timestamp, path AS url
		FROM events.pages
		WHERE session_id = $1
		ORDER BY timestamp, message_id`

	customsQuery = `
		SELECT message_id, session_id, timestamp, name AS label, payload AS value
		FROM events.customs
		WHERE session_id = $1
		ORDER BY timestamp, message_id`

	errorsQuery = `
		SELECT er.message_id, er.session_id, er.timestamp,
		       e.name AS label, e.message AS value
		FROM events.errors er
		JOIN public.errors e ON e.error_id = er.error_id
		WHERE er.session_id = $1
		ORDER BY er.timestamp, er.message_id`

	clickRageIssuesQuery = `
		SELECT ei.issue_id, ei.session_id, ei.timestamp, i.context_string, ei.payload
		FROM events_common.issues ei
		JOIN public.issues i ON i.issue_id = ei.issue_id
		WHERE ei.session_id = $1
		  AND i.type = 'click_rage'
		ORDER BY ei.timestamp`
)

var sourceQueries = map[models.EventType]string{
	models.EventTypeClick:    clicksQuery,
	models.EventTypeInput:    inputsQuery,
	models.EventTypeLocation: pagesQuery,
}

// defaultSources is the timeline rendered when the caller does not pick event
// types explicitly.
var defaultSources = []models.EventType{
	models.EventTypeClick,
	models.EventTypeInput,
	models.EventTypeLocation,
}

// GetBySession merges the session's events from the requested sources into one
// timeline ordered by (timestamp, message id). With groupClickRage set, runs
// of rapid repeated clicks flagged by the issue detector are collapsed into
// single CLICKRAGE rows.
func (r *Repository) GetBySession(ctx context.Context, projectID, sessionID int64, types []models.EventType, groupClickRage bool) ([]models.SessionEvent, error) {
	ctx, span := tracing.StartSpan(ctx, "sessionevent.Repository.GetBySession")
	defer span.End()

	log := r.logger.WithContext(ctx).WithFields(map[string]any{
		"method":     "GetBySession",
		"project_id": projectID,
		"session_id": sessionID,
	})

	if len(types) == 0 {
		types = defaultSources
	}

	merged := []models.SessionEvent{}
	for _, t := range types {
		query, ok := sourceQueries[t]
		if !ok {
			continue
		}

		var events []models.SessionEvent
		if err := r.db.SelectContext(ctx, &events, query, sessionID); err != nil {
			log.WithError(err).WithField("event_type", t).Error("failed to query session events")
			return nil, err
		}
		for i := range events {
			events[i].Type = string(t)
		}
		merged = MergeTimelines(merged, events)
	}

	if !groupClickRage {
		return merged, nil
	}

	issues, err := r.getClickRageIssues(ctx, sessionID)
	if err != nil {
		log.WithError(err).Error("failed to query click rage issues")
		return nil, err
	}

	return SpliceClickRage(merged, issues), nil
}

// GetErrorsBySession returns the session's error events with their error
// details joined in.
func (r *Repository) GetErrorsBySession(ctx context.Context, projectID, sessionID int64) ([]models.SessionEvent, error) {
	ctx, span := tracing.StartSpan(ctx, "sessionevent.Repository.GetErrorsBySession")
	defer span.End()

	var events []models.SessionEvent
	if err := r.db.SelectContext(ctx, &events, errorsQuery, sessionID); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithField("session_id", sessionID).Error("failed to query session errors")
		return nil, err
	}
	for i := range events {
		events[i].Type = string(models.EventTypeError)
	}
	return events, nil
}

// GetCustomsBySession returns the session's custom instrumentation events.
func (r *Repository) GetCustomsBySession(ctx context.Context, projectID, sessionID int64) ([]models.SessionEvent, error) {
	ctx, span := tracing.StartSpan(ctx, "sessionevent.Repository.GetCustomsBySession")
	defer span.End()

	var events []models.SessionEvent
	if err := r.db.SelectContext(ctx, &events, customsQuery, sessionID); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithField("session_id", sessionID).Error("failed to query session customs")
		return nil, err
	}
	for i := range events {
		events[i].Type = string(models.EventTypeCustom)
	}
	return events, nil
}

type clickRageRow struct {
	IssueID       string                         `db:"issue_id"`
	SessionID     int64                          `db:"session_id"`
	Timestamp     int64                          `db:"timestamp"`
	ContextString *string                        `db:"context_string"`
	Payload       database.JSONB[map[string]any] `db:"payload"`
}

func (r *Repository) getClickRageIssues(ctx context.Context, sessionID int64) ([]models.ClickRageIssue, error) {
	var rows []clickRageRow
	if err := r.db.SelectContext(ctx, &rows, clickRageIssuesQuery, sessionID); err != nil {
		return nil, err
	}

	issues := make([]models.ClickRageIssue, 0, len(rows))
	for _, row := range rows {
		issue := models.ClickRageIssue{
			IssueID:   row.IssueID,
			SessionID: row.SessionID,
			Timestamp: row.Timestamp,
		}
		if row.Payload.Valid {
			issue.Payload = row.Payload.Data
		}
		issues = append(issues, issue)
	}
	return issues, nil
}
