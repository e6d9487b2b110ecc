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
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/tracing"
)

// significantShare is the share of entered sessions an issue must affect to
// count as significant.
const significantShare = 0.05

type funnelStage struct {
	Type          string   `json:"type"`
	Operator      string   `json:"operator,omitempty"`
	Value         []string `json:"value"`
	SessionsCount int64    `json:"sessionsCount"`
	DropPct       float64  `json:"dropPct"`
}

// Evaluate counts the sessions surviving each event stage of the filter, in
// order. The drop attributed to issues is the sessions that entered the
// funnel, hit an issue, and never reached the last stage.
func (r *Repository) Evaluate(ctx context.Context, project models.ProjectContext, f filters.Filter, metricFormat string) (*charts.FunnelResult, error) {
	ctx, span := tracing.StartSpan(ctx, "chartquery.Repository.Evaluate")
	defer span.End()

	base, stages := splitFunnelFilter(f)
	result := &charts.FunnelResult{Stages: []json.RawMessage{}, TotalDropDueToIssues: 0}
	if len(stages) == 0 {
		return result, nil
	}

	var previous int64
	for i := range stages {
		count, err := r.countSessions(ctx, project.ProjectID, base, stages[:i+1])
		if err != nil {
			return nil, err
		}

		stage := funnelStage{
			Type:          stages[i].Type,
			Operator:      string(stages[i].Operator),
			Value:         stages[i].Value,
			SessionsCount: count,
		}
		if i > 0 && previous > 0 {
			stage.DropPct = float64(previous-count) / float64(previous) * 100
		}
		previous = count

		encoded, err := json.Marshal(stage)
		if err != nil {
			return nil, err
		}
		result.Stages = append(result.Stages, encoded)
	}

	if len(stages) > 1 {
		drop, err := r.countIssueDrop(ctx, project.ProjectID, base, stages)
		if err != nil {
			return nil, err
		}
		result.TotalDropDueToIssues = drop
	}

	return result, nil
}

// countIssueDrop counts the sessions that entered the funnel, hit an issue,
// and never reached the last stage.
func (r *Repository) countIssueDrop(ctx context.Context, projectID int64, base filters.Filter, stages []filters.Entry) (int64, error) {
	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select("count(1)")
	sb.From("public.sessions s")
	sb.Where(sb.Equal("s.project_id", projectID))
	applyFilter(sb, base)
	if cond := entryCondition(sb, stages[0]); cond != "" {
		sb.Where(cond)
	}
	sb.Where("EXISTS (SELECT 1 FROM events_common.issues ei WHERE ei.session_id = s.session_id)")
	if last := entryCondition(sb, stages[len(stages)-1]); last != "" {
		sb.Where("NOT (" + last + ")")
	}

	query, args := sb.Build()
	var count int64
	if err := r.db.GetContext(ctx, &count, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("failed to count issue drop")
		return 0, httperror.NewHTTPError(http.StatusInternalServerError, "failed to evaluate funnel")
	}
	return count, nil
}

// IssuesOnTheFly aggregates the issues hitting the sessions that enter the
// funnel and splits them by the share of sessions they affect.
func (r *Repository) IssuesOnTheFly(ctx context.Context, projectID int64, f filters.Filter) (*charts.FunnelIssues, error) {
	ctx, span := tracing.StartSpan(ctx, "chartquery.Repository.IssuesOnTheFly")
	defer span.End()

	base, stages := splitFunnelFilter(f)

	enterStages := stages
	if len(enterStages) > 1 {
		enterStages = enterStages[:1]
	}
	entered, err := r.countSessions(ctx, projectID, base, enterStages)
	if err != nil {
		return nil, err
	}

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select("i.issue_id", "i.type", "i.context_string", "count(DISTINCT ei.session_id) AS affected")
	sb.From("public.sessions s")
	sb.Join("events_common.issues ei", "ei.session_id = s.session_id")
	sb.Join("public.issues i", "i.issue_id = ei.issue_id")
	sb.Where(sb.Equal("s.project_id", projectID))
	applyFilter(sb, base)
	if len(stages) > 0 {
		if cond := entryCondition(sb, stages[0]); cond != "" {
			sb.Where(cond)
		}
	}
	sb.GroupBy("i.issue_id", "i.type", "i.context_string")
	sb.OrderBy("affected DESC")

	query, args := sb.Build()
	var rows []struct {
		IssueID       string  `db:"issue_id"`
		Type          string  `db:"type"`
		ContextString *string `db:"context_string"`
		Affected      int64   `db:"affected"`
	}
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("failed to aggregate funnel issues")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to aggregate funnel issues")
	}

	issues := &charts.FunnelIssues{Significant: []map[string]any{}, Insignificant: []map[string]any{}}
	for _, row := range rows {
		issue := map[string]any{
			"issueId":            row.IssueID,
			"type":               row.Type,
			"affectedSessions":   row.Affected,
			"unaffectedSessions": entered - row.Affected,
		}
		if row.ContextString != nil {
			issue["contextString"] = *row.ContextString
		}
		if entered > 0 && float64(row.Affected)/float64(entered) >= significantShare {
			issues.Significant = append(issues.Significant, issue)
		} else {
			issues.Insignificant = append(issues.Insignificant, issue)
		}
	}
	return issues, nil
}

// GetIssue resolves one issue by id.
func (r *Repository) GetIssue(ctx context.Context, projectID int64, issueID string) (map[string]any, error) {
	ctx, span := tracing.StartSpan(ctx, "chartquery.Repository.GetIssue")
	defer span.End()

	query := `
		SELECT issue_id, type, context_string
		FROM public.issues
		WHERE project_id = $1 AND issue_id = $2`

	var row struct {
		IssueID       string  `db:"issue_id"`
		Type          string  `db:"type"`
		ContextString *string `db:"context_string"`
	}
	if err := r.db.GetContext(ctx, &row, query, projectID, issueID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// an unknown issue is not an error; the caller reports it as absent
			return nil, nil
		}
		r.logger.WithContext(ctx).WithError(err).Error("failed to get issue")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get issue")
	}

	issue := map[string]any{
		"issueId": row.IssueID,
		"type":    row.Type,
	}
	if row.ContextString != nil {
		issue["contextString"] = *row.ContextString
	}
	return issue, nil
}

// splitFunnelFilter separates the session-level conditions from the ordered
// event stages.
func splitFunnelFilter(f filters.Filter) (filters.Filter, []filters.Entry) {
	flat := filters.Flatten(f)
	base := flat
	base.Filters = nil

	var stages []filters.Entry
	for _, entry := range flat.Filters {
		if entry.IsEvent {
			stages = append(stages, entry)
		} else {
			base.Filters = append(base.Filters, entry)
		}
	}
	return base, stages
}

func (r *Repository) countSessions(ctx context.Context, projectID int64, base filters.Filter, stages []filters.Entry) (int64, error) {
	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select("count(1)")
	sb.From("public.sessions s")
	sb.Where(sb.Equal("s.project_id", projectID))
	applyFilter(sb, base)
	for _, stage := range stages {
		if cond := entryCondition(sb, stage); cond != "" {
			sb.Where(cond)
		}
	}
	query, args := sb.Build()
	var count int64
	if err := r.db.GetContext(ctx, &count, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("failed to count funnel sessions")
		return 0, httperror.NewHTTPError(http.StatusInternalServerError, "failed to evaluate funnel")
	}
	return count, nil
}
