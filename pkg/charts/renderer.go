package charts

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/fern/pkg/filters"
	"github.com/Ramsey-B/fern/pkg/metrics"
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/tracing"
)

type chartHandler func(ctx context.Context, project models.ProjectContext, def *models.CardDefinition, userID int64) (any, error)

// Renderer routes card definitions to the executor matching their kind and
// composes the results into response payloads.
type Renderer struct {
	sessions SessionSearcher
	errors   ErrorSearcher
	series   SeriesQuerier
	tables   TableQuerier
	funnels  FunnelEvaluator
	heatmaps HeatMapSearcher
	paths    PathAnalysisExecutor
	issues   IssueLookup
	logger   ectologger.Logger

	handlers map[models.MetricType]chartHandler
}

// NewRenderer creates a chart renderer over the given executors
func NewRenderer(
	sessions SessionSearcher,
	errors ErrorSearcher,
	series SeriesQuerier,
	tables TableQuerier,
	funnels FunnelEvaluator,
	heatmaps HeatMapSearcher,
	paths PathAnalysisExecutor,
	issues IssueLookup,
	logger ectologger.Logger,
) *Renderer {
	r := &Renderer{
		sessions: sessions,
		errors:   errors,
		series:   series,
		tables:   tables,
		funnels:  funnels,
		heatmaps: heatmaps,
		paths:    paths,
		issues:   issues,
		logger:   logger,
	}
	r.handlers = map[models.MetricType]chartHandler{
		models.MetricTypeTimeseries:   r.getTimeseriesChart,
		models.MetricTypeTable:        r.getTableChart,
		models.MetricTypeHeatMap:      r.getHeatMapChart,
		models.MetricTypeFunnel:       r.getFunnelChart,
		models.MetricTypePathAnalysis: r.getPathAnalysisChart,
	}
	return r
}

// GetChart renders a card definition into its chart payload. Unknown kinds are
// a server fault: the definition was validated before it got here.
func (r *Renderer) GetChart(ctx context.Context, project models.ProjectContext, def *models.CardDefinition, userID int64) (any, error) {
	ctx, span := tracing.StartSpan(ctx, "charts.Renderer.GetChart")
	defer span.End()

	log := r.logger.WithContext(ctx).WithFields(map[string]any{
		"method":      "GetChart",
		"project_id":  project.ProjectID,
		"metric_type": def.MetricType,
		"metric_of":   def.MetricOf,
	})

	handler, ok := r.handlers[def.MetricType]
	if !ok {
		log.Warn("unsupported metric type")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, fmt.Sprintf("unsupported metric type: %s", def.MetricType))
	}

	result, err := handler(ctx, project, def, userID)
	if err != nil {
		metrics.ChartRenderErrors.WithLabelValues(string(def.MetricType)).Inc()
		log.WithError(err).Error("failed to render chart")
		return nil, err
	}

	metrics.ChartRenders.WithLabelValues(string(def.MetricType)).Inc()
	return result, nil
}

// RenderSaved renders a persisted card with the request's range and paging
// overrides. A heat map with a pinned session short-circuits straight to the
// stored session instead of searching for one.
func (r *Renderer) RenderSaved(ctx context.Context, project models.ProjectContext, view *models.CardView, req models.CardChartRequest, userID int64) (any, error) {
	ctx, span := tracing.StartSpan(ctx, "charts.Renderer.RenderSaved")
	defer span.End()

	if view.MetricType == models.MetricTypeHeatMap && view.Data != nil && view.Data.SessionID != 0 {
		metrics.ChartRenders.WithLabelValues(string(view.MetricType)).Inc()
		return r.heatmaps.GetSelectedSession(ctx, project.ProjectID, view.Data.SessionID)
	}

	def := view.Definition()
	def.StartTimestamp = req.StartTimestamp
	def.EndTimestamp = req.EndTimestamp
	def.Density = req.Density
	def.Page = req.Page
	def.Limit = req.Limit

	return r.GetChart(ctx, project, &def, userID)
}

// GetCardSessions resolves the sessions behind each submitted series of a
// saved card, with the request's range applied over the stored filters.
func (r *Renderer) GetCardSessions(ctx context.Context, project models.ProjectContext, req models.CardSessionsRequest, userID int64) ([]SeriesSessions, error) {
	ctx, span := tracing.StartSpan(ctx, "charts.Renderer.GetCardSessions")
	defer span.End()

	return r.sessionsBySeries(ctx, project, req, userID, true)
}

// GetSessionsList resolves the sessions behind an unsaved card. The request's
// extra filter entries are folded into every series before searching.
func (r *Renderer) GetSessionsList(ctx context.Context, project models.ProjectContext, req models.CardSessionsRequest, userID int64) ([]SeriesSessions, error) {
	ctx, span := tracing.StartSpan(ctx, "charts.Renderer.GetSessionsList")
	defer span.End()

	if len(req.Filters) > 0 {
		for i := range req.Series {
			req.Series[i].Filter.Filters = append(req.Series[i].Filter.Filters, req.Filters...)
		}
	}

	return r.sessionsBySeries(ctx, project, req, userID, false)
}

func (r *Renderer) sessionsBySeries(ctx context.Context, project models.ProjectContext, req models.CardSessionsRequest, userID int64, keepIDs bool) ([]SeriesSessions, error) {
	results := make([]SeriesSessions, 0, len(req.Series))
	for _, s := range req.Series {
		f := filters.Flatten(s.Filter)
		f.StartTimestamp = req.StartTimestamp
		f.EndTimestamp = req.EndTimestamp
		f.Page = req.Page
		f.Limit = req.Limit

		list, err := r.sessions.SearchSessions(ctx, f, project, userID)
		if err != nil {
			return nil, err
		}

		item := SeriesSessions{SeriesName: s.Name, SessionList: *list}
		if keepIDs {
			item.SeriesID = s.SeriesID
		}
		results = append(results, item)
	}
	return results, nil
}

// GetFunnelIssueSessions resolves the sessions behind one issue of a funnel
// card. The issue is looked up among the funnel's on-the-fly issues first;
// when it is no longer significant there, the detector's record is returned
// with zeroed funnel impact.
func (r *Renderer) GetFunnelIssueSessions(ctx context.Context, project models.ProjectContext, req models.CardSessionsRequest, issueID string, userID int64) (*IssueSessions, error) {
	ctx, span := tracing.StartSpan(ctx, "charts.Renderer.GetFunnelIssueSessions")
	defer span.End()

	log := r.logger.WithContext(ctx).WithFields(map[string]any{
		"method":     "GetFunnelIssueSessions",
		"project_id": project.ProjectID,
		"issue_id":   issueID,
	})

	if len(req.Series) == 0 {
		return nil, httperror.NewHTTPError(http.StatusUnprocessableEntity, "card has no series")
	}

	series := req.Series[0]
	f := filters.Flatten(series.Filter)
	f.StartTimestamp = req.StartTimestamp
	f.EndTimestamp = req.EndTimestamp
	f.Page = req.Page
	f.Limit = req.Limit

	onTheFly, err := r.funnels.IssuesOnTheFly(ctx, project.ProjectID, f)
	if err != nil {
		log.WithError(err).Error("failed to compute funnel issues")
		return nil, err
	}

	issue := findIssue(onTheFly, issueID)
	if issue == nil {
		issue, err = r.issues.GetIssue(ctx, project.ProjectID, issueID)
		if err != nil {
			log.WithError(err).Error("failed to look up issue")
			return nil, err
		}
		if issue != nil {
			// not part of the funnel anymore; report it without impact
			issue["affectedSessions"] = 0
			issue["unaffectedSessions"] = 0
			issue["lostConversions"] = 0
			issue["conversionImpact"] = 0
		}
	}

	// an issue nobody knows yields no sessions rather than an unfiltered search
	if issue == nil {
		return &IssueSessions{
			SeriesID:   series.SeriesID,
			SeriesName: series.Name,
			Sessions:   &SessionList{Total: 0, Sessions: []json.RawMessage{}},
		}, nil
	}

	sessions, err := r.sessions.SearchIssueSessions(ctx, f, project, userID, issue)
	if err != nil {
		log.WithError(err).Error("failed to search issue sessions")
		return nil, err
	}

	return &IssueSessions{
		SeriesID:   series.SeriesID,
		SeriesName: series.Name,
		Sessions:   sessions,
		Issue:      issue,
	}, nil
}

func findIssue(issues *FunnelIssues, issueID string) map[string]any {
	if issues == nil {
		return nil
	}
	for _, group := range [][]map[string]any{issues.Significant, issues.Insignificant} {
		for _, issue := range group {
			if id, ok := issue["issueId"].(string); ok && id == issueID {
				return issue
			}
		}
	}
	return nil
}
