package charts

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/fern/pkg/filters"
	"github.com/Ramsey-B/fern/pkg/models"
)

type fakeSessionSearcher struct {
	searchFn func(ctx context.Context, f filters.Filter, project models.ProjectContext, userID int64) (*SessionList, error)
	issueFn  func(ctx context.Context, f filters.Filter, project models.ProjectContext, userID int64, issue map[string]any) (*SessionList, error)
}

func (s *fakeSessionSearcher) SearchSessions(ctx context.Context, f filters.Filter, project models.ProjectContext, userID int64) (*SessionList, error) {
	if s.searchFn == nil {
		return &SessionList{Sessions: []json.RawMessage{}}, nil
	}
	return s.searchFn(ctx, f, project, userID)
}

func (s *fakeSessionSearcher) SearchIssueSessions(ctx context.Context, f filters.Filter, project models.ProjectContext, userID int64, issue map[string]any) (*SessionList, error) {
	if s.issueFn == nil {
		return &SessionList{Sessions: []json.RawMessage{}}, nil
	}
	return s.issueFn(ctx, f, project, userID, issue)
}

type fakeErrorSearcher struct {
	searchFn func(ctx context.Context, f filters.Filter, project models.ProjectContext, userID int64) (*ErrorList, error)
}

func (s *fakeErrorSearcher) SearchErrors(ctx context.Context, f filters.Filter, project models.ProjectContext, userID int64) (*ErrorList, error) {
	if s.searchFn == nil {
		return &ErrorList{Errors: []json.RawMessage{}}, nil
	}
	return s.searchFn(ctx, f, project, userID)
}

type fakeSeriesQuerier struct {
	searchFn func(ctx context.Context, f filters.Filter, projectID int64, density int, metricType models.MetricType, metricOf models.MetricOfTable, metricValue []string) ([]DataPoint, error)
}

func (s *fakeSeriesQuerier) SearchSeries(ctx context.Context, f filters.Filter, projectID int64, density int, metricType models.MetricType, metricOf models.MetricOfTable, metricValue []string) ([]DataPoint, error) {
	if s.searchFn == nil {
		return nil, nil
	}
	return s.searchFn(ctx, f, projectID, density, metricType, metricOf, metricValue)
}

type fakeTableQuerier struct {
	searchFn func(ctx context.Context, f filters.Filter, projectID int64, density int, metricOf models.MetricOfTable, metricValue []string, metricFormat string) (json.RawMessage, error)
}

func (s *fakeTableQuerier) SearchTable(ctx context.Context, f filters.Filter, projectID int64, density int, metricOf models.MetricOfTable, metricValue []string, metricFormat string) (json.RawMessage, error) {
	if s.searchFn == nil {
		return json.RawMessage(`{}`), nil
	}
	return s.searchFn(ctx, f, projectID, density, metricOf, metricValue, metricFormat)
}

type fakeFunnelEvaluator struct {
	evaluateFn func(ctx context.Context, project models.ProjectContext, f filters.Filter, metricFormat string) (*FunnelResult, error)
	issuesFn   func(ctx context.Context, projectID int64, f filters.Filter) (*FunnelIssues, error)
}

func (s *fakeFunnelEvaluator) Evaluate(ctx context.Context, project models.ProjectContext, f filters.Filter, metricFormat string) (*FunnelResult, error) {
	if s.evaluateFn == nil {
		return &FunnelResult{Stages: []json.RawMessage{}}, nil
	}
	return s.evaluateFn(ctx, project, f, metricFormat)
}

func (s *fakeFunnelEvaluator) IssuesOnTheFly(ctx context.Context, projectID int64, f filters.Filter) (*FunnelIssues, error) {
	if s.issuesFn == nil {
		return &FunnelIssues{}, nil
	}
	return s.issuesFn(ctx, projectID, f)
}

type fakeHeatMapSearcher struct {
	searchFn   func(ctx context.Context, projectID, userID int64, f filters.Filter, includeRecordings bool) (*HeatMapSession, error)
	selectedFn func(ctx context.Context, projectID, sessionID int64) (json.RawMessage, error)
}

func (s *fakeHeatMapSearcher) SearchShortSession(ctx context.Context, projectID, userID int64, f filters.Filter, includeRecordings bool) (*HeatMapSession, error) {
	if s.searchFn == nil {
		return nil, nil
	}
	return s.searchFn(ctx, projectID, userID, f, includeRecordings)
}

func (s *fakeHeatMapSearcher) GetSelectedSession(ctx context.Context, projectID, sessionID int64) (json.RawMessage, error) {
	if s.selectedFn == nil {
		return nil, nil
	}
	return s.selectedFn(ctx, projectID, sessionID)
}

type fakePathExecutor struct {
	pathFn func(ctx context.Context, projectID int64, def *models.CardDefinition) (*PathGraph, error)
}

func (s *fakePathExecutor) PathAnalysis(ctx context.Context, projectID int64, def *models.CardDefinition) (*PathGraph, error) {
	if s.pathFn == nil {
		return &PathGraph{}, nil
	}
	return s.pathFn(ctx, projectID, def)
}

type fakeIssueLookup struct {
	getFn func(ctx context.Context, projectID int64, issueID string) (map[string]any, error)
}

func (s *fakeIssueLookup) GetIssue(ctx context.Context, projectID int64, issueID string) (map[string]any, error) {
	if s.getFn == nil {
		return nil, nil
	}
	return s.getFn(ctx, projectID, issueID)
}

type testExecutors struct {
	sessions *fakeSessionSearcher
	errors   *fakeErrorSearcher
	series   *fakeSeriesQuerier
	tables   *fakeTableQuerier
	funnels  *fakeFunnelEvaluator
	heatmaps *fakeHeatMapSearcher
	paths    *fakePathExecutor
	issues   *fakeIssueLookup
}

func newTestRenderer() (*Renderer, *testExecutors) {
	execs := &testExecutors{
		sessions: &fakeSessionSearcher{},
		errors:   &fakeErrorSearcher{},
		series:   &fakeSeriesQuerier{},
		tables:   &fakeTableQuerier{},
		funnels:  &fakeFunnelEvaluator{},
		heatmaps: &fakeHeatMapSearcher{},
		paths:    &fakePathExecutor{},
		issues:   &fakeIssueLookup{},
	}
	logger := ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
	renderer := NewRenderer(execs.sessions, execs.errors, execs.series, execs.tables, execs.funnels, execs.heatmaps, execs.paths, execs.issues, logger)
	return renderer, execs
}

func testProject() models.ProjectContext {
	return models.ProjectContext{ProjectID: 42, Name: "web"}
}

func TestGetChart(t *testing.T) {
	t.Run("should reject an unknown metric type as a server fault", func(t *testing.T) {
		renderer, _ := newTestRenderer()

		_, err := renderer.GetChart(context.Background(), testProject(), &models.CardDefinition{MetricType: "sparkline"}, 1)

		require.Error(t, err)
		assert.True(t, httperror.IsHTTPError(err))
		assert.Equal(t, http.StatusInternalServerError, httperror.GetStatusCode(err))
	})

	t.Run("should merge timeseries results with the card range applied", func(t *testing.T) {
		renderer, execs := newTestRenderer()

		var seen []filters.Filter
		execs.series.searchFn = func(_ context.Context, f filters.Filter, projectID int64, density int, _ models.MetricType, _ models.MetricOfTable, _ []string) ([]DataPoint, error) {
			seen = append(seen, f)
			assert.Equal(t, int64(42), projectID)
			assert.Equal(t, 7, density)
			return []DataPoint{{Timestamp: 100, Count: float64(len(seen))}}, nil
		}

		def := &models.CardDefinition{
			MetricType:     models.MetricTypeTimeseries,
			StartTimestamp: 1000,
			EndTimestamp:   2000,
			Density:        7,
			Series: []models.SeriesDefinition{
				{Name: "all", Filter: filters.Filter{Events: []filters.Entry{{Type: "click"}}}},
				{Name: "chrome"},
			},
		}

		result, err := renderer.GetChart(context.Background(), testProject(), def, 1)

		require.NoError(t, err)
		rows, ok := result.([]map[string]any)
		require.True(t, ok)
		require.Len(t, rows, 1)
		assert.Equal(t, float64(1), rows[0]["all"])
		assert.Equal(t, float64(2), rows[0]["chrome"])

		require.Len(t, seen, 2)
		assert.Equal(t, int64(1000), seen[0].StartTimestamp)
		assert.Equal(t, int64(2000), seen[0].EndTimestamp)
		// the legacy events list is flattened before it reaches the executor
		assert.Empty(t, seen[0].Events)
		require.Len(t, seen[0].Filters, 1)
		assert.True(t, seen[0].Filters[0].IsEvent)
	})
}

func TestGetTableChart(t *testing.T) {
	t.Run("should render an empty session page for a card without series", func(t *testing.T) {
		renderer, _ := newTestRenderer()

		result, err := renderer.GetChart(context.Background(), testProject(), &models.CardDefinition{
			MetricType: models.MetricTypeTable,
			MetricOf:   models.MetricOfSessions,
		}, 1)

		require.NoError(t, err)
		list, ok := result.(*SessionList)
		require.True(t, ok)
		assert.Zero(t, list.Total)
		assert.NotNil(t, list.Sessions)
		assert.Empty(t, list.Sessions)
	})

	t.Run("should render an empty error page for a card without series", func(t *testing.T) {
		renderer, _ := newTestRenderer()

		result, err := renderer.GetChart(context.Background(), testProject(), &models.CardDefinition{
			MetricType: models.MetricTypeTable,
			MetricOf:   models.MetricOfErrors,
		}, 1)

		require.NoError(t, err)
		list, ok := result.(*ErrorList)
		require.True(t, ok)
		assert.Zero(t, list.Total)
		assert.NotNil(t, list.Errors)
		assert.Empty(t, list.Errors)
	})

	t.Run("should render one grouped table per series", func(t *testing.T) {
		renderer, execs := newTestRenderer()

		calls := 0
		execs.tables.searchFn = func(_ context.Context, f filters.Filter, _ int64, _ int, metricOf models.MetricOfTable, _ []string, _ string) (json.RawMessage, error) {
			calls++
			assert.Equal(t, models.MetricOfUserBrowser, metricOf)
			assert.Equal(t, int64(1000), f.StartTimestamp)
			return json.RawMessage(`{"total":1}`), nil
		}

		result, err := renderer.GetChart(context.Background(), testProject(), &models.CardDefinition{
			MetricType:     models.MetricTypeTable,
			MetricOf:       models.MetricOfUserBrowser,
			StartTimestamp: 1000,
			EndTimestamp:   2000,
			Series:         []models.SeriesDefinition{{Name: "a"}, {Name: "b"}},
		}, 1)

		require.NoError(t, err)
		tables, ok := result.([]json.RawMessage)
		require.True(t, ok)
		assert.Len(t, tables, 2)
		assert.Equal(t, 2, calls)
	})

	t.Run("should reject an unknown tabulated entity", func(t *testing.T) {
		renderer, _ := newTestRenderer()

		_, err := renderer.GetChart(context.Background(), testProject(), &models.CardDefinition{
			MetricType: models.MetricTypeTable,
			MetricOf:   "jsException",
			Series:     []models.SeriesDefinition{{}},
		}, 1)

		require.Error(t, err)
		assert.True(t, httperror.IsHTTPError(err))
		assert.Equal(t, http.StatusInternalServerError, httperror.GetStatusCode(err))
	})
}

func TestGetFunnelChart(t *testing.T) {
	t.Run("should render an empty funnel for a card without series", func(t *testing.T) {
		renderer, _ := newTestRenderer()

		result, err := renderer.GetChart(context.Background(), testProject(), &models.CardDefinition{
			MetricType: models.MetricTypeFunnel,
		}, 1)

		require.NoError(t, err)
		funnel, ok := result.(*FunnelResult)
		require.True(t, ok)
		assert.NotNil(t, funnel.Stages)
		assert.Empty(t, funnel.Stages)
		assert.Zero(t, funnel.TotalDropDueToIssues)
	})

	t.Run("should evaluate the first series only", func(t *testing.T) {
		renderer, execs := newTestRenderer()

		execs.funnels.evaluateFn = func(_ context.Context, _ models.ProjectContext, f filters.Filter, metricFormat string) (*FunnelResult, error) {
			assert.Equal(t, "sessionCount", metricFormat)
			assert.Equal(t, int64(1000), f.StartTimestamp)
			require.Len(t, f.Filters, 1)
			assert.Equal(t, "click", f.Filters[0].Type)
			return &FunnelResult{TotalDropDueToIssues: 9}, nil
		}

		result, err := renderer.GetChart(context.Background(), testProject(), &models.CardDefinition{
			MetricType:     models.MetricTypeFunnel,
			MetricFormat:   "sessionCount",
			StartTimestamp: 1000,
			Series: []models.SeriesDefinition{
				{Filter: filters.Filter{Events: []filters.Entry{{Type: "click"}}}},
				{Filter: filters.Filter{Events: []filters.Entry{{Type: "input"}}}},
			},
		}, 1)

		require.NoError(t, err)
		assert.Equal(t, int64(9), result.(*FunnelResult).TotalDropDueToIssues)
	})
}

func TestGetHeatMapChart(t *testing.T) {
	t.Run("should render nothing for a card without series", func(t *testing.T) {
		renderer, execs := newTestRenderer()

		execs.heatmaps.searchFn = func(context.Context, int64, int64, filters.Filter, bool) (*HeatMapSession, error) {
			t.Fatal("should not search without a series")
			return nil, nil
		}

		result, err := renderer.GetChart(context.Background(), testProject(), &models.CardDefinition{
			MetricType: models.MetricTypeHeatMap,
		}, 1)

		require.NoError(t, err)
		assert.Nil(t, result)
	})

	t.Run("should search with recordings when rendering", func(t *testing.T) {
		renderer, execs := newTestRenderer()

		execs.heatmaps.searchFn = func(_ context.Context, projectID, userID int64, _ filters.Filter, includeRecordings bool) (*HeatMapSession, error) {
			assert.True(t, includeRecordings)
			assert.Equal(t, int64(42), projectID)
			assert.Equal(t, int64(7), userID)
			return &HeatMapSession{SessionID: 555}, nil
		}

		result, err := renderer.GetChart(context.Background(), testProject(), &models.CardDefinition{
			MetricType: models.MetricTypeHeatMap,
			Series:     []models.SeriesDefinition{{}},
		}, 7)

		require.NoError(t, err)
		assert.Equal(t, int64(555), result.(*HeatMapSession).SessionID)
	})

	t.Run("should probe without recordings", func(t *testing.T) {
		renderer, execs := newTestRenderer()

		execs.heatmaps.searchFn = func(_ context.Context, _, _ int64, _ filters.Filter, includeRecordings bool) (*HeatMapSession, error) {
			assert.False(t, includeRecordings)
			return &HeatMapSession{SessionID: 555}, nil
		}

		session, err := renderer.ProbeSession(context.Background(), testProject(), &models.CardDefinition{
			MetricType: models.MetricTypeHeatMap,
			Series:     []models.SeriesDefinition{{}},
		}, 7)

		require.NoError(t, err)
		require.NotNil(t, session)
		assert.Equal(t, int64(555), session.SessionID)
	})
}

func TestGetPathAnalysisChart(t *testing.T) {
	t.Run("should synthesize a default series for a card without one", func(t *testing.T) {
		renderer, execs := newTestRenderer()

		execs.paths.pathFn = func(_ context.Context, projectID int64, def *models.CardDefinition) (*PathGraph, error) {
			assert.Equal(t, int64(42), projectID)
			require.Len(t, def.Series, 1)
			assert.Equal(t, int64(1000), def.Series[0].Filter.StartTimestamp)
			assert.Equal(t, int64(2000), def.Series[0].Filter.EndTimestamp)
			assert.Empty(t, def.Series[0].Filter.Filters)
			return &PathGraph{}, nil
		}

		_, err := renderer.GetChart(context.Background(), testProject(), &models.CardDefinition{
			MetricType:     models.MetricTypePathAnalysis,
			StartTimestamp: 1000,
			EndTimestamp:   2000,
		}, 1)

		require.NoError(t, err)
	})

	t.Run("should replace a session-shaped first series filter", func(t *testing.T) {
		renderer, execs := newTestRenderer()

		execs.paths.pathFn = func(_ context.Context, _ int64, def *models.CardDefinition) (*PathGraph, error) {
			require.Len(t, def.Series, 1)
			assert.Empty(t, def.Series[0].Filter.Events)
			assert.Empty(t, def.Series[0].Filter.Filters)
			return &PathGraph{}, nil
		}

		def := &models.CardDefinition{
			MetricType: models.MetricTypePathAnalysis,
			Series: []models.SeriesDefinition{
				{Filter: filters.Filter{Events: []filters.Entry{{Type: "click"}}}},
			},
		}

		_, err := renderer.GetChart(context.Background(), testProject(), def, 1)

		require.NoError(t, err)
		// the caller's definition keeps its original filter
		assert.Len(t, def.Series[0].Filter.Events, 1)
	})

	t.Run("should pass a path-shaped filter through untouched", func(t *testing.T) {
		renderer, execs := newTestRenderer()

		pathFilter := filters.Filter{
			Filters: []filters.Entry{{Type: "userBrowser", Value: []string{"Chrome"}}},
		}
		execs.paths.pathFn = func(_ context.Context, _ int64, def *models.CardDefinition) (*PathGraph, error) {
			require.Len(t, def.Series, 1)
			assert.Equal(t, pathFilter, def.Series[0].Filter)
			return &PathGraph{}, nil
		}

		_, err := renderer.GetChart(context.Background(), testProject(), &models.CardDefinition{
			MetricType: models.MetricTypePathAnalysis,
			Series:     []models.SeriesDefinition{{Filter: pathFilter}},
		}, 1)

		require.NoError(t, err)
	})
}

func TestRenderSaved(t *testing.T) {
	t.Run("should short-circuit a heat map with a pinned session", func(t *testing.T) {
		renderer, execs := newTestRenderer()

		execs.heatmaps.selectedFn = func(_ context.Context, projectID, sessionID int64) (json.RawMessage, error) {
			assert.Equal(t, int64(42), projectID)
			assert.Equal(t, int64(777), sessionID)
			return json.RawMessage(`{"sessionId":777}`), nil
		}
		execs.heatmaps.searchFn = func(context.Context, int64, int64, filters.Filter, bool) (*HeatMapSession, error) {
			t.Fatal("pinned heat map should not search")
			return nil, nil
		}

		view := &models.CardView{
			MetricType: models.MetricTypeHeatMap,
			Data:       &models.SessionPin{SessionID: 777},
			Series:     []models.Series{{SeriesID: 1}},
		}

		result, err := renderer.RenderSaved(context.Background(), testProject(), view, models.CardChartRequest{}, 1)

		require.NoError(t, err)
		assert.JSONEq(t, `{"sessionId":777}`, string(result.(json.RawMessage)))
	})

	t.Run("should apply the request range over the stored definition", func(t *testing.T) {
		renderer, execs := newTestRenderer()

		execs.series.searchFn = func(_ context.Context, f filters.Filter, _ int64, density int, _ models.MetricType, _ models.MetricOfTable, _ []string) ([]DataPoint, error) {
			assert.Equal(t, int64(5000), f.StartTimestamp)
			assert.Equal(t, int64(6000), f.EndTimestamp)
			assert.Equal(t, 14, density)
			return []DataPoint{{Timestamp: 5000, Count: 1}}, nil
		}

		view := &models.CardView{
			MetricType: models.MetricTypeTimeseries,
			Series:     []models.Series{{SeriesID: 1, Name: "all"}},
		}
		req := models.CardChartRequest{StartTimestamp: 5000, EndTimestamp: 6000, Density: 14}

		result, err := renderer.RenderSaved(context.Background(), testProject(), view, req, 1)

		require.NoError(t, err)
		rows := result.([]map[string]any)
		require.Len(t, rows, 1)
		assert.Equal(t, float64(1), rows[0]["all"])
	})
}

func TestSessionDrillDowns(t *testing.T) {
	t.Run("should keep series ids for a saved card", func(t *testing.T) {
		renderer, execs := newTestRenderer()

		execs.sessions.searchFn = func(_ context.Context, f filters.Filter, _ models.ProjectContext, _ int64) (*SessionList, error) {
			assert.Equal(t, int64(1000), f.StartTimestamp)
			return &SessionList{Total: 3, Sessions: []json.RawMessage{}}, nil
		}

		sid := int64(11)
		req := models.CardSessionsRequest{
			StartTimestamp: 1000,
			EndTimestamp:   2000,
			Series:         []models.SeriesDefinition{{SeriesID: &sid, Name: "all"}},
		}

		results, err := renderer.GetCardSessions(context.Background(), testProject(), req, 1)

		require.NoError(t, err)
		require.Len(t, results, 1)
		require.NotNil(t, results[0].SeriesID)
		assert.Equal(t, int64(11), *results[0].SeriesID)
		assert.Equal(t, int64(3), results[0].Total)
	})

	t.Run("should fold extra filters into every series of an unsaved card", func(t *testing.T) {
		renderer, execs := newTestRenderer()

		var seen []filters.Filter
		execs.sessions.searchFn = func(_ context.Context, f filters.Filter, _ models.ProjectContext, _ int64) (*SessionList, error) {
			seen = append(seen, f)
			return &SessionList{Sessions: []json.RawMessage{}}, nil
		}

		sid := int64(11)
		req := models.CardSessionsRequest{
			Series: []models.SeriesDefinition{
				{SeriesID: &sid, Name: "a"},
				{Name: "b"},
			},
			Filters: []filters.Entry{{Type: "userCountry", Value: []string{"DE"}}},
		}

		results, err := renderer.GetSessionsList(context.Background(), testProject(), req, 1)

		require.NoError(t, err)
		require.Len(t, results, 2)
		assert.Nil(t, results[0].SeriesID)
		for _, f := range seen {
			require.Len(t, f.Filters, 1)
			assert.Equal(t, "userCountry", f.Filters[0].Type)
		}
	})
}

func TestGetFunnelIssueSessions(t *testing.T) {
	t.Run("should reject a card without series", func(t *testing.T) {
		renderer, _ := newTestRenderer()

		_, err := renderer.GetFunnelIssueSessions(context.Background(), testProject(), models.CardSessionsRequest{}, "issue-1", 1)

		require.Error(t, err)
		assert.True(t, httperror.IsHTTPError(err))
		assert.Equal(t, http.StatusUnprocessableEntity, httperror.GetStatusCode(err))
	})

	t.Run("should use the on-the-fly issue when it is still part of the funnel", func(t *testing.T) {
		renderer, execs := newTestRenderer()

		execs.funnels.issuesFn = func(context.Context, int64, filters.Filter) (*FunnelIssues, error) {
			return &FunnelIssues{
				Insignificant: []map[string]any{{"issueId": "issue-1", "affectedSessions": 4}},
			}, nil
		}
		execs.issues.getFn = func(context.Context, int64, string) (map[string]any, error) {
			t.Fatal("should not fall back to the detector record")
			return nil, nil
		}
		execs.sessions.issueFn = func(_ context.Context, _ filters.Filter, _ models.ProjectContext, _ int64, issue map[string]any) (*SessionList, error) {
			assert.Equal(t, "issue-1", issue["issueId"])
			return &SessionList{Total: 2, Sessions: []json.RawMessage{}}, nil
		}

		req := models.CardSessionsRequest{Series: []models.SeriesDefinition{{Name: "funnel"}}}
		result, err := renderer.GetFunnelIssueSessions(context.Background(), testProject(), req, "issue-1", 1)

		require.NoError(t, err)
		assert.Equal(t, 4, result.Issue["affectedSessions"])
		assert.Equal(t, int64(2), result.Sessions.Total)
	})

	t.Run("should zero the funnel impact of an issue that left the funnel", func(t *testing.T) {
		renderer, execs := newTestRenderer()

		execs.funnels.issuesFn = func(context.Context, int64, filters.Filter) (*FunnelIssues, error) {
			return &FunnelIssues{}, nil
		}
		execs.issues.getFn = func(_ context.Context, _ int64, issueID string) (map[string]any, error) {
			assert.Equal(t, "issue-1", issueID)
			return map[string]any{"issueId": "issue-1", "type": "click_rage"}, nil
		}

		req := models.CardSessionsRequest{Series: []models.SeriesDefinition{{Name: "funnel"}}}
		result, err := renderer.GetFunnelIssueSessions(context.Background(), testProject(), req, "issue-1", 1)

		require.NoError(t, err)
		assert.Equal(t, "click_rage", result.Issue["type"])
		assert.Equal(t, 0, result.Issue["affectedSessions"])
		assert.Equal(t, 0, result.Issue["unaffectedSessions"])
		assert.Equal(t, 0, result.Issue["lostConversions"])
		assert.Equal(t, 0, result.Issue["conversionImpact"])
	})

	t.Run("should return no sessions for an issue nobody knows", func(t *testing.T) {
		renderer, execs := newTestRenderer()

		execs.funnels.issuesFn = func(context.Context, int64, filters.Filter) (*FunnelIssues, error) {
			return &FunnelIssues{}, nil
		}
		execs.issues.getFn = func(context.Context, int64, string) (map[string]any, error) {
			return nil, nil
		}
		execs.sessions.issueFn = func(_ context.Context, _ filters.Filter, _ models.ProjectContext, _ int64, _ map[string]any) (*SessionList, error) {
			t.Fatal("should not fall through to a plain session search")
			return &SessionList{Total: 57}, nil
		}

		req := models.CardSessionsRequest{Series: []models.SeriesDefinition{{Name: "funnel"}}}
		result, err := renderer.GetFunnelIssueSessions(context.Background(), testProject(), req, "issue-gone", 1)

		require.NoError(t, err)
		assert.Nil(t, result.Issue)
		require.NotNil(t, result.Sessions)
		assert.Zero(t, result.Sessions.Total)
		assert.NotNil(t, result.Sessions.Sessions)
		assert.Empty(t, result.Sessions.Sessions)
	})
}
