package card

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Gobusters/ectoinject"
	"github.com/Gobusters/ectoinject/ectocontainer"
	"github.com/Gobusters/ectologger"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cardrepo "github.com/Ramsey-B/fern/internal/repositories/card"
	"github.com/Ramsey-B/fern/pkg/charts"
	"github.com/Ramsey-B/fern/pkg/database"
	"github.com/Ramsey-B/fern/pkg/filters"
	"github.com/Ramsey-B/fern/pkg/middleware"
	"github.com/Ramsey-B/fern/pkg/models"
)

type stubCardDB struct {
	database.DB
	getFn func(ctx context.Context, dest any, query string, args ...any) error
}

func (s *stubCardDB) GetContext(ctx context.Context, dest any, query string, args ...any) error {
	return s.getFn(ctx, dest, query, args...)
}

type stubSessionSearcher struct{}

func (stubSessionSearcher) SearchSessions(context.Context, filters.Filter, models.ProjectContext, int64) (*charts.SessionList, error) {
	return &charts.SessionList{Sessions: []json.RawMessage{}}, nil
}

func (stubSessionSearcher) SearchIssueSessions(context.Context, filters.Filter, models.ProjectContext, int64, map[string]any) (*charts.SessionList, error) {
	return &charts.SessionList{Total: 2, Sessions: []json.RawMessage{}}, nil
}

type stubFunnelEvaluator struct{}

func (stubFunnelEvaluator) Evaluate(context.Context, models.ProjectContext, filters.Filter, string) (*charts.FunnelResult, error) {
	return &charts.FunnelResult{Stages: []json.RawMessage{}}, nil
}

func (stubFunnelEvaluator) IssuesOnTheFly(context.Context, int64, filters.Filter) (*charts.FunnelIssues, error) {
	return &charts.FunnelIssues{
		Significant: []map[string]any{{"issueId": "issue-1"}},
	}, nil
}

type stubIssueLookup struct{}

func (stubIssueLookup) GetIssue(context.Context, int64, string) (map[string]any, error) {
	return nil, nil
}

// newCardTestServer assembles the card routes over stubbed storage, the way
// the service wires them at startup.
func newCardTestServer(t *testing.T, containerID string, db database.DB) *echo.Echo {
	t.Helper()

	logger := ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})

	container, err := ectoinject.NewDIContainer(ectocontainer.DIContainerConfig{
		ID:                       containerID,
		AllowCaptiveDependencies: true,
		AllowMissingDependencies: true,
	})
	require.NoError(t, err)

	repo := cardrepo.NewRepository(db, nil, logger)
	require.NoError(t, ectoinject.RegisterInstance[*cardrepo.Repository](container, repo))

	renderer := charts.NewRenderer(stubSessionSearcher{}, nil, nil, nil, stubFunnelEvaluator{}, nil, nil, stubIssueLookup{}, logger)
	require.NoError(t, ectoinject.RegisterInstance[*charts.Renderer](container, renderer))

	e := echo.New()
	e.HTTPErrorHandler = middleware.Error(logger)
	e.Use(middleware.Context())
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx, err := ectoinject.SetActiveContainer(c.Request().Context(), containerID)
			if err != nil {
				return err
			}
			c.SetRequest(c.Request().WithContext(ctx))
			return next(c)
		}
	})
	Register(e.Group("/cards"))
	return e
}

func issueSessionsRequest(body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/cards/9/issues/issue-1/sessions", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	req.Header.Set(middleware.HeaderProjectID, "42")
	req.Header.Set(middleware.HeaderUserID, "7")
	return req
}

func TestGetIssueSessionsRoute(t *testing.T) {
	t.Run("should hide an invisible card even when series are submitted", func(t *testing.T) {
		db := &stubCardDB{getFn: func(_ context.Context, dest any, _ string, _ ...any) error {
			if exists, ok := dest.(*bool); ok {
				*exists = false
			}
			return nil
		}}
		e := newCardTestServer(t, "card-issue-sessions-hidden", db)

		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, issueSessionsRequest(`{"startTimestamp":1000,"endTimestamp":2000,"series":[{"name":"funnel"}]}`))

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("should drill into a visible card with submitted series", func(t *testing.T) {
		db := &stubCardDB{getFn: func(_ context.Context, dest any, _ string, _ ...any) error {
			if exists, ok := dest.(*bool); ok {
				*exists = true
			}
			return nil
		}}
		e := newCardTestServer(t, "card-issue-sessions-visible", db)

		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, issueSessionsRequest(`{"startTimestamp":1000,"endTimestamp":2000,"series":[{"name":"funnel"}]}`))

		require.Equal(t, http.StatusOK, rec.Code)

		var result struct {
			Sessions struct {
				Total int64 `json:"total"`
			} `json:"sessions"`
			Issue map[string]any `json:"issue"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
		assert.Equal(t, int64(2), result.Sessions.Total)
		assert.Equal(t, "issue-1", result.Issue["issueId"])
	})
}
