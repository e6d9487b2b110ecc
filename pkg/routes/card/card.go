// Package card exposes the card CRUD, render and drill-down routes.
package card

import (
	"context"
	"net/http"
	"strconv"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectoinject"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	cardrepo "github.com/Ramsey-B/fern/internal/repositories/card"
	"github.com/Ramsey-B/fern/pkg/cache"
	"github.com/Ramsey-B/fern/pkg/charts"
	fernctx "github.com/Ramsey-B/fern/pkg/context"
	"github.com/Ramsey-B/fern/pkg/events"
	"github.com/Ramsey-B/fern/pkg/models"
)

var validate = validator.New()

// Register registers card routes
func Register(g *echo.Group) {
	g.POST("", CreateCard)
	g.POST("/search", SearchCards)
	g.POST("/try", TryCard)
	g.POST("/try/sessions", TryCardSessions)
	g.GET("/:metricId", GetCard)
	g.PUT("/:metricId", UpdateCard)
	g.DELETE("/:metricId", DeleteCard)
	g.POST("/:metricId/chart", GetCardChart)
	g.POST("/:metricId/sessions", GetCardSessions)
	g.POST("/:metricId/issues/:issueId/sessions", GetIssueSessions)
}

// CreateCard creates a card and its series
func CreateCard(c echo.Context) error {
	ctx := c.Request().Context()
	project := projectFromContext(ctx)
	userID := fernctx.GetUserID(ctx)

	var def models.CardDefinition
	if err := c.Bind(&def); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := validate.Struct(&def); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	ctx, repo, err := ectoinject.GetContext[*cardrepo.Repository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	view, err := repo.Create(ctx, project, userID, &def)
	if err != nil {
		return err
	}

	if ctx, emitter, err := ectoinject.GetContext[*events.Emitter](ctx); err == nil {
		emitter.EmitCardCreated(ctx, view)
	}

	return c.JSON(http.StatusOK, view)
}

// GetCard returns a card visible to the user
func GetCard(c echo.Context) error {
	ctx := c.Request().Context()
	project := projectFromContext(ctx)
	userID := fernctx.GetUserID(ctx)

	metricID, err := parseMetricID(c)
	if err != nil {
		return err
	}

	ctx, repo, err := ectoinject.GetContext[*cardrepo.Repository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	view, err := repo.Get(ctx, project.ProjectID, metricID, userID, cardrepo.GetOptions{
		IncludeData:    c.QueryParam("includeData") == "true",
		FlattenFilters: true,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, view)
}

// UpdateCard rewrites a card and reconciles its series
func UpdateCard(c echo.Context) error {
	ctx := c.Request().Context()
	project := projectFromContext(ctx)
	userID := fernctx.GetUserID(ctx)

	metricID, err := parseMetricID(c)
	if err != nil {
		return err
	}

	var def models.CardDefinition
	if err := c.Bind(&def); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := validate.Struct(&def); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	ctx, repo, err := ectoinject.GetContext[*cardrepo.Repository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	view, err := repo.Update(ctx, project, metricID, userID, &def)
	if err != nil {
		return err
	}

	invalidateCache(c, project.ProjectID, metricID)

	if ctx, emitter, err := ectoinject.GetContext[*events.Emitter](ctx); err == nil {
		emitter.EmitCardUpdated(ctx, view)
	}

	return c.JSON(http.StatusOK, view)
}

// DeleteCard soft-deletes a card
func DeleteCard(c echo.Context) error {
	ctx := c.Request().Context()
	project := projectFromContext(ctx)
	userID := fernctx.GetUserID(ctx)

	metricID, err := parseMetricID(c)
	if err != nil {
		return err
	}

	ctx, repo, err := ectoinject.GetContext[*cardrepo.Repository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	if err := repo.Delete(ctx, project.ProjectID, metricID, userID); err != nil {
		return err
	}

	invalidateCache(c, project.ProjectID, metricID)

	if ctx, emitter, err := ectoinject.GetContext[*events.Emitter](ctx); err == nil {
		emitter.EmitCardDeleted(ctx, project.ProjectID, metricID, userID)
	}

	return c.JSON(http.StatusOK, map[string]string{"state": "success"})
}

// SearchCards pages the cards visible to the user
func SearchCards(c echo.Context) error {
	ctx := c.Request().Context()
	project := projectFromContext(ctx)
	userID := fernctx.GetUserID(ctx)

	var req models.CardSearchRequest
	if err := c.Bind(&req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	ctx, repo, err := ectoinject.GetContext[*cardrepo.Repository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	result, err := repo.Search(ctx, project.ProjectID, userID, req)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, result)
}

// TryCard renders an unsaved card definition
func TryCard(c echo.Context) error {
	ctx := c.Request().Context()
	project := projectFromContext(ctx)
	userID := fernctx.GetUserID(ctx)

	var def models.CardDefinition
	if err := c.Bind(&def); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := validate.Struct(&def); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	ctx, renderer, err := ectoinject.GetContext[*charts.Renderer](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	chart, err := renderer.GetChart(ctx, project, &def, userID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, chart)
}

// TryCardSessions resolves the sessions behind an unsaved card
func TryCardSessions(c echo.Context) error {
	ctx := c.Request().Context()
	project := projectFromContext(ctx)
	userID := fernctx.GetUserID(ctx)

	var req models.CardSessionsRequest
	if err := c.Bind(&req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	ctx, renderer, err := ectoinject.GetContext[*charts.Renderer](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	sessions, err := renderer.GetSessionsList(ctx, project, req, userID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, sessions)
}

// GetCardChart renders a saved card, serving repeats from the render cache
func GetCardChart(c echo.Context) error {
	ctx := c.Request().Context()
	project := projectFromContext(ctx)
	userID := fernctx.GetUserID(ctx)

	metricID, err := parseMetricID(c)
	if err != nil {
		return err
	}

	var req models.CardChartRequest
	if err := c.Bind(&req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	ctx, repo, err := ectoinject.GetContext[*cardrepo.Repository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}
	ctx, renderer, err := ectoinject.GetContext[*charts.Renderer](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	var chartCache *cache.ChartCache
	if ctx2, cc, err := ectoinject.GetContext[*cache.ChartCache](ctx); err == nil {
		ctx = ctx2
		chartCache = cc
	}

	var cacheKey string
	if chartCache != nil {
		cacheKey = chartCache.Key(project.ProjectID, metricID, req)
		if cached, ok := chartCache.Get(ctx, cacheKey); ok {
			return c.JSONBlob(http.StatusOK, cached)
		}
	}

	view, err := repo.Get(ctx, project.ProjectID, metricID, userID, cardrepo.GetOptions{
		IncludeData:    true,
		FlattenFilters: true,
	})
	if err != nil {
		return err
	}

	chart, err := renderer.RenderSaved(ctx, project, view, req, userID)
	if err != nil {
		return err
	}

	if chartCache != nil {
		chartCache.Set(ctx, cacheKey, chart)
	}

	return c.JSON(http.StatusOK, chart)
}

// GetCardSessions resolves the sessions behind each series of a saved card
func GetCardSessions(c echo.Context) error {
	ctx := c.Request().Context()
	project := projectFromContext(ctx)
	userID := fernctx.GetUserID(ctx)

	metricID, err := parseMetricID(c)
	if err != nil {
		return err
	}

	var req models.CardSessionsRequest
	if err := c.Bind(&req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	ctx, repo, err := ectoinject.GetContext[*cardrepo.Repository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	// when the caller did not submit series, drill into the stored ones
	if len(req.Series) == 0 {
		view, err := repo.Get(ctx, project.ProjectID, metricID, userID, cardrepo.GetOptions{FlattenFilters: true})
		if err != nil {
			return err
		}
		for _, s := range view.Series {
			sid := s.SeriesID
			req.Series = append(req.Series, models.SeriesDefinition{
				SeriesID: &sid,
				Name:     s.Name,
				Filter:   s.Filter,
			})
		}
	} else {
		exists, err := repo.Exists(ctx, project.ProjectID, metricID, userID)
		if err != nil {
			return err
		}
		if !exists {
			return httperror.NewHTTPError(http.StatusNotFound, "card not found")
		}
	}

	ctx, renderer, err := ectoinject.GetContext[*charts.Renderer](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	sessions, err := renderer.GetCardSessions(ctx, project, req, userID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, sessions)
}

// GetIssueSessions resolves the sessions behind one funnel issue of a card
func GetIssueSessions(c echo.Context) error {
	ctx := c.Request().Context()
	project := projectFromContext(ctx)
	userID := fernctx.GetUserID(ctx)

	metricID, err := parseMetricID(c)
	if err != nil {
		return err
	}
	issueID := c.Param("issueId")

	var req models.CardSessionsRequest
	if err := c.Bind(&req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	ctx, repo, err := ectoinject.GetContext[*cardrepo.Repository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	if len(req.Series) == 0 {
		view, err := repo.Get(ctx, project.ProjectID, metricID, userID, cardrepo.GetOptions{FlattenFilters: true})
		if err != nil {
			return err
		}
		for _, s := range view.Series {
			sid := s.SeriesID
			req.Series = append(req.Series, models.SeriesDefinition{
				SeriesID: &sid,
				Name:     s.Name,
				Filter:   s.Filter,
			})
		}
	} else {
		exists, err := repo.Exists(ctx, project.ProjectID, metricID, userID)
		if err != nil {
			return err
		}
		if !exists {
			return httperror.NewHTTPError(http.StatusNotFound, "card not found")
		}
	}

	ctx, renderer, err := ectoinject.GetContext[*charts.Renderer](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	result, err := renderer.GetFunnelIssueSessions(ctx, project, req, issueID, userID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, result)
}

func parseMetricID(c echo.Context) (int64, error) {
	metricID, err := strconv.ParseInt(c.Param("metricId"), 10, 64)
	if err != nil {
		return 0, httperror.NewHTTPError(http.StatusBadRequest, "invalid metric id")
	}
	return metricID, nil
}

func projectFromContext(ctx context.Context) models.ProjectContext {
	return models.ProjectContext{ProjectID: fernctx.GetProjectID(ctx)}
}

func invalidateCache(c echo.Context, projectID, metricID int64) {
	ctx := c.Request().Context()
	if ctx, cc, err := ectoinject.GetContext[*cache.ChartCache](ctx); err == nil {
		cc.Invalidate(ctx, projectID, metricID)
	}
}
