// Package sessionevent exposes the merged session timeline routes.
package sessionevent

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectoinject"
	"github.com/labstack/echo/v4"

	"github.com/Ramsey-B/fern/internal/repositories/sessionevent"
	fernctx "github.com/Ramsey-B/fern/pkg/context"
	"github.com/Ramsey-B/fern/pkg/models"
)

// Register registers session event routes
func Register(g *echo.Group) {
	g.GET("/:sessionId/events", GetSessionEvents)
	g.GET("/:sessionId/errors", GetSessionErrors)
	g.GET("/:sessionId/customs", GetSessionCustoms)
}

// GetSessionEvents returns the session's merged interaction timeline. The
// eventType query parameter narrows the sources; groupClickrage collapses
// rapid repeated clicks into single rows.
func GetSessionEvents(c echo.Context) error {
	ctx := c.Request().Context()
	projectID := fernctx.GetProjectID(ctx)

	sessionID, err := parseSessionID(c)
	if err != nil {
		return err
	}

	var types []models.EventType
	if raw := c.QueryParam("eventType"); raw != "" {
		for _, t := range strings.Split(raw, ",") {
			types = append(types, models.EventType(strings.TrimSpace(t)))
		}
	}
	groupClickRage := c.QueryParam("groupClickrage") == "true"

	ctx, repo, err := ectoinject.GetContext[*sessionevent.Repository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	events, err := repo.GetBySession(ctx, projectID, sessionID, types, groupClickRage)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, events)
}

// GetSessionErrors returns the session's error events
func GetSessionErrors(c echo.Context) error {
	ctx := c.Request().Context()
	projectID := fernctx.GetProjectID(ctx)

	sessionID, err := parseSessionID(c)
	if err != nil {
		return err
	}

	ctx, repo, err := ectoinject.GetContext[*sessionevent.Repository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	events, err := repo.GetErrorsBySession(ctx, projectID, sessionID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, events)
}

// GetSessionCustoms returns the session's custom instrumentation events
func GetSessionCustoms(c echo.Context) error {
	ctx := c.Request().Context()
	projectID := fernctx.GetProjectID(ctx)

	sessionID, err := parseSessionID(c)
	if err != nil {
		return err
	}

	ctx, repo, err := ectoinject.GetContext[*sessionevent.Repository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	events, err := repo.GetCustomsBySession(ctx, projectID, sessionID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, events)
}

func parseSessionID(c echo.Context) (int64, error) {
	sessionID, err := strconv.ParseInt(c.Param("sessionId"), 10, 64)
	if err != nil {
		return 0, httperror.NewHTTPError(http.StatusBadRequest, "invalid session id")
	}
	return sessionID, nil
}
