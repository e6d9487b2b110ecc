package middleware

import (
	"strconv"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	appctx "github.com/Ramsey-B/fern/pkg/context"
)

const (
	// HeaderProjectID is the header key for the acting project
	HeaderProjectID = "X-Project-ID"
	// HeaderUserID is the header key for the acting user
	HeaderUserID = "X-User-ID"
)

// Context populates the request context with request id, project id and user id.
// Identity headers are set by the gateway after authentication; this service
// trusts them (auth is out of scope here).
func Context() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) (err error) {
			req := c.Request()

			requestID := req.Header.Get(echo.HeaderXRequestID)
			if requestID == "" {
				requestID = uuid.New().String()
			}

			projectID, _ := strconv.ParseInt(req.Header.Get(HeaderProjectID), 10, 64)
			userID, _ := strconv.ParseInt(req.Header.Get(HeaderUserID), 10, 64)

			ctx := req.Context()
			ctx = appctx.SetRequestID(ctx, requestID)
			ctx = appctx.SetMethod(ctx, req.Method)
			ctx = appctx.SetRoute(ctx, req.URL.Path)
			ctx = appctx.SetRemoteIP(ctx, c.RealIP())
			ctx = appctx.SetProjectID(ctx, projectID)
			ctx = appctx.SetUserID(ctx, userID)

			c.SetRequest(req.WithContext(ctx))

			return next(c)
		}
	}
}
