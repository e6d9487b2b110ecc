// Package health exposes liveness, readiness and dependency health routes.
package health

import (
	"context"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Ramsey-B/fern/pkg/cache"
	"github.com/Ramsey-B/fern/pkg/database"
	"github.com/Ramsey-B/fern/pkg/graph"
)

// Checker handles health check endpoints
type Checker struct {
	db        database.DB
	cache     *cache.Client
	graph     *graph.Client
	version   string
	startTime time.Time
	ready     atomic.Bool
}

// NewChecker creates a new health checker. The cache and graph clients are
// optional; absent dependencies are skipped rather than reported unhealthy.
func NewChecker(db database.DB, cacheClient *cache.Client, graphClient *graph.Client, version string) *Checker {
	return &Checker{
		db:        db,
		cache:     cacheClient,
		graph:     graphClient,
		version:   version,
		startTime: time.Now(),
	}
}

// SetReady sets the readiness state
func (c *Checker) SetReady(ready bool) {
	c.ready.Store(ready)
}

// RegisterRoutes registers health check endpoints
func (c *Checker) RegisterRoutes(e *echo.Echo) {
	e.GET("/api/v1/health", c.Health)
	e.GET("/api/v1/health/live", c.Live)
	e.GET("/api/v1/health/ready", c.Ready)
}

// HealthStatus represents the health check response
type HealthStatus struct {
	Status     string                  `json:"status"`
	Version    string                  `json:"version"`
	Uptime     string                  `json:"uptime"`
	Checks     map[string]*CheckResult `json:"checks"`
	ReportedAt time.Time               `json:"reported_at"`
}

// CheckResult represents an individual check result
type CheckResult struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Latency string `json:"latency,omitempty"`
}

// Health returns the overall health status
func (c *Checker) Health(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()

	status := &HealthStatus{
		Status:     "healthy",
		Version:    c.version,
		Uptime:     time.Since(c.startTime).Round(time.Second).String(),
		Checks:     make(map[string]*CheckResult),
		ReportedAt: time.Now(),
	}

	if c.db != nil {
		status.Checks["database"] = runCheck(func() error { return c.db.PingContext(reqCtx) })
	} else {
		status.Checks["database"] = &CheckResult{Status: "unhealthy", Message: "database not configured"}
	}

	if c.cache != nil {
		status.Checks["redis"] = runCheck(func() error { return c.cache.Ping(reqCtx) })
	}

	if c.graph != nil {
		status.Checks["graph"] = runCheck(func() error {
			checkCtx, cancel := context.WithTimeout(reqCtx, 2*time.Second)
			defer cancel()
			return c.graph.VerifyConnectivity(checkCtx)
		})
	}

	httpStatus := http.StatusOK
	for _, check := range status.Checks {
		if check.Status != "healthy" {
			status.Status = "unhealthy"
			httpStatus = http.StatusServiceUnavailable
			break
		}
	}

	return ctx.JSON(httpStatus, status)
}

func runCheck(ping func() error) *CheckResult {
	start := time.Now()
	if err := ping(); err != nil {
		return &CheckResult{Status: "unhealthy", Message: err.Error()}
	}
	return &CheckResult{Status: "healthy", Latency: time.Since(start).String()}
}

// Live returns the liveness status (is the service running)
func (c *Checker) Live(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, map[string]string{"status": "alive"})
}

// Ready returns the readiness status (is the service ready to accept traffic)
func (c *Checker) Ready(ctx echo.Context) error {
	if c.ready.Load() {
		return ctx.JSON(http.StatusOK, map[string]string{"status": "ready"})
	}
	return ctx.JSON(http.StatusServiceUnavailable, map[string]string{"status": "not ready"})
}
