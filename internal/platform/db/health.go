package db

import (
	"context"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	"golang.org/x/sync/errgroup"
)

const healthTimeout = 5 * time.Second

// PoolStats is the pgxpool snapshot served on /health/db.
type PoolStats struct {
	TotalConns      int32  `json:"total_conns"`
	IdleConns       int32  `json:"idle_conns"`
	AcquiredConns   int32  `json:"acquired_conns"`
	MaxConns        int32  `json:"max_conns"`
	AcquireCount    int64  `json:"acquire_count"`
	AcquireDuration string `json:"acquire_duration"`
}

// PoolStatsFunc snapshots pool on every call.
func PoolStatsFunc(pool *pgxpool.Pool) func() *PoolStats {
	return func() *PoolStats {
		s := pool.Stat()
		return &PoolStats{
			TotalConns:      s.TotalConns(),
			IdleConns:       s.IdleConns(),
			AcquiredConns:   s.AcquiredConns(),
			MaxConns:        s.MaxConns(),
			AcquireCount:    s.AcquireCount(),
			AcquireDuration: s.AcquireDuration().String(),
		}
	}
}

// Check is one backing store pinged by the health endpoint.
type Check struct {
	Name string
	Ping func(ctx context.Context) error
}

type healthReport struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
	Pool   *PoolStats        `json:"pool,omitempty"`
}

// HealthHandler pings every check concurrently and answers 503 if any of
// them fails. stats may be nil.
func HealthHandler(checks []Check, stats func() *PoolStats) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx, cancel := context.WithTimeout(c.Request().Context(), healthTimeout)
		defer cancel()

		results := make([]error, len(checks))
		var g errgroup.Group
		for i, chk := range checks {
			g.Go(func() error {
				results[i] = chk.Ping(ctx)
				return nil
			})
		}
		_ = g.Wait()

		report := healthReport{Status: "healthy", Checks: make(map[string]string, len(checks))}
		for i, chk := range checks {
			if results[i] != nil {
				report.Status = "unhealthy"
				report.Checks[chk.Name] = results[i].Error()
				continue
			}
			report.Checks[chk.Name] = "ok"
		}
		if stats != nil {
			report.Pool = stats()
		}

		code := http.StatusOK
		if report.Status != "healthy" {
			code = http.StatusServiceUnavailable
		}
		return c.JSON(code, report)
	}
}
