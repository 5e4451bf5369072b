// Package benchd is the lab daemon: it runs a benchmark suite on a
// cadence and serves the recent results over HTTP. Results live only in
// a bounded in-memory window.
package benchd

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/AzyrRuthless/microbench/internal/config"
	"github.com/AzyrRuthless/microbench/internal/observability"
	"github.com/AzyrRuthless/microbench/internal/suite"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

type Daemon struct {
	Name    string
	Addr    string
	Started time.Time

	plan    suite.Suite
	runner  *suite.Runner
	history *history
	router  *gin.Engine
}

// New wires the daemon from its config and an already-loaded suite plan.
func New(cfg config.BenchdConfig, plan suite.Suite, remote bool) (*Daemon, error) {
	runner, err := suite.NewRunner(plan, remote)
	if err != nil {
		return nil, err
	}

	observability.RegisterMetrics()
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(observability.RequestLogger(log.Logger))
	r.Use(observability.RequestMetricsMiddleware())
	r.Use(cors.New(cors.Config{
		AllowOrigins: normalizeOrigins(cfg.CorsOrigins),
		AllowMethods: []string{"GET", "POST"},
		AllowHeaders: []string{"Origin", "Content-Type"},
		MaxAge:       12 * time.Hour,
	}))
	_ = r.SetTrustedProxies([]string{"127.0.0.1", "::1"})

	d := &Daemon{
		Name:    cfg.Name,
		Addr:    cfg.Addr,
		Started: time.Now(),
		plan:    plan,
		runner:  runner,
		history: newHistory(cfg.HistorySize),
		router:  r,
	}
	d.registerRoutes()
	return d, nil
}

func (d *Daemon) HTTPRouter() *gin.Engine {
	return d.router
}

func (d *Daemon) registerRoutes() {
	d.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"uptime":  time.Since(d.Started).String(),
			"service": d.Name,
			"suite":   d.plan.Name,
			"target":  d.runner.Target(),
		})
	})

	d.router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	d.router.GET("/api/suite", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"name":       d.plan.Name,
			"bin_dir":    d.plan.BinDir,
			"interval":   d.plan.Interval.String(),
			"target":     d.runner.Target(),
			"benchmarks": d.plan.Benchmarks,
		})
	})

	d.router.GET("/api/runs", func(c *gin.Context) {
		limit := 0
		if raw := c.Query("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n < 0 {
				c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a non-negative integer"})
				return
			}
			limit = n
		}
		runs := d.history.Snapshot(limit)
		c.JSON(http.StatusOK, gin.H{
			"count": len(runs),
			"runs":  runs,
		})
	})

	d.router.POST("/api/run", func(c *gin.Context) {
		records, err := d.RunOnce(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"count": len(records),
			"runs":  records,
		})
	})
}

// RunOnce executes the whole plan and folds the records into history.
func (d *Daemon) RunOnce(ctx context.Context) ([]suite.RunRecord, error) {
	records, err := d.runner.RunAll(ctx)
	d.history.Add(records...)
	if err != nil {
		return records, err
	}
	log.Info().
		Str("suite", d.plan.Name).
		Str("target", d.runner.Target()).
		Int("runs", len(records)).
		Msg("suite sweep complete")
	return records, nil
}

// Loop runs the plan on the given cadence until the context ends. A zero
// interval falls back to the suite's own interval; if both are zero the
// plan runs once.
func (d *Daemon) Loop(ctx context.Context, interval time.Duration) error {
	if interval == 0 {
		interval = d.plan.Interval
	}
	if _, err := d.RunOnce(ctx); err != nil {
		return err
	}
	if interval == 0 {
		return nil
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if _, err := d.RunOnce(ctx); err != nil {
				return err
			}
		}
	}
}

func (d *Daemon) Serve() error {
	return d.router.Run(d.Addr)
}

func normalizeOrigins(origins []string) []string {
	if len(origins) == 0 {
		return []string{"http://localhost:3000"}
	}
	return origins
}
