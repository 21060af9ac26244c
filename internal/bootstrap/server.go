package bootstrap

import (
	"context"
	"errors"
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	infragin "github.com/jonesrussell/north-cloud/link-health/infrastructure/gin"
	"github.com/jonesrussell/north-cloud/link-health/infrastructure/logger"
	inframetrics "github.com/jonesrussell/north-cloud/link-health/infrastructure/metrics"
	"github.com/jonesrussell/north-cloud/link-health/infrastructure/profiling"
	"github.com/jonesrussell/north-cloud/link-health/internal/api"
)

// SetupHTTPServer creates and configures the HTTP server. Runs triggered over
// HTTP are cancelled when ctx ends.
func SetupHTTPServer(ctx context.Context, a *App, version string) *infragin.Server {
	cfg := a.Config

	handler := api.NewHandler(ctx, a.Scheduler, a.Health, a.Content, a.Validator, a.Logger)
	routes := api.Routes(
		handler,
		inframetrics.NewHTTPMetrics(a.Registry, "linkhealth"),
		promhttp.HandlerFor(a.Registry, promhttp.HandlerOpts{Registry: a.Registry}),
	)

	checks := map[string]infragin.HealthChecker{
		"database": infragin.PingChecker(a.DB.PingContext, infragin.HealthStatusUnhealthy),
	}
	if a.Redis != nil {
		checks["redis"] = infragin.PingChecker(func(ctx context.Context) error {
			return a.Redis.Ping(ctx).Err()
		}, infragin.HealthStatusDegraded)
	}

	return infragin.NewServer(&infragin.Config{
		Host:           cfg.Server.Host,
		Port:           cfg.Server.Port,
		Debug:          cfg.Debug,
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		CORSOrigins:    cfg.Server.CORSOrigins,
		ServiceName:    serviceName,
		ServiceVersion: version,
	}, a.Logger, func(router *gin.Engine) {
		infragin.RegisterHealthRoutes(router, serviceName, version, checks)
		routes(router)
	})
}

// Serve runs the probe queue, the scheduler (when enabled) and the HTTP server
// until ctx is cancelled or one of them fails.
func Serve(ctx context.Context, a *App, version string) error {
	if err := a.RequireDatabase(); err != nil {
		return err
	}

	if _, err := profiling.Start(ctx, a.Config.Profiling, a.Logger); err != nil {
		return fmt.Errorf("start profiling: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	server := SetupHTTPServer(gctx, a, version)

	g.Go(func() error {
		if err := a.Queue.Run(gctx); err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("probe queue: %w", err)
		}
		return nil
	})

	if a.Config.Scheduler.Enabled {
		g.Go(func() error {
			return a.Scheduler.Start(gctx)
		})
	} else {
		a.Logger.Info("Aggregation scheduler disabled")
	}

	g.Go(func() error {
		a.Logger.Info("Starting HTTP server",
			logger.String("host", a.Config.Server.Host),
			logger.Int("port", a.Config.Server.Port),
		)
		if err := server.Run(gctx); err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	err := g.Wait()
	a.Logger.Info("Server exited")
	return err
}
