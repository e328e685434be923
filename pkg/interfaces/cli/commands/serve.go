package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/vsinha/printcenter/pkg/application/jobs"
	"github.com/vsinha/printcenter/pkg/infrastructure/config"
	"github.com/vsinha/printcenter/pkg/infrastructure/events/handlers"
	"github.com/vsinha/printcenter/pkg/infrastructure/logging"
	"github.com/vsinha/printcenter/pkg/infrastructure/metrics"
	"github.com/vsinha/printcenter/pkg/infrastructure/telemetry"
	"github.com/vsinha/printcenter/pkg/interfaces/api"
)

func newServeCommand(app *App) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API and run the periodic checks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if addr != "" {
				app.cfg.Server.Addr = addr
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return app.serve(ctx)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (overrides server.addr)")
	return cmd
}

func (a *App) serve(ctx context.Context) error {
	if err := a.cfg.Validate(true); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	logger := a.logger

	shutdownTracing, err := telemetry.Init(ctx, a.cfg.Telemetry.Enabled, a.cfg.Telemetry.ServiceName, a.errOut)
	if err != nil {
		return err
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := shutdownTracing(flushCtx); err != nil {
			logger.Warn().Err(err).Msg("failed to flush traces")
		}
	}()

	rt, err := a.open(ctx, true)
	if err != nil {
		return err
	}
	defer rt.close(logger)

	collector := metrics.NewCollector(logger, "")
	subscribers := []handlers.Subscriber{handlers.NewMetrics(collector)}
	var webhook *handlers.Webhook
	if a.cfg.Webhook.URL != "" {
		webhook = handlers.NewWebhook(a.cfg.Webhook.URL, a.cfg.Webhook.MaxElapsed, rt.store, nil, logger)
		subscribers = append(subscribers, webhook)
		defer webhook.Wait()
	}
	if err := handlers.Register(rt.events, subscribers...); err != nil {
		return err
	}

	server, err := api.NewServer(api.Options{
		Services:       rt.svc,
		Metrics:        collector,
		MetricsHandler: collector.Handler(),
		CORSOrigins:    a.cfg.Server.CORSOrigins,
		RequestTimeout: a.cfg.Server.RequestTimeout,
		Logger:         logger,
	})
	if err != nil {
		return err
	}

	if err := config.Watch(a.cfg.File, func(c *config.Config) {
		level := logging.SetLevel(c.Log.Level)
		logger.Info().Str("level", level.String()).Msg("configuration reloaded")
	}); err != nil {
		logger.Warn().Err(err).Msg("config watch disabled")
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return server.ListenAndServe(gctx, a.cfg.Server.Addr, a.cfg.Server.ShutdownTimeout)
	})
	if a.cfg.Jobs.Enabled {
		scheduler := jobs.NewScheduler(rt.svc.Maintenance, jobs.Jobs(a.cfg.Jobs), collector, logger)
		g.Go(func() error {
			return scheduler.Start(gctx)
		})
	} else {
		logger.Info().Msg("periodic jobs disabled")
	}

	err = g.Wait()
	logger.Info().Msg("printcenter stopped")
	return err
}
