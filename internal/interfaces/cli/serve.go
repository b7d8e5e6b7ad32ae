package cli

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ipfolio/ipfolio/internal/app"
	"github.com/ipfolio/ipfolio/internal/config"
	"github.com/ipfolio/ipfolio/internal/infrastructure/monitoring/logging"
)

func newServeCommand(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			a, err := app.New(ctx, rt.cfg, rt.logger)
			if err != nil {
				return err
			}
			defer a.Close()

			if rt.configPath != "" {
				config.Watch(rt.configPath, func(next *config.Config) {
					rt.logger.Info("config file changed, new settings apply on restart",
						logging.String("path", rt.configPath),
						logging.String("log_level", next.Log.Level),
					)
				})
			}

			rt.logger.Info("api server starting",
				logging.String("version", Version),
				logging.Int("port", rt.cfg.Server.Port),
			)
			return a.Run(ctx)
		},
	}
}

func newWorkerCommand(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "worker",
		Short: "Run the event-recording worker",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			w, err := app.NewWorker(ctx, rt.cfg, rt.logger)
			if err != nil {
				return err
			}
			defer w.Close()

			return w.Run(ctx)
		},
	}
}
