package http

import (
	"log/slog"
	"path/filepath"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/spf13/cobra"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"

	"github.com/Alijeyrad/medstage_backend/config"
	"github.com/Alijeyrad/medstage_backend/internal/api/http"
	"github.com/Alijeyrad/medstage_backend/internal/app"
	"github.com/Alijeyrad/medstage_backend/pkg/logs"
)

func NewStartCommand() *cobra.Command {
	var (
		shutdownTimeout time.Duration
		port            int
	)

	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start the HTTP API server and background workers",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgPath, err := cmd.Root().PersistentFlags().GetString("config")
			if err != nil {
				return err
			}

			cfg, err := config.ReadConfig(filepath.Dir(cfgPath))
			if err != nil {
				return err
			}

			if port > 0 {
				cfg.Server.Port = port
			}

			// Set up structured logger before fx starts so all logs use it.
			logger := logs.New(cfg)
			slog.SetDefault(logger)

			fxApp := fx.New(
				fx.Supply(cfg),
				app.InfraModule,
				app.ServiceModule,
				app.WorkerModule,
				http.Module,
				fx.Invoke(func(*fiber.App) {}),
				fx.StopTimeout(shutdownTimeout),
				fx.WithLogger(func() fxevent.Logger {
					if cfg.Logging.Level != "debug" {
						return fxevent.NopLogger
					}
					return &fxevent.SlogLogger{Logger: logger}
				}),
			)

			fxApp.Run()
			return fxApp.Err()
		},
	}

	cmd.Flags().DurationVar(&shutdownTimeout, "shutdown-timeout", 30*time.Second, "Maximum time to wait for graceful shutdown")
	cmd.Flags().IntVar(&port, "port", 0, "Override server.port")

	return cmd
}
