package main

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/mikey/spam-detector/internal/core"
	"github.com/mikey/spam-detector/internal/di"
	"github.com/mikey/spam-detector/internal/ports"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func serveCmd() *cobra.Command {
	var frontendType string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the web page or the SMTP content filter",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if frontendType != "" {
				cfg.Set("server.frontend_type", frontendType)
			}
			if cfg.GetString("logging.level") != "debug" {
				gin.SetMode(gin.ReleaseMode)
			}

			container, err := di.BuildContainer(cfg)
			if err != nil {
				return err
			}

			return container.Invoke(func(
				logger *zap.Logger,
				service *core.DetectionService,
				frontend ports.Frontend,
				source core.ArtifactSource,
			) error {
				return runServer(cmd.Context(), logger, service, frontend, source)
			})
		},
	}

	cmd.Flags().StringVar(&frontendType, "frontend", "", "front-end to run (http, smtp)")
	return cmd
}

// runServer warms the artifacts up, starts the front-end and blocks until ctx is cancelled
func runServer(
	ctx context.Context,
	logger *zap.Logger,
	service *core.DetectionService,
	frontend ports.Frontend,
	source core.ArtifactSource,
) error {
	defer logger.Sync()

	loadCtx, cancel := context.WithTimeout(ctx, cfg.GetArtifacts().LoadTimeout)
	if err := service.Warmup(loadCtx); err != nil {
		// keep serving; the front-end reports the feature as unavailable
		logger.Error("Spam detection unavailable", zap.Error(err))
	}
	cancel()

	if err := frontend.Start(); err != nil {
		logger.Error("Failed to start front-end", zap.Error(err))
		return err
	}

	<-ctx.Done()
	logger.Info("Shutting down...")

	if err := frontend.Stop(); err != nil {
		logger.Error("Failed to stop front-end", zap.Error(err))
	}

	if stopper, ok := source.(interface{ Stop() }); ok {
		stopper.Stop()
	}

	logger.Info("Shutdown complete")
	return nil
}
