package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/msto63/wtf/internal/wtf/server"
	"github.com/msto63/wtf/pkg/core/logging"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP service",
	Long: `Starts the acronym lookup service.

Endpoints:
  POST /slack           Slack slash command (form fields text, token)
  GET  /api/v1/lookup   JSON lookup
  GET  /api/v1/search   fuzzy acronym search
  GET  /api/v1/stats    lookup statistics
  GET  /api/v1/health   health report
  GET  /api/v1/ws       WebSocket lookups

Examples:
  wtf serve
  wtf serve --port 8080
  SLACK_TOKENS=abc DATA_URL=./acronyms.csv wtf serve`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "listen port (overrides config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	logger := logging.New("wtf")
	defer logger.Sync()

	if servePort > 0 {
		appConfig.Server.Port = servePort
	}
	if err := appConfig.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	srv, err := server.New(server.FromConfig(appConfig))
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(srv.Start)
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutdown signal received, stopping server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), appConfig.Server.ShutdownTimeout.Duration)
		defer cancel()
		if err := srv.Stop(shutdownCtx); err != nil {
			printError("shutdown", err)
			return err
		}
		return nil
	})

	logger.Info("wtf started", "address", srv.Address(), "config", appConfig.Path)

	report := srv.HealthRegistry().CheckWithTimeout(appConfig.Source.Timeout.Duration)
	if report.Healthy() {
		logger.Info("Startup health check", "report", report.String())
	} else {
		logger.Warn("Startup health check failed", "report", report.String())
	}

	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info("wtf stopped")
	return nil
}
