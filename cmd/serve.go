package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/outreach-api/internal/api"
	"github.com/sells-group/outreach-api/internal/monitoring"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the outreach HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		server := api.NewServer(cfg, env.Store, env.Gateway)

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:         fmt.Sprintf(":%d", port),
			Handler:      server.Router(),
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 60 * time.Second,
		}

		collector := monitoring.NewCollector(env.Store, cfg.Monitor.StallThreshold())
		alerter := monitoring.NewAlerter(cfg.Monitor)
		checker := monitoring.NewChecker(collector, alerter, cfg.Monitor)

		g, gctx := errgroup.WithContext(ctx)

		g.Go(func() error {
			zap.L().Info("starting server", zap.Int("port", port))
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				return eris.Wrap(err, "server listen")
			}
			return nil
		})

		g.Go(func() error {
			checker.Run(gctx)
			return nil
		})

		g.Go(func() error {
			<-gctx.Done()
			zap.L().Info("shutting down server")

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				zap.L().Warn("server shutdown", zap.Error(err))
			}

			// Let in-flight enrichment runs finish before the store closes.
			drainCtx, cancelDrain := context.WithTimeout(context.Background(), cfg.Pipeline.RunTimeout())
			defer cancelDrain()
			if err := env.Runner.Drain(drainCtx); err != nil {
				zap.L().Warn("enrichment drain timed out", zap.Error(err))
			}
			return nil
		})

		return g.Wait()
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
