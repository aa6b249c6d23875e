package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/agrodash/pizarra/api"
	"github.com/agrodash/pizarra/quotes"
	"github.com/agrodash/pizarra/scraper"
	"github.com/agrodash/pizarra/telemetry"
)

func init() {
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Runs the HTTP API.",
	RunE: func(cmd *cobra.Command, args []string) error {
		slog.Info("pizarra starting",
			"host", cfg.Server.Host,
			"port", cfg.Server.Port,
			"mode", cfg.Server.Mode,
			"browserSources", cfg.Browser.Sources,
			"timezone", cfg.Location.String(),
		)

		shutdownTracing, err := telemetry.Setup(cmd.Context(), cfg.Telemetry)
		if err != nil {
			slog.Warn("tracing disabled", "error", err)
		}

		sc := scraper.FromConfig(cfg, quotes.SourceHeaders())
		svc := quotes.NewService(sc, cfg.Location)

		startTime := time.Now()
		router := api.NewRouter(svc, cfg, startTime)

		addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
		srv := &http.Server{
			Addr:    addr,
			Handler: router,
		}

		errc := make(chan error, 1)
		go func() {
			slog.Info("HTTP server listening", "addr", addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errc <- err
			}
		}()

		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

		select {
		case sig := <-quit:
			slog.Info("shutdown signal received", "signal", sig.String())
		case err := <-errc:
			sc.Close()
			return fmt.Errorf("http server: %w", err)
		}

		// Give in-flight requests 5 seconds to complete.
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			slog.Error("HTTP server forced shutdown", "error", err)
		} else {
			slog.Info("HTTP server drained gracefully")
		}

		sc.Close()
		if shutdownTracing != nil {
			if err := shutdownTracing(ctx); err != nil {
				slog.Warn("tracer shutdown", "error", err)
			}
		}
		slog.Info("pizarra stopped")
		return nil
	},
}
