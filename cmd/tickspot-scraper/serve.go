package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"tickspot-scraper/internal/app"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve /sync, /healthz and /metrics over HTTP",
	RunE: func(cmd *cobra.Command, _ []string) error {
		application, err := app.New(logger, cfg)
		if err != nil {
			logger.Error("failed to initialize app", slog.String("error", err.Error()))
			return err
		}
		defer application.Close()

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		srv := application.HTTPServer(cfg.HTTP.Addr)
		errc := make(chan error, 1)
		go func() { errc <- srv.ListenAndServe() }()

		select {
		case err := <-errc:
			if !errors.Is(err, http.ErrServerClosed) {
				logger.Error("http server failed", slog.String("error", err.Error()))
				return err
			}
			return nil
		case <-ctx.Done():
		}

		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	},
}

func init() {
	serveCmd.Flags().String("addr", "", "Listen address (HTTP_ADDR, default :8080)")
	_ = viper.BindPFlag("http_addr", serveCmd.Flags().Lookup("addr"))
}
