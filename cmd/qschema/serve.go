package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/reoring/qschema/internal/api"
	"github.com/reoring/qschema/internal/config"
)

func newServeCmd(cfg config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the validator over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			if port, _ := cmd.Flags().GetString("port"); port != "" {
				cfg.Port = port
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			return serve(cmd, cfg)
		},
	}
	cmd.Flags().String("port", cfg.Port, "Listen port (overrides QSCHEMA_PORT)")
	return cmd
}

func serve(cmd *cobra.Command, cfg config.Config) error {
	log := newLogger(cmd)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      api.NewServer(log, cfg),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server starting", "port", cfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	log.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}
