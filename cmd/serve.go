package cmd

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	jobs "AppMovin/job"
	"AppMovin/routes"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the loopback JSON API",
	Long: `Start the HTTP API the UI talks to. It listens on LISTEN_ADDR
(default 127.0.0.1:4780) and exposes Prometheus metrics on /metrics.

A read-only audit of the local library runs at startup and then every
AUDIT_INTERVAL.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	library, local, err := newLibrary(ctx)
	if err != nil {
		return err
	}

	go jobs.StartAuditJob(ctx, local, cfg.AuditInterval)

	e := routes.NewRouter(library, Version)

	errCh := make(chan error, 1)
	go func() {
		defer close(errCh)
		logrus.WithFields(logrus.Fields{
			"addr":    cfg.ListenAddr,
			"backend": library.Backend().Kind(),
			"version": Version,
		}).Info("Starting server")
		if err := e.Start(cfg.ListenAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		if err != nil {
			logrus.WithError(err).Error("Error starting server")
		}
		return err
	case <-ctx.Done():
	}

	logrus.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}
