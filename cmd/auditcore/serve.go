package main

import (
	"auditcore/internal/adapters/exports"
	"auditcore/internal/adapters/httpapi"
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func (a *application) serveCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the audit HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			ln, err := net.Listen("tcp", a.cfg.HTTP.Addr)
			if err != nil {
				return fmt.Errorf("listen on %s: %w", a.cfg.HTTP.Addr, err)
			}
			return a.serve(ctx, ln)
		},
	}
	cmd.Flags().String("addr", "", "Override the configured listen address.")
	return cmd
}

// serve runs the API on ln and the export worker until ctx is done, then
// drains both within the configured shutdown timeout.
func (a *application) serve(ctx context.Context, ln net.Listener) error {
	rt, err := a.open(ctx)
	if err != nil {
		_ = ln.Close()
		return err
	}
	defer func() {
		if err := rt.Close(); err != nil {
			a.logger.Warn("store close failed", zap.Error(err))
		}
	}()

	worker := exports.NewWorker(rt.exports, rt.blobs,
		exports.WithWorkerLogger(a.logger.Named("export-worker")),
		exports.WithQueueSize(a.cfg.Exports.QueueSize),
		exports.WithRetention(a.cfg.Exports.Retention))
	api := httpapi.New(rt.svc, rt.photos, rt.exports,
		httpapi.WithLogger(a.logger.Named("http")),
		httpapi.WithMetrics(rt.metrics),
		httpapi.WithJobs(worker))
	srv := &http.Server{
		Handler:           api.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	worker.Start()
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a.logger.Info("http server listening", zap.String("addr", ln.Addr().String()))
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(gctx), a.cfg.HTTP.ShutdownTimeout)
		defer cancel()
		a.logger.Info("shutting down")
		err := srv.Shutdown(shutdownCtx)
		if stopErr := worker.Stop(shutdownCtx); stopErr != nil {
			a.logger.Warn("export worker did not stop in time", zap.Error(stopErr))
		}
		return err
	})
	return g.Wait()
}
