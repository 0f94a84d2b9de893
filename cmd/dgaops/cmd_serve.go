package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"runtime"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/okian/dgaops/internal/adapters/http/api"
	"github.com/okian/dgaops/internal/adapters/http/swagger"
	"github.com/okian/dgaops/internal/config"
	"github.com/okian/dgaops/pkg/logger"
	"github.com/okian/dgaops/pkg/metrics"
)

// HTTP server timeout constants.
const (
	readTimeout       = 10 * time.Second
	idleTimeout       = 60 * time.Second
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 30 * time.Second
	// writeTimeout covers POST /export, which downloads model artifacts.
	writeTimeout          = 15 * time.Minute
	systemMetricsInterval = 10 * time.Second
)

func newServeCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the export and playbook operations over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ln, err := net.Listen("tcp", a.cfg.Addr)
			if err != nil {
				return err
			}
			return a.serve(cmd.Context(), ln)
		},
	}
	d := config.New()
	cmd.Flags().String("addr", d.Addr, "HTTP listen address")
	cmd.Flags().Float64("playbook-rps", d.PlaybookRPS, "POST /playbook requests per second")
	cmd.Flags().Int("playbook-burst", d.PlaybookBurst, "POST /playbook burst size")
	exportFlags(cmd)
	playbookFlags(cmd)
	return cmd
}

// serve runs the HTTP API on ln until ctx is cancelled.
func (a *app) serve(ctx context.Context, ln net.Listener) error {
	svc := a.newService()

	mux := http.NewServeMux()
	swagger.Register(ctx, mux)
	api.NewServer(svc,
		api.WithPlaybookRate(a.cfg.PlaybookRPS, a.cfg.PlaybookBurst),
	).Register(ctx, mux)

	srv := &http.Server{
		Handler:           mux,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a.log.Info(gctx, "starting HTTP server", logger.String("addr", ln.Addr().String()))
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		startSystemMetricsUpdater(gctx)
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		a.log.Info(gctx, "shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			a.log.Error(gctx, "server shutdown failed", logger.Error(err))
			return err
		}
		a.log.Info(gctx, "server stopped")
		return nil
	})
	return g.Wait()
}

// startSystemMetricsUpdater refreshes process gauges until ctx is done.
func startSystemMetricsUpdater(ctx context.Context) {
	ticker := time.NewTicker(systemMetricsInterval)
	defer ticker.Stop()

	updateSystemMetrics()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateSystemMetrics()
		}
	}
}

func updateSystemMetrics() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	metrics.UpdateSystemMemoryUsage(m.Alloc)
	metrics.UpdateSystemGoroutineCount(runtime.NumGoroutine())
}
