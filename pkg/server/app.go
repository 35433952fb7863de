package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"CBDesk/pkg/config"
	xhttp "CBDesk/pkg/http"
	applogger "CBDesk/pkg/logger"
)

// App encapsulates the HTTP service lifecycle.
type App struct {
	cfg        *config.Config
	log        *applogger.Logger
	httpServer *xhttp.Server
}

// New creates a new App instance with all dependencies.
func New(cfg *config.Config, log *applogger.Logger, httpServer *xhttp.Server) *App {
	return &App{cfg: cfg, log: log, httpServer: httpServer}
}

// Run starts the HTTP server and blocks until ctx is done, a termination
// signal arrives or the listener fails.
func (a *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	a.log.Info("cbdesk starting",
		applogger.String("env", a.cfg.Environment),
		applogger.String("cache", a.cfg.Cache.Backend),
		applogger.Bool("collector", a.cfg.Collector.Enabled),
	)

	errCh := a.httpServer.Start()

	select {
	case err, ok := <-errCh:
		if ok && err != nil {
			return err
		}
	case <-ctx.Done():
		a.log.Info("shutdown signal received")
	}
	return a.shutdown()
}

// shutdown gracefully stops all services. Infrastructure clients are closed
// by the cleanup returned from dependency injection.
func (a *App) shutdown() error {
	a.log.Info("shutting down...")

	if err := a.httpServer.Stop(context.Background()); err != nil {
		a.log.Error("http shutdown error", applogger.Error(err))
		return err
	}

	a.log.Info("shutdown complete")
	return nil
}
