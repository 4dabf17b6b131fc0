package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strconv"

	"golang.org/x/sync/errgroup"

	"github.com/devrunner/devrunner/internal/apiserver"
)

// App runs the background API server in the foreground until shutdown.
type App struct {
	cfg *Config
	api *apiserver.Server
}

// New creates a new App instance.
func New(cfg *Config) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	api, err := apiserver.New(cfg.Server.Tag)
	if err != nil {
		return nil, fmt.Errorf("failed to create api server: %w", err)
	}

	return &App{
		cfg: cfg,
		api: api,
	}, nil
}

// Server returns the API server the app runs.
func (a *App) Server() *apiserver.Server {
	return a.api
}

// Start starts all services and blocks until ctx is canceled or a service fails.
// Uses errgroup for runtime error monitoring and shutdown function collection for coordinated cleanup.
func (a *App) Start(ctx context.Context) error {
	g, gCtx := errgroup.WithContext(ctx)

	address := net.JoinHostPort(a.cfg.Server.Host, strconv.FormatUint(uint64(a.cfg.Server.Port), 10))
	var shutdownFuncs []func(context.Context) error

	// Startup phase: Start services
	slog.InfoContext(gCtx, "starting api server", "address", address, "tag", a.cfg.Server.Tag)
	apiErrCh, err := a.api.Start(gCtx, address)
	if err != nil {
		return fmt.Errorf("api server startup failed: %w", err)
	}
	shutdownFuncs = append(shutdownFuncs, a.api.Shutdown)

	// Monitor runtime errors - errgroup cancels context on first error
	g.Go(func() error {
		select {
		case err := <-apiErrCh:
			if err != nil {
				slog.ErrorContext(gCtx, "api server runtime error", "error", err)
				return fmt.Errorf("api server: %w", err)
			}
			return nil
		case <-gCtx.Done():
			return nil
		}
	})

	info := a.api.Info()
	slog.InfoContext(gCtx, "application ready", "address", address, "instance_id", info.InstanceID, "pid", info.PID)

	runtimeErr := g.Wait()

	slog.InfoContext(gCtx, "shutting down services")

	// Shutdown phase: Stop all services
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Shutdown.Timeout)
	defer cancel()

	var errs []error
	if runtimeErr != nil {
		errs = append(errs, fmt.Errorf("runtime: %w", runtimeErr))
	}

	for i := len(shutdownFuncs) - 1; i >= 0; i-- {
		if err := shutdownFuncs[i](shutdownCtx); err != nil {
			slog.ErrorContext(shutdownCtx, "service shutdown failed", "error", err)
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	slog.Info("application stopped")
	return nil
}
