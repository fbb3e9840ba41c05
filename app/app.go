// Package app wires configuration, logging and the HTTP server into a
// runnable service composed of modules.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gaborage/go-params/config"
	"github.com/gaborage/go-params/logger"
	"github.com/gaborage/go-params/observability"
	"github.com/gaborage/go-params/server"
)

const defaultShutdownTimeout = 10 * time.Second

// Module groups related routes. RegisterRoutes reports invalid parameter
// declarations instead of panicking.
type Module interface {
	Name() string
	RegisterRoutes(hr *server.HandlerRegistry, r server.RouteRegistrar) error
}

// App is a service built from modules.
type App struct {
	cfg     *config.Config
	logger  logger.Logger
	server  *server.Server
	routes  *server.RouteRegistry
	otel    observability.Provider
	mu      sync.Mutex
	modules map[string]Module
}

// New loads the configuration from the working directory and creates an
// application logging at the configured level.
func New() (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return NewWithConfig(cfg, logger.New(cfg.Log.Level, cfg.Log.Pretty))
}

// NewWithConfig creates an application from an already loaded configuration.
// Each application records its routes in its own registry. Validation
// metrics go to the configured OpenTelemetry meter provider.
func NewWithConfig(cfg *config.Config, log logger.Logger, opts ...server.RegistryOption) (*App, error) {
	provider, err := observability.NewProvider(cfg.Observability, cfg.App)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize observability: %w", err)
	}

	routes := server.NewRouteRegistry()
	opts = append([]server.RegistryOption{
		server.WithRouteRegistry(routes),
		server.WithMeterProvider(provider.MeterProvider()),
	}, opts...)

	return &App{
		cfg:     cfg,
		logger:  log,
		server:  server.New(cfg, log, opts...),
		routes:  routes,
		otel:    provider,
		modules: make(map[string]Module),
	}, nil
}

// RegisterModule registers the routes of a module under the configured base path.
func (a *App) RegisterModule(module Module) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	name := module.Name()
	if _, exists := a.modules[name]; exists {
		return fmt.Errorf("module %s already registered", name)
	}
	if err := module.RegisterRoutes(a.server.Registry(), a.server.ModuleGroup()); err != nil {
		return fmt.Errorf("module %s: %w", name, err)
	}
	a.modules[name] = module

	a.logger.Info().
		Str("module", name).
		Int("routes", len(a.routes.ByModule(name))).
		Msg("Registered module")
	return nil
}

// Routes returns the descriptors of every registered route.
func (a *App) Routes() []server.RouteDescriptor {
	return a.routes.Routes()
}

// Config returns the application configuration.
func (a *App) Config() *config.Config {
	return a.cfg
}

// Server returns the underlying HTTP server.
func (a *App) Server() *server.Server {
	return a.server
}

// Run starts the server and blocks until SIGINT or SIGTERM, then shuts down
// within the configured shutdown timeout.
func (a *App) Run() error {
	errCh := make(chan error, 1)
	go func() {
		if err := a.server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err := <-errCh:
		return fmt.Errorf("failed to start server: %w", err)
	case <-quit:
	}

	a.logger.Info().Msg("Shutting down application")

	timeout := a.cfg.Server.Timeout.Shutdown
	if timeout <= 0 {
		timeout = defaultShutdownTimeout
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	return a.Shutdown(ctx)
}

// Shutdown stops the HTTP server and flushes pending telemetry.
func (a *App) Shutdown(ctx context.Context) error {
	var errs []error
	if err := a.server.Shutdown(ctx); err != nil {
		a.logger.Error().Err(err).Msg("Failed to shutdown server")
		errs = append(errs, err)
	}
	if err := a.otel.Shutdown(ctx); err != nil {
		a.logger.Error().Err(err).Msg("Failed to shutdown observability provider")
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	a.logger.Info().Msg("Application shutdown complete")
	return nil
}
