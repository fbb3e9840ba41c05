package server

import (
	"context"
	goerrors "errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/gaborage/go-params/config"
	"github.com/gaborage/go-params/logger"
)

// Server is an Echo HTTP server whose routes validate declared parameters.
type Server struct {
	echo     *echo.Echo
	cfg      *config.Config
	logger   logger.Logger
	registry *HandlerRegistry
	basePath string
}

// New creates a server with the standard middleware chain and the health
// and readiness endpoints. opts configure the handler registry.
func New(cfg *config.Config, log logger.Logger, opts ...RegistryOption) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		customErrorHandler(err, c, cfg, log)
	}

	basePath := normalizePrefix(cfg.Server.Path.Base)
	healthPath := basePath + normalizeRoute(cfg.Server.Path.Health, "/health")
	readyPath := basePath + normalizeRoute(cfg.Server.Path.Ready, "/ready")

	SetupMiddlewares(e, log, cfg, healthPath, readyPath)

	s := &Server{
		echo:     e,
		cfg:      cfg,
		logger:   log,
		registry: NewHandlerRegistry(cfg, append([]RegistryOption{WithLogger(log)}, opts...)...),
		basePath: basePath,
	}

	e.GET(healthPath, s.healthCheck)
	e.GET(readyPath, s.readyCheck)

	log.Debug().
		Str("base_path", basePath).
		Str("health_path", healthPath).
		Str("ready_path", readyPath).
		Msg("Server paths configured")

	return s
}

func normalizeRoute(route, defaultRoute string) string {
	if route == "" {
		return defaultRoute
	}
	return ensureLeadingSlash(route)
}

func ensureLeadingSlash(path string) string {
	if len(path) == 0 || path[0] != '/' {
		return "/" + path
	}
	return path
}

// Echo returns the underlying Echo instance.
func (s *Server) Echo() *echo.Echo {
	return s.echo
}

// Registry returns the handler registry used for route registration.
func (s *Server) Registry() *HandlerRegistry {
	return s.registry
}

// ModuleGroup returns a registrar with the configured base path applied.
func (s *Server) ModuleGroup() RouteRegistrar {
	return NewRouteGroup(s.echo.Group(s.basePath), s.basePath)
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Server.Host, s.cfg.Server.Port)

	s.logger.Info().
		Str("service", s.cfg.App.Name).
		Str("version", s.cfg.App.Version).
		Str("env", s.cfg.App.Env).
		Str("address", addr).
		Int("routes", s.registry.Routes().Count()).
		Msg("Starting server...")

	server := &http.Server{
		Addr:         addr,
		ReadTimeout:  s.cfg.Server.Timeout.Read,
		WriteTimeout: s.cfg.Server.Timeout.Write,
		IdleTimeout:  s.cfg.Server.Timeout.Idle,
	}
	return s.echo.StartServer(server)
}

// Shutdown gracefully shuts down the server within the context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

func (s *Server) healthCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) readyCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"status": "ready",
		"routes": s.registry.Routes().Count(),
		"time":   time.Now().Unix(),
	})
}

func customErrorHandler(err error, c echo.Context, cfg *config.Config, log logger.Logger) {
	if c.Response().Committed {
		return
	}

	var apiErr IAPIError
	if goerrors.As(err, &apiErr) {
		_ = formatErrorResponse(c, apiErr, cfg)
		return
	}

	status := http.StatusInternalServerError
	msg := "Internal server error"
	var he *echo.HTTPError
	if goerrors.As(err, &he) {
		status = he.Code
		switch m := he.Message.(type) {
		case string:
			msg = m
		case error:
			msg = m.Error()
		}
	}

	if status >= http.StatusInternalServerError {
		log.WithContext(c.Request().Context()).Error().Err(err).Msg("Unhandled error")
		if !cfg.App.Debug {
			msg = "An error occurred while processing your request"
		}
	}

	base := NewBaseAPIError(statusToErrorCode(status), msg, status)
	if cfg.IsDevelopment() {
		_ = base.WithDetails("error", err.Error())
	}
	_ = formatErrorResponse(c, base, cfg)
}
