package server

import (
	"time"

	"github.com/labstack/echo/v4"

	"github.com/gaborage/go-params/logger"
)

// LoggerConfig configures the request logging middleware.
type LoggerConfig struct {
	// HealthPath and ReadyPath are excluded from logging.
	HealthPath string
	ReadyPath  string

	// SlowRequestThreshold marks slower requests with result_code WARN.
	// Zero disables the check.
	SlowRequestThreshold time.Duration
}

// LoggerWithConfig logs one action line per request carrying the HTTP
// outcome and the parameter validation stats of the request. When the
// request already emitted a WARN or higher log line the summary is skipped.
func LoggerWithConfig(log logger.Logger, cfg LoggerConfig) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			path := c.Path()
			if path == "" {
				path = c.Request().URL.Path
			}
			if path == cfg.HealthPath || path == cfg.ReadyPath {
				return next(c)
			}

			reqCtx := newRequestLogContext()
			ctx := logger.WithValidationStats(c.Request().Context())
			ctx = logger.WithSeverityHook(ctx, reqCtx.escalateSeverity)
			c.SetRequest(c.Request().WithContext(ctx))

			err := next(c)
			if err != nil {
				// let the error handler write the response so the status is final
				c.Error(err)
			}

			if !reqCtx.explicitWarning() {
				logActionSummary(c, log, cfg, time.Since(reqCtx.startTime), err)
			}
			return nil
		}
	}
}

func logActionSummary(c echo.Context, log logger.Logger, cfg LoggerConfig, latency time.Duration, err error) {
	ctx := c.Request().Context()
	status := c.Response().Status
	level, resultCode := determineSeverity(status, latency, cfg.SlowRequestThreshold, err)

	contextLog := log.WithContext(ctx)
	var event logger.LogEvent
	switch level {
	case "error":
		event = contextLog.Error()
	case "warn":
		event = contextLog.Warn()
	default:
		event = contextLog.Info()
	}
	if err != nil {
		event = event.Err(err)
	}

	if stats := logger.ValidationStatsFrom(ctx); stats != nil {
		event = event.
			Int64("params.validated", stats.Params()).
			Bool("params.failed", stats.Failed()).
			Dur("params.elapsed", stats.Elapsed())
	}

	req := c.Request()
	event.
		Str("log.type", "action").
		Str("request_id", c.Response().Header().Get(echo.HeaderXRequestID)).
		Str("http.request.method", req.Method).
		Int("http.response.status_code", status).
		Int64("http.server.request.duration", latency.Nanoseconds()).
		Str("url.path", req.URL.Path).
		Str("http.route", c.Path()).
		Str("client.address", c.RealIP()).
		Str("result_code", resultCode).
		Msgf("%s %s completed in %s with status %d", req.Method, req.URL.Path, latency, status)
}

// determineSeverity maps status and latency to a log level and result code.
func determineSeverity(status int, latency, threshold time.Duration, err error) (level, resultCode string) {
	switch {
	case status >= 500 || (err != nil && status == 0):
		return "error", "ERROR"
	case status >= 400:
		return "warn", "WARN"
	case threshold > 0 && latency > threshold:
		return "info", "WARN"
	default:
		return "info", "INFO"
	}
}
