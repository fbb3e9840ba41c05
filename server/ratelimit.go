package server

import (
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"

	"github.com/gaborage/go-params/config"
)

// RateLimitCleanup is how long an idle client's limiter is kept.
const RateLimitCleanup = 3 * time.Minute

// RateLimit limits requests per client IP with a token bucket. A zero or
// negative limit disables it; a missing burst defaults to twice the limit.
func RateLimit(cfg config.RateConfig) echo.MiddlewareFunc {
	if cfg.Limit <= 0 {
		return func(next echo.HandlerFunc) echo.HandlerFunc {
			return next
		}
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = cfg.Limit * 2
	}

	return middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
		Skipper: middleware.DefaultSkipper,
		Store: middleware.NewRateLimiterMemoryStoreWithConfig(
			middleware.RateLimiterMemoryStoreConfig{
				Rate:      rate.Limit(cfg.Limit),
				Burst:     burst,
				ExpiresIn: RateLimitCleanup,
			},
		),
		IdentifierExtractor: func(c echo.Context) (string, error) {
			return c.RealIP(), nil
		},
		ErrorHandler: func(c echo.Context, _ error) error {
			return formatErrorResponse(c, NewBadRequestError("Unable to identify client"), nil)
		},
		DenyHandler: func(c echo.Context, _ string, _ error) error {
			return formatErrorResponse(c, NewTooManyRequestsError(""), nil)
		},
	})
}
