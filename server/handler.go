// Package server adapts declared request parameters to Echo handlers.
// Every registered route validates its parameters before the handler runs
// and answers failures with the standard APIResponse envelope.
package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/gaborage/go-params/config"
	"github.com/gaborage/go-params/logger"
	"github.com/gaborage/go-params/params"
)

const tracerName = "github.com/gaborage/go-params/server"

// IAPIError defines the interface for API errors with structured information.
type IAPIError interface {
	ErrorCode() string
	Message() string
	HTTPStatus() int
	Details() map[string]any
}

// APIResponse represents the standardized API response format.
type APIResponse struct {
	Data  any               `json:"data,omitempty"`
	Error *APIErrorResponse `json:"error,omitempty"`
	Meta  map[string]any    `json:"meta"`
}

// APIErrorResponse represents the error portion of an API response.
type APIErrorResponse struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// HandlerFunc receives the validated arguments of a request. Declared
// parameters that resolved to None are present with a nil value.
type HandlerFunc[R any] func(args params.Values, ctx HandlerContext) (R, IAPIError)

// HandlerContext provides access to Echo context and additional utilities when needed.
type HandlerContext struct {
	Echo   echo.Context
	Config *config.Config
	Logger logger.Logger
}

// ErrorHandler receives the raw validation error (*params.Error, or
// params.Errors in collect-all mode) and writes its own response.
type ErrorHandler func(c echo.Context, err error) error

// WrapHandler validates declared against each request and calls handler
// with the result. Validation runs inside a "params.validate" span and is
// counted in the params.validations metric.
func WrapHandler[R any](hr *HandlerRegistry, route *RouteDescriptor, handler HandlerFunc[R]) echo.HandlerFunc {
	declared := route.Params

	return func(c echo.Context) error {
		ctx, span := otel.Tracer(tracerName).Start(c.Request().Context(), "params.validate",
			trace.WithAttributes(
				attribute.String("http.route", route.Path),
				attribute.Int("params.declared", len(declared)),
			))
		start := time.Now()
		values, err := hr.validator.Validate(ctx, declared, hr.binder.Bundle(c))
		hr.metrics.record(ctx, route.Path, time.Since(start), err)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "parameter validation failed")
		}
		span.End()

		if err != nil {
			// body limit and similar transport errors keep their HTTP status
			var he *echo.HTTPError
			if errors.As(err, &he) {
				return he
			}
			if hr.errorHandler != nil {
				return hr.errorHandler(c, err)
			}
			return formatErrorResponse(c, NewParamError(err), hr.cfg)
		}

		response, apiErr := handler(values, HandlerContext{Echo: c, Config: hr.cfg, Logger: hr.log})
		if apiErr != nil {
			return formatErrorResponse(c, apiErr, hr.cfg)
		}

		status, headers, data := http.StatusOK, http.Header(nil), any(response)
		if rl, ok := any(response).(ResultLike); ok {
			status, headers, data = rl.ResultMeta()
		}
		if route.RawResponse {
			return formatRawResponse(c, data, status, headers)
		}
		return formatSuccessResponse(c, data, status, headers)
	}
}

// ResultLike exposes status, headers, and payload for successful responses.
type ResultLike interface {
	ResultMeta() (status int, headers http.Header, data any)
}

// Result lets a handler choose the status and headers of a success response.
type Result[R any] struct {
	Data    R
	Status  int
	Headers http.Header
}

// ResultMeta implements ResultLike.
func (r Result[R]) ResultMeta() (status int, headers http.Header, data any) {
	return r.Status, r.Headers, r.Data
}

// NewResult builds a Result with the given status.
func NewResult[R any](status int, data R) Result[R] {
	return Result[R]{Data: data, Status: status}
}

// Created returns a 201 Created Result for the given data.
func Created[R any](data R) Result[R] {
	return NewResult(http.StatusCreated, data)
}

// NoContentResult represents a 204 No Content response without a body.
type NoContentResult struct{}

// ResultMeta implements ResultLike.
func (NoContentResult) ResultMeta() (status int, headers http.Header, data any) {
	return http.StatusNoContent, nil, nil
}

// NoContent returns a 204 No Content result.
func NoContent() NoContentResult { return NoContentResult{} }

func writeHeaders(c echo.Context, headers http.Header) {
	for k, vals := range headers {
		for _, v := range vals {
			c.Response().Header().Add(k, v)
		}
	}
}

func formatSuccessResponse(c echo.Context, data any, status int, headers http.Header) error {
	if status == 0 {
		status = http.StatusOK
	}
	writeHeaders(c, headers)
	if status == http.StatusNoContent {
		return c.NoContent(http.StatusNoContent)
	}
	return c.JSON(status, APIResponse{Data: data, Meta: responseMeta(c)})
}

func formatRawResponse(c echo.Context, data any, status int, headers http.Header) error {
	if status == 0 {
		status = http.StatusOK
	}
	writeHeaders(c, headers)
	if status == http.StatusNoContent {
		return c.NoContent(http.StatusNoContent)
	}
	return c.JSON(status, data)
}

// formatErrorResponse writes apiErr. Details are only exposed in development.
func formatErrorResponse(c echo.Context, apiErr IAPIError, cfg *config.Config) error {
	errorResp := &APIErrorResponse{
		Code:    apiErr.ErrorCode(),
		Message: apiErr.Message(),
	}
	if cfg != nil && cfg.IsDevelopment() {
		if details := apiErr.Details(); len(details) > 0 {
			errorResp.Details = details
		}
	}
	return c.JSON(apiErr.HTTPStatus(), APIResponse{Error: errorResp, Meta: responseMeta(c)})
}

func responseMeta(c echo.Context) map[string]any {
	return map[string]any{
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"traceId":   getTraceID(c),
	}
}

// getTraceID returns the request id, generating one when no middleware set it.
func getTraceID(c echo.Context) string {
	if requestID := c.Request().Header.Get(echo.HeaderXRequestID); requestID != "" {
		return requestID
	}
	if requestID := c.Response().Header().Get(echo.HeaderXRequestID); requestID != "" {
		return requestID
	}
	newID := uuid.NewString()
	c.Response().Header().Set(echo.HeaderXRequestID, newID)
	return newID
}
