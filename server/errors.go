package server

import (
	"errors"
	"maps"
	"net/http"

	"github.com/gaborage/go-params/params"
)

// Error codes used in API error responses.
const (
	CodeMissingInput       = "MISSING_INPUT"
	CodeInvalidType        = "INVALID_TYPE"
	CodeValidationFailed   = "VALIDATION_FAILED"
	CodeBodyNotParseable   = "BODY_NOT_PARSEABLE"
	CodeCustomValidation   = "CUSTOM_VALIDATION_FAILED"
	CodeInternalError      = "INTERNAL_ERROR"
	CodeBadRequest         = "BAD_REQUEST"
	CodeNotFound           = "NOT_FOUND"
	CodeMethodNotAllowed   = "METHOD_NOT_ALLOWED"
	CodeRequestTooLarge    = "REQUEST_TOO_LARGE"
	CodeTooManyRequests    = "TOO_MANY_REQUESTS"
	CodeServiceUnavailable = "SERVICE_UNAVAILABLE"
)

// BaseAPIError provides a basic implementation of IAPIError.
type BaseAPIError struct {
	code       string
	message    string
	httpStatus int
	details    map[string]any
}

// NewBaseAPIError creates a new base API error.
func NewBaseAPIError(code, message string, httpStatus int) *BaseAPIError {
	return &BaseAPIError{
		code:       code,
		message:    message,
		httpStatus: httpStatus,
		details:    make(map[string]any),
	}
}

// ErrorCode returns the error code.
func (e *BaseAPIError) ErrorCode() string {
	return e.code
}

// Message returns the error message.
func (e *BaseAPIError) Message() string {
	return e.message
}

// HTTPStatus returns the HTTP status code.
func (e *BaseAPIError) HTTPStatus() int {
	return e.httpStatus
}

// Details returns a copy of the error details.
func (e *BaseAPIError) Details() map[string]any {
	if e.details == nil {
		return nil
	}
	cp := make(map[string]any, len(e.details))
	maps.Copy(cp, e.details)
	return cp
}

// WithDetails adds details to the error.
func (e *BaseAPIError) WithDetails(key string, value any) *BaseAPIError {
	e.details[key] = value
	return e
}

func (e *BaseAPIError) Error() string {
	if e == nil {
		return ""
	}
	if e.code == "" {
		return e.message
	}
	return e.code + ": " + e.message
}

// NewBadRequestError creates a 400 error.
func NewBadRequestError(message string) *BaseAPIError {
	return NewBaseAPIError(CodeBadRequest, message, http.StatusBadRequest)
}

// NewNotFoundError creates a 404 error for the named resource.
func NewNotFoundError(resource string) *BaseAPIError {
	return NewBaseAPIError(CodeNotFound, resource+" not found", http.StatusNotFound)
}

// NewInternalServerError creates a 500 error.
func NewInternalServerError(message string) *BaseAPIError {
	if message == "" {
		message = "An internal error occurred"
	}
	return NewBaseAPIError(CodeInternalError, message, http.StatusInternalServerError)
}

// NewTooManyRequestsError creates a 429 error.
func NewTooManyRequestsError(message string) *BaseAPIError {
	if message == "" {
		message = "Rate limit exceeded"
	}
	return NewBaseAPIError(CodeTooManyRequests, message, http.StatusTooManyRequests)
}

// ParamError is the API form of a failed parameter validation.
type ParamError struct {
	*BaseAPIError
	cause error
}

// Unwrap returns the underlying *params.Error or params.Errors.
func (e *ParamError) Unwrap() error {
	return e.cause
}

// NewParamError maps a validation failure to an API error. A collect-all
// failure takes its code from the first error and lists all of them in the
// "errors" detail.
func NewParamError(err error) *ParamError {
	var all params.Errors
	if errors.As(err, &all) && len(all) > 0 {
		base := apiErrorFor(all[0], err.Error())
		items := make([]map[string]any, len(all))
		for i, perr := range all {
			items[i] = paramDetails(perr)
		}
		_ = base.WithDetails("errors", items)
		return &ParamError{BaseAPIError: base, cause: err}
	}

	var perr *params.Error
	if !errors.As(err, &perr) {
		return &ParamError{BaseAPIError: NewInternalServerError(""), cause: err}
	}
	base := apiErrorFor(perr, perr.Error())
	maps.Copy(base.details, paramDetails(perr))
	return &ParamError{BaseAPIError: base, cause: err}
}

func apiErrorFor(perr *params.Error, message string) *BaseAPIError {
	switch perr.Kind {
	case params.KindMissingInput:
		return NewBaseAPIError(CodeMissingInput, message, http.StatusBadRequest)
	case params.KindInvalidType:
		return NewBaseAPIError(CodeInvalidType, message, http.StatusBadRequest)
	case params.KindBodyNotParseable:
		return NewBaseAPIError(CodeBodyNotParseable, message, http.StatusBadRequest)
	case params.KindCustomPredicateError:
		return NewBaseAPIError(CodeCustomValidation, message, http.StatusBadRequest)
	case params.KindValidationFailed:
		return NewBaseAPIError(CodeValidationFailed, message, http.StatusBadRequest)
	default:
		// a declaration the server cannot serve is a programming error
		return NewInternalServerError("").WithDetails("error", message)
	}
}

func paramDetails(perr *params.Error) map[string]any {
	d := map[string]any{
		"param":  perr.Param,
		"kind":   perr.Kind.String(),
		"source": perr.Source,
	}
	if perr.Type != "" {
		d["type"] = perr.Type
	}
	if perr.Rule != "" {
		d["rule"] = string(perr.Rule)
	}
	if perr.Detail != "" {
		d["detail"] = perr.Detail
	}
	return d
}

func statusToErrorCode(status int) string {
	switch status {
	case http.StatusBadRequest:
		return CodeBadRequest
	case http.StatusNotFound:
		return CodeNotFound
	case http.StatusMethodNotAllowed:
		return CodeMethodNotAllowed
	case http.StatusRequestEntityTooLarge:
		return CodeRequestTooLarge
	case http.StatusTooManyRequests:
		return CodeTooManyRequests
	case http.StatusServiceUnavailable:
		return CodeServiceUnavailable
	default:
		return CodeInternalError
	}
}

var _ IAPIError = (*BaseAPIError)(nil)
