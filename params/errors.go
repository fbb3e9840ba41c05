package params

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gaborage/go-params/constraints"
)

// ErrorKind classifies a validation failure.
type ErrorKind int

const (
	KindMissingInput ErrorKind = iota + 1
	KindInvalidSourceType
	KindBodyNotParseable
	KindInvalidType
	KindValidationFailed
	KindCustomPredicateError
)

func (k ErrorKind) String() string {
	switch k {
	case KindMissingInput:
		return "missing_input"
	case KindInvalidSourceType:
		return "invalid_source_type"
	case KindBodyNotParseable:
		return "body_not_parseable"
	case KindInvalidType:
		return "invalid_type"
	case KindValidationFailed:
		return "validation_failed"
	case KindCustomPredicateError:
		return "custom_predicate_error"
	default:
		return "unknown"
	}
}

// Error is the structured outcome of a failed parameter.
type Error struct {
	Kind   ErrorKind
	Param  string
	Source string
	Type   string
	Rule   constraints.Rule
	Detail string
	Err    error
}

// Error returns a single human-readable message.
func (e *Error) Error() string {
	switch e.Kind {
	case KindMissingInput:
		return fmt.Sprintf("missing required %s parameter %q", e.Source, e.Param)
	case KindBodyNotParseable:
		return "request body is not parseable: " + e.Detail
	case KindInvalidType:
		return fmt.Sprintf("parameter %q must be of type %s: %s", e.Param, e.Type, e.Detail)
	case KindInvalidSourceType:
		return fmt.Sprintf("parameter %q has an unsupported source: %s", e.Param, e.Detail)
	default:
		return fmt.Sprintf("parameter %q %s", e.Param, e.Detail)
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsKind reports whether err is, or wraps, a parameter error of kind k.
// For collected errors it reports whether any of them has kind k.
func IsKind(err error, k ErrorKind) bool {
	var errs Errors
	if errors.As(err, &errs) {
		for _, e := range errs {
			if e.Kind == k {
				return true
			}
		}
		return false
	}
	var perr *Error
	return errors.As(err, &perr) && perr.Kind == k
}

// Errors holds every parameter failure of a collect-all validation pass.
type Errors []*Error

func (e Errors) Error() string {
	msgs := make([]string, len(e))
	for i, err := range e {
		msgs[i] = err.Error()
	}
	return strings.Join(msgs, "; ")
}

func (e Errors) Unwrap() []error {
	out := make([]error, len(e))
	for i, err := range e {
		out[i] = err
	}
	return out
}
