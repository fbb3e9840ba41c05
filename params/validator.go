package params

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/gaborage/go-params/coerce"
	"github.com/gaborage/go-params/constraints"
	"github.com/gaborage/go-params/logger"
	"github.com/gaborage/go-params/source"
)

// Config is the process-wide validation policy, normally loaded from the
// "validation" configuration section.
type Config struct {
	// BlankNone makes an empty string from a text source count as None for
	// Optional parameters. Individual parameters may override it.
	BlankNone bool
	// CollectAll keeps validating after the first failure and reports every
	// failing parameter as Errors.
	CollectAll bool
}

// Validator runs declared parameters against a request's sources.
// It holds no per-request state and is safe for concurrent use.
type Validator struct {
	cfg Config
	log logger.Logger
}

// ValidatorOption configures a Validator.
type ValidatorOption func(*Validator)

// WithConfig sets the validation policy.
func WithConfig(cfg Config) ValidatorOption {
	return func(v *Validator) { v.cfg = cfg }
}

// WithCollectAll reports every failing parameter instead of the first one.
func WithCollectAll() ValidatorOption {
	return func(v *Validator) { v.cfg.CollectAll = true }
}

// WithLogger sets the logger used for deprecation warnings and debug output.
func WithLogger(l logger.Logger) ValidatorOption {
	return func(v *Validator) {
		if l != nil {
			v.log = l
		}
	}
}

// NewValidator creates a Validator.
func NewValidator(opts ...ValidatorOption) *Validator {
	v := &Validator{log: logger.Nop()}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Config returns the validation policy.
func (v *Validator) Config() Config {
	return v.cfg
}

// Validate checks declared against the bundle with the default validator.
func Validate(ctx context.Context, declared []Param, b *source.Bundle, cfg Config) (Values, error) {
	return NewValidator(WithConfig(cfg)).Validate(ctx, declared, b)
}

// Validate resolves every declared parameter in declaration order.
// It stops at the first failure and returns it as *Error, unless CollectAll
// is set, in which case all failures are returned as Errors.
func (v *Validator) Validate(ctx context.Context, declared []Param, b *source.Bundle) (Values, error) {
	start := time.Now()
	values := make(Values, len(declared))
	var collected Errors

	for _, p := range declared {
		val, perr := v.validateOne(ctx, p, b)
		if perr == nil {
			values[p.name] = val
			continue
		}

		v.record(ctx, perr)
		if !v.cfg.CollectAll {
			logger.RecordValidation(ctx, len(values)+1, true, time.Since(start))
			return nil, perr
		}
		collected = append(collected, perr)
	}

	logger.RecordValidation(ctx, len(declared), len(collected) > 0, time.Since(start))
	if len(collected) > 0 {
		return nil, collected
	}
	return values, nil
}

func (v *Validator) validateOne(ctx context.Context, p Param, b *source.Bundle) (any, *Error) {
	raw, from, found, err := source.Resolve(b, p.src, p.Key())
	if err != nil {
		return nil, sourceError(p, err)
	}

	if !found {
		switch {
		case p.hasDefault:
			return p.def, nil
		case p.typ.IsOptional():
			return nil, nil
		default:
			return nil, &Error{Kind: KindMissingInput, Param: p.name, Source: p.src.String(), Type: p.typ.Name()}
		}
	}

	if p.deprecated {
		v.log.WithContext(ctx).Warn().
			Str("param", p.name).
			Str("source", from.String()).
			Msg("Deprecated parameter supplied")
	}

	val, err := coerce.Coerce(raw, p.typ, p.coerceOptions(from, v.cfg))
	if err != nil {
		return nil, &Error{
			Kind:   KindInvalidType,
			Param:  p.name,
			Source: from.String(),
			Type:   p.typ.Name(),
			Detail: err.Error(),
			Err:    err,
		}
	}
	if !p.typ.Accepts(val) {
		return nil, &Error{
			Kind:   KindInvalidType,
			Param:  p.name,
			Source: from.String(),
			Type:   p.typ.Name(),
			Detail: "got " + coerce.Describe(val),
			Err:    coerce.ErrTypeMismatch,
		}
	}
	if val == nil {
		return nil, nil
	}

	if rules, ok := source.FileRules(p.src); ok && from == source.KindFile {
		if ferr := checkFiles(val, rules); ferr != nil {
			ferr.Param = p.name
			ferr.Source = from.String()
			ferr.Type = p.typ.Name()
			return nil, ferr
		}
	}

	if viol := p.constraints.First(val); viol != nil {
		kind := KindValidationFailed
		if viol.Rule == constraints.RuleFunc {
			kind = KindCustomPredicateError
		}
		return nil, &Error{
			Kind:   kind,
			Param:  p.name,
			Source: from.String(),
			Type:   p.typ.Name(),
			Rule:   viol.Rule,
			Detail: viol.Message,
			Err:    viol,
		}
	}
	return val, nil
}

func sourceError(p Param, err error) *Error {
	kind := KindBodyNotParseable
	if errors.Is(err, source.ErrUnknownKind) {
		kind = KindInvalidSourceType
	}
	return &Error{Kind: kind, Param: p.name, Source: p.src.String(), Type: p.typ.Name(), Detail: err.Error(), Err: err}
}

// record attaches the failure to the active span and logs it at debug level.
func (v *Validator) record(ctx context.Context, perr *Error) {
	span := trace.SpanFromContext(ctx)
	span.AddEvent("param.invalid", trace.WithAttributes(
		attribute.String("param.name", perr.Param),
		attribute.String("param.error_kind", perr.Kind.String()),
		attribute.String("param.source", perr.Source),
	))

	v.log.WithContext(ctx).Debug().
		Str("param", perr.Param).
		Str("kind", perr.Kind.String()).
		Str("detail", perr.Detail).
		Msg("Parameter validation failed")
}
