// Package params declares handler parameters and validates them against the
// raw sources of a request.
//
// A Param is built once, at registration time, and is immutable afterwards.
// Validate resolves each declared parameter from its source, applies defaults
// and Optional semantics, coerces the raw value to the declared type, checks
// file rules and constraints, and returns the typed values by name.
package params

import (
	"errors"
	"fmt"

	"github.com/gaborage/go-params/coerce"
	"github.com/gaborage/go-params/constraints"
	"github.com/gaborage/go-params/source"
	"github.com/gaborage/go-params/types"
)

// Param is one declared handler parameter.
type Param struct {
	name        string
	typ         types.Descriptor
	src         source.Spec
	constraints *constraints.Set
	def         any
	hasDefault  bool
	alias       string
	format      string
	deprecated  bool
	blankNone   *bool
	noImplicit  bool
	splitCSV    bool
	description string
	example     any
	err         error
}

// Option configures a Param.
type Option func(*Param)

// New declares a parameter. Problems with the declaration, such as an
// unsupported source, are reported here rather than per request.
func New(name string, typ types.Descriptor, src source.Spec, opts ...Option) (Param, error) {
	p := Param{name: name, typ: typ, src: src}
	for _, opt := range opts {
		opt(&p)
	}

	if name == "" {
		return Param{}, errors.New("params: parameter name is required")
	}
	if !typ.IsValid() {
		return Param{}, fmt.Errorf("params: parameter %q has no type", name)
	}
	if err := source.Check(src); err != nil {
		return Param{}, &Error{Kind: KindInvalidSourceType, Param: name, Detail: err.Error(), Err: err}
	}
	if _, isFile := source.FileRules(src); isFile && !bearsFile(typ) {
		return Param{}, &Error{
			Kind:   KindInvalidSourceType,
			Param:  name,
			Source: src.String(),
			Type:   typ.Name(),
			Detail: "file sources require a file type",
		}
	}
	if p.err != nil {
		return Param{}, fmt.Errorf("params: parameter %q: %w", name, p.err)
	}
	if p.format != "" {
		if _, err := coerce.Layout(p.format); err != nil {
			return Param{}, fmt.Errorf("params: parameter %q: %w", name, err)
		}
	}
	return p, nil
}

// MustNew is like New but panics on error.
func MustNew(name string, typ types.Descriptor, src source.Spec, opts ...Option) Param {
	p, err := New(name, typ, src, opts...)
	if err != nil {
		panic(err)
	}
	return p
}

func bearsFile(t types.Descriptor) bool {
	switch t.Kind() {
	case types.KindFile, types.KindAny:
		return true
	case types.KindOptional:
		return bearsFile(t.Inner())
	case types.KindList:
		return bearsFile(t.Elem())
	case types.KindUnion:
		for _, m := range t.Members() {
			if bearsFile(m) {
				return true
			}
		}
	}
	return false
}

// WithConstraints builds and attaches a constraint set.
func WithConstraints(opts ...constraints.Option) Option {
	return func(p *Param) {
		set, err := constraints.New(opts...)
		if err != nil {
			p.err = err
			return
		}
		p.constraints = set
	}
}

// WithConstraintSet attaches an already built constraint set.
func WithConstraintSet(set *constraints.Set) Option {
	return func(p *Param) { p.constraints = set }
}

// WithDefault sets the value used when the parameter is absent. Defaults are
// returned as declared, without coercion or constraint checks.
func WithDefault(v any) Option {
	return func(p *Param) {
		p.def = v
		p.hasDefault = true
	}
}

// WithAlias looks the parameter up under a different raw key.
func WithAlias(key string) Option {
	return func(p *Param) { p.alias = key }
}

// WithFormat sets an explicit datetime format, as a Go layout or a strftime pattern.
func WithFormat(format string) Option {
	return func(p *Param) { p.format = format }
}

// Deprecated marks the parameter as deprecated. Supplying it logs a warning.
func Deprecated() Option {
	return func(p *Param) { p.deprecated = true }
}

// WithBlankNone overrides the process-wide blank-string-means-None setting.
func WithBlankNone(enabled bool) Option {
	return func(p *Param) { p.blankNone = &enabled }
}

// DisableImplicitList rejects a bare value for a List type.
func DisableImplicitList() Option {
	return func(p *Param) { p.noImplicit = true }
}

// SplitCSV splits comma-separated text into list elements.
func SplitCSV() Option {
	return func(p *Param) { p.splitCSV = true }
}

// WithDescription documents the parameter.
func WithDescription(desc string) Option {
	return func(p *Param) { p.description = desc }
}

// WithExample documents an example value.
func WithExample(v any) Option {
	return func(p *Param) { p.example = v }
}

func (p Param) Name() string { return p.name }
func (p Param) Type() types.Descriptor { return p.typ }
func (p Param) Source() source.Spec { return p.src }
func (p Param) Constraints() *constraints.Set { return p.constraints }
func (p Param) Alias() string { return p.alias }
func (p Param) Format() string { return p.format }
func (p Param) IsDeprecated() bool { return p.deprecated }
func (p Param) Description() string { return p.description }
func (p Param) Example() any { return p.example }
func (p Param) Default() (any, bool) { return p.def, p.hasDefault }
func (p Param) ImplicitListDisabled() bool { return p.noImplicit }
func (p Param) SplitsCSV() bool { return p.splitCSV }

// Key is the raw key looked up in the source: the alias if set, else the name.
func (p Param) Key() string {
	if p.alias != "" {
		return p.alias
	}
	return p.name
}

// Required reports whether the parameter must be supplied.
func (p Param) Required() bool {
	return !p.typ.IsOptional() && !p.hasDefault
}

// BlankNone resolves the blank-string setting against the process-wide default.
// An explicit per-parameter setting always wins.
func (p Param) BlankNone(global bool) bool {
	if p.blankNone != nil {
		return *p.blankNone
	}
	return global
}

func (p Param) coerceOptions(origin source.Kind, cfg Config) coerce.Options {
	return coerce.Options{
		Origin:              origin,
		BlankNone:           p.BlankNone(cfg.BlankNone),
		DisableImplicitList: p.noImplicit,
		SplitCSV:            p.splitCSV,
		DateTimeFormat:      p.format,
	}
}
