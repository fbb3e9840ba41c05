// Package constraints provides immutable constraint sets attached to declared
// parameters. A Set is checked against an already coerced value in a fixed
// order: list cardinality, length, allowed characters, denied characters,
// numeric bounds, pattern, validator tag, custom predicate and JSON schema.
package constraints

import (
	"fmt"
	"regexp"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// Rule names the constraint a Violation comes from.
type Rule string

const (
	RuleMinItems   Rule = "min_items"
	RuleMaxItems   Rule = "max_items"
	RuleMinLength  Rule = "min_length"
	RuleMaxLength  Rule = "max_length"
	RuleAllowChars Rule = "allow_chars"
	RuleDenyChars  Rule = "deny_chars"
	RuleMin        Rule = "min"
	RuleMax        Rule = "max"
	RulePattern    Rule = "pattern"
	RuleValidate   Rule = "validate"
	RuleFunc       Rule = "func"
	RuleSchema     Rule = "schema"
)

// Violation is a single failed constraint with a human-readable reason.
type Violation struct {
	Rule    Rule
	Message string
}

// Error implements the error interface.
func (v *Violation) Error() string {
	return v.Message
}

// Predicate is a caller-supplied check run against the fully coerced value.
// A false result with an empty message yields a generic failure message.
// Panics raised by a predicate are not recovered.
type Predicate func(value any) (ok bool, message string)

// Set is an immutable bundle of optional constraints.
// The nil *Set has no constraints.
type Set struct {
	minItems  *int
	maxItems  *int
	minLength *int
	maxLength *int
	allow     string
	deny      string
	min       *float64
	max       *float64
	pattern   *regexp.Regexp
	tag       string
	predicate Predicate
	schemaDoc string
	schema    *jsonschema.Schema
}

// Option configures a Set during construction.
type Option func(*Set) error

// New builds a Set. Patterns, validator tags and schemas are compiled here so
// that mistakes surface at registration time rather than per request.
func New(opts ...Option) (*Set, error) {
	s := &Set{}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	if s.minItems != nil && s.maxItems != nil && *s.minItems > *s.maxItems {
		return nil, fmt.Errorf("constraints: min items %d exceeds max items %d", *s.minItems, *s.maxItems)
	}
	if s.minLength != nil && s.maxLength != nil && *s.minLength > *s.maxLength {
		return nil, fmt.Errorf("constraints: min length %d exceeds max length %d", *s.minLength, *s.maxLength)
	}
	if s.min != nil && s.max != nil && *s.min > *s.max {
		return nil, fmt.Errorf("constraints: min %v exceeds max %v", *s.min, *s.max)
	}
	return s, nil
}

// MustNew is like New but panics on error. Intended for package-level declarations.
func MustNew(opts ...Option) *Set {
	s, err := New(opts...)
	if err != nil {
		panic(err)
	}
	return s
}

// MinItems bounds the cardinality of a list from below.
func MinItems(n int) Option {
	return func(s *Set) error {
		s.minItems = &n
		return nil
	}
}

// MaxItems bounds the cardinality of a list from above.
func MaxItems(n int) Option {
	return func(s *Set) error {
		s.maxItems = &n
		return nil
	}
}

// MinLength bounds string length (in characters). For lists it applies per element.
func MinLength(n int) Option {
	return func(s *Set) error {
		s.minLength = &n
		return nil
	}
}

// MaxLength bounds string length (in characters). For lists it applies per element.
func MaxLength(n int) Option {
	return func(s *Set) error {
		s.maxLength = &n
		return nil
	}
}

// AllowChars restricts strings to the given characters.
func AllowChars(chars string) Option {
	return func(s *Set) error {
		s.allow = chars
		return nil
	}
}

// DenyChars rejects strings containing any of the given characters.
func DenyChars(chars string) Option {
	return func(s *Set) error {
		s.deny = chars
		return nil
	}
}

// Min is an inclusive lower bound for Int, Float and integer Enum values.
func Min(v float64) Option {
	return func(s *Set) error {
		s.min = &v
		return nil
	}
}

// Max is an inclusive upper bound for Int, Float and integer Enum values.
func Max(v float64) Option {
	return func(s *Set) error {
		s.max = &v
		return nil
	}
}

// Pattern requires strings to match the regular expression. The expression is
// not implicitly anchored.
func Pattern(expr string) Option {
	return func(s *Set) error {
		re, err := regexp.Compile(expr)
		if err != nil {
			return fmt.Errorf("constraints: invalid pattern %q: %w", expr, err)
		}
		s.pattern = re
		return nil
	}
}

// Validate applies a go-playground/validator tag expression (e.g. "email",
// "url", "alphanum,lowercase") to scalar values.
func Validate(tag string) Option {
	return func(s *Set) error {
		if err := checkTag(tag); err != nil {
			return err
		}
		s.tag = tag
		return nil
	}
}

// Func installs a boolean predicate. A false result reports a generic message.
func Func(fn func(value any) bool) Option {
	return func(s *Set) error {
		if fn == nil {
			return fmt.Errorf("constraints: nil predicate")
		}
		s.predicate = func(v any) (bool, string) { return fn(v), "" }
		return nil
	}
}

// FuncWithMessage installs a predicate whose failure message is reported verbatim.
func FuncWithMessage(fn Predicate) Option {
	return func(s *Set) error {
		if fn == nil {
			return fmt.Errorf("constraints: nil predicate")
		}
		s.predicate = fn
		return nil
	}
}

// Schema validates the whole value against a JSON Schema document.
func Schema(doc string) Option {
	return func(s *Set) error {
		compiled, err := compileSchema(doc)
		if err != nil {
			return err
		}
		s.schemaDoc = doc
		s.schema = compiled
		return nil
	}
}

// MinItems returns the list cardinality lower bound.
func (s *Set) MinItems() (int, bool) { return intBound(s, func(s *Set) *int { return s.minItems }) }

// MaxItems returns the list cardinality upper bound.
func (s *Set) MaxItems() (int, bool) { return intBound(s, func(s *Set) *int { return s.maxItems }) }

// MinLength returns the string length lower bound.
func (s *Set) MinLength() (int, bool) { return intBound(s, func(s *Set) *int { return s.minLength }) }

// MaxLength returns the string length upper bound.
func (s *Set) MaxLength() (int, bool) { return intBound(s, func(s *Set) *int { return s.maxLength }) }

// Min returns the numeric lower bound.
func (s *Set) Min() (float64, bool) {
	if s == nil || s.min == nil {
		return 0, false
	}
	return *s.min, true
}

// Max returns the numeric upper bound.
func (s *Set) Max() (float64, bool) {
	if s == nil || s.max == nil {
		return 0, false
	}
	return *s.max, true
}

// Pattern returns the source of the regular expression, if any.
func (s *Set) Pattern() string {
	if s == nil || s.pattern == nil {
		return ""
	}
	return s.pattern.String()
}

// ValidateTag returns the validator tag expression, if any.
func (s *Set) ValidateTag() string {
	if s == nil {
		return ""
	}
	return s.tag
}

// SchemaDocument returns the explicit JSON Schema document, if any.
func (s *Set) SchemaDocument() string {
	if s == nil {
		return ""
	}
	return s.schemaDoc
}

// HasPredicate reports whether a custom predicate is installed.
func (s *Set) HasPredicate() bool {
	return s != nil && s.predicate != nil
}

func intBound(s *Set, get func(*Set) *int) (int, bool) {
	if s == nil {
		return 0, false
	}
	if p := get(s); p != nil {
		return *p, true
	}
	return 0, false
}
