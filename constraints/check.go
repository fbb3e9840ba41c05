package constraints

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/gaborage/go-params/types"
)

const genericPredicateMessage = "failed validator function"

// Check runs every constraint against v and returns all violations in check order.
func (s *Set) Check(v any) []Violation {
	var out []Violation
	s.walk(v, func(viol Violation) bool {
		out = append(out, viol)
		return true
	})
	return out
}

// First returns the first violation in check order, or nil when v satisfies the set.
// Later checks, including the predicate, are not run once a violation is found.
func (s *Set) First(v any) *Violation {
	var first *Violation
	s.walk(v, func(viol Violation) bool {
		first = &viol
		return false
	})
	return first
}

// walk reports violations to emit until it returns false.
func (s *Set) walk(v any, emit func(Violation) bool) {
	if s == nil {
		return
	}

	items, isList := v.([]any)
	elems := []any{v}
	if isList {
		elems = items
		if s.minItems != nil && len(items) < *s.minItems {
			if !emit(Violation{Rule: RuleMinItems, Message: fmt.Sprintf("must have at least %d items", *s.minItems)}) {
				return
			}
		}
		if s.maxItems != nil && len(items) > *s.maxItems {
			if !emit(Violation{Rule: RuleMaxItems, Message: fmt.Sprintf("must have a maximum of %d items", *s.maxItems)}) {
				return
			}
		}
	}

	for _, check := range []func(any) *Violation{
		s.checkMinLength,
		s.checkMaxLength,
		s.checkAllow,
		s.checkDeny,
		s.checkMin,
		s.checkMax,
		s.checkPattern,
		s.checkValidateTag,
	} {
		for i, elem := range elems {
			viol := check(elem)
			if viol == nil {
				continue
			}
			if isList {
				viol.Message = fmt.Sprintf("item %d %s", i, viol.Message)
			}
			if !emit(*viol) {
				return
			}
		}
	}

	if s.predicate != nil {
		if ok, msg := s.predicate(v); !ok {
			if msg == "" {
				msg = genericPredicateMessage
			}
			if !emit(Violation{Rule: RuleFunc, Message: msg}) {
				return
			}
		}
	}

	if s.schema != nil {
		if viol := s.checkSchema(v); viol != nil {
			emit(*viol)
		}
	}
}

func (s *Set) checkMinLength(v any) *Violation {
	str, ok := v.(string)
	if !ok || s.minLength == nil || utf8.RuneCountInString(str) >= *s.minLength {
		return nil
	}
	return &Violation{Rule: RuleMinLength, Message: fmt.Sprintf("must have at least %d characters", *s.minLength)}
}

func (s *Set) checkMaxLength(v any) *Violation {
	str, ok := v.(string)
	if !ok || s.maxLength == nil || utf8.RuneCountInString(str) <= *s.maxLength {
		return nil
	}
	return &Violation{Rule: RuleMaxLength, Message: fmt.Sprintf("must have a maximum of %d characters", *s.maxLength)}
}

func (s *Set) checkAllow(v any) *Violation {
	str, ok := v.(string)
	if !ok || s.allow == "" {
		return nil
	}
	for _, r := range str {
		if !strings.ContainsRune(s.allow, r) {
			return &Violation{Rule: RuleAllowChars, Message: "must contain only characters: " + s.allow}
		}
	}
	return nil
}

func (s *Set) checkDeny(v any) *Violation {
	str, ok := v.(string)
	if !ok || s.deny == "" {
		return nil
	}
	if strings.ContainsAny(str, s.deny) {
		return &Violation{Rule: RuleDenyChars, Message: "must not contain: " + s.deny}
	}
	return nil
}

func (s *Set) checkMin(v any) *Violation {
	n, ok := numeric(v)
	if !ok || s.min == nil || n >= *s.min {
		return nil
	}
	return &Violation{Rule: RuleMin, Message: "must be larger than " + formatBound(*s.min)}
}

func (s *Set) checkMax(v any) *Violation {
	n, ok := numeric(v)
	if !ok || s.max == nil || n <= *s.max {
		return nil
	}
	return &Violation{Rule: RuleMax, Message: "must be smaller than " + formatBound(*s.max)}
}

func (s *Set) checkPattern(v any) *Violation {
	str, ok := v.(string)
	if !ok || s.pattern == nil || s.pattern.MatchString(str) {
		return nil
	}
	return &Violation{Rule: RulePattern, Message: "pattern does not match: " + s.pattern.String()}
}

// numeric extracts a comparable number from Int, Float and integer Enum values.
func numeric(v any) (float64, bool) {
	switch n := v.(type) {
	case int64:
		return float64(n), true
	case float64:
		return n, true
	case types.EnumValue:
		if i, ok := n.Value.(int64); ok {
			return float64(i), true
		}
	}
	return 0, false
}

func formatBound(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
