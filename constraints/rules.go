package constraints

import (
	"errors"
	"fmt"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

// tagValidator returns the shared validator instance. validator.Validate is
// safe for concurrent use once configured.
func tagValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// checkTag rejects tag expressions the validator does not know.
// validator panics on undefined tags, so the probe runs under recover.
func checkTag(tag string) (err error) {
	if tag == "" {
		return fmt.Errorf("constraints: empty validate tag")
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("constraints: invalid validate tag %q: %v", tag, r)
		}
	}()
	_ = tagValidator().Var("", tag)
	return nil
}

func (s *Set) checkValidateTag(v any) *Violation {
	if s.tag == "" {
		return nil
	}
	switch v.(type) {
	case string, int64, float64, bool:
	default:
		return nil
	}

	err := tagValidator().Var(v, s.tag)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		return &Violation{Rule: RuleValidate, Message: tagMessage(fieldErrs[0])}
	}
	return &Violation{Rule: RuleValidate, Message: err.Error()}
}

func tagMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "len":
		return fmt.Sprintf("must be exactly %s characters", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of: %s", fe.Param())
	case "email":
		return "must be a valid email address"
	case "url", "http_url":
		return "must be a valid URL"
	case "uuid", "uuid4":
		return "must be a valid UUID"
	case "ip", "ipv4", "ipv6":
		return "must be a valid IP address"
	case "alphanum":
		return "must contain only letters and digits"
	case "lowercase":
		return "must be lowercase"
	case "uppercase":
		return "must be uppercase"
	default:
		return fmt.Sprintf("failed %s validation", fe.Tag())
	}
}
