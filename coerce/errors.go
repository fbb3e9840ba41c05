package coerce

import (
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"strings"
	"unicode/utf8"
)

var (
	// ErrTypeMismatch marks a value whose shape cannot be coerced to the declared type.
	ErrTypeMismatch = errors.New("type mismatch")
	// ErrFormatMismatch marks a datetime that does not parse with an explicit format.
	ErrFormatMismatch = errors.New("format mismatch")
	// ErrMissingField marks a required record field that is absent.
	ErrMissingField = errors.New("missing required field")
)

// Error describes a coercion failure. Path locates the failing element inside
// the parameter value, e.g. "[2].id"; it is empty for the value itself.
type Error struct {
	Path     string
	Expected string
	Got      string
	Reason   string
	Err      error
}

func (e *Error) Error() string {
	var b strings.Builder
	if e.Path != "" {
		b.WriteString(e.Path)
		b.WriteString(": ")
	}
	if errors.Is(e.Err, ErrMissingField) {
		fmt.Fprintf(&b, "missing required field of type %s", e.Expected)
		return b.String()
	}
	fmt.Fprintf(&b, "expected %s, got %s", e.Expected, e.Got)
	if e.Reason != "" {
		b.WriteString(" (")
		b.WriteString(e.Reason)
		b.WriteString(")")
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

const maxDescribedLen = 40

// Describe renders the runtime shape of a raw value for error messages.
func Describe(v any) string {
	switch x := v.(type) {
	case nil:
		return "null"
	case string:
		if utf8.RuneCountInString(x) > maxDescribedLen {
			x = string([]rune(x)[:maxDescribedLen]) + "..."
		}
		return fmt.Sprintf("string %q", x)
	case json.Number:
		return "number " + x.String()
	case bool:
		return fmt.Sprintf("bool %t", x)
	case int, int32, int64:
		return fmt.Sprintf("int %d", x)
	case float32, float64:
		return fmt.Sprintf("float %v", x)
	case []string, []any, []*multipart.FileHeader:
		return "list"
	case map[string]any:
		return "object"
	case *multipart.FileHeader:
		return "file"
	default:
		return fmt.Sprintf("%T", v)
	}
}

func indexPath(parent string, i int) string {
	return fmt.Sprintf("%s[%d]", parent, i)
}

func fieldPath(parent, name string) string {
	if parent == "" {
		return name
	}
	return parent + "." + name
}
