package coerce

import (
	"fmt"
	"strings"
	"time"

	"github.com/gaborage/go-params/types"
)

var isoDateTimeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05Z0700",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04Z07:00",
	"2006-01-02T15:04",
	"2006-01-02",
}

// permissiveLayouts are tried after the ISO layouts for DateTime only.
var permissiveLayouts = []string{
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	time.RFC1123Z,
	time.RFC1123,
	time.RFC850,
	time.RFC822Z,
	time.RFC822,
	time.RubyDate,
	time.UnixDate,
	time.ANSIC,
	"2006/01/02 15:04:05",
	"2006/01/02",
	"01/02/2006 15:04:05",
	"01/02/2006",
	"January 2, 2006 15:04:05",
	"January 2, 2006",
	"Jan 2, 2006",
	"2 January 2006",
	"2 Jan 2006",
	"20060102T150405Z0700",
	"20060102",
}

var isoDateLayouts = []string{"2006-01-02"}

var isoTimeLayouts = []string{
	"15:04:05Z07:00",
	"15:04:05",
	"15:04Z07:00",
	"15:04",
}

func (c coercer) datetime(raw any, t types.Descriptor, path string) (any, error) {
	if tm, ok := raw.(time.Time); ok {
		return tm, nil
	}
	s, ok := raw.(string)
	if !ok {
		return nil, c.mismatch(path, t, raw, "")
	}

	if c.opts.DateTimeFormat != "" {
		layout, err := Layout(c.opts.DateTimeFormat)
		if err != nil {
			return nil, &Error{Path: path, Expected: t.Name(), Got: Describe(raw), Reason: err.Error(), Err: ErrFormatMismatch}
		}
		tm, err := time.Parse(layout, s)
		if err != nil {
			return nil, &Error{
				Path:     path,
				Expected: t.Name(),
				Got:      Describe(raw),
				Reason:   "does not match format " + c.opts.DateTimeFormat,
				Err:      ErrFormatMismatch,
			}
		}
		return tm, nil
	}

	var layouts [][]string
	switch t.Kind() {
	case types.KindDate:
		layouts = [][]string{isoDateLayouts}
	case types.KindTime:
		layouts = [][]string{isoTimeLayouts}
	default:
		layouts = [][]string{isoDateTimeLayouts, permissiveLayouts}
	}
	for _, group := range layouts {
		for _, layout := range group {
			if tm, err := time.Parse(layout, s); err == nil {
				return tm, nil
			}
		}
	}
	return nil, c.mismatch(path, t, raw, "unrecognized "+t.Name()+" format")
}

var strftime = map[byte]string{
	'Y': "2006",
	'y': "06",
	'm': "01",
	'd': "02",
	'e': "_2",
	'H': "15",
	'I': "03",
	'M': "04",
	'S': "05",
	'f': "000000",
	'p': "PM",
	'b': "Jan",
	'h': "Jan",
	'B': "January",
	'a': "Mon",
	'A': "Monday",
	'z': "-0700",
	'Z': "MST",
	'j': "002",
	'F': "2006-01-02",
	'T': "15:04:05",
	'D': "01/02/06",
	'R': "15:04",
	'%': "%",
}

// Layout returns the Go time layout for format. Formats containing '%' are
// read as strftime patterns; anything else is taken as a Go layout.
func Layout(format string) (string, error) {
	if !strings.Contains(format, "%") {
		return format, nil
	}
	var b strings.Builder
	for i := 0; i < len(format); i++ {
		if format[i] != '%' {
			b.WriteByte(format[i])
			continue
		}
		if i+1 >= len(format) {
			return "", fmt.Errorf("dangling %% at end of format %q", format)
		}
		i++
		repl, ok := strftime[format[i]]
		if !ok {
			return "", fmt.Errorf("unsupported directive %%%c in format %q", format[i], format)
		}
		b.WriteString(repl)
	}
	return b.String(), nil
}
