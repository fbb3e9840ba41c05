// Package coerce converts raw, weakly typed request values into the shape a
// types.Descriptor declares.
//
// Coercion is target directed: the declared type decides which conversions
// are attempted, and the origin of the raw value decides which heuristics
// apply. Text from query strings, forms, headers and untyped path segments is
// parsed into numbers, booleans, times and JSON-encoded records. Values that
// came from a JSON body are already typed, so a JSON string is never parsed
// into a number or boolean.
package coerce

import (
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"strings"

	"github.com/gaborage/go-params/source"
	"github.com/gaborage/go-params/types"
)

// Options tune coercion of one parameter.
type Options struct {
	// Origin is the source kind the raw value came from. The zero value is
	// treated like a generic text source.
	Origin source.Kind
	// BlankNone collapses an empty string for an Optional type to nil.
	BlankNone bool
	// DisableImplicitList rejects a bare scalar for a List type instead of
	// wrapping it in a one-element list.
	DisableImplicitList bool
	// SplitCSV splits a scalar string on commas for a List type.
	SplitCSV bool
	// DateTimeFormat is a Go layout or strftime pattern for datetime types.
	DateTimeFormat string
}

// Coerce converts raw to the shape of t. Failures are *Error values wrapping
// ErrTypeMismatch, ErrFormatMismatch or ErrMissingField.
func Coerce(raw any, t types.Descriptor, opts Options) (any, error) {
	c := coercer{opts: opts, origin: opts.Origin}
	return c.coerce(raw, t, "")
}

type coercer struct {
	opts   Options
	origin source.Kind
}

// textual reports whether strings from the current origin may be parsed.
func (c coercer) textual() bool {
	return c.origin == source.KindInvalid || c.origin.StringBearing()
}

func (c coercer) mismatch(path string, t types.Descriptor, raw any, reason string) error {
	return &Error{Path: path, Expected: t.Name(), Got: Describe(raw), Reason: reason, Err: ErrTypeMismatch}
}

func (c coercer) coerce(raw any, t types.Descriptor, path string) (any, error) {
	switch t.Kind() {
	case types.KindAny:
		return raw, nil
	case types.KindOptional:
		if raw == nil {
			return nil, nil
		}
		if s, ok := raw.(string); ok && s == "" && c.opts.BlankNone && c.textual() {
			return nil, nil
		}
		return c.coerce(raw, t.Inner(), path)
	case types.KindUnion:
		return c.union(raw, t, path)
	case types.KindList:
		return c.list(raw, t, path)
	case types.KindRecord:
		return c.record(raw, t, path)
	case types.KindEnum:
		return c.enum(raw, t, path)
	case types.KindDict:
		obj, _, err := c.object(raw, t, path)
		if err != nil {
			return nil, err
		}
		return obj, nil
	case types.KindString:
		return c.str(raw, t, path)
	case types.KindInt:
		return c.integer(raw, t, path)
	case types.KindFloat:
		return c.float(raw, t, path)
	case types.KindBool:
		return c.boolean(raw, t, path)
	case types.KindDateTime, types.KindDate, types.KindTime:
		return c.datetime(raw, t, path)
	case types.KindUUID:
		return c.uuid(raw, t, path)
	case types.KindFile:
		if fh, ok := raw.(*multipart.FileHeader); ok && fh != nil {
			return fh, nil
		}
		return nil, c.mismatch(path, t, raw, "expected an uploaded file")
	}
	return nil, c.mismatch(path, t, raw, "undeclared type")
}

// union tries members in declaration order; the first success wins.
func (c coercer) union(raw any, t types.Descriptor, path string) (any, error) {
	for _, m := range t.Members() {
		if v, err := c.coerce(raw, m, path); err == nil {
			return v, nil
		}
	}
	return nil, c.mismatch(path, t, raw, "no union member matched")
}

func (c coercer) list(raw any, t types.Descriptor, path string) (any, error) {
	var items []any
	switch v := raw.(type) {
	case []any:
		items = v
	case []string:
		items = make([]any, 0, len(v))
		for _, s := range v {
			if c.opts.SplitCSV {
				for _, part := range strings.Split(s, ",") {
					items = append(items, part)
				}
				continue
			}
			items = append(items, s)
		}
	case []*multipart.FileHeader:
		items = make([]any, len(v))
		for i, fh := range v {
			items[i] = fh
		}
	case nil:
		return nil, c.mismatch(path, t, raw, "")
	case string:
		if !c.textual() {
			return nil, c.mismatch(path, t, raw, "expected a JSON array")
		}
		switch {
		case v == "":
			return []any{}, nil
		case c.opts.SplitCSV:
			parts := strings.Split(v, ",")
			items = make([]any, len(parts))
			for i, p := range parts {
				items[i] = p
			}
		case c.opts.DisableImplicitList:
			return nil, c.mismatch(path, t, raw, "a single value is not a list")
		default:
			items = []any{v}
		}
	default:
		if c.origin == source.KindJSON {
			return nil, c.mismatch(path, t, raw, "expected a JSON array")
		}
		if c.opts.DisableImplicitList {
			return nil, c.mismatch(path, t, raw, "a single value is not a list")
		}
		items = []any{v}
	}

	elem := t.Elem()
	out := make([]any, 0, len(items))
	for i, item := range items {
		v, err := c.coerce(item, elem, indexPath(path, i))
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// record coerces declared fields. Missing optional fields are omitted and
// undeclared keys pass through unvalidated.
func (c coercer) record(raw any, t types.Descriptor, path string) (any, error) {
	obj, inner, err := c.object(raw, t, path)
	if err != nil {
		return nil, err
	}

	out := make(map[string]any, len(obj))
	for k, v := range obj {
		out[k] = v
	}
	for _, f := range t.Fields() {
		fp := fieldPath(path, f.Name)
		fv, ok := obj[f.Name]
		if !ok {
			if f.Required {
				return nil, &Error{Path: fp, Expected: f.Type.Name(), Got: "nothing", Err: ErrMissingField}
			}
			continue
		}
		v, err := inner.coerce(fv, f.Type, fp)
		if err != nil {
			return nil, err
		}
		out[f.Name] = v
	}
	return out, nil
}

// object returns raw as a JSON object. A JSON-encoded string from a text
// source is decoded first, and its contents are then coerced with JSON rules.
func (c coercer) object(raw any, t types.Descriptor, path string) (map[string]any, coercer, error) {
	switch v := raw.(type) {
	case map[string]any:
		return v, c, nil
	case source.Object:
		return map[string]any(v), c, nil
	case string:
		if !c.textual() {
			return nil, c, c.mismatch(path, t, raw, "expected a JSON object")
		}
		obj, err := decodeObject(v)
		if err != nil {
			return nil, c, c.mismatch(path, t, raw, "invalid JSON object")
		}
		inner := c
		inner.origin = source.KindJSON
		return obj, inner, nil
	}
	return nil, c, c.mismatch(path, t, raw, "expected an object")
}

func decodeObject(s string) (map[string]any, error) {
	dec := json.NewDecoder(strings.NewReader(s))
	dec.UseNumber()
	var obj map[string]any
	if err := dec.Decode(&obj); err != nil {
		return nil, err
	}
	if dec.More() {
		return nil, errors.New("trailing data")
	}
	if obj == nil {
		return nil, errors.New("null is not an object")
	}
	return obj, nil
}

func (c coercer) enum(raw any, t types.Descriptor, path string) (any, error) {
	if ev, ok := raw.(types.EnumValue); ok && t.Accepts(ev) {
		return ev, nil
	}

	var key any
	switch t.EnumKind() {
	case types.EnumInt:
		n, err := c.integer(raw, types.Int, path)
		if err != nil {
			return nil, c.mismatch(path, t, raw, enumReason(t))
		}
		key = n
	default:
		s, ok := raw.(string)
		if !ok {
			return nil, c.mismatch(path, t, raw, enumReason(t))
		}
		key = s
	}

	if ev, ok := t.LookupEnum(key); ok {
		return ev, nil
	}
	return nil, c.mismatch(path, t, raw, enumReason(t))
}

func enumReason(t types.Descriptor) string {
	vals := make([]string, 0, len(t.EnumMembers()))
	for _, m := range t.EnumMembers() {
		vals = append(vals, fmt.Sprint(m.Value))
	}
	return "must be one of: " + strings.Join(vals, ", ")
}
