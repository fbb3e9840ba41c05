package source

import (
	"errors"
	"fmt"
	"strings"
)

// Spec declares where a parameter is read from. The variants are Path, Query,
// Form, JSON, Header, File and Multi.
type Spec interface {
	Kinds() []Kind
	String() string
}

// PathSource reads from route segments.
type PathSource struct{}

// QuerySource reads from the URL query string.
type QuerySource struct{}

// FormSource reads from a urlencoded or multipart form body.
type FormSource struct{}

// JSONSource reads from the top-level object of a JSON body.
type JSONSource struct{}

// HeaderSource reads from request headers.
type HeaderSource struct{}

// File reads an upload from a multipart body. ContentTypes accepts exact media
// types or "type/*" wildcards. Zero lengths are unbounded.
type File struct {
	ContentTypes []string
	MinLength    int64
	MaxLength    int64
}

// Multi tries each source in order and takes the first present value.
type Multi struct {
	Sources []Spec
}

// Shorthands for the single-kind sources.
var (
	FromPath   Spec = PathSource{}
	FromQuery  Spec = QuerySource{}
	FromForm   Spec = FormSource{}
	FromJSON   Spec = JSONSource{}
	FromHeader Spec = HeaderSource{}
)

func (PathSource) Kinds() []Kind   { return []Kind{KindPath} }
func (QuerySource) Kinds() []Kind  { return []Kind{KindQuery} }
func (FormSource) Kinds() []Kind   { return []Kind{KindForm} }
func (JSONSource) Kinds() []Kind   { return []Kind{KindJSON} }
func (HeaderSource) Kinds() []Kind { return []Kind{KindHeader} }
func (File) Kinds() []Kind         { return []Kind{KindFile} }

func (PathSource) String() string   { return KindPath.String() }
func (QuerySource) String() string  { return KindQuery.String() }
func (FormSource) String() string   { return KindForm.String() }
func (JSONSource) String() string   { return KindJSON.String() }
func (HeaderSource) String() string { return KindHeader.String() }
func (File) String() string         { return KindFile.String() }

// Kinds returns the kinds of every underlying source in lookup order.
func (m Multi) Kinds() []Kind {
	kinds := make([]Kind, 0, len(m.Sources))
	for _, s := range m.Sources {
		if s == nil {
			kinds = append(kinds, KindInvalid)
			continue
		}
		kinds = append(kinds, s.Kinds()...)
	}
	return kinds
}

func (m Multi) String() string {
	names := make([]string, 0, len(m.Sources))
	for _, k := range m.Kinds() {
		names = append(names, k.String())
	}
	return "multi(" + strings.Join(names, ", ") + ")"
}

// FileRules returns the upload rules of spec, looking inside Multi.
func FileRules(spec Spec) (File, bool) {
	switch s := spec.(type) {
	case File:
		return s, true
	case *File:
		if s != nil {
			return *s, true
		}
	case Multi:
		for _, inner := range s.Sources {
			if f, ok := FileRules(inner); ok {
				return f, true
			}
		}
	}
	return File{}, false
}

// Check reports registration-time problems with a spec: nil specs, unknown
// kinds, nested Multi and Multi with fewer than two sources.
func Check(spec Spec) error {
	if spec == nil {
		return errors.New("source: nil source spec")
	}
	if m, ok := spec.(Multi); ok {
		if len(m.Sources) < 2 {
			return fmt.Errorf("source: multi source needs at least two sources, got %d", len(m.Sources))
		}
		for _, inner := range m.Sources {
			if _, nested := inner.(Multi); nested {
				return errors.New("source: multi sources cannot be nested")
			}
		}
	}
	for _, k := range spec.Kinds() {
		if !k.IsValid() {
			return fmt.Errorf("%w in %s", ErrUnknownKind, spec)
		}
	}
	if f, ok := FileRules(spec); ok {
		if f.MinLength < 0 || f.MaxLength < 0 || (f.MaxLength > 0 && f.MinLength > f.MaxLength) {
			return fmt.Errorf("source: invalid file length bounds [%d, %d]", f.MinLength, f.MaxLength)
		}
	}
	return nil
}

// Resolve looks key up in each kind of spec in order and returns the first
// present value together with the kind that supplied it.
func Resolve(b *Bundle, spec Spec, key string) (value any, from Kind, found bool, err error) {
	for _, kind := range spec.Kinds() {
		v, ok, err := b.Lookup(kind, key)
		if err != nil {
			return nil, kind, false, err
		}
		if ok {
			return v, kind, true, nil
		}
	}
	return nil, KindInvalid, false, nil
}
