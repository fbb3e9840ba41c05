// Package source describes where a declared parameter's raw value comes from
// and exposes per-request raw mappings through a lazily loaded Bundle.
package source

import "errors"

// Kind is a category of request data.
type Kind int

const (
	KindInvalid Kind = iota
	KindPath
	KindQuery
	KindForm
	KindJSON
	KindFile
	KindHeader
)

var (
	// ErrUnknownKind is returned for a Kind the bundle does not recognize.
	ErrUnknownKind = errors.New("unknown source kind")
	// ErrBodyNotParseable is returned when a JSON body cannot be decoded.
	ErrBodyNotParseable = errors.New("request body is not parseable")
)

var kindNames = map[Kind]string{
	KindPath:   "path",
	KindQuery:  "query",
	KindForm:   "form",
	KindJSON:   "json",
	KindFile:   "file",
	KindHeader: "header",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "invalid"
}

// IsValid reports whether k is one of the known kinds.
func (k Kind) IsValid() bool {
	_, ok := kindNames[k]
	return ok
}

// StringBearing reports whether raw values of this kind arrive as text and
// are subject to string coercion heuristics.
func (k Kind) StringBearing() bool {
	switch k {
	case KindPath, KindQuery, KindForm, KindHeader:
		return true
	default:
		return false
	}
}

// In returns the OpenAPI parameter location for kinds that map to one.
func (k Kind) In() (string, bool) {
	switch k {
	case KindPath:
		return "path", true
	case KindQuery:
		return "query", true
	case KindHeader:
		return "header", true
	default:
		return "", false
	}
}
