package source

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"
)

// Mapping is a flat, request-scoped view of one source.
// Lookup distinguishes a present empty value from an absent key.
type Mapping interface {
	Lookup(key string) (any, bool)
}

// Empty has no keys.
var Empty Mapping = emptyMapping{}

type emptyMapping struct{}

func (emptyMapping) Lookup(string) (any, bool) { return nil, false }

// Values is a multi-valued string mapping used for query strings and form bodies.
// A single value is returned as string, repeated keys as []string.
// Bracket notation ("ids[]=1&ids[]=2") is honored.
type Values url.Values

// Lookup returns the raw value for key.
func (v Values) Lookup(key string) (any, bool) {
	vals, ok := v[key]
	if !ok || len(vals) == 0 {
		vals, ok = v[key+"[]"]
		if !ok || len(vals) == 0 {
			return nil, false
		}
		// bracket notation always denotes a list
		return append([]string(nil), vals...), true
	}
	if len(vals) == 1 {
		return vals[0], true
	}
	return append([]string(nil), vals...), true
}

// Header is a header mapping with canonical key matching.
type Header http.Header

// Lookup returns the raw header value for key.
func (h Header) Lookup(key string) (any, bool) {
	return Values(h).Lookup(textproto.CanonicalMIMEHeaderKey(key))
}

// Path holds route segments. Values are strings, or int64, float64 or bool
// when the router already constrained the segment type.
type Path map[string]any

// Lookup returns the raw segment value for key.
func (p Path) Lookup(key string) (any, bool) {
	v, ok := p[key]
	return v, ok
}

// PathFromSegments builds a Path mapping from parallel name/value slices as
// routers commonly expose them.
func PathFromSegments(names, values []string) Path {
	p := make(Path, len(names))
	for i, name := range names {
		if i < len(values) {
			p[name] = values[i]
		}
	}
	return p
}

// Object is a decoded JSON object. Numbers are json.Number.
type Object map[string]any

// Lookup returns the raw JSON value for key.
func (o Object) Lookup(key string) (any, bool) {
	v, ok := o[key]
	return v, ok
}

// Files holds multipart uploads. One upload is returned as *multipart.FileHeader,
// several under the same key as []*multipart.FileHeader.
type Files map[string][]*multipart.FileHeader

// Lookup returns the uploaded file(s) for key.
func (f Files) Lookup(key string) (any, bool) {
	fhs, ok := f[key]
	if !ok || len(fhs) == 0 {
		fhs, ok = f[key+"[]"]
		if !ok || len(fhs) == 0 {
			return nil, false
		}
	}
	if len(fhs) == 1 {
		return fhs[0], true
	}
	return append([]*multipart.FileHeader(nil), fhs...), true
}

// IsJSONContentType reports whether the media type is application/json or a
// +json suffix type.
func IsJSONContentType(contentType string) bool {
	if contentType == "" {
		return false
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return mediaType == "application/json" || strings.HasSuffix(mediaType, "+json")
}

// ParseJSON decodes a JSON object body. A non-JSON content type or an empty
// body yields Empty; a malformed body yields ErrBodyNotParseable.
func ParseJSON(contentType string, body []byte) (Mapping, error) {
	if !IsJSONContentType(contentType) {
		return Empty, nil
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return Empty, nil
	}

	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var obj map[string]any
	if err := dec.Decode(&obj); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBodyNotParseable, err)
	}
	if dec.More() {
		return nil, fmt.Errorf("%w: trailing data after JSON object", ErrBodyNotParseable)
	}
	if obj == nil {
		return Empty, nil
	}
	return Object(obj), nil
}
