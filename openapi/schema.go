// Package openapi derives OpenAPI 3.1 documents from registered routes and
// their declared parameters.
package openapi

import (
	"encoding/json"
	"fmt"

	"github.com/gaborage/go-params/constraints"
	"github.com/gaborage/go-params/params"
	"github.com/gaborage/go-params/types"
)

// Schema is a JSON Schema fragment as embedded in an OpenAPI 3.1 document.
type Schema map[string]any

// tagFormats maps single validator tags onto JSON Schema formats.
var tagFormats = map[string]string{
	"email":    "email",
	"url":      "uri",
	"http_url": "uri",
	"uri":      "uri",
	"uuid":     "uuid",
	"uuid4":    "uuid",
	"ipv4":     "ipv4",
	"ipv6":     "ipv6",
	"hostname": "hostname",
}

// TypeSchema returns the schema accepted by a type descriptor.
func TypeSchema(t types.Descriptor) Schema {
	switch t.Kind() {
	case types.KindString:
		return Schema{"type": "string"}
	case types.KindInt:
		return Schema{"type": "integer", "format": "int64"}
	case types.KindFloat:
		return Schema{"type": "number", "format": "double"}
	case types.KindBool:
		return Schema{"type": "boolean"}
	case types.KindDateTime:
		return Schema{"type": "string", "format": "date-time"}
	case types.KindDate:
		return Schema{"type": "string", "format": "date"}
	case types.KindTime:
		return Schema{"type": "string", "format": "time"}
	case types.KindUUID:
		return Schema{"type": "string", "format": "uuid"}
	case types.KindDict:
		return Schema{"type": "object", "additionalProperties": true}
	case types.KindFile:
		return Schema{"type": "string", "format": "binary"}
	case types.KindOptional:
		return Schema{"oneOf": []any{TypeSchema(t.Inner()), Schema{"type": "null"}}}
	case types.KindUnion:
		members := t.Members()
		oneOf := make([]any, len(members))
		for i, m := range members {
			oneOf[i] = TypeSchema(m)
		}
		return Schema{"oneOf": oneOf}
	case types.KindList:
		return Schema{"type": "array", "items": TypeSchema(t.Elem())}
	case types.KindRecord:
		return recordSchema(t)
	case types.KindEnum:
		return enumSchema(t)
	default:
		return Schema{}
	}
}

func recordSchema(t types.Descriptor) Schema {
	props := make(map[string]any, len(t.Fields()))
	var required []string
	for _, f := range t.Fields() {
		props[f.Name] = TypeSchema(f.Type)
		if f.Required {
			required = append(required, f.Name)
		}
	}
	s := Schema{"type": "object", "title": t.Name(), "properties": props}
	if len(required) > 0 {
		s["required"] = required
	}
	return s
}

func enumSchema(t types.Descriptor) Schema {
	members := t.EnumMembers()
	values := make([]any, len(members))
	for i, m := range members {
		values[i] = m.Value
	}
	typ := "string"
	if t.EnumKind() == types.EnumInt {
		typ = "integer"
	}
	return Schema{"type": typ, "title": t.Name(), "enum": values}
}

// ParamSchema returns the schema of a declared parameter: its type schema
// narrowed by its constraints and annotated with its metadata. An explicit
// constraint schema document replaces the derived fragment.
func ParamSchema(p params.Param) (Schema, error) {
	var s Schema
	if doc := p.Constraints().SchemaDocument(); doc != "" {
		if err := json.Unmarshal([]byte(doc), &s); err != nil {
			return nil, fmt.Errorf("openapi: parameter %q: invalid schema document: %w", p.Name(), err)
		}
	} else {
		s = TypeSchema(p.Type())
		applyConstraints(s, p.Type(), p.Constraints())
	}

	if p.Description() != "" {
		s["description"] = p.Description()
	}
	if def, ok := p.Default(); ok && def != nil {
		if ev, isEnum := def.(types.EnumValue); isEnum {
			def = ev.Value
		}
		s["default"] = def
	}
	if ex := p.Example(); ex != nil {
		s["examples"] = []any{ex}
	}
	if p.IsDeprecated() {
		s["deprecated"] = true
	}
	return s, nil
}

// applyConstraints writes keyword bounds onto the branch of s that holds
// values of t. List bounds land on the array, element bounds on its items.
func applyConstraints(s Schema, t types.Descriptor, c *constraints.Set) {
	if c == nil {
		return
	}

	switch t.Kind() {
	case types.KindOptional:
		if branches, ok := s["oneOf"].([]any); ok && len(branches) > 0 {
			applyConstraints(branches[0].(Schema), t.Inner(), c)
		}
		return
	case types.KindUnion:
		if branches, ok := s["oneOf"].([]any); ok {
			for i, m := range t.Members() {
				applyConstraints(branches[i].(Schema), m, c)
			}
		}
		return
	case types.KindList:
		if n, ok := c.MinItems(); ok {
			s["minItems"] = n
		}
		if n, ok := c.MaxItems(); ok {
			s["maxItems"] = n
		}
		if items, ok := s["items"].(Schema); ok {
			applyScalar(items, t.Elem(), c)
		}
		return
	}
	applyScalar(s, t, c)
}

func applyScalar(s Schema, t types.Descriptor, c *constraints.Set) {
	switch t.Kind() {
	case types.KindString:
		if n, ok := c.MinLength(); ok {
			s["minLength"] = n
		}
		if n, ok := c.MaxLength(); ok {
			s["maxLength"] = n
		}
		if p := c.Pattern(); p != "" {
			s["pattern"] = p
		}
		if format, ok := tagFormats[c.ValidateTag()]; ok {
			s["format"] = format
		}
	case types.KindInt, types.KindFloat:
		if v, ok := c.Min(); ok {
			s["minimum"] = v
		}
		if v, ok := c.Max(); ok {
			s["maximum"] = v
		}
	case types.KindEnum:
		if t.EnumKind() != types.EnumInt {
			return
		}
		if v, ok := c.Min(); ok {
			s["minimum"] = v
		}
		if v, ok := c.Max(); ok {
			s["maximum"] = v
		}
	}
}
