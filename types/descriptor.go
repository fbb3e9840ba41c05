// Package types describes the shapes a request parameter can be declared as.
// A Descriptor is a closed, recursive sum type: primitives, Optional, Union, List,
// Record and Enum. Descriptors are built once at registration time and are safe
// to share between goroutines.
package types

import (
	"strings"
)

// Kind identifies the variant of a Descriptor.
type Kind int

const (
	KindInvalid Kind = iota
	KindString
	KindInt
	KindFloat
	KindBool
	KindDateTime
	KindDate
	KindTime
	KindUUID
	KindDict
	KindAny
	KindFile
	KindOptional
	KindUnion
	KindList
	KindRecord
	KindEnum
)

var kindNames = map[Kind]string{
	KindString:   "str",
	KindInt:      "int",
	KindFloat:    "float",
	KindBool:     "bool",
	KindDateTime: "datetime",
	KindDate:     "date",
	KindTime:     "time",
	KindUUID:     "uuid",
	KindDict:     "dict",
	KindAny:      "any",
	KindFile:     "file",
	KindOptional: "optional",
	KindUnion:    "union",
	KindList:     "list",
	KindRecord:   "record",
	KindEnum:     "enum",
}

// String returns the lowercase name of the kind.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "invalid"
}

// IsPrimitive reports whether the kind is a leaf type.
func (k Kind) IsPrimitive() bool {
	return k >= KindString && k <= KindFile
}

// Descriptor describes an expected value shape.
// The zero value is invalid; use the package constructors.
type Descriptor struct {
	kind    Kind
	name    string
	inner   *Descriptor
	members []Descriptor
	fields  []Field
	enum    *enumSpec
}

// Field is one named entry of a Record.
type Field struct {
	Name     string
	Type     Descriptor
	Required bool
}

// Primitive descriptors.
var (
	String   = Descriptor{kind: KindString}
	Int      = Descriptor{kind: KindInt}
	Float    = Descriptor{kind: KindFloat}
	Bool     = Descriptor{kind: KindBool}
	DateTime = Descriptor{kind: KindDateTime}
	Date     = Descriptor{kind: KindDate}
	Time     = Descriptor{kind: KindTime}
	UUID     = Descriptor{kind: KindUUID}
	Dict     = Descriptor{kind: KindDict}
	Any      = Descriptor{kind: KindAny}
	File     = Descriptor{kind: KindFile}
)

// Optional wraps inner so that None is an accepted value.
// Optional never nests: Optional(Optional(x)) is Optional(x).
func Optional(inner Descriptor) Descriptor {
	if inner.kind == KindOptional {
		return inner
	}
	in := inner
	return Descriptor{kind: KindOptional, inner: &in}
}

// Union accepts any of members, tried in the given order.
// Nested unions are flattened, duplicate shapes dropped, and Optional members
// hoisted so that the result is Optional(Union(...)) instead.
// A union of a single member is that member.
func Union(members ...Descriptor) Descriptor {
	flat := make([]Descriptor, 0, len(members))
	optional := false

	var add func(d Descriptor)
	add = func(d Descriptor) {
		switch d.kind {
		case KindOptional:
			optional = true
			add(*d.inner)
		case KindUnion:
			for _, m := range d.members {
				add(m)
			}
		default:
			for _, existing := range flat {
				if existing.Equal(d) {
					return
				}
			}
			flat = append(flat, d)
		}
	}
	for _, m := range members {
		add(m)
	}

	var out Descriptor
	switch len(flat) {
	case 0:
		out = Any
	case 1:
		out = flat[0]
	default:
		out = Descriptor{kind: KindUnion, members: flat}
	}
	if optional {
		return Optional(out)
	}
	return out
}

// List accepts a sequence whose elements all match elem.
func List(elem Descriptor) Descriptor {
	e := elem
	return Descriptor{kind: KindList, inner: &e}
}

// Record describes a structured mapping with named fields ("typed dictionary").
// Field order is kept for documentation only.
func Record(name string, fields ...Field) Descriptor {
	fs := make([]Field, len(fields))
	copy(fs, fields)
	return Descriptor{kind: KindRecord, name: name, fields: fs}
}

// Required declares a record field that must be present.
func Required(name string, t Descriptor) Field {
	return Field{Name: name, Type: t, Required: true}
}

// NotRequired declares a record field that may be absent.
func NotRequired(name string, t Descriptor) Field {
	return Field{Name: name, Type: t}
}

// Kind returns the variant.
func (d Descriptor) Kind() Kind { return d.kind }

// IsValid reports whether d was built by a constructor.
func (d Descriptor) IsValid() bool { return d.kind != KindInvalid }

// IsOptional reports whether None is an accepted value.
func (d Descriptor) IsOptional() bool { return d.kind == KindOptional }

// Inner returns the wrapped type of an Optional, or d itself otherwise.
func (d Descriptor) Inner() Descriptor {
	if d.kind == KindOptional {
		return *d.inner
	}
	return d
}

// Elem returns the element type of a List.
func (d Descriptor) Elem() Descriptor {
	if d.kind == KindList {
		return *d.inner
	}
	return Descriptor{}
}

// Members returns a copy of the members of a Union.
func (d Descriptor) Members() []Descriptor {
	out := make([]Descriptor, len(d.members))
	copy(out, d.members)
	return out
}

// Fields returns a copy of the fields of a Record.
func (d Descriptor) Fields() []Field {
	out := make([]Field, len(d.fields))
	copy(out, d.fields)
	return out
}

// Equal reports whether two descriptors describe the same shape.
func (d Descriptor) Equal(o Descriptor) bool {
	if d.kind != o.kind || d.name != o.name {
		return false
	}
	switch d.kind {
	case KindOptional, KindList:
		return d.inner.Equal(*o.inner)
	case KindUnion:
		return equalSlices(d.members, o.members)
	case KindRecord:
		if len(d.fields) != len(o.fields) {
			return false
		}
		for i := range d.fields {
			a, b := d.fields[i], o.fields[i]
			if a.Name != b.Name || a.Required != b.Required || !a.Type.Equal(b.Type) {
				return false
			}
		}
		return true
	case KindEnum:
		return d.enum.equal(o.enum)
	default:
		return true
	}
}

func equalSlices(a, b []Descriptor) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Equal(b[i]) {
			return false
		}
	}
	return true
}

// Name renders the type the way it is reported in error messages,
// e.g. "Optional[List[str]]" or "Union[bool, int]".
func (d Descriptor) Name() string {
	switch d.kind {
	case KindOptional:
		return "Optional[" + d.inner.Name() + "]"
	case KindList:
		return "List[" + d.inner.Name() + "]"
	case KindUnion:
		names := make([]string, len(d.members))
		for i, m := range d.members {
			names[i] = m.Name()
		}
		return "Union[" + strings.Join(names, ", ") + "]"
	case KindRecord, KindEnum:
		if d.name != "" {
			return d.name
		}
		return d.kind.String()
	default:
		return d.kind.String()
	}
}

// String implements fmt.Stringer.
func (d Descriptor) String() string { return d.Name() }
