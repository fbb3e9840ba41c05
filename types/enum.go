package types

import (
	"fmt"
	"math"
	"reflect"
)

// EnumKind is the underlying value type of an Enum.
type EnumKind int

const (
	EnumStr EnumKind = iota
	EnumInt
)

// EnumMember is one symbolic member of an Enum with its underlying value.
type EnumMember struct {
	Name  string
	Value any
}

// EnumValue is the coerced form of an Enum parameter. It keeps the symbolic
// name and the underlying value so either can be serialized later.
type EnumValue struct {
	Name  string
	Value any
}

// String returns the symbolic name.
func (e EnumValue) String() string { return e.Name }

// MarshalJSON serializes the underlying value.
func (e EnumValue) MarshalJSON() ([]byte, error) {
	switch v := e.Value.(type) {
	case string:
		return []byte(fmt.Sprintf("%q", v)), nil
	case int64:
		return []byte(fmt.Sprintf("%d", v)), nil
	default:
		return nil, fmt.Errorf("enum %s: unsupported value type %T", e.Name, e.Value)
	}
}

type enumSpec struct {
	kind    EnumKind
	members []EnumMember
}

func (s *enumSpec) equal(o *enumSpec) bool {
	if s == nil || o == nil {
		return s == o
	}
	if s.kind != o.kind || len(s.members) != len(o.members) {
		return false
	}
	for i := range s.members {
		if s.members[i] != o.members[i] {
			return false
		}
	}
	return true
}

// StrEnum declares an enum whose members carry string values. Member values
// may be any type with an underlying string kind; anything else panics.
func StrEnum(name string, members ...EnumMember) Descriptor {
	ms := make([]EnumMember, 0, len(members))
	for _, m := range members {
		rv := reflect.ValueOf(m.Value)
		if rv.Kind() != reflect.String {
			panic(fmt.Sprintf("types: enum %s member %s: value %v (%T) is not a string", name, m.Name, m.Value, m.Value))
		}
		ms = append(ms, EnumMember{Name: m.Name, Value: rv.String()})
	}
	return Descriptor{kind: KindEnum, name: name, enum: &enumSpec{kind: EnumStr, members: ms}}
}

// IntEnum declares an enum whose members carry integer values.
// Member values may be any Go integer type, named types included; they are
// stored as int64. Non-integer values and unsigned values above
// math.MaxInt64 panic.
func IntEnum(name string, members ...EnumMember) Descriptor {
	ms := make([]EnumMember, 0, len(members))
	for _, m := range members {
		n, err := toInt64(m.Value)
		if err != nil {
			panic(fmt.Sprintf("types: enum %s member %s: %v", name, m.Name, err))
		}
		ms = append(ms, EnumMember{Name: m.Name, Value: n})
	}
	return Descriptor{kind: KindEnum, name: name, enum: &enumSpec{kind: EnumInt, members: ms}}
}

func toInt64(v any) (int64, error) {
	rv := reflect.ValueOf(v)
	switch {
	case rv.CanInt():
		return rv.Int(), nil
	case rv.CanUint():
		u := rv.Uint()
		if u > math.MaxInt64 {
			return 0, fmt.Errorf("value %d overflows int64", u)
		}
		return int64(u), nil
	default:
		return 0, fmt.Errorf("value %v (%T) is not an integer", v, v)
	}
}

// EnumKind returns the underlying value type of an Enum descriptor.
func (d Descriptor) EnumKind() EnumKind {
	if d.enum == nil {
		return EnumStr
	}
	return d.enum.kind
}

// EnumMembers returns a copy of the members of an Enum descriptor in declaration order.
func (d Descriptor) EnumMembers() []EnumMember {
	if d.enum == nil {
		return nil
	}
	out := make([]EnumMember, len(d.enum.members))
	copy(out, d.enum.members)
	return out
}

// LookupEnum finds the member whose underlying value equals v.
// v must be a string for string enums and an int64 for integer enums.
func (d Descriptor) LookupEnum(v any) (EnumValue, bool) {
	if d.enum == nil {
		return EnumValue{}, false
	}
	for _, m := range d.enum.members {
		if m.Value == v {
			return EnumValue(m), true
		}
	}
	return EnumValue{}, false
}
