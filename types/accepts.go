package types

import (
	"mime/multipart"
	"time"

	"github.com/google/uuid"
)

// Accepts reports whether v already has the runtime shape d describes.
// It is the type-match check run after coercion and before constraints.
func (d Descriptor) Accepts(v any) bool {
	switch d.kind {
	case KindAny:
		return true
	case KindOptional:
		return v == nil || d.inner.Accepts(v)
	case KindUnion:
		for _, m := range d.members {
			if m.Accepts(v) {
				return true
			}
		}
		return false
	case KindList:
		items, ok := v.([]any)
		if !ok {
			return false
		}
		for _, item := range items {
			if !d.inner.Accepts(item) {
				return false
			}
		}
		return true
	case KindRecord:
		obj, ok := v.(map[string]any)
		if !ok {
			return false
		}
		for _, f := range d.fields {
			fv, present := obj[f.Name]
			if !present {
				if f.Required {
					return false
				}
				continue
			}
			if !f.Type.Accepts(fv) {
				return false
			}
		}
		return true
	case KindEnum:
		ev, ok := v.(EnumValue)
		if !ok {
			return false
		}
		_, found := d.LookupEnum(ev.Value)
		return found
	}
	return d.acceptsPrimitive(v)
}

func (d Descriptor) acceptsPrimitive(v any) bool {
	switch d.kind {
	case KindString:
		_, ok := v.(string)
		return ok
	case KindInt:
		_, ok := v.(int64)
		return ok
	case KindFloat:
		_, ok := v.(float64)
		return ok
	case KindBool:
		_, ok := v.(bool)
		return ok
	case KindDateTime, KindDate, KindTime:
		_, ok := v.(time.Time)
		return ok
	case KindUUID:
		_, ok := v.(uuid.UUID)
		return ok
	case KindDict:
		_, ok := v.(map[string]any)
		return ok
	case KindFile:
		_, ok := v.(*multipart.FileHeader)
		return ok
	default:
		return false
	}
}
