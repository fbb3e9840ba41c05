package coerce

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/gaborage/go-params/source"
	"github.com/gaborage/go-params/types"
)

func (c coercer) str(raw any, t types.Descriptor, path string) (any, error) {
	switch v := raw.(type) {
	case string:
		return v, nil
	case int64:
		if c.origin == source.KindPath {
			return strconv.FormatInt(v, 10), nil
		}
	case float64:
		if c.origin == source.KindPath {
			return strconv.FormatFloat(v, 'f', -1, 64), nil
		}
	case bool:
		if c.origin == source.KindPath {
			return strconv.FormatBool(v), nil
		}
	}
	return nil, c.mismatch(path, t, raw, "")
}

func (c coercer) integer(raw any, t types.Descriptor, path string) (any, error) {
	switch v := raw.(type) {
	case int64:
		return v, nil
	case int:
		return int64(v), nil
	case int32:
		return int64(v), nil
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return n, nil
		}
		return nil, c.mismatch(path, t, raw, "not an integer")
	case float64:
		// only a router that typed the segment as int may hand over a float
		if c.origin == source.KindPath && v == math.Trunc(v) && !math.IsInf(v, 0) {
			return int64(v), nil
		}
		return nil, c.mismatch(path, t, raw, "not an integer")
	case string:
		if !c.textual() {
			return nil, c.mismatch(path, t, raw, "")
		}
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, c.mismatch(path, t, raw, "not an integer")
		}
		return n, nil
	}
	return nil, c.mismatch(path, t, raw, "")
}

func (c coercer) float(raw any, t types.Descriptor, path string) (any, error) {
	switch v := raw.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case int:
		return float64(v), nil
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return nil, c.mismatch(path, t, raw, "not a number")
		}
		return f, nil
	case string:
		if !c.textual() {
			return nil, c.mismatch(path, t, raw, "")
		}
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return float64(n), nil
		}
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, c.mismatch(path, t, raw, "not a number")
		}
		return f, nil
	}
	return nil, c.mismatch(path, t, raw, "")
}

func (c coercer) boolean(raw any, t types.Descriptor, path string) (any, error) {
	switch v := raw.(type) {
	case bool:
		return v, nil
	case string:
		if !c.textual() {
			return nil, c.mismatch(path, t, raw, "")
		}
		switch {
		case strings.EqualFold(v, "true"):
			return true, nil
		case strings.EqualFold(v, "false"):
			return false, nil
		}
		return nil, c.mismatch(path, t, raw, `must be "true" or "false"`)
	}
	return nil, c.mismatch(path, t, raw, "")
}

func (c coercer) uuid(raw any, t types.Descriptor, path string) (any, error) {
	switch v := raw.(type) {
	case uuid.UUID:
		return v, nil
	case string:
		id, err := uuid.Parse(v)
		if err != nil {
			return nil, c.mismatch(path, t, raw, "not a UUID")
		}
		return id, nil
	}
	return nil, c.mismatch(path, t, raw, "")
}
