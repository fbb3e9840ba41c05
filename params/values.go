package params

// Values holds validated parameters by declared name. An Optional parameter
// that was absent is present with a nil value.
type Values map[string]any

// Has reports whether name was validated.
func (v Values) Has(name string) bool {
	_, ok := v[name]
	return ok
}

// Get returns the value of name as T. It reports false when the parameter is
// missing, nil, or of a different type.
func Get[T any](v Values, name string) (T, bool) {
	var zero T
	raw, ok := v[name]
	if !ok || raw == nil {
		return zero, false
	}
	typed, ok := raw.(T)
	if !ok {
		return zero, false
	}
	return typed, true
}
