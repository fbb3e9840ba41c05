package source

import "fmt"

// Loader builds the raw mapping for one kind. It is called at most once per bundle.
type Loader func() (Mapping, error)

type loaded struct {
	mapping Mapping
	err     error
}

// Bundle lazily constructs the raw mappings of a single request.
// A Bundle is request-scoped and not safe for concurrent use.
type Bundle struct {
	loaders map[Kind]Loader
	cache   map[Kind]loaded
}

// NewBundle returns an empty bundle.
func NewBundle() *Bundle {
	return &Bundle{
		loaders: make(map[Kind]Loader),
		cache:   make(map[Kind]loaded),
	}
}

// With registers a loader for kind, replacing any earlier one.
func (b *Bundle) With(kind Kind, loader Loader) *Bundle {
	b.loaders[kind] = loader
	delete(b.cache, kind)
	return b
}

// Set registers an already built mapping for kind.
func (b *Bundle) Set(kind Kind, m Mapping) *Bundle {
	return b.With(kind, func() (Mapping, error) { return m, nil })
}

// Mapping returns the mapping for kind, invoking its loader on first use.
// A kind without a loader behaves as an empty mapping.
func (b *Bundle) Mapping(kind Kind) (Mapping, error) {
	if !kind.IsValid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownKind, int(kind))
	}
	if l, ok := b.cache[kind]; ok {
		return l.mapping, l.err
	}

	loader, ok := b.loaders[kind]
	if !ok {
		return Empty, nil
	}
	m, err := loader()
	if err == nil && m == nil {
		m = Empty
	}
	b.cache[kind] = loaded{mapping: m, err: err}
	return m, err
}

// Lookup resolves key in the mapping of kind.
func (b *Bundle) Lookup(kind Kind, key string) (any, bool, error) {
	m, err := b.Mapping(kind)
	if err != nil {
		return nil, false, err
	}
	v, ok := m.Lookup(key)
	return v, ok, nil
}
