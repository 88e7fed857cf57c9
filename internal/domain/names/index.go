package names

// Lookup resolves a display name to a value through its normalized key.
type Lookup[T any] interface {
	Get(name string) (T, bool)
	Len() int
}

// Index is a map-backed Lookup keyed by normalized name.
type Index[T any] struct {
	byKey map[string]T
}

// NewIndex builds an Index from items. When two items normalize to the same
// key the first one wins. Items whose name normalizes to "" are skipped.
func NewIndex[T any](items []T, name func(T) string) *Index[T] {
	ix := &Index[T]{byKey: make(map[string]T, len(items))}
	for _, it := range items {
		key := Normalize(name(it))
		if key == "" {
			continue
		}
		if _, exists := ix.byKey[key]; exists {
			continue
		}
		ix.byKey[key] = it
	}
	return ix
}

// Get returns the item matching name.
func (ix *Index[T]) Get(name string) (T, bool) {
	var zero T
	if ix == nil {
		return zero, false
	}
	v, ok := ix.byKey[Normalize(name)]
	return v, ok
}

// GetKey returns the item stored under an already normalized key.
func (ix *Index[T]) GetKey(key string) (T, bool) {
	var zero T
	if ix == nil {
		return zero, false
	}
	v, ok := ix.byKey[key]
	return v, ok
}

// Len returns the number of distinct keys.
func (ix *Index[T]) Len() int {
	if ix == nil {
		return 0
	}
	return len(ix.byKey)
}
