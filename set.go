package jet

import (
	"cmp"
	"maps"
	"reflect"
	"slices"

	"github.com/creachadair/mds/mapset"
)

// A Set is an immutable collection of unique elements. It encodes as a
// JSON array in sorted element order; duplicate incoming elements
// collapse silently on decode. The zero value is an empty set.
type Set[T cmp.Ordered] struct {
	items mapset.Set[T]
}

// SetOf returns a Set holding the given items.
func SetOf[T cmp.Ordered](items ...T) Set[T] {
	return Set[T]{items: mapset.New(items...)}
}

// Len returns the number of elements in the set.
func (s Set[T]) Len() int { return len(s.items) }

// Has reports whether item is in the set.
func (s Set[T]) Has(item T) bool { return s.items.Has(item) }

// Items returns the set's elements in sorted order.
func (s Set[T]) Items() []T {
	return slices.Sorted(maps.Keys(s.items))
}

func (s Set[T]) frozenShape() frozenShape { return frozenSet }

func (s Set[T]) frozenTypes() (key, elem reflect.Type) {
	return nil, reflect.TypeFor[T]()
}

func (s Set[T]) frozenBuilder() collectionBuilder {
	return &setBuilder[T]{items: mapset.New[T]()}
}

func (s Set[T]) frozenRange(yield func(key, elem reflect.Value) bool) {
	for _, item := range s.Items() {
		if !yield(reflect.Value{}, reflect.ValueOf(&item).Elem()) {
			return
		}
	}
}

type setBuilder[T cmp.Ordered] struct {
	items mapset.Set[T]
}

func (b *setBuilder[T]) Add(elem reflect.Value) {
	b.items.Add(elem.Interface().(T))
}

func (b *setBuilder[T]) Set(string, reflect.Value) {
	panic("Set on an enumerable builder")
}

func (b *setBuilder[T]) Complete() reflect.Value {
	return reflect.ValueOf(Set[T]{items: b.items})
}
