package jet

import (
	"maps"
	"reflect"
	"slices"
)

// The frozen collection families: three enumerable (List, Seq and
// Set) and two dictionary-shaped (Table and SortedTable). Frozen
// collections cannot be populated in place, so the engine decodes them
// through a builder obtained from a per-concrete-type adapter
// registered on first use.
type frozenShape int

const (
	frozenList frozenShape = iota
	frozenSeq
	frozenSet
	frozenTable
	frozenSortedTable
)

// frozen is implemented by every instantiation of the frozen
// collection families. The classifier detects frozen collections
// through this interface on a zero value, the same way custom
// converters are detected through [Marshaler].
type frozen interface {
	frozenShape() frozenShape
	// frozenTypes returns the dictionary key and element types. The
	// key type is nil for enumerable families.
	frozenTypes() (key, elem reflect.Type)
	frozenBuilder() collectionBuilder
	frozenRange(yield func(key, elem reflect.Value) bool)
}

var frozenType = reflect.TypeFor[frozen]()

// A List is an immutable sequence. The zero value is an empty list.
type List[T any] struct {
	items []T
}

// ListOf returns a List holding a copy of items.
func ListOf[T any](items ...T) List[T] {
	return List[T]{items: slices.Clone(items)}
}

// Len returns the number of elements in the list.
func (l List[T]) Len() int { return len(l.items) }

// At returns the element at index i.
func (l List[T]) At(i int) T { return l.items[i] }

// Items returns a copy of the list's elements.
func (l List[T]) Items() []T { return slices.Clone(l.items) }

func (l List[T]) frozenShape() frozenShape { return frozenList }

func (l List[T]) frozenTypes() (key, elem reflect.Type) {
	return nil, reflect.TypeFor[T]()
}

func (l List[T]) frozenBuilder() collectionBuilder {
	return &listBuilder[T]{}
}

func (l List[T]) frozenRange(yield func(key, elem reflect.Value) bool) {
	for _, item := range l.items {
		if !yield(reflect.Value{}, reflect.ValueOf(&item).Elem()) {
			return
		}
	}
}

type listBuilder[T any] struct {
	items []T
}

func (b *listBuilder[T]) Add(elem reflect.Value) {
	b.items = append(b.items, elem.Interface().(T))
}

func (b *listBuilder[T]) Set(string, reflect.Value) {
	panic("Set on an enumerable builder")
}

func (b *listBuilder[T]) Complete() reflect.Value {
	return reflect.ValueOf(List[T]{items: b.items})
}

// A Seq is an immutable sequence materialized into backing storage of
// exactly its final size. It is the array-like frozen variant: a Seq
// built from n elements holds a backing slice of length and capacity
// n, whereas a List keeps whatever capacity its builder accumulated.
type Seq[T any] struct {
	items []T
}

// SeqOf returns a Seq holding a copy of items.
func SeqOf[T any](items ...T) Seq[T] {
	return Seq[T]{items: slices.Clip(slices.Clone(items))}
}

// Len returns the number of elements in the sequence.
func (s Seq[T]) Len() int { return len(s.items) }

// At returns the element at index i.
func (s Seq[T]) At(i int) T { return s.items[i] }

// Items returns a copy of the sequence's elements.
func (s Seq[T]) Items() []T { return slices.Clone(s.items) }

func (s Seq[T]) frozenShape() frozenShape { return frozenSeq }

func (s Seq[T]) frozenTypes() (key, elem reflect.Type) {
	return nil, reflect.TypeFor[T]()
}

func (s Seq[T]) frozenBuilder() collectionBuilder {
	return &seqBuilder[T]{}
}

func (s Seq[T]) frozenRange(yield func(key, elem reflect.Value) bool) {
	for _, item := range s.items {
		if !yield(reflect.Value{}, reflect.ValueOf(&item).Elem()) {
			return
		}
	}
}

type seqBuilder[T any] struct {
	items []T
}

func (b *seqBuilder[T]) Add(elem reflect.Value) {
	b.items = append(b.items, elem.Interface().(T))
}

func (b *seqBuilder[T]) Set(string, reflect.Value) {
	panic("Set on an enumerable builder")
}

func (b *seqBuilder[T]) Complete() reflect.Value {
	// Exact-size backing distinguishes the array-like variant.
	items := make([]T, len(b.items))
	copy(items, b.items)
	return reflect.ValueOf(Seq[T]{items: items})
}

// A Table is an immutable string-keyed dictionary. The zero value is
// an empty table.
type Table[V any] struct {
	m map[string]V
}

// TableOf returns a Table holding a copy of m.
func TableOf[V any](m map[string]V) Table[V] {
	return Table[V]{m: maps.Clone(m)}
}

// Len returns the number of entries in the table.
func (t Table[V]) Len() int { return len(t.m) }

// Get returns the value stored under key and whether it is present.
func (t Table[V]) Get(key string) (V, bool) {
	v, ok := t.m[key]
	return v, ok
}

// Keys returns the table's keys in sorted order.
func (t Table[V]) Keys() []string {
	return slices.Sorted(maps.Keys(t.m))
}

func (t Table[V]) frozenShape() frozenShape { return frozenTable }

func (t Table[V]) frozenTypes() (key, elem reflect.Type) {
	return reflect.TypeFor[string](), reflect.TypeFor[V]()
}

func (t Table[V]) frozenBuilder() collectionBuilder {
	return &tableBuilder[V]{m: make(map[string]V)}
}

func (t Table[V]) frozenRange(yield func(key, elem reflect.Value) bool) {
	for _, k := range t.Keys() {
		v := t.m[k]
		if !yield(reflect.ValueOf(k), reflect.ValueOf(&v).Elem()) {
			return
		}
	}
}

type tableBuilder[V any] struct {
	m map[string]V
}

func (b *tableBuilder[V]) Add(reflect.Value) {
	panic("Add on a dictionary builder")
}

func (b *tableBuilder[V]) Set(key string, elem reflect.Value) {
	b.m[key] = elem.Interface().(V)
}

func (b *tableBuilder[V]) Complete() reflect.Value {
	return reflect.ValueOf(Table[V]{m: b.m})
}

// A SortedTable is an immutable string-keyed dictionary whose entries
// enumerate in key order. The zero value is an empty table.
type SortedTable[V any] struct {
	keys []string
	m    map[string]V
}

// SortedTableOf returns a SortedTable holding a copy of m.
func SortedTableOf[V any](m map[string]V) SortedTable[V] {
	return SortedTable[V]{
		keys: slices.Sorted(maps.Keys(m)),
		m:    maps.Clone(m),
	}
}

// Len returns the number of entries in the table.
func (t SortedTable[V]) Len() int { return len(t.m) }

// Get returns the value stored under key and whether it is present.
func (t SortedTable[V]) Get(key string) (V, bool) {
	v, ok := t.m[key]
	return v, ok
}

// Keys returns the table's keys in sorted order.
func (t SortedTable[V]) Keys() []string {
	return slices.Clone(t.keys)
}

func (t SortedTable[V]) frozenShape() frozenShape { return frozenSortedTable }

func (t SortedTable[V]) frozenTypes() (key, elem reflect.Type) {
	return reflect.TypeFor[string](), reflect.TypeFor[V]()
}

func (t SortedTable[V]) frozenBuilder() collectionBuilder {
	return &sortedTableBuilder[V]{m: make(map[string]V)}
}

func (t SortedTable[V]) frozenRange(yield func(key, elem reflect.Value) bool) {
	for _, k := range t.keys {
		v := t.m[k]
		if !yield(reflect.ValueOf(k), reflect.ValueOf(&v).Elem()) {
			return
		}
	}
}

type sortedTableBuilder[V any] struct {
	m map[string]V
}

func (b *sortedTableBuilder[V]) Add(reflect.Value) {
	panic("Add on a dictionary builder")
}

func (b *sortedTableBuilder[V]) Set(key string, elem reflect.Value) {
	b.m[key] = elem.Interface().(V)
}

func (b *sortedTableBuilder[V]) Complete() reflect.Value {
	return reflect.ValueOf(SortedTable[V]{
		keys: slices.Sorted(maps.Keys(b.m)),
		m:    b.m,
	})
}
