package jet

import (
	"reflect"
	"sync"
)

// A collectionBuilder accumulates decoded elements and materializes
// the final collection value. Enumerable builders only support Add,
// dictionary builders only Set; calling the wrong one is an engine
// bug, not a data error.
type collectionBuilder interface {
	Add(elem reflect.Value)
	Set(key string, elem reflect.Value)
	Complete() reflect.Value
}

// A collectionAdapter knows how to build one concrete collection type
// that cannot be populated in place through reflection. Adapters are
// shared: one per concrete type per Config, created the first time the
// type is decoded.
type collectionAdapter struct {
	// Type is the concrete collection type the adapter builds.
	Type reflect.Type
	// Seq reports whether the adapter builds the array-like frozen
	// variant, which materializes into exact-size backing storage.
	Seq bool

	newBuilder func() collectionBuilder
}

// familyRegistry is a Config-scoped, type-keyed registry of collection
// adapters. Registration is idempotent: concurrent first use from
// multiple decode operations races LoadOrStore and every caller
// observes the same adapter.
type familyRegistry struct {
	m sync.Map // reflect.Type -> *collectionAdapter
}

// frozenAdapter returns the adapter for the frozen collection type t,
// registering it on first use.
func (r *familyRegistry) frozenAdapter(t reflect.Type) *collectionAdapter {
	if a, ok := r.m.Load(t); ok {
		return a.(*collectionAdapter)
	}
	fz := reflect.Zero(t).Interface().(frozen)
	a := &collectionAdapter{
		Type:       t,
		Seq:        fz.frozenShape() == frozenSeq,
		newBuilder: fz.frozenBuilder,
	}
	actual, _ := r.m.LoadOrStore(t, a)
	return actual.(*collectionAdapter)
}

// arrayAdapter returns the adapter for a fixed-size array type. The
// builder accumulates elements and requires the element count to match
// the array's length exactly.
func (r *familyRegistry) arrayAdapter(t reflect.Type) *collectionAdapter {
	if a, ok := r.m.Load(t); ok {
		return a.(*collectionAdapter)
	}
	a := &collectionAdapter{
		Type: t,
		newBuilder: func() collectionBuilder {
			return &arrayBuilder{t: t}
		},
	}
	actual, _ := r.m.LoadOrStore(t, a)
	return actual.(*collectionAdapter)
}

// len returns the number of registered adapters.
func (r *familyRegistry) len() int {
	n := 0
	r.m.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}

type arrayBuilder struct {
	t     reflect.Type
	elems []reflect.Value
}

func (b *arrayBuilder) Add(elem reflect.Value) {
	// Copy: callers reuse the element value across iterations.
	c := reflect.New(elem.Type()).Elem()
	c.Set(elem)
	b.elems = append(b.elems, c)
}

func (b *arrayBuilder) Set(string, reflect.Value) {
	panic("Set on an array builder")
}

func (b *arrayBuilder) Complete() reflect.Value {
	arr := reflect.New(b.t).Elem()
	for i, e := range b.elems {
		if i >= b.t.Len() {
			break
		}
		arr.Index(i).Set(e)
	}
	return arr
}
