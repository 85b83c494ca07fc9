package jet

import (
	"reflect"

	"github.com/creachadair/mds/mapset"
)

// shape classifies the kind of value a member carries. The dispatch
// hooks a member supports depend on its shape.
type shape int

const (
	shapeValue shape = iota
	shapeEnumerable
	shapeDictionary
)

func (s shape) String() string {
	switch s {
	case shapeValue:
		return "value"
	case shapeEnumerable:
		return "enumerable"
	case shapeDictionary:
		return "dictionary"
	}
	return "invalid"
}

// adapterKind selects the collection adapter bound to a member. At
// most one applies; selection follows from the shape classification.
type adapterKind int

const (
	adapterNone adapterKind = iota
	adapterArray
	adapterFrozenEnum
	adapterFrozenDict
)

var (
	nullableKinds = mapset.New(
		reflect.Pointer,
		reflect.Map,
		reflect.Slice,
		reflect.Interface,
	)

	// Dictionary keys must encode as JSON member names. String-kinded
	// keys qualify statically; interface keys are checked per entry at
	// run time.
	dictKeyKinds = mapset.New(
		reflect.String,
		reflect.Interface,
	)

	unmappableKinds = mapset.New(
		reflect.Chan,
		reflect.Func,
		reflect.Complex64,
		reflect.Complex128,
		reflect.UnsafePointer,
		reflect.Uintptr,
	)
)

// classification is the Capability Classifier's output for one member
// type: its shape, element and key types, and the adapter kind that
// will build its collection values.
type classification struct {
	shape     shape
	elem      reflect.Type // element type for collections, else nil
	key       reflect.Type // dictionary key type, else nil
	adapter   adapterKind
	seq       bool // array-like frozen variant
	canBeNull bool
}

// classify inspects a member's run-time (pointer-unwrapped) type.
// Configuration errors (multidimensional arrays, unsupported
// dictionary key types, unmappable kinds) surface here, at setup.
func classify(parent reflect.Type, member string, declared, runtime reflect.Type) (classification, error) {
	cl := classification{
		canBeNull: nullableKinds.Has(declared.Kind()),
	}

	if runtime.Implements(frozenType) {
		fz := reflect.Zero(runtime).Interface().(frozen)
		key, elem := fz.frozenTypes()
		switch fz.frozenShape() {
		case frozenTable, frozenSortedTable:
			cl.shape, cl.key, cl.elem, cl.adapter = shapeDictionary, key, elem, adapterFrozenDict
		case frozenSeq:
			cl.shape, cl.elem, cl.adapter, cl.seq = shapeEnumerable, elem, adapterFrozenEnum, true
		default:
			cl.shape, cl.elem, cl.adapter = shapeEnumerable, elem, adapterFrozenEnum
		}
		return cl, nil
	}

	switch runtime.Kind() {
	case reflect.Slice:
		cl.shape, cl.elem = shapeEnumerable, runtime.Elem()
	case reflect.Array:
		if runtime.Elem().Kind() == reflect.Array {
			return cl, configErr(parent, member, "unsupported collection type %s: multidimensional arrays cannot be mapped", runtime)
		}
		cl.shape, cl.elem, cl.adapter = shapeEnumerable, runtime.Elem(), adapterArray
	case reflect.Map:
		if !dictKeyKinds.Has(runtime.Key().Kind()) {
			return cl, configErr(parent, member, "unsupported dictionary key type %s: JSON member names must be strings", runtime.Key())
		}
		cl.shape, cl.key, cl.elem = shapeDictionary, runtime.Key(), runtime.Elem()
	default:
		if unmappableKinds.Has(runtime.Kind()) {
			return cl, configErr(parent, member, "no JSON mapping for type %s", runtime)
		}
		cl.shape = shapeValue
	}
	return cl, nil
}

// capabilities applies the eligibility rules to a classified member.
// Plain values serialize when readable (subject to the ignore
// read-only option) and deserialize when writable. Collections
// additionally require both a getter and a setter to deserialize:
// there is no way to hand the materialized collection back without a
// setter.
func capabilities(opts Options, cl classification, hasGetter, hasSetter bool) (shouldSerialize, shouldDeserialize bool) {
	switch cl.shape {
	case shapeValue:
		shouldSerialize = hasGetter && (hasSetter || !opts.IgnoreReadOnly)
		shouldDeserialize = hasSetter
	default:
		shouldSerialize = hasGetter
		shouldDeserialize = hasGetter && hasSetter
	}
	return shouldSerialize, shouldDeserialize
}
