package jet

import (
	"reflect"
	"sync/atomic"

	"github.com/thornvale/jet/tokens"
)

// A Member describes one mapped member of one mapped type: its wire
// name in every form the engine needs, its capabilities, its shape,
// and the dispatch hooks that move its value between Go and the token
// stream.
//
// A Member is immutable once its schema's build pass completes. The
// only fields written afterwards are the lazily memoized links to the
// element, declared and run-time type schemas, the value policy
// descriptor, the bound converter, and the collection adapter; each is
// computed at most once and is idempotent under concurrent first use.
type Member struct {
	cfg *Config

	// Parent is the type owning the member, or nil for a policy
	// descriptor.
	Parent reflect.Type
	// Declared is the member's static type.
	Declared reflect.Type
	// Runtime is the declared type with pointers unwrapped; shape
	// classification and collection building use it.
	Runtime reflect.Type
	// Elem is the element type for enumerable and dictionary shapes,
	// else nil.
	Elem reflect.Type
	// Key is the dictionary key type, else nil.
	Key reflect.Type

	sourceName string
	name       wireName
	shape      shape
	adapterK   adapterKind

	canBeNull         bool
	hasGetter         bool
	hasSetter         bool
	shouldSerialize   bool
	shouldDeserialize bool
	omitNull          bool
	omitZero          bool
	seq               bool
	ignored           bool
	missing           bool

	// get loads the member value from its parent. alloc loads a
	// settable reference, allocating intermediate nil pointers; it is
	// nil for accessor-method members, which decode through set
	// instead.
	get   func(recv reflect.Value) reflect.Value
	alloc func(recv reflect.Value) reflect.Value
	set   func(recv, v reflect.Value)

	conv        atomic.Pointer[convEntry]
	adapterRef  atomic.Pointer[collectionAdapter]
	elemLink    atomic.Pointer[schemaEntry]
	declLink    atomic.Pointer[schemaEntry]
	runtimeLink atomic.Pointer[schemaEntry]
	valuePolicy atomic.Pointer[Member]
}

// missingMember is the inert descriptor returned by lookups that match
// nothing: it never serializes or deserializes, so unknown incoming
// members decode as a skip, never an error.
var missingMember = &Member{sourceName: "(missing)", missing: true}

// SourceName returns the member's name in the Go declaration.
func (m *Member) SourceName() string { return m.sourceName }

// Name returns the member's resolved wire name.
func (m *Member) Name() string { return string(m.name.Raw) }

// WireName returns the UTF-8 bytes of the resolved wire name.
func (m *Member) WireName() []byte { return m.name.Raw }

// EscapedName returns the quoted, escaped, writer-ready form of the
// wire name.
func (m *Member) EscapedName() []byte { return m.name.Escaped }

// NameKey returns the fixed-width lookup key derived from the wire
// name bytes.
func (m *Member) NameKey() uint64 { return m.name.Key }

// ShouldSerialize reports whether the member participates in encoding.
func (m *Member) ShouldSerialize() bool { return m.shouldSerialize }

// ShouldDeserialize reports whether the member participates in
// decoding.
func (m *Member) ShouldDeserialize() bool { return m.shouldDeserialize }

// CanBeNull reports whether the member's declared type has a null
// representation.
func (m *Member) CanBeNull() bool { return m.canBeNull }

// IsMissing reports whether the member is the inert missing-member
// descriptor.
func (m *Member) IsMissing() bool { return m.missing }

// IsIgnored reports whether the member is an ignored placeholder: it
// occupies its slot in the schema but never transfers a value.
func (m *Member) IsIgnored() bool { return m.ignored }

func (m *Member) schemaLink(link *atomic.Pointer[schemaEntry], t reflect.Type) (*Schema, error) {
	if t == nil {
		return nil, nil
	}
	if e := link.Load(); e != nil {
		return e.s, e.err
	}
	s, err := m.cfg.schemaFor(t)
	link.CompareAndSwap(nil, &schemaEntry{s, err})
	e := link.Load()
	return e.s, e.err
}

// ElementSchema returns the schema of the member's element type, for
// enumerable and dictionary shapes. The link is resolved on first
// access, never during the construction of the owning type's own
// schema, so recursive type graphs cannot recurse the build.
func (m *Member) ElementSchema() (*Schema, error) {
	return m.schemaLink(&m.elemLink, m.Elem)
}

// DeclaredSchema returns the schema of the member's declared type.
func (m *Member) DeclaredSchema() (*Schema, error) {
	return m.schemaLink(&m.declLink, m.Declared)
}

// RuntimeSchema returns the schema of the member's run-time
// (pointer-unwrapped) type.
func (m *Member) RuntimeSchema() (*Schema, error) {
	return m.schemaLink(&m.runtimeLink, m.Runtime)
}

// elemPolicy returns the element type's policy descriptor, or nil for
// plain value members.
func (m *Member) elemPolicy() (*Member, error) {
	if m.Elem == nil {
		return nil, nil
	}
	es, err := m.ElementSchema()
	if err != nil {
		return nil, err
	}
	return es.Policy(), nil
}

// ValuePolicy returns the descriptor used to re-interpret a dictionary
// value on the generically-typed path, where the engine cannot use a
// typed enumerator. It reuses the element schema's policy descriptor
// when one exists, and is built at most once per member.
func (m *Member) ValuePolicy() (*Member, error) {
	if m.shape != shapeDictionary {
		return nil, nil
	}
	if p := m.valuePolicy.Load(); p != nil {
		return p, nil
	}
	es, err := m.ElementSchema()
	if err != nil {
		return nil, err
	}
	p := es.Policy()
	if p == nil {
		p, err = newPolicyMember(m.cfg, m.Elem)
		if err != nil {
			return nil, err
		}
	}
	m.valuePolicy.CompareAndSwap(nil, p)
	return m.valuePolicy.Load(), nil
}

func (m *Member) converter() (*converter, error) {
	if e := m.conv.Load(); e != nil {
		return e.c, e.err
	}
	c, err := m.cfg.converterFor(m.Declared)
	m.conv.CompareAndSwap(nil, &convEntry{c, err})
	e := m.conv.Load()
	return e.c, e.err
}

// adapter returns the collection adapter bound to the member,
// registering the concrete type's family on first use. Members that
// populate their collections in place have no adapter.
func (m *Member) adapter() (*collectionAdapter, error) {
	switch m.adapterK {
	case adapterNone:
		return nil, nil
	}
	if a := m.adapterRef.Load(); a != nil {
		return a, nil
	}
	var a *collectionAdapter
	switch m.adapterK {
	case adapterArray:
		a = m.cfg.families.arrayAdapter(m.Runtime)
	case adapterFrozenEnum, adapterFrozenDict:
		a = m.cfg.families.frozenAdapter(m.Runtime)
	}
	m.adapterRef.CompareAndSwap(nil, a)
	return m.adapterRef.Load(), nil
}

// readInto decodes one incoming value into the member's slot on recv.
func (m *Member) readInto(st *tokens.Scanner, recv reflect.Value) error {
	if m.alloc != nil {
		return m.Read(ReadFrame{}, st, m.alloc(recv))
	}
	tmp := reflect.New(m.Declared).Elem()
	if err := m.Read(ReadFrame{}, st, tmp); err != nil {
		return err
	}
	m.set(recv, tmp)
	return nil
}

// writeFrom encodes the member's value from recv, honoring the
// null/zero omission options.
func (m *Member) writeFrom(w *tokens.Writer, recv reflect.Value) error {
	v := m.get(recv)
	if (m.omitNull || m.cfg.opts.IgnoreNull) && isNullValue(v) {
		return nil
	}
	if (m.omitZero || m.cfg.opts.IgnoreZero) && v.IsZero() {
		return nil
	}
	w.NameEscaped(m.name.Escaped)
	return m.Write(WriteFrame{}, w, v)
}

func isNullValue(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface:
		return v.IsNil()
	}
	return false
}
