package jet

import (
	"iter"
	"reflect"
	"strings"

	"github.com/creachadair/mds/mapset"
	"github.com/creachadair/mds/value"
)

// A Schema is the mapping metadata for one Go type under one Config:
// its member descriptors in declaration order, a lookup index keyed by
// wire name, and the policy descriptor used when a value of the type
// stands alone (as a document root, a collection element, or inside an
// interface).
//
// Schemas are built once per type per Config and are safe for
// concurrent use.
type Schema struct {
	// Type is the mapped type.
	Type reflect.Type

	cfg     *Config
	members []*Member
	byKey   map[uint64][]*Member
	policy  *Member
}

// Members returns the schema's member descriptors in declaration
// order, ignored placeholders included.
func (s *Schema) Members() []*Member { return s.members }

// Policy returns the descriptor that reads and writes standalone
// values of the schema's type.
func (s *Schema) Policy() *Member { return s.policy }

// Lookup returns the member with the given wire name, or the inert
// missing-member descriptor if no member matches. Lookup never fails:
// unknown incoming members decode as a skip.
func (s *Schema) Lookup(name string) *Member {
	for _, m := range s.byKey[nameKey(name)] {
		if string(m.name.Raw) == name {
			return m
		}
	}
	return missingMember
}

func (s *Schema) add(m *Member) error {
	if !m.ignored {
		for _, prev := range s.byKey[m.name.Key] {
			if string(prev.name.Raw) == string(m.name.Raw) {
				return configErr(s.Type, m.sourceName, "wire name %q already used by member %s", m.Name(), prev.sourceName)
			}
		}
	}
	s.members = append(s.members, m)
	s.byKey[m.name.Key] = append(s.byKey[m.name.Key], m)
	return nil
}

func buildSchema(c *Config, t reflect.Type) (*Schema, error) {
	s := &Schema{Type: t, cfg: c, byKey: make(map[uint64][]*Member)}

	p, err := newPolicyMember(c, t)
	if err != nil {
		return nil, err
	}
	s.policy = p

	rt := derefType(t)
	if rt.Kind() != reflect.Struct || rt.Implements(frozenType) {
		return s, nil
	}

	fieldNames := mapset.New[string]()
	for field := range structFields(rt, nil) {
		if !field.IsExported() {
			continue
		}
		m, err := newFieldMember(c, rt, field)
		if err != nil {
			return nil, err
		}
		if err := s.add(m); err != nil {
			return nil, err
		}
		fieldNames.Add(field.Name)
	}

	for _, a := range accessorPairs(rt) {
		if fieldNames.Has(a.name) {
			continue
		}
		m, err := newMethodMember(c, rt, a)
		if err != nil {
			return nil, err
		}
		if err := s.add(m); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// memberTag is the parsed form of a member's "jet" struct tag.
type memberTag struct {
	name     value.Maybe[string]
	omitNull bool
	omitZero bool
	readonly bool
	skip     bool
}

func parseTag(f reflect.StructField) memberTag {
	tag, ok := f.Tag.Lookup("jet")
	if !ok {
		return memberTag{}
	}
	if tag == "-" {
		return memberTag{skip: true}
	}
	var ret memberTag
	parts := strings.Split(tag, ",")
	if parts[0] != "" {
		ret.name = value.Just(parts[0])
	}
	for _, opt := range parts[1:] {
		switch opt {
		case "omitnull":
			ret.omitNull = true
		case "omitzero":
			ret.omitZero = true
		case "readonly":
			ret.readonly = true
		}
	}
	return ret
}

func newFieldMember(c *Config, parent reflect.Type, f reflect.StructField) (*Member, error) {
	tag := parseTag(f)
	if tag.skip {
		return newIgnoredMember(c, parent, f), nil
	}

	declared := f.Type
	runtime := derefType(declared)
	cl, err := classify(parent, f.Name, declared, runtime)
	if err != nil {
		return nil, err
	}
	name, err := resolveWireName(parent, f.Name, tag.name, c.opts.NamingPolicy)
	if err != nil {
		return nil, err
	}

	hasGetter, hasSetter := true, !tag.readonly
	shouldSer, shouldDeser := capabilities(c.opts, cl, hasGetter, hasSetter)

	steps := fieldSteps(parent, f.Index)
	return &Member{
		cfg:               c,
		Parent:            parent,
		Declared:          declared,
		Runtime:           runtime,
		Elem:              cl.elem,
		Key:               cl.key,
		sourceName:        f.Name,
		name:              name,
		shape:             cl.shape,
		adapterK:          cl.adapter,
		canBeNull:         cl.canBeNull,
		hasGetter:         hasGetter,
		hasSetter:         hasSetter,
		shouldSerialize:   shouldSer,
		shouldDeserialize: shouldDeser,
		omitNull:          tag.omitNull,
		omitZero:          tag.omitZero,
		seq:               cl.seq,
		get:               fieldGetter(declared, steps),
		alloc:             fieldAllocator(steps),
	}, nil
}

// newIgnoredMember builds the placeholder descriptor for a member
// tagged "jet:-": it keeps its slot in the schema but never transfers
// a value. Its wire name resolves best-effort so that lookups find the
// placeholder rather than the missing-member descriptor.
func newIgnoredMember(c *Config, parent reflect.Type, f reflect.StructField) *Member {
	name, err := resolveWireName(parent, f.Name, value.Absent[string](), c.opts.NamingPolicy)
	if err != nil {
		name = wireName{Raw: []byte(f.Name), Key: nameKey(f.Name)}
	}
	return &Member{
		cfg:        c,
		Parent:     parent,
		Declared:   f.Type,
		Runtime:    derefType(f.Type),
		sourceName: f.Name,
		name:       name,
		ignored:    true,
	}
}

// newPolicyMember builds the descriptor for standalone values of t. A
// policy descriptor has no parent, no wire name and full capabilities;
// it exists to give the dispatch hooks a uniform entry point.
func newPolicyMember(c *Config, t reflect.Type) (*Member, error) {
	runtime := derefType(t)
	cl, err := classify(nil, "", t, runtime)
	if err != nil {
		return nil, err
	}
	return &Member{
		cfg:               c,
		Declared:          t,
		Runtime:           runtime,
		Elem:              cl.elem,
		Key:               cl.key,
		sourceName:        t.String(),
		shape:             cl.shape,
		adapterK:          cl.adapter,
		canBeNull:         cl.canBeNull,
		hasGetter:         true,
		hasSetter:         true,
		shouldSerialize:   true,
		shouldDeserialize: true,
		seq:               cl.seq,
	}, nil
}

// accessor describes a GetX/SetX method pair found on a mapped type.
// Either index may be absent; the pair's member is getter-only or
// setter-only accordingly.
type accessor struct {
	name string
	get  int // method index on the pointer type, or -1
	set  int
	getT reflect.Type
	setT reflect.Type
}

// accessorPairs scans the pointer method set of t for accessor pairs:
// GetX methods taking no arguments and returning one value, and SetX
// methods taking one argument and returning nothing. Methods that do
// not fit those signatures are not accessors and are skipped.
func accessorPairs(t reflect.Type) []*accessor {
	pt := reflect.PointerTo(t)
	byName := make(map[string]*accessor)
	var order []string

	lookup := func(name string) *accessor {
		a, ok := byName[name]
		if !ok {
			a = &accessor{name: name, get: -1, set: -1}
			byName[name] = a
			order = append(order, name)
		}
		return a
	}

	// An accessor name must continue with an uppercase letter, so that
	// methods like Settings or Gettysburg are not mistaken for pairs.
	cut := func(name, prefix string) (string, bool) {
		rest, ok := strings.CutPrefix(name, prefix)
		if !ok || rest == "" {
			return "", false
		}
		if c := rest[0]; c < 'A' || c > 'Z' {
			return "", false
		}
		return rest, true
	}

	for i := 0; i < pt.NumMethod(); i++ {
		meth := pt.Method(i)
		if rest, ok := cut(meth.Name, "Get"); ok {
			if mt := meth.Type; mt.NumIn() == 1 && mt.NumOut() == 1 {
				a := lookup(rest)
				a.get, a.getT = i, mt.Out(0)
			}
		} else if rest, ok := cut(meth.Name, "Set"); ok {
			if mt := meth.Type; mt.NumIn() == 2 && mt.NumOut() == 0 {
				a := lookup(rest)
				a.set, a.setT = i, mt.In(1)
			}
		}
	}

	ret := make([]*accessor, 0, len(order))
	for _, name := range order {
		ret = append(ret, byName[name])
	}
	return ret
}

func newMethodMember(c *Config, parent reflect.Type, a *accessor) (*Member, error) {
	declared := a.getT
	if declared == nil {
		declared = a.setT
	} else if a.setT != nil && a.getT != a.setT {
		return nil, configErr(parent, a.name, "accessor pair Get%s/Set%s disagrees on type: %s vs %s", a.name, a.name, a.getT, a.setT)
	}
	runtime := derefType(declared)
	cl, err := classify(parent, a.name, declared, runtime)
	if err != nil {
		return nil, err
	}
	name, err := resolveWireName(parent, a.name, value.Absent[string](), c.opts.NamingPolicy)
	if err != nil {
		return nil, err
	}

	hasGetter, hasSetter := a.get >= 0, a.set >= 0
	shouldSer, shouldDeser := capabilities(c.opts, cl, hasGetter, hasSetter)

	m := &Member{
		cfg:               c,
		Parent:            parent,
		Declared:          declared,
		Runtime:           runtime,
		Elem:              cl.elem,
		Key:               cl.key,
		sourceName:        a.name,
		name:              name,
		shape:             cl.shape,
		adapterK:          cl.adapter,
		canBeNull:         cl.canBeNull,
		hasGetter:         hasGetter,
		hasSetter:         hasSetter,
		shouldSerialize:   shouldSer,
		shouldDeserialize: shouldDeser,
		seq:               cl.seq,
	}
	if hasGetter {
		get := a.get
		m.get = func(recv reflect.Value) reflect.Value {
			// Getter methods take a pointer receiver; values reached
			// through a map or an interface are not addressable, so
			// call through an addressable copy.
			if !recv.CanAddr() {
				tmp := reflect.New(recv.Type()).Elem()
				tmp.Set(recv)
				recv = tmp
			}
			return recv.Addr().Method(get).Call(nil)[0]
		}
	}
	if hasSetter {
		set := a.set
		m.set = func(recv, v reflect.Value) {
			recv.Addr().Method(set).Call([]reflect.Value{v})
		}
	}
	return m, nil
}

// fieldSteps partitions a multi-hop traversal of struct fields into
// segments that end at either the final field or a struct pointer that
// might be nil. fieldGetter and fieldAllocator use the partition to
// reach fields promoted from embedded struct pointers.
func fieldSteps(t reflect.Type, idx []int) [][]int {
	var ret [][]int
	prev := 0
	t = t.Field(idx[0]).Type
	for i := 1; i < len(idx); i++ {
		if t.Kind() == reflect.Pointer && t.Elem().Kind() == reflect.Struct {
			ret = append(ret, idx[prev:i])
			prev = i
			t = t.Elem()
		}
		t = t.Field(idx[i]).Type
	}
	return append(ret, idx[prev:])
}

// fieldGetter loads the field from its parent value. Traversing a nil
// embedded struct pointer yields a non-settable zero value of the
// field type.
func fieldGetter(ft reflect.Type, steps [][]int) func(reflect.Value) reflect.Value {
	return func(recv reflect.Value) reflect.Value {
		v := recv
		for i, hop := range steps {
			if i > 0 {
				if v.IsNil() {
					return reflect.Zero(ft)
				}
				v = v.Elem()
			}
			v = v.FieldByIndex(hop)
		}
		return v
	}
}

// fieldAllocator loads a settable reference to the field, allocating
// any nil embedded struct pointers on the way.
func fieldAllocator(steps [][]int) func(reflect.Value) reflect.Value {
	return func(recv reflect.Value) reflect.Value {
		v := recv
		for i, hop := range steps {
			if i > 0 {
				if v.IsNil() {
					v.Set(reflect.New(v.Type().Elem()))
				}
				v = v.Elem()
			}
			v = v.FieldByIndex(hop)
		}
		return v
	}
}

// structFields iterates the fields of t in declaration order,
// flattening untagged anonymous struct embeds. An embedded field with
// its own jet tag stays a member in its own right.
func structFields(t reflect.Type, idx []int) iter.Seq[reflect.StructField] {
	return func(yield func(reflect.StructField) bool) {
		for i := range t.NumField() {
			f := t.Field(i)
			idx = append(idx, i)
			if f.Anonymous && f.Tag.Get("jet") == "" {
				at := f.Type
				if at.Kind() == reflect.Pointer {
					at = at.Elem()
				}
				if at.Kind() == reflect.Struct && !at.Implements(frozenType) {
					for af := range structFields(at, idx) {
						if !yield(af) {
							return
						}
					}
					idx = idx[:len(idx)-1]
					continue
				}
			}
			f.Index = append([]int(nil), idx...)
			if !yield(f) {
				return
			}
			idx = idx[:len(idx)-1]
		}
	}
}

func derefType(t reflect.Type) reflect.Type {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t
}
