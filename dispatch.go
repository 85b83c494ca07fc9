package jet

import (
	"reflect"
	"sort"

	"github.com/thornvale/jet/tokens"
)

// A ReadFrame carries the decode context a caller hands to a member's
// read hooks. The zero value is a plain value read.
type ReadFrame struct {
	// CollectionReady is set when the caller has already consumed the
	// enclosing container bracket and is positioned on an element. A
	// Read with CollectionReady set forwards to the element policy's
	// ReadEnumerable hook when the member has one.
	CollectionReady bool
}

// A WriteFrame carries the encode context a caller hands to a member's
// write hooks. The zero value is a plain value write.
type WriteFrame struct {
	// Enumerating is set when the caller is emitting the elements of a
	// container it has already opened. A Write with Enumerating set
	// forwards to the element policy's WriteEnumerable hook when the
	// member has one.
	Enumerating bool
}

// Read decodes one value from st into v. With fr.CollectionReady set
// and an element policy available, the read is forwarded to the
// element policy; otherwise the member's own converter runs, subject
// to contract verification.
func (m *Member) Read(fr ReadFrame, st *tokens.Scanner, v reflect.Value) error {
	if !m.shouldDeserialize {
		return shapeErr(m, "member %s is not deserializable", m.sourceName)
	}
	if fr.CollectionReady {
		ep, err := m.elemPolicy()
		if err != nil {
			return err
		}
		if ep != nil {
			return ep.ReadEnumerable(ReadFrame{}, st, v)
		}
	}
	return m.invokeRead(st, v)
}

// ReadEnumerable decodes one value from st into v using the member's
// own converter. It never forwards, regardless of the frame.
func (m *Member) ReadEnumerable(fr ReadFrame, st *tokens.Scanner, v reflect.Value) error {
	if !m.shouldDeserialize {
		return shapeErr(m, "member %s is not deserializable", m.sourceName)
	}
	return m.invokeRead(st, v)
}

// Write encodes v to w. With fr.Enumerating set and an element policy
// available, the write is forwarded to the element policy; otherwise
// the member's own converter runs, subject to contract verification.
func (m *Member) Write(fr WriteFrame, w *tokens.Writer, v reflect.Value) error {
	if !m.shouldSerialize {
		return shapeErr(m, "member %s is not serializable", m.sourceName)
	}
	if fr.Enumerating {
		ep, err := m.elemPolicy()
		if err != nil {
			return err
		}
		if ep != nil {
			return ep.WriteEnumerable(WriteFrame{}, w, v)
		}
	}
	return m.invokeWrite(w, v)
}

// WriteEnumerable encodes v to w using the member's own converter. It
// never forwards, regardless of the frame.
func (m *Member) WriteEnumerable(fr WriteFrame, w *tokens.Writer, v reflect.Value) error {
	if !m.shouldSerialize {
		return shapeErr(m, "member %s is not serializable", m.sourceName)
	}
	return m.invokeWrite(w, v)
}

// WriteDictionary encodes the dictionary value v to w. It is only
// valid on dictionary-shaped members.
func (m *Member) WriteDictionary(fr WriteFrame, w *tokens.Writer, v reflect.Value) error {
	if m.shape != shapeDictionary {
		return shapeErr(m, "member %s is not a dictionary", m.sourceName)
	}
	return m.Write(fr, w, v)
}

// invokeRead runs the member's read hook inside the stream contract
// check: the hook must consume exactly the one value the scanner is
// positioned on. Converters jet built itself are trusted and skip the
// check unless the Strict option is set; user-supplied converters are
// always checked.
func (m *Member) invokeRead(st *tokens.Scanner, v reflect.Value) error {
	c, err := m.converter()
	if err != nil {
		return err
	}
	if !m.cfg.opts.Strict && c.trustedRead {
		return m.hookRead(c, st, v)
	}

	k, err := st.Peek()
	if err != nil {
		return err
	}
	preDepth, preConsumed, width := st.Depth(), st.Consumed(), st.Width()
	if err := m.hookRead(c, st, v); err != nil {
		return err
	}
	switch k {
	case tokens.BeginObject, tokens.BeginArray:
		if st.Kind() != k.End() || st.Depth() != preDepth {
			return contractErr(c.name, "read left a %s value incomplete: depth %d, want %d, last token %s",
				k, st.Depth(), preDepth, st.Kind())
		}
		if st.Consumed() <= preConsumed {
			return contractErr(c.name, "read consumed no input for a %s value", k)
		}
	default:
		if st.Kind() != k || st.Consumed() != preConsumed+width {
			return contractErr(c.name, "read consumed %d bytes of a %d-byte %s token",
				st.Consumed()-preConsumed, width, k)
		}
	}
	return nil
}

// invokeWrite runs the member's write hook inside the stream contract
// check: the hook must leave the writer at the nesting depth it found
// it, with the same trust rules as invokeRead.
func (m *Member) invokeWrite(w *tokens.Writer, v reflect.Value) error {
	c, err := m.converter()
	if err != nil {
		return err
	}
	if !m.cfg.opts.Strict && c.trustedWrite {
		return m.hookWrite(c, w, v)
	}

	pre := w.Depth()
	if err := m.hookWrite(c, w, v); err != nil {
		return err
	}
	if w.Depth() != pre {
		return contractErr(c.name, "write left the writer at depth %d, want %d", w.Depth(), pre)
	}
	return nil
}

// hookRead routes a read to the member's collection path or its
// converter. A custom (user-supplied) converter overrides the
// collection path: the user owns the value's representation.
func (m *Member) hookRead(c *converter, st *tokens.Scanner, v reflect.Value) error {
	if c.trustedRead {
		switch m.shape {
		case shapeEnumerable:
			return m.readEnumerableValue(st, v)
		case shapeDictionary:
			return m.readDictionaryValue(st, v)
		}
	}
	return c.read(st, v)
}

func (m *Member) hookWrite(c *converter, w *tokens.Writer, v reflect.Value) error {
	if c.trustedWrite {
		switch m.shape {
		case shapeEnumerable:
			return m.writeEnumerableValue(w, v)
		case shapeDictionary:
			return m.writeDictionaryValue(w, v)
		}
	}
	return c.write(w, v)
}

// derefAlloc unwraps pointers on a decode target, allocating as it
// goes.
func derefAlloc(v reflect.Value) reflect.Value {
	for v.Kind() == reflect.Pointer {
		if v.IsNil() {
			v.Set(reflect.New(v.Type().Elem()))
		}
		v = v.Elem()
	}
	return v
}

// readEnumerableValue decodes a JSON array into an enumerable member
// value: in place for slices, through the collection adapter for
// fixed-size arrays and frozen collections.
func (m *Member) readEnumerableValue(st *tokens.Scanner, v reflect.Value) error {
	k, err := st.Peek()
	if err != nil {
		return err
	}
	if k == tokens.Null {
		if err := st.Null(); err != nil {
			return err
		}
		v.SetZero()
		return nil
	}
	v = derefAlloc(v)
	if err := st.BeginArray(); err != nil {
		return err
	}

	if m.adapterK == adapterNone {
		// Keep the backing array, drop the stale elements. An incoming
		// empty array must still produce a non-nil slice.
		if v.IsNil() {
			v.Set(reflect.MakeSlice(m.Runtime, 0, 0))
		} else {
			v.Set(v.Slice(0, 0))
		}
		for i := 0; ; i++ {
			k, err := st.Peek()
			if err != nil {
				return err
			}
			if k == tokens.EndArray {
				return st.EndArray()
			}
			v.Grow(1)
			v.SetLen(i + 1)
			if err := m.Read(ReadFrame{CollectionReady: true}, st, v.Index(i)); err != nil {
				return err
			}
		}
	}

	a, err := m.adapter()
	if err != nil {
		return err
	}
	b := a.newBuilder()
	elem := reflect.New(m.Elem).Elem()
	n := 0
	for {
		k, err := st.Peek()
		if err != nil {
			return err
		}
		if k == tokens.EndArray {
			break
		}
		elem.SetZero()
		if err := m.Read(ReadFrame{CollectionReady: true}, st, elem); err != nil {
			return err
		}
		b.Add(elem)
		n++
	}
	if err := st.EndArray(); err != nil {
		return err
	}
	if m.adapterK == adapterArray && n != m.Runtime.Len() {
		return shapeErr(m, "cannot decode %d elements into %s", n, m.Runtime)
	}
	v.Set(b.Complete())
	return nil
}

// readDictionaryValue decodes a JSON object into a dictionary member
// value: in place for maps, through the collection adapter for frozen
// tables.
func (m *Member) readDictionaryValue(st *tokens.Scanner, v reflect.Value) error {
	k, err := st.Peek()
	if err != nil {
		return err
	}
	if k == tokens.Null {
		if err := st.Null(); err != nil {
			return err
		}
		v.SetZero()
		return nil
	}
	v = derefAlloc(v)
	if err := st.BeginObject(); err != nil {
		return err
	}

	if m.adapterK == adapterNone {
		if v.IsNil() {
			v.Set(reflect.MakeMap(m.Runtime))
		} else {
			v.Clear()
		}
		val := reflect.New(m.Elem).Elem()
		for {
			k, err := st.Peek()
			if err != nil {
				return err
			}
			if k == tokens.EndObject {
				return st.EndObject()
			}
			name, err := st.String()
			if err != nil {
				return err
			}
			val.SetZero()
			if err := m.Read(ReadFrame{CollectionReady: true}, st, val); err != nil {
				return err
			}
			key := reflect.ValueOf(name)
			if m.Key.Kind() == reflect.String && m.Key != key.Type() {
				key = key.Convert(m.Key)
			}
			v.SetMapIndex(key, val)
		}
	}

	a, err := m.adapter()
	if err != nil {
		return err
	}
	b := a.newBuilder()
	val := reflect.New(m.Elem).Elem()
	for {
		k, err := st.Peek()
		if err != nil {
			return err
		}
		if k == tokens.EndObject {
			break
		}
		name, err := st.String()
		if err != nil {
			return err
		}
		val.SetZero()
		if err := m.Read(ReadFrame{CollectionReady: true}, st, val); err != nil {
			return err
		}
		b.Set(name, val)
	}
	if err := st.EndObject(); err != nil {
		return err
	}
	v.Set(b.Complete())
	return nil
}

// writeEnumerableValue encodes an enumerable member value as a JSON
// array, forwarding each element through the element policy.
func (m *Member) writeEnumerableValue(w *tokens.Writer, v reflect.Value) error {
	for v.Kind() == reflect.Pointer {
		if v.IsNil() {
			w.Null()
			return nil
		}
		v = v.Elem()
	}
	if v.Kind() == reflect.Slice && v.IsNil() {
		w.Null()
		return nil
	}

	if fz, ok := frozenOf(v); ok {
		w.BeginArray()
		var rangeErr error
		fz.frozenRange(func(_, elem reflect.Value) bool {
			rangeErr = m.Write(WriteFrame{Enumerating: true}, w, elem)
			return rangeErr == nil
		})
		if rangeErr != nil {
			return rangeErr
		}
		w.EndArray()
		return nil
	}

	w.BeginArray()
	for i := 0; i < v.Len(); i++ {
		if err := m.Write(WriteFrame{Enumerating: true}, w, v.Index(i)); err != nil {
			return err
		}
	}
	w.EndArray()
	return nil
}

// writeDictionaryValue encodes a dictionary member value as a JSON
// object. Map entries are emitted in sorted key order so that output
// is deterministic. Generically-typed values route through the value
// policy; typed values forward through the element policy like
// enumerable elements.
func (m *Member) writeDictionaryValue(w *tokens.Writer, v reflect.Value) error {
	for v.Kind() == reflect.Pointer {
		if v.IsNil() {
			w.Null()
			return nil
		}
		v = v.Elem()
	}
	if v.Kind() == reflect.Map && v.IsNil() {
		w.Null()
		return nil
	}

	if fz, ok := frozenOf(v); ok {
		w.BeginObject()
		var rangeErr error
		fz.frozenRange(func(key, elem reflect.Value) bool {
			w.Name(key.String())
			rangeErr = m.Write(WriteFrame{Enumerating: true}, w, elem)
			return rangeErr == nil
		})
		if rangeErr != nil {
			return rangeErr
		}
		w.EndObject()
		return nil
	}

	type entry struct {
		name string
		key  reflect.Value
	}
	keys := v.MapKeys()
	entries := make([]entry, 0, len(keys))
	for _, key := range keys {
		name, err := m.dictKeyString(key)
		if err != nil {
			return err
		}
		entries = append(entries, entry{name, key})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].name < entries[j].name })

	var vp *Member
	if m.Elem.Kind() == reflect.Interface {
		var err error
		vp, err = m.ValuePolicy()
		if err != nil {
			return err
		}
	}

	w.BeginObject()
	for _, e := range entries {
		w.Name(e.name)
		mv := v.MapIndex(e.key)
		var err error
		if vp != nil {
			err = vp.WriteEnumerable(WriteFrame{}, w, mv)
		} else {
			err = m.Write(WriteFrame{Enumerating: true}, w, mv)
		}
		if err != nil {
			return err
		}
	}
	w.EndObject()
	return nil
}

// dictKeyString extracts the JSON member name from a dictionary key.
// Statically string-kinded keys always qualify; an interface key that
// holds anything but a string is a shape error naming the member's
// declared type.
func (m *Member) dictKeyString(key reflect.Value) (string, error) {
	if key.Kind() == reflect.Interface {
		if key.IsNil() {
			return "", shapeErr(m, "dictionary enumerator yielded a nil key")
		}
		key = key.Elem()
	}
	if key.Kind() != reflect.String {
		return "", shapeErr(m, "dictionary enumerator yielded a non-string key of type %s", key.Type())
	}
	return key.String(), nil
}

// frozenOf reports whether v is a frozen collection value.
func frozenOf(v reflect.Value) (frozen, bool) {
	if v.Type().Implements(frozenType) {
		fz, ok := v.Interface().(frozen)
		return fz, ok
	}
	return nil, false
}
