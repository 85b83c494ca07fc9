package jet

import (
	"fmt"
	"reflect"

	"github.com/thornvale/jet/tokens"
)

// Marshaler is the interface implemented by types that produce their
// own token stream. A MarshalJET call must write exactly one complete
// value and leave the writer at the nesting depth it found it.
type Marshaler interface {
	MarshalJET(w *tokens.Writer) error
}

// Unmarshaler is the interface implemented by types that consume their
// own token stream. An UnmarshalJET call must consume exactly the one
// value the scanner is positioned on, end brackets included.
//
// UnmarshalJET must use a pointer receiver; a value receiver could
// never observe the decoded state and is reported as a configuration
// error when the converter is bound.
type Unmarshaler interface {
	UnmarshalJET(st *tokens.Scanner) error
}

var (
	marshalerType   = reflect.TypeFor[Marshaler]()
	unmarshalerType = reflect.TypeFor[Unmarshaler]()
)

// A converter moves values of one declared type between Go and the
// token stream. Converters jet builds itself are trusted; converters
// backed by user code are not, and always run inside the stream
// contract check.
type converter struct {
	name         string
	trustedRead  bool
	trustedWrite bool

	read  func(st *tokens.Scanner, v reflect.Value) error
	write func(w *tokens.Writer, v reflect.Value) error
}

func buildConverter(c *Config, t reflect.Type) (*converter, error) {
	conv := &converter{name: t.String(), trustedRead: true, trustedWrite: true}

	if t.Kind() != reflect.Pointer && reflect.PointerTo(t).Implements(marshalerType) {
		conv.write = condAddrMarshalWrite(t)
		conv.trustedWrite = false
	} else if t.Implements(marshalerType) {
		isPtr := t.Kind() == reflect.Pointer
		conv.write = func(w *tokens.Writer, v reflect.Value) error {
			if isPtr && v.IsNil() {
				w.Null()
				return nil
			}
			return v.Interface().(Marshaler).MarshalJET(w)
		}
		conv.trustedWrite = false
	}

	if t.Implements(unmarshalerType) {
		if t.Kind() != reflect.Pointer {
			return nil, configErr(t, "", "UnmarshalJET must use a pointer receiver")
		}
		elem := t.Elem()
		conv.read = func(st *tokens.Scanner, v reflect.Value) error {
			if v.IsNil() {
				v.Set(reflect.New(elem))
			}
			return v.Interface().(Unmarshaler).UnmarshalJET(st)
		}
		conv.trustedRead = false
	} else if t.Kind() != reflect.Pointer && reflect.PointerTo(t).Implements(unmarshalerType) {
		conv.read = func(st *tokens.Scanner, v reflect.Value) error {
			return v.Addr().Interface().(Unmarshaler).UnmarshalJET(st)
		}
		conv.trustedRead = false
	}

	if conv.read != nil && conv.write != nil {
		return conv, nil
	}

	b, err := builtinConverter(c, t)
	if err != nil {
		return nil, err
	}
	if conv.read == nil {
		conv.read = b.read
	}
	if conv.write == nil {
		conv.write = b.write
	}
	return conv, nil
}

// condAddrMarshalWrite adapts a pointer-receiver MarshalJET to values:
// an unaddressable value is copied so the method can be called.
func condAddrMarshalWrite(t reflect.Type) func(w *tokens.Writer, v reflect.Value) error {
	return func(w *tokens.Writer, v reflect.Value) error {
		if !v.CanAddr() {
			tmp := reflect.New(t).Elem()
			tmp.Set(v)
			v = tmp
		}
		return v.Addr().Interface().(Marshaler).MarshalJET(w)
	}
}

// readNull consumes an upcoming null token, if any, and reports
// whether it did.
func readNull(st *tokens.Scanner) (bool, error) {
	k, err := st.Peek()
	if err != nil {
		return false, err
	}
	if k != tokens.Null {
		return false, nil
	}
	return true, st.Null()
}

func builtinConverter(c *Config, t reflect.Type) (*converter, error) {
	if t.Implements(frozenType) {
		return newPolicyConverter(c, t)
	}

	conv := &converter{name: t.String(), trustedRead: true, trustedWrite: true}
	switch t.Kind() {
	case reflect.Pointer:
		elem := t.Elem()
		ec, err := c.converterFor(elem)
		if err != nil {
			return nil, err
		}
		conv.read = func(st *tokens.Scanner, v reflect.Value) error {
			if ok, err := readNull(st); err != nil || ok {
				if ok {
					v.SetZero()
				}
				return err
			}
			if v.IsNil() {
				v.Set(reflect.New(elem))
			}
			return ec.read(st, v.Elem())
		}
		conv.write = func(w *tokens.Writer, v reflect.Value) error {
			if v.IsNil() {
				w.Null()
				return nil
			}
			return ec.write(w, v.Elem())
		}

	case reflect.Bool:
		conv.read = func(st *tokens.Scanner, v reflect.Value) error {
			if ok, err := readNull(st); err != nil || ok {
				if ok {
					v.SetZero()
				}
				return err
			}
			b, err := st.Bool()
			if err != nil {
				return err
			}
			v.SetBool(b)
			return nil
		}
		conv.write = func(w *tokens.Writer, v reflect.Value) error {
			w.Bool(v.Bool())
			return nil
		}

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		conv.read = func(st *tokens.Scanner, v reflect.Value) error {
			if ok, err := readNull(st); err != nil || ok {
				if ok {
					v.SetZero()
				}
				return err
			}
			i, err := st.Int()
			if err != nil {
				return err
			}
			if v.OverflowInt(i) {
				return fmt.Errorf("jet: value %d overflows %s", i, t)
			}
			v.SetInt(i)
			return nil
		}
		conv.write = func(w *tokens.Writer, v reflect.Value) error {
			w.Int(v.Int())
			return nil
		}

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		conv.read = func(st *tokens.Scanner, v reflect.Value) error {
			if ok, err := readNull(st); err != nil || ok {
				if ok {
					v.SetZero()
				}
				return err
			}
			u, err := st.Uint()
			if err != nil {
				return err
			}
			if v.OverflowUint(u) {
				return fmt.Errorf("jet: value %d overflows %s", u, t)
			}
			v.SetUint(u)
			return nil
		}
		conv.write = func(w *tokens.Writer, v reflect.Value) error {
			w.Uint(v.Uint())
			return nil
		}

	case reflect.Float32, reflect.Float64:
		conv.read = func(st *tokens.Scanner, v reflect.Value) error {
			if ok, err := readNull(st); err != nil || ok {
				if ok {
					v.SetZero()
				}
				return err
			}
			f, err := st.Float()
			if err != nil {
				return err
			}
			if v.OverflowFloat(f) {
				return fmt.Errorf("jet: value %g overflows %s", f, t)
			}
			v.SetFloat(f)
			return nil
		}
		conv.write = func(w *tokens.Writer, v reflect.Value) error {
			w.Float(v.Float())
			return nil
		}

	case reflect.String:
		conv.read = func(st *tokens.Scanner, v reflect.Value) error {
			if ok, err := readNull(st); err != nil || ok {
				if ok {
					v.SetZero()
				}
				return err
			}
			s, err := st.String()
			if err != nil {
				return err
			}
			v.SetString(s)
			return nil
		}
		conv.write = func(w *tokens.Writer, v reflect.Value) error {
			w.String(v.String())
			return nil
		}

	case reflect.Interface:
		return newInterfaceConverter(c, t)

	case reflect.Slice, reflect.Array, reflect.Map:
		return newPolicyConverter(c, t)

	case reflect.Struct:
		return newStructConverter(c, t)

	default:
		return nil, configErr(t, "", "no JSON mapping for type %s", t)
	}
	return conv, nil
}

// newPolicyConverter routes a collection type's converter through the
// type's own schema policy, so that a collection reached dynamically
// (inside an interface, or as the root of a document) decodes and
// encodes exactly like a collection member.
func newPolicyConverter(c *Config, t reflect.Type) (*converter, error) {
	s, err := c.schemaFor(t)
	if err != nil {
		return nil, err
	}
	p := s.Policy()
	conv := &converter{name: t.String(), trustedRead: true, trustedWrite: true}
	if p.shape == shapeDictionary {
		conv.read = p.readDictionaryValue
		conv.write = p.writeDictionaryValue
	} else {
		conv.read = p.readEnumerableValue
		conv.write = p.writeEnumerableValue
	}
	return conv, nil
}

func newStructConverter(c *Config, t reflect.Type) (*converter, error) {
	s, err := c.schemaFor(t)
	if err != nil {
		return nil, err
	}
	conv := &converter{name: t.String(), trustedRead: true, trustedWrite: true}
	conv.read = func(st *tokens.Scanner, v reflect.Value) error {
		if ok, err := readNull(st); err != nil || ok {
			if ok {
				v.SetZero()
			}
			return err
		}
		if err := st.BeginObject(); err != nil {
			return err
		}
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
			m := s.Lookup(name)
			if !m.ShouldDeserialize() {
				if err := st.SkipValue(); err != nil {
					return err
				}
				continue
			}
			if err := m.readInto(st, v); err != nil {
				return err
			}
		}
	}
	conv.write = func(w *tokens.Writer, v reflect.Value) error {
		w.BeginObject()
		for _, m := range s.Members() {
			if !m.ShouldSerialize() {
				continue
			}
			if err := m.writeFrom(w, v); err != nil {
				return err
			}
		}
		w.EndObject()
		return nil
	}
	return conv, nil
}

var (
	sliceOfAny = reflect.TypeFor[[]any]()
	mapOfAny   = reflect.TypeFor[map[string]any]()
)

// newInterfaceConverter handles interface-typed values. Writes
// dispatch on the dynamic type. Reads are only possible into the empty
// interface, where each JSON kind has a canonical Go representation:
// bool, float64, string, []any, map[string]any and nil.
func newInterfaceConverter(c *Config, t reflect.Type) (*converter, error) {
	conv := &converter{name: t.String(), trustedRead: true, trustedWrite: true}
	conv.write = func(w *tokens.Writer, v reflect.Value) error {
		if v.IsNil() {
			w.Null()
			return nil
		}
		dyn := v.Elem()
		dc, err := c.converterFor(dyn.Type())
		if err != nil {
			return err
		}
		return dc.write(w, dyn)
	}
	if t.NumMethod() != 0 {
		conv.read = func(st *tokens.Scanner, v reflect.Value) error {
			return configErr(t, "", "cannot decode into non-empty interface type %s", t)
		}
		return conv, nil
	}
	readAs := func(st *tokens.Scanner, v reflect.Value, ct reflect.Type) error {
		cc, err := c.converterFor(ct)
		if err != nil {
			return err
		}
		tmp := reflect.New(ct).Elem()
		if err := cc.read(st, tmp); err != nil {
			return err
		}
		v.Set(tmp)
		return nil
	}
	conv.read = func(st *tokens.Scanner, v reflect.Value) error {
		k, err := st.Peek()
		if err != nil {
			return err
		}
		switch k {
		case tokens.Null:
			if err := st.Null(); err != nil {
				return err
			}
			v.SetZero()
			return nil
		case tokens.True, tokens.False:
			b, err := st.Bool()
			if err != nil {
				return err
			}
			v.Set(reflect.ValueOf(b))
			return nil
		case tokens.Number:
			f, err := st.Float()
			if err != nil {
				return err
			}
			v.Set(reflect.ValueOf(f))
			return nil
		case tokens.String:
			s, err := st.String()
			if err != nil {
				return err
			}
			v.Set(reflect.ValueOf(s))
			return nil
		case tokens.BeginArray:
			return readAs(st, v, sliceOfAny)
		case tokens.BeginObject:
			return readAs(st, v, mapOfAny)
		}
		return fmt.Errorf("jet: unexpected %s token for interface value", k)
	}
	return conv, nil
}
