package jet

import (
	"reflect"

	"github.com/thornvale/jet/tokens"
)

// Marshal returns the JSON encoding of v under the Config's options.
//
// Marshal traverses the value recursively. If an encountered value
// implements [Marshaler], Marshal calls MarshalJET on it to produce
// its encoding. Otherwise, Marshal uses the following type-dependent
// default encodings:
//
// Bool, string, integer and float values encode as the corresponding
// JSON scalars.
//
// Slice and array values encode as JSON arrays. A nil slice encodes as
// null. The four frozen collections encode as arrays ([List], [Seq])
// or objects ([Table], [SortedTable]).
//
// Map values encode as JSON objects. The map's key type must be a
// string kind, or an interface whose values are strings at run time.
// Entries are emitted in sorted key order, so output is deterministic.
// A nil map encodes as null.
//
// Struct values encode as JSON objects. Each exported field encodes in
// declaration order under its resolved wire name, subject to its "jet"
// tag and the Config's options. Untagged embedded struct fields encode
// as if their inner exported fields were fields of the outer struct.
// GetX/SetX accessor method pairs encode as members named X.
//
// Pointer values encode as the value pointed to; a nil pointer encodes
// as null. Interface values encode as their dynamic value; a nil
// interface encodes as null.
//
// Channel, function, complex, uintptr and unsafe pointer values cannot
// be encoded, and cause Marshal to return a [ConfigError].
func (c *Config) Marshal(v any) ([]byte, error) {
	w := &tokens.Writer{}
	if v == nil {
		w.Null()
		return w.Out, nil
	}
	val := reflect.ValueOf(v)
	// Copy into addressable storage so pointer-receiver accessors and
	// marshalers can be called on the root value.
	root := reflect.New(val.Type()).Elem()
	root.Set(val)

	s, err := c.schemaFor(val.Type())
	if err != nil {
		return nil, err
	}
	if err := s.Policy().Write(WriteFrame{}, w, root); err != nil {
		return nil, err
	}
	return w.Out, nil
}
