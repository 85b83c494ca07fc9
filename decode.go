package jet

import (
	"fmt"
	"reflect"

	"github.com/thornvale/jet/tokens"
)

// Unmarshal decodes the JSON document data into the value pointed to
// by v, under the Config's options.
//
// Generally, Unmarshal applies the inverse of the rules used by
// [Config.Marshal]. If an encountered value implements [Unmarshaler],
// Unmarshal calls UnmarshalJET to decode it. UnmarshalJET must use a
// pointer receiver; a value receiver is reported as a [ConfigError].
//
// Otherwise, Unmarshal uses the following type-dependent defaults:
//
// JSON scalars decode into the corresponding bool, string, integer and
// float kinds. A number that overflows the target type is an error. A
// null decodes as the target's zero value.
//
// JSON arrays decode into slices, arrays and the enumerable frozen
// collections. A slice is reset to length zero and appended to. An
// array's length must match the incoming element count exactly; a
// mismatch is a [ShapeError]. Frozen collections are accumulated in a
// builder and stored whole.
//
// JSON objects decode into maps, the frozen tables, and structs. A map
// is cleared, or allocated if nil; duplicate incoming keys keep the
// last value. For structs, each incoming member decodes into the
// member with the matching wire name; members with no match, ignored
// members, and members without a setter are skipped, never an error.
//
// Pointers decode as the value pointed to, allocated as needed. An
// empty interface decodes JSON kinds into their canonical Go types:
// bool, float64, string, []any, map[string]any and nil.
func (c *Config) Unmarshal(data []byte, v any) error {
	if v == nil {
		return fmt.Errorf("jet: can't unmarshal into nil interface")
	}
	val := reflect.ValueOf(v)
	if val.Kind() != reflect.Pointer {
		return fmt.Errorf("jet: can't unmarshal into a non-pointer %s", val.Type())
	}
	if val.IsNil() {
		return fmt.Errorf("jet: can't unmarshal into nil pointer")
	}
	s, err := c.schemaFor(val.Type().Elem())
	if err != nil {
		return err
	}
	st := &tokens.Scanner{In: data}
	return s.Policy().Read(ReadFrame{}, st, val.Elem())
}
