package jet

import (
	"reflect"
	"unicode/utf8"

	"github.com/creachadair/mds/value"
	"github.com/thornvale/jet/tokens"
)

// wireName is a member's resolved wire name in the three forms the
// engine needs: the raw UTF-8 bytes, the quoted writer-ready form, and
// a fixed-width key for fast member lookup during decode.
type wireName struct {
	Raw     []byte
	Escaped []byte
	Key     uint64
}

// resolveWireName computes a member's wire name. An explicit override
// wins over the ambient naming policy, which wins over the source name
// unchanged. A resolution that produces an empty name is a
// configuration error: it is reported when the schema is built, never
// per value.
func resolveWireName(parent reflect.Type, source string, override value.Maybe[string], policy func(string) string) (wireName, error) {
	name := source
	if o, ok := override.GetOK(); ok {
		name = o
		if name == "" {
			return wireName{}, configErr(parent, source, "member name override resolved to an empty name")
		}
	} else if policy != nil {
		name = policy(source)
		if name == "" {
			return wireName{}, configErr(parent, source, "naming policy resolved member name to an empty name")
		}
	}
	if !utf8.ValidString(name) {
		return wireName{}, configErr(parent, source, "member name %q is not valid UTF-8", name)
	}
	return wireName{
		Raw:     []byte(name),
		Escaped: tokens.AppendQuoted(nil, name),
		Key:     nameKey(name),
	}, nil
}

// nameKey derives a fixed-width lookup key from a wire name: up to
// seven leading bytes packed little-endian, with the name length in
// the top byte. Keys can collide for long names sharing a prefix and
// length, so lookups compare the raw bytes after a key match.
func nameKey(name string) uint64 {
	var key uint64
	n := len(name)
	if n > 7 {
		n = 7
	}
	for i := 0; i < n; i++ {
		key |= uint64(name[i]) << (8 * i)
	}
	ln := len(name)
	if ln > 255 {
		ln = 255
	}
	return key | uint64(ln)<<56
}
