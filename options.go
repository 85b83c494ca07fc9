package jet

import (
	"reflect"
	"sync"
)

// Options configures a [Config].
type Options struct {
	// NamingPolicy derives a member's wire name from its source name.
	// It applies only to members without an explicit name override in
	// their struct tag. A policy that returns an empty string is a
	// configuration error, reported when the member's schema is built.
	NamingPolicy func(string) string

	// IgnoreReadOnly, if true, omits members that have a getter but no
	// setter from serialized output.
	IgnoreReadOnly bool

	// IgnoreNull, if true, omits members with nil values from
	// serialized output. The "omitnull" tag option does the same for
	// a single member.
	IgnoreNull bool

	// IgnoreZero, if true, omits members with zero values from
	// serialized output. The "omitzero" tag option does the same for
	// a single member.
	IgnoreZero bool

	// Strict enables stream contract verification around jet's own
	// converters, in addition to the always-on verification of
	// user-supplied converters. Test suites should run with Strict set
	// so that regressions in built-in converters surface as
	// [ContractError] rather than corrupt output.
	Strict bool
}

// A Config holds a serializer configuration and the caches derived
// from it. Configs are safe for concurrent use. Independent Configs
// share no mutable state: each owns its schema cache, converter cache
// and collection adapter registry.
type Config struct {
	opts Options

	schemas    sync.Map // reflect.Type -> *schemaEntry (nil Schema marks in-progress build)
	converters sync.Map // reflect.Type -> *convEntry (nil converter marks in-progress build)
	families   familyRegistry
}

// New returns a Config using the given options.
func New(opts Options) *Config {
	return &Config{opts: opts}
}

var defaultConfig = New(Options{})

// Marshal encodes v using the default configuration.
func Marshal(v any) ([]byte, error) {
	return defaultConfig.Marshal(v)
}

// Unmarshal decodes data into v using the default configuration.
func Unmarshal(data []byte, v any) error {
	return defaultConfig.Unmarshal(data, v)
}

// Schema returns the schema for t, building and caching it if needed.
func (c *Config) Schema(t reflect.Type) (*Schema, error) {
	return c.schemaFor(t)
}
