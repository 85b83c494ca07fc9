// Package jet is a streaming JSON serializer built around explicit
// member metadata.
//
// jet maps Go types to JSON through schemas: for every type it
// processes, jet builds a [Schema] holding one [Member] descriptor per
// mapped member. A descriptor carries the member's resolved wire name
// (raw, escaped and as a fixed-width lookup key), its shape (plain
// value, enumerable or dictionary), its capabilities (whether it
// serializes, deserializes, or both), and the dispatch hooks that move
// its value through the token stream. Schemas are built once per type
// per [Config] and shared by all operations on that Config.
//
// The token layer lives in the [tokens] subpackage: a [tokens.Scanner]
// reads a document one token at a time, a [tokens.Writer] produces
// one. Custom converters implement [Marshaler] and [Unmarshaler]
// against those types directly, and are held to a stream contract: a
// read must consume exactly one complete value, a write must leave the
// writer at the nesting depth it found it. jet verifies the contract
// around every user-supplied converter, and around its own when the
// Strict option is set, reporting violations as [ContractError].
//
// Besides the native containers, jet maps five frozen collection
// families that cannot be populated in place: [List], [Seq] and [Set]
// decode from JSON arrays, [Table] and [SortedTable] from JSON
// objects. Each is materialized through a builder registered per
// concrete type on first use.
package jet
