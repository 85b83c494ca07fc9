// Package tokens provides low-level readers and writers for the JSON
// token grammar.
//
// This package deliberately knows nothing about Go types or
// reflection. It deals in tokens: object and array brackets, strings,
// numbers, booleans and nulls. The jet package layers value mapping on
// top of it.
//
// The Scanner additionally exposes the position bookkeeping that jet
// uses to verify converter behavior: the kind of the last consumed
// token, the current nesting depth, and the cumulative number of
// consumed bytes.
package tokens
