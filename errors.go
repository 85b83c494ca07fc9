package jet

import (
	"fmt"
	"reflect"
)

// ConfigError is the error returned when a type or member cannot be
// mapped to JSON as declared. Configuration errors are detected while
// a schema is built, never per value.
type ConfigError struct {
	// Type is the name of the type whose schema could not be built.
	Type string
	// Member is the source name of the offending member, if the error
	// is specific to one member.
	Member string
	// Reason is an explanation of what is wrong with the declaration.
	Reason error
}

func (e ConfigError) Error() string {
	if e.Member == "" {
		return fmt.Sprintf("jet cannot map %s: %s", e.Type, e.Reason)
	}
	return fmt.Sprintf("jet cannot map %s.%s: %s", e.Type, e.Member, e.Reason)
}

func (e ConfigError) Unwrap() error {
	return e.Reason
}

func configErr(t reflect.Type, member, reason string, args ...any) error {
	ts := ""
	if t != nil {
		ts = t.String()
	}
	return ConfigError{ts, member, fmt.Errorf(reason, args...)}
}

// ContractError is the error returned when a converter violates the
// token stream contract: a read that did not consume exactly the value
// it was given, or a write that left the writer at an unexpected
// nesting depth.
type ContractError struct {
	// Converter identifies the converter that misbehaved.
	Converter string
	// Reason describes the violation.
	Reason error
}

func (e ContractError) Error() string {
	return fmt.Sprintf("converter %s violated its contract: %s", e.Converter, e.Reason)
}

func (e ContractError) Unwrap() error {
	return e.Reason
}

func contractErr(converter, reason string, args ...any) error {
	return ContractError{converter, fmt.Errorf(reason, args...)}
}

// ShapeError is the error returned when a value's run-time shape does
// not fit the member it belongs to, for example a dictionary member
// whose enumerator yields a non-string key.
type ShapeError struct {
	// Parent is the name of the type owning the member, if any.
	Parent string
	// Declared is the name of the member's declared type.
	Declared string
	// Reason describes the mismatch.
	Reason error
}

func (e ShapeError) Error() string {
	if e.Parent == "" {
		return fmt.Sprintf("jet cannot process value of %s: %s", e.Declared, e.Reason)
	}
	return fmt.Sprintf("jet cannot process %s member of %s: %s", e.Declared, e.Parent, e.Reason)
}

func (e ShapeError) Unwrap() error {
	return e.Reason
}

func shapeErr(m *Member, reason string, args ...any) error {
	parent, declared := "", ""
	if m.Parent != nil {
		parent = m.Parent.String()
	}
	if m.Declared != nil {
		declared = m.Declared.String()
	}
	return ShapeError{parent, declared, fmt.Errorf(reason, args...)}
}
