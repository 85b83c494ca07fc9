package jet

import (
	"reflect"

	"github.com/thornvale/jet/tokens"
)

// schemaEntry is one entry in the Config's schema cache. The
// inProgress sentinel marks a schema whose construction is under way;
// it exists so that a build re-entered for a type still under
// construction is detectable instead of recursing forever. Member
// cross-references (element, declared and run-time schema links) are
// resolved lazily, after the build completes, so the sentinel is never
// observed on the building goroutine's own call path; only concurrent
// builds of the same type see it, and they race to publish the same
// value.
type schemaEntry struct {
	s   *Schema
	err error
}

var inProgress = &schemaEntry{}

func (c *Config) schemaFor(t reflect.Type) (*Schema, error) {
	if ent, ok := c.schemas.Load(t); ok {
		if e := ent.(*schemaEntry); e != inProgress {
			return e.s, e.err
		}
	} else {
		c.schemas.LoadOrStore(t, inProgress)
	}

	s, err := buildSchema(c, t)
	ent := &schemaEntry{s, err}
	if !c.schemas.CompareAndSwap(t, inProgress, ent) {
		if prev, ok := c.schemas.Load(t); ok {
			if e := prev.(*schemaEntry); e != inProgress {
				return e.s, e.err
			}
		}
		c.schemas.Store(t, ent)
	}
	return s, err
}

// convEntry is one entry in the Config's converter cache, with the
// same in-progress convention as schemaEntry. Unlike schema builds,
// converter construction for composite types recurses into element
// types at build time, so a self-referential type (such as
// "type T []T") can re-enter its own build. The re-entrant caller
// receives a deferred converter that resolves the finished cache entry
// on first use.
type convEntry struct {
	c   *converter
	err error
}

var convInProgress = &convEntry{}

func (c *Config) converterFor(t reflect.Type) (*converter, error) {
	if ent, ok := c.converters.Load(t); ok {
		if e := ent.(*convEntry); e != convInProgress {
			return e.c, e.err
		}
		return c.deferredConverter(t), nil
	}
	c.converters.LoadOrStore(t, convInProgress)

	conv, err := buildConverter(c, t)
	ent := &convEntry{conv, err}
	if c.converters.CompareAndSwap(t, convInProgress, ent) {
		return conv, err
	}
	if prev, ok := c.converters.Load(t); ok {
		if e := prev.(*convEntry); e != convInProgress {
			return e.c, e.err
		}
	}
	c.converters.Store(t, ent)
	return conv, err
}

// deferredConverter stands in for the converter of t while that
// converter is still being built, and resolves the finished cache
// entry on first use.
func (c *Config) deferredConverter(t reflect.Type) *converter {
	resolve := func() (*converter, error) {
		ent, ok := c.converters.Load(t)
		if !ok {
			return nil, configErr(t, "", "converter resolved before its construction finished")
		}
		e := ent.(*convEntry)
		if e == convInProgress {
			return nil, configErr(t, "", "converter for recursive type used during its own construction")
		}
		return e.c, e.err
	}
	return &converter{
		name:         t.String(),
		trustedRead:  true,
		trustedWrite: true,
		read: func(st *tokens.Scanner, v reflect.Value) error {
			conv, err := resolve()
			if err != nil {
				return err
			}
			return conv.read(st, v)
		},
		write: func(w *tokens.Writer, v reflect.Value) error {
			conv, err := resolve()
			if err != nil {
				return err
			}
			return conv.write(w, v)
		},
	}
}
