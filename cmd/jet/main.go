// Command jet is a small workbench for the jet serializer: it dumps
// token streams, reformats documents, and decodes them into the
// canonical generic representation.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/creachadair/command"
	"github.com/creachadair/flax"
	"github.com/kr/pretty"
	"github.com/thornvale/jet"
	"github.com/thornvale/jet/tokens"
)

var globalArgs struct {
	Strict bool `flag:"strict,Verify the stream contract around built-in converters too"`
}

func main() {
	root := &command.C{
		Name:     "jet",
		Usage:    "command args...",
		SetFlags: command.Flags(flax.MustBind, &globalArgs),
		Commands: []*command.C{
			{
				Name:  "tokens",
				Usage: "tokens [file]",
				Help: `Dump the token stream of a JSON document.

Reads the named file, or standard input when no file is given. Each
line shows the token's byte offset, kind, width (separators included),
and the nesting depth after consuming it.`,
				Run: runTokens,
			},
			{
				Name:  "fmt",
				Usage: "fmt [file]",
				Help: `Re-emit a JSON document in compact form.

The document is run through a scanner and writer pair, so the output
is exactly what jet itself would produce: minimal separators, strings
re-escaped, numbers in canonical form.`,
				Run: runFmt,
			},
			{
				Name:  "decode",
				Usage: "decode [file]",
				Help: `Decode a JSON document into the generic representation.

The document decodes the way jet decodes into an empty interface:
objects become map[string]any, arrays []any, numbers float64. The
result is pretty-printed.`,
				Run: runDecode,
			},
			{
				Name:  "escape",
				Usage: "escape string...",
				Help:  "Print the quoted JSON form of each argument.",
				Run:   runEscape,
			},
			command.HelpCommand(nil),
			command.VersionCommand(),
		},
	}
	command.RunOrFail(root.NewEnv(nil), os.Args[1:])
}

func readInput(env *command.Env) ([]byte, error) {
	if len(env.Args) == 0 || env.Args[0] == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(env.Args[0])
}

func runTokens(env *command.Env) error {
	data, err := readInput(env)
	if err != nil {
		return err
	}
	st := &tokens.Scanner{In: data}
	for {
		k, err := st.Peek()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		pos, width := st.Consumed(), st.Width()
		var detail string
		switch k {
		case tokens.BeginObject:
			err = st.BeginObject()
		case tokens.EndObject:
			err = st.EndObject()
		case tokens.BeginArray:
			err = st.BeginArray()
		case tokens.EndArray:
			err = st.EndArray()
		case tokens.String:
			var s string
			s, err = st.String()
			detail = fmt.Sprintf("%q", s)
		case tokens.Number:
			var f float64
			f, err = st.Float()
			detail = fmt.Sprintf("%g", f)
		case tokens.True, tokens.False:
			_, err = st.Bool()
		case tokens.Null:
			err = st.Null()
		}
		if err != nil {
			return err
		}
		fmt.Printf("%6d  %-12s w=%-3d d=%-2d %s\n", pos, k, width, st.Depth(), detail)
	}
}

func runFmt(env *command.Env) error {
	data, err := readInput(env)
	if err != nil {
		return err
	}
	st := &tokens.Scanner{In: data}
	w := &tokens.Writer{}
	if err := reemit(st, w); err != nil {
		return err
	}
	fmt.Println(string(w.Out))
	return nil
}

// reemit copies one document from st to w token by token, tracking
// which strings are member names.
func reemit(st *tokens.Scanner, w *tokens.Writer) error {
	type level struct{ obj, name bool }
	var stack []level
	endValue := func() {
		if n := len(stack); n > 0 && stack[n-1].obj {
			stack[n-1].name = true
		}
	}
	for {
		k, err := st.Peek()
		if err == io.EOF {
			if len(stack) != 0 {
				return io.ErrUnexpectedEOF
			}
			return nil
		}
		if err != nil {
			return err
		}
		switch k {
		case tokens.BeginObject:
			if err := st.BeginObject(); err != nil {
				return err
			}
			w.BeginObject()
			stack = append(stack, level{obj: true, name: true})
		case tokens.BeginArray:
			if err := st.BeginArray(); err != nil {
				return err
			}
			w.BeginArray()
			stack = append(stack, level{})
		case tokens.EndObject, tokens.EndArray:
			if len(stack) == 0 {
				return fmt.Errorf("unbalanced %s at offset %d", k, st.Consumed())
			}
			if k == tokens.EndObject {
				if err := st.EndObject(); err != nil {
					return err
				}
				w.EndObject()
			} else {
				if err := st.EndArray(); err != nil {
					return err
				}
				w.EndArray()
			}
			stack = stack[:len(stack)-1]
			endValue()
		case tokens.String:
			s, err := st.String()
			if err != nil {
				return err
			}
			if n := len(stack); n > 0 && stack[n-1].obj && stack[n-1].name {
				w.Name(s)
				stack[n-1].name = false
			} else {
				w.String(s)
				endValue()
			}
		case tokens.Number:
			f, err := st.Float()
			if err != nil {
				return err
			}
			w.Float(f)
			endValue()
		case tokens.True, tokens.False:
			b, err := st.Bool()
			if err != nil {
				return err
			}
			w.Bool(b)
			endValue()
		case tokens.Null:
			if err := st.Null(); err != nil {
				return err
			}
			w.Null()
			endValue()
		}
	}
}

func runDecode(env *command.Env) error {
	data, err := readInput(env)
	if err != nil {
		return err
	}
	cfg := jet.New(jet.Options{Strict: globalArgs.Strict})
	var v any
	if err := cfg.Unmarshal(data, &v); err != nil {
		return err
	}
	_, err = pretty.Println(v)
	return err
}

func runEscape(env *command.Env) error {
	if len(env.Args) == 0 {
		return env.Usagef("escape requires at least one argument")
	}
	for _, arg := range env.Args {
		fmt.Println(string(tokens.AppendQuoted(nil, arg)))
	}
	return nil
}
