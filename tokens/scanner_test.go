package tokens_test

import (
	"io"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/thornvale/jet/tokens"
)

// consumeAny consumes the upcoming token, whatever its kind.
func consumeAny(t *testing.T, s *tokens.Scanner, k tokens.Kind) {
	t.Helper()
	var err error
	switch k {
	case tokens.BeginObject:
		err = s.BeginObject()
	case tokens.EndObject:
		err = s.EndObject()
	case tokens.BeginArray:
		err = s.BeginArray()
	case tokens.EndArray:
		err = s.EndArray()
	case tokens.String:
		_, err = s.String()
	case tokens.Number:
		_, err = s.Float()
	case tokens.True, tokens.False:
		_, err = s.Bool()
	case tokens.Null:
		err = s.Null()
	default:
		t.Fatalf("unexpected kind %s", k)
	}
	if err != nil {
		t.Fatalf("consuming %s: %v", k, err)
	}
}

func TestScannerTokens(t *testing.T) {
	in := `{"a": [1, true, null], "b": "x", "c": -1.5e3}`
	s := &tokens.Scanner{In: []byte(in)}

	var got []tokens.Kind
	for {
		k, err := s.Peek()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("Peek: %v", err)
		}
		consumeAny(t, s, k)
		got = append(got, k)
	}

	want := []tokens.Kind{
		tokens.BeginObject,
		tokens.String, tokens.BeginArray, tokens.Number, tokens.True, tokens.Null, tokens.EndArray,
		tokens.String, tokens.String,
		tokens.String, tokens.Number,
		tokens.EndObject,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("token stream (-want+got):\n%s", diff)
	}
	if s.Depth() != 0 {
		t.Errorf("Depth() = %d after balanced document, want 0", s.Depth())
	}
	if s.Consumed() != len(in) {
		t.Errorf("Consumed() = %d, want %d", s.Consumed(), len(in))
	}
}

func TestScannerString(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{`"foo"`, "foo"},
		{`""`, ""},
		{`"a\"b"`, `a"b`},
		{`"a\\b"`, `a\b`},
		{`"a\/b"`, "a/b"},
		{`"tab\there"`, "tab\there"},
		{`"nl\nhere"`, "nl\nhere"},
		{`"\b\f\r"`, "\b\f\r"},
		{`"A"`, "A"},
		{`"é"`, "é"},
		{`"😀"`, "😀"},
		// Lone surrogate decodes to the replacement character.
		{`"\ud83d"`, "�"},
		{`"héllo"`, "héllo"},
	}
	for _, tc := range tests {
		s := &tokens.Scanner{In: []byte(tc.raw)}
		got, err := s.String()
		if err != nil {
			t.Errorf("String(%s): %v", tc.raw, err)
			continue
		}
		if got != tc.want {
			t.Errorf("String(%s) = %q, want %q", tc.raw, got, tc.want)
		}
	}
}

func TestScannerNumbers(t *testing.T) {
	s := &tokens.Scanner{In: []byte(`[42, -7, 18446744073709551615, 1.25, -2e3]`)}
	if err := s.BeginArray(); err != nil {
		t.Fatal(err)
	}
	if got, err := s.Int(); err != nil || got != 42 {
		t.Errorf("Int() = %d, %v, want 42", got, err)
	}
	if got, err := s.Int(); err != nil || got != -7 {
		t.Errorf("Int() = %d, %v, want -7", got, err)
	}
	if got, err := s.Uint(); err != nil || got != 18446744073709551615 {
		t.Errorf("Uint() = %d, %v, want max uint64", got, err)
	}
	if got, err := s.Float(); err != nil || got != 1.25 {
		t.Errorf("Float() = %g, %v, want 1.25", got, err)
	}
	if got, err := s.Float(); err != nil || got != -2000 {
		t.Errorf("Float() = %g, %v, want -2000", got, err)
	}
	if err := s.EndArray(); err != nil {
		t.Fatal(err)
	}
}

func TestScannerNumberErrors(t *testing.T) {
	if _, err := (&tokens.Scanner{In: []byte(`1.5`)}).Int(); err == nil {
		t.Error("Int() on 1.5 succeeded, want error")
	}
	if _, err := (&tokens.Scanner{In: []byte(`"x"`)}).Int(); err == nil {
		t.Error("Int() on a string succeeded, want error")
	}
	if _, err := (&tokens.Scanner{In: []byte(`-1`)}).Uint(); err == nil {
		t.Error("Uint() on -1 succeeded, want error")
	}
}

func TestScannerWidth(t *testing.T) {
	in := `{ "a" : 12 }`
	s := &tokens.Scanner{In: []byte(in)}
	total := 0
	for {
		k, err := s.Peek()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatal(err)
		}
		total += s.Width()
		consumeAny(t, s, k)
	}
	// Separator bytes are charged to the token that follows them, so
	// widths account for every input byte.
	if total != len(in) {
		t.Errorf("sum of widths = %d, want %d", total, len(in))
	}
}

func TestScannerSkipValue(t *testing.T) {
	s := &tokens.Scanner{In: []byte(`[{"a": [1, {"b": 2}], "c": null}, "tail"]`)}
	if err := s.BeginArray(); err != nil {
		t.Fatal(err)
	}
	if err := s.SkipValue(); err != nil {
		t.Fatalf("SkipValue: %v", err)
	}
	if s.Depth() != 1 {
		t.Errorf("Depth() = %d after skip, want 1", s.Depth())
	}
	got, err := s.String()
	if err != nil || got != "tail" {
		t.Errorf("String() = %q, %v, want tail", got, err)
	}
	if err := s.EndArray(); err != nil {
		t.Fatal(err)
	}

	// A skip positioned on an end bracket is an error, not a pop.
	s = &tokens.Scanner{In: []byte(`[]`)}
	s.BeginArray()
	if err := s.SkipValue(); err == nil {
		t.Error("SkipValue on end-array succeeded, want error")
	}
}

func TestScannerErrors(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"bad literal", `tru`},
		{"unterminated string", `"abc`},
		{"invalid char", `@`},
		{"bad escape", `"a\x"`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s := &tokens.Scanner{In: []byte(tc.in)}
			if err := s.SkipValue(); err == nil || err == io.EOF {
				t.Errorf("SkipValue(%q) = %v, want parse error", tc.in, err)
			}
		})
	}

	s := &tokens.Scanner{In: []byte("   ")}
	if _, err := s.Peek(); err != io.EOF {
		t.Errorf("Peek on whitespace = %v, want io.EOF", err)
	}
}

func TestScannerTypeMismatch(t *testing.T) {
	s := &tokens.Scanner{In: []byte(`[1]`)}
	if err := s.BeginObject(); err == nil {
		t.Error("BeginObject on an array succeeded, want error")
	}
	// The failed consume must not advance the scanner.
	if err := s.BeginArray(); err != nil {
		t.Errorf("BeginArray after failed consume: %v", err)
	}
}
