package tokens_test

import (
	"testing"

	"github.com/thornvale/jet/tokens"
)

func TestWriterDocument(t *testing.T) {
	w := &tokens.Writer{}
	w.BeginObject()
	w.Name("nums")
	w.BeginArray()
	w.Int(1)
	w.Int(-2)
	w.Uint(3)
	w.Float(1.5)
	w.EndArray()
	w.Name("ok")
	w.Bool(true)
	w.Name("none")
	w.Null()
	w.NameEscaped([]byte(`"pre"`))
	w.String("v")
	w.Name("raw")
	w.Raw([]byte(`{"x":1}`))
	w.EndObject()

	want := `{"nums":[1,-2,3,1.5],"ok":true,"none":null,"pre":"v","raw":{"x":1}}`
	if got := string(w.Out); got != want {
		t.Errorf("Out = %s, want %s", got, want)
	}
	if w.Depth() != 0 {
		t.Errorf("Depth() = %d, want 0", w.Depth())
	}
}

func TestWriterDepth(t *testing.T) {
	w := &tokens.Writer{}
	w.BeginArray()
	w.BeginObject()
	if w.Depth() != 2 {
		t.Errorf("Depth() = %d, want 2", w.Depth())
	}
	w.EndObject()
	w.EndArray()
	if w.Depth() != 0 {
		t.Errorf("Depth() = %d, want 0", w.Depth())
	}
}

func TestAppendQuoted(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", `""`},
		{"plain", `"plain"`},
		{`say "hi"`, `"say \"hi\""`},
		{`back\slash`, `"back\\slash"`},
		{"line\nbreak", `"line\nbreak"`},
		{"tab\tstop", `"tab\tstop"`},
		{"\r\b\f", `"\r\b\f"`},
		{"ctrl\x01char", `"ctrl\u0001char"`},
		{"héllo", `"héllo"`},
		{"😀", `"😀"`},
	}
	for _, tc := range tests {
		if got := string(tokens.AppendQuoted(nil, tc.in)); got != tc.want {
			t.Errorf("AppendQuoted(%q) = %s, want %s", tc.in, got, tc.want)
		}
	}
}

func TestWriterRoundTrip(t *testing.T) {
	// Every string the writer produces must scan back to the original.
	inputs := []string{"", "plain", `q"q`, "nl\n", "\x00\x1f", "héllo", "😀"}
	for _, in := range inputs {
		w := &tokens.Writer{}
		w.String(in)
		s := &tokens.Scanner{In: w.Out}
		got, err := s.String()
		if err != nil {
			t.Errorf("scanning %s: %v", w.Out, err)
			continue
		}
		if got != in {
			t.Errorf("round trip of %q = %q", in, got)
		}
	}
}
