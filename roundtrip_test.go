package jet

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

type basic struct {
	A int
	B string
	C bool
}

type inner struct {
	X int
}

type outer struct {
	inner
	Deep *hop
	Name string
}

type hop struct {
	Y int
}

type node struct {
	V    int
	Next *node `jet:",omitnull"`
}

type pingT struct {
	Pong *pongT `jet:",omitnull"`
}

type pongT struct {
	Ping *pingT `jet:",omitnull"`
	N    int
}

type loopy []loopy

// strictConfig verifies the stream contract around every converter,
// built-ins included.
func strictConfig() *Config {
	return New(Options{Strict: true})
}

func testRoundTrip(t *testing.T, c *Config, name string, v any, wantJSON string) {
	t.Helper()
	t.Run(name, func(t *testing.T) {
		got, err := c.Marshal(v)
		if err != nil {
			t.Fatalf("Marshal(%#v): %v", v, err)
		}
		if string(got) != wantJSON {
			t.Fatalf("Marshal(%#v) = %s, want %s", v, got, wantJSON)
		}
		target := reflect.New(reflect.TypeOf(v))
		if err := c.Unmarshal(got, target.Interface()); err != nil {
			t.Fatalf("Unmarshal(%s): %v", got, err)
		}
		if diff := cmp.Diff(v, target.Elem().Interface(), cmp.AllowUnexported(outer{})); diff != "" {
			t.Errorf("round trip of %#v (-want+got):\n%s", v, diff)
		}
	})
}

func TestRoundTrip(t *testing.T) {
	c := strictConfig()
	seven := 7

	testRoundTrip(t, c, "int", 42, `42`)
	testRoundTrip(t, c, "negative int", -9, `-9`)
	testRoundTrip(t, c, "int8", int8(-128), `-128`)
	testRoundTrip(t, c, "uint64", uint64(18446744073709551615), `18446744073709551615`)
	testRoundTrip(t, c, "float", 1.5, `1.5`)
	testRoundTrip(t, c, "bool", true, `true`)
	testRoundTrip(t, c, "string", "héllo\n", `"héllo\n"`)
	testRoundTrip(t, c, "pointer", &seven, `7`)
	testRoundTrip(t, c, "nil pointer", (*int)(nil), `null`)

	testRoundTrip(t, c, "slice", []int{1, 2, 3}, `[1,2,3]`)
	testRoundTrip(t, c, "empty slice", []int{}, `[]`)
	testRoundTrip(t, c, "nil slice", []int(nil), `null`)
	testRoundTrip(t, c, "nested slice", [][]string{{"a"}, {"b", "c"}}, `[["a"],["b","c"]]`)
	testRoundTrip(t, c, "slice of pointers", []*int{&seven, nil}, `[7,null]`)
	testRoundTrip(t, c, "array", [3]int{1, 2, 3}, `[1,2,3]`)
	testRoundTrip(t, c, "array of strings", [2]string{"x", "y"}, `["x","y"]`)

	testRoundTrip(t, c, "map sorted", map[string]int{"b": 2, "a": 1, "c": 3}, `{"a":1,"b":2,"c":3}`)
	testRoundTrip(t, c, "nil map", map[string]int(nil), `null`)
	testRoundTrip(t, c, "map of slices", map[string][]int{"k": {1, 2}}, `{"k":[1,2]}`)

	testRoundTrip(t, c, "struct", basic{1, "x", true}, `{"A":1,"B":"x","C":true}`)
	testRoundTrip(t, c, "struct pointer member", outer{inner{5}, &hop{9}, "n"}, `{"X":5,"Deep":{"Y":9},"Name":"n"}`)
	testRoundTrip(t, c, "struct nil pointer member", outer{inner{5}, nil, ""}, `{"X":5,"Deep":null,"Name":""}`)
	testRoundTrip(t, c, "slice of structs", []basic{{1, "a", false}}, `[{"A":1,"B":"a","C":false}]`)
	testRoundTrip(t, c, "map of structs", map[string]hop{"h": {3}}, `{"h":{"Y":3}}`)

	testRoundTrip(t, c, "recursive", node{1, &node{2, nil}}, `{"V":1,"Next":{"V":2}}`)
	testRoundTrip(t, c, "mutually recursive", pingT{&pongT{nil, 4}}, `{"Pong":{"N":4}}`)
	testRoundTrip(t, c, "self referential slice", loopy{loopy{}, loopy{loopy{}}}, `[[],[[]]]`)
}

func TestMarshalAny(t *testing.T) {
	c := strictConfig()
	got, err := c.Marshal(map[string]any{"b": 1, "a": "x", "l": []any{true, nil}})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	want := `{"a":"x","b":1,"l":[true,null]}`
	if string(got) != want {
		t.Errorf("Marshal = %s, want %s", got, want)
	}

	if got, err := c.Marshal(nil); err != nil || string(got) != "null" {
		t.Errorf("Marshal(nil) = %s, %v, want null", got, err)
	}
}

func TestUnmarshalAny(t *testing.T) {
	c := strictConfig()
	doc := `{"s":"v","n":1.5,"i":2,"b":true,"z":null,"l":[1,"x"],"m":{"k":"v"}}`
	var got any
	if err := c.Unmarshal([]byte(doc), &got); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	want := map[string]any{
		"s": "v",
		"n": 1.5,
		"i": 2.0,
		"b": true,
		"z": nil,
		"l": []any{1.0, "x"},
		"m": map[string]any{"k": "v"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("generic decode (-want+got):\n%s", diff)
	}
}

func TestUnmarshalNullIntoValue(t *testing.T) {
	c := strictConfig()
	n := 7
	if err := c.Unmarshal([]byte(`null`), &n); err != nil || n != 0 {
		t.Errorf("null into int: n=%d, err=%v, want 0", n, err)
	}
	s := "x"
	if err := c.Unmarshal([]byte(`null`), &s); err != nil || s != "" {
		t.Errorf("null into string: s=%q, err=%v, want empty", s, err)
	}
	sl := []int{1}
	if err := c.Unmarshal([]byte(`null`), &sl); err != nil || sl != nil {
		t.Errorf("null into slice: sl=%v, err=%v, want nil", sl, err)
	}
	b := basic{A: 1}
	if err := c.Unmarshal([]byte(`null`), &b); err != nil || b != (basic{}) {
		t.Errorf("null into struct: b=%v, err=%v, want zero", b, err)
	}
}

func TestUnmarshalUnknownMembers(t *testing.T) {
	c := strictConfig()
	doc := `{"A":1,"Zzz":{"deep":[1,{"x":2}]},"B":"x","Www":null,"C":true}`
	var got basic
	if err := c.Unmarshal([]byte(doc), &got); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if diff := cmp.Diff(basic{1, "x", true}, got); diff != "" {
		t.Errorf("decode with unknown members (-want+got):\n%s", diff)
	}
}

func TestUnmarshalSliceReset(t *testing.T) {
	c := strictConfig()
	got := []int{9, 9, 9, 9}
	if err := c.Unmarshal([]byte(`[1,2]`), &got); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if diff := cmp.Diff([]int{1, 2}, got); diff != "" {
		t.Errorf("slice reset (-want+got):\n%s", diff)
	}
}

func TestUnmarshalMapClearAndDuplicates(t *testing.T) {
	c := strictConfig()
	got := map[string]int{"stale": 1}
	if err := c.Unmarshal([]byte(`{"a":1,"a":2}`), &got); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if diff := cmp.Diff(map[string]int{"a": 2}, got); diff != "" {
		t.Errorf("map decode (-want+got):\n%s", diff)
	}
}

func TestUnmarshalArrayLengthMismatch(t *testing.T) {
	c := strictConfig()
	var got [3]int
	err := c.Unmarshal([]byte(`[1,2]`), &got)
	var se ShapeError
	if !errors.As(err, &se) {
		t.Fatalf("Unmarshal short array = %v, want ShapeError", err)
	}
}

func TestUnmarshalOverflow(t *testing.T) {
	c := strictConfig()
	var b int8
	if err := c.Unmarshal([]byte(`300`), &b); err == nil {
		t.Error("300 into int8 succeeded, want overflow error")
	}
	var u uint8
	if err := c.Unmarshal([]byte(`-1`), &u); err == nil {
		t.Error("-1 into uint8 succeeded, want error")
	}
}

func TestUnmarshalTargetErrors(t *testing.T) {
	c := strictConfig()
	if err := c.Unmarshal([]byte(`1`), nil); err == nil {
		t.Error("nil target succeeded, want error")
	}
	if err := c.Unmarshal([]byte(`1`), 42); err == nil {
		t.Error("non-pointer target succeeded, want error")
	}
	if err := c.Unmarshal([]byte(`1`), (*int)(nil)); err == nil {
		t.Error("nil pointer target succeeded, want error")
	}
}

func TestMarshalDictKeyShape(t *testing.T) {
	c := strictConfig()

	// Interface-keyed maps are checked per entry at run time.
	if _, err := c.Marshal(map[any]string{"ok": "x"}); err != nil {
		t.Errorf("string-under-any key: %v", err)
	}
	_, err := c.Marshal(map[any]string{1: "x"})
	var se ShapeError
	if !errors.As(err, &se) {
		t.Fatalf("int-under-any key = %v, want ShapeError", err)
	}

	// Statically non-string keys are rejected at setup.
	_, err = c.Marshal(map[int]string{1: "x"})
	var ce ConfigError
	if !errors.As(err, &ce) {
		t.Fatalf("int key = %v, want ConfigError", err)
	}
}

func TestMarshalUnmappableTypes(t *testing.T) {
	c := strictConfig()
	var ce ConfigError

	type withChan struct{ C chan int }
	if _, err := c.Marshal(withChan{}); !errors.As(err, &ce) {
		t.Errorf("chan member = %v, want ConfigError", err)
	}

	type multi struct{ M [2][2]int }
	if _, err := c.Marshal(multi{}); !errors.As(err, &ce) {
		t.Errorf("multidimensional array member = %v, want ConfigError", err)
	}

	// An ignored member is never inspected, so an unmappable type
	// behind "-" is fine.
	type ignoredChan struct {
		C chan int `jet:"-"`
		N int
	}
	got, err := c.Marshal(ignoredChan{N: 3})
	if err != nil {
		t.Fatalf("ignored chan member: %v", err)
	}
	if want := `{"N":3}`; string(got) != want {
		t.Errorf("Marshal = %s, want %s", got, want)
	}
}

func TestNamingPolicy(t *testing.T) {
	c := New(Options{Strict: true, NamingPolicy: strings.ToLower})
	type styled struct {
		FooBar   string
		Explicit string `jet:"KeepMe"`
	}
	got, err := c.Marshal(styled{"a", "b"})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	want := `{"foobar":"a","KeepMe":"b"}`
	if string(got) != want {
		t.Errorf("Marshal = %s, want %s", got, want)
	}

	var back styled
	if err := c.Unmarshal(got, &back); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if diff := cmp.Diff(styled{"a", "b"}, back); diff != "" {
		t.Errorf("round trip (-want+got):\n%s", diff)
	}

	// A policy producing an empty name is a configuration error.
	bad := New(Options{NamingPolicy: func(string) string { return "" }})
	_, err = bad.Marshal(styled{})
	var ce ConfigError
	if !errors.As(err, &ce) {
		t.Fatalf("empty policy name = %v, want ConfigError", err)
	}
}

func TestOmitOptions(t *testing.T) {
	type omitting struct {
		Null *int `jet:"null,omitnull"`
		Zero int  `jet:"zero,omitzero"`
		Keep int  `jet:"keep"`
	}
	c := strictConfig()
	got, err := c.Marshal(omitting{Keep: 1})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if want := `{"keep":1}`; string(got) != want {
		t.Errorf("omit tags: Marshal = %s, want %s", got, want)
	}

	// A pointer to zero is not null, and a nonzero value is not zero:
	// neither gets omitted.
	n := 0
	got, err = c.Marshal(omitting{Null: &n, Zero: 5})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if want := `{"null":0,"zero":5,"keep":0}`; string(got) != want {
		t.Errorf("omit tags on present values: Marshal = %s, want %s", got, want)
	}

	all := New(Options{Strict: true, IgnoreNull: true, IgnoreZero: true})
	got, err = all.Marshal(omitting{})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if want := `{}`; string(got) != want {
		t.Errorf("IgnoreNull+IgnoreZero: Marshal = %s, want %s", got, want)
	}
}

func TestReadOnlyMembers(t *testing.T) {
	type doc struct {
		ID string `jet:"id,readonly"`
		V  int
	}
	c := strictConfig()
	got, err := c.Marshal(doc{"x1", 2})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if want := `{"id":"x1","V":2}`; string(got) != want {
		t.Errorf("Marshal = %s, want %s", got, want)
	}

	var back doc
	if err := c.Unmarshal([]byte(`{"id":"evil","V":9}`), &back); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if diff := cmp.Diff(doc{"", 9}, back); diff != "" {
		t.Errorf("readonly member decoded (-want+got):\n%s", diff)
	}

	hidden := New(Options{Strict: true, IgnoreReadOnly: true})
	got, err = hidden.Marshal(doc{"x1", 2})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if want := `{"V":2}`; string(got) != want {
		t.Errorf("IgnoreReadOnly: Marshal = %s, want %s", got, want)
	}
}

type counter struct {
	n     int
	Label string `jet:"-"`
}

func (c *counter) GetCount() int { return c.n }

func (c *counter) SetCount(n int) { c.n = n }

func (c *counter) GetVersion() string { return "v1" }

func TestAccessorMembers(t *testing.T) {
	c := strictConfig()
	got, err := c.Marshal(counter{n: 3})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if want := `{"Count":3,"Version":"v1"}`; string(got) != want {
		t.Errorf("Marshal = %s, want %s", got, want)
	}

	var back counter
	// Version has no setter: the incoming value is skipped, not an
	// error.
	if err := c.Unmarshal([]byte(`{"Count":9,"Version":"v9"}`), &back); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if back.n != 9 {
		t.Errorf("SetCount not applied: n=%d, want 9", back.n)
	}
}

type bag struct {
	items []int
}

func (b *bag) GetItems() []int { return b.items }

func TestCollectionNeedsSetterToDecode(t *testing.T) {
	c := strictConfig()
	got, err := c.Marshal(bag{items: []int{1, 2}})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if want := `{"Items":[1,2]}`; string(got) != want {
		t.Errorf("Marshal = %s, want %s", got, want)
	}

	var back bag
	if err := c.Unmarshal(got, &back); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if back.items != nil {
		t.Errorf("getter-only collection decoded: %v, want nil", back.items)
	}
}

func TestPackageLevelFuncs(t *testing.T) {
	got, err := Marshal(basic{1, "x", true})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var back basic
	if err := Unmarshal(got, &back); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if diff := cmp.Diff(basic{1, "x", true}, back); diff != "" {
		t.Errorf("default config round trip (-want+got):\n%s", diff)
	}
}
