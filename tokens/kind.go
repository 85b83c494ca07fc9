package tokens

// A Kind identifies one kind of JSON token.
type Kind byte

const (
	// None is the kind reported before any token has been consumed.
	None Kind = iota
	BeginObject
	EndObject
	BeginArray
	EndArray
	String
	Number
	True
	False
	Null
)

var kindNames = [...]string{
	None:        "none",
	BeginObject: "begin-object",
	EndObject:   "end-object",
	BeginArray:  "begin-array",
	EndArray:    "end-array",
	String:      "string",
	Number:      "number",
	True:        "true",
	False:       "false",
	Null:        "null",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "invalid"
}

// IsScalar reports whether k is a single-token value, as opposed to a
// container bracket.
func (k Kind) IsScalar() bool {
	switch k {
	case String, Number, True, False, Null:
		return true
	}
	return false
}

// End returns the end bracket matching a begin bracket, or None if k
// is not a begin bracket.
func (k Kind) End() Kind {
	switch k {
	case BeginObject:
		return EndObject
	case BeginArray:
		return EndArray
	}
	return None
}
