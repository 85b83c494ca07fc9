package tokens

import (
	"fmt"
	"io"
	"strconv"
	"unicode/utf16"
	"unicode/utf8"
)

// A Scanner reads a JSON document from a byte slice one token at a
// time.
//
// [Scanner.Peek] identifies the upcoming token without consuming it.
// The typed accessors (String, Int, BeginObject, ...) consume exactly
// one token. Structural separators (whitespace, commas, colons) are
// consumed together with the token that follows them, so the byte
// width reported by [Scanner.Width] accounts for every byte the token
// costs.
type Scanner struct {
	// In is the input document.
	In []byte

	pos   int
	depth int
	kind  Kind

	peeked    bool
	peekKind  Kind
	peekEnd   int // end offset of the upcoming token
	valStart  int // content bounds of the upcoming scalar token
	valEnd    int
	hasEscape bool
}

// Kind returns the kind of the most recently consumed token, or
// [None] if nothing has been consumed yet.
func (s *Scanner) Kind() Kind { return s.kind }

// Depth returns the current container nesting depth. Consuming a
// begin bracket increments it, consuming the matching end bracket
// decrements it.
func (s *Scanner) Depth() int { return s.depth }

// Consumed returns the cumulative number of input bytes consumed so
// far.
func (s *Scanner) Consumed() int { return s.pos }

// Width returns the byte width of the upcoming token, including any
// separator bytes in front of it. It is only meaningful after a
// successful [Scanner.Peek].
func (s *Scanner) Width() int {
	if !s.peeked {
		return 0
	}
	return s.peekEnd - s.pos
}

func isSeparator(c byte) bool {
	switch c {
	case ' ', '\t', '\r', '\n', ',', ':':
		return true
	}
	return false
}

// Peek identifies the upcoming token without consuming it. At the end
// of the document, Peek returns [io.EOF].
func (s *Scanner) Peek() (Kind, error) {
	if s.peeked {
		return s.peekKind, nil
	}
	i := s.pos
	for i < len(s.In) && isSeparator(s.In[i]) {
		i++
	}
	if i >= len(s.In) {
		return None, io.EOF
	}

	set := func(k Kind, end int) (Kind, error) {
		s.peekKind, s.peekEnd, s.peeked = k, end, true
		return k, nil
	}

	switch c := s.In[i]; {
	case c == '{':
		return set(BeginObject, i+1)
	case c == '}':
		return set(EndObject, i+1)
	case c == '[':
		return set(BeginArray, i+1)
	case c == ']':
		return set(EndArray, i+1)
	case c == '"':
		end, hasEscape, err := scanString(s.In, i)
		if err != nil {
			return None, err
		}
		s.valStart, s.valEnd, s.hasEscape = i+1, end-1, hasEscape
		return set(String, end)
	case c == 't':
		if err := s.literal(i, "true"); err != nil {
			return None, err
		}
		return set(True, i+4)
	case c == 'f':
		if err := s.literal(i, "false"); err != nil {
			return None, err
		}
		return set(False, i+5)
	case c == 'n':
		if err := s.literal(i, "null"); err != nil {
			return None, err
		}
		return set(Null, i+4)
	case c == '-' || (c >= '0' && c <= '9'):
		end := i + 1
		for end < len(s.In) && isNumberByte(s.In[end]) {
			end++
		}
		s.valStart, s.valEnd = i, end
		return set(Number, end)
	default:
		return None, fmt.Errorf("tokens: invalid character %q at offset %d", c, i)
	}
}

func (s *Scanner) literal(i int, lit string) error {
	if i+len(lit) > len(s.In) || string(s.In[i:i+len(lit)]) != lit {
		return fmt.Errorf("tokens: invalid literal at offset %d", i)
	}
	return nil
}

func isNumberByte(c byte) bool {
	return c >= '0' && c <= '9' || c == '-' || c == '+' || c == '.' || c == 'e' || c == 'E'
}

// scanString finds the end of the string token starting at the quote
// at offset i. It returns the offset just past the closing quote and
// whether the string contains escape sequences.
func scanString(in []byte, i int) (end int, hasEscape bool, err error) {
	for j := i + 1; j < len(in); j++ {
		switch in[j] {
		case '\\':
			hasEscape = true
			j++
		case '"':
			return j + 1, hasEscape, nil
		}
	}
	return 0, false, fmt.Errorf("tokens: unterminated string at offset %d", i)
}

func (s *Scanner) advance() {
	s.pos = s.peekEnd
	s.kind = s.peekKind
	s.peeked = false
	switch s.kind {
	case BeginObject, BeginArray:
		s.depth++
	case EndObject, EndArray:
		s.depth--
	}
}

func (s *Scanner) consume(k Kind) error {
	got, err := s.Peek()
	if err != nil {
		return err
	}
	if got != k {
		return fmt.Errorf("tokens: unexpected %s at offset %d, want %s", got, s.pos, k)
	}
	s.advance()
	return nil
}

// BeginObject consumes an object begin bracket.
func (s *Scanner) BeginObject() error { return s.consume(BeginObject) }

// EndObject consumes an object end bracket.
func (s *Scanner) EndObject() error { return s.consume(EndObject) }

// BeginArray consumes an array begin bracket.
func (s *Scanner) BeginArray() error { return s.consume(BeginArray) }

// EndArray consumes an array end bracket.
func (s *Scanner) EndArray() error { return s.consume(EndArray) }

// Null consumes a null token.
func (s *Scanner) Null() error { return s.consume(Null) }

// Bool consumes a true or false token.
func (s *Scanner) Bool() (bool, error) {
	k, err := s.Peek()
	if err != nil {
		return false, err
	}
	switch k {
	case True:
		s.advance()
		return true, nil
	case False:
		s.advance()
		return false, nil
	}
	return false, fmt.Errorf("tokens: unexpected %s at offset %d, want bool", k, s.pos)
}

// String consumes a string token and returns its unescaped value.
func (s *Scanner) String() (string, error) {
	if _, err := s.Peek(); err != nil {
		return "", err
	}
	if s.peekKind != String {
		return "", fmt.Errorf("tokens: unexpected %s at offset %d, want string", s.peekKind, s.pos)
	}
	raw := s.In[s.valStart:s.valEnd]
	var ret string
	if !s.hasEscape {
		ret = string(raw)
	} else {
		var err error
		ret, err = unescape(raw)
		if err != nil {
			return "", err
		}
	}
	s.advance()
	return ret, nil
}

func (s *Scanner) number() (string, error) {
	if _, err := s.Peek(); err != nil {
		return "", err
	}
	if s.peekKind != Number {
		return "", fmt.Errorf("tokens: unexpected %s at offset %d, want number", s.peekKind, s.pos)
	}
	ret := string(s.In[s.valStart:s.valEnd])
	s.advance()
	return ret, nil
}

// Int consumes a number token and returns it as an int64.
func (s *Scanner) Int() (int64, error) {
	raw, err := s.number()
	if err != nil {
		return 0, err
	}
	return strconv.ParseInt(raw, 10, 64)
}

// Uint consumes a number token and returns it as a uint64.
func (s *Scanner) Uint() (uint64, error) {
	raw, err := s.number()
	if err != nil {
		return 0, err
	}
	return strconv.ParseUint(raw, 10, 64)
}

// Float consumes a number token and returns it as a float64.
func (s *Scanner) Float() (float64, error) {
	raw, err := s.number()
	if err != nil {
		return 0, err
	}
	return strconv.ParseFloat(raw, 64)
}

// SkipValue consumes one complete value: a single scalar token, or a
// container bracket pair with everything in between.
func (s *Scanner) SkipValue() error {
	k, err := s.Peek()
	if err != nil {
		return err
	}
	switch k {
	case EndObject, EndArray:
		return fmt.Errorf("tokens: unexpected %s at offset %d, want value", k, s.pos)
	case BeginObject, BeginArray:
		start := s.depth
		s.advance()
		for s.depth > start {
			if _, err := s.Peek(); err != nil {
				return err
			}
			s.advance()
		}
		return nil
	default:
		s.advance()
		return nil
	}
}

func unescape(raw []byte) (string, error) {
	buf := make([]byte, 0, len(raw))
	for i := 0; i < len(raw); {
		c := raw[i]
		if c != '\\' {
			buf = append(buf, c)
			i++
			continue
		}
		if i+1 >= len(raw) {
			return "", fmt.Errorf("tokens: truncated escape sequence")
		}
		switch raw[i+1] {
		case '"', '\\', '/':
			buf = append(buf, raw[i+1])
			i += 2
		case 'b':
			buf = append(buf, '\b')
			i += 2
		case 'f':
			buf = append(buf, '\f')
			i += 2
		case 'n':
			buf = append(buf, '\n')
			i += 2
		case 'r':
			buf = append(buf, '\r')
			i += 2
		case 't':
			buf = append(buf, '\t')
			i += 2
		case 'u':
			r, n, err := unescapeRune(raw[i:])
			if err != nil {
				return "", err
			}
			buf = utf8.AppendRune(buf, r)
			i += n
		default:
			return "", fmt.Errorf("tokens: invalid escape sequence \\%c", raw[i+1])
		}
	}
	return string(buf), nil
}

// unescapeRune decodes a \uXXXX escape at the start of raw, combining
// surrogate pairs. It returns the rune and the number of input bytes
// used.
func unescapeRune(raw []byte) (rune, int, error) {
	if len(raw) < 6 {
		return 0, 0, fmt.Errorf("tokens: truncated \\u escape")
	}
	u, err := strconv.ParseUint(string(raw[2:6]), 16, 32)
	if err != nil {
		return 0, 0, fmt.Errorf("tokens: invalid \\u escape: %w", err)
	}
	r := rune(u)
	if !utf16.IsSurrogate(r) {
		return r, 6, nil
	}
	if len(raw) >= 12 && raw[6] == '\\' && raw[7] == 'u' {
		u2, err := strconv.ParseUint(string(raw[8:12]), 16, 32)
		if err == nil {
			if dec := utf16.DecodeRune(r, rune(u2)); dec != utf8.RuneError {
				return dec, 12, nil
			}
		}
	}
	return utf8.RuneError, 6, nil
}
