package tokens

import (
	"strconv"
	"unicode/utf8"
)

// A Writer appends a JSON document to a byte slice one token at a
// time, inserting structural separators as needed.
//
// The Writer tracks container nesting depth but does not otherwise
// validate the document shape; callers are responsible for pairing
// brackets and for writing names only inside objects.
type Writer struct {
	// Out is the encoded output.
	Out []byte

	depth     int
	needComma bool
	afterName bool
}

// Depth returns the current container nesting depth.
func (w *Writer) Depth() int { return w.depth }

func (w *Writer) sep() {
	if w.afterName {
		w.afterName = false
		return
	}
	if w.needComma {
		w.Out = append(w.Out, ',')
	}
}

// BeginObject writes an object begin bracket.
func (w *Writer) BeginObject() {
	w.sep()
	w.Out = append(w.Out, '{')
	w.depth++
	w.needComma = false
}

// EndObject writes an object end bracket.
func (w *Writer) EndObject() {
	w.Out = append(w.Out, '}')
	w.depth--
	w.needComma = true
}

// BeginArray writes an array begin bracket.
func (w *Writer) BeginArray() {
	w.sep()
	w.Out = append(w.Out, '[')
	w.depth++
	w.needComma = false
}

// EndArray writes an array end bracket.
func (w *Writer) EndArray() {
	w.Out = append(w.Out, ']')
	w.depth--
	w.needComma = true
}

// Name writes a member name, escaping it as needed.
func (w *Writer) Name(name string) {
	w.sep()
	w.Out = AppendQuoted(w.Out, name)
	w.Out = append(w.Out, ':')
	w.afterName = true
}

// NameEscaped writes a member name that has already been escaped and
// quoted, such as the writer-ready form a jet schema precomputes.
func (w *Writer) NameEscaped(quoted []byte) {
	w.sep()
	w.Out = append(w.Out, quoted...)
	w.Out = append(w.Out, ':')
	w.afterName = true
}

// String writes a string value.
func (w *Writer) String(s string) {
	w.sep()
	w.Out = AppendQuoted(w.Out, s)
	w.needComma = true
}

// Int writes an integer value.
func (w *Writer) Int(i int64) {
	w.sep()
	w.Out = strconv.AppendInt(w.Out, i, 10)
	w.needComma = true
}

// Uint writes an unsigned integer value.
func (w *Writer) Uint(u uint64) {
	w.sep()
	w.Out = strconv.AppendUint(w.Out, u, 10)
	w.needComma = true
}

// Float writes a floating point value.
func (w *Writer) Float(f float64) {
	w.sep()
	w.Out = strconv.AppendFloat(w.Out, f, 'g', -1, 64)
	w.needComma = true
}

// Bool writes a boolean value.
func (w *Writer) Bool(b bool) {
	w.sep()
	if b {
		w.Out = append(w.Out, "true"...)
	} else {
		w.Out = append(w.Out, "false"...)
	}
	w.needComma = true
}

// Null writes a null value.
func (w *Writer) Null() {
	w.sep()
	w.Out = append(w.Out, "null"...)
	w.needComma = true
}

// Raw writes bs verbatim as one value. It is the caller's
// responsibility to ensure bs is a well-formed JSON value.
func (w *Writer) Raw(bs []byte) {
	w.sep()
	w.Out = append(w.Out, bs...)
	w.needComma = true
}

const hexDigits = "0123456789abcdef"

// AppendQuoted appends the quoted, escaped JSON form of s to dst.
func AppendQuoted(dst []byte, s string) []byte {
	dst = append(dst, '"')
	start := 0
	for i := 0; i < len(s); {
		c := s[i]
		if c < utf8.RuneSelf {
			if c >= 0x20 && c != '"' && c != '\\' {
				i++
				continue
			}
			dst = append(dst, s[start:i]...)
			switch c {
			case '"':
				dst = append(dst, '\\', '"')
			case '\\':
				dst = append(dst, '\\', '\\')
			case '\n':
				dst = append(dst, '\\', 'n')
			case '\r':
				dst = append(dst, '\\', 'r')
			case '\t':
				dst = append(dst, '\\', 't')
			case '\b':
				dst = append(dst, '\\', 'b')
			case '\f':
				dst = append(dst, '\\', 'f')
			default:
				dst = append(dst, '\\', 'u', '0', '0', hexDigits[c>>4], hexDigits[c&0xf])
			}
			i++
			start = i
			continue
		}
		_, size := utf8.DecodeRuneInString(s[i:])
		i += size
	}
	dst = append(dst, s[start:]...)
	return append(dst, '"')
}
