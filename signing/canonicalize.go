package signing

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
)

// Canonicalize returns the unique byte serialization of a JSON-like value.
//
// Objects are rebuilt with keys in byte-wise lexicographic order at every
// depth, array element order is preserved, and the output uses fixed
// separators with no insignificant whitespace. Two semantically equal values
// therefore always serialize to identical bytes regardless of original key
// insertion order.
//
// Accepted value shapes are those produced by decoding JSON into
// map[string]any: nil, bool, string, float64, json.Number, []any and
// map[string]any, plus the common Go integer types for convenience.
// Non-finite floats and any other Go type fail with KindEncoding.
func Canonicalize(v any) ([]byte, error) {
	var buf bytes.Buffer
	if err := writeCanonical(&buf, v, "$"); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeCanonical(buf *bytes.Buffer, v any, path string) error {
	switch x := v.(type) {
	case nil:
		buf.WriteString("null")
	case bool:
		if x {
			buf.WriteString("true")
		} else {
			buf.WriteString("false")
		}
	case string:
		writeCanonicalString(buf, x)
	case json.Number:
		if !isValidNumber(string(x)) {
			return newError(KindEncoding, fmt.Sprintf("invalid number literal %q at %s", string(x), path))
		}
		buf.WriteString(string(x))
	case float64:
		return writeCanonicalFloat(buf, x, path)
	case float32:
		return writeCanonicalFloat(buf, float64(x), path)
	case int:
		buf.WriteString(strconv.FormatInt(int64(x), 10))
	case int32:
		buf.WriteString(strconv.FormatInt(int64(x), 10))
	case int64:
		buf.WriteString(strconv.FormatInt(x, 10))
	case uint:
		buf.WriteString(strconv.FormatUint(uint64(x), 10))
	case uint32:
		buf.WriteString(strconv.FormatUint(uint64(x), 10))
	case uint64:
		buf.WriteString(strconv.FormatUint(x, 10))
	case []any:
		buf.WriteByte('[')
		for i, elem := range x {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeCanonical(buf, elem, path+"["+strconv.Itoa(i)+"]"); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	case map[string]any:
		keys := make([]string, 0, len(x))
		for k := range x {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		buf.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				buf.WriteByte(',')
			}
			writeCanonicalString(buf, k)
			buf.WriteByte(':')
			if err := writeCanonical(buf, x[k], path+"."+k); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
	default:
		return newError(KindEncoding, fmt.Sprintf("unsupported value of type %T at %s", v, path))
	}
	return nil
}

// isValidNumber reports whether s is a JSON number per the RFC 8259
// grammar. json.Number values can carry arbitrary text when constructed
// directly, and anything outside the grammar would corrupt the canonical
// bytes, so the literal is checked before it is written verbatim.
func isValidNumber(s string) bool {
	if s == "" {
		return false
	}
	if s[0] == '-' {
		s = s[1:]
		if s == "" {
			return false
		}
	}
	switch {
	case s[0] == '0':
		s = s[1:]
	case '1' <= s[0] && s[0] <= '9':
		s = s[1:]
		for len(s) > 0 && '0' <= s[0] && s[0] <= '9' {
			s = s[1:]
		}
	default:
		return false
	}
	if len(s) >= 2 && s[0] == '.' && '0' <= s[1] && s[1] <= '9' {
		s = s[2:]
		for len(s) > 0 && '0' <= s[0] && s[0] <= '9' {
			s = s[1:]
		}
	}
	if len(s) >= 2 && (s[0] == 'e' || s[0] == 'E') {
		s = s[1:]
		if s[0] == '+' || s[0] == '-' {
			s = s[1:]
			if s == "" {
				return false
			}
		}
		for len(s) > 0 && '0' <= s[0] && s[0] <= '9' {
			s = s[1:]
		}
	}
	return s == ""
}

func writeCanonicalFloat(buf *bytes.Buffer, f float64, path string) error {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return newError(KindEncoding, "non-finite number at "+path)
	}
	// Matches encoding/json: shortest representation that round-trips, with
	// integral values rendered without a decimal point.
	abs := math.Abs(f)
	format := byte('f')
	if abs != 0 && (abs < 1e-6 || abs >= 1e21) {
		format = 'e'
	}
	b := strconv.AppendFloat(buf.AvailableBuffer(), f, format, -1, 64)
	if format == 'e' {
		// Trim a leading zero in the exponent ("e-09" -> "e-9").
		if n := len(b); n >= 4 && b[n-4] == 'e' && b[n-2] == '0' {
			b[n-2] = b[n-1]
			b = b[:n-1]
		}
	}
	buf.Write(b)
	return nil
}

const hexDigits = "0123456789abcdef"

// writeCanonicalString emits a JSON string with the minimal escape set:
// quote, backslash, and control characters. HTML-relevant characters and
// non-ASCII runes pass through unescaped.
func writeCanonicalString(buf *bytes.Buffer, s string) {
	buf.WriteByte('"')
	start := 0
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c >= 0x20 && c != '"' && c != '\\' {
			continue
		}
		buf.WriteString(s[start:i])
		switch c {
		case '"':
			buf.WriteString(`\"`)
		case '\\':
			buf.WriteString(`\\`)
		case '\b':
			buf.WriteString(`\b`)
		case '\f':
			buf.WriteString(`\f`)
		case '\n':
			buf.WriteString(`\n`)
		case '\r':
			buf.WriteString(`\r`)
		case '\t':
			buf.WriteString(`\t`)
		default:
			buf.WriteString(`\u00`)
			buf.WriteByte(hexDigits[c>>4])
			buf.WriteByte(hexDigits[c&0xf])
		}
		start = i + 1
	}
	buf.WriteString(s[start:])
	buf.WriteByte('"')
}

// DecodeSnapshot parses snapshot bytes into a map[string]any suitable for
// Canonicalize and PayloadHash. Numbers are kept as json.Number so that
// canonical bytes reproduce the original digits exactly.
func DecodeSnapshot(data []byte) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, wrapError(KindEncoding, "invalid snapshot JSON", err)
	}
	if dec.More() {
		return nil, newError(KindEncoding, "trailing data after snapshot JSON")
	}
	snapshot, ok := v.(map[string]any)
	if !ok {
		return nil, newError(KindEncoding, fmt.Sprintf("snapshot must be a JSON object, got %T", v))
	}
	return snapshot, nil
}
