// Package canonical produces the exact byte form of a JSON object that is signed.
//
// The default "ordered" form is compact JSON that keeps the input's key
// order, drops object fields whose value is null, re-encodes strings without
// HTML escaping and keeps number literals byte-for-byte. Keys are NOT sorted:
// a verifier must reproduce this rule, not a lexicographic one.
//
// The opt-in "jcs" form additionally applies RFC 8785 to the ordered output.
//
// Input that is not valid UTF-8, or that escapes a lone UTF-16 surrogate, is
// rejected rather than rewritten to U+FFFD, so the signed bytes always carry
// the text the operator wrote.
package canonical

import (
	"bytes"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"strconv"
	"unicode/utf16"
	"unicode/utf8"

	"github.com/cyberphone/json-canonicalization/go/src/webpki.org/jsoncanonicalizer"
	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/mrz1836/configseal/internal/constants"
	"github.com/mrz1836/configseal/internal/errors"
)

// Mode selects the canonical form.
type Mode string

const (
	// ModeOrdered keeps input key order. This is the default.
	ModeOrdered Mode = constants.CanonicalOrdered

	// ModeJCS applies RFC 8785 (sorted keys, normalized numbers).
	ModeJCS Mode = constants.CanonicalJCS
)

// Modes returns the supported modes.
func Modes() []Mode {
	return []Mode{ModeOrdered, ModeJCS}
}

// ParseMode validates a mode name. The empty string selects ModeOrdered.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case "", ModeOrdered:
		return ModeOrdered, nil
	case ModeJCS:
		return ModeJCS, nil
	default:
		return "", fmt.Errorf("%w: %q must be one of %v", errors.ErrInvalidCanonicalMode, s, Modes())
	}
}

// Object is a decoded JSON object that remembers its key order.
// Values are *Object, []any, string, json.Number, bool or nil.
type Object = orderedmap.OrderedMap[string, any]

// Parse decodes data, which must hold exactly one JSON object.
// Anything else is ErrInvalidInput.
func Parse(data []byte) (*Object, error) {
	if err := checkText(data); err != nil {
		return nil, err
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errors.ErrInvalidInput, err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("%w: top-level value must be a JSON object", errors.ErrInvalidInput)
	}

	obj, err := decodeObject(dec)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errors.ErrInvalidInput, err)
	}

	if _, err := dec.Token(); !stderrors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: unexpected data after top-level object", errors.ErrInvalidInput)
	}
	return obj, nil
}

// checkText rejects what the decoder would silently replace with U+FFFD:
// invalid UTF-8 and \u escapes of unpaired surrogates. Malformed escapes are
// left for the decoder to report.
func checkText(data []byte) error {
	if !utf8.Valid(data) {
		return fmt.Errorf("%w: input is not valid UTF-8", errors.ErrInvalidInput)
	}

	for i := 0; i < len(data); i++ {
		if data[i] != '\\' {
			continue
		}
		i++
		if i >= len(data) || data[i] != 'u' {
			continue
		}
		r, ok := hexRune(data, i+1)
		if !ok {
			continue
		}
		i += 4
		if !utf16.IsSurrogate(r) {
			continue
		}
		if r >= 0xDC00 {
			return loneSurrogate(r)
		}
		if i+2 >= len(data) || data[i+1] != '\\' || data[i+2] != 'u' {
			return loneSurrogate(r)
		}
		low, ok := hexRune(data, i+3)
		if !ok || low < 0xDC00 || low > 0xDFFF {
			return loneSurrogate(r)
		}
		i += 6
	}
	return nil
}

// hexRune parses the four hex digits starting at data[start].
func hexRune(data []byte, start int) (rune, bool) {
	if start+4 > len(data) {
		return 0, false
	}
	v, err := strconv.ParseUint(string(data[start:start+4]), 16, 32)
	if err != nil {
		return 0, false
	}
	return rune(v), true
}

func loneSurrogate(r rune) error {
	return fmt.Errorf("%w: unpaired surrogate \\u%04x in string", errors.ErrInvalidInput, r)
}

// decodeObject reads members up to the closing brace. The opening brace has
// already been consumed. A repeated key keeps its first position and its last value.
func decodeObject(dec *json.Decoder) (*Object, error) {
	obj := orderedmap.New[string, any]()
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("object key is %T, expected string", tok)
		}
		val, err := decodeValue(dec)
		if err != nil {
			return nil, err
		}
		obj.Set(key, val)
	}
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return obj, nil
}

func decodeArray(dec *json.Decoder) ([]any, error) {
	arr := make([]any, 0)
	for dec.More() {
		val, err := decodeValue(dec)
		if err != nil {
			return nil, err
		}
		arr = append(arr, val)
	}
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return arr, nil
}

func decodeValue(dec *json.Decoder) (any, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			return decodeObject(dec)
		case '[':
			return decodeArray(dec)
		default:
			return nil, fmt.Errorf("unexpected delimiter %q", t)
		}
	default:
		// string, json.Number, bool or nil
		return t, nil
	}
}

// Marshal renders obj in the given mode.
func Marshal(obj *Object, mode Mode) ([]byte, error) {
	if _, err := ParseMode(string(mode)); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := encodeObject(&buf, obj); err != nil {
		return nil, err
	}

	if mode == ModeJCS {
		out, err := jsoncanonicalizer.Transform(buf.Bytes())
		if err != nil {
			return nil, fmt.Errorf("applying RFC 8785: %w", err)
		}
		return out, nil
	}
	return buf.Bytes(), nil
}

// Canonicalize parses data and renders it in the given mode.
func Canonicalize(data []byte, mode Mode) ([]byte, error) {
	if _, err := ParseMode(string(mode)); err != nil {
		return nil, err
	}
	obj, err := Parse(data)
	if err != nil {
		return nil, err
	}
	return Marshal(obj, mode)
}

// Canonicalizer binds a mode for repeated use.
type Canonicalizer struct {
	mode Mode
}

// New creates a Canonicalizer for mode.
func New(mode Mode) (*Canonicalizer, error) {
	m, err := ParseMode(string(mode))
	if err != nil {
		return nil, err
	}
	return &Canonicalizer{mode: m}, nil
}

// Mode returns the configured mode.
func (c *Canonicalizer) Mode() Mode {
	return c.mode
}

// Canonicalize parses data and renders it in the configured mode.
func (c *Canonicalizer) Canonicalize(data []byte) ([]byte, error) {
	return Canonicalize(data, c.mode)
}

func encodeObject(buf *bytes.Buffer, obj *Object) error {
	buf.WriteByte('{')
	first := true
	for pair := obj.Oldest(); pair != nil; pair = pair.Next() {
		if pair.Value == nil {
			continue
		}
		if !first {
			buf.WriteByte(',')
		}
		first = false
		if err := encodeString(buf, pair.Key); err != nil {
			return err
		}
		buf.WriteByte(':')
		if err := encodeValue(buf, pair.Value); err != nil {
			return err
		}
	}
	buf.WriteByte('}')
	return nil
}

func encodeValue(buf *bytes.Buffer, v any) error {
	switch t := v.(type) {
	case *Object:
		return encodeObject(buf, t)
	case []any:
		buf.WriteByte('[')
		for i, elem := range t {
			if i > 0 {
				buf.WriteByte(',')
			}
			// null array elements are values, not fields; they stay.
			if err := encodeValue(buf, elem); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
		return nil
	case string:
		return encodeString(buf, t)
	case json.Number:
		buf.WriteString(t.String())
		return nil
	case bool:
		if t {
			buf.WriteString("true")
		} else {
			buf.WriteString("false")
		}
		return nil
	case nil:
		buf.WriteString("null")
		return nil
	default:
		return fmt.Errorf("unsupported value type %T", v)
	}
}

// encodeString writes s as a JSON string without HTML escaping.
func encodeString(buf *bytes.Buffer, s string) error {
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return err
	}
	// Encode appends a newline.
	buf.Truncate(buf.Len() - 1)
	return nil
}
