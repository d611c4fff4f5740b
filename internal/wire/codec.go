// Package wire implements PokeProtocol's line-oriented text codec: the
// key:value frame grammar, fast header-only parsing for routing, and the
// typed message catalogue built on top of it.
package wire

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// headerScanLimit bounds parse_header to the leading lines of a frame, per
// the codec's fast-routing contract.
const headerScanLimit = 5

// Frame is the decoded, key-ordered form of one wire message. sequence_number
// and ack_number are tracked separately from Fields because the grammar
// requires them to appear first, in that order, when present.
type Frame struct {
	Type MessageType

	HasSeq bool
	Seq    uint32

	HasAck bool
	Ack    uint32

	// Fields holds every remaining field. Values are string, int64,
	// float64, or the result of json.Unmarshal for bracketed values
	// (map[string]any, []any, and so on).
	Fields map[string]any
}

// NewFrame returns an empty frame of the given type.
func NewFrame(t MessageType) *Frame {
	return &Frame{Type: t, Fields: make(map[string]any)}
}

// WithSeq sets the sequence_number field and returns the frame for chaining.
func (f *Frame) WithSeq(seq uint32) *Frame {
	f.HasSeq = true
	f.Seq = seq
	return f
}

// WithAck sets the ack_number field and returns the frame for chaining.
func (f *Frame) WithAck(ack uint32) *Frame {
	f.HasAck = true
	f.Ack = ack
	return f
}

// Set stores a payload field. v must be a string, an integer type, a
// float64, or a JSON-serializable structured value.
func (f *Frame) Set(key string, v any) *Frame {
	if f.Fields == nil {
		f.Fields = make(map[string]any)
	}
	f.Fields[key] = v
	return f
}

// String returns the string field value, or "" with ok=false if absent or
// not a string.
func (f *Frame) String(key string) (string, bool) {
	v, found := f.Fields[key]
	if !found {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// Int returns the integer field value, or 0 with ok=false if absent or not
// numeric.
func (f *Frame) Int(key string) (int64, bool) {
	v, found := f.Fields[key]
	if !found {
		return 0, false
	}
	switch n := v.(type) {
	case int64:
		return n, true
	case int:
		return int64(n), true
	case float64:
		return int64(n), true
	}
	return 0, false
}

// Float returns the float field value, or 0 with ok=false if absent or not
// numeric.
func (f *Frame) Float(key string) (float64, bool) {
	v, found := f.Fields[key]
	if !found {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return n, true
	case int64:
		return float64(n), true
	case int:
		return float64(n), true
	}
	return 0, false
}

// Raw returns the raw decoded value for key, whatever its type.
func (f *Frame) Raw(key string) (any, bool) {
	v, found := f.Fields[key]
	return v, found
}

// Encode renders the frame as its wire payload: message_type first,
// sequence_number/ack_number next (in that order) when present, then the
// remaining fields in a stable (sorted) order. The result has no trailing
// newline.
func Encode(f *Frame) []byte {
	lines := make([]string, 0, len(f.Fields)+3)
	lines = append(lines, "message_type: "+string(f.Type))
	if f.HasSeq {
		lines = append(lines, "sequence_number: "+strconv.FormatUint(uint64(f.Seq), 10))
	}
	if f.HasAck {
		lines = append(lines, "ack_number: "+strconv.FormatUint(uint64(f.Ack), 10))
	}

	keys := make([]string, 0, len(f.Fields))
	for k := range f.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		lines = append(lines, k+": "+encodeValue(f.Fields[k]))
	}

	return []byte(strings.Join(lines, "\n"))
}

func encodeValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case uint32:
		return strconv.FormatUint(uint64(val), 10)
	case uint64:
		return strconv.FormatUint(val, 10)
	case float64:
		return strconv.FormatFloat(val, 'g', -1, 64)
	default:
		b, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprintf("%v", val)
		}
		return string(b)
	}
}

// Decode parses a full wire payload into a Frame. Lines without a colon are
// skipped silently; only the first colon per line separates key from value.
// ErrMalformedFrame is returned if no message_type line is present.
func Decode(data []byte) (*Frame, error) {
	lines := strings.Split(string(data), "\n")

	f := &Frame{Fields: make(map[string]any)}
	haveType := false

	for _, line := range lines {
		key, value, ok := splitLine(line)
		if !ok {
			continue
		}
		switch key {
		case "message_type":
			f.Type = MessageType(value)
			haveType = true
		case "sequence_number":
			n, err := strconv.ParseUint(value, 10, 32)
			if err != nil {
				continue
			}
			f.HasSeq = true
			f.Seq = uint32(n)
		case "ack_number":
			n, err := strconv.ParseUint(value, 10, 32)
			if err != nil {
				continue
			}
			f.HasAck = true
			f.Ack = uint32(n)
		default:
			f.Fields[key] = decodeValue(key, value)
		}
	}

	if !haveType {
		return nil, ErrMalformedFrame
	}
	return f, nil
}

// Header is the result of a bounded, header-only parse used for fast
// routing without decoding the full payload.
type Header struct {
	Type   MessageType
	HasSeq bool
	Seq    uint32
	HasAck bool
	Ack    uint32
}

// ParseHeader scans only the leading lines (bounded at headerScanLimit) of a
// payload for message_type, sequence_number, and ack_number.
// ErrMalformedFrame is returned if message_type is absent within that bound.
func ParseHeader(data []byte) (Header, error) {
	lines := strings.SplitN(string(data), "\n", headerScanLimit+1)
	if len(lines) > headerScanLimit {
		lines = lines[:headerScanLimit]
	}

	var h Header
	haveType := false
	for _, line := range lines {
		key, value, ok := splitLine(line)
		if !ok {
			continue
		}
		switch key {
		case "message_type":
			h.Type = MessageType(value)
			haveType = true
		case "sequence_number":
			if n, err := strconv.ParseUint(value, 10, 32); err == nil {
				h.HasSeq = true
				h.Seq = uint32(n)
			}
		case "ack_number":
			if n, err := strconv.ParseUint(value, 10, 32); err == nil {
				h.HasAck = true
				h.Ack = uint32(n)
			}
		}
	}

	if !haveType {
		return Header{}, ErrMalformedFrame
	}
	return h, nil
}

// splitLine finds the first colon in line and returns the trimmed key/value
// either side of it. ok is false if line carries no colon at all.
func splitLine(line string) (key, value string, ok bool) {
	idx := strings.IndexByte(line, ':')
	if idx < 0 {
		return "", "", false
	}
	key = strings.TrimSpace(line[:idx])
	value = strings.TrimSpace(line[idx+1:])
	return key, value, true
}

// decodeValue interprets a raw value string per the codec's type-inference
// rule: JSON when bracketed; when the key isn't message_type, int64 if the
// text parses as an integer, else float64 if it parses as a float; string
// otherwise.
func decodeValue(key, value string) any {
	if len(value) > 0 && (value[0] == '{' || value[0] == '[') {
		var v any
		if err := json.Unmarshal([]byte(value), &v); err == nil {
			return v
		}
		return value
	}
	if key != "message_type" {
		if n, err := strconv.ParseInt(value, 10, 64); err == nil {
			return n
		}
		if fl, err := strconv.ParseFloat(value, 64); err == nil {
			return fl
		}
	}
	return value
}
