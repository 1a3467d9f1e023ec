package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Field is a single header/value cell of a Record.
type Field struct {
	Key   string
	Value string
}

// Record is one parsed CSV data row. It behaves like a string map but keeps
// the header order of the source file, both in memory and when marshaled to
// a JSON object.
type Record []Field

// NewRecord zips headers against values. Missing trailing values become "".
func NewRecord(headers, values []string) Record {
	r := make(Record, 0, len(headers))
	for i, h := range headers {
		v := ""
		if i < len(values) {
			v = values[i]
		}
		r = r.Set(h, v)
	}
	return r
}

// Get returns the value stored under key.
func (r Record) Get(key string) (string, bool) {
	for _, f := range r {
		if f.Key == key {
			return f.Value, true
		}
	}
	return "", false
}

// Value returns the value stored under key, or "" when absent.
func (r Record) Value(key string) string {
	v, _ := r.Get(key)
	return v
}

// Set returns the record with key set to value. Existing keys keep their
// position; new keys are appended.
func (r Record) Set(key, value string) Record {
	for i := range r {
		if r[i].Key == key {
			r[i].Value = value
			return r
		}
	}
	return append(r, Field{Key: key, Value: value})
}

// Keys returns the record's keys in order.
func (r Record) Keys() []string {
	keys := make([]string, len(r))
	for i, f := range r {
		keys[i] = f.Key
	}
	return keys
}

// Clone returns a deep copy of the record.
func (r Record) Clone() Record {
	if r == nil {
		return nil
	}
	c := make(Record, len(r))
	copy(c, r)
	return c
}

// MarshalJSON encodes the record as a JSON object in field order.
func (r Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range r {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(f.Key)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(f.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a JSON object, preserving key order.
func (r *Record) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("decoding record: %w", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("decoding record: expected object, got %v", tok)
	}

	out := Record{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return fmt.Errorf("decoding record key: %w", err)
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("decoding record: unexpected key %v", tok)
		}

		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return fmt.Errorf("decoding record value for %q: %w", key, err)
		}
		out = out.Set(key, rawToString(raw))
	}

	*r = out
	return nil
}

// rawToString converts a JSON scalar to its string form. Values written by
// older exports may be numbers or null rather than strings.
func rawToString(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "null" {
		return ""
	}
	return trimmed
}

// IsIDHeader reports whether h is the hidden "id" column.
func IsIDHeader(h string) bool {
	return strings.EqualFold(strings.TrimSpace(h), "id")
}

// DisplayHeaders filters the "id" column out of headers.
func DisplayHeaders(headers []string) []string {
	out := make([]string, 0, len(headers))
	for _, h := range headers {
		if !IsIDHeader(h) {
			out = append(out, h)
		}
	}
	return out
}
