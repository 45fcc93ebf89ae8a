package utils

import (
	"bytes"
	"encoding/json"
	"time"
)

// MarshalCompact renders v as single-line JSON without HTML escaping, which
// matches what browser-side JSON.stringify produces for the same value.
func MarshalCompact(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// MarshalDocument renders v with two-space indentation for files that live in
// the repository and get diffed by humans.
func MarshalDocument(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// ISOTime formats t as UTC with millisecond precision ("2006-01-02T15:04:05.000Z").
func ISOTime(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000Z07:00")
}
