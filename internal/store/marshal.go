package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// marshalCounts converts a reason->count map to JSON TEXT.
// Go's json.Marshal sorts map keys, so equal maps give equal TEXT.
func marshalCounts(m map[string]int) (string, error) {
	if m == nil {
		m = map[string]int{}
	}
	return marshalJSON(m)
}

// marshalOrderings converts a comparer->ordering map to JSON TEXT.
func marshalOrderings(m map[string]string) (string, error) {
	if m == nil {
		m = map[string]string{}
	}
	return marshalJSON(m)
}

func marshalJSON(v any) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false) // CRITICAL: stored TEXT must match what was written
	if err := enc.Encode(v); err != nil {
		return "", fmt.Errorf("marshal: %w", err)
	}
	// Encoder adds a trailing newline, remove it
	return strings.TrimSpace(buf.String()), nil
}

func unmarshalCounts(data string) (map[string]int, error) {
	m := map[string]int{}
	if data == "" || data == "{}" {
		return m, nil
	}
	if err := json.Unmarshal([]byte(data), &m); err != nil {
		return nil, fmt.Errorf("unmarshal counts: %w", err)
	}
	return m, nil
}

func unmarshalOrderings(data string) (map[string]string, error) {
	m := map[string]string{}
	if data == "" || data == "{}" {
		return m, nil
	}
	if err := json.Unmarshal([]byte(data), &m); err != nil {
		return nil, fmt.Errorf("unmarshal orderings: %w", err)
	}
	return m, nil
}

// formatTime stores instants as RFC 3339 in UTC, which sorts as TEXT.
func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse time %q: %w", s, err)
	}
	return t, nil
}
