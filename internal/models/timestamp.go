package models

import (
	"bytes"
	"encoding/json"
	"time"
)

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// Timestamp decodes the loosely formatted times found in crisis feeds. A
// value that matches no known layout decodes to the zero time instead of
// failing the whole document; zone-less values are taken as UTC.
type Timestamp struct {
	time.Time
}

func NewTimestamp(t time.Time) *Timestamp {
	return &Timestamp{Time: t}
}

func (t *Timestamp) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		t.Time = time.Time{}
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		// numeric epoch milliseconds
		var ms int64
		if err := json.Unmarshal(data, &ms); err != nil {
			t.Time = time.Time{}
			return nil
		}
		t.Time = time.UnixMilli(ms).UTC()
		return nil
	}

	for _, layout := range timestampLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			t.Time = parsed
			return nil
		}
	}
	t.Time = time.Time{}
	return nil
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.UTC().Format(time.RFC3339))
}

// Known reports whether ts is present and was parsed.
func (t *Timestamp) Known() bool {
	return t != nil && !t.IsZero()
}
