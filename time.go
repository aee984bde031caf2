package tp

import (
	"encoding/json"
	"time"

	"github.com/jeja2023/tp/format"
)

// Time decodes the timestamps sent by the backend, which omit the time zone.
type Time struct {
	time.Time
}

func NewTime(t time.Time) Time {
	return Time{Time: t}
}

func (t Time) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.Time.Format(time.RFC3339Nano))
}

func (t *Time) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		t.Time = time.Time{}
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == "" {
		t.Time = time.Time{}
		return nil
	}

	parsed, err := format.ParseTime(s)
	if err != nil {
		return err
	}
	t.Time = parsed
	return nil
}

// String formats t the way every view displays timestamps.
func (t Time) String() string {
	return format.DateTime(t.Time)
}
