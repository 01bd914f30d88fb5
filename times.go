package dynsched

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// Layouts accepted for dates coming from the server, tried in order. Values
// without an offset are read in local time.
var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseDate accepts RFC 3339 as well as offset-less timestamps and bare dates.
func ParseDate(s string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}

// flexTime decodes any of dateLayouts; null and "" decode to the zero time.
type flexTime struct {
	time.Time
	set bool
}

func (f *flexTime) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("date must be a string: %w", err)
	}
	if s == "" {
		return nil
	}
	t, err := ParseDate(s)
	if err != nil {
		return err
	}
	f.Time, f.set = t, true
	return nil
}

func (e *Event) UnmarshalJSON(b []byte) error {
	type event Event
	aux := struct {
		*event
		Date flexTime `json:"date"`
	}{event: (*event)(e)}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	e.Date = aux.Date.Time
	return nil
}

func (t *Task) UnmarshalJSON(b []byte) error {
	type task Task
	aux := struct {
		*task
		DueDate flexTime `json:"due_date"`
	}{task: (*task)(t)}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	t.DueDate = nil
	if aux.DueDate.set {
		d := aux.DueDate.Time
		t.DueDate = &d
	}
	return nil
}
