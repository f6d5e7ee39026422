package feedback

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrNotAList is returned when a feedback payload is valid JSON but not an array.
var ErrNotAList = errors.New("feedback payload is not a list")

// Field synonyms accepted from the API. The first one present wins.
var (
	idFields         = []string{"Id", "id", "ID"}
	emotionFields    = []string{"Emotion", "emotion"}
	timestampFields  = []string{"Timestamp", "timestamp", "createdAt", "created_at"}
	titleFields      = []string{"Title", "title"}
	accessCodeFields = []string{"AccessCode", "accessCode", "access_code"}
	startFields      = []string{"StartTime", "startTime", "start_time"}
	endFields        = []string{"EndTime", "endTime", "end_time"}
)

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
}

// DecodeEvents decodes a JSON array of reactions into canonical events.
// Elements that are not objects or carry an unknown emotion are skipped.
func DecodeEvents(data []byte) ([]Event, error) {
	var raw any
	if err := decodeJSON(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse feedback: %w", err)
	}

	list, ok := raw.([]any)
	if !ok {
		return nil, ErrNotAList
	}

	events := make([]Event, 0, len(list))
	for _, elem := range list {
		obj, ok := elem.(map[string]any)
		if !ok {
			continue
		}
		event, ok := eventFromFields(obj)
		if !ok {
			continue
		}
		events = append(events, event)
	}
	return events, nil
}

// DecodeActivity decodes a single activity object.
func DecodeActivity(data []byte) (*Activity, error) {
	var raw any
	if err := decodeJSON(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse activity: %w", err)
	}

	obj, ok := raw.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("failed to parse activity: expected an object")
	}

	activity := &Activity{
		ID:         stringField(obj, idFields),
		Title:      stringField(obj, titleFields),
		AccessCode: stringField(obj, accessCodeFields),
	}
	if v, ok := lookup(obj, startFields); ok {
		if t, ok := parseTime(v); ok {
			activity.StartTime = &t
		}
	}
	if v, ok := lookup(obj, endFields); ok {
		if t, ok := parseTime(v); ok {
			activity.EndTime = &t
		}
	}
	return activity, nil
}

func eventFromFields(obj map[string]any) (Event, bool) {
	emotion := Emotion(strings.ToLower(strings.TrimSpace(stringField(obj, emotionFields))))
	if !emotion.Valid() {
		return Event{}, false
	}

	ts := Epoch
	if v, ok := lookup(obj, timestampFields); ok {
		if t, ok := parseTime(v); ok {
			ts = t
		}
	}

	return Event{
		ID:        stringField(obj, idFields),
		Emotion:   emotion,
		Timestamp: ts,
	}, true
}

func decodeJSON(data []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		return err
	}
	if dec.More() {
		return errors.New("unexpected data after JSON value")
	}
	return nil
}

// lookup returns the first non-null, non-empty value among keys.
func lookup(obj map[string]any, keys []string) (any, bool) {
	for _, k := range keys {
		v, ok := obj[k]
		if !ok || v == nil {
			continue
		}
		if s, isString := v.(string); isString && s == "" {
			continue
		}
		return v, true
	}
	return nil, false
}

func stringField(obj map[string]any, keys []string) string {
	v, ok := lookup(obj, keys)
	if !ok {
		return ""
	}
	switch val := v.(type) {
	case string:
		return val
	case json.Number:
		return val.String()
	case bool:
		if val {
			return "true"
		}
		return "false"
	default:
		return ""
	}
}

// parseTime accepts date strings or epoch milliseconds.
func parseTime(v any) (time.Time, bool) {
	switch val := v.(type) {
	case json.Number:
		if ms, err := val.Int64(); err == nil {
			return time.UnixMilli(ms).UTC(), true
		}
		if f, err := val.Float64(); err == nil {
			return time.UnixMilli(int64(f)).UTC(), true
		}
	case string:
		s := strings.TrimSpace(val)
		for _, layout := range timeLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t.UTC(), true
			}
		}
	}
	return time.Time{}, false
}
