package feedback

import "sort"

// Merge combines previously known events with newly fetched ones.
// Events sharing an identity key collapse into one, with incoming taking
// precedence. The result is sorted newest first; equal timestamps are ordered
// by key so the output does not depend on argument order.
func Merge(previous, incoming []Event) []Event {
	byKey := make(map[string]Event, len(previous)+len(incoming))
	for _, e := range previous {
		byKey[e.Key()] = e
	}
	for _, e := range incoming {
		byKey[e.Key()] = e
	}

	merged := make([]Event, 0, len(byKey))
	for _, e := range byKey {
		merged = append(merged, e)
	}
	SortNewestFirst(merged)
	return merged
}

// SortNewestFirst sorts events by timestamp descending in place.
func SortNewestFirst(events []Event) {
	sort.Slice(events, func(i, j int) bool {
		ti, tj := events[i].Timestamp, events[j].Timestamp
		if !ti.Equal(tj) {
			return ti.After(tj)
		}
		return events[i].Key() < events[j].Key()
	})
}
