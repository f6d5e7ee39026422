// Package session decides whether an activity is still collecting reactions.
package session

import (
	"time"

	"github.com/gauthierbraillon/classpulse/internal/feedback"
)

// State is the live/ended classification of an activity.
type State string

const (
	Live  State = "live"
	Ended State = "ended"
)

// Classify returns Ended once the wall clock reaches the activity end time.
// A nil activity or one without an end time is always Live.
func Classify(activity *feedback.Activity, now time.Time) State {
	if activity == nil || activity.EndTime == nil {
		return Live
	}
	if !now.Before(*activity.EndTime) {
		return Ended
	}
	return Live
}

// Bounds returns the time span a session covers. Missing activity bounds fall
// back to the earliest and latest reaction, widened to include now.
func Bounds(activity *feedback.Activity, events []feedback.Event, now time.Time) (start, end time.Time) {
	start, end = now, now
	for _, e := range events {
		if e.Timestamp.Before(start) {
			start = e.Timestamp
		}
		if e.Timestamp.After(end) {
			end = e.Timestamp
		}
	}

	if activity != nil {
		if activity.StartTime != nil {
			start = *activity.StartTime
		}
		if activity.EndTime != nil {
			end = *activity.EndTime
		}
	}
	return start, end
}
