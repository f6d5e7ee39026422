package aggregator

import (
	"time"

	"github.com/gauthierbraillon/classpulse/internal/feedback"
	"github.com/gauthierbraillon/classpulse/internal/session"
)

var (
	liveAxis    = []string{"-15m", "-10m", "-5m", "NOW"}
	sessionAxis = []string{"START", "", "", "END"}
)

// Build derives the full dashboard view from the merged reactions, the
// activity (nil when it could not be loaded) and the current time.
//
// A live session reports stats over the last fifteen minutes and a
// minute-by-minute timeline; an ended session reports the whole session.
// The feed always shows the latest reactions regardless of session state.
func Build(activity *feedback.Activity, events []feedback.Event, now time.Time) Snapshot {
	snap := Snapshot{
		Feed:        Feed(events, FeedSize),
		GeneratedAt: now,
	}
	if activity != nil {
		snap.ActivityID = activity.ID
		snap.Title = activity.Title
		snap.AccessCode = activity.AccessCode
	}

	if session.Classify(activity, now) == session.Ended {
		start, end := session.Bounds(activity, events, now)
		snap.Ended = true
		snap.SessionStart = start
		snap.SessionEnd = end
		snap.Stats = ComputeStats(events)
		snap.Timeline = SessionTimeline(events, start, end)
		snap.Axis = sessionAxis
		return snap
	}

	recent := Window(events, FeedOptions{Since: now.Add(-LiveWindow)})
	if activity != nil && activity.StartTime != nil {
		snap.SessionStart = *activity.StartTime
	}
	snap.Stats = ComputeStats(recent)
	snap.Timeline = LiveTimeline(events, now)
	snap.Axis = liveAxis
	return snap
}
