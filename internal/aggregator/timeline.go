package aggregator

import (
	"math"
	"time"

	"github.com/gauthierbraillon/classpulse/internal/feedback"
)

type tally struct {
	counts map[feedback.Emotion]int
	total  int
}

func newTallies(n int) []tally {
	tallies := make([]tally, n)
	for i := range tallies {
		tallies[i].counts = make(map[feedback.Emotion]int, len(feedback.Emotions))
	}
	return tallies
}

func (t *tally) add(e feedback.Event) {
	t.counts[e.Emotion]++
	t.total++
}

func (t tally) bucket() Bucket {
	if t.total == 0 {
		return Bucket{}
	}
	n := float64(t.total)
	return Bucket{
		Happy:     float64(t.counts[feedback.EmotionHappy]) / n,
		Surprised: float64(t.counts[feedback.EmotionSurprised]) / n,
		Confused:  float64(t.counts[feedback.EmotionConfused]) / n,
		Sad:       float64(t.counts[feedback.EmotionSad]) / n,
	}
}

func toBuckets(tallies []tally) []Bucket {
	buckets := make([]Bucket, len(tallies))
	for i, t := range tallies {
		buckets[i] = t.bucket()
	}
	return buckets
}

// LiveTimeline buckets the last fifteen minutes into one-minute slots.
// The last bucket is the current minute. Reactions older than the window or
// stamped in the future are left out.
func LiveTimeline(events []feedback.Event, now time.Time) []Bucket {
	tallies := newTallies(LiveBuckets)

	for _, e := range events {
		diff := now.Sub(e.Timestamp)
		if diff < 0 {
			continue
		}
		minutes := int(diff / time.Minute)
		if minutes > LiveBuckets-1 {
			continue
		}
		tallies[LiveBuckets-1-minutes].add(e)
	}

	return toBuckets(tallies)
}

// SessionBucketCount returns how many buckets cover a session of the given
// length: roughly five minutes each, never fewer than 12 nor more than 30.
func SessionBucketCount(duration time.Duration) int {
	ideal := int(math.Round(float64(duration) / float64(SessionBucketWidth)))
	return max(MinSessionBuckets, min(MaxSessionBuckets, ideal))
}

// SessionTimeline spreads reactions between start and end over evenly sized
// buckets. Reactions outside the session are left out.
func SessionTimeline(events []feedback.Event, start, end time.Time) []Bucket {
	duration := max(end.Sub(start), time.Millisecond)
	n := SessionBucketCount(duration)
	tallies := newTallies(n)

	for _, e := range events {
		if e.Timestamp.Before(start) || e.Timestamp.After(end) {
			continue
		}
		pos := float64(e.Timestamp.Sub(start)) / float64(duration)
		idx := int(math.Floor(pos * float64(n)))
		idx = max(0, min(n-1, idx))
		tallies[idx].add(e)
	}

	return toBuckets(tallies)
}
