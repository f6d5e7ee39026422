package aggregator

import (
	"math"

	"github.com/gauthierbraillon/classpulse/internal/feedback"
)

// Window returns the reactions matching opts, newest first.
func Window(events []feedback.Event, opts FeedOptions) []feedback.Event {
	result := make([]feedback.Event, 0, len(events))
	for _, e := range events {
		if !opts.Since.IsZero() && e.Timestamp.Before(opts.Since) {
			continue
		}
		if !opts.Until.IsZero() && e.Timestamp.After(opts.Until) {
			continue
		}
		result = append(result, e)
	}

	feedback.SortNewestFirst(result)

	if opts.Limit > 0 && len(result) > opts.Limit {
		result = result[:opts.Limit]
	}
	return result
}

// Feed returns the latest reactions for the rolling feed.
func Feed(events []feedback.Event, limit int) []feedback.Event {
	return Window(events, FeedOptions{Limit: limit})
}

// ComputeStats breaks reactions down into rounded percentages.
// An empty list yields all zeros.
func ComputeStats(events []feedback.Event) Stats {
	total := len(events)
	if total == 0 {
		return Stats{}
	}

	counts := countEmotions(events)
	pct := func(n int) int {
		return int(math.Round(float64(n) * 100 / float64(total)))
	}

	return Stats{
		Total:     total,
		Happy:     pct(counts[feedback.EmotionHappy]),
		Confused:  pct(counts[feedback.EmotionConfused]),
		Surprised: pct(counts[feedback.EmotionSurprised]),
		Sad:       pct(counts[feedback.EmotionSad]),
	}
}

func countEmotions(events []feedback.Event) map[feedback.Emotion]int {
	counts := make(map[feedback.Emotion]int, len(feedback.Emotions))
	for _, e := range events {
		counts[e.Emotion]++
	}
	return counts
}
