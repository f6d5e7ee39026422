package aggregator

import (
	"testing"
	"time"

	"github.com/gauthierbraillon/classpulse/internal/feedback"
)

var now = time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC)

func reaction(id string, emotion feedback.Emotion, ago time.Duration) feedback.Event {
	return feedback.Event{ID: id, Emotion: emotion, Timestamp: now.Add(-ago)}
}

func TestAC200_Window_ShowsNewestReactionsFirst(t *testing.T) {
	events := []feedback.Event{
		reaction("oldest", feedback.EmotionHappy, 3*time.Hour),
		reaction("newest", feedback.EmotionHappy, time.Hour),
		reaction("middle", feedback.EmotionHappy, 2*time.Hour),
	}

	feed := Window(events, FeedOptions{})

	expectedOrder := []string{"newest", "middle", "oldest"}
	for i, expectedID := range expectedOrder {
		if feed[i].ID != expectedID {
			t.Errorf("position %d: teacher should see %s, got %s", i+1, expectedID, feed[i].ID)
		}
	}
}

func TestAC201_Window_ShowsOnlyReactionsWithinRange(t *testing.T) {
	events := []feedback.Event{
		reaction("recent", feedback.EmotionHappy, time.Minute),
		reaction("half-hour", feedback.EmotionSad, 30*time.Minute),
		reaction("yesterday", feedback.EmotionSad, 24*time.Hour),
	}

	feed := Window(events, FeedOptions{Since: now.Add(-40 * time.Minute), Until: now.Add(-20 * time.Minute)})

	if len(feed) != 1 || feed[0].ID != "half-hour" {
		t.Errorf("teacher should see only the half-hour reaction, got %+v", feed)
	}
}

func TestAC204_Window_RespectsLimit(t *testing.T) {
	var events []feedback.Event
	for i := 0; i < 5; i++ {
		events = append(events, reaction(string(rune('a'+i)), feedback.EmotionHappy, time.Duration(i)*time.Minute))
	}

	feed := Window(events, FeedOptions{Limit: 2})

	if len(feed) != 2 {
		t.Fatalf("limit 2 should give 2 reactions, got %d", len(feed))
	}
	if feed[0].ID != "a" || feed[1].ID != "b" {
		t.Error("limit should keep the newest reactions")
	}
}

func TestAC205_Window_HandlesEmptyInput(t *testing.T) {
	feed := Window(nil, FeedOptions{})

	if feed == nil {
		t.Fatal("window should return empty slice, not nil")
	}
	if len(feed) != 0 {
		t.Errorf("expected no reactions, got %d", len(feed))
	}
}

func TestAC206_Window_DoesNotReorderCallerSlice(t *testing.T) {
	events := []feedback.Event{
		reaction("old", feedback.EmotionHappy, time.Hour),
		reaction("new", feedback.EmotionHappy, time.Minute),
	}

	Window(events, FeedOptions{})

	if events[0].ID != "old" {
		t.Error("window should not sort the caller's slice in place")
	}
}

func TestAC210_Stats_RoundPercentages(t *testing.T) {
	events := []feedback.Event{
		reaction("1", feedback.EmotionHappy, 0),
		reaction("2", feedback.EmotionHappy, 0),
		reaction("3", feedback.EmotionConfused, 0),
	}

	stats := ComputeStats(events)

	if stats.Total != 3 {
		t.Errorf("total = %d, want 3", stats.Total)
	}
	if stats.Happy != 67 || stats.Confused != 33 {
		t.Errorf("expected 67%% happy and 33%% confused, got %+v", stats)
	}
	if stats.Surprised != 0 || stats.Sad != 0 {
		t.Errorf("absent emotions should be 0%%, got %+v", stats)
	}
}

func TestAC211_Stats_EmptyListIsAllZero(t *testing.T) {
	if stats := ComputeStats(nil); stats != (Stats{}) {
		t.Errorf("no reactions should give all-zero stats, got %+v", stats)
	}
}

func TestAC212_Stats_CountsAddUpToTotal(t *testing.T) {
	emotions := []feedback.Emotion{
		feedback.EmotionHappy, feedback.EmotionSad, feedback.EmotionSad,
		feedback.EmotionConfused, feedback.EmotionSurprised, feedback.EmotionHappy, feedback.EmotionSad,
	}
	var events []feedback.Event
	for i, e := range emotions {
		events = append(events, reaction(string(rune('a'+i)), e, 0))
	}

	counts := countEmotions(events)
	sum := 0
	for _, n := range counts {
		sum += n
	}

	if sum != len(events) {
		t.Errorf("sum of counts = %d, want %d", sum, len(events))
	}
	stats := ComputeStats(events)
	if pctSum := stats.Happy + stats.Sad + stats.Confused + stats.Surprised; pctSum < 99 || pctSum > 101 {
		t.Errorf("percentages should add up to about 100, got %d", pctSum)
	}
}

func TestAC220_Feed_KeepsEightMostRecent(t *testing.T) {
	var events []feedback.Event
	for i := 0; i < 12; i++ {
		events = append(events, reaction(string(rune('a'+i)), feedback.EmotionHappy, time.Duration(i)*time.Minute))
	}

	feed := Feed(events, FeedSize)

	if len(feed) != 8 {
		t.Fatalf("feed should hold 8 reactions, got %d", len(feed))
	}
	if feed[0].ID != "a" || feed[7].ID != "h" {
		t.Errorf("feed should hold the 8 newest reactions, got first %s last %s", feed[0].ID, feed[7].ID)
	}
}

func TestBucket_Dominant(t *testing.T) {
	tests := []struct {
		name   string
		bucket Bucket
		want   feedback.Emotion
	}{
		{"empty bucket", Bucket{}, feedback.EmotionHappy},
		{"clear winner", Bucket{Happy: 0.2, Sad: 0.8}, feedback.EmotionSad},
		{"tie prefers earlier emotion", Bucket{Surprised: 0.5, Confused: 0.5}, feedback.EmotionSurprised},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got, _ := tt.bucket.Dominant(); got != tt.want {
				t.Errorf("Dominant() = %s, want %s", got, tt.want)
			}
		})
	}
}
