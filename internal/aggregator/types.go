// Package aggregator turns a merged reaction list into dashboard figures.
//
// This package enables classpulse to:
// - Break reactions down into per-emotion percentages
// - Bucket reactions over time for the live window or the whole session
// - Pick the latest reactions for the rolling feed
package aggregator

import (
	"time"

	"github.com/gauthierbraillon/classpulse/internal/feedback"
)

const (
	// LiveWindow is how far back a live session looks.
	LiveWindow = 15 * time.Minute
	// LiveBuckets is the number of one-minute buckets in the live timeline.
	LiveBuckets = 15
	// SessionBucketWidth is the target width of a bucket for an ended session.
	SessionBucketWidth = 5 * time.Minute
	// MinSessionBuckets and MaxSessionBuckets clamp the ended timeline.
	MinSessionBuckets = 12
	MaxSessionBuckets = 30
	// FeedSize is the number of reactions in the rolling feed.
	FeedSize = 8
)

// Stats holds per-emotion percentages over a set of reactions.
type Stats struct {
	Total     int `json:"total"`
	Happy     int `json:"happy"`
	Confused  int `json:"confused"`
	Surprised int `json:"surprised"`
	Sad       int `json:"sad"`
}

// Bucket holds the share of each emotion within one time slot.
type Bucket struct {
	Happy     float64 `json:"happy"`
	Surprised float64 `json:"surprised"`
	Confused  float64 `json:"confused"`
	Sad       float64 `json:"sad"`
}

// Dominant returns the emotion with the largest share, preferring happy,
// surprised, confused then sad on ties. Empty buckets report happy.
func (b Bucket) Dominant() (feedback.Emotion, float64) {
	emotion, share := feedback.EmotionHappy, b.Happy
	if b.Surprised > share {
		emotion, share = feedback.EmotionSurprised, b.Surprised
	}
	if b.Confused > share {
		emotion, share = feedback.EmotionConfused, b.Confused
	}
	if b.Sad > share {
		emotion, share = feedback.EmotionSad, b.Sad
	}
	return emotion, share
}

// FeedOptions configures reaction filtering.
type FeedOptions struct {
	Limit int
	Since time.Time
	Until time.Time
}

// Snapshot is everything a dashboard renders for one instant.
type Snapshot struct {
	ActivityID   string           `json:"activity_id"`
	Title        string           `json:"title"`
	AccessCode   string           `json:"access_code"`
	Ended        bool             `json:"ended"`
	SessionStart time.Time        `json:"session_start,omitzero"`
	SessionEnd   time.Time        `json:"session_end,omitzero"`
	Stats        Stats            `json:"stats"`
	Timeline     []Bucket         `json:"timeline"`
	Axis         []string         `json:"axis"`
	Feed         []feedback.Event `json:"feed"`
	Error        string           `json:"error,omitempty"`
	GeneratedAt  time.Time        `json:"generated_at"`
}
