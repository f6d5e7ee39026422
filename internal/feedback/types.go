// Package feedback holds the canonical shape of student reactions and activities.
//
// This package enables classpulse to:
// - Decode reactions and activities from the ClassPulse API whatever the field casing
// - Identify a reaction uniquely so repeated polls never double count it
// - Merge previously known reactions with freshly fetched ones
package feedback

import (
	"fmt"
	"time"
)

// Emotion is the reaction a student picked.
type Emotion string

const (
	EmotionHappy     Emotion = "happy"
	EmotionSurprised Emotion = "surprised"
	EmotionConfused  Emotion = "confused"
	EmotionSad       Emotion = "sad"
)

// Emotions lists every supported emotion in display order.
var Emotions = []Emotion{EmotionHappy, EmotionConfused, EmotionSurprised, EmotionSad}

// Valid reports whether e is one of the supported emotions.
func (e Emotion) Valid() bool {
	switch e {
	case EmotionHappy, EmotionSurprised, EmotionConfused, EmotionSad:
		return true
	}
	return false
}

// Event is one anonymous reaction tied to an activity.
type Event struct {
	ID        string    `json:"id,omitempty"`
	Emotion   Emotion   `json:"emotion"`
	Timestamp time.Time `json:"timestamp"`
}

// Key returns the identity key used for deduplication.
// Events with an ID are identified by it; the rest by timestamp and emotion.
func (e Event) Key() string {
	if e.ID != "" {
		return "id:" + e.ID
	}
	return fmt.Sprintf("t:%d|e:%s", e.Timestamp.UnixMilli(), e.Emotion)
}

// Activity is a feedback-collection session created by a teacher.
type Activity struct {
	ID         string     `json:"id"`
	Title      string     `json:"title"`
	AccessCode string     `json:"access_code"`
	StartTime  *time.Time `json:"start_time,omitempty"`
	EndTime    *time.Time `json:"end_time,omitempty"`
}

// Epoch is the timestamp given to events whose time is missing or unreadable.
var Epoch = time.UnixMilli(0).UTC()
