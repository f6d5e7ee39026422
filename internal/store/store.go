// Package store persists the merged reaction list of each activity so a
// dashboard reopened later starts from what it already knew.
package store

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"

	"github.com/gauthierbraillon/classpulse/internal/feedback"
)

// KeyPrefix is prepended to the activity id to form the cache key.
const KeyPrefix = "classpulse_feedback_activity_"

// KV is a string-keyed value store. Implementations may fail on any call;
// callers decide whether a failure matters.
type KV interface {
	Get(ctx context.Context, key string) (value string, found bool, err error)
	Set(ctx context.Context, key, value string) error
}

// FeedbackStore caches merged reactions per activity on top of a KV.
// It never fails: unreadable or unwritable entries degrade to an empty list.
type FeedbackStore struct {
	kv     KV
	logger *slog.Logger
}

// Option configures a FeedbackStore.
type Option func(*FeedbackStore)

// WithLogger sets the logger used to report swallowed failures.
func WithLogger(logger *slog.Logger) Option {
	return func(s *FeedbackStore) {
		s.logger = logger
	}
}

// NewFeedbackStore wraps kv.
func NewFeedbackStore(kv KV, opts ...Option) *FeedbackStore {
	s := &FeedbackStore{
		kv:     kv,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Key returns the cache key for an activity.
func Key(activityID string) string {
	return KeyPrefix + activityID
}

// Load returns the cached reactions for an activity, or an empty list.
func (s *FeedbackStore) Load(ctx context.Context, activityID string) []feedback.Event {
	empty := []feedback.Event{}

	value, found, err := s.kv.Get(ctx, Key(activityID))
	if err != nil {
		s.logger.Debug("feedback cache read failed", "activity", activityID, "error", err)
		return empty
	}
	if !found || value == "" {
		return empty
	}

	events, err := feedback.DecodeEvents([]byte(value))
	if err != nil {
		s.logger.Debug("feedback cache entry unreadable", "activity", activityID, "error", err)
		return empty
	}
	return events
}

// Save stores the reactions for an activity. Failures are logged and dropped.
func (s *FeedbackStore) Save(ctx context.Context, activityID string, events []feedback.Event) {
	if events == nil {
		events = []feedback.Event{}
	}
	data, err := json.Marshal(events)
	if err != nil {
		s.logger.Debug("feedback cache encode failed", "activity", activityID, "error", err)
		return
	}
	if err := s.kv.Set(ctx, Key(activityID), string(data)); err != nil {
		s.logger.Debug("feedback cache write failed", "activity", activityID, "error", err)
	}
}
