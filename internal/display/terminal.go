// Package display provides terminal output formatting for classpulse.
package display

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/gauthierbraillon/classpulse/internal/aggregator"
	"github.com/gauthierbraillon/classpulse/internal/feedback"
)

const (
	separator = " • "
	bars      = " ▁▂▃▄▅▆▇█"
	noValue   = "—"
)

var emotionColors = map[feedback.Emotion]lipgloss.Color{
	feedback.EmotionHappy:     lipgloss.Color("#58a6ff"), // blue
	feedback.EmotionSurprised: lipgloss.Color("#d29922"), // yellow
	feedback.EmotionConfused:  lipgloss.Color("#d2a8ff"), // purple
	feedback.EmotionSad:       lipgloss.Color("#f85149"), // red
}

var emotionEmoji = map[feedback.Emotion]string{
	feedback.EmotionHappy:     "😄",
	feedback.EmotionSurprised: "😮",
	feedback.EmotionConfused:  "🤔",
	feedback.EmotionSad:       "😣",
}

type card struct {
	label   string
	emotion feedback.Emotion
	value   func(aggregator.Stats) int
}

var cards = []card{
	{"UNDERSTANDING", feedback.EmotionHappy, func(s aggregator.Stats) int { return s.Happy }},
	{"CONFUSED", feedback.EmotionConfused, func(s aggregator.Stats) int { return s.Confused }},
	{"SURPRISED", feedback.EmotionSurprised, func(s aggregator.Stats) int { return s.Surprised }},
	{"LOST", feedback.EmotionSad, func(s aggregator.Stats) int { return s.Sad }},
}

var (
	titleStyle = lipgloss.NewStyle().Bold(true)
	mutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#8b949e"))
	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#f85149")).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#f85149")).
			Padding(0, 1)
	cardStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			Padding(0, 1).
			Width(20)
)

// TerminalFormatter formats dashboard snapshots for terminal display.
type TerminalFormatter struct {
	location *time.Location
}

// Option configures a TerminalFormatter.
type Option func(*TerminalFormatter)

// WithLocation sets the zone used for wall-clock times (default: local).
func WithLocation(loc *time.Location) Option {
	return func(f *TerminalFormatter) {
		f.location = loc
	}
}

// NewTerminalFormatter creates a new terminal formatter.
func NewTerminalFormatter(opts ...Option) *TerminalFormatter {
	f := &TerminalFormatter{location: time.Local}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// FormatDashboard renders a full dashboard: header, error, stats, timeline and feed.
func (f *TerminalFormatter) FormatDashboard(snap aggregator.Snapshot, now time.Time) string {
	sections := []string{f.FormatHeader(snap)}

	if snap.Error != "" {
		sections = append(sections, errorStyle.Render(snap.Error))
	}

	sections = append(sections,
		f.FormatStats(snap.Stats),
		f.formatTimelineSection(snap),
		f.formatFeedSection(snap, now),
	)

	return strings.Join(sections, "\n\n") + "\n"
}

// FormatHeader renders the title, access code and, once ended, the session span.
func (f *TerminalFormatter) FormatHeader(snap aggregator.Snapshot) string {
	title := snap.Title
	if title == "" {
		title = "Activity " + snap.ActivityID
	}
	title = f.TruncateText(title, 60)

	code := snap.AccessCode
	if code == "" {
		code = noValue
	}
	meta := "🔑 Code: " + code
	if snap.Ended {
		meta += separator + fmt.Sprintf("Ended (%s–%s)", f.FormatClock(snap.SessionStart), f.FormatClock(snap.SessionEnd))
	} else {
		meta += separator + "Live"
	}

	return titleStyle.Render("🎓 "+title) + "\n" + mutedStyle.Render(meta)
}

// FormatStats renders one card per emotion with its percentage.
func (f *TerminalFormatter) FormatStats(stats aggregator.Stats) string {
	rendered := make([]string, 0, len(cards))
	for _, c := range cards {
		label := lipgloss.NewStyle().Foreground(emotionColors[c.emotion]).Render(c.label)
		body := fmt.Sprintf("%s %s\n%s", label, emotionEmoji[c.emotion], titleStyle.Render(fmt.Sprintf("%d%%", c.value(stats))))
		rendered = append(rendered, cardStyle.BorderForeground(emotionColors[c.emotion]).Render(body))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, rendered...)
}

func (f *TerminalFormatter) formatTimelineSection(snap aggregator.Snapshot) string {
	title, subtitle := "Live Sentiment Timeline", "Real-time student reactions over the last 15 minutes"
	if snap.Ended {
		title, subtitle = "Sentiment Timeline (Session)", "Reactions across the entire session"
	}

	return strings.Join([]string{
		titleStyle.Render(title),
		mutedStyle.Render(subtitle),
		f.formatLegend(),
		f.FormatTimeline(snap.Timeline, snap.Axis),
	}, "\n")
}

func (f *TerminalFormatter) formatLegend() string {
	items := []struct {
		emotion feedback.Emotion
		name    string
	}{
		{feedback.EmotionHappy, "Happy"},
		{feedback.EmotionSurprised, "Surprised"},
		{feedback.EmotionConfused, "Confused"},
		{feedback.EmotionSad, "Lost"},
	}

	parts := make([]string, 0, len(items))
	for _, item := range items {
		dot := lipgloss.NewStyle().Foreground(emotionColors[item.emotion]).Render("●")
		parts = append(parts, dot+" "+item.name)
	}
	return strings.Join(parts, "  ")
}

// FormatTimeline renders one bar per bucket. A bar's height is the share of
// its dominant emotion and its colour is that emotion's.
func (f *TerminalFormatter) FormatTimeline(buckets []aggregator.Bucket, axis []string) string {
	var b strings.Builder
	for _, bucket := range buckets {
		emotion, share := bucket.Dominant()
		b.WriteString(lipgloss.NewStyle().Foreground(emotionColors[emotion]).Render(BarFor(share)))
	}
	return b.String() + "\n" + FormatAxis(axis, len(buckets))
}

// BarFor maps a share in [0,1] to a block character.
func BarFor(share float64) string {
	runes := []rune(bars)
	share = math.Max(0, math.Min(1, share))
	idx := int(math.Round(share * float64(len(runes)-1)))
	return string(runes[idx])
}

// FormatAxis spreads labels evenly across width columns, the first flush
// left and the last flush right.
func FormatAxis(labels []string, width int) string {
	if len(labels) == 0 {
		return ""
	}
	if len(labels) == 1 {
		return labels[0]
	}

	total := 0
	for _, l := range labels {
		total += lipgloss.Width(l)
	}
	gaps := len(labels) - 1
	space := max(width-total, gaps)

	var b strings.Builder
	for i, l := range labels {
		b.WriteString(l)
		if i < gaps {
			n := space / gaps
			if i < space%gaps {
				n++
			}
			b.WriteString(strings.Repeat(" ", n))
		}
	}
	return b.String()
}

func (f *TerminalFormatter) formatFeedSection(snap aggregator.Snapshot, now time.Time) string {
	title := "Live Feed"
	if snap.Ended {
		title = "Session Feed"
	}
	return titleStyle.Render(title) + "\n" + mutedStyle.Render("Latest reactions") + "\n" + f.FormatFeed(snap.Feed, now)
}

// FormatFeed renders one row per reaction.
func (f *TerminalFormatter) FormatFeed(events []feedback.Event, now time.Time) string {
	if len(events) == 0 {
		return mutedStyle.Render("No reactions yet.")
	}

	rows := make([]string, 0, len(events))
	for _, e := range events {
		rows = append(rows, f.FormatReaction(e, now))
	}
	return strings.Join(rows, "\n")
}

// FormatReaction renders a single anonymous reaction.
func (f *TerminalFormatter) FormatReaction(e feedback.Event, now time.Time) string {
	emoji, ok := emotionEmoji[e.Emotion]
	if !ok {
		emoji = "🙂"
	}
	return fmt.Sprintf("%s  Anonymous Student%sReacted %q%s%s",
		emoji, separator, string(e.Emotion), separator, mutedStyle.Render(f.FormatTimestamp(e.Timestamp, now)))
}

// FormatTimestamp formats a timestamp as relative time, never below one second.
func (f *TerminalFormatter) FormatTimestamp(t, now time.Time) string {
	sec := max(int64(1), int64(now.Sub(t)/time.Second))
	if sec < 60 {
		return fmt.Sprintf("%ds ago", sec)
	}
	minutes := sec / 60
	if minutes < 60 {
		return fmt.Sprintf("%dm ago", minutes)
	}
	return fmt.Sprintf("%dh ago", minutes/60)
}

// FormatClock formats a wall-clock time as HH:MM, or a dash when unset.
func (f *TerminalFormatter) FormatClock(t time.Time) string {
	if t.IsZero() {
		return noValue
	}
	return t.In(f.location).Format("15:04")
}

// TruncateText truncates text to maxLen runes, adding "..." if truncated.
func (f *TerminalFormatter) TruncateText(text string, maxLen int) string {
	runes := []rune(text)
	if len(runes) <= maxLen {
		return text
	}
	if maxLen <= 3 {
		return "..."
	}
	return string(runes[:maxLen-3]) + "..."
}
