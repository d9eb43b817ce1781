package planner

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/vytor/studyflash/internal/models"
)

// DefaultDurationMinutes is assumed for activities without a duration.
const DefaultDurationMinutes = 60

const (
	defaultStep           = 15
	defaultDayStart       = 6 * 60
	defaultDayEnd         = 23 * 60
	defaultMaxSuggestions = 3

	clearanceBuffer = 30
	wakingStart     = 8 * 60
	wakingEnd       = 21 * 60
)

type Severity string

const (
	SeverityPartial  Severity = "partial"
	SeverityMajor    Severity = "major"
	SeverityComplete Severity = "complete"
)

type Label string

const (
	LabelOptimal Label = "Optimal"
	LabelGreat   Label = "Great"
	LabelGood    Label = "Good"
)

type Conflict struct {
	Activity       models.Activity `json:"activity"`
	OverlapMinutes int             `json:"overlap_minutes"`
	Severity       Severity        `json:"severity"`
}

// Suggestion is a free gap in the day. SlotStart is where the requested
// activity fits best inside it.
type Suggestion struct {
	Start            string `json:"start"`
	End              string `json:"end"`
	SlotStart        string `json:"slot_start"`
	AvailableMinutes int    `json:"available_minutes"`
	Label            Label  `json:"label"`
	Score            int    `json:"score"`
}

type Report struct {
	Conflicts   []Conflict   `json:"conflicts"`
	Suggestions []Suggestion `json:"suggestions"`
}

// HasConflicts reports whether any existing activity overlaps.
func (r Report) HasConflicts() bool { return len(r.Conflicts) > 0 }

type options struct {
	step           int
	dayStart       int
	dayEnd         int
	maxSuggestions int
}

type Option func(*options)

// WithStep sets the scan increment in minutes.
func WithStep(minutes int) Option {
	return func(o *options) {
		if minutes > 0 {
			o.step = minutes
		}
	}
}

// WithDayBounds limits suggestions to [start, end), in minutes since midnight.
func WithDayBounds(start, end int) Option {
	return func(o *options) {
		if start >= 0 && end > start && end <= 24*60 {
			o.dayStart, o.dayEnd = start, end
		}
	}
}

func WithMaxSuggestions(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxSuggestions = n
		}
	}
}

type span struct {
	start, end int
	activity   models.Activity
}

// DetectConflicts finds the existing activities that overlap newActivity and
// proposes free slots for it on the same day. Existing activities without a
// start time, on another date, or with the same ID are ignored. If the new
// activity has no start time only suggestions are produced.
func DetectConflicts(newActivity models.Activity, existing []models.Activity, opts ...Option) Report {
	o := options{
		step:           defaultStep,
		dayStart:       defaultDayStart,
		dayEnd:         defaultDayEnd,
		maxSuggestions: defaultMaxSuggestions,
	}
	for _, opt := range opts {
		opt(&o)
	}

	duration := durationOf(newActivity)
	busy := busySpans(newActivity, existing)

	report := Report{Conflicts: []Conflict{}}
	if start, err := ParseClock(newActivity.StartTime); err == nil {
		end := start + duration
		for _, b := range busy {
			if !(start < b.end && b.start < end) {
				continue
			}
			overlap := min(end, b.end) - max(start, b.start)
			report.Conflicts = append(report.Conflicts, Conflict{
				Activity:       b.activity,
				OverlapMinutes: overlap,
				Severity:       classify(overlap, duration),
			})
		}
	}

	report.Suggestions = suggest(busy, duration, o)
	return report
}

// classify buckets an overlap. Exactly half of the new activity is major.
func classify(overlap, duration int) Severity {
	switch {
	case overlap >= duration:
		return SeverityComplete
	case overlap*2 >= duration:
		return SeverityMajor
	default:
		return SeverityPartial
	}
}

func durationOf(a models.Activity) int {
	if a.DurationMinutes > 0 {
		return a.DurationMinutes
	}
	return DefaultDurationMinutes
}

func busySpans(newActivity models.Activity, existing []models.Activity) []span {
	spans := make([]span, 0, len(existing))
	for _, a := range existing {
		if newActivity.ID != 0 && a.ID == newActivity.ID {
			continue
		}
		if newActivity.Date != "" && a.Date != "" && a.Date != newActivity.Date {
			continue
		}
		start, err := ParseClock(a.StartTime)
		if err != nil {
			continue
		}
		spans = append(spans, span{start: start, end: start + durationOf(a), activity: a})
	}
	sort.SliceStable(spans, func(i, j int) bool { return spans[i].start < spans[j].start })
	return spans
}

func suggest(busy []span, duration int, o options) []Suggestion {
	var out []Suggestion
	t := o.dayStart
	for t+duration <= o.dayEnd && len(out) < o.maxSuggestions {
		if !free(busy, t, t+duration) {
			t += o.step
			continue
		}

		gapEnd := o.dayEnd
		for _, b := range busy {
			if b.start >= t+duration && b.start < gapEnd {
				gapEnd = b.start
			}
		}
		out = append(out, rate(busy, t, gapEnd, duration, o))

		// resume on the step grid after the gap
		next := gapEnd
		if off := (next - o.dayStart) % o.step; off != 0 {
			next += o.step - off
		}
		if next <= t {
			next = t + o.step
		}
		t = next
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	return out
}

func free(busy []span, start, end int) bool {
	for _, b := range busy {
		if start < b.end && b.start < end {
			return false
		}
	}
	return true
}

// rate places the activity inside the gap [gapStart, gapEnd) and scores the
// placement: one point each for clearing the previous and next activity by
// the buffer, one for sitting inside waking hours.
func rate(busy []span, gapStart, gapEnd, duration int, o options) Suggestion {
	prevEnd, hasPrev := -1, false
	nextStart, hasNext := -1, false
	for _, b := range busy {
		if b.end <= gapStart && (!hasPrev || b.end > prevEnd) {
			prevEnd, hasPrev = b.end, true
		}
		if b.start >= gapEnd && (!hasNext || b.start < nextStart) {
			nextStart, hasNext = b.start, true
		}
	}

	fits := func(s int) bool { return s >= gapStart && s+duration <= gapEnd }
	slot := gapStart
	if hasPrev && slot-prevEnd < clearanceBuffer {
		if c := alignUp(prevEnd+clearanceBuffer, o); fits(c) {
			slot = c
		}
	}
	if slot < wakingStart && fits(wakingStart) {
		slot = wakingStart
	}

	score := 0
	if !hasPrev || slot-prevEnd >= clearanceBuffer {
		score++
	}
	if !hasNext || nextStart-(slot+duration) >= clearanceBuffer {
		score++
	}
	if slot >= wakingStart && slot+duration <= wakingEnd {
		score++
	}

	label := LabelGood
	switch score {
	case 3:
		label = LabelOptimal
	case 2:
		label = LabelGreat
	}

	return Suggestion{
		Start:            FormatClock(gapStart),
		End:              FormatClock(gapEnd),
		SlotStart:        FormatClock(slot),
		AvailableMinutes: gapEnd - gapStart,
		Label:            label,
		Score:            score,
	}
}

func alignUp(m int, o options) int {
	if off := (m - o.dayStart) % o.step; off > 0 {
		return m + o.step - off
	}
	return m
}

// ParseClock parses "HH:MM" (or "HH:MM:SS") into minutes since midnight.
func ParseClock(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty time")
	}
	parts := strings.Split(s, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, fmt.Errorf("invalid time %q", s)
	}
	h, err := clockField(parts[0], 23)
	if err != nil {
		return 0, fmt.Errorf("invalid hour in %q", s)
	}
	m, err := clockField(parts[1], 59)
	if err != nil {
		return 0, fmt.Errorf("invalid minute in %q", s)
	}
	if len(parts) == 3 {
		if _, err := clockField(parts[2], 59); err != nil {
			return 0, fmt.Errorf("invalid second in %q", s)
		}
	}
	return h*60 + m, nil
}

// clockField parses one or two ASCII digits no greater than limit.
func clockField(f string, limit int) (int, error) {
	if len(f) == 0 || len(f) > 2 {
		return 0, fmt.Errorf("bad field %q", f)
	}
	for _, c := range f {
		if c < '0' || c > '9' {
			return 0, fmt.Errorf("bad field %q", f)
		}
	}
	n, err := strconv.Atoi(f)
	if err != nil || n > limit {
		return 0, fmt.Errorf("bad field %q", f)
	}
	return n, nil
}

// FormatClock renders minutes since midnight as "HH:MM".
func FormatClock(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}
