package pipeline

import (
	"fmt"
	"log"
	"time"
)

// GapPhase classifies a bucket relative to the monitoring interruption.
type GapPhase int

const (
	PreGap GapPhase = iota
	InGap
	PostGap
)

func (p GapPhase) String() string {
	switch p {
	case PreGap:
		return "pre_gap"
	case InGap:
		return "in_gap"
	default:
		return "post_gap"
	}
}

// GapInterval is the closed date range during which surveying was suspended.
type GapInterval struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether d falls inside the closed interval.
func (g GapInterval) Contains(d time.Time) bool {
	return !d.Before(g.Start) && !d.After(g.End)
}

// Options carries the fixed pipeline configuration.
type Options struct {
	// Floor is the earliest permitted timeline start. Every timeline begins
	// at the quarter containing this date regardless of where the data
	// starts: later data is padded back to it, earlier data is clamped to it.
	Floor time.Time
	Gap   GapInterval
	// MaxComparisonSites caps the comparison entity list per request.
	MaxComparisonSites int
}

// Validate rejects malformed options. Called once at startup.
func (o Options) Validate() error {
	if o.Floor.IsZero() {
		return &ConfigError{Option: "timeline_floor_date", Reason: "is required"}
	}
	if o.Gap.Start.IsZero() || o.Gap.End.IsZero() {
		return &ConfigError{Option: "gap interval", Reason: "start and end dates are required"}
	}
	if o.Gap.End.Before(o.Gap.Start) {
		return &ConfigError{Option: "gap_end_date", Reason: fmt.Sprintf("%s is before gap start %s",
			o.Gap.End.Format("2006-01-02"), o.Gap.Start.Format("2006-01-02"))}
	}
	if !o.Floor.Before(o.Gap.Start) {
		return &ConfigError{Option: "timeline_floor_date", Reason: fmt.Sprintf("%s is not before gap start %s",
			o.Floor.Format("2006-01-02"), o.Gap.Start.Format("2006-01-02"))}
	}
	if o.MaxComparisonSites <= 0 {
		return &ConfigError{Option: "max_comparison_sites", Reason: "must be positive"}
	}
	return nil
}

// Bucket is one calendar-quarter slot on the shared chart x-axis.
type Bucket struct {
	Start time.Time `json:"start"`
	Label string    `json:"label"`
	Phase GapPhase  `json:"-"`
}

// Timeline is the canonical ordered bucket sequence for one request.
type Timeline struct {
	Buckets []Bucket
}

// NewTimeline builds contiguous quarter buckets from the configured floor
// through the quarter containing rawEnd. rawStart only feeds the clamp
// diagnostic; the effective start is always the floor quarter. A zero rawEnd
// yields an empty timeline (nothing to plot).
func NewTimeline(rawStart, rawEnd time.Time, opts Options) Timeline {
	if rawEnd.IsZero() {
		return Timeline{}
	}

	start := quarterStart(opts.Floor)
	end := quarterStart(rawEnd)
	if end.Before(start) {
		return Timeline{}
	}

	if !rawStart.IsZero() && !quarterStart(rawStart).Equal(start) {
		log.Printf("timeline: clamped range [%s, %s] to [%s, %s]",
			rawStart.Format("2006-01-02"), rawEnd.Format("2006-01-02"),
			start.Format("2006-01-02"), rawEnd.Format("2006-01-02"))
	}

	var buckets []Bucket
	for cur := start; !cur.After(end); cur = cur.AddDate(0, 3, 0) {
		buckets = append(buckets, Bucket{
			Start: cur,
			Label: seasonLabel(cur),
			Phase: classifyPhase(cur, opts.Gap),
		})
	}
	return Timeline{Buckets: buckets}
}

// IsEmpty reports whether the timeline holds no buckets.
func (tl Timeline) IsEmpty() bool {
	return len(tl.Buckets) == 0
}

// Labels returns the bucket labels in order.
func (tl Timeline) Labels() []string {
	labels := make([]string, len(tl.Buckets))
	for i, b := range tl.Buckets {
		labels[i] = b.Label
	}
	return labels
}

// IndexFor maps a survey date to its nearest bucket, clamped into the
// timeline. Returns -1 when the timeline is empty.
func (tl Timeline) IndexFor(d time.Time) int {
	if len(tl.Buckets) == 0 {
		return -1
	}
	q := quarterStart(d)
	next := q.AddDate(0, 3, 0)
	nearest := q
	if d.Sub(q) > next.Sub(d) {
		nearest = next
	}
	idx := quartersBetween(tl.Buckets[0].Start, nearest)
	if idx < 0 {
		return 0
	}
	if idx >= len(tl.Buckets) {
		return len(tl.Buckets) - 1
	}
	return idx
}

// IndexForLabel finds a bucket by its seasonal label, or -1.
func (tl Timeline) IndexForLabel(label string) int {
	for i, b := range tl.Buckets {
		if b.Label == label {
			return i
		}
	}
	return -1
}

// LastPreGapIndex returns the index of the final bucket before the gap,
// or -1 when no bucket precedes it.
func (tl Timeline) LastPreGapIndex() int {
	idx := -1
	for i, b := range tl.Buckets {
		if b.Phase == PreGap {
			idx = i
		}
	}
	return idx
}

// FirstPostGapIndex returns the index of the first bucket after the gap,
// or -1 when the timeline ends inside or before it.
func (tl Timeline) FirstPostGapIndex() int {
	for i, b := range tl.Buckets {
		if b.Phase == PostGap {
			return i
		}
	}
	return -1
}

func classifyPhase(start time.Time, gap GapInterval) GapPhase {
	if start.Before(gap.Start) {
		return PreGap
	}
	if start.After(gap.End) {
		return PostGap
	}
	return InGap
}

// quarterStart truncates a date to the first day of its calendar quarter.
func quarterStart(t time.Time) time.Time {
	month := time.Month(((int(t.Month())-1)/3)*3 + 1)
	return time.Date(t.Year(), month, 1, 0, 0, 0, 0, time.UTC)
}

func quartersBetween(from, to time.Time) int {
	return (to.Year()-from.Year())*4 + (int(to.Month())-int(from.Month()))/3
}

var seasonNames = map[time.Month]string{
	time.December: "DEC-FEB", time.January: "DEC-FEB", time.February: "DEC-FEB",
	time.March: "MAR-MAY", time.April: "MAR-MAY", time.May: "MAR-MAY",
	time.June: "JUN-AUG", time.July: "JUN-AUG", time.August: "JUN-AUG",
	time.September: "SEP-NOV", time.October: "SEP-NOV", time.November: "SEP-NOV",
}

// seasonLabel renders the human-readable label for a bucket start, e.g.
// a quarter starting 2022-04-01 is shown as "MAR-MAY 2022".
func seasonLabel(start time.Time) string {
	return fmt.Sprintf("%s %d", seasonNames[start.Month()], start.Year())
}
