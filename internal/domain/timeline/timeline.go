// Package timeline converts chronological classification records into
// renderable segments with point lookup and a textual summary.
package timeline

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/gabriel-accetta/piano-posture-analyzer/internal/domain/model"
)

// Sample is one timestamped classification, the minimal input the
// aggregator needs regardless of domain.
type Sample struct {
	Timestamp int                  `json:"timestamp"` // seconds from session start
	Label     model.Classification `json:"label"`
}

// Segment is a derived, contiguous interval with a constant classification.
// Width is the segment's share of the total duration in percent.
type Segment struct {
	Start    float64              `json:"start_time"`
	End      float64              `json:"end_time"`
	Label    model.Classification `json:"classification"`
	Severity model.Severity       `json:"severity"`
	Width    float64              `json:"width_percentage"`
}

// Timeline is the aggregated view of one track. A timeline built from no
// samples reports HasData() == false and has no segments; that is a
// renderable state, not an error.
type Timeline struct {
	segments []Segment
	total    float64
}

// Build aggregates samples into contiguous segments. Samples are sorted by
// timestamp first; each sample marks the end of a constant-classification
// interval, the first interval starting at 0.
func Build(samples []Sample) *Timeline {
	if len(samples) == 0 {
		return &Timeline{}
	}

	sorted := make([]Sample, len(samples))
	copy(sorted, samples)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp < sorted[j].Timestamp
	})

	total := float64(sorted[len(sorted)-1].Timestamp)
	t := &Timeline{
		segments: make([]Segment, 0, len(sorted)),
		total:    total,
	}

	start := 0.0
	for _, s := range sorted {
		end := float64(s.Timestamp)
		width := 0.0
		if total > 0 {
			width = (end - start) / total * 100
		}
		t.segments = append(t.segments, Segment{
			Start:    start,
			End:      end,
			Label:    s.Label,
			Severity: s.Label.Severity(),
			Width:    width,
		})
		start = end
	}
	return t
}

// HasData reports whether the timeline holds any segments.
func (t *Timeline) HasData() bool { return len(t.segments) > 0 }

// Segments returns the contiguous segment sequence.
func (t *Timeline) Segments() []Segment { return t.segments }

// Duration returns the total session duration in seconds.
func (t *Timeline) Duration() float64 { return t.total }

// At resolves a relative position in [0,1] along the total duration to its
// containing segment. Positions outside [0,1] are clamped. Boundary ties
// resolve to the later segment, which makes the lookup total: every
// position maps to exactly one segment. Returns false only on a no-data
// timeline.
func (t *Timeline) At(position float64) (Segment, bool) {
	if !t.HasData() {
		return Segment{}, false
	}
	position = math.Max(0, math.Min(1, position))
	ts := position * t.total

	for i, seg := range t.segments {
		if i == len(t.segments)-1 {
			return seg, true
		}
		if ts >= seg.Start && ts < seg.End {
			return seg, true
		}
	}
	// Unreachable: the last segment is always returned above.
	return t.segments[len(t.segments)-1], true
}

// Summarize tallies occurrence counts per label and reports rounded
// percentages as one line of text, e.g. "10% Correct, 90% Slouched".
// Labels appear in chronological first-seen order. Returns "" for no
// samples.
func Summarize(samples []Sample) string {
	if len(samples) == 0 {
		return ""
	}

	sorted := make([]Sample, len(samples))
	copy(sorted, samples)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp < sorted[j].Timestamp
	})

	counts := make(map[model.Classification]int)
	order := make([]model.Classification, 0)
	for _, s := range sorted {
		if _, seen := counts[s.Label]; !seen {
			order = append(order, s.Label)
		}
		counts[s.Label]++
	}

	parts := make([]string, 0, len(order))
	total := float64(len(sorted))
	for _, label := range order {
		pct := math.Round(float64(counts[label]) / total * 100)
		parts = append(parts, fmt.Sprintf("%d%% %s", int(pct), label))
	}
	return strings.Join(parts, ", ")
}

// FromHandRecords adapts a normalized hand track to aggregator samples.
func FromHandRecords(records []model.HandRecord) []Sample {
	out := make([]Sample, 0, len(records))
	for _, r := range records {
		out = append(out, Sample{Timestamp: r.Timestamp, Label: r.Classification})
	}
	return out
}

// FromBodyRecords adapts a normalized body track to aggregator samples.
func FromBodyRecords(records []model.BodyRecord) []Sample {
	out := make([]Sample, 0, len(records))
	for _, r := range records {
		out = append(out, Sample{Timestamp: r.Timestamp, Label: r.Classification})
	}
	return out
}
