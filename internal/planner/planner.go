// Package planner implements the Placer/Optimizer (C5): priority-scored
// placement of pending work items into the day's free gaps and backward
// planning for deadline-driven work, both deterministic for the same
// inputs. The package has no separate reschedule-all operation.
// This is pure decision logic; internal/engine is responsible for
// committing placements to the Store atomically, one item at a time, per
// spec.md §4.5 rule 5.
package planner

import (
	"sort"
	"time"

	"studyloop/internal/core"
	"studyloop/internal/gap"
)

// Kind is the closed set of pending-item categories the priority sweep
// orders by.
type Kind string

const (
	KindOverdue      Kind = "overdue"
	KindDueToday     Kind = "due_today"
	KindExamPrep     Kind = "exam_prep"
	KindUrgentLab    Kind = "urgent_lab"
	KindRevisionDue  Kind = "revision_due"
	KindAssignment   Kind = "assignment"
	KindRegularStudy Kind = "regular_study"
	KindFreeTime     Kind = "free_time"
)

// basePriority is the fixed integer score per item kind (spec.md §4.5).
var basePriority = map[Kind]int{
	KindOverdue:      100,
	KindDueToday:     90,
	KindExamPrep:     85,
	KindUrgentLab:    75,
	KindRevisionDue:  65,
	KindAssignment:   60,
	KindRegularStudy: 50,
	KindFreeTime:     10,
}

// Item is one unit of pending work competing for placement.
type Item struct {
	ID             string
	Kind           Kind
	SubjectCode    string
	SubjectCredits int
	SubjectType    core.SubjectType
	DurationMins   int
	Deadline       time.Time // zero value means no deadline
	IsDeepWork     bool
}

// Placement is a committed (item, gap-window) assignment.
type Placement struct {
	ItemID     string
	Start      time.Time
	End        time.Time
	IsDeepWork bool
}

// Unplaced records why an item could not be placed.
type Unplaced struct {
	ItemID string
	Reason string
}

// Result is the outcome of one priority sweep.
type Result struct {
	Placements []Placement
	Unplaced   []Unplaced
}

const (
	minBreakAfterStudyDefault = 15
	maxStudyBlockDefault      = 90
	deepWorkGapThreshold      = 90
)

// Options configures placement constraints, sourced from DailyRoutineConfig.
type Options struct {
	MinBreakAfterStudy int
	MaxStudyBlockMins  int
	Now                time.Time
}

func (o Options) withDefaults() Options {
	if o.MinBreakAfterStudy <= 0 {
		o.MinBreakAfterStudy = minBreakAfterStudyDefault
	}
	if o.MaxStudyBlockMins <= 0 {
		o.MaxStudyBlockMins = maxStudyBlockDefault
	}
	return o
}

// sortItems orders the pending set by priority desc, then subject.credits
// desc, then earliest deadline, then longer duration first — all ties
// broken by ID for full determinism (spec.md §4.5 "Determinism").
func sortItems(items []Item) []Item {
	out := make([]Item, len(items))
	copy(out, items)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if pa, pb := basePriority[a.Kind], basePriority[b.Kind]; pa != pb {
			return pa > pb
		}
		if a.SubjectCredits != b.SubjectCredits {
			return a.SubjectCredits > b.SubjectCredits
		}
		ad, bd := a.Deadline.IsZero(), b.Deadline.IsZero()
		if ad != bd {
			return !ad // non-zero deadline sorts first
		}
		if !ad && !a.Deadline.Equal(b.Deadline) {
			return a.Deadline.Before(b.Deadline)
		}
		if a.DurationMins != b.DurationMins {
			return a.DurationMins > b.DurationMins
		}
		return a.ID < b.ID
	})
	return out
}

// morningPeak and eveningPeak bound the match-score bonuses of spec.md §4.5.
func isMorningPeak(h int) bool { return h >= 6 && h < 12 }
func isEveningPeak(h int) bool { return h >= 17 && h < 21 }

// matchScore scores placing item into a candidate gap starting at gapStart
// with the given gap duration, per spec.md §4.5 rule 1.
func matchScore(item Item, g gap.Gap, now time.Time) int {
	score := 0
	if item.IsDeepWork && g.DurationMins() >= deepWorkGapThreshold {
		score += 20
	}
	hour := g.Start.Hour()
	switch item.SubjectType {
	case core.SubjectConceptHeavy:
		if isMorningPeak(hour) {
			score += 20
		} else if isEveningPeak(hour) {
			score -= 10
		}
	case core.SubjectPracticeHeavy:
		if isEveningPeak(hour) {
			score += 20
		} else if isMorningPeak(hour) {
			score -= 10
		}
	}
	if !item.Deadline.IsZero() {
		daysUntil := int(item.Deadline.Sub(now).Hours() / 24)
		if daysUntil > 0 {
			score += 2 * daysUntil
		}
	}
	return score
}

// Place runs one priority sweep, assigning each item the best-scoring gap
// that still fits it, consuming gap capacity as it goes (spec.md §4.5 rules
// 1-4; rule 5's atomic commit is the caller's responsibility).
func Place(items []Item, gaps []gap.Gap, opts Options) Result {
	opts = opts.withDefaults()
	if opts.Now.IsZero() {
		opts.Now = time.Now()
	}

	remaining := make([]gap.Gap, len(gaps))
	copy(remaining, gaps)
	sort.Slice(remaining, func(i, j int) bool { return remaining[i].Start.Before(remaining[j].Start) })

	var result Result
	for _, item := range sortItems(items) {
		idx, ok := bestGap(item, remaining, opts.Now)
		if !ok {
			result.Unplaced = append(result.Unplaced, Unplaced{ItemID: item.ID, Reason: "no gap large enough"})
			continue
		}

		g := remaining[idx]
		start := g.Start
		end := start.Add(time.Duration(item.DurationMins) * time.Minute)

		slack := 0
		if item.DurationMins >= opts.MaxStudyBlockMins {
			slack = opts.MinBreakAfterStudy
		}
		consumedEnd := end.Add(time.Duration(slack) * time.Minute)

		result.Placements = append(result.Placements, Placement{ItemID: item.ID, Start: start, End: end, IsDeepWork: item.IsDeepWork})

		if consumedEnd.Before(g.End) {
			remaining[idx] = gap.Gap{Start: consumedEnd, End: g.End, Size: g.Size}
		} else {
			remaining = append(remaining[:idx], remaining[idx+1:]...)
		}
	}
	return result
}

func bestGap(item Item, gaps []gap.Gap, now time.Time) (int, bool) {
	best := -1
	bestScore := 0
	for i, g := range gaps {
		if g.DurationMins() < item.DurationMins {
			continue
		}
		score := matchScore(item, g, now)
		if best == -1 || score > bestScore {
			best = i
			bestScore = score
		}
	}
	return best, best != -1
}
