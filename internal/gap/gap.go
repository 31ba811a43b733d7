// Package gap computes the free intervals ("gaps") left in a day's Timeline
// after fixed activities and already-placed tasks are subtracted, at
// 1-minute resolution (spec.md §9's resolution decision — not a 30-minute
// slot grid). Pure functions only; no I/O.
package gap

import (
	"sort"
	"time"

	"studyloop/internal/core"
)

// Size classifies a gap by duration, used by the Placer to decide what
// kind of task can fit.
type Size string

const (
	SizeMicro    Size = "micro"     // <= 30 minutes
	SizeStandard Size = "standard"  // 31-89 minutes
	SizeDeepWork Size = "deep_work" // >= 90 minutes
)

// Gap is one free interval, inclusive of Start, exclusive of End.
type Gap struct {
	Start time.Time
	End   time.Time
	Size  Size
}

// DurationMins returns the gap's length in whole minutes.
func (g Gap) DurationMins() int {
	return int(g.End.Sub(g.Start).Minutes())
}

func classify(mins int) Size {
	switch {
	case mins <= 30:
		return SizeMicro
	case mins < 90:
		return SizeStandard
	default:
		return SizeDeepWork
	}
}

// Busy is one occupied interval to subtract from the day, built from both
// fixed Timeline blocks and already-placed Tasks.
type Busy struct {
	Start time.Time
	End   time.Time
}

// Compute returns the free gaps within [dayStart, dayEnd) once every busy
// interval is subtracted, at 1-minute resolution. Overlapping or
// out-of-order busy intervals are tolerated: they are sorted and merged
// before subtraction.
func Compute(dayStart, dayEnd time.Time, busy []Busy) []Gap {
	if !dayEnd.After(dayStart) {
		return nil
	}

	merged := mergeBusy(busy, dayStart, dayEnd)

	var gaps []Gap
	cursor := dayStart
	for _, b := range merged {
		if b.Start.After(cursor) {
			gaps = append(gaps, newGap(cursor, b.Start))
		}
		if b.End.After(cursor) {
			cursor = b.End
		}
	}
	if dayEnd.After(cursor) {
		gaps = append(gaps, newGap(cursor, dayEnd))
	}
	return gaps
}

func newGap(start, end time.Time) Gap {
	mins := int(end.Sub(start).Minutes())
	return Gap{Start: start, End: end, Size: classify(mins)}
}

func mergeBusy(busy []Busy, dayStart, dayEnd time.Time) []Busy {
	var clipped []Busy
	for _, b := range busy {
		start, end := b.Start, b.End
		if start.Before(dayStart) {
			start = dayStart
		}
		if end.After(dayEnd) {
			end = dayEnd
		}
		if end.After(start) {
			clipped = append(clipped, Busy{Start: start, End: end})
		}
	}

	sort.Slice(clipped, func(i, j int) bool { return clipped[i].Start.Before(clipped[j].Start) })

	var merged []Busy
	for _, b := range clipped {
		if len(merged) == 0 {
			merged = append(merged, b)
			continue
		}
		last := &merged[len(merged)-1]
		if !b.Start.After(last.End) {
			if b.End.After(last.End) {
				last.End = b.End
			}
			continue
		}
		merged = append(merged, b)
	}
	return merged
}

// FromTasks converts already-placed Tasks into Busy intervals.
func FromTasks(tasks []core.Task) []Busy {
	var out []Busy
	for _, t := range tasks {
		if t.Placed() {
			out = append(out, Busy{Start: *t.ScheduledStart, End: *t.ScheduledEnd})
		}
	}
	return out
}

// FromBlocks converts fixed Timeline blocks into Busy intervals.
func FromBlocks(blocks []core.Block) []Busy {
	out := make([]Busy, len(blocks))
	for i, b := range blocks {
		out[i] = Busy{Start: b.Start, End: b.End}
	}
	return out
}

// FromFreeBlocks turns a built Timeline's own free_time blocks directly into
// placement Gaps, so the Placer fills exactly the windows the Timeline
// Builder already carved out of the day rather than re-deriving them over a
// naive [00:00, +24h) window that ignores the sleep shift.
func FromFreeBlocks(blocks []core.Block) []Gap {
	var out []Gap
	for _, b := range blocks {
		if b.Activity != core.ActivityFreeTime {
			continue
		}
		out = append(out, newGap(b.Start, b.End))
	}
	return out
}
