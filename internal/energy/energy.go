// Package energy implements the Energy Model (C4): a sparse hour-of-day ->
// energy-level curve with nearest-preceding-hour fallback, and the
// TimeOfDayClass classification used by the Pattern Analyzer.
package energy

import (
	"sort"
	"time"

	"studyloop/internal/core"
)

// Curve is a sparse hour->level map, hours not present inherit the level of
// the nearest preceding configured hour (wrapping around midnight).
type Curve map[int]int

// LevelAt returns the energy level (1-10) in effect at the given time,
// falling back to the nearest preceding hour present in the curve. An empty
// curve yields the neutral level 5.
func (c Curve) LevelAt(t time.Time) int {
	if len(c) == 0 {
		return 5
	}
	hours := make([]int, 0, len(c))
	for h := range c {
		hours = append(hours, h)
	}
	sort.Ints(hours)

	target := t.Hour()
	best := hours[len(hours)-1] // wrap: last configured hour of the previous day
	for _, h := range hours {
		if h <= target {
			best = h
		}
	}
	return c[best]
}

// ClassifyHour maps a clock hour to its TimeOfDayClass bucket, per spec.md's
// six-way split.
func ClassifyHour(hour int) core.TimeOfDayClass {
	switch {
	case hour >= 5 && hour < 8:
		return core.TimeEarlyMorning
	case hour >= 8 && hour < 12:
		return core.TimeMorning
	case hour >= 12 && hour < 17:
		return core.TimeAfternoon
	case hour >= 17 && hour < 21:
		return core.TimeEvening
	case hour >= 21 && hour < 24:
		return core.TimeNight
	default:
		return core.TimeLateNight
	}
}

// Classify maps a timestamp to its TimeOfDayClass bucket.
func Classify(t time.Time) core.TimeOfDayClass {
	return ClassifyHour(t.Hour())
}

// AnnotateBlocks stamps each block's EnergyLevel field from the curve,
// sampling at the block's start time. Returns a new slice; input is
// unmodified.
func AnnotateBlocks(curve Curve, blocks []core.Block) []core.Block {
	out := make([]core.Block, len(blocks))
	for i, b := range blocks {
		b.EnergyLevel = curve.LevelAt(b.Start)
		out[i] = b
	}
	return out
}
