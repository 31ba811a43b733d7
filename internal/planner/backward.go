package planner

import (
	"time"

	"studyloop/internal/core"
	"studyloop/internal/gap"
)

// DayBudget is one candidate day's available gaps for backward planning.
type DayBudget struct {
	Date time.Time
	Gaps []gapRef
}

type gapRef struct {
	Start time.Time
	End   time.Time
}

// NewDayBudget builds a DayBudget from the Gap Analyzer's output for one day.
func NewDayBudget(date time.Time, gaps []gap.Gap) DayBudget {
	refs := make([]gapRef, len(gaps))
	for i, g := range gaps {
		refs[i] = gapRef{Start: g.Start, End: g.End}
	}
	return DayBudget{Date: date, Gaps: refs}
}

// BackwardPlanItem describes the deadline-driven work to distribute.
type BackwardPlanItem struct {
	ID               string
	RequiredMins     int
	Deadline         time.Time
	SubjectType      core.SubjectType
	MaxBlockMins     int
	MinBreakAfter    int
}

// BackwardPlacement is one block of a backward-planned item.
type BackwardPlacement struct {
	ItemID string
	Day    time.Time
	Start  time.Time
	End    time.Time
}

// BackwardPlan distributes RequiredMins across [now, deadline) with a
// linear ramp toward the deadline — day i gets fraction (i+1)/sum(j+1) of
// the total, per spec.md §4.5's "increasing intensity" rule — then places
// each day's allocation as blocks <= MaxBlockMins separated by break slack.
// If a day cannot host its full allocation it overflows to the nearest
// earlier day that still has room; if no day can, the item is Unschedulable.
func BackwardPlan(item BackwardPlanItem, days []DayBudget, now time.Time) ([]BackwardPlacement, *core.UnschedulableDetail) {
	if len(days) == 0 || item.RequiredMins <= 0 {
		return nil, &core.UnschedulableDetail{ItemID: item.ID, Reason: "no candidate days before deadline"}
	}
	if !item.Deadline.IsZero() && item.Deadline.Before(now) {
		return nil, &core.UnschedulableDetail{ItemID: item.ID, Reason: "deadline already passed"}
	}

	maxBlock := item.MaxBlockMins
	if maxBlock <= 0 {
		maxBlock = maxStudyBlockDefault
	}
	minBreak := item.MinBreakAfter
	if minBreak <= 0 {
		minBreak = minBreakAfterStudyDefault
	}

	n := len(days)
	weightSum := n * (n + 1) / 2
	allocations := make([]int, n)
	for i := range days {
		allocations[i] = item.RequiredMins * (i + 1) / weightSum
	}
	// Ensure rounding doesn't lose minutes: dump remainder onto the last day.
	allocated := 0
	for _, a := range allocations {
		allocated += a
	}
	if diff := item.RequiredMins - allocated; diff != 0 {
		allocations[n-1] += diff
	}

	remaining := make([][]gapRef, n)
	for i, d := range days {
		remaining[i] = append([]gapRef(nil), d.Gaps...)
	}

	var placements []BackwardPlacement
	for i := range days {
		need := allocations[i]
		for need > 0 {
			dayIdx, gapIdx, block := findRoomFor(remaining, i, need, maxBlock)
			if dayIdx == -1 {
				// Try overflowing to the nearest earlier day with room.
				overflowed := false
				for j := i - 1; j >= 0; j-- {
					if d, g, b := findRoomInDay(remaining[j], need, maxBlock); d {
						placements = append(placements, commitBlock(item.ID, days[j].Date, remaining, j, g, b, minBreak))
						need -= b
						overflowed = true
						break
					}
				}
				if !overflowed {
					return nil, &core.UnschedulableDetail{ItemID: item.ID, Reason: "no gap could host remaining allocation"}
				}
				continue
			}
			placements = append(placements, commitBlock(item.ID, days[dayIdx].Date, remaining, dayIdx, gapIdx, block, minBreak))
			need -= block
		}
	}

	return placements, nil
}

func findRoomFor(remaining [][]gapRef, dayIdx, need, maxBlock int) (int, int, int) {
	if d, g, b := findRoomInDay(remaining[dayIdx], need, maxBlock); d {
		return dayIdx, g, b
	}
	return -1, -1, 0
}

func findRoomInDay(gaps []gapRef, need, maxBlock int) (bool, int, int) {
	for i, g := range gaps {
		avail := int(g.End.Sub(g.Start).Minutes())
		if avail <= 0 {
			continue
		}
		block := need
		if block > maxBlock {
			block = maxBlock
		}
		if block > avail {
			block = avail
		}
		if block > 0 {
			return true, i, block
		}
	}
	return false, -1, 0
}

func commitBlock(itemID string, day time.Time, remaining [][]gapRef, dayIdx, gapIdx, mins, minBreak int) BackwardPlacement {
	g := remaining[dayIdx][gapIdx]
	start := g.Start
	end := start.Add(time.Duration(mins) * time.Minute)
	consumedEnd := end
	if mins >= maxStudyBlockDefault {
		consumedEnd = end.Add(time.Duration(minBreak) * time.Minute)
	}

	if consumedEnd.Before(g.End) {
		remaining[dayIdx][gapIdx] = gapRef{Start: consumedEnd, End: g.End}
	} else {
		remaining[dayIdx] = append(remaining[dayIdx][:gapIdx], remaining[dayIdx][gapIdx+1:]...)
	}

	return BackwardPlacement{ItemID: itemID, Day: day, Start: start, End: end}
}
