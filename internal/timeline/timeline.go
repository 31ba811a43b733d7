// Package timeline implements the Timeline Builder (C3): composing a
// contiguous, non-overlapping full-day Block partition from the routine
// config, the weekly class timetable, placed tasks, and the free-time gaps
// the Gap Analyzer (C2) finds between them, then stamping energy levels
// (C4) onto every block.
package timeline

import (
	"sort"
	"time"

	"studyloop/internal/config"
	"studyloop/internal/core"
	"studyloop/internal/energy"
	"studyloop/internal/gap"
)

// Build composes one day's Timeline per spec.md §4.3's six-step order:
// sleep window, wake routine + meals, timetable entries, placed tasks, gap
// fill as free_time, then energy annotation.
//
// day is any timestamp on the target calendar date; its time-of-day is
// ignored. The partition runs from the start of the night that ends at that
// date's wake time up to the next sleep start. classes is the timetable's
// class list for that date, chosen by the caller.
func Build(day time.Time, routine config.DailyRoutineConfig, classes []config.Class, tasks []core.Task, curve energy.Curve) ([]core.Block, error) {
	date := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())

	sleepStart, err := atClock(date, routine.SleepStart)
	if err != nil {
		return nil, err
	}
	wake, err := atClock(date, routine.SleepEnd)
	if err != nil {
		return nil, err
	}
	nextSleep := sleepStart
	if !nextSleep.After(wake) {
		nextSleep = nextSleep.Add(24 * time.Hour)
	}

	var blocks []core.Block
	blocks = append(blocks, core.Block{Start: nextSleep.Add(-24 * time.Hour), End: wake, Activity: core.ActivitySleep, Label: "sleep"})

	if routine.WakeRoutineMins > 0 {
		end := wake.Add(time.Duration(routine.WakeRoutineMins) * time.Minute)
		blocks = append(blocks, core.Block{Start: wake, End: end, Activity: core.ActivityWakeRoutine, Label: "wake routine"})
	}

	for _, meal := range []struct {
		at   string
		mins int
		act  core.ActivityType
	}{
		{routine.BreakfastTime, routine.BreakfastMins, core.ActivityBreakfast},
		{routine.LunchTime, routine.LunchMins, core.ActivityLunch},
		{routine.DinnerTime, routine.DinnerMins, core.ActivityDinner},
	} {
		if meal.at == "" || meal.mins <= 0 {
			continue
		}
		start, err := atClock(date, meal.at)
		if err != nil {
			return nil, err
		}
		if start.Before(wake) {
			start = start.Add(24 * time.Hour)
		}
		blocks = append(blocks, core.Block{Start: start, End: start.Add(time.Duration(meal.mins) * time.Minute), Activity: meal.act, Label: string(meal.act)})
	}

	for _, c := range classes {
		start, err := atClock(date, c.Start)
		if err != nil {
			return nil, err
		}
		end, err := atClock(date, c.End)
		if err != nil {
			return nil, err
		}
		if start.Before(wake) {
			start = start.Add(24 * time.Hour)
			end = end.Add(24 * time.Hour)
		}
		blocks = append(blocks, core.Block{Start: start, End: end, Activity: core.ActivityUniversity, Label: c.Subject})
	}

	for _, t := range tasks {
		if !t.Placed() {
			continue
		}
		start, end := *t.ScheduledStart, *t.ScheduledEnd
		if start.Before(wake) {
			start = start.Add(24 * time.Hour)
			end = end.Add(24 * time.Hour)
		}
		blocks = append(blocks, core.Block{
			Start: start, End: end,
			Activity: taskActivity(t), TaskID: t.ID, Label: t.Title,
		})
	}

	sort.Slice(blocks, func(i, j int) bool { return blocks[i].Start.Before(blocks[j].Start) })

	gaps := gap.Compute(wake, nextSleep, gap.FromBlocks(blocks))
	for _, g := range gaps {
		blocks = append(blocks, core.Block{Start: g.Start, End: g.End, Activity: core.ActivityFreeTime, Label: "free time"})
	}

	sort.Slice(blocks, func(i, j int) bool { return blocks[i].Start.Before(blocks[j].Start) })

	return energy.AnnotateBlocks(curve, blocks), nil
}

func taskActivity(t core.Task) core.ActivityType {
	if t.IsDeepWork {
		return core.ActivityDeepWork
	}
	switch t.TaskType {
	case core.TaskTypeRevision:
		return core.ActivityRevision
	case core.TaskTypePractice:
		return core.ActivityPractice
	case core.TaskTypeAssignment:
		return core.ActivityAssignment
	case core.TaskTypeLabWork:
		return core.ActivityLabWork
	case core.TaskTypeBreak:
		return core.ActivityBreak
	case core.TaskTypeFreeTime:
		return core.ActivityFreeTime
	default:
		return core.ActivityStudy
	}
}

func atClock(date time.Time, hhmm string) (time.Time, error) {
	t, err := time.ParseInLocation("15:04", hhmm, date.Location())
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(date.Year(), date.Month(), date.Day(), t.Hour(), t.Minute(), 0, 0, date.Location()), nil
}
