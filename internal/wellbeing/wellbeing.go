// Package wellbeing implements the Wellbeing Monitor (C9): the daily
// wellbeing score, its recommendation triggers, and the supplemented
// break-session and Pomodoro phase-machine lifecycles that feed it.
package wellbeing

import (
	"math"
	"time"

	"studyloop/internal/core"
	"studyloop/internal/logging"
	"studyloop/internal/store"
)

// Monitor wraps a Store with the C9 operation surface.
type Monitor struct {
	store *store.Store
}

// New constructs a Monitor over the given Store.
func New(s *store.Store) *Monitor {
	return &Monitor{store: s}
}

// Inputs are the day's raw counters the score is derived from.
type Inputs struct {
	StudyHours       float64
	BreakCount       int
	OverdueTasks     int
	DeepWorkSessions int
	SkippedBreaks    int
}

// Score computes the [0,1] wellbeing score per spec.md §4.9's formula.
func Score(in Inputs) float64 {
	const base = 0.5
	h := in.StudyHours

	var studyFactor float64
	switch {
	case h >= 4 && h <= 8:
		studyFactor = 0.2
	case h > 8:
		studyFactor = -0.1 * (h - 8)
	default:
		studyFactor = 0.05 * h
	}

	breakFactor := math.Min(0.2, 0.05*float64(in.BreakCount))
	overdueFactor := -0.05 * float64(in.OverdueTasks)

	return clamp01(base + studyFactor + breakFactor + overdueFactor)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// Evaluate computes a day's WellbeingMetric and its recommendation set.
func Evaluate(date time.Time, in Inputs) core.WellbeingMetric {
	score := Score(in)

	var recs []string
	if score < 0.4 {
		recs = append(recs, "your wellbeing score is low — take a 30-minute break")
	}
	if in.StudyHours > 10 {
		recs = append(recs, "you've studied over 10 hours today — consider stopping")
	}
	if in.OverdueTasks > 0 {
		recs = append(recs, "focus on overdue work first")
	}
	if in.SkippedBreaks > 0 {
		recs = append(recs, "don't skip your next break")
	}

	return core.WellbeingMetric{
		Date:             date,
		StudyHours:       in.StudyHours,
		BreakCount:       in.BreakCount,
		OverdueTasks:     in.OverdueTasks,
		DeepWorkSessions: in.DeepWorkSessions,
		WellbeingScore:   score,
		Recommendations:  recs,
	}
}

// EvaluateToday pulls today's study stats and breaks from the Store, folds
// in the caller-supplied overdue count, persists the resulting metric, and
// returns it. Idempotent: re-running for the same day recomputes and
// overwrites rather than accumulating.
func (m *Monitor) EvaluateToday(today time.Time, overdueTasks int) (core.WellbeingMetric, error) {
	day := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, today.Location())

	stats, err := m.store.GetDailyStudyStats(day)
	if err != nil {
		return core.WellbeingMetric{}, err
	}

	tomorrow := day.Add(24 * time.Hour)
	breaks, err := m.store.ListBreaksInRange(day, tomorrow)
	if err != nil {
		return core.WellbeingMetric{}, err
	}
	skipped := 0
	for _, b := range breaks {
		if b.EndedAt != nil && !b.WasCompleted {
			skipped++
		}
	}

	metric := Evaluate(day, Inputs{
		StudyHours:       float64(stats.StudySeconds) / 3600,
		BreakCount:       len(breaks),
		OverdueTasks:     overdueTasks,
		DeepWorkSessions: deepWorkSessionCount(stats),
		SkippedBreaks:    skipped,
	})

	if err := m.store.RecordWellbeingMetric(metric); err != nil {
		return core.WellbeingMetric{}, err
	}
	logging.Get(logging.CategoryWellbeing).Info("wellbeing score for %s: %.2f", day.Format("2006-01-02"), metric.WellbeingScore)
	return metric, nil
}

func deepWorkSessionCount(stats core.DailyStudyStats) int {
	if stats.DeepWorkSeconds > 0 {
		return 1
	}
	return 0
}

// StartBreak opens a new break session of the suggested duration.
func (m *Monitor) StartBreak(id string, breakType core.BreakType, suggestedMins int, now time.Time) error {
	return m.store.StartBreak(core.BreakSession{
		ID:                    id,
		BreakType:             breakType,
		StartedAt:             now,
		SuggestedDurationMins: suggestedMins,
	})
}

// EndBreak closes a break session. wasCompleted is true when the break ran
// at least its suggested duration.
func (m *Monitor) EndBreak(id string, startedAt, endedAt time.Time, suggestedMins int) error {
	actualMins := int(endedAt.Sub(startedAt).Minutes())
	wasCompleted := actualMins >= suggestedMins
	return m.store.EndBreak(id, endedAt, actualMins, wasCompleted)
}

// pomodoroWorkMins, pomodoroShortBreakMins, pomodoroLongBreakMins, and
// pomodoroCyclesBeforeLongBreak are the classic Pomodoro cadence (spec.md
// §4.9's supplemented Pomodoro phase machine).
const (
	pomodoroWorkMins              = 25
	pomodoroShortBreakMins        = 5
	pomodoroLongBreakMins         = 15
	pomodoroCyclesBeforeLongBreak = 4
)

// AdvancePomodoro transitions the singleton Pomodoro register to its next
// phase given that the current phase has just elapsed, and returns the new
// status along with the break duration (in minutes) to suggest, if any.
func (m *Monitor) AdvancePomodoro(now time.Time) (core.PomodoroStatus, int, error) {
	ps, err := m.store.GetPomodoroStatus()
	if err != nil {
		return core.PomodoroStatus{}, 0, err
	}

	var suggestedBreakMins int
	switch ps.CurrentPhase {
	case core.PomodoroIdle, core.PomodoroShortBreak, core.PomodoroLongBreak:
		ps.CurrentPhase = core.PomodoroWork
	case core.PomodoroWork:
		ps.CyclesCompleted++
		if ps.CyclesCompleted%pomodoroCyclesBeforeLongBreak == 0 {
			ps.CurrentPhase = core.PomodoroLongBreak
			suggestedBreakMins = pomodoroLongBreakMins
		} else {
			ps.CurrentPhase = core.PomodoroShortBreak
			suggestedBreakMins = pomodoroShortBreakMins
		}
	}
	ps.PhaseStartedAt = now

	if err := m.store.SetPomodoroStatus(ps); err != nil {
		return core.PomodoroStatus{}, 0, err
	}
	return ps, suggestedBreakMins, nil
}

// ResetPomodoro returns the register to idle, e.g. when the user cancels.
func (m *Monitor) ResetPomodoro(now time.Time) error {
	return m.store.SetPomodoroStatus(core.PomodoroStatus{CurrentPhase: core.PomodoroIdle, PhaseStartedAt: now})
}
