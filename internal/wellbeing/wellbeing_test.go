package wellbeing_test

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"studyloop/internal/core"
	"studyloop/internal/store"
	"studyloop/internal/wellbeing"
)

func TestScoreRewardsHealthyStudyLoad(t *testing.T) {
	score := wellbeing.Score(wellbeing.Inputs{StudyHours: 6, BreakCount: 3})
	require.InDelta(t, 0.85, score, 0.001)
}

func TestScorePenalizesOverworkAndOverdue(t *testing.T) {
	score := wellbeing.Score(wellbeing.Inputs{StudyHours: 12, OverdueTasks: 3})
	require.Less(t, score, 0.5)
}

func TestScoreClampsToUnitRange(t *testing.T) {
	require.Equal(t, 0.0, wellbeing.Score(wellbeing.Inputs{StudyHours: 20, OverdueTasks: 20}))
}

func TestEvaluateEmitsExpectedRecommendations(t *testing.T) {
	m := wellbeing.Evaluate(time.Now(), wellbeing.Inputs{
		StudyHours:    11,
		OverdueTasks:  1,
		SkippedBreaks: 1,
	})
	require.Less(t, m.WellbeingScore, 1.0)
	require.Contains(t, m.Recommendations, "you've studied over 10 hours today — consider stopping")
	require.Contains(t, m.Recommendations, "focus on overdue work first")
	require.Contains(t, m.Recommendations, "don't skip your next break")
}

func newTestMonitor(t *testing.T) *wellbeing.Monitor {
	t.Helper()
	s, err := store.New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return wellbeing.New(s)
}

func TestEvaluateTodayPersistsMetric(t *testing.T) {
	m := newTestMonitor(t)
	today := time.Date(2026, 7, 31, 0, 0, 0, 0, time.UTC)

	metric, err := m.EvaluateToday(today, 2)
	require.NoError(t, err)
	require.Equal(t, 2, metric.OverdueTasks)
	require.Contains(t, metric.Recommendations, "focus on overdue work first")
}

func TestBreakLifecycle(t *testing.T) {
	m := newTestMonitor(t)
	start := time.Date(2026, 7, 31, 14, 0, 0, 0, time.UTC)

	require.NoError(t, m.StartBreak("brk1", core.BreakShort, 5, start))
	require.NoError(t, m.EndBreak("brk1", start, start.Add(6*time.Minute), 5))
}

func TestPomodoroAdvancesThroughCycles(t *testing.T) {
	m := newTestMonitor(t)
	now := time.Date(2026, 7, 31, 9, 0, 0, 0, time.UTC)

	ps, breakMins, err := m.AdvancePomodoro(now)
	require.NoError(t, err)
	require.Equal(t, core.PomodoroWork, ps.CurrentPhase)
	require.Zero(t, breakMins)

	ps, breakMins, err = m.AdvancePomodoro(now.Add(25 * time.Minute))
	require.NoError(t, err)
	require.Equal(t, core.PomodoroShortBreak, ps.CurrentPhase)
	require.Equal(t, 5, breakMins)
	require.Equal(t, 1, ps.CyclesCompleted)
}
