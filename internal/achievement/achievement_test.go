package achievement_test

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"studyloop/internal/achievement"
	"studyloop/internal/store"
)

func newTestEvaluator(t *testing.T) *achievement.Evaluator {
	t.Helper()
	s, err := store.New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	ev, err := achievement.New(s)
	require.NoError(t, err)
	return ev
}

func TestEvaluateEarnsOnThresholdCross(t *testing.T) {
	ev := newTestEvaluator(t)
	now := time.Date(2026, 7, 31, 12, 0, 0, 0, time.UTC)

	earned, err := ev.Evaluate(now, achievement.Counters{CurrentStreak: 3})
	require.NoError(t, err)

	codes := map[string]bool{}
	for _, e := range earned {
		codes[e.Code] = true
	}
	require.True(t, codes["streak_3"])
	require.False(t, codes["streak_7"])
}

func TestEvaluateDoesNotReEarnOnSubsequentCalls(t *testing.T) {
	ev := newTestEvaluator(t)
	now := time.Date(2026, 7, 31, 12, 0, 0, 0, time.UTC)

	_, err := ev.Evaluate(now, achievement.Counters{CurrentStreak: 3})
	require.NoError(t, err)

	earned, err := ev.Evaluate(now.Add(time.Hour), achievement.Counters{CurrentStreak: 3})
	require.NoError(t, err)
	for _, e := range earned {
		require.NotEqual(t, "streak_3", e.Code)
	}
}

func TestPendingNotificationsAndMarkNotified(t *testing.T) {
	ev := newTestEvaluator(t)
	now := time.Date(2026, 7, 31, 12, 0, 0, 0, time.UTC)

	_, err := ev.Evaluate(now, achievement.Counters{TotalStudyHours: 10})
	require.NoError(t, err)

	pending, err := ev.PendingNotifications()
	require.NoError(t, err)
	require.NotEmpty(t, pending)

	require.NoError(t, ev.MarkNotified("study_10h"))

	pending, err = ev.PendingNotifications()
	require.NoError(t, err)
	for _, p := range pending {
		require.NotEqual(t, "study_10h", p.Code)
	}
}

func TestDefinitionByCode(t *testing.T) {
	def, ok := achievement.DefinitionByCode("streak_7")
	require.True(t, ok)
	require.Equal(t, 25, def.Points)

	_, ok = achievement.DefinitionByCode("does-not-exist")
	require.False(t, ok)
}
