package timer_test

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"studyloop/internal/store"
	"studyloop/internal/timer"
)

func newTestTimer(t *testing.T) *timer.Timer {
	t.Helper()
	s, err := store.New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return timer.New(s)
}

func TestStartStatusStop(t *testing.T) {
	tm := newTestTimer(t)
	start := time.Date(2026, 7, 31, 9, 0, 0, 0, time.UTC)
	require.NoError(t, tm.Start("sess1", "CS101", "", "Morning study", start))

	status, err := tm.Status(start.Add(30 * time.Minute))
	require.NoError(t, err)
	require.True(t, status.IsActive)
	require.Equal(t, int64(1800), status.ElapsedSeconds)

	sess, err := tm.Stop(start.Add(time.Hour))
	require.NoError(t, err)
	require.Equal(t, int64(3600), *sess.DurationSeconds)
	require.False(t, sess.IsDeepWork)

	status, err = tm.Status(start.Add(2 * time.Hour))
	require.NoError(t, err)
	require.False(t, status.IsActive)
}

func TestStartConflictsWithActiveSession(t *testing.T) {
	tm := newTestTimer(t)
	start := time.Date(2026, 7, 31, 9, 0, 0, 0, time.UTC)
	require.NoError(t, tm.Start("sess1", "", "", "", start))

	err := tm.Start("sess2", "", "", "", start.Add(time.Minute))
	require.Error(t, err)
}
