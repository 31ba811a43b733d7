package engine_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"studyloop/internal/core"
	"studyloop/internal/engine"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newTestEngine(t *testing.T) *engine.Engine {
	t.Helper()
	dir := t.TempDir()
	eng, err := engine.New(filepath.Join(dir, "test.db"), filepath.Join(dir, "config.yaml"))
	require.NoError(t, err)
	t.Cleanup(func() { eng.Shutdown(context.Background()) })
	return eng
}

func TestSubjectCreateRejectsBadCode(t *testing.T) {
	eng := newTestEngine(t)
	err := eng.SubjectCreate(core.Subject{Code: "badcode", Name: "X", Credits: 3})
	require.Error(t, err)
}

func TestSubjectAndChapterLifecycle(t *testing.T) {
	eng := newTestEngine(t)
	require.NoError(t, eng.SubjectCreate(core.Subject{Code: "CS101", Name: "Intro", Credits: 3, Type: core.SubjectConceptHeavy}))
	require.NoError(t, eng.ChapterCreate(core.Chapter{ID: "ch1", SubjectCode: "CS101", Number: 1, Title: "Intro", Slug: "chapter01"}))

	now := time.Date(2026, 7, 31, 10, 0, 0, 0, time.UTC)
	revs, err := eng.ChapterCompleteReading("ch1", now)
	require.NoError(t, err)
	require.Len(t, revs, 3)
	require.Equal(t, now.AddDate(0, 0, 7), revs[0].DueDate)
}

func TestTaskCreateValidatesDuration(t *testing.T) {
	eng := newTestEngine(t)
	err := eng.TaskCreate(core.Task{ID: "t1", Title: "x", Priority: 5, DurationMins: 0})
	require.Error(t, err)
}

func TestTimelineGetProducesFullDayPartition(t *testing.T) {
	eng := newTestEngine(t)
	date := time.Date(2026, 7, 31, 0, 0, 0, 0, time.UTC)
	blocks, err := eng.TimelineGet(date)
	require.NoError(t, err)
	require.NotEmpty(t, blocks)
	for i := 1; i < len(blocks); i++ {
		require.True(t, blocks[i].Start.Equal(blocks[i-1].End))
	}
}

func TestTimerStartStopAppliesStreakAndAchievements(t *testing.T) {
	eng := newTestEngine(t)
	start := time.Date(2026, 7, 31, 9, 0, 0, 0, time.UTC)

	_, err := eng.TimerStart("", "", "morning block", start)
	require.NoError(t, err)

	sess, err := eng.TimerStop(start.Add(45 * time.Minute))
	require.NoError(t, err)
	require.Equal(t, int64(45*60), *sess.DurationSeconds)

	streak, err := eng.Store.GetUserStreak()
	require.NoError(t, err)
	require.Equal(t, 1, streak.CurrentStreak)
}

func TestRevisionCompleteCreditsPointsAndStreak(t *testing.T) {
	eng := newTestEngine(t)
	require.NoError(t, eng.SubjectCreate(core.Subject{Code: "CS101", Name: "Intro", Credits: 4}))
	require.NoError(t, eng.ChapterCreate(core.Chapter{ID: "ch1", SubjectCode: "CS101", Number: 1, Title: "Intro", Slug: "chapter01"}))

	now := time.Date(2026, 7, 31, 10, 0, 0, 0, time.UTC)
	revs, err := eng.RevisionSchedule("ch1", now, []int{1})
	require.NoError(t, err)
	require.Len(t, revs, 1)

	rev, streak, err := eng.RevisionComplete(revs[0].ID, now.AddDate(0, 0, 1))
	require.NoError(t, err)
	require.Equal(t, 20, rev.PointsEarned)
	require.Equal(t, 1, streak.CurrentStreak)
}

func TestTimelineOptimizePlacesPendingTasks(t *testing.T) {
	eng := newTestEngine(t)
	require.NoError(t, eng.SubjectCreate(core.Subject{Code: "CS101", Name: "Intro", Credits: 3}))
	require.NoError(t, eng.TaskCreate(core.Task{
		ID: "t1", Title: "homework", SubjectCode: "CS101", Priority: 5, DurationMins: 45, TaskType: core.TaskTypeStudy,
	}))

	date := time.Date(2026, 7, 31, 0, 0, 0, 0, time.UTC)
	report, err := eng.TimelineOptimize(date)
	require.NoError(t, err)
	require.Equal(t, 1, report.ChangesMade)
	require.Contains(t, report.Placements, "t1")

	placed := report.Placements["t1"]
	blocks, err := eng.TimelineGet(date)
	require.NoError(t, err)
	for _, b := range blocks {
		if b.Activity == core.ActivitySleep {
			overlaps := placed[0].Before(b.End) && b.Start.Before(placed[1])
			require.False(t, overlaps, "task placed at %s-%s overlaps sleep block %s-%s",
				placed[0].Format("15:04"), placed[1].Format("15:04"), b.Start.Format("15:04"), b.End.Format("15:04"))
		}
	}
}

func TestStartShutdownStopsBackgroundLoopsCleanly(t *testing.T) {
	eng := newTestEngine(t)
	require.NoError(t, eng.Start(context.Background()))
	require.NoError(t, eng.Shutdown(context.Background()))
}
