package store_test

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"studyloop/internal/core"
	"studyloop/internal/store"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func openTestStore(t *testing.T) *store.Store {
	t.Helper()
	dir := t.TempDir()
	s, err := store.New(filepath.Join(dir, "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestCreateAndGetSubject(t *testing.T) {
	s := openTestStore(t)

	sub := core.Subject{Code: "CS101", Name: "Intro to CS", Credits: 4, Type: core.SubjectConceptHeavy, Color: "#3366ff"}
	require.NoError(t, s.CreateSubject(sub))

	got, err := s.GetSubject("CS101")
	require.NoError(t, err)
	require.Equal(t, sub, got)
}

func TestCreateSubjectDuplicateConflicts(t *testing.T) {
	s := openTestStore(t)
	sub := core.Subject{Code: "CS101", Name: "Intro to CS", Credits: 4, Type: core.SubjectConceptHeavy}
	require.NoError(t, s.CreateSubject(sub))

	err := s.CreateSubject(sub)
	require.Error(t, err)
}

func TestCreateChapterSeedsProgress(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.CreateSubject(core.Subject{Code: "CS101", Name: "Intro", Credits: 3, Type: core.SubjectConceptHeavy}))
	require.NoError(t, s.CreateChapter(core.Chapter{ID: "ch1", SubjectCode: "CS101", Number: 1, Title: "Arrays", Slug: "chapter01"}))

	cp, err := s.GetChapterProgress("ch1")
	require.NoError(t, err)
	require.Equal(t, core.ReadingNotStarted, cp.ReadingStatus)
	require.Equal(t, 0, cp.MasteryLevel)
}

func TestPlaceTaskRejectsDoublePlacement(t *testing.T) {
	s := openTestStore(t)
	task := core.Task{ID: "t1", Title: "Read chapter 3", Priority: 5, DurationMins: 60, Status: core.TaskPending, TaskType: core.TaskTypeStudy}
	require.NoError(t, s.CreateTask(task))

	start := time.Date(2026, 7, 31, 9, 0, 0, 0, time.UTC)
	end := start.Add(60 * time.Minute)
	require.NoError(t, s.PlaceTask("t1", start, end, false))

	err := s.PlaceTask("t1", start, end, false)
	require.Error(t, err)
}

func TestStartStopSessionAwardsPointsAndStreak(t *testing.T) {
	s := openTestStore(t)
	start := time.Date(2026, 7, 31, 10, 0, 0, 0, time.UTC)
	require.NoError(t, s.StartSession(core.StudySession{ID: "sess1", StartedAt: start}))

	active, ok, err := s.GetActiveSession()
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "sess1", active.ID)

	stop := start.Add(100 * time.Minute)
	today := time.Date(2026, 7, 31, 0, 0, 0, 0, time.UTC)
	sess, err := s.StopActiveTimer(stop, today)
	require.NoError(t, err)
	require.NotNil(t, sess.DurationSeconds)
	require.Equal(t, int64(6000), *sess.DurationSeconds)
	require.True(t, sess.IsDeepWork)
	require.Equal(t, 10, sess.PointsEarned)

	streak, err := s.GetUserStreak()
	require.NoError(t, err)
	require.Equal(t, 10, streak.TotalPoints)
}

func TestStartSessionRejectsConcurrentActive(t *testing.T) {
	s := openTestStore(t)
	start := time.Date(2026, 7, 31, 10, 0, 0, 0, time.UTC)
	require.NoError(t, s.StartSession(core.StudySession{ID: "sess1", StartedAt: start}))

	err := s.StartSession(core.StudySession{ID: "sess2", StartedAt: start.Add(time.Minute)})
	require.Error(t, err)
}

func TestCompleteRevisionBumpsMastery(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.CreateSubject(core.Subject{Code: "CS101", Name: "Intro", Credits: 3, Type: core.SubjectConceptHeavy}))
	require.NoError(t, s.CreateChapter(core.Chapter{ID: "ch1", SubjectCode: "CS101", Number: 1, Title: "Arrays", Slug: "chapter01"}))
	require.NoError(t, s.CreateRevision(core.Revision{ID: "rev1", ChapterID: "ch1", RevisionNumber: 1, DueDate: time.Now()}))

	rev, err := s.CompleteRevision("rev1", 10, 15)
	require.NoError(t, err)
	require.True(t, rev.Completed)
	require.Equal(t, 10, rev.PointsEarned)

	cp, err := s.GetChapterProgress("ch1")
	require.NoError(t, err)
	require.Equal(t, 1, cp.RevisionCount)
	require.Equal(t, 15, cp.MasteryLevel)
}

func TestRecordSessionEffectivenessFoldsIntoLearningPattern(t *testing.T) {
	s := openTestStore(t)
	for i := 0; i < 5; i++ {
		obs := core.SessionEffectiveness{
			ID:          string(rune('a' + i)),
			SessionID:   "sess1",
			SubjectCode: "CS101",
			TimeOfDay:   core.TimeMorning,
			FocusScore:  0.8,
			EnergyLevel: 7,
		}
		require.NoError(t, s.RecordSessionEffectiveness(obs))
	}

	lp, sufficient, err := s.GetLearningPattern("CS101")
	require.NoError(t, err)
	require.True(t, sufficient)
	require.Equal(t, 5, lp.SamplesCount)
	require.Equal(t, core.TimeMorning, lp.BestStudyTime)
}

func TestAchievementProgressCompletesOnThreshold(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.SeedAchievementDefinitions([]core.AchievementDefinition{
		{Code: "streak_7", Category: core.AchievementStreak, ThresholdValue: 7, Points: 50, Rarity: "common"},
	}))

	ua, completed, err := s.UpdateAchievementProgress("streak_7", 7, 7, time.Now())
	require.NoError(t, err)
	require.True(t, completed)
	require.True(t, ua.IsComplete)
}
