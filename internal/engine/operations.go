package engine

import (
	"context"
	"time"

	"github.com/google/uuid"

	"studyloop/internal/achievement"
	"studyloop/internal/core"
	"studyloop/internal/gap"
	"studyloop/internal/logging"
	"studyloop/internal/pattern"
	"studyloop/internal/planner"
	"studyloop/internal/revision"
	"studyloop/internal/timeline"
	"studyloop/internal/timer"
)

// --- subjects / chapters -----------------------------------------------

// SubjectCreate validates the naming rule and persists a new Subject.
func (e *Engine) SubjectCreate(sub core.Subject) error {
	if err := validateSubjectCode(sub.Code); err != nil {
		return err
	}
	return e.Store.CreateSubject(sub)
}

// ChapterCreate validates the chapter slug and persists a new Chapter with
// a fresh zero-value ChapterProgress.
func (e *Engine) ChapterCreate(ch core.Chapter) error {
	if err := validateChapterSlug(ch.Slug); err != nil {
		return err
	}
	return e.Store.CreateChapter(ch)
}

// ChapterCompleteReading marks a chapter's reading complete and schedules
// its default +7/+14/+21 revisions (spec.md §4.6).
func (e *Engine) ChapterCompleteReading(chapterID string, completedAt time.Time) ([]core.Revision, error) {
	revs := revision.GenerateOnReadingCompletion(chapterID, completedAt)
	if err := e.Store.CompleteChapterReading(chapterID, revs); err != nil {
		return nil, err
	}
	return revs, nil
}

// --- timeline ------------------------------------------------------------

// TimelineGet builds the Timeline for one calendar date.
func (e *Engine) TimelineGet(date time.Time) ([]core.Block, error) {
	tasks, err := e.Store.ListTasksInRange(dayStart(date), dayStart(date).Add(24*time.Hour))
	if err != nil {
		return nil, err
	}
	return timeline.Build(date, e.Config.Routine, e.classesFor(date), tasks, e.energyCurve())
}

// TimelineWeek builds seven consecutive days' Timelines starting at start.
func (e *Engine) TimelineWeek(start time.Time) ([][]core.Block, error) {
	week := make([][]core.Block, 7)
	for i := 0; i < 7; i++ {
		blocks, err := e.TimelineGet(start.AddDate(0, 0, i))
		if err != nil {
			return nil, err
		}
		week[i] = blocks
	}
	return week, nil
}

func dayStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// --- tasks -----------------------------------------------------------------

// TaskCreate persists a new pending Task.
func (e *Engine) TaskCreate(t core.Task) error {
	if t.DurationMins <= 0 {
		return core.NewError(core.KindValidation, "engine.TaskCreate", "duration_mins must be > 0", nil)
	}
	if t.Priority < 1 || t.Priority > 10 {
		return core.NewError(core.KindValidation, "engine.TaskCreate", "priority must be in [1,10]", nil)
	}
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	return e.Store.CreateTask(t)
}

// TaskComplete marks a task completed, folds points/streak via the caller
// (spec.md §4.11 streak-update rule applies at ≥30 min sessions, handled by
// the timer path, not here), and checks achievements.
func (e *Engine) TaskComplete(taskID string, now time.Time) error {
	if err := e.Store.CompleteTask(taskID); err != nil {
		return err
	}
	_, err := e.AchievementsCheck(now)
	return err
}

// TaskCancel cancels a pending or placed task.
func (e *Engine) TaskCancel(taskID string) error {
	return e.Store.CancelTask(taskID)
}

// TaskPlace is idempotent on an identical start: placing a task already
// placed at exactly (start, start+duration) is a no-op success.
func (e *Engine) TaskPlace(taskID string, start time.Time) error {
	t, err := e.Store.GetTask(taskID)
	if err != nil {
		return err
	}
	end := start.Add(time.Duration(t.DurationMins) * time.Minute)
	if t.Placed() && t.ScheduledStart.Equal(start) && t.ScheduledEnd.Equal(end) {
		return nil
	}
	return e.Store.PlaceTask(taskID, start, end, t.IsDeepWork)
}

// --- planner / optimizer ----------------------------------------------

// OptimizeReport is the outcome of one timeline.optimize call.
type OptimizeReport struct {
	ChangesMade int
	Placements  map[string][2]time.Time
	Unplaced    []planner.Unplaced
}

// TimelineOptimize runs one Placer sweep over date's pending items and
// commits the resulting placements atomically (spec.md §4.5 rule 5). Guarded
// by plannerMu, the package-level Placer-wide mutex (spec.md §5).
func (e *Engine) TimelineOptimize(date time.Time) (OptimizeReport, error) {
	plannerMu.Lock()
	defer plannerMu.Unlock()

	items, err := e.pendingItems(date)
	if err != nil {
		return OptimizeReport{}, err
	}

	blocks, err := e.TimelineGet(date)
	if err != nil {
		return OptimizeReport{}, err
	}
	gaps := gap.FromFreeBlocks(blocks)

	result := planner.Place(items, gaps, planner.Options{
		MinBreakAfterStudy: e.Config.Routine.MinBreakAfterStudy,
		MaxStudyBlockMins:  e.Config.Routine.MaxStudyBlockMins,
		Now:                time.Now(),
	})

	placements := make(map[string][2]time.Time, len(result.Placements))
	for _, p := range result.Placements {
		placements[p.ItemID] = [2]time.Time{p.Start, p.End}
	}
	if err := e.Store.ReplaceTasksScheduling(placements); err != nil {
		return OptimizeReport{}, err
	}

	logging.Get(logging.CategoryPlanner).Info("optimize %s: %d placed, %d unplaced", date.Format("2006-01-02"), len(placements), len(result.Unplaced))
	return OptimizeReport{ChangesMade: len(placements), Placements: placements, Unplaced: result.Unplaced}, nil
}

// pendingItems assembles the Placer's pending set from every pending task
// not yet placed, plus due revisions plus urgent lab reports (SPEC_FULL.md §3's supplemented
// lab-report-urgency derivation).
func (e *Engine) pendingItems(date time.Time) ([]planner.Item, error) {
	now := time.Now()
	var items []planner.Item

	tasks, err := e.Store.ListPendingTasks()
	if err != nil {
		return nil, err
	}
	for _, t := range tasks {
		if t.Placed() {
			continue
		}
		kind := planner.KindRegularStudy
		if t.TaskType == core.TaskTypeAssignment {
			kind = planner.KindAssignment
		}
		var credits int
		var subjType core.SubjectType
		if t.SubjectCode != "" {
			if sub, err := e.Store.GetSubject(t.SubjectCode); err == nil {
				credits, subjType = sub.Credits, sub.Type
			}
		}
		items = append(items, planner.Item{
			ID: t.ID, Kind: kind, SubjectCode: t.SubjectCode, SubjectCredits: credits,
			SubjectType: subjType, DurationMins: t.DurationMins, IsDeepWork: t.IsDeepWork,
		})
	}

	revs, err := e.Store.ListDueRevisions(now)
	if err != nil {
		return nil, err
	}
	for _, r := range revs {
		items = append(items, planner.Item{
			ID: r.ID, Kind: planner.KindRevisionDue, DurationMins: 30, Deadline: r.DueDate,
		})
	}

	labs, err := e.Store.ListOpenLabReports()
	if err != nil {
		return nil, err
	}
	for _, lr := range labs {
		if lr.Urgency(now) != core.LabUrgencyUrgent {
			continue
		}
		mins := 60
		if sub, err := e.Store.GetSubject(lr.SubjectCode); err == nil && sub.Credits*20 > mins {
			mins = sub.Credits * 20
		}
		items = append(items, planner.Item{
			ID: lr.ID, Kind: planner.KindUrgentLab, SubjectCode: lr.SubjectCode,
			DurationMins: mins, Deadline: lr.Deadline,
		})
	}

	return items, nil
}

// PlannerBackward runs backward planning for one item against a deadline,
// allocating across the intervening days' gaps with linear-ramping
// intensity (spec.md §4.5's backward-planning rule).
func (e *Engine) PlannerBackward(item planner.BackwardPlanItem, days []planner.DayBudget, now time.Time) ([]planner.BackwardPlacement, *core.UnschedulableDetail) {
	plannerMu.Lock()
	defer plannerMu.Unlock()
	return planner.BackwardPlan(item, days, now)
}

// --- revisions -----------------------------------------------------------

// RevisionSchedule schedules revisions for a chapter from caller-supplied
// intervals (falling back to the explicit-tool default set).
func (e *Engine) RevisionSchedule(chapterID string, from time.Time, intervalDays []int) ([]core.Revision, error) {
	revs := revision.GenerateExplicit(chapterID, from, intervalDays)
	for _, r := range revs {
		if err := e.Store.CreateRevision(r); err != nil {
			return nil, err
		}
	}
	return revs, nil
}

// RevisionComplete marks a revision done, credits points off the parent
// chapter's subject, and returns the updated streak.
func (e *Engine) RevisionComplete(revisionID string, now time.Time) (core.Revision, core.UserStreak, error) {
	ch, err := e.chapterForRevision(revisionID)
	if err != nil {
		return core.Revision{}, core.UserStreak{}, err
	}
	sub, err := e.Store.GetSubject(ch.SubjectCode)
	if err != nil {
		return core.Revision{}, core.UserStreak{}, err
	}
	points := revision.CompletionPoints(sub.Credits)

	rev, err := e.Store.CompleteRevision(revisionID, points, 5)
	if err != nil {
		return core.Revision{}, core.UserStreak{}, err
	}

	streak, err := e.applyStreakUpdate(now, points)
	if err != nil {
		return rev, core.UserStreak{}, err
	}

	if _, err := e.AchievementsCheck(now); err != nil {
		logging.Get(logging.CategoryAchievement).Error("post-revision achievement check failed: %v", err)
	}
	return rev, streak, nil
}

func (e *Engine) chapterForRevision(revisionID string) (core.Chapter, error) {
	rev, err := e.Store.GetRevision(revisionID)
	if err != nil {
		return core.Chapter{}, err
	}
	return e.Store.GetChapter(rev.ChapterID)
}

// applyStreakUpdate implements spec.md §4.11's streak-update rule and
// credits points earned by the activity that triggered it. It is the only
// place that stamps user_streak.last_activity, so the day-over-day
// consecutive check always sees the prior activity's real date.
func (e *Engine) applyStreakUpdate(now time.Time, points int) (core.UserStreak, error) {
	today := dayStart(now)
	streak, err := e.Store.GetUserStreak()
	if err != nil {
		return core.UserStreak{}, err
	}
	switch {
	case streak.LastActivity == nil || streak.LastActivity.Before(today.AddDate(0, 0, -1)):
		streak.CurrentStreak = 1
	case streak.LastActivity.Equal(today.AddDate(0, 0, -1)):
		streak.CurrentStreak++
		if streak.CurrentStreak > streak.LongestStreak {
			streak.LongestStreak = streak.CurrentStreak
		}
	case streak.LastActivity.Before(today):
		// same bucket, no-op beyond stamping today below
	}
	streak.TotalPoints += points
	streak.LastActivity = &today
	if err := e.Store.SetUserStreak(streak); err != nil {
		return core.UserStreak{}, err
	}
	return streak, nil
}

// --- timer -----------------------------------------------------------------

// TimerStart begins a new study session.
func (e *Engine) TimerStart(subjectCode, chapterID, title string, now time.Time) (core.StudySession, error) {
	id := uuid.NewString()
	if err := e.Timer.Start(id, subjectCode, chapterID, title, now); err != nil {
		return core.StudySession{}, err
	}
	sess, _, err := e.Store.GetActiveSession()
	return sess, err
}

// TimerStop ends the active session, applies the streak-update rule when
// its duration is ≥30 min, and checks achievements.
func (e *Engine) TimerStop(now time.Time) (core.StudySession, error) {
	sess, err := e.Timer.Stop(now)
	if err != nil {
		return core.StudySession{}, err
	}
	if sess.DurationSeconds != nil && *sess.DurationSeconds >= 30*60 {
		if _, err := e.applyStreakUpdate(now, sess.PointsEarned); err != nil {
			logging.Get(logging.CategoryTimer).Error("streak update after session stop failed: %v", err)
		}
	}
	if _, err := e.AchievementsCheck(now); err != nil {
		logging.Get(logging.CategoryAchievement).Error("post-session achievement check failed: %v", err)
	}
	return sess, nil
}

// TimerStatus reports the active session's live status.
func (e *Engine) TimerStatus(now time.Time) (timer.Status, error) {
	return e.Timer.Status(now)
}

// --- wellbeing / breaks -----------------------------------------------

// WellbeingScore computes and persists date's wellbeing metric.
func (e *Engine) WellbeingScore(date time.Time, overdueTasks int) (core.WellbeingMetric, error) {
	return e.Wellbeing.EvaluateToday(date, overdueTasks)
}

// BreakStart opens a break session of breakType with a suggested duration.
func (e *Engine) BreakStart(breakType core.BreakType, suggestedMins int, now time.Time) (string, error) {
	id := uuid.NewString()
	return id, e.Wellbeing.StartBreak(id, breakType, suggestedMins, now)
}

// BreakEnd closes a break session.
func (e *Engine) BreakEnd(id string, startedAt, endedAt time.Time, suggestedMins int) error {
	return e.Wellbeing.EndBreak(id, startedAt, endedAt, suggestedMins)
}

// PomodoroAdvance advances the Pomodoro phase machine.
func (e *Engine) PomodoroAdvance(now time.Time) (core.PomodoroStatus, int, error) {
	return e.Wellbeing.AdvancePomodoro(now)
}

// --- notifications -----------------------------------------------------

// NotificationsList returns notifications sent after since; a
// thin convenience over the Store used by front-ends that poll rather than
// subscribe.
func (e *Engine) NotificationsList(since time.Time) ([]core.Notification, error) {
	return e.Store.ListNotificationsSince(since)
}

// NotificationMarkRead marks one notification read.
func (e *Engine) NotificationMarkRead(id string, now time.Time) error {
	return e.Store.MarkNotificationRead(id, now)
}

// NotificationsSubscribe hands back a live stream of notifications created
// after the call, plus an unsubscribe func.
func (e *Engine) NotificationsSubscribe(ctx context.Context) (<-chan core.Notification, func()) {
	return e.Notify.Publisher().Subscribe(ctx)
}

// --- patterns ------------------------------------------------------------

// PatternsRecommend returns C8's recommendations for a subject, or nil if
// the subject's LearningPattern has insufficient data.
func (e *Engine) PatternsRecommend(subjectCode string, overdueTasks, skippedBreaksRun int) ([]pattern.Recommendation, error) {
	lp, sufficient, err := e.Store.GetLearningPattern(subjectCode)
	if err != nil {
		return nil, err
	}
	if !sufficient {
		return nil, nil
	}
	return pattern.Recommendations(lp, pattern.Context{
		SubjectCode: subjectCode, OverdueTasks: overdueTasks, SkippedBreaksRun: skippedBreaksRun,
	}), nil
}

// --- achievements -------------------------------------------------------

// AchievementsCheck runs the fixed catalog against the current counters and
// returns any achievements newly earned by this call.
func (e *Engine) AchievementsCheck(now time.Time) ([]achievement.Earned, error) {
	c, err := e.currentCounters()
	if err != nil {
		return nil, err
	}
	return e.Achievement.Evaluate(now, c)
}

func (e *Engine) currentCounters() (achievement.Counters, error) {
	streak, err := e.Store.GetUserStreak()
	if err != nil {
		return achievement.Counters{}, err
	}

	stats, err := e.Store.GetDailyStudyStats(dayStart(time.Now()))
	if err != nil {
		return achievement.Counters{}, err
	}

	subjects, err := e.Store.ListSubjects()
	if err != nil {
		return achievement.Counters{}, err
	}
	mastered := false
	for _, sub := range subjects {
		chapters, err := e.Store.ListChaptersBySubject(sub.Code)
		if err != nil {
			return achievement.Counters{}, err
		}
		for _, ch := range chapters {
			cp, err := e.Store.GetChapterProgress(ch.ID)
			if err == nil && cp.MasteryLevel >= 100 {
				mastered = true
			}
		}
	}

	return achievement.Counters{
		CurrentStreak:      streak.CurrentStreak,
		TotalStudyHours:    float64(stats.StudySeconds) / 3600,
		AnyChapterMastered: mastered,
	}, nil
}

// --- guidelines / memory -------------------------------------------------

// GuidelinesActive returns the active guideline set (consumed by external
// policy callers only; the Placer never reads these).
func (e *Engine) GuidelinesActive() ([]core.Guideline, error) {
	return e.Store.ListActiveGuidelines()
}

// MemoryFactSet upserts a memory fact for the external policy caller.
func (e *Engine) MemoryFactSet(f core.MemoryFact) error {
	return e.Store.SetMemoryFact(f)
}
