// Package notify implements the Notification Engine (C10): the periodic
// scan's seven trigger rules, the delivery contract (preferences, quiet
// hours, frequency limiting), and the fan-out publisher subscribers read
// from.
package notify

import (
	"errors"
	"fmt"
	"time"

	"studyloop/internal/achievement"
	"studyloop/internal/core"
	"studyloop/internal/logging"
	"studyloop/internal/pattern"
	"studyloop/internal/store"
)

// ScanInterval is the periodic tick cadence (spec.md §4.10).
const ScanInterval = 15 * time.Minute

// breakReminderThreshold is the elapsed-minutes trigger for an active
// session's "time for a break" suggestion.
const breakReminderThreshold = 90 * time.Minute

// labReportWindow is how far ahead an unsubmitted lab report starts
// generating deadline notifications.
const labReportWindow = 72 * time.Hour

// longStudyDayThreshold is the daily study-seconds warning trigger.
const longStudyDayThreshold = 8 * time.Hour

// Engine wraps a Store plus the C8/C11 collaborators with the C10 operation
// surface: the scan, the delivery contract, and the subscriber fan-out.
type Engine struct {
	store       *store.Store
	achievement *achievement.Evaluator
	pub         *Publisher
	idFunc      func() string

	breakSentThisSession map[string]bool
}

// New constructs a notify Engine. idFunc generates notification IDs (the
// caller typically wires uuid.NewString).
func New(s *store.Store, ev *achievement.Evaluator, idFunc func() string) *Engine {
	return &Engine{
		store:                s,
		achievement:          ev,
		pub:                  NewPublisher(),
		idFunc:               idFunc,
		breakSentThisSession: make(map[string]bool),
	}
}

// Publisher returns the fan-out publisher subscribers attach to.
func (e *Engine) Publisher() *Publisher { return e.pub }

// Scan runs one full 15-minute tick: the seven trigger rules in spec order,
// each subject to the delivery contract, the last being achievement flushing.
func (e *Engine) Scan(now time.Time) error {
	if err := e.scanUpcomingTaskStarts(now); err != nil {
		return err
	}
	if err := e.scanActiveTimerBreak(now); err != nil {
		return err
	}
	if err := e.scanDueRevisions(now); err != nil {
		return err
	}
	if err := e.scanLabReportDeadlines(now); err != nil {
		return err
	}
	if err := e.scanLongStudyDay(now); err != nil {
		return err
	}
	subjects, err := e.store.ListSubjects()
	if err != nil {
		return err
	}
	for _, sub := range subjects {
		lp, sufficient, err := e.store.GetLearningPattern(sub.Code)
		if err != nil {
			return err
		}
		if !sufficient {
			continue
		}
		if err := e.SuggestFromPattern(now, pattern.Recommendations(lp, pattern.Context{SubjectCode: sub.Code})); err != nil {
			return err
		}
	}
	if err := e.flushAchievements(now); err != nil {
		return err
	}
	return nil
}

// scanUpcomingTaskStarts emits a reminder 15 minutes before scheduled_start.
func (e *Engine) scanUpcomingTaskStarts(now time.Time) error {
	window := now.Add(ScanInterval)
	tasks, err := e.store.ListTasksInRange(now, window)
	if err != nil {
		return err
	}
	for _, t := range tasks {
		if t.ScheduledStart == nil || t.Status != core.TaskPending {
			continue
		}
		if t.ScheduledStart.Sub(now) > ScanInterval {
			continue
		}
		err := e.deliver(now, core.Notification{
			Type:         core.NotifyReminder,
			Priority:     core.PriorityNormal,
			Title:        "upcoming task",
			Body:         fmt.Sprintf("%q starts at %s", t.Title, t.ScheduledStart.Format("15:04")),
			ScheduledFor: now,
			Data:         map[string]string{"task_id": t.ID},
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// scanActiveTimerBreak emits a break suggestion once per session past 90
// elapsed minutes.
func (e *Engine) scanActiveTimerBreak(now time.Time) error {
	sess, active, err := e.store.GetActiveSession()
	if err != nil {
		return err
	}
	if !active {
		return nil
	}
	if now.Sub(sess.StartedAt) <= breakReminderThreshold {
		return nil
	}
	if e.breakSentThisSession[sess.ID] {
		return nil
	}
	if err := e.deliver(now, core.Notification{
		Type:         core.NotifySuggestion,
		Priority:     core.PriorityNormal,
		Title:        "time for a break",
		Body:         "you've been studying for over 90 minutes straight",
		ScheduledFor: now,
		Data:         map[string]string{"session_id": sess.ID},
	}); err != nil {
		return err
	}
	e.breakSentThisSession[sess.ID] = true
	return nil
}

// scanDueRevisions emits one reminder per day for each incomplete revision
// due today or earlier.
func (e *Engine) scanDueRevisions(now time.Time) error {
	due, err := e.store.ListDueRevisions(now)
	if err != nil {
		return err
	}
	for _, r := range due {
		if err := e.deliver(now, core.Notification{
			Type:         core.NotifyReminder,
			Priority:     core.PriorityNormal,
			Title:        "revision due",
			Body:         fmt.Sprintf("revision #%d for chapter %s is due", r.RevisionNumber, r.ChapterID),
			ScheduledFor: now,
			Data:         map[string]string{"revision_id": r.ID, "chapter_id": r.ChapterID},
		}); err != nil {
			return err
		}
	}
	return nil
}

// scanLabReportDeadlines emits a deadline notification for unsubmitted labs
// due within 3 days, priority high if within 24h.
func (e *Engine) scanLabReportDeadlines(now time.Time) error {
	open, err := e.store.ListOpenLabReports()
	if err != nil {
		return err
	}
	for _, lr := range open {
		remaining := lr.Deadline.Sub(now)
		if remaining < 0 || remaining > labReportWindow {
			continue
		}
		priority := core.PriorityNormal
		if remaining <= 24*time.Hour {
			priority = core.PriorityHigh
		}
		if err := e.deliver(now, core.Notification{
			Type:         core.NotifyDeadline,
			Priority:     priority,
			Title:        "lab report deadline approaching",
			Body:         fmt.Sprintf("%q is due %s", lr.Title, lr.Deadline.Format("Jan 2 15:04")),
			ScheduledFor: now,
			Data:         map[string]string{"lab_report_id": lr.ID},
		}); err != nil {
			return err
		}
	}
	return nil
}

// scanLongStudyDay emits a warning once daily study time passes 8 hours.
func (e *Engine) scanLongStudyDay(now time.Time) error {
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	stats, err := e.store.GetDailyStudyStats(day)
	if err != nil {
		return err
	}
	if time.Duration(stats.StudySeconds)*time.Second <= longStudyDayThreshold {
		return nil
	}
	return e.deliver(now, core.Notification{
		Type:         core.NotifyWarning,
		Priority:     core.PriorityNormal,
		Title:        "long study day",
		Body:         "you've studied more than 8 hours today",
		ScheduledFor: now,
	})
}

// SuggestFromPattern delivers C8's pattern-derived recommendations as
// suggestion notifications. Called by Scan for each subject with a
// sufficiently-sampled LearningPattern.
func (e *Engine) SuggestFromPattern(now time.Time, recs []pattern.Recommendation) error {
	for _, r := range recs {
		if err := e.deliver(now, core.Notification{
			Type:         core.NotifySuggestion,
			Priority:     core.PriorityLow,
			Title:        "study suggestion",
			Body:         r.Rationale,
			ScheduledFor: now,
			Data:         map[string]string{"recommendation_kind": string(r.Kind)},
		}); err != nil {
			return err
		}
	}
	return nil
}

// flushAchievements delivers any earned-but-unnotified achievements, then
// marks them notified.
func (e *Engine) flushAchievements(now time.Time) error {
	pending, err := e.achievement.PendingNotifications()
	if err != nil {
		return err
	}
	for _, ua := range pending {
		def, _ := achievement.DefinitionByCode(ua.Code)
		if err := e.deliver(now, core.Notification{
			Type:         core.NotifyAchievement,
			Priority:     core.PriorityHigh,
			Title:        "achievement earned",
			Body:         fmt.Sprintf("%s (+%d pts)", ua.Code, def.Points),
			ScheduledFor: now,
			Data:         map[string]string{"achievement_code": ua.Code},
		}); err != nil {
			return err
		}
		if err := e.achievement.MarkNotified(ua.Code); err != nil {
			return err
		}
	}
	return nil
}

// deliver applies the delivery contract (spec.md §4.10) and, if not
// dropped, persists and publishes the notification.
func (e *Engine) deliver(now time.Time, n core.Notification) error {
	pref, err := e.store.GetNotificationPreference(n.Type)
	if err != nil {
		if !errors.Is(err, core.ErrNotFound) {
			return err
		}
		pref = core.NotificationPreference{Enabled: true, FrequencyLimit: 1 << 30}
	}
	if !pref.Enabled {
		return nil
	}

	n.ID = e.idFunc()
	n.CreatedAt = now
	if n.ScheduledFor.IsZero() {
		n.ScheduledFor = now
	}
	if inQuietHours(n.ScheduledFor, pref.QuietHoursStart, pref.QuietHoursEnd) {
		n.ScheduledFor = nextOutsideQuietHours(n.ScheduledFor, pref.QuietHoursEnd)
	}

	if pref.FrequencyLimit > 0 {
		count, err := e.store.CountNotificationsSentSince(n.Type, now.Add(-time.Hour))
		if err != nil {
			return err
		}
		if count >= pref.FrequencyLimit {
			logging.Get(logging.CategoryNotify).Debug("dropping %s notification: frequency limit reached", n.Type)
			return nil
		}
	}

	if err := e.store.CreateNotification(n); err != nil {
		return err
	}
	if !n.ScheduledFor.After(now) {
		if err := e.store.MarkNotificationSent(n.ID, now); err != nil {
			return err
		}
		n.SentAt = &now
		e.pub.Publish(n)
	}
	return nil
}

// inQuietHours reports whether t's minute-of-day falls within
// [start, end) wall-clock minutes since midnight.
func inQuietHours(t time.Time, start, end int) bool {
	if start == 0 && end == 0 {
		return false
	}
	minute := t.Hour()*60 + t.Minute()
	if start <= end {
		return minute >= start && minute < end
	}
	// window wraps past midnight
	return minute >= start || minute < end
}

// nextOutsideQuietHours returns the next instant at or after t that falls
// outside the quiet-hours window ending at end.
func nextOutsideQuietHours(t time.Time, end int) time.Time {
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	candidate := day.Add(time.Duration(end) * time.Minute)
	if !candidate.After(t) {
		candidate = candidate.Add(24 * time.Hour)
	}
	return candidate
}

// DeliverDueScheduled flushes notifications whose scheduled_for has now
// arrived (e.g. ones deferred past quiet hours). Intended to run alongside
// Scan on the same tick.
func (e *Engine) DeliverDueScheduled(now time.Time) error {
	due, err := e.store.ListDueUnsentNotifications(now)
	if err != nil {
		return err
	}
	for _, n := range due {
		if err := e.store.MarkNotificationSent(n.ID, now); err != nil {
			if errors.Is(err, core.ErrConflict) {
				continue
			}
			return err
		}
		n.SentAt = &now
		e.pub.Publish(n)
	}
	return nil
}
