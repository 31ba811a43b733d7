// Package timer implements the Session Timer (C7): the singleton active
// study session, its start/stop lifecycle, and live elapsed-time status.
package timer

import (
	"time"

	"studyloop/internal/core"
	"studyloop/internal/logging"
	"studyloop/internal/store"
)

// Timer wraps a Store with the C7 operation surface.
type Timer struct {
	store *store.Store
}

// New constructs a Timer over the given Store.
func New(s *store.Store) *Timer {
	return &Timer{store: s}
}

// Status is a live snapshot of the active session, or IsActive=false.
type Status struct {
	IsActive       bool
	Session        core.StudySession
	ElapsedSeconds int64
}

// Start begins a new session. Fails with KindConflict if one is already
// active (spec.md §4.7).
func (t *Timer) Start(id, subjectCode, chapterID, title string, now time.Time) error {
	return t.store.StartSession(core.StudySession{
		ID: id, SubjectCode: subjectCode, ChapterID: chapterID, Title: title, StartedAt: now,
	})
}

// Stop closes the active session atomically, returning the completed
// StudySession with duration, deep-work flag, and points computed.
func (t *Timer) Stop(now time.Time) (core.StudySession, error) {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	sess, err := t.store.StopActiveTimer(now, today)
	if err != nil {
		return core.StudySession{}, err
	}
	logging.Get(logging.CategoryTimer).Info("session %s stopped: %ds elapsed, +%d pts", sess.ID, *sess.DurationSeconds, sess.PointsEarned)
	return sess, nil
}

// Status returns the live status of the active session (if any), with
// elapsed seconds derived from now - started_at (spec.md §4.7).
func (t *Timer) Status(now time.Time) (Status, error) {
	sess, active, err := t.store.GetActiveSession()
	if err != nil {
		return Status{}, err
	}
	if !active {
		return Status{IsActive: false}, nil
	}
	return Status{
		IsActive:       true,
		Session:        sess,
		ElapsedSeconds: int64(now.Sub(sess.StartedAt).Seconds()),
	}, nil
}
