package store

import (
	"errors"
	"time"

	"studyloop/internal/core"
	"studyloop/internal/logging"
)

// StartSession inserts a new open StudySession. Fails with KindConflict if
// an active session already exists (only one ActiveTimer at a time).
func (s *Store) StartSession(sess core.StudySession) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var count int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM study_sessions WHERE stopped_at IS NULL`).Scan(&count); err != nil {
		return core.NewError(core.KindBackendUnavailable, "store.StartSession", "query failed", err)
	}
	if count > 0 {
		return core.NewError(core.KindConflict, "store.StartSession", "a session is already active", nil)
	}

	_, err := s.db.Exec(
		`INSERT INTO study_sessions (id, subject_code, chapter_id, title, started_at, is_deep_work, points_earned)
		 VALUES (?, ?, ?, ?, ?, 0, 0)`,
		sess.ID, nullIfEmpty(sess.SubjectCode), nullIfEmpty(sess.ChapterID), nullIfEmpty(sess.Title), sess.StartedAt,
	)
	if err != nil {
		return core.NewError(core.KindBackendUnavailable, "store.StartSession", "insert failed", err)
	}
	logging.Get(logging.CategoryStore).Info("started session %s", sess.ID)
	return nil
}

// GetActiveSession returns the currently open session, if any.
func (s *Store) GetActiveSession() (core.StudySession, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.scanActiveSession()
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return core.StudySession{}, false, nil
		}
		return core.StudySession{}, false, err
	}
	return sess, true, nil
}

func (s *Store) scanActiveSession() (core.StudySession, error) {
	var sess core.StudySession
	var subjectCode, chapterID, title *string
	err := s.db.QueryRow(
		`SELECT id, subject_code, chapter_id, title, started_at FROM study_sessions WHERE stopped_at IS NULL`,
	).Scan(&sess.ID, &subjectCode, &chapterID, &title, &sess.StartedAt)
	if err != nil {
		return core.StudySession{}, wrapNotFound("store.GetActiveSession", err)
	}
	if subjectCode != nil {
		sess.SubjectCode = *subjectCode
	}
	if chapterID != nil {
		sess.ChapterID = *chapterID
	}
	if title != nil {
		sess.Title = *title
	}
	return sess, nil
}

// StopActiveTimer atomically closes the active session, computing duration,
// deep-work classification, and points earned, then rolls the totals into
// daily_study_stats. user_streak is left untouched here: the streak-update
// rule only fires for sessions past the 30-minute threshold, and that
// gating (plus the points credit) lives in internal/engine's
// applyStreakUpdate so there is exactly one place that stamps last_activity.
func (s *Store) StopActiveTimer(stoppedAt time.Time, today time.Time) (core.StudySession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return core.StudySession{}, core.NewError(core.KindBackendUnavailable, "store.StopActiveTimer", "begin tx failed", err)
	}
	defer tx.Rollback()

	var sess core.StudySession
	var subjectCode, chapterID, title *string
	err = tx.QueryRow(
		`SELECT id, subject_code, chapter_id, title, started_at FROM study_sessions WHERE stopped_at IS NULL`,
	).Scan(&sess.ID, &subjectCode, &chapterID, &title, &sess.StartedAt)
	if err != nil {
		return core.StudySession{}, wrapNotFound("store.StopActiveTimer", err)
	}
	if subjectCode != nil {
		sess.SubjectCode = *subjectCode
	}
	if chapterID != nil {
		sess.ChapterID = *chapterID
	}
	if title != nil {
		sess.Title = *title
	}

	duration := int64(stoppedAt.Sub(sess.StartedAt).Seconds())
	if duration < 0 {
		duration = 0
	}
	isDeepWork := duration >= core.DeepWorkThresholdSeconds
	points := core.SessionPoints(duration)

	if _, err := tx.Exec(
		`UPDATE study_sessions SET stopped_at = ?, duration_seconds = ?, is_deep_work = ?, points_earned = ? WHERE id = ?`,
		stoppedAt, duration, isDeepWork, points, sess.ID,
	); err != nil {
		return core.StudySession{}, err
	}

	deepWorkSeconds := int64(0)
	if isDeepWork {
		deepWorkSeconds = duration
	}
	if _, err := tx.Exec(
		`INSERT INTO daily_study_stats (date, study_seconds, deep_work_seconds, sessions_count, points_earned)
		 VALUES (?, ?, ?, 1, ?)
		 ON CONFLICT(date) DO UPDATE SET
		   study_seconds = study_seconds + excluded.study_seconds,
		   deep_work_seconds = deep_work_seconds + excluded.deep_work_seconds,
		   sessions_count = sessions_count + 1,
		   points_earned = points_earned + excluded.points_earned`,
		today, duration, deepWorkSeconds, points,
	); err != nil {
		return core.StudySession{}, err
	}

	if err := tx.Commit(); err != nil {
		return core.StudySession{}, err
	}

	sess.StoppedAt = &stoppedAt
	sess.DurationSeconds = &duration
	sess.IsDeepWork = isDeepWork
	sess.PointsEarned = points
	logging.Get(logging.CategoryStore).Info("stopped session %s: %ds, +%d pts", sess.ID, duration, points)
	return sess, nil
}

// ListSessionsInRange returns sessions started within [from, to).
func (s *Store) ListSessionsInRange(from, to time.Time) ([]core.StudySession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(
		`SELECT id, subject_code, chapter_id, title, started_at, stopped_at, duration_seconds, is_deep_work, points_earned
		 FROM study_sessions WHERE started_at >= ? AND started_at < ? ORDER BY started_at ASC`,
		from, to,
	)
	if err != nil {
		return nil, core.NewError(core.KindBackendUnavailable, "store.ListSessionsInRange", "query failed", err)
	}
	defer rows.Close()

	var sessions []core.StudySession
	for rows.Next() {
		var sess core.StudySession
		var subjectCode, chapterID, title *string
		if err := rows.Scan(&sess.ID, &subjectCode, &chapterID, &title, &sess.StartedAt,
			&sess.StoppedAt, &sess.DurationSeconds, &sess.IsDeepWork, &sess.PointsEarned); err != nil {
			return nil, err
		}
		if subjectCode != nil {
			sess.SubjectCode = *subjectCode
		}
		if chapterID != nil {
			sess.ChapterID = *chapterID
		}
		if title != nil {
			sess.Title = *title
		}
		sessions = append(sessions, sess)
	}
	return sessions, rows.Err()
}

// GetDailyStudyStats returns the stats row for a calendar date, zero-valued
// if no sessions were recorded that day.
func (s *Store) GetDailyStudyStats(date time.Time) (core.DailyStudyStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var st core.DailyStudyStats
	st.Date = date
	err := s.db.QueryRow(
		`SELECT study_seconds, deep_work_seconds, sessions_count, points_earned FROM daily_study_stats WHERE date = ?`,
		date,
	).Scan(&st.StudySeconds, &st.DeepWorkSeconds, &st.SessionsCount, &st.PointsEarned)
	if err != nil && !isNoRows(err) {
		return core.DailyStudyStats{}, core.NewError(core.KindBackendUnavailable, "store.GetDailyStudyStats", "query failed", err)
	}
	return st, nil
}

// GetUserStreak returns the single UserStreak register.
func (s *Store) GetUserStreak() (core.UserStreak, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var us core.UserStreak
	err := s.db.QueryRow(
		`SELECT current_streak, longest_streak, total_points, last_activity FROM user_streak WHERE id = 1`,
	).Scan(&us.CurrentStreak, &us.LongestStreak, &us.TotalPoints, &us.LastActivity)
	if err != nil && !isNoRows(err) {
		return core.UserStreak{}, core.NewError(core.KindBackendUnavailable, "store.GetUserStreak", "query failed", err)
	}
	return us, nil
}

// SetUserStreak overwrites the streak register (used by internal/engine's
// applyStreakUpdate).
func (s *Store) SetUserStreak(us core.UserStreak) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(
		`INSERT INTO user_streak (id, current_streak, longest_streak, total_points, last_activity)
		 VALUES (1, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   current_streak = excluded.current_streak,
		   longest_streak = excluded.longest_streak,
		   total_points = excluded.total_points,
		   last_activity = excluded.last_activity`,
		us.CurrentStreak, us.LongestStreak, us.TotalPoints, us.LastActivity,
	)
	if err != nil {
		return core.NewError(core.KindBackendUnavailable, "store.SetUserStreak", "update failed", err)
	}
	return nil
}
