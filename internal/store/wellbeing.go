package store

import (
	"database/sql"
	"encoding/json"
	"time"

	"studyloop/internal/core"
	"studyloop/internal/logging"
)

// RecordWellbeingMetric upserts a day's wellbeing score.
func (s *Store) RecordWellbeingMetric(m core.WellbeingMetric) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	recs, _ := json.Marshal(m.Recommendations)
	_, err := s.db.Exec(
		`INSERT INTO wellbeing_metrics (date, study_hours, break_count, overdue_tasks, deep_work_sessions, wellbeing_score, recommendations)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(date) DO UPDATE SET
		   study_hours = excluded.study_hours,
		   break_count = excluded.break_count,
		   overdue_tasks = excluded.overdue_tasks,
		   deep_work_sessions = excluded.deep_work_sessions,
		   wellbeing_score = excluded.wellbeing_score,
		   recommendations = excluded.recommendations`,
		m.Date, m.StudyHours, m.BreakCount, m.OverdueTasks, m.DeepWorkSessions, m.WellbeingScore, string(recs),
	)
	if err != nil {
		return core.NewError(core.KindBackendUnavailable, "store.RecordWellbeingMetric", "upsert failed", err)
	}
	return nil
}

// GetWellbeingMetric returns a day's wellbeing metric.
func (s *Store) GetWellbeingMetric(date time.Time) (core.WellbeingMetric, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var m core.WellbeingMetric
	m.Date = date
	var recsJSON string
	err := s.db.QueryRow(
		`SELECT study_hours, break_count, overdue_tasks, deep_work_sessions, wellbeing_score, recommendations
		 FROM wellbeing_metrics WHERE date = ?`, date,
	).Scan(&m.StudyHours, &m.BreakCount, &m.OverdueTasks, &m.DeepWorkSessions, &m.WellbeingScore, &recsJSON)
	if err != nil {
		if err == sql.ErrNoRows {
			return core.WellbeingMetric{Date: date}, nil
		}
		return core.WellbeingMetric{}, core.NewError(core.KindBackendUnavailable, "store.GetWellbeingMetric", "query failed", err)
	}
	_ = json.Unmarshal([]byte(recsJSON), &m.Recommendations)
	return m, nil
}

// StartBreak inserts a new open BreakSession.
func (s *Store) StartBreak(b core.BreakSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(
		`INSERT INTO break_sessions (id, break_type, started_at, suggested_duration_mins, actual_duration_mins, was_completed)
		 VALUES (?, ?, ?, ?, 0, 0)`,
		b.ID, b.BreakType, b.StartedAt, b.SuggestedDurationMins,
	)
	if err != nil {
		return core.NewError(core.KindConflict, "store.StartBreak", "break already exists", err)
	}
	return nil
}

// EndBreak closes a break session, recording whether it ran its suggested
// course (wasCompleted) and for how long.
func (s *Store) EndBreak(id string, endedAt time.Time, actualMins int, wasCompleted bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.Exec(
		`UPDATE break_sessions SET ended_at = ?, actual_duration_mins = ?, was_completed = ? WHERE id = ? AND ended_at IS NULL`,
		endedAt, actualMins, wasCompleted, id,
	)
	if err != nil {
		return core.NewError(core.KindBackendUnavailable, "store.EndBreak", "update failed", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.NewError(core.KindNotFound, "store.EndBreak", "open break not found", nil)
	}
	return nil
}

// ListBreaksInRange returns breaks started within [from, to).
func (s *Store) ListBreaksInRange(from, to time.Time) ([]core.BreakSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(
		`SELECT id, break_type, started_at, ended_at, suggested_duration_mins, actual_duration_mins, was_completed
		 FROM break_sessions WHERE started_at >= ? AND started_at < ? ORDER BY started_at ASC`,
		from, to,
	)
	if err != nil {
		return nil, core.NewError(core.KindBackendUnavailable, "store.ListBreaksInRange", "query failed", err)
	}
	defer rows.Close()

	var breaks []core.BreakSession
	for rows.Next() {
		var b core.BreakSession
		if err := rows.Scan(&b.ID, &b.BreakType, &b.StartedAt, &b.EndedAt, &b.SuggestedDurationMins, &b.ActualDurationMins, &b.WasCompleted); err != nil {
			return nil, err
		}
		breaks = append(breaks, b)
	}
	return breaks, rows.Err()
}

// GetPomodoroStatus returns the single PomodoroStatus register.
func (s *Store) GetPomodoroStatus() (core.PomodoroStatus, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var ps core.PomodoroStatus
	err := s.db.QueryRow(
		`SELECT current_phase, cycles_completed, phase_started_at FROM pomodoro_status WHERE id = 1`,
	).Scan(&ps.CurrentPhase, &ps.CyclesCompleted, &ps.PhaseStartedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return core.PomodoroStatus{CurrentPhase: core.PomodoroIdle}, nil
		}
		return core.PomodoroStatus{}, core.NewError(core.KindBackendUnavailable, "store.GetPomodoroStatus", "query failed", err)
	}
	return ps, nil
}

// SetPomodoroStatus overwrites the single PomodoroStatus register.
func (s *Store) SetPomodoroStatus(ps core.PomodoroStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(
		`INSERT INTO pomodoro_status (id, current_phase, cycles_completed, phase_started_at)
		 VALUES (1, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   current_phase = excluded.current_phase,
		   cycles_completed = excluded.cycles_completed,
		   phase_started_at = excluded.phase_started_at`,
		ps.CurrentPhase, ps.CyclesCompleted, ps.PhaseStartedAt,
	)
	if err != nil {
		return core.NewError(core.KindBackendUnavailable, "store.SetPomodoroStatus", "upsert failed", err)
	}
	logging.Get(logging.CategoryStore).Debug("pomodoro phase -> %s", ps.CurrentPhase)
	return nil
}
