package store

import (
	"time"

	"studyloop/internal/core"
	"studyloop/internal/logging"
)

// CreateTask inserts a pending Task.
func (s *Store) CreateTask(t core.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(
		`INSERT INTO tasks (id, title, subject_code, priority, duration_mins, scheduled_start, scheduled_end, status, is_deep_work, task_type)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.Title, nullIfEmpty(t.SubjectCode), t.Priority, t.DurationMins,
		t.ScheduledStart, t.ScheduledEnd, t.Status, t.IsDeepWork, t.TaskType,
	)
	if err != nil {
		return core.NewError(core.KindConflict, "store.CreateTask", "task already exists", err)
	}
	logging.Get(logging.CategoryStore).Debug("created task %s", t.ID)
	return nil
}

// GetTask retrieves a Task by id.
func (s *Store) GetTask(id string) (core.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.getTaskLocked(id)
}

func (s *Store) getTaskLocked(id string) (core.Task, error) {
	var t core.Task
	var subjectCode *string
	err := s.db.QueryRow(
		`SELECT id, title, subject_code, priority, duration_mins, scheduled_start, scheduled_end, status, is_deep_work, task_type
		 FROM tasks WHERE id = ?`, id,
	).Scan(&t.ID, &t.Title, &subjectCode, &t.Priority, &t.DurationMins,
		&t.ScheduledStart, &t.ScheduledEnd, &t.Status, &t.IsDeepWork, &t.TaskType)
	if err != nil {
		return core.Task{}, wrapNotFound("store.GetTask", err)
	}
	if subjectCode != nil {
		t.SubjectCode = *subjectCode
	}
	return t, nil
}

// ListPendingTasks returns all tasks with status pending, placed or not,
// ordered by priority descending then id (for deterministic tie-breaks).
func (s *Store) ListPendingTasks() ([]core.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(
		`SELECT id, title, subject_code, priority, duration_mins, scheduled_start, scheduled_end, status, is_deep_work, task_type
		 FROM tasks WHERE status = ? ORDER BY priority DESC, id ASC`,
		core.TaskPending,
	)
	if err != nil {
		return nil, core.NewError(core.KindBackendUnavailable, "store.ListPendingTasks", "query failed", err)
	}
	defer rows.Close()
	return scanTasks(rows)
}

// ListTasksInRange returns tasks whose scheduled_start falls within [from, to).
func (s *Store) ListTasksInRange(from, to time.Time) ([]core.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(
		`SELECT id, title, subject_code, priority, duration_mins, scheduled_start, scheduled_end, status, is_deep_work, task_type
		 FROM tasks WHERE scheduled_start >= ? AND scheduled_start < ? ORDER BY scheduled_start ASC`,
		from, to,
	)
	if err != nil {
		return nil, core.NewError(core.KindBackendUnavailable, "store.ListTasksInRange", "query failed", err)
	}
	defer rows.Close()
	return scanTasks(rows)
}

func scanTasks(rows interface {
	Next() bool
	Scan(...interface{}) error
	Err() error
}) ([]core.Task, error) {
	var tasks []core.Task
	for rows.Next() {
		var t core.Task
		var subjectCode *string
		if err := rows.Scan(&t.ID, &t.Title, &subjectCode, &t.Priority, &t.DurationMins,
			&t.ScheduledStart, &t.ScheduledEnd, &t.Status, &t.IsDeepWork, &t.TaskType); err != nil {
			return nil, err
		}
		if subjectCode != nil {
			t.SubjectCode = *subjectCode
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

// PlaceTask atomically assigns a task's scheduled window. Fails with
// KindConflict if the task is already placed and KindNotFound if it does
// not exist.
func (s *Store) PlaceTask(taskID string, start, end time.Time, isDeepWork bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return core.NewError(core.KindBackendUnavailable, "store.PlaceTask", "begin tx failed", err)
	}
	defer tx.Rollback()

	var existingStart *time.Time
	if err := tx.QueryRow(`SELECT scheduled_start FROM tasks WHERE id = ?`, taskID).Scan(&existingStart); err != nil {
		return wrapNotFound("store.PlaceTask", err)
	}
	if existingStart != nil {
		return core.NewError(core.KindConflict, "store.PlaceTask", "task already placed", nil)
	}

	if _, err := tx.Exec(
		`UPDATE tasks SET scheduled_start = ?, scheduled_end = ?, is_deep_work = ? WHERE id = ?`,
		start, end, isDeepWork, taskID,
	); err != nil {
		return err
	}
	return tx.Commit()
}

// ReplaceTasksScheduling atomically clears the scheduled window of every
// pending task and then applies the given windows, used by the engine's
// TimelineOptimize.
func (s *Store) ReplaceTasksScheduling(placements map[string][2]time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return core.NewError(core.KindBackendUnavailable, "store.ReplaceTasksScheduling", "begin tx failed", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(
		`UPDATE tasks SET scheduled_start = NULL, scheduled_end = NULL WHERE status = ?`, core.TaskPending,
	); err != nil {
		return err
	}

	for id, window := range placements {
		if _, err := tx.Exec(
			`UPDATE tasks SET scheduled_start = ?, scheduled_end = ? WHERE id = ?`,
			window[0], window[1], id,
		); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// CompleteTask marks a task completed.
func (s *Store) CompleteTask(taskID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.Exec(`UPDATE tasks SET status = ? WHERE id = ?`, core.TaskCompleted, taskID)
	if err != nil {
		return core.NewError(core.KindBackendUnavailable, "store.CompleteTask", "update failed", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.NewError(core.KindNotFound, "store.CompleteTask", "task not found", nil)
	}
	return nil
}

// CancelTask marks a task cancelled.
func (s *Store) CancelTask(taskID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.Exec(`UPDATE tasks SET status = ? WHERE id = ?`, core.TaskCancelled, taskID)
	if err != nil {
		return core.NewError(core.KindBackendUnavailable, "store.CancelTask", "update failed", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.NewError(core.KindNotFound, "store.CancelTask", "task not found", nil)
	}
	return nil
}

func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
