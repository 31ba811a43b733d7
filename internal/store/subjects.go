package store

import (
	"database/sql"

	"studyloop/internal/core"
	"studyloop/internal/logging"
)

// CreateSubject inserts a new Subject.
func (s *Store) CreateSubject(sub core.Subject) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(
		`INSERT INTO subjects (code, name, credits, type, color) VALUES (?, ?, ?, ?, ?)`,
		sub.Code, sub.Name, sub.Credits, sub.Type, sub.Color,
	)
	if err != nil {
		logging.Get(logging.CategoryStore).Error("CreateSubject %s: %v", sub.Code, err)
		return core.NewError(core.KindConflict, "store.CreateSubject", "subject already exists", err)
	}
	logging.Get(logging.CategoryStore).Debug("created subject %s", sub.Code)
	return nil
}

// GetSubject retrieves a Subject by code.
func (s *Store) GetSubject(code string) (core.Subject, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var sub core.Subject
	err := s.db.QueryRow(
		`SELECT code, name, credits, type, color FROM subjects WHERE code = ?`, code,
	).Scan(&sub.Code, &sub.Name, &sub.Credits, &sub.Type, &sub.Color)
	if err != nil {
		return core.Subject{}, wrapNotFound("store.GetSubject", err)
	}
	return sub, nil
}

// ListSubjects returns all subjects.
func (s *Store) ListSubjects() ([]core.Subject, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`SELECT code, name, credits, type, color FROM subjects ORDER BY code`)
	if err != nil {
		return nil, core.NewError(core.KindBackendUnavailable, "store.ListSubjects", "query failed", err)
	}
	defer rows.Close()

	var subs []core.Subject
	for rows.Next() {
		var sub core.Subject
		if err := rows.Scan(&sub.Code, &sub.Name, &sub.Credits, &sub.Type, &sub.Color); err != nil {
			return nil, err
		}
		subs = append(subs, sub)
	}
	return subs, rows.Err()
}

// CreateChapter inserts a Chapter and its zero-value ChapterProgress row.
func (s *Store) CreateChapter(ch core.Chapter) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return core.NewError(core.KindBackendUnavailable, "store.CreateChapter", "begin tx failed", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(
		`INSERT INTO chapters (id, subject_code, number, title, slug) VALUES (?, ?, ?, ?, ?)`,
		ch.ID, ch.SubjectCode, ch.Number, ch.Title, ch.Slug,
	); err != nil {
		return core.NewError(core.KindConflict, "store.CreateChapter", "chapter already exists", err)
	}

	if _, err := tx.Exec(
		`INSERT INTO chapter_progress (chapter_id) VALUES (?)`, ch.ID,
	); err != nil {
		return core.NewError(core.KindBackendUnavailable, "store.CreateChapter", "progress row failed", err)
	}

	return tx.Commit()
}

// GetChapter retrieves a Chapter by id.
func (s *Store) GetChapter(id string) (core.Chapter, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var ch core.Chapter
	err := s.db.QueryRow(
		`SELECT id, subject_code, number, title, slug FROM chapters WHERE id = ?`, id,
	).Scan(&ch.ID, &ch.SubjectCode, &ch.Number, &ch.Title, &ch.Slug)
	if err != nil {
		return core.Chapter{}, wrapNotFound("store.GetChapter", err)
	}
	return ch, nil
}

// ListChaptersBySubject returns a subject's chapters ordered by number.
func (s *Store) ListChaptersBySubject(subjectCode string) ([]core.Chapter, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(
		`SELECT id, subject_code, number, title, slug FROM chapters WHERE subject_code = ? ORDER BY number`,
		subjectCode,
	)
	if err != nil {
		return nil, core.NewError(core.KindBackendUnavailable, "store.ListChaptersBySubject", "query failed", err)
	}
	defer rows.Close()

	var chapters []core.Chapter
	for rows.Next() {
		var ch core.Chapter
		if err := rows.Scan(&ch.ID, &ch.SubjectCode, &ch.Number, &ch.Title, &ch.Slug); err != nil {
			return nil, err
		}
		chapters = append(chapters, ch)
	}
	return chapters, rows.Err()
}

// GetChapterProgress retrieves a chapter's progress row.
func (s *Store) GetChapterProgress(chapterID string) (core.ChapterProgress, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.getChapterProgressLocked(chapterID)
}

func (s *Store) getChapterProgressLocked(chapterID string) (core.ChapterProgress, error) {
	var cp core.ChapterProgress
	err := s.db.QueryRow(
		`SELECT chapter_id, reading_status, assignment_status, mastery_level, revision_count
		 FROM chapter_progress WHERE chapter_id = ?`, chapterID,
	).Scan(&cp.ChapterID, &cp.ReadingStatus, &cp.AssignmentStatus, &cp.MasteryLevel, &cp.RevisionCount)
	if err != nil {
		return core.ChapterProgress{}, wrapNotFound("store.GetChapterProgress", err)
	}
	return cp, nil
}

// UpdateChapterProgress overwrites a chapter's progress fields.
func (s *Store) UpdateChapterProgress(cp core.ChapterProgress) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.Exec(
		`UPDATE chapter_progress SET reading_status = ?, assignment_status = ?, mastery_level = ?, revision_count = ?
		 WHERE chapter_id = ?`,
		cp.ReadingStatus, cp.AssignmentStatus, cp.MasteryLevel, cp.RevisionCount, cp.ChapterID,
	)
	if err != nil {
		return core.NewError(core.KindBackendUnavailable, "store.UpdateChapterProgress", "update failed", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.NewError(core.KindNotFound, "store.UpdateChapterProgress", "chapter not found", nil)
	}
	return nil
}

// CompleteChapterReading atomically marks a chapter's reading complete and
// inserts the given revisions (computed by the caller per spec.md §9's
// reading-completion interval set, +7/+14/+21 days). Fails with
// KindPrecondition if reading is already marked complete.
func (s *Store) CompleteChapterReading(chapterID string, revisions []core.Revision) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return core.NewError(core.KindBackendUnavailable, "store.CompleteChapterReading", "begin tx failed", err)
	}
	defer tx.Rollback()

	var status string
	if err := tx.QueryRow(`SELECT reading_status FROM chapter_progress WHERE chapter_id = ?`, chapterID).Scan(&status); err != nil {
		return wrapNotFound("store.CompleteChapterReading", err)
	}
	if status == string(core.ReadingCompleted) {
		return core.NewError(core.KindPrecondition, "store.CompleteChapterReading", "reading already completed", nil)
	}

	if _, err := tx.Exec(
		`UPDATE chapter_progress SET reading_status = ? WHERE chapter_id = ?`,
		core.ReadingCompleted, chapterID,
	); err != nil {
		return err
	}

	for _, rev := range revisions {
		if _, err := tx.Exec(
			`INSERT INTO revisions (id, chapter_id, revision_number, due_date, completed, points_earned)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			rev.ID, rev.ChapterID, rev.RevisionNumber, rev.DueDate, rev.Completed, rev.PointsEarned,
		); err != nil {
			return err
		}
	}

	return tx.Commit()
}

var _ = sql.ErrNoRows
