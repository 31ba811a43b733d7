package store

import (
	"time"

	"studyloop/internal/core"
	"studyloop/internal/logging"
)

// CreateRevision inserts a Revision directly (used by explicit-tool-call
// scheduling, spec.md §9's other interval set: +1/+3/+7/+14/+30 days).
func (s *Store) CreateRevision(rev core.Revision) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(
		`INSERT INTO revisions (id, chapter_id, revision_number, due_date, completed, points_earned)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		rev.ID, rev.ChapterID, rev.RevisionNumber, rev.DueDate, rev.Completed, rev.PointsEarned,
	)
	if err != nil {
		return core.NewError(core.KindConflict, "store.CreateRevision", "revision already exists", err)
	}
	return nil
}

// GetRevision retrieves one revision by id.
func (s *Store) GetRevision(id string) (core.Revision, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var r core.Revision
	err := s.db.QueryRow(
		`SELECT id, chapter_id, revision_number, due_date, completed, points_earned FROM revisions WHERE id = ?`,
		id,
	).Scan(&r.ID, &r.ChapterID, &r.RevisionNumber, &r.DueDate, &r.Completed, &r.PointsEarned)
	if err != nil {
		return core.Revision{}, wrapNotFound("store.GetRevision", err)
	}
	return r, nil
}

// ListDueRevisions returns incomplete revisions due on or before cutoff.
func (s *Store) ListDueRevisions(cutoff time.Time) ([]core.Revision, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(
		`SELECT id, chapter_id, revision_number, due_date, completed, points_earned
		 FROM revisions WHERE completed = 0 AND due_date <= ? ORDER BY due_date ASC`,
		cutoff,
	)
	if err != nil {
		return nil, core.NewError(core.KindBackendUnavailable, "store.ListDueRevisions", "query failed", err)
	}
	defer rows.Close()

	var revs []core.Revision
	for rows.Next() {
		var r core.Revision
		if err := rows.Scan(&r.ID, &r.ChapterID, &r.RevisionNumber, &r.DueDate, &r.Completed, &r.PointsEarned); err != nil {
			return nil, err
		}
		revs = append(revs, r)
	}
	return revs, rows.Err()
}

// CompleteRevision atomically marks a revision completed, credits points,
// and bumps the parent chapter's revision_count and mastery_level.
func (s *Store) CompleteRevision(revisionID string, points int, masteryDelta int) (core.Revision, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return core.Revision{}, core.NewError(core.KindBackendUnavailable, "store.CompleteRevision", "begin tx failed", err)
	}
	defer tx.Rollback()

	var rev core.Revision
	if err := tx.QueryRow(
		`SELECT id, chapter_id, revision_number, due_date, completed, points_earned FROM revisions WHERE id = ?`,
		revisionID,
	).Scan(&rev.ID, &rev.ChapterID, &rev.RevisionNumber, &rev.DueDate, &rev.Completed, &rev.PointsEarned); err != nil {
		return core.Revision{}, wrapNotFound("store.CompleteRevision", err)
	}
	if rev.Completed {
		return core.Revision{}, core.NewError(core.KindConflict, "store.CompleteRevision", "revision already completed", nil)
	}

	if _, err := tx.Exec(
		`UPDATE revisions SET completed = 1, points_earned = ? WHERE id = ?`, points, revisionID,
	); err != nil {
		return core.Revision{}, err
	}

	if _, err := tx.Exec(
		`UPDATE chapter_progress SET revision_count = revision_count + 1,
		 mastery_level = MIN(100, mastery_level + ?) WHERE chapter_id = ?`,
		masteryDelta, rev.ChapterID,
	); err != nil {
		return core.Revision{}, err
	}

	if err := tx.Commit(); err != nil {
		return core.Revision{}, err
	}

	rev.Completed = true
	rev.PointsEarned = points
	logging.Get(logging.CategoryStore).Info("completed revision %s (+%d pts)", revisionID, points)
	return rev, nil
}
