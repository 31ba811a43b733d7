package store

import (
	"studyloop/internal/core"
	"studyloop/internal/logging"
)

// CreateLabReport inserts a pending LabReport.
func (s *Store) CreateLabReport(lr core.LabReport) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(
		`INSERT INTO lab_reports (id, subject_code, title, due_date, deadline, status) VALUES (?, ?, ?, ?, ?, ?)`,
		lr.ID, lr.SubjectCode, lr.Title, lr.DueDate, lr.Deadline, lr.Status,
	)
	if err != nil {
		return core.NewError(core.KindConflict, "store.CreateLabReport", "lab report already exists", err)
	}
	logging.Get(logging.CategoryStore).Debug("created lab report %s", lr.ID)
	return nil
}

// ListOpenLabReports returns lab reports not yet submitted, ordered by deadline.
func (s *Store) ListOpenLabReports() ([]core.LabReport, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(
		`SELECT id, subject_code, title, due_date, deadline, status FROM lab_reports
		 WHERE status != ? ORDER BY deadline ASC`,
		core.AssignmentSubmitted,
	)
	if err != nil {
		return nil, core.NewError(core.KindBackendUnavailable, "store.ListOpenLabReports", "query failed", err)
	}
	defer rows.Close()

	var reports []core.LabReport
	for rows.Next() {
		var lr core.LabReport
		if err := rows.Scan(&lr.ID, &lr.SubjectCode, &lr.Title, &lr.DueDate, &lr.Deadline, &lr.Status); err != nil {
			return nil, err
		}
		reports = append(reports, lr)
	}
	return reports, rows.Err()
}

// SubmitLabReport marks a lab report submitted.
func (s *Store) SubmitLabReport(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.Exec(`UPDATE lab_reports SET status = ? WHERE id = ?`, core.AssignmentSubmitted, id)
	if err != nil {
		return core.NewError(core.KindBackendUnavailable, "store.SubmitLabReport", "update failed", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.NewError(core.KindNotFound, "store.SubmitLabReport", "lab report not found", nil)
	}
	return nil
}
