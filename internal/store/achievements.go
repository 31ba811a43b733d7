package store

import (
	"database/sql"
	"time"

	"studyloop/internal/core"
)

// SeedAchievementDefinitions inserts the fixed achievement catalog,
// skipping codes that already exist (idempotent startup call).
func (s *Store) SeedAchievementDefinitions(defs []core.AchievementDefinition) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return core.NewError(core.KindBackendUnavailable, "store.SeedAchievementDefinitions", "begin tx failed", err)
	}
	defer tx.Rollback()

	for _, d := range defs {
		if _, err := tx.Exec(
			`INSERT OR IGNORE INTO achievement_definitions (code, category, threshold_value, points, rarity, prerequisite_code)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			d.Code, d.Category, d.ThresholdValue, d.Points, d.Rarity, nullIfEmpty(d.PrerequisiteCode),
		); err != nil {
			return err
		}
		if _, err := tx.Exec(
			`INSERT OR IGNORE INTO user_achievements (code, progress_value, is_complete, notified) VALUES (?, 0, 0, 0)`,
			d.Code,
		); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// ListAchievementDefinitions returns the full catalog.
func (s *Store) ListAchievementDefinitions() ([]core.AchievementDefinition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`SELECT code, category, threshold_value, points, rarity, prerequisite_code FROM achievement_definitions`)
	if err != nil {
		return nil, core.NewError(core.KindBackendUnavailable, "store.ListAchievementDefinitions", "query failed", err)
	}
	defer rows.Close()

	var defs []core.AchievementDefinition
	for rows.Next() {
		var d core.AchievementDefinition
		var prereq *string
		if err := rows.Scan(&d.Code, &d.Category, &d.ThresholdValue, &d.Points, &d.Rarity, &prereq); err != nil {
			return nil, err
		}
		if prereq != nil {
			d.PrerequisiteCode = *prereq
		}
		defs = append(defs, d)
	}
	return defs, rows.Err()
}

// ListUserAchievements returns per-achievement progress for every catalog entry.
func (s *Store) ListUserAchievements() ([]core.UserAchievement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`SELECT code, progress_value, is_complete, earned_at, notified FROM user_achievements`)
	if err != nil {
		return nil, core.NewError(core.KindBackendUnavailable, "store.ListUserAchievements", "query failed", err)
	}
	defer rows.Close()

	var out []core.UserAchievement
	for rows.Next() {
		var ua core.UserAchievement
		if err := rows.Scan(&ua.Code, &ua.ProgressValue, &ua.IsComplete, &ua.EarnedAt, &ua.Notified); err != nil {
			return nil, err
		}
		out = append(out, ua)
	}
	return out, rows.Err()
}

// UpdateAchievementProgress sets an achievement's progress value and, when
// it crosses its threshold for the first time, marks it complete and stamps
// earned_at. Returns the updated row and whether this call completed it.
func (s *Store) UpdateAchievementProgress(code string, progress float64, threshold float64, earnedAt time.Time) (core.UserAchievement, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return core.UserAchievement{}, false, core.NewError(core.KindBackendUnavailable, "store.UpdateAchievementProgress", "begin tx failed", err)
	}
	defer tx.Rollback()

	var ua core.UserAchievement
	if err := tx.QueryRow(
		`SELECT code, progress_value, is_complete, earned_at, notified FROM user_achievements WHERE code = ?`, code,
	).Scan(&ua.Code, &ua.ProgressValue, &ua.IsComplete, &ua.EarnedAt, &ua.Notified); err != nil {
		if err == sql.ErrNoRows {
			return core.UserAchievement{}, false, core.NewError(core.KindNotFound, "store.UpdateAchievementProgress", "achievement not defined", nil)
		}
		return core.UserAchievement{}, false, err
	}

	justCompleted := !ua.IsComplete && progress >= threshold
	ua.ProgressValue = progress
	if justCompleted {
		ua.IsComplete = true
		ua.EarnedAt = &earnedAt
	}

	if _, err := tx.Exec(
		`UPDATE user_achievements SET progress_value = ?, is_complete = ?, earned_at = ? WHERE code = ?`,
		ua.ProgressValue, ua.IsComplete, ua.EarnedAt, code,
	); err != nil {
		return core.UserAchievement{}, false, err
	}

	if err := tx.Commit(); err != nil {
		return core.UserAchievement{}, false, err
	}
	return ua, justCompleted, nil
}

// MarkAchievementNotified flags an achievement's completion as delivered.
func (s *Store) MarkAchievementNotified(code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`UPDATE user_achievements SET notified = 1 WHERE code = ?`, code)
	if err != nil {
		return core.NewError(core.KindBackendUnavailable, "store.MarkAchievementNotified", "update failed", err)
	}
	return nil
}
