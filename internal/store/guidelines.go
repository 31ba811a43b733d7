package store

import (
	"studyloop/internal/core"
)

// CreateGuideline inserts a policy guideline (spec.md's free-text rule
// surface, consumed only by external policy callers, never by studyloop's
// own scheduling logic).
func (s *Store) CreateGuideline(g core.Guideline) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(
		`INSERT INTO guidelines (id, rule, priority, active) VALUES (?, ?, ?, ?)`,
		g.ID, g.Rule, g.Priority, g.Active,
	)
	if err != nil {
		return core.NewError(core.KindConflict, "store.CreateGuideline", "guideline already exists", err)
	}
	return nil
}

// ListActiveGuidelines returns active guidelines ordered by priority descending.
func (s *Store) ListActiveGuidelines() ([]core.Guideline, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`SELECT id, rule, priority, active FROM guidelines WHERE active = 1 ORDER BY priority DESC`)
	if err != nil {
		return nil, core.NewError(core.KindBackendUnavailable, "store.ListActiveGuidelines", "query failed", err)
	}
	defer rows.Close()

	var out []core.Guideline
	for rows.Next() {
		var g core.Guideline
		if err := rows.Scan(&g.ID, &g.Rule, &g.Priority, &g.Active); err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

// DeactivateGuideline flips a guideline's active flag off.
func (s *Store) DeactivateGuideline(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.Exec(`UPDATE guidelines SET active = 0 WHERE id = ?`, id)
	if err != nil {
		return core.NewError(core.KindBackendUnavailable, "store.DeactivateGuideline", "update failed", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.NewError(core.KindNotFound, "store.DeactivateGuideline", "guideline not found", nil)
	}
	return nil
}

// SetMemoryFact upserts a (category, key) -> value fact.
func (s *Store) SetMemoryFact(f core.MemoryFact) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(
		`INSERT INTO memory_facts (category, key, value) VALUES (?, ?, ?)
		 ON CONFLICT(category, key) DO UPDATE SET value = excluded.value`,
		f.Category, f.Key, f.Value,
	)
	if err != nil {
		return core.NewError(core.KindBackendUnavailable, "store.SetMemoryFact", "upsert failed", err)
	}
	return nil
}

// ListMemoryFacts returns all facts in a category.
func (s *Store) ListMemoryFacts(category string) ([]core.MemoryFact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`SELECT category, key, value FROM memory_facts WHERE category = ?`, category)
	if err != nil {
		return nil, core.NewError(core.KindBackendUnavailable, "store.ListMemoryFacts", "query failed", err)
	}
	defer rows.Close()

	var out []core.MemoryFact
	for rows.Next() {
		var f core.MemoryFact
		if err := rows.Scan(&f.Category, &f.Key, &f.Value); err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}
