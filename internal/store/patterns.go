package store

import (
	"database/sql"
	"encoding/json"

	"studyloop/internal/core"
)

// RecordSessionEffectiveness inserts a C8 observation and folds it into the
// subject's (or global, subjectCode="") running LearningPattern using an
// incremental-mean update (avg_n = avg_(n-1) + (x - avg_(n-1)) / n) of the
// effectiveness score and per-time-of-day focus averages. avg_duration_mins
// is not folded: an observation carries no session length, so the stored
// value stays at what the first insert wrote (0).
func (s *Store) RecordSessionEffectiveness(obs core.SessionEffectiveness) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return core.NewError(core.KindBackendUnavailable, "store.RecordSessionEffectiveness", "begin tx failed", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(
		`INSERT INTO session_effectiveness (id, session_id, subject_code, time_of_day, day_of_week, focus_score, energy_level, material_covered)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		obs.ID, obs.SessionID, nullIfEmpty(obs.SubjectCode), obs.TimeOfDay, int(obs.DayOfWeek), obs.FocusScore, obs.EnergyLevel, obs.MaterialCovered,
	); err != nil {
		return err
	}

	keys := []string{""}
	if obs.SubjectCode != "" {
		keys = append(keys, obs.SubjectCode)
	}
	for _, key := range keys {
		if err := foldPattern(tx, key, obs); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func foldPattern(tx *sql.Tx, subjectCode string, obs core.SessionEffectiveness) error {
	var avgDuration, effectiveness float64
	var bestTime string
	var samples int
	var sumsJSON, countsJSON string

	err := tx.QueryRow(
		`SELECT avg_duration_mins, best_study_time, effectiveness_score, samples_count, time_of_day_sums, time_of_day_counts
		 FROM learning_patterns WHERE subject_code = ?`, subjectCode,
	).Scan(&avgDuration, &bestTime, &effectiveness, &samples, &sumsJSON, &countsJSON)
	if err != nil && err != sql.ErrNoRows {
		return err
	}
	if err == sql.ErrNoRows {
		sumsJSON, countsJSON = "{}", "{}"
	}

	sums := map[string]float64{}
	counts := map[string]int{}
	_ = json.Unmarshal([]byte(sumsJSON), &sums)
	_ = json.Unmarshal([]byte(countsJSON), &counts)

	key := string(obs.TimeOfDay)
	sums[key] += obs.FocusScore
	counts[key]++

	samples++
	effectiveness += (obs.FocusScore - effectiveness) / float64(samples)

	best := bestTime
	bestAvg := -1.0
	for k, sum := range sums {
		if c := counts[k]; c > 0 {
			avg := sum / float64(c)
			if avg > bestAvg {
				bestAvg = avg
				best = k
			}
		}
	}

	newSums, _ := json.Marshal(sums)
	newCounts, _ := json.Marshal(counts)

	_, err = tx.Exec(
		`INSERT INTO learning_patterns (subject_code, avg_duration_mins, best_study_time, effectiveness_score, samples_count, time_of_day_sums, time_of_day_counts)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(subject_code) DO UPDATE SET
		   best_study_time = excluded.best_study_time,
		   effectiveness_score = excluded.effectiveness_score,
		   samples_count = excluded.samples_count,
		   time_of_day_sums = excluded.time_of_day_sums,
		   time_of_day_counts = excluded.time_of_day_counts`,
		subjectCode, avgDuration, best, effectiveness, samples, string(newSums), string(newCounts),
	)
	return err
}

// GetLearningPattern returns the pattern for a subject ("" for global). The
// second return is false (insufficient data) when samples_count < 5,
// matching spec.md's pattern-analysis floor.
func (s *Store) GetLearningPattern(subjectCode string) (core.LearningPattern, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var lp core.LearningPattern
	lp.SubjectCode = subjectCode
	var bestTime string
	err := s.db.QueryRow(
		`SELECT avg_duration_mins, best_study_time, effectiveness_score, samples_count
		 FROM learning_patterns WHERE subject_code = ?`, subjectCode,
	).Scan(&lp.AvgDurationMins, &bestTime, &lp.EffectivenessScore, &lp.SamplesCount)
	if err != nil {
		if err == sql.ErrNoRows {
			return core.LearningPattern{SubjectCode: subjectCode}, false, nil
		}
		return core.LearningPattern{}, false, core.NewError(core.KindBackendUnavailable, "store.GetLearningPattern", "query failed", err)
	}
	lp.BestStudyTime = core.TimeOfDayClass(bestTime)
	return lp, lp.SamplesCount >= 5, nil
}
