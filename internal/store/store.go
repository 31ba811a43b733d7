// Package store implements studyloop's single-writer SQLite persistence
// layer (C1). Grounded on codeNERD's internal/store.LocalStore: one
// *sql.DB opened with SetMaxOpenConns(1), a sync.RWMutex guarding every
// method, WAL journal mode, and a startup schema migration.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "github.com/mattn/go-sqlite3"

	"studyloop/internal/core"
	"studyloop/internal/logging"
)

// Store is the single persistence handle for all studyloop entities.
type Store struct {
	db     *sql.DB
	mu     sync.RWMutex
	dbPath string
}

// New opens (creating if necessary) the SQLite database at path and
// migrates its schema.
func New(path string) (*Store, error) {
	timer := logging.StartTimer(logging.CategoryStore, "New")
	defer timer.Stop()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create store directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	for _, pragma := range []string{
		"PRAGMA busy_timeout = 5000",
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA foreign_keys = ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			logging.Get(logging.CategoryStore).Warn("pragma %q failed: %v", pragma, err)
		}
	}

	s := &Store{db: db, dbPath: path}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate schema: %w", err)
	}

	logging.Get(logging.CategoryStore).Info("store opened at %s", path)
	return s, nil
}

// Close closes the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	const schema = `
CREATE TABLE IF NOT EXISTS subjects (
	code TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	credits INTEGER NOT NULL,
	type TEXT NOT NULL,
	color TEXT
);

CREATE TABLE IF NOT EXISTS chapters (
	id TEXT PRIMARY KEY,
	subject_code TEXT NOT NULL REFERENCES subjects(code),
	number INTEGER NOT NULL,
	title TEXT NOT NULL,
	slug TEXT NOT NULL,
	UNIQUE(subject_code, number)
);

CREATE TABLE IF NOT EXISTS chapter_progress (
	chapter_id TEXT PRIMARY KEY REFERENCES chapters(id),
	reading_status TEXT NOT NULL DEFAULT 'not_started',
	assignment_status TEXT NOT NULL DEFAULT 'locked',
	mastery_level INTEGER NOT NULL DEFAULT 0,
	revision_count INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS tasks (
	id TEXT PRIMARY KEY,
	title TEXT NOT NULL,
	subject_code TEXT,
	priority INTEGER NOT NULL,
	duration_mins INTEGER NOT NULL,
	scheduled_start DATETIME,
	scheduled_end DATETIME,
	status TEXT NOT NULL DEFAULT 'pending',
	is_deep_work BOOLEAN NOT NULL DEFAULT 0,
	task_type TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_tasks_status ON tasks(status);
CREATE INDEX IF NOT EXISTS idx_tasks_scheduled_start ON tasks(scheduled_start);

CREATE TABLE IF NOT EXISTS lab_reports (
	id TEXT PRIMARY KEY,
	subject_code TEXT NOT NULL,
	title TEXT NOT NULL,
	due_date DATETIME NOT NULL,
	deadline DATETIME NOT NULL,
	status TEXT NOT NULL DEFAULT 'pending'
);

CREATE TABLE IF NOT EXISTS revisions (
	id TEXT PRIMARY KEY,
	chapter_id TEXT NOT NULL REFERENCES chapters(id),
	revision_number INTEGER NOT NULL,
	due_date DATETIME NOT NULL,
	completed BOOLEAN NOT NULL DEFAULT 0,
	points_earned INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_revisions_due ON revisions(due_date, completed);

CREATE TABLE IF NOT EXISTS study_sessions (
	id TEXT PRIMARY KEY,
	subject_code TEXT,
	chapter_id TEXT,
	title TEXT,
	started_at DATETIME NOT NULL,
	stopped_at DATETIME,
	duration_seconds INTEGER,
	is_deep_work BOOLEAN NOT NULL DEFAULT 0,
	points_earned INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_sessions_started ON study_sessions(started_at);

CREATE TABLE IF NOT EXISTS session_effectiveness (
	id TEXT PRIMARY KEY,
	session_id TEXT NOT NULL REFERENCES study_sessions(id),
	subject_code TEXT,
	time_of_day TEXT NOT NULL,
	day_of_week INTEGER NOT NULL,
	focus_score REAL NOT NULL,
	energy_level INTEGER NOT NULL,
	material_covered TEXT
);

CREATE TABLE IF NOT EXISTS learning_patterns (
	subject_code TEXT PRIMARY KEY,
	avg_duration_mins REAL NOT NULL DEFAULT 0,
	best_study_time TEXT NOT NULL DEFAULT '',
	effectiveness_score REAL NOT NULL DEFAULT 0,
	samples_count INTEGER NOT NULL DEFAULT 0,
	time_of_day_sums TEXT NOT NULL DEFAULT '{}',
	time_of_day_counts TEXT NOT NULL DEFAULT '{}'
);

CREATE TABLE IF NOT EXISTS daily_study_stats (
	date DATE PRIMARY KEY,
	study_seconds INTEGER NOT NULL DEFAULT 0,
	deep_work_seconds INTEGER NOT NULL DEFAULT 0,
	sessions_count INTEGER NOT NULL DEFAULT 0,
	points_earned INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS wellbeing_metrics (
	date DATE PRIMARY KEY,
	study_hours REAL NOT NULL,
	break_count INTEGER NOT NULL,
	overdue_tasks INTEGER NOT NULL,
	deep_work_sessions INTEGER NOT NULL,
	wellbeing_score REAL NOT NULL,
	recommendations TEXT NOT NULL DEFAULT '[]'
);

CREATE TABLE IF NOT EXISTS break_sessions (
	id TEXT PRIMARY KEY,
	break_type TEXT NOT NULL,
	started_at DATETIME NOT NULL,
	ended_at DATETIME,
	suggested_duration_mins INTEGER NOT NULL,
	actual_duration_mins INTEGER NOT NULL DEFAULT 0,
	was_completed BOOLEAN NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS pomodoro_status (
	id INTEGER PRIMARY KEY CHECK (id = 1),
	current_phase TEXT NOT NULL DEFAULT 'idle',
	cycles_completed INTEGER NOT NULL DEFAULT 0,
	phase_started_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS user_streak (
	id INTEGER PRIMARY KEY CHECK (id = 1),
	current_streak INTEGER NOT NULL DEFAULT 0,
	longest_streak INTEGER NOT NULL DEFAULT 0,
	total_points INTEGER NOT NULL DEFAULT 0,
	last_activity DATE
);

CREATE TABLE IF NOT EXISTS notifications (
	id TEXT PRIMARY KEY,
	type TEXT NOT NULL,
	priority TEXT NOT NULL,
	title TEXT NOT NULL,
	body TEXT NOT NULL,
	created_at DATETIME NOT NULL,
	scheduled_for DATETIME NOT NULL,
	sent_at DATETIME,
	read_at DATETIME,
	dismissed_at DATETIME,
	expires_at DATETIME,
	action_link TEXT,
	action_label TEXT,
	data TEXT NOT NULL DEFAULT '{}'
);
CREATE INDEX IF NOT EXISTS idx_notifications_scheduled ON notifications(scheduled_for, sent_at);

CREATE TABLE IF NOT EXISTS notification_preferences (
	type TEXT PRIMARY KEY,
	enabled BOOLEAN NOT NULL DEFAULT 1,
	quiet_hours_start INTEGER NOT NULL DEFAULT 0,
	quiet_hours_end INTEGER NOT NULL DEFAULT 0,
	frequency_limit INTEGER NOT NULL DEFAULT 10,
	channels TEXT NOT NULL DEFAULT '[]'
);

CREATE TABLE IF NOT EXISTS achievement_definitions (
	code TEXT PRIMARY KEY,
	category TEXT NOT NULL,
	threshold_value REAL NOT NULL,
	points INTEGER NOT NULL,
	rarity TEXT NOT NULL,
	prerequisite_code TEXT
);

CREATE TABLE IF NOT EXISTS user_achievements (
	code TEXT PRIMARY KEY REFERENCES achievement_definitions(code),
	progress_value REAL NOT NULL DEFAULT 0,
	is_complete BOOLEAN NOT NULL DEFAULT 0,
	earned_at DATETIME,
	notified BOOLEAN NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS guidelines (
	id TEXT PRIMARY KEY,
	rule TEXT NOT NULL,
	priority INTEGER NOT NULL,
	active BOOLEAN NOT NULL DEFAULT 1
);

CREATE TABLE IF NOT EXISTS memory_facts (
	category TEXT NOT NULL,
	key TEXT NOT NULL,
	value TEXT NOT NULL,
	PRIMARY KEY (category, key)
);
`
	_, err := s.db.Exec(schema)
	return err
}

// Stats summarizes table row counts, mirroring codeNERD's LocalStore.GetStats.
type Stats struct {
	Subjects      int
	Tasks         int
	LabReports    int
	Revisions     int
	StudySessions int
	Notifications int
}

// GetStats returns row counts across the primary entity tables.
func (s *Store) GetStats() (Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var st Stats
	rows := []struct {
		table string
		dest  *int
	}{
		{"subjects", &st.Subjects},
		{"tasks", &st.Tasks},
		{"lab_reports", &st.LabReports},
		{"revisions", &st.Revisions},
		{"study_sessions", &st.StudySessions},
		{"notifications", &st.Notifications},
	}
	for _, r := range rows {
		if err := s.db.QueryRow(fmt.Sprintf("SELECT COUNT(*) FROM %s", r.table)).Scan(r.dest); err != nil {
			return Stats{}, err
		}
	}
	return st, nil
}

func wrapNotFound(op string, err error) error {
	if err == sql.ErrNoRows {
		return core.NewError(core.KindNotFound, op, "not found", nil)
	}
	return core.NewError(core.KindBackendUnavailable, op, "store operation failed", err)
}

func isNoRows(err error) bool {
	return err == sql.ErrNoRows
}
