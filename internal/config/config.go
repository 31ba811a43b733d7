// Package config loads studyloop's static configuration: the daily
// routine, the energy curve, the weekly timetable, and per-type
// notification preferences. Grounded on codeNERD's internal/config/config.go
// (Load/Save over a single YAML-backed struct with defaults).
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"studyloop/internal/core"
)

// DailyRoutineConfig configures the student's fixed daily rhythm.
type DailyRoutineConfig struct {
	SleepStart          string `yaml:"sleep_start"`  // "HH:MM"
	SleepEnd            string `yaml:"sleep_end"`    // "HH:MM"
	WakeRoutineMins     int    `yaml:"wake_routine_mins"`
	BreakfastTime       string `yaml:"breakfast_time"`
	BreakfastMins       int    `yaml:"breakfast_mins"`
	LunchTime           string `yaml:"lunch_time"`
	LunchMins           int    `yaml:"lunch_mins"`
	DinnerTime          string `yaml:"dinner_time"`
	DinnerMins          int    `yaml:"dinner_mins"`
	MaxStudyBlockMins   int    `yaml:"max_study_block_mins"`
	MinBreakAfterStudy  int    `yaml:"min_break_after_study"`
	DeepWorkMinDuration int    `yaml:"deep_work_min_duration"`
}

// Class is one scheduled timetable entry.
type Class struct {
	Start   string `yaml:"start"` // "HH:MM"
	End     string `yaml:"end"`
	Subject string `yaml:"subject"`
	Type    string `yaml:"type"` // lecture | lab | tutorial
	Room    string `yaml:"room"`
}

// Timetable maps weekday name to that day's classes.
type Timetable map[string][]Class

// NotificationPrefsConfig is the on-disk form of per-type preferences.
type NotificationPrefsConfig map[string]core.NotificationPreference

// Config is the full studyloop static configuration file.
type Config struct {
	Routine       DailyRoutineConfig       `yaml:"routine"`
	EnergyCurve   map[int]int              `yaml:"energy_curve"`
	Timetable     Timetable                `yaml:"timetable"`
	Notifications NotificationPrefsConfig  `yaml:"notifications"`
	Logging       LoggingConfig            `yaml:"logging"`
}

// LoggingConfig mirrors the on-disk shape logging.Initialize reads.
// logging.Initialize reads its own JSON file, not this section.
type LoggingConfig struct {
	DebugMode  bool            `yaml:"debug_mode" json:"debug_mode"`
	Level      string          `yaml:"level" json:"level"`
	Categories map[string]bool `yaml:"categories,omitempty" json:"categories,omitempty"`
	JSONFormat bool            `yaml:"json_format,omitempty" json:"json_format,omitempty"`
}

// Default returns the built-in default configuration.
func Default() *Config {
	return &Config{
		Routine: DailyRoutineConfig{
			SleepStart:          "23:30",
			SleepEnd:            "07:00",
			WakeRoutineMins:      30,
			BreakfastTime:       "07:30",
			BreakfastMins:       30,
			LunchTime:           "13:00",
			LunchMins:           45,
			DinnerTime:          "19:30",
			DinnerMins:          45,
			MaxStudyBlockMins:   90,
			MinBreakAfterStudy:  15,
			DeepWorkMinDuration: 90,
		},
		EnergyCurve: map[int]int{
			0:  3,
			6:  5,
			7:  6,
			8:  9,
			10: 10,
			11: 8,
			12: 5,
			13: 4,
			14: 6,
			15: 7,
			17: 8,
			18: 6,
			20: 5,
			21: 4,
			23: 3,
		},
		Timetable: Timetable{},
		Notifications: NotificationPrefsConfig{
			string(core.NotifyReminder): {
				Type: core.NotifyReminder, Enabled: true,
				QuietHoursStart: 22 * 60, QuietHoursEnd: 7 * 60, FrequencyLimit: 6,
				Channels: []string{"in_app"},
			},
			string(core.NotifySuggestion): {
				Type: core.NotifySuggestion, Enabled: true,
				QuietHoursStart: 22 * 60, QuietHoursEnd: 7 * 60, FrequencyLimit: 4,
				Channels: []string{"in_app"},
			},
			string(core.NotifyDeadline): {
				Type: core.NotifyDeadline, Enabled: true,
				QuietHoursStart: 0, QuietHoursEnd: 0, FrequencyLimit: 8,
				Channels: []string{"in_app"},
			},
			string(core.NotifyWarning): {
				Type: core.NotifyWarning, Enabled: true,
				QuietHoursStart: 22 * 60, QuietHoursEnd: 7 * 60, FrequencyLimit: 3,
				Channels: []string{"in_app"},
			},
			string(core.NotifyAchievement): {
				Type: core.NotifyAchievement, Enabled: true,
				QuietHoursStart: 0, QuietHoursEnd: 0, FrequencyLimit: 10,
				Channels: []string{"in_app"},
			},
			string(core.NotifyBreak): {
				Type: core.NotifyBreak, Enabled: true,
				QuietHoursStart: 22 * 60, QuietHoursEnd: 7 * 60, FrequencyLimit: 6,
				Channels: []string{"in_app"},
			},
			string(core.NotifyMotivation): {
				Type: core.NotifyMotivation, Enabled: true,
				QuietHoursStart: 22 * 60, QuietHoursEnd: 7 * 60, FrequencyLimit: 2,
				Channels: []string{"in_app"},
			},
		},
		Logging: LoggingConfig{DebugMode: false, Level: "info"},
	}
}

// Load reads configuration from a YAML file, falling back to Default() when
// the file does not exist.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// Save writes configuration to a YAML file, creating parent directories.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}
