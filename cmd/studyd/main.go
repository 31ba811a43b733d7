// Package main implements the studyd CLI, the front end over
// internal/engine's operation surface.
//
// # File Index
//
//   - main.go           - entry point, rootCmd, global flags, init()
//   - cmd_subject.go    - subject create, chapter create/complete
//   - cmd_task.go       - task create/complete/cancel/place
//   - cmd_timeline.go   - timeline get/optimize/week
//   - cmd_timer.go      - timer start/stop/status
//   - cmd_revision.go   - revisions schedule/complete
//   - cmd_wellbeing.go  - wellbeing score, breaks, pomodoro
//   - cmd_notify.go     - notifications list/mark-read
//   - cmd_achievement.go - achievements check
//   - cmd_dashboard.go  - bubbletea live dashboard
//   - cmd_report.go     - glamour-rendered wellbeing/pattern report
//   - styles.go         - lipgloss rendering helpers shared by the commands
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"studyloop/internal/engine"
	"studyloop/internal/logging"
)

var (
	verbose    bool
	workspace  string
	dbPath     string
	configPath string

	logger *zap.Logger
	eng    *engine.Engine
)

var rootCmd = &cobra.Command{
	Use:   "studyd",
	Short: "studyd - personal study-management scheduling engine",
	Long: `studyd plans your study day: it places pending tasks and revisions
into the gaps of a fixed daily routine and weekly timetable, tracks a
session timer and wellbeing score, and surfaces notifications and
achievements as you work.

Run "studyd dashboard" for a live view of today's timeline.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		zcfg := zap.NewProductionConfig()
		if verbose {
			zcfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = zcfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}

		ws := workspace
		if ws == "" {
			ws, _ = os.Getwd()
		}
		if err := logging.Initialize(ws); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to initialize file logging: %v\n", err)
		}

		if dbPath == "" {
			dbPath = filepath.Join(ws, ".studyloop", "studyloop.db")
		}
		if configPath == "" {
			configPath = filepath.Join(ws, ".studyloop", "config.yaml")
		}
		eng, err = engine.New(dbPath, configPath)
		if err != nil {
			return fmt.Errorf("open engine: %w", err)
		}
		return eng.Start(cmd.Context())
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if eng != nil {
			_ = eng.Shutdown(cmd.Context())
		}
		if logger != nil {
			_ = logger.Sync()
		}
		logging.CloseAll()
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
	rootCmd.PersistentFlags().StringVarP(&workspace, "workspace", "w", "", "workspace directory (default: current)")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "path to the studyloop SQLite database")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to the studyloop config file")

	subjectCmd.AddCommand(subjectCreateCmd, subjectChapterCmd, chapterCompleteCmd)
	taskCmd.AddCommand(taskCreateCmd, taskCompleteCmd, taskCancelCmd, taskPlaceCmd)
	timelineCmd.AddCommand(timelineGetCmd, timelineOptimizeCmd, timelineWeekCmd)
	timerCmd.AddCommand(timerStartCmd, timerStopCmd, timerStatusCmd)
	revisionCmd.AddCommand(revisionScheduleCmd, revisionCompleteCmd)
	breakCmd.AddCommand(breakStartCmd, breakEndCmd)
	notifyCmd.AddCommand(notifyListCmd, notifyMarkReadCmd)

	rootCmd.AddCommand(
		subjectCmd,
		taskCmd,
		timelineCmd,
		timerCmd,
		revisionCmd,
		wellbeingCmd,
		breakCmd,
		pomodoroCmd,
		notifyCmd,
		achievementCmd,
		patternsCmd,
		dashboardCmd,
		reportCmd,
	)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
