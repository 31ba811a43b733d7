package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"studyloop/internal/core"
)

var wellbeingCmd = &cobra.Command{
	Use:   "wellbeing",
	Short: "Show today's wellbeing score",
	RunE: func(cmd *cobra.Command, args []string) error {
		now := time.Now()
		metric, err := eng.WellbeingScore(now, eng.OverdueTaskCount())
		if err != nil {
			return err
		}
		fmt.Printf("%s  score=%.2f  study=%.1fh breaks=%d overdue=%d deep_work=%d\n",
			metric.Date.Format("2006-01-02"), metric.WellbeingScore, metric.StudyHours,
			metric.BreakCount, metric.OverdueTasks, metric.DeepWorkSessions)
		for _, r := range metric.Recommendations {
			fmt.Println(styleWarn.Render("- " + r))
		}
		return nil
	},
}

var breakCmd = &cobra.Command{
	Use:   "break",
	Short: "Start or end a break",
}

var (
	breakType          string
	breakSuggestedMins int
)

var breakStartCmd = &cobra.Command{
	Use:   "start",
	Short: "Start a break",
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := eng.BreakStart(core.BreakType(breakType), breakSuggestedMins, time.Now())
		if err != nil {
			return err
		}
		fmt.Printf("started break %s (suggested %dmin)\n", id, breakSuggestedMins)
		return nil
	},
}

var (
	breakID        string
	breakStartedAt string
)

var breakEndCmd = &cobra.Command{
	Use:   "end",
	Short: "End a break",
	RunE: func(cmd *cobra.Command, args []string) error {
		started, err := time.Parse(time.RFC3339, breakStartedAt)
		if err != nil {
			return fmt.Errorf("parse --started-at: %w", err)
		}
		return eng.BreakEnd(breakID, started, time.Now(), breakSuggestedMins)
	},
}

var pomodoroCmd = &cobra.Command{
	Use:   "pomodoro",
	Short: "Advance the Pomodoro phase machine",
	RunE: func(cmd *cobra.Command, args []string) error {
		status, breakMins, err := eng.PomodoroAdvance(time.Now())
		if err != nil {
			return err
		}
		fmt.Printf("phase=%s cycles=%d (suggested break: %dmin)\n", status.CurrentPhase, status.CyclesCompleted, breakMins)
		return nil
	},
}

func init() {
	breakStartCmd.Flags().StringVar(&breakType, "type", string(core.BreakShort), "break type")
	breakStartCmd.Flags().IntVar(&breakSuggestedMins, "suggested-mins", 5, "suggested duration in minutes")

	breakEndCmd.Flags().StringVar(&breakID, "id", "", "break ID (required)")
	breakEndCmd.Flags().StringVar(&breakStartedAt, "started-at", "", "start time, RFC3339 (required)")
	breakEndCmd.Flags().IntVar(&breakSuggestedMins, "suggested-mins", 5, "suggested duration in minutes")
	breakEndCmd.MarkFlagRequired("id")
	breakEndCmd.MarkFlagRequired("started-at")
}
