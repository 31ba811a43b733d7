package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var revisionCmd = &cobra.Command{
	Use:   "revision",
	Short: "Manage spaced-repetition revisions",
}

var revisionIntervals []int

var revisionScheduleCmd = &cobra.Command{
	Use:   "schedule <chapter-id>",
	Short: "Schedule revisions for a chapter from today",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		revs, err := eng.RevisionSchedule(args[0], time.Now(), revisionIntervals)
		if err != nil {
			return err
		}
		for _, r := range revs {
			fmt.Printf("rev %s #%d due %s\n", r.ID, r.RevisionNumber, r.DueDate.Format("2006-01-02"))
		}
		return nil
	},
}

var revisionCompleteCmd = &cobra.Command{
	Use:   "complete <revision-id>",
	Short: "Mark a revision complete and credit points",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rev, streak, err := eng.RevisionComplete(args[0], time.Now())
		if err != nil {
			return err
		}
		fmt.Printf("revision %s complete, +%d pts, streak=%d\n", rev.ID, rev.PointsEarned, streak.CurrentStreak)
		return nil
	},
}

func init() {
	revisionScheduleCmd.Flags().IntSliceVar(&revisionIntervals, "intervals", []int{1, 3, 7, 14, 30}, "day offsets from today")
}
