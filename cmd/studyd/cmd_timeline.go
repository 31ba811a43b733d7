package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"studyloop/internal/core"
)

var timelineCmd = &cobra.Command{
	Use:   "timeline",
	Short: "View and optimize the daily timeline",
}

var timelineDate string

func parseTimelineDate() (time.Time, error) {
	if timelineDate == "" {
		now := time.Now()
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location()), nil
	}
	return time.Parse("2006-01-02", timelineDate)
}

func renderBlocks(blocks []core.Block) {
	for _, b := range blocks {
		label := b.Label
		if label == "" {
			label = string(b.Activity)
		}
		fmt.Printf("%s - %s  %-14s energy=%d %s\n",
			b.Start.Format("15:04"), b.End.Format("15:04"), b.Activity, b.EnergyLevel, label)
	}
}

var timelineGetCmd = &cobra.Command{
	Use:   "get",
	Short: "Show one day's timeline",
	RunE: func(cmd *cobra.Command, args []string) error {
		date, err := parseTimelineDate()
		if err != nil {
			return err
		}
		blocks, err := eng.TimelineGet(date)
		if err != nil {
			return err
		}
		fmt.Println(styleTitle.Render(date.Format("Monday, 2006-01-02")))
		renderBlocks(blocks)
		return nil
	},
}

var timelineOptimizeCmd = &cobra.Command{
	Use:   "optimize",
	Short: "Run one Placer sweep over the day's pending items",
	RunE: func(cmd *cobra.Command, args []string) error {
		date, err := parseTimelineDate()
		if err != nil {
			return err
		}
		report, err := eng.TimelineOptimize(date)
		if err != nil {
			return err
		}
		fmt.Printf("placed %d item(s), %d unplaced\n", report.ChangesMade, len(report.Unplaced))
		for id, window := range report.Placements {
			fmt.Printf("  %s -> %s - %s\n", id, window[0].Format("15:04"), window[1].Format("15:04"))
		}
		for _, u := range report.Unplaced {
			fmt.Println(styleWarn.Render(fmt.Sprintf("  unplaced %s: %s", u.ItemID, u.Reason)))
		}
		return nil
	},
}

var timelineWeekCmd = &cobra.Command{
	Use:   "week",
	Short: "Show seven days' timelines starting at --date",
	RunE: func(cmd *cobra.Command, args []string) error {
		date, err := parseTimelineDate()
		if err != nil {
			return err
		}
		week, err := eng.TimelineWeek(date)
		if err != nil {
			return err
		}
		for i, blocks := range week {
			day := date.AddDate(0, 0, i)
			fmt.Println(styleTitle.Render(day.Format("Monday, 2006-01-02")))
			renderBlocks(blocks)
			fmt.Println()
		}
		return nil
	},
}

func init() {
	timelineCmd.PersistentFlags().StringVar(&timelineDate, "date", "", "calendar date, YYYY-MM-DD (default: today)")
}
