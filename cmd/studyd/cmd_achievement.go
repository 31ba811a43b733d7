package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var achievementCmd = &cobra.Command{
	Use:   "achievements",
	Short: "Check the achievement catalog against current progress",
	RunE: func(cmd *cobra.Command, args []string) error {
		earned, err := eng.AchievementsCheck(time.Now())
		if err != nil {
			return err
		}
		if len(earned) == 0 {
			fmt.Println("no new achievements")
			return nil
		}
		for _, a := range earned {
			fmt.Println(styleGood.Render(fmt.Sprintf("earned %s (+%d pts)", a.Code, a.Points)))
		}
		return nil
	},
}

var (
	patternSubject      string
	patternOverdue      int
	patternSkippedRun   int
)

var patternsCmd = &cobra.Command{
	Use:   "patterns <subject-code>",
	Short: "Show Pattern Analyzer recommendations for a subject",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		recs, err := eng.PatternsRecommend(args[0], patternOverdue, patternSkippedRun)
		if err != nil {
			return err
		}
		if recs == nil {
			fmt.Println("insufficient data for recommendations yet")
			return nil
		}
		for _, r := range recs {
			fmt.Printf("[%s] %s\n", r.Kind, r.Rationale)
		}
		return nil
	},
}

func init() {
	patternsCmd.Flags().IntVar(&patternOverdue, "overdue", 0, "current overdue task count")
	patternsCmd.Flags().IntVar(&patternSkippedRun, "skipped-breaks", 0, "current consecutive skipped-break run")
}
