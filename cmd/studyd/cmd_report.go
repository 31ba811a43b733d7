package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Render a markdown wellbeing and pattern report for today",
	RunE: func(cmd *cobra.Command, args []string) error {
		now := time.Now()
		metric, err := eng.WellbeingScore(now, eng.OverdueTaskCount())
		if err != nil {
			return err
		}
		streak, err := eng.Store.GetUserStreak()
		if err != nil {
			return err
		}

		var sb strings.Builder
		fmt.Fprintf(&sb, "# Study Report - %s\n\n", now.Format("Monday, 2006-01-02"))
		fmt.Fprintf(&sb, "**Wellbeing score:** %.2f\n\n", metric.WellbeingScore)
		fmt.Fprintf(&sb, "- Study hours: %.1f\n", metric.StudyHours)
		fmt.Fprintf(&sb, "- Breaks taken: %d\n", metric.BreakCount)
		fmt.Fprintf(&sb, "- Deep work sessions: %d\n", metric.DeepWorkSessions)
		fmt.Fprintf(&sb, "- Overdue tasks: %d\n\n", metric.OverdueTasks)
		fmt.Fprintf(&sb, "**Streak:** %d days (longest %d), %d total points\n\n", streak.CurrentStreak, streak.LongestStreak, streak.TotalPoints)

		if len(metric.Recommendations) > 0 {
			sb.WriteString("## Recommendations\n\n")
			for _, r := range metric.Recommendations {
				fmt.Fprintf(&sb, "- %s\n", r)
			}
			sb.WriteString("\n")
		}

		subjects, err := eng.Store.ListSubjects()
		if err != nil {
			return err
		}
		if len(subjects) > 0 {
			sb.WriteString("## Pattern Recommendations\n\n")
			for _, sub := range subjects {
				recs, err := eng.PatternsRecommend(sub.Code, metric.OverdueTasks, 0)
				if err != nil || len(recs) == 0 {
					continue
				}
				fmt.Fprintf(&sb, "**%s**\n\n", sub.Code)
				for _, r := range recs {
					fmt.Fprintf(&sb, "- (%s) %s\n", r.Kind, r.Rationale)
				}
				sb.WriteString("\n")
			}
		}

		renderer, err := glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(100),
		)
		if err != nil {
			fmt.Print(sb.String())
			return nil
		}
		out, err := renderer.Render(sb.String())
		if err != nil {
			fmt.Print(sb.String())
			return nil
		}
		fmt.Print(out)
		return nil
	},
}
