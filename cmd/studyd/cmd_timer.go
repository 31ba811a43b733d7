package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var timerCmd = &cobra.Command{
	Use:   "timer",
	Short: "Control the session timer",
}

var (
	timerSubject string
	timerChapter string
	timerTitle   string
)

var timerStartCmd = &cobra.Command{
	Use:   "start",
	Short: "Start a study session",
	RunE: func(cmd *cobra.Command, args []string) error {
		sess, err := eng.TimerStart(timerSubject, timerChapter, timerTitle, time.Now())
		if err != nil {
			return err
		}
		fmt.Printf("started session %s at %s\n", sess.ID, sess.StartedAt.Format("15:04:05"))
		return nil
	},
}

var timerStopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the active study session",
	RunE: func(cmd *cobra.Command, args []string) error {
		sess, err := eng.TimerStop(time.Now())
		if err != nil {
			return err
		}
		mins := *sess.DurationSeconds / 60
		fmt.Printf("stopped session %s: %dmin, +%d pts, deep_work=%v\n", sess.ID, mins, sess.PointsEarned, sess.IsDeepWork)
		return nil
	},
}

var timerStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the active session's live status",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := eng.TimerStatus(time.Now())
		if err != nil {
			return err
		}
		if !st.IsActive {
			fmt.Println("no active session")
			return nil
		}
		fmt.Printf("session %s active, %ds elapsed\n", st.Session.ID, st.ElapsedSeconds)
		return nil
	},
}

func init() {
	timerStartCmd.Flags().StringVar(&timerSubject, "subject", "", "subject code, optional")
	timerStartCmd.Flags().StringVar(&timerChapter, "chapter", "", "chapter ID, optional")
	timerStartCmd.Flags().StringVar(&timerTitle, "title", "", "session title, optional")
}
