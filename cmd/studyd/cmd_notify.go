package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var notifyCmd = &cobra.Command{
	Use:   "notify",
	Short: "List and manage notifications",
}

var notifySince string

var notifyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List notifications since --since (default: 24h ago)",
	RunE: func(cmd *cobra.Command, args []string) error {
		since := time.Now().Add(-24 * time.Hour)
		if notifySince != "" {
			parsed, err := time.Parse(time.RFC3339, notifySince)
			if err != nil {
				return fmt.Errorf("parse --since: %w", err)
			}
			since = parsed
		}
		ns, err := eng.NotificationsList(since)
		if err != nil {
			return err
		}
		for _, n := range ns {
			read := " "
			if n.ReadAt != nil {
				read = "x"
			}
			fmt.Printf("[%s] %-9s %-7s %s - %s\n", read, n.Priority, n.Type, n.Title, n.Body)
		}
		return nil
	},
}

var notifyMarkReadCmd = &cobra.Command{
	Use:   "mark-read <notification-id>",
	Short: "Mark a notification read",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return eng.NotificationMarkRead(args[0], time.Now())
	},
}

func init() {
	notifyListCmd.Flags().StringVar(&notifySince, "since", "", "RFC3339 timestamp (default: 24h ago)")
}
