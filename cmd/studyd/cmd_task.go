package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"studyloop/internal/core"
)

var taskCmd = &cobra.Command{
	Use:   "task",
	Short: "Manage tasks",
}

var (
	taskTitle    string
	taskSubject  string
	taskPriority int
	taskDuration int
	taskType     string
	taskDeepWork bool
)

var taskCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a pending task",
	RunE: func(cmd *cobra.Command, args []string) error {
		t := core.Task{
			Title:        taskTitle,
			SubjectCode:  taskSubject,
			Priority:     taskPriority,
			DurationMins: taskDuration,
			TaskType:     core.TaskType(taskType),
			IsDeepWork:   taskDeepWork,
			Status:       core.TaskPending,
		}
		if err := eng.TaskCreate(t); err != nil {
			return err
		}
		fmt.Printf("created task %s\n", t.ID)
		return nil
	},
}

var taskCompleteCmd = &cobra.Command{
	Use:   "complete <task-id>",
	Short: "Mark a task completed",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return eng.TaskComplete(args[0], time.Now())
	},
}

var taskCancelCmd = &cobra.Command{
	Use:   "cancel <task-id>",
	Short: "Cancel a task",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return eng.TaskCancel(args[0])
	},
}

var taskPlaceAt string

var taskPlaceCmd = &cobra.Command{
	Use:   "place <task-id>",
	Short: "Place a task at a fixed start time (RFC3339)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		start, err := time.Parse(time.RFC3339, taskPlaceAt)
		if err != nil {
			return fmt.Errorf("parse --at: %w", err)
		}
		return eng.TaskPlace(args[0], start)
	},
}

func init() {
	taskCreateCmd.Flags().StringVar(&taskTitle, "title", "", "task title")
	taskCreateCmd.Flags().StringVar(&taskSubject, "subject", "", "subject code, optional")
	taskCreateCmd.Flags().IntVar(&taskPriority, "priority", 5, "priority 1-10")
	taskCreateCmd.Flags().IntVar(&taskDuration, "duration", 30, "duration in minutes")
	taskCreateCmd.Flags().StringVar(&taskType, "type", string(core.TaskTypeStudy), "task type")
	taskCreateCmd.Flags().BoolVar(&taskDeepWork, "deep-work", false, "requires an uninterrupted deep-work block")

	taskPlaceCmd.Flags().StringVar(&taskPlaceAt, "at", "", "start time, RFC3339 (required)")
	taskPlaceCmd.MarkFlagRequired("at")
}
