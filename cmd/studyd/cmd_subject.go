package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"studyloop/internal/core"
)

var subjectCmd = &cobra.Command{
	Use:   "subject",
	Short: "Manage subjects and chapters",
}

var (
	subjectName    string
	subjectCredits int
	subjectType    string
)

var subjectCreateCmd = &cobra.Command{
	Use:   "create <code>",
	Short: "Create a subject",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sub := core.Subject{
			Code:    args[0],
			Name:    subjectName,
			Credits: subjectCredits,
			Type:    core.SubjectType(subjectType),
		}
		if err := eng.SubjectCreate(sub); err != nil {
			return err
		}
		fmt.Printf("created subject %s (%s)\n", sub.Code, sub.Name)
		return nil
	},
}

var (
	chapterID     string
	chapterNumber int
	chapterTitle  string
	chapterSlug   string
)

var subjectChapterCmd = &cobra.Command{
	Use:   "chapter <subject-code>",
	Short: "Add a chapter to a subject",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ch := core.Chapter{
			ID:          chapterID,
			SubjectCode: args[0],
			Number:      chapterNumber,
			Title:       chapterTitle,
			Slug:        chapterSlug,
		}
		if err := eng.ChapterCreate(ch); err != nil {
			return err
		}
		fmt.Printf("created chapter %s (%s)\n", ch.ID, ch.Title)
		return nil
	},
}

var chapterCompleteCmd = &cobra.Command{
	Use:   "chapter-complete <chapter-id>",
	Short: "Mark a chapter's reading complete and schedule its revisions",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		revs, err := eng.ChapterCompleteReading(args[0], time.Now())
		if err != nil {
			return err
		}
		fmt.Printf("chapter %s complete, %d revisions scheduled:\n", args[0], len(revs))
		for _, r := range revs {
			fmt.Printf("  rev #%d due %s\n", r.RevisionNumber, r.DueDate.Format("2006-01-02"))
		}
		return nil
	},
}

func init() {
	subjectCreateCmd.Flags().StringVar(&subjectName, "name", "", "subject name")
	subjectCreateCmd.Flags().IntVar(&subjectCredits, "credits", 3, "credit hours (1-6)")
	subjectCreateCmd.Flags().StringVar(&subjectType, "type", string(core.SubjectConceptHeavy), "practice_heavy|concept_heavy")

	subjectChapterCmd.Flags().StringVar(&chapterID, "id", "", "chapter ID (required)")
	subjectChapterCmd.Flags().IntVar(&chapterNumber, "number", 1, "chapter number within the subject")
	subjectChapterCmd.Flags().StringVar(&chapterTitle, "title", "", "chapter title")
	subjectChapterCmd.Flags().StringVar(&chapterSlug, "slug", "", "chapter slug, chapter[0-9]{2}")
	subjectChapterCmd.MarkFlagRequired("id")
	subjectChapterCmd.MarkFlagRequired("slug")
}
