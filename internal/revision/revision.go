// Package revision implements the Revision Scheduler (C6): generating
// spaced-repetition Revision rows on chapter-reading completion, and
// computing the point award on revision completion.
//
// spec.md §9 is explicit that the two default interval sets found in the
// source are deliberately distinct and must not be unified: reading
// completion uses +7/+14/+21 days, while the explicit
// schedule_chapter_revision tool call defaults to +1/+3/+7/+14/+30 days.
package revision

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"studyloop/internal/core"
)

// ReadingCompletionIntervalDays is the default interval set applied when a
// chapter's reading is marked complete.
var ReadingCompletionIntervalDays = []int{7, 14, 21}

// ExplicitToolIntervalDays is the default interval set applied by the
// schedule_chapter_revision tool when the caller supplies no intervals of
// its own.
var ExplicitToolIntervalDays = []int{1, 3, 7, 14, 30}

// idFunc generates revision IDs; overridable in tests for determinism.
var idFunc = func(chapterID string, n int) string {
	return fmt.Sprintf("%s-rev%d-%s", chapterID, n, uuid.NewString())
}

// GenerateOnReadingCompletion builds the three default revisions for a
// chapter whose reading was just marked complete.
func GenerateOnReadingCompletion(chapterID string, completedAt time.Time) []core.Revision {
	return generate(chapterID, completedAt, ReadingCompletionIntervalDays)
}

// GenerateExplicit builds revisions from caller-supplied intervals, falling
// back to ExplicitToolIntervalDays when intervals is empty.
func GenerateExplicit(chapterID string, from time.Time, intervals []int) []core.Revision {
	if len(intervals) == 0 {
		intervals = ExplicitToolIntervalDays
	}
	return generate(chapterID, from, intervals)
}

func generate(chapterID string, from time.Time, intervalDays []int) []core.Revision {
	revs := make([]core.Revision, len(intervalDays))
	for i, days := range intervalDays {
		revs[i] = core.Revision{
			ID:             idFunc(chapterID, i+1),
			ChapterID:      chapterID,
			RevisionNumber: i + 1,
			DueDate:        from.AddDate(0, 0, days),
		}
	}
	return revs
}

// CompletionPoints returns the points a completed revision earns: 5 per
// subject credit (spec.md §4.6).
func CompletionPoints(subjectCredits int) int {
	return 5 * subjectCredits
}

// DueNow filters revisions whose due_date has arrived relative to now
// (spec.md §4.6: "eligible for Placer's pending set the moment
// due_date <= today").
func DueNow(revs []core.Revision, now time.Time) []core.Revision {
	var due []core.Revision
	for _, r := range revs {
		if !r.Completed && !r.DueDate.After(now) {
			due = append(due, r)
		}
	}
	return due
}
