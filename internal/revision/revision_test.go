package revision_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"studyloop/internal/core"
	"studyloop/internal/revision"
)

func TestGenerateOnReadingCompletionUsesSevenFourteenTwentyOne(t *testing.T) {
	completed := time.Date(2026, 7, 31, 0, 0, 0, 0, time.UTC)
	revs := revision.GenerateOnReadingCompletion("ch1", completed)

	require.Len(t, revs, 3)
	require.Equal(t, completed.AddDate(0, 0, 7), revs[0].DueDate)
	require.Equal(t, completed.AddDate(0, 0, 14), revs[1].DueDate)
	require.Equal(t, completed.AddDate(0, 0, 21), revs[2].DueDate)
}

func TestGenerateExplicitDefaultsToFiveIntervals(t *testing.T) {
	from := time.Date(2026, 7, 31, 0, 0, 0, 0, time.UTC)
	revs := revision.GenerateExplicit("ch1", from, nil)

	require.Len(t, revs, 5)
	require.Equal(t, from.AddDate(0, 0, 1), revs[0].DueDate)
	require.Equal(t, from.AddDate(0, 0, 30), revs[4].DueDate)
}

func TestGenerateExplicitHonorsCustomIntervals(t *testing.T) {
	from := time.Date(2026, 7, 31, 0, 0, 0, 0, time.UTC)
	revs := revision.GenerateExplicit("ch1", from, []int{2, 9})
	require.Len(t, revs, 2)
	require.Equal(t, from.AddDate(0, 0, 2), revs[0].DueDate)
	require.Equal(t, from.AddDate(0, 0, 9), revs[1].DueDate)
}

func TestCompletionPointsScalesWithCredits(t *testing.T) {
	require.Equal(t, 20, revision.CompletionPoints(4))
}

func TestDueNowFiltersIncompleteAndPast(t *testing.T) {
	now := time.Date(2026, 7, 31, 0, 0, 0, 0, time.UTC)
	revs := []core.Revision{
		{ID: "a", DueDate: now.AddDate(0, 0, -1)},
		{ID: "b", DueDate: now.AddDate(0, 0, 1)},
		{ID: "c", DueDate: now, Completed: true},
	}
	due := revision.DueNow(revs, now)
	require.Len(t, due, 1)
	require.Equal(t, "a", due[0].ID)
}
