package pattern_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"studyloop/internal/core"
	"studyloop/internal/pattern"
)

func TestInsufficientDataReturnsNil(t *testing.T) {
	lp := core.LearningPattern{SamplesCount: 2}
	require.Nil(t, pattern.Recommendations(lp, pattern.Context{}))

	_, ok := pattern.OptimalTime(lp)
	require.False(t, ok)
}

func TestSuggestedDurationClamps(t *testing.T) {
	low := core.LearningPattern{SamplesCount: 5, AvgDurationMins: 10}
	mins, ok := pattern.SuggestedDuration(low)
	require.True(t, ok)
	require.Equal(t, 25, mins)

	high := core.LearningPattern{SamplesCount: 5, AvgDurationMins: 200}
	mins, ok = pattern.SuggestedDuration(high)
	require.True(t, ok)
	require.Equal(t, 120, mins)
}

func TestRecommendationsIncludesOverdueAndBreakSignals(t *testing.T) {
	lp := core.LearningPattern{SamplesCount: 6, BestStudyTime: core.TimeMorning, AvgDurationMins: 50}
	recs := pattern.Recommendations(lp, pattern.Context{OverdueTasks: 2, SkippedBreaksRun: 1})

	kinds := map[pattern.RecommendationKind]bool{}
	for _, r := range recs {
		kinds[r.Kind] = true
	}
	require.True(t, kinds[pattern.RecommendTiming])
	require.True(t, kinds[pattern.RecommendDuration])
	require.True(t, kinds[pattern.RecommendBreak])
	require.True(t, kinds[pattern.RecommendSubjectOrder])
}
