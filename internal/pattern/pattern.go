// Package pattern implements the Pattern Analyzer (C8): turning accumulated
// SessionEffectiveness observations (folded into a running LearningPattern
// by the Store) into timing/duration/ordering recommendations.
package pattern

import (
	"fmt"

	"studyloop/internal/core"
)

// minSamplesForRecommendations is the insufficient-data floor (spec.md §4.8).
const minSamplesForRecommendations = 5

const (
	minSuggestedDurationMins = 25
	maxSuggestedDurationMins = 120
)

// RecommendationKind is the closed set of recommendation categories.
type RecommendationKind string

const (
	RecommendTiming       RecommendationKind = "timing"
	RecommendDuration     RecommendationKind = "duration"
	RecommendBreak        RecommendationKind = "break"
	RecommendSubjectOrder RecommendationKind = "subject_order"
)

// Recommendation is one textual suggestion surfaced to the notification engine.
type Recommendation struct {
	Kind      RecommendationKind
	Rationale string
}

// OptimalTime returns the pattern's best study time, or ok=false if the
// pattern has insufficient data (samples_count < 5).
func OptimalTime(lp core.LearningPattern) (core.TimeOfDayClass, bool) {
	if lp.SamplesCount < minSamplesForRecommendations {
		return "", false
	}
	return lp.BestStudyTime, true
}

// SuggestedDuration returns the pattern's average session length clamped to
// [25, 120] minutes, or ok=false if data is insufficient.
func SuggestedDuration(lp core.LearningPattern) (int, bool) {
	if lp.SamplesCount < minSamplesForRecommendations {
		return 0, false
	}
	mins := int(lp.AvgDurationMins)
	if mins < minSuggestedDurationMins {
		mins = minSuggestedDurationMins
	}
	if mins > maxSuggestedDurationMins {
		mins = maxSuggestedDurationMins
	}
	return mins, true
}

// Context carries the signals Recommendations draws on beyond the pattern
// itself.
type Context struct {
	SubjectCode      string
	OverdueTasks     int
	SkippedBreaksRun int
}

// Recommendations produces the pattern-derived suggestion set for a subject,
// returning nil when the pattern has insufficient data.
func Recommendations(lp core.LearningPattern, ctx Context) []Recommendation {
	if lp.SamplesCount < minSamplesForRecommendations {
		return nil
	}

	var recs []Recommendation
	if best, ok := OptimalTime(lp); ok {
		recs = append(recs, Recommendation{
			Kind:      RecommendTiming,
			Rationale: fmt.Sprintf("you focus best during %s — try scheduling %s work then", best, ctx.SubjectCode),
		})
	}
	if mins, ok := SuggestedDuration(lp); ok {
		recs = append(recs, Recommendation{
			Kind:      RecommendDuration,
			Rationale: fmt.Sprintf("sessions around %d minutes have worked best for you recently", mins),
		})
	}
	if ctx.SkippedBreaksRun > 0 {
		recs = append(recs, Recommendation{
			Kind:      RecommendBreak,
			Rationale: "you've skipped several recent breaks — don't skip your next one",
		})
	}
	if ctx.OverdueTasks > 0 {
		recs = append(recs, Recommendation{
			Kind:      RecommendSubjectOrder,
			Rationale: "tackle overdue work before starting new material",
		})
	}
	return recs
}
