package planner_test

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"studyloop/internal/core"
	"studyloop/internal/gap"
	"studyloop/internal/planner"
)

func at(h, m int) time.Time {
	return time.Date(2026, 7, 31, h, m, 0, 0, time.UTC)
}

func TestPlaceOrdersByPriorityThenCredits(t *testing.T) {
	gaps := []gap.Gap{{Start: at(8, 0), End: at(12, 0), Size: gap.SizeDeepWork}}

	items := []planner.Item{
		{ID: "low", Kind: planner.KindRegularStudy, DurationMins: 60, SubjectCredits: 3},
		{ID: "high", Kind: planner.KindOverdue, DurationMins: 60, SubjectCredits: 3},
		{ID: "credits4", Kind: planner.KindRegularStudy, DurationMins: 60, SubjectCredits: 4},
	}

	res := planner.Place(items, gaps, planner.Options{Now: at(7, 0)})
	require.Len(t, res.Placements, 3)
	require.Equal(t, "high", res.Placements[0].ItemID)
	require.Equal(t, at(8, 0), res.Placements[0].Start)
	require.Equal(t, "credits4", res.Placements[1].ItemID)
	require.Equal(t, "low", res.Placements[2].ItemID)
}

func TestPlaceRejectsItemsThatDoNotFit(t *testing.T) {
	gaps := []gap.Gap{{Start: at(8, 0), End: at(8, 30), Size: gap.SizeMicro}}
	items := []planner.Item{{ID: "t1", Kind: planner.KindRegularStudy, DurationMins: 90}}

	res := planner.Place(items, gaps, planner.Options{Now: at(7, 0)})
	require.Empty(t, res.Placements)
	require.Len(t, res.Unplaced, 1)
	require.Equal(t, "t1", res.Unplaced[0].ItemID)
}

func TestPlaceIsDeterministic(t *testing.T) {
	gaps := []gap.Gap{
		{Start: at(8, 0), End: at(10, 0), Size: gap.SizeDeepWork},
		{Start: at(14, 0), End: at(16, 0), Size: gap.SizeDeepWork},
	}
	items := []planner.Item{
		{ID: "a", Kind: planner.KindRevisionDue, DurationMins: 45, SubjectType: core.SubjectConceptHeavy},
		{ID: "b", Kind: planner.KindAssignment, DurationMins: 45, SubjectType: core.SubjectPracticeHeavy},
	}

	first := planner.Place(items, gaps, planner.Options{Now: at(7, 0)})
	second := planner.Place(items, gaps, planner.Options{Now: at(7, 0)})

	if diff := cmp.Diff(first, second); diff != "" {
		t.Fatalf("placement not deterministic (-first +second):\n%s", diff)
	}
}

func TestPlaceAppliesDeepWorkBreakSlack(t *testing.T) {
	gaps := []gap.Gap{{Start: at(8, 0), End: at(11, 0), Size: gap.SizeDeepWork}}
	items := []planner.Item{
		{ID: "deep", Kind: planner.KindRegularStudy, DurationMins: 90, IsDeepWork: true},
		{ID: "next", Kind: planner.KindRegularStudy, DurationMins: 30},
	}

	res := planner.Place(items, gaps, planner.Options{Now: at(7, 0), MinBreakAfterStudy: 15, MaxStudyBlockMins: 90})
	require.Len(t, res.Placements, 2)

	var deep, next planner.Placement
	for _, p := range res.Placements {
		if p.ItemID == "deep" {
			deep = p
		} else {
			next = p
		}
	}
	require.True(t, next.Start.Sub(deep.End) >= 15*time.Minute)
}

func TestBackwardPlanRampsIntensityTowardDeadline(t *testing.T) {
	days := []planner.DayBudget{
		planner.NewDayBudget(at(0, 0), []gap.Gap{{Start: at(8, 0), End: at(12, 0)}}),
		planner.NewDayBudget(at(0, 0).Add(24*time.Hour), []gap.Gap{{Start: at(8, 0), End: at(12, 0)}}),
	}

	placements, unsched := planner.BackwardPlan(planner.BackwardPlanItem{
		ID: "exam-prep", RequiredMins: 180, Deadline: at(0, 0).Add(48 * time.Hour),
	}, days, at(7, 0))

	require.Nil(t, unsched)
	require.NotEmpty(t, placements)

	var day1Mins, day2Mins int
	for _, p := range placements {
		mins := int(p.End.Sub(p.Start).Minutes())
		if p.Day.Equal(days[0].Date) {
			day1Mins += mins
		} else {
			day2Mins += mins
		}
	}
	require.Greater(t, day2Mins, day1Mins)
}

func TestBackwardPlanReturnsUnschedulableWhenNoRoom(t *testing.T) {
	days := []planner.DayBudget{
		planner.NewDayBudget(at(0, 0), []gap.Gap{{Start: at(8, 0), End: at(8, 10)}}),
	}

	_, unsched := planner.BackwardPlan(planner.BackwardPlanItem{
		ID: "huge", RequiredMins: 600, Deadline: at(0, 0).Add(24 * time.Hour),
	}, days, at(7, 0))

	require.NotNil(t, unsched)
	require.Equal(t, "huge", unsched.ItemID)
}
