package timeline_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"studyloop/internal/config"
	"studyloop/internal/core"
	"studyloop/internal/energy"
	"studyloop/internal/timeline"
)

func TestBuildProducesContiguousPartition(t *testing.T) {
	routine := config.DailyRoutineConfig{
		SleepStart: "23:00", SleepEnd: "07:00",
		WakeRoutineMins: 30,
		BreakfastTime:   "07:30", BreakfastMins: 30,
		LunchTime: "13:00", LunchMins: 45,
		DinnerTime: "19:00", DinnerMins: 45,
	}
	classes := []config.Class{{Start: "09:00", End: "10:30", Subject: "CS101", Type: "lecture"}}
	day := time.Date(2026, 7, 31, 0, 0, 0, 0, time.UTC)

	blocks, err := timeline.Build(day, routine, classes, nil, energy.Curve{8: 9})
	require.NoError(t, err)
	require.NotEmpty(t, blocks)

	for i := 1; i < len(blocks); i++ {
		require.True(t, blocks[i].Start.Equal(blocks[i-1].End),
			"block %d starts at %v but previous ends at %v", i, blocks[i].Start, blocks[i-1].End)
	}
	require.True(t, blocks[0].Activity == core.ActivitySleep)
}

func TestBuildPlacesTasksAsDeepWork(t *testing.T) {
	routine := config.DailyRoutineConfig{SleepStart: "23:00", SleepEnd: "07:00"}
	day := time.Date(2026, 7, 31, 0, 0, 0, 0, time.UTC)
	start := time.Date(2026, 7, 31, 9, 0, 0, 0, time.UTC)
	end := start.Add(2 * time.Hour)

	tasks := []core.Task{{
		ID: "t1", Title: "Deep work block", Status: core.TaskPending, TaskType: core.TaskTypeStudy,
		IsDeepWork: true, ScheduledStart: &start, ScheduledEnd: &end, DurationMins: 120,
	}}

	blocks, err := timeline.Build(day, routine, nil, tasks, energy.Curve{})
	require.NoError(t, err)

	found := false
	for _, b := range blocks {
		if b.TaskID == "t1" {
			found = true
			require.Equal(t, core.ActivityDeepWork, b.Activity)
			require.Equal(t, 5, b.EnergyLevel)
		}
	}
	require.True(t, found, "expected placed task to appear as a block")
}
