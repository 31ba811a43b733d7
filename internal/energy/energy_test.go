package energy_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"studyloop/internal/core"
	"studyloop/internal/energy"
)

func TestLevelAtFallsBackToPrecedingHour(t *testing.T) {
	curve := energy.Curve{8: 9, 12: 5, 17: 8}

	require.Equal(t, 9, curve.LevelAt(time.Date(2026, 7, 31, 10, 30, 0, 0, time.UTC)))
	require.Equal(t, 5, curve.LevelAt(time.Date(2026, 7, 31, 14, 0, 0, 0, time.UTC)))
}

func TestLevelAtWrapsBeforeFirstConfiguredHour(t *testing.T) {
	curve := energy.Curve{8: 9, 20: 3}
	require.Equal(t, 3, curve.LevelAt(time.Date(2026, 7, 31, 2, 0, 0, 0, time.UTC)))
}

func TestLevelAtEmptyCurveIsNeutral(t *testing.T) {
	require.Equal(t, 5, energy.Curve{}.LevelAt(time.Now()))
}

func TestClassifyHourBuckets(t *testing.T) {
	cases := map[int]core.TimeOfDayClass{
		6:  core.TimeEarlyMorning,
		9:  core.TimeMorning,
		14: core.TimeAfternoon,
		19: core.TimeEvening,
		22: core.TimeNight,
		1:  core.TimeLateNight,
	}
	for hour, want := range cases {
		require.Equal(t, want, energy.ClassifyHour(hour))
	}
}
