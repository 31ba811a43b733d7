package gap_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"studyloop/internal/gap"
)

func at(h, m int) time.Time {
	return time.Date(2026, 7, 31, h, m, 0, 0, time.UTC)
}

func TestComputeSplitsAroundBusyIntervals(t *testing.T) {
	gaps := gap.Compute(at(7, 0), at(22, 0), []gap.Busy{
		{Start: at(9, 0), End: at(10, 30)},
		{Start: at(13, 0), End: at(14, 0)},
	})

	require.Len(t, gaps, 3)
	require.Equal(t, 120, gaps[0].DurationMins())
	require.Equal(t, gap.SizeDeepWork, gaps[0].Size)
	require.Equal(t, 150, gaps[1].DurationMins())
	require.Equal(t, gap.SizeDeepWork, gaps[1].Size)
	require.Equal(t, 480, gaps[2].DurationMins())
}

func TestComputeMergesOverlappingBusyIntervals(t *testing.T) {
	gaps := gap.Compute(at(8, 0), at(12, 0), []gap.Busy{
		{Start: at(9, 0), End: at(10, 0)},
		{Start: at(9, 30), End: at(10, 30)},
	})

	require.Len(t, gaps, 2)
	require.Equal(t, at(8, 0), gaps[0].Start)
	require.Equal(t, at(9, 0), gaps[0].End)
	require.Equal(t, at(10, 30), gaps[1].Start)
	require.Equal(t, at(12, 0), gaps[1].End)
}

func TestComputeClassifiesMicroGaps(t *testing.T) {
	gaps := gap.Compute(at(9, 0), at(9, 15), nil)
	require.Len(t, gaps, 1)
	require.Equal(t, gap.SizeMicro, gaps[0].Size)
}

func TestComputeNoGapsWhenFullyBusy(t *testing.T) {
	gaps := gap.Compute(at(9, 0), at(10, 0), []gap.Busy{{Start: at(8, 0), End: at(11, 0)}})
	require.Empty(t, gaps)
}
