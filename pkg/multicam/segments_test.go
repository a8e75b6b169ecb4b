package multicam

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlanSegments(t *testing.T) {
	t.Run("empty plan is one full-length segment on track 0", func(t *testing.T) {
		segments := PlanSegments(nil, 10)
		require.Len(t, segments, 1)
		assert.Equal(t, Segment{Start: 0, End: 10, Track: 0}, segments[0])
	})

	t.Run("zero duration yields nothing", func(t *testing.T) {
		assert.Empty(t, PlanSegments(nil, 0))
	})

	t.Run("switch at zero drops the degenerate lead-in", func(t *testing.T) {
		segments := PlanSegments([]SwitchPoint{{MasterTime: 0, TargetTrack: 1}}, 10)
		require.Len(t, segments, 1)
		assert.Equal(t, Segment{Start: 0, End: 10, Track: 1}, segments[0])
	})

	t.Run("plan after the end drops the tail", func(t *testing.T) {
		segments := PlanSegments([]SwitchPoint{{MasterTime: 12, TargetTrack: 1}}, 10)
		require.Len(t, segments, 1)
		assert.Equal(t, Segment{Start: 0, End: 12, Track: 0}, segments[0])
	})

	t.Run("contiguous coverage without gaps or overlaps", func(t *testing.T) {
		plan := []SwitchPoint{
			{MasterTime: 2.5, TargetTrack: 1},
			{MasterTime: 4.0, TargetTrack: 2},
			{MasterTime: 4.0, TargetTrack: 0}, // degenerate middle span
			{MasterTime: 9.5, TargetTrack: 1},
		}
		segments := PlanSegments(plan, 20)
		require.NotEmpty(t, segments)

		assert.Zero(t, segments[0].Start)
		assert.Equal(t, 20.0, segments[len(segments)-1].End)
		for i := 1; i < len(segments); i++ {
			assert.Equal(t, segments[i-1].End, segments[i].Start)
		}
		for _, seg := range segments {
			assert.Less(t, seg.Start, seg.End)
		}

		// The track before the first cut is track 0; afterwards each span
		// plays the preceding point's target.
		assert.Equal(t, 0, segments[0].Track)
		assert.Equal(t, []Segment{
			{Start: 0, End: 2.5, Track: 0},
			{Start: 2.5, End: 4.0, Track: 1},
			{Start: 4.0, End: 9.5, Track: 0},
			{Start: 9.5, End: 20.0, Track: 1},
		}, segments)
	})
}
