package tripbreaker

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func assembled(t *testing.T, fixes ...Fix) Trip {
	t.Helper()
	trips := Assemble(Project(fixes), NewGapClassifier(noTrimParams(), nil))
	require.Len(t, trips, 1)
	return trips[0]
}

func TestTrimColdStartSinglePointTrip(t *testing.T) {
	trip := assembled(t, fixAt(1, 0, 0, 10))

	_, ok := TrimColdStart(trip, 10)
	assert.False(t, ok)

	kept, ok := TrimColdStart(trip, 0)
	require.True(t, ok)
	assert.Len(t, kept.Points, 1)
}

func TestTrimColdStartNoPointReachesThreshold(t *testing.T) {
	trip := assembled(t,
		fixAt(1, 0, 0, 10),
		fixAt(2, 30, 5, 10),
		fixAt(3, 60, -5, 10),
		fixAt(4, 90, 8, 10),
	)

	_, ok := TrimColdStart(trip, 20)
	assert.False(t, ok)
}

func TestTrimColdStartUsesDisplacementFromHead(t *testing.T) {
	// Jitter adds up path length but never leaves the 20 m radius until fix 5
	trip := assembled(t,
		fixAt(1, 0, 0, 10),
		fixAt(2, 30, 15, 10),
		fixAt(3, 60, -15, 10),
		fixAt(4, 90, 15, 10),
		fixAt(5, 120, 30, 10),
	)

	kept, ok := TrimColdStart(trip, 20)

	require.True(t, ok)
	assert.Equal(t, []int64{5}, fixIDs(kept))
	assert.True(t, kept.Points[0].BreakPeriod)
	assert.Equal(t, trip.ID, kept.ID)
}

func TestTrimColdStartNegativeThresholdKeepsTrip(t *testing.T) {
	trip := assembled(t, fixAt(1, 0, 0, 10), fixAt(2, 30, 5, 10))

	kept, ok := TrimColdStart(trip, -5)

	require.True(t, ok)
	assert.Equal(t, []int64{1, 2}, fixIDs(kept))
}

func TestTrimColdStartDoesNotShareBackingArray(t *testing.T) {
	trip := assembled(t, fixAt(1, 0, 0, 10), fixAt(2, 30, 50, 10), fixAt(3, 60, 100, 10))

	kept, ok := TrimColdStart(trip, 30)
	require.True(t, ok)
	kept.Points[0].Distance = 99

	assert.Zero(t, trip.Points[1].Distance)
	assert.False(t, trip.Points[1].BreakPeriod)
}

func TestTrimColdStartEmptyTrip(t *testing.T) {
	_, ok := TrimColdStart(Trip{ID: 1}, 0)
	assert.False(t, ok)
}

func TestAccumulateDistances(t *testing.T) {
	trip := assembled(t, fixAt(1, 0, 0, 10), fixAt(2, 30, 100, 10), fixAt(3, 60, 250, 10))

	out, summary := Accumulate(trip)

	require.Len(t, out.Points, 3)
	assert.Zero(t, out.Points[0].Distance)
	assert.InDelta(t, 100, out.Points[1].Distance, 0.5)
	assert.InDelta(t, 150, out.Points[2].Distance, 0.5)
	assert.InDelta(t, out.Points[1].Distance+out.Points[2].Distance, out.Points[2].TripDistance, 1e-9)
	assert.Equal(t, out.Points[2].TripDistance, summary.CumulativeDistance)
	assert.Equal(t, trip.ID, summary.TripID)
	assert.Equal(t, trip.Points[0].Timestamp, summary.Start)
	assert.Equal(t, trip.Points[2].Timestamp, summary.End)
}

func TestAssembleMarksHeads(t *testing.T) {
	fixes := []Fix{
		fixAt(1, 0, 0, 10),
		fixAt(2, 30, 10, 10),
		fixAt(3, 1000, 10, 10),
		fixAt(4, 2000, 20, 10),
		fixAt(5, 2010, 30, 10),
	}

	trips := Assemble(Project(fixes), NewGapClassifier(noTrimParams(), nil))

	require.Len(t, trips, 3)
	for i, trip := range trips {
		assert.Equal(t, i+1, trip.ID)
		assert.True(t, trip.Points[0].BreakPeriod)
	}
	assert.Equal(t, []int64{1, 2}, fixIDs(trips[0]))
	assert.Equal(t, []int64{3}, fixIDs(trips[1]))
	assert.Equal(t, []int64{4, 5}, fixIDs(trips[2]))
	assert.Empty(t, Assemble(nil, NewGapClassifier(noTrimParams(), nil)))
}

func TestParametersValidate(t *testing.T) {
	assert.NoError(t, DefaultParameters().Validate())
	assert.NoError(t, Parameters{}.Validate())

	invalid := []Parameters{
		{BreakIntervalSeconds: -1},
		{SubwayBufferMeters: -0.5},
		{ColdStartDistanceMeters: -10},
		{AccuracyCutoffMeters: -1},
	}
	for _, p := range invalid {
		assert.ErrorIs(t, p.Validate(), ErrInvalidParameters)
	}
}

func TestParametersClone(t *testing.T) {
	p := DefaultParameters()
	c := p.Clone()
	c.BreakIntervalSeconds = 1

	assert.Equal(t, 360, p.BreakIntervalSeconds)
	assert.Equal(t, 6*time.Minute, p.BreakInterval())
}
