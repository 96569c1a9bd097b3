package models

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/itinerum/tripbreaker-backend/internal/tripbreaker"
)

func TestTimeWindowFilter(t *testing.T) {
	start, end, err := TimeWindowFilter{
		StartTime: "2017-06-01T08:00:00-04:00",
		EndTime:   "2017-06-01T12:00:00Z",
	}.Window()

	require.NoError(t, err)
	assert.Equal(t, time.Date(2017, 6, 1, 12, 0, 0, 0, time.UTC), start)
	assert.Equal(t, start, end)
	assert.Equal(t, time.UTC, start.Location())
}

func TestTimeWindowFilterRejectsBadInput(t *testing.T) {
	tests := []TimeWindowFilter{
		{StartTime: "yesterday", EndTime: "2017-06-01T12:00:00Z"},
		{StartTime: "2017-06-01T12:00:00Z", EndTime: "2017-06-01"},
		{StartTime: "2017-06-02T00:00:00Z", EndTime: "2017-06-01T00:00:00Z"},
	}
	for _, f := range tests {
		_, _, err := f.Window()
		assert.Error(t, err, "%+v", f)
	}

	_, _, err := ExportRequest{Start: "2017-06-02T00:00:00Z", End: "2017-06-01T00:00:00Z"}.Window()
	assert.Error(t, err)
}

func TestSurveyParametersRoundTrip(t *testing.T) {
	params := tripbreaker.Parameters{
		BreakIntervalSeconds:    300,
		SubwayBufferMeters:      150,
		ColdStartDistanceMeters: 500,
		AccuracyCutoffMeters:    30,
	}

	var survey Survey
	survey.ApplyParameters(params)
	assert.Equal(t, params, survey.Parameters())
	assert.Equal(t, params, SettingsFromParameters(params).Parameters())
}

func TestMobileCoordinateFixes(t *testing.T) {
	ts := time.Date(2017, 6, 1, 12, 0, 0, 0, time.UTC)
	coords := []MobileCoordinate{
		{ID: 2, Timestamp: ts, Latitude: 45.5, Longitude: -73.6, HAccuracy: 12, VAccuracy: 3, Speed: 1.5, ModeDetected: 2},
		{ID: 3, Latitude: math.NaN(), Longitude: math.NaN(), HAccuracy: 8},
	}

	fixes := Fixes(coords)

	require.Len(t, fixes, 2)
	assert.Equal(t, int64(2), fixes[0].ID)
	assert.Equal(t, ts, fixes[0].Timestamp)
	assert.Equal(t, 1.5, fixes[0].Speed)
	assert.Equal(t, 2, fixes[0].ModeDetected)
	assert.True(t, math.IsNaN(fixes[1].Latitude))
	assert.True(t, fixes[1].Timestamp.IsZero())
}

func TestExportTaskFinished(t *testing.T) {
	for status, want := range map[string]bool{
		ExportStatusPending:   false,
		ExportStatusRunning:   false,
		ExportStatusCompleted: true,
		ExportStatusFailed:    true,
	} {
		assert.Equal(t, want, (&ExportTask{Status: status}).Finished(), status)
	}
}
