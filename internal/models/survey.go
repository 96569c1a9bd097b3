package models

import "github.com/itinerum/tripbreaker-backend/internal/tripbreaker"

// Survey represents a survey and its trip breaking thresholds
type Survey struct {
	ID         int64  `json:"id" db:"id"`
	Name       string `json:"name" db:"name"`
	PrettyName string `json:"prettyName" db:"pretty_name"`

	TripBreakInterval          int     `json:"tripBreakInterval" db:"trip_break_interval"`                     // Seconds
	TripSubwayBuffer           float64 `json:"tripSubwayBuffer" db:"trip_subway_buffer"`                       // Meters
	TripBreakColdStartDistance float64 `json:"tripBreakColdStartDistance" db:"trip_break_cold_start_distance"` // Meters
	GPSAccuracyThreshold       float64 `json:"gpsAccuracyThreshold" db:"gps_accuracy_threshold"`               // Meters

	CreatedAt int64 `json:"createdAt" db:"created_at"` // Unix timestamp
}

// Parameters returns the engine thresholds configured for the survey
func (s *Survey) Parameters() tripbreaker.Parameters {
	return tripbreaker.Parameters{
		BreakIntervalSeconds:    s.TripBreakInterval,
		SubwayBufferMeters:      s.TripSubwayBuffer,
		ColdStartDistanceMeters: s.TripBreakColdStartDistance,
		AccuracyCutoffMeters:    s.GPSAccuracyThreshold,
	}
}

// ApplyParameters copies engine thresholds onto the survey
func (s *Survey) ApplyParameters(p tripbreaker.Parameters) {
	s.TripBreakInterval = p.BreakIntervalSeconds
	s.TripSubwayBuffer = p.SubwayBufferMeters
	s.TripBreakColdStartDistance = p.ColdStartDistanceMeters
	s.GPSAccuracyThreshold = p.AccuracyCutoffMeters
}

// SurveySettings is the request body of the settings endpoint. Pointers
// distinguish a missing field from a zero value.
type SurveySettings struct {
	TripBreakInterval          *int     `json:"tripBreakInterval" binding:"required"`
	TripSubwayBuffer           *float64 `json:"tripSubwayBuffer" binding:"required"`
	TripBreakColdStartDistance *float64 `json:"tripBreakColdStartDistance" binding:"required"`
	GPSAccuracyThreshold       *float64 `json:"gpsAccuracyThreshold" binding:"required"`
}

// Parameters converts the request into engine thresholds. Callers bind the
// request first, so every field is set.
func (s SurveySettings) Parameters() tripbreaker.Parameters {
	return tripbreaker.Parameters{
		BreakIntervalSeconds:    *s.TripBreakInterval,
		SubwayBufferMeters:      *s.TripSubwayBuffer,
		ColdStartDistanceMeters: *s.TripBreakColdStartDistance,
		AccuracyCutoffMeters:    *s.GPSAccuracyThreshold,
	}
}

// SettingsFromParameters builds the settings view of engine thresholds
func SettingsFromParameters(p tripbreaker.Parameters) SurveySettings {
	return SurveySettings{
		TripBreakInterval:          &p.BreakIntervalSeconds,
		TripSubwayBuffer:           &p.SubwayBufferMeters,
		TripBreakColdStartDistance: &p.ColdStartDistanceMeters,
		GPSAccuracyThreshold:       &p.AccuracyCutoffMeters,
	}
}
