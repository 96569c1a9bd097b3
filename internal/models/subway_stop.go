package models

import "github.com/itinerum/tripbreaker-backend/internal/tripbreaker"

// SubwayStop represents a transit station configured for a survey
type SubwayStop struct {
	ID        int64   `json:"id" db:"id"`
	SurveyID  int64   `json:"surveyId" db:"survey_id"`
	Latitude  float64 `json:"latitude" db:"latitude"`
	Longitude float64 `json:"longitude" db:"longitude"`
}

// EngineStops converts stored stations into engine inputs
func EngineStops(stops []SubwayStop) []tripbreaker.SubwayStop {
	out := make([]tripbreaker.SubwayStop, len(stops))
	for i, s := range stops {
		out[i] = tripbreaker.SubwayStop{Latitude: s.Latitude, Longitude: s.Longitude}
	}
	return out
}
