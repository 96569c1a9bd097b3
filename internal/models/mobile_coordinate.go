package models

import (
	"time"

	"github.com/itinerum/tripbreaker-backend/internal/tripbreaker"
)

// MobileCoordinate represents a raw GPS point uploaded by a mobile user.
// Malformed uploads are stored as they arrived; the engine drops them.
type MobileCoordinate struct {
	ID           int64     `json:"id" db:"id"`
	SurveyID     int64     `json:"surveyId" db:"survey_id"`
	MobileUserID int64     `json:"mobileUserId" db:"mobile_user_id"`
	Timestamp    time.Time `json:"timestamp" db:"timestamp_ms"` // Zero when the upload had no usable timestamp

	Latitude  float64 `json:"latitude" db:"latitude"` // NaN when missing
	Longitude float64 `json:"longitude" db:"longitude"`
	Altitude  float64 `json:"altitude" db:"altitude"`
	Speed     float64 `json:"speed" db:"speed"`
	HAccuracy float64 `json:"hAccuracy" db:"h_accuracy"`
	VAccuracy float64 `json:"vAccuracy" db:"v_accuracy"`

	AccelerationX float64 `json:"accelerationX" db:"acceleration_x"`
	AccelerationY float64 `json:"accelerationY" db:"acceleration_y"`
	AccelerationZ float64 `json:"accelerationZ" db:"acceleration_z"`
	ModeDetected  int     `json:"modeDetected" db:"mode_detected"`
}

// Fix converts the stored coordinate into an engine input
func (c MobileCoordinate) Fix() tripbreaker.Fix {
	return tripbreaker.Fix{
		ID:            c.ID,
		Timestamp:     c.Timestamp,
		Latitude:      c.Latitude,
		Longitude:     c.Longitude,
		HAccuracy:     c.HAccuracy,
		VAccuracy:     c.VAccuracy,
		Speed:         c.Speed,
		AccelerationX: c.AccelerationX,
		AccelerationY: c.AccelerationY,
		AccelerationZ: c.AccelerationZ,
		ModeDetected:  c.ModeDetected,
	}
}

// Fixes converts a coordinate sequence, preserving order
func Fixes(coords []MobileCoordinate) []tripbreaker.Fix {
	fixes := make([]tripbreaker.Fix, len(coords))
	for i, c := range coords {
		fixes[i] = c.Fix()
	}
	return fixes
}
