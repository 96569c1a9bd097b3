package models

// MobileUser represents a participant device enrolled in a survey
type MobileUser struct {
	ID        int64  `json:"id" db:"id"`
	SurveyID  int64  `json:"surveyId" db:"survey_id"`
	UUID      string `json:"uuid" db:"uuid"`
	CreatedAt int64  `json:"createdAt" db:"created_at"` // Unix timestamp
}
