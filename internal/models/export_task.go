package models

// ExportTask represents a background trips export job
type ExportTask struct {
	ID         int64  `json:"id" db:"id"`
	SurveyID   int64  `json:"surveyId" db:"survey_id"`
	ExportType string `json:"exportType" db:"export_type"`
	Status     string `json:"status" db:"status"` // pending, running, completed, failed

	// Requested window, Unix milliseconds
	StartMs int64 `json:"startMs" db:"start_ms"`
	EndMs   int64 `json:"endMs" db:"end_ms"`

	// Progress tracking
	TotalUsers     int64 `json:"totalUsers" db:"total_users"`
	ProcessedUsers int64 `json:"processedUsers" db:"processed_users"`
	FailedUsers    int64 `json:"failedUsers" db:"failed_users"`
	TotalTrips     int64 `json:"totalTrips" db:"total_trips"`

	// Output
	FilePath     string `json:"-" db:"file_path"`
	FileName     string `json:"fileName,omitempty" db:"file_name"`
	ErrorMessage string `json:"errorMessage,omitempty" db:"error_message"`

	// Metadata, Unix timestamps
	CreatedBy   string `json:"createdBy,omitempty" db:"created_by"`
	CreatedAt   int64  `json:"createdAt" db:"created_at"`
	StartedAt   int64  `json:"startedAt,omitempty" db:"started_at"`
	CompletedAt int64  `json:"completedAt,omitempty" db:"completed_at"`
}

// ExportTask statuses
const (
	ExportStatusPending   = "pending"
	ExportStatusRunning   = "running"
	ExportStatusCompleted = "completed"
	ExportStatusFailed    = "failed"
)

// ExportTypeTrips is the export type of the trips CSV
const ExportTypeTrips = "trips"

// Finished reports whether the task reached a terminal status
func (t *ExportTask) Finished() bool {
	return t.Status == ExportStatusCompleted || t.Status == ExportStatusFailed
}
