package models

import (
	"fmt"
	"time"
)

// TimeWindowFilter represents the startTime/endTime query of the trips endpoint
type TimeWindowFilter struct {
	StartTime string `form:"startTime" binding:"required"` // RFC3339
	EndTime   string `form:"endTime" binding:"required"`   // RFC3339
}

// Window parses both bounds and rejects an inverted window
func (f TimeWindowFilter) Window() (time.Time, time.Time, error) {
	start, err := time.Parse(time.RFC3339, f.StartTime)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid startTime: %w", err)
	}
	end, err := time.Parse(time.RFC3339, f.EndTime)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid endTime: %w", err)
	}
	if end.Before(start) {
		return time.Time{}, time.Time{}, fmt.Errorf("endTime %s is before startTime %s", f.EndTime, f.StartTime)
	}
	return start.UTC(), end.UTC(), nil
}

// ExportRequest is the request body of the trips export endpoint
type ExportRequest struct {
	Start string `json:"start" binding:"required"` // RFC3339
	End   string `json:"end" binding:"required"`   // RFC3339
}

// Window parses both bounds and rejects an inverted window
func (r ExportRequest) Window() (time.Time, time.Time, error) {
	return TimeWindowFilter{StartTime: r.Start, EndTime: r.End}.Window()
}
