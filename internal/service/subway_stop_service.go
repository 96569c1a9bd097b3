package service

import (
	"context"
	"fmt"
	"io"

	"github.com/rs/zerolog/log"

	"github.com/itinerum/tripbreaker-backend/internal/export"
	"github.com/itinerum/tripbreaker-backend/internal/models"
	"github.com/itinerum/tripbreaker-backend/internal/repository"
)

// SubwayStopService manages a survey's subway stops
type SubwayStopService struct {
	stops   *repository.SubwayStopRepository
	surveys *repository.SurveyRepository
}

// NewSubwayStopService creates a new subway stop service
func NewSubwayStopService(stops *repository.SubwayStopRepository, surveys *repository.SurveyRepository) *SubwayStopService {
	return &SubwayStopService{stops: stops, surveys: surveys}
}

// StopsView is a survey's stops together with its buffer radius
type StopsView struct {
	Stops      []models.SubwayStop
	BufferSize float64
}

// ImportResult counts the rows of an upload
type ImportResult struct {
	Imported int `json:"imported"`
	Skipped  int `json:"skipped"`
}

// List returns the survey's stops and its subway buffer
func (s *SubwayStopService) List(ctx context.Context, surveyID int64) (*StopsView, error) {
	survey, err := s.surveys.GetByID(ctx, surveyID)
	if err != nil {
		return nil, err
	}
	stops, err := s.stops.ListBySurvey(ctx, surveyID)
	if err != nil {
		return nil, err
	}
	return &StopsView{Stops: stops, BufferSize: survey.TripSubwayBuffer}, nil
}

// Import replaces the survey's stops with those read from a CSV upload
func (s *SubwayStopService) Import(ctx context.Context, surveyID int64, r io.Reader) (*ImportResult, error) {
	if _, err := s.surveys.GetByID(ctx, surveyID); err != nil {
		return nil, err
	}

	parsed, skipped, err := export.ReadSubwayStops(r)
	if err != nil {
		return nil, err
	}
	if len(parsed) == 0 {
		return nil, fmt.Errorf("%w (%d rows skipped)", ErrNoValidStops, skipped)
	}

	stops := make([]models.SubwayStop, len(parsed))
	for i, p := range parsed {
		stops[i] = models.SubwayStop{SurveyID: surveyID, Latitude: p.Latitude, Longitude: p.Longitude}
	}
	if err := s.stops.Replace(ctx, surveyID, stops); err != nil {
		return nil, err
	}

	log.Info().Int64("survey_id", surveyID).Int("imported", len(stops)).Int("skipped", skipped).Msg("Imported subway stops")
	return &ImportResult{Imported: len(stops), Skipped: skipped}, nil
}

// DeleteAll removes the survey's stops
func (s *SubwayStopService) DeleteAll(ctx context.Context, surveyID int64) (int64, error) {
	removed, err := s.stops.DeleteBySurvey(ctx, surveyID)
	if err != nil {
		return 0, err
	}
	log.Info().Int64("survey_id", surveyID).Int64("removed", removed).Msg("Deleted subway stops")
	return removed, nil
}
