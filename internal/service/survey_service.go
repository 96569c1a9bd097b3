package service

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/itinerum/tripbreaker-backend/internal/repository"
	"github.com/itinerum/tripbreaker-backend/internal/tripbreaker"
)

// SurveyService manages survey trip breaking settings
type SurveyService struct {
	repo *repository.SurveyRepository
}

// NewSurveyService creates a new survey service
func NewSurveyService(repo *repository.SurveyRepository) *SurveyService {
	return &SurveyService{repo: repo}
}

// Settings returns the survey's trip breaking parameters
func (s *SurveyService) Settings(ctx context.Context, surveyID int64) (tripbreaker.Parameters, error) {
	survey, err := s.repo.GetByID(ctx, surveyID)
	if err != nil {
		return tripbreaker.Parameters{}, err
	}
	return survey.Parameters(), nil
}

// UpdateSettings validates and stores new parameters
func (s *SurveyService) UpdateSettings(ctx context.Context, surveyID int64, params tripbreaker.Parameters) error {
	if err := params.Validate(); err != nil {
		return err
	}
	if err := s.repo.UpdateParameters(ctx, surveyID, params); err != nil {
		return err
	}

	log.Info().
		Int64("survey_id", surveyID).
		Int("break_interval", params.BreakIntervalSeconds).
		Float64("subway_buffer", params.SubwayBufferMeters).
		Float64("cold_start_distance", params.ColdStartDistanceMeters).
		Float64("accuracy_cutoff", params.AccuracyCutoffMeters).
		Msg("Updated trip breaker settings")
	return nil
}
