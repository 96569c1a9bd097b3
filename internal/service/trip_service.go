package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/itinerum/tripbreaker-backend/internal/metrics"
	"github.com/itinerum/tripbreaker-backend/internal/models"
	"github.com/itinerum/tripbreaker-backend/internal/repository"
	"github.com/itinerum/tripbreaker-backend/internal/tripbreaker"
)

// TripService detects trips from stored coordinates
type TripService struct {
	surveys *repository.SurveyRepository
	users   *repository.MobileUserRepository
	coords  *repository.CoordinateRepository
	stops   *repository.SubwayStopRepository
	metrics *metrics.Collector
}

// NewTripService creates a new trip service. collector may be nil.
func NewTripService(
	surveys *repository.SurveyRepository,
	users *repository.MobileUserRepository,
	coords *repository.CoordinateRepository,
	stops *repository.SubwayStopRepository,
	collector *metrics.Collector,
) *TripService {
	return &TripService{
		surveys: surveys,
		users:   users,
		coords:  coords,
		stops:   stops,
		metrics: collector,
	}
}

// UserTrips runs trip detection over one user's coordinates in [start, end]
// with the survey's parameters and subway stops
func (s *TripService) UserTrips(ctx context.Context, surveyID int64, uuid string, start, end time.Time) (*tripbreaker.Result, error) {
	if end.Before(start) {
		return nil, ErrInvalidWindow
	}

	survey, err := s.surveys.GetByID(ctx, surveyID)
	if err != nil {
		return nil, err
	}
	user, err := s.users.GetByUUID(ctx, surveyID, uuid)
	if err != nil {
		return nil, err
	}
	stops, err := s.surveyStops(ctx, surveyID)
	if err != nil {
		return nil, err
	}

	return s.detect(ctx, survey.Parameters(), stops, user, start, end)
}

func (s *TripService) surveyStops(ctx context.Context, surveyID int64) ([]tripbreaker.SubwayStop, error) {
	stops, err := s.stops.ListBySurvey(ctx, surveyID)
	if err != nil {
		return nil, fmt.Errorf("failed to load subway stops: %w", err)
	}
	return models.EngineStops(stops), nil
}

func (s *TripService) detect(ctx context.Context, params tripbreaker.Parameters, stops []tripbreaker.SubwayStop, user *models.MobileUser, start, end time.Time) (*tripbreaker.Result, error) {
	coords, err := s.coords.ListForUser(ctx, user.ID, start.UnixMilli(), end.UnixMilli())
	if err != nil {
		return nil, fmt.Errorf("failed to load coordinates for %s: %w", user.UUID, err)
	}

	began := time.Now()
	result := tripbreaker.Run(params, stops, models.Fixes(coords))
	elapsed := time.Since(began)
	s.metrics.ObserveRun(result.Stats, elapsed)

	log.Debug().
		Str("uuid", user.UUID).
		Int("fixes", result.Stats.InputFixes).
		Int("accepted", result.Stats.AcceptedFixes).
		Int("trips", result.Stats.EmittedTrips).
		Dur("elapsed", elapsed).
		Msg("Detected trips")

	return result, nil
}
