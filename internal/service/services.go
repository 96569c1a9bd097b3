package service

import (
	"context"
	"database/sql"

	"github.com/itinerum/tripbreaker-backend/internal/metrics"
	"github.com/itinerum/tripbreaker-backend/internal/repository"
)

// Services bundles the services built over one database
type Services struct {
	Surveys *SurveyService
	Stops   *SubwayStopService
	Trips   *TripService
	Exports *ExportService
}

// New wires repositories and services over db. collector may be nil.
func New(ctx context.Context, db *sql.DB, exports ExportConfig, collector *metrics.Collector) *Services {
	surveys := repository.NewSurveyRepository(db)
	stops := repository.NewSubwayStopRepository(db)
	trips := NewTripService(
		surveys,
		repository.NewMobileUserRepository(db),
		repository.NewCoordinateRepository(db),
		stops,
		collector,
	)

	return &Services{
		Surveys: NewSurveyService(surveys),
		Stops:   NewSubwayStopService(stops, surveys),
		Trips:   trips,
		Exports: NewExportService(ctx, exports, repository.NewExportTaskRepository(db), trips, collector),
	}
}

// Close stops background work
func (s *Services) Close() {
	s.Exports.Close()
}
