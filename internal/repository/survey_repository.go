package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/itinerum/tripbreaker-backend/internal/models"
	"github.com/itinerum/tripbreaker-backend/internal/tripbreaker"
)

// SurveyRepository handles database operations for surveys
type SurveyRepository struct {
	db *sql.DB
}

// NewSurveyRepository creates a new survey repository
func NewSurveyRepository(db *sql.DB) *SurveyRepository {
	return &SurveyRepository{db: db}
}

// Create inserts a survey. Zero thresholds are replaced by the defaults.
func (r *SurveyRepository) Create(ctx context.Context, survey *models.Survey) error {
	if survey.Parameters() == (tripbreaker.Parameters{}) {
		survey.ApplyParameters(tripbreaker.DefaultParameters())
	}

	query := `
		INSERT INTO surveys (
			name, pretty_name, trip_break_interval, trip_subway_buffer,
			trip_break_cold_start_distance, gps_accuracy_threshold
		) VALUES (?, ?, ?, ?, ?, ?)
	`
	result, err := r.db.ExecContext(ctx, query,
		survey.Name,
		survey.PrettyName,
		survey.TripBreakInterval,
		survey.TripSubwayBuffer,
		survey.TripBreakColdStartDistance,
		survey.GPSAccuracyThreshold,
	)
	if err != nil {
		return fmt.Errorf("failed to create survey: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	survey.ID = id
	return nil
}

// GetByID retrieves a survey by ID
func (r *SurveyRepository) GetByID(ctx context.Context, id int64) (*models.Survey, error) {
	return r.getOne(ctx, "WHERE id = ?", id)
}

// GetByName retrieves a survey by its unique name
func (r *SurveyRepository) GetByName(ctx context.Context, name string) (*models.Survey, error) {
	return r.getOne(ctx, "WHERE name = ?", name)
}

func (r *SurveyRepository) getOne(ctx context.Context, where string, arg interface{}) (*models.Survey, error) {
	query := `
		SELECT id, name, pretty_name, trip_break_interval, trip_subway_buffer,
			   trip_break_cold_start_distance, gps_accuracy_threshold, created_at
		FROM surveys
	` + where

	survey := &models.Survey{}
	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&survey.ID,
		&survey.Name,
		&survey.PrettyName,
		&survey.TripBreakInterval,
		&survey.TripSubwayBuffer,
		&survey.TripBreakColdStartDistance,
		&survey.GPSAccuracyThreshold,
		&survey.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("survey %v: %w", arg, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get survey: %w", err)
	}

	return survey, nil
}

// UpdateParameters stores new trip breaking thresholds for a survey
func (r *SurveyRepository) UpdateParameters(ctx context.Context, id int64, params tripbreaker.Parameters) error {
	query := `
		UPDATE surveys
		SET trip_break_interval = ?, trip_subway_buffer = ?,
			trip_break_cold_start_distance = ?, gps_accuracy_threshold = ?
		WHERE id = ?
	`
	result, err := r.db.ExecContext(ctx, query,
		params.BreakIntervalSeconds,
		params.SubwayBufferMeters,
		params.ColdStartDistanceMeters,
		params.AccuracyCutoffMeters,
		id,
	)
	if err != nil {
		return fmt.Errorf("failed to update survey parameters: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("survey %d: %w", id, ErrNotFound)
	}
	return nil
}
