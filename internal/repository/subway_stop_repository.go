package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/itinerum/tripbreaker-backend/internal/database"
	"github.com/itinerum/tripbreaker-backend/internal/models"
)

// SubwayStopRepository handles database operations for subway stops
type SubwayStopRepository struct {
	db *sql.DB
}

// NewSubwayStopRepository creates a new subway stop repository
func NewSubwayStopRepository(db *sql.DB) *SubwayStopRepository {
	return &SubwayStopRepository{db: db}
}

// ListBySurvey returns a survey's stops in insertion order
func (r *SubwayStopRepository) ListBySurvey(ctx context.Context, surveyID int64) ([]models.SubwayStop, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, survey_id, latitude, longitude FROM subway_stops WHERE survey_id = ? ORDER BY id",
		surveyID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query subway stops: %w", err)
	}
	defer rows.Close()

	stops := []models.SubwayStop{}
	for rows.Next() {
		var stop models.SubwayStop
		if err := rows.Scan(&stop.ID, &stop.SurveyID, &stop.Latitude, &stop.Longitude); err != nil {
			return nil, fmt.Errorf("failed to scan subway stop: %w", err)
		}
		stops = append(stops, stop)
	}

	return stops, rows.Err()
}

// Replace swaps a survey's stops for the given set in one transaction
func (r *SubwayStopRepository) Replace(ctx context.Context, surveyID int64, stops []models.SubwayStop) error {
	return database.Transaction(ctx, r.db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM subway_stops WHERE survey_id = ?", surveyID); err != nil {
			return fmt.Errorf("failed to clear subway stops: %w", err)
		}

		stmt, err := tx.PrepareContext(ctx, "INSERT INTO subway_stops (survey_id, latitude, longitude) VALUES (?, ?, ?)")
		if err != nil {
			return fmt.Errorf("failed to prepare subway stop insert: %w", err)
		}
		defer stmt.Close()

		for i := range stops {
			stops[i].SurveyID = surveyID
			result, err := stmt.ExecContext(ctx, surveyID, stops[i].Latitude, stops[i].Longitude)
			if err != nil {
				return fmt.Errorf("failed to insert subway stop: %w", err)
			}
			if stops[i].ID, err = result.LastInsertId(); err != nil {
				return fmt.Errorf("failed to get last insert id: %w", err)
			}
		}
		return nil
	})
}

// DeleteBySurvey removes all of a survey's stops and returns how many were removed
func (r *SubwayStopRepository) DeleteBySurvey(ctx context.Context, surveyID int64) (int64, error) {
	result, err := r.db.ExecContext(ctx, "DELETE FROM subway_stops WHERE survey_id = ?", surveyID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete subway stops: %w", err)
	}
	return result.RowsAffected()
}
