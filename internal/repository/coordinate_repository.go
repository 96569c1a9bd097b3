package repository

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"time"

	"github.com/itinerum/tripbreaker-backend/internal/database"
	"github.com/itinerum/tripbreaker-backend/internal/models"
)

// CoordinateRepository handles database operations for mobile coordinates
type CoordinateRepository struct {
	db *sql.DB
}

// NewCoordinateRepository creates a new coordinate repository
func NewCoordinateRepository(db *sql.DB) *CoordinateRepository {
	return &CoordinateRepository{db: db}
}

// InsertBatch stores coordinates in a single transaction. NaN values and zero
// timestamps are stored as NULL.
func (r *CoordinateRepository) InsertBatch(ctx context.Context, coords []models.MobileCoordinate) error {
	query := `
		INSERT INTO mobile_coordinates (
			survey_id, mobile_user_id, timestamp_ms, latitude, longitude, altitude,
			speed, h_accuracy, v_accuracy, acceleration_x, acceleration_y,
			acceleration_z, mode_detected
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	return database.Transaction(ctx, r.db, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, query)
		if err != nil {
			return fmt.Errorf("failed to prepare coordinate insert: %w", err)
		}
		defer stmt.Close()

		for i := range coords {
			c := &coords[i]
			result, err := stmt.ExecContext(ctx,
				c.SurveyID,
				c.MobileUserID,
				nullableMillis(c.Timestamp),
				nullableFloat(c.Latitude),
				nullableFloat(c.Longitude),
				nullableFloat(c.Altitude),
				nullableFloat(c.Speed),
				nullableFloat(c.HAccuracy),
				nullableFloat(c.VAccuracy),
				nullableFloat(c.AccelerationX),
				nullableFloat(c.AccelerationY),
				nullableFloat(c.AccelerationZ),
				c.ModeDetected,
			)
			if err != nil {
				return fmt.Errorf("failed to insert coordinate %d: %w", i, err)
			}
			if c.ID, err = result.LastInsertId(); err != nil {
				return fmt.Errorf("failed to get last insert id: %w", err)
			}
		}
		return nil
	})
}

// ListForUser returns a user's coordinates in [startMs, endMs] in upload
// order. Rows without a timestamp are never in a window.
func (r *CoordinateRepository) ListForUser(ctx context.Context, userID, startMs, endMs int64) ([]models.MobileCoordinate, error) {
	query := `
		SELECT id, survey_id, mobile_user_id, timestamp_ms, latitude, longitude,
			   altitude, speed, h_accuracy, v_accuracy, acceleration_x,
			   acceleration_y, acceleration_z, mode_detected
		FROM mobile_coordinates
		WHERE mobile_user_id = ? AND timestamp_ms >= ? AND timestamp_ms <= ?
		ORDER BY timestamp_ms, id
	`

	rows, err := r.db.QueryContext(ctx, query, userID, startMs, endMs)
	if err != nil {
		return nil, fmt.Errorf("failed to query coordinates: %w", err)
	}
	defer rows.Close()

	coords := []models.MobileCoordinate{}
	for rows.Next() {
		var (
			c                                models.MobileCoordinate
			ts, mode                         sql.NullInt64
			lat, lon, alt, speed, hAcc, vAcc sql.NullFloat64
			accX, accY, accZ                 sql.NullFloat64
		)
		if err := rows.Scan(
			&c.ID, &c.SurveyID, &c.MobileUserID, &ts, &lat, &lon,
			&alt, &speed, &hAcc, &vAcc, &accX, &accY, &accZ, &mode,
		); err != nil {
			return nil, fmt.Errorf("failed to scan coordinate: %w", err)
		}

		if ts.Valid {
			c.Timestamp = time.UnixMilli(ts.Int64).UTC()
		}
		c.Latitude = floatOrNaN(lat)
		c.Longitude = floatOrNaN(lon)
		c.HAccuracy = floatOrNaN(hAcc)
		c.Altitude = alt.Float64
		c.Speed = speed.Float64
		c.VAccuracy = vAcc.Float64
		c.AccelerationX = accX.Float64
		c.AccelerationY = accY.Float64
		c.AccelerationZ = accZ.Float64
		c.ModeDetected = int(mode.Int64)

		coords = append(coords, c)
	}

	return coords, rows.Err()
}

// CountForUser counts a user's coordinates in [startMs, endMs]
func (r *CoordinateRepository) CountForUser(ctx context.Context, userID, startMs, endMs int64) (int64, error) {
	var count int64
	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM mobile_coordinates WHERE mobile_user_id = ? AND timestamp_ms >= ? AND timestamp_ms <= ?",
		userID, startMs, endMs,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count coordinates: %w", err)
	}
	return count, nil
}

func nullableMillis(t time.Time) sql.NullInt64 {
	if t.IsZero() {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: t.UnixMilli(), Valid: true}
}

func nullableFloat(v float64) sql.NullFloat64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: v, Valid: true}
}

func floatOrNaN(v sql.NullFloat64) float64 {
	if !v.Valid {
		return math.NaN()
	}
	return v.Float64
}
