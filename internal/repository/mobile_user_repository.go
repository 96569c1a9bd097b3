package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/itinerum/tripbreaker-backend/internal/models"
)

// MobileUserRepository handles database operations for mobile users
type MobileUserRepository struct {
	db *sql.DB
}

// NewMobileUserRepository creates a new mobile user repository
func NewMobileUserRepository(db *sql.DB) *MobileUserRepository {
	return &MobileUserRepository{db: db}
}

// Create inserts a mobile user
func (r *MobileUserRepository) Create(ctx context.Context, user *models.MobileUser) error {
	result, err := r.db.ExecContext(ctx,
		"INSERT INTO mobile_users (survey_id, uuid) VALUES (?, ?)",
		user.SurveyID, user.UUID,
	)
	if err != nil {
		return fmt.Errorf("failed to create mobile user: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	user.ID = id
	return nil
}

// GetByUUID retrieves a survey's mobile user by device UUID
func (r *MobileUserRepository) GetByUUID(ctx context.Context, surveyID int64, uuid string) (*models.MobileUser, error) {
	query := `
		SELECT id, survey_id, uuid, created_at
		FROM mobile_users
		WHERE survey_id = ? AND uuid = ?
	`

	user := &models.MobileUser{}
	err := r.db.QueryRowContext(ctx, query, surveyID, uuid).Scan(
		&user.ID,
		&user.SurveyID,
		&user.UUID,
		&user.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("mobile user %s: %w", uuid, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get mobile user: %w", err)
	}

	return user, nil
}

// GetOrCreate returns the user with the given UUID, creating it when absent
func (r *MobileUserRepository) GetOrCreate(ctx context.Context, surveyID int64, uuid string) (*models.MobileUser, error) {
	user, err := r.GetByUUID(ctx, surveyID, uuid)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	user = &models.MobileUser{SurveyID: surveyID, UUID: uuid}
	if err := r.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// ListActive returns the survey's users with at least one coordinate in
// [startMs, endMs], ordered by ID
func (r *MobileUserRepository) ListActive(ctx context.Context, surveyID, startMs, endMs int64) ([]models.MobileUser, error) {
	query := `
		SELECT u.id, u.survey_id, u.uuid, u.created_at
		FROM mobile_users u
		WHERE u.survey_id = ?
		  AND EXISTS (
			SELECT 1 FROM mobile_coordinates c
			WHERE c.mobile_user_id = u.id
			  AND c.timestamp_ms >= ? AND c.timestamp_ms <= ?
		  )
		ORDER BY u.id
	`

	rows, err := r.db.QueryContext(ctx, query, surveyID, startMs, endMs)
	if err != nil {
		return nil, fmt.Errorf("failed to query active users: %w", err)
	}
	defer rows.Close()

	users := []models.MobileUser{}
	for rows.Next() {
		var user models.MobileUser
		if err := rows.Scan(&user.ID, &user.SurveyID, &user.UUID, &user.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan mobile user: %w", err)
		}
		users = append(users, user)
	}

	return users, rows.Err()
}
