package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/itinerum/tripbreaker-backend/internal/models"
)

const exportTaskColumns = `
	id, survey_id, export_type, status, start_ms, end_ms, total_users,
	processed_users, failed_users, total_trips, file_path, file_name,
	error_message, created_by, created_at, started_at, completed_at
`

// ExportTaskRepository handles database operations for export tasks
type ExportTaskRepository struct {
	db *sql.DB
}

// NewExportTaskRepository creates a new export task repository
func NewExportTaskRepository(db *sql.DB) *ExportTaskRepository {
	return &ExportTaskRepository{db: db}
}

// Create inserts a pending export task
func (r *ExportTaskRepository) Create(ctx context.Context, task *models.ExportTask) error {
	if task.Status == "" {
		task.Status = models.ExportStatusPending
	}
	if task.CreatedAt == 0 {
		task.CreatedAt = time.Now().Unix()
	}

	query := `
		INSERT INTO export_tasks (
			survey_id, export_type, status, start_ms, end_ms, created_by, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	result, err := r.db.ExecContext(ctx, query,
		task.SurveyID,
		task.ExportType,
		task.Status,
		task.StartMs,
		task.EndMs,
		task.CreatedBy,
		task.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create export task: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	task.ID = id
	return nil
}

// GetByID retrieves a survey's export task by ID
func (r *ExportTaskRepository) GetByID(ctx context.Context, surveyID, id int64) (*models.ExportTask, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+exportTaskColumns+" FROM export_tasks WHERE survey_id = ? AND id = ?",
		surveyID, id,
	)
	task, err := scanExportTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("export task %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get export task: %w", err)
	}
	return task, nil
}

// ListCompleted returns a survey's completed exports of one type, newest first
func (r *ExportTaskRepository) ListCompleted(ctx context.Context, surveyID int64, exportType string) ([]*models.ExportTask, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+exportTaskColumns+" FROM export_tasks WHERE survey_id = ? AND export_type = ? AND status = ? ORDER BY id DESC",
		surveyID, exportType, models.ExportStatusCompleted,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query export tasks: %w", err)
	}
	defer rows.Close()

	var tasks []*models.ExportTask
	for rows.Next() {
		task, err := scanExportTask(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan export task: %w", err)
		}
		tasks = append(tasks, task)
	}
	return tasks, rows.Err()
}

// MarkRunning records the start of a task and the number of users to process
func (r *ExportTaskRepository) MarkRunning(ctx context.Context, id, totalUsers int64) error {
	return r.exec(ctx,
		"UPDATE export_tasks SET status = ?, total_users = ?, started_at = ? WHERE id = ?",
		models.ExportStatusRunning, totalUsers, time.Now().Unix(), id,
	)
}

// UpdateProgress records processed and failed user counts
func (r *ExportTaskRepository) UpdateProgress(ctx context.Context, id, processed, failed int64) error {
	return r.exec(ctx,
		"UPDATE export_tasks SET processed_users = ?, failed_users = ? WHERE id = ?",
		processed, failed, id,
	)
}

// MarkCompleted records the produced file
func (r *ExportTaskRepository) MarkCompleted(ctx context.Context, task *models.ExportTask) error {
	task.Status = models.ExportStatusCompleted
	task.CompletedAt = time.Now().Unix()
	return r.exec(ctx, `
		UPDATE export_tasks
		SET status = ?, processed_users = ?, failed_users = ?, total_trips = ?,
			file_path = ?, file_name = ?, completed_at = ?
		WHERE id = ?`,
		task.Status, task.ProcessedUsers, task.FailedUsers, task.TotalTrips,
		task.FilePath, task.FileName, task.CompletedAt, task.ID,
	)
}

// MarkFailed records the reason a task stopped
func (r *ExportTaskRepository) MarkFailed(ctx context.Context, id int64, message string) error {
	return r.exec(ctx,
		"UPDATE export_tasks SET status = ?, error_message = ?, completed_at = ? WHERE id = ?",
		models.ExportStatusFailed, message, time.Now().Unix(), id,
	)
}

// ClearFile forgets the file of a task whose output was removed
func (r *ExportTaskRepository) ClearFile(ctx context.Context, id int64) error {
	return r.exec(ctx, "UPDATE export_tasks SET file_path = '' WHERE id = ?", id)
}

func (r *ExportTaskRepository) exec(ctx context.Context, query string, args ...interface{}) error {
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update export task: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("export task: %w", ErrNotFound)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanExportTask(row rowScanner) (*models.ExportTask, error) {
	task := &models.ExportTask{}
	err := row.Scan(
		&task.ID,
		&task.SurveyID,
		&task.ExportType,
		&task.Status,
		&task.StartMs,
		&task.EndMs,
		&task.TotalUsers,
		&task.ProcessedUsers,
		&task.FailedUsers,
		&task.TotalTrips,
		&task.FilePath,
		&task.FileName,
		&task.ErrorMessage,
		&task.CreatedBy,
		&task.CreatedAt,
		&task.StartedAt,
		&task.CompletedAt,
	)
	if err != nil {
		return nil, err
	}
	return task, nil
}
