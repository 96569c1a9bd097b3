package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/sourcegraph/conc/pool"

	"github.com/itinerum/tripbreaker-backend/internal/export"
	"github.com/itinerum/tripbreaker-backend/internal/metrics"
	"github.com/itinerum/tripbreaker-backend/internal/models"
	"github.com/itinerum/tripbreaker-backend/internal/repository"
	"github.com/itinerum/tripbreaker-backend/internal/tripbreaker"
)

// ExportConfig controls where and how exports run
type ExportConfig struct {
	Dir              string
	Workers          int
	MaxPointsPerUser int64 // 0 means unlimited
}

// ExportService runs trips exports as background tasks
type ExportService struct {
	cfg     ExportConfig
	tasks   *repository.ExportTaskRepository
	trips   *TripService
	metrics *metrics.Collector

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewExportService creates an export service. Background tasks stop when
// ctx is done or Close is called.
func NewExportService(ctx context.Context, cfg ExportConfig, tasks *repository.ExportTaskRepository, trips *TripService, collector *metrics.Collector) *ExportService {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	ctx, cancel := context.WithCancel(ctx)
	return &ExportService{
		cfg:     cfg,
		tasks:   tasks,
		trips:   trips,
		metrics: collector,
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Close cancels running exports and waits for them to record their status
func (s *ExportService) Close() {
	s.cancel()
	s.wg.Wait()
}

// CreateTripsExport records a pending export of [start, end] and runs it in the background
func (s *ExportService) CreateTripsExport(ctx context.Context, surveyID int64, start, end time.Time, createdBy string) (*models.ExportTask, error) {
	task, err := s.prepare(ctx, surveyID, start, end, createdBy)
	if err != nil {
		return nil, err
	}

	s.wg.Add(1)
	go func(task models.ExportTask) {
		defer s.wg.Done()
		if err := s.RunTripsExport(s.ctx, &task); err != nil {
			log.Error().Err(err).Int64("task_id", task.ID).Msg("Trips export failed")
		}
	}(*task)

	return task, nil
}

// ExportTripsNow records an export and runs it before returning
func (s *ExportService) ExportTripsNow(ctx context.Context, surveyID int64, start, end time.Time, createdBy string) (*models.ExportTask, error) {
	task, err := s.prepare(ctx, surveyID, start, end, createdBy)
	if err != nil {
		return nil, err
	}
	if err := s.RunTripsExport(ctx, task); err != nil {
		return task, err
	}
	return task, nil
}

func (s *ExportService) prepare(ctx context.Context, surveyID int64, start, end time.Time, createdBy string) (*models.ExportTask, error) {
	if end.Before(start) {
		return nil, ErrInvalidWindow
	}
	if _, err := s.trips.surveys.GetByID(ctx, surveyID); err != nil {
		return nil, err
	}
	if err := s.removeStaleFiles(ctx, surveyID); err != nil {
		return nil, err
	}

	task := &models.ExportTask{
		SurveyID:   surveyID,
		ExportType: models.ExportTypeTrips,
		StartMs:    start.UnixMilli(),
		EndMs:      end.UnixMilli(),
		CreatedBy:  createdBy,
	}
	if err := s.tasks.Create(ctx, task); err != nil {
		return nil, err
	}
	return task, nil
}

// removeStaleFiles deletes the files of earlier completed trips exports
func (s *ExportService) removeStaleFiles(ctx context.Context, surveyID int64) error {
	previous, err := s.tasks.ListCompleted(ctx, surveyID, models.ExportTypeTrips)
	if err != nil {
		return err
	}
	for _, task := range previous {
		if task.FilePath == "" {
			continue
		}
		if err := os.Remove(task.FilePath); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("failed to remove previous export %s: %w", task.FilePath, err)
		}
		if err := s.tasks.ClearFile(ctx, task.ID); err != nil {
			return err
		}
		log.Info().Int64("task_id", task.ID).Str("file", task.FilePath).Msg("Removed previous export")
	}
	return nil
}

// userExport is the outcome for one user, stored at the user's index
type userExport struct {
	rows    []export.TripRow
	trips   int
	skipped bool
}

// RunTripsExport processes every active user of the task's window and writes
// the trips CSV. The task is marked completed or failed before returning.
func (s *ExportService) RunTripsExport(ctx context.Context, task *models.ExportTask) (err error) {
	start := time.UnixMilli(task.StartMs).UTC()
	end := time.UnixMilli(task.EndMs).UTC()
	logger := log.With().Int64("task_id", task.ID).Int64("survey_id", task.SurveyID).Logger()

	s.metrics.ExportStarted()
	defer func() {
		if err != nil {
			// Record the failure even when ctx was cancelled
			if markErr := s.tasks.MarkFailed(context.WithoutCancel(ctx), task.ID, err.Error()); markErr != nil {
				logger.Error().Err(markErr).Msg("Failed to mark export as failed")
			}
			task.Status = models.ExportStatusFailed
			task.ErrorMessage = err.Error()
		}
		s.metrics.ExportFinished(task.Status)
	}()

	survey, err := s.trips.surveys.GetByID(ctx, task.SurveyID)
	if err != nil {
		return err
	}
	params := survey.Parameters()
	stops, err := s.trips.surveyStops(ctx, task.SurveyID)
	if err != nil {
		return err
	}

	users, err := s.trips.users.ListActive(ctx, task.SurveyID, task.StartMs, task.EndMs)
	if err != nil {
		return err
	}
	if err := s.tasks.MarkRunning(ctx, task.ID, int64(len(users))); err != nil {
		return err
	}
	task.Status = models.ExportStatusRunning
	task.TotalUsers = int64(len(users))
	logger.Info().Int("users", len(users)).Time("start", start).Time("end", end).Msg("Trips export started")

	results := make([]userExport, len(users))
	var processed, failed atomic.Int64

	p := pool.New().WithMaxGoroutines(s.cfg.Workers).WithContext(ctx).WithFirstError()
	for i := range users {
		i := i // per-iteration copy; go.mod targets go 1.21 loop semantics
		p.Go(func(ctx context.Context) error {
			// Users already started finish; later ones see the cancellation
			if err := ctx.Err(); err != nil {
				return err
			}

			out, err := s.exportUser(ctx, params, stops, &users[i], start, end)
			if err != nil {
				return err
			}
			results[i] = out

			done := processed.Add(1)
			if out.skipped {
				failed.Add(1)
			}
			s.metrics.ExportUser(out.skipped)
			if err := s.tasks.UpdateProgress(ctx, task.ID, done, failed.Load()); err != nil {
				logger.Warn().Err(err).Msg("Failed to update export progress")
			}
			return nil
		})
	}
	if err := p.Wait(); err != nil {
		return fmt.Errorf("failed to export users: %w", err)
	}

	var rows []export.TripRow
	var totalTrips int
	for _, r := range results {
		rows = append(rows, r.rows...)
		totalTrips += r.trips
	}

	path, err := s.writeFile(task.SurveyID, start, rows)
	if err != nil {
		return err
	}

	task.ProcessedUsers = processed.Load()
	task.FailedUsers = failed.Load()
	task.TotalTrips = int64(totalTrips)
	task.FilePath = path
	task.FileName = filepath.Base(path)
	if err := s.tasks.MarkCompleted(ctx, task); err != nil {
		return err
	}

	logger.Info().
		Int64("processed", task.ProcessedUsers).
		Int64("failed", task.FailedUsers).
		Int("trips", totalTrips).
		Str("file", path).
		Msg("Trips export completed")
	return nil
}

func (s *ExportService) exportUser(ctx context.Context, params tripbreaker.Parameters, stops []tripbreaker.SubwayStop, user *models.MobileUser, start, end time.Time) (userExport, error) {
	if budget := s.cfg.MaxPointsPerUser; budget > 0 {
		count, err := s.trips.coords.CountForUser(ctx, user.ID, start.UnixMilli(), end.UnixMilli())
		if err != nil {
			return userExport{}, err
		}
		if count > budget {
			log.Warn().Str("uuid", user.UUID).Int64("points", count).Int64("budget", budget).Msg("Skipping user over point budget")
			return userExport{skipped: true}, nil
		}
	}

	result, err := s.trips.detect(ctx, params, stops, user, start, end)
	if err != nil {
		return userExport{}, err
	}
	return userExport{
		rows:  export.TripRows(user.UUID, result),
		trips: len(result.Trips),
	}, nil
}

// writeFile writes the CSV next to its final name and renames it into place
func (s *ExportService) writeFile(surveyID int64, start time.Time, rows []export.TripRow) (string, error) {
	dir := filepath.Join(s.cfg.Dir, strconv.FormatInt(surveyID, 10))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create export directory: %w", err)
	}

	final := filepath.Join(dir, fmt.Sprintf("trips_%s.csv", start.Format("20060102")))
	tmp := filepath.Join(dir, "."+uuid.NewString()+".tmp")

	f, err := os.Create(tmp)
	if err != nil {
		return "", fmt.Errorf("failed to create export file: %w", err)
	}
	if err := export.WriteTripsCSV(f, rows); err != nil {
		f.Close()
		os.Remove(tmp)
		return "", err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return "", fmt.Errorf("failed to close export file: %w", err)
	}
	if err := os.Rename(tmp, final); err != nil {
		os.Remove(tmp)
		return "", fmt.Errorf("failed to move export file into place: %w", err)
	}
	return final, nil
}

// Task returns a survey's export task
func (s *ExportService) Task(ctx context.Context, surveyID, id int64) (*models.ExportTask, error) {
	return s.tasks.GetByID(ctx, surveyID, id)
}

// DownloadPath returns the file of a completed export
func (s *ExportService) DownloadPath(ctx context.Context, surveyID, id int64) (*models.ExportTask, error) {
	task, err := s.tasks.GetByID(ctx, surveyID, id)
	if err != nil {
		return nil, err
	}
	if task.Status != models.ExportStatusCompleted || task.FilePath == "" {
		return nil, ErrExportNotReady
	}
	if _, err := os.Stat(task.FilePath); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExportNotReady, err)
	}
	return task, nil
}
