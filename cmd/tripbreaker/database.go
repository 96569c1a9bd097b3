package main

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"

	"github.com/itinerum/tripbreaker-backend/internal/config"
	"github.com/itinerum/tripbreaker-backend/internal/database"
	"github.com/itinerum/tripbreaker-backend/internal/export"
	"github.com/itinerum/tripbreaker-backend/internal/middleware"
	"github.com/itinerum/tripbreaker-backend/internal/models"
	"github.com/itinerum/tripbreaker-backend/internal/repository"
	"github.com/itinerum/tripbreaker-backend/internal/service"
)

// openDatabase opens the configured database and applies pending migrations
func openDatabase(cfg *config.Config) (*sql.DB, error) {
	db, err := database.Open(database.Config{Path: cfg.DBPath})
	if err != nil {
		return nil, err
	}
	if err := database.Migrate(db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

func migrateCommand(cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "apply database migrations",
		Action: func(c *cli.Context) error {
			db, err := database.Open(database.Config{Path: cfg.DBPath})
			if err != nil {
				return err
			}
			defer db.Close()

			applied, err := database.NewMigrationManager(db).RunMigrations()
			if err != nil {
				return err
			}
			log.Info().Str("path", cfg.DBPath).Int("applied", applied).Msg("Database migrated")
			return nil
		},
	}
}

func createSurveyCommand(cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "create-survey",
		Usage: "create a survey with default trip breaker settings",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "name", Required: true},
			&cli.StringFlag{Name: "pretty-name"},
		},
		Action: func(c *cli.Context) error {
			db, err := openDatabase(cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			survey := &models.Survey{Name: c.String("name"), PrettyName: c.String("pretty-name")}
			if err := repository.NewSurveyRepository(db).Create(c.Context, survey); err != nil {
				return err
			}
			log.Info().Int64("survey_id", survey.ID).Str("name", survey.Name).Msg("Created survey")
			return nil
		},
	}
}

func tokenCommand(cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "token",
		Usage: "issue an API token for a survey",
		Flags: []cli.Flag{
			&cli.Int64Flag{Name: "survey-id", Required: true},
			&cli.StringFlag{Name: "role", Value: middleware.RoleAdmin},
			&cli.StringFlag{Name: "subject", Value: "cli"},
			&cli.DurationFlag{Name: "ttl", Value: 24 * time.Hour},
		},
		Action: func(c *cli.Context) error {
			token, err := middleware.IssueToken(cfg.JWTSecret, c.Int64("survey-id"), c.String("role"), c.String("subject"), c.Duration("ttl"))
			if err != nil {
				return err
			}
			fmt.Fprintln(c.App.Writer, token)
			return nil
		},
	}
}

func importCommand(cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "import-coordinates",
		Usage: "load a CSV trace as one mobile user's coordinates",
		Flags: []cli.Flag{
			&cli.Int64Flag{Name: "survey-id", Required: true},
			&cli.StringFlag{Name: "user", Usage: "mobile user uuid, generated when empty"},
			&cli.StringFlag{Name: "input", Aliases: []string{"i"}, Required: true},
		},
		Action: func(c *cli.Context) error {
			db, err := openDatabase(cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			f, err := os.Open(c.String("input"))
			if err != nil {
				return fmt.Errorf("failed to open trace: %w", err)
			}
			defer f.Close()

			userUUID := c.String("user")
			if userUUID == "" {
				userUUID = uuid.NewString()
			}

			count, err := importCoordinates(c.Context, db, c.Int64("survey-id"), userUUID, f)
			if err != nil {
				return err
			}
			log.Info().Str("uuid", userUUID).Int("coordinates", count).Msg("Imported coordinates")
			return nil
		},
	}
}

// importCoordinates stores a CSV trace for one user of a survey
func importCoordinates(ctx context.Context, db *sql.DB, surveyID int64, userUUID string, trace io.Reader) (int, error) {
	if _, err := repository.NewSurveyRepository(db).GetByID(ctx, surveyID); err != nil {
		return 0, err
	}

	fixes, err := export.ReadTrace(trace)
	if err != nil {
		return 0, err
	}

	user, err := repository.NewMobileUserRepository(db).GetOrCreate(ctx, surveyID, userUUID)
	if err != nil {
		return 0, err
	}

	coords := make([]models.MobileCoordinate, len(fixes))
	for i, fix := range fixes {
		coords[i] = models.MobileCoordinate{
			SurveyID:     surveyID,
			MobileUserID: user.ID,
			Timestamp:    fix.Timestamp,
			Latitude:     fix.Latitude,
			Longitude:    fix.Longitude,
			HAccuracy:    fix.HAccuracy,
			VAccuracy:    fix.VAccuracy,
			Speed:        fix.Speed,
		}
	}
	if err := repository.NewCoordinateRepository(db).InsertBatch(ctx, coords); err != nil {
		return 0, err
	}
	return len(coords), nil
}

func exportCommand(cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "write a survey's trips CSV",
		Flags: []cli.Flag{
			&cli.Int64Flag{Name: "survey-id", Required: true},
			&cli.TimestampFlag{Name: "start", Layout: time.RFC3339, Required: true},
			&cli.TimestampFlag{Name: "end", Layout: time.RFC3339, Required: true},
		},
		Action: func(c *cli.Context) error {
			db, err := openDatabase(cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			services := service.New(c.Context, db, service.ExportConfig{
				Dir:              cfg.ExportDir,
				Workers:          cfg.ExportWorkers,
				MaxPointsPerUser: cfg.MaxPointsPerUser,
			}, nil)
			defer services.Close()

			task, err := services.Exports.ExportTripsNow(c.Context, c.Int64("survey-id"), c.Timestamp("start").UTC(), c.Timestamp("end").UTC(), "cli")
			if err != nil {
				return err
			}
			log.Info().
				Str("file", task.FilePath).
				Int64("users", task.ProcessedUsers).
				Int64("failed", task.FailedUsers).
				Int64("trips", task.TotalTrips).
				Msg("Export written")
			return nil
		},
	}
}
