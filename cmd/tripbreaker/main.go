package main

import (
	"os"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"

	"github.com/itinerum/tripbreaker-backend/internal/config"

	_ "time/tzdata"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}
	cfg.SetupLogging()

	app := &cli.App{
		Name:        "tripbreaker",
		Usage:       "detect trips in GPS traces",
		Description: "Runs trip detection over CSV traces and manages the survey database",

		Commands: []*cli.Command{
			runCommand(),
			exportCommand(cfg),
			importCommand(cfg),
			createSurveyCommand(cfg),
			tokenCommand(cfg),
			migrateCommand(cfg),
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal().Err(err).Send()
	}
}
