package main

import (
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"

	"github.com/itinerum/tripbreaker-backend/internal/export"
	"github.com/itinerum/tripbreaker-backend/internal/tripbreaker"
)

func parameterFlags() []cli.Flag {
	defaults := tripbreaker.DefaultParameters()
	return []cli.Flag{
		&cli.IntFlag{Name: "break-interval", Value: defaults.BreakIntervalSeconds, Usage: "seconds of silence before a trip breaks"},
		&cli.Float64Flag{Name: "subway-buffer", Value: defaults.SubwayBufferMeters, Usage: "meters around a subway stop that bridge a gap"},
		&cli.Float64Flag{Name: "cold-start", Value: defaults.ColdStartDistanceMeters, Usage: "meters a trip must move away from its first fix"},
		&cli.Float64Flag{Name: "accuracy", Value: defaults.AccuracyCutoffMeters, Usage: "maximum horizontal accuracy in meters"},
	}
}

func parametersFromFlags(c *cli.Context) (tripbreaker.Parameters, error) {
	params := tripbreaker.Parameters{
		BreakIntervalSeconds:    c.Int("break-interval"),
		SubwayBufferMeters:      c.Float64("subway-buffer"),
		ColdStartDistanceMeters: c.Float64("cold-start"),
		AccuracyCutoffMeters:    c.Float64("accuracy"),
	}
	return params, params.Validate()
}

func runCommand() *cli.Command {
	flags := []cli.Flag{
		&cli.StringFlag{Name: "input", Aliases: []string{"i"}, Required: true, Usage: "trace CSV (id,timestamp,latitude,longitude,h_accuracy,v_accuracy)"},
		&cli.StringFlag{Name: "stops", Usage: "subway stops CSV"},
		&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Value: "-", Usage: "trips CSV, - for stdout"},
		&cli.StringFlag{Name: "uuid", Value: "trace", Usage: "value of the uuid column"},
	}

	return &cli.Command{
		Name:  "run",
		Usage: "run trip detection over a CSV trace",
		Flags: append(flags, parameterFlags()...),
		Action: func(c *cli.Context) error {
			params, err := parametersFromFlags(c)
			if err != nil {
				return err
			}

			trace, err := os.Open(c.String("input"))
			if err != nil {
				return fmt.Errorf("failed to open trace: %w", err)
			}
			defer trace.Close()

			var stops io.Reader
			if path := c.String("stops"); path != "" {
				f, err := os.Open(path)
				if err != nil {
					return fmt.Errorf("failed to open stops: %w", err)
				}
				defer f.Close()
				stops = f
			}

			out := io.Writer(os.Stdout)
			if path := c.String("output"); path != "-" {
				f, err := os.Create(path)
				if err != nil {
					return fmt.Errorf("failed to create output: %w", err)
				}
				defer f.Close()
				out = f
			}

			stats, err := runTrace(trace, stops, out, params, c.String("uuid"))
			if err != nil {
				return err
			}

			log.Info().
				Int("fixes", stats.InputFixes).
				Int("accepted", stats.AcceptedFixes).
				Int("assembled", stats.AssembledTrips).
				Int("trips", stats.EmittedTrips).
				Int("points", stats.EmittedPoints).
				Msg("Trip detection finished")
			return nil
		},
	}
}

// runTrace detects trips in a CSV trace and writes them as a trips CSV
func runTrace(trace, stops io.Reader, out io.Writer, params tripbreaker.Parameters, uuid string) (tripbreaker.Stats, error) {
	fixes, err := export.ReadTrace(trace)
	if err != nil {
		return tripbreaker.Stats{}, err
	}

	var stations []tripbreaker.SubwayStop
	if stops != nil {
		var skipped int
		stations, skipped, err = export.ReadSubwayStops(stops)
		if err != nil {
			return tripbreaker.Stats{}, err
		}
		if skipped > 0 {
			log.Warn().Int("skipped", skipped).Msg("Skipped unreadable subway stops")
		}
	}

	result := tripbreaker.Run(params, stations, fixes)
	if err := export.WriteTripsCSV(out, export.TripRows(uuid, result)); err != nil {
		return tripbreaker.Stats{}, err
	}
	return result.Stats, nil
}
