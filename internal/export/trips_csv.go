// Package export renders trip detection results for downstream consumers and
// reads the CSV inputs the tools accept.
package export

import (
	"fmt"
	"io"

	"github.com/gocarina/gocsv"

	"github.com/itinerum/tripbreaker-backend/internal/tripbreaker"
)

// TimestampLayout formats timestamp_UTC
const TimestampLayout = "2006-01-02T15:04:05Z"

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// TripRow is one point of a trips CSV. Field order is the column order.
type TripRow struct {
	UUID           string  `csv:"uuid"`
	Trip           int     `csv:"trip"`
	Latitude       float64 `csv:"latitude"`
	Longitude      float64 `csv:"longitude"`
	HAccuracy      float64 `csv:"h_accuracy"`
	TimestampUTC   string  `csv:"timestamp_UTC"`
	TimestampEpoch int64   `csv:"timestamp_epoch"`
	TripDistance   float64 `csv:"trip_distance"`
	Distance       float64 `csv:"distance"`
	BreakPeriod    bool    `csv:"break_period"`
	TripCode       int     `csv:"trip_code"`
}

// TripRows flattens a user's result into CSV rows, trips in order then points in order
func TripRows(uuid string, result *tripbreaker.Result) []TripRow {
	if result == nil {
		return nil
	}

	var rows []TripRow
	for _, trip := range result.Trips {
		for _, p := range trip.Points {
			ts := p.Timestamp.UTC()
			rows = append(rows, TripRow{
				UUID:           uuid,
				Trip:           trip.ID,
				Latitude:       p.Latitude,
				Longitude:      p.Longitude,
				HAccuracy:      p.HAccuracy,
				TimestampUTC:   ts.Format(TimestampLayout),
				TimestampEpoch: ts.Unix(),
				TripDistance:   p.TripDistance,
				Distance:       p.Distance,
				BreakPeriod:    p.BreakPeriod,
				TripCode:       p.TripCode,
			})
		}
	}
	return rows
}

// WriteTripsCSV writes a UTF-8 BOM, the header and rows. The header is
// written even when rows is empty.
func WriteTripsCSV(w io.Writer, rows []TripRow) error {
	if _, err := w.Write(utf8BOM); err != nil {
		return fmt.Errorf("failed to write byte order mark: %w", err)
	}
	if rows == nil {
		rows = []TripRow{}
	}
	if err := gocsv.Marshal(rows, w); err != nil {
		return fmt.Errorf("failed to write trips csv: %w", err)
	}
	return nil
}
