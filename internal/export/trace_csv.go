package export

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/gocarina/gocsv"

	"github.com/itinerum/tripbreaker-backend/internal/tripbreaker"
)

// TraceRow is one line of a raw trace CSV. Values stay strings so a bad
// cell marks one fix as malformed instead of failing the file.
type TraceRow struct {
	ID        string `csv:"id"`
	Timestamp string `csv:"timestamp"`
	Latitude  string `csv:"latitude"`
	Longitude string `csv:"longitude"`
	HAccuracy string `csv:"h_accuracy"`
	VAccuracy string `csv:"v_accuracy"`
	Speed     string `csv:"speed"`
}

// maxEpochSeconds is the largest epoch whose nanoseconds fit an int64 (year 2262)
const maxEpochSeconds = math.MaxInt64 / 1e9

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05",
	TimestampLayout,
}

// ReadTrace parses a trace CSV into fixes in file order. Unparsable
// timestamps become the zero time and unparsable coordinates become NaN, so
// the coordinate filter drops them. Rows without an id are numbered by line.
func ReadTrace(r io.Reader) ([]tripbreaker.Fix, error) {
	var rows []TraceRow
	if err := gocsv.Unmarshal(skipBOM(r), &rows); err != nil {
		return nil, fmt.Errorf("failed to parse trace csv: %w", err)
	}

	fixes := make([]tripbreaker.Fix, len(rows))
	for i, row := range rows {
		id, err := strconv.ParseInt(strings.TrimSpace(row.ID), 10, 64)
		if err != nil {
			id = int64(i + 1)
		}
		fixes[i] = tripbreaker.Fix{
			ID:        id,
			Timestamp: ParseTimestamp(row.Timestamp),
			Latitude:  parseOrNaN(row.Latitude),
			Longitude: parseOrNaN(row.Longitude),
			HAccuracy: parseOrNaN(row.HAccuracy),
			VAccuracy: parseOrZero(row.VAccuracy),
			Speed:     parseOrZero(row.Speed),
		}
	}
	return fixes, nil
}

// ParseTimestamp accepts RFC3339, "YYYY-MM-DD hh:mm:ss" (UTC) or epoch
// seconds. It returns the zero time when nothing matches or the epoch does
// not fit a time.Time in nanoseconds.
func ParseTimestamp(value string) time.Time {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC()
		}
	}
	if secs, err := strconv.ParseFloat(value, 64); err == nil && secs > 0 && secs < maxEpochSeconds {
		whole, frac := math.Modf(secs)
		return time.Unix(int64(whole), int64(frac*1e9)).UTC()
	}
	return time.Time{}
}

func parseOrNaN(value string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return math.NaN()
	}
	return v
}

func parseOrZero(value string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

func skipBOM(r io.Reader) io.Reader {
	br := bufio.NewReader(r)
	if head, err := br.Peek(len(utf8BOM)); err == nil && bytes.Equal(head, utf8BOM) {
		br.Discard(len(utf8BOM))
	}
	return br
}
