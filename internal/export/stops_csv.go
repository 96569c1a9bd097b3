package export

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/gocarina/gocsv"

	"github.com/itinerum/tripbreaker-backend/internal/tripbreaker"
)

// ErrNoCoordinateColumns is returned when a stops file has no recognised
// latitude and longitude headers
var ErrNoCoordinateColumns = errors.New("no latitude/longitude columns found")

// Accepted header pairs, checked in order
var coordinateColumns = [][2]string{
	{"latitude", "longitude"},
	{"lat", "lng"},
	{"y", "x"},
}

type stopRow struct {
	Latitude  string `csv:"latitude"`
	Longitude string `csv:"longitude"`
}

// headerRewriter hands gocsv a canonical header in place of the file's own
type headerRewriter struct {
	header []string
	rows   *csv.Reader
	sent   bool
}

func (h *headerRewriter) Read() ([]string, error) {
	if !h.sent {
		h.sent = true
		return h.header, nil
	}
	return h.rows.Read()
}

func (h *headerRewriter) ReadAll() ([][]string, error) {
	var records [][]string
	for {
		record, err := h.Read()
		if errors.Is(err, io.EOF) {
			return records, nil
		}
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
}

// ReadSubwayStops parses a stops CSV. The delimiter (comma or semicolon) is
// taken from the header line and header names are matched case-insensitively.
// Rows whose coordinates do not parse are skipped and counted.
func ReadSubwayStops(r io.Reader) ([]tripbreaker.SubwayStop, int, error) {
	br := bufio.NewReader(r)
	headerLine, err := br.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, 0, fmt.Errorf("failed to read stops header: %w", err)
	}
	headerLine = strings.TrimPrefix(headerLine, string(utf8BOM))

	reader := csv.NewReader(io.MultiReader(strings.NewReader(headerLine), br))
	reader.Comma = sniffDelimiter(headerLine)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, 0, ErrNoCoordinateColumns
	}
	if err != nil {
		return nil, 0, fmt.Errorf("failed to parse stops header: %w", err)
	}

	canonical, ok := canonicalHeader(header)
	if !ok {
		return nil, 0, ErrNoCoordinateColumns
	}

	var rows []stopRow
	if err := gocsv.UnmarshalCSV(&headerRewriter{header: canonical, rows: reader}, &rows); err != nil {
		return nil, 0, fmt.Errorf("failed to parse stops csv: %w", err)
	}

	stops := make([]tripbreaker.SubwayStop, 0, len(rows))
	skipped := 0
	for _, row := range rows {
		lat, latErr := parseCoordinate(row.Latitude)
		lon, lonErr := parseCoordinate(row.Longitude)
		if latErr != nil || lonErr != nil || lat < -90 || lat > 90 || lon < -180 || lon > 180 {
			skipped++
			continue
		}
		stops = append(stops, tripbreaker.SubwayStop{Latitude: lat, Longitude: lon})
	}
	return stops, skipped, nil
}

func sniffDelimiter(headerLine string) rune {
	if strings.Count(headerLine, ";") > strings.Count(headerLine, ",") {
		return ';'
	}
	return ','
}

// canonicalHeader lower-cases the header and renames the first matching
// coordinate pair to latitude/longitude
func canonicalHeader(header []string) ([]string, bool) {
	lowered := make([]string, len(header))
	for i, name := range header {
		lowered[i] = strings.ToLower(strings.TrimSpace(name))
	}

	for _, pair := range coordinateColumns {
		latIdx, lonIdx := indexOf(lowered, pair[0]), indexOf(lowered, pair[1])
		if latIdx < 0 || lonIdx < 0 {
			continue
		}
		out := make([]string, len(lowered))
		for i, name := range lowered {
			switch {
			case i == latIdx:
				out[i] = "latitude"
			case i == lonIdx:
				out[i] = "longitude"
			case name == "latitude" || name == "longitude":
				out[i] = "_" + name
			default:
				out[i] = name
			}
		}
		return out, true
	}
	return nil, false
}

func indexOf(values []string, target string) int {
	for i, v := range values {
		if v == target {
			return i
		}
	}
	return -1
}

func parseCoordinate(value string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("coordinate %q is not finite", value)
	}
	return v, nil
}
