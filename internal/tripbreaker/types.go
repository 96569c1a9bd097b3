package tripbreaker

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// Fix is a single timestamped GPS observation
type Fix struct {
	ID        int64
	Timestamp time.Time // UTC
	Latitude  float64
	Longitude float64
	HAccuracy float64 // meters

	// Carried through for display, never read by the engine
	VAccuracy     float64
	Speed         float64
	AccelerationX float64
	AccelerationY float64
	AccelerationZ float64
	ModeDetected  int
}

// Clone returns an independent copy of the fix
func (f Fix) Clone() Fix {
	return Fix{
		ID:            f.ID,
		Timestamp:     f.Timestamp,
		Latitude:      f.Latitude,
		Longitude:     f.Longitude,
		HAccuracy:     f.HAccuracy,
		VAccuracy:     f.VAccuracy,
		Speed:         f.Speed,
		AccelerationX: f.AccelerationX,
		AccelerationY: f.AccelerationY,
		AccelerationZ: f.AccelerationZ,
		ModeDetected:  f.ModeDetected,
	}
}

// SubwayStop is the location of a transit station
type SubwayStop struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Parameters holds the per-survey thresholds of a run
type Parameters struct {
	BreakIntervalSeconds    int     `json:"break_interval_seconds"`
	SubwayBufferMeters      float64 `json:"subway_buffer_meters"`
	ColdStartDistanceMeters float64 `json:"cold_start_distance_meters"`
	AccuracyCutoffMeters    float64 `json:"accuracy_cutoff_meters"`
}

// ErrInvalidParameters is returned by Parameters.Validate
var ErrInvalidParameters = errors.New("invalid trip breaker parameters")

// DefaultParameters returns the thresholds given to newly created surveys
func DefaultParameters() Parameters {
	return Parameters{
		BreakIntervalSeconds:    360,
		SubwayBufferMeters:      300,
		ColdStartDistanceMeters: 750,
		AccuracyCutoffMeters:    50,
	}
}

// Clone returns an independent copy of the parameters
func (p Parameters) Clone() Parameters {
	return Parameters{
		BreakIntervalSeconds:    p.BreakIntervalSeconds,
		SubwayBufferMeters:      p.SubwayBufferMeters,
		ColdStartDistanceMeters: p.ColdStartDistanceMeters,
		AccuracyCutoffMeters:    p.AccuracyCutoffMeters,
	}
}

// BreakInterval returns the break interval as a duration
func (p Parameters) BreakInterval() time.Duration {
	return time.Duration(p.BreakIntervalSeconds) * time.Second
}

// Validate rejects negative or non-finite thresholds. Run does not call it;
// callers validate at their boundary.
func (p Parameters) Validate() error {
	if p.BreakIntervalSeconds < 0 {
		return fmt.Errorf("%w: break interval %d s is negative", ErrInvalidParameters, p.BreakIntervalSeconds)
	}
	checks := []struct {
		name  string
		value float64
	}{
		{"subway buffer", p.SubwayBufferMeters},
		{"cold start distance", p.ColdStartDistanceMeters},
		{"accuracy cutoff", p.AccuracyCutoffMeters},
	}
	for _, c := range checks {
		if math.IsNaN(c.value) || math.IsInf(c.value, 0) {
			return fmt.Errorf("%w: %s is not a finite number", ErrInvalidParameters, c.name)
		}
		if c.value < 0 {
			return fmt.Errorf("%w: %s %.2f m is negative", ErrInvalidParameters, c.name, c.value)
		}
	}
	return nil
}

// ProjectedFix is a fix with its planar UTM coordinates
type ProjectedFix struct {
	Fix
	Easting  float64
	Northing float64
	Zone     string
}

// Point is a fix retained in a trip
type Point struct {
	ProjectedFix
	Distance     float64 // meters from the previous point of the trip
	TripDistance float64 // cumulative meters since the trip head
	BreakPeriod  bool    // set on the head of every trip
	TripCode     int
}

// Trip is an ordered run of points between two breaks
type Trip struct {
	ID     int
	Points []Point
}

// Start returns the timestamp of the first point
func (t Trip) Start() time.Time {
	if len(t.Points) == 0 {
		return time.Time{}
	}
	return t.Points[0].Timestamp
}

// End returns the timestamp of the last point
func (t Trip) End() time.Time {
	if len(t.Points) == 0 {
		return time.Time{}
	}
	return t.Points[len(t.Points)-1].Timestamp
}

// Summary describes one emitted trip
type Summary struct {
	TripID             int       `json:"trip_id"`
	Start              time.Time `json:"start"`
	End                time.Time `json:"end"`
	CumulativeDistance float64   `json:"cumulative_distance"`
}

// Stats counts what each stage kept
type Stats struct {
	InputFixes     int
	AcceptedFixes  int
	AssembledTrips int
	EmittedTrips   int
	EmittedPoints  int
}

// Result holds the trips of one run in chronological order with a summary per trip
type Result struct {
	Trips     []Trip
	Summaries []Summary
	Stats     Stats
}

// Empty reports whether the run produced no trips
func (r *Result) Empty() bool {
	return len(r.Trips) == 0
}

// Trip looks up an emitted trip by identifier
func (r *Result) Trip(id int) (Trip, bool) {
	for _, t := range r.Trips {
		if t.ID == id {
			return t, true
		}
	}
	return Trip{}, false
}

// Summary looks up the summary of an emitted trip by identifier
func (r *Result) Summary(id int) (Summary, bool) {
	for _, s := range r.Summaries {
		if s.TripID == id {
			return s, true
		}
	}
	return Summary{}, false
}
