package tripbreaker

import (
	"github.com/golang/geo/s2"

	"github.com/itinerum/tripbreaker-backend/internal/spatial"
)

// MinimumWalkingSpeed is the speed in m/s (15 km/h) above which a long silent gap
// is treated as uninterrupted movement
const MinimumWalkingSpeed = 15.0 * 1000 / 3600

// Decision is the outcome of classifying the gap between two consecutive fixes
type Decision int

// Gap decisions
const (
	Continue Decision = iota
	Break
)

func (d Decision) String() string {
	switch d {
	case Continue:
		return "CONTINUE"
	case Break:
		return "BREAK"
	default:
		return "UNKNOWN"
	}
}

// GapClassifier decides whether the gap between two consecutive fixes splits a trip
type GapClassifier struct {
	breakIntervalSeconds float64
	subwayBufferMeters   float64
	stops                []s2.LatLng
}

// NewGapClassifier builds a classifier for one run. Stops with non-finite
// coordinates are ignored.
func NewGapClassifier(params Parameters, stops []SubwayStop) *GapClassifier {
	g := &GapClassifier{
		breakIntervalSeconds: params.BreakInterval().Seconds(),
		subwayBufferMeters:   params.SubwayBufferMeters,
		stops:                make([]s2.LatLng, 0, len(stops)),
	}
	for _, s := range stops {
		if !finite(s.Latitude) || !finite(s.Longitude) {
			continue
		}
		g.stops = append(g.stops, s2.LatLngFromDegrees(s.Latitude, s.Longitude))
	}
	return g
}

// Classify returns Continue when the gap from prev to cur stays within the break
// interval, or when a longer gap is bridged by plausible travel speed or by either
// fix lying within the subway buffer of a stop. Otherwise it returns Break.
func (g *GapClassifier) Classify(prev, cur ProjectedFix) Decision {
	elapsed := cur.Timestamp.Sub(prev.Timestamp).Seconds()
	if elapsed <= g.breakIntervalSeconds {
		return Continue
	}

	if g.velocityBridge(prev, cur, elapsed) {
		return Continue
	}
	if g.nearSubway(prev) || g.nearSubway(cur) {
		return Continue
	}
	return Break
}

func (g *GapClassifier) velocityBridge(prev, cur ProjectedFix, elapsed float64) bool {
	if elapsed <= 0 {
		return false
	}
	return PlanarDistance(prev, cur)/elapsed > MinimumWalkingSpeed
}

func (g *GapClassifier) nearSubway(f ProjectedFix) bool {
	for _, stop := range g.stops {
		if spatial.DistanceToLatLng(f.Latitude, f.Longitude, stop) <= g.subwayBufferMeters {
			return true
		}
	}
	return false
}
