package tripbreaker

import (
	"time"

	"github.com/itinerum/tripbreaker-backend/internal/spatial/spatialtest"
)

var traceStart = time.Date(2017, 6, 1, 12, 0, 0, 0, time.UTC)

const (
	originLat = 45.5017
	originLon = -73.5673
)

// fixAt places a fix the given number of meters north of the origin, offset seconds after traceStart
func fixAt(id int64, offsetSeconds int, northMeters, accuracy float64) Fix {
	lat, lon := spatialtest.DestinationPoint(originLat, originLon, 0, northMeters)
	return Fix{
		ID:        id,
		Timestamp: traceStart.Add(time.Duration(offsetSeconds) * time.Second),
		Latitude:  lat,
		Longitude: lon,
		HAccuracy: accuracy,
	}
}

func stopAt(northMeters float64) SubwayStop {
	lat, lon := spatialtest.DestinationPoint(originLat, originLon, 0, northMeters)
	return SubwayStop{Latitude: lat, Longitude: lon}
}

func cloneFixes(fixes []Fix) []Fix {
	out := make([]Fix, len(fixes))
	for i, f := range fixes {
		out[i] = f.Clone()
	}
	return out
}

func noTrimParams() Parameters {
	return Parameters{
		BreakIntervalSeconds:    360,
		SubwayBufferMeters:      100,
		ColdStartDistanceMeters: 0,
		AccuracyCutoffMeters:    100,
	}
}

func fixIDs(trip Trip) []int64 {
	ids := make([]int64, len(trip.Points))
	for i, p := range trip.Points {
		ids[i] = p.ID
	}
	return ids
}

func mustProject(t interface{ Fatalf(string, ...any) }, f Fix) ProjectedFix {
	projected := Project([]Fix{f})
	if len(projected) != 1 {
		t.Fatalf("fix %d could not be projected", f.ID)
	}
	return projected[0]
}
