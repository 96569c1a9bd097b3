package export

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/itinerum/tripbreaker-backend/internal/tripbreaker"
)

// TripsGeoJSON renders each emitted trip as a LineString feature. Coordinates
// are [longitude, latitude] and each feature carries its bounding box.
func TripsGeoJSON(result *tripbreaker.Result) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	if result == nil {
		return fc
	}

	for i, trip := range result.Trips {
		line := make(orb.LineString, len(trip.Points))
		for j, p := range trip.Points {
			line[j] = orb.Point{p.Longitude, p.Latitude}
		}

		feature := geojson.NewFeature(line)
		feature.BBox = geojson.NewBBox(line.Bound())
		feature.Properties["start"] = trip.Start().UTC().Format(TimestampLayout)
		feature.Properties["end"] = trip.End().UTC().Format(TimestampLayout)
		feature.Properties["tripCode"] = trip.ID
		if i < len(result.Summaries) {
			feature.Properties["cumulativeDistance"] = result.Summaries[i].CumulativeDistance
		}
		fc.Append(feature)
	}
	return fc
}

// StopsGeoJSON renders subway stops as Point features
func StopsGeoJSON(stops []tripbreaker.SubwayStop) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, stop := range stops {
		fc.Append(geojson.NewFeature(orb.Point{stop.Longitude, stop.Latitude}))
	}
	return fc
}
