package tripbreaker

// Accumulate fills in per-point incremental and cumulative distances and the trip
// code, and returns the trip summary. The trip code is the trip identifier.
func Accumulate(trip Trip) (Trip, Summary) {
	points := make([]Point, len(trip.Points))
	cumulative := 0.0

	for i, p := range trip.Points {
		p.Distance = 0
		if i > 0 {
			p.Distance = PlanarDistance(points[i-1].ProjectedFix, p.ProjectedFix)
		}
		cumulative += p.Distance
		p.TripDistance = cumulative
		p.TripCode = trip.ID
		points[i] = p
	}

	out := Trip{ID: trip.ID, Points: points}
	return out, Summary{
		TripID:             trip.ID,
		Start:              out.Start(),
		End:                out.End(),
		CumulativeDistance: cumulative,
	}
}
