package tripbreaker

// TrimColdStart drops the leading points of a trip that lie closer than threshold
// meters to the trip's first point. The first point at or beyond the threshold becomes
// the new head and keeps BreakPeriod. It reports false when no point reaches the
// threshold, in which case the trip must not be emitted. A non-positive threshold
// disables trimming.
func TrimColdStart(trip Trip, threshold float64) (Trip, bool) {
	if len(trip.Points) == 0 {
		return Trip{}, false
	}
	if !(threshold > 0) {
		return trip, true
	}

	origin := trip.Points[0].ProjectedFix
	for i, p := range trip.Points {
		if PlanarDistance(origin, p.ProjectedFix) < threshold {
			continue
		}
		kept := make([]Point, len(trip.Points)-i)
		copy(kept, trip.Points[i:])
		kept[0].BreakPeriod = true
		return Trip{ID: trip.ID, Points: kept}, true
	}

	return Trip{}, false
}
