// Package tripbreaker partitions one person's GPS trace into trips.
//
// A run is a single forward pass:
//
//	fixes -> Filter -> Project -> Assemble (GapClassifier) -> TrimColdStart -> Accumulate
//
// The engine is pure and synchronous. It never mutates the caller's slices and holds
// no state between runs, so concurrent runs for different people need no locking.
// The same fixes, stops and parameters always produce the same trips in the same order.
package tripbreaker

// Run detects the trips in a trace. Nil slices are treated as empty. Trips that
// do not survive cold-start trimming are not emitted, so emitted trip identifiers
// may skip values.
func Run(params Parameters, stops []SubwayStop, fixes []Fix) *Result {
	params = params.Clone()

	accepted := Filter(fixes, params.AccuracyCutoffMeters)
	projected := Project(accepted)
	classifier := NewGapClassifier(params, stops)
	assembled := Assemble(projected, classifier)

	result := &Result{
		Trips:     make([]Trip, 0, len(assembled)),
		Summaries: make([]Summary, 0, len(assembled)),
		Stats: Stats{
			InputFixes:     len(fixes),
			AcceptedFixes:  len(projected),
			AssembledTrips: len(assembled),
		},
	}

	for _, trip := range assembled {
		trimmed, ok := TrimColdStart(trip, params.ColdStartDistanceMeters)
		if !ok {
			continue
		}
		emitted, summary := Accumulate(trimmed)
		result.Trips = append(result.Trips, emitted)
		result.Summaries = append(result.Summaries, summary)
		result.Stats.EmittedPoints += len(emitted.Points)
	}
	result.Stats.EmittedTrips = len(result.Trips)

	return result
}
