package tripbreaker

// Assemble walks the projected fixes once and groups them into trips. A trip is
// opened on the first fix and on every Break decision; its head carries
// BreakPeriod. Trip identifiers count up from 1 in order of creation.
func Assemble(fixes []ProjectedFix, classifier *GapClassifier) []Trip {
	var trips []Trip

	for i, f := range fixes {
		if i == 0 || classifier.Classify(fixes[i-1], f) == Break {
			trips = append(trips, Trip{
				ID:     len(trips) + 1,
				Points: []Point{{ProjectedFix: f, BreakPeriod: true}},
			})
			continue
		}
		last := len(trips) - 1
		trips[last].Points = append(trips[last].Points, Point{ProjectedFix: f})
	}

	return trips
}
