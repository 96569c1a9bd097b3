package tripbreaker

import (
	"math"
	"slices"

	"github.com/itinerum/tripbreaker-backend/internal/spatial"
)

// Filter returns the fixes whose horizontal accuracy is within the cutoff (inclusive),
// ordered by timestamp. Malformed fixes are dropped silently: zero timestamps,
// non-finite or out of range coordinates, the (0, 0) coordinate some iOS builds
// report, and negative or unknown accuracy. Of several fixes sharing a timestamp
// only the first in input order is kept.
func Filter(fixes []Fix, accuracyCutoff float64) []Fix {
	valid := make([]Fix, 0, len(fixes))
	for _, f := range fixes {
		if !validFix(f) {
			continue
		}
		if !(f.HAccuracy <= accuracyCutoff) {
			continue
		}
		valid = append(valid, f.Clone())
	}

	slices.SortStableFunc(valid, func(a, b Fix) int {
		return a.Timestamp.Compare(b.Timestamp)
	})

	accepted := valid[:0]
	for _, f := range valid {
		if n := len(accepted); n > 0 && f.Timestamp.Equal(accepted[n-1].Timestamp) {
			continue
		}
		accepted = append(accepted, f)
	}
	return accepted
}

func validFix(f Fix) bool {
	if f.Timestamp.IsZero() {
		return false
	}
	if !finite(f.Latitude) || !finite(f.Longitude) || !finite(f.HAccuracy) {
		return false
	}
	if f.Latitude == 0 && f.Longitude == 0 {
		return false
	}
	if f.Longitude < -180 || f.Longitude > 180 {
		return false
	}
	// UTM latitude bands stop at 80S and 84N
	if spatial.ZoneLetter(f.Latitude) == 0 {
		return false
	}
	return f.HAccuracy >= 0
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
