package tripbreaker

import "github.com/itinerum/tripbreaker-backend/internal/spatial"

// Project converts each fix to planar UTM coordinates. The zone is chosen per fix,
// so two fixes on either side of a zone boundary are not directly comparable.
// Fixes that cannot be projected are skipped.
func Project(fixes []Fix) []ProjectedFix {
	projected := make([]ProjectedFix, 0, len(fixes))

	for _, f := range fixes {
		u, err := spatial.FromLatLon(f.Latitude, f.Longitude)
		if err != nil {
			continue
		}
		projected = append(projected, ProjectedFix{
			Fix:      f.Clone(),
			Easting:  u.Easting,
			Northing: u.Northing,
			Zone:     u.Zone(),
		})
	}

	return projected
}

// PlanarDistance returns the Euclidean distance in meters between two projected fixes
func PlanarDistance(a, b ProjectedFix) float64 {
	return spatial.PlanarDistance(a.Easting, a.Northing, b.Easting, b.Northing)
}
