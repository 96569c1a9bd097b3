package spatial

import (
	"errors"
	"fmt"
	"math"

	utm "github.com/im7mortal/UTM"
)

const (
	utmMinLatitude = -80.0
	utmMaxLatitude = 84.0
)

const zoneLetters = "CDEFGHJKLMNPQRSTUVWXX"

// ErrOutOfRange is returned for coordinates UTM cannot represent
var ErrOutOfRange = errors.New("coordinate outside UTM range")

// UTM is a projected coordinate in the Universal Transverse Mercator system
type UTM struct {
	Easting    float64
	Northing   float64
	ZoneNumber int
	ZoneLetter byte
}

// Zone returns the zone designator, e.g. "18T"
func (u UTM) Zone() string {
	return fmt.Sprintf("%d%c", u.ZoneNumber, u.ZoneLetter)
}

// FromLatLon projects a WGS84 coordinate into the UTM zone selected from its own
// latitude and longitude. Latitude must lie within [-80, 84] and longitude within [-180, 180].
func FromLatLon(latitude, longitude float64) (UTM, error) {
	if math.IsNaN(latitude) || math.IsNaN(longitude) {
		return UTM{}, ErrOutOfRange
	}
	if latitude < utmMinLatitude || latitude > utmMaxLatitude {
		return UTM{}, fmt.Errorf("%w: latitude %f", ErrOutOfRange, latitude)
	}
	if longitude < -180 || longitude > 180 {
		return UTM{}, fmt.Errorf("%w: longitude %f", ErrOutOfRange, longitude)
	}

	easting, northing, zoneNumber, zoneLetter, err := utm.FromLatLon(latitude, longitude, latitude >= 0)
	if err != nil {
		return UTM{}, fmt.Errorf("%w: %v", ErrOutOfRange, err)
	}

	letter := ZoneLetter(latitude)
	if zoneLetter != "" {
		letter = zoneLetter[0]
	}

	return UTM{
		Easting:    easting,
		Northing:   northing,
		ZoneNumber: zoneNumber,
		ZoneLetter: letter,
	}, nil
}

// ZoneLetter returns the latitude band letter, or 0 outside the UTM range
func ZoneLetter(latitude float64) byte {
	if latitude < utmMinLatitude || latitude > utmMaxLatitude {
		return 0
	}
	return zoneLetters[int(latitude+80)>>3]
}
