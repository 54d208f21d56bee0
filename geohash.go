package geotimezone

import (
	"fmt"
	"math"
	"strings"

	geohash "github.com/TomiHiltunen/geohash-golang"
	"github.com/golang/geo/s2"
)

// base32 is the geohash alphabet. 'a', 'i', 'l' and 'o' are absent.
const base32 = "0123456789bcdefghjkmnpqrstuvwxyz"

// Encode returns the geohash of the coordinate with the given number of
// characters.
//
// Coordinates outside [-90, 90] x [-180, 180] are rejected rather than
// clamped: a clamped point would encode to a cell it does not lie in.
func Encode(lat, lon float64, precision int) (string, error) {
	if precision < 1 {
		return "", fmt.Errorf("%w: %d", ErrInvalidPrecision, precision)
	}
	if err := checkCoordinate(lat, lon); err != nil {
		return "", err
	}
	return encode(lat, lon, precision), nil
}

// encode is Encode without argument checks.
func encode(lat, lon float64, precision int) string {
	latLo, latHi := -90.0, 90.0
	lonLo, lonHi := -180.0, 180.0

	code := make([]byte, 0, precision)
	var ch byte
	bit := 0
	even := true
	for len(code) < precision {
		if even {
			mid := (lonLo + lonHi) / 2
			if lon > mid {
				ch |= 1 << (4 - bit)
				lonLo = mid
			} else {
				lonHi = mid
			}
		} else {
			mid := (latLo + latHi) / 2
			if lat > mid {
				ch |= 1 << (4 - bit)
				latLo = mid
			} else {
				latHi = mid
			}
		}
		even = !even

		if bit < 4 {
			bit++
			continue
		}
		code = append(code, base32[ch])
		bit, ch = 0, 0
	}
	return string(code)
}

// checkCoordinate rejects NaN and out-of-range coordinates.
func checkCoordinate(lat, lon float64) error {
	if math.IsNaN(lat) || lat < -90 || lat > 90 {
		return fmt.Errorf("%w: latitude %v", ErrInvalidCoordinate, lat)
	}
	if math.IsNaN(lon) || lon < -180 || lon > 180 {
		return fmt.Errorf("%w: longitude %v", ErrInvalidCoordinate, lon)
	}
	return nil
}

// ValidGeohash reports whether code is a non-empty string over the geohash
// alphabet.
func ValidGeohash(code string) bool {
	if code == "" {
		return false
	}
	for i := 0; i < len(code); i++ {
		if strings.IndexByte(base32, code[i]) < 0 {
			return false
		}
	}
	return true
}

// CellBounds returns the rectangle covered by a geohash cell. Shorter codes
// cover larger cells, so the bounds of a matched index key describe the
// whole area that resolves to the same zones.
func CellBounds(code string) (s2.Rect, error) {
	if !ValidGeohash(code) {
		return s2.EmptyRect(), fmt.Errorf("%w: %q", ErrInvalidGeohash, code)
	}
	box := geohash.Decode(code)
	sw, ne := box.SouthWest(), box.NorthEast()
	r := s2.RectFromLatLng(s2.LatLngFromDegrees(sw.Lat(), sw.Lng()))
	return r.AddPoint(s2.LatLngFromDegrees(ne.Lat(), ne.Lng())), nil
}

// cellCenter returns the centre of a geohash cell in degrees.
func cellCenter(code string) (lat, lon float64) {
	c := geohash.Decode(code).Center()
	return c.Lat(), c.Lng()
}
