package geotimezone

import (
	"math"
	"strconv"
)

// FallbackTimeZone returns the nominal zone for a longitude when no index
// record covers a point, typically in open ocean. Zones are 15° bands
// centred on multiples of 15°; the band around the prime meridian is "UTC"
// and the others are Etc/GMT zones, whose POSIX sign is inverted: west of
// Greenwich is "Etc/GMT+N", east is "Etc/GMT-N".
func FallbackTimeZone(lon float64) string {
	distance := math.Abs(lon)
	if distance <= 7.5 {
		return "UTC"
	}

	offset := int(math.Ceil((distance - 7.5) / 15))
	sign := "-"
	if lon < 0 {
		sign = "+"
	}
	return "Etc/GMT" + sign + strconv.Itoa(offset)
}
