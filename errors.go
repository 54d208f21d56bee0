package geotimezone

import "errors"

// Caller errors. These are returned wrapped with the offending value; test
// them with errors.Is.
var (
	ErrInvalidCoordinate = errors.New("geotimezone: coordinate out of range")
	ErrInvalidPrecision  = errors.New("geotimezone: precision must be at least 1")
	ErrInvalidGeohash    = errors.New("geotimezone: invalid geohash")
	ErrIndexOutOfRange   = errors.New("geotimezone: index out of range")
)

// Data errors. Any of these returned from a load is sticky: the Lookup
// reports it on every later call.
var (
	ErrCorruptData      = errors.New("geotimezone: corrupt table data")
	ErrUnsorted         = errors.New("geotimezone: index records not sorted")
	ErrOverlappingCells = errors.New("geotimezone: index records overlap")
)
