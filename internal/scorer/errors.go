package scorer

import "github.com/rotisserie/eris"

// ErrUnknownSector is returned when a company's sector has no configured profile.
var ErrUnknownSector = eris.New("unknown sector")

// ErrInvalidWeight is returned when a configured weight is negative or not finite.
var ErrInvalidWeight = eris.New("invalid weight")

// IsUnknownSector reports whether err is (or wraps) ErrUnknownSector.
func IsUnknownSector(err error) bool {
	return eris.Is(err, ErrUnknownSector)
}

// IsInvalidWeight reports whether err is (or wraps) ErrInvalidWeight.
func IsInvalidWeight(err error) bool {
	return eris.Is(err, ErrInvalidWeight)
}
