package excitement

import "errors"

// Sentinel error kinds for malformed traces. Callers match them with errors.Is.
var (
	ErrInsufficientData      = errors.New("insufficient data")
	ErrOutOfRangeProbability = errors.New("probability out of range")
	ErrUnorderedSequence     = errors.New("unordered sequence")
)

// ErrInvalidPolicy is returned by Policy.Validate.
var ErrInvalidPolicy = errors.New("invalid scoring policy")

// Kind returns a stable snake_case code for a scorer error, or "" when err is
// not one of this package's sentinels.
func Kind(err error) string {
	switch {
	case errors.Is(err, ErrInsufficientData):
		return "insufficient_data"
	case errors.Is(err, ErrOutOfRangeProbability):
		return "out_of_range_probability"
	case errors.Is(err, ErrUnorderedSequence):
		return "unordered_sequence"
	default:
		return ""
	}
}
