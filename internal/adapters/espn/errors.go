package espn

import "errors"

// Sentinel error kinds for this package.
var (
	ErrUpstream         = errors.New("espn upstream error")
	ErrMalformedPayload = errors.New("malformed espn payload")
	ErrNoWinProbability = errors.New("no win probability data")
)
