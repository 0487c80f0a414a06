package service

import "errors"

// Sentinel error kinds returned by the Service.
var (
	ErrNotStarted        = errors.New("service not started")
	ErrInvalidDate       = errors.New("invalid date")
	ErrSourceUnavailable = errors.New("game data source unavailable")
)
