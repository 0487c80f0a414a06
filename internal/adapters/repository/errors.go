package repository

import (
	"errors"
	"fmt"
)

// Sentinel kinds for repository errors.
var (
	ErrNotFound     = errors.New("game not found")
	ErrInvalidGame  = errors.New("invalid ranked game")
	ErrUnknownStore = errors.New("unknown store backend")
)

func errorf(kind error, format string, args ...any) error {
	return fmt.Errorf("%w: %s", kind, fmt.Sprintf(format, args...))
}
