package domain

import "errors"

// Domain errors
var (
	ErrInvalidDuration    = errors.New("invalid duration format")
	ErrUnknownTeamForUser = errors.New("no roster entry for user's team")
	ErrTeamNotFound       = errors.New("team not found")
	ErrUserNotFound       = errors.New("user not found")
	ErrNoChallenge        = errors.New("no challenge configured")
	ErrInvalidRequest     = errors.New("invalid request")
	ErrInternalError      = errors.New("internal server error")
)

// IsNotFoundError checks if an error is a not-found type error
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrTeamNotFound) || errors.Is(err, ErrUserNotFound)
}
