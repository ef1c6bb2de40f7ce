package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput reports an empty address or a non-positive bound.
	ErrInvalidInput = errors.New("invalid input")

	// ErrGeocodeFailure reports that no geocoding strategy produced a usable
	// coordinate.
	ErrGeocodeFailure = errors.New("geocode failure")

	// ErrAPIFailure matches every *APIError.
	ErrAPIFailure = errors.New("api failure")
)

// APIError is returned once all attempts against an external endpoint have
// failed. Err is the cause of the last attempt.
type APIError struct {
	URL      string
	Attempts int
	Err      error
}

func (e *APIError) Error() string {
	return fmt.Sprintf("request to %s failed after %d attempt(s): %v", e.URL, e.Attempts, e.Err)
}

func (e *APIError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrAPIFailure) true for any APIError.
func (e *APIError) Is(target error) bool { return target == ErrAPIFailure }
