package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound     = errors.New("marketplace: not found")
	ErrUnauthorized = errors.New("marketplace: unauthorized")
	ErrForbidden    = errors.New("marketplace: forbidden")
	ErrNoSession    = errors.New("no active session")
)

// StatusError carries a non-2xx remote status plus the message the service
// put in its error payload, when one was present.
type StatusError struct {
	Status  int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("remote status %d", e.Status)
	}
	return fmt.Sprintf("remote status %d: %s", e.Status, e.Message)
}

// IsServerError reports whether err is a 5xx response from the remote service.
func IsServerError(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Status >= 500
}
