package google

import (
	"errors"
	"fmt"
	"net/http"

	"google.golang.org/api/googleapi"
)

var (
	ErrUnauthorised = errors.New("google: unauthorised (invalid credentials)")
	ErrForbidden    = errors.New("google: forbidden (insufficient permissions)")
	ErrNotFound     = errors.New("google: resource not found")
	ErrRateLimited  = errors.New("google: rate limit exceeded")
)

func IsNotFound(err error) bool {
	return is(err, ErrNotFound, http.StatusNotFound)
}

func IsForbidden(err error) bool {
	return is(err, ErrForbidden, http.StatusForbidden)
}

func IsRateLimited(err error) bool {
	return is(err, ErrRateLimited, http.StatusTooManyRequests)
}

// WrapError wraps a Google API error with the matching sentinel error, retaining the
// original message.
func WrapError(err error) error {
	var gerr *googleapi.Error
	if err == nil || !errors.As(err, &gerr) {
		return err
	}

	switch gerr.Code {
	case http.StatusUnauthorized:
		return fmt.Errorf("%w (%v)", ErrUnauthorised, gerr.Message)

	case http.StatusForbidden:
		return fmt.Errorf("%w (%v)", ErrForbidden, gerr.Message)

	case http.StatusNotFound:
		return fmt.Errorf("%w (%v)", ErrNotFound, gerr.Message)

	case http.StatusTooManyRequests:
		return fmt.Errorf("%w (%v)", ErrRateLimited, gerr.Message)

	default:
		return err
	}
}

func is(err error, sentinel error, code int) bool {
	if errors.Is(err, sentinel) {
		return true
	}

	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		return gerr.Code == code
	}

	return false
}
