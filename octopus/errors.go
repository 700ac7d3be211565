package octopus

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
)

var (
	ErrUnauthorised = errors.New("emailoctopus: unauthorised (invalid API key)")
	ErrNotFound     = errors.New("emailoctopus: not found")
	ErrRateLimited  = errors.New("emailoctopus: rate limit exceeded")
)

// APIError is returned for any non-2xx response from the EmailOctopus API.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("emailoctopus: %v %v (%v)", e.StatusCode, e.Code, e.Message)
	}

	return fmt.Sprintf("emailoctopus: %v %v", e.StatusCode, http.StatusText(e.StatusCode))
}

func (e *APIError) Unwrap() error {
	switch e.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return ErrUnauthorised

	case http.StatusNotFound:
		return ErrNotFound

	case http.StatusTooManyRequests:
		return ErrRateLimited

	default:
		return nil
	}
}

func newAPIError(status int, body []byte) error {
	err := APIError{
		StatusCode: status,
	}

	var reply apiError
	if json.Unmarshal(body, &reply) == nil {
		err.Code = reply.Error.Code
		err.Message = reply.Error.Message
	}

	return &err
}

var apiKey = regexp.MustCompile(`(api_key=)[^&]*`)

// redact replaces the api_key query parameter in a URL so that it never appears in
// log lines or error messages.
func redact(uri string) string {
	return apiKey.ReplaceAllString(uri, "${1}REDACTED")
}

func redactURLError(err error) error {
	var e *url.Error
	if errors.As(err, &e) {
		e.URL = redact(e.URL)
	}

	return err
}
