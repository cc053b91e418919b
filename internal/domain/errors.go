package domain

import (
	"fmt"
	"strconv"

	"github.com/pkg/errors"
)

var (
	ErrConfiguration = errors.New("configuration error")
	ErrCredential    = errors.New("missing credential")
	ErrTransport     = errors.New("transport error")
	ErrRemote        = errors.New("remote error")
	ErrParse         = errors.New("parse error")
	ErrSideEffect    = errors.New("side effect error")
)

// Wrap tags err with one of the error kinds above while keeping both the kind
// and the cause reachable through errors.Is.
func Wrap(kind error, message string, err error) error {
	if err != nil {
		return fmt.Errorf("%w: %s: %w", kind, message, err)
	}
	return fmt.Errorf("%w: %s", kind, message)
}

// CredentialError reports a missing TMDB API key. It matches both
// ErrConfiguration and ErrCredential.
func CredentialError(message string) error {
	return fmt.Errorf("%w: %w: %s", ErrConfiguration, ErrCredential, message)
}

// RemoteError is returned when TMDB answers with a non-success status.
// Message is the provider's own message, unmodified.
type RemoteError struct {
	StatusCode int
	Message    string
}

func (e *RemoteError) Error() string {
	if e.Message == "" {
		return "tmdb returned status " + strconv.Itoa(e.StatusCode)
	}
	return "tmdb returned status " + strconv.Itoa(e.StatusCode) + ": " + e.Message
}

func (e *RemoteError) Is(target error) bool {
	return target == ErrRemote
}

// OpenError records a failure to open one movie's detail URL.
type OpenError struct {
	MovieID int64
	URL     string
	Err     error
}

func (e *OpenError) Error() string {
	return fmt.Sprintf("open %s (movie %d): %v", e.URL, e.MovieID, e.Err)
}

func (e *OpenError) Unwrap() error {
	return e.Err
}

func (e *OpenError) Is(target error) bool {
	return target == ErrSideEffect
}

// Stage names the step of a run that produced err.
func Stage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrCredential):
		return "credential lookup"
	case errors.Is(err, ErrConfiguration):
		return "configuration"
	case errors.Is(err, ErrTransport):
		return "network call"
	case errors.Is(err, ErrRemote):
		return "remote API"
	case errors.Is(err, ErrParse):
		return "response parsing"
	case errors.Is(err, ErrSideEffect):
		return "browser open"
	default:
		return "run"
	}
}
