// Package apperr defines the error taxonomy shared by the interview pipeline.
//
// Errors are built with github.com/cockroachdb/errors and tagged with
// errors.Mark, so a classification survives any amount of wrapping:
//
//	err := apperr.Service(callErr, "gemini")
//	wrapped := errors.Wrap(err, "generate question")
//	errors.Is(wrapped, apperr.ErrService) // true
package apperr

import (
	"github.com/cockroachdb/errors"
)

var (
	// ErrService marks a failed call to an external adapter (network, auth, rate limit).
	ErrService = errors.New("external service error")
	// ErrMalformedResponse marks an adapter reply that could not be parsed.
	ErrMalformedResponse = errors.New("malformed service response")
	// ErrValidation marks invalid caller input. Never retried.
	ErrValidation = errors.New("validation error")
	// ErrNotFound marks a missing session.
	ErrNotFound = errors.New("session not found")
	// ErrStageBusy marks a stage that is already running for a session.
	ErrStageBusy = errors.New("stage already running")
)

// Service wraps err as a failed call to the named service.
func Service(err error, service string) error {
	if err == nil {
		return nil
	}
	return errors.Mark(errors.Wrapf(err, "%s call failed", service), ErrService)
}

// Malformed wraps err as an unparsable reply from the named service.
func Malformed(err error, service string) error {
	if err == nil {
		err = errors.New("empty reply")
	}
	return errors.Mark(errors.Wrapf(err, "%s returned unparsable content", service), ErrMalformedResponse)
}

// Validation builds a caller-facing validation error.
func Validation(format string, args ...interface{}) error {
	return errors.Mark(errors.Newf(format, args...), ErrValidation)
}

// NotFound builds a not-found error for the given session id.
func NotFound(id string) error {
	return errors.Mark(errors.Newf("session %s not found", id), ErrNotFound)
}

// StageBusy reports that a stage is already running for the given session.
func StageBusy(stage, id string) error {
	return errors.Mark(errors.Newf("%s stage is already running for session %s", stage, id), ErrStageBusy)
}

// IsValidation reports whether err carries the validation marker.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}

// IsNotFound reports whether err carries the not-found marker.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsRecoverable reports whether err came from an adapter, either as a failed call
// or an unparsable reply. Both are absorbed into fallbacks at agent level.
func IsRecoverable(err error) bool {
	return errors.IsAny(err, ErrService, ErrMalformedResponse)
}
