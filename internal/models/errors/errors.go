package errors

import "errors"

var (
	// ErrNotFound is returned for any per-job lookup with an unknown id.
	ErrNotFound = errors.New("job does not exist")

	// ErrInvalidState is returned when an operation is attempted on a job
	// that already reached a terminal state.
	ErrInvalidState = errors.New("job is already in a terminal state")

	// ErrUnsupportedLanguage is returned before any resource is provisioned
	// for a language the sandbox has no runtime for.
	ErrUnsupportedLanguage = errors.New("unsupported language")
)
