package bookshelf

import "errors"

var (
	ErrAccessCodeRequired  = errors.New("access code is required")
	ErrInvalidAccessCode   = errors.New("invalid access code")
	ErrAccessNotConfigured = errors.New("access code not configured")

	errEmptyResponse = errors.New("AI returned an empty response")
)

// ValidationError is a rejected client input. Its message is safe to show.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}
