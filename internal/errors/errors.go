// internal/errors/errors.go
package errors

import "fmt"

// ErrInvalidDispatchFormat is returned when a DISPATCH command body cannot
// be split into the expected 'Name - Email - Brief' segments.
type ErrInvalidDispatchFormat struct {
	Input string
}

func (e *ErrInvalidDispatchFormat) Error() string {
	return fmt.Sprintf("invalid dispatch format: %q, expected 'Name - Email - Brief'", e.Input)
}

// ErrEmptyCompletion is returned by a chat provider whose response carried
// no extractable text. The gateway treats it like any other provider failure.
type ErrEmptyCompletion struct {
	Provider string
}

func (e *ErrEmptyCompletion) Error() string {
	return fmt.Sprintf("provider %s returned an empty completion", e.Provider)
}
