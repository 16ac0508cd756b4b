package domain

import "errors"

// Domain errors
var (
	ErrDocumentNotFound = errors.New("document not found")
	ErrObjectNotFound   = errors.New("object not found")
)

// ValidationError represents a validation error with field and message information.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return e.Field + ": " + e.Message
	}
	return e.Message
}
