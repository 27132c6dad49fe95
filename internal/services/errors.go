package services

import "errors"

// ValidationError reports a request that was rejected before touching storage.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

func invalid(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// ErrStorageDisabled is returned by avatar uploads when no bucket is configured.
var ErrStorageDisabled = errors.New("avatar storage is not configured")
