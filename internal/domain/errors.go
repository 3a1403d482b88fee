package domain

import "errors"

// Sentinel errors used throughout the application.
// Handlers translate these to HTTP status codes via a single mapError function.
var (
	ErrNotFound           = errors.New("not found")
	ErrBoxNotFound        = errors.New("box not found")
	ErrClientNotFound     = errors.New("client not found")
	ErrUnauthorized       = errors.New("clientId does not match boxCreator")
	ErrInvalidBoxName     = errors.New("boxName must not be empty")
	ErrInvalidClientID    = errors.New("clientId must not be empty")
	ErrInvalidContentType = errors.New("messageContentType must be application/json or application/xml")
	ErrEmptyMessage       = errors.New("message must not be empty")
	ErrValidationFailed   = errors.New("callback url validation failed")
	ErrUnableToUpdate     = errors.New("unable to persist callback url")
	ErrStorageFailure     = errors.New("storage failure")
	ErrConfigMissing      = errors.New("required configuration is missing")
)
