package domain

import "errors"

var (
	ErrSessionNotFound    = errors.New("session not found")
	ErrUnsupportedModel   = errors.New("model is not supported")
	ErrCapabilityNotFound = errors.New("capability not found")
	ErrFileTooLarge       = errors.New("file exceeds size limit")
	ErrUnsupportedFormat  = errors.New("unsupported file format")
	ErrSignatureMismatch  = errors.New("file signature does not match extension")
	ErrEmptyResponse      = errors.New("provider returned no choices")
)
