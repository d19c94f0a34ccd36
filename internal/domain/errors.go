package domain

import "errors"

var (
	// ErrNotAvailable means the backend produced no usable solution.
	ErrNotAvailable = errors.New("solution not available")

	// ErrRenderFailed wraps any failure while drawing an artifact.
	ErrRenderFailed = errors.New("render failed")

	// ErrMissingSecret is returned when a required credential is absent.
	ErrMissingSecret = errors.New("missing required secret")
)
