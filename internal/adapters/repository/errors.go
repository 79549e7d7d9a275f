package repository

import "errors"

// Sentinel kinds for run store errors.
var (
	ErrNotFound  = errors.New("run not found")
	ErrMissingID = errors.New("run id is required")
)
