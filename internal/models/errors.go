package models

import "errors"

var (
	// ErrNotReady indicates the dataset has not been loaded yet.
	ErrNotReady = errors.New("data not loaded yet")

	// ErrBadRequest indicates a required request field is missing or invalid.
	ErrBadRequest = errors.New("bad request")
)
