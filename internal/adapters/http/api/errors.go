package api

import "errors"

// Sentinel kinds for API errors.
var (
	ErrBadRequest   = errors.New("bad request")
	ErrBadGUID      = errors.New("guid must be 8-128 characters")
	ErrMissingScore = errors.New("score is required and must be a finite number")
	ErrUnauthorized = errors.New("unauthorized")
)
