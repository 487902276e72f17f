package model

import "errors"

// Sentinel kinds for record validation errors.
var (
	ErrScoreNotFinite = errors.New("score must be a finite number")
)
