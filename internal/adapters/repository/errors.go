package repository

import "errors"

// Sentinel kinds for record store errors.
var (
	ErrAlreadyExists   = errors.New("record already exists")
	ErrEmptyPatch      = errors.New("empty patch")
	ErrCorruptSnapshot = errors.New("corrupt snapshot")
)
