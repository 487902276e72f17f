package gate

import "errors"

// Sentinel kinds for gate lookup errors.
var (
	ErrNotConfigured       = errors.New("gate not configured")
	ErrUpstreamUnavailable = errors.New("gate upstream unavailable")
	ErrBadUpstreamResponse = errors.New("gate upstream response unusable")
)
