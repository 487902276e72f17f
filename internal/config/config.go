// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults; Load layers file and env.
// - External errors must be wrapped via this package's error helpers.
package config

// Config contains process configuration. Extend as needed.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// DataDir holds the leaderboard snapshot file.
	DataDir string `koanf:"data_dir"`

	// DefaultPageSize is used when a paged read omits a limit.
	DefaultPageSize int `koanf:"default_page_size"`

	// APIKey is the shared secret for gated and mutating routes.
	// Empty leaves all routes open.
	APIKey string `koanf:"api_key"`

	// TrackerURL and TrackerToken configure the external gate service.
	TrackerURL   string `koanf:"tracker_url"`
	TrackerToken string `koanf:"tracker_token"`

	// AllowStreamID is the upstream stream id that counts as a pass.
	AllowStreamID int64 `koanf:"allow_stream_id"`

	// GateTimeoutMS bounds a single gate lookup round trip.
	GateTimeoutMS int `koanf:"gate_timeout_ms"`

	// AllowClientIP lets /gate accept a caller-supplied IP. Test traffic only.
	AllowClientIP bool `koanf:"allow_client_ip"`

	// InsecureSSL disables TLS verification against the tracker.
	InsecureSSL bool `koanf:"insecure_ssl"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:        "info",
		Addr:            ":9080",
		DataDir:         "data",
		DefaultPageSize: 10,
		GateTimeoutMS:   8000,
	}
}
