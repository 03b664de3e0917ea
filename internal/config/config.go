// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() initializer to build a Config with defaults.
// - Loading layers defaults, an optional YAML file and BEELINE_* env vars.
// - External errors are wrapped with this package's sentinel kinds.
package config

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log encoding: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":4500".
	Addr string `koanf:"addr"`

	// DataPath points at the colony impact CSV loaded at startup.
	DataPath string `koanf:"data_path"`

	// TopN bounds the state and cause pie charts.
	TopN int `koanf:"top_n"`

	// QueueCapacity bounds pending year selections. One keeps only the latest.
	QueueCapacity int `koanf:"queue_capacity"`

	// SelectionTimeoutMS caps how long POST /api/selection waits for a frame.
	SelectionTimeoutMS int `koanf:"selection_timeout_ms"`

	// OTelEndpoint enables OTLP/HTTP trace export when non-empty.
	OTelEndpoint string `koanf:"otel_endpoint"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:           "info",
		LogFormat:          "text",
		Addr:               ":4500",
		DataPath:           "BeeLineDistribution.csv",
		TopN:               5,
		QueueCapacity:      1,
		SelectionTimeoutMS: 5000,
	}
}
