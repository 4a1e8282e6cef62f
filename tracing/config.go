package tracing

import "time"

const reconnectionPeriod = 30 * time.Second

// Config holds the configuration for trace export.
type Config struct {
	// Disable, if true, completely disables tracing. No spans will be
	// collected or exported.
	Disable bool `yaml:"disable" default:"false"`

	// SampleRate determines the sampling rate for traces, between
	// 0.0 (no traces) and 1.0 (all traces).
	SampleRate float64 `yaml:"sample_rate" default:"1"`

	// ExporterHost is the hostname or IP address of the OTLP collector.
	ExporterHost string `yaml:"exporter_host" validate:"required_unless=Disable true"`

	// ExporterPort is the port number of the OTLP collector.
	ExporterPort int `yaml:"exporter_port" validate:"required_unless=Disable true"`
}
