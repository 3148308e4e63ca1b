// Package config provides the configuration structure for speech-desk and
// speech-relay.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/book-expert/configurator"
	"github.com/book-expert/logger"
	"github.com/book-expert/speech-desk/internal/provider/azure"
)

// Provider kinds.
const (
	ProviderAzure = "azure"
	ProviderNATS  = "nats"
)

// Defaults applied to blank values.
const (
	DefaultLogsDir        = "logs"
	DefaultSettingsFile   = "speech-settings.json"
	DefaultRecordingsDir  = "recordings"
	DefaultTimeoutSeconds = 60
	DefaultNATSURL        = "nats://127.0.0.1:4222"
	DefaultRequestSubject = "speech.synthesize"
	DefaultTextBucket     = "SPEECH_TEXT"
	DefaultAudioBucket    = "SPEECH_AUDIO"
	DefaultPayloadTTLMins = 60
)

// ErrUnknownProvider indicates provider.kind names no supported provider.
var ErrUnknownProvider = errors.New("unknown provider kind")

// PathsConfig holds the configuration for file paths.
type PathsConfig struct {
	BaseLogsDir   string `toml:"base_logs_dir"`
	SettingsFile  string `toml:"settings_file"`
	CatalogFile   string `toml:"catalog_file"`
	RecordingsDir string `toml:"recordings_dir"`
}

// ProviderConfig selects and tunes the speech provider.
type ProviderConfig struct {
	Kind             string `toml:"kind"`
	EndpointTemplate string `toml:"endpoint_template"`
	OutputFormat     string `toml:"output_format"`
	TimeoutSeconds   int    `toml:"timeout_seconds"`
}

// NATSConfig holds the configuration for NATS.
type NATSConfig struct {
	URL               string `toml:"url"`
	RequestSubject    string `toml:"request_subject"`
	TextBucket        string `toml:"text_object_store_bucket"`
	AudioBucket       string `toml:"audio_object_store_bucket"`
	PayloadTTLMinutes int    `toml:"payload_ttl_minutes"`
}

// RelayConfig holds relay-side credentials used when a request carries none.
type RelayConfig struct {
	FallbackKey    string `toml:"fallback_key"`
	FallbackRegion string `toml:"fallback_region"`
}

// Config is the root configuration structure.
type Config struct {
	Paths    PathsConfig    `toml:"paths"`
	Provider ProviderConfig `toml:"provider"`
	NATS     NATSConfig     `toml:"nats"`
	Relay    RelayConfig    `toml:"relay"`
}

// Load loads the configuration through the configurator and fills defaults.
func Load(log *logger.Logger) (*Config, error) {
	var cfg Config

	err := configurator.Load(&cfg, log)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration from configurator: %w", err)
	}

	cfg.ApplyDefaults()

	err = cfg.Validate()
	if err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Defaults returns a configuration that works without a config file.
func Defaults() *Config {
	var cfg Config

	cfg.ApplyDefaults()

	return &cfg
}

// ApplyDefaults fills every blank value.
func (c *Config) ApplyDefaults() {
	setDefault(&c.Paths.BaseLogsDir, DefaultLogsDir)
	setDefault(&c.Paths.SettingsFile, DefaultSettingsFile)
	setDefault(&c.Paths.RecordingsDir, DefaultRecordingsDir)

	setDefault(&c.Provider.Kind, ProviderAzure)
	setDefault(&c.Provider.EndpointTemplate, azure.DefaultEndpointTemplate)
	setDefault(&c.Provider.OutputFormat, azure.DefaultOutputFormat)

	if c.Provider.TimeoutSeconds <= 0 {
		c.Provider.TimeoutSeconds = DefaultTimeoutSeconds
	}

	setDefault(&c.NATS.URL, DefaultNATSURL)
	setDefault(&c.NATS.RequestSubject, DefaultRequestSubject)
	setDefault(&c.NATS.TextBucket, DefaultTextBucket)
	setDefault(&c.NATS.AudioBucket, DefaultAudioBucket)

	if c.NATS.PayloadTTLMinutes <= 0 {
		c.NATS.PayloadTTLMinutes = DefaultPayloadTTLMins
	}
}

// Validate rejects unknown provider kinds.
func (c *Config) Validate() error {
	switch c.Provider.Kind {
	case ProviderAzure, ProviderNATS:
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrUnknownProvider, c.Provider.Kind)
	}
}

// Timeout is the provider timeout as a duration.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.Provider.TimeoutSeconds) * time.Second
}

// PayloadTTL is how long relay payloads live in the object store.
func (c *Config) PayloadTTL() time.Duration {
	return time.Duration(c.NATS.PayloadTTLMinutes) * time.Minute
}

func setDefault(field *string, value string) {
	if *field == "" {
		*field = value
	}
}
