// Package config provides configuration loading and management for ngffviewer.
// It handles loading configuration from YAML files, applies overrides from
// NGFF_CONFIG_* environment variables and provides default values.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"ngffviewer/pkg/affine"
	"ngffviewer/pkg/resolver"
	"ngffviewer/pkg/store"
)

// EnvPrefix prefixes the environment variables that override config fields
const EnvPrefix = "NGFF_CONFIG_"

// Source is one entry of the list of sources to open
type Source struct {
	// Locator is the store URL (http, https, s3, file) or a local path
	Locator string `yaml:"locator"`

	// ChannelAxis forces the channel axis, for data without axes metadata
	ChannelAxis *int `yaml:"channelAxis,omitempty"`

	// Label shows the source as a label image
	Label bool `yaml:"label,omitempty"`

	// ModelMatrix replaces the source transform, 16 comma separated numbers
	// in column-major order
	ModelMatrix string `yaml:"modelMatrix,omitempty"`
}

// Config represents the application configuration loaded from YAML
type Config struct {
	// Sources to open, in layer order
	Sources []Source `yaml:"sources"`

	// Store access parameters
	Store struct {
		// HTTPTimeout bounds every request to an HTTP store
		HTTPTimeout time.Duration `yaml:"httpTimeout"`

		// S3Region is the AWS region used for s3:// locators
		S3Region string `yaml:"s3Region"`

		// Instrument records prometheus metrics for store fetches
		Instrument bool `yaml:"instrument"`
	} `yaml:"store"`

	// Viewport parameters
	Viewport struct {
		// Width and Height of the drawing area in pixels
		Width  float64 `yaml:"width"`
		Height float64 `yaml:"height"`

		// TransitionSeconds is the duration of an animated view reset
		TransitionSeconds float64 `yaml:"transitionSeconds"`

		// TransitionFPS is the number of keyframes per second of a reset
		TransitionFPS int `yaml:"transitionFps"`
	} `yaml:"viewport"`

	// Logging parameters
	Logging struct {
		// LogLevel is one of DEBUG, INFO, ERROR
		LogLevel string `yaml:"level"`
	} `yaml:"logging"`

	// Server parameters
	Server struct {
		// ListenAddress is where the state API listens
		ListenAddress string `yaml:"listenAddress"`

		// AllowedOrigins are the CORS origins accepted by the state API
		AllowedOrigins []string `yaml:"allowedOrigins"`

		// SentryDSN enables error reporting to sentry when set
		SentryDSN string `yaml:"sentryDsn"`

		// EnvironmentName is reported to sentry
		EnvironmentName string `yaml:"environment"`
	} `yaml:"server"`
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	cfg := &Config{}

	cfg.Store.HTTPTimeout = 30 * time.Second
	cfg.Store.S3Region = "us-east-1"
	cfg.Store.Instrument = false

	cfg.Viewport.Width = 1024
	cfg.Viewport.Height = 768
	cfg.Viewport.TransitionSeconds = 0.5
	cfg.Viewport.TransitionFPS = 30

	cfg.Logging.LogLevel = "INFO"

	cfg.Server.ListenAddress = ":8080"
	cfg.Server.AllowedOrigins = []string{"*"}
	cfg.Server.EnvironmentName = "local"

	return cfg
}

// LoadConfig loads configuration from a YAML file
// If the file doesn't exist, it returns the default configuration
// Environment overrides are applied in both cases
func LoadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(configPath)
	switch {
	case os.IsNotExist(err):
	case err != nil:
		return nil, fmt.Errorf("error reading config file: %w", err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("error parsing config file: %w", err)
		}
	}

	if err := ApplyEnvOverrides(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnvOverrides sets any scalar field of a config section that has an
// NGFF_CONFIG_<FieldName> environment variable. String slices take comma
// separated values.
func ApplyEnvOverrides(cfg *Config) error {
	root := reflect.ValueOf(cfg).Elem()
	for i := 0; i < root.NumField(); i++ {
		section := root.Field(i)
		if section.Kind() != reflect.Struct {
			continue
		}
		for j := 0; j < section.NumField(); j++ {
			name := section.Type().Field(j).Name
			val, present := os.LookupEnv(EnvPrefix + name)
			if !present {
				continue
			}
			if err := setField(section.Field(j), val); err != nil {
				return fmt.Errorf("invalid value for %s%s: %w", EnvPrefix, name, err)
			}
		}
	}
	return nil
}

func setField(field reflect.Value, val string) error {
	if field.Type() == reflect.TypeOf(time.Duration(0)) {
		d, err := time.ParseDuration(val)
		if err != nil {
			return err
		}
		field.SetInt(int64(d))
		return nil
	}

	switch field.Kind() {
	case reflect.String:
		field.SetString(val)
	case reflect.Bool:
		b, err := strconv.ParseBool(val)
		if err != nil {
			return err
		}
		field.SetBool(b)
	case reflect.Int, reflect.Int32, reflect.Int64:
		n, err := strconv.Atoi(val)
		if err != nil {
			return err
		}
		field.SetInt(int64(n))
	case reflect.Float64:
		f, err := strconv.ParseFloat(val, 64)
		if err != nil {
			return err
		}
		field.SetFloat(f)
	case reflect.Slice:
		if field.Type().Elem().Kind() == reflect.String {
			field.Set(reflect.ValueOf(strings.Split(val, ",")))
		}
	}
	return nil
}

// SaveConfig saves the configuration to a YAML file
func SaveConfig(cfg *Config, configPath string) error {
	// Create directory if it doesn't exist
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("error marshaling config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("error writing config file: %w", err)
	}

	return nil
}

// CreateDefaultConfigFile creates a default configuration file at the specified path
func CreateDefaultConfigFile(configPath string) error {
	cfg := DefaultConfig()
	return SaveConfig(cfg, configPath)
}

// StoreOptions returns the options used to open every source store
func (c *Config) StoreOptions() store.Options {
	return store.Options{
		HTTPTimeout: c.Store.HTTPTimeout,
		S3Region:    c.Store.S3Region,
		Instrument:  c.Store.Instrument,
	}
}

// SourceConfigs converts the source list for the resolver. The second result
// holds the label flag of every source.
func (c *Config) SourceConfigs() ([]resolver.SourceConfig, []bool, error) {
	configs := make([]resolver.SourceConfig, len(c.Sources))
	labels := make([]bool, len(c.Sources))
	for i, s := range c.Sources {
		if s.Locator == "" {
			return nil, nil, fmt.Errorf("source %d has no locator", i)
		}
		configs[i] = resolver.SourceConfig{Locator: s.Locator, ChannelAxis: s.ChannelAxis, Label: s.Label}
		if s.ModelMatrix != "" {
			m, err := affine.Parse(s.ModelMatrix)
			if err != nil {
				return nil, nil, fmt.Errorf("source %d: invalid model matrix: %w", i, err)
			}
			configs[i].ModelMatrix = &m
		}
		labels[i] = s.Label
	}
	return configs, labels, nil
}
