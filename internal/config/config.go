// Package config provides configuration types, defaults, and persistence for
// planmon.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/planmon/planmon/internal/client"
)

// Options are the engine-interpreted workflow flags. They are forwarded
// verbatim; planmon never acts on them itself.
type Options struct {
	Recon            bool `yaml:"recon" mapstructure:"recon"`
	Subdomains       bool `yaml:"subdomains" mapstructure:"subdomains"`
	Auth             bool `yaml:"auth" mapstructure:"auth"`
	APIs             bool `yaml:"apis" mapstructure:"apis"`
	Verbose          bool `yaml:"verbose" mapstructure:"verbose"`
	CaptureReasoning bool `yaml:"capture_reasoning" mapstructure:"capture_reasoning"`
	ShowThoughts     bool `yaml:"show_thoughts" mapstructure:"show_thoughts"`
	MaxInitialTests  int  `yaml:"max_initial_tests" mapstructure:"max_initial_tests"`
}

// Wire converts options to their wire form.
func (o Options) Wire() client.WorkflowOptions {
	return client.WorkflowOptions{
		IncludeRecon:       o.Recon,
		IncludeSubdomains:  o.Subdomains,
		TestAuthentication: o.Auth,
		TestAPIs:           o.APIs,
		VerboseLogging:     o.Verbose,
		CaptureAIReasoning: o.CaptureReasoning,
		ShowThoughtProcess: o.ShowThoughts,
		MaxInitialTests:    o.MaxInitialTests,
	}
}

// Config is the full planmon configuration.
type Config struct {
	Backend        string        `yaml:"backend" mapstructure:"backend"`
	WS             string        `yaml:"ws" mapstructure:"ws"`
	Scope          string        `yaml:"scope" mapstructure:"scope"`
	TestType       string        `yaml:"test_type" mapstructure:"test_type"`
	OutputDir      string        `yaml:"output_dir" mapstructure:"output_dir"`
	PollInterval   time.Duration `yaml:"poll_interval" mapstructure:"poll_interval"`
	RequestTimeout time.Duration `yaml:"request_timeout" mapstructure:"request_timeout"`
	Options        Options       `yaml:"options" mapstructure:"options"`
}

// Defaults returns the baseline configuration.
func Defaults() Config {
	return Config{
		Backend:        "http://127.0.0.1:8001",
		WS:             "",
		Scope:          "/*",
		TestType:       "comprehensive",
		OutputDir:      ".",
		PollInterval:   time.Second,
		RequestTimeout: 10 * time.Second,
		Options: Options{
			Recon:            true,
			Subdomains:       true,
			Auth:             true,
			APIs:             true,
			Verbose:          true,
			CaptureReasoning: true,
			ShowThoughts:     true,
			MaxInitialTests:  5,
		},
	}
}

// Validate checks the fields the monitor cannot run without.
func (c Config) Validate() error {
	if c.Backend == "" {
		return fmt.Errorf("backend URL must not be empty")
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("poll_interval must be positive")
	}
	return nil
}

// WriteDefault writes the default config to path, creating parent
// directories as needed. Used on first run when no config file exists.
func WriteDefault(path string) error {
	data, err := yaml.Marshal(Defaults())
	if err != nil {
		return fmt.Errorf("marshaling default config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}
