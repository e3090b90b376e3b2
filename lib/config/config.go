// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvironmentVariable names the config file when --config is absent.
const EnvironmentVariable = "NETBRIDGE_CONFIG"

// Log formats.
const (
	// FormatAuto picks text on a terminal and JSON otherwise.
	FormatAuto = "auto"
	FormatJSON = "json"
	FormatText = "text"
)

// Config is the netbridge daemon configuration.
type Config struct {
	// HTTP configures the HTTP front end.
	HTTP HTTPConfig `yaml:"http"`

	// Socket configures the local control socket.
	Socket SocketConfig `yaml:"socket"`

	// Scan bounds the wait for a Wi-Fi scan.
	Scan ScanConfig `yaml:"scan"`

	// Log configures the daemon's structured log.
	Log LogConfig `yaml:"log"`
}

// HTTPConfig configures the HTTP listener.
type HTTPConfig struct {
	// ListenAddress is the TCP address to bind.
	// Default: 0.0.0.0:3000
	ListenAddress string `yaml:"listen_address"`

	// ShutdownTimeout bounds the wait for in-flight requests on
	// shutdown.
	// Default: 10s
	ShutdownTimeout string `yaml:"shutdown_timeout"`
}

// SocketConfig configures the CBOR control socket.
type SocketConfig struct {
	// Path is the Unix socket path. Empty disables the socket.
	// Default: /run/netbridge/netbridge.sock
	Path string `yaml:"path"`
}

// ScanConfig bounds the Wi-Fi scan poll.
type ScanConfig struct {
	// Interval is the delay before each completion check.
	// Default: 1s
	Interval string `yaml:"interval"`

	// Attempts is the number of completion checks.
	// Default: 45
	Attempts int `yaml:"attempts"`

	// FailOnTimeout makes an unfinished scan an error instead of
	// returning the access points already known.
	// Default: false
	FailOnTimeout bool `yaml:"fail_on_timeout"`
}

// LogConfig configures logging.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	// Default: info
	Level string `yaml:"level"`

	// Format is one of auto, json, text.
	// Default: auto
	Format string `yaml:"format"`
}

// Default returns the configuration used when no file is given, and
// the base that a file is merged into.
func Default() *Config {
	return &Config{
		HTTP: HTTPConfig{
			ListenAddress:   "0.0.0.0:3000",
			ShutdownTimeout: "10s",
		},
		Socket: SocketConfig{
			Path: "/run/netbridge/netbridge.sock",
		},
		Scan: ScanConfig{
			Interval: "1s",
			Attempts: 45,
		},
		Log: LogConfig{
			Level:  "info",
			Format: FormatAuto,
		},
	}
}

// Load loads the file named by NETBRIDGE_CONFIG, or returns Default
// when the variable is unset.
func Load() (*Config, error) {
	configPath := os.Getenv(EnvironmentVariable)
	if configPath == "" {
		return Default(), nil
	}
	return LoadFile(configPath)
}

// LoadFile loads configuration from path over the defaults. Unknown
// keys are rejected.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	cfg := Default()
	if err := cfg.decode(data); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	cfg.expandVariables()
	return cfg, nil
}

// decode merges YAML data into c. An empty document leaves c as is.
func (c *Config) decode(data []byte) error {
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// expandVariables expands ${VAR} and ${VAR:-default} patterns in
// paths.
func (c *Config) expandVariables() {
	vars := map[string]string{
		"HOME":            os.Getenv("HOME"),
		"XDG_RUNTIME_DIR": os.Getenv("XDG_RUNTIME_DIR"),
	}
	c.Socket.Path = expandVars(c.Socket.Path, vars)
}

// varPattern matches ${VAR} and ${VAR:-default}.
var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

func expandVars(s string, vars map[string]string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}

		name := parts[1]
		defaultValue := ""
		if len(parts) >= 3 {
			defaultValue = parts[2]
		}

		// Check provided vars first, then environment.
		if value, ok := vars[name]; ok && value != "" {
			return value
		}
		if value := os.Getenv(name); value != "" {
			return value
		}
		return defaultValue
	})
}

// Validate checks the configuration for errors. Every problem found is
// reported.
func (c *Config) Validate() error {
	var errs []error

	if c.HTTP.ListenAddress == "" {
		errs = append(errs, fmt.Errorf("http.listen_address is required"))
	}
	if _, err := positiveDuration(c.HTTP.ShutdownTimeout); err != nil {
		errs = append(errs, fmt.Errorf("http.shutdown_timeout: %w", err))
	}
	if _, err := positiveDuration(c.Scan.Interval); err != nil {
		errs = append(errs, fmt.Errorf("scan.interval: %w", err))
	}
	if c.Scan.Attempts <= 0 {
		errs = append(errs, fmt.Errorf("scan.attempts must be positive, got %d", c.Scan.Attempts))
	}
	if _, err := parseLevel(c.Log.Level); err != nil {
		errs = append(errs, fmt.Errorf("log.level: %w", err))
	}
	formats := []string{FormatAuto, FormatJSON, FormatText}
	if !contains(formats, c.Log.Format) {
		errs = append(errs, fmt.Errorf("log.format must be one of: %v", formats))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// ShutdownTimeout returns http.shutdown_timeout. Call after Validate.
func (c *Config) ShutdownTimeout() time.Duration {
	d, _ := positiveDuration(c.HTTP.ShutdownTimeout)
	return d
}

// ScanInterval returns scan.interval. Call after Validate.
func (c *Config) ScanInterval() time.Duration {
	d, _ := positiveDuration(c.Scan.Interval)
	return d
}

// ScanBudget returns the longest a Wi-Fi scan waits for completion:
// scan.interval times scan.attempts. Call after Validate.
func (c *Config) ScanBudget() time.Duration {
	return c.ScanInterval() * time.Duration(c.Scan.Attempts)
}

// LogLevel returns log.level. Call after Validate.
func (c *Config) LogLevel() slog.Level {
	level, _ := parseLevel(c.Log.Level)
	return level
}

func positiveDuration(value string) (time.Duration, error) {
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return 0, fmt.Errorf("must be positive, got %s", value)
	}
	return d, nil
}

func parseLevel(value string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(value)); err != nil {
		return 0, err
	}
	return level, nil
}

func contains(slice []string, s string) bool {
	for _, v := range slice {
		if v == s {
			return true
		}
	}
	return false
}
