package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Color modes accepted by the color setting.
const (
	ColorAuto   = "auto"
	ColorAlways = "always"
	ColorNever  = "never"
)

// Input encodings accepted by the input_encoding setting.
const (
	EncodingUTF8   = "utf8"
	EncodingLatin1 = "latin1"
)

// Environment variables read by optsel.
const (
	EnvConfig = "OPTSEL_CONFIG"
	EnvDebug  = "OPTSEL_DEBUG"
)

// ErrExists is returned by Init when a config file is already present.
var ErrExists = errors.New("config file already exists")

// Config holds the user settings for optsel
type Config struct {
	Prompt          string `yaml:"prompt"`
	NoMatchMessage  string `yaml:"no_match_message"`
	Color           string `yaml:"color"`
	InputEncoding   string `yaml:"input_encoding"`
	EscapeTimeoutMs int    `yaml:"escape_timeout_ms"`
	Truncate        bool   `yaml:"truncate"`
	LogLevel        string `yaml:"log_level"`
	LogFile         string `yaml:"log_file,omitempty"`

	path string
}

// Default returns the settings used when no config file exists.
func Default() *Config {
	return &Config{
		Prompt:          "(type to filter or use arrows ↑/↓): ",
		NoMatchMessage:  "No options match your filter",
		Color:           ColorAuto,
		InputEncoding:   EncodingUTF8,
		EscapeTimeoutMs: 100,
		Truncate:        true,
		LogLevel:        "info",
	}
}

// GetConfigDir returns the path to the config directory
func GetConfigDir() (string, error) {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "optsel"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".config", "optsel"), nil
}

// GetConfigPath returns the path to the config file
func GetConfigPath() (string, error) {
	if path := os.Getenv(EnvConfig); path != "" {
		return path, nil
	}
	dir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// GetCacheDir returns the directory used for the debug log.
func GetCacheDir() (string, error) {
	if dir := os.Getenv("XDG_CACHE_HOME"); dir != "" {
		return filepath.Join(dir, "optsel"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".cache", "optsel"), nil
}

// Load reads the config from its default location
func Load() (*Config, error) {
	configPath, err := GetConfigPath()
	if err != nil {
		return nil, err
	}
	return LoadFromFile(configPath)
}

// LoadFromFile reads the config at path. A missing file yields the defaults.
func LoadFromFile(path string) (*Config, error) {
	cfg := Default()
	cfg.path = path

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}

	return cfg, nil
}

// Path returns the file the config was loaded from or will be saved to.
func (c *Config) Path() string {
	return c.path
}

// Save writes the config to disk
func (c *Config) Save() error {
	if c.path == "" {
		path, err := GetConfigPath()
		if err != nil {
			return err
		}
		c.path = path
	}

	dir := filepath.Dir(c.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := c.Marshal()
	if err != nil {
		return err
	}

	if err := os.WriteFile(c.path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// Init writes the default config to path, refusing to overwrite an existing file.
func Init(path string) (*Config, error) {
	if _, err := os.Stat(path); err == nil {
		return nil, fmt.Errorf("%s: %w", path, ErrExists)
	}
	cfg := Default()
	cfg.path = path
	if err := cfg.Save(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Marshal renders the config as YAML.
func (c *Config) Marshal() ([]byte, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config: %w", err)
	}
	return data, nil
}

// EscapeTimeout returns escape_timeout_ms as a duration.
func (c *Config) EscapeTimeout() time.Duration {
	return time.Duration(c.EscapeTimeoutMs) * time.Millisecond
}

// ApplyEnvOverrides forces debug logging when OPTSEL_DEBUG is true. Without
// an explicit log_file the log goes to optsel.log in the cache directory.
func (c *Config) ApplyEnvOverrides() {
	v := os.Getenv(EnvDebug)
	if v == "" {
		return
	}
	if b, err := strconv.ParseBool(v); err != nil || !b {
		return
	}
	c.LogLevel = "debug"
	if c.LogFile == "" {
		if dir, err := GetCacheDir(); err == nil {
			c.LogFile = filepath.Join(dir, "optsel.log")
		}
	}
}

// Validate checks enum values and numeric ranges.
func (c *Config) Validate() error {
	switch c.Color {
	case ColorAuto, ColorAlways, ColorNever:
	default:
		return fmt.Errorf("color must be auto, always, or never, got %q", c.Color)
	}

	switch c.InputEncoding {
	case EncodingUTF8, EncodingLatin1:
	default:
		return fmt.Errorf("input_encoding must be utf8 or latin1, got %q", c.InputEncoding)
	}

	if c.EscapeTimeoutMs < 0 {
		return fmt.Errorf("escape_timeout_ms must be >= 0")
	}

	if !IsValidLogLevel(c.LogLevel) {
		return fmt.Errorf("log_level must be debug, info, warn, or error, got %q", c.LogLevel)
	}

	return nil
}

// IsValidLogLevel reports whether level is one of debug, info, warn or error.
func IsValidLogLevel(level string) bool {
	switch level {
	case "debug", "info", "warn", "error":
		return true
	}
	return false
}
