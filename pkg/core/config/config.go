package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Environment variables read on top of the config file
const (
	EnvConfigPath  = "WTF_CONFIG"
	EnvSlackTokens = "SLACK_TOKENS"
	EnvDataURL     = "DATA_URL"
	EnvHost        = "WTF_HOST"
	EnvPort        = "WTF_PORT"
	EnvLogLevel    = "WTF_LOG_LEVEL"
)

var (
	// ErrNoTokens is returned by Validate when no caller tokens are configured
	ErrNoTokens = errors.New("no SLACK_TOKENS configured")
	// ErrNoDataURL is returned by Validate when the dataset location is missing
	ErrNoDataURL = errors.New("no DATA_URL configured")
)

// Config holds the complete application configuration
type Config struct {
	General GeneralConfig `toml:"general" yaml:"general"`
	Server  ServerConfig  `toml:"server" yaml:"server"`
	Slack   SlackConfig   `toml:"slack" yaml:"slack"`
	Source  SourceConfig  `toml:"source" yaml:"source"`
	Stats   StatsConfig   `toml:"stats" yaml:"stats"`

	// Path of the file the configuration was loaded from, empty for defaults
	Path string `toml:"-" yaml:"-"`
}

// GeneralConfig holds general application settings
type GeneralConfig struct {
	Name        string `toml:"name" yaml:"name"`
	Environment string `toml:"environment" yaml:"environment"`
	DataDir     string `toml:"data_dir" yaml:"data_dir"`
	LogLevel    string `toml:"log_level" yaml:"log_level"`
	LogFormat   string `toml:"log_format" yaml:"log_format"`
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Host            string   `toml:"host" yaml:"host"`
	Port            int      `toml:"port" yaml:"port"`
	ReadTimeout     Duration `toml:"read_timeout" yaml:"read_timeout"`
	WriteTimeout    Duration `toml:"write_timeout" yaml:"write_timeout"`
	ShutdownTimeout Duration `toml:"shutdown_timeout" yaml:"shutdown_timeout"`
}

// SlackConfig holds the tokens accepted from callers
type SlackConfig struct {
	Tokens []string `toml:"tokens" yaml:"tokens"`
}

// SourceConfig describes where the acronym dataset is fetched from
type SourceConfig struct {
	DataURL  string   `toml:"data_url" yaml:"data_url"`
	Timeout  Duration `toml:"timeout" yaml:"timeout"`
	MaxBytes int64    `toml:"max_bytes" yaml:"max_bytes"`
}

// StatsConfig controls the lookup statistics store
type StatsConfig struct {
	Enabled bool   `toml:"enabled" yaml:"enabled"`
	Path    string `toml:"path" yaml:"path"`
}

// Duration wraps time.Duration for TOML and YAML parsing
type Duration struct {
	time.Duration
}

// UnmarshalText parses a duration string
func (d *Duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// MarshalText formats the duration as a string
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// UnmarshalYAML parses a duration scalar
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	return d.UnmarshalText([]byte(value.Value))
}

// Default returns a configuration with all defaults applied
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// Load loads configuration from a TOML or YAML file
func Load(path string) (*Config, error) {
	// Expand environment variables in path
	path = os.ExpandEnv(path)

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("config file not found: %s", path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	default:
		if _, err := toml.Decode(string(data), &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}
	cfg.Path = path

	cfg.applyDefaults()
	cfg.expandEnvVars()

	return &cfg, nil
}

// LoadFromEnv loads the file named by WTF_CONFIG or the first default
// location found, then applies environment overrides. Without any file the
// defaults are used.
func LoadFromEnv() (*Config, error) {
	return LoadWithOverrides(os.Getenv(EnvConfigPath))
}

// LoadWithOverrides loads path, or the first default location when path is
// empty, and applies environment overrides on top.
func LoadWithOverrides(path string) (*Config, error) {
	if path == "" {
		path = findDefault()
	}

	cfg := Default()
	if path != "" {
		loaded, err := Load(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// findDefault returns the first existing default config path
func findDefault() string {
	defaultPaths := []string{
		"./configs/config.toml",
		"./configs/config.yaml",
		"./config.toml",
		"./config.yaml",
	}
	if home := os.Getenv("HOME"); home != "" {
		defaultPaths = append(defaultPaths, filepath.Join(home, ".config/wtf/config.toml"))
	}
	for _, p := range defaultPaths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// applyDefaults sets default values for missing configuration
func (c *Config) applyDefaults() {
	// General
	if c.General.Name == "" {
		c.General.Name = "wtf"
	}
	if c.General.Environment == "" {
		c.General.Environment = "development"
	}
	if c.General.DataDir == "" {
		c.General.DataDir = "./data"
	}
	if c.General.LogLevel == "" {
		c.General.LogLevel = "info"
	}
	if c.General.LogFormat == "" {
		c.General.LogFormat = "json"
	}

	// Server
	if c.Server.Host == "" {
		c.Server.Host = "0.0.0.0"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 5000
	}
	if c.Server.ReadTimeout.Duration == 0 {
		c.Server.ReadTimeout.Duration = 10 * time.Second
	}
	if c.Server.WriteTimeout.Duration == 0 {
		c.Server.WriteTimeout.Duration = 30 * time.Second
	}
	if c.Server.ShutdownTimeout.Duration == 0 {
		c.Server.ShutdownTimeout.Duration = 15 * time.Second
	}

	// Source
	if c.Source.Timeout.Duration == 0 {
		c.Source.Timeout.Duration = 10 * time.Second
	}
	if c.Source.MaxBytes == 0 {
		c.Source.MaxBytes = 16 << 20
	}

	// Stats
	if c.Stats.Path == "" {
		c.Stats.Path = filepath.Join(c.General.DataDir, "stats.db")
	}
}

// expandEnvVars expands environment variables in configuration values
func (c *Config) expandEnvVars() {
	c.General.DataDir = os.ExpandEnv(c.General.DataDir)
	c.Source.DataURL = os.ExpandEnv(c.Source.DataURL)
	c.Stats.Path = os.ExpandEnv(c.Stats.Path)
	for i, tok := range c.Slack.Tokens {
		c.Slack.Tokens[i] = os.ExpandEnv(tok)
	}
}

// applyEnv overrides file values with environment variables
func (c *Config) applyEnv() error {
	if tokens := os.Getenv(EnvSlackTokens); tokens != "" {
		c.Slack.Tokens = ParseTokens(tokens)
	}
	if dataURL := os.Getenv(EnvDataURL); dataURL != "" {
		c.Source.DataURL = dataURL
	}
	if host := os.Getenv(EnvHost); host != "" {
		c.Server.Host = host
	}
	if port := os.Getenv(EnvPort); port != "" {
		p, err := strconv.Atoi(port)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", EnvPort, port, err)
		}
		c.Server.Port = p
	}
	if level := os.Getenv(EnvLogLevel); level != "" {
		c.General.LogLevel = level
	}
	return nil
}

// ParseTokens splits a comma separated token list, trimming each token.
// Empty tokens are dropped so a blank request token never authenticates.
func ParseTokens(s string) []string {
	parts := strings.Split(s, ",")
	tokens := make([]string, 0, len(parts))
	for _, p := range parts {
		if tok := strings.TrimSpace(p); tok != "" {
			tokens = append(tokens, tok)
		}
	}
	return tokens
}

// Validate checks the settings required to serve requests
func (c *Config) Validate() error {
	if len(c.Slack.Tokens) == 0 {
		return ErrNoTokens
	}
	if c.Source.DataURL == "" {
		return ErrNoDataURL
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	return nil
}

// Address returns the host:port the server listens on
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
