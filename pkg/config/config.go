package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/platinummonkey/slnreload/pkg/msbuild"
	"github.com/platinummonkey/slnreload/pkg/observability"
	"github.com/platinummonkey/slnreload/pkg/projectpath"
	"gopkg.in/yaml.v3"
)

// DefaultFile is read from the working directory when no file is given
const DefaultFile = ".slnreload.yaml"

// Config holds all application configuration
type Config struct {
	// Solution is the .sln or .slnx file projects belong to
	Solution string `yaml:"solution"`

	// Filter is the .slnf file that records which projects are loaded
	Filter string `yaml:"filter"`

	Resolver      ResolverConfig      `yaml:"resolver"`
	Watch         WatchConfig         `yaml:"watch"`
	Server        ServerConfig        `yaml:"server"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// ResolverConfig bounds closure resolution
type ResolverConfig struct {
	MaxProjects int           `yaml:"max_projects"`
	Timeout     time.Duration `yaml:"timeout"`
	CacheSize   int           `yaml:"cache_size"`

	// CaseSensitivity is "auto", "sensitive" or "insensitive"
	CaseSensitivity string `yaml:"case_sensitivity"`

	// Properties are global MSBuild properties, such as Configuration
	Properties map[string]string `yaml:"properties"`
}

// WatchConfig configures the watch command
type WatchConfig struct {
	Delay time.Duration `yaml:"delay"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// ObservabilityConfig holds observability settings
type ObservabilityConfig struct {
	LogLevel       string `yaml:"log_level"`
	LogFormat      string `yaml:"log_format"`
	MetricsEnabled bool   `yaml:"metrics_enabled"`
}

// Default returns the configuration used when nothing is set
func Default() *Config {
	return &Config{
		Resolver: ResolverConfig{
			MaxProjects:     10000,
			Timeout:         60 * time.Second,
			CacheSize:       msbuild.DefaultCacheSize,
			CaseSensitivity: "auto",
			Properties:      make(map[string]string),
		},
		Watch: WatchConfig{
			Delay: 500 * time.Millisecond,
		},
		Server: ServerConfig{
			Addr:            ":8080",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 30 * time.Second,
		},
		Observability: ObservabilityConfig{
			LogLevel:       "info",
			LogFormat:      "text",
			MetricsEnabled: true,
		},
	}
}

// Load builds the configuration from defaults, then the YAML file at path,
// then SLNRELOAD_* environment variables. An empty path reads DefaultFile
// if it exists.
func Load(path string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultFile
	}
	if err := cfg.loadFile(path); err != nil {
		if explicit || !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
	}

	cfg.loadEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return nil
}

// loadEnv applies environment overrides
func (c *Config) loadEnv() {
	c.Solution = getEnv("SLNRELOAD_SOLUTION", c.Solution)
	c.Filter = getEnv("SLNRELOAD_FILTER", c.Filter)

	c.Resolver.MaxProjects = getEnvInt("SLNRELOAD_MAX_PROJECTS", c.Resolver.MaxProjects)
	c.Resolver.Timeout = getEnvDuration("SLNRELOAD_TIMEOUT", c.Resolver.Timeout)
	c.Resolver.CacheSize = getEnvInt("SLNRELOAD_CACHE_SIZE", c.Resolver.CacheSize)
	c.Resolver.CaseSensitivity = getEnv("SLNRELOAD_CASE_SENSITIVITY", c.Resolver.CaseSensitivity)
	if props := getEnv("SLNRELOAD_PROPERTIES", ""); props != "" {
		if c.Resolver.Properties == nil {
			c.Resolver.Properties = make(map[string]string)
		}
		for k, v := range ParseProperties(props) {
			c.Resolver.Properties[k] = v
		}
	}

	c.Watch.Delay = getEnvDuration("SLNRELOAD_WATCH_DELAY", c.Watch.Delay)

	c.Server.Addr = getEnv("SLNRELOAD_ADDR", c.Server.Addr)
	c.Server.ReadTimeout = getEnvDuration("SLNRELOAD_READ_TIMEOUT", c.Server.ReadTimeout)
	c.Server.WriteTimeout = getEnvDuration("SLNRELOAD_WRITE_TIMEOUT", c.Server.WriteTimeout)
	c.Server.IdleTimeout = getEnvDuration("SLNRELOAD_IDLE_TIMEOUT", c.Server.IdleTimeout)
	c.Server.ShutdownTimeout = getEnvDuration("SLNRELOAD_SHUTDOWN_TIMEOUT", c.Server.ShutdownTimeout)

	c.Observability.LogLevel = getEnv("SLNRELOAD_LOG_LEVEL", c.Observability.LogLevel)
	c.Observability.LogFormat = getEnv("SLNRELOAD_LOG_FORMAT", c.Observability.LogFormat)
	c.Observability.MetricsEnabled = getEnvBool("SLNRELOAD_METRICS_ENABLED", c.Observability.MetricsEnabled)
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Resolver.MaxProjects < 0 {
		return fmt.Errorf("resolver max_projects must not be negative")
	}
	if c.Resolver.Timeout < 0 {
		return fmt.Errorf("resolver timeout must not be negative")
	}
	if c.Resolver.CacheSize < 0 {
		return fmt.Errorf("resolver cache_size must not be negative")
	}
	switch c.Resolver.CaseSensitivity {
	case "", "auto", "sensitive", "insensitive":
	default:
		return fmt.Errorf("invalid case sensitivity: %s (must be auto, sensitive, or insensitive)", c.Resolver.CaseSensitivity)
	}

	if c.Watch.Delay <= 0 {
		return fmt.Errorf("watch delay must be positive")
	}

	if c.Server.Addr == "" {
		return fmt.Errorf("server address is required")
	}

	switch strings.ToLower(c.Observability.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Observability.LogLevel)
	}
	switch strings.ToLower(c.Observability.LogFormat) {
	case "text", "json":
	default:
		return fmt.Errorf("invalid log format: %s (must be text or json)", c.Observability.LogFormat)
	}

	return nil
}

// Comparer returns the path identity for the configured case sensitivity
func (c *Config) Comparer() projectpath.Comparer {
	switch c.Resolver.CaseSensitivity {
	case "sensitive":
		return projectpath.Comparer{CaseInsensitive: false}
	case "insensitive":
		return projectpath.Comparer{CaseInsensitive: true}
	default:
		return projectpath.DefaultComparer()
	}
}

// LogLevel returns the parsed log level
func (c *Config) LogLevel() observability.LogLevel {
	return observability.ParseLogLevel(c.Observability.LogLevel)
}

// LogFormat returns the parsed log format
func (c *Config) LogFormat() observability.LogFormat {
	if strings.EqualFold(c.Observability.LogFormat, "json") {
		return observability.FormatJSON
	}
	return observability.FormatText
}

// ParseProperties parses "Name=Value;Other=Value" property lists, the form
// MSBuild accepts on its command line
func ParseProperties(s string) map[string]string {
	props := make(map[string]string)
	for _, pair := range strings.Split(s, ";") {
		name, value, ok := strings.Cut(pair, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			continue
		}
		props[name] = strings.TrimSpace(value)
	}
	return props
}

// getEnv returns an environment variable value or a default
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool returns a boolean environment variable or a default
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return strings.ToLower(value) == "true" || value == "1"
	}
	return defaultValue
}

// getEnvInt returns an integer environment variable or a default
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvDuration returns a duration environment variable or a default
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
