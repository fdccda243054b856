package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/platinummonkey/slnreload/pkg/observability"
	"github.com/platinummonkey/slnreload/pkg/projectpath"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestGetEnv tests the getEnv helper function
func TestGetEnv(t *testing.T) {
	tests := []struct {
		name         string
		key          string
		defaultValue string
		envValue     string
		want         string
	}{
		{
			name:         "returns env value when set",
			key:          "SLNRELOAD_TEST_VAR",
			defaultValue: "default",
			envValue:     "custom",
			want:         "custom",
		},
		{
			name:         "returns default when env not set",
			key:          "SLNRELOAD_TEST_VAR_NOT_SET",
			defaultValue: "default",
			envValue:     "",
			want:         "default",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.envValue != "" {
				t.Setenv(tt.key, tt.envValue)
			}

			got := getEnv(tt.key, tt.defaultValue)
			if got != tt.want {
				t.Errorf("getEnv() = %v, want %v", got, tt.want)
			}
		})
	}
}

// TestGetEnvBool tests the getEnvBool helper function
func TestGetEnvBool(t *testing.T) {
	tests := []struct {
		name         string
		envValue     string
		defaultValue bool
		want         bool
	}{
		{name: "true", envValue: "true", defaultValue: false, want: true},
		{name: "TRUE", envValue: "TRUE", defaultValue: false, want: true},
		{name: "one", envValue: "1", defaultValue: false, want: true},
		{name: "false", envValue: "false", defaultValue: true, want: false},
		{name: "garbage", envValue: "yes please", defaultValue: true, want: false},
		{name: "unset", envValue: "", defaultValue: true, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.envValue != "" {
				t.Setenv("SLNRELOAD_TEST_BOOL", tt.envValue)
			}
			if got := getEnvBool("SLNRELOAD_TEST_BOOL", tt.defaultValue); got != tt.want {
				t.Errorf("getEnvBool() = %v, want %v", got, tt.want)
			}
		})
	}
}

// TestGetEnvInt tests the getEnvInt helper function
func TestGetEnvInt(t *testing.T) {
	t.Setenv("SLNRELOAD_TEST_INT", "42")
	assert.Equal(t, 42, getEnvInt("SLNRELOAD_TEST_INT", 7))

	t.Setenv("SLNRELOAD_TEST_INT", "forty-two")
	assert.Equal(t, 7, getEnvInt("SLNRELOAD_TEST_INT", 7))
}

// TestGetEnvDuration tests the getEnvDuration helper function
func TestGetEnvDuration(t *testing.T) {
	t.Setenv("SLNRELOAD_TEST_DURATION", "250ms")
	assert.Equal(t, 250*time.Millisecond, getEnvDuration("SLNRELOAD_TEST_DURATION", time.Second))

	t.Setenv("SLNRELOAD_TEST_DURATION", "soon")
	assert.Equal(t, time.Second, getEnvDuration("SLNRELOAD_TEST_DURATION", time.Second))
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "empty.yaml"))
	require.Error(t, err, "an explicit missing file should fail")
	assert.Nil(t, cfg)

	path := filepath.Join(t.TempDir(), "empty.yaml")
	require.NoError(t, os.WriteFile(path, []byte("{}\n"), 0644))

	cfg, err = Load(path)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".slnreload.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
solution: App.sln
filter: App.slnf
resolver:
  max_projects: 50
  timeout: 5s
  case_sensitivity: insensitive
  properties:
    Configuration: Release
watch:
  delay: 2s
server:
  addr: "127.0.0.1:9000"
observability:
  log_level: debug
  log_format: json
  metrics_enabled: false
`), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "App.sln", cfg.Solution)
	assert.Equal(t, "App.slnf", cfg.Filter)
	assert.Equal(t, 50, cfg.Resolver.MaxProjects)
	assert.Equal(t, 5*time.Second, cfg.Resolver.Timeout)
	assert.Equal(t, map[string]string{"Configuration": "Release"}, cfg.Resolver.Properties)
	assert.Equal(t, 2*time.Second, cfg.Watch.Delay)
	assert.Equal(t, "127.0.0.1:9000", cfg.Server.Addr)
	assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout, "unset keys keep their defaults")
	assert.False(t, cfg.Observability.MetricsEnabled)

	assert.Equal(t, observability.DebugLevel, cfg.LogLevel())
	assert.Equal(t, observability.FormatJSON, cfg.LogFormat())
	assert.Equal(t, projectpath.Comparer{CaseInsensitive: true}, cfg.Comparer())
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".slnreload.yaml")
	require.NoError(t, os.WriteFile(path, []byte("solution: File.sln\nresolver:\n  max_projects: 50\n"), 0644))

	t.Setenv("SLNRELOAD_SOLUTION", "Env.sln")
	t.Setenv("SLNRELOAD_MAX_PROJECTS", "7")
	t.Setenv("SLNRELOAD_TIMEOUT", "3s")
	t.Setenv("SLNRELOAD_PROPERTIES", "Configuration=Debug; Platform = x64")
	t.Setenv("SLNRELOAD_LOG_LEVEL", "warn")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "Env.sln", cfg.Solution)
	assert.Equal(t, 7, cfg.Resolver.MaxProjects)
	assert.Equal(t, 3*time.Second, cfg.Resolver.Timeout)
	assert.Equal(t, map[string]string{"Configuration": "Debug", "Platform": "x64"}, cfg.Resolver.Properties)
	assert.Equal(t, observability.WarnLevel, cfg.LogLevel())
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("resolver: [not, a, map"), 0644))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse config")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "defaults", mutate: func(c *Config) {}},
		{name: "negative max projects", mutate: func(c *Config) { c.Resolver.MaxProjects = -1 }, wantErr: "max_projects"},
		{name: "negative timeout", mutate: func(c *Config) { c.Resolver.Timeout = -time.Second }, wantErr: "timeout"},
		{name: "negative cache size", mutate: func(c *Config) { c.Resolver.CacheSize = -1 }, wantErr: "cache_size"},
		{name: "bad case sensitivity", mutate: func(c *Config) { c.Resolver.CaseSensitivity = "maybe" }, wantErr: "case sensitivity"},
		{name: "zero watch delay", mutate: func(c *Config) { c.Watch.Delay = 0 }, wantErr: "watch delay"},
		{name: "no server address", mutate: func(c *Config) { c.Server.Addr = "" }, wantErr: "server address"},
		{name: "bad log level", mutate: func(c *Config) { c.Observability.LogLevel = "loud" }, wantErr: "log level"},
		{name: "bad log format", mutate: func(c *Config) { c.Observability.LogFormat = "xml" }, wantErr: "log format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestComparer(t *testing.T) {
	cfg := Default()
	assert.Equal(t, projectpath.DefaultComparer(), cfg.Comparer())

	cfg.Resolver.CaseSensitivity = "sensitive"
	assert.False(t, cfg.Comparer().CaseInsensitive)
}

func TestParseProperties(t *testing.T) {
	assert.Equal(t, map[string]string{
		"Configuration": "Release",
		"SolutionDir":   `C:\src\`,
		"Empty":         "",
	}, ParseProperties(`Configuration=Release;SolutionDir=C:\src\;Empty=;=orphan;novalue`))
}
