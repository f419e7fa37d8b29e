// Package config provides tests for configuration management.
package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyDefaults(t *testing.T) {
	v := viper.New()
	ApplyDefaults(v)

	assert.Equal(t, "http://localhost:8080", v.GetString("target.url"))
	assert.Equal(t, 100, v.GetInt("loadtest.chunk-size"))
	assert.Equal(t, 30*time.Second, v.GetDuration("loadtest.chunk-budget"))
	assert.Equal(t, 1*time.Second, v.GetDuration("directory.page-delay"))
	assert.Equal(t, "table", v.GetString("output.format"))
}

func TestLoad(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, "http://localhost:8080", cfg.Target.URL)
	assert.Equal(t, 1000, cfg.Members.Count)
	assert.Equal(t, 1000, cfg.Members.SyntheticCount())
	assert.Equal(t, "users", cfg.Directory.Kind)
}

func TestLoadPlainEnvironmentVariables(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("TARGET_URL", "http://groups.internal:9000/")
	t.Setenv("DIRECTORY_API_URL", "https://directory.internal/api/v2")
	t.Setenv("INITIAL_MEMBER_COUNT", "2500")
	t.Setenv("DIRECTORY_MEMBER_COUNT", "300")
	t.Setenv("CHUNK_BUDGET", "45s")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "http://groups.internal:9000", cfg.Target.URL, "trailing slash should be trimmed")
	assert.Equal(t, "https://directory.internal/api/v2", cfg.Directory.URL)
	assert.Equal(t, 2500, cfg.Members.Count)
	assert.Equal(t, 300, cfg.Members.DirectoryCount)
	assert.Equal(t, 2200, cfg.Members.SyntheticCount())
	assert.Equal(t, 45*time.Second, cfg.LoadTest.ChunkBudget)
}

func TestLoadOldIDAndTelemetry(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("GROUP_OLD_ID", "legacy-42")
	t.Setenv("TRACING_EXPORTER", "stdout")
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "otel-collector:4317")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "legacy-42", cfg.LoadTest.OldID)
	assert.Equal(t, "stdout", cfg.Telemetry.Exporter)
	assert.Equal(t, "otel-collector:4317", cfg.Telemetry.OTLPEndpoint)
	assert.Equal(t, 1.0, cfg.Telemetry.SampleRatio)
}

func TestLoadPrefixedEnvironmentVariables(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("GROUPS_LOADTEST_LOADTEST_CHUNK_SIZE", "50")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 50, cfg.LoadTest.ChunkSize)
}

func TestLoadWithFlags(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("TARGET_URL", "http://from-env:8080")

	overrides := map[string]interface{}{
		"target.url":    "http://from-flag:8080",
		"output.format": "json",
		"members.file":  nil,
	}

	cfg, err := LoadWithFlags("", overrides)
	require.NoError(t, err)

	assert.Equal(t, "http://from-flag:8080", cfg.Target.URL)
	assert.Equal(t, "json", cfg.Output.Format)
	assert.Empty(t, cfg.Members.File)
}

func TestLoadWithConfigFile(t *testing.T) {
	tmpDir := t.TempDir()
	configFile := filepath.Join(tmpDir, "loadtest.yaml")
	configContent := `
target:
  url: http://config-file:8080
loadtest:
  chunk-size: 25
  chunk-budget: 10s
auth:
  scopes: ["groups:write", "users:read"]
`
	require.NoError(t, os.WriteFile(configFile, []byte(configContent), 0644))

	cfg, err := Load(configFile)
	require.NoError(t, err)

	assert.Equal(t, configFile, cfg.ConfigFile)
	assert.Equal(t, "http://config-file:8080", cfg.Target.URL)
	assert.Equal(t, 25, cfg.LoadTest.ChunkSize)
	assert.Equal(t, 10*time.Second, cfg.LoadTest.ChunkBudget)
	assert.Equal(t, []string{"groups:write", "users:read"}, cfg.Auth.Scopes)
}

func TestLoadMissingExplicitConfigFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func validRunConfig() *Config {
	return &Config{
		Target:    TargetConfig{URL: "http://localhost:8080", HealthPath: "/health"},
		Directory: DirectoryConfig{URL: "http://localhost:9090", Kind: "users", PageSize: 100, PageDelay: time.Second},
		Members:   MembersConfig{Count: 1000, DirectoryCount: 100, IDPrefix: "loadtest"},
		Auth:      AuthConfig{TokenURL: "http://localhost:7070/oauth/token", ClientID: "id", ClientSecret: "secret"},
		LoadTest:  LoadTestConfig{ChunkSize: 100, ChunkBudget: 30 * time.Second},
		Output:    OutputConfig{Format: "table"},
	}
}

func TestValidateRun(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"chunk too large", func(c *Config) { c.LoadTest.ChunkSize = 101 }, "chunk-size"},
		{"chunk zero", func(c *Config) { c.LoadTest.ChunkSize = 0 }, "chunk-size"},
		{"no budget", func(c *Config) { c.LoadTest.ChunkBudget = 0 }, "chunk-budget"},
		{"http timeout equals budget", func(c *Config) { c.HTTP.Timeout = 30 * time.Second }, "http.timeout"},
		{"http timeout under budget", func(c *Config) { c.HTTP.Timeout = 10 * time.Second }, "http.timeout"},
		{"http timeout over budget", func(c *Config) { c.HTTP.Timeout = 31 * time.Second }, ""},
		{"http timeout disabled", func(c *Config) { c.HTTP.Timeout = 0 }, ""},
		{"bad format", func(c *Config) { c.Output.Format = "xml" }, "output.format"},
		{"relative target", func(c *Config) { c.Target.URL = "groups" }, "target.url"},
		{"missing secret", func(c *Config) { c.Auth.ClientSecret = "" }, "client-secret"},
		{"no members", func(c *Config) { c.Members.Count = 0; c.Members.DirectoryCount = 0 }, "members.count"},
		{"directory over count", func(c *Config) { c.Members.DirectoryCount = 1001 }, "directory-count"},
		{"directory without url", func(c *Config) { c.Directory.URL = "" }, "directory.url"},
		{"page too large", func(c *Config) { c.Directory.PageSize = 500 }, "page-size"},
		{"bad kind", func(c *Config) { c.Directory.Kind = "roles" }, "directory.kind"},
		{"file skips member checks", func(c *Config) { c.Members.File = "members.yaml"; c.Members.Count = 0 }, ""},
		{"synthetic only needs no directory", func(c *Config) { c.Members.DirectoryCount = 0; c.Directory.URL = "" }, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validRunConfig()
			tt.mutate(cfg)
			err := cfg.ValidateRun()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
