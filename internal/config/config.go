// Package config provides configuration management for the load test CLI.
//
// Purpose:
//
//	Load configuration from multiple sources: environment variables, config files
//	(YAML/JSON), and command-line flags. Uses Viper for configuration management
//	with clear precedence: flags > environment variables > config file > defaults.
//
// Dependencies:
//   - github.com/spf13/viper: Configuration management
//   - internal/config/defaults: Default configuration values
//
// Configuration Sources:
//   - Environment variables: GROUPS_LOADTEST_* prefix (e.g., GROUPS_LOADTEST_TARGET_URL),
//     plus the plain names used by CI (TARGET_URL, DIRECTORY_API_URL, INITIAL_MEMBER_COUNT, ...)
//   - Config file: ~/.groups-loadtest/config.yaml, ./config.yaml, or explicit path via --config
//   - Command-line flags: Take precedence over all other sources
//
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix is the prefix for namespaced environment variables.
const EnvPrefix = "GROUPS_LOADTEST"

// Config holds all CLI configuration.
type Config struct {
	Target    TargetConfig
	Directory DirectoryConfig
	Members   MembersConfig
	Auth      AuthConfig
	LoadTest  LoadTestConfig
	HTTP      HTTPConfig
	Retry     RetryConfig
	Output    OutputConfig
	Metrics   MetricsConfig
	Telemetry TelemetryConfig
	Log       LogConfig

	// Config File Path (for discovery)
	ConfigFile string
}

// TargetConfig points at the group service under test.
type TargetConfig struct {
	URL        string
	HealthPath string
}

// DirectoryConfig controls paginated reads from the directory API.
type DirectoryConfig struct {
	URL       string
	Kind      string // users, groups
	PageSize  int
	PageDelay time.Duration
}

// MembersConfig controls how the member list is assembled.
type MembersConfig struct {
	Count          int
	DirectoryCount int
	IDPrefix       string
	File           string
}

// SyntheticCount is the number of members generated locally.
func (m MembersConfig) SyntheticCount() int {
	return m.Count - m.DirectoryCount
}

// AuthConfig holds the M2M client credentials.
type AuthConfig struct {
	TokenURL     string
	ClientID     string
	ClientSecret string
	Audience     string
	Scopes       []string
}

// LoadTestConfig holds chunking and timing settings.
type LoadTestConfig struct {
	ChunkSize      int
	ChunkBudget    time.Duration
	GroupPrefix    string
	OldID          string
	CleanupTimeout time.Duration
}

// HTTPConfig holds transport settings.
type HTTPConfig struct {
	Timeout            time.Duration
	HealthCheckTimeout time.Duration
}

// RetryConfig holds retry settings for idempotent reads.
type RetryConfig struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
}

// OutputConfig holds report settings.
type OutputConfig struct {
	Format    string // table, json
	ReportCSV string
	Quiet     bool
}

// MetricsConfig holds Prometheus settings.
type MetricsConfig struct {
	PushgatewayURL string
	Job            string
}

// TelemetryConfig holds OpenTelemetry settings.
type TelemetryConfig struct {
	Exporter     string
	OTLPEndpoint string
	Insecure     bool
	SampleRatio  float64
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level       string
	Environment string
}

// Load loads configuration from all sources with proper precedence.
// configFile may be empty, in which case the default locations are searched.
func Load(configFile string) (*Config, error) {
	return LoadWithFlags(configFile, nil)
}

// LoadWithFlags loads configuration and applies flag overrides. Override keys
// are configuration keys (e.g. "target.url"); callers pass only flags the user
// actually set so defaults do not mask lower-precedence sources.
func LoadWithFlags(configFile string, flagOverrides map[string]interface{}) (*Config, error) {
	v := viper.New()

	// Set defaults
	ApplyDefaults(v)

	// Set environment variable prefix
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	for key, env := range envBindings {
		if err := v.BindEnv(key, EnvPrefix+"_"+envName(key), env); err != nil {
			return nil, fmt.Errorf("bind env %s: %w", env, err)
		}
	}

	// Config file discovery
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		homeDir, err := os.UserHomeDir()
		if err == nil {
			v.AddConfigPath(filepath.Join(homeDir, ".groups-loadtest"))
		}
		v.AddConfigPath(".") // Current directory
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	// Read config file (optional - ignore if not found)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	for key, value := range flagOverrides {
		if value == nil {
			continue
		}
		v.Set(key, value)
	}

	cfg := &Config{
		Target: TargetConfig{
			URL:        strings.TrimRight(v.GetString("target.url"), "/"),
			HealthPath: v.GetString("target.health-path"),
		},
		Directory: DirectoryConfig{
			URL:       strings.TrimRight(v.GetString("directory.url"), "/"),
			Kind:      v.GetString("directory.kind"),
			PageSize:  v.GetInt("directory.page-size"),
			PageDelay: v.GetDuration("directory.page-delay"),
		},
		Members: MembersConfig{
			Count:          v.GetInt("members.count"),
			DirectoryCount: v.GetInt("members.directory-count"),
			IDPrefix:       v.GetString("members.id-prefix"),
			File:           v.GetString("members.file"),
		},
		Auth: AuthConfig{
			TokenURL:     v.GetString("auth.token-url"),
			ClientID:     v.GetString("auth.client-id"),
			ClientSecret: v.GetString("auth.client-secret"),
			Audience:     v.GetString("auth.audience"),
			Scopes:       v.GetStringSlice("auth.scopes"),
		},
		LoadTest: LoadTestConfig{
			ChunkSize:      v.GetInt("loadtest.chunk-size"),
			ChunkBudget:    v.GetDuration("loadtest.chunk-budget"),
			GroupPrefix:    v.GetString("loadtest.group-prefix"),
			OldID:          v.GetString("loadtest.old-id"),
			CleanupTimeout: v.GetDuration("loadtest.cleanup-timeout"),
		},
		HTTP: HTTPConfig{
			Timeout:            v.GetDuration("http.timeout"),
			HealthCheckTimeout: v.GetDuration("timeouts.health-check"),
		},
		Retry: RetryConfig{
			MaxAttempts:  v.GetInt("retry.max-attempts"),
			InitialDelay: v.GetDuration("retry.initial-delay"),
			MaxDelay:     v.GetDuration("retry.max-delay"),
		},
		Output: OutputConfig{
			Format:    v.GetString("output.format"),
			ReportCSV: v.GetString("output.report-csv"),
			Quiet:     v.GetBool("output.quiet"),
		},
		Metrics: MetricsConfig{
			PushgatewayURL: v.GetString("metrics.pushgateway-url"),
			Job:            v.GetString("metrics.job"),
		},
		Telemetry: TelemetryConfig{
			Exporter:     v.GetString("telemetry.exporter"),
			OTLPEndpoint: v.GetString("telemetry.otlp-endpoint"),
			Insecure:     v.GetBool("telemetry.insecure"),
			SampleRatio:  v.GetFloat64("telemetry.sample-ratio"),
		},
		Log: LogConfig{
			Level:       v.GetString("log.level"),
			Environment: v.GetString("log.environment"),
		},
		ConfigFile: v.ConfigFileUsed(),
	}

	return cfg, nil
}

// Validate checks the settings every command relies on.
func (c *Config) Validate() error {
	if err := validateURL("target.url", c.Target.URL); err != nil {
		return err
	}
	if c.LoadTest.ChunkSize < 1 || c.LoadTest.ChunkSize > MaxChunkSize {
		return fmt.Errorf("loadtest.chunk-size must be between 1 and %d, got %d", MaxChunkSize, c.LoadTest.ChunkSize)
	}
	if c.LoadTest.ChunkBudget <= 0 {
		return fmt.Errorf("loadtest.chunk-budget must be positive, got %s", c.LoadTest.ChunkBudget)
	}
	// A transport timeout at or under the budget would end slow chunks before
	// the budget check could see them.
	if c.HTTP.Timeout < 0 || (c.HTTP.Timeout > 0 && c.HTTP.Timeout <= c.LoadTest.ChunkBudget) {
		return fmt.Errorf("http.timeout must be 0 or longer than loadtest.chunk-budget (%s), got %s", c.LoadTest.ChunkBudget, c.HTTP.Timeout)
	}
	switch c.Output.Format {
	case "table", "json":
	default:
		return fmt.Errorf("output.format must be table or json, got %q", c.Output.Format)
	}
	return nil
}

// ValidateRun checks the additional settings a full load test run needs.
func (c *Config) ValidateRun() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.Auth.TokenURL == "" || c.Auth.ClientID == "" || c.Auth.ClientSecret == "" {
		return fmt.Errorf("auth.token-url, auth.client-id and auth.client-secret are required")
	}
	if c.Members.File != "" {
		return nil
	}
	if c.Members.Count < 1 {
		return fmt.Errorf("members.count must be at least 1, got %d", c.Members.Count)
	}
	if c.Members.DirectoryCount < 0 || c.Members.DirectoryCount > c.Members.Count {
		return fmt.Errorf("members.directory-count must be between 0 and members.count (%d), got %d", c.Members.Count, c.Members.DirectoryCount)
	}
	if c.Members.DirectoryCount > 0 {
		return c.ValidateDirectory()
	}
	return nil
}

// ValidateDirectory checks the directory reader settings.
func (c *Config) ValidateDirectory() error {
	if err := validateURL("directory.url", c.Directory.URL); err != nil {
		return err
	}
	if c.Directory.Kind != "users" && c.Directory.Kind != "groups" {
		return fmt.Errorf("directory.kind must be users or groups, got %q", c.Directory.Kind)
	}
	if c.Directory.PageSize < 1 || c.Directory.PageSize > MaxChunkSize {
		return fmt.Errorf("directory.page-size must be between 1 and %d, got %d", MaxChunkSize, c.Directory.PageSize)
	}
	if c.Directory.PageDelay < 0 {
		return fmt.Errorf("directory.page-delay must not be negative, got %s", c.Directory.PageDelay)
	}
	return nil
}

func validateURL(key, raw string) error {
	if raw == "" {
		return fmt.Errorf("%s is required", key)
	}
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%s must be an absolute URL, got %q", key, raw)
	}
	return nil
}

func envName(key string) string {
	return strings.ToUpper(strings.NewReplacer("-", "_", ".", "_").Replace(key))
}
