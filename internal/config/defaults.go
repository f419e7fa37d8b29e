package config

import (
	"time"

	"github.com/spf13/viper"
)

// MaxChunkSize is the largest number of members the group service accepts in
// one bulk call. It also caps the directory page size.
const MaxChunkSize = 100

// ApplyDefaults sets default configuration values in the provided Viper instance.
func ApplyDefaults(v *viper.Viper) {
	// Target group service
	v.SetDefault("target.url", "http://localhost:8080")
	v.SetDefault("target.health-path", "/health")

	// Directory API (empty URL disables directory reads)
	v.SetDefault("directory.url", "")
	v.SetDefault("directory.kind", "users")
	v.SetDefault("directory.page-size", MaxChunkSize)
	v.SetDefault("directory.page-delay", 1*time.Second)

	// Members
	v.SetDefault("members.count", 1000)
	v.SetDefault("members.directory-count", 0)
	v.SetDefault("members.id-prefix", "loadtest")
	v.SetDefault("members.file", "")

	// M2M authentication
	v.SetDefault("auth.token-url", "")
	v.SetDefault("auth.client-id", "")
	v.SetDefault("auth.client-secret", "")
	v.SetDefault("auth.audience", "")
	v.SetDefault("auth.scopes", []string{})

	// Load test
	v.SetDefault("loadtest.chunk-size", MaxChunkSize)
	v.SetDefault("loadtest.chunk-budget", 30*time.Second)
	v.SetDefault("loadtest.group-prefix", "loadtest")
	v.SetDefault("loadtest.old-id", "") // generated per run when empty
	v.SetDefault("loadtest.cleanup-timeout", 30*time.Second)

	// HTTP and retry (retries only apply to idempotent reads)
	v.SetDefault("http.timeout", 60*time.Second)
	v.SetDefault("retry.max-attempts", 3)
	v.SetDefault("retry.initial-delay", 1*time.Second)
	v.SetDefault("retry.max-delay", 4*time.Second)

	// Timeouts
	v.SetDefault("timeouts.health-check", 5*time.Second)

	// Output
	v.SetDefault("output.format", "table") // table, json
	v.SetDefault("output.report-csv", "")
	v.SetDefault("output.quiet", false)

	// Observability
	v.SetDefault("metrics.pushgateway-url", "")
	v.SetDefault("metrics.job", "groups_loadtest")
	v.SetDefault("telemetry.exporter", "") // none, stdout, otlp; empty means otlp when an endpoint is set
	v.SetDefault("telemetry.otlp-endpoint", "")
	v.SetDefault("telemetry.insecure", true)
	v.SetDefault("telemetry.sample-ratio", 1.0)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.environment", "development")
}

// envBindings maps configuration keys to the plain environment variable names
// used by existing pipelines. Prefixed GROUPS_LOADTEST_* variables also work.
var envBindings = map[string]string{
	"target.url":               "TARGET_URL",
	"target.health-path":       "TARGET_HEALTH_PATH",
	"directory.url":            "DIRECTORY_API_URL",
	"directory.kind":           "DIRECTORY_KIND",
	"directory.page-size":      "DIRECTORY_PAGE_SIZE",
	"directory.page-delay":     "DIRECTORY_PAGE_DELAY",
	"members.count":            "INITIAL_MEMBER_COUNT",
	"members.directory-count":  "DIRECTORY_MEMBER_COUNT",
	"members.id-prefix":        "MEMBER_ID_PREFIX",
	"members.file":             "MEMBERS_FILE",
	"auth.token-url":           "AUTH_TOKEN_URL",
	"auth.client-id":           "AUTH_CLIENT_ID",
	"auth.client-secret":       "AUTH_CLIENT_SECRET",
	"auth.audience":            "AUTH_AUDIENCE",
	"loadtest.chunk-size":      "CHUNK_SIZE",
	"loadtest.chunk-budget":    "CHUNK_BUDGET",
	"loadtest.group-prefix":    "GROUP_NAME_PREFIX",
	"loadtest.old-id":          "GROUP_OLD_ID",
	"loadtest.cleanup-timeout": "CLEANUP_TIMEOUT",
	"http.timeout":             "HTTP_TIMEOUT",
	"retry.max-attempts":       "RETRY_MAX_ATTEMPTS",
	"output.format":            "OUTPUT_FORMAT",
	"output.report-csv":        "REPORT_CSV",
	"metrics.pushgateway-url":  "PUSHGATEWAY_URL",
	"telemetry.exporter":       "TRACING_EXPORTER",
	"telemetry.otlp-endpoint":  "OTEL_EXPORTER_OTLP_ENDPOINT",
	"log.level":                "LOG_LEVEL",
	"log.environment":          "ENVIRONMENT",
}
