// Package commands provides the Cobra commands of the load test CLI.
//
// Purpose:
//
//	Wire configuration, logging, authentication and the API clients together
//	for each command, render results, and translate failures into CLIErrors
//	with stable exit codes.
//
// Dependencies:
//   - github.com/spf13/cobra: command tree
//   - internal/config: Viper-backed configuration with flag overrides
//   - internal/loadtest: the run itself
//
package commands

import (
	"context"
	"io"
	"net/http"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"golang.org/x/oauth2"

	"github.com/otherjamesbrown/ai-aas/services/groups-loadtest/internal/client"
	"github.com/otherjamesbrown/ai-aas/services/groups-loadtest/internal/client/auth"
	"github.com/otherjamesbrown/ai-aas/services/groups-loadtest/internal/client/directory"
	"github.com/otherjamesbrown/ai-aas/services/groups-loadtest/internal/config"
	clierrors "github.com/otherjamesbrown/ai-aas/services/groups-loadtest/internal/errors"
	"github.com/otherjamesbrown/ai-aas/services/groups-loadtest/internal/logging"
)

// ServiceName identifies this tool in logs, traces and metrics.
const ServiceName = "groups-loadtest"

// flagKeys maps flag names to configuration keys. Only flags the user set are
// applied so they never mask environment variables or the config file.
var flagKeys = map[string]string{
	"target-url":       "target.url",
	"health-path":      "target.health-path",
	"directory-url":    "directory.url",
	"directory-kind":   "directory.kind",
	"page-size":        "directory.page-size",
	"page-delay":       "directory.page-delay",
	"count":            "members.count",
	"directory-count":  "members.directory-count",
	"id-prefix":        "members.id-prefix",
	"members-file":     "members.file",
	"token-url":        "auth.token-url",
	"client-id":        "auth.client-id",
	"client-secret":    "auth.client-secret",
	"audience":         "auth.audience",
	"scopes":           "auth.scopes",
	"chunk-size":       "loadtest.chunk-size",
	"chunk-budget":     "loadtest.chunk-budget",
	"group-prefix":     "loadtest.group-prefix",
	"old-id":           "loadtest.old-id",
	"cleanup-timeout":  "loadtest.cleanup-timeout",
	"http-timeout":     "http.timeout",
	"format":           "output.format",
	"report-csv":       "output.report-csv",
	"quiet":            "output.quiet",
	"pushgateway-url":  "metrics.pushgateway-url",
	"tracing-exporter": "telemetry.exporter",
	"otlp-endpoint":    "telemetry.otlp-endpoint",
	"log-level":        "log.level",
}

// NewRootCommand builds the command tree.
func NewRootCommand(version string) *cobra.Command {
	root := &cobra.Command{
		Use:   "groups-loadtest",
		Short: "Load test the group membership service",
		Long: `groups-loadtest creates a temporary group, bulk-adds synthetic and/or
directory members to it in chunks of at most 100 while timing every call
against a latency budget, and always deletes the group afterwards.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.String("config", "", "Config file (default ./config.yaml or ~/.groups-loadtest/config.yaml)")
	pf.String("target-url", "", "Group service base URL")
	pf.String("token-url", "", "OAuth2 token endpoint for M2M credentials")
	pf.String("client-id", "", "M2M client id")
	pf.String("client-secret", "", "M2M client secret")
	pf.String("audience", "", "Token audience")
	pf.StringSlice("scopes", nil, "Token scopes")
	pf.String("directory-url", "", "Directory API base URL")
	pf.Duration("http-timeout", 0, "Per-request HTTP timeout")
	pf.String("format", "", "Output format: table, json")
	pf.Bool("quiet", false, "Suppress progress and table output")
	pf.String("log-level", "", "Log level: debug, info, warn, error")

	root.AddCommand(
		RunCommand(),
		HealthCommand(),
		MembersCommand(),
		DeleteGroupCommand(),
	)
	return root
}

// flagOverrides collects the changed flags of fs as configuration overrides.
func flagOverrides(fs *pflag.FlagSet) map[string]interface{} {
	out := make(map[string]interface{})
	fs.Visit(func(f *pflag.Flag) {
		key, ok := flagKeys[f.Name]
		if !ok {
			return
		}
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			out[key] = sv.GetSlice()
			return
		}
		out[key] = f.Value.String()
	})
	return out
}

// env is what every command needs after configuration is loaded.
type env struct {
	cfg    *config.Config
	log    *logging.Logger
	stdout io.Writer
	stderr io.Writer
}

func newEnv(cmd *cobra.Command) (*env, error) {
	configFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadWithFlags(configFile, flagOverrides(cmd.Flags()))
	if err != nil {
		return nil, clierrors.NewValidationError(err.Error(), "Check the config file syntax and flag values.")
	}
	if err := cfg.Validate(); err != nil {
		return nil, clierrors.NewValidationError(err.Error(), "Fix the setting via flag, environment variable or config file.")
	}

	log, err := logging.New(logging.DefaultConfig().
		WithServiceName(ServiceName).
		WithEnvironment(cfg.Log.Environment).
		WithLogLevel(cfg.Log.Level).
		WithWriter(cmd.ErrOrStderr()))
	if err != nil {
		return nil, clierrors.NewOperationError(err.Error(), "Check --log-level.")
	}

	return &env{
		cfg:    cfg,
		log:    log,
		stdout: cmd.OutOrStdout(),
		stderr: cmd.ErrOrStderr(),
	}, nil
}

// tokenSource builds the cached M2M token source. The token endpoint is
// called through a plain client with the configured timeout.
func (e *env) tokenSource(ctx context.Context) oauth2.TokenSource {
	return auth.NewTokenSource(ctx, auth.Config{
		TokenURL:     e.cfg.Auth.TokenURL,
		ClientID:     e.cfg.Auth.ClientID,
		ClientSecret: e.cfg.Auth.ClientSecret,
		Audience:     e.cfg.Auth.Audience,
		Scopes:       e.cfg.Auth.Scopes,
	}, &http.Client{Timeout: e.cfg.HTTP.Timeout})
}

func (e *env) requireAuth() error {
	a := e.cfg.Auth
	if a.TokenURL == "" || a.ClientID == "" || a.ClientSecret == "" {
		return clierrors.NewValidationError(
			"auth.token-url, auth.client-id and auth.client-secret are required",
			"Set AUTH_TOKEN_URL, AUTH_CLIENT_ID and AUTH_CLIENT_SECRET or pass --token-url, --client-id and --client-secret.",
		)
	}
	return nil
}

func (e *env) retryConfig() client.RetryConfig {
	return client.RetryConfig{
		MaxAttempts:  e.cfg.Retry.MaxAttempts,
		InitialDelay: e.cfg.Retry.InitialDelay,
		MaxDelay:     e.cfg.Retry.MaxDelay,
	}
}

func (e *env) directoryClient(httpClient *http.Client, onPage func(directory.PageStats)) *directory.Client {
	return directory.NewClient(e.cfg.Directory.URL, httpClient, directory.Config{
		Kind:      e.cfg.Directory.Kind,
		PageSize:  e.cfg.Directory.PageSize,
		PageDelay: e.cfg.Directory.PageDelay,
		Retry:     e.retryConfig(),
		Logger:    e.log.Logger,
		OnPage:    onPage,
	})
}
