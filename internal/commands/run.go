package commands

import (
	"context"
	"net/http"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/otherjamesbrown/ai-aas/services/groups-loadtest/internal/client/auth"
	"github.com/otherjamesbrown/ai-aas/services/groups-loadtest/internal/client/directory"
	"github.com/otherjamesbrown/ai-aas/services/groups-loadtest/internal/client/groups"
	clierrors "github.com/otherjamesbrown/ai-aas/services/groups-loadtest/internal/errors"
	"github.com/otherjamesbrown/ai-aas/services/groups-loadtest/internal/health"
	"github.com/otherjamesbrown/ai-aas/services/groups-loadtest/internal/loadtest"
	"github.com/otherjamesbrown/ai-aas/services/groups-loadtest/internal/members"
	"github.com/otherjamesbrown/ai-aas/services/groups-loadtest/internal/metrics"
	"github.com/otherjamesbrown/ai-aas/services/groups-loadtest/internal/progress"
	"github.com/otherjamesbrown/ai-aas/services/groups-loadtest/internal/telemetry"
)

// RunCommand creates the run command.
func RunCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a membership load test",
		Long: `Run authenticates with M2M credentials, health-checks the group service,
assembles the member list, creates a temporary group, patches its oldId, adds
the members in chunks and deletes the group again, even when a step fails.

Exit codes: 1 general or authentication failure, 2 invalid configuration,
3 service unavailable, 4 latency budget exceeded, 5 members rejected,
6 test group could not be deleted.`,
		RunE: runLoadTest,
	}

	f := cmd.Flags()
	f.Int("count", 0, "Total number of members to add (default 1000)")
	f.Int("directory-count", 0, "How many of --count to read from the directory API")
	f.String("id-prefix", "", "Prefix for synthetic member ids")
	f.String("members-file", "", "JSON or YAML file with a fixed member list (overrides --count)")
	f.String("directory-kind", "", "Directory listing to read: users, groups")
	f.Int("page-size", 0, "Directory page size (max 100)")
	f.Duration("page-delay", 0, "Pause between directory pages (default 1s)")
	f.Int("chunk-size", 0, "Members per bulk call (max 100)")
	f.Duration("chunk-budget", 0, "Latency budget per bulk call (default 30s)")
	f.String("group-prefix", "", "Name prefix of the temporary group")
	f.String("old-id", "", "oldId to set on the temporary group (generated when empty)")
	f.Duration("cleanup-timeout", 0, "Timeout for deleting the temporary group")
	f.String("health-path", "", "Health endpoint path on the group service")
	f.String("report-csv", "", "Write chunk timings to this CSV file")
	f.String("pushgateway-url", "", "Push run metrics to this Prometheus Pushgateway")
	f.String("tracing-exporter", "", "Trace exporter: none, stdout, otlp")
	f.String("otlp-endpoint", "", "OTLP gRPC collector endpoint (host:port)")

	return cmd
}

func runLoadTest(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	e, err := newEnv(cmd)
	if err != nil {
		return err
	}
	defer e.log.Sync()

	cfg := e.cfg
	if err := cfg.ValidateRun(); err != nil {
		return clierrors.NewValidationError(err.Error(), "Run 'groups-loadtest run --help' for the available settings.")
	}

	var fixed []members.Member
	if cfg.Members.File != "" {
		if fixed, err = members.LoadFile(cfg.Members.File); err != nil {
			return clierrors.NewValidationError(err.Error(), "Check the members file format: members: [{id, type}].")
		}
	}

	tp, err := telemetry.Init(ctx, telemetry.Config{
		ServiceName: ServiceName,
		Environment: cfg.Log.Environment,
		Exporter:    cfg.Telemetry.Exporter,
		Endpoint:    cfg.Telemetry.OTLPEndpoint,
		Insecure:    cfg.Telemetry.Insecure,
		SampleRatio: cfg.Telemetry.SampleRatio,
		Writer:      e.stderr,
	}, e.log.Logger)
	if err != nil {
		return clierrors.NewValidationError(err.Error(), "Check --tracing-exporter and --otlp-endpoint.")
	}
	defer telemetry.ShutdownWithTimeout(ctx, tp, e.log.Logger)

	recorder := metrics.NewRecorder()
	ts := e.tokenSource(ctx)
	httpClient := auth.NewHTTPClient(ts, http.DefaultTransport, cfg.HTTP.Timeout)

	var dir loadtest.DirectoryReader
	if cfg.Members.DirectoryCount > 0 && len(fixed) == 0 {
		dir = e.directoryClient(httpClient, func(p directory.PageStats) {
			recorder.ObserveDirectoryPage(p.Duration)
		})
	}

	indicator := progress.Disabled()
	if !cfg.Output.Quiet {
		indicator = progress.NewIndicator(e.stderr, cfg.Output.Format)
	}

	runner := loadtest.NewRunner(loadtest.Options{
		Groups:    groups.NewClient(cfg.Target.URL, httpClient),
		Directory: dir,
		Tokens:    ts,
		Health:    health.NewChecker(cfg.HTTP.HealthCheckTimeout),
		Services:  []health.Service{{Name: "group-service", URL: cfg.Target.URL + cfg.Target.HealthPath}},
		Members: loadtest.MemberPlan{
			Count:          cfg.Members.Count,
			DirectoryCount: cfg.Members.DirectoryCount,
			IDPrefix:       cfg.Members.IDPrefix,
			Fixed:          fixed,
		},
		ChunkSize:      cfg.LoadTest.ChunkSize,
		Budget:         cfg.LoadTest.ChunkBudget,
		GroupPrefix:    cfg.LoadTest.GroupPrefix,
		OldID:          cfg.LoadTest.OldID,
		CleanupTimeout: cfg.LoadTest.CleanupTimeout,
		Logger:         e.log.Logger,
		Metrics:        recorder,
		Progress:       indicator,
		Tracer:         tp.Tracer(ServiceName),
	})

	report, runErr := runner.Run(ctx)
	cliErr := toCLIError(runErr)
	if runErr != nil {
		e.log.Error("load test failed", zap.String("run_id", report.RunID), zap.Error(runErr))
	}
	if report.CleanupError != "" && report.GroupID != "" {
		e.log.Warn("test group left behind",
			zap.String("group_id", report.GroupID),
			zap.String("remove_with", "groups-loadtest delete-group --group-id "+report.GroupID),
		)
	}

	if cfg.Output.ReportCSV != "" {
		if err := writeChunkCSV(cfg.Output.ReportCSV, report); err != nil {
			e.log.Warn("failed to write chunk CSV", zap.String("path", cfg.Output.ReportCSV), zap.Error(err))
		}
	}

	if err := recorder.Push(context.WithoutCancel(ctx), cfg.Metrics.PushgatewayURL, cfg.Metrics.Job, report.RunID); err != nil {
		e.log.Warn("failed to push metrics", zap.Error(err))
	}

	if cfg.Output.Format == "json" || !cfg.Output.Quiet {
		if err := writeReport(e.stdout, cfg.Output.Format, report, cliErr); err != nil {
			e.log.Warn("failed to write report", zap.Error(err))
		}
	}

	if cliErr != nil {
		return cliErr
	}
	return nil
}
