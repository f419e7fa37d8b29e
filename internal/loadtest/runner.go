package loadtest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"github.com/otherjamesbrown/ai-aas/services/groups-loadtest/internal/client/auth"
	"github.com/otherjamesbrown/ai-aas/services/groups-loadtest/internal/client/groups"
	"github.com/otherjamesbrown/ai-aas/services/groups-loadtest/internal/health"
	"github.com/otherjamesbrown/ai-aas/services/groups-loadtest/internal/logging"
	"github.com/otherjamesbrown/ai-aas/services/groups-loadtest/internal/members"
	"github.com/otherjamesbrown/ai-aas/services/groups-loadtest/internal/metrics"
	"github.com/otherjamesbrown/ai-aas/services/groups-loadtest/internal/progress"
)

// DefaultCleanupTimeout bounds the deferred group deletion.
const DefaultCleanupTimeout = 30 * time.Second

// GroupAPI is the part of the group service a run needs.
type GroupAPI interface {
	MembershipAPI
	CreateGroup(ctx context.Context, req groups.CreateGroupRequest) (*groups.Group, error)
	SetOldID(ctx context.Context, groupID, oldID string) (*groups.Group, error)
	DeleteGroup(ctx context.Context, groupID string) error
}

// DirectoryReader supplies real member ids.
type DirectoryReader interface {
	FetchMembers(ctx context.Context, n int) ([]members.Member, error)
}

// HealthChecker checks service dependencies before a run.
type HealthChecker interface {
	CheckRequired(ctx context.Context, services ...health.Service) ([]health.ServiceHealth, error)
}

// MemberPlan describes where members come from. A non-empty Fixed list
// replaces both the directory and synthetic members.
type MemberPlan struct {
	Count          int
	DirectoryCount int
	IDPrefix       string
	Fixed          []members.Member
}

// Options configures a Runner.
type Options struct {
	Groups    GroupAPI
	Directory DirectoryReader // required when Members.DirectoryCount > 0
	Tokens    oauth2.TokenSource
	Health    HealthChecker
	Services  []health.Service

	Members        MemberPlan
	ChunkSize      int
	Budget         time.Duration
	GroupPrefix    string
	OldID          string // generated when empty
	CleanupTimeout time.Duration

	Logger   *zap.Logger
	Metrics  *metrics.Recorder
	Progress *progress.Indicator
	Tracer   trace.Tracer
	Now      func() time.Time
}

// Runner executes one load test run.
type Runner struct {
	opts   Options
	logger *zap.Logger
	tracer trace.Tracer
	now    func() time.Time
}

// NewRunner creates a runner, filling in defaults.
func NewRunner(opts Options) *Runner {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Tracer == nil {
		opts.Tracer = noop.NewTracerProvider().Tracer("")
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Progress == nil {
		opts.Progress = progress.Disabled()
	}
	if opts.CleanupTimeout <= 0 {
		opts.CleanupTimeout = DefaultCleanupTimeout
	}
	if opts.GroupPrefix == "" {
		opts.GroupPrefix = "loadtest"
	}
	return &Runner{
		opts:   opts,
		logger: opts.Logger,
		tracer: opts.Tracer,
		now:    opts.Now,
	}
}

// Run executes the full flow. The returned report is never nil. Once the
// group exists it is deleted before Run returns, even when adding members
// fails or ctx is cancelled.
func (r *Runner) Run(ctx context.Context) (report *Report, err error) {
	start := r.now()
	report = &Report{
		RunID:     uuid.NewString(),
		StartedAt: start.UTC(),
		ChunkSize: r.opts.ChunkSize,
		Budget:    r.opts.Budget,
	}
	if report.Budget <= 0 {
		report.Budget = DefaultBudget
	}

	ctx, span := r.tracer.Start(ctx, "loadtest.run", trace.WithAttributes(
		attribute.String("run.id", report.RunID),
	))
	log := r.logger.With(append(logging.TraceFields(ctx), zap.String("run_id", report.RunID))...)

	defer func() {
		report.Duration = r.now().Sub(start)
		if err != nil {
			report.Error = err.Error()
			span.RecordError(err)
			span.SetStatus(codes.Error, "run failed")
		}
		r.opts.Metrics.ObserveRun(report.Duration, err)
		span.End()
	}()

	if err := r.authenticate(); err != nil {
		return report, err
	}
	log.Info("M2M token acquired")

	if r.opts.Health != nil && len(r.opts.Services) > 0 {
		if _, err := r.opts.Health.CheckRequired(ctx, r.opts.Services...); err != nil {
			return report, &StepError{Step: StepHealth, Err: err}
		}
		log.Info("health check passed", zap.Int("services", len(r.opts.Services)))
	}

	list, err := r.assembleMembers(ctx, report)
	if err != nil {
		return report, &StepError{Step: StepMembers, Err: err}
	}
	log.Info("members assembled",
		zap.Int("total", len(list)),
		zap.Int("directory", report.FromDirectory),
		zap.Int("synthetic", report.Synthetic),
		zap.Int("file", report.FromFile),
	)

	report.GroupName = fmt.Sprintf("%s-%s", r.opts.GroupPrefix, uuid.NewString())
	group, err := r.opts.Groups.CreateGroup(ctx, groups.CreateGroupRequest{
		Name:         report.GroupName,
		Description:  fmt.Sprintf("Temporary load test group for run %s", report.RunID),
		Public:       false,
		Discoverable: false,
	})
	if err != nil {
		return report, &StepError{Step: StepCreate, Err: err}
	}
	report.GroupID = group.ID
	log = log.With(zap.String("group_id", group.ID))
	log.Info("test group created", zap.String("name", report.GroupName))
	span.SetAttributes(attribute.String("group.id", group.ID))

	defer r.cleanup(ctx, log, report, &err)

	report.OldID = r.opts.OldID
	if report.OldID == "" {
		report.OldID = uuid.NewString()
	}
	if _, err := r.opts.Groups.SetOldID(ctx, group.ID, report.OldID); err != nil {
		return report, &StepError{Step: StepPatch, Err: err}
	}

	// The adder tags each chunk with its own span and the group id.
	adder := NewAdder(r.opts.Groups, r.opts.ChunkSize, report.Budget,
		WithLogger(r.logger.With(zap.String("run_id", report.RunID))),
		WithMetrics(r.opts.Metrics),
		WithProgress(r.opts.Progress),
		WithTracer(r.tracer),
		WithClock(r.now),
	)
	timings, err := adder.Add(ctx, group.ID, list)
	report.Chunks = timings
	for _, t := range timings {
		report.Added += t.Succeeded
	}
	if err != nil {
		return report, &StepError{Step: StepAdd, Err: err}
	}

	log.Info("members added",
		zap.Int("members", report.Added),
		zap.Int("chunks", len(timings)),
		zap.String("stats", report.Stats().String()),
	)
	return report, nil
}

func (r *Runner) authenticate() error {
	if r.opts.Tokens == nil {
		return &StepError{Step: StepAuth, Err: errors.New("no token source configured")}
	}
	if _, err := auth.FetchToken(r.opts.Tokens); err != nil {
		return &StepError{Step: StepAuth, Err: err}
	}
	return nil
}

func (r *Runner) assembleMembers(ctx context.Context, report *Report) ([]members.Member, error) {
	plan := r.opts.Members
	if len(plan.Fixed) > 0 {
		list := append([]members.Member(nil), plan.Fixed...)
		if err := members.Validate(list); err != nil {
			return nil, err
		}
		report.Requested = len(list)
		report.FromFile = len(list)
		return list, nil
	}

	if plan.Count < 1 {
		return nil, fmt.Errorf("member count must be at least 1, got %d", plan.Count)
	}
	if plan.DirectoryCount < 0 || plan.DirectoryCount > plan.Count {
		return nil, fmt.Errorf("directory member count %d outside 0..%d", plan.DirectoryCount, plan.Count)
	}
	report.Requested = plan.Count

	list := make([]members.Member, 0, plan.Count)
	if plan.DirectoryCount > 0 {
		if r.opts.Directory == nil {
			return nil, errors.New("directory members requested but no directory is configured")
		}
		fetched, err := r.opts.Directory.FetchMembers(ctx, plan.DirectoryCount)
		if err != nil {
			return nil, err
		}
		if len(fetched) != plan.DirectoryCount {
			return nil, fmt.Errorf("directory returned %d members, want %d", len(fetched), plan.DirectoryCount)
		}
		list = append(list, fetched...)
		report.FromDirectory = len(fetched)
	}

	synthetic := members.Generate(plan.Count-plan.DirectoryCount, plan.IDPrefix)
	list = append(list, synthetic...)
	report.Synthetic = len(synthetic)

	if err := members.Validate(list); err != nil {
		return nil, err
	}
	return list, nil
}

// cleanup deletes the test group on a context that survives cancellation of
// the run. A delete failure only replaces *errp when the run had succeeded.
func (r *Runner) cleanup(ctx context.Context, log *zap.Logger, report *Report, errp *error) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.opts.CleanupTimeout)
	defer cancel()

	ctx, span := r.tracer.Start(ctx, "groups.delete")
	defer span.End()

	if err := r.opts.Groups.DeleteGroup(ctx, report.GroupID); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "delete failed")
		report.CleanupError = err.Error()
		log.Error("test group was not deleted", zap.Error(err))
		if *errp == nil {
			*errp = &StepError{Step: StepCleanup, Err: &CleanupError{GroupID: report.GroupID, Err: err}}
		}
		return
	}
	report.CleanedUp = true
	log.Info("test group deleted")
}
