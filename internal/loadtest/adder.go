// Package loadtest drives a membership load test against the group service.
//
// Purpose:
//
//	Run the sequential test flow: authenticate, health-check, assemble the
//	member list, create a throwaway group, add members chunk by chunk while
//	timing every call against a latency budget, and always delete the group
//	afterwards.
//
// Dependencies:
//   - internal/client/groups: group service API
//   - internal/client/directory: real member ids
//   - internal/metrics, internal/progress, go.opentelemetry.io/otel: per-chunk reporting
//
package loadtest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"

	"github.com/otherjamesbrown/ai-aas/services/groups-loadtest/internal/client"
	"github.com/otherjamesbrown/ai-aas/services/groups-loadtest/internal/client/groups"
	"github.com/otherjamesbrown/ai-aas/services/groups-loadtest/internal/logging"
	"github.com/otherjamesbrown/ai-aas/services/groups-loadtest/internal/members"
	"github.com/otherjamesbrown/ai-aas/services/groups-loadtest/internal/metrics"
	"github.com/otherjamesbrown/ai-aas/services/groups-loadtest/internal/progress"
)

// DefaultBudget is the per-chunk latency budget.
const DefaultBudget = 30 * time.Second

// MembershipAPI is the part of the group service the adder calls.
type MembershipAPI interface {
	AddMembers(ctx context.Context, groupID string, chunk []members.Member) (*groups.AddMembersResponse, error)
}

// Adder sends members to a group in chunks, one call at a time.
type Adder struct {
	api       MembershipAPI
	chunkSize int
	budget    time.Duration

	logger   *zap.Logger
	metrics  *metrics.Recorder
	progress *progress.Indicator
	tracer   trace.Tracer
	now      func() time.Time
}

// AdderOption customizes an Adder.
type AdderOption func(*Adder)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) AdderOption {
	return func(a *Adder) { a.logger = l }
}

// WithMetrics records every chunk on r.
func WithMetrics(r *metrics.Recorder) AdderOption {
	return func(a *Adder) { a.metrics = r }
}

// WithProgress reports every chunk on p.
func WithProgress(p *progress.Indicator) AdderOption {
	return func(a *Adder) { a.progress = p }
}

// WithTracer starts one span per chunk.
func WithTracer(t trace.Tracer) AdderOption {
	return func(a *Adder) { a.tracer = t }
}

// WithClock replaces time.Now for measuring round trips.
func WithClock(now func() time.Time) AdderOption {
	return func(a *Adder) { a.now = now }
}

// NewAdder creates an adder. chunkSize is capped at 100 and budget defaults
// to DefaultBudget.
func NewAdder(api MembershipAPI, chunkSize int, budget time.Duration, opts ...AdderOption) *Adder {
	if chunkSize <= 0 || chunkSize > 100 {
		chunkSize = 100
	}
	if budget <= 0 {
		budget = DefaultBudget
	}
	a := &Adder{
		api:       api,
		chunkSize: chunkSize,
		budget:    budget,
		logger:    zap.NewNop(),
		progress:  progress.Disabled(),
		tracer:    noop.NewTracerProvider().Tracer(""),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Add sends list to groupID in ceil(len/chunkSize) calls. The loop stops at
// the first chunk that errors, runs over the budget or reports a failed
// member; the timings of every chunk sent so far are returned either way.
func (a *Adder) Add(ctx context.Context, groupID string, list []members.Member) ([]ChunkTiming, error) {
	chunks, err := members.Chunk(list, a.chunkSize)
	if err != nil {
		return nil, err
	}

	timings := make([]ChunkTiming, 0, len(chunks))
	started := a.now()
	processed := 0

	for i, chunk := range chunks {
		if err := ctx.Err(); err != nil {
			return timings, err
		}

		timing, err := a.sendChunk(ctx, groupID, i+1, chunk)
		timings = append(timings, timing)
		processed += len(chunk)
		_ = a.progress.Chunk("add members", timing.Index, processed, len(list), timing.Duration, a.now().Sub(started))

		if err != nil {
			_ = a.progress.Complete("add members", processed, len(list), a.now().Sub(started))
			return timings, err
		}
	}

	_ = a.progress.Complete("add members", processed, len(list), a.now().Sub(started))
	return timings, nil
}

func (a *Adder) sendChunk(ctx context.Context, groupID string, index int, chunk []members.Member) (ChunkTiming, error) {
	ctx, span := a.tracer.Start(ctx, "groups.add_members", trace.WithAttributes(
		attribute.String("group.id", groupID),
		attribute.Int("chunk.index", index),
		attribute.Int("chunk.size", len(chunk)),
	))
	defer span.End()

	start := a.now()
	resp, err := a.api.AddMembers(ctx, groupID, chunk)
	elapsed := a.now().Sub(start)

	timing := ChunkTiming{
		Index:    index,
		Members:  len(chunk),
		Duration: elapsed,
		Outcome:  metrics.OutcomeOK,
	}
	var failed []groups.MemberResult
	if err != nil {
		timing.Outcome = metrics.OutcomeHTTPError
	} else {
		failed = resp.Failed()
		timing.Failed = len(failed)
		timing.Succeeded = len(resp.Results) - len(failed)
	}

	// Checks run in this order: status, budget, member statuses. A transport
	// failure after the budget ran out counts against the budget.
	var statusErr *client.StatusError
	switch {
	case err != nil && (errors.As(err, &statusErr) || elapsed <= a.budget):
		err = fmt.Errorf("chunk %d: %w", index, err)
	case elapsed > a.budget:
		timing.Outcome = metrics.OutcomeOverBudget
		err = &LatencyBudgetError{Chunk: index, Elapsed: elapsed, Budget: a.budget, Err: err}
	case len(failed) > 0:
		timing.Outcome = metrics.OutcomeMemberFailures
		err = &MembershipError{Chunk: index, Failed: failed}
	}

	a.metrics.ObserveChunk(timing.Outcome, elapsed, timing.Succeeded, timing.Failed)
	span.SetAttributes(
		attribute.Int64("chunk.duration_ms", elapsed.Milliseconds()),
		attribute.String("chunk.outcome", timing.Outcome),
	)

	fields := append(logging.TraceFields(ctx),
		zap.String("group_id", groupID),
		zap.Int("chunk", index),
		zap.Int("members", len(chunk)),
		zap.Int64("duration_ms", elapsed.Milliseconds()),
		zap.String("outcome", timing.Outcome),
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, timing.Outcome)
		a.logger.Error("chunk failed", append(fields, zap.Error(err))...)
		return timing, err
	}
	a.logger.Info("chunk added", fields...)
	return timing, nil
}
