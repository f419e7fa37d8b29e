// Package metrics records Prometheus metrics for a load test run.
//
// Purpose:
//
//	A run is a short-lived batch job, so metrics live in a private registry
//	and are pushed to a Pushgateway once at the end instead of being scraped.
//
// Dependencies:
//   - github.com/prometheus/client_golang: collectors and the push client
//
package metrics

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

const namespace = "groups_loadtest"

// Chunk outcomes used as the "outcome" label.
const (
	OutcomeOK             = "ok"
	OutcomeHTTPError      = "http_error"
	OutcomeOverBudget     = "over_budget"
	OutcomeMemberFailures = "member_failures"
)

// Recorder bundles the run's collectors. A nil *Recorder is valid and
// records nothing.
type Recorder struct {
	registry *prometheus.Registry

	ChunkDuration  prometheus.Histogram
	Chunks         *prometheus.CounterVec
	MembersAdded   prometheus.Counter
	MembersFailed  prometheus.Counter
	DirectoryPages prometheus.Counter
	DirectoryLat   prometheus.Histogram
	RunSuccess     prometheus.Gauge
	LastRunSeconds prometheus.Gauge
}

// NewRecorder registers the collectors on a fresh registry.
func NewRecorder() *Recorder {
	reg := prometheus.NewRegistry()
	r := &Recorder{
		registry: reg,
		ChunkDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "chunk_duration_seconds",
			Help:      "Round-trip latency of bulk membership calls in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20, 30, 60},
		}),
		Chunks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chunks_total",
			Help:      "Bulk membership calls by outcome.",
		}, []string{"outcome"}),
		MembersAdded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "members_added_total",
			Help:      "Members reported as successfully added.",
		}),
		MembersFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "members_failed_total",
			Help:      "Members reported with a failed status.",
		}),
		DirectoryPages: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "directory_pages_total",
			Help:      "Directory pages fetched.",
		}),
		DirectoryLat: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "directory_page_duration_seconds",
			Help:      "Directory page fetch latency in seconds.",
			Buckets:   prometheus.DefBuckets,
		}),
		RunSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "run_success",
			Help:      "1 if the last run completed without error, 0 otherwise.",
		}),
		LastRunSeconds: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Wall-clock duration of the last run in seconds.",
		}),
	}
	reg.MustRegister(
		r.ChunkDuration,
		r.Chunks,
		r.MembersAdded,
		r.MembersFailed,
		r.DirectoryPages,
		r.DirectoryLat,
		r.RunSuccess,
		r.LastRunSeconds,
	)
	return r
}

// Gatherer exposes the private registry.
func (r *Recorder) Gatherer() prometheus.Gatherer {
	if r == nil {
		return prometheus.NewRegistry()
	}
	return r.registry
}

// ObserveChunk records one bulk call.
func (r *Recorder) ObserveChunk(outcome string, d time.Duration, added, failed int) {
	if r == nil {
		return
	}
	r.ChunkDuration.Observe(d.Seconds())
	r.Chunks.WithLabelValues(outcome).Inc()
	r.MembersAdded.Add(float64(added))
	r.MembersFailed.Add(float64(failed))
}

// ObserveDirectoryPage records one directory page.
func (r *Recorder) ObserveDirectoryPage(d time.Duration) {
	if r == nil {
		return
	}
	r.DirectoryPages.Inc()
	r.DirectoryLat.Observe(d.Seconds())
}

// ObserveRun records the end of a run.
func (r *Recorder) ObserveRun(d time.Duration, err error) {
	if r == nil {
		return
	}
	r.LastRunSeconds.Set(d.Seconds())
	if err != nil {
		r.RunSuccess.Set(0)
		return
	}
	r.RunSuccess.Set(1)
}

// Push sends every collector to the Pushgateway at url under job, grouped by
// instance so concurrent runners do not overwrite each other.
func (r *Recorder) Push(ctx context.Context, url, job, instance string) error {
	if r == nil || url == "" {
		return nil
	}
	pusher := push.New(url, job).Gatherer(r.registry)
	if instance != "" {
		pusher = pusher.Grouping("instance", instance)
	}
	if err := pusher.PushContext(ctx); err != nil {
		return fmt.Errorf("push metrics to %s: %w", url, err)
	}
	return nil
}
