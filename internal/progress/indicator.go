// Package progress reports chunk-by-chunk progress of a membership load test.
//
// Purpose:
//
//	Show how many members have been added so far, the latest chunk latency and
//	an estimate of the time remaining. Table output rewrites a single line for
//	terminals; JSON output emits one event per chunk for CI logs and
//	monitoring systems.
//
// Dependencies:
//   - encoding/json: Structured progress event output
//   - time: Duration tracking
//
package progress

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"
)

// Indicator displays progress for the chunk loop.
type Indicator struct {
	writer  io.Writer
	format  string // table, json
	enabled bool
	now     func() time.Time
}

// NewIndicator creates a new progress indicator. A nil writer means stderr.
func NewIndicator(w io.Writer, format string) *Indicator {
	if w == nil {
		w = os.Stderr
	}
	return &Indicator{
		writer:  w,
		format:  format,
		enabled: true,
		now:     time.Now,
	}
}

// Disabled returns an indicator that prints nothing.
func Disabled() *Indicator {
	return &Indicator{writer: io.Discard, enabled: false, now: time.Now}
}

// Event represents a progress event for monitoring systems.
type Event struct {
	Timestamp       string  `json:"timestamp"`
	Operation       string  `json:"operation"`
	PercentComplete float64 `json:"percent_complete"`
	ItemsProcessed  int     `json:"items_processed"`
	TotalItems      int     `json:"total_items"`
	Chunk           int     `json:"chunk,omitempty"`
	ChunkLatencyMs  int64   `json:"chunk_latency_ms,omitempty"`
	Elapsed         string  `json:"elapsed"`
	Remaining       string  `json:"remaining,omitempty"`
}

// Chunk reports that chunk (1-based) finished after latency, bringing the
// processed count to processed of total.
func (p *Indicator) Chunk(op string, chunk, processed, total int, latency, elapsed time.Duration) error {
	if !p.enabled || total == 0 {
		return nil
	}

	percent := float64(processed) / float64(total) * 100
	remaining := time.Duration(0)
	if processed > 0 {
		avgTimePerItem := elapsed / time.Duration(processed)
		remaining = avgTimePerItem * time.Duration(total-processed)
	}

	if p.format == "json" {
		return json.NewEncoder(p.writer).Encode(Event{
			Timestamp:       p.now().UTC().Format(time.RFC3339),
			Operation:       op,
			PercentComplete: percent,
			ItemsProcessed:  processed,
			TotalItems:      total,
			Chunk:           chunk,
			ChunkLatencyMs:  latency.Milliseconds(),
			Elapsed:         elapsed.String(),
			Remaining:       remaining.String(),
		})
	}

	_, err := fmt.Fprintf(p.writer, "\r%s: %.1f%% (%d/%d) chunk %d took %s [elapsed: %s, remaining: %s]",
		op, percent, processed, total, chunk, latency.Round(time.Millisecond),
		elapsed.Round(time.Second), remaining.Round(time.Second))
	return err
}

// Complete marks progress as complete. processed may be below total when the
// loop was aborted.
func (p *Indicator) Complete(op string, processed, total int, elapsed time.Duration) error {
	if !p.enabled {
		return nil
	}

	percent := 100.0
	if total > 0 {
		percent = float64(processed) / float64(total) * 100
	}

	if p.format == "json" {
		return json.NewEncoder(p.writer).Encode(Event{
			Timestamp:       p.now().UTC().Format(time.RFC3339),
			Operation:       op,
			PercentComplete: percent,
			ItemsProcessed:  processed,
			TotalItems:      total,
			Elapsed:         elapsed.String(),
			Remaining:       "0s",
		})
	}

	_, err := fmt.Fprintf(p.writer, "\r%s: %.1f%% (%d/%d) [completed in %s]\n",
		op, percent, processed, total, elapsed.Round(time.Millisecond))
	return err
}
