package loadtest

import (
	"encoding/json"
	"time"
)

// ChunkTiming is the measurement of one bulk membership call.
type ChunkTiming struct {
	Index     int           // 1-based
	Members   int           // members sent
	Succeeded int           // members reported as success
	Failed    int           // members reported as failed
	Duration  time.Duration // round trip
	Outcome   string        // one of the metrics.Outcome* values
}

// MarshalJSON renders the duration in milliseconds.
func (c ChunkTiming) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Index      int    `json:"index"`
		Members    int    `json:"members"`
		Succeeded  int    `json:"succeeded"`
		Failed     int    `json:"failed"`
		DurationMs int64  `json:"duration_ms"`
		Outcome    string `json:"outcome"`
	}{c.Index, c.Members, c.Succeeded, c.Failed, c.Duration.Milliseconds(), c.Outcome})
}

// Report summarizes one run. It is populated as far as the run got, so a
// failed run still carries its group id and chunk timings.
type Report struct {
	RunID     string `json:"run_id"`
	GroupID   string `json:"group_id,omitempty"`
	GroupName string `json:"group_name,omitempty"`
	OldID     string `json:"old_id,omitempty"`

	Requested     int `json:"members_requested"`
	FromDirectory int `json:"members_from_directory"`
	Synthetic     int `json:"members_synthetic"`
	FromFile      int `json:"members_from_file"`
	Added         int `json:"members_added"`

	ChunkSize int           `json:"chunk_size"`
	Budget    time.Duration `json:"-"`
	Chunks    []ChunkTiming `json:"chunks"`

	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"-"`

	CleanedUp    bool   `json:"cleaned_up"`
	CleanupError string `json:"cleanup_error,omitempty"`
	Error        string `json:"error,omitempty"`
}

// Stats returns the chunk duration statistics.
func (r *Report) Stats() *Stats {
	s := &Stats{}
	for _, c := range r.Chunks {
		s.Add(c.Duration)
	}
	return s
}

// Summary returns the headline numbers for output envelopes.
func (r *Report) Summary() map[string]interface{} {
	s := r.Stats()
	return map[string]interface{}{
		"chunks":           s.Count(),
		"members_added":    r.Added,
		"min_ms":           s.Min().Milliseconds(),
		"max_ms":           s.Max().Milliseconds(),
		"avg_ms":           s.Avg().Milliseconds(),
		"budget_ms":        r.Budget.Milliseconds(),
		"run_duration_ms":  r.Duration.Milliseconds(),
		"group_cleaned_up": r.CleanedUp,
	}
}
