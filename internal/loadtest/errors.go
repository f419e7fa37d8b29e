package loadtest

import (
	"fmt"
	"strings"
	"time"

	"github.com/otherjamesbrown/ai-aas/services/groups-loadtest/internal/client/groups"
)

// Step names a phase of a run.
type Step string

const (
	StepAuth    Step = "auth"
	StepHealth  Step = "health"
	StepMembers Step = "members"
	StepCreate  Step = "create-group"
	StepPatch   Step = "patch-group"
	StepAdd     Step = "add-members"
	StepCleanup Step = "delete-group"
)

// StepError records which phase of a run failed.
type StepError struct {
	Step Step
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("%s: %v", e.Step, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

// LatencyBudgetError reports a chunk whose round trip exceeded the budget.
// Err is set when the call itself failed after the budget had run out.
type LatencyBudgetError struct {
	Chunk   int // 1-based
	Elapsed time.Duration
	Budget  time.Duration
	Err     error
}

func (e *LatencyBudgetError) Error() string {
	msg := fmt.Sprintf("chunk %d took %dms, over the %dms latency budget",
		e.Chunk, e.Elapsed.Milliseconds(), e.Budget.Milliseconds())
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *LatencyBudgetError) Unwrap() error {
	return e.Err
}

// MembershipError lists the members the service reported as failed for one
// chunk. Successful entries are never included.
type MembershipError struct {
	Chunk  int // 1-based
	Failed []groups.MemberResult
}

func (e *MembershipError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "chunk %d: %d member(s) failed: ", e.Chunk, len(e.Failed))
	for i, f := range e.Failed {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(f.ID)
		if f.Error != "" {
			fmt.Fprintf(&b, " (%s)", f.Error)
		}
	}
	return b.String()
}

// CleanupError reports a test group that could not be deleted.
type CleanupError struct {
	GroupID string
	Err     error
}

func (e *CleanupError) Error() string {
	return fmt.Sprintf("delete test group %s: %v", e.GroupID, e.Err)
}

func (e *CleanupError) Unwrap() error {
	return e.Err
}
