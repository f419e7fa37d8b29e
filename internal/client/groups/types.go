// Package groups provides types for the group service API client.
package groups

import (
	"github.com/otherjamesbrown/ai-aas/services/groups-loadtest/internal/members"
)

// Group represents a group in API responses.
type Group struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Description  string `json:"description"`
	Public       bool   `json:"public"`
	Discoverable bool   `json:"discoverable"`
	OldID        string `json:"oldId,omitempty"`
}

// CreateGroupRequest represents group creation request.
type CreateGroupRequest struct {
	Name         string `json:"name"`
	Description  string `json:"description,omitempty"`
	Public       bool   `json:"public"`
	Discoverable bool   `json:"discoverable"`
}

// PatchGroupRequest represents a partial group update.
type PatchGroupRequest struct {
	OldID *string `json:"oldId,omitempty"`
}

// AddMembersRequest is the body of a bulk membership call.
type AddMembersRequest struct {
	Members []members.Member `json:"members"`
}

// MemberStatus is the per-member outcome of a bulk membership call.
type MemberStatus string

const (
	StatusSuccess MemberStatus = "success"
	StatusFailed  MemberStatus = "failed"
)

// MemberResult is the outcome for one member of a bulk call.
type MemberResult struct {
	ID     string       `json:"id"`
	Type   members.Type `json:"type,omitempty"`
	Status MemberStatus `json:"status"`
	Error  string       `json:"error,omitempty"`
}

// AddMembersResponse is the response of a bulk membership call.
type AddMembersResponse struct {
	Results []MemberResult `json:"results"`
}

// Failed returns only the results with failed status.
func (r *AddMembersResponse) Failed() []MemberResult {
	var failed []MemberResult
	for _, res := range r.Results {
		if res.Status == StatusFailed {
			failed = append(failed, res)
		}
	}
	return failed
}
