// Package groups provides the API client for the group membership service.
//
// Purpose:
//
//	REST client for the endpoints a load test run touches: group create, patch,
//	delete and bulk member add. Writes are sent exactly once so that measured
//	latency is the latency of a single call.
//
// Dependencies:
//   - net/http: HTTP client (authenticated by internal/client/auth)
//   - internal/client: StatusError for unexpected responses
//
package groups

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"slices"

	"github.com/otherjamesbrown/ai-aas/services/groups-loadtest/internal/client"
	"github.com/otherjamesbrown/ai-aas/services/groups-loadtest/internal/members"
)

// Client provides access to group service APIs.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a new group service API client. httpClient should carry
// authentication, see auth.NewHTTPClient.
func NewClient(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: httpClient,
	}
}

// CreateGroup creates a new group.
func (c *Client) CreateGroup(ctx context.Context, req CreateGroupRequest) (*Group, error) {
	var result Group
	if err := c.do(ctx, http.MethodPost, "/groups", req, &result, http.StatusOK, http.StatusCreated); err != nil {
		return nil, fmt.Errorf("create group: %w", err)
	}
	if result.ID == "" {
		return nil, fmt.Errorf("create group: response has no id")
	}
	return &result, nil
}

// SetOldID patches the group's oldId, which the service needs before it will
// validate membership changes.
func (c *Client) SetOldID(ctx context.Context, groupID, oldID string) (*Group, error) {
	var result Group
	path := "/groups/" + url.PathEscape(groupID)
	if err := c.do(ctx, http.MethodPatch, path, PatchGroupRequest{OldID: &oldID}, &result, http.StatusOK); err != nil {
		return nil, fmt.Errorf("patch group %s: %w", groupID, err)
	}
	return &result, nil
}

// AddMembers adds one chunk of members to a group. Only 200 is accepted.
func (c *Client) AddMembers(ctx context.Context, groupID string, chunk []members.Member) (*AddMembersResponse, error) {
	var result AddMembersResponse
	path := "/groups/" + url.PathEscape(groupID) + "/members"
	if err := c.do(ctx, http.MethodPost, path, AddMembersRequest{Members: chunk}, &result, http.StatusOK); err != nil {
		return nil, fmt.Errorf("add members to group %s: %w", groupID, err)
	}
	return &result, nil
}

// DeleteGroup deletes a group.
func (c *Client) DeleteGroup(ctx context.Context, groupID string) error {
	path := "/groups/" + url.PathEscape(groupID)
	if err := c.do(ctx, http.MethodDelete, path, nil, nil, http.StatusOK, http.StatusNoContent); err != nil {
		return fmt.Errorf("delete group %s: %w", groupID, err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}, expected ...int) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	u := c.baseURL + path
	httpReq, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if !slices.Contains(expected, resp.StatusCode) {
		return client.NewStatusError(method, u, resp)
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
