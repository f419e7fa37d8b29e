// Package fakeservice provides in-process fakes of the identity provider, the
// directory API and the group service for tests.
package fakeservice

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/otherjamesbrown/ai-aas/services/groups-loadtest/internal/client/groups"
	"github.com/otherjamesbrown/ai-aas/services/groups-loadtest/internal/members"
)

// Token credentials accepted by the fake identity provider.
const (
	ClientID     = "loadtest-client"
	ClientSecret = "loadtest-secret"
	AccessToken  = "fake-access-token"
)

// Request is a captured request.
type Request struct {
	Method string
	Path   string
	Query  string
	Body   []byte
}

// Server fakes all three collaborators on one listener.
type Server struct {
	*httptest.Server

	mu       sync.Mutex
	requests []Request
	groups   map[string]*groups.Group
	members  map[string][]members.Member
	deleted  []string

	// DirectoryUsers and DirectoryGroups back the paginated directory.
	DirectoryUsers  []string
	DirectoryGroups []string

	// HealthStatus is returned by /health (default 200).
	HealthStatus int
	// DeleteStatus overrides the group delete response (default 204).
	DeleteStatus int
	// AddStatus, when non-zero, is returned by every bulk add call.
	AddStatus func(call int) int
	// OnAddMembers runs before each bulk add call is answered; call is 1-based.
	OnAddMembers func(call int)
	// FailMember marks individual members as failed.
	FailMember func(id string) bool
	// RequireOldID rejects every member of groups whose oldId is unset.
	RequireOldID bool
	// DirectoryStatus, when non-zero, is returned by directory listings.
	DirectoryStatus int
	// DirectoryPageCap, when non-zero, is the most entries a directory page
	// serves regardless of per_page.
	DirectoryPageCap int

	addCalls int
}

// New starts a fake server with n directory users. It is closed on test cleanup.
func New(t interface {
	Cleanup(func())
}, directoryUsers int) *Server {
	s := &Server{
		groups:       make(map[string]*groups.Group),
		members:      make(map[string][]members.Member),
		HealthStatus: http.StatusOK,
		DeleteStatus: http.StatusNoContent,
		RequireOldID: true,
	}
	for i := 0; i < directoryUsers; i++ {
		s.DirectoryUsers = append(s.DirectoryUsers, fmt.Sprintf("auth0|user-%05d", i))
	}

	r := chi.NewRouter()
	r.Use(s.capture)
	r.Post("/oauth/token", s.token)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(s.HealthStatus)
	})
	r.Group(func(r chi.Router) {
		r.Use(s.requireBearer)
		r.Get("/directory/{kind}", s.listDirectory)
		r.Post("/groups", s.createGroup)
		r.Patch("/groups/{id}", s.patchGroup)
		r.Post("/groups/{id}/members", s.addMembers)
		r.Delete("/groups/{id}", s.deleteGroup)
	})

	s.Server = httptest.NewServer(r)
	t.Cleanup(s.Close)
	return s
}

// TokenURL is the fake identity provider's token endpoint.
func (s *Server) TokenURL() string { return s.URL + "/oauth/token" }

// DirectoryURL is the base URL of the fake directory API.
func (s *Server) DirectoryURL() string { return s.URL + "/directory" }

// AuthorizedClient returns an HTTP client that sends the fake access token
// without going through the token endpoint.
func (s *Server) AuthorizedClient() *http.Client {
	return &http.Client{Transport: bearer{base: s.Client().Transport}}
}

type bearer struct{ base http.RoundTripper }

func (b bearer) RoundTrip(r *http.Request) (*http.Response, error) {
	r = r.Clone(r.Context())
	r.Header.Set("Authorization", "Bearer "+AccessToken)
	return b.base.RoundTrip(r)
}

// Requests returns the captured requests matching method and path prefix.
func (s *Server) Requests(method, prefix string) []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Request
	for _, r := range s.requests {
		if r.Method == method && len(r.Path) >= len(prefix) && r.Path[:len(prefix)] == prefix {
			out = append(out, r)
		}
	}
	return out
}

// AddCalls returns the number of bulk add calls received.
func (s *Server) AddCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addCalls
}

// Members returns the members currently stored for a group.
func (s *Server) Members(groupID string) []members.Member {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]members.Member(nil), s.members[groupID]...)
}

// Group returns a stored group, or nil.
func (s *Server) Group(groupID string) *groups.Group {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.groups[groupID]
	if !ok {
		return nil
	}
	cp := *g
	return &cp
}

// Deleted returns the ids of deleted groups in order.
func (s *Server) Deleted() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.deleted...)
}

// LiveGroups returns the number of groups not yet deleted.
func (s *Server) LiveGroups() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.groups)
}

func (s *Server) capture(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body []byte
		if r.Body != nil {
			body, _ = io.ReadAll(r.Body)
			r.Body.Close()
			r.Body = io.NopCloser(bytes.NewReader(body))
		}
		s.mu.Lock()
		s.requests = append(s.requests, Request{Method: r.Method, Path: r.URL.Path, Query: r.URL.RawQuery, Body: body})
		s.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

func (s *Server) requireBearer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer "+AccessToken {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) token(w http.ResponseWriter, r *http.Request) {
	id, secret, ok := r.BasicAuth()
	if !ok {
		_ = r.ParseForm()
		id, secret = r.PostForm.Get("client_id"), r.PostForm.Get("client_secret")
	}
	if id != ClientID || secret != ClientSecret {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "access_denied"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"access_token": AccessToken,
		"token_type":   "Bearer",
		"expires_in":   3600,
	})
}

func (s *Server) listDirectory(w http.ResponseWriter, r *http.Request) {
	if s.DirectoryStatus != 0 {
		writeJSON(w, s.DirectoryStatus, map[string]string{"error": "directory unavailable"})
		return
	}
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	perPage, err := strconv.Atoi(r.URL.Query().Get("per_page"))
	if err != nil || perPage < 1 || perPage > 100 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "per_page must be between 1 and 100"})
		return
	}

	if s.DirectoryPageCap > 0 {
		perPage = min(perPage, s.DirectoryPageCap)
	}

	var ids []string
	kind := chi.URLParam(r, "kind")
	switch kind {
	case "users":
		ids = s.DirectoryUsers
	case "groups":
		ids = s.DirectoryGroups
	default:
		w.WriteHeader(http.StatusNotFound)
		return
	}

	start := page * perPage
	end := start + perPage
	if start > len(ids) {
		start = len(ids)
	}
	if end > len(ids) {
		end = len(ids)
	}

	resp := map[string]interface{}{
		"start":  start,
		"limit":  perPage,
		"length": end - start,
		"total":  len(ids),
	}
	items := make([]map[string]string, 0, end-start)
	for _, id := range ids[start:end] {
		if kind == "users" {
			items = append(items, map[string]string{"user_id": id})
		} else {
			items = append(items, map[string]string{"id": id})
		}
	}
	resp[kind] = items
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) createGroup(w http.ResponseWriter, r *http.Request) {
	var req groups.CreateGroupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name required"})
		return
	}
	g := &groups.Group{
		ID:           uuid.NewString(),
		Name:         req.Name,
		Description:  req.Description,
		Public:       req.Public,
		Discoverable: req.Discoverable,
	}
	s.mu.Lock()
	s.groups[g.ID] = g
	s.mu.Unlock()
	writeJSON(w, http.StatusCreated, g)
}

func (s *Server) patchGroup(w http.ResponseWriter, r *http.Request) {
	var req groups.PatchGroupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid body"})
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.groups[chi.URLParam(r, "id")]
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "group not found"})
		return
	}
	if req.OldID != nil {
		g.OldID = *req.OldID
	}
	writeJSON(w, http.StatusOK, g)
}

func (s *Server) addMembers(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.addCalls++
	call := s.addCalls
	s.mu.Unlock()

	if s.OnAddMembers != nil {
		s.OnAddMembers(call)
	}
	if s.AddStatus != nil {
		if status := s.AddStatus(call); status != 0 && status != http.StatusOK {
			writeJSON(w, status, map[string]string{"error": "injected failure"})
			return
		}
	}

	var req groups.AddMembersRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid body"})
		return
	}
	if len(req.Members) > 100 {
		writeJSON(w, http.StatusRequestEntityTooLarge, map[string]string{"error": "at most 100 members per call"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	id := chi.URLParam(r, "id")
	g, ok := s.groups[id]
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "group not found"})
		return
	}

	resp := groups.AddMembersResponse{Results: make([]groups.MemberResult, 0, len(req.Members))}
	for _, m := range req.Members {
		res := groups.MemberResult{ID: m.ID, Type: m.Type, Status: groups.StatusSuccess}
		switch {
		case s.RequireOldID && g.OldID == "":
			res.Status, res.Error = groups.StatusFailed, "group has no oldId"
		case s.FailMember != nil && s.FailMember(m.ID):
			res.Status, res.Error = groups.StatusFailed, "member not found"
		default:
			s.members[id] = append(s.members[id], m)
		}
		resp.Results = append(resp.Results, res)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) deleteGroup(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if s.DeleteStatus != http.StatusNoContent && s.DeleteStatus != http.StatusOK {
		writeJSON(w, s.DeleteStatus, map[string]string{"error": "injected failure"})
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.groups[id]; !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "group not found"})
		return
	}
	delete(s.groups, id)
	delete(s.members, id)
	s.deleted = append(s.deleted, id)
	w.WriteHeader(s.DeleteStatus)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
