package directory

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/otherjamesbrown/ai-aas/services/groups-loadtest/internal/client"
	"github.com/otherjamesbrown/ai-aas/services/groups-loadtest/internal/members"
	"github.com/otherjamesbrown/ai-aas/services/groups-loadtest/internal/testutil/fakeservice"
)

type sleepRecorder struct {
	calls []time.Duration
}

func (s *sleepRecorder) sleep(_ context.Context, d time.Duration) error {
	s.calls = append(s.calls, d)
	return nil
}

func newTestClient(t *testing.T, srv *fakeservice.Server, cfg Config) (*Client, *sleepRecorder) {
	t.Helper()
	if cfg.Retry.MaxAttempts == 0 {
		cfg.Retry = client.NoRetry()
	}
	c := NewClient(srv.DirectoryURL(), srv.AuthorizedClient(), cfg)
	rec := &sleepRecorder{}
	c.sleep = rec.sleep
	return c, rec
}

func perPageValues(t *testing.T, srv *fakeservice.Server) []string {
	t.Helper()
	var out []string
	for _, r := range srv.Requests(http.MethodGet, "/directory/") {
		q, err := url.ParseQuery(r.Query)
		require.NoError(t, err)
		assert.Equal(t, "true", q.Get("include_totals"))
		out = append(out, q.Get("page")+"/"+q.Get("per_page"))
	}
	return out
}

func TestFetchMembersReturnsExactlyN(t *testing.T) {
	tests := []struct {
		name      string
		available int
		pageSize  int
		n         int
		wantPages []string
	}{
		{name: "single partial page", available: 500, pageSize: 100, n: 42, wantPages: []string{"0/42"}},
		{name: "exact page boundary", available: 500, pageSize: 100, n: 200, wantPages: []string{"0/100", "1/100"}},
		{name: "across page boundary", available: 500, pageSize: 100, n: 250, wantPages: []string{"0/100", "1/100", "2/100"}},
		{name: "small pages", available: 30, pageSize: 10, n: 25, wantPages: []string{"0/10", "1/10", "2/10"}},
		{name: "page size capped", available: 300, pageSize: 500, n: 150, wantPages: []string{"0/100", "1/100"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := fakeservice.New(t, tt.available)
			c, rec := newTestClient(t, srv, Config{PageSize: tt.pageSize, PageDelay: time.Second})

			got, err := c.FetchMembers(context.Background(), tt.n)
			require.NoError(t, err)
			require.Len(t, got, tt.n)

			// Pages are contiguous, so the result is the directory prefix.
			for i, m := range got {
				assert.Equal(t, srv.DirectoryUsers[i], m.ID)
				assert.Equal(t, members.TypeUser, m.Type)
			}
			assert.Equal(t, tt.wantPages, perPageValues(t, srv))
			assert.Len(t, rec.calls, len(tt.wantPages)-1, "delay only between pages")
		})
	}
}

func TestFetchMembersZero(t *testing.T) {
	srv := fakeservice.New(t, 10)
	c, _ := newTestClient(t, srv, Config{})

	got, err := c.FetchMembers(context.Background(), 0)
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Empty(t, srv.Requests(http.MethodGet, "/directory/"))
}

func TestFetchMembersGroups(t *testing.T) {
	srv := fakeservice.New(t, 0)
	srv.DirectoryGroups = []string{"grp-1", "grp-2", "grp-3"}
	c, _ := newTestClient(t, srv, Config{Kind: KindGroups})

	got, err := c.FetchMembers(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, []members.Member{
		{ID: "grp-1", Type: members.TypeGroup},
		{ID: "grp-2", Type: members.TypeGroup},
	}, got)
}

func TestFetchMembersDirectoryExhausted(t *testing.T) {
	srv := fakeservice.New(t, 150)
	c, _ := newTestClient(t, srv, Config{PageSize: 100})

	_, err := c.FetchMembers(context.Background(), 300)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "found 150 of 300")
	assert.Len(t, srv.Requests(http.MethodGet, "/directory/"), 2)
}

func TestFetchMembersReadsPastServerPageCap(t *testing.T) {
	srv := fakeservice.New(t, 200)
	srv.DirectoryPageCap = 50
	c, _ := newTestClient(t, srv, Config{PageSize: 100})

	got, err := c.FetchMembers(context.Background(), 120)
	require.NoError(t, err)
	require.Len(t, got, 120)
	for i, m := range got {
		assert.Equal(t, srv.DirectoryUsers[i], m.ID)
	}
	assert.Equal(t, []string{"0/100", "1/100", "2/100"}, perPageValues(t, srv))
}

func TestFetchMembersCappedDirectoryExhausted(t *testing.T) {
	srv := fakeservice.New(t, 80)
	srv.DirectoryPageCap = 50
	c, _ := newTestClient(t, srv, Config{PageSize: 100})

	_, err := c.FetchMembers(context.Background(), 120)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "found 80 of 120")
	assert.Len(t, srv.Requests(http.MethodGet, "/directory/"), 2)
}

func TestFetchMembersPropagatesStatusError(t *testing.T) {
	srv := fakeservice.New(t, 10)
	srv.DirectoryStatus = http.StatusForbidden
	c, _ := newTestClient(t, srv, Config{})

	_, err := c.FetchMembers(context.Background(), 5)
	require.Error(t, err)

	var statusErr *client.StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusForbidden, statusErr.StatusCode)
}

func TestFetchMembersRetriesTransientErrors(t *testing.T) {
	srv := fakeservice.New(t, 10)
	srv.DirectoryStatus = http.StatusServiceUnavailable
	c, _ := newTestClient(t, srv, Config{Retry: client.RetryConfig{
		MaxAttempts:  3,
		InitialDelay: time.Millisecond,
		MaxDelay:     time.Millisecond,
	}})

	_, err := c.FetchMembers(context.Background(), 5)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "max retry attempts (3) exceeded")
	assert.Len(t, srv.Requests(http.MethodGet, "/directory/"), 3)
}

func TestFetchMembersStopsOnCancelledDelay(t *testing.T) {
	srv := fakeservice.New(t, 300)
	c, _ := newTestClient(t, srv, Config{PageSize: 100, PageDelay: time.Hour})
	c.sleep = sleepContext

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := c.FetchMembers(ctx, 200)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Len(t, srv.Requests(http.MethodGet, "/directory/"), 1)
}

func TestFetchMembersReportsPages(t *testing.T) {
	srv := fakeservice.New(t, 250)
	var pages []PageStats
	c, _ := newTestClient(t, srv, Config{PageSize: 100, OnPage: func(p PageStats) {
		pages = append(pages, p)
	}})

	_, err := c.FetchMembers(context.Background(), 250)
	require.NoError(t, err)
	require.Len(t, pages, 3)
	assert.Equal(t, 100, pages[0].Count)
	assert.Equal(t, 50, pages[2].Count)
}
