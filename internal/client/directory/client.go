// Package directory reads member identifiers from the paginated directory API.
//
// Purpose:
//
//	Fetch exactly N real user or group ids to mix into a load test run. Pages
//	are requested sequentially with a capped page size and a fixed pause in
//	between so the external directory is not hammered by a test that is
//	meant to load a different service.
//
// Dependencies:
//   - internal/client: Retry with exponential backoff for idempotent GETs
//   - internal/members: Member type
//
package directory

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/otherjamesbrown/ai-aas/services/groups-loadtest/internal/client"
	"github.com/otherjamesbrown/ai-aas/services/groups-loadtest/internal/members"
)

const (
	// MaxPageSize is the largest page the directory API serves.
	MaxPageSize = 100

	KindUsers  = "users"
	KindGroups = "groups"
)

// User is a directory user entry.
type User struct {
	UserID string `json:"user_id"`
}

// Group is a directory group entry.
type Group struct {
	ID string `json:"id"`
}

// Page is one page of a directory listing.
type Page struct {
	Start  int     `json:"start"`
	Limit  int     `json:"limit"`
	Length int     `json:"length"`
	Total  int     `json:"total"`
	Users  []User  `json:"users,omitempty"`
	Groups []Group `json:"groups,omitempty"`
}

// Members converts the page entries of the given kind to members.
func (p *Page) Members(kind string) []members.Member {
	if kind == KindGroups {
		out := make([]members.Member, 0, len(p.Groups))
		for _, g := range p.Groups {
			out = append(out, members.Member{ID: g.ID, Type: members.TypeGroup})
		}
		return out
	}
	out := make([]members.Member, 0, len(p.Users))
	for _, u := range p.Users {
		out = append(out, members.Member{ID: u.UserID, Type: members.TypeUser})
	}
	return out
}

// PageStats describes one fetched page.
type PageStats struct {
	Page     int
	Count    int
	Duration time.Duration
}

// Config controls the reader.
type Config struct {
	Kind      string        // users or groups (default users)
	PageSize  int           // capped at MaxPageSize (default MaxPageSize)
	PageDelay time.Duration // pause between consecutive pages
	Retry     client.RetryConfig
	Logger    *zap.Logger
	// OnPage, when set, is called after every successful page.
	OnPage func(PageStats)
}

// Client provides access to the directory API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	cfg        Config
	sleep      func(ctx context.Context, d time.Duration) error
}

// NewClient creates a new directory API client. httpClient should carry
// authentication, see auth.NewHTTPClient.
func NewClient(baseURL string, httpClient *http.Client, cfg Config) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if cfg.Kind == "" {
		cfg.Kind = KindUsers
	}
	if cfg.PageSize <= 0 || cfg.PageSize > MaxPageSize {
		cfg.PageSize = MaxPageSize
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: httpClient,
		cfg:        cfg,
		sleep:      sleepContext,
	}
}

// ListPage fetches one page of the configured kind.
func (c *Client) ListPage(ctx context.Context, page, perPage int) (*Page, error) {
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("per_page", strconv.Itoa(perPage))
	q.Set("include_totals", "true")
	u := fmt.Sprintf("%s/%s?%s", c.baseURL, c.cfg.Kind, q.Encode())

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json")

	resp, err := client.DoWithRetry(ctx, c.httpClient, httpReq, c.cfg.Retry)
	if err != nil {
		return nil, fmt.Errorf("list %s page %d: %w", c.cfg.Kind, page, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("list %s page %d: %w", c.cfg.Kind, page, client.NewStatusError(http.MethodGet, u, resp))
	}

	var result Page
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("list %s page %d: decode response: %w", c.cfg.Kind, page, err)
	}
	return &result, nil
}

// FetchMembers returns exactly n members read page by page. The page size is
// fixed for the whole walk so page offsets stay aligned; the last page is
// truncated to n. A page shorter than requested ends the walk only when the
// reported total has been reached, so a server that caps its page size is
// read to the end. Without a total, a short page is taken as the end. If the
// directory runs out first an error reports how many were found.
func (c *Client) FetchMembers(ctx context.Context, n int) ([]members.Member, error) {
	if n <= 0 {
		return nil, nil
	}

	perPage := min(c.cfg.PageSize, n)
	out := make([]members.Member, 0, n)
	seen := 0

	for page := 0; len(out) < n; page++ {
		if page > 0 && c.cfg.PageDelay > 0 {
			if err := c.sleep(ctx, c.cfg.PageDelay); err != nil {
				return nil, err
			}
		}

		start := time.Now()
		p, err := c.ListPage(ctx, page, perPage)
		if err != nil {
			return nil, err
		}
		got := p.Members(c.cfg.Kind)
		elapsed := time.Since(start)
		served := len(got)
		seen += served

		c.cfg.Logger.Debug("directory page fetched",
			zap.String("kind", c.cfg.Kind),
			zap.Int("page", page),
			zap.Int("count", len(got)),
			zap.Duration("duration", elapsed),
		)
		if c.cfg.OnPage != nil {
			c.cfg.OnPage(PageStats{Page: page, Count: len(got), Duration: elapsed})
		}

		if remaining := n - len(out); len(got) > remaining {
			got = got[:remaining]
		}
		out = append(out, got...)

		if len(out) < n && (served == 0 || (served < perPage && seen >= p.Total)) {
			return nil, fmt.Errorf("directory exhausted: found %d of %d requested %s", len(out), n, c.cfg.Kind)
		}
	}

	return out, nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
