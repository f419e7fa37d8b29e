// Package auth obtains machine-to-machine access tokens for the group and
// directory APIs.
//
// Purpose:
//
//	Exchange client credentials for a bearer token at the identity provider,
//	cache it for the run, and hand the other clients an *http.Client that
//	attaches it. Token expiry is checked with a ±5 minute clock skew tolerance
//	so clock drift on CI runners produces a clear error instead of 401s.
//
// Dependencies:
//   - golang.org/x/oauth2/clientcredentials: Client credentials grant
//
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

const (
	// ClockSkewTolerance is the acceptable clock skew for token validation (±5 minutes).
	ClockSkewTolerance = 5 * time.Minute
)

// Config holds M2M client credentials.
type Config struct {
	TokenURL     string
	ClientID     string
	ClientSecret string
	Audience     string // sent as the "audience" form parameter when set
	Scopes       []string
}

// NewTokenSource returns a caching token source for the client credentials
// grant. httpClient is used to reach the token endpoint; nil means
// http.DefaultClient.
func NewTokenSource(ctx context.Context, cfg Config, httpClient *http.Client) oauth2.TokenSource {
	cc := &clientcredentials.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		TokenURL:     cfg.TokenURL,
		Scopes:       cfg.Scopes,
	}
	if cfg.Audience != "" {
		cc.EndpointParams = url.Values{"audience": {cfg.Audience}}
	}
	if httpClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, httpClient)
	}
	return cc.TokenSource(ctx)
}

// FetchToken obtains a token from ts and validates its expiry.
func FetchToken(ts oauth2.TokenSource) (*oauth2.Token, error) {
	tok, err := ts.Token()
	if err != nil {
		return nil, fmt.Errorf("fetch M2M token: %w", err)
	}
	if tok.AccessToken == "" {
		return nil, errors.New("fetch M2M token: empty access token")
	}
	if !tok.Expiry.IsZero() {
		if err := ValidateToken(tok.Expiry); err != nil {
			return nil, err
		}
	}
	return tok, nil
}

// NewHTTPClient returns a client that authenticates every request with a
// token from ts. base supplies the transport; nil means http.DefaultTransport.
func NewHTTPClient(ts oauth2.TokenSource, base http.RoundTripper, timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: timeout,
		Transport: &oauth2.Transport{
			Source: ts,
			Base:   base,
		},
	}
}

// ValidateToken validates a token expiration with clock skew tolerance.
func ValidateToken(expiresAt time.Time) error {
	now := time.Now()
	skewedExpiry := expiresAt.Add(ClockSkewTolerance)

	if now.After(skewedExpiry) {
		return errors.New("token expired (may be due to clock drift - check system time)")
	}

	// Check if token is too far in the future (also indicates clock issues)
	skewedNow := now.Add(ClockSkewTolerance)
	if expiresAt.After(skewedNow.Add(24 * time.Hour)) {
		return errors.New("token expiration too far in future (check system time)")
	}

	return nil
}
