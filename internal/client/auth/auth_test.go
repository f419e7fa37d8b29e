package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateToken(t *testing.T) {
	now := time.Now()

	// Valid token (expires in 1 hour)
	assert.NoError(t, ValidateToken(now.Add(1*time.Hour)))

	// Token expired (1 hour ago)
	assert.Error(t, ValidateToken(now.Add(-1*time.Hour)))

	// Token within clock skew tolerance (expired 4 minutes ago, tolerance ±5 minutes)
	assert.NoError(t, ValidateToken(now.Add(-4*time.Minute)))

	// Token too far in future (indicates clock issues)
	assert.Error(t, ValidateToken(now.Add(25*time.Hour)))
}

type tokenServer struct {
	*httptest.Server
	issued   int32
	audience atomic.Value
	expires  int
}

func newTokenServer(t *testing.T, expiresIn int) *tokenServer {
	t.Helper()
	ts := &tokenServer{expires: expiresIn}

	r := chi.NewRouter()
	r.Post("/oauth/token", func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil || r.PostForm.Get("grant_type") != "client_credentials" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		id, secret, ok := r.BasicAuth()
		if !ok {
			id, secret = r.PostForm.Get("client_id"), r.PostForm.Get("client_secret")
		}
		if id != "loadtest-client" || secret != "s3cret" {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":"access_denied"}`))
			return
		}
		ts.audience.Store(r.PostForm.Get("audience"))
		n := atomic.AddInt32(&ts.issued, 1)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"access_token": fmt.Sprintf("token-%d", n),
			"token_type":   "Bearer",
			"expires_in":   ts.expires,
		})
	})
	r.Get("/whoami", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(r.Header.Get("Authorization")))
	})

	ts.Server = httptest.NewServer(r)
	t.Cleanup(ts.Close)
	return ts
}

func TestFetchTokenAndAuthenticatedClient(t *testing.T) {
	srv := newTokenServer(t, 3600)

	source := NewTokenSource(context.Background(), Config{
		TokenURL:     srv.URL + "/oauth/token",
		ClientID:     "loadtest-client",
		ClientSecret: "s3cret",
		Audience:     "https://groups.example.com",
	}, srv.Client())

	tok, err := FetchToken(source)
	require.NoError(t, err)
	assert.Equal(t, "token-1", tok.AccessToken)
	assert.Equal(t, "https://groups.example.com", srv.audience.Load())

	client := NewHTTPClient(source, srv.Client().Transport, 5*time.Second)
	for i := 0; i < 3; i++ {
		resp, err := client.Get(srv.URL + "/whoami")
		require.NoError(t, err)
		var buf [64]byte
		n, _ := resp.Body.Read(buf[:])
		resp.Body.Close()
		assert.Equal(t, "Bearer token-1", string(buf[:n]))
	}
	assert.Equal(t, int32(1), atomic.LoadInt32(&srv.issued), "token should be cached across requests")
}

func TestFetchTokenRejectedCredentials(t *testing.T) {
	srv := newTokenServer(t, 3600)

	source := NewTokenSource(context.Background(), Config{
		TokenURL:     srv.URL + "/oauth/token",
		ClientID:     "loadtest-client",
		ClientSecret: "wrong",
	}, srv.Client())

	_, err := FetchToken(source)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fetch M2M token")
}
