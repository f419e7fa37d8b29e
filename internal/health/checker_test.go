package health

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewChecker(t *testing.T) {
	checker := NewChecker(2 * time.Second)
	require.NotNil(t, checker)
	assert.Equal(t, 2*time.Second, checker.timeout)
}

func TestNewCheckerDefault(t *testing.T) {
	checker := NewChecker(0)
	assert.Equal(t, DefaultTimeout, checker.timeout)
}

func TestCheckService(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/health":
			w.WriteHeader(http.StatusOK)
		case "/ready":
			w.WriteHeader(http.StatusNoContent)
		default:
			w.WriteHeader(http.StatusServiceUnavailable)
		}
	}))
	defer srv.Close()

	checker := NewChecker(time.Second)
	ctx := context.Background()

	h := checker.CheckService(ctx, Service{Name: "groups", URL: srv.URL + "/health"})
	assert.True(t, h.Healthy)
	assert.NoError(t, h.Error)

	h = checker.CheckService(ctx, Service{Name: "groups", URL: srv.URL + "/ready"})
	assert.True(t, h.Healthy)

	h = checker.CheckService(ctx, Service{Name: "groups", URL: srv.URL + "/down"})
	assert.False(t, h.Healthy)
	assert.Contains(t, h.ErrorMsg, "status 503")
}

func TestCheckRequiredReportsEveryUnhealthyService(t *testing.T) {
	up := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer up.Close()
	down := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer down.Close()
	unreachable := httptest.NewServer(http.NotFoundHandler())
	unreachable.Close()

	checker := NewChecker(time.Second)
	results, err := checker.CheckRequired(context.Background(),
		Service{Name: "groups", URL: up.URL + "/health"},
		Service{Name: "directory", URL: down.URL + "/health"},
		Service{Name: "other", URL: unreachable.URL + "/health"},
	)
	require.Error(t, err)
	require.Len(t, results, 3)
	assert.True(t, results[0].Healthy)

	var unavailable *UnavailableError
	require.True(t, errors.As(err, &unavailable))
	require.Len(t, unavailable.Unhealthy, 2)
	assert.Equal(t, "directory", unavailable.Unhealthy[0].Service)
	assert.Equal(t, "other", unavailable.Unhealthy[1].Service)
	assert.Contains(t, err.Error(), "service unreachable")
}

func TestCheckRequiredAllHealthy(t *testing.T) {
	up := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer up.Close()

	results, err := NewChecker(time.Second).CheckRequired(context.Background(),
		Service{Name: "groups", URL: up.URL + "/health"})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.True(t, results[0].Healthy)
}
