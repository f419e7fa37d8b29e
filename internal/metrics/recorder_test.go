package metrics

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func histogramSampleCount(t *testing.T, r *Recorder, name string) uint64 {
	t.Helper()
	families, err := r.Gatherer().Gather()
	require.NoError(t, err)

	var found *dto.MetricFamily
	for _, mf := range families {
		if mf.GetName() == name {
			found = mf
		}
	}
	require.NotNil(t, found, "metric family %s not gathered", name)
	require.Len(t, found.GetMetric(), 1)
	return found.GetMetric()[0].GetHistogram().GetSampleCount()
}

func TestObserveChunk(t *testing.T) {
	r := NewRecorder()

	r.ObserveChunk(OutcomeOK, 120*time.Millisecond, 100, 0)
	r.ObserveChunk(OutcomeMemberFailures, 200*time.Millisecond, 98, 2)

	assert.Equal(t, 1.0, testutil.ToFloat64(r.Chunks.WithLabelValues(OutcomeOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.Chunks.WithLabelValues(OutcomeMemberFailures)))
	assert.Equal(t, 198.0, testutil.ToFloat64(r.MembersAdded))
	assert.Equal(t, 2.0, testutil.ToFloat64(r.MembersFailed))
	assert.Equal(t, uint64(2), histogramSampleCount(t, r, "groups_loadtest_chunk_duration_seconds"))
}

func TestObserveDirectoryPageAndRun(t *testing.T) {
	r := NewRecorder()

	r.ObserveDirectoryPage(50 * time.Millisecond)
	r.ObserveDirectoryPage(70 * time.Millisecond)
	assert.Equal(t, 2.0, testutil.ToFloat64(r.DirectoryPages))

	r.ObserveRun(3*time.Second, nil)
	assert.Equal(t, 1.0, testutil.ToFloat64(r.RunSuccess))
	assert.Equal(t, 3.0, testutil.ToFloat64(r.LastRunSeconds))

	r.ObserveRun(time.Second, errors.New("boom"))
	assert.Equal(t, 0.0, testutil.ToFloat64(r.RunSuccess))
}

func TestNilRecorderIsSafe(t *testing.T) {
	var r *Recorder
	r.ObserveChunk(OutcomeOK, time.Second, 1, 0)
	r.ObserveDirectoryPage(time.Second)
	r.ObserveRun(time.Second, nil)
	require.NoError(t, r.Push(context.Background(), "http://unused", "job", ""))
}

func TestPush(t *testing.T) {
	var (
		mu     sync.Mutex
		method string
		path   string
		body   string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		data, _ := io.ReadAll(req.Body)
		mu.Lock()
		method, path, body = req.Method, req.URL.Path, string(data)
		mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	r := NewRecorder()
	r.ObserveChunk(OutcomeOK, time.Second, 100, 0)

	require.NoError(t, r.Push(context.Background(), srv.URL, "groups_loadtest", "run-1"))

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, http.MethodPut, method)
	assert.Equal(t, "/metrics/job/groups_loadtest/instance/run-1", path)
	assert.NotEmpty(t, body)
}

func TestPushFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	err := NewRecorder().Push(context.Background(), srv.URL, "groups_loadtest", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "push metrics")
}

func TestPushWithoutURLIsNoop(t *testing.T) {
	require.NoError(t, NewRecorder().Push(context.Background(), "", "groups_loadtest", ""))
}
