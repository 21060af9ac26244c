package probe_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	infrahttp "github.com/jonesrussell/north-cloud/link-health/infrastructure/http"
	"github.com/jonesrussell/north-cloud/link-health/infrastructure/logger"
	"github.com/jonesrussell/north-cloud/link-health/internal/probe"
)

func newProber(timeout time.Duration) *probe.Prober {
	return probe.New(infrahttp.NewClient(nil), timeout, logger.NewNop())
}

func TestProbe_OK(t *testing.T) {
	t.Parallel()

	var method string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		method = r.Method
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	res := newProber(time.Second).Probe(context.Background(), srv.URL+"/article")

	require.NoError(t, res.Err)
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, http.MethodHead, method)
	assert.Empty(t, res.RedirectTarget)
	assert.Equal(t, probe.Reachable, res.Outcome())
}

func TestProbe_FollowsRedirect(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("/old", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/new", http.StatusMovedPermanently)
	})
	mux.HandleFunc("/new", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	res := newProber(time.Second).Probe(context.Background(), srv.URL+"/old")

	require.NoError(t, res.Err)
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, srv.URL+"/new", res.RedirectTarget)
}

func TestProbe_FallsBackToGETOn405(t *testing.T) {
	t.Parallel()

	var methods []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		methods = append(methods, r.Method)
		if r.Method == http.MethodHead {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		_, _ = w.Write([]byte("hello"))
	}))
	defer srv.Close()

	res := newProber(time.Second).Probe(context.Background(), srv.URL)

	require.NoError(t, res.Err)
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, []string{http.MethodHead, http.MethodGet}, methods)
}

func TestProbe_NotFound(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	res := newProber(time.Second).Probe(context.Background(), srv.URL+"/gone")

	require.NoError(t, res.Err)
	assert.Equal(t, http.StatusNotFound, res.StatusCode)
	assert.Equal(t, probe.DeadWithFallback, res.Outcome())
}

func TestProbe_Timeout(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	res := newProber(50*time.Millisecond).Probe(context.Background(), srv.URL)

	require.Error(t, res.Err)
	assert.Zero(t, res.StatusCode)
	assert.Equal(t, probe.KindTimeout, probe.Kind(res.Err))
	assert.Contains(t, res.Err.Error(), "timeout")
	assert.Equal(t, probe.DeadWithFallback, res.Outcome())
}

func TestProbe_ConnectionRefused(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.NotFoundHandler())
	addr := srv.URL
	srv.Close()

	res := newProber(time.Second).Probe(context.Background(), addr)

	require.Error(t, res.Err)
	assert.Zero(t, res.StatusCode)
	assert.NotEmpty(t, probe.Kind(res.Err))
}

func TestProbe_InvalidURL(t *testing.T) {
	t.Parallel()

	res := newProber(time.Second).Probe(context.Background(), "http://[::1")

	require.Error(t, res.Err)
	assert.Equal(t, probe.KindRequest, probe.Kind(res.Err))
}

func TestClassify(t *testing.T) {
	t.Parallel()

	tests := map[int]probe.Outcome{
		0:   probe.DeadWithFallback,
		200: probe.Reachable,
		204: probe.Reachable,
		301: probe.Reachable,
		302: probe.Reachable,
		304: probe.DeadNoFallback,
		307: probe.DeadNoFallback,
		401: probe.DeadNoFallback,
		403: probe.DeadNoFallback,
		404: probe.DeadWithFallback,
		410: probe.DeadNoFallback,
		429: probe.DeadNoFallback,
		500: probe.DeadWithFallback,
		503: probe.DeadWithFallback,
	}

	for status, want := range tests {
		assert.Equal(t, want, probe.Classify(status), "status %d", status)
	}
}
