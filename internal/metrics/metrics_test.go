package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunCounters(t *testing.T) {
	m := New("qadash")
	m.RunTriggered("UAT")
	m.RunTriggered("UAT")
	m.RunCompleted("Pass")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.RunsTriggered.WithLabelValues("UAT")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RunsCompleted.WithLabelValues("Pass")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RunsActive))
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.RunTriggered("UAT")
	m.RunCompleted("Pass")
	m.ResultSynthesized("Pass")
	m.ProjectCreated()
	m.LoggedIn()

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusTeapot) })
	rec := httptest.NewRecorder()
	m.Middleware(next).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusTeapot, rec.Code)
}

func TestMiddlewareAndHandler(t *testing.T) {
	m := New("qadash")
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNotFound) })
	m.Middleware(next).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/x", nil))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequests.WithLabelValues("GET", "404")))

	srv := httptest.NewServer(m.Handler())
	defer srv.Close()
	res, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer res.Body.Close()
	body, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(body), `qadash_http_requests_total{code="404",method="GET"} 1`))
}
