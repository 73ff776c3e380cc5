package resilience

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/pepsfoods/checkout-backend/pkg/logger"
	"github.com/stretchr/testify/assert"
)

func okServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func slowServer(t *testing.T, delay time.Duration) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(delay)
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestProberHealthyUnderThreshold(t *testing.T) {
	auth := okServer(t)
	data := okServer(t)
	p := NewProber(auth.URL, data.URL, 2*time.Second, logger.NewNop())

	h := p.Check(context.Background())
	assert.True(t, h.Healthy)
	assert.Empty(t, h.Reason)
}

func TestProberLatencyOverThreshold(t *testing.T) {
	auth := okServer(t)
	data := slowServer(t, 60*time.Millisecond)
	p := NewProber(auth.URL, data.URL, 2*time.Second, logger.NewNop())
	p.threshold = 10 * time.Millisecond

	h := p.Check(context.Background())
	assert.False(t, h.Healthy)
	assert.Contains(t, h.Reason, "over threshold")
	// The slower endpoint sets the reported latency.
	assert.GreaterOrEqual(t, h.Latency, 60*time.Millisecond)
}

func TestProberServerErrorUnhealthy(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	t.Cleanup(srv.Close)
	p := NewProber(srv.URL, "", 2*time.Second, logger.NewNop())

	h := p.Check(context.Background())
	assert.False(t, h.Healthy)
	assert.Contains(t, h.Reason, "probe returned 503")
}

func TestProberUnreachableEndpoint(t *testing.T) {
	addr := closedPortAddr(t)
	p := NewProber("http://"+addr, "", 2*time.Second, logger.NewNop())

	h := p.Check(context.Background())
	assert.False(t, h.Healthy)
	assert.NotEmpty(t, h.Reason)
}

func TestProberNoTargetsIsHealthy(t *testing.T) {
	p := NewProber("", "", 2*time.Second, logger.NewNop())
	assert.True(t, p.Check(context.Background()).Healthy)
}
