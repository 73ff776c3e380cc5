package resilience

import (
	"context"
	"errors"
	"syscall"
	"testing"
	"time"

	"github.com/pepsfoods/checkout-backend/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubMonitor struct {
	online func() bool
}

func (m *stubMonitor) Online(ctx context.Context) bool {
	if m.online == nil {
		return true
	}
	return m.online()
}

func (m *stubMonitor) WaitOnline(ctx context.Context, timeout time.Duration) error {
	if m.Online(ctx) {
		return nil
	}
	return ErrOffline
}

type stubProber struct {
	health Health
}

func (p *stubProber) Check(ctx context.Context) Health {
	return p.health
}

func newTestExecutor(monitor Monitor, prober HealthChecker) (*Executor, *[]time.Duration) {
	e := NewExecutor(monitor, prober, logger.NewNop())
	slept := &[]time.Duration{}
	e.sleep = func(ctx context.Context, d time.Duration) error {
		*slept = append(*slept, d)
		return nil
	}
	return e, slept
}

func TestDoRetriesThenSucceeds(t *testing.T) {
	e, slept := newTestExecutor(&stubMonitor{}, nil)

	calls := 0
	err := e.Do(context.Background(), "fetch", Options{
		Timeout:     time.Second,
		MaxRetries:  3,
		RetryDelays: []time.Duration{time.Millisecond, 3 * time.Millisecond, 5 * time.Millisecond},
	}, func(ctx context.Context) error {
		calls++
		if calls <= 2 {
			return syscall.ECONNRESET
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	require.Equal(t, []time.Duration{time.Millisecond, 3 * time.Millisecond}, *slept)
	for i := 1; i < len(*slept); i++ {
		assert.Greater(t, (*slept)[i], (*slept)[i-1])
	}
}

func TestDoTerminalErrorNotRetried(t *testing.T) {
	e, slept := newTestExecutor(&stubMonitor{}, nil)

	terminal := errors.New("invalid order payload")
	calls := 0
	err := e.Do(context.Background(), "create order", Options{Timeout: time.Second, MaxRetries: 3}, func(ctx context.Context) error {
		calls++
		return terminal
	})

	assert.Equal(t, 1, calls)
	assert.Equal(t, terminal, err)
	assert.Empty(t, *slept)
}

func TestDoOfflineFailsFast(t *testing.T) {
	e, _ := newTestExecutor(&stubMonitor{online: func() bool { return false }}, nil)

	calls := 0
	err := e.Do(context.Background(), "fetch", DefaultOptions(), func(ctx context.Context) error {
		calls++
		return nil
	})

	assert.Equal(t, 0, calls)
	assert.ErrorIs(t, err, ErrOffline)
}

func TestDoOfflineBetweenAttempts(t *testing.T) {
	checks := 0
	e, _ := newTestExecutor(&stubMonitor{online: func() bool {
		checks++
		return checks == 1 // online for the gate, offline after the first retry sleep
	}}, nil)

	calls := 0
	err := e.Do(context.Background(), "fetch", Options{Timeout: time.Second, MaxRetries: 2}, func(ctx context.Context) error {
		calls++
		return syscall.ECONNRESET
	})

	assert.Equal(t, 1, calls)
	assert.ErrorIs(t, err, ErrOffline)
}

func TestDoExhaustedDistinguishesTimeout(t *testing.T) {
	tests := []struct {
		name    string
		attempt error
		timeout bool
		wantMsg string
	}{
		{"timeout", context.DeadlineExceeded, true, "taking longer than expected"},
		{"network", syscall.ECONNREFUSED, false, "network failure"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, _ := newTestExecutor(&stubMonitor{}, nil)
			calls := 0
			err := e.Do(context.Background(), "verify payment", Options{Timeout: time.Second, MaxRetries: 2}, func(ctx context.Context) error {
				calls++
				return tt.attempt
			})

			assert.Equal(t, 3, calls)
			var exhausted *RetryExhaustedError
			require.ErrorAs(t, err, &exhausted)
			assert.Equal(t, 3, exhausted.Attempts)
			assert.Equal(t, tt.timeout, exhausted.LastTimeout)
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestDoAttemptTimeoutCancelsInFlightCall(t *testing.T) {
	e, _ := newTestExecutor(&stubMonitor{}, nil)

	err := e.Do(context.Background(), "slow fetch", Options{Timeout: 10 * time.Millisecond, MaxRetries: 0}, func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})

	var exhausted *RetryExhaustedError
	require.ErrorAs(t, err, &exhausted)
	assert.True(t, exhausted.LastTimeout)
}

func TestDoHealthGate(t *testing.T) {
	e, _ := newTestExecutor(&stubMonitor{}, &stubProber{health: Health{Healthy: false, Reason: "latency 6s over threshold 5s"}})

	calls := 0
	opts := DefaultOptions()
	opts.HealthGate = true
	err := e.Do(context.Background(), "fetch", opts, func(ctx context.Context) error {
		calls++
		return nil
	})

	assert.Equal(t, 0, calls)
	assert.ErrorIs(t, err, ErrBackendUnhealthy)
}

func TestDoValueReturnsResult(t *testing.T) {
	e, _ := newTestExecutor(&stubMonitor{}, nil)

	calls := 0
	got, err := DoValue(context.Background(), e, "quote", Options{Timeout: time.Second, MaxRetries: 2}, func(ctx context.Context) (int, error) {
		calls++
		if calls == 1 {
			return 0, syscall.ECONNRESET
		}
		return 42, nil
	})

	require.NoError(t, err)
	assert.Equal(t, 42, got)
	assert.Equal(t, 2, calls)
}

func TestDoCallerCancellation(t *testing.T) {
	e, _ := newTestExecutor(&stubMonitor{}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := e.Do(ctx, "fetch", Options{Timeout: time.Second, MaxRetries: 5}, func(ctx context.Context) error {
		calls++
		cancel()
		return syscall.ECONNRESET
	})

	assert.Equal(t, 1, calls)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMetricsRecordedPerAttempt(t *testing.T) {
	e, _ := newTestExecutor(&stubMonitor{}, nil)

	var events []int
	rec := metricsFunc(func(op string, attempt int, d time.Duration, err error) {
		events = append(events, attempt)
	})
	calls := 0
	err := e.WithMetrics(rec).Do(context.Background(), "sign in", Options{Timeout: time.Second, MaxRetries: 2}, func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return syscall.ECONNRESET
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 2}, events)
}

type metricsFunc func(op string, attempt int, d time.Duration, err error)

func (f metricsFunc) Record(op string, attempt int, d time.Duration, err error) {
	f(op, attempt, d, err)
}
