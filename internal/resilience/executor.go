package resilience

import (
	"context"
	"fmt"
	"time"

	"github.com/pepsfoods/checkout-backend/pkg/logger"
)

// Metrics receives one event per attempt. Used by the sign-in path; nil
// everywhere else.
type Metrics interface {
	Record(op string, attempt int, duration time.Duration, err error)
}

// Options bound one resilient call.
type Options struct {
	// Timeout applies per attempt, not across the whole call.
	Timeout time.Duration
	// MaxRetries is the number of retries after the first attempt, so the
	// operation runs at most MaxRetries+1 times.
	MaxRetries int
	// RetryDelays holds the sleep before retry n; the last entry repeats if
	// retries outnumber entries.
	RetryDelays []time.Duration
	// HealthGate asks the prober before the first attempt and fails fast on
	// an unhealthy backend.
	HealthGate bool
}

var defaultRetryDelays = []time.Duration{time.Second, 3 * time.Second, 5 * time.Second}

// DefaultOptions suits ordinary persistence calls.
func DefaultOptions() Options {
	return Options{Timeout: 10 * time.Second, MaxRetries: 2, RetryDelays: defaultRetryDelays}
}

// Executor wraps any outbound call with the connectivity gate, the optional
// health gate, per-attempt timeouts and classified retry with progressive
// backoff. One explicit loop, bounded attempts, no recursion.
type Executor struct {
	monitor Monitor
	prober  HealthChecker
	metrics Metrics
	log     *logger.Logger

	// Replaced in tests to avoid real sleeps.
	sleep func(ctx context.Context, d time.Duration) error
}

func NewExecutor(monitor Monitor, prober HealthChecker, log *logger.Logger) *Executor {
	return &Executor{
		monitor: monitor,
		prober:  prober,
		log:     log,
		sleep:   sleepContext,
	}
}

// WithMetrics returns a shallow copy that emits per-attempt metrics.
func (e *Executor) WithMetrics(m Metrics) *Executor {
	clone := *e
	clone.metrics = m
	return &clone
}

// Do runs op under the configured policy. Terminal failures are returned
// verbatim; retryable failures are retried until the budget runs out and
// then surfaced as a RetryExhaustedError.
func (e *Executor) Do(ctx context.Context, name string, opts Options, op func(ctx context.Context) error) error {
	if !e.monitor.Online(ctx) {
		return fmt.Errorf("%s: %w", name, ErrOffline)
	}
	if opts.HealthGate && e.prober != nil {
		if h := e.prober.Check(ctx); !h.Healthy {
			e.log.Warn("health gate rejected call", "op", name, "latency", h.Latency, "reason", h.Reason)
			return fmt.Errorf("%s: %w", name, ErrBackendUnhealthy)
		}
	}

	delays := opts.RetryDelays
	if len(delays) == 0 {
		delays = defaultRetryDelays
	}

	var lastErr error
	var lastTimeout bool
	for attempt := 0; attempt <= opts.MaxRetries; attempt++ {
		attemptCtx := ctx
		cancel := func() {}
		if opts.Timeout > 0 {
			attemptCtx, cancel = context.WithTimeout(ctx, opts.Timeout)
		}
		start := time.Now()
		err := op(attemptCtx)
		elapsed := time.Since(start)
		timedOut := attemptCtx.Err() == context.DeadlineExceeded
		cancel()

		if e.metrics != nil {
			e.metrics.Record(name, attempt, elapsed, err)
		}
		if err == nil {
			return nil
		}
		if ctx.Err() != nil {
			// The caller is gone; don't keep retrying on its behalf.
			return ctx.Err()
		}

		timedOut = timedOut || IsTimeout(err)
		if !timedOut && !IsRetryable(err) {
			return err
		}
		lastErr, lastTimeout = err, timedOut
		e.log.Warn("retryable failure", "op", name, "attempt", attempt+1, "timeout", timedOut, "error", err)

		if attempt < opts.MaxRetries {
			if err := e.sleep(ctx, delayFor(delays, attempt)); err != nil {
				return err
			}
			if !e.monitor.Online(ctx) {
				return fmt.Errorf("%s: %w", name, ErrOffline)
			}
		}
	}
	return &RetryExhaustedError{Op: name, Attempts: opts.MaxRetries + 1, LastTimeout: lastTimeout, Err: lastErr}
}

// DoValue is Do for operations that produce a result.
func DoValue[T any](ctx context.Context, e *Executor, name string, opts Options, op func(ctx context.Context) (T, error)) (T, error) {
	var out T
	err := e.Do(ctx, name, opts, func(ctx context.Context) error {
		v, err := op(ctx)
		if err != nil {
			return err
		}
		out = v
		return nil
	})
	return out, err
}

func delayFor(delays []time.Duration, attempt int) time.Duration {
	if attempt < len(delays) {
		return delays[attempt]
	}
	return delays[len(delays)-1]
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
