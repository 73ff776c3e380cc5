package resilience

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"syscall"
)

// ErrOffline means no network connectivity was detected; the operation was
// never attempted.
var ErrOffline = errors.New("no network connection, check your connection")

// ErrBackendUnhealthy means the health probe classified the backend as too
// slow or unreachable; the operation was never attempted.
var ErrBackendUnhealthy = errors.New("backend is not responding normally")

// RetryExhaustedError is returned when every attempt failed with a retryable
// error. LastTimeout distinguishes a final deadline from a final network
// failure.
type RetryExhaustedError struct {
	Op          string
	Attempts    int
	LastTimeout bool
	Err         error
}

func (e *RetryExhaustedError) Error() string {
	if e.LastTimeout {
		return fmt.Sprintf("%s: taking longer than expected after %d attempts: %v", e.Op, e.Attempts, e.Err)
	}
	return fmt.Sprintf("%s: network failure after %d attempts: %v", e.Op, e.Attempts, e.Err)
}

func (e *RetryExhaustedError) Unwrap() error {
	return e.Err
}

type transientError struct {
	err error
}

func (e *transientError) Error() string { return e.err.Error() }
func (e *transientError) Unwrap() error { return e.err }

// Transient marks an error as retryable regardless of its type. Callers use
// it for failures they know are worth another attempt, like a gateway 5xx.
func Transient(err error) error {
	if err == nil {
		return nil
	}
	return &transientError{err: err}
}

// IsTimeout reports whether err was caused by a deadline rather than by the
// remote side.
func IsTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return true
	}
	return false
}

// IsRetryable classifies an attempt failure. Timeouts and transient
// network-layer failures are retryable; anything else (validation, auth,
// 4xx-class responses surfaced as errors) is terminal.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	if IsTimeout(err) {
		return true
	}
	var te *transientError
	if errors.As(err, &te) {
		return true
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}
	if errors.Is(err, syscall.ECONNRESET) || errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.EPIPE) {
		return true
	}
	// Transport errors that reach us as flattened strings.
	msg := err.Error()
	for _, marker := range []string{"connection reset", "connection refused", "fetch failed", "NetworkError", "unexpected EOF"} {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}
