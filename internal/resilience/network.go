package resilience

import (
	"context"
	"net"
	"sync"
	"time"
)

// Monitor answers "do we have a network right now". Constructed explicitly
// and injected wherever connectivity gates a call.
type Monitor interface {
	Online(ctx context.Context) bool
	WaitOnline(ctx context.Context, timeout time.Duration) error
}

// DialMonitor probes a well-known endpoint with a short TCP dial and caches
// the answer briefly so hot paths don't dial on every call.
type DialMonitor struct {
	addr        string
	dialTimeout time.Duration
	cacheTTL    time.Duration
	pollEvery   time.Duration

	mu         sync.Mutex
	lastCheck  time.Time
	lastOnline bool
}

func NewDialMonitor(addr string) *DialMonitor {
	return &DialMonitor{
		addr:        addr,
		dialTimeout: 2 * time.Second,
		cacheTTL:    5 * time.Second,
		pollEvery:   500 * time.Millisecond,
	}
}

func (m *DialMonitor) Online(ctx context.Context) bool {
	m.mu.Lock()
	if time.Since(m.lastCheck) < m.cacheTTL {
		online := m.lastOnline
		m.mu.Unlock()
		return online
	}
	m.mu.Unlock()

	online := m.probe(ctx)

	m.mu.Lock()
	m.lastCheck = time.Now()
	m.lastOnline = online
	m.mu.Unlock()
	return online
}

func (m *DialMonitor) probe(ctx context.Context) bool {
	d := net.Dialer{Timeout: m.dialTimeout}
	conn, err := d.DialContext(ctx, "tcp", m.addr)
	if err != nil {
		return false
	}
	_ = conn.Close()
	return true
}

// WaitOnline blocks until connectivity returns or the timeout elapses.
func (m *DialMonitor) WaitOnline(ctx context.Context, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for {
		// Bypass the cache while waiting; a stale "offline" would stall us.
		if m.probe(ctx) {
			m.mu.Lock()
			m.lastCheck = time.Now()
			m.lastOnline = true
			m.mu.Unlock()
			return nil
		}
		if time.Now().After(deadline) {
			return ErrOffline
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(m.pollEvery):
		}
	}
}
