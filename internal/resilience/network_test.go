package resilience

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// closedPortAddr reserves a local port and releases it, so dials against it
// are refused.
func closedPortAddr(t *testing.T) string {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := l.Addr().String()
	require.NoError(t, l.Close())
	return addr
}

func newFastMonitor(addr string) *DialMonitor {
	m := NewDialMonitor(addr)
	m.dialTimeout = 100 * time.Millisecond
	m.pollEvery = 5 * time.Millisecond
	return m
}

func TestOnlineCachesResult(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer l.Close()

	m := newFastMonitor(l.Addr().String())
	assert.True(t, m.Online(context.Background()))

	// The answer is served from cache inside the TTL even after the
	// listener goes away.
	require.NoError(t, l.Close())
	assert.True(t, m.Online(context.Background()))

	m.mu.Lock()
	m.lastCheck = time.Now().Add(-time.Minute)
	m.mu.Unlock()
	assert.False(t, m.Online(context.Background()))
}

func TestWaitOnlineReturnsWhenListenerAppears(t *testing.T) {
	addr := closedPortAddr(t)
	m := newFastMonitor(addr)

	opened := make(chan net.Listener, 1)
	go func() {
		time.Sleep(30 * time.Millisecond)
		l, err := net.Listen("tcp", addr)
		if err != nil {
			opened <- nil
			return
		}
		opened <- l
	}()

	err := m.WaitOnline(context.Background(), 2*time.Second)
	if l := <-opened; l != nil {
		defer l.Close()
	}
	require.NoError(t, err)
	// A successful wait refreshes the cache too.
	assert.True(t, m.Online(context.Background()))
}

func TestWaitOnlineBypassesStaleOfflineCache(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer l.Close()

	m := newFastMonitor(l.Addr().String())
	m.mu.Lock()
	m.lastCheck = time.Now()
	m.lastOnline = false
	m.mu.Unlock()

	assert.False(t, m.Online(context.Background()))
	require.NoError(t, m.WaitOnline(context.Background(), time.Second))
	assert.True(t, m.Online(context.Background()))
}

func TestWaitOnlineTimesOut(t *testing.T) {
	m := newFastMonitor(closedPortAddr(t))

	start := time.Now()
	err := m.WaitOnline(context.Background(), 30*time.Millisecond)
	assert.ErrorIs(t, err, ErrOffline)
	assert.Less(t, time.Since(start), time.Second)
}

func TestWaitOnlineCallerCancellation(t *testing.T) {
	m := newFastMonitor(closedPortAddr(t))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := m.WaitOnline(ctx, 10*time.Second)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
