package service

import (
	"context"
	"errors"
	"time"

	"github.com/pepsfoods/checkout-backend/internal/resilience"
	"github.com/pepsfoods/checkout-backend/pkg/logger"
)

// Session is a provider-issued credential for a signed-in user.
type Session struct {
	UID         string
	AccessToken string
	ExpiresAt   time.Time
}

// AuthProvider is the hosted auth backend: password sign-in plus the
// passwordless magic-link fallback.
type AuthProvider interface {
	SignIn(ctx context.Context, email, password string) (*Session, error)
	SendMagicLink(ctx context.Context, email string) error
}

// SignInResult is either a live session or the degraded magic-link path;
// MagicLinkSent means "tell the user to check their email".
type SignInResult struct {
	Session       *Session
	MagicLinkSent bool
}

type AuthService interface {
	SignIn(ctx context.Context, email, password string) (*SignInResult, error)
}

type authService struct {
	provider AuthProvider
	exec     *resilience.Executor
	log      *logger.Logger
}

var signInOptions = resilience.Options{Timeout: 15 * time.Second, MaxRetries: 3, HealthGate: true}

func NewAuthService(provider AuthProvider, exec *resilience.Executor, log *logger.Logger) AuthService {
	return &authService{
		provider: provider,
		exec:     exec.WithMetrics(&signInMetrics{log: log}),
		log:      log,
	}
}

// SignIn runs password auth through the resilient layer. When every retry
// is spent on transport failures, it degrades to a magic-link send rather
// than surfacing a hard failure.
func (s *authService) SignIn(ctx context.Context, email, password string) (*SignInResult, error) {
	session, err := resilience.DoValue(ctx, s.exec, "sign in", signInOptions, func(ctx context.Context) (*Session, error) {
		return s.provider.SignIn(ctx, email, password)
	})
	if err == nil {
		return &SignInResult{Session: session}, nil
	}

	var exhausted *resilience.RetryExhaustedError
	if !errors.As(err, &exhausted) {
		return nil, err
	}

	s.log.Warn("sign-in retries exhausted, falling back to magic link", "email", email, "error", err)
	linkErr := s.exec.Do(ctx, "send magic link", resilience.Options{Timeout: 10 * time.Second, MaxRetries: 1}, func(ctx context.Context) error {
		return s.provider.SendMagicLink(ctx, email)
	})
	if linkErr != nil {
		s.log.Error("magic link fallback failed", "email", email, "error", linkErr)
		return nil, err
	}
	return &SignInResult{MagicLinkSent: true}, nil
}

// signInMetrics emits one structured event per auth attempt.
type signInMetrics struct {
	log *logger.Logger
}

func (m *signInMetrics) Record(op string, attempt int, duration time.Duration, err error) {
	if err != nil {
		m.log.Warn("auth attempt failed", "event", op, "attempt", attempt, "duration_ms", duration.Milliseconds(), "error", err)
		return
	}
	m.log.Info("auth attempt succeeded", "event", op, "attempt", attempt, "duration_ms", duration.Milliseconds())
}
