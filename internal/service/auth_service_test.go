package service

import (
	"context"
	"errors"
	"syscall"
	"testing"
	"time"

	"github.com/pepsfoods/checkout-backend/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockAuthProvider struct {
	mock.Mock
}

func (m *mockAuthProvider) SignIn(ctx context.Context, email, password string) (*Session, error) {
	args := m.Called(ctx, email, password)
	if s := args.Get(0); s != nil {
		return s.(*Session), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockAuthProvider) SendMagicLink(ctx context.Context, email string) error {
	args := m.Called(ctx, email)
	return args.Error(0)
}

func newAuthFixture(t *testing.T) (*mockAuthProvider, AuthService) {
	t.Helper()
	saved := signInOptions
	signInOptions.RetryDelays = []time.Duration{time.Millisecond}
	t.Cleanup(func() { signInOptions = saved })

	provider := new(mockAuthProvider)
	svc := NewAuthService(provider, testExecutor(), logger.NewNop())
	return provider, svc
}

func TestSignInSuccess(t *testing.T) {
	provider, svc := newAuthFixture(t)
	session := &Session{UID: "uid-1", AccessToken: "tok", ExpiresAt: time.Now().Add(time.Hour)}
	provider.On("SignIn", mock.Anything, "buyer@pepsfoods.com", "pw").Return(session, nil)

	res, err := svc.SignIn(context.Background(), "buyer@pepsfoods.com", "pw")
	require.NoError(t, err)
	assert.False(t, res.MagicLinkSent)
	assert.Equal(t, session, res.Session)
	provider.AssertNotCalled(t, "SendMagicLink", mock.Anything, mock.Anything)
}

func TestSignInBadCredentialsNotRetried(t *testing.T) {
	provider, svc := newAuthFixture(t)
	provider.On("SignIn", mock.Anything, "buyer@pepsfoods.com", "wrong").
		Return(nil, errors.New("invalid credentials")).Once()

	_, err := svc.SignIn(context.Background(), "buyer@pepsfoods.com", "wrong")
	require.Error(t, err)
	provider.AssertExpectations(t)
	provider.AssertNotCalled(t, "SendMagicLink", mock.Anything, mock.Anything)
}

// When the auth backend is unreachable for the whole retry budget, the
// service degrades to a magic-link send instead of failing outright.
func TestSignInExhaustedFallsBackToMagicLink(t *testing.T) {
	provider, svc := newAuthFixture(t)
	provider.On("SignIn", mock.Anything, "buyer@pepsfoods.com", "pw").
		Return(nil, syscall.ECONNREFUSED)
	provider.On("SendMagicLink", mock.Anything, "buyer@pepsfoods.com").Return(nil)

	res, err := svc.SignIn(context.Background(), "buyer@pepsfoods.com", "pw")
	require.NoError(t, err)
	assert.True(t, res.MagicLinkSent)
	assert.Nil(t, res.Session)
	// First attempt plus three retries before giving up on passwords.
	provider.AssertNumberOfCalls(t, "SignIn", 4)
}

func TestSignInFallbackFailureSurfacesOriginalError(t *testing.T) {
	provider, svc := newAuthFixture(t)
	provider.On("SignIn", mock.Anything, "buyer@pepsfoods.com", "pw").
		Return(nil, syscall.ECONNREFUSED)
	provider.On("SendMagicLink", mock.Anything, "buyer@pepsfoods.com").
		Return(errors.New("smtp relay down"))

	_, err := svc.SignIn(context.Background(), "buyer@pepsfoods.com", "pw")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "network failure")
}
