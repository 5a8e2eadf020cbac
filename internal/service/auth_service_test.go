package service

import (
	"context"
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DeveloperManuel24/VisitasFront/internal/backend"
)

type stubAuthBackend struct {
	token     string
	err       error
	gotEmail  string
	gotToken  string
	gotUserID string
	calls     int
}

func (s *stubAuthBackend) Login(_ context.Context, email, _ string) (string, error) {
	s.calls++
	s.gotEmail = email
	return s.token, s.err
}

func (s *stubAuthBackend) ForgotPassword(_ context.Context, email string) error {
	s.calls++
	s.gotEmail = email
	return s.err
}

func (s *stubAuthBackend) ResetPassword(_ context.Context, token, _ string) error {
	s.calls++
	s.gotToken = token
	return s.err
}

func (s *stubAuthBackend) ChangePassword(ctx context.Context, userID, _ string) error {
	s.calls++
	s.gotUserID = userID
	s.gotToken = backend.TokenFrom(ctx)
	return s.err
}

func newAuthService(b *stubAuthBackend, store *memStore) *AuthService {
	sessions := NewSessionService(store, zerolog.Nop())
	return NewAuthService(b, sessions, zerolog.Nop())
}

func TestAuthServiceLogin(t *testing.T) {
	token := tokenFor(t, "u1", []string{RoleAdministrador}, time.Now().Add(time.Hour))
	b := &stubAuthBackend{token: token}
	store := &memStore{}
	svc := newAuthService(b, store)

	sess, err := svc.Login(context.Background(), httptest.NewRecorder(), httptest.NewRequest("POST", "/login", nil), " Admin@SkyNet.test ", "x")
	require.NoError(t, err)
	assert.True(t, sess.Authenticated)
	assert.Equal(t, "admin@skynet.test", b.gotEmail)
	assert.Equal(t, token, store.token)
	assert.Equal(t, 1, store.saves)
}

func TestAuthServiceLoginRejected(t *testing.T) {
	b := &stubAuthBackend{err: &backend.APIError{Service: "usuarios", Status: 401}}
	store := &memStore{}
	svc := newAuthService(b, store)

	sess, err := svc.Login(context.Background(), httptest.NewRecorder(), httptest.NewRequest("POST", "/login", nil), "a@b.c", "bad")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	assert.False(t, sess.Authenticated)
	assert.True(t, sess.Ready)
	assert.Zero(t, store.saves)
}

func TestAuthServiceLoginUnusableToken(t *testing.T) {
	expired := tokenFor(t, "u1", []string{RoleTecnico}, time.Now().Add(-time.Minute))
	for _, token := range []string{expired, "no-es-jwt"} {
		store := &memStore{}
		svc := newAuthService(&stubAuthBackend{token: token}, store)
		_, err := svc.Login(context.Background(), httptest.NewRecorder(), httptest.NewRequest("POST", "/login", nil), "a@b.c", "x")
		assert.ErrorIs(t, err, ErrInvalidToken)
		assert.Zero(t, store.saves)
	}
}

func TestAuthServiceLoginUpstreamError(t *testing.T) {
	boom := errors.New("connection refused")
	svc := newAuthService(&stubAuthBackend{err: boom}, &memStore{})
	_, err := svc.Login(context.Background(), httptest.NewRecorder(), httptest.NewRequest("POST", "/login", nil), "a@b.c", "x")
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuthServiceChangePassword(t *testing.T) {
	token := tokenFor(t, "u7", []string{RoleTecnico}, time.Now().Add(time.Hour))
	b := &stubAuthBackend{}
	svc := newAuthService(b, &memStore{})

	err := svc.ChangePassword(context.Background(), signedOut(), "", "nueva")
	assert.ErrorIs(t, err, ErrNoToken)
	assert.Zero(t, b.calls)

	sess := svc.Sessions().FromToken(token)
	require.NoError(t, svc.ChangePassword(context.Background(), sess, "", "nueva"))
	assert.Equal(t, "u7", b.gotUserID)
	assert.Equal(t, token, b.gotToken)

	require.NoError(t, svc.ChangePassword(context.Background(), sess, "otro", "nueva"))
	assert.Equal(t, "otro", b.gotUserID)
}

func TestAuthServiceRecoveryFlows(t *testing.T) {
	b := &stubAuthBackend{}
	svc := newAuthService(b, &memStore{})

	require.NoError(t, svc.ForgotPassword(context.Background(), " Ana@X.com"))
	assert.Equal(t, "ana@x.com", b.gotEmail)

	require.NoError(t, svc.ResetPassword(context.Background(), " rst ", "nueva"))
	assert.Equal(t, "rst", b.gotToken)
}

func TestAuthServiceLogout(t *testing.T) {
	store := &memStore{token: "x", ok: true}
	svc := newAuthService(&stubAuthBackend{}, store)
	sess := svc.Logout(httptest.NewRecorder(), httptest.NewRequest("POST", "/logout", nil))
	assert.False(t, sess.Authenticated)
	assert.True(t, sess.Ready)
	assert.Equal(t, 1, store.clears)
}
