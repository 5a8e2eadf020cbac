package service

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/DeveloperManuel24/VisitasFront/internal/backend"
)

var (
	// ErrInvalidCredentials indica falla en la autenticación.
	ErrInvalidCredentials = errors.New("credenciales inválidas")
	// ErrNoToken indica que no hay token en sesión.
	ErrNoToken = errors.New("no hay token en sesión")
	// ErrInvalidToken indica que el backend entregó un token que no se puede usar.
	ErrInvalidToken = errors.New("token recibido inválido o vencido")
)

type authBackend interface {
	Login(ctx context.Context, email, password string) (string, error)
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, token, newPassword string) error
	ChangePassword(ctx context.Context, userID, newPassword string) error
}

// AuthService concentra los flujos de autenticación contra el servicio de usuarios.
type AuthService struct {
	backend  authBackend
	sessions *SessionService
	logger   zerolog.Logger
}

// NewAuthService crea el servicio.
func NewAuthService(b authBackend, sessions *SessionService, logger zerolog.Logger) *AuthService {
	return &AuthService{
		backend:  b,
		sessions: sessions,
		logger:   logger.With().Str("component", "auth").Logger(),
	}
}

// Sessions expone el proveedor de sesión (útil en middlewares).
func (s *AuthService) Sessions() *SessionService {
	return s.sessions
}

// Login autentica, guarda el token y devuelve la sesión recalculada.
func (s *AuthService) Login(ctx context.Context, w http.ResponseWriter, r *http.Request, email, password string) (Session, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	token, err := s.backend.Login(ctx, email, password)
	if err != nil {
		if errors.Is(err, backend.ErrUnauthorized) || errors.Is(err, backend.ErrForbidden) || errors.Is(err, backend.ErrNotFound) {
			return signedOut(), ErrInvalidCredentials
		}
		return signedOut(), err
	}

	sess := s.sessions.FromToken(token)
	if !sess.Authenticated {
		s.logger.Warn().Str("email", email).Msg("login devolvió un token no utilizable")
		return signedOut(), ErrInvalidToken
	}

	sess = s.sessions.Login(w, r, token)
	s.logger.Info().Str("subject", sess.User.Subject).Strs("roles", sess.User.Roles).Msg("login")
	return sess, nil
}

// Logout borra el token almacenado.
func (s *AuthService) Logout(w http.ResponseWriter, r *http.Request) Session {
	return s.sessions.Logout(w, r)
}

// ForgotPassword solicita el correo de recuperación.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {
	return s.backend.ForgotPassword(ctx, strings.ToLower(strings.TrimSpace(email)))
}

// ResetPassword aplica la contraseña nueva con el token de recuperación.
func (s *AuthService) ResetPassword(ctx context.Context, token, newPassword string) error {
	return s.backend.ResetPassword(ctx, strings.TrimSpace(token), newPassword)
}

// ChangePassword cambia la contraseña del usuario de la sesión, o de userID
// si se indica uno distinto.
func (s *AuthService) ChangePassword(ctx context.Context, sess Session, userID, newPassword string) error {
	token := sess.BearerToken()
	if token == "" {
		return ErrNoToken
	}
	if userID = strings.TrimSpace(userID); userID == "" && sess.User != nil {
		userID = sess.User.Subject
	}
	return s.backend.ChangePassword(backend.WithToken(ctx, token), userID, newPassword)
}
