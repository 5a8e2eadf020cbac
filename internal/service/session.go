package service

import (
	"net/http"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/DeveloperManuel24/VisitasFront/internal/auth"
)

// User son los datos visibles del usuario tomados del token.
type User struct {
	Subject string   `json:"sub"`
	Name    string   `json:"name"`
	Email   string   `json:"email"`
	Roles   []string `json:"roles"`
}

// Session es el estado derivado del token almacenado. Se reemplaza completo,
// nunca se modifica por partes.
type Session struct {
	Authenticated bool
	User          *User
	Roles         RoleSet
	Ready         bool

	token string
}

// BearerToken devuelve el token del que se derivó la sesión, si es válida.
func (s Session) BearerToken() string {
	if !s.Authenticated {
		return ""
	}
	return s.token
}

func signedOut() Session {
	return Session{Roles: RoleSet{}, Ready: true}
}

// SessionService hidrata, abre y cierra sesiones sobre un TokenStore.
type SessionService struct {
	store  auth.TokenStore
	logger zerolog.Logger
	now    func() time.Time
}

// NewSessionService crea el proveedor de sesión.
func NewSessionService(store auth.TokenStore, logger zerolog.Logger) *SessionService {
	return &SessionService{
		store:  store,
		logger: logger.With().Str("component", "session").Logger(),
		now:    time.Now,
	}
}

// Hydrate lee el store una sola vez y deriva la sesión completa.
func (s *SessionService) Hydrate(r *http.Request) Session {
	token, ok := s.store.Read(r)
	if !ok {
		return signedOut()
	}
	return s.FromToken(token)
}

// FromToken deriva la sesión de un token. Cualquier falla equivale a no tener sesión.
func (s *SessionService) FromToken(token string) Session {
	return s.FromTokenAt(token, s.now())
}

// FromTokenAt deriva la sesión evaluando el vencimiento en el instante now.
func (s *SessionService) FromTokenAt(token string, now time.Time) Session {
	if token == "" {
		return signedOut()
	}

	claims := auth.Decode(token)
	if claims == nil {
		s.logger.Debug().Msg("token con formato inválido")
		return signedOut()
	}
	if claims.Expired(now) {
		s.logger.Debug().Str("subject", claims.Subject).Msg("token vencido")
		return signedOut()
	}

	roles := NewRoleSet(claims.Roles...)
	return Session{
		Authenticated: true,
		User: &User{
			Subject: claims.Subject,
			Name:    claims.Name,
			Email:   claims.Email,
			Roles:   roles.Slice(),
		},
		Roles: roles,
		Ready: true,
		token: token,
	}
}

// Login guarda el token nuevo y recalcula la sesión desde cero.
func (s *SessionService) Login(w http.ResponseWriter, r *http.Request, token string) Session {
	s.store.Save(w, r, token)
	return s.FromToken(token)
}

// Logout borra el token y devuelve la sesión reiniciada.
func (s *SessionService) Logout(w http.ResponseWriter, r *http.Request) Session {
	s.store.Clear(w, r)
	return signedOut()
}

// SessionHolder guarda la sesión vigente de una petición y la reemplaza de forma atómica.
type SessionHolder struct {
	current atomic.Pointer[Session]
}

// NewSessionHolder crea un holder ya hidratado.
func NewSessionHolder(sess Session) *SessionHolder {
	h := &SessionHolder{}
	h.Replace(sess)
	return h
}

// Load devuelve la sesión vigente; sin holder la sesión aún no está lista.
func (h *SessionHolder) Load() Session {
	if h == nil {
		return Session{}
	}
	if sess := h.current.Load(); sess != nil {
		return *sess
	}
	return Session{}
}

// Replace sustituye la sesión completa.
func (h *SessionHolder) Replace(sess Session) {
	if h == nil {
		return
	}
	h.current.Store(&sess)
}
