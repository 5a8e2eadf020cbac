package middleware

import (
	"context"
	"net/http"

	"github.com/DeveloperManuel24/VisitasFront/internal/backend"
	"github.com/DeveloperManuel24/VisitasFront/internal/service"
)

type contextKey string

const (
	ContextKeySession contextKey = "session"
)

// Session hidrata la sesión una vez por petición desde el token store y la
// deja en el contexto dentro de un holder reemplazable. Si Logging ya
// reservó un holder, se reutiliza.
func Session(sessions *service.SessionService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess := sessions.Hydrate(r)
			if holder, ok := r.Context().Value(ContextKeySession).(*service.SessionHolder); ok && holder != nil {
				holder.Replace(sess)
				next.ServeHTTP(w, r)
				return
			}
			ctx := context.WithValue(r.Context(), ContextKeySession, service.NewSessionHolder(sess))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func reserveSession(r *http.Request) *http.Request {
	if _, ok := r.Context().Value(ContextKeySession).(*service.SessionHolder); ok {
		return r
	}
	return r.WithContext(context.WithValue(r.Context(), ContextKeySession, &service.SessionHolder{}))
}

// WithSession adjunta un holder ya construido; lo usan los tests y los handlers internos.
func WithSession(ctx context.Context, sess service.Session) context.Context {
	return context.WithValue(ctx, ContextKeySession, service.NewSessionHolder(sess))
}

// GetSession devuelve la sesión vigente; sin hidratación la sesión no está lista.
func GetSession(ctx context.Context) service.Session {
	holder, _ := ctx.Value(ContextKeySession).(*service.SessionHolder)
	return holder.Load()
}

// ReplaceSession sustituye la sesión completa de la petición en curso.
func ReplaceSession(ctx context.Context, sess service.Session) {
	holder, _ := ctx.Value(ContextKeySession).(*service.SessionHolder)
	holder.Replace(sess)
}

// GetSubject recupera el subject de la sesión autenticada.
func GetSubject(ctx context.Context) string {
	sess := GetSession(ctx)
	if !sess.Authenticated || sess.User == nil {
		return ""
	}
	return sess.User.Subject
}

// GetRoles recupera los roles normalizados de la sesión.
func GetRoles(ctx context.Context) service.RoleSet {
	sess := GetSession(ctx)
	if sess.Roles == nil {
		return service.RoleSet{}
	}
	return sess.Roles
}

// UpstreamContext prepara el contexto para llamar a los backends con el
// bearer token de la sesión vigente.
func UpstreamContext(r *http.Request) context.Context {
	ctx := r.Context()
	if token := GetSession(ctx).BearerToken(); token != "" {
		return backend.WithToken(ctx, token)
	}
	return ctx
}
