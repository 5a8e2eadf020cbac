package middleware

import (
	"net/http"
	"path"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/DeveloperManuel24/VisitasFront/internal/service"
)

// Guard aplica la decisión de acceso a cada navegación del router protegido.
// checking responde mientras la sesión no está lista; si es nil se usa un
// placeholder mínimo.
func Guard(checking http.Handler) func(http.Handler) http.Handler {
	if checking == nil {
		checking = http.HandlerFunc(defaultChecking)
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, canonical := RoutePath(r)
			decision := service.Decide(GetSession(r.Context()), p)
			if !canonical && decision == service.DecisionRender {
				decision = service.DecisionUnauthorized
			}
			Enforce(w, r, decision, checking, next)
		})
	}
}

// RequireSession solo exige sesión lista y autenticada; no aplica la política de rutas.
func RequireSession(next http.Handler) http.Handler {
	checking := http.HandlerFunc(defaultChecking)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		decision := service.DecideAuthenticated(GetSession(r.Context()))
		Enforce(w, r, decision, checking, next)
	})
}

// Enforce traduce una decisión a respuesta: 303 para navegadores, sobre JSON para APIs.
func Enforce(w http.ResponseWriter, r *http.Request, decision service.Decision, checking, next http.Handler) {
	switch decision {
	case service.DecisionRender:
		next.ServeHTTP(w, r)
	case service.DecisionChecking:
		w.Header().Set("Cache-Control", "no-store")
		if IsBrowserRequest(r) {
			checking.ServeHTTP(w, r)
			return
		}
		w.Header().Set("Retry-After", "1")
		writeError(w, http.StatusServiceUnavailable, "CHECKING", "verificando sesión")
	case service.DecisionLogin:
		log.Debug().Str("path", r.URL.Path).Msg("guard: sin sesión")
		if IsBrowserRequest(r) {
			http.Redirect(w, r, service.PathLogin, http.StatusSeeOther)
			return
		}
		writeError(w, http.StatusUnauthorized, "AUTH", "sesión requerida")
	case service.DecisionUnauthorized:
		log.Debug().Str("path", r.URL.Path).Str("subject", GetSubject(r.Context())).Msg("guard: acceso denegado")
		if IsBrowserRequest(r) {
			http.Redirect(w, r, service.PathUnauthorized, http.StatusSeeOther)
			return
		}
		writeError(w, http.StatusForbidden, "FORBIDDEN", "acceso no autorizado")
	default:
		writeError(w, http.StatusInternalServerError, "INTERNAL", "error interno")
	}
}

// RoutePath devuelve la ruta sobre la que despacha chi (RawPath si existe,
// sin la barra final). canonical es false si contiene barras codificadas,
// segmentos vacíos o "." / "..": esa ruta no coincide con la que se evaluaría
// una vez limpia y no puede autorizarse.
func RoutePath(r *http.Request) (p string, canonical bool) {
	p = r.URL.RawPath
	if p == "" {
		p = r.URL.Path
	}
	if p == "" || p == "/" {
		return "/", true
	}
	if len(p) > 1 {
		p = strings.TrimSuffix(p, "/")
	}
	lower := strings.ToLower(p)
	if strings.Contains(lower, "%2f") || strings.Contains(lower, "%5c") {
		return p, false
	}
	return p, strings.HasPrefix(p, "/") && path.Clean(p) == p
}

// CleanPath normaliza una ruta suelta (no una petición); conserva "/" para vacío.
func CleanPath(p string) string {
	if p == "" {
		return "/"
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return path.Clean(p)
}

// IsBrowserRequest distingue navegación de un navegador frente a un cliente JSON.
// Sin Accept se asume navegador, salvo que el cuerpo sea JSON.
func IsBrowserRequest(r *http.Request) bool {
	if strings.EqualFold(r.Header.Get("X-Requested-With"), "XMLHttpRequest") {
		return false
	}
	accept := r.Header.Get("Accept")
	if strings.Contains(accept, "text/html") {
		return true
	}
	if strings.Contains(accept, "application/json") {
		return false
	}
	return !strings.HasPrefix(r.Header.Get("Content-Type"), "application/json")
}

func defaultChecking(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`<!doctype html><html lang="es"><head><meta charset="utf-8"><meta http-equiv="refresh" content="1"><title>SkyNet Visitas</title></head><body><p>Verificando sesión…</p></body></html>`))
}
