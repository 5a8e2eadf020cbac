package middleware

import (
	"net/http"
	"net/url"
	"strings"
)

const (
	corsAllowHeaders = "Content-Type, X-Requested-With"
	corsAllowMethods = "GET,POST,PATCH,DELETE,OPTIONS"
)

// CORS aplica la política basada en ALLOW_ORIGINS. Acepta el Origin exacto
// (https://visitas.skynet.gt) o comodín de subdominio (*.skynet.gt, nunca la raíz).
// El token viaja en cookie, por eso se exige un origen explícito con credenciales.
func CORS(allowedOrigins []string) func(http.Handler) http.Handler {
	allowed := newOriginMatcher(allowedOrigins)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if allowed.match(origin) {
				h := w.Header()
				h.Set("Access-Control-Allow-Origin", origin)
				h.Add("Vary", "Origin")
				h.Set("Access-Control-Allow-Credentials", "true")
				h.Set("Access-Control-Allow-Headers", corsAllowHeaders)
				h.Set("Access-Control-Allow-Methods", corsAllowMethods)
			}

			if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

type originMatcher struct {
	exact    map[string]struct{}
	suffixes []string
}

func newOriginMatcher(origins []string) originMatcher {
	m := originMatcher{exact: make(map[string]struct{}, len(origins))}
	for _, entry := range origins {
		e := strings.TrimRight(strings.TrimSpace(entry), "/")
		switch {
		case e == "":
		case strings.HasPrefix(e, "*."):
			m.suffixes = append(m.suffixes, strings.ToLower(strings.TrimPrefix(e, "*")))
		default:
			m.exact[e] = struct{}{}
		}
	}
	return m
}

func (m originMatcher) match(origin string) bool {
	if origin == "" {
		return false
	}
	if _, ok := m.exact[origin]; ok {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	host := strings.ToLower(u.Hostname())
	for _, suf := range m.suffixes {
		if strings.HasSuffix(host, suf) && host != strings.TrimPrefix(suf, ".") {
			return true
		}
	}
	return false
}
