package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DeveloperManuel24/VisitasFront/internal/auth"
	"github.com/DeveloperManuel24/VisitasFront/internal/backend"
	"github.com/DeveloperManuel24/VisitasFront/internal/service"
)

func signedToken(t *testing.T, sub string, roles ...string) string {
	t.Helper()
	rs := make([]any, 0, len(roles))
	for _, r := range roles {
		rs = append(rs, r)
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   sub,
		"roles": rs,
		"exp":   time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte("k"))
	require.NoError(t, err)
	return token
}

func guardedHandler(t *testing.T) http.Handler {
	t.Helper()
	store := auth.NewCookieStore(auth.CookieOptions{TTL: time.Hour, Dev: true})
	sessions := service.NewSessionService(store, zerolog.Nop())
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok:" + backend.TokenFrom(UpstreamContext(r))))
	})
	return Logging(Session(sessions)(Guard(nil)(ok)))
}

func browserRequest(method, target, token string) *http.Request {
	req := httptest.NewRequest(method, target, nil)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")
	if token != "" {
		req.AddCookie(&http.Cookie{Name: auth.StorageKey, Value: token})
	}
	return req
}

func TestGuardPublicPathsRender(t *testing.T) {
	h := guardedHandler(t)
	for _, p := range service.PublicPaths() {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, browserRequest(http.MethodGet, p, ""))
		assert.Equal(t, http.StatusOK, rec.Code, p)
		assert.Equal(t, "ok:", rec.Body.String(), p)
	}
}

func TestGuardBrowserRedirectsToLogin(t *testing.T) {
	rec := httptest.NewRecorder()
	guardedHandler(t).ServeHTTP(rec, browserRequest(http.MethodGet, "/clientes", ""))

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))
}

func TestGuardBrowserRedirectsToUnauthorized(t *testing.T) {
	rec := httptest.NewRecorder()
	guardedHandler(t).ServeHTTP(rec, browserRequest(http.MethodGet, "/usuarios", signedToken(t, "t1", "TECNICO")))

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/unauthorized", rec.Header().Get("Location"))
}

func TestGuardRendersAllowedWithBearer(t *testing.T) {
	token := signedToken(t, "t1", "tecnico")
	rec := httptest.NewRecorder()
	guardedHandler(t).ServeHTTP(rec, browserRequest(http.MethodGet, "/visitas/v1/editar", token))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok:"+token, rec.Body.String())
}

func TestGuardDeniesDotSegments(t *testing.T) {
	token := signedToken(t, "t1", "TECNICO")
	rec := httptest.NewRecorder()
	req := browserRequest(http.MethodGet, "/clientes", token)
	req.URL.Path = "/clientes/../usuarios"
	guardedHandler(t).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/unauthorized", rec.Header().Get("Location"))
}

func TestGuardEvaluatesDispatchedPath(t *testing.T) {
	token := signedToken(t, "t1", "TECNICO")
	for _, target := range []string{
		"/usuarios/..%2Fclientes/editar",
		"/roles/..%2F..%2Fclientes%2Fx/editar",
		"/clientes/x%2F..%2F..%2Fusuarios",
		"/visitas/tecnico/..%2f..%2fusuarios",
	} {
		rec := httptest.NewRecorder()
		guardedHandler(t).ServeHTTP(rec, browserRequest(http.MethodGet, target, token))
		assert.Equal(t, http.StatusSeeOther, rec.Code, target)
		assert.Equal(t, "/unauthorized", rec.Header().Get("Location"), target)
	}

	rec := httptest.NewRecorder()
	guardedHandler(t).ServeHTTP(rec, browserRequest(http.MethodGet, "/clientes/", token))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRoutePath(t *testing.T) {
	cases := []struct {
		target    string
		want      string
		canonical bool
	}{
		{"/", "/", true},
		{"/clientes", "/clientes", true},
		{"/clientes/", "/clientes", true},
		{"/visitas/v1/editar", "/visitas/v1/editar", true},
		{"/clientes/acme%20sa", "/clientes/acme sa", true},
		{"/clientes/%41cme", "/clientes/%41cme", true},
		{"/usuarios/..%2Fclientes/editar", "/usuarios/..%2Fclientes/editar", false},
		{"/roles/x%5Cy", `/roles/x\y`, true},
		{"//clientes", "//clientes", false},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodGet, tc.target, nil)
		got, canonical := RoutePath(req)
		assert.Equal(t, tc.want, got, tc.target)
		assert.Equal(t, tc.canonical, canonical, tc.target)
	}

	req := httptest.NewRequest(http.MethodGet, "/clientes", nil)
	req.URL.Path = "/visitas/tecnico/../../usuarios"
	_, canonical := RoutePath(req)
	assert.False(t, canonical)
}

func TestGuardAPIResponses(t *testing.T) {
	h := guardedHandler(t)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/clientes", nil)
	req.Header.Set("Accept", "application/json")
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), `"AUTH"`)

	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/roles", nil)
	req.Header.Set("Accept", "application/json")
	req.AddCookie(&http.Cookie{Name: auth.StorageKey, Value: signedToken(t, "s1", "SUPERVISOR")})
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/visitas/tecnico", nil)
	req.Header.Set("Accept", "application/json")
	req.AddCookie(&http.Cookie{Name: auth.StorageKey, Value: signedToken(t, "s1", "SUPERVISOR")})
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), `"FORBIDDEN"`)
}

func TestGuardWithoutHydrationNeverRedirects(t *testing.T) {
	called := false
	next := http.HandlerFunc(func(http.ResponseWriter, *http.Request) { called = true })
	h := Guard(nil)(next)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, browserRequest(http.MethodGet, "/usuarios", ""))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get("Location"))
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
	assert.False(t, called)

	rec = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/usuarios", nil)
	req.Header.Set("Accept", "application/json")
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("Retry-After"))
	assert.True(t, strings.Contains(rec.Body.String(), "CHECKING"))
}

func TestRequireSession(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(GetSubject(r.Context())))
	})
	h := RequireSession(next)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req = req.WithContext(WithSession(req.Context(), service.Session{Ready: true}))
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusSeeOther, rec.Code)

	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/me", nil)
	req = req.WithContext(WithSession(req.Context(), service.Session{
		Ready: true, Authenticated: true, User: &service.User{Subject: "u1"}, Roles: service.NewRoleSet(),
	}))
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "u1", rec.Body.String())
}

func TestReplaceSessionIsVisibleDownstream(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/logout", nil)
	ctx := WithSession(req.Context(), service.Session{Ready: true, Authenticated: true, User: &service.User{Subject: "u1"}})
	require.Equal(t, "u1", GetSubject(ctx))

	ReplaceSession(ctx, service.Session{Ready: true, Roles: service.RoleSet{}})
	assert.Empty(t, GetSubject(ctx))
	assert.Empty(t, GetRoles(ctx))
	assert.True(t, GetSession(ctx).Ready)
}

func TestIsBrowserRequest(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader("email=a"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	assert.True(t, IsBrowserRequest(req))

	req = httptest.NewRequest(http.MethodPost, "/login", strings.NewReader("{}"))
	req.Header.Set("Content-Type", "application/json")
	assert.False(t, IsBrowserRequest(req))

	req = httptest.NewRequest(http.MethodGet, "/clientes", nil)
	req.Header.Set("X-Requested-With", "XMLHttpRequest")
	req.Header.Set("Accept", "text/html")
	assert.False(t, IsBrowserRequest(req))
}

func TestCleanPath(t *testing.T) {
	assert.Equal(t, "/", CleanPath(""))
	assert.Equal(t, "/clientes", CleanPath("/clientes/"))
	assert.Equal(t, "/visitas/tecnico", CleanPath("//visitas//tecnico"))
	assert.Equal(t, "/usuarios", CleanPath("clientes/../usuarios"))
}
