package service

import (
	"net/http"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// memStore guarda el token en memoria y cuenta las operaciones.
type memStore struct {
	token  string
	ok     bool
	reads  int
	saves  int
	clears int
}

func (m *memStore) Save(_ http.ResponseWriter, _ *http.Request, token string) {
	m.saves++
	m.token, m.ok = token, token != ""
}

func (m *memStore) Read(_ *http.Request) (string, bool) {
	m.reads++
	return m.token, m.ok
}

func (m *memStore) Clear(_ http.ResponseWriter, _ *http.Request) {
	m.clears++
	m.token, m.ok = "", false
}

func signToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}

func tokenFor(t *testing.T, sub string, roles []string, exp time.Time) string {
	t.Helper()
	rs := make([]any, 0, len(roles))
	for _, r := range roles {
		rs = append(rs, r)
	}
	return signToken(t, jwt.MapClaims{
		"sub":   sub,
		"name":  "Usuario " + sub,
		"email": sub + "@skynet.test",
		"roles": rs,
		"exp":   exp.Unix(),
	})
}
