package service

import (
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSessionService(store *memStore, now time.Time) *SessionService {
	svc := NewSessionService(store, zerolog.Nop())
	svc.now = func() time.Time { return now }
	return svc
}

func TestHydrateWithoutToken(t *testing.T) {
	store := &memStore{}
	sess := newSessionService(store, time.Now()).Hydrate(httptest.NewRequest("GET", "/", nil))

	assert.True(t, sess.Ready)
	assert.False(t, sess.Authenticated)
	assert.Nil(t, sess.User)
	assert.Empty(t, sess.Roles)
	assert.Empty(t, sess.BearerToken())
	assert.Equal(t, 1, store.reads)
}

func TestHydrateValidToken(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	token := tokenFor(t, "u1", []string{"tecnico"}, now.Add(time.Hour))
	store := &memStore{token: token, ok: true}

	sess := newSessionService(store, now).Hydrate(httptest.NewRequest("GET", "/", nil))

	require.True(t, sess.Authenticated)
	assert.True(t, sess.Ready)
	assert.Equal(t, "u1", sess.User.Subject)
	assert.Equal(t, "u1@skynet.test", sess.User.Email)
	assert.Equal(t, []string{"TECNICO"}, sess.User.Roles)
	assert.True(t, sess.Roles.Has(RoleTecnico))
	assert.Equal(t, token, sess.BearerToken())
	assert.Equal(t, 1, store.reads)
}

func TestHydrateExpiredOrMalformed(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	for name, token := range map[string]string{
		"vencido":      tokenFor(t, "u1", []string{RoleAdministrador}, now),
		"mal formado":  "not-a-token",
		"payload roto": "a.%%%.c",
	} {
		t.Run(name, func(t *testing.T) {
			store := &memStore{token: token, ok: true}
			sess := newSessionService(store, now).Hydrate(httptest.NewRequest("GET", "/", nil))
			assert.True(t, sess.Ready)
			assert.False(t, sess.Authenticated)
			assert.Empty(t, sess.Roles)
			assert.Empty(t, sess.BearerToken())
		})
	}
}

func TestLoginAndLogout(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	store := &memStore{}
	svc := newSessionService(store, now)
	w := httptest.NewRecorder()
	r := httptest.NewRequest("POST", "/login", nil)

	sess := svc.Login(w, r, tokenFor(t, "u9", []string{RoleSupervisor}, now.Add(time.Minute)))
	require.True(t, sess.Authenticated)
	assert.Equal(t, 1, store.saves)
	assert.True(t, sess.Roles.Has(RoleSupervisor))

	holder := NewSessionHolder(sess)
	holder.Replace(svc.Logout(w, r))

	after := holder.Load()
	assert.False(t, after.Authenticated)
	assert.Empty(t, after.Roles)
	assert.True(t, after.Ready)
	assert.Nil(t, after.User)
	assert.Equal(t, 1, store.clears)

	_, ok := store.Read(r)
	assert.False(t, ok)
}

func TestSessionHolderNotReadyByDefault(t *testing.T) {
	var nilHolder *SessionHolder
	assert.False(t, nilHolder.Load().Ready)
	nilHolder.Replace(Session{Ready: true})

	assert.False(t, (&SessionHolder{}).Load().Ready)
}

// Los lectores concurrentes ven la sesión completa anterior o la nueva, nunca una mezcla.
func TestSessionHolderWholesaleReplace(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	svc := newSessionService(&memStore{}, now)
	in := svc.FromToken(tokenFor(t, "u1", []string{RoleAdministrador}, now.Add(time.Hour)))
	out := signedOut()
	holder := NewSessionHolder(in)

	var wg sync.WaitGroup
	stop := make(chan struct{})
	mixed := make(chan Session, 1)
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				s := holder.Load()
				consistent := (s.Authenticated && s.Roles.Has(RoleAdministrador) && s.User != nil) ||
					(!s.Authenticated && len(s.Roles) == 0 && s.User == nil)
				if !consistent {
					select {
					case mixed <- s:
					default:
					}
				}
			}
		}()
	}

	for i := 0; i < 1000; i++ {
		if i%2 == 0 {
			holder.Replace(out)
		} else {
			holder.Replace(in)
		}
	}
	close(stop)
	wg.Wait()

	select {
	case s := <-mixed:
		t.Fatalf("estado mezclado observado: %+v", s)
	default:
	}
}

func TestFromTokenAtUsesGivenInstant(t *testing.T) {
	exp := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	token := tokenFor(t, "t1", []string{"TECNICO"}, exp)
	svc := NewSessionService(&memStore{}, zerolog.Nop())

	assert.True(t, svc.FromTokenAt(token, exp.Add(-time.Second)).Authenticated)
	assert.False(t, svc.FromTokenAt(token, exp).Authenticated)
	assert.True(t, svc.FromTokenAt(token, exp).Ready)
}
