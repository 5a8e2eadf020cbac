package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubRedis struct {
	store map[string]string
	ttls  map[string]time.Duration
	err   error
}

func (s *stubRedis) Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd {
	cmd := redis.NewStatusCmd(ctx)
	if s.err != nil {
		cmd.SetErr(s.err)
		return cmd
	}
	if s.store == nil {
		s.store = make(map[string]string)
		s.ttls = make(map[string]time.Duration)
	}
	s.store[key] = fmt.Sprint(value)
	s.ttls[key] = expiration
	cmd.SetVal("OK")
	return cmd
}

func (s *stubRedis) Get(ctx context.Context, key string) *redis.StringCmd {
	cmd := redis.NewStringCmd(ctx)
	if s.err != nil {
		cmd.SetErr(s.err)
		return cmd
	}
	val, ok := s.store[key]
	if !ok {
		cmd.SetErr(redis.Nil)
		return cmd
	}
	cmd.SetVal(val)
	return cmd
}

func (s *stubRedis) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	cmd := redis.NewIntCmd(ctx)
	if s.err != nil {
		cmd.SetErr(s.err)
		return cmd
	}
	var removed int64
	for _, key := range keys {
		if _, ok := s.store[key]; ok {
			delete(s.store, key)
			removed++
		}
	}
	cmd.SetVal(removed)
	return cmd
}

// carryCookies simula el navegador: reenvía las cookies vigentes de la respuesta.
func carryCookies(res *httptest.ResponseRecorder) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range res.Result().Cookies() {
		if c.MaxAge < 0 {
			continue
		}
		req.AddCookie(c)
	}
	return req
}

func TestCookieStoreSaveReadClear(t *testing.T) {
	store := NewCookieStore(CookieOptions{TTL: time.Hour, Dev: true})

	res := httptest.NewRecorder()
	store.Save(res, httptest.NewRequest(http.MethodPost, "/login", nil), "a.b.c")

	cookies := res.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, StorageKey, cookies[0].Name)
	assert.True(t, cookies[0].HttpOnly)
	assert.False(t, cookies[0].Secure)
	assert.Equal(t, 3600, cookies[0].MaxAge)

	token, ok := store.Read(carryCookies(res))
	require.True(t, ok)
	assert.Equal(t, "a.b.c", token)

	cleared := httptest.NewRecorder()
	store.Clear(cleared, carryCookies(res))
	_, ok = store.Read(carryCookies(cleared))
	assert.False(t, ok)
	require.Len(t, cleared.Result().Cookies(), 1)
	assert.Equal(t, -1, cleared.Result().Cookies()[0].MaxAge)
}

func TestCookieStoreSecureOutsideDev(t *testing.T) {
	store := NewCookieStore(CookieOptions{TTL: time.Hour})
	res := httptest.NewRecorder()
	store.Save(res, nil, "a.b.c")

	c := res.Result().Cookies()[0]
	assert.True(t, c.Secure)
	assert.Equal(t, http.SameSiteNoneMode, c.SameSite)
}

func TestCookieStoreWithoutStorageIsNoop(t *testing.T) {
	store := NewCookieStore(CookieOptions{})
	assert.NotPanics(t, func() {
		store.Save(nil, nil, "a.b.c")
		store.Clear(nil, nil)
		token, ok := store.Read(nil)
		assert.False(t, ok)
		assert.Empty(t, token)
	})
}

func TestRedisStoreSaveReadClear(t *testing.T) {
	client := &stubRedis{}
	store := NewRedisStore(client, CookieOptions{TTL: time.Hour}, zerolog.Nop())

	res := httptest.NewRecorder()
	store.Save(res, httptest.NewRequest(http.MethodPost, "/login", nil), "a.b.c")
	require.Len(t, client.store, 1)

	cookies := res.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, SessionCookie, cookies[0].Name)
	assert.NotContains(t, cookies[0].Value, "a.b.c")
	assert.Equal(t, "a.b.c", client.store[TokenRedisKey(cookies[0].Value)])

	token, ok := store.Read(carryCookies(res))
	require.True(t, ok)
	assert.Equal(t, "a.b.c", token)

	cleared := httptest.NewRecorder()
	store.Clear(cleared, carryCookies(res))
	assert.Empty(t, client.store)
	_, ok = store.Read(carryCookies(res))
	assert.False(t, ok)
}

func TestRedisStoreReplacesPreviousSession(t *testing.T) {
	client := &stubRedis{}
	store := NewRedisStore(client, CookieOptions{TTL: time.Hour}, zerolog.Nop())

	first := httptest.NewRecorder()
	store.Save(first, httptest.NewRequest(http.MethodPost, "/login", nil), "a.b.c")

	second := httptest.NewRecorder()
	store.Save(second, carryCookies(first), "d.e.f")

	require.Len(t, client.store, 1)
	token, ok := store.Read(carryCookies(second))
	require.True(t, ok)
	assert.Equal(t, "d.e.f", token)
}

func TestRedisStoreBoundsTTLByTokenExpiry(t *testing.T) {
	client := &stubRedis{}
	store := NewRedisStore(client, CookieOptions{TTL: 12 * time.Hour}, zerolog.Nop())
	now := time.Unix(1_800_000_000, 0)
	store.now = func() time.Time { return now }

	token := rawPayloadToken(`{"sub":"u1","exp":1800000600}`)
	res := httptest.NewRecorder()
	store.Save(res, nil, token)

	require.Len(t, client.ttls, 1)
	for _, ttl := range client.ttls {
		assert.Equal(t, 10*time.Minute, ttl)
	}
}

func TestRedisStoreSkipsExpiredToken(t *testing.T) {
	client := &stubRedis{}
	store := NewRedisStore(client, CookieOptions{TTL: time.Hour}, zerolog.Nop())

	res := httptest.NewRecorder()
	store.Save(res, nil, rawPayloadToken(`{"sub":"u1","exp":1}`))

	assert.Empty(t, client.store)
	assert.Empty(t, res.Result().Cookies())
}

func TestRedisStoreDegradesWhenUnavailable(t *testing.T) {
	client := &stubRedis{err: errors.New("connection refused")}
	store := NewRedisStore(client, CookieOptions{TTL: time.Hour}, zerolog.Nop())

	res := httptest.NewRecorder()
	assert.NotPanics(t, func() {
		store.Save(res, nil, "a.b.c")
	})
	assert.Empty(t, res.Result().Cookies())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: "7b0f2a54-9bde-4c8c-9a32-8d7c8e1c2f10"})
	_, ok := store.Read(req)
	assert.False(t, ok)

	cleared := httptest.NewRecorder()
	store.Clear(cleared, req)
	require.Len(t, cleared.Result().Cookies(), 1)
	assert.Equal(t, -1, cleared.Result().Cookies()[0].MaxAge)
}

func TestRedisStoreIgnoresForgedSessionID(t *testing.T) {
	client := &stubRedis{store: map[string]string{TokenRedisKey("*"): "a.b.c"}}
	store := NewRedisStore(client, CookieOptions{}, zerolog.Nop())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: "*"})
	_, ok := store.Read(req)
	assert.False(t, ok)
}

func TestRedisStoreWithoutClientIsNoop(t *testing.T) {
	store := NewRedisStore(nil, CookieOptions{}, zerolog.Nop())
	res := httptest.NewRecorder()
	assert.NotPanics(t, func() {
		store.Save(res, nil, "a.b.c")
		store.Clear(res, nil)
		_, ok := store.Read(httptest.NewRequest(http.MethodGet, "/", nil))
		assert.False(t, ok)
	})
}
