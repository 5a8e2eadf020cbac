package auth

import (
	"net/http"
	"time"
)

// TokenStore persiste el bearer token del navegador bajo una clave fija.
// Ninguna operación propaga fallas de almacenamiento: degradan a no-op.
type TokenStore interface {
	Save(w http.ResponseWriter, r *http.Request, token string)
	Read(r *http.Request) (string, bool)
	Clear(w http.ResponseWriter, r *http.Request)
}

// CookieOptions controla los atributos de las cookies emitidas.
type CookieOptions struct {
	TTL time.Duration
	// Dev emite cookies sin Secure y con SameSite=Lax para orígenes locales.
	Dev bool
}

func (o CookieOptions) cookie(name, value string) *http.Cookie {
	sameSite := http.SameSiteNoneMode
	if o.Dev {
		sameSite = http.SameSiteLaxMode
	}
	c := &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   !o.Dev,
		SameSite: sameSite,
	}
	if o.TTL > 0 {
		c.MaxAge = int(o.TTL / time.Second)
	}
	return c
}

func (o CookieOptions) expired(name string) *http.Cookie {
	c := o.cookie(name, "")
	c.MaxAge = -1
	return c
}

// CookieStore guarda el token tal cual en una cookie HttpOnly.
type CookieStore struct {
	opts CookieOptions
}

// NewCookieStore crea el store basado en cookie.
func NewCookieStore(opts CookieOptions) *CookieStore {
	return &CookieStore{opts: opts}
}

// Save escribe el token; sin ResponseWriter no hace nada.
func (s *CookieStore) Save(w http.ResponseWriter, _ *http.Request, token string) {
	if w == nil || token == "" {
		return
	}
	http.SetCookie(w, s.opts.cookie(StorageKey, token))
}

// Read devuelve el token guardado, si existe.
func (s *CookieStore) Read(r *http.Request) (string, bool) {
	if r == nil {
		return "", false
	}
	c, err := r.Cookie(StorageKey)
	if err != nil || c.Value == "" {
		return "", false
	}
	return c.Value, true
}

// Clear expira la cookie del token.
func (s *CookieStore) Clear(w http.ResponseWriter, _ *http.Request) {
	if w == nil {
		return
	}
	http.SetCookie(w, s.opts.expired(StorageKey))
}
