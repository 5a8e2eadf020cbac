package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// SessionCookie guarda el id opaco que apunta al token en Redis.
const SessionCookie = "visitas_sid"

const redisOpTimeout = 2 * time.Second

// RedisClient es el subconjunto de go-redis usado por el store.
type RedisClient interface {
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Get(ctx context.Context, key string) *redis.StringCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// RedisStore mantiene el token en Redis y solo un id de sesión en el navegador.
type RedisStore struct {
	client RedisClient
	opts   CookieOptions
	logger zerolog.Logger
	now    func() time.Time
}

// NewRedisStore crea el store; un client nil deja el store como no disponible.
func NewRedisStore(client RedisClient, opts CookieOptions, logger zerolog.Logger) *RedisStore {
	return &RedisStore{
		client: client,
		opts:   opts,
		logger: logger.With().Str("component", "token_store").Logger(),
		now:    time.Now,
	}
}

// TokenRedisKey monta la clave única del token para un id de sesión.
func TokenRedisKey(sessionID string) string {
	return fmt.Sprintf("visitas:%s:%s", StorageKey, sessionID)
}

// Save guarda el token bajo un id nuevo y descarta el anterior, si había.
func (s *RedisStore) Save(w http.ResponseWriter, r *http.Request, token string) {
	if s.client == nil || w == nil || token == "" {
		return
	}

	ctx, cancel := s.opContext(r)
	defer cancel()

	if previous, ok := s.sessionID(r); ok {
		if err := s.client.Del(ctx, TokenRedisKey(previous)).Err(); err != nil {
			s.logger.Warn().Err(err).Msg("no se pudo descartar la sesión anterior")
		}
	}

	ttl := s.ttlFor(token)
	if ttl <= 0 {
		return
	}

	id := uuid.NewString()
	if err := s.client.Set(ctx, TokenRedisKey(id), token, ttl).Err(); err != nil {
		s.logger.Warn().Err(err).Msg("no se pudo guardar el token")
		return
	}

	c := s.opts.cookie(SessionCookie, id)
	c.MaxAge = int(ttl / time.Second)
	http.SetCookie(w, c)
}

// Read busca el token asociado a la cookie de sesión.
func (s *RedisStore) Read(r *http.Request) (string, bool) {
	if s.client == nil {
		return "", false
	}
	id, ok := s.sessionID(r)
	if !ok {
		return "", false
	}

	ctx, cancel := s.opContext(r)
	defer cancel()

	token, err := s.client.Get(ctx, TokenRedisKey(id)).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.logger.Warn().Err(err).Msg("no se pudo leer el token")
		}
		return "", false
	}
	if token == "" {
		return "", false
	}
	return token, true
}

// Clear elimina el token de Redis y expira la cookie de sesión.
func (s *RedisStore) Clear(w http.ResponseWriter, r *http.Request) {
	if s.client != nil {
		if id, ok := s.sessionID(r); ok {
			ctx, cancel := s.opContext(r)
			if err := s.client.Del(ctx, TokenRedisKey(id)).Err(); err != nil {
				s.logger.Warn().Err(err).Msg("no se pudo eliminar el token")
			}
			cancel()
		}
	}
	if w != nil {
		http.SetCookie(w, s.opts.expired(SessionCookie))
	}
}

func (s *RedisStore) sessionID(r *http.Request) (string, bool) {
	if r == nil {
		return "", false
	}
	c, err := r.Cookie(SessionCookie)
	if err != nil {
		return "", false
	}
	if _, err := uuid.Parse(c.Value); err != nil {
		return "", false
	}
	return c.Value, true
}

// ttlFor acota la vida de la entrada al exp del token cuando viene informado.
func (s *RedisStore) ttlFor(token string) time.Duration {
	ttl := s.opts.TTL
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	if claims := Decode(token); claims != nil && claims.ExpiresAt != nil {
		if until := claims.ExpiresAt.Sub(s.now()); until < ttl {
			ttl = until
		}
	}
	return ttl
}

func (s *RedisStore) opContext(r *http.Request) (context.Context, context.CancelFunc) {
	parent := context.Background()
	if r != nil {
		parent = r.Context()
	}
	return context.WithTimeout(parent, redisOpTimeout)
}
