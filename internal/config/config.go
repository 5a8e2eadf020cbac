package config

import (
	"errors"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

const (
	// TokenStoreCookie guarda el token directamente en una cookie HttpOnly.
	TokenStoreCookie = "cookie"
	// TokenStoreRedis guarda solo un id de sesión en la cookie y el token en Redis.
	TokenStoreRedis = "redis"

	fallbackClientesURL = "http://localhost:3001"
	fallbackUsuariosURL = "http://localhost:3000"
)

// Config centraliza la configuración cargada del entorno.
type Config struct {
	Port            int           `env:"PORT" envDefault:"8080"`
	UsuariosAPIURL  string        `env:"USUARIOS_API_BASE_URL"`
	ClientesAPIURL  string        `env:"CLIENTES_API_BASE_URL"`
	TokenStore      string        `env:"TOKEN_STORE" envDefault:"cookie"`
	RedisURL        string        `env:"REDIS_URL"`
	SessionTTL      time.Duration `env:"SESSION_TTL" envDefault:"12h"`
	UpstreamTimeout time.Duration `env:"UPSTREAM_TIMEOUT" envDefault:"10s"`
	AllowOrigins    []string      `env:"ALLOW_ORIGINS" envSeparator:","`
	LogLevel        string        `env:"LOG_LEVEL" envDefault:"info"`

	PublicRPS   float64 `env:"RATE_LIMIT_PUBLIC_RPS" envDefault:"5"`
	PublicBurst int     `env:"RATE_LIMIT_PUBLIC_BURST" envDefault:"10"`
	AuthRPS     float64 `env:"RATE_LIMIT_AUTH_RPS" envDefault:"10"`
	AuthBurst   int     `env:"RATE_LIMIT_AUTH_BURST" envDefault:"40"`

	RateLimitPublic RateLimitConfig
	RateLimitAuth   RateLimitConfig
}

// RateLimitConfig representa límites simples de throttling.
type RateLimitConfig struct {
	RequestsPerSecond float64
	Burst             int
}

// DevCookies indica si las cookies deben emitirse sin Secure (orígenes locales).
func (c *Config) DevCookies() bool {
	for _, origin := range c.AllowOrigins {
		if strings.Contains(origin, "localhost") || strings.Contains(origin, "127.0.0.1") {
			return true
		}
	}
	return false
}

// Load carga variables de entorno (y .env si existe) y aplica defaults.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	if cfg.Port <= 0 {
		return nil, errors.New("PORT inválido")
	}

	cfg.UsuariosAPIURL = strings.TrimRight(strings.TrimSpace(cfg.UsuariosAPIURL), "/")
	if cfg.UsuariosAPIURL == "" {
		log.Warn().Str("fallback", fallbackUsuariosURL).Msg("USUARIOS_API_BASE_URL no está definida")
		cfg.UsuariosAPIURL = fallbackUsuariosURL
	}

	cfg.ClientesAPIURL = strings.TrimRight(strings.TrimSpace(cfg.ClientesAPIURL), "/")
	if cfg.ClientesAPIURL == "" {
		log.Warn().Str("fallback", fallbackClientesURL).Msg("CLIENTES_API_BASE_URL no está definida")
		cfg.ClientesAPIURL = fallbackClientesURL
	}

	cfg.TokenStore = strings.ToLower(strings.TrimSpace(cfg.TokenStore))
	switch cfg.TokenStore {
	case "":
		cfg.TokenStore = TokenStoreCookie
	case TokenStoreCookie:
	case TokenStoreRedis:
		if strings.TrimSpace(cfg.RedisURL) == "" {
			return nil, errors.New("REDIS_URL obligatorio cuando TOKEN_STORE=redis")
		}
	default:
		return nil, errors.New("TOKEN_STORE inválido (cookie|redis)")
	}

	if cfg.SessionTTL <= 0 {
		return nil, errors.New("SESSION_TTL inválido")
	}
	if cfg.UpstreamTimeout <= 0 {
		return nil, errors.New("UPSTREAM_TIMEOUT inválido")
	}

	origins := cfg.AllowOrigins
	cfg.AllowOrigins = nil
	for _, origin := range origins {
		origin = strings.TrimSpace(origin)
		if origin != "" {
			cfg.AllowOrigins = append(cfg.AllowOrigins, origin)
		}
	}

	cfg.RateLimitPublic = RateLimitConfig{RequestsPerSecond: cfg.PublicRPS, Burst: cfg.PublicBurst}
	cfg.RateLimitAuth = RateLimitConfig{RequestsPerSecond: cfg.AuthRPS, Burst: cfg.AuthBurst}

	return cfg, nil
}
