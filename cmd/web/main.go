package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/DeveloperManuel24/VisitasFront/internal/auth"
	"github.com/DeveloperManuel24/VisitasFront/internal/backend"
	"github.com/DeveloperManuel24/VisitasFront/internal/config"
	internalhttp "github.com/DeveloperManuel24/VisitasFront/internal/http"
	"github.com/DeveloperManuel24/VisitasFront/internal/service"
)

func main() {
	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("web terminó con error")
	}
}

func run() error {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if level, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(level)
	} else {
		log.Warn().Str("level", cfg.LogLevel).Msg("LOG_LEVEL inválido, se usa info")
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	checks := map[string]internalhttp.Pinger{}
	cookies := auth.CookieOptions{TTL: cfg.SessionTTL, Dev: cfg.DevCookies()}

	var store auth.TokenStore
	switch cfg.TokenStore {
	case config.TokenStoreRedis:
		redisOpts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("redis parse: %w", err)
		}
		redisClient := redis.NewClient(redisOpts)
		defer redisClient.Close()

		store = auth.NewRedisStore(redisClient, cookies, log.Logger)
		checks["redis"] = internalhttp.RedisPinger(redisClient)
	default:
		store = auth.NewCookieStore(cookies)
	}

	usuariosAPI, err := backend.New(backend.Config{
		Name:    "usuarios",
		BaseURL: cfg.UsuariosAPIURL,
		Timeout: cfg.UpstreamTimeout,
	}, log.Logger)
	if err != nil {
		return fmt.Errorf("usuarios: %w", err)
	}
	clientesAPI, err := backend.New(backend.Config{
		Name:    "clientes",
		BaseURL: cfg.ClientesAPIURL,
		Timeout: cfg.UpstreamTimeout,
	}, log.Logger)
	if err != nil {
		return fmt.Errorf("clientes: %w", err)
	}
	checks[usuariosAPI.Name()] = usuariosAPI
	checks[clientesAPI.Name()] = clientesAPI

	sessions := service.NewSessionService(store, log.Logger)
	authService := service.NewAuthService(backend.NewAuth(usuariosAPI), sessions, log.Logger)

	handler, err := internalhttp.NewRouter(cfg, internalhttp.Dependencies{
		Auth:     authService,
		Usuarios: backend.NewUsuarios(usuariosAPI),
		Roles:    backend.NewRoles(usuariosAPI),
		Clientes: backend.NewClientes(clientesAPI),
		Visitas:  backend.NewVisitas(clientesAPI),
		Checks:   checks,
	})
	if err != nil {
		return fmt.Errorf("router: %w", err)
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("token_store", cfg.TokenStore).Msgf("web escuchando en :%d", cfg.Port)
		errCh <- srv.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info().Str("signal", sig.String()).Msg("cerrando...")
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
