package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/DeveloperManuel24/VisitasFront/internal/backend"
	"github.com/DeveloperManuel24/VisitasFront/internal/config"
	httpmiddleware "github.com/DeveloperManuel24/VisitasFront/internal/http/middleware"
	"github.com/DeveloperManuel24/VisitasFront/internal/service"
)

// Pinger es cualquier dependencia que /ready debe verificar.
type Pinger interface {
	Ping(ctx context.Context) error
}

type redisPinger struct {
	client redis.UniversalClient
}

func (p redisPinger) Ping(ctx context.Context) error {
	return p.client.Ping(ctx).Err()
}

// RedisPinger adapta un cliente de Redis a Pinger.
func RedisPinger(client redis.UniversalClient) Pinger {
	return redisPinger{client: client}
}

// Dependencies agrupa los servicios que usa el router.
type Dependencies struct {
	Auth     *service.AuthService
	Usuarios *backend.Usuarios
	Roles    *backend.Roles
	Clientes *backend.Clientes
	Visitas  *backend.Visitas
	// Checks se verifican en /ready, por nombre.
	Checks map[string]Pinger
}

type Handler struct {
	cfg           *config.Config
	auth          *service.AuthService
	usuarios      *backend.Usuarios
	roles         *backend.Roles
	clientes      *backend.Clientes
	visitas       *backend.Visitas
	checks        map[string]Pinger
	pages         *pages
	publicLimiter *httpmiddleware.RateLimiter
	authLimiter   *httpmiddleware.RateLimiter
}

// NewRouter devuelve el router configurado.
func NewRouter(cfg *config.Config, deps Dependencies) (http.Handler, error) {
	if deps.Auth == nil {
		return nil, fmt.Errorf("router: servicio de autenticación obligatorio")
	}
	pg, err := loadPages()
	if err != nil {
		return nil, fmt.Errorf("templates: %w", err)
	}

	h := &Handler{
		cfg:           cfg,
		auth:          deps.Auth,
		usuarios:      deps.Usuarios,
		roles:         deps.Roles,
		clientes:      deps.Clientes,
		visitas:       deps.Visitas,
		checks:        deps.Checks,
		pages:         pg,
		publicLimiter: httpmiddleware.NewRateLimiter(cfg.RateLimitPublic.RequestsPerSecond, cfg.RateLimitPublic.Burst),
		authLimiter:   httpmiddleware.NewRateLimiter(cfg.RateLimitAuth.RequestsPerSecond, cfg.RateLimitAuth.Burst),
	}

	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(httpmiddleware.Logging)
	r.Use(httpmiddleware.Recover)
	r.Use(httpmiddleware.CORS(cfg.AllowOrigins))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		h.fail(w, r, http.StatusNotFound, "NOT_FOUND", "página no encontrada")
	})

	r.Get("/health", h.Health)
	r.Get("/ready", h.Ready)

	r.Group(func(app chi.Router) {
		app.Use(httpmiddleware.Session(h.auth.Sessions()))

		app.Post("/logout", h.Logout)

		app.Group(func(private chi.Router) {
			private.Use(httpmiddleware.RequireSession)
			private.Use(httpmiddleware.UserRateLimit(h.authLimiter))

			private.Get("/me", h.Me)
			private.Post("/auth/change-password", h.ChangePassword)
		})

		app.Group(func(guarded chi.Router) {
			guarded.Use(httpmiddleware.Guard(h.pages.handler("checking")))
			guarded.Use(httpmiddleware.UserRateLimit(h.authLimiter))

			guarded.Get("/", h.Landing)
			guarded.Get("/unauthorized", h.Unauthorized)
			guarded.Get("/login", h.LoginPage)
			guarded.Get("/login/forgot-password", h.ForgotPasswordPage)
			guarded.Get("/login/reset-password", h.ResetPasswordPage)
			guarded.Group(func(public chi.Router) {
				public.Use(httpmiddleware.IPRateLimit(h.publicLimiter))
				public.Post("/login", h.Login)
				public.Post("/login/forgot-password", h.ForgotPassword)
				public.Post("/login/reset-password", h.ResetPassword)
			})

			guarded.Route("/clientes", func(c chi.Router) {
				c.Get("/", h.ListClientes)
				c.Post("/", h.CreateCliente)
				c.Get("/{id}", h.GetCliente)
				c.Delete("/{id}", h.DeleteCliente)
				c.Get("/{id}/editar", h.EditClientePage)
				c.Post("/{id}/editar", h.EditCliente)
			})

			guarded.Route("/visitas", func(v chi.Router) {
				v.Get("/", h.ListVisitas)
				v.Post("/", h.CreateVisita)
				v.Get("/tecnico", h.ListMisVisitas)
				v.Get("/{id}", h.GetVisita)
				v.Delete("/{id}", h.DeleteVisita)
				v.Get("/{id}/editar", h.EditVisitaPage)
				v.Post("/{id}/editar", h.EditVisita)
			})

			guarded.Route("/usuarios", func(u chi.Router) {
				u.Get("/", h.ListUsuarios)
				u.Post("/", h.CreateUsuario)
				u.Delete("/{id}", h.DeleteUsuario)
				u.Get("/{id}/editar", h.EditUsuarioPage)
				u.Post("/{id}/editar", h.EditUsuario)
				u.Post("/{id}/roles", h.AssignUsuarioRoles)
				u.Post("/{id}/foto", h.UpdateUsuarioFoto)
			})

			guarded.Route("/roles", func(rr chi.Router) {
				rr.Get("/", h.ListRoles)
				rr.Post("/", h.CreateRol)
				rr.Delete("/{id}", h.DeleteRol)
				rr.Get("/{id}/editar", h.EditRolPage)
				rr.Post("/{id}/editar", h.EditRol)
			})
		})
	})

	return r, nil
}

// Health responde un estado simple.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Ready verifica en paralelo Redis y los backends configurados.
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	results := make(map[string]string, len(h.checks))
	errs := make([]error, 0, len(h.checks))
	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
		errs = append(errs, nil)
	}

	var g errgroup.Group
	for i, name := range names {
		check := h.checks[name]
		g.Go(func() error {
			errs[i] = check.Ping(ctx)
			return nil
		})
	}
	_ = g.Wait()

	failed := false
	for i, name := range names {
		results[name] = errorString(errs[i])
		if errs[i] != nil {
			failed = true
		}
	}

	if failed {
		WriteError(w, http.StatusServiceUnavailable, "INTERNAL", "dependencias no disponibles", results)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]bool{"ready": true})
}

func errorString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
