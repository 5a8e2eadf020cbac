package http

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/DeveloperManuel24/VisitasFront/internal/backend"
	httpmiddleware "github.com/DeveloperManuel24/VisitasFront/internal/http/middleware"
	"github.com/DeveloperManuel24/VisitasFront/internal/util"
)

func (h *Handler) ListRoles(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	roles, err := h.roles.List(httpmiddleware.UpstreamContext(r), q)
	if err != nil {
		h.upstreamError(w, r, err)
		return
	}
	h.respond(w, r, "roles", map[string]any{"Roles": roles, "Q": q}, roles)
}

func (h *Handler) CreateRol(w http.ResponseWriter, r *http.Request) {
	in, err := readInput(w, r)
	if err != nil {
		h.fail(w, r, http.StatusBadRequest, "VALIDATION", err.Error())
		return
	}
	payload := rolInput(in)
	if err := util.RequireString(payload.Nombre, "nombre"); err != nil {
		h.fail(w, r, http.StatusBadRequest, "VALIDATION", err.Error())
		return
	}

	rol, err := h.roles.Create(httpmiddleware.UpstreamContext(r), payload)
	if err != nil {
		h.upstreamError(w, r, err)
		return
	}
	done(w, r, http.StatusCreated, "/roles", rol)
}

func (h *Handler) EditRolPage(w http.ResponseWriter, r *http.Request) {
	rol, err := h.roles.Get(httpmiddleware.UpstreamContext(r), chi.URLParam(r, "id"))
	if err != nil {
		h.upstreamError(w, r, err)
		return
	}
	h.respond(w, r, "rol_edit", rol, rol)
}

// EditRol atiende accion=actualizar (por defecto) o eliminar.
func (h *Handler) EditRol(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	in, err := readInput(w, r)
	if err != nil {
		h.fail(w, r, http.StatusBadRequest, "VALIDATION", err.Error())
		return
	}
	ctx := httpmiddleware.UpstreamContext(r)

	switch field(in, "accion") {
	case "", "actualizar":
		rol, err := h.roles.Update(ctx, id, rolInput(in))
		if err != nil {
			h.upstreamError(w, r, err)
			return
		}
		done(w, r, http.StatusOK, "/roles", rol)
	case "eliminar":
		if err := h.roles.Delete(ctx, id); err != nil {
			h.upstreamError(w, r, err)
			return
		}
		done(w, r, http.StatusNoContent, "/roles", nil)
	default:
		h.fail(w, r, http.StatusBadRequest, "VALIDATION", "acción no soportada")
	}
}

func (h *Handler) DeleteRol(w http.ResponseWriter, r *http.Request) {
	if err := h.roles.Delete(httpmiddleware.UpstreamContext(r), chi.URLParam(r, "id")); err != nil {
		h.upstreamError(w, r, err)
		return
	}
	done(w, r, http.StatusNoContent, "/roles", nil)
}

// rolInput normaliza el nombre a mayúsculas, la forma canónica de los roles.
func rolInput(in url.Values) backend.RolInput {
	return backend.RolInput{
		Nombre:      strings.ToUpper(field(in, "nombre")),
		Descripcion: field(in, "descripcion"),
	}
}
