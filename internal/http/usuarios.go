package http

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/DeveloperManuel24/VisitasFront/internal/backend"
	httpmiddleware "github.com/DeveloperManuel24/VisitasFront/internal/http/middleware"
	"github.com/DeveloperManuel24/VisitasFront/internal/util"
)

func (h *Handler) ListUsuarios(w http.ResponseWriter, r *http.Request) {
	ctx := httpmiddleware.UpstreamContext(r)
	query := url.Values{}
	for _, key := range []string{"q", "page", "limit", "activo", "rol", "supervisorId"} {
		if v := strings.TrimSpace(r.URL.Query().Get(key)); v != "" {
			query.Set(key, v)
		}
	}

	page, err := h.usuarios.List(ctx, query)
	if err != nil {
		h.upstreamError(w, r, err)
		return
	}
	if !httpmiddleware.IsBrowserRequest(r) {
		WriteJSON(w, http.StatusOK, page)
		return
	}

	roles, err := h.assignableRoles(ctx)
	if err != nil {
		h.upstreamError(w, r, err)
		return
	}
	h.pages.render(w, r, http.StatusOK, "usuarios", "", map[string]any{"Page": page, "Q": query.Get("q"), "Roles": roles})
}

// assignableRoles lista los roles para los formularios; sin permiso para
// listarlos devuelve una lista vacía.
func (h *Handler) assignableRoles(ctx context.Context) ([]backend.Rol, error) {
	roles, err := h.roles.List(ctx, "")
	if errors.Is(err, backend.ErrForbidden) {
		return []backend.Rol{}, nil
	}
	return roles, err
}

func (h *Handler) CreateUsuario(w http.ResponseWriter, r *http.Request) {
	in, err := readInput(w, r)
	if err != nil {
		h.fail(w, r, http.StatusBadRequest, "VALIDATION", err.Error())
		return
	}
	nombre, email, password := field(in, "nombre"), field(in, "email"), in.Get("password")
	if err := validationError(
		util.RequireString(nombre, "nombre"),
		util.ValidateEmail(email),
		util.ValidatePassword(password),
	); err != nil {
		h.fail(w, r, http.StatusBadRequest, "VALIDATION", err.Error())
		return
	}

	email = strings.ToLower(email)
	usuario, err := h.usuarios.Create(httpmiddleware.UpstreamContext(r), backend.UsuarioInput{
		Nombre:       &nombre,
		Email:        &email,
		Password:     &password,
		Activo:       optBool(in, "activo"),
		SupervisorID: optNonEmpty(in, "supervisorId"),
		Roles:        normalizeRoles(values(in, "roles")),
	})
	if err != nil {
		h.upstreamError(w, r, err)
		return
	}
	done(w, r, http.StatusCreated, "/usuarios/"+usuario.ID+"/editar", usuario)
}

func (h *Handler) EditUsuarioPage(w http.ResponseWriter, r *http.Request) {
	ctx := httpmiddleware.UpstreamContext(r)
	usuario, err := h.usuarios.Get(ctx, chi.URLParam(r, "id"))
	if err != nil {
		h.upstreamError(w, r, err)
		return
	}
	if !httpmiddleware.IsBrowserRequest(r) {
		WriteJSON(w, http.StatusOK, usuario)
		return
	}
	roles, err := h.assignableRoles(ctx)
	if err != nil {
		h.upstreamError(w, r, err)
		return
	}
	h.pages.render(w, r, http.StatusOK, "usuario_edit", "", map[string]any{"Usuario": usuario, "Roles": roles})
}

// EditUsuario atiende accion=actualizar (por defecto) o eliminar.
func (h *Handler) EditUsuario(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	in, err := readInput(w, r)
	if err != nil {
		h.fail(w, r, http.StatusBadRequest, "VALIDATION", err.Error())
		return
	}
	ctx := httpmiddleware.UpstreamContext(r)

	switch field(in, "accion") {
	case "", "actualizar":
		payload, err := usuarioUpdate(in)
		if err != nil {
			h.fail(w, r, http.StatusBadRequest, "VALIDATION", err.Error())
			return
		}
		usuario, err := h.usuarios.Update(ctx, id, payload)
		if err != nil {
			h.upstreamError(w, r, err)
			return
		}
		done(w, r, http.StatusOK, "/usuarios/"+id+"/editar", usuario)
	case "eliminar":
		if err := h.usuarios.Delete(ctx, id); err != nil {
			h.upstreamError(w, r, err)
			return
		}
		done(w, r, http.StatusNoContent, "/usuarios", nil)
	default:
		h.fail(w, r, http.StatusBadRequest, "VALIDATION", "acción no soportada")
	}
}

func (h *Handler) DeleteUsuario(w http.ResponseWriter, r *http.Request) {
	if err := h.usuarios.Delete(httpmiddleware.UpstreamContext(r), chi.URLParam(r, "id")); err != nil {
		h.upstreamError(w, r, err)
		return
	}
	done(w, r, http.StatusNoContent, "/usuarios", nil)
}

// AssignUsuarioRoles reemplaza los roles; una lista vacía los quita todos.
func (h *Handler) AssignUsuarioRoles(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	in, err := readInput(w, r)
	if err != nil {
		h.fail(w, r, http.StatusBadRequest, "VALIDATION", err.Error())
		return
	}
	roles := normalizeRoles(values(in, "roles"))
	if err := h.usuarios.AssignRoles(httpmiddleware.UpstreamContext(r), id, roles); err != nil {
		h.upstreamError(w, r, err)
		return
	}
	done(w, r, http.StatusOK, "/usuarios/"+id+"/editar", map[string]any{"id": id, "roles": roles})
}

func (h *Handler) UpdateUsuarioFoto(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	in, err := readInput(w, r)
	if err != nil {
		h.fail(w, r, http.StatusBadRequest, "VALIDATION", err.Error())
		return
	}
	foto := field(in, "fotoBase64")
	if err := util.RequireString(foto, "fotoBase64"); err != nil {
		h.fail(w, r, http.StatusBadRequest, "VALIDATION", err.Error())
		return
	}
	if !strings.HasPrefix(foto, "data:image/") {
		h.fail(w, r, http.StatusBadRequest, "VALIDATION", "fotoBase64 debe ser una imagen en data URL")
		return
	}
	if err := h.usuarios.UpdatePhoto(httpmiddleware.UpstreamContext(r), id, foto); err != nil {
		h.upstreamError(w, r, err)
		return
	}
	done(w, r, http.StatusOK, "/usuarios/"+id+"/editar", map[string]any{"ok": true, "id": id})
}

func usuarioUpdate(in url.Values) (backend.UsuarioInput, error) {
	payload := backend.UsuarioInput{
		Nombre:       optNonEmpty(in, "nombre"),
		Activo:       optBool(in, "activo"),
		SupervisorID: optString(in, "supervisorId"),
	}
	if email := field(in, "email"); email != "" {
		if err := util.ValidateEmail(email); err != nil {
			return payload, err
		}
		email = strings.ToLower(email)
		payload.Email = &email
	}
	if password := in.Get("password"); password != "" {
		if err := util.ValidatePassword(password); err != nil {
			return payload, err
		}
		payload.Password = &password
	}
	return payload, nil
}

func normalizeRoles(roles []string) []string {
	out := make([]string, 0, len(roles))
	seen := make(map[string]struct{}, len(roles))
	for _, role := range roles {
		role = strings.ToUpper(strings.TrimSpace(role))
		if _, dup := seen[role]; role == "" || dup {
			continue
		}
		seen[role] = struct{}{}
		out = append(out, role)
	}
	return out
}
