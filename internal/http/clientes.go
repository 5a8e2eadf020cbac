package http

import (
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/DeveloperManuel24/VisitasFront/internal/backend"
	httpmiddleware "github.com/DeveloperManuel24/VisitasFront/internal/http/middleware"
	"github.com/DeveloperManuel24/VisitasFront/internal/util"
)

func listQuery(q url.Values) backend.ListQuery {
	return backend.ListQuery{
		Q:     q.Get("q"),
		Page:  backend.ParsePageParam(q.Get("page")),
		Limit: backend.ParsePageParam(q.Get("limit")),
	}
}

func (h *Handler) ListClientes(w http.ResponseWriter, r *http.Request) {
	query := listQuery(r.URL.Query())
	page, err := h.clientes.List(httpmiddleware.UpstreamContext(r), query)
	if err != nil {
		h.upstreamError(w, r, err)
		return
	}
	h.respond(w, r, "clientes", map[string]any{"Page": page, "Q": query.Q}, page)
}

func (h *Handler) GetCliente(w http.ResponseWriter, r *http.Request) {
	cliente, err := h.clientes.Get(httpmiddleware.UpstreamContext(r), chi.URLParam(r, "id"))
	if err != nil {
		h.upstreamError(w, r, err)
		return
	}
	h.respond(w, r, "cliente", cliente, cliente)
}

func (h *Handler) CreateCliente(w http.ResponseWriter, r *http.Request) {
	in, err := readInput(w, r)
	if err != nil {
		h.fail(w, r, http.StatusBadRequest, "VALIDATION", err.Error())
		return
	}
	payload, err := clienteInput(in, true)
	if err != nil {
		h.fail(w, r, http.StatusBadRequest, "VALIDATION", err.Error())
		return
	}

	cliente, err := h.clientes.Create(httpmiddleware.UpstreamContext(r), payload)
	if err != nil {
		h.upstreamError(w, r, err)
		return
	}
	done(w, r, http.StatusCreated, "/clientes/"+cliente.ID, cliente)
}

func (h *Handler) EditClientePage(w http.ResponseWriter, r *http.Request) {
	cliente, err := h.clientes.Get(httpmiddleware.UpstreamContext(r), chi.URLParam(r, "id"))
	if err != nil {
		h.upstreamError(w, r, err)
		return
	}
	h.respond(w, r, "cliente_edit", cliente, cliente)
}

// EditCliente atiende el formulario de edición: accion=actualizar (por defecto) o eliminar.
func (h *Handler) EditCliente(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	in, err := readInput(w, r)
	if err != nil {
		h.fail(w, r, http.StatusBadRequest, "VALIDATION", err.Error())
		return
	}
	ctx := httpmiddleware.UpstreamContext(r)

	switch field(in, "accion") {
	case "", "actualizar":
		payload, err := clienteInput(in, false)
		if err != nil {
			h.fail(w, r, http.StatusBadRequest, "VALIDATION", err.Error())
			return
		}
		cliente, err := h.clientes.Update(ctx, id, payload)
		if err != nil {
			h.upstreamError(w, r, err)
			return
		}
		done(w, r, http.StatusOK, "/clientes/"+id, cliente)
	case "eliminar":
		if err := h.clientes.Delete(ctx, id); err != nil {
			h.upstreamError(w, r, err)
			return
		}
		done(w, r, http.StatusNoContent, "/clientes", nil)
	default:
		h.fail(w, r, http.StatusBadRequest, "VALIDATION", "acción no soportada")
	}
}

func (h *Handler) DeleteCliente(w http.ResponseWriter, r *http.Request) {
	if err := h.clientes.Delete(httpmiddleware.UpstreamContext(r), chi.URLParam(r, "id")); err != nil {
		h.upstreamError(w, r, err)
		return
	}
	done(w, r, http.StatusNoContent, "/clientes", nil)
}

// clienteInput arma el cuerpo; en alta el nombre es obligatorio, en edición
// solo se envían los campos presentes.
func clienteInput(in url.Values, create bool) (backend.ClienteInput, error) {
	var errs []error
	if create {
		errs = append(errs, util.RequireString(field(in, "nombre"), "nombre"))
	}
	if correo := field(in, "correo"); correo != "" {
		errs = append(errs, util.ValidateEmail(correo))
	}
	lat, lng, err := coordinates(in)
	errs = append(errs, err)
	if err := validationError(errs...); err != nil {
		return backend.ClienteInput{}, err
	}

	payload := backend.ClienteInput{
		Nombre:    optString(in, "nombre"),
		Direccion: optString(in, "direccion"),
		Telefono:  optString(in, "telefono"),
		Correo:    optString(in, "correo"),
		NIT:       optString(in, "nit"),
		Lat:       lat,
		Lng:       lng,
	}
	if payload.Nombre != nil && *payload.Nombre == "" {
		payload.Nombre = nil
	}
	return payload, nil
}
