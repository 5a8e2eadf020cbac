package http

import (
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/DeveloperManuel24/VisitasFront/internal/backend"
	httpmiddleware "github.com/DeveloperManuel24/VisitasFront/internal/http/middleware"
	"github.com/DeveloperManuel24/VisitasFront/internal/service"
	"github.com/DeveloperManuel24/VisitasFront/internal/util"
)

var estados = []backend.VisitaEstado{
	backend.EstadoPendiente,
	backend.EstadoEnCurso,
	backend.EstadoCompletada,
	backend.EstadoCancelada,
}

func (h *Handler) ListVisitas(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	base := listQuery(q)
	query := backend.VisitaQuery{
		Q:            base.Q,
		Page:         base.Page,
		Limit:        base.Limit,
		Estado:       backend.VisitaEstado(strings.ToUpper(q.Get("estado"))),
		SupervisorID: q.Get("supervisorId"),
		TecnicoID:    q.Get("tecnicoId"),
		ClienteID:    q.Get("clienteId"),
		From:         q.Get("from"),
		To:           q.Get("to"),
	}
	if query.Estado != "" && !query.Estado.Valid() {
		h.fail(w, r, http.StatusBadRequest, "VALIDATION", "estado inválido")
		return
	}

	page, err := h.visitas.List(httpmiddleware.UpstreamContext(r), query)
	if err != nil {
		h.upstreamError(w, r, err)
		return
	}
	h.respond(w, r, "visitas", map[string]any{"Page": page, "Query": query, "Estados": estados}, page)
}

// ListMisVisitas muestra la agenda del técnico de la sesión. Solo un
// administrador puede consultar la de otro técnico con ?tecnicoId=.
func (h *Handler) ListMisVisitas(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	tecnicoID := httpmiddleware.GetSubject(r.Context())
	if other := strings.TrimSpace(q.Get("tecnicoId")); other != "" && httpmiddleware.GetRoles(r.Context()).Has(service.RoleAdministrador) {
		tecnicoID = other
	}
	from, to := q.Get("from"), q.Get("to")

	page, err := h.visitas.ListByTecnico(httpmiddleware.UpstreamContext(r), tecnicoID, from, to)
	if err != nil {
		h.upstreamError(w, r, err)
		return
	}
	h.respond(w, r, "visitas_tecnico", map[string]any{"Page": page, "From": from, "To": to}, page)
}

func (h *Handler) GetVisita(w http.ResponseWriter, r *http.Request) {
	visita, err := h.visitas.Get(httpmiddleware.UpstreamContext(r), chi.URLParam(r, "id"))
	if err != nil {
		h.upstreamError(w, r, err)
		return
	}
	h.respond(w, r, "visita", visita, visita)
}

func (h *Handler) CreateVisita(w http.ResponseWriter, r *http.Request) {
	in, err := readInput(w, r)
	if err != nil {
		h.fail(w, r, http.StatusBadRequest, "VALIDATION", err.Error())
		return
	}

	clienteID := field(in, "clienteId")
	scheduledAt, schedErr := util.ParseDateTime(field(in, "scheduledAt"), "scheduledAt")
	estado := backend.VisitaEstado(strings.ToUpper(field(in, "estado")))
	var estadoErr error
	if estado != "" && !estado.Valid() {
		estadoErr = errInvalidEstado
	}
	if err := validationError(util.RequireString(clienteID, "clienteId"), schedErr, estadoErr); err != nil {
		h.fail(w, r, http.StatusBadRequest, "VALIDATION", err.Error())
		return
	}

	visita, err := h.visitas.Create(httpmiddleware.UpstreamContext(r), backend.VisitaCreate{
		ClienteID:      clienteID,
		SupervisorID:   optNonEmpty(in, "supervisorId"),
		TecnicoID:      optNonEmpty(in, "tecnicoId"),
		ScheduledAt:    scheduledAt.UTC().Format(time.RFC3339),
		Estado:         estado,
		NotaSupervisor: optNonEmpty(in, "notaSupervisor"),
	})
	if err != nil {
		h.upstreamError(w, r, err)
		return
	}
	done(w, r, http.StatusCreated, "/visitas/"+visita.ID, visita)
}

func (h *Handler) EditVisitaPage(w http.ResponseWriter, r *http.Request) {
	visita, err := h.visitas.Get(httpmiddleware.UpstreamContext(r), chi.URLParam(r, "id"))
	if err != nil {
		h.upstreamError(w, r, err)
		return
	}
	h.respond(w, r, "visita_edit", visita, visita)
}

// EditVisita multiplexa las acciones sobre una visita por el campo accion:
// actualizar, check-in, check-out, cancelar, evidencia o eliminar.
func (h *Handler) EditVisita(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	in, err := readInput(w, r)
	if err != nil {
		h.fail(w, r, http.StatusBadRequest, "VALIDATION", err.Error())
		return
	}
	ctx := httpmiddleware.UpstreamContext(r)
	back := "/visitas/" + id + "/editar"

	var (
		visita *backend.Visita
		opErr  error
	)
	switch field(in, "accion") {
	case "", "actualizar":
		payload, err := visitaUpdate(in)
		if err != nil {
			h.fail(w, r, http.StatusBadRequest, "VALIDATION", err.Error())
			return
		}
		visita, opErr = h.visitas.Update(ctx, id, payload)
	case "check-in", "check-out":
		marca, err := marcaInput(in)
		if err != nil {
			h.fail(w, r, http.StatusBadRequest, "VALIDATION", err.Error())
			return
		}
		if field(in, "accion") == "check-in" {
			visita, opErr = h.visitas.CheckIn(ctx, id, marca)
		} else {
			visita, opErr = h.visitas.CheckOut(ctx, id, marca)
		}
	case "cancelar":
		visita, opErr = h.visitas.Cancel(ctx, id, field(in, "motivo"))
	case "evidencia":
		tipo, link := strings.ToUpper(field(in, "tipo")), field(in, "url")
		if err := validationError(util.RequireString(tipo, "tipo"), util.RequireString(link, "url")); err != nil {
			h.fail(w, r, http.StatusBadRequest, "VALIDATION", err.Error())
			return
		}
		visita, opErr = h.visitas.AddEvidencia(ctx, id, backend.EvidenciaInput{
			Tipo:        tipo,
			URL:         link,
			Descripcion: optNonEmpty(in, "descripcion"),
		})
	case "eliminar":
		if err := h.visitas.Delete(ctx, id); err != nil {
			h.upstreamError(w, r, err)
			return
		}
		done(w, r, http.StatusNoContent, "/visitas", nil)
		return
	default:
		h.fail(w, r, http.StatusBadRequest, "VALIDATION", "acción no soportada")
		return
	}
	if opErr != nil {
		h.upstreamError(w, r, opErr)
		return
	}
	done(w, r, http.StatusOK, back, visita)
}

func (h *Handler) DeleteVisita(w http.ResponseWriter, r *http.Request) {
	if err := h.visitas.Delete(httpmiddleware.UpstreamContext(r), chi.URLParam(r, "id")); err != nil {
		h.upstreamError(w, r, err)
		return
	}
	done(w, r, http.StatusNoContent, "/visitas", nil)
}

func visitaUpdate(in url.Values) (backend.VisitaUpdate, error) {
	payload := backend.VisitaUpdate{
		SupervisorID:   optNonEmpty(in, "supervisorId"),
		TecnicoID:      optNonEmpty(in, "tecnicoId"),
		NotaSupervisor: optString(in, "notaSupervisor"),
		NotaTecnico:    optString(in, "notaTecnico"),
	}
	if raw := field(in, "scheduledAt"); raw != "" {
		at, err := util.ParseDateTime(raw, "scheduledAt")
		if err != nil {
			return backend.VisitaUpdate{}, err
		}
		s := at.UTC().Format(time.RFC3339)
		payload.ScheduledAt = &s
	}
	return payload, nil
}

// marcaInput lee hora (opcional, el backend usa la actual), coordenadas y nota del técnico.
func marcaInput(in url.Values) (backend.Marca, error) {
	var marca backend.Marca
	if raw := field(in, "at"); raw != "" {
		at, err := util.ParseDateTime(raw, "at")
		if err != nil {
			return marca, err
		}
		marca.At = &at
	}
	lat, lng, err := coordinates(in)
	if err != nil {
		return marca, err
	}
	marca.Lat, marca.Lng = lat, lng
	marca.NotaTecnico = optNonEmpty(in, "notaTecnico")
	return marca, nil
}
