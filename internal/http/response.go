package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/DeveloperManuel24/VisitasFront/internal/backend"
	httpmiddleware "github.com/DeveloperManuel24/VisitasFront/internal/http/middleware"
	"github.com/DeveloperManuel24/VisitasFront/internal/service"
)

// SuccessEnvelope estandariza respuestas con datos.
type SuccessEnvelope struct {
	Data  any `json:"data"`
	Error any `json:"error"`
}

// ErrorEnvelope estandariza respuestas de error.
type ErrorEnvelope struct {
	Data  any        `json:"data"`
	Error *ErrorBody `json:"error"`
}

// ErrorBody describe fallas normalizadas.
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// WriteJSON escribe el sobre de éxito.
func WriteJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(SuccessEnvelope{Data: data, Error: nil})
}

// WriteError escribe el sobre de error con formato consistente.
func WriteError(w http.ResponseWriter, status int, code, message string, details any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(ErrorEnvelope{
		Data:  nil,
		Error: &ErrorBody{Code: code, Message: message, Details: details},
	})
}

// fail responde un error de la petición: página de error para navegadores, sobre JSON para APIs.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	if httpmiddleware.IsBrowserRequest(r) {
		h.pages.render(w, r, status, "error", message, map[string]any{"Status": status, "Code": code})
		return
	}
	WriteError(w, status, code, message, nil)
}

// upstreamError traduce fallas de los backends. Un 401 cierra la sesión
// y aplica la salida de login del guard; un 403 la de acceso no autorizado.
func (h *Handler) upstreamError(w http.ResponseWriter, r *http.Request, err error) {
	var apiErr *backend.APIError
	switch {
	case errors.Is(err, backend.ErrUnauthorized):
		httpmiddleware.ReplaceSession(r.Context(), h.auth.Logout(w, r))
		httpmiddleware.Enforce(w, r, service.DecisionLogin, nil, nil)
	case errors.Is(err, backend.ErrForbidden):
		httpmiddleware.Enforce(w, r, service.DecisionUnauthorized, nil, nil)
	case errors.Is(err, backend.ErrNotFound):
		h.fail(w, r, http.StatusNotFound, "NOT_FOUND", "recurso no encontrado")
	case errors.As(err, &apiErr) && apiErr.Status < http.StatusInternalServerError:
		msg := apiErr.Message
		if msg == "" {
			msg = "solicitud rechazada por el servicio"
		}
		h.fail(w, r, http.StatusBadRequest, "VALIDATION", msg)
	default:
		log.Error().Err(err).Str("path", r.URL.Path).Msg("falla en servicio externo")
		h.fail(w, r, http.StatusBadGateway, "UPSTREAM", "servicio no disponible, intente de nuevo")
	}
}

// respond muestra la página para navegadores y el dato en JSON para APIs.
func (h *Handler) respond(w http.ResponseWriter, r *http.Request, page string, view, data any) {
	if httpmiddleware.IsBrowserRequest(r) {
		h.pages.render(w, r, http.StatusOK, page, "", view)
		return
	}
	WriteJSON(w, http.StatusOK, data)
}

// done cierra una mutación: redirect 303 para navegadores, JSON para APIs.
func done(w http.ResponseWriter, r *http.Request, status int, location string, data any) {
	if httpmiddleware.IsBrowserRequest(r) {
		http.Redirect(w, r, location, http.StatusSeeOther)
		return
	}
	if status == http.StatusNoContent {
		w.WriteHeader(status)
		return
	}
	WriteJSON(w, status, data)
}
