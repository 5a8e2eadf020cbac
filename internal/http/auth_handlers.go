package http

import (
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/DeveloperManuel24/VisitasFront/internal/backend"
	httpmiddleware "github.com/DeveloperManuel24/VisitasFront/internal/http/middleware"
	"github.com/DeveloperManuel24/VisitasFront/internal/service"
	"github.com/DeveloperManuel24/VisitasFront/internal/util"
)

// Landing es la portada pública; con sesión muestra el menú según permisos.
func (h *Handler) Landing(w http.ResponseWriter, r *http.Request) {
	if !httpmiddleware.IsBrowserRequest(r) {
		sess := httpmiddleware.GetSession(r.Context())
		WriteJSON(w, http.StatusOK, map[string]any{
			"authenticated": sess.Authenticated,
			"permissions":   service.PermissionsFor(sess.Roles),
		})
		return
	}
	h.pages.render(w, r, http.StatusOK, "landing", "", nil)
}

// Unauthorized informa que la sección no está permitida.
func (h *Handler) Unauthorized(w http.ResponseWriter, r *http.Request) {
	if !httpmiddleware.IsBrowserRequest(r) {
		WriteError(w, http.StatusForbidden, "FORBIDDEN", "acceso no autorizado", nil)
		return
	}
	h.pages.render(w, r, http.StatusForbidden, "unauthorized", "", nil)
}

// LoginPage muestra el formulario; con sesión vigente vuelve al inicio.
func (h *Handler) LoginPage(w http.ResponseWriter, r *http.Request) {
	if httpmiddleware.GetSession(r.Context()).Authenticated {
		http.Redirect(w, r, service.PathLanding, http.StatusSeeOther)
		return
	}
	h.pages.render(w, r, http.StatusOK, "login", "", nil)
}

// Login autentica contra el servicio de usuarios y guarda el token.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	in, err := readInput(w, r)
	if err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", err.Error(), nil)
		return
	}
	email, password := field(in, "email"), in.Get("password")
	browser := httpmiddleware.IsBrowserRequest(r)

	if err := validationError(util.ValidateEmail(email), util.RequireString(password, "contraseña")); err != nil {
		h.loginFailed(w, r, browser, http.StatusBadRequest, "VALIDATION", err.Error(), email)
		return
	}

	sess, err := h.auth.Login(r.Context(), w, r, email, password)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidCredentials):
			h.loginFailed(w, r, browser, http.StatusUnauthorized, "AUTH", "Credenciales inválidas", email)
		case errors.Is(err, service.ErrInvalidToken), errors.Is(err, backend.ErrNoAccessToken):
			h.loginFailed(w, r, browser, http.StatusBadGateway, "UPSTREAM", "No se recibió un token válido del servidor", email)
		default:
			var apiErr *backend.APIError
			if errors.As(err, &apiErr) && apiErr.Status < http.StatusInternalServerError && apiErr.Message != "" {
				h.loginFailed(w, r, browser, http.StatusBadRequest, "VALIDATION", apiErr.Message, email)
				return
			}
			log.Error().Err(err).Msg("login falló")
			h.loginFailed(w, r, browser, http.StatusBadGateway, "UPSTREAM", "No se pudo iniciar sesión, intente de nuevo", email)
		}
		return
	}
	httpmiddleware.ReplaceSession(r.Context(), sess)

	if browser {
		http.Redirect(w, r, service.PathLanding, http.StatusSeeOther)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{
		"access_token": sess.BearerToken(),
		"user":         sess.User,
		"roles":        sess.Roles.Slice(),
	})
}

func (h *Handler) loginFailed(w http.ResponseWriter, r *http.Request, browser bool, status int, code, message, email string) {
	if browser {
		h.pages.render(w, r, status, "login", message, map[string]string{"Email": email})
		return
	}
	WriteError(w, status, code, message, nil)
}

// Logout borra el token y reinicia la sesión; siempre termina en /login.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	httpmiddleware.ReplaceSession(r.Context(), h.auth.Logout(w, r))
	if httpmiddleware.IsBrowserRequest(r) {
		http.Redirect(w, r, service.PathLogin, http.StatusSeeOther)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) ForgotPasswordPage(w http.ResponseWriter, r *http.Request) {
	h.pages.render(w, r, http.StatusOK, "forgot_password", "", nil)
}

// ForgotPassword responde igual exista o no el correo.
func (h *Handler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	in, err := readInput(w, r)
	if err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", err.Error(), nil)
		return
	}
	email := field(in, "email")
	if err := util.ValidateEmail(email); err != nil {
		h.fail(w, r, http.StatusBadRequest, "VALIDATION", err.Error())
		return
	}

	if err := h.auth.ForgotPassword(r.Context(), email); err != nil {
		var apiErr *backend.APIError
		if !errors.As(err, &apiErr) || apiErr.Status >= http.StatusInternalServerError {
			h.upstreamError(w, r, err)
			return
		}
		log.Warn().Err(err).Msg("forgot-password rechazado por el servicio")
	}

	const msg = "Si el correo existe, recibirás un enlace para restablecer la contraseña."
	if httpmiddleware.IsBrowserRequest(r) {
		h.pages.render(w, r, http.StatusOK, "forgot_password", msg, nil)
		return
	}
	WriteJSON(w, http.StatusAccepted, map[string]string{"message": msg})
}

func (h *Handler) ResetPasswordPage(w http.ResponseWriter, r *http.Request) {
	h.pages.render(w, r, http.StatusOK, "reset_password", "", map[string]string{"Token": r.URL.Query().Get("token")})
}

func (h *Handler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	in, err := readInput(w, r)
	if err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", err.Error(), nil)
		return
	}
	token, password := field(in, "token"), in.Get("newPassword")
	if err := validationError(util.RequireString(token, "token"), util.ValidatePassword(password)); err != nil {
		if httpmiddleware.IsBrowserRequest(r) {
			h.pages.render(w, r, http.StatusBadRequest, "reset_password", err.Error(), map[string]string{"Token": token})
			return
		}
		WriteError(w, http.StatusBadRequest, "VALIDATION", err.Error(), nil)
		return
	}

	if err := h.auth.ResetPassword(r.Context(), token, password); err != nil {
		h.upstreamError(w, r, err)
		return
	}
	if httpmiddleware.IsBrowserRequest(r) {
		h.pages.render(w, r, http.StatusOK, "login", "Contraseña actualizada. Ya puedes iniciar sesión.", nil)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// Me devuelve el usuario de la sesión, sus roles y los permisos de menú.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	sess := httpmiddleware.GetSession(r.Context())
	if httpmiddleware.IsBrowserRequest(r) {
		h.pages.render(w, r, http.StatusOK, "profile", "", nil)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{
		"user":        sess.User,
		"roles":       sess.Roles.Slice(),
		"permissions": service.PermissionsFor(sess.Roles),
	})
}

// ChangePassword cambia la contraseña del usuario de la sesión.
func (h *Handler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	in, err := readInput(w, r)
	if err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", err.Error(), nil)
		return
	}
	password := in.Get("newPassword")
	if err := util.ValidatePassword(password); err != nil {
		h.fail(w, r, http.StatusBadRequest, "VALIDATION", err.Error())
		return
	}

	sess := httpmiddleware.GetSession(r.Context())
	if err := h.auth.ChangePassword(r.Context(), sess, field(in, "userId"), password); err != nil {
		if errors.Is(err, service.ErrNoToken) {
			WriteError(w, http.StatusUnauthorized, "AUTH", "No hay token en sesión", nil)
			return
		}
		h.upstreamError(w, r, err)
		return
	}

	if httpmiddleware.IsBrowserRequest(r) {
		h.pages.render(w, r, http.StatusOK, "profile", "Contraseña actualizada.", nil)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]bool{"ok": true})
}
