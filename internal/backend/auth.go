package backend

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
)

// ErrNoAccessToken indica que el login respondió sin access_token.
var ErrNoAccessToken = errors.New("backend: no se recibió access_token del backend")

// Auth expone los endpoints /auth del servicio de usuarios.
type Auth struct {
	client *Client
}

func NewAuth(client *Client) *Auth {
	return &Auth{client: client}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	AccessToken string `json:"access_token"`
}

// Login intercambia credenciales por un access token.
func (a *Auth) Login(ctx context.Context, email, password string) (string, error) {
	raw, err := a.client.post(ctx, "/auth/login", loginRequest{Email: email, Password: password})
	if err != nil {
		return "", err
	}
	var resp loginResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return "", err
	}
	token := strings.TrimSpace(resp.AccessToken)
	if token == "" {
		return "", ErrNoAccessToken
	}
	return token, nil
}

// ForgotPassword solicita el correo de recuperación.
func (a *Auth) ForgotPassword(ctx context.Context, email string) error {
	_, err := a.client.post(ctx, "/auth/forgot-password", map[string]string{"email": email})
	return err
}

// ResetPassword aplica la contraseña nueva con el token de recuperación.
func (a *Auth) ResetPassword(ctx context.Context, token, newPassword string) error {
	_, err := a.client.post(ctx, "/auth/reset-password", map[string]string{
		"token":       token,
		"newPassword": newPassword,
	})
	return err
}

// ChangePassword requiere un bearer token en ctx; sin él no llama al backend.
func (a *Auth) ChangePassword(ctx context.Context, userID, newPassword string) error {
	if TokenFrom(ctx) == "" {
		return &APIError{Service: a.client.name, Status: 401, Message: "No hay token en sesión"}
	}
	_, err := a.client.post(ctx, "/auth/change-password", map[string]string{
		"userId":      userID,
		"newPassword": newPassword,
	})
	return err
}
