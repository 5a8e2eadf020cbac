package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const defaultTimeout = 10 * time.Second

var (
	// ErrUnauthorized indica que el backend rechazó el token (401).
	ErrUnauthorized = errors.New("backend: sesión no válida")
	// ErrForbidden indica que el usuario no tiene permiso para la operación (403).
	ErrForbidden = errors.New("backend: acceso denegado")
	// ErrNotFound indica que el recurso no existe (404).
	ErrNotFound = errors.New("backend: recurso no encontrado")
)

// APIError describe una respuesta no exitosa de un backend.
type APIError struct {
	Service string
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s: status %d", e.Service, e.Status)
	}
	return fmt.Sprintf("%s: status %d: %s", e.Service, e.Status, e.Message)
}

// Unwrap permite errors.Is contra los errores centinela del paquete.
func (e *APIError) Unwrap() error {
	switch e.Status {
	case http.StatusUnauthorized:
		return ErrUnauthorized
	case http.StatusForbidden:
		return ErrForbidden
	case http.StatusNotFound:
		return ErrNotFound
	default:
		return nil
	}
}

type tokenContextKey struct{}

// WithToken adjunta el bearer token que se enviará en las peticiones hechas con ctx.
func WithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenContextKey{}, token)
}

// TokenFrom recupera el bearer token del contexto.
func TokenFrom(ctx context.Context) string {
	val, _ := ctx.Value(tokenContextKey{}).(string)
	return val
}

// Config describe un backend REST.
type Config struct {
	Name    string
	BaseURL string
	Timeout time.Duration
}

// Client encapsula llamadas JSON a un backend REST con bearer token.
type Client struct {
	name       string
	baseURL    string
	httpClient *http.Client
	logger     zerolog.Logger
}

// New crea un cliente para el backend configurado.
func New(cfg Config, logger zerolog.Logger) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		return nil, errors.New("backend: base URL obligatoria")
	}
	u, err := url.Parse(base)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("backend: base URL inválida: %q", cfg.BaseURL)
	}

	name := cfg.Name
	if name == "" {
		name = u.Host
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	return &Client{
		name:       name,
		baseURL:    base,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger.With().Str("backend", name).Logger(),
	}, nil
}

// Name identifica el backend en logs y errores.
func (c *Client) Name() string {
	return c.name
}

// Ping verifica que el backend responda; cualquier status HTTP cuenta como vivo.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/", nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", c.name, err)
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body any) (json.RawMessage, error) {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := TokenFrom(ctx); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error().Err(err).Str("method", method).Str("path", path).Msg("backend_error")
		return nil, fmt.Errorf("%s: %w", c.name, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", c.name, err)
	}

	c.logger.Debug().Str("method", method).Str("path", path).
		Int("status", resp.StatusCode).Dur("duration", time.Since(start)).Msg("backend_request")

	if resp.StatusCode >= 300 {
		return nil, &APIError{Service: c.name, Status: resp.StatusCode, Message: errorMessage(raw)}
	}
	return raw, nil
}

func (c *Client) get(ctx context.Context, path string, query url.Values) (json.RawMessage, error) {
	return c.do(ctx, http.MethodGet, path, query, nil)
}

func (c *Client) post(ctx context.Context, path string, body any) (json.RawMessage, error) {
	return c.do(ctx, http.MethodPost, path, nil, body)
}

func (c *Client) patch(ctx context.Context, path string, body any) (json.RawMessage, error) {
	return c.do(ctx, http.MethodPatch, path, nil, body)
}

func (c *Client) delete(ctx context.Context, path string) (json.RawMessage, error) {
	return c.do(ctx, http.MethodDelete, path, nil, nil)
}

// errorMessage extrae "message" de un cuerpo de error; acepta texto o lista.
func errorMessage(raw []byte) string {
	var payload struct {
		Message any `json:"message"`
		Error   any `json:"error"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return strings.TrimSpace(string(raw))
	}
	for _, candidate := range []any{payload.Message, payload.Error} {
		switch v := candidate.(type) {
		case string:
			if v != "" {
				return v
			}
		case []any:
			parts := make([]string, 0, len(v))
			for _, item := range v {
				parts = append(parts, fmt.Sprint(item))
			}
			return strings.Join(parts, "; ")
		case map[string]any:
			if msg, ok := v["message"].(string); ok {
				return msg
			}
		}
	}
	return ""
}

func escape(id string) string {
	return url.PathEscape(strings.TrimSpace(id))
}
