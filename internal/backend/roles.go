package backend

import (
	"context"
	"net/url"
	"strings"
)

type Rol struct {
	ID          string `json:"id"`
	Nombre      string `json:"nombre"`
	Descripcion string `json:"descripcion,omitempty"`
}

type RolInput struct {
	Nombre      string `json:"nombre,omitempty"`
	Descripcion string `json:"descripcion,omitempty"`
}

type Roles struct {
	client *Client
}

func NewRoles(client *Client) *Roles {
	return &Roles{client: client}
}

// List busca roles; q vacío lista todos.
func (s *Roles) List(ctx context.Context, q string) ([]Rol, error) {
	var query url.Values
	if q = strings.TrimSpace(q); q != "" {
		query = url.Values{"q": {q}}
	}
	raw, err := s.client.get(ctx, "/roles", query)
	if err != nil {
		return nil, err
	}
	page, err := decodePage[Rol](raw)
	if err != nil {
		return nil, err
	}
	return page.Data, nil
}

func (s *Roles) Get(ctx context.Context, id string) (*Rol, error) {
	raw, err := s.client.get(ctx, "/roles/"+escape(id), nil)
	if err != nil {
		return nil, err
	}
	return decodeOne[Rol](raw)
}

func (s *Roles) Create(ctx context.Context, in RolInput) (*Rol, error) {
	raw, err := s.client.post(ctx, "/roles", in)
	if err != nil {
		return nil, err
	}
	return decodeOne[Rol](raw)
}

func (s *Roles) Update(ctx context.Context, id string, in RolInput) (*Rol, error) {
	raw, err := s.client.patch(ctx, "/roles/"+escape(id), in)
	if err != nil {
		return nil, err
	}
	return decodeOne[Rol](raw)
}

func (s *Roles) Delete(ctx context.Context, id string) error {
	_, err := s.client.delete(ctx, "/roles/"+escape(id))
	return err
}
