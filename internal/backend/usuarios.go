package backend

import (
	"context"
	"net/url"
)

// Ref es una referencia corta {id, nombre}.
type Ref struct {
	ID     string `json:"id"`
	Nombre string `json:"nombre"`
}

type UsuarioRol struct {
	Rol Ref `json:"rol"`
}

type Usuario struct {
	ID            string       `json:"id"`
	Nombre        string       `json:"nombre"`
	Email         string       `json:"email"`
	Activo        bool         `json:"activo"`
	Supervisor    *Ref         `json:"supervisor,omitempty"`
	UsuariosRoles []UsuarioRol `json:"usuariosRoles,omitempty"`
	FotoBase64    *string      `json:"fotoBase64,omitempty"`
}

// RoleNames devuelve los nombres de los roles asignados.
func (u Usuario) RoleNames() []string {
	out := make([]string, 0, len(u.UsuariosRoles))
	for _, ur := range u.UsuariosRoles {
		if ur.Rol.Nombre != "" {
			out = append(out, ur.Rol.Nombre)
		}
	}
	return out
}

// UsuarioInput es el cuerpo de alta y de actualización parcial.
type UsuarioInput struct {
	Nombre       *string  `json:"nombre,omitempty"`
	Email        *string  `json:"email,omitempty"`
	Password     *string  `json:"password,omitempty"`
	Activo       *bool    `json:"activo,omitempty"`
	SupervisorID *string  `json:"supervisorId,omitempty"`
	Roles        []string `json:"roles,omitempty"`
}

type Usuarios struct {
	client *Client
}

func NewUsuarios(client *Client) *Usuarios {
	return &Usuarios{client: client}
}

func (s *Usuarios) List(ctx context.Context, query url.Values) (*Page[Usuario], error) {
	raw, err := s.client.get(ctx, "/usuarios", query)
	if err != nil {
		return nil, err
	}
	return decodePage[Usuario](raw)
}

func (s *Usuarios) Get(ctx context.Context, id string) (*Usuario, error) {
	raw, err := s.client.get(ctx, "/usuarios/"+escape(id), nil)
	if err != nil {
		return nil, err
	}
	return decodeOne[Usuario](raw)
}

func (s *Usuarios) Create(ctx context.Context, in UsuarioInput) (*Usuario, error) {
	raw, err := s.client.post(ctx, "/usuarios", in)
	if err != nil {
		return nil, err
	}
	return decodeOne[Usuario](raw)
}

func (s *Usuarios) Update(ctx context.Context, id string, in UsuarioInput) (*Usuario, error) {
	raw, err := s.client.patch(ctx, "/usuarios/"+escape(id), in)
	if err != nil {
		return nil, err
	}
	return decodeOne[Usuario](raw)
}

// UpdatePhoto reemplaza solo la foto de perfil.
func (s *Usuarios) UpdatePhoto(ctx context.Context, id, fotoBase64 string) error {
	_, err := s.client.post(ctx, "/usuarios/"+escape(id)+"/foto", map[string]string{"fotoBase64": fotoBase64})
	return err
}

// Delete hace la baja lógica del usuario.
func (s *Usuarios) Delete(ctx context.Context, id string) error {
	_, err := s.client.delete(ctx, "/usuarios/"+escape(id))
	return err
}

// AssignRoles reemplaza los roles del usuario.
func (s *Usuarios) AssignRoles(ctx context.Context, id string, roles []string) error {
	if roles == nil {
		roles = []string{}
	}
	_, err := s.client.post(ctx, "/usuarios/"+escape(id)+"/roles", map[string][]string{"roles": roles})
	return err
}
