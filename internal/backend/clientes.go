package backend

import (
	"bytes"
	"context"
	"net/url"
	"strconv"
	"strings"
)

const (
	defaultPage  = 1
	defaultLimit = 50
)

// Coordinate acepta latitud/longitud como número o como texto numérico.
type Coordinate float64

func (c *Coordinate) UnmarshalJSON(data []byte) error {
	data = bytes.Trim(bytes.TrimSpace(data), `"`)
	if len(data) == 0 || string(data) == "null" {
		return nil
	}
	v, err := strconv.ParseFloat(string(data), 64)
	if err != nil {
		return err
	}
	*c = Coordinate(v)
	return nil
}

type Cliente struct {
	ID            string      `json:"id"`
	Nombre        string      `json:"nombre"`
	Direccion     *string     `json:"direccion,omitempty"`
	Telefono      *string     `json:"telefono,omitempty"`
	Correo        *string     `json:"correo,omitempty"`
	NIT           *string     `json:"nit,omitempty"`
	Lat           *Coordinate `json:"lat,omitempty"`
	Lng           *Coordinate `json:"lng,omitempty"`
	CreadoEn      string      `json:"creadoEn,omitempty"`
	ActualizadoEn string      `json:"actualizadoEn,omitempty"`
}

type ClienteInput struct {
	Nombre    *string  `json:"nombre,omitempty"`
	Direccion *string  `json:"direccion,omitempty"`
	Telefono  *string  `json:"telefono,omitempty"`
	Correo    *string  `json:"correo,omitempty"`
	NIT       *string  `json:"nit,omitempty"`
	Lat       *float64 `json:"lat,omitempty"`
	Lng       *float64 `json:"lng,omitempty"`
}

// ListQuery filtra y pagina listados; cero en Page/Limit usa 1 y 50.
type ListQuery struct {
	Q     string
	Page  int
	Limit int
}

func (q ListQuery) values() url.Values {
	v := url.Values{}
	if s := strings.TrimSpace(q.Q); s != "" {
		v.Set("q", s)
	}
	page, limit := q.Page, q.Limit
	if page <= 0 {
		page = defaultPage
	}
	if limit <= 0 {
		limit = defaultLimit
	}
	v.Set("page", strconv.Itoa(page))
	v.Set("limit", strconv.Itoa(limit))
	return v
}

type Clientes struct {
	client *Client
}

func NewClientes(client *Client) *Clientes {
	return &Clientes{client: client}
}

func (s *Clientes) List(ctx context.Context, q ListQuery) (*Page[Cliente], error) {
	raw, err := s.client.get(ctx, "/clientes", q.values())
	if err != nil {
		return nil, err
	}
	return decodePage[Cliente](raw)
}

func (s *Clientes) Get(ctx context.Context, id string) (*Cliente, error) {
	if strings.TrimSpace(id) == "" {
		return nil, ErrNotFound
	}
	raw, err := s.client.get(ctx, "/clientes/"+escape(id), nil)
	if err != nil {
		return nil, err
	}
	return decodeOne[Cliente](raw)
}

func (s *Clientes) Create(ctx context.Context, in ClienteInput) (*Cliente, error) {
	raw, err := s.client.post(ctx, "/clientes", in)
	if err != nil {
		return nil, err
	}
	return decodeOne[Cliente](raw)
}

func (s *Clientes) Update(ctx context.Context, id string, in ClienteInput) (*Cliente, error) {
	raw, err := s.client.patch(ctx, "/clientes/"+escape(id), in)
	if err != nil {
		return nil, err
	}
	return decodeOne[Cliente](raw)
}

func (s *Clientes) Delete(ctx context.Context, id string) error {
	_, err := s.client.delete(ctx, "/clientes/"+escape(id))
	return err
}
