package backend

import (
	"context"
	"errors"
	"net/url"
	"strconv"
	"strings"
	"time"
)

type VisitaEstado string

const (
	EstadoPendiente  VisitaEstado = "PENDIENTE"
	EstadoEnCurso    VisitaEstado = "EN_CURSO"
	EstadoCompletada VisitaEstado = "COMPLETADA"
	EstadoCancelada  VisitaEstado = "CANCELADA"
)

// Valid indica si el estado es uno de los que acepta el backend.
func (e VisitaEstado) Valid() bool {
	switch e {
	case EstadoPendiente, EstadoEnCurso, EstadoCompletada, EstadoCancelada:
		return true
	}
	return false
}

// ErrTecnicoRequired se devuelve al listar por técnico sin id.
var ErrTecnicoRequired = errors.New("backend: tecnicoId obligatorio")

type Evidencia struct {
	ID          string  `json:"id"`
	Tipo        string  `json:"tipo"`
	URL         string  `json:"url"`
	Descripcion *string `json:"descripcion,omitempty"`
}

type VisitaCliente struct {
	ID        string      `json:"id"`
	Nombre    string      `json:"nombre"`
	Direccion *string     `json:"direccion,omitempty"`
	Lat       *Coordinate `json:"lat,omitempty"`
	Lng       *Coordinate `json:"lng,omitempty"`
	Email     *string     `json:"email,omitempty"`
}

type Visita struct {
	ID             string         `json:"id"`
	ClienteID      string         `json:"clienteId"`
	SupervisorID   *string        `json:"supervisorId,omitempty"`
	TecnicoID      *string        `json:"tecnicoId,omitempty"`
	Cliente        *VisitaCliente `json:"cliente,omitempty"`
	Supervisor     *Ref           `json:"supervisor,omitempty"`
	Tecnico        *Ref           `json:"tecnico,omitempty"`
	ScheduledAt    string         `json:"scheduledAt"`
	Estado         VisitaEstado   `json:"estado"`
	NotaSupervisor *string        `json:"notaSupervisor,omitempty"`
	NotaTecnico    *string        `json:"notaTecnico,omitempty"`
	CheckInAt      *string        `json:"checkInAt,omitempty"`
	CheckOutAt     *string        `json:"checkOutAt,omitempty"`
	DuracionMin    *int           `json:"duracionMin,omitempty"`
	Evidencias     []Evidencia    `json:"evidencias,omitempty"`
	CreadoEn       string         `json:"creadoEn,omitempty"`
	ActualizadoEn  string         `json:"actualizadoEn,omitempty"`
}

// AssignedTo indica si la visita pertenece al técnico indicado.
func (v Visita) AssignedTo(tecnicoID string) bool {
	return v.TecnicoID != nil && *v.TecnicoID == tecnicoID
}

type VisitaCreate struct {
	ClienteID      string       `json:"clienteId"`
	SupervisorID   *string      `json:"supervisorId,omitempty"`
	TecnicoID      *string      `json:"tecnicoId,omitempty"`
	ScheduledAt    string       `json:"scheduledAt"`
	Estado         VisitaEstado `json:"estado,omitempty"`
	NotaSupervisor *string      `json:"notaSupervisor,omitempty"`
}

// VisitaUpdate no lleva clienteId: el backend no lo acepta al actualizar.
type VisitaUpdate struct {
	SupervisorID   *string `json:"supervisorId,omitempty"`
	TecnicoID      *string `json:"tecnicoId,omitempty"`
	ScheduledAt    *string `json:"scheduledAt,omitempty"`
	NotaSupervisor *string `json:"notaSupervisor,omitempty"`
	NotaTecnico    *string `json:"notaTecnico,omitempty"`
}

// Marca es el cuerpo de check-in y check-out.
type Marca struct {
	At          *time.Time `json:"at,omitempty"`
	Lat         *float64   `json:"lat,omitempty"`
	Lng         *float64   `json:"lng,omitempty"`
	NotaTecnico *string    `json:"notaTecnico,omitempty"`
}

type EvidenciaInput struct {
	Tipo        string  `json:"tipo"`
	URL         string  `json:"url"`
	Descripcion *string `json:"descripcion,omitempty"`
}

type VisitaQuery struct {
	Q            string
	Page         int
	Limit        int
	Estado       VisitaEstado
	SupervisorID string
	TecnicoID    string
	ClienteID    string
	From         string
	To           string
}

func (q VisitaQuery) values() url.Values {
	v := ListQuery{Q: q.Q, Page: q.Page, Limit: q.Limit}.values()
	set := func(key, val string) {
		if val = strings.TrimSpace(val); val != "" {
			v.Set(key, val)
		}
	}
	set("estado", string(q.Estado))
	set("supervisorId", q.SupervisorID)
	set("tecnicoId", q.TecnicoID)
	set("clienteId", q.ClienteID)
	set("from", q.From)
	set("to", q.To)
	return v
}

type Visitas struct {
	client *Client
}

func NewVisitas(client *Client) *Visitas {
	return &Visitas{client: client}
}

func (s *Visitas) List(ctx context.Context, q VisitaQuery) (*Page[Visita], error) {
	raw, err := s.client.get(ctx, "/visitas", q.values())
	if err != nil {
		return nil, err
	}
	return decodePage[Visita](raw)
}

// ListByTecnico devuelve la agenda de un técnico entre from y to (opcionales).
func (s *Visitas) ListByTecnico(ctx context.Context, tecnicoID, from, to string) (*Page[Visita], error) {
	tecnicoID = strings.TrimSpace(tecnicoID)
	if tecnicoID == "" {
		return nil, ErrTecnicoRequired
	}
	query := url.Values{}
	if from != "" {
		query.Set("from", from)
	}
	if to != "" {
		query.Set("to", to)
	}
	raw, err := s.client.get(ctx, "/visitas/tecnico/"+escape(tecnicoID), query)
	if err != nil {
		return nil, err
	}
	return decodePage[Visita](raw)
}

func (s *Visitas) Get(ctx context.Context, id string) (*Visita, error) {
	if strings.TrimSpace(id) == "" {
		return nil, ErrNotFound
	}
	raw, err := s.client.get(ctx, "/visitas/"+escape(id), nil)
	if err != nil {
		return nil, err
	}
	return decodeOne[Visita](raw)
}

func (s *Visitas) Create(ctx context.Context, in VisitaCreate) (*Visita, error) {
	raw, err := s.client.post(ctx, "/visitas", in)
	if err != nil {
		return nil, err
	}
	return decodeOne[Visita](raw)
}

func (s *Visitas) Update(ctx context.Context, id string, in VisitaUpdate) (*Visita, error) {
	raw, err := s.client.patch(ctx, "/visitas/"+escape(id), in)
	if err != nil {
		return nil, err
	}
	return decodeOne[Visita](raw)
}

func (s *Visitas) CheckIn(ctx context.Context, id string, in Marca) (*Visita, error) {
	return s.action(ctx, id, "check-in", in)
}

func (s *Visitas) CheckOut(ctx context.Context, id string, in Marca) (*Visita, error) {
	return s.action(ctx, id, "check-out", in)
}

// Cancel envía motivo null cuando viene vacío.
func (s *Visitas) Cancel(ctx context.Context, id, motivo string) (*Visita, error) {
	body := map[string]*string{"motivo": nil}
	if motivo = strings.TrimSpace(motivo); motivo != "" {
		body["motivo"] = &motivo
	}
	return s.action(ctx, id, "cancel", body)
}

func (s *Visitas) AddEvidencia(ctx context.Context, id string, in EvidenciaInput) (*Visita, error) {
	return s.action(ctx, id, "evidencias", in)
}

func (s *Visitas) Delete(ctx context.Context, id string) error {
	_, err := s.client.delete(ctx, "/visitas/"+escape(id))
	return err
}

func (s *Visitas) action(ctx context.Context, id, name string, body any) (*Visita, error) {
	raw, err := s.client.post(ctx, "/visitas/"+escape(id)+"/"+name, body)
	if err != nil {
		return nil, err
	}
	v, err := decodeOne[Visita](raw)
	if errors.Is(err, ErrNotFound) {
		// algunas acciones responden sin cuerpo
		return &Visita{ID: id}, nil
	}
	return v, err
}

// ParsePageParam interpreta un entero positivo de query string; cero si no aplica.
func ParsePageParam(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 0 {
		return 0
	}
	return n
}
