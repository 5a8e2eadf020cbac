package backend

import (
	"bytes"
	"encoding/json"
)

// Meta acompaña a los listados paginados.
type Meta struct {
	Total     int    `json:"total"`
	Page      int    `json:"page,omitempty"`
	Limit     int    `json:"limit,omitempty"`
	Pages     int    `json:"pages,omitempty"`
	TecnicoID string `json:"tecnicoId,omitempty"`
	From      string `json:"from,omitempty"`
	To        string `json:"to,omitempty"`
}

// Page es un listado con su metadata (nil si el backend no la envió).
type Page[T any] struct {
	Data []T  `json:"data"`
	Meta *Meta `json:"meta"`
}

func isNull(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

// unwrapData devuelve X cuando el cuerpo es {"data": X}, aunque X sea null;
// si no, el cuerpo entero.
func unwrapData(raw json.RawMessage) json.RawMessage {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return trimmed
	}
	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &envelope); err != nil {
		return trimmed
	}
	if data, ok := envelope["data"]; ok {
		return data
	}
	return trimmed
}

// decodePage acepta {data, meta}, {data} o un arreglo plano.
func decodePage[T any](raw json.RawMessage) (*Page[T], error) {
	page := &Page[T]{Data: []T{}}
	trimmed := bytes.TrimSpace(raw)
	if isNull(trimmed) {
		return page, nil
	}

	if trimmed[0] == '[' {
		if err := json.Unmarshal(trimmed, &page.Data); err != nil {
			return nil, err
		}
		return page, nil
	}

	if err := json.Unmarshal(trimmed, page); err != nil {
		return nil, err
	}
	if page.Data == nil {
		page.Data = []T{}
	}
	return page, nil
}

// decodeOne decodifica un recurso individual; un cuerpo vacío es ErrNotFound.
func decodeOne[T any](raw json.RawMessage) (*T, error) {
	data := unwrapData(raw)
	if isNull(data) {
		return nil, ErrNotFound
	}
	var out T
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
