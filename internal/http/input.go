package http

import (
	"encoding/json"
	"errors"
	"mime"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/DeveloperManuel24/VisitasFront/internal/util"
)

const maxBodyBytes = 6 << 20

var errBadBody = errors.New("cuerpo de la solicitud inválido")

// readInput unifica formularios y JSON en url.Values. Los arreglos JSON
// se expanden en varios valores y null se omite.
func readInput(w http.ResponseWriter, r *http.Request) (url.Values, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mediaType {
	case "application/json":
		var payload map[string]any
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			return nil, errBadBody
		}
		out := url.Values{}
		for key, raw := range payload {
			switch v := raw.(type) {
			case nil:
			case []any:
				for _, item := range v {
					out.Add(key, scalar(item))
				}
			default:
				out.Set(key, scalar(v))
			}
		}
		return out, nil
	case "multipart/form-data":
		if err := r.ParseMultipartForm(maxBodyBytes); err != nil {
			return nil, errBadBody
		}
		return r.PostForm, nil
	default:
		if err := r.ParseForm(); err != nil {
			return nil, errBadBody
		}
		return r.PostForm, nil
	}
}

func scalar(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		b, _ := json.Marshal(t)
		return string(b)
	}
}

func field(in url.Values, key string) string {
	return strings.TrimSpace(in.Get(key))
}

// optString es nil cuando el campo no vino en la solicitud.
func optString(in url.Values, key string) *string {
	if _, ok := in[key]; !ok {
		return nil
	}
	v := field(in, key)
	return &v
}

// optNonEmpty es nil cuando el campo no vino o está vacío.
func optNonEmpty(in url.Values, key string) *string {
	v := field(in, key)
	if v == "" {
		return nil
	}
	return &v
}

// optBool interpreta checkboxes ("on") y booleanos JSON. Con varios valores
// gana el último (hidden "false" seguido del checkbox).
func optBool(in url.Values, key string) *bool {
	vals, ok := in[key]
	if !ok || len(vals) == 0 {
		return nil
	}
	v := strings.TrimSpace(vals[len(vals)-1])
	b := v == "on" || v == "1" || strings.EqualFold(v, "true")
	return &b
}

// values devuelve los valores no vacíos de una clave; acepta también una lista separada por comas.
func values(in url.Values, key string) []string {
	var out []string
	for _, v := range in[key] {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func coordinates(in url.Values) (lat, lng *float64, err error) {
	if lat, err = util.ParseCoordinate(in.Get("lat"), "lat", 90); err != nil {
		return nil, nil, err
	}
	if lng, err = util.ParseCoordinate(in.Get("lng"), "lng", 180); err != nil {
		return nil, nil, err
	}
	return lat, lng, nil
}

func validationError(errs ...error) error {
	msgs := make([]string, 0, len(errs))
	for _, err := range errs {
		if err != nil {
			msgs = append(msgs, err.Error())
		}
	}
	if len(msgs) == 0 {
		return nil
	}
	return errors.New(strings.Join(msgs, "; "))
}

var errInvalidEstado = errors.New("estado inválido (PENDIENTE, EN_CURSO, COMPLETADA, CANCELADA)")
