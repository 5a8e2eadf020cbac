package auth

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// StorageKey es el nombre fijo bajo el que se guarda el bearer token.
const StorageKey = "authToken"

// Claims representa el payload de un token de acceso ya decodificado.
// Los campos ausentes o con tipo inesperado quedan en su valor cero.
type Claims struct {
	Subject   string
	Name      string
	Email     string
	Roles     []string
	ExpiresAt *time.Time

	// expMs es exp*1000 sin redondear; decide el vencimiento.
	expMs *float64
}

// El decoder no valida firmas: solo reutiliza la decodificación de segmentos.
var segmentDecoder = jwt.NewParser(jwt.WithPaddingAllowed())

var toURLAlphabet = strings.NewReplacer("+", "-", "/", "_")

// Decode interpreta el payload de un JWT sin verificar la firma.
// Devuelve nil ante cualquier falla estructural; nunca entra en pánico.
func Decode(token string) *Claims {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return nil
	}

	raw, err := segmentDecoder.DecodeSegment(toURLAlphabet.Replace(parts[1]))
	if err != nil {
		return nil
	}

	var payload jwt.MapClaims
	if err := json.Unmarshal(raw, &payload); err != nil || payload == nil {
		return nil
	}

	return claimsFromPayload(payload)
}

func claimsFromPayload(payload jwt.MapClaims) *Claims {
	claims := &Claims{}

	if sub, err := payload.GetSubject(); err == nil {
		claims.Subject = sub
	}
	claims.Name, _ = payload["name"].(string)
	claims.Email, _ = payload["email"].(string)

	if list, ok := payload["roles"].([]any); ok {
		claims.Roles = make([]string, 0, len(list))
		for _, role := range list {
			claims.Roles = append(claims.Roles, fmt.Sprint(role))
		}
	}

	// exp no numérico se ignora: el decoder no inventa vencimientos.
	if ms, ok := expiryMillis(payload["exp"]); ok {
		claims.expMs = &ms
		at := time.UnixMilli(saturateMillis(ms))
		claims.ExpiresAt = &at
	}

	return claims
}

// Expired indica si el token venció en el instante now: nowMs >= exp*1000.
// Sin exp nunca vence.
func (c *Claims) Expired(now time.Time) bool {
	if c == nil {
		return false
	}
	if c.expMs != nil {
		return float64(now.UnixMilli()) >= *c.expMs
	}
	if c.ExpiresAt != nil {
		return now.UnixMilli() >= c.ExpiresAt.UnixMilli()
	}
	return false
}

func expiryMillis(raw any) (float64, bool) {
	var exp float64
	switch v := raw.(type) {
	case float64:
		exp = v
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return 0, false
		}
		exp = f
	default:
		return 0, false
	}
	if math.IsNaN(exp) {
		return 0, false
	}
	return exp * 1000, true
}

// saturateMillis convierte a int64 sin desbordar.
func saturateMillis(ms float64) int64 {
	switch {
	case ms >= math.MaxInt64:
		return math.MaxInt64
	case ms <= math.MinInt64:
		return math.MinInt64
	default:
		return int64(math.Floor(ms))
	}
}

// Valid replica la verificación local: token presente, decodificable y vigente.
func Valid(token string, now time.Time) bool {
	if token == "" {
		return false
	}
	claims := Decode(token)
	if claims == nil {
		return false
	}
	return !claims.Expired(now)
}
