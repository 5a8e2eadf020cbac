package util

import (
	"testing"
	"time"
)

func TestValidateEmail(t *testing.T) {
	if err := ValidateEmail("tecnico@skynet.gt"); err != nil {
		t.Fatalf("esperaba email válido: %v", err)
	}
	for _, bad := range []string{"", "   ", "sin-arroba"} {
		if err := ValidateEmail(bad); err == nil {
			t.Fatalf("esperaba error para %q", bad)
		}
	}
}

func TestValidatePassword(t *testing.T) {
	if err := ValidatePassword("12345"); err == nil {
		t.Fatal("esperaba error para contraseña corta")
	}
	if err := ValidatePassword("123456"); err != nil {
		t.Fatalf("contraseña válida rechazada: %v", err)
	}
}

func TestRequireString(t *testing.T) {
	if err := RequireString(" ", "nombre"); err == nil || err.Error() != "nombre obligatorio" {
		t.Fatalf("mensaje inesperado: %v", err)
	}
}

func TestParseDateTime(t *testing.T) {
	cases := map[string]time.Time{
		"2025-03-01T10:30:00Z": time.Date(2025, 3, 1, 10, 30, 0, 0, time.UTC),
		"2025-03-01T10:30":     time.Date(2025, 3, 1, 10, 30, 0, 0, time.UTC),
		"2025-03-01":           time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
	}
	for in, want := range cases {
		got, err := ParseDateTime(in, "fecha")
		if err != nil {
			t.Fatalf("%s: %v", in, err)
		}
		if !got.Equal(want) {
			t.Fatalf("%s: got %v want %v", in, got, want)
		}
	}
	if _, err := ParseDateTime("01/03/2025", "fecha"); err == nil {
		t.Fatal("esperaba error de formato")
	}
}

func TestParseCoordinate(t *testing.T) {
	v, err := ParseCoordinate("", "lat", 90)
	if err != nil || v != nil {
		t.Fatalf("vacío debe ser nil: %v %v", v, err)
	}
	v, err = ParseCoordinate("14.6349", "lat", 90)
	if err != nil || v == nil || *v != 14.6349 {
		t.Fatalf("valor inesperado: %v %v", v, err)
	}
	if _, err := ParseCoordinate("91", "lat", 90); err == nil {
		t.Fatal("esperaba error de rango")
	}
	if _, err := ParseCoordinate("abc", "lng", 180); err == nil {
		t.Fatal("esperaba error numérico")
	}
}
