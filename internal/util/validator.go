package util

import (
	"errors"
	"fmt"
	"net/mail"
	"strconv"
	"strings"
	"time"
)

// MinPasswordLength es el mínimo aceptado en cambio y recuperación de contraseña.
const MinPasswordLength = 6

// ValidateEmail devuelve error para correos vacíos o inválidos.
func ValidateEmail(email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return errors.New("email obligatorio")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return errors.New("email inválido")
	}
	return nil
}

// ValidatePassword verifica los requisitos mínimos de una contraseña nueva.
func ValidatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return fmt.Errorf("la contraseña debe tener al menos %d caracteres", MinPasswordLength)
	}
	return nil
}

// RequireString garantiza un texto no vacío.
func RequireString(value, field string) error {
	if strings.TrimSpace(value) == "" {
		return errors.New(field + " obligatorio")
	}
	return nil
}

// ParseDateTime acepta RFC3339, datetime-local de formularios (2006-01-02T15:04) o solo fecha.
func ParseDateTime(value, field string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, errors.New(field + " obligatorio")
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04", "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, errors.New(field + " con formato de fecha inválido")
}

// ParseCoordinate interpreta una latitud o longitud; vacío devuelve nil.
func ParseCoordinate(value, field string, limit float64) (*float64, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return nil, errors.New(field + " debe ser numérico")
	}
	if v < -limit || v > limit {
		return nil, fmt.Errorf("%s fuera de rango (±%g)", field, limit)
	}
	return &v, nil
}
