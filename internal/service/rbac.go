package service

import (
	"sort"
	"strings"
)

// Papeles conocidos; solo se ignoran mayúsculas, los espacios cuentan. La forma canónica es mayúscula.
const (
	RoleAdministrador = "ADMINISTRADOR"
	RoleSupervisor    = "SUPERVISOR"
	RoleTecnico       = "TECNICO"
)

// Rutas con significado para la política y el guard.
const (
	PathLanding          = "/"
	PathLogin            = "/login"
	PathForgotPassword   = "/login/forgot-password"
	PathResetPassword    = "/login/reset-password"
	PathUnauthorized     = "/unauthorized"
	PathTecnicoDashboard = "/visitas/tecnico"
	PathClientes         = "/clientes"
	PathVisitas          = "/visitas"
	PathUsuarios         = "/usuarios"
	PathRoles            = "/roles"
)

var publicPaths = map[string]struct{}{
	PathLanding:        {},
	PathLogin:          {},
	PathForgotPassword: {},
	PathResetPassword:  {},
	PathUnauthorized:   {},
}

// IsPublic indica si la ruta evita por completo la verificación de sesión.
func IsPublic(path string) bool {
	_, ok := publicPaths[path]
	return ok
}

// PublicPaths devuelve la lista fija de rutas públicas, ordenada.
func PublicPaths() []string {
	out := make([]string, 0, len(publicPaths))
	for p := range publicPaths {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// RoleSet es un conjunto de papeles normalizados a mayúsculas.
type RoleSet map[string]struct{}

// NewRoleSet normaliza y deduplica los papeles recibidos.
func NewRoleSet(roles ...string) RoleSet {
	set := make(RoleSet, len(roles))
	for _, role := range roles {
		role = strings.ToUpper(role)
		if role != "" {
			set[role] = struct{}{}
		}
	}
	return set
}

// Has consulta un papel sin importar mayúsculas.
func (s RoleSet) Has(role string) bool {
	_, ok := s[strings.ToUpper(role)]
	return ok
}

// Slice devuelve los papeles ordenados.
func (s RoleSet) Slice() []string {
	out := make([]string, 0, len(s))
	for role := range s {
		out = append(out, role)
	}
	sort.Strings(out)
	return out
}

// IsAllowed decide si el conjunto de papeles puede navegar a path.
// Las reglas se evalúan en orden fijo (administrador, supervisor, técnico) y
// gana la primera que aplica; no se unen permisos de varios papeles.
// Las rutas públicas se resuelven antes, en el guard.
func IsAllowed(roles RoleSet, path string) bool {
	switch {
	case roles.Has(RoleAdministrador):
		return true
	case roles.Has(RoleSupervisor):
		return !underPath(path, PathTecnicoDashboard)
	case roles.Has(RoleTecnico):
		return underPath(path, PathTecnicoDashboard) ||
			isVisitaEditPath(path) ||
			underPath(path, PathClientes)
	default:
		return false
	}
}

// underPath reconoce base y cualquiera de sus sub-rutas.
func underPath(path, base string) bool {
	return path == base || strings.HasPrefix(path, base+"/")
}

// isVisitaEditPath reconoce /visitas/{id}/editar.
func isVisitaEditPath(path string) bool {
	return strings.HasPrefix(path, PathVisitas+"/") && strings.HasSuffix(path, "/editar")
}

// Permissions describe qué secciones muestra el menú para un usuario.
type Permissions struct {
	Clientes       bool `json:"clientes"`
	VisitasGeneral bool `json:"visitas_general"`
	VisitasTecnico bool `json:"visitas_tecnico"`
	Usuarios       bool `json:"usuarios"`
	Roles          bool `json:"roles"`
}

// PermissionsFor calcula la visibilidad del menú. Es más estrecha que
// IsAllowed para el técnico: el menú solo le ofrece "Mis visitas".
func PermissionsFor(roles RoleSet) Permissions {
	admin := roles.Has(RoleAdministrador)
	supervisor := roles.Has(RoleSupervisor)
	tecnico := roles.Has(RoleTecnico)

	return Permissions{
		Clientes:       admin || supervisor,
		VisitasGeneral: admin || supervisor,
		VisitasTecnico: admin || tecnico,
		Usuarios:       admin || supervisor,
		Roles:          admin,
	}
}

// CanAccess muestra un elemento si el usuario es administrador o tiene
// alguno de los papeles permitidos.
func CanAccess(roles RoleSet, allow ...string) bool {
	if len(roles) == 0 {
		return false
	}
	if roles.Has(RoleAdministrador) {
		return true
	}
	for _, role := range allow {
		if roles.Has(role) {
			return true
		}
	}
	return false
}
