package service

// Decision es el resultado del guard para una navegación.
type Decision int

const (
	// DecisionRender muestra la página solicitada.
	DecisionRender Decision = iota
	// DecisionChecking muestra un placeholder neutro mientras la sesión no está lista.
	DecisionChecking
	// DecisionLogin redirige al login.
	DecisionLogin
	// DecisionUnauthorized redirige a la página de acceso no autorizado.
	DecisionUnauthorized
)

func (d Decision) String() string {
	switch d {
	case DecisionRender:
		return "render"
	case DecisionChecking:
		return "checking"
	case DecisionLogin:
		return "login"
	case DecisionUnauthorized:
		return "unauthorized"
	default:
		return "unknown"
	}
}

// Decide aplica el guard: ruta pública, sesión lista, autenticación y política, en ese orden.
// Nunca redirige mientras la sesión no esté lista.
func Decide(sess Session, path string) Decision {
	if IsPublic(path) {
		return DecisionRender
	}
	if !sess.Ready {
		return DecisionChecking
	}
	if !sess.Authenticated {
		return DecisionLogin
	}
	if !IsAllowed(sess.Roles, path) {
		return DecisionUnauthorized
	}
	return DecisionRender
}

// DecideAuthenticated aplica solo lista + autenticada, para endpoints sin política de ruta.
func DecideAuthenticated(sess Session) Decision {
	if !sess.Ready {
		return DecisionChecking
	}
	if !sess.Authenticated {
		return DecisionLogin
	}
	return DecisionRender
}
