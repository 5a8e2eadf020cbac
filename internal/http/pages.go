package http

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"path"
	"strings"

	"github.com/rs/zerolog/log"

	httpmiddleware "github.com/DeveloperManuel24/VisitasFront/internal/http/middleware"
	"github.com/DeveloperManuel24/VisitasFront/internal/service"
)

//go:embed templates/*.html
var templateFS embed.FS

// view es el modelo común de todas las páginas.
type view struct {
	Title       string
	Session     service.Session
	Permissions service.Permissions
	Message     string
	Data        any
}

type pages struct {
	set map[string]*template.Template
}

var templateFuncs = template.FuncMap{
	"deref": func(s *string) string {
		if s == nil {
			return ""
		}
		return *s
	},
	"has": func(roles service.RoleSet, role string) bool { return roles.Has(role) },
	"canAccess": func(roles service.RoleSet, allow ...string) bool {
		return service.CanAccess(roles, allow...)
	},
	"join": strings.Join,
	"contains": func(list []string, item string) bool {
		for _, v := range list {
			if strings.EqualFold(v, item) {
				return true
			}
		}
		return false
	},
	// imgsrc solo deja pasar imágenes embebidas como data URL.
	"imgsrc": func(s *string) template.URL {
		if s == nil || !strings.HasPrefix(*s, "data:image/") {
			return ""
		}
		return template.URL(*s)
	},
}

func loadPages() (*pages, error) {
	layout, err := fs.ReadFile(templateFS, "templates/layout.html")
	if err != nil {
		return nil, err
	}
	files, err := fs.Glob(templateFS, "templates/*.html")
	if err != nil {
		return nil, err
	}

	p := &pages{set: make(map[string]*template.Template, len(files))}
	for _, file := range files {
		name := strings.TrimSuffix(path.Base(file), ".html")
		if name == "layout" {
			continue
		}
		body, err := fs.ReadFile(templateFS, file)
		if err != nil {
			return nil, err
		}
		tpl, err := template.New(name).Funcs(templateFuncs).Parse(string(layout))
		if err != nil {
			return nil, fmt.Errorf("layout: %w", err)
		}
		if _, err := tpl.Parse(string(body)); err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		p.set[name] = tpl
	}
	return p, nil
}

// render ejecuta la página con la sesión vigente de la petición.
func (p *pages) render(w http.ResponseWriter, r *http.Request, status int, name, message string, data any) {
	tpl, ok := p.set[name]
	if !ok {
		log.Error().Str("page", name).Msg("plantilla inexistente")
		WriteError(w, http.StatusInternalServerError, "INTERNAL", "error interno", nil)
		return
	}

	sess := httpmiddleware.GetSession(r.Context())
	v := view{
		Session:     sess,
		Permissions: service.PermissionsFor(sess.Roles),
		Message:     message,
		Data:        data,
	}

	var buf bytes.Buffer
	if err := tpl.ExecuteTemplate(&buf, "layout", v); err != nil {
		log.Error().Err(err).Str("page", name).Msg("falla al renderizar")
		WriteError(w, http.StatusInternalServerError, "INTERNAL", "error interno", nil)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

// handler sirve una página fija; lo usa el guard para el placeholder.
func (p *pages) handler(name string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p.render(w, r, http.StatusOK, name, "", nil)
	})
}
