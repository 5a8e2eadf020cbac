// tokeninfo decodifica un token de acceso sin verificar la firma y muestra
// qué decidiría el guard para cada ruta indicada.
//
//	tokeninfo --token "$TOKEN" --path /clientes --path /visitas/tecnico
//	echo "$TOKEN" | tokeninfo --token - --json
package main

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/pflag"

	"github.com/DeveloperManuel24/VisitasFront/internal/auth"
	"github.com/DeveloperManuel24/VisitasFront/internal/http/middleware"
	"github.com/DeveloperManuel24/VisitasFront/internal/service"
)

var defaultPaths = []string{
	service.PathLanding,
	service.PathClientes,
	service.PathVisitas,
	service.PathTecnicoDashboard,
	service.PathUsuarios,
	service.PathRoles,
}

type report struct {
	Valid         bool                `json:"valid"`
	Authenticated bool                `json:"authenticated"`
	User          *service.User       `json:"user,omitempty"`
	ExpiresAt     *time.Time          `json:"expires_at,omitempty"`
	Now           time.Time           `json:"now"`
	Permissions   service.Permissions `json:"permissions"`
	Decisions     map[string]string   `json:"decisions"`
}

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdin io.Reader, stdout io.Writer) error {
	var (
		token   string
		paths   []string
		nowFlag string
		asJSON  bool
	)

	flagSet := pflag.NewFlagSet("tokeninfo", pflag.ContinueOnError)
	flagSet.SetOutput(stdout)
	flagSet.StringVarP(&token, "token", "t", os.Getenv("AUTH_TOKEN"), `token a inspeccionar ("-" lo lee de stdin)`)
	flagSet.StringSliceVarP(&paths, "path", "p", nil, "rutas a evaluar (por defecto las secciones del menú)")
	flagSet.StringVar(&nowFlag, "now", "", "instante de evaluación en RFC3339 (por defecto ahora)")
	flagSet.BoolVar(&asJSON, "json", false, "salida en JSON")
	if err := flagSet.Parse(args); err != nil {
		return err
	}

	if token == "-" {
		line, err := bufio.NewReader(stdin).ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return fmt.Errorf("stdin: %w", err)
		}
		token = line
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return errors.New("token obligatorio (--token o AUTH_TOKEN)")
	}

	now := time.Now()
	if nowFlag != "" {
		parsed, err := time.Parse(time.RFC3339, nowFlag)
		if err != nil {
			return fmt.Errorf("--now: %w", err)
		}
		now = parsed
	}
	if len(paths) == 0 {
		paths = defaultPaths
	}

	rep := inspect(token, now, paths)
	if asJSON {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(rep)
	}
	return printReport(stdout, rep, paths)
}

func inspect(token string, now time.Time, paths []string) report {
	sessions := service.NewSessionService(auth.NewCookieStore(auth.CookieOptions{}), zerolog.Nop())
	sess := sessions.FromTokenAt(token, now)
	claims := auth.Decode(token)

	rep := report{
		Valid:         claims != nil,
		Authenticated: sess.Authenticated,
		User:          sess.User,
		Now:           now.UTC(),
		Permissions:   service.PermissionsFor(sess.Roles),
		Decisions:     make(map[string]string, len(paths)),
	}
	if claims != nil {
		rep.ExpiresAt = claims.ExpiresAt
	}
	for _, p := range paths {
		rep.Decisions[p] = service.Decide(sess, middleware.CleanPath(p)).String()
	}
	return rep
}

func printReport(w io.Writer, rep report, paths []string) error {
	tw := tabwriter.NewWriter(w, 0, 2, 2, ' ', 0)
	fmt.Fprintf(tw, "decodificable\t%t\n", rep.Valid)
	fmt.Fprintf(tw, "autenticado\t%t\n", rep.Authenticated)
	if rep.User != nil {
		fmt.Fprintf(tw, "sub\t%s\n", rep.User.Subject)
		fmt.Fprintf(tw, "nombre\t%s\n", rep.User.Name)
		fmt.Fprintf(tw, "email\t%s\n", rep.User.Email)
		fmt.Fprintf(tw, "roles\t%s\n", strings.Join(rep.User.Roles, ", "))
	}
	if rep.ExpiresAt != nil {
		fmt.Fprintf(tw, "vence\t%s\n", rep.ExpiresAt.UTC().Format(time.RFC3339))
	} else {
		fmt.Fprintf(tw, "vence\t-\n")
	}
	fmt.Fprintln(tw)
	fmt.Fprintln(tw, "RUTA\tDECISIÓN")
	for _, p := range paths {
		fmt.Fprintf(tw, "%s\t%s\n", p, rep.Decisions[p])
	}
	return tw.Flush()
}
