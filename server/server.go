package server

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/jrsteele09/go-marathon-server/auth"
	"github.com/jrsteele09/go-marathon-server/internal/config"
	"github.com/jrsteele09/go-marathon-server/render"
	"github.com/jrsteele09/go-marathon-server/static"
	"github.com/jrsteele09/go-marathon-server/users"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// Pinger reports whether the persistence backend answers.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps are the collaborators the HTTP surface drives.
type Deps struct {
	Auth     *auth.Service
	Users    users.Repo
	Files    static.Store
	Expander *render.Expander
	Health   Pinger
}

type Server struct {
	env      string // Environment (e.g. "DEV", "PROD")
	router   chi.Router
	routes   []string
	config   config.Config
	auth     *auth.Service
	users    users.Repo
	files    static.Store
	expander *render.Expander
	health   Pinger
}

// New builds the server and registers its routes. Auth, Users and Files are
// required; a missing Expander is replaced by a fresh one.
func New(config config.Config, deps Deps) (*Server, error) {
	if deps.Auth == nil {
		return nil, errors.New("[Server New] auth service is required")
	}
	if deps.Users == nil {
		return nil, errors.New("[Server New] users repo is required")
	}
	if deps.Files == nil {
		return nil, errors.New("[Server New] file store is required")
	}
	if deps.Expander == nil {
		deps.Expander = render.NewExpander()
	}

	s := &Server{
		env:      config.GetEnv(),
		router:   chi.NewRouter(),
		config:   config,
		auth:     deps.Auth,
		users:    deps.Users,
		files:    deps.Files,
		expander: deps.Expander,
		health:   deps.Health,
	}

	s.initRoutes()
	s.logRoutes()

	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// RegisterRouteFunc registers handler for a "METHOD /path" pattern.
func (s *Server) RegisterRouteFunc(pattern string, handler http.HandlerFunc) {
	method, path, ok := strings.Cut(pattern, " ")
	if !ok {
		panic("route pattern without method: " + pattern)
	}
	s.routes = append(s.routes, pattern)
	s.router.MethodFunc(method, path, handler)
}

func (s *Server) logRoutes() {
	if s.env != config.EnvDevelopment {
		return
	}
	for _, route := range s.routes {
		method, path, _ := strings.Cut(route, " ")
		logRoute(method, path)
	}
}

func logRoute(method, path string) {
	log.Debug().Msgf("[%s] %s", colouredMethod(method), path)
}

func colouredMethod(method string) string {
	paddedMethod := fmt.Sprintf(" %-7s", method)
	if colour, ok := methodColors[method]; ok {
		return colour + paddedMethod + ResetColor
	}
	return Gray + paddedMethod + ResetColor
}
