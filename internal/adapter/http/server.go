package adapthttp

import (
	"net/http"

	"go.uber.org/zap"

	"plantcare/internal/app"
)

// Server is the driving HTTP adapter that routes requests to application
// services.
type Server struct {
	plants      *app.PlantService
	access      *app.AccessService
	sso         *OIDC
	log         *zap.Logger
	webDir      string
	disableAuth bool
}

// New creates a Server wired to the given application services. access may
// be nil when no owner login is configured.
func New(ps *app.PlantService, as *app.AccessService, webDir string, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{plants: ps, access: as, webDir: webDir, log: log}
}

// WithSSO enables OIDC login.
func (s *Server) WithSSO(o *OIDC) *Server {
	s.sso = o
	return s
}

// WithoutAuth disables the session check on plant routes.
func (s *Server) WithoutAuth() *Server {
	s.disableAuth = true
	return s
}

func (s *Server) authEnabled() bool {
	if s.disableAuth || s.access == nil {
		return false
	}
	return s.access.PasswordEnabled() || s.sso != nil
}

// Handler returns the root http.Handler for the application.
func (s *Server) Handler() http.Handler {
	plants := http.NewServeMux()
	plants.HandleFunc("GET /plants", s.handleListPlants)
	plants.HandleFunc("POST /plants", s.handleCreatePlant)
	plants.HandleFunc("PATCH /plants/{id}", s.handleUpdatePlant)
	plants.HandleFunc("DELETE /plants/{id}", s.handleDeletePlant)
	plants.HandleFunc("PATCH /plants/{id}/water", s.handleWaterPlant)
	gated := s.authMiddleware(plants)
	session := s.authMiddleware(http.HandlerFunc(s.handleSession))

	api := http.NewServeMux()
	api.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	})
	api.HandleFunc("GET /auth/config", s.handleAuthConfig)
	api.HandleFunc("POST /auth/login", s.handleLogin)
	api.HandleFunc("POST /auth/logout", s.handleLogout)
	api.HandleFunc("GET /auth/sso/login", s.handleSSOLogin)
	api.HandleFunc("GET /auth/sso/callback", s.handleSSOCallback)
	api.Handle("GET /auth/session", session)
	api.Handle("/plants", gated)
	api.Handle("/plants/", gated)

	root := http.NewServeMux()
	root.Handle("/api/", http.StripPrefix("/api", api))
	root.Handle("/plants", gated)
	root.Handle("/plants/", gated)
	root.Handle("/", spaFromDisk(s.webDir))

	return s.loggingMiddleware(withNoCache(root))
}
