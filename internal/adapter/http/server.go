package adapthttp

import (
	"net/http"

	"aqiadvisor/internal/app"
	"aqiadvisor/internal/logging"
)

// Server is the driving HTTP adapter that routes requests to application
// services.
type Server struct {
	auth     *app.AuthService
	advisory *app.AdvisoryService
	charts   *app.ChartsService
	logger   logging.Logger

	sso      *SSO
	identity IdentityVerifier
}

// New creates a Server wired to the given application services.
func New(auth *app.AuthService, advisory *app.AdvisoryService, charts *app.ChartsService, logger logging.Logger) *Server {
	return &Server{auth: auth, advisory: advisory, charts: charts, logger: logger}
}

// WithSSO enables the single sign-on routes and bearer token identity.
func (s *Server) WithSSO(sso *SSO) *Server {
	s.sso = sso
	if sso != nil {
		s.identity = sso
	}
	return s
}

// WithIdentityVerifier sets the verifier used for bearer tokens without
// enabling the SSO routes.
func (s *Server) WithIdentityVerifier(v IdentityVerifier) *Server {
	s.identity = v
	return s
}

// Handler returns the root http.Handler for the application.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	})

	mux.HandleFunc("POST /check-user", s.handleCheckUser)
	mux.HandleFunc("POST /signup", s.handleSignup)
	mux.HandleFunc("POST /login", s.handleLogin)

	mux.HandleFunc("GET /aqi/{index}", s.handleAQI)
	mux.HandleFunc("POST /predict/{index}", s.handlePredict)
	mux.HandleFunc("POST /history", s.handleHistory)

	mux.HandleFunc("GET /debug-dataset", s.handleDebugDataset)
	mux.HandleFunc("POST /run-notebook", s.handleRunNotebook)

	mux.HandleFunc("GET /sso/login", s.handleSSOLogin)
	mux.HandleFunc("GET /sso/callback", s.handleSSOCallback)

	return s.loggingMiddleware(s.identityMiddleware(withNoCache(mux)))
}
