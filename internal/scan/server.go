package scan

import (
	"crypto/subtle"
	"encoding/base64"
	"log/slog"
	"net/http"
	"strings"

	"github.com/zombor/product-scanner/internal/credential"
)

// Server handles HTTP requests for the scanner UI and API
type Server struct {
	controller *Controller
	keys       *credential.KeyRing
	basicAuth  BasicAuth
	mux        *http.ServeMux
}

// BasicAuth holds basic authentication credentials
type BasicAuth struct {
	Username string
	Password string
}

// NewServer creates a new Server with default mux. keys may be nil when the
// API key is not selectable from the UI.
func NewServer(controller *Controller, keys *credential.KeyRing, basicAuth BasicAuth) *Server {
	return NewServerWithMux(controller, keys, basicAuth, http.NewServeMux())
}

// NewServerWithMux creates a new Server with a custom mux for testing
func NewServerWithMux(controller *Controller, keys *credential.KeyRing, basicAuth BasicAuth, mux *http.ServeMux) *Server {
	s := &Server{
		controller: controller,
		keys:       keys,
		basicAuth:  basicAuth,
		mux:        mux,
	}
	s.registerRoutes()
	return s
}

// authenticate checks basic auth credentials
func (s *Server) authenticate(r *http.Request) bool {
	if s.basicAuth.Username == "" && s.basicAuth.Password == "" {
		return true // No auth required if not configured
	}

	auth := r.Header.Get("Authorization")
	if !strings.HasPrefix(auth, "Basic ") {
		return false
	}

	decoded, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(auth, "Basic "))
	if err != nil {
		return false
	}

	user, pass, ok := strings.Cut(string(decoded), ":")
	if !ok {
		return false
	}

	userOK := subtle.ConstantTimeCompare([]byte(user), []byte(s.basicAuth.Username)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(pass), []byte(s.basicAuth.Password)) == 1
	return userOK && passOK
}

// corsMiddleware adds CORS headers to responses
func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		setCORSHeaders(w)

		// Handle preflight OPTIONS requests
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// requireAuth middleware
func (s *Server) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !s.authenticate(r) {
			setCORSHeaders(w)
			w.Header().Set("WWW-Authenticate", `Basic realm="Product Scanner"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next(w, r)
	}
}

// registerRoutes registers all routes on the server's mux
func (s *Server) registerRoutes() {
	// Static files
	s.mux.HandleFunc("GET /static/app.css", s.requireAuth(s.handleStaticCSS))
	s.mux.HandleFunc("GET /static/app.js", s.requireAuth(s.handleStaticJS))

	// API endpoints - view state
	s.mux.HandleFunc("GET /api/state", s.requireAuth(s.handleGetState))
	s.mux.HandleFunc("POST /api/tab", s.requireAuth(s.handleSwitchTab))
	s.mux.HandleFunc("POST /api/image", s.requireAuth(s.handleUploadImage))
	s.mux.HandleFunc("DELETE /api/image", s.requireAuth(s.handleClearImage))
	s.mux.HandleFunc("POST /api/description", s.requireAuth(s.handleSetDescription))
	s.mux.HandleFunc("POST /api/analyze", s.requireAuth(s.handleAnalyze))
	s.mux.HandleFunc("POST /api/reset", s.requireAuth(s.handleReset))

	// API endpoints - history
	s.mux.HandleFunc("POST /api/history/{id}/select", s.requireAuth(s.handleSelectHistory))
	s.mux.HandleFunc("GET /api/history", s.requireAuth(s.handleListHistory))
	s.mux.HandleFunc("DELETE /api/history", s.requireAuth(s.handleClearHistory))

	// API endpoints - categories and credentials
	s.mux.HandleFunc("GET /api/categories", s.requireAuth(s.handleListCategories))
	s.mux.HandleFunc("GET /api/credential", s.requireAuth(s.handleGetCredential))
	s.mux.HandleFunc("POST /api/credential", s.requireAuth(s.handleSelectCredential))
	s.mux.HandleFunc("POST /api/credential/prompt", s.requireAuth(s.handlePromptCredential))

	// Static HTML interface (register last as it's the catch-all)
	s.mux.HandleFunc("GET /index.html", s.requireAuth(s.handleIndex))
	s.mux.HandleFunc("GET /", s.requireAuth(s.handleIndex))
}

// Start starts the HTTP server
func (s *Server) Start(addr string) error {
	slog.Info("Starting server", "address", addr)
	return http.ListenAndServe(addr, s.corsMiddleware(s.mux))
}

// ServeHTTP implements http.Handler for testing
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}
