package fuel

import (
	"crypto/subtle"
	"encoding/base64"
	"log/slog"
	"net/http"
	"strings"
)

// Server handles HTTP requests for the fuel log
type Server struct {
	service   *Service
	basicAuth BasicAuth
	mux       *http.ServeMux
}

// BasicAuth holds basic authentication credentials
type BasicAuth struct {
	Username string
	Password string
}

// NewServer creates a new Server with default mux
func NewServer(service *Service, basicAuth BasicAuth) *Server {
	return NewServerWithMux(service, basicAuth, http.NewServeMux())
}

// NewServerWithMux creates a new Server with a custom mux for testing
func NewServerWithMux(service *Service, basicAuth BasicAuth, mux *http.ServeMux) *Server {
	s := &Server{
		service:   service,
		basicAuth: basicAuth,
		mux:       mux,
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

// corsMiddleware adds CORS headers and answers preflight requests
func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		setCORSHeaders(w)

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
			w.Header().Set("WWW-Authenticate", `Basic realm="Fuel Tracker"`)
			corsError(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next(w, r)
	}
}

// registerRoutes registers all API routes on the server's mux
func (s *Server) registerRoutes() {
	// Scans and parsers
	s.mux.HandleFunc("POST /api/receipts/scan", s.requireAuth(s.handleScanReceipt))
	s.mux.HandleFunc("POST /api/receipts/parse", s.requireAuth(s.handleParseReceipt))
	s.mux.HandleFunc("POST /api/dashboard/scan", s.requireAuth(s.handleScanDashboard))
	s.mux.HandleFunc("POST /api/dashboard/parse", s.requireAuth(s.handleParseDashboard))
	s.mux.HandleFunc("POST /api/voice/parse", s.requireAuth(s.handleParseVoice))

	// Purchases
	s.mux.HandleFunc("GET /api/purchases/{id}/photo", s.requireAuth(s.handleGetPurchasePhoto))
	s.mux.HandleFunc("GET /api/purchases/{id}", s.requireAuth(s.handleGetPurchase))
	s.mux.HandleFunc("DELETE /api/purchases/{id}", s.requireAuth(s.handleDeletePurchase))
	s.mux.HandleFunc("GET /api/purchases", s.requireAuth(s.handleListPurchases))
	s.mux.HandleFunc("POST /api/purchases", s.requireAuth(s.handleCreatePurchase))

	// Trips
	s.mux.HandleFunc("GET /api/trips/export", s.requireAuth(s.handleExportTrips))
	s.mux.HandleFunc("GET /api/trips/template", s.requireAuth(s.handleTripTemplate))
	s.mux.HandleFunc("POST /api/trips/import", s.requireAuth(s.handleImportTrips))
	s.mux.HandleFunc("GET /api/trips/{id}", s.requireAuth(s.handleGetTrip))
	s.mux.HandleFunc("DELETE /api/trips/{id}", s.requireAuth(s.handleDeleteTrip))
	s.mux.HandleFunc("GET /api/trips", s.requireAuth(s.handleListTrips))
	s.mux.HandleFunc("POST /api/trips", s.requireAuth(s.handleCreateTrip))

	// Maintenance
	s.mux.HandleFunc("POST /api/maintenance/{id}/done", s.requireAuth(s.handleCompleteMaintenance))
	s.mux.HandleFunc("GET /api/maintenance/{id}", s.requireAuth(s.handleGetMaintenance))
	s.mux.HandleFunc("DELETE /api/maintenance/{id}", s.requireAuth(s.handleDeleteMaintenance))
	s.mux.HandleFunc("GET /api/maintenance", s.requireAuth(s.handleListMaintenance))
	s.mux.HandleFunc("POST /api/maintenance", s.requireAuth(s.handleCreateMaintenance))

	// Statistics and settings
	s.mux.HandleFunc("GET /api/predictions", s.requireAuth(s.handlePredictions))
	s.mux.HandleFunc("GET /api/summary", s.requireAuth(s.handleSummary))
	s.mux.HandleFunc("GET /api/budget", s.requireAuth(s.handleGetBudget))
	s.mux.HandleFunc("PUT /api/budget", s.requireAuth(s.handleSetBudget))
	s.mux.HandleFunc("GET /api/settings/vision-key", s.requireAuth(s.handleGetVisionKey))
	s.mux.HandleFunc("PUT /api/settings/vision-key", s.requireAuth(s.handleSetVisionKey))
	s.mux.HandleFunc("DELETE /api/settings/vision-key", s.requireAuth(s.handleClearVisionKey))
}

// Handler returns the mux wrapped with CORS handling
func (s *Server) Handler() http.Handler {
	return s.corsMiddleware(s.mux)
}

// Start starts the HTTP server
func (s *Server) Start(addr string) error {
	slog.Info("Starting server", "address", addr)
	return http.ListenAndServe(addr, s.Handler())
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.Handler().ServeHTTP(w, r)
}
