package server

import (
	"net/http"

	"github.com/bobmcallan/macro-alpha/internal/handlers"
)

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	// MCP endpoint (JSON-RPC over HTTP)
	if s.app.MCPHandler != nil {
		mux.Handle("/mcp", s.app.MCPHandler)
	}

	// Wizard sessions
	mux.HandleFunc("/api/sessions", s.handleSessions)
	mux.HandleFunc("/api/sessions/", s.handleSession)

	// API routes
	mux.HandleFunc("/api/health", s.app.HealthHandler.ServeHTTP)
	mux.HandleFunc("/api/version", s.app.VersionHandler.ServeHTTP)

	// 404 handler for unmatched API routes
	mux.HandleFunc("/api/", s.handleNotFound)

	return mux
}

// handleSessions serves the session collection: POST creates.
func (s *Server) handleSessions(w http.ResponseWriter, r *http.Request) {
	RouteResourceCollection(w, r, nil, s.app.WizardHandler.Create)
}

// handleSession serves /api/sessions/{id} and /api/sessions/{id}/{action}.
func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	id, action := handlers.SessionPath(r.URL.Path)
	if id == "" {
		s.handleNotFound(w, r)
		return
	}

	wh := s.app.WizardHandler
	if action == "" {
		RouteResourceItem(w, r, wh.Get, nil, wh.Delete)
		return
	}
	RouteByMethod(w, r, MethodRouter{http.MethodPost: wh.Action})
}

// handleNotFound returns a JSON 404 for unmatched API routes.
func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusNotFound)
	w.Write([]byte(`{"error":"Not Found","message":"The requested endpoint does not exist"}`))
}
