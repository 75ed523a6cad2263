package handlers

import (
	"net/http"

	"github.com/bobmcallan/macro-alpha/internal/common"
)

// SessionCounter reports how many sessions are live.
type SessionCounter interface {
	Len() int
}

// HealthHandler handles health check requests.
type HealthHandler struct {
	logger   *common.Logger
	sessions SessionCounter
}

// NewHealthHandler creates a new health handler. sessions may be nil.
func NewHealthHandler(logger *common.Logger, sessions SessionCounter) *HealthHandler {
	return &HealthHandler{logger: logger, sessions: sessions}
}

// ServeHTTP handles GET /api/health.
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	body := map[string]interface{}{"status": "ok"}
	if h.sessions != nil {
		body["sessions"] = h.sessions.Len()
	}
	WriteJSON(w, http.StatusOK, body)
}
