package handlers

import (
	"net/http"

	"github.com/bobmcallan/macro-alpha/internal/common"
	"github.com/bobmcallan/macro-alpha/internal/config"
)

// VersionHandler handles version information requests.
type VersionHandler struct {
	logger   *common.Logger
	provider string
	model    string
	variant  string
}

// NewVersionHandler creates a new version handler. The model settings
// are echoed so clients can tell which backend answers them.
func NewVersionHandler(logger *common.Logger, cfg config.ModelConfig) *VersionHandler {
	return &VersionHandler{
		logger:   logger,
		provider: cfg.Provider,
		model:    cfg.Model,
		variant:  cfg.Variant,
	}
}

// ServeHTTP handles GET /api/version.
func (h *VersionHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	WriteJSON(w, http.StatusOK, map[string]string{
		"version":    config.GetVersion(),
		"build":      config.GetBuild(),
		"git_commit": config.GetGitCommit(),
		"provider":   h.provider,
		"model":      h.model,
		"variant":    h.variant,
	})
}
