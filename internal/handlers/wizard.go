package handlers

import (
	"errors"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/bobmcallan/macro-alpha/internal/common"
	"github.com/bobmcallan/macro-alpha/internal/sessions"
	"github.com/bobmcallan/macro-alpha/internal/wizard"
)

// WizardHandler exposes the wizard transitions over JSON.
type WizardHandler struct {
	logger   *common.Logger
	sessions *sessions.Manager
}

// NewWizardHandler creates a new wizard handler.
func NewWizardHandler(logger *common.Logger, manager *sessions.Manager) *WizardHandler {
	return &WizardHandler{logger: logger, sessions: manager}
}

type credentialsRequest struct {
	APIKey string `json:"api_key"`
	Model  string `json:"model"`
}

type thesisRequest struct {
	Thesis string `json:"thesis"`
}

type answersRequest struct {
	Answers []string         `json:"answers"`
	Capital *decimal.Decimal `json:"capital"`
}

type selectRequest struct {
	Index *int `json:"index"`
}

type sessionResponse struct {
	Status  string      `json:"status"`
	Session wizard.View `json:"session"`
}

type stageErrorResponse struct {
	Status  string           `json:"status"`
	Error   string           `json:"error"`
	Kind    wizard.ErrorKind `json:"kind"`
	Stage   wizard.Stage     `json:"stage"`
	Session *wizard.View     `json:"session,omitempty"`
}

// Create handles POST /api/sessions.
func (h *WizardHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := DecodeJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	s, err := h.sessions.Create(r.Context(), req.APIKey, req.Model)
	if err != nil {
		h.writeStageError(w, err, nil)
		return
	}
	WriteJSON(w, http.StatusCreated, sessionResponse{Status: "ok", Session: s.View()})
}

// Get handles GET /api/sessions/{id}.
func (h *WizardHandler) Get(w http.ResponseWriter, r *http.Request) {
	s, ok := h.lookup(w, r)
	if !ok {
		return
	}
	WriteJSON(w, http.StatusOK, sessionResponse{Status: "ok", Session: s.View()})
}

// Delete handles DELETE /api/sessions/{id}.
func (h *WizardHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, _ := SessionPath(r.URL.Path)
	if err := h.sessions.Delete(id); err != nil {
		WriteError(w, http.StatusNotFound, err.Error())
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Action handles POST /api/sessions/{id}/{action}.
func (h *WizardHandler) Action(w http.ResponseWriter, r *http.Request) {
	s, ok := h.lookup(w, r)
	if !ok {
		return
	}
	_, action := SessionPath(r.URL.Path)
	engine := h.sessions.Engine()
	ctx := r.Context()

	var err error
	switch action {
	case "connect":
		var req credentialsRequest
		if !h.decode(w, r, &req) {
			return
		}
		err = engine.Connect(ctx, s, req.APIKey, req.Model)

	case "thesis":
		var req thesisRequest
		if !h.decode(w, r, &req) {
			return
		}
		err = engine.SubmitThesis(ctx, s, req.Thesis)

	case "answers":
		var req answersRequest
		if !h.decode(w, r, &req) {
			return
		}
		capital := wizard.DefaultCapital
		if req.Capital != nil {
			capital = *req.Capital
		}
		err = engine.SubmitAnswers(ctx, s, req.Answers, capital)

	case "select":
		var req selectRequest
		if !h.decode(w, r, &req) {
			return
		}
		if req.Index == nil {
			WriteError(w, http.StatusBadRequest, "index is required")
			return
		}
		_, err = engine.SelectStrategy(ctx, s, *req.Index)

	case "deep-dive":
		_, err = engine.DeepDive(ctx, s)

	case "back":
		err = engine.Back(s)

	case "reset":
		engine.Reset(s)

	default:
		WriteError(w, http.StatusNotFound, "unknown session action")
		return
	}

	if err != nil {
		view := s.View()
		h.writeStageError(w, err, &view)
		return
	}
	WriteJSON(w, http.StatusOK, sessionResponse{Status: "ok", Session: s.View()})
}

func (h *WizardHandler) lookup(w http.ResponseWriter, r *http.Request) (*wizard.Session, bool) {
	id, _ := SessionPath(r.URL.Path)
	s, err := h.sessions.Lookup(id)
	if err != nil {
		WriteError(w, http.StatusNotFound, err.Error())
		return nil, false
	}
	return s, true
}

func (h *WizardHandler) decode(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := DecodeJSON(r, dst); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

// writeStageError maps a wizard failure to a status code. Anything that
// is not a *wizard.StageError is a server fault.
func (h *WizardHandler) writeStageError(w http.ResponseWriter, err error, view *wizard.View) {
	var se *wizard.StageError
	if !errors.As(err, &se) {
		h.logger.Error().Err(err).Msg("Unexpected wizard error")
		WriteError(w, http.StatusInternalServerError, "internal error")
		return
	}

	WriteJSON(w, StatusForKind(se.Kind), stageErrorResponse{
		Status:  "error",
		Error:   se.Error(),
		Kind:    se.Kind,
		Stage:   se.Stage,
		Session: view,
	})
}

// StatusForKind maps a wizard error kind to an HTTP status.
func StatusForKind(kind wizard.ErrorKind) int {
	switch kind {
	case wizard.KindInput:
		return http.StatusBadRequest
	case wizard.KindTransition:
		return http.StatusConflict
	case wizard.KindTransport, wizard.KindMalformed:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
