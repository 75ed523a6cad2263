package wizard

import (
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/bobmcallan/macro-alpha/internal/llm"
	"github.com/bobmcallan/macro-alpha/internal/models"
)

// Session is one user's walkthrough. All mutation goes through Engine.
//
// op serialises operations so at most one model call per session is in
// flight; mu guards the fields and is never held across a model call,
// so View does not wait on a slow model.
type Session struct {
	ID string

	op sync.Mutex
	mu sync.RWMutex

	stage      Stage
	thesis     string
	answers    []models.Answer
	capital    decimal.Decimal
	critique   *models.Critique
	strategies []models.Strategy
	selected   *models.Strategy

	deepDive    *models.DeepDive
	deepDiveKey string

	warnings []string

	client llm.Completer
	model  string

	createdAt time.Time
	updatedAt time.Time
}

// View is a point-in-time copy of a session, safe to serialise.
type View struct {
	ID         string            `json:"id"`
	Stage      Stage             `json:"stage"`
	Model      string            `json:"model,omitempty"`
	Connected  bool              `json:"connected"`
	Thesis     string            `json:"thesis,omitempty"`
	Answers    []models.Answer   `json:"answers,omitempty"`
	Capital    *decimal.Decimal  `json:"capital,omitempty"`
	Critique   *models.Critique  `json:"critique,omitempty"`
	Strategies []models.Strategy `json:"strategies,omitempty"`
	Selected   *models.Strategy  `json:"selected,omitempty"`
	DeepDive   *models.DeepDive  `json:"deep_dive,omitempty"`
	Warnings   []string          `json:"warnings,omitempty"`
	CreatedAt  time.Time         `json:"created_at"`
	UpdatedAt  time.Time         `json:"updated_at"`
}

// Stage returns the current stage.
func (s *Session) Stage() Stage {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stage
}

// View returns a copy of the session state. The deep dive is included
// only while it belongs to the selected strategy.
func (s *Session) View() View {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v := View{
		ID:        s.ID,
		Stage:     s.stage,
		Model:     s.model,
		Connected: s.client != nil,
		Thesis:    s.thesis,
		Critique:  s.critique,
		DeepDive:  s.currentDeepDive(),
		CreatedAt: s.createdAt,
		UpdatedAt: s.updatedAt,
	}
	if len(s.answers) > 0 {
		v.Answers = append([]models.Answer(nil), s.answers...)
	}
	if s.stage >= StageStrategySelection {
		c := s.capital
		v.Capital = &c
	}
	if len(s.strategies) > 0 {
		v.Strategies = append([]models.Strategy(nil), s.strategies...)
	}
	if s.selected != nil {
		sel := *s.selected
		v.Selected = &sel
	}
	if len(s.warnings) > 0 {
		v.Warnings = append([]string(nil), s.warnings...)
	}
	return v
}

// currentDeepDive returns the cached deep dive if it was built for the
// selected strategy. Caller holds mu.
func (s *Session) currentDeepDive() *models.DeepDive {
	if s.deepDive == nil || s.selected == nil || s.deepDiveKey != s.selected.ID {
		return nil
	}
	return s.deepDive
}

func (s *Session) binding() (llm.Completer, string) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.client, s.model
}
