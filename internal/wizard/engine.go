// Package wizard sequences a thesis through critique, strategy selection
// and deep dive. Each Engine method is one transition; the Session it
// acts on is passed explicitly.
package wizard

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/bobmcallan/macro-alpha/internal/common"
	"github.com/bobmcallan/macro-alpha/internal/extract"
	"github.com/bobmcallan/macro-alpha/internal/llm"
	"github.com/bobmcallan/macro-alpha/internal/models"
	"github.com/bobmcallan/macro-alpha/internal/prompts"
	"github.com/bobmcallan/macro-alpha/internal/schema"
)

// DefaultCapital is used when the caller does not state an allocation.
var DefaultCapital = decimal.NewFromInt(1000)

// ClientFactory builds a model client from a caller-supplied key. It
// returns the client and the model id it resolved.
type ClientFactory func(ctx context.Context, apiKey, model string) (llm.Completer, string, error)

// Options configures an Engine. Completer and Model are the server-side
// defaults given to sessions created without their own key; either may
// be empty.
type Options struct {
	Prompts   *prompts.Builder
	Checker   *schema.Checker
	Completer llm.Completer
	Model     string
	Factory   ClientFactory
	Logger    *common.Logger
}

// Engine runs wizard transitions. It holds no per-session state and is
// safe for concurrent use across sessions.
type Engine struct {
	prompts   *prompts.Builder
	checker   *schema.Checker
	completer llm.Completer
	model     string
	factory   ClientFactory
	logger    *common.Logger
	now       func() time.Time
}

// NewEngine creates an Engine.
func NewEngine(opts Options) *Engine {
	builder := opts.Prompts
	if builder == nil {
		builder = prompts.NewBuilder(prompts.Classic, "")
	}
	logger := opts.Logger
	if logger == nil {
		logger = common.NewSilentLogger()
	}
	return &Engine{
		prompts:   builder,
		checker:   opts.Checker,
		completer: opts.Completer,
		model:     opts.Model,
		factory:   opts.Factory,
		logger:    logger,
		now:       time.Now,
	}
}

// NewSession starts a walkthrough in Intake. With an apiKey the session
// gets its own client; without one it falls back to the server default,
// and may end up with no client at all until Connect is called.
func (e *Engine) NewSession(ctx context.Context, apiKey, model string) (*Session, error) {
	now := e.now()
	s := &Session{
		ID:        uuid.New().String(),
		stage:     StageIntake,
		createdAt: now,
		updatedAt: now,
	}

	if strings.TrimSpace(apiKey) != "" {
		if err := e.Connect(ctx, s, apiKey, model); err != nil {
			return nil, err
		}
	} else if e.completer != nil {
		s.client = e.completer
		s.model = strings.TrimSpace(model)
		if s.model == "" {
			s.model = e.model
		}
	}

	e.logger.Info().
		Str("session", s.ID).
		Str("model", s.model).
		Bool("connected", s.client != nil).
		Msg("Session started")
	return s, nil
}

// Connect binds a model client built from apiKey to the session. Stage
// and data are unchanged.
func (e *Engine) Connect(ctx context.Context, s *Session, apiKey, model string) error {
	s.op.Lock()
	defer s.op.Unlock()

	stage := s.Stage()
	if strings.TrimSpace(apiKey) == "" {
		return &StageError{Op: "connect", Kind: KindInput, Stage: stage, Err: llm.ErrMissingAPIKey}
	}
	if e.factory == nil {
		return &StageError{Op: "connect", Kind: KindInput, Stage: stage, Err: errors.New("per-session credentials are not supported")}
	}

	client, resolved, err := e.factory(ctx, apiKey, model)
	if err != nil {
		return &StageError{Op: "connect", Kind: KindInput, Stage: stage, Err: err}
	}

	s.mu.Lock()
	s.client = client
	s.model = resolved
	s.updatedAt = e.now()
	s.mu.Unlock()
	return nil
}

// SubmitThesis moves Intake to Calibration by asking the model to
// critique the thesis. A blank thesis or missing client is rejected
// before any call.
func (e *Engine) SubmitThesis(ctx context.Context, s *Session, thesis string) error {
	const op = "submit thesis"
	s.op.Lock()
	defer s.op.Unlock()

	stage := s.Stage()
	if stage != StageIntake {
		return &StageError{Op: op, Kind: KindTransition, Stage: stage, Err: ErrWrongStage}
	}

	thesis = strings.TrimSpace(thesis)
	prompt, err := e.prompts.Critique(thesis)
	if err != nil {
		return &StageError{Op: op, Kind: KindInput, Stage: stage, Err: err}
	}

	rec, warnings, err := e.call(ctx, s, op, schema.KindCritique, prompt)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.thesis = thesis
	s.critique = models.CritiqueFromRecord(rec)
	s.warnings = warnings
	s.stage = StageCalibration
	s.updatedAt = e.now()
	questions := len(s.critique.Questions)
	s.mu.Unlock()

	e.logger.Info().
		Str("session", s.ID).
		Int("questions", questions).
		Msg("Thesis critiqued")
	return nil
}

// SubmitAnswers moves Calibration to StrategySelection. Replies are
// paired with the critique's questions by position; blank or missing
// replies are passed through.
func (e *Engine) SubmitAnswers(ctx context.Context, s *Session, replies []string, capital decimal.Decimal) error {
	const op = "submit answers"
	s.op.Lock()
	defer s.op.Unlock()

	s.mu.RLock()
	stage, thesis, critique := s.stage, s.thesis, s.critique
	s.mu.RUnlock()

	if stage != StageCalibration {
		return &StageError{Op: op, Kind: KindTransition, Stage: stage, Err: ErrWrongStage}
	}

	answers := models.PairAnswers(critique, replies)
	prompt, err := e.prompts.Strategies(thesis, answers, capital)
	if err != nil {
		return &StageError{Op: op, Kind: KindInput, Stage: stage, Err: err}
	}

	rec, warnings, err := e.call(ctx, s, op, schema.KindStrategies, prompt)
	if err != nil {
		return err
	}
	strategies, err := models.StrategiesFromRecord(rec)
	if err != nil {
		return &StageError{Op: op, Kind: KindMalformed, Stage: stage, Err: err}
	}

	s.mu.Lock()
	s.answers = answers
	s.capital = capital
	s.strategies = strategies
	s.warnings = warnings
	s.stage = StageStrategySelection
	s.updatedAt = e.now()
	s.mu.Unlock()

	e.logger.Info().
		Str("session", s.ID).
		Int("strategies", len(strategies)).
		Str("capital", capital.String()).
		Msg("Strategies generated")
	return nil
}

// SelectStrategy picks strategies[index] and enters DeepDive. The
// transition always commits for a valid index; the deep dive is then
// generated unless one is cached for the same strategy id. When that
// generation fails the session stays in DeepDive and DeepDive retries it.
func (e *Engine) SelectStrategy(ctx context.Context, s *Session, index int) (*models.DeepDive, error) {
	const op = "select strategy"
	s.op.Lock()
	defer s.op.Unlock()

	s.mu.Lock()
	stage := s.stage
	if stage != StageStrategySelection && stage != StageDeepDive {
		s.mu.Unlock()
		return nil, &StageError{Op: op, Kind: KindTransition, Stage: stage, Err: ErrWrongStage}
	}
	if index < 0 || index >= len(s.strategies) {
		s.mu.Unlock()
		return nil, &StageError{Op: op, Kind: KindInput, Stage: stage, Err: ErrStrategyIndex}
	}
	selected := s.strategies[index]
	if s.selected == nil || s.selected.ID != selected.ID {
		// Warnings describe the last record; a new selection starts clean.
		s.warnings = nil
	}
	s.selected = &selected
	s.stage = StageDeepDive
	s.updatedAt = e.now()
	s.mu.Unlock()

	e.logger.Info().
		Str("session", s.ID).
		Str("strategy", selected.ID).
		Str("name", selected.Name).
		Msg("Strategy selected")

	return e.ensureDeepDive(ctx, s, op)
}

// DeepDive returns the analysis for the selected strategy, generating it
// only if the cache holds none for that strategy id.
func (e *Engine) DeepDive(ctx context.Context, s *Session) (*models.DeepDive, error) {
	const op = "deep dive"
	s.op.Lock()
	defer s.op.Unlock()

	if stage := s.Stage(); stage != StageDeepDive {
		return nil, &StageError{Op: op, Kind: KindTransition, Stage: stage, Err: ErrWrongStage}
	}
	return e.ensureDeepDive(ctx, s, op)
}

// Back returns from DeepDive to StrategySelection. The strategy list,
// selection and cached deep dive are kept.
func (e *Engine) Back(s *Session) error {
	s.op.Lock()
	defer s.op.Unlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stage != StageDeepDive {
		return &StageError{Op: "back", Kind: KindTransition, Stage: s.stage, Err: ErrWrongStage}
	}
	s.stage = StageStrategySelection
	s.updatedAt = e.now()
	return nil
}

// Reset clears everything but the session id and its model binding and
// returns to Intake. Legal from any stage.
func (e *Engine) Reset(s *Session) {
	s.op.Lock()
	defer s.op.Unlock()

	s.mu.Lock()
	from := s.stage
	s.stage = StageIntake
	s.thesis = ""
	s.answers = nil
	s.capital = decimal.Zero
	s.critique = nil
	s.strategies = nil
	s.selected = nil
	s.deepDive = nil
	s.deepDiveKey = ""
	s.warnings = nil
	s.updatedAt = e.now()
	s.mu.Unlock()

	e.logger.Info().
		Str("session", s.ID).
		Str("from", from.String()).
		Msg("Session reset")
}

// ensureDeepDive serves the cache or generates a new deep dive. Caller
// holds s.op and the session is in DeepDive with a selection.
func (e *Engine) ensureDeepDive(ctx context.Context, s *Session, op string) (*models.DeepDive, error) {
	s.mu.RLock()
	cached := s.currentDeepDive()
	selected := *s.selected
	thesis := s.thesis
	s.mu.RUnlock()

	if cached != nil {
		e.logger.Debug().
			Str("session", s.ID).
			Str("strategy", selected.ID).
			Msg("Deep dive served from cache")
		return cached, nil
	}

	prompt, err := e.prompts.DeepDive(selected, thesis)
	if err != nil {
		return nil, &StageError{Op: op, Kind: KindInput, Stage: StageDeepDive, Err: err}
	}

	rec, warnings, err := e.call(ctx, s, op, schema.KindDeepDive, prompt)
	if err != nil {
		return nil, err
	}
	dd := models.DeepDiveFromRecord(rec)

	s.mu.Lock()
	s.deepDive = dd
	s.deepDiveKey = selected.ID
	s.warnings = warnings
	s.updatedAt = e.now()
	s.mu.Unlock()

	e.logger.Info().
		Str("session", s.ID).
		Str("strategy", selected.ID).
		Int("scenarios", len(dd.Scenarios)).
		Msg("Deep dive generated")
	return dd, nil
}

// call sends prompt with the session's client and extracts the record.
// Schema mismatches come back as warnings, not errors.
func (e *Engine) call(ctx context.Context, s *Session, op string, kind schema.Kind, prompt string) (models.Record, []string, error) {
	client, model := s.binding()
	stage := s.Stage()
	if client == nil {
		return nil, nil, &StageError{Op: op, Kind: KindInput, Stage: stage, Err: ErrNoClient}
	}

	reply, err := client.Complete(ctx, model, prompt)
	if err != nil {
		e.logger.Warn().
			Str("session", s.ID).
			Str("stage", stage.String()).
			Err(err).
			Msg("Model call failed")
		return nil, nil, &StageError{Op: op, Kind: KindTransport, Stage: stage, Err: err}
	}

	rec, err := extract.Extract(reply)
	if err != nil {
		e.logger.Warn().
			Str("session", s.ID).
			Str("stage", stage.String()).
			Str("reply", truncate(reply, 200)).
			Err(err).
			Msg("Model reply held no record")
		return nil, nil, &StageError{Op: op, Kind: KindMalformed, Stage: stage, Err: err}
	}

	var warnings []string
	if e.checker != nil {
		if err := e.checker.Check(kind, rec); err != nil {
			warnings = append(warnings, err.Error())
			e.logger.Warn().
				Str("session", s.ID).
				Str("kind", string(kind)).
				Err(err).
				Msg("Record does not match schema")
		}
	}
	return rec, warnings, nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
