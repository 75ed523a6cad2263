// Package app wires configuration, the model client and the wizard
// into the handlers served by internal/server.
package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/bobmcallan/macro-alpha/internal/common"
	"github.com/bobmcallan/macro-alpha/internal/config"
	"github.com/bobmcallan/macro-alpha/internal/handlers"
	"github.com/bobmcallan/macro-alpha/internal/llm"
	"github.com/bobmcallan/macro-alpha/internal/mcp"
	"github.com/bobmcallan/macro-alpha/internal/prompts"
	"github.com/bobmcallan/macro-alpha/internal/schema"
	"github.com/bobmcallan/macro-alpha/internal/sessions"
	"github.com/bobmcallan/macro-alpha/internal/wizard"
)

// App holds all application components and dependencies.
type App struct {
	Config *config.Config
	Logger *common.Logger

	Engine   *wizard.Engine
	Sessions *sessions.Manager

	// HTTP handlers
	HealthHandler  *handlers.HealthHandler
	VersionHandler *handlers.VersionHandler
	WizardHandler  *handlers.WizardHandler
	MCPHandler     *mcp.Handler
}

// Option customises New. Tests use it to swap the model backend.
type Option func(*options)

type options struct {
	completer llm.Completer
	model     string
	factory   wizard.ClientFactory
}

// WithCompleter replaces the server default model client.
func WithCompleter(c llm.Completer, model string) Option {
	return func(o *options) {
		o.completer = c
		o.model = model
	}
}

// WithClientFactory replaces how per-session credentials become clients.
func WithClientFactory(f wizard.ClientFactory) Option {
	return func(o *options) { o.factory = f }
}

// New initializes the application with all dependencies.
func New(cfg *config.Config, logger *common.Logger, opts ...Option) (*App, error) {
	if logger == nil {
		logger = common.NewSilentLogger()
	}
	a := &App{
		Config: cfg,
		Logger: logger,
	}

	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if o.factory == nil {
		o.factory = a.clientFactory()
	}
	if o.completer == nil {
		o.completer, o.model = a.defaultCompleter(o.factory)
	}

	variant := prompts.ParseVariant(cfg.Model.Variant)
	checker, err := schema.NewChecker(variant)
	if err != nil {
		return nil, fmt.Errorf("failed to compile response schemas: %w", err)
	}

	a.Engine = wizard.NewEngine(wizard.Options{
		Prompts:   prompts.NewBuilder(variant, cfg.Model.Language),
		Checker:   checker,
		Completer: o.completer,
		Model:     o.model,
		Factory:   o.factory,
		Logger:    logger,
	})

	store := sessions.NewStore(cfg.Sessions.GetTTL(), cfg.Sessions.MaxSessions)
	a.Sessions = sessions.NewManager(a.Engine, store, logger)

	a.initHandlers()

	logger.Info().
		Str("variant", string(variant)).
		Bool("default_model", o.completer != nil).
		Msg("Application initialization complete")

	return a, nil
}

// clientFactory builds per-session clients with the configured provider,
// endpoint and timeout. Every client is wrapped with call logging.
func (a *App) clientFactory() wizard.ClientFactory {
	mc := a.Config.Model
	return func(ctx context.Context, apiKey, model string) (llm.Completer, string, error) {
		if model == "" {
			model = mc.Model
		}
		c, resolved, err := llm.New(ctx, llm.Options{
			Provider: mc.Provider,
			APIKey:   apiKey,
			Model:    model,
			BaseURL:  mc.BaseURL,
			Timeout:  mc.GetTimeout(),
		})
		if err != nil {
			return nil, "", err
		}
		return llm.WithLogging(c, a.Logger), resolved, nil
	}
}

// defaultCompleter connects the server-wide key, if one is configured.
// A missing key is not fatal: sessions can bring their own.
func (a *App) defaultCompleter(factory wizard.ClientFactory) (llm.Completer, string) {
	key := a.Config.Model.ResolveAPIKey()
	c, model, err := factory(context.Background(), key, "")
	if err != nil {
		if errors.Is(err, llm.ErrMissingAPIKey) {
			a.Logger.Warn().Msg("No model API key configured; sessions must connect with their own key")
		} else {
			a.Logger.Warn().Err(err).Msg("Failed to create default model client")
		}
		return nil, ""
	}
	a.Logger.Info().Str("model", model).Msg("Default model client ready")
	return c, model
}

// initHandlers initializes all HTTP handlers.
func (a *App) initHandlers() {
	a.HealthHandler = handlers.NewHealthHandler(a.Logger, a.Sessions)
	a.VersionHandler = handlers.NewVersionHandler(a.Logger, a.Config.Model)
	a.WizardHandler = handlers.NewWizardHandler(a.Logger, a.Sessions)
	a.MCPHandler = mcp.NewHandler(a.Sessions, a.Logger)

	a.Logger.Debug().Msg("HTTP handlers initialized")
}

// StartJanitor evicts expired sessions in the background until ctx ends.
func (a *App) StartJanitor(ctx context.Context) {
	go a.Sessions.RunJanitor(ctx, a.Config.Sessions.GetCleanupInterval())
}

// Close closes all application resources.
func (a *App) Close() error {
	return nil
}
