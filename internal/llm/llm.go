// Package llm sends a prompt to a hosted model and returns the reply text.
package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/bobmcallan/macro-alpha/internal/common"
	"github.com/bobmcallan/macro-alpha/internal/config"
)

// Provider identifiers. They match the [model] provider config values.
const (
	ProviderAuto       = config.ProviderAuto
	ProviderOpenAI     = config.ProviderOpenAI
	ProviderOpenRouter = config.ProviderOpenRouter
	ProviderGemini     = config.ProviderGemini
)

const (
	openRouterKeyPrefix = "sk-or-"
	openRouterBaseURL   = "https://openrouter.ai/api/v1"

	defaultOpenAIModel     = "gpt-4o"
	defaultOpenRouterModel = "anthropic/claude-3.5-sonnet"
	defaultGeminiModel     = "gemini-2.0-flash"
)

var (
	// ErrMissingAPIKey is returned when a client is requested without a credential.
	ErrMissingAPIKey = errors.New("api key is required")
	// ErrEmptyResponse is returned when the model answers with no content.
	ErrEmptyResponse = errors.New("model returned no content")
)

// Completer submits a prompt to a model and returns the reply text.
type Completer interface {
	Complete(ctx context.Context, model, prompt string) (string, error)
}

// CompleterFunc adapts a function to the Completer interface.
type CompleterFunc func(ctx context.Context, model, prompt string) (string, error)

// Complete calls f.
func (f CompleterFunc) Complete(ctx context.Context, model, prompt string) (string, error) {
	return f(ctx, model, prompt)
}

// Options describes the backend to construct.
type Options struct {
	Provider string
	APIKey   string
	Model    string
	BaseURL  string
	Timeout  time.Duration
}

// DetectProvider picks OpenRouter for keys carrying its prefix and
// OpenAI for everything else.
func DetectProvider(apiKey string) string {
	if strings.HasPrefix(strings.TrimSpace(apiKey), openRouterKeyPrefix) {
		return ProviderOpenRouter
	}
	return ProviderOpenAI
}

// DefaultModel returns the model used when none is configured.
func DefaultModel(provider string) string {
	switch provider {
	case ProviderOpenRouter:
		return defaultOpenRouterModel
	case ProviderGemini:
		return defaultGeminiModel
	default:
		return defaultOpenAIModel
	}
}

// New builds a Completer for opts and returns it with the model id to
// use. "auto" or an empty provider is resolved from the key prefix.
func New(ctx context.Context, opts Options) (Completer, string, error) {
	key := strings.TrimSpace(opts.APIKey)
	if key == "" {
		return nil, "", ErrMissingAPIKey
	}

	provider := strings.ToLower(strings.TrimSpace(opts.Provider))
	if provider == "" || provider == ProviderAuto {
		provider = DetectProvider(key)
	}

	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = DefaultModel(provider)
	}

	httpClient := newHTTPClient(provider, opts.Timeout)

	switch provider {
	case ProviderOpenAI:
		return NewOpenAIClient(key, opts.BaseURL, httpClient), model, nil
	case ProviderOpenRouter:
		baseURL := opts.BaseURL
		if baseURL == "" {
			baseURL = openRouterBaseURL
		}
		return NewOpenAIClient(key, baseURL, httpClient), model, nil
	case ProviderGemini:
		c, err := NewGeminiClient(ctx, key, opts.BaseURL, httpClient)
		if err != nil {
			return nil, "", err
		}
		return c, model, nil
	default:
		return nil, "", fmt.Errorf("unsupported provider: %s", provider)
	}
}

// headerTransport stamps outbound model requests with our identity.
type headerTransport struct {
	base    http.RoundTripper
	headers map[string]string
}

func (t *headerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	for k, v := range t.headers {
		req.Header.Set(k, v)
	}
	return t.base.RoundTrip(req)
}

func newHTTPClient(provider string, timeout time.Duration) *http.Client {
	headers := map[string]string{"User-Agent": config.UserAgent()}
	if provider == ProviderOpenRouter {
		headers["X-Title"] = "macro-alpha"
	}
	return &http.Client{
		Timeout:   timeout,
		Transport: &headerTransport{base: http.DefaultTransport, headers: headers},
	}
}

// loggingCompleter records latency and outcome of every model call.
type loggingCompleter struct {
	next   Completer
	logger *common.Logger
}

// WithLogging wraps c so each call is logged at debug level, or at warn
// level when it fails.
func WithLogging(c Completer, logger *common.Logger) Completer {
	if logger == nil {
		return c
	}
	return &loggingCompleter{next: c, logger: logger}
}

func (l *loggingCompleter) Complete(ctx context.Context, model, prompt string) (string, error) {
	start := time.Now()
	reply, err := l.next.Complete(ctx, model, prompt)
	elapsed := time.Since(start)

	if err != nil {
		l.logger.Warn().
			Str("model", model).
			Int("prompt_chars", len(prompt)).
			Dur("elapsed", elapsed).
			Err(err).
			Msg("Model call failed")
		return "", err
	}

	l.logger.Debug().
		Str("model", model).
		Int("prompt_chars", len(prompt)).
		Int("reply_chars", len(reply)).
		Dur("elapsed", elapsed).
		Msg("Model call completed")
	return reply, nil
}
