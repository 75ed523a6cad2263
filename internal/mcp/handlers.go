package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/shopspring/decimal"

	"github.com/bobmcallan/macro-alpha/internal/sessions"
	"github.com/bobmcallan/macro-alpha/internal/wizard"
)

// errorResult creates an MCP error result.
func errorResult(message string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.NewTextContent(message),
		},
		IsError: true,
	}
}

// jsonResult renders v as the single text block of a tool result.
func jsonResult(v interface{}) *mcp.CallToolResult {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errorResult("failed to marshal result")
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.NewTextContent(string(out))},
	}
}

type stageFailure struct {
	Error   string           `json:"error"`
	Kind    wizard.ErrorKind `json:"kind"`
	Stage   wizard.Stage     `json:"stage"`
	Session wizard.View      `json:"session"`
}

// stageErrorResult reports a failed step together with the unchanged
// session so the client can retry.
func stageErrorResult(err error, s *wizard.Session) *mcp.CallToolResult {
	var se *wizard.StageError
	if !errors.As(err, &se) {
		return errorResult(err.Error())
	}
	res := jsonResult(stageFailure{
		Error:   se.Error(),
		Kind:    se.Kind,
		Stage:   se.Stage,
		Session: s.View(),
	})
	res.IsError = true
	return res
}

// sessionOp runs fn against the session named by session_id.
func sessionOp(manager *sessions.Manager, fn func(ctx context.Context, r mcp.CallToolRequest, s *wizard.Session) error) server.ToolHandlerFunc {
	return func(ctx context.Context, r mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, err := r.RequireString("session_id")
		if err != nil {
			return errorResult("session_id is required"), nil
		}
		s, err := manager.Lookup(id)
		if err != nil {
			return errorResult(fmt.Sprintf("session %s: %v", id, err)), nil
		}
		if err := fn(ctx, r, s); err != nil {
			var argErr argumentError
			if errors.As(err, &argErr) {
				return errorResult(argErr.Error()), nil
			}
			return stageErrorResult(err, s), nil
		}
		return jsonResult(s.View()), nil
	}
}

// argumentError marks a bad tool argument, reported without session state.
type argumentError string

func (e argumentError) Error() string { return string(e) }

func startSessionHandler(manager *sessions.Manager) server.ToolHandlerFunc {
	return func(ctx context.Context, r mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		s, err := manager.Create(ctx, r.GetString("api_key", ""), r.GetString("model", ""))
		if err != nil {
			return errorResult(err.Error()), nil
		}
		return jsonResult(s.View()), nil
	}
}

func getSessionHandler(manager *sessions.Manager) server.ToolHandlerFunc {
	return sessionOp(manager, func(context.Context, mcp.CallToolRequest, *wizard.Session) error {
		return nil
	})
}

func submitThesisHandler(manager *sessions.Manager) server.ToolHandlerFunc {
	return sessionOp(manager, func(ctx context.Context, r mcp.CallToolRequest, s *wizard.Session) error {
		return manager.Engine().SubmitThesis(ctx, s, r.GetString("thesis", ""))
	})
}

func submitAnswersHandler(manager *sessions.Manager) server.ToolHandlerFunc {
	return sessionOp(manager, func(ctx context.Context, r mcp.CallToolRequest, s *wizard.Session) error {
		capital, err := capitalArg(r)
		if err != nil {
			return err
		}
		answers := r.GetStringSlice("answers", nil)
		return manager.Engine().SubmitAnswers(ctx, s, answers, capital)
	})
}

func selectStrategyHandler(manager *sessions.Manager) server.ToolHandlerFunc {
	return sessionOp(manager, func(ctx context.Context, r mcp.CallToolRequest, s *wizard.Session) error {
		index, err := r.RequireInt("index")
		if err != nil {
			return argumentError("index is required")
		}
		_, err = manager.Engine().SelectStrategy(ctx, s, index)
		return err
	})
}

func backToStrategiesHandler(manager *sessions.Manager) server.ToolHandlerFunc {
	return sessionOp(manager, func(_ context.Context, _ mcp.CallToolRequest, s *wizard.Session) error {
		return manager.Engine().Back(s)
	})
}

func resetSessionHandler(manager *sessions.Manager) server.ToolHandlerFunc {
	return sessionOp(manager, func(_ context.Context, _ mcp.CallToolRequest, s *wizard.Session) error {
		manager.Engine().Reset(s)
		return nil
	})
}

// capitalArg accepts capital as a JSON number or a decimal string.
func capitalArg(r mcp.CallToolRequest) (decimal.Decimal, error) {
	switch v := r.GetArguments()["capital"].(type) {
	case nil:
		return wizard.DefaultCapital, nil
	case float64:
		return decimal.NewFromFloat(v), nil
	case string:
		d, err := decimal.NewFromString(strings.TrimSpace(strings.ReplaceAll(v, ",", "")))
		if err != nil {
			return decimal.Zero, argumentError(fmt.Sprintf("capital %q is not a number", v))
		}
		return d, nil
	default:
		return decimal.Zero, argumentError("capital must be a number")
	}
}
