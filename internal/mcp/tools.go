package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/bobmcallan/macro-alpha/internal/sessions"
)

// RegisterWizardTools adds the wizard tools to s and returns how many
// were registered.
func RegisterWizardTools(s *server.MCPServer, manager *sessions.Manager) int {
	tools := []server.ServerTool{
		{Tool: startSessionTool(), Handler: startSessionHandler(manager)},
		{Tool: getSessionTool(), Handler: getSessionHandler(manager)},
		{Tool: submitThesisTool(), Handler: submitThesisHandler(manager)},
		{Tool: submitAnswersTool(), Handler: submitAnswersHandler(manager)},
		{Tool: selectStrategyTool(), Handler: selectStrategyHandler(manager)},
		{Tool: backToStrategiesTool(), Handler: backToStrategiesHandler(manager)},
		{Tool: resetSessionTool(), Handler: resetSessionHandler(manager)},
	}
	s.AddTools(tools...)
	return len(tools)
}

func sessionIDParam() mcp.ToolOption {
	return mcp.WithString("session_id",
		mcp.Required(),
		mcp.Description("Session id returned by start_session."),
	)
}

func startSessionTool() mcp.Tool {
	return mcp.NewTool("start_session",
		mcp.WithDescription("Start a new investment thesis session. Without api_key the server's configured model is used."),
		mcp.WithString("api_key", mcp.Description("Model provider key. Keys starting with sk-or- use OpenRouter.")),
		mcp.WithString("model", mcp.Description("Model name. Empty selects the provider default.")),
	)
}

func getSessionTool() mcp.Tool {
	return mcp.NewTool("get_session",
		mcp.WithDescription("Get the current stage and content of a session."),
		sessionIDParam(),
	)
}

func submitThesisTool() mcp.Tool {
	return mcp.NewTool("submit_thesis",
		mcp.WithDescription("Submit a macro thesis. Returns the critique and three calibration questions."),
		sessionIDParam(),
		mcp.WithString("thesis", mcp.Required(), mcp.Description("The macro investment thesis in plain language.")),
	)
}

func submitAnswersTool() mcp.Tool {
	return mcp.NewTool("submit_answers",
		mcp.WithDescription("Answer the calibration questions and set risk capital. Returns three candidate strategies."),
		sessionIDParam(),
		mcp.WithArray("answers",
			mcp.Required(),
			mcp.Description("Answers in question order."),
			mcp.WithStringItems(),
		),
		mcp.WithNumber("capital", mcp.Description("Risk capital in dollars. Defaults to 1000.")),
	)
}

func selectStrategyTool() mcp.Tool {
	return mcp.NewTool("select_strategy",
		mcp.WithDescription("Select a strategy by zero-based index and return its deep dive."),
		sessionIDParam(),
		mcp.WithNumber("index", mcp.Required(), mcp.Description("Zero-based strategy index.")),
	)
}

func backToStrategiesTool() mcp.Tool {
	return mcp.NewTool("back_to_strategies",
		mcp.WithDescription("Return from the deep dive to the strategy list."),
		sessionIDParam(),
	)
}

func resetSessionTool() mcp.Tool {
	return mcp.NewTool("reset_session",
		mcp.WithDescription("Discard all progress and start again from the thesis."),
		sessionIDParam(),
	)
}
