package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	mcpgo "github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/bobmcallan/macro-alpha/internal/common"
	"github.com/bobmcallan/macro-alpha/internal/config"
	"github.com/bobmcallan/macro-alpha/internal/llm"
	"github.com/bobmcallan/macro-alpha/internal/prompts"
	"github.com/bobmcallan/macro-alpha/internal/sessions"
	"github.com/bobmcallan/macro-alpha/internal/wizard"
)

// --- Helpers ---

const (
	critiqueReply   = `{"consensus_view":"Rates stay high","risk_factors":"Sticky services inflation","calibration_questions":["Horizon?","Drawdown?","Hedge?"]}`
	strategiesReply = "```json\n{\"strategies\":[{\"id\":0,\"name\":\"Long TLT\"},{\"id\":1,\"name\":\"Short KRE\"},{\"id\":2,\"name\":\"Gold calls\"}]}\n```"
	deepDiveReply   = `{"asset_analysis":"Duration play","scenarios":[{"move":"-50bp","outcome":"rally","pnl":"+$120"}]}`
)

type stubModel struct {
	calls   atomic.Int32
	down    atomic.Bool
}

func (m *stubModel) Complete(_ context.Context, _, prompt string) (string, error) {
	m.calls.Add(1)
	if m.down.Load() {
		return "", errors.New("connection refused")
	}
	switch {
	case strings.Contains(prompt, "calibration questions"):
		return critiqueReply, nil
	case strings.Contains(prompt, "Create 3 distinct"):
		return strategiesReply, nil
	default:
		return deepDiveReply, nil
	}
}

func newTestManager(t *testing.T, model llm.Completer) *sessions.Manager {
	t.Helper()
	logger := common.NewSilentLogger()
	engine := wizard.NewEngine(wizard.Options{
		Prompts:   prompts.NewBuilder(prompts.Classic, ""),
		Completer: model,
		Model:     "test-model",
		Logger:    logger,
	})
	return sessions.NewManager(engine, sessions.NewStore(time.Minute, 10), logger)
}

func newTestServer(t *testing.T, model llm.Completer) *mcpserver.MCPServer {
	t.Helper()
	return NewHandler(newTestManager(t, model), common.NewSilentLogger()).Server()
}

// listTools calls tools/list on the MCPServer and returns the tools.
func listTools(t *testing.T, s *mcpserver.MCPServer) []mcpgo.Tool {
	t.Helper()
	msg := s.HandleMessage(context.Background(), json.RawMessage(`{"jsonrpc":"2.0","id":1,"method":"tools/list"}`))
	resp, ok := msg.(mcpgo.JSONRPCResponse)
	if !ok {
		t.Fatalf("expected JSONRPCResponse, got %T", msg)
	}
	raw, _ := json.Marshal(resp.Result)
	var result mcpgo.ListToolsResult
	if err := json.Unmarshal(raw, &result); err != nil {
		t.Fatalf("failed to unmarshal tools/list result: %v", err)
	}
	return result.Tools
}

// callTool invokes a tool with the given arguments.
func callTool(t *testing.T, s *mcpserver.MCPServer, name string, args map[string]interface{}) mcpgo.CallToolResult {
	t.Helper()
	params, _ := json.Marshal(map[string]interface{}{"name": name, "arguments": args})
	msg := s.HandleMessage(context.Background(), json.RawMessage(
		fmt.Sprintf(`{"jsonrpc":"2.0","id":2,"method":"tools/call","params":%s}`, params)))
	resp, ok := msg.(mcpgo.JSONRPCResponse)
	if !ok {
		t.Fatalf("expected JSONRPCResponse for %s, got %T", name, msg)
	}
	raw, _ := json.Marshal(resp.Result)
	var result mcpgo.CallToolResult
	if err := json.Unmarshal(raw, &result); err != nil {
		t.Fatalf("failed to unmarshal %s result: %v", name, err)
	}
	return result
}

// extractText extracts the text field from an MCP content block.
func extractText(t *testing.T, content mcpgo.Content) string {
	t.Helper()
	contentJSON, _ := json.Marshal(content)
	var tc struct {
		Text string `json:"text"`
	}
	json.Unmarshal(contentJSON, &tc)
	return tc.Text
}

type sessionJSON struct {
	ID         string `json:"id"`
	Stage      string `json:"stage"`
	Connected  bool   `json:"connected"`
	Thesis     string `json:"thesis"`
	Capital    string `json:"capital"`
	Strategies []struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	} `json:"strategies"`
	Selected *struct {
		Name string `json:"name"`
	} `json:"selected"`
	DeepDive *struct {
		AssetAnalysis string `json:"asset_analysis"`
	} `json:"deep_dive"`
}

func decodeSession(t *testing.T, res mcpgo.CallToolResult) sessionJSON {
	t.Helper()
	if res.IsError {
		t.Fatalf("unexpected tool error: %s", extractText(t, res.Content[0]))
	}
	var s sessionJSON
	if err := json.Unmarshal([]byte(extractText(t, res.Content[0])), &s); err != nil {
		t.Fatalf("failed to decode session: %v", err)
	}
	return s
}

func startSession(t *testing.T, s *mcpserver.MCPServer) string {
	t.Helper()
	view := decodeSession(t, callTool(t, s, "start_session", nil))
	if view.ID == "" {
		t.Fatal("expected a session id")
	}
	return view.ID
}

// --- Tests ---

func TestNewHandler_RegistersWizardTools(t *testing.T) {
	tools := listTools(t, newTestServer(t, &stubModel{}))

	want := []string{"start_session", "get_session", "submit_thesis", "submit_answers",
		"select_strategy", "back_to_strategies", "reset_session", "get_version"}
	names := map[string]mcpgo.Tool{}
	for _, tool := range tools {
		names[tool.Name] = tool
	}
	if len(tools) != len(want) {
		t.Errorf("expected %d tools, got %d", len(want), len(tools))
	}
	for _, name := range want {
		if _, ok := names[name]; !ok {
			t.Errorf("missing tool %s", name)
		}
	}

	thesis := names["submit_thesis"]
	required := strings.Join(thesis.InputSchema.Required, ",")
	if !strings.Contains(required, "session_id") || !strings.Contains(required, "thesis") {
		t.Errorf("submit_thesis required = %q", required)
	}
}

func TestWizardTools_FullWalkthrough(t *testing.T) {
	model := &stubModel{}
	s := newTestServer(t, model)
	id := startSession(t, s)

	view := decodeSession(t, callTool(t, s, "submit_thesis", map[string]interface{}{
		"session_id": id,
		"thesis":     "The Fed cuts twice before year end",
	}))
	if view.Stage != "calibration" {
		t.Fatalf("stage = %s, want calibration", view.Stage)
	}

	view = decodeSession(t, callTool(t, s, "submit_answers", map[string]interface{}{
		"session_id": id,
		"answers":    []string{"6 months", "20%", "No"},
		"capital":    2500,
	}))
	if view.Stage != "strategy_selection" {
		t.Fatalf("stage = %s, want strategy_selection", view.Stage)
	}
	if len(view.Strategies) != 3 {
		t.Fatalf("expected 3 strategies, got %d", len(view.Strategies))
	}
	if view.Capital != "2500" {
		t.Errorf("capital = %q, want 2500", view.Capital)
	}

	view = decodeSession(t, callTool(t, s, "select_strategy", map[string]interface{}{
		"session_id": id,
		"index":      1,
	}))
	if view.Stage != "deep_dive" {
		t.Fatalf("stage = %s, want deep_dive", view.Stage)
	}
	if view.Selected == nil || view.Selected.Name != "Short KRE" {
		t.Errorf("selected = %+v, want Short KRE", view.Selected)
	}
	if view.DeepDive == nil || view.DeepDive.AssetAnalysis != "Duration play" {
		t.Errorf("deep dive = %+v", view.DeepDive)
	}

	view = decodeSession(t, callTool(t, s, "back_to_strategies", map[string]interface{}{"session_id": id}))
	if view.Stage != "strategy_selection" {
		t.Errorf("after back: stage = %s, want strategy_selection", view.Stage)
	}

	before := model.calls.Load()
	decodeSession(t, callTool(t, s, "select_strategy", map[string]interface{}{"session_id": id, "index": 1}))
	if model.calls.Load() != before {
		t.Error("reselecting the same strategy should be served from cache")
	}

	view = decodeSession(t, callTool(t, s, "reset_session", map[string]interface{}{"session_id": id}))
	if view.Stage != "intake" || view.Thesis != "" || view.ID != id {
		t.Errorf("after reset: %+v", view)
	}
}

func TestWizardTools_CapitalDefaultsAndStrings(t *testing.T) {
	tests := []struct {
		name    string
		capital interface{}
		want    string
	}{
		{"omitted", nil, "1000"},
		{"number", 750.5, "750.5"},
		{"string with commas", "12,000", "12000"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t, &stubModel{})
			id := startSession(t, s)
			decodeSession(t, callTool(t, s, "submit_thesis", map[string]interface{}{"session_id": id, "thesis": "Oil spikes"}))

			args := map[string]interface{}{"session_id": id, "answers": []string{"a", "b", "c"}}
			if tt.capital != nil {
				args["capital"] = tt.capital
			}
			view := decodeSession(t, callTool(t, s, "submit_answers", args))
			if view.Capital != tt.want {
				t.Errorf("capital = %q, want %q", view.Capital, tt.want)
			}
		})
	}
}

func TestWizardTools_InvalidCapitalString(t *testing.T) {
	s := newTestServer(t, &stubModel{})
	id := startSession(t, s)
	decodeSession(t, callTool(t, s, "submit_thesis", map[string]interface{}{"session_id": id, "thesis": "Oil spikes"}))

	res := callTool(t, s, "submit_answers", map[string]interface{}{
		"session_id": id,
		"answers":    []string{"a"},
		"capital":    "lots",
	})
	if !res.IsError {
		t.Fatal("expected tool error")
	}
	if text := extractText(t, res.Content[0]); !strings.Contains(text, "not a number") {
		t.Errorf("unexpected error text: %s", text)
	}
}

func TestWizardTools_StageErrorKeepsSession(t *testing.T) {
	s := newTestServer(t, &stubModel{})
	id := startSession(t, s)

	res := callTool(t, s, "select_strategy", map[string]interface{}{"session_id": id, "index": 0})
	if !res.IsError {
		t.Fatal("expected tool error for select before strategies")
	}
	var failure struct {
		Kind    string      `json:"kind"`
		Stage   string      `json:"stage"`
		Session sessionJSON `json:"session"`
	}
	if err := json.Unmarshal([]byte(extractText(t, res.Content[0])), &failure); err != nil {
		t.Fatalf("failed to decode failure: %v", err)
	}
	if failure.Kind != string(wizard.KindTransition) {
		t.Errorf("kind = %s, want transition", failure.Kind)
	}
	if failure.Session.Stage != "intake" {
		t.Errorf("session stage = %s, want intake", failure.Session.Stage)
	}
}

func TestWizardTools_TransportErrorReported(t *testing.T) {
	model := &stubModel{}
	model.down.Store(true)
	s := newTestServer(t, model)
	id := startSession(t, s)

	res := callTool(t, s, "submit_thesis", map[string]interface{}{"session_id": id, "thesis": "Yen carry unwinds"})
	if !res.IsError {
		t.Fatal("expected tool error")
	}
	text := extractText(t, res.Content[0])
	if !strings.Contains(text, string(wizard.KindTransport)) {
		t.Errorf("expected transport kind in %s", text)
	}

	model.down.Store(false)
	view := decodeSession(t, callTool(t, s, "submit_thesis", map[string]interface{}{"session_id": id, "thesis": "Yen carry unwinds"}))
	if view.Stage != "calibration" {
		t.Errorf("retry stage = %s, want calibration", view.Stage)
	}
}

func TestWizardTools_UnknownSession(t *testing.T) {
	s := newTestServer(t, &stubModel{})
	res := callTool(t, s, "get_session", map[string]interface{}{"session_id": "nope"})
	if !res.IsError {
		t.Fatal("expected tool error for unknown session")
	}
	if text := extractText(t, res.Content[0]); !strings.Contains(text, "not found") {
		t.Errorf("unexpected text: %s", text)
	}
}

func TestWizardTools_MissingArguments(t *testing.T) {
	s := newTestServer(t, &stubModel{})
	id := startSession(t, s)

	if res := callTool(t, s, "get_session", nil); !res.IsError {
		t.Error("expected error without session_id")
	}
	if res := callTool(t, s, "select_strategy", map[string]interface{}{"session_id": id}); !res.IsError {
		t.Error("expected error without index")
	}
}

func TestVersionToolHandler_ReportsBuild(t *testing.T) {
	result, err := VersionToolHandler()(t.Context(), mcpgo.CallToolRequest{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.IsError {
		t.Fatalf("unexpected tool error: %v", result.Content)
	}

	var info map[string]versionInfo
	text := result.Content[0].(mcpgo.TextContent).Text
	if err := json.Unmarshal([]byte(text), &info); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if info["macro_alpha"].Version != config.GetVersion() {
		t.Errorf("version = %q, want %q", info["macro_alpha"].Version, config.GetVersion())
	}
}

func TestHandler_ServesStreamableHTTP(t *testing.T) {
	h := NewHandler(newTestManager(t, &stubModel{}), nil)

	body := `{"jsonrpc":"2.0","id":1,"method":"initialize","params":{"protocolVersion":"2025-03-26","capabilities":{},"clientInfo":{"name":"test","version":"1"}}}`
	req := httptest.NewRequest(http.MethodPost, "/mcp", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json, text/event-stream")
	w := httptest.NewRecorder()

	h.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), "macro-alpha") {
		t.Errorf("expected server name in initialize response, got %s", w.Body.String())
	}
}
