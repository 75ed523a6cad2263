package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/bobmcallan/macro-alpha/internal/config"
)

type fixedCounter int

func (c fixedCounter) Len() int { return int(c) }

func TestHealthHandler_ReturnsOK(t *testing.T) {
	handler := NewHealthHandler(nil, fixedCounter(2))

	req := httptest.NewRequest("GET", "/api/health", nil)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", w.Code)
	}

	var body map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}

	if body["status"] != "ok" {
		t.Errorf("expected status ok, got %v", body["status"])
	}
	if body["sessions"] != float64(2) {
		t.Errorf("expected 2 sessions, got %v", body["sessions"])
	}
}

func TestHealthHandler_RejectsNonGET(t *testing.T) {
	handler := NewHealthHandler(nil, nil)

	req := httptest.NewRequest("POST", "/api/health", nil)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("expected status 405, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"status":"error"`) {
		t.Errorf("expected JSON error envelope, got %s", w.Body.String())
	}
}

func TestVersionHandler_ReturnsJSON(t *testing.T) {
	handler := NewVersionHandler(nil, config.ModelConfig{Provider: "openrouter", Model: "anthropic/claude-3.5-sonnet", Variant: "classic"})

	req := httptest.NewRequest("GET", "/api/version", nil)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("expected application/json, got %s", ct)
	}

	var body map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	for _, field := range []string{"version", "build", "git_commit"} {
		if body[field] == "" {
			t.Errorf("expected %s field", field)
		}
	}
	if body["provider"] != "openrouter" || body["model"] != "anthropic/claude-3.5-sonnet" {
		t.Errorf("unexpected model info %v", body)
	}
}

func TestSessionPath(t *testing.T) {
	cases := []struct {
		path, id, action string
	}{
		{"/api/sessions", "", ""},
		{"/api/sessions/", "", ""},
		{"/api/sessions/abc", "abc", ""},
		{"/api/sessions/abc/", "abc", ""},
		{"/api/sessions/abc/thesis", "abc", "thesis"},
		{"/api/sessions/abc/deep-dive", "abc", "deep-dive"},
	}
	for _, c := range cases {
		id, action := SessionPath(c.path)
		if id != c.id || action != c.action {
			t.Errorf("SessionPath(%q) = %q, %q; want %q, %q", c.path, id, action, c.id, c.action)
		}
	}
}

func TestDecodeJSON_EmptyBody(t *testing.T) {
	req := httptest.NewRequest("POST", "/api/sessions", nil)
	var dst thesisRequest
	if err := DecodeJSON(req, &dst); err != nil {
		t.Errorf("expected empty body to be accepted, got %v", err)
	}
}

func TestDecodeJSON_Invalid(t *testing.T) {
	req := httptest.NewRequest("POST", "/api/sessions", strings.NewReader("{not json"))
	var dst thesisRequest
	if err := DecodeJSON(req, &dst); err == nil {
		t.Error("expected error for malformed body")
	}
}
