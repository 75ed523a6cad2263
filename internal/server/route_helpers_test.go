package server

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestRouteByMethod_MatchingMethod(t *testing.T) {
	called := false
	routes := MethodRouter{
		http.MethodGet: func(w http.ResponseWriter, r *http.Request) { called = true },
	}

	RouteByMethod(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/test", nil), routes)

	if !called {
		t.Error("expected GET handler to be called")
	}
}

func TestRouteByMethod_NoMatchingMethod(t *testing.T) {
	routes := MethodRouter{
		http.MethodGet:    func(w http.ResponseWriter, r *http.Request) { t.Error("GET handler should not be called") },
		http.MethodDelete: func(w http.ResponseWriter, r *http.Request) { t.Error("DELETE handler should not be called") },
	}

	w := httptest.NewRecorder()
	RouteByMethod(w, httptest.NewRequest(http.MethodPost, "/test", nil), routes)

	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("expected status 405, got %d", w.Code)
	}
	if got := w.Header().Get("Allow"); got != "DELETE, GET" {
		t.Errorf("Allow = %q, want %q", got, "DELETE, GET")
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}
}

func TestRouteResourceCollection(t *testing.T) {
	tests := []struct {
		method string
		want   string
		code   int
	}{
		{http.MethodGet, "list", http.StatusOK},
		{http.MethodPost, "create", http.StatusOK},
		{http.MethodDelete, "", http.StatusMethodNotAllowed},
	}
	for _, tt := range tests {
		t.Run(tt.method, func(t *testing.T) {
			var got string
			list := func(w http.ResponseWriter, r *http.Request) { got = "list" }
			create := func(w http.ResponseWriter, r *http.Request) { got = "create" }

			w := httptest.NewRecorder()
			RouteResourceCollection(w, httptest.NewRequest(tt.method, "/items", nil), list, create)

			if got != tt.want {
				t.Errorf("handler = %q, want %q", got, tt.want)
			}
			if w.Code != tt.code {
				t.Errorf("status = %d, want %d", w.Code, tt.code)
			}
		})
	}
}

func TestRouteResourceItem_NilHandlersNotRouted(t *testing.T) {
	var got string
	get := func(w http.ResponseWriter, r *http.Request) { got = "get" }
	del := func(w http.ResponseWriter, r *http.Request) { got = "delete" }

	for method, want := range map[string]string{http.MethodGet: "get", http.MethodDelete: "delete"} {
		got = ""
		RouteResourceItem(httptest.NewRecorder(), httptest.NewRequest(method, "/items/1", nil), get, nil, del)
		if got != want {
			t.Errorf("%s routed to %q, want %q", method, got, want)
		}
	}

	w := httptest.NewRecorder()
	RouteResourceItem(w, httptest.NewRequest(http.MethodPut, "/items/1", nil), get, nil, del)
	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("expected 405 for PUT with nil update, got %d", w.Code)
	}
}
