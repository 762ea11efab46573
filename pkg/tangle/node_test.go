package tangle

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestNode(t *testing.T, handler func(cmd string, req map[string]any) (int, any)) *NodeClient {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req map[string]any
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("malformed request: %v", err)
		}
		cmd, _ := req["command"].(string)
		status, body := handler(cmd, req)
		w.Header().Set("content-type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(body)
	}))
	t.Cleanup(srv.Close)
	return NewNodeClient(srv.URL, srv.Client())
}

func TestNodeClientSubmit(t *testing.T) {
	c := newTestNode(t, func(cmd string, req map[string]any) (int, any) {
		if cmd != "submitBundle" {
			t.Fatalf("unexpected command %s", cmd)
		}
		if addr, _ := req["address"].(string); addr != "ADDR" {
			t.Fatalf("unexpected address %v", req["address"])
		}
		return 200, map[string]any{"tailHash": "TAIL0"}
	})
	tail, err := c.Submit(context.Background(), []string{"AB", "CD"}, "ADDR")
	if err != nil {
		t.Fatalf("Submit error: %v", err)
	}
	if tail != "TAIL0" {
		t.Fatalf("unexpected tail %s", tail)
	}
}

func TestNodeClientInclusionStatesAligned(t *testing.T) {
	c := newTestNode(t, func(cmd string, req map[string]any) (int, any) {
		return 200, map[string]any{"states": []bool{false, true}}
	})
	states, err := c.IsIncluded(context.Background(), []string{"A", "B"})
	if err != nil {
		t.Fatalf("IsIncluded error: %v", err)
	}
	if states["A"] || !states["B"] {
		t.Fatalf("unexpected states %v", states)
	}
}

func TestNodeClientInclusionStateCountMismatch(t *testing.T) {
	c := newTestNode(t, func(cmd string, req map[string]any) (int, any) {
		return 200, map[string]any{"states": []bool{true}}
	})
	if _, err := c.IsIncluded(context.Background(), []string{"A", "B"}); !errors.Is(err, ErrNode) {
		t.Fatalf("expected ErrNode, got %v", err)
	}
}

func TestNodeClientErrorStatus(t *testing.T) {
	c := newTestNode(t, func(cmd string, req map[string]any) (int, any) {
		return 503, map[string]any{"error": "node overloaded"}
	})
	if err := c.Promote(context.Background(), "TAIL0"); !errors.Is(err, ErrNode) {
		t.Fatalf("expected ErrNode, got %v", err)
	}
}
