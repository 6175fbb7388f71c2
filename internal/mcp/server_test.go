package mcp

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/joshharrison/pertloom/internal/session"
	"github.com/joshharrison/pertloom/internal/task"
)

func callTool(t *testing.T, s *server.MCPServer, name string, args map[string]interface{}) *mcp.CallToolResult {
	t.Helper()
	tool := s.GetTool(name)
	if tool == nil {
		t.Fatalf("Tool %s not found", name)
	}

	req := mcp.CallToolRequest{}
	req.Params.Name = name
	req.Params.Arguments = args

	result, err := tool.Handler(context.Background(), req)
	if err != nil {
		t.Fatalf("Handler %s failed: %v", name, err)
	}
	return result
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	if len(result.Content) == 0 {
		t.Fatal("Expected content in result")
	}
	text, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("Expected text content, got %T", result.Content[0])
	}
	return text.Text
}

func TestToolsRegistered(t *testing.T) {
	s := NewServer(session.New(nil), 2, nil)
	for _, name := range []string{
		"add_task", "edit_task", "delete_task", "list_tasks", "reset_tasks",
		"probability_of_finishing", "target_for_probability",
	} {
		if s.GetTool(name) == nil {
			t.Errorf("Tool %s not registered", name)
		}
	}
}

func TestTaskLifecycle(t *testing.T) {
	sess := session.New(nil)
	s := NewServer(sess, 2, nil)

	t.Run("AddTask", func(t *testing.T) {
		result := callTool(t, s, "add_task", map[string]interface{}{
			"name": "A", "optimistic": 2.0, "realistic": 4.0, "pessimistic": 6.0,
		})
		if result.IsError {
			t.Fatalf("Tool returned error: %s", resultText(t, result))
		}
		result = callTool(t, s, "add_task", map[string]interface{}{
			"name": "B", "optimistic": 1.0, "realistic": 3.0, "pessimistic": 11.0,
		})
		if text := resultText(t, result); !strings.Contains(text, "index 1") {
			t.Errorf("Expected add to report index 1, got %q", text)
		}
		if sess.Len() != 2 {
			t.Fatalf("Expected 2 tasks, got %d", sess.Len())
		}
	})

	t.Run("ProbabilityOfFinishing", func(t *testing.T) {
		result := callTool(t, s, "probability_of_finishing", map[string]interface{}{"target": 10.0})
		if result.IsError {
			t.Fatalf("Tool returned error: %s", resultText(t, result))
		}

		var out struct {
			Defined     bool     `json:"defined"`
			Display     string   `json:"display"`
			Probability *float64 `json:"probability"`
		}
		if err := json.Unmarshal([]byte(resultText(t, result)), &out); err != nil {
			t.Fatalf("Failed to decode result: %v", err)
		}
		if !out.Defined || out.Display != "86.74%" || out.Probability == nil {
			t.Errorf("Unexpected probability result %+v", out)
		}
	})

	t.Run("TargetForProbability", func(t *testing.T) {
		result := callTool(t, s, "target_for_probability", map[string]interface{}{"probability": 50.0})
		if result.IsError {
			t.Fatalf("Tool returned error: %s", resultText(t, result))
		}
		if text := resultText(t, result); !strings.Contains(text, "8.000") {
			t.Errorf("Expected P50 at 8.000, got %q", text)
		}
	})

	t.Run("EditTask", func(t *testing.T) {
		result := callTool(t, s, "edit_task", map[string]interface{}{
			"index": 0, "name": "A2", "optimistic": 1.0, "realistic": 2.0, "pessimistic": 3.0,
		})
		if result.IsError {
			t.Fatalf("Tool returned error: %s", resultText(t, result))
		}
		got, _ := sess.Get(0)
		if got != task.New("A2", 1, 2, 3) {
			t.Errorf("Unexpected task after edit: %+v", got)
		}
	})

	t.Run("ListTasks", func(t *testing.T) {
		result := callTool(t, s, "list_tasks", map[string]interface{}{})

		var out struct {
			Tasks []taskView `json:"tasks"`
		}
		if err := json.Unmarshal([]byte(resultText(t, result)), &out); err != nil {
			t.Fatalf("Failed to decode list: %v", err)
		}
		if len(out.Tasks) != 2 || out.Tasks[0].Name != "A2" || out.Tasks[1].Expected != 4 {
			t.Errorf("Unexpected list %+v", out.Tasks)
		}
	})

	t.Run("DeleteTask", func(t *testing.T) {
		result := callTool(t, s, "delete_task", map[string]interface{}{"index": 0})
		if result.IsError {
			t.Fatalf("Tool returned error: %s", resultText(t, result))
		}
		got, _ := sess.Get(0)
		if sess.Len() != 1 || got.Name != "B" {
			t.Errorf("Expected only B to remain, have %v", sess.Snapshot())
		}
	})

	t.Run("ResetTasks", func(t *testing.T) {
		callTool(t, s, "reset_tasks", map[string]interface{}{})
		if sess.Len() != 0 {
			t.Errorf("Expected empty session, got %d", sess.Len())
		}
	})
}

func TestToolErrors(t *testing.T) {
	sess := session.New(nil)
	s := NewServer(sess, 2, nil)

	tests := []struct {
		name    string
		tool    string
		args    map[string]interface{}
		wantSub string
	}{
		{"missing argument", "add_task", map[string]interface{}{"name": "x", "optimistic": 1.0}, "missing required argument 'realistic'"},
		{"invalid estimate", "add_task", map[string]interface{}{"name": "x", "optimistic": 5.0, "realistic": 2.0, "pessimistic": 1.0}, "invalid task"},
		{"delete out of range", "delete_task", map[string]interface{}{"index": 3}, "index out of range"},
		{"edit out of range", "edit_task", map[string]interface{}{"index": 0, "name": "x", "optimistic": 1.0, "realistic": 2.0, "pessimistic": 3.0}, "index out of range"},
		{"fractional index", "delete_task", map[string]interface{}{"index": 0.5}, "whole number"},
		{"string index", "delete_task", map[string]interface{}{"index": "0"}, "whole number"},
		{"target without variance", "target_for_probability", map[string]interface{}{"probability": 50.0}, "no target"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := callTool(t, s, tt.tool, tt.args)
			if !result.IsError {
				t.Fatalf("Expected error result, got %s", resultText(t, result))
			}
			if text := resultText(t, result); !strings.Contains(text, tt.wantSub) {
				t.Errorf("Expected error containing %q, got %q", tt.wantSub, text)
			}
		})
	}

	if sess.Len() != 0 {
		t.Errorf("Failed calls must not change the session, have %d tasks", sess.Len())
	}
}

func TestFractionalIndexLeavesTasksAlone(t *testing.T) {
	sess := session.New(nil)
	s := NewServer(sess, 2, nil)
	for _, name := range []string{"A", "B", "C"} {
		callTool(t, s, "add_task", map[string]interface{}{
			"name": name, "optimistic": 1.0, "realistic": 2.0, "pessimistic": 3.0,
		})
	}

	result := callTool(t, s, "delete_task", map[string]interface{}{"index": 1.9})
	if !result.IsError {
		t.Fatalf("Expected error for index 1.9, got %s", resultText(t, result))
	}
	result = callTool(t, s, "edit_task", map[string]interface{}{
		"index": 1.9, "name": "X", "optimistic": 1.0, "realistic": 2.0, "pessimistic": 3.0,
	})
	if !result.IsError {
		t.Fatalf("Expected error for index 1.9, got %s", resultText(t, result))
	}

	snap := sess.Snapshot()
	if len(snap) != 3 || snap[1].Name != "B" {
		t.Errorf("Expected tasks unchanged, got %v", snap)
	}

	// A whole-number float, as JSON decoding produces, is accepted.
	result = callTool(t, s, "delete_task", map[string]interface{}{"index": 2.0})
	if result.IsError {
		t.Fatalf("Tool returned error: %s", resultText(t, result))
	}
	if sess.Len() != 2 {
		t.Errorf("Expected 2 tasks, got %d", sess.Len())
	}
}

func TestProbabilityUndefined(t *testing.T) {
	sess := session.New(nil)
	s := NewServer(sess, 2, nil)
	callTool(t, s, "add_task", map[string]interface{}{
		"name": "fixed", "optimistic": 3.0, "realistic": 3.0, "pessimistic": 3.0,
	})

	result := callTool(t, s, "probability_of_finishing", map[string]interface{}{"target": 3.0})
	text := resultText(t, result)
	if !strings.Contains(text, `"display":"NaN"`) || !strings.Contains(text, `"probability":null`) {
		t.Errorf("Expected NaN display and null probability, got %s", text)
	}
}
