package tools

import (
	"context"
	"encoding/json"
	"testing"
)

func TestDispatchUnknownToolReturnsFailure(t *testing.T) {
	r := NewRegistry()
	result := r.Dispatch(context.Background(), "p1", "does_not_exist", nil)
	if result["success"] != false || result["error"] != "unknown tool" {
		t.Errorf("unexpected result: %+v", result)
	}
}

func TestDispatchMalformedArgumentsReturnsFailure(t *testing.T) {
	r := NewRegistry()
	r.Register("echo", func(ctx context.Context, projectID string, args map[string]interface{}) map[string]interface{} {
		return map[string]interface{}{"success": true}
	})
	result := r.Dispatch(context.Background(), "p1", "echo", json.RawMessage(`not json`))
	if result["success"] != false {
		t.Errorf("expected failure for malformed arguments, got %+v", result)
	}
}

func TestDispatchRecoversFromPanic(t *testing.T) {
	r := NewRegistry()
	r.Register("boom", func(ctx context.Context, projectID string, args map[string]interface{}) map[string]interface{} {
		panic("kaboom")
	})
	result := r.Dispatch(context.Background(), "p1", "boom", nil)
	if result["success"] != false {
		t.Errorf("expected failure after panic, got %+v", result)
	}
	if _, ok := result["traceback"]; !ok {
		t.Error("expected a traceback field after panic recovery")
	}
}

func TestDispatchPassesParsedArguments(t *testing.T) {
	r := NewRegistry()
	var gotTitle string
	r.Register("create_task", func(ctx context.Context, projectID string, args map[string]interface{}) map[string]interface{} {
		gotTitle, _ = args["title"].(string)
		return map[string]interface{}{"success": true}
	})
	r.Dispatch(context.Background(), "p1", "create_task", json.RawMessage(`{"title":"Build UI"}`))
	if gotTitle != "Build UI" {
		t.Errorf("expected parsed title to reach handler, got %q", gotTitle)
	}
}

func TestSchemasCoverMinimumToolSet(t *testing.T) {
	required := []string{
		"create_task", "update_task", "list_tasks", "delete_task", "add_task_comment",
		"create_file", "update_file", "read_files", "search_code", "delete_file",
		"run_migration", "run_sql_query", "get_sql_schema",
		"run_python_script", "read_logs", "test_endpoint", "troubleshoot",
		"enable_integration", "install_packages", "visualize_data", "request_data",
		"trigger_build", "get_open_errors", "resolve_error",
	}
	have := make(map[string]bool, len(Schemas))
	for _, s := range Schemas {
		have[s.Name] = true
	}
	for _, name := range required {
		if !have[name] {
			t.Errorf("missing required tool schema: %s", name)
		}
	}
}
