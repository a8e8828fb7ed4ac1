package orchestrator

import (
	"context"
	"testing"

	"strings"

	"github.com/appgenhq/appgen/internal/provider"
	"github.com/appgenhq/appgen/internal/tools"
	"github.com/appgenhq/appgen/pkg/models"
)

func TestRunToolLoopStopsAtMaxIterations(t *testing.T) {
	registry := tools.NewRegistry()
	registry.Register("noop", func(ctx context.Context, projectID string, args map[string]interface{}) map[string]interface{} {
		return map[string]interface{}{"success": true}
	})

	call := provider.ToolCall{ID: "call-1", Type: "function", Function: provider.ToolCallFunction{Name: "noop", Arguments: "{}"}}
	responses := make(map[int][]provider.ToolCall, maxToolIterations)
	for i := 0; i < maxToolIterations; i++ {
		responses[i] = []provider.ToolCall{call}
	}
	mock := &provider.MockProvider{ToolCallResponses: responses, Default: "should never surface as plain content"}

	o := &Orchestrator{Registry: registry, Provider: mock, Model: "mock"}

	out := newStream()
	go func() {
		defer close(out)
		dialog := NewDialog("system prompt")
		dialog.appendUser("do the thing")
		o.runToolLoop(context.Background(), "proj-1", dialog, out)
	}()

	var sawWarning, sawPlainText bool
	for chunk := range out {
		switch chunk.Kind {
		case ChunkWarning:
			sawWarning = true
		case ChunkText:
			sawPlainText = true
		}
	}
	if !sawWarning {
		t.Error("expected a warning chunk once the iteration cap is hit")
	}
	if sawPlainText {
		t.Error("loop should never reach the final-answer branch when every call requests a tool")
	}
	if mock.CallCount() != maxToolIterations {
		t.Errorf("expected exactly %d model calls, got %d", maxToolIterations, mock.CallCount())
	}
}

func TestToolDefinitionsCoverRegisteredSchemas(t *testing.T) {
	defs := toolDefinitions()
	if len(defs) != len(tools.Schemas) {
		t.Fatalf("expected %d tool definitions, got %d", len(tools.Schemas), len(defs))
	}
	for _, d := range defs {
		if d.Type != "function" {
			t.Errorf("tool %q has type %q, want function", d.Function.Name, d.Type)
		}
	}
}

func TestRenderMigrationProducesCreateTableStatements(t *testing.T) {
	tables := []models.SchemaTable{
		{
			Name: "todos",
			Columns: []models.Column{
				{Name: "id", Type: "SERIAL", Constraints: "PRIMARY KEY"},
				{Name: "title", Type: "TEXT", Constraints: "NOT NULL"},
			},
		},
	}
	sql := renderMigration(tables)
	if !strings.Contains(sql, "CREATE TABLE IF NOT EXISTS todos") {
		t.Errorf("migration missing table statement: %s", sql)
	}
	if !strings.Contains(sql, "id SERIAL PRIMARY KEY") {
		t.Errorf("migration missing id column: %s", sql)
	}
	if !strings.Contains(sql, "title TEXT NOT NULL") {
		t.Errorf("migration missing title column: %s", sql)
	}
}
