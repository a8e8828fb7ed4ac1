package orchestrator

import (
	"context"
	"sync"
	"testing"

	"github.com/appgenhq/appgen/internal/provider"
	"github.com/appgenhq/appgen/internal/tools"
	"github.com/appgenhq/appgen/pkg/models"
)

// recordingFileWrites wraps a Registry's create_file calls so tests can
// assert on exactly which paths were written without a real workspace.
func recordingFileWrites() (*tools.Registry, *[]string) {
	var mu sync.Mutex
	var paths []string

	registry := tools.NewRegistry()
	registry.Register("create_file", func(ctx context.Context, projectID string, args map[string]interface{}) map[string]interface{} {
		mu.Lock()
		defer mu.Unlock()
		path, _ := args["path"].(string)
		paths = append(paths, path)
		return map[string]interface{}{"success": true}
	})
	registry.Register("install_packages", func(ctx context.Context, projectID string, args map[string]interface{}) map[string]interface{} {
		return map[string]interface{}{"success": true}
	})
	return registry, &paths
}

func TestGenerateAPIFilesWritesOnePerEndpoint(t *testing.T) {
	registry, paths := recordingFileWrites()
	mock := &provider.MockProvider{Default: "```python\nrouter = APIRouter()\n```"}
	o := &Orchestrator{Registry: registry, Provider: mock, Model: "mock"}

	apis := []models.ApiSpec{
		{Method: "GET", Endpoint: "/api/todos", Description: "list todos"},
		{Method: "POST", Endpoint: "/api/todos", Description: "create a todo"},
	}

	out := newStream()
	go func() {
		defer close(out)
		o.generateAPIFiles(context.Background(), "proj-1", apis, out)
	}()
	for range out {
	}

	if len(*paths) != 2 {
		t.Fatalf("expected 2 create_file calls, got %d: %v", len(*paths), *paths)
	}
	if (*paths)[0] != "backend/app/apis/todos/__init__.py" {
		t.Errorf("unexpected api path: %s", (*paths)[0])
	}
}

func TestGeneratePageFilesWritesOnePerPage(t *testing.T) {
	registry, paths := recordingFileWrites()
	mock := &provider.MockProvider{Default: "```tsx\nexport default function Page() { return null }\n```"}
	o := &Orchestrator{Registry: registry, Provider: mock, Model: "mock"}

	pages := []models.PageSpec{
		{Name: "TodoList", Route: "/todos", Description: "list todos"},
	}

	out := newStream()
	go func() {
		defer close(out)
		o.generatePageFiles(context.Background(), "proj-1", pages, out)
	}()
	for range out {
	}

	if len(*paths) != 1 {
		t.Fatalf("expected 1 create_file call, got %d: %v", len(*paths), *paths)
	}
	if (*paths)[0] != "frontend/src/pages/TodoList.tsx" {
		t.Errorf("unexpected page path: %s", (*paths)[0])
	}
}

func TestGenerateAPIAndPageFilesTogetherMeetPlanMinimum(t *testing.T) {
	registry, paths := recordingFileWrites()
	mock := &provider.MockProvider{Default: "```\ncode\n```"}
	o := &Orchestrator{Registry: registry, Provider: mock, Model: "mock"}

	apis := []models.ApiSpec{
		{Method: "GET", Endpoint: "/api/todos", Description: "list todos"},
		{Method: "POST", Endpoint: "/api/todos", Description: "create a todo"},
	}
	pages := []models.PageSpec{
		{Name: "TodoList", Route: "/todos", Description: "list todos"},
	}

	out := newStream()
	go func() {
		defer close(out)
		generated := o.generateAPIFiles(context.Background(), "proj-1", apis, out)
		generated = append(generated, o.generatePageFiles(context.Background(), "proj-1", pages, out)...)
		o.harvestGeneratedPackages(context.Background(), "proj-1", generated, out)
	}()
	for range out {
	}

	if len(*paths) < 3 {
		t.Fatalf("expected at least 3 generated files for 2 apis + 1 page, got %d: %v", len(*paths), *paths)
	}
}

func TestStripCodeFencesRemovesFenceMarkers(t *testing.T) {
	cases := map[string]string{
		"```python\nprint(1)\n```": "print(1)",
		"```\nbare\n```":            "bare",
		"no fence here":             "no fence here",
	}
	for in, want := range cases {
		if got := stripCodeFences(in); got != want {
			t.Errorf("stripCodeFences(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestApiNameFromEndpoint(t *testing.T) {
	cases := map[string]string{
		"/api/todos":  "todos",
		"/api/todos/": "todos",
		"todos":       "todos",
		"/":           "unnamed_api",
		"":            "unnamed_api",
	}
	for in, want := range cases {
		if got := apiNameFromEndpoint(in); got != want {
			t.Errorf("apiNameFromEndpoint(%q) = %q, want %q", in, got, want)
		}
	}
}
