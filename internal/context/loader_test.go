package context

import (
	"strings"
	"testing"

	"github.com/appgenhq/appgen/pkg/models"
)

type fakeStore struct {
	project    *models.Project
	tasks      []*models.Task
	errors     []*models.ErrorRecord
	files      []*models.GeneratedFile
	agent      *models.AgentContext
	chat       []*models.ChatMessage
}

func (f *fakeStore) GetProject(id string) (*models.Project, error) { return f.project, nil }
func (f *fakeStore) ListTasks(projectID string) ([]*models.Task, error) { return f.tasks, nil }
func (f *fakeStore) ListOpenErrors(projectID string) ([]*models.ErrorRecord, error) {
	return f.errors, nil
}
func (f *fakeStore) ListActiveFiles(projectID string) ([]*models.GeneratedFile, error) {
	return f.files, nil
}
func (f *fakeStore) GetAgentContext(projectID string) (*models.AgentContext, error) {
	return f.agent, nil
}
func (f *fakeStore) RecentChatMessages(projectID string, n int) ([]*models.ChatMessage, error) {
	if n < len(f.chat) {
		return f.chat[len(f.chat)-n:], nil
	}
	return f.chat, nil
}

func baseStore() *fakeStore {
	return &fakeStore{
		project: &models.Project{ID: "p1", Title: "Todo App"},
		tasks: []*models.Task{
			{ID: "t1", Title: "Build UI", Status: models.TaskInProgress, Priority: "high"},
			{ID: "t2", Title: "Wire API", Status: models.TaskDone, Priority: "medium"},
		},
		files: []*models.GeneratedFile{
			{Path: "frontend/src/pages/Home.tsx", Content: "export default function Home() {}", Language: models.LanguageTypeScript},
			{Path: "backend/app/apis/todos/__init__.py", Content: "def list_todos(): pass", Language: models.LanguagePython},
		},
		chat: []*models.ChatMessage{
			{Role: models.RoleUser, Content: "add a todo list"},
			{Role: models.RoleAssistant, Content: "done"},
		},
	}
}

func TestBuildAssemblesAllSections(t *testing.T) {
	l := NewLoader(baseStore())
	snap, err := l.Build("p1", Limits{})
	if err != nil {
		t.Fatal(err)
	}
	if snap.ProjectInfo.Title != "Todo App" {
		t.Errorf("project info not loaded")
	}
	if len(snap.ActiveTasks) != 1 || len(snap.RecentlyCompleted) != 1 {
		t.Errorf("tasks not split by status: active=%d completed=%d", len(snap.ActiveTasks), len(snap.RecentlyCompleted))
	}
	if len(snap.Files) != 2 {
		t.Errorf("expected 2 files, got %d", len(snap.Files))
	}
	if len(snap.ChatHistory) != 2 {
		t.Errorf("expected 2 chat messages, got %d", len(snap.ChatHistory))
	}
}

func TestFormatIncludesMarker(t *testing.T) {
	l := NewLoader(baseStore())
	snap, err := l.Build("p1", Limits{})
	if err != nil {
		t.Fatal(err)
	}
	rendered := Format(snap)
	if !strings.Contains(rendered, "CURRENT PROJECT STATE") {
		t.Error("expected fixed marker in rendered snapshot")
	}
	if !strings.Contains(rendered, "Build UI") {
		t.Error("expected active task title in rendered snapshot")
	}
}

func TestOptimisationDropsFileContentsFirst(t *testing.T) {
	store := baseStore()
	// Inflate one file's content well past the char bound.
	store.files[0].Content = strings.Repeat("x", 40000)

	l := NewLoader(store)
	snap, err := l.Build("p1", Limits{MaxChars: 30000})
	if err != nil {
		t.Fatal(err)
	}
	if !snap.FileContentDropped {
		t.Error("expected file content to be dropped")
	}
	for _, f := range snap.Files {
		if f.Content != "" {
			t.Error("expected all file contents cleared after optimisation")
		}
	}
	if len(Format(snap)) > 30000 {
		t.Errorf("snapshot still exceeds bound after dropping file contents: %d chars", len(Format(snap)))
	}
}

func TestOptimisationTrimsChatThenCompletedTasks(t *testing.T) {
	store := baseStore()
	for i := 0; i < 200; i++ {
		store.chat = append(store.chat, &models.ChatMessage{
			Role:    models.RoleUser,
			Content: strings.Repeat("message text filler ", 20),
		})
	}
	store.files[0].Content = strings.Repeat("y", 5000)

	l := NewLoader(store)
	snap, err := l.Build("p1", Limits{MaxChars: 4000, MaxChatMessages: 200})
	if err != nil {
		t.Fatal(err)
	}
	if !snap.FileContentDropped {
		t.Error("expected file contents dropped at this bound")
	}
	if !snap.ChatTrimmed && !snap.CompletedDropped {
		t.Error("expected chat trimming or completed-task dropping to engage")
	}
}

func TestLimitsWithDefaults(t *testing.T) {
	l := Limits{}.withDefaults()
	if l.MaxFiles != DefaultMaxFiles || l.MaxChatMessages != DefaultMaxChatMessages || l.MaxChars != DefaultMaxChars {
		t.Errorf("unexpected defaults: %+v", l)
	}
}

func TestFolderRoleClassification(t *testing.T) {
	cases := map[string]string{
		"backend/app/apis/todos/__init__.py": "api",
		"backend/main":                       "backend",
		"frontend/src/pages/Home.tsx":        "page",
		"frontend/src/components/Widget.tsx": "component",
		"frontend/src/lib/api.ts":            "frontend",
		"README.md":                          "other",
	}
	for path, want := range cases {
		if got := folderRole(path); got != want {
			t.Errorf("folderRole(%q) = %q, want %q", path, got, want)
		}
	}
}
