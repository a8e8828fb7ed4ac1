// Package context implements the context loader (spec.md C7): it
// assembles a bounded project snapshot from persisted state and renders
// it as a prompt section for the orchestrator.
//
// Grounded on original_source/backend/app/libs/ai_context_loader.py's
// snapshot-then-optimise shape, and the teacher's pattern (e.g.
// internal/project) of a small read-only Store interface sitting in
// front of internal/database so callers can be tested without Postgres.
package context

import (
	"fmt"
	"sort"
	"strings"

	"github.com/appgenhq/appgen/pkg/models"
)

// DefaultMaxChars bounds an assembled snapshot's rendered size, per
// spec.md §4.7 (~25,000 chars, ~6,000 tokens).
const DefaultMaxChars = 25000

// DefaultMaxFiles and DefaultMaxChatMessages are the caller-configurable
// limits' defaults.
const (
	DefaultMaxFiles        = 50
	DefaultMaxChatMessages = 20
)

// Store is the read surface the loader needs. internal/database.Database
// satisfies it.
type Store interface {
	GetProject(id string) (*models.Project, error)
	ListTasks(projectID string) ([]*models.Task, error)
	ListOpenErrors(projectID string) ([]*models.ErrorRecord, error)
	ListActiveFiles(projectID string) ([]*models.GeneratedFile, error)
	GetAgentContext(projectID string) (*models.AgentContext, error)
	RecentChatMessages(projectID string, n int) ([]*models.ChatMessage, error)
}

// Limits configures a single Build call; the zero value resolves to the
// package defaults via Limits.withDefaults.
type Limits struct {
	MaxFiles        int
	MaxChatMessages int
	MaxChars        int
}

func (l Limits) withDefaults() Limits {
	if l.MaxFiles <= 0 {
		l.MaxFiles = DefaultMaxFiles
	}
	if l.MaxChatMessages <= 0 {
		l.MaxChatMessages = DefaultMaxChatMessages
	}
	if l.MaxChars <= 0 {
		l.MaxChars = DefaultMaxChars
	}
	return l
}

// FileEntry is a snapshot file entry; Content is dropped by the
// optimisation pass while Path, Role and Language survive.
type FileEntry struct {
	Path     string
	Role     string
	Language models.Language
	Content  string
}

// Snapshot is the bounded project summary, per spec.md §4.7's section
// list.
type Snapshot struct {
	ProjectInfo        *models.Project
	ActiveTasks        []*models.Task
	RecentlyCompleted  []*models.Task
	OpenErrors         []*models.ErrorRecord
	Files              []FileEntry
	StoredContext      models.ContextData
	ChatHistory        []*models.ChatMessage
	FileContentDropped bool
	ChatTrimmed        bool
	CompletedDropped   bool
}

// Loader builds and size-bounds project snapshots.
type Loader struct {
	store Store
}

// NewLoader constructs a Loader over store.
func NewLoader(store Store) *Loader {
	return &Loader{store: store}
}

// Build assembles a snapshot for projectID and applies the optimisation
// pass until it fits within limits.MaxChars, per spec.md §4.7: drop file
// contents first, then trim chat history, then drop completed tasks.
func (l *Loader) Build(projectID string, limits Limits) (Snapshot, error) {
	limits = limits.withDefaults()

	project, err := l.store.GetProject(projectID)
	if err != nil {
		return Snapshot{}, fmt.Errorf("load project: %w", err)
	}

	tasks, err := l.store.ListTasks(projectID)
	if err != nil {
		return Snapshot{}, fmt.Errorf("load tasks: %w", err)
	}
	var active, completed []*models.Task
	for _, t := range tasks {
		if t.Status == models.TaskDone {
			completed = append(completed, t)
		} else {
			active = append(active, t)
		}
	}

	openErrors, err := l.store.ListOpenErrors(projectID)
	if err != nil {
		return Snapshot{}, fmt.Errorf("load errors: %w", err)
	}

	files, err := l.store.ListActiveFiles(projectID)
	if err != nil {
		return Snapshot{}, fmt.Errorf("load files: %w", err)
	}
	if len(files) > limits.MaxFiles {
		files = files[:limits.MaxFiles]
	}
	entries := make([]FileEntry, len(files))
	for i, f := range files {
		entries[i] = FileEntry{Path: f.Path, Role: folderRole(f.Path), Language: f.Language, Content: f.Content}
	}

	stored, err := l.store.GetAgentContext(projectID)
	if err != nil {
		return Snapshot{}, fmt.Errorf("load stored context: %w", err)
	}
	var storedData models.ContextData
	if stored != nil {
		storedData = stored.ContextData
	}

	chat, err := l.store.RecentChatMessages(projectID, limits.MaxChatMessages)
	if err != nil {
		return Snapshot{}, fmt.Errorf("load chat history: %w", err)
	}

	snap := Snapshot{
		ProjectInfo:       project,
		ActiveTasks:       active,
		RecentlyCompleted: completed,
		OpenErrors:        openErrors,
		Files:             entries,
		StoredContext:     storedData,
		ChatHistory:        chat,
	}

	return optimise(snap, limits.MaxChars), nil
}

// optimise repeatedly applies the three-step shrink order until the
// rendered snapshot fits, or there is nothing left to drop.
func optimise(snap Snapshot, maxChars int) Snapshot {
	if len(Format(snap)) <= maxChars {
		return snap
	}

	for i := range snap.Files {
		snap.Files[i].Content = ""
	}
	snap.FileContentDropped = true
	if len(Format(snap)) <= maxChars {
		return snap
	}

	for len(snap.ChatHistory) > 0 && len(Format(snap)) > maxChars {
		snap.ChatHistory = snap.ChatHistory[1:]
		snap.ChatTrimmed = true
	}
	if len(Format(snap)) <= maxChars {
		return snap
	}

	snap.RecentlyCompleted = nil
	snap.CompletedDropped = true
	return snap
}

// folderRole classifies a generated file path's top-level role, for the
// "grouped by folder role" §4.7 requirement.
func folderRole(path string) string {
	switch {
	case strings.HasPrefix(path, "backend/app/apis/"):
		return "api"
	case strings.HasPrefix(path, "backend/"):
		return "backend"
	case strings.HasPrefix(path, "frontend/src/pages/"):
		return "page"
	case strings.HasPrefix(path, "frontend/src/components/"):
		return "component"
	case strings.HasPrefix(path, "frontend/"):
		return "frontend"
	default:
		return "other"
	}
}

// groupByRole returns files grouped by folderRole, with roles sorted
// for deterministic rendering.
func groupByRole(files []FileEntry) ([]string, map[string][]FileEntry) {
	grouped := make(map[string][]FileEntry)
	for _, f := range files {
		grouped[f.Role] = append(grouped[f.Role], f)
	}
	roles := make([]string, 0, len(grouped))
	for r := range grouped {
		roles = append(roles, r)
	}
	sort.Strings(roles)
	return roles, grouped
}
