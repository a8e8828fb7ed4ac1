// Package models holds the core domain entities shared across the
// orchestration pipeline, the workspace manager, and the error feedback
// channel. Storage is delegated to internal/database; these are plain
// value types with no persistence logic of their own.
package models

import "time"

// ProjectStatus enumerates the lifecycle states of a Project.
type ProjectStatus string

const (
	ProjectActive   ProjectStatus = "active"
	ProjectArchived ProjectStatus = "archived"
	ProjectDeleted  ProjectStatus = "deleted"
)

// Project is the root aggregate; every other core entity is scoped by
// ProjectID.
type Project struct {
	ID          string        `json:"id"`
	Title       string        `json:"title"`
	Description string        `json:"description"`
	Status      ProjectStatus `json:"status"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

// Language enumerates the source languages a GeneratedFile may hold.
type Language string

const (
	LanguagePython     Language = "python"
	LanguageTypeScript Language = "typescript"
)

// GeneratedFile is a single generated source file. (ProjectID, Path)
// uniquely identifies one active file; soft deletion flips IsActive.
type GeneratedFile struct {
	ID        string    `json:"id"`
	ProjectID string    `json:"project_id"`
	Path      string    `json:"path"`
	Content   string    `json:"content"`
	Language  Language  `json:"language"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TaskStatus enumerates Task lifecycle states.
type TaskStatus string

const (
	TaskTodo       TaskStatus = "todo"
	TaskInProgress TaskStatus = "in_progress"
	TaskDone       TaskStatus = "done"
	TaskBlocked    TaskStatus = "blocked"
)

// Task is one unit of work, ordered per project by OrderIndex.
type Task struct {
	ID          string                 `json:"id"`
	ProjectID   string                 `json:"project_id"`
	Title       string                 `json:"title"`
	Description string                 `json:"description"`
	Status      TaskStatus             `json:"status"`
	Priority    string                 `json:"priority"`
	OrderIndex  int                    `json:"order_index"`
	Metadata    map[string]interface{} `json:"metadata,omitempty"`
	CreatedAt   time.Time              `json:"created_at"`
	UpdatedAt   time.Time              `json:"updated_at"`
}

// ChatRole enumerates ChatMessage authorship.
type ChatRole string

const (
	RoleUser      ChatRole = "user"
	RoleAssistant ChatRole = "assistant"
	RoleSystem    ChatRole = "system"
	RoleTool      ChatRole = "tool"
)

// ChatMessage is one append-only entry in a project's dialog.
type ChatMessage struct {
	ID        string                 `json:"id"`
	ProjectID string                 `json:"project_id"`
	Role      ChatRole               `json:"role"`
	Content   string                 `json:"content"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	CreatedAt time.Time              `json:"created_at"`
}

// ErrorKind enumerates the three error channels the system observes.
type ErrorKind string

const (
	ErrorBuild   ErrorKind = "build"
	ErrorRuntime ErrorKind = "runtime"
	ErrorAPI     ErrorKind = "api"
)

// ErrorStatus enumerates the lifecycle of an ErrorRecord.
type ErrorStatus string

const (
	ErrorOpen     ErrorStatus = "open"
	ErrorResolved ErrorStatus = "resolved"
)

// ErrorRecord is a normalized build/runtime/api failure. An auto-healing
// pass must either mutate source such that the record becomes resolved,
// or leave it open with AttemptCount incremented.
type ErrorRecord struct {
	ID              string                 `json:"id"`
	ProjectID       string                 `json:"project_id"`
	Kind            ErrorKind              `json:"kind"`
	Message         string                 `json:"message"`
	Stack           string                 `json:"stack,omitempty"`
	File            string                 `json:"file,omitempty"`
	Line            int                    `json:"line,omitempty"`
	CodeSnippet     string                 `json:"code_snippet,omitempty"`
	Context         map[string]interface{} `json:"context,omitempty"`
	Status          ErrorStatus            `json:"status"`
	AttemptCount    int                    `json:"attempt_count"`
	ResolutionNotes string                 `json:"resolution_notes,omitempty"`
	CreatedAt       time.Time              `json:"created_at"`
	UpdatedAt       time.Time              `json:"updated_at"`
}

// MaxRecentErrors bounds ContextData.RecentErrors (spec.md §3, §8).
const MaxRecentErrors = 10

// ContextData is the structured bag carried inside AgentContext.
type ContextData struct {
	CurrentPhase   string                 `json:"current_phase,omitempty"`
	CurrentTask    string                 `json:"current_task,omitempty"`
	FilesGenerated []string               `json:"files_generated,omitempty"`
	TasksCompleted []string               `json:"tasks_completed,omitempty"`
	RecentErrors   []string               `json:"recent_errors,omitempty"`
	AIMemory       map[string]interface{} `json:"ai_memory,omitempty"`
}

// Merge applies an update on top of d following spec.md §4.7: set-union
// for FilesGenerated/TasksCompleted, concatenate-then-truncate-to-10 for
// RecentErrors, shallow-merge for AIMemory, overwrite for scalar fields.
func (d ContextData) Merge(update ContextData) ContextData {
	out := d
	if update.CurrentPhase != "" {
		out.CurrentPhase = update.CurrentPhase
	}
	if update.CurrentTask != "" {
		out.CurrentTask = update.CurrentTask
	}
	out.FilesGenerated = unionStrings(d.FilesGenerated, update.FilesGenerated)
	out.TasksCompleted = unionStrings(d.TasksCompleted, update.TasksCompleted)

	combined := append(append([]string{}, d.RecentErrors...), update.RecentErrors...)
	if len(combined) > MaxRecentErrors {
		combined = combined[len(combined)-MaxRecentErrors:]
	}
	out.RecentErrors = combined

	if len(update.AIMemory) > 0 {
		merged := make(map[string]interface{}, len(d.AIMemory)+len(update.AIMemory))
		for k, v := range d.AIMemory {
			merged[k] = v
		}
		for k, v := range update.AIMemory {
			merged[k] = v
		}
		out.AIMemory = merged
	}
	return out
}

func unionStrings(a, b []string) []string {
	seen := make(map[string]bool, len(a)+len(b))
	out := make([]string, 0, len(a)+len(b))
	for _, s := range a {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	for _, s := range b {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}

// AgentContext is the single per-project persisted memory blob. Upserted,
// never duplicated; ProjectID is the unique key.
type AgentContext struct {
	ProjectID   string      `json:"project_id"`
	SessionID   string      `json:"session_id,omitempty"`
	ContextData ContextData `json:"context_data"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

// BackendStatus enumerates RunningBackend states.
type BackendStatus string

const (
	BackendRunning BackendStatus = "running"
	BackendStopped BackendStatus = "stopped"
	BackendError   BackendStatus = "error"
)

// RunningBackend is process-lifetime-only; lost on host restart. At most
// one entry exists per ProjectID.
type RunningBackend struct {
	ProjectID     string        `json:"project_id"`
	PID           int           `json:"pid"`
	Port          int           `json:"port"`
	Status        BackendStatus `json:"status"`
	StartedAt     time.Time     `json:"started_at"`
	WorkspacePath string        `json:"workspace_path"`
}

// Priority enumerates PlanTask priority levels.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// HTTPMethod enumerates the methods an ApiSpec may declare.
type HTTPMethod string

const (
	MethodGet    HTTPMethod = "GET"
	MethodPost   HTTPMethod = "POST"
	MethodPut    HTTPMethod = "PUT"
	MethodDelete HTTPMethod = "DELETE"
	MethodPatch  HTTPMethod = "PATCH"
)

// Column is one column of a SchemaTable.
type Column struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Constraints string `json:"constraints,omitempty"`
}

// SchemaTable is one table in a Plan's DatabaseSchema.
type SchemaTable struct {
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Columns     []Column `json:"columns"`
}

// ApiSpec is one backend endpoint in a Plan.
type ApiSpec struct {
	Method      HTTPMethod `json:"method"`
	Endpoint    string     `json:"endpoint"`
	Description string     `json:"description,omitempty"`
}

// PageSpec is one frontend page in a Plan.
type PageSpec struct {
	Name        string `json:"name"`
	Route       string `json:"route"`
	Description string `json:"description,omitempty"`
}

// PlanTask is one task line item in a Plan; it becomes a Task on commit.
type PlanTask struct {
	Title        string   `json:"title"`
	Description  string   `json:"description,omitempty"`
	Priority     Priority `json:"priority"`
	Integrations []string `json:"integrations,omitempty"`
	Labels       []string `json:"labels,omitempty"`
}

// Plan is the transient structured output of the planning model call
// (spec.md §6 canonical schema). It is never persisted directly; its
// effects are persisted as Tasks, a migration, and GeneratedFiles.
type Plan struct {
	Description    string        `json:"description"`
	Tasks          []PlanTask    `json:"tasks"`
	DatabaseSchema []SchemaTable `json:"database_schema"`
	APIs           []ApiSpec     `json:"apis"`
	Pages          []PageSpec    `json:"pages"`
	Integrations   []string      `json:"integrations,omitempty"`
}

// Intent is the output of the orchestrator's intent classifier.
type Intent string

const (
	IntentFeatureRequest Intent = "feature_request"
	IntentDebug          Intent = "debug"
	IntentQuestion       Intent = "question"
	IntentChat           Intent = "chat"
)

// NormalizeIntent collapses any label outside the enumerated set to
// IntentChat, per spec.md §4.9/§9 (IntentError never raises).
func NormalizeIntent(label string) Intent {
	switch Intent(label) {
	case IntentFeatureRequest, IntentDebug, IntentQuestion, IntentChat:
		return Intent(label)
	default:
		return IntentChat
	}
}
