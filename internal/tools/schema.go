// Package tools implements the tool registry & dispatcher (spec.md C8):
// static tool schemas advertised to the model, and a name-keyed registry
// routing parsed tool-call arguments to handlers.
//
// Grounded on original_source/backend/app/libs/ai_tool_registry.py's
// schema/handler split, and the teacher's internal/actions router
// pattern (string-keyed dispatch to a handler interface) generalized
// from bead actions to this domain's tool set.
package tools

// Property describes one parameter field's type, optional enum, and
// human-readable description, per spec.md §4.8's "typed/enumerated
// fields" requirement.
type Property struct {
	Type        string   `json:"type"`
	Description string   `json:"description,omitempty"`
	Enum        []string `json:"enum,omitempty"`
	Items       *Property `json:"items,omitempty"`
}

// Parameters is a tool's JSON Schema object parameter definition.
type Parameters struct {
	Type       string              `json:"type"`
	Properties map[string]Property `json:"properties"`
	Required   []string            `json:"required,omitempty"`
}

// Schema is one tool's structured declaration, advertised to the model
// for tool-calling.
type Schema struct {
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Parameters  Parameters `json:"parameters"`
}

func obj(props map[string]Property, required ...string) Parameters {
	return Parameters{Type: "object", Properties: props, Required: required}
}

func str(desc string) Property { return Property{Type: "string", Description: desc} }

func enum(desc string, values ...string) Property {
	return Property{Type: "string", Description: desc, Enum: values}
}

func integer(desc string) Property { return Property{Type: "integer", Description: desc} }

func strArray(desc string) Property {
	return Property{Type: "array", Description: desc, Items: &Property{Type: "string"}}
}

// Schemas is the static tool set advertised to the model. It is a
// superset of spec.md §4.8's minimum tool set: get_file_tree and
// get_project_stats are carried from the Python reference registry
// (see SPEC_FULL.md §4) as additional, non-required tools.
var Schemas = []Schema{
	{
		Name:        "create_task",
		Description: "Create a new task tracked against the project's task board.",
		Parameters: obj(map[string]Property{
			"title":       str("Short task title"),
			"description": str("Longer task description"),
			"priority":    enum("Task priority", "low", "medium", "high"),
		}, "title"),
	},
	{
		Name:        "update_task",
		Description: "Update an existing task's mutable fields.",
		Parameters: obj(map[string]Property{
			"task_id":     str("ID of the task to update"),
			"title":       str("New title"),
			"description": str("New description"),
			"status":      enum("New status", "todo", "in_progress", "done", "blocked"),
			"priority":    enum("New priority", "low", "medium", "high"),
		}, "task_id"),
	},
	{
		Name:        "list_tasks",
		Description: "List every task for the project, ordered by their display order.",
		Parameters:  obj(map[string]Property{}),
	},
	{
		Name:        "delete_task",
		Description: "Delete a task permanently.",
		Parameters:  obj(map[string]Property{"task_id": str("ID of the task to delete")}, "task_id"),
	},
	{
		Name:        "add_task_comment",
		Description: "Append a comment to a task's history.",
		Parameters: obj(map[string]Property{
			"task_id": str("ID of the task to comment on"),
			"comment": str("Comment text"),
		}, "task_id", "comment"),
	},
	{
		Name:        "create_file",
		Description: "Create a new generated source file. Runs validation and package detection automatically.",
		Parameters: obj(map[string]Property{
			"path":    str("Workspace-relative file path, e.g. backend/app/apis/todos/__init__ or frontend/src/pages/Home.tsx"),
			"content": str("Full file content"),
		}, "path", "content"),
	},
	{
		Name:        "update_file",
		Description: "Overwrite an existing active file's content. Runs validation and package detection automatically.",
		Parameters: obj(map[string]Property{
			"path":    str("Workspace-relative file path"),
			"content": str("New full file content"),
		}, "path", "content"),
	},
	{
		Name:        "read_files",
		Description: "Read one file by path, or every active file in the project if path is omitted.",
		Parameters:  obj(map[string]Property{"path": str("Optional single file path")}),
	},
	{
		Name:        "search_code",
		Description: "Search every active file's content for a literal substring; the query is not treated as a regular expression.",
		Parameters:  obj(map[string]Property{"query": str("Search text")}, "query"),
	},
	{
		Name:        "delete_file",
		Description: "Soft-delete an active file by path.",
		Parameters:  obj(map[string]Property{"path": str("Workspace-relative file path")}, "path"),
	},
	{
		Name:        "run_migration",
		Description: "Execute a SQL DDL statement against the generated application's schema (idempotent CREATE TABLE IF NOT EXISTS expected).",
		Parameters:  obj(map[string]Property{"sql": str("DDL statement")}, "sql"),
	},
	{
		Name:        "run_sql_query",
		Description: "Execute a read-only SQL query and return the result rows.",
		Parameters:  obj(map[string]Property{"sql": str("SELECT statement")}, "sql"),
	},
	{
		Name:        "get_sql_schema",
		Description: "Return the current table/column structure of the generated application's schema.",
		Parameters:  obj(map[string]Property{}),
	},
	{
		Name:        "run_python_script",
		Description: "Execute a short Python script inside the project's backend virtual environment and return its output.",
		Parameters:  obj(map[string]Property{"script": str("Python source to execute")}, "script"),
	},
	{
		Name:        "read_logs",
		Description: "Return the tail of the running backend process's combined stdout/stderr.",
		Parameters:  obj(map[string]Property{"lines": integer("Number of trailing lines to return, default 100")}),
	},
	{
		Name:        "test_endpoint",
		Description: "Issue an HTTP request against the project's running backend and return the response.",
		Parameters: obj(map[string]Property{
			"method": enum("HTTP method", "GET", "POST", "PUT", "DELETE", "PATCH"),
			"path":   str("Request path, e.g. /api/todos"),
			"body":   str("Optional request body"),
		}, "path"),
	},
	{
		Name:        "troubleshoot",
		Description: "Summarize the project's open errors and recent backend logs for diagnosis.",
		Parameters:  obj(map[string]Property{}),
	},
	{
		Name:        "enable_integration",
		Description: "Record that a named third-party integration (e.g. stripe, sendgrid) has been enabled for the project.",
		Parameters:  obj(map[string]Property{"name": str("Integration name")}, "name"),
	},
	{
		Name:        "install_packages",
		Description: "Install a batch of packages into the project's python or node environment.",
		Parameters: obj(map[string]Property{
			"ecosystem": enum("Target ecosystem", "python", "node"),
			"packages":  strArray("Package names to install"),
		}, "ecosystem", "packages"),
	},
	{
		Name:        "visualize_data",
		Description: "Produce a simple tabular summary of query results for display to the user.",
		Parameters:  obj(map[string]Property{"sql": str("SELECT statement to summarize")}, "sql"),
	},
	{
		Name:        "request_data",
		Description: "Ask the user to supply additional information or a missing value needed to continue.",
		Parameters:  obj(map[string]Property{"prompt": str("What to ask the user for")}, "prompt"),
	},
	{
		Name:        "trigger_build",
		Description: "Run the preview build for the project's current file set.",
		Parameters:  obj(map[string]Property{}),
	},
	{
		Name:        "get_open_errors",
		Description: "List every unresolved error record for the project.",
		Parameters:  obj(map[string]Property{}),
	},
	{
		Name:        "resolve_error",
		Description: "Mark an error record resolved with an explanatory note.",
		Parameters: obj(map[string]Property{
			"error_id": str("ID of the error record"),
			"notes":    str("Resolution notes"),
		}, "error_id"),
	},
	{
		Name:        "get_file_tree",
		Description: "Return every active file's path grouped by folder role.",
		Parameters:  obj(map[string]Property{}),
	},
	{
		Name:        "get_project_stats",
		Description: "Return counts of files, tasks, and open errors for the project.",
		Parameters:  obj(map[string]Property{}),
	},
}
