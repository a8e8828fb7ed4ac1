package tools

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/appgenhq/appgen/internal/backendproc"
	"github.com/appgenhq/appgen/internal/database"
	"github.com/appgenhq/appgen/internal/errorstore"
	"github.com/appgenhq/appgen/internal/executor"
	"github.com/appgenhq/appgen/internal/packages"
	"github.com/appgenhq/appgen/internal/preview"
	"github.com/appgenhq/appgen/internal/workspace"
	"github.com/appgenhq/appgen/pkg/models"
)

// Deps bundles every component a tool handler may need. A nil field is
// valid as long as no registered tool reaches for it.
type Deps struct {
	DB       *database.Database
	Files    *workspace.Store
	Errors   *errorstore.Store
	Builder  *preview.Builder
	Backends *backendproc.Manager
	Shell    *executor.Shell
	BaseDir  string
}

// RegisterAll wires every tool in Schemas to a handler bound to deps.
func RegisterAll(r *Registry, deps *Deps) {
	r.Register("create_task", deps.createTask)
	r.Register("update_task", deps.updateTask)
	r.Register("list_tasks", deps.listTasks)
	r.Register("delete_task", deps.deleteTask)
	r.Register("add_task_comment", deps.addTaskComment)
	r.Register("create_file", deps.createFile)
	r.Register("update_file", deps.updateFile)
	r.Register("read_files", deps.readFiles)
	r.Register("search_code", deps.searchCode)
	r.Register("delete_file", deps.deleteFile)
	r.Register("run_migration", deps.runMigration)
	r.Register("run_sql_query", deps.runSQLQuery)
	r.Register("get_sql_schema", deps.getSQLSchema)
	r.Register("run_python_script", deps.runPythonScript)
	r.Register("read_logs", deps.readLogs)
	r.Register("test_endpoint", deps.testEndpoint)
	r.Register("troubleshoot", deps.troubleshoot)
	r.Register("enable_integration", deps.enableIntegration)
	r.Register("install_packages", deps.installPackages)
	r.Register("visualize_data", deps.visualizeData)
	r.Register("request_data", deps.requestData)
	r.Register("trigger_build", deps.triggerBuild)
	r.Register("get_open_errors", deps.getOpenErrors)
	r.Register("resolve_error", deps.resolveError)
	r.Register("get_file_tree", deps.getFileTree)
	r.Register("get_project_stats", deps.getProjectStats)
}

func ok(fields map[string]interface{}) map[string]interface{} {
	fields["success"] = true
	return fields
}

func fail(format string, a ...interface{}) map[string]interface{} {
	return map[string]interface{}{"success": false, "error": fmt.Sprintf(format, a...)}
}

func getString(args map[string]interface{}, key string) string {
	if v, ok := args[key].(string); ok {
		return v
	}
	return ""
}

func getInt(args map[string]interface{}, key string, fallback int) int {
	switch v := args[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	default:
		return fallback
	}
}

func getStringSlice(args map[string]interface{}, key string) []string {
	raw, ok := args[key].([]interface{})
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// --- tasks ---

func (d *Deps) createTask(ctx context.Context, projectID string, args map[string]interface{}) map[string]interface{} {
	t := &models.Task{
		ID:          fmt.Sprintf("task-%s", uuid.New().String()[:8]),
		ProjectID:   projectID,
		Title:       getString(args, "title"),
		Description: getString(args, "description"),
		Status:      models.TaskTodo,
		Priority:    orDefault(getString(args, "priority"), "medium"),
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}
	if t.Title == "" {
		return fail("title is required")
	}
	if err := d.DB.CreateTask(t); err != nil {
		return fail("create task: %v", err)
	}
	return ok(map[string]interface{}{"task_id": t.ID})
}

func (d *Deps) updateTask(ctx context.Context, projectID string, args map[string]interface{}) map[string]interface{} {
	id := getString(args, "task_id")
	if id == "" {
		return fail("task_id is required")
	}
	t, err := d.DB.GetTask(id)
	if err != nil {
		return fail("update task: %v", err)
	}
	if t == nil {
		return fail("task not found: %s", id)
	}
	if v := getString(args, "title"); v != "" {
		t.Title = v
	}
	if v := getString(args, "description"); v != "" {
		t.Description = v
	}
	if v := getString(args, "status"); v != "" {
		t.Status = models.TaskStatus(v)
	}
	if v := getString(args, "priority"); v != "" {
		t.Priority = v
	}
	t.UpdatedAt = time.Now()
	if err := d.DB.UpdateTask(t); err != nil {
		return fail("update task: %v", err)
	}
	return ok(map[string]interface{}{"task_id": t.ID})
}

func (d *Deps) listTasks(ctx context.Context, projectID string, args map[string]interface{}) map[string]interface{} {
	tasks, err := d.DB.ListTasks(projectID)
	if err != nil {
		return fail("list tasks: %v", err)
	}
	return ok(map[string]interface{}{"tasks": tasks})
}

func (d *Deps) deleteTask(ctx context.Context, projectID string, args map[string]interface{}) map[string]interface{} {
	id := getString(args, "task_id")
	if id == "" {
		return fail("task_id is required")
	}
	if err := d.DB.DeleteTask(id); err != nil {
		return fail("delete task: %v", err)
	}
	return ok(map[string]interface{}{})
}

func (d *Deps) addTaskComment(ctx context.Context, projectID string, args map[string]interface{}) map[string]interface{} {
	id := getString(args, "task_id")
	comment := getString(args, "comment")
	if id == "" || comment == "" {
		return fail("task_id and comment are required")
	}
	t, err := d.DB.GetTask(id)
	if err != nil {
		return fail("add task comment: %v", err)
	}
	if t == nil {
		return fail("task not found: %s", id)
	}
	if t.Metadata == nil {
		t.Metadata = map[string]interface{}{}
	}
	comments, _ := t.Metadata["comments"].([]interface{})
	comments = append(comments, map[string]interface{}{"text": comment, "created_at": time.Now().Format(time.RFC3339)})
	t.Metadata["comments"] = comments
	t.UpdatedAt = time.Now()
	if err := d.DB.UpdateTask(t); err != nil {
		return fail("add task comment: %v", err)
	}
	return ok(map[string]interface{}{"task_id": t.ID})
}

// --- files ---

func (d *Deps) createFile(ctx context.Context, projectID string, args map[string]interface{}) map[string]interface{} {
	path := getString(args, "path")
	content := getString(args, "content")
	if path == "" {
		return fail("path is required")
	}
	f, result, err := d.Files.Create(ctx, projectID, path, content)
	if err != nil {
		return fail("create file: %v", err)
	}
	resp := map[string]interface{}{"path": f.Path, "valid": result.Validation.Valid}
	if len(result.Validation.Errors) > 0 {
		resp["validation_errors"] = result.Validation.Errors
	}
	if result.Warning != "" {
		resp["warning"] = result.Warning
	}
	return ok(resp)
}

func (d *Deps) updateFile(ctx context.Context, projectID string, args map[string]interface{}) map[string]interface{} {
	path := getString(args, "path")
	content := getString(args, "content")
	if path == "" {
		return fail("path is required")
	}
	result, err := d.Files.Update(ctx, projectID, path, content)
	if err != nil {
		return fail("update file: %v", err)
	}
	resp := map[string]interface{}{"path": path, "valid": result.Validation.Valid}
	if len(result.Validation.Errors) > 0 {
		resp["validation_errors"] = result.Validation.Errors
	}
	if result.Warning != "" {
		resp["warning"] = result.Warning
	}
	return ok(resp)
}

func (d *Deps) readFiles(ctx context.Context, projectID string, args map[string]interface{}) map[string]interface{} {
	files, err := d.Files.ReadAll(projectID)
	if err != nil {
		return fail("read files: %v", err)
	}
	if path := getString(args, "path"); path != "" {
		for _, f := range files {
			if f.Path == path {
				return ok(map[string]interface{}{"files": []*models.GeneratedFile{f}})
			}
		}
		return fail("file not found: %s", path)
	}
	return ok(map[string]interface{}{"files": files})
}

func (d *Deps) searchCode(ctx context.Context, projectID string, args map[string]interface{}) map[string]interface{} {
	query := getString(args, "query")
	if query == "" {
		return fail("query is required")
	}
	files, err := d.Files.ReadAll(projectID)
	if err != nil {
		return fail("search code: %v", err)
	}
	type match struct {
		Path string `json:"path"`
		Line int    `json:"line"`
		Text string `json:"text"`
	}
	var matches []match
	for _, f := range files {
		for i, line := range strings.Split(f.Content, "\n") {
			if strings.Contains(line, query) {
				matches = append(matches, match{Path: f.Path, Line: i + 1, Text: strings.TrimSpace(line)})
			}
		}
	}
	return ok(map[string]interface{}{"matches": matches})
}

func (d *Deps) deleteFile(ctx context.Context, projectID string, args map[string]interface{}) map[string]interface{} {
	path := getString(args, "path")
	if path == "" {
		return fail("path is required")
	}
	if err := d.Files.Delete(projectID, path); err != nil {
		return fail("delete file: %v", err)
	}
	return ok(map[string]interface{}{"path": path})
}

// --- SQL ---

func (d *Deps) runMigration(ctx context.Context, projectID string, args map[string]interface{}) map[string]interface{} {
	stmt := getString(args, "sql")
	if stmt == "" {
		return fail("sql is required")
	}
	if _, err := d.DB.DB().ExecContext(ctx, stmt); err != nil {
		return fail("run migration: %v", err)
	}
	return ok(map[string]interface{}{})
}

func (d *Deps) runSQLQuery(ctx context.Context, projectID string, args map[string]interface{}) map[string]interface{} {
	stmt := getString(args, "sql")
	if stmt == "" {
		return fail("sql is required")
	}
	rows, err := d.DB.DB().QueryContext(ctx, stmt)
	if err != nil {
		return fail("run sql query: %v", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return fail("run sql query: %v", err)
	}

	var out []map[string]interface{}
	for rows.Next() {
		vals := make([]interface{}, len(cols))
		ptrs := make([]interface{}, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return fail("run sql query: %v", err)
		}
		row := make(map[string]interface{}, len(cols))
		for i, c := range cols {
			row[c] = normalizeSQLValue(vals[i])
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return fail("run sql query: %v", err)
	}
	return ok(map[string]interface{}{"rows": out})
}

func normalizeSQLValue(v interface{}) interface{} {
	if b, ok := v.([]byte); ok {
		return string(b)
	}
	return v
}

func (d *Deps) getSQLSchema(ctx context.Context, projectID string, args map[string]interface{}) map[string]interface{} {
	rows, err := d.DB.DB().QueryContext(ctx,
		`SELECT table_name, column_name, data_type FROM information_schema.columns
		 WHERE table_schema = 'public' ORDER BY table_name, ordinal_position`)
	if err != nil {
		return fail("get sql schema: %v", err)
	}
	defer rows.Close()

	tables := make(map[string][]map[string]string)
	var order []string
	for rows.Next() {
		var table, column, dtype string
		if err := rows.Scan(&table, &column, &dtype); err != nil {
			return fail("get sql schema: %v", err)
		}
		if _, seen := tables[table]; !seen {
			order = append(order, table)
		}
		tables[table] = append(tables[table], map[string]string{"column": column, "type": dtype})
	}
	schema := make([]map[string]interface{}, 0, len(order))
	for _, t := range order {
		schema = append(schema, map[string]interface{}{"table": t, "columns": tables[t]})
	}
	return ok(map[string]interface{}{"tables": schema})
}

// --- scripts & endpoints ---

func (d *Deps) runPythonScript(ctx context.Context, projectID string, args map[string]interface{}) map[string]interface{} {
	script := getString(args, "script")
	if script == "" {
		return fail("script is required")
	}
	l := workspace.LayoutFor(d.BaseDir, projectID)
	scratch := filepath.Join(l.BackendDir, fmt.Sprintf(".scratch-%s.py", uuid.New().String()[:8]))
	if err := os.WriteFile(scratch, []byte(script), 0o644); err != nil {
		return fail("run python script: %v", err)
	}
	defer os.Remove(scratch)

	python := filepath.Join(l.BackendVenv, "bin", "python")
	cmd := exec.CommandContext(ctx, python, scratch)
	cmd.Dir = l.BackendDir
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	runErr := cmd.Run()
	if runErr != nil {
		return map[string]interface{}{
			"success":   false,
			"error":     runErr.Error(),
			"stdout":    stdout.String(),
			"stderr":    stderr.String(),
			"traceback": stderr.String(),
		}
	}
	return ok(map[string]interface{}{"stdout": stdout.String(), "stderr": stderr.String()})
}

func (d *Deps) readLogs(ctx context.Context, projectID string, args map[string]interface{}) map[string]interface{} {
	n := getInt(args, "lines", 100)
	logs, found := d.Backends.Logs(projectID, n)
	if !found {
		return fail("no running backend for project")
	}
	return ok(map[string]interface{}{"logs": logs})
}

func (d *Deps) testEndpoint(ctx context.Context, projectID string, args map[string]interface{}) map[string]interface{} {
	path := getString(args, "path")
	if path == "" {
		return fail("path is required")
	}
	method := orDefault(getString(args, "method"), "GET")
	status := d.Backends.Status(projectID)
	if !status.Exists {
		return fail("no running backend for project")
	}

	var body io.Reader
	if b := getString(args, "body"); b != "" {
		body = strings.NewReader(b)
	}
	url := fmt.Sprintf("http://127.0.0.1:%d%s", status.Backend.Port, path)
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return fail("test endpoint: %v", err)
	}
	client := http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return fail("test endpoint: %v", err)
	}
	defer resp.Body.Close()
	respBody, _ := io.ReadAll(resp.Body)
	return ok(map[string]interface{}{"status": resp.StatusCode, "body": string(respBody)})
}

func (d *Deps) troubleshoot(ctx context.Context, projectID string, args map[string]interface{}) map[string]interface{} {
	open, err := d.Errors.ListOpen(projectID)
	if err != nil {
		return fail("troubleshoot: %v", err)
	}
	logs, _ := d.Backends.Logs(projectID, 50)
	return ok(map[string]interface{}{"open_errors": open, "recent_logs": logs})
}

// --- integrations & packages ---

func (d *Deps) enableIntegration(ctx context.Context, projectID string, args map[string]interface{}) map[string]interface{} {
	name := getString(args, "name")
	if name == "" {
		return fail("name is required")
	}
	ac, err := d.DB.GetAgentContext(projectID)
	if err != nil {
		return fail("enable integration: %v", err)
	}
	data := models.ContextData{}
	if ac != nil {
		data = ac.ContextData
	}
	data = data.Merge(models.ContextData{AIMemory: map[string]interface{}{"integration:" + name: "enabled"}})
	if err := d.DB.UpsertAgentContext(&models.AgentContext{ProjectID: projectID, ContextData: data, UpdatedAt: time.Now()}); err != nil {
		return fail("enable integration: %v", err)
	}
	return ok(map[string]interface{}{"integration": name})
}

// installPackages merges the requested packages into the project's
// manifest and installs them immediately, reusing the same
// merge-then-install chain internal/workspace.Store runs after a
// create_file/update_file call (internal/packages.MergePython/MergeNode
// + InstallPython/InstallNode).
func (d *Deps) installPackages(ctx context.Context, projectID string, args map[string]interface{}) map[string]interface{} {
	ecosystem := getString(args, "ecosystem")
	pkgs := getStringSlice(args, "packages")
	if len(pkgs) == 0 {
		return fail("packages is required")
	}

	l := workspace.LayoutFor(d.BaseDir, projectID)
	switch ecosystem {
	case "python":
		existing, _ := os.ReadFile(l.BackendManifest)
		merged, err := packages.MergePython(existing, pkgs)
		if err != nil {
			return fail("merge python manifest: %v", err)
		}
		if err := os.WriteFile(l.BackendManifest, merged, 0o644); err != nil {
			return fail("write python manifest: %v", err)
		}
		result := packages.InstallPython(ctx, d.Shell, l.BackendDir, pkgs)
		if result.Warning != "" {
			return ok(map[string]interface{}{"ecosystem": ecosystem, "packages": pkgs, "warning": result.Warning})
		}
	case "node":
		existing, _ := os.ReadFile(l.FrontendManifest)
		merged, err := packages.MergeNode(existing, pkgs)
		if err != nil {
			return fail("merge node manifest: %v", err)
		}
		if err := os.WriteFile(l.FrontendManifest, merged, 0o644); err != nil {
			return fail("write node manifest: %v", err)
		}
		result := packages.InstallNode(ctx, d.Shell, l.FrontendDir, pkgs)
		if result.Warning != "" {
			return ok(map[string]interface{}{"ecosystem": ecosystem, "packages": pkgs, "warning": result.Warning})
		}
	default:
		return fail("ecosystem must be python or node")
	}
	return ok(map[string]interface{}{"ecosystem": ecosystem, "packages": pkgs})
}

func (d *Deps) visualizeData(ctx context.Context, projectID string, args map[string]interface{}) map[string]interface{} {
	result := d.runSQLQuery(ctx, projectID, args)
	if result["success"] != true {
		return result
	}
	rows, _ := result["rows"].([]map[string]interface{})
	return ok(map[string]interface{}{"row_count": len(rows), "rows": rows})
}

func (d *Deps) requestData(ctx context.Context, projectID string, args map[string]interface{}) map[string]interface{} {
	prompt := getString(args, "prompt")
	if prompt == "" {
		return fail("prompt is required")
	}
	return ok(map[string]interface{}{"prompt": prompt})
}

// --- build & errors ---

func (d *Deps) triggerBuild(ctx context.Context, projectID string, args map[string]interface{}) map[string]interface{} {
	files, err := d.Files.ReadAll(projectID)
	if err != nil {
		return fail("trigger build: %v", err)
	}
	result, err := d.Builder.Build(ctx, projectID, files)
	if err != nil {
		return fail("trigger build: %v", err)
	}
	resp := map[string]interface{}{"build_success": result.Success, "logs": result.Logs}
	if result.DistDir != "" {
		resp["dist_dir"] = result.DistDir
	}
	return ok(resp)
}

func (d *Deps) getOpenErrors(ctx context.Context, projectID string, args map[string]interface{}) map[string]interface{} {
	open, err := d.Errors.ListOpen(projectID)
	if err != nil {
		return fail("get open errors: %v", err)
	}
	return ok(map[string]interface{}{"errors": open})
}

func (d *Deps) resolveError(ctx context.Context, projectID string, args map[string]interface{}) map[string]interface{} {
	id := getString(args, "error_id")
	if id == "" {
		return fail("error_id is required")
	}
	if err := d.Errors.Resolve(id, getString(args, "notes")); err != nil {
		return fail("resolve error: %v", err)
	}
	return ok(map[string]interface{}{"error_id": id})
}

// --- introspection (supplemented, non-required) ---

func (d *Deps) getFileTree(ctx context.Context, projectID string, args map[string]interface{}) map[string]interface{} {
	files, err := d.Files.ReadAll(projectID)
	if err != nil {
		return fail("get file tree: %v", err)
	}
	grouped := make(map[string][]string)
	for _, f := range files {
		role := "other"
		switch {
		case strings.HasPrefix(f.Path, "backend/app/apis/"):
			role = "api"
		case strings.HasPrefix(f.Path, "backend/"):
			role = "backend"
		case strings.HasPrefix(f.Path, "frontend/src/pages/"):
			role = "page"
		case strings.HasPrefix(f.Path, "frontend/src/components/"):
			role = "component"
		case strings.HasPrefix(f.Path, "frontend/"):
			role = "frontend"
		}
		grouped[role] = append(grouped[role], f.Path)
	}
	return ok(map[string]interface{}{"tree": grouped})
}

func (d *Deps) getProjectStats(ctx context.Context, projectID string, args map[string]interface{}) map[string]interface{} {
	files, err := d.Files.ReadAll(projectID)
	if err != nil {
		return fail("get project stats: %v", err)
	}
	tasks, err := d.DB.ListTasks(projectID)
	if err != nil {
		return fail("get project stats: %v", err)
	}
	open, err := d.Errors.ListOpen(projectID)
	if err != nil {
		return fail("get project stats: %v", err)
	}
	return ok(map[string]interface{}{
		"file_count":       len(files),
		"task_count":       len(tasks),
		"open_error_count": len(open),
	})
}

func orDefault(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
