package httpapi

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"path"
	"strconv"
	"strings"

	"github.com/gorilla/websocket"

	"github.com/appgenhq/appgen/internal/errorstore"
)

// --- chat stream (spec.md §6, §4.9) ---

type chatStreamRequest struct {
	Message string `json:"message"`
}

var upgrader = websocket.Upgrader{
	// Preview pages and the operator CLI may run on a different origin
	// than the API; the chat stream carries no cookies, so a permissive
	// origin check is acceptable here.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// handleChatStream drives generate_with_planning for one turn. Clients
// that send a websocket Upgrade get each chunk pushed as a JSON text
// frame; everyone else gets a chunked text/plain body, one JSON object
// per line, matching the teacher's SSE-over-flusher pattern but without
// the event-stream framing since this is consumed by both the browser
// preview and non-browser tooling.
func (s *Server) handleChatStream(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.respondError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	projectID := r.URL.Query().Get("project")
	if projectID == "" {
		s.respondError(w, http.StatusBadRequest, "project query parameter is required")
		return
	}

	var req chatStreamRequest
	if err := s.parseJSON(r, &req); err != nil || req.Message == "" {
		s.respondError(w, http.StatusBadRequest, "message is required")
		return
	}

	stream := s.Orchestrator.GenerateWithPlanning(r.Context(), projectID, req.Message)

	if websocket.IsWebSocketUpgrade(r) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for chunk := range stream {
			if err := conn.WriteJSON(chunk); err != nil {
				return
			}
		}
		return
	}

	w.Header().Set("Content-Type", "text/plain")
	flusher, ok := w.(http.Flusher)
	for chunk := range stream {
		body, err := json.Marshal(chunk)
		if err != nil {
			continue
		}
		w.Write(body)
		w.Write([]byte("\n"))
		if ok {
			flusher.Flush()
		}
	}
}

// --- files (spec.md §6) ---

type fileRequest struct {
	Path    string `json:"path"`
	Content string `json:"content"`
}

func (s *Server) handleFileCreate(w http.ResponseWriter, r *http.Request) {
	s.dispatchFileMutation(w, r, "create_file")
}

func (s *Server) handleFileUpdate(w http.ResponseWriter, r *http.Request) {
	s.dispatchFileMutation(w, r, "update_file")
}

func (s *Server) dispatchFileMutation(w http.ResponseWriter, r *http.Request, tool string) {
	projectID := r.URL.Query().Get("project")
	if projectID == "" {
		s.respondError(w, http.StatusBadRequest, "project query parameter is required")
		return
	}
	var req fileRequest
	if err := s.parseJSON(r, &req); err != nil || req.Path == "" {
		s.respondError(w, http.StatusBadRequest, "path is required")
		return
	}
	args, _ := json.Marshal(map[string]interface{}{"path": req.Path, "content": req.Content})
	result := s.Registry.Dispatch(r.Context(), projectID, tool, args)
	s.respondJSON(w, http.StatusOK, result)
}

// handleFileRead serves GET /ai-tools/files/read/{project}[?file_path=].
func (s *Server) handleFileRead(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.respondError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	projectID := s.extractID(r.URL.Path, "/ai-tools/files/read")
	if projectID == "" {
		s.respondError(w, http.StatusBadRequest, "project is required")
		return
	}
	args, _ := json.Marshal(map[string]interface{}{"path": r.URL.Query().Get("file_path")})
	result := s.Registry.Dispatch(r.Context(), projectID, "read_files", args)
	s.respondJSON(w, http.StatusOK, result)
}

// --- tasks (spec.md §6) ---

func (s *Server) handleTaskCreate(w http.ResponseWriter, r *http.Request) {
	s.dispatchTaskMutation(w, r, "create_task")
}

func (s *Server) handleTaskUpdate(w http.ResponseWriter, r *http.Request) {
	s.dispatchTaskMutation(w, r, "update_task")
}

func (s *Server) handleTaskAddComment(w http.ResponseWriter, r *http.Request) {
	s.dispatchTaskMutation(w, r, "add_task_comment")
}

func (s *Server) dispatchTaskMutation(w http.ResponseWriter, r *http.Request, tool string) {
	if r.Method != http.MethodPost {
		s.respondError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	projectID := r.URL.Query().Get("project")
	if projectID == "" {
		s.respondError(w, http.StatusBadRequest, "project query parameter is required")
		return
	}
	var args map[string]interface{}
	if err := s.parseJSON(r, &args); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	raw, _ := json.Marshal(args)
	result := s.Registry.Dispatch(r.Context(), projectID, tool, raw)
	s.respondJSON(w, http.StatusOK, result)
}

// --- errors (spec.md §6) ---

// handleErrors serves GET /ai-tools/errors/{project}[/open].
func (s *Server) handleErrors(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.respondError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	rest := s.extractID(r.URL.Path, "/ai-tools/errors")
	projectID, openOnly := rest, false
	if idx := strings.LastIndex(rest, "/"); idx >= 0 && rest[idx+1:] == "open" {
		projectID, openOnly = rest[:idx], true
	}
	if projectID == "" {
		s.respondError(w, http.StatusBadRequest, "project is required")
		return
	}

	var (
		records interface{}
		err     error
	)
	if openOnly {
		records, err = s.Errors.ListOpen(projectID)
	} else {
		records, err = s.Errors.ListAll(projectID)
	}
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, fmt.Sprintf("list errors: %v", err))
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"errors": records})
}

// handleRuntimeErrorReport serves a browser-reported runtime error or
// unhandled rejection, satisfying the errorstore.RuntimeReport channel
// spec.md §4.5 names. With a Bridge configured the report is published
// over NATS (see internal/errorstore's NATS subscriber); with no bridge,
// or when the publish fails, it is recorded inline.
func (s *Server) handleRuntimeErrorReport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.respondError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	projectID := s.extractID(r.URL.Path, "/preview/report")
	var report errorstore.RuntimeReport
	if err := s.parseJSON(r, &report); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if s.Bridge != nil {
		if _, subscribed := s.subscribedOnce.LoadOrStore(projectID, struct{}{}); !subscribed {
			if err := s.Bridge.Subscribe(projectID); err != nil {
				s.subscribedOnce.Delete(projectID)
			}
		}
		if err := s.Bridge.Publish(projectID, report); err == nil {
			s.respondJSON(w, http.StatusOK, map[string]string{"status": "accepted"})
			return
		}
	}

	rec, err := s.Errors.RecordRuntimeError(projectID, report)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, fmt.Sprintf("record runtime error: %v", err))
		return
	}
	s.respondJSON(w, http.StatusOK, rec)
}

// --- preview (spec.md §6, §4.4) ---

func (s *Server) handlePreviewBuild(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.respondError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	projectID := s.extractID(r.URL.Path, "/preview/build")
	if projectID == "" {
		s.respondError(w, http.StatusBadRequest, "project is required")
		return
	}
	files, err := s.Files.ReadAll(projectID)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, fmt.Sprintf("read files: %v", err))
		return
	}
	result, err := s.Builder.Build(r.Context(), projectID, files)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, fmt.Sprintf("build: %v", err))
		return
	}
	resp := map[string]interface{}{"success": result.Success, "logs": result.Logs}
	if result.Success {
		resp["dist_dir"] = result.DistDir
	}
	s.respondJSON(w, http.StatusOK, resp)
}

// handlePreview serves the built preview's HTML entry point and, under
// /assets/, its static files, both per spec.md §6. HTML is rewritten so
// asset references are prefixed with the project ID, since every
// project's dist directory is served from underneath one shared host.
func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.respondError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	rest := strings.TrimPrefix(r.URL.Path, "/preview/")
	projectID, assetPath, isAsset := rest, "", false
	if idx := strings.Index(rest, "/assets/"); idx >= 0 {
		projectID, assetPath, isAsset = rest[:idx], rest[idx+len("/assets/"):], true
	}

	distDir, ok := s.Builder.DistDir(projectID)
	if !ok {
		s.respondError(w, http.StatusNotFound, "no successful build for project")
		return
	}

	if isAsset {
		s.serveAsset(w, r, distDir, assetPath)
		return
	}
	s.serveIndex(w, distDir, projectID)
}

func (s *Server) serveIndex(w http.ResponseWriter, distDir, projectID string) {
	data, err := readDistFile(distDir, "index.html")
	if err != nil {
		s.respondError(w, http.StatusNotFound, "preview index not found")
		return
	}
	prefix := fmt.Sprintf("/preview/%s/assets/", projectID)
	rewritten := strings.NewReplacer(
		`src="/`, `src="`+prefix,
		`href="/`, `href="`+prefix,
	).Replace(string(data))
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	io.WriteString(w, rewritten)
}

func (s *Server) serveAsset(w http.ResponseWriter, r *http.Request, distDir, assetPath string) {
	data, err := readDistFile(distDir, assetPath)
	if err != nil {
		s.respondError(w, http.StatusNotFound, "asset not found")
		return
	}
	w.Header().Set("Content-Type", mimeFor(assetPath))
	w.Write(data)
}

func mimeFor(assetPath string) string {
	switch path.Ext(assetPath) {
	case ".js":
		return "application/javascript"
	case ".css":
		return "text/css"
	case ".json":
		return "application/json"
	case ".svg":
		return "image/svg+xml"
	case ".png":
		return "image/png"
	case ".woff2":
		return "font/woff2"
	default:
		return "application/octet-stream"
	}
}

func readDistFile(distDir, rel string) ([]byte, error) {
	return osReadFile(path.Join(distDir, rel))
}

// --- backend process lifecycle (spec.md §6, §4.6) ---

func (s *Server) handleBackendStart(w http.ResponseWriter, r *http.Request) {
	s.dispatchBackendLifecycle(w, r, "/project-backend/start", func(projectID, workspacePath string) (interface{}, error) {
		return s.Backends.Start(projectID, workspacePath)
	})
}

func (s *Server) handleBackendStop(w http.ResponseWriter, r *http.Request) {
	projectID := s.extractID(r.URL.Path, "/project-backend/stop")
	if projectID == "" {
		s.respondError(w, http.StatusBadRequest, "project is required")
		return
	}
	if err := s.Backends.Stop(projectID); err != nil {
		s.respondError(w, http.StatusInternalServerError, fmt.Sprintf("stop backend: %v", err))
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "stopped"})
}

func (s *Server) handleBackendRestart(w http.ResponseWriter, r *http.Request) {
	s.dispatchBackendLifecycle(w, r, "/project-backend/restart", func(projectID, workspacePath string) (interface{}, error) {
		return s.Backends.Restart(projectID, workspacePath)
	})
}

func (s *Server) dispatchBackendLifecycle(w http.ResponseWriter, r *http.Request, prefix string, op func(projectID, workspacePath string) (interface{}, error)) {
	if r.Method != http.MethodPost {
		s.respondError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	projectID := s.extractID(r.URL.Path, prefix)
	if projectID == "" {
		s.respondError(w, http.StatusBadRequest, "project is required")
		return
	}
	workspacePath := r.URL.Query().Get("workspace_path")
	backend, err := op(projectID, workspacePath)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, fmt.Sprintf("backend lifecycle: %v", err))
		return
	}
	s.respondJSON(w, http.StatusOK, backend)
}

func (s *Server) handleBackendStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.respondError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	projectID := s.extractID(r.URL.Path, "/project-backend/status")
	if projectID == "" {
		s.respondError(w, http.StatusBadRequest, "project is required")
		return
	}
	status := s.Backends.Status(projectID)
	if !status.Exists {
		s.respondJSON(w, http.StatusOK, map[string]string{"status": "stopped"})
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":     string(status.Backend.Status),
		"pid":        status.Backend.PID,
		"port":       status.Backend.Port,
		"started_at": status.Backend.StartedAt,
		"uptime":     strconv.FormatFloat(uptimeSeconds(status.Backend.StartedAt), 'f', 0, 64),
		"health":     status.Health,
	})
}
