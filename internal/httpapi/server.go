// Package httpapi exposes the HTTP surface named in spec.md §6: the
// orchestrator chat stream, file/task/error mutation endpoints, the
// preview build/serve/assets routes, and project backend lifecycle.
//
// Grounded on the teacher's internal/api/server.go (http.NewServeMux
// registration, the respondJSON/respondError/parseJSON helper trio, and
// promhttp.Handler mounted at /metrics) and handlers_streaming.go (the
// SSE-over-flusher pattern, here adapted to a websocket upgrade with a
// chunked text/plain fallback per spec.md §2's domain stack table).
package httpapi

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/appgenhq/appgen/internal/backendproc"
	"github.com/appgenhq/appgen/internal/errorstore"
	"github.com/appgenhq/appgen/internal/metrics"
	"github.com/appgenhq/appgen/internal/orchestrator"
	"github.com/appgenhq/appgen/internal/preview"
	"github.com/appgenhq/appgen/internal/tools"
	"github.com/appgenhq/appgen/internal/workspace"
)

// Server wires every collaborator the HTTP surface needs into a single
// http.Handler. File and task mutations are routed through Registry so
// the HTTP surface and the orchestrator's own tool loop share one
// dispatch path, exactly like the teacher's API layer defers bead/agent
// mutations to its dispatcher rather than duplicating the logic inline.
type Server struct {
	Orchestrator *orchestrator.Orchestrator
	Registry     *tools.Registry
	Files        *workspace.Store
	Errors       *errorstore.Store
	Builder      *preview.Builder
	Backends     *backendproc.Manager
	Bridge       *errorstore.RuntimeBridge
	Metrics      *metrics.Metrics

	mux              *http.ServeMux
	subscribedOnce   sync.Map // project_id -> struct{}, guards Bridge.Subscribe
}

// NewServer builds the routed handler. Call ServeHTTP (or pass the
// Server directly to http.ListenAndServe) to serve it. bridge may be
// nil, in which case runtime error reports are recorded directly
// instead of round-tripping through NATS.
func NewServer(orch *orchestrator.Orchestrator, registry *tools.Registry, files *workspace.Store, errs *errorstore.Store, builder *preview.Builder, backends *backendproc.Manager, bridge *errorstore.RuntimeBridge) *Server {
	s := &Server{
		Orchestrator: orch,
		Registry:     registry,
		Files:        files,
		Errors:       errs,
		Builder:      builder,
		Backends:     backends,
		Bridge:       bridge,
		Metrics:      metrics.NewMetrics(),
	}
	s.mux = http.NewServeMux()

	s.mux.HandleFunc("/ai-tools/chat/stream", s.handleChatStream)
	s.mux.HandleFunc("/ai-tools/files/create", s.handleFileCreate)
	s.mux.HandleFunc("/ai-tools/files/update", s.handleFileUpdate)
	s.mux.HandleFunc("/ai-tools/files/read/", s.handleFileRead)
	s.mux.HandleFunc("/ai-tools/tasks/create", s.handleTaskCreate)
	s.mux.HandleFunc("/ai-tools/tasks/update", s.handleTaskUpdate)
	s.mux.HandleFunc("/ai-tools/tasks/add-comment", s.handleTaskAddComment)
	s.mux.HandleFunc("/ai-tools/errors/", s.handleErrors)

	s.mux.HandleFunc("/preview/build/", s.handlePreviewBuild)
	s.mux.HandleFunc("/preview/report/", s.handleRuntimeErrorReport)
	s.mux.HandleFunc("/preview/", s.handlePreview)

	s.mux.HandleFunc("/project-backend/start/", s.handleBackendStart)
	s.mux.HandleFunc("/project-backend/stop/", s.handleBackendStop)
	s.mux.HandleFunc("/project-backend/restart/", s.handleBackendRestart)
	s.mux.HandleFunc("/project-backend/status/", s.handleBackendStatus)

	s.mux.HandleFunc("/healthz", s.handleHealthz)
	s.mux.Handle("/metrics", promhttp.Handler())

	return s
}

// ServeHTTP implements http.Handler, timing every request for the HTTP
// request metrics and logging unhandled panics instead of crashing the
// process, matching the teacher's top-level recover-and-log idiom.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

	defer func() {
		if err := recover(); err != nil {
			log.Printf("[httpapi] panic handling %s %s: %v", r.Method, r.URL.Path, err)
			http.Error(rec, "internal error", http.StatusInternalServerError)
		}
		s.Metrics.RecordHTTPRequest(r.Method, r.URL.Path, http.StatusText(rec.status), time.Since(start).Seconds())
	}()

	s.mux.ServeHTTP(rec, r)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	body, err := json.Marshal(data)
	if err != nil {
		http.Error(w, "failed to encode response", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(body)
	w.Write([]byte("\n"))
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}

func (s *Server) parseJSON(r *http.Request, v interface{}) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}

func (s *Server) extractID(path, prefix string) string {
	id := path[len(prefix):]
	for len(id) > 0 && id[0] == '/' {
		id = id[1:]
	}
	for len(id) > 0 && id[len(id)-1] == '/' {
		id = id[:len(id)-1]
	}
	return id
}
