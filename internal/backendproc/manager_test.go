package backendproc

import (
	"net"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/appgenhq/appgen/pkg/models"
)

// fakeWorkspace builds a minimal workspace tree with a venv python
// stand-in that just sleeps, so Start() can spawn a real process
// without a real interpreter or bundled app.
func fakeWorkspace(t *testing.T, script string) string {
	t.Helper()
	base := t.TempDir()
	projectID := "proj-1"
	root := filepath.Join(base, projectID)
	backend := filepath.Join(root, "backend")
	venvBin := filepath.Join(backend, ".venv", "bin")
	if err := os.MkdirAll(venvBin, 0o755); err != nil {
		t.Fatal(err)
	}
	python := filepath.Join(venvBin, "python")
	if err := os.WriteFile(python, []byte("#!/bin/sh\n"+script+"\n"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(backend, "main"), []byte(""), 0o644); err != nil {
		t.Fatal(err)
	}
	return root
}

func TestStartIsIdempotent(t *testing.T) {
	root := fakeWorkspace(t, "sleep 5")
	m := NewManager(40000, 10)

	first, err := m.Start("proj-1", root)
	if err != nil {
		t.Fatal(err)
	}
	second, err := m.Start("proj-1", root)
	if err != nil {
		t.Fatal(err)
	}
	if first.PID != second.PID || first.Port != second.Port {
		t.Errorf("expected idempotent Start, got %+v then %+v", first, second)
	}
	m.Stop("proj-1")
}

func TestStartRejectsMissingVenv(t *testing.T) {
	root := t.TempDir()
	m := NewManager(40000, 10)
	if _, err := m.Start("proj-missing", root); err == nil {
		t.Error("expected error when venv is absent")
	}
}

func TestStopRemovesFromList(t *testing.T) {
	root := fakeWorkspace(t, "sleep 5")
	m := NewManager(40010, 10)

	if _, err := m.Start("proj-1", root); err != nil {
		t.Fatal(err)
	}
	if err := m.Stop("proj-1"); err != nil {
		t.Fatal(err)
	}
	if len(m.List()) != 0 {
		t.Errorf("expected empty list after stop, got %v", m.List())
	}
	if st := m.Status("proj-1"); st.Exists {
		t.Error("expected status to report not-exists after stop")
	}
}

func TestStatusReportsHealthy(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	srv := &http.Server{Handler: mux}
	go srv.Serve(listener)
	defer srv.Close()

	actualPort := listener.Addr().(*net.TCPAddr).Port
	root := fakeWorkspace(t, "sleep 5")
	m := &Manager{basePort: actualPort, maxPorts: 1, backends: make(map[string]*entry)}

	if _, err := m.Start("proj-1", root); err != nil {
		t.Fatal(err)
	}
	defer m.Stop("proj-1")

	time.Sleep(100 * time.Millisecond)
	st := m.Status("proj-1")
	if !st.Exists {
		t.Fatal("expected backend to exist")
	}
	if st.Health != "healthy" {
		t.Errorf("expected healthy, got %q", st.Health)
	}
}

func TestLowestFreePortReusesReleasedPort(t *testing.T) {
	m := NewManager(50000, 2)
	m.backends["a"] = &entry{backend: models.RunningBackend{ProjectID: "a", Port: 50000}}
	p, err := m.lowestFreePort()
	if err != nil {
		t.Fatal(err)
	}
	if p != 50001 {
		t.Errorf("expected 50001, got %d", p)
	}

	delete(m.backends, "a")
	p, err = m.lowestFreePort()
	if err != nil {
		t.Fatal(err)
	}
	if p != 50000 {
		t.Errorf("expected port 50000 to be reusable once released, got %d", p)
	}
}
