package workspace

import (
	"context"
	"log"
	"os"

	"github.com/appgenhq/appgen/internal/executor"
)

// EnsureVenvAsync creates the backend's isolated virtual environment in
// the background; the caller does not wait for it, per spec.md §4.3's
// "workspace API returns immediately" rule.
func EnsureVenvAsync(shell *executor.Shell, l Layout) {
	go func() {
		if l.VenvExists() {
			return
		}
		if err := os.MkdirAll(l.BackendDir, 0o755); err != nil {
			log.Printf("[workspace] venv setup failed for %s: %v", l.Root, err)
			return
		}
		_, stderr, err := shell.Run(context.Background(), l.BackendDir, "uv", "venv", l.BackendVenv)
		if err != nil {
			log.Printf("[workspace] venv creation failed for %s: %v (%s)", l.Root, err, stderr)
			return
		}
		log.Printf("[workspace] venv ready for %s", l.Root)
	}()
}
