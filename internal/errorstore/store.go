package errorstore

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/appgenhq/appgen/internal/database"
	"github.com/appgenhq/appgen/pkg/models"
)

// FileReader reads a workspace-relative file's content, used to produce
// a source snippet around a parsed error location. internal/workspace's
// Store satisfies this via ReadAll + a path lookup; callers may also
// pass a narrower adapter.
type FileReader interface {
	ReadContent(projectID, path string) (string, bool)
}

// Store is the error record CRUD layer over internal/database, plus the
// build-log-to-record pipeline.
type Store struct {
	db     *database.Database
	files  FileReader
	wsRoot string
}

// NewStore constructs a Store. wsRoot is the on-disk workspace root used
// to normalize parsed file paths to workspace-relative form.
func NewStore(db *database.Database, files FileReader, wsRoot string) *Store {
	return &Store{db: db, files: files, wsRoot: wsRoot}
}

// RecordBuildFailure parses buildLog and inserts one open ErrorRecord
// per match, each carrying the full log as Stack and the error code (if
// any) as Context, per spec.md §4.5.
func (s *Store) RecordBuildFailure(projectID, buildLog string) ([]*models.ErrorRecord, error) {
	parsed := ParseBuildLog(buildLog)
	records := make([]*models.ErrorRecord, 0, len(parsed))

	for _, p := range parsed {
		relFile := NormalizeFile(s.wsRoot, p.File)
		snippet := ""
		if s.files != nil {
			if content, ok := s.files.ReadContent(projectID, relFile); ok {
				snippet = Snippet(content, p.Line, 2)
			}
		}

		rec := &models.ErrorRecord{
			ID:          fmt.Sprintf("err-%s", uuid.New().String()[:8]),
			ProjectID:   projectID,
			Kind:        models.ErrorBuild,
			Message:     p.Message,
			Stack:       buildLog,
			File:        relFile,
			Line:        p.Line,
			CodeSnippet: snippet,
			Status:      models.ErrorOpen,
			CreatedAt:   time.Now(),
			UpdatedAt:   time.Now(),
		}
		if p.ErrorCode != "" {
			rec.Context = map[string]interface{}{"error_code": p.ErrorCode}
		}
		if err := s.db.CreateErrorRecord(rec); err != nil {
			return nil, fmt.Errorf("persist build error record: %w", err)
		}
		records = append(records, rec)
	}
	return records, nil
}

// RuntimeReport is the shape the preview's embedded error handler posts
// to the report endpoint.
type RuntimeReport struct {
	Message string `json:"message"`
	Stack   string `json:"stack,omitempty"`
	File    string `json:"file,omitempty"`
	Line    int    `json:"line,omitempty"`
}

// RecordRuntimeError inserts one ErrorRecord(kind=runtime) from a
// browser-reported error or unhandled rejection.
func (s *Store) RecordRuntimeError(projectID string, r RuntimeReport) (*models.ErrorRecord, error) {
	rec := &models.ErrorRecord{
		ID:        fmt.Sprintf("err-%s", uuid.New().String()[:8]),
		ProjectID: projectID,
		Kind:      models.ErrorRuntime,
		Message:   r.Message,
		Stack:     r.Stack,
		File:      r.File,
		Line:      r.Line,
		Status:    models.ErrorOpen,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	if err := s.db.CreateErrorRecord(rec); err != nil {
		return nil, fmt.Errorf("persist runtime error record: %w", err)
	}
	return rec, nil
}

// ListOpen returns open errors for a project, most recent first.
func (s *Store) ListOpen(projectID string) ([]*models.ErrorRecord, error) {
	return s.db.ListOpenErrors(projectID)
}

// ListAll returns every error record for a project regardless of
// status, most recent first.
func (s *Store) ListAll(projectID string) ([]*models.ErrorRecord, error) {
	return s.db.ListErrors(projectID)
}

// Resolve marks an error resolved with optional notes.
func (s *Store) Resolve(id, notes string) error {
	return s.db.ResolveError(id, notes)
}

// IncrementAttempt bumps the attempt counter on a record a heal pass
// touched but did not resolve.
func (s *Store) IncrementAttempt(id string) error {
	return s.db.IncrementAttempt(id)
}

// Delete removes an error record outright.
func (s *Store) Delete(id string) error {
	return s.db.DeleteErrorRecord(id)
}
