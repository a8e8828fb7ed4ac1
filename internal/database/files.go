package database

import (
	"database/sql"
	"fmt"

	"github.com/appgenhq/appgen/pkg/models"
)

// ErrFileExists is returned by CreateFile when (project_id, path) already
// names an active file, per spec.md §4.3's create-rejects-if-exists rule.
var ErrFileExists = fmt.Errorf("file already exists")

// ErrFileNotFound is returned by UpdateFile/DeleteFile when no active
// file matches (project_id, path).
var ErrFileNotFound = fmt.Errorf("file not found")

// CreateFile inserts a new active GeneratedFile, rejecting if one is
// already active at the same path.
func (d *Database) CreateFile(f *models.GeneratedFile) error {
	existing, err := d.GetFile(f.ProjectID, f.Path)
	if err != nil {
		return err
	}
	if existing != nil {
		return ErrFileExists
	}
	_, err = d.db.Exec(
		`INSERT INTO generated_files (id, project_id, path, content, language, is_active, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, true, $6, $7)`,
		f.ID, f.ProjectID, f.Path, f.Content, f.Language, f.CreatedAt, f.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("create file: %w", err)
	}
	return nil
}

// UpdateFile overwrites the content of an existing active file.
func (d *Database) UpdateFile(projectID, path, content string) error {
	res, err := d.db.Exec(
		`UPDATE generated_files SET content = $1, updated_at = now()
		 WHERE project_id = $2 AND path = $3 AND is_active`,
		content, projectID, path,
	)
	if err != nil {
		return fmt.Errorf("update file: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrFileNotFound
	}
	return nil
}

// GetFile fetches the active file at (projectID, path), or nil if none.
func (d *Database) GetFile(projectID, path string) (*models.GeneratedFile, error) {
	var f models.GeneratedFile
	err := d.db.QueryRow(
		`SELECT id, project_id, path, content, language, is_active, created_at, updated_at
		 FROM generated_files WHERE project_id = $1 AND path = $2 AND is_active`,
		projectID, path,
	).Scan(&f.ID, &f.ProjectID, &f.Path, &f.Content, &f.Language, &f.IsActive, &f.CreatedAt, &f.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get file: %w", err)
	}
	return &f, nil
}

// ListActiveFiles returns every active file for a project.
func (d *Database) ListActiveFiles(projectID string) ([]*models.GeneratedFile, error) {
	rows, err := d.db.Query(
		`SELECT id, project_id, path, content, language, is_active, created_at, updated_at
		 FROM generated_files WHERE project_id = $1 AND is_active ORDER BY path`,
		projectID,
	)
	if err != nil {
		return nil, fmt.Errorf("list active files: %w", err)
	}
	defer rows.Close()

	var out []*models.GeneratedFile
	for rows.Next() {
		var f models.GeneratedFile
		if err := rows.Scan(&f.ID, &f.ProjectID, &f.Path, &f.Content, &f.Language, &f.IsActive, &f.CreatedAt, &f.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan file: %w", err)
		}
		out = append(out, &f)
	}
	return out, rows.Err()
}

// DeleteFile soft-deletes a file by flipping is_active, never removing
// the row, per spec.md §4.3.
func (d *Database) DeleteFile(projectID, path string) error {
	res, err := d.db.Exec(
		`UPDATE generated_files SET is_active = false, updated_at = now()
		 WHERE project_id = $1 AND path = $2 AND is_active`,
		projectID, path,
	)
	if err != nil {
		return fmt.Errorf("delete file: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrFileNotFound
	}
	return nil
}
