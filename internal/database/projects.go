package database

import (
	"database/sql"
	"fmt"

	"github.com/appgenhq/appgen/pkg/models"
)

// CreateProject inserts a new project row.
func (d *Database) CreateProject(p *models.Project) error {
	_, err := d.db.Exec(
		`INSERT INTO projects (id, title, description, status, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		p.ID, p.Title, p.Description, p.Status, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("create project: %w", err)
	}
	return nil
}

// GetProject fetches one project by id.
func (d *Database) GetProject(id string) (*models.Project, error) {
	var p models.Project
	err := d.db.QueryRow(
		`SELECT id, title, description, status, created_at, updated_at FROM projects WHERE id = $1`, id,
	).Scan(&p.ID, &p.Title, &p.Description, &p.Status, &p.CreatedAt, &p.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get project: %w", err)
	}
	return &p, nil
}

// ListProjects returns every non-deleted project, most recently updated
// first.
func (d *Database) ListProjects() ([]*models.Project, error) {
	rows, err := d.db.Query(
		`SELECT id, title, description, status, created_at, updated_at
		 FROM projects WHERE status != $1 ORDER BY updated_at DESC`,
		models.ProjectDeleted,
	)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	var out []*models.Project
	for rows.Next() {
		var p models.Project
		if err := rows.Scan(&p.ID, &p.Title, &p.Description, &p.Status, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan project: %w", err)
		}
		out = append(out, &p)
	}
	return out, rows.Err()
}

// UpdateProjectStatus transitions a project's lifecycle state.
func (d *Database) UpdateProjectStatus(id string, status models.ProjectStatus) error {
	_, err := d.db.Exec(
		`UPDATE projects SET status = $1, updated_at = now() WHERE id = $2`, status, id,
	)
	if err != nil {
		return fmt.Errorf("update project status: %w", err)
	}
	return nil
}
