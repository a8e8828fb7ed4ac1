package database

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/appgenhq/appgen/pkg/models"
)

// CreateTask inserts a new task.
func (d *Database) CreateTask(t *models.Task) error {
	meta, err := marshalMetadata(t.Metadata)
	if err != nil {
		return err
	}
	_, err = d.db.Exec(
		`INSERT INTO tasks (id, project_id, title, description, status, priority, order_index, metadata, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		t.ID, t.ProjectID, t.Title, t.Description, t.Status, t.Priority, t.OrderIndex, meta, t.CreatedAt, t.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("create task: %w", err)
	}
	return nil
}

// UpdateTask overwrites every mutable field of an existing task (title,
// description, status, priority, order index, metadata) with t's values.
func (d *Database) UpdateTask(t *models.Task) error {
	meta, err := marshalMetadata(t.Metadata)
	if err != nil {
		return err
	}
	res, err := d.db.Exec(
		`UPDATE tasks SET title=$1, description=$2, status=$3, priority=$4, order_index=$5, metadata=$6, updated_at=now()
		 WHERE id = $7 AND project_id = $8`,
		t.Title, t.Description, t.Status, t.Priority, t.OrderIndex, meta, t.ID, t.ProjectID,
	)
	if err != nil {
		return fmt.Errorf("update task: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("task not found: %s", t.ID)
	}
	return nil
}

// GetTask fetches a single task by ID, regardless of project.
func (d *Database) GetTask(id string) (*models.Task, error) {
	rows, err := d.db.Query(
		`SELECT id, project_id, title, description, status, priority, order_index, metadata, created_at, updated_at
		 FROM tasks WHERE id = $1`,
		id,
	)
	if err != nil {
		return nil, fmt.Errorf("get task: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, nil
	}
	return scanTask(rows)
}

// ListTasks returns every task for a project ordered by OrderIndex.
func (d *Database) ListTasks(projectID string) ([]*models.Task, error) {
	rows, err := d.db.Query(
		`SELECT id, project_id, title, description, status, priority, order_index, metadata, created_at, updated_at
		 FROM tasks WHERE project_id = $1 ORDER BY order_index`,
		projectID,
	)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	var out []*models.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// DeleteTask removes a task row outright (tasks have no soft-delete
// flag in the data model).
func (d *Database) DeleteTask(id string) error {
	res, err := d.db.Exec(`DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("task not found: %s", id)
	}
	return nil
}

func scanTask(rows *sql.Rows) (*models.Task, error) {
	var t models.Task
	var meta []byte
	if err := rows.Scan(&t.ID, &t.ProjectID, &t.Title, &t.Description, &t.Status, &t.Priority, &t.OrderIndex, &meta, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return nil, fmt.Errorf("scan task: %w", err)
	}
	if len(meta) > 0 {
		if err := json.Unmarshal(meta, &t.Metadata); err != nil {
			return nil, fmt.Errorf("unmarshal task metadata: %w", err)
		}
	}
	return &t, nil
}

func marshalMetadata(m map[string]interface{}) ([]byte, error) {
	if m == nil {
		return []byte("{}"), nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("marshal metadata: %w", err)
	}
	return b, nil
}
