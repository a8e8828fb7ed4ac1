package database

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/appgenhq/appgen/pkg/models"
)

// CreateErrorRecord inserts a new open error record.
func (d *Database) CreateErrorRecord(e *models.ErrorRecord) error {
	ctx, err := marshalMetadata(e.Context)
	if err != nil {
		return err
	}
	_, err = d.db.Exec(
		`INSERT INTO error_records (id, project_id, kind, message, stack, file, line, code_snippet, context, status, attempt_count, resolution_notes, created_at, updated_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)`,
		e.ID, e.ProjectID, e.Kind, e.Message, e.Stack, e.File, e.Line, e.CodeSnippet, ctx, e.Status, e.AttemptCount, e.ResolutionNotes, e.CreatedAt, e.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("create error record: %w", err)
	}
	return nil
}

// ListOpenErrors returns open errors for a project, most recent first.
func (d *Database) ListOpenErrors(projectID string) ([]*models.ErrorRecord, error) {
	rows, err := d.db.Query(
		`SELECT id, project_id, kind, message, stack, file, line, code_snippet, context, status, attempt_count, resolution_notes, created_at, updated_at
		 FROM error_records WHERE project_id = $1 AND status = $2 ORDER BY created_at DESC`,
		projectID, models.ErrorOpen,
	)
	if err != nil {
		return nil, fmt.Errorf("list open errors: %w", err)
	}
	defer rows.Close()
	return scanErrorRows(rows)
}

// ListErrors returns every error record for a project regardless of
// status, most recent first.
func (d *Database) ListErrors(projectID string) ([]*models.ErrorRecord, error) {
	rows, err := d.db.Query(
		`SELECT id, project_id, kind, message, stack, file, line, code_snippet, context, status, attempt_count, resolution_notes, created_at, updated_at
		 FROM error_records WHERE project_id = $1 ORDER BY created_at DESC`,
		projectID,
	)
	if err != nil {
		return nil, fmt.Errorf("list errors: %w", err)
	}
	defer rows.Close()
	return scanErrorRows(rows)
}

// GetErrorRecord fetches one error record by id.
func (d *Database) GetErrorRecord(id string) (*models.ErrorRecord, error) {
	rows, err := d.db.Query(
		`SELECT id, project_id, kind, message, stack, file, line, code_snippet, context, status, attempt_count, resolution_notes, created_at, updated_at
		 FROM error_records WHERE id = $1`, id,
	)
	if err != nil {
		return nil, fmt.Errorf("get error record: %w", err)
	}
	defer rows.Close()
	recs, err := scanErrorRows(rows)
	if err != nil {
		return nil, err
	}
	if len(recs) == 0 {
		return nil, nil
	}
	return recs[0], nil
}

// ResolveError marks an error record resolved, optionally attaching
// resolution notes.
func (d *Database) ResolveError(id, notes string) error {
	res, err := d.db.Exec(
		`UPDATE error_records SET status = $1, resolution_notes = $2, updated_at = now() WHERE id = $3`,
		models.ErrorResolved, notes, id,
	)
	if err != nil {
		return fmt.Errorf("resolve error: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("error record not found: %s", id)
	}
	return nil
}

// IncrementAttempt bumps an error record's attempt counter, used when a
// heal attempt fails to resolve it.
func (d *Database) IncrementAttempt(id string) error {
	_, err := d.db.Exec(
		`UPDATE error_records SET attempt_count = attempt_count + 1, updated_at = now() WHERE id = $1`, id,
	)
	if err != nil {
		return fmt.Errorf("increment attempt: %w", err)
	}
	return nil
}

// DeleteErrorRecord removes an error record outright.
func (d *Database) DeleteErrorRecord(id string) error {
	res, err := d.db.Exec(`DELETE FROM error_records WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete error record: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("error record not found: %s", id)
	}
	return nil
}

func scanErrorRows(rows *sql.Rows) ([]*models.ErrorRecord, error) {
	var out []*models.ErrorRecord
	for rows.Next() {
		var e models.ErrorRecord
		var stack, file, snippet, notes sql.NullString
		var line sql.NullInt64
		var ctx []byte
		if err := rows.Scan(&e.ID, &e.ProjectID, &e.Kind, &e.Message, &stack, &file, &line, &snippet, &ctx, &e.Status, &e.AttemptCount, &notes, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan error record: %w", err)
		}
		e.Stack = stack.String
		e.File = file.String
		e.Line = int(line.Int64)
		e.CodeSnippet = snippet.String
		e.ResolutionNotes = notes.String
		if len(ctx) > 0 {
			if err := json.Unmarshal(ctx, &e.Context); err != nil {
				return nil, fmt.Errorf("unmarshal error context: %w", err)
			}
		}
		out = append(out, &e)
	}
	return out, rows.Err()
}
