package database

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/appgenhq/appgen/pkg/models"
)

// GetAgentContext fetches the single persisted context blob for a
// project, or nil if none has been stored yet.
func (d *Database) GetAgentContext(projectID string) (*models.AgentContext, error) {
	var sessionID sql.NullString
	var data []byte
	var ac models.AgentContext
	err := d.db.QueryRow(
		`SELECT project_id, session_id, context_data, updated_at FROM agent_contexts WHERE project_id = $1`,
		projectID,
	).Scan(&ac.ProjectID, &sessionID, &data, &ac.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get agent context: %w", err)
	}
	ac.SessionID = sessionID.String
	if len(data) > 0 {
		if err := json.Unmarshal(data, &ac.ContextData); err != nil {
			return nil, fmt.Errorf("unmarshal context data: %w", err)
		}
	}
	return &ac, nil
}

// UpsertAgentContext inserts or replaces the single context row for a
// project; ProjectID is the unique key, so this never duplicates.
func (d *Database) UpsertAgentContext(ac *models.AgentContext) error {
	data, err := json.Marshal(ac.ContextData)
	if err != nil {
		return fmt.Errorf("marshal context data: %w", err)
	}
	_, err = d.db.Exec(
		`INSERT INTO agent_contexts (project_id, session_id, context_data, updated_at)
		 VALUES ($1, $2, $3, now())
		 ON CONFLICT (project_id) DO UPDATE SET
		   session_id = EXCLUDED.session_id,
		   context_data = EXCLUDED.context_data,
		   updated_at = now()`,
		ac.ProjectID, ac.SessionID, data,
	)
	if err != nil {
		return fmt.Errorf("upsert agent context: %w", err)
	}
	return nil
}
