package database

import (
	"encoding/json"
	"fmt"

	"github.com/appgenhq/appgen/pkg/models"
)

// AppendChatMessage inserts one append-only dialog entry.
func (d *Database) AppendChatMessage(m *models.ChatMessage) error {
	meta, err := marshalMetadata(m.Metadata)
	if err != nil {
		return err
	}
	_, err = d.db.Exec(
		`INSERT INTO chat_messages (id, project_id, role, content, metadata, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		m.ID, m.ProjectID, m.Role, m.Content, meta, m.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("append chat message: %w", err)
	}
	return nil
}

// RecentChatMessages returns the last n messages for a project in
// chronological order, for context-loader injection.
func (d *Database) RecentChatMessages(projectID string, n int) ([]*models.ChatMessage, error) {
	rows, err := d.db.Query(
		`SELECT id, project_id, role, content, metadata, created_at
		 FROM chat_messages WHERE project_id = $1 ORDER BY created_at DESC LIMIT $2`,
		projectID, n,
	)
	if err != nil {
		return nil, fmt.Errorf("recent chat messages: %w", err)
	}
	defer rows.Close()

	var out []*models.ChatMessage
	for rows.Next() {
		var m models.ChatMessage
		var meta []byte
		if err := rows.Scan(&m.ID, &m.ProjectID, &m.Role, &m.Content, &meta, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan chat message: %w", err)
		}
		if len(meta) > 0 {
			if err := json.Unmarshal(meta, &m.Metadata); err != nil {
				return nil, fmt.Errorf("unmarshal chat metadata: %w", err)
			}
		}
		out = append(out, &m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Query returned newest-first; reverse to chronological order.
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}
