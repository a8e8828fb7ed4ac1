package context

import (
	"fmt"
	"time"

	"github.com/appgenhq/appgen/pkg/models"
)

// WriteStore extends Store with the persistence Update needs.
// internal/database.Database satisfies it.
type WriteStore interface {
	Store
	UpsertAgentContext(ac *models.AgentContext) error
}

// Update applies update to projectID's persisted AgentContext, per
// spec.md §4.7's update_memory operation: when merge is true, update is
// merged onto the existing ContextData via ContextData.Merge; when
// merge is false, the existing data is replaced entirely.
func Update(store WriteStore, projectID string, update models.ContextData, merge bool) (models.AgentContext, error) {
	existing, err := store.GetAgentContext(projectID)
	if err != nil {
		return models.AgentContext{}, fmt.Errorf("load agent context: %w", err)
	}

	data := update
	if merge {
		var base models.ContextData
		if existing != nil {
			base = existing.ContextData
		}
		data = base.Merge(update)
	}

	ac := &models.AgentContext{ProjectID: projectID, ContextData: data, UpdatedAt: time.Now()}
	if existing != nil {
		ac.SessionID = existing.SessionID
	}
	if err := store.UpsertAgentContext(ac); err != nil {
		return models.AgentContext{}, fmt.Errorf("persist agent context: %w", err)
	}
	return *ac, nil
}
