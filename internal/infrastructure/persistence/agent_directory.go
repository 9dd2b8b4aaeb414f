package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/zenithcrm/backend/internal/domain/commission"
	"gorm.io/gorm"
)

// GormAgentDirectory implements AgentDirectory over the synced agent roster.
// The active deal count is derived from commissions still in flight.
type GormAgentDirectory struct {
	db *gorm.DB
}

// NewGormAgentDirectory creates a new GormAgentDirectory
func NewGormAgentDirectory(db *gorm.DB) *GormAgentDirectory {
	return &GormAgentDirectory{db: db}
}

// ActiveAgents returns agents currently eligible for assignment, each with
// the number of commissions not yet settled or cancelled.
func (d *GormAgentDirectory) ActiveAgents(ctx context.Context) ([]commission.AgentCandidate, error) {
	type agentRow struct {
		ID          string
		Name        string
		ActiveDeals int
	}

	var rows []agentRow
	err := d.db.WithContext(ctx).
		Table("agents").
		Select("agents.id, agents.name, COUNT(commissions.id) AS active_deals").
		Joins("LEFT JOIN commissions ON commissions.agent_id = agents.id AND commissions.status IN ?",
			[]string{string(commission.CommissionStatusPending), string(commission.CommissionStatusApproved)}).
		Where("agents.active = ?", true).
		Group("agents.id, agents.name").
		Order("agents.name ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	candidates := make([]commission.AgentCandidate, 0, len(rows))
	for _, row := range rows {
		id, err := uuid.Parse(row.ID)
		if err != nil {
			continue
		}
		candidates = append(candidates, commission.AgentCandidate{
			AgentID:     id,
			AgentName:   row.Name,
			ActiveDeals: row.ActiveDeals,
		})
	}
	return candidates, nil
}
