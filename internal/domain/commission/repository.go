package commission

import (
	"context"

	"github.com/google/uuid"
	"github.com/zenithcrm/backend/internal/domain/shared"
)

// CommissionFilter defines filtering options for commission queries
type CommissionFilter struct {
	shared.Filter
	DealID  *uuid.UUID
	AgentID *uuid.UUID
	Status  *CommissionStatus
	Type    *CommissionType
}

// CommissionRepository defines the interface for commission persistence
type CommissionRepository interface {
	// FindByID finds a commission by ID
	FindByID(ctx context.Context, id uuid.UUID) (*Commission, error)

	// FindByIDForUpdate finds a commission by ID taking a row lock; must be
	// called inside a transaction
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*Commission, error)

	// FindByDeal finds the commissions belonging to a deal
	FindByDeal(ctx context.Context, dealID uuid.UUID) ([]Commission, error)

	// FindByAgent finds commissions for an agent with filtering
	FindByAgent(ctx context.Context, agentID uuid.UUID, filter CommissionFilter) ([]Commission, error)

	// FindAll finds commissions with filtering
	FindAll(ctx context.Context, filter CommissionFilter) ([]Commission, error)

	// Count counts commissions matching the filter
	Count(ctx context.Context, filter CommissionFilter) (int64, error)

	// Save creates or updates a commission
	Save(ctx context.Context, commission *Commission) error

	// SaveWithLock saves with optimistic locking (version check)
	SaveWithLock(ctx context.Context, commission *Commission, expectedVersion int) error
}

// AgentDirectory supplies the candidate pool for assignment strategies.
// The agent roster itself is owned by an external system.
type AgentDirectory interface {
	// ActiveAgents returns agents currently eligible for assignment
	ActiveAgents(ctx context.Context) ([]AgentCandidate, error)
}
