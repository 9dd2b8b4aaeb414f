package commission

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/zenithcrm/backend/internal/domain/shared"
)

// CommissionCalculatedEvent is raised when a commission amount is computed
type CommissionCalculatedEvent struct {
	shared.BaseDomainEvent
	DealID           uuid.UUID       `json:"deal_id"`
	AgentID          uuid.UUID       `json:"agent_id"`
	Type             CommissionType  `json:"commission_type"`
	DealValue        decimal.Decimal `json:"deal_value"`
	CalculatedAmount decimal.Decimal `json:"calculated_amount"`
}

// EventType returns the event type name
func (e *CommissionCalculatedEvent) EventType() string {
	return "CommissionCalculated"
}

// NewCommissionCalculatedEvent creates a new CommissionCalculatedEvent
func NewCommissionCalculatedEvent(c *Commission) *CommissionCalculatedEvent {
	return &CommissionCalculatedEvent{
		BaseDomainEvent:  shared.NewBaseDomainEvent("CommissionCalculated", "Commission", c.ID),
		DealID:           c.DealID,
		AgentID:          c.AgentID,
		Type:             c.Type,
		DealValue:        c.DealValue,
		CalculatedAmount: c.CalculatedAmount,
	}
}

// CommissionSplitsCreatedEvent is raised when a commission is split between agents
type CommissionSplitsCreatedEvent struct {
	shared.BaseDomainEvent
	DealID     uuid.UUID `json:"deal_id"`
	SplitCount int       `json:"split_count"`
}

// EventType returns the event type name
func (e *CommissionSplitsCreatedEvent) EventType() string {
	return "CommissionSplitsCreated"
}

// NewCommissionSplitsCreatedEvent creates a new CommissionSplitsCreatedEvent
func NewCommissionSplitsCreatedEvent(c *Commission) *CommissionSplitsCreatedEvent {
	return &CommissionSplitsCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("CommissionSplitsCreated", "Commission", c.ID),
		DealID:          c.DealID,
		SplitCount:      len(c.Splits),
	}
}

// CommissionApprovedEvent is raised when a commission is approved
type CommissionApprovedEvent struct {
	shared.BaseDomainEvent
	DealID           uuid.UUID       `json:"deal_id"`
	AgentID          uuid.UUID       `json:"agent_id"`
	CalculatedAmount decimal.Decimal `json:"calculated_amount"`
	ApprovedBy       uuid.UUID       `json:"approved_by"`
}

// EventType returns the event type name
func (e *CommissionApprovedEvent) EventType() string {
	return "CommissionApproved"
}

// NewCommissionApprovedEvent creates a new CommissionApprovedEvent
func NewCommissionApprovedEvent(c *Commission) *CommissionApprovedEvent {
	var approvedBy uuid.UUID
	if c.ApprovedBy != nil {
		approvedBy = *c.ApprovedBy
	}
	return &CommissionApprovedEvent{
		BaseDomainEvent:  shared.NewBaseDomainEvent("CommissionApproved", "Commission", c.ID),
		DealID:           c.DealID,
		AgentID:          c.AgentID,
		CalculatedAmount: c.CalculatedAmount,
		ApprovedBy:       approvedBy,
	}
}

// CommissionPaidEvent is raised when a commission is settled
type CommissionPaidEvent struct {
	shared.BaseDomainEvent
	DealID           uuid.UUID       `json:"deal_id"`
	AgentID          uuid.UUID       `json:"agent_id"`
	CalculatedAmount decimal.Decimal `json:"calculated_amount"`
	PaidDate         time.Time       `json:"paid_date"`
}

// EventType returns the event type name
func (e *CommissionPaidEvent) EventType() string {
	return "CommissionPaid"
}

// NewCommissionPaidEvent creates a new CommissionPaidEvent
func NewCommissionPaidEvent(c *Commission) *CommissionPaidEvent {
	var paidDate time.Time
	if c.PaidDate != nil {
		paidDate = *c.PaidDate
	}
	return &CommissionPaidEvent{
		BaseDomainEvent:  shared.NewBaseDomainEvent("CommissionPaid", "Commission", c.ID),
		DealID:           c.DealID,
		AgentID:          c.AgentID,
		CalculatedAmount: c.CalculatedAmount,
		PaidDate:         paidDate,
	}
}

// CommissionCancelledEvent is raised when a commission is cancelled
type CommissionCancelledEvent struct {
	shared.BaseDomainEvent
	DealID  uuid.UUID `json:"deal_id"`
	AgentID uuid.UUID `json:"agent_id"`
	Reason  string    `json:"reason"`
}

// EventType returns the event type name
func (e *CommissionCancelledEvent) EventType() string {
	return "CommissionCancelled"
}

// NewCommissionCancelledEvent creates a new CommissionCancelledEvent
func NewCommissionCancelledEvent(c *Commission) *CommissionCancelledEvent {
	return &CommissionCancelledEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("CommissionCancelled", "Commission", c.ID),
		DealID:          c.DealID,
		AgentID:         c.AgentID,
		Reason:          c.CancelReason,
	}
}
